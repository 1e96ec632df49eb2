package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbazanov/bookly/internal/apperrors"
	"github.com/kbazanov/bookly/internal/hash"
	"github.com/kbazanov/bookly/internal/models"
)

func TestSignup_CreatesUser(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"username":   "ada",
		"email":      "ada@x.com",
		"password":   "hunter2hunter2",
	}, "")
	require.NoError(t, env.Auth.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ada@x.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, rec.Body.String(), "hunter2")

	var stored models.User
	require.NoError(t, env.DB.Where("email = ?", "ada@x.com").First(&stored).Error)
	assert.False(t, stored.IsVerified)
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "hunter2hunter2"))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada@x.com", "hunter2hunter2", "user")

	c, _ := env.request(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "ada2",
		"email":    "ada@x.com",
		"password": "hunter2hunter2",
	}, "")
	err := env.Auth.Signup(c)
	assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
}

func TestSignup_ShortPassword(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":    "ada@x.com",
		"password": "short",
	}, "")
	err := env.Auth.Signup(c)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrUserAlreadyExists)
}

func TestLogin_ReturnsTokenPair(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ada@x.com", "hunter2hunter2", "user")

	c, rec := env.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ada@x.com",
		"password": "hunter2hunter2",
	}, "")
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "bearer", body["token_type"])

	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	accessClaims, err := env.Guard.Codec.DecodeClaims(access)
	require.NoError(t, err)
	assert.False(t, accessClaims.Refresh)
	assert.Equal(t, "ada@x.com", accessClaims.User["email"])
	assert.Equal(t, user.UID.String(), accessClaims.User["user_uid"])
	assert.Equal(t, "user", accessClaims.User["role"])

	refreshClaims, err := env.Guard.Codec.DecodeClaims(refresh)
	require.NoError(t, err)
	assert.True(t, refreshClaims.Refresh)
	assert.NotEqual(t, accessClaims.ID, refreshClaims.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada@x.com", "hunter2hunter2", "user")

	c, _ := env.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ada@x.com",
		"password": "wrong-password",
	}, "")
	assert.ErrorIs(t, env.Auth.Login(c), apperrors.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ghost@x.com",
		"password": "hunter2hunter2",
	}, "")
	assert.ErrorIs(t, env.Auth.Login(c), apperrors.ErrInvalidCredentials)
}

func TestRefresh_MintsNewAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada@x.com", "hunter2hunter2", "user")
	_, refresh := env.login(t, "ada@x.com", "hunter2hunter2")

	c, rec := env.request(http.MethodGet, "/api/v1/auth/refresh_token", nil, refresh)
	require.NoError(t, env.Guard.RequireRefresh(env.Auth.Refresh)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	raw, _ := body["new_access_token"].(string)
	require.NotEmpty(t, raw)

	claims, err := env.Guard.Codec.DecodeClaims(raw)
	require.NoError(t, err)
	assert.False(t, claims.Refresh)
	assert.Equal(t, "ada@x.com", claims.User["email"])
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada@x.com", "hunter2hunter2", "user")
	access, _ := env.login(t, "ada@x.com", "hunter2hunter2")

	c, _ := env.request(http.MethodGet, "/api/v1/auth/refresh_token", nil, access)
	err := env.Guard.RequireRefresh(env.Auth.Refresh)(c)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRequired)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada@x.com", "hunter2hunter2", "user")
	access, _ := env.login(t, "ada@x.com", "hunter2hunter2")

	c, rec := env.request(http.MethodGet, "/api/v1/auth/logout", nil, access)
	require.NoError(t, env.Guard.RequireAccess(env.Auth.Logout)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The same token is rejected from here on even though its signature
	// and expiry are still good.
	c, _ = env.request(http.MethodGet, "/api/v1/auth/me", nil, access)
	err := env.Guard.RequireAccess(env.Auth.Me)(c)
	assert.ErrorIs(t, err, apperrors.ErrRevokedToken)
}

func TestLogout_LeavesOtherTokensAlone(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada@x.com", "hunter2hunter2", "user")
	first, _ := env.login(t, "ada@x.com", "hunter2hunter2")
	second, _ := env.login(t, "ada@x.com", "hunter2hunter2")

	c, _ := env.request(http.MethodGet, "/api/v1/auth/logout", nil, first)
	require.NoError(t, env.Guard.RequireAccess(env.Auth.Logout)(c))

	c, _ = env.request(http.MethodGet, "/", nil, second)
	require.NoError(t, env.Guard.RequireAccess(func(echo.Context) error { return nil })(c))
}

func TestMe_ReturnsUserWithBooksAndReviews(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ada@x.com", "hunter2hunter2", "user")

	book := models.Book{Title: "DUNE", Author: "FRANK HERBERT", UserUID: user.UID}
	require.NoError(t, env.DB.Create(&book).Error)
	review := models.Review{Rating: 5, ReviewText: "great", UserUID: user.UID, BookUID: book.UID}
	require.NoError(t, env.DB.Create(&review).Error)

	access, _ := env.login(t, "ada@x.com", "hunter2hunter2")

	c, rec := env.request(http.MethodGet, "/api/v1/auth/me", nil, access)
	require.NoError(t, env.Guard.RequireAccess(env.Guard.CurrentUser(env.Auth.Me))(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ada@x.com", body["email"])
	assert.Len(t, body["books"], 1)
	assert.Len(t, body["reviews"], 1)
	assert.NotContains(t, body, "password_hash")
}

func TestVerify_MarksAccountVerified(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada@x.com", "hunter2hunter2", "user")

	raw, err := env.Auth.Links.Sign(map[string]string{"email": "ada@x.com"})
	require.NoError(t, err)

	c, rec := env.request(http.MethodGet, "/api/v1/auth/verify/"+raw, nil, "")
	c.SetParamNames("token")
	c.SetParamValues(raw)

	require.NoError(t, env.Auth.Verify(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, env.DB.Where("email = ?", "ada@x.com").First(&stored).Error)
	assert.True(t, stored.IsVerified)
}

func TestVerify_BadToken(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(http.MethodGet, "/api/v1/auth/verify/garbage", nil, "")
	c.SetParamNames("token")
	c.SetParamValues("garbage")

	assert.ErrorIs(t, env.Auth.Verify(c), apperrors.ErrInvalidToken)
}

func TestPasswordResetConfirm_UpdatesPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada@x.com", "old-password-1", "user")

	raw, err := env.Auth.Links.Sign(map[string]string{"email": "ada@x.com"})
	require.NoError(t, err)

	c, rec := env.request(http.MethodPost, "/api/v1/auth/password-reset-confirm/"+raw, map[string]string{
		"new_password":         "new-password-1",
		"confirm_new_password": "new-password-1",
	}, "")
	c.SetParamNames("token")
	c.SetParamValues(raw)

	require.NoError(t, env.Auth.PasswordResetConfirm(c))
	require.Equal(t, http.StatusOK, rec.Code)

	env.login(t, "ada@x.com", "new-password-1")

	c, _ = env.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ada@x.com",
		"password": "old-password-1",
	}, "")
	assert.ErrorIs(t, env.Auth.Login(c), apperrors.ErrInvalidCredentials)
}

func TestPasswordResetConfirm_Mismatch(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(http.MethodPost, "/api/v1/auth/password-reset-confirm/x", map[string]string{
		"new_password":         "new-password-1",
		"confirm_new_password": "something-else",
	}, "")
	c.SetParamNames("token")
	c.SetParamValues("x")

	err := env.Auth.PasswordResetConfirm(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
