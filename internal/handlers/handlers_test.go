package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kbazanov/bookly/internal/blocklist"
	"github.com/kbazanov/bookly/internal/hash"
	authmw "github.com/kbazanov/bookly/internal/middleware/auth"
	"github.com/kbazanov/bookly/internal/models"
	"github.com/kbazanov/bookly/internal/token"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	E       *echo.Echo
	DB      *gorm.DB
	MR      *miniredis.Miniredis
	Guard   *authmw.TokenGuard
	Auth    *AuthHandler
	Books   *BookHandler
	Reviews *ReviewHandler
}

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Book{}, &models.Review{}))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := initTestDB(t)

	mr := miniredis.RunT(t)
	blist, err := blocklist.New("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { blist.Close() })

	codec := token.NewCodec(testSecret)
	links := token.NewSerializer(testSecret, "test-salt", time.Hour)
	guard := &authmw.TokenGuard{Codec: codec, Blocklist: blist, DB: db}

	return &testEnv{
		E:     echo.New(),
		DB:    db,
		MR:    mr,
		Guard: guard,
		Auth: &AuthHandler{
			DB:        db,
			Codec:     codec,
			Links:     links,
			Blocklist: blist,
			Domain:    "localhost:8000",
		},
		Books:   &BookHandler{DB: db},
		Reviews: &ReviewHandler{DB: db},
	}
}

func (env *testEnv) request(method, path string, body interface{}, bearer string) (echo.Context, *httptest.ResponseRecorder) {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	return env.E.NewContext(req, rec), rec
}

func (env *testEnv) createUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     "tester",
		Email:        email,
		PasswordHash: pwHash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	require.NoError(t, env.DB.Create(user).Error)
	return user
}

func (env *testEnv) login(t *testing.T, email, password string) (access, refresh string) {
	t.Helper()

	c, rec := env.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	access, _ = resp["access_token"].(string)
	refresh, _ = resp["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
