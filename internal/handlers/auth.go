package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kbazanov/bookly/internal/apperrors"
	"github.com/kbazanov/bookly/internal/blocklist"
	"github.com/kbazanov/bookly/internal/hash"
	"github.com/kbazanov/bookly/internal/mail"
	authmw "github.com/kbazanov/bookly/internal/middleware/auth"
	"github.com/kbazanov/bookly/internal/models"
	"github.com/kbazanov/bookly/internal/mykafka"
	"github.com/kbazanov/bookly/internal/token"
)

type AuthHandler struct {
	DB        *gorm.DB
	Codec     *token.Codec
	Links     *token.Serializer
	Blocklist *blocklist.Store
	Producer  *mykafka.Producer
	Domain    string
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "email and a password of at least 8 characters are required")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return apperrors.ErrUserAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         "user",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return err
	}

	link, err := h.actionLink("verify", user.Email)
	if err != nil {
		return err
	}
	publish(c, h.Producer, mykafka.TopicMailJobs, user.Email, mail.VerificationJob(user.Email, user.Username, link))
	publish(c, h.Producer, mykafka.TopicUserEvents, user.UID.String(), map[string]interface{}{
		"type":     "user_registered",
		"user_uid": user.UID,
		"email":    user.Email,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Account created successfully! Check your email to verify your account.",
		"user":    user,
	})
}

func (h *AuthHandler) Verify(c echo.Context) error {
	payload, err := h.Links.Verify(c.Param("token"))
	if err != nil {
		return err
	}

	email := payload["email"]
	if email == "" {
		return apperrors.ErrInvalidToken
	}

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return err
	}

	if err := h.DB.Model(&user).Update("is_verified", true).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Account verified successfully"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidCredentials
		}
		return err
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return apperrors.ErrInvalidCredentials
	}

	accessToken, err := h.Codec.MintClaims(map[string]interface{}{
		"email":    user.Email,
		"user_uid": user.UID.String(),
		"role":     user.Role,
	}, token.AccessTokenTTL, false)
	if err != nil {
		return err
	}

	refreshToken, err := h.Codec.MintClaims(map[string]interface{}{
		"email":    user.Email,
		"user_uid": user.UID.String(),
	}, token.RefreshTokenTTL, true)
	if err != nil {
		return err
	}

	publish(c, h.Producer, mykafka.TopicUserEvents, user.UID.String(), map[string]interface{}{
		"type":     "user_logged_in",
		"user_uid": user.UID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Login successful",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "bearer",
		"user": echo.Map{
			"email":    user.Email,
			"user_uid": user.UID.String(),
		},
	})
}

// Refresh issues a fresh access token off a still-valid refresh token. The
// guard already verified signature, expiry, blocklist and kind.
func (h *AuthHandler) Refresh(c echo.Context) error {
	claims := authmw.ClaimsFromContext(c)
	if claims == nil || claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		return apperrors.ErrInvalidToken
	}

	accessToken, err := h.Codec.MintClaims(claims.User, token.AccessTokenTTL, false)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"new_access_token": accessToken})
}

// Logout puts the presented token's jti on the blocklist; the token stays
// cryptographically valid until expiry but the pipeline will reject it.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims := authmw.ClaimsFromContext(c)
	if claims == nil {
		return apperrors.ErrMissingToken
	}

	if err := h.Blocklist.Revoke(c.Request().Context(), claims.ID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user := authmw.UserFromContext(c)
	if user == nil {
		return apperrors.ErrUserNotFound
	}

	var full models.User
	if err := h.DB.Preload("Books").Preload("Reviews").First(&full, "uid = ?", user.UID).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, full)
}

func (h *AuthHandler) PasswordResetRequest(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}

	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	link, err := h.actionLink("password-reset-confirm", req.Email)
	if err != nil {
		return err
	}
	publish(c, h.Producer, mykafka.TopicMailJobs, req.Email, mail.PasswordResetJob(req.Email, link))

	return c.JSON(http.StatusOK, echo.Map{"message": "Please check your email for a password reset link"})
}

func (h *AuthHandler) PasswordResetConfirm(c echo.Context) error {
	var req struct {
		NewPassword        string `json:"new_password"`
		ConfirmNewPassword string `json:"confirm_new_password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.NewPassword == "" || req.NewPassword != req.ConfirmNewPassword {
		return echo.NewHTTPError(http.StatusBadRequest, "passwords do not match")
	}

	payload, err := h.Links.Verify(c.Param("token"))
	if err != nil {
		return err
	}
	email := payload["email"]
	if email == "" {
		return apperrors.ErrInvalidToken
	}

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return err
	}

	pwHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := h.DB.Model(&user).Update("password_hash", pwHash).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successfully"})
}

func (h *AuthHandler) SendMail(c echo.Context) error {
	var req struct {
		Addresses []string `json:"addresses"`
	}

	if err := c.Bind(&req); err != nil || len(req.Addresses) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	publish(c, h.Producer, mykafka.TopicMailJobs, req.Addresses[0], mail.WelcomeJob(req.Addresses))

	return c.JSON(http.StatusOK, echo.Map{"message": "Email queued successfully"})
}

func (h *AuthHandler) actionLink(path, email string) (string, error) {
	t, err := h.Links.Sign(map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s/api/v1/auth/%s/%s", h.Domain, path, t), nil
}
