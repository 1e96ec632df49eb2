package apperrors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kbazanov/bookly/internal/logging"
)

// Sentinel errors for everything the auth core and the resource services can
// reject. Handlers and middleware return these as-is; HTTPErrorHandler turns
// them into the wire format exactly once.
var (
	ErrMissingToken           = errors.New("missing bearer token")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrRevokedToken           = errors.New("token has been revoked")
	ErrAccessTokenRequired    = errors.New("access token required")
	ErrRefreshTokenRequired   = errors.New("refresh token required")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserAlreadyExists      = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrBookNotFound           = errors.New("book not found")
	ErrBookAlreadyExists      = errors.New("book already exists")
	ErrAccountNotVerified     = errors.New("account not verified")
)

type response struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

type mapping struct {
	status int
	body   response
}

var table = []struct {
	err error
	m   mapping
}{
	{ErrMissingToken, mapping{http.StatusUnauthorized, response{"Please provide a bearer token", "missing_token"}}},
	{ErrInvalidToken, mapping{http.StatusUnauthorized, response{"Token is invalid or expired", "invalid_token"}}},
	{ErrRevokedToken, mapping{http.StatusUnauthorized, response{"Token is invalid or has been revoked", "token_revoked"}}},
	{ErrAccessTokenRequired, mapping{http.StatusUnauthorized, response{"Please provide a valid access token", "access_token_required"}}},
	{ErrRefreshTokenRequired, mapping{http.StatusForbidden, response{"Please provide a valid refresh token", "refresh_token_required"}}},
	{ErrUserNotFound, mapping{http.StatusNotFound, response{"User not found with this email", "user_not_found"}}},
	{ErrUserAlreadyExists, mapping{http.StatusForbidden, response{"User with email already exists", "user_exists"}}},
	{ErrInvalidCredentials, mapping{http.StatusUnauthorized, response{"Invalid email or password", "invalid_email_or_password"}}},
	{ErrInsufficientPermission, mapping{http.StatusUnauthorized, response{"Not authorized for this resource", "insufficient_permission"}}},
	{ErrBookNotFound, mapping{http.StatusNotFound, response{"Book not found", "book_not_found"}}},
	{ErrBookAlreadyExists, mapping{http.StatusForbidden, response{"Book with this title and author already exists", "book_exists"}}},
	{ErrAccountNotVerified, mapping{http.StatusForbidden, response{"Account not verified", "account_not_verified"}}},
}

// HTTPErrorHandler is the single boundary where typed errors become JSON.
// Anything not in the table surfaces as a generic 500 so internals never
// leak to clients.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	for _, entry := range table {
		if errors.Is(err, entry.err) {
			_ = c.JSON(entry.m.status, entry.m.body)
			return
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, response{Message: msg, ErrorCode: "http_error"})
		return
	}

	logging.FromContext(c.Request().Context()).Error("unhandled error", "method", c.Request().Method, "path", c.Path(), "error", err)
	_ = c.JSON(http.StatusInternalServerError, response{Message: "Oops! Something went wrong", ErrorCode: "server_error"})
}
