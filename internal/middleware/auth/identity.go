package auth

import (
	"errors"
	"slices"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kbazanov/bookly/internal/apperrors"
	"github.com/kbazanov/bookly/internal/models"
)

// CurrentUser resolves the verified claims into a persisted user record.
// One lookup by email per request. The match is exact: no canonicalization
// happens anywhere, so the address is compared byte for byte as at signup.
func (g *TokenGuard) CurrentUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := ClaimsFromContext(c)
		if claims == nil {
			return apperrors.ErrMissingToken
		}

		email, _ := claims.User["email"].(string)
		var user models.User
		if err := g.DB.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return err
		}

		c.Set(CtxUser, &user)
		return next(c)
	}
}

// RequireRoles gates on account state and role. Unverified accounts are
// rejected before the role is even looked at; the role check itself is a flat
// allow-list with no hierarchy, so "admin" passes only where "admin" is listed.
func RequireRoles(allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFromContext(c)
			if user == nil {
				return apperrors.ErrInsufficientPermission
			}
			if !user.IsVerified {
				return apperrors.ErrAccountNotVerified
			}
			if !slices.Contains(allowed, user.Role) {
				return apperrors.ErrInsufficientPermission
			}
			return next(c)
		}
	}
}

func UserFromContext(c echo.Context) *models.User {
	user, _ := c.Get(CtxUser).(*models.User)
	return user
}
