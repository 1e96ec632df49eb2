package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kbazanov/bookly/internal/apperrors"
	"github.com/kbazanov/bookly/internal/blocklist"
	"github.com/kbazanov/bookly/internal/logging"
	"github.com/kbazanov/bookly/internal/token"
)

const (
	CtxClaims = "claims"
	CtxUser   = "current_user"
)

// TokenGuard runs the per-request verification pipeline: extract bearer
// token, decode, blocklist check, kind check. Each stage short-circuits with
// its own typed error; on success the claims land on the echo context.
type TokenGuard struct {
	Codec     *token.Codec
	Blocklist *blocklist.Store
	DB        *gorm.DB
}

func (g *TokenGuard) RequireAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, false)
}

func (g *TokenGuard) RequireRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, true)
}

func (g *TokenGuard) require(next echo.HandlerFunc, refresh bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := bearerToken(c)
		if err != nil {
			return err
		}

		claims, err := g.Codec.DecodeClaims(raw)
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		revoked, err := g.Blocklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Blocklist unreachable: fail closed.
			logging.FromContext(ctx).Error("blocklist lookup failed", "jti", claims.ID, "error", err)
			return apperrors.ErrRevokedToken
		}
		if revoked {
			return apperrors.ErrRevokedToken
		}

		if claims.Refresh != refresh {
			if refresh {
				return apperrors.ErrRefreshTokenRequired
			}
			return apperrors.ErrAccessTokenRequired
		}

		c.Set(CtxClaims, claims)
		return next(c)
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.ErrMissingToken
	}
	return parts[1], nil
}

func ClaimsFromContext(c echo.Context) *token.Claims {
	claims, _ := c.Get(CtxClaims).(*token.Claims)
	return claims
}
