package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kbazanov/bookly/internal/handlers"
	"github.com/kbazanov/bookly/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *handlers.AuthHandler
	BookHandler   *handlers.BookHandler
	ReviewHandler *handlers.ReviewHandler
	Guard         *auth.TokenGuard
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	ag := v1.Group("/auth")
	ag.POST("/signup", d.AuthHandler.Signup)
	ag.POST("/login", d.AuthHandler.Login)
	ag.GET("/verify/:token", d.AuthHandler.Verify)
	ag.POST("/send_mail", d.AuthHandler.SendMail)
	ag.POST("/password-reset-request", d.AuthHandler.PasswordResetRequest)
	ag.POST("/password-reset-confirm/:token", d.AuthHandler.PasswordResetConfirm)
	ag.GET("/refresh_token", d.AuthHandler.Refresh, d.Guard.RequireRefresh)
	ag.GET("/logout", d.AuthHandler.Logout, d.Guard.RequireAccess)
	ag.GET("/me", d.AuthHandler.Me, d.Guard.RequireAccess, d.Guard.CurrentUser, auth.RequireRoles("admin", "user"))

	books := v1.Group("/books", d.Guard.RequireAccess, d.Guard.CurrentUser, auth.RequireRoles("admin", "user"))
	books.GET("", d.BookHandler.GetBooks)
	books.GET("/search", d.BookHandler.Search)
	books.GET("/:uid", d.BookHandler.GetBook)
	books.POST("", d.BookHandler.CreateBook)
	books.PATCH("/:uid", d.BookHandler.PatchBook)
	books.DELETE("/:uid", d.BookHandler.DeleteBook)

	reviews := v1.Group("/reviews", d.Guard.RequireAccess, d.Guard.CurrentUser, auth.RequireRoles("admin", "user"))
	reviews.POST("/:book_uid", d.ReviewHandler.AddReview)
}
