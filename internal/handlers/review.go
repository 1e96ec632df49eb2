package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kbazanov/bookly/internal/apperrors"
	authmw "github.com/kbazanov/bookly/internal/middleware/auth"
	"github.com/kbazanov/bookly/internal/models"
)

type ReviewHandler struct {
	DB *gorm.DB
}

// AddReview upserts the caller's review of a book: one review per
// (user, book), resubmission overwrites rating and text (last write wins).
func (h *ReviewHandler) AddReview(c echo.Context) error {
	bookUID, err := uuid.Parse(c.Param("book_uid"))
	if err != nil {
		return apperrors.ErrBookNotFound
	}

	var req struct {
		Rating     int    `json:"rating"`
		ReviewText string `json:"review_text"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	var book models.Book
	if err := h.DB.First(&book, "uid = ?", bookUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrBookNotFound
		}
		return err
	}

	user := authmw.UserFromContext(c)
	if user == nil {
		return apperrors.ErrUserNotFound
	}

	var review models.Review
	err = h.DB.Where("book_uid = ? AND user_uid = ?", book.UID, user.UID).First(&review).Error
	switch {
	case err == nil:
		review.Rating = req.Rating
		review.ReviewText = req.ReviewText
		if err := h.DB.Save(&review).Error; err != nil {
			return err
		}
		return c.JSON(http.StatusOK, review)
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = models.Review{
			Rating:     req.Rating,
			ReviewText: req.ReviewText,
			UserUID:    user.UID,
			BookUID:    book.UID,
		}
		if err := h.DB.Create(&review).Error; err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, review)
	default:
		return err
	}
}
