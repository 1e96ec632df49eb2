package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kbazanov/bookly/internal/apperrors"
	"github.com/kbazanov/bookly/internal/logging"
	authmw "github.com/kbazanov/bookly/internal/middleware/auth"
	"github.com/kbazanov/bookly/internal/models"
	"github.com/kbazanov/bookly/internal/mykafka"
	"github.com/kbazanov/bookly/internal/service/search"
	"github.com/kbazanov/bookly/internal/util"
)

type BookHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

type bookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"published_date"`
	PageCount     int    `json:"page_count"`
	Language      string `json:"language"`
}

// normalize is the duplicate-detection form of title and author.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (h *BookHandler) GetBooks(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Book{}).Count(&total).Error; err != nil {
		return err
	}

	var items []models.Book
	if err := h.DB.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{
			"size":  limit,
			"total": total,
		},
	})
}

func (h *BookHandler) GetBook(c echo.Context) error {
	book, err := h.findBook(c.Param("uid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BookHandler) CreateBook(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	title, author := normalize(req.Title), normalize(req.Author)
	if title == "" || author == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and author are required")
	}

	var existing models.Book
	err := h.DB.Where("title = ? AND author = ?", title, author).First(&existing).Error
	if err == nil {
		return apperrors.ErrBookAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user := authmw.UserFromContext(c)
	if user == nil {
		return apperrors.ErrUserNotFound
	}

	book := models.Book{
		Title:         title,
		Author:        author,
		Publisher:     req.Publisher,
		PublishedDate: req.PublishedDate,
		PageCount:     req.PageCount,
		Language:      req.Language,
		UserUID:       user.UID,
	}
	if err := h.DB.Create(&book).Error; err != nil {
		return err
	}

	h.index(c, &book)
	publish(c, h.Producer, mykafka.TopicBookEvents, book.UID.String(), map[string]interface{}{
		"type":     "book_created",
		"book_uid": book.UID,
		"title":    book.Title,
	})

	return c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) PatchBook(c echo.Context) error {
	book, err := h.findBook(c.Param("uid"))
	if err != nil {
		return err
	}

	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Title != "" {
		book.Title = normalize(req.Title)
	}
	if req.Author != "" {
		book.Author = normalize(req.Author)
	}
	if req.Publisher != "" {
		book.Publisher = req.Publisher
	}
	if req.PublishedDate != "" {
		book.PublishedDate = req.PublishedDate
	}
	if req.PageCount != 0 {
		book.PageCount = req.PageCount
	}
	if req.Language != "" {
		book.Language = req.Language
	}

	if err := h.DB.Save(book).Error; err != nil {
		return err
	}

	h.index(c, book)
	publish(c, h.Producer, mykafka.TopicBookEvents, book.UID.String(), map[string]interface{}{
		"type":     "book_updated",
		"book_uid": book.UID,
		"title":    book.Title,
	})

	return c.JSON(http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(c echo.Context) error {
	book, err := h.findBook(c.Param("uid"))
	if err != nil {
		return err
	}

	if err := h.DB.Delete(book).Error; err != nil {
		return err
	}

	if h.ES != nil {
		if err := search.DeleteBook(c.Request().Context(), h.ES, h.ESIndex, book.UID.String()); err != nil {
			logging.FromContext(c.Request().Context()).Error("es deindex failed", "book_uid", book.UID, "error", err)
		}
	}
	publish(c, h.Producer, mykafka.TopicBookEvents, book.UID.String(), map[string]interface{}{
		"type":     "book_deleted",
		"book_uid": book.UID,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *BookHandler) Search(c echo.Context) error {
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is unavailable")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query parameter q")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	total, books, err := search.Books(c.Request().Context(), h.ES, h.ESIndex, q, from, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "books": books})
}

func (h *BookHandler) findBook(rawUID string) (*models.Book, error) {
	uid, err := uuid.Parse(rawUID)
	if err != nil {
		return nil, apperrors.ErrBookNotFound
	}

	var book models.Book
	if err := h.DB.First(&book, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

func (h *BookHandler) index(c echo.Context, book *models.Book) {
	if h.ES == nil {
		return
	}
	if err := search.IndexBook(c.Request().Context(), h.ES, h.ESIndex, book); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index failed", "book_uid", book.UID, "error", err)
	}
}
