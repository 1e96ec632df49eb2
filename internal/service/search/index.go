package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/kbazanov/bookly/internal/models"
)

// IndexBook upserts the book document keyed by its uid, so create and
// update share one path.
func IndexBook(ctx context.Context, es *elasticsearch.Client, index string, book *models.Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("index: marshal book: %w", err)
	}

	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithDocumentID(book.UID.String()),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index: %s", res.Status())
	}
	return nil
}

func DeleteBook(ctx context.Context, es *elasticsearch.Client, index, uid string) error {
	res, err := es.Delete(index, uid, es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("deindex: %w", err)
	}
	defer res.Body.Close()

	// A missing document is already the desired state.
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("deindex: %s", res.Status())
	}
	return nil
}
