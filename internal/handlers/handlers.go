package handlers

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kbazanov/bookly/internal/logging"
	"github.com/kbazanov/bookly/internal/mykafka"
)

// publish is fire-and-forget: a broker failure is logged and never fails
// the response.
func publish(c echo.Context, p *mykafka.Producer, topic, key string, event interface{}) {
	if p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "topic", topic, "error", err)
	}
}
