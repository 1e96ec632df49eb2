package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbazanov/bookly/internal/config"
	"github.com/kbazanov/bookly/internal/logging"
	"github.com/kbazanov/bookly/internal/mail"
	"github.com/kbazanov/bookly/internal/mykafka"
)

// The worker drains the mail_jobs topic and delivers over SMTP, keeping
// email latency out of the request path.
func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	mailer := mail.New(mail.Config{
		Server:   configuration.MAIL_SERVER,
		Port:     configuration.MAIL_PORT,
		Username: configuration.MAIL_USERNAME,
		Password: configuration.MAIL_PASSWORD,
		From:     configuration.MAIL_FROM,
	})

	consumer := mykafka.NewConsumer([]string{configuration.KAFKA_ADDRESS}, mykafka.TopicMailJobs, "mail-worker")
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("mail worker started", "topic", mykafka.TopicMailJobs)

	for {
		msg, err := consumer.Fetch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error("kafka fetch error", "error", err)
			continue
		}

		var job mail.Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			logger.Error("bad mail job", "offset", msg.Offset, "error", err)
			continue
		}

		if err := mailer.Send(job); err != nil {
			logger.Error("mail send failed", "to", job.To, "error", err)
			continue
		}
		logger.Info("mail sent", "to", job.To, "subject", job.Subject)
	}

	logger.Info("mail worker stopped")
}
