package notifications

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"

	"github.com/nats-io/nats.go"
)

// DefaultAlertSubject is the NATS subject factory alerts are published on.
const DefaultAlertSubject = "factory.alerts"

// natsPublisher is the part of *nats.Conn the alert bus needs.
type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// AlertBus publishes factory alerts to NATS. A nil *AlertBus discards alerts.
type AlertBus struct {
	conn    natsPublisher
	subject string
}

func NewAlertBus(conn natsPublisher, subject string) *AlertBus {
	if subject == "" {
		subject = DefaultAlertSubject
	}
	return &AlertBus{conn: conn, subject: subject}
}

// Subject returns the subject alerts for one factory go to: <subject>.<factory id>.
func (b *AlertBus) Subject(factoryID string) string {
	return b.subject + "." + factoryID
}

func (b *AlertBus) Publish(alert models.FactoryAlert) error {
	if b == nil || b.conn == nil {
		return nil
	}
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	return b.conn.Publish(b.Subject(alert.FactoryID), data)
}

// ConnectNATS dials url, retrying a few times while the broker starts up.
func ConnectNATS(url string, attempts int) (*nats.Conn, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		conn, err := nats.Connect(url,
			nats.Name("factoryfeed"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					middleware.Logger.Warn("nats disconnected", slog.String("error", err.Error()))
				}
			}),
		)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		middleware.Logger.Info("waiting for nats", slog.Int("attempt", i+1), slog.String("error", err.Error()))
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("connect nats: %w", lastErr)
}
