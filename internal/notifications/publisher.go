package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
)

// Event is the envelope pushed to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Publisher turns feed changes into realtime events. With Redis available it
// publishes once and lets every instance's hub deliver through StartWiring;
// otherwise it delivers to the local hub directly. Factory alerts are also
// sent to the alert bus when one is configured.
type Publisher struct {
	hub      *Hub
	notifier *Notifier
	alerts   *AlertBus
}

func NewPublisher(hub *Hub, notifier *Notifier, alerts *AlertBus) *Publisher {
	return &Publisher{hub: hub, notifier: notifier, alerts: alerts}
}

func (p *Publisher) PostCreated(ctx context.Context, post *models.Post) {
	p.emit(ctx, Event{Type: models.EventPostCreated, Payload: map[string]any{"post": post}})
}

func (p *Publisher) PostDeleted(ctx context.Context, postID uint) {
	p.emit(ctx, Event{Type: models.EventPostDeleted, Payload: map[string]any{"post_id": postID}})
}

func (p *Publisher) PostReactionUpdated(ctx context.Context, postID uint, likeCount int, action models.LikeAction) {
	p.emit(ctx, Event{Type: models.EventPostReactionUpdated, Payload: map[string]any{
		"post_id":    postID,
		"like_count": likeCount,
		"action":     action,
	}})
}

func (p *Publisher) FactoryAlert(ctx context.Context, alert models.FactoryAlert) {
	p.emit(ctx, Event{Type: models.EventFactoryAlert, Payload: alert})
	if err := p.alerts.Publish(alert); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish factory alert",
			slog.String("factory_id", alert.FactoryID), slog.String("error", err.Error()))
	}
}

func (p *Publisher) emit(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to marshal event",
			slog.String("type", event.Type), slog.String("error", err.Error()))
		return
	}

	if p.notifier.Enabled() {
		// Detached so a cancelled request still gets its event out.
		err := p.notifier.PublishFeedEvent(context.WithoutCancel(ctx), string(data))
		if err == nil {
			return
		}
		middleware.Logger.WarnContext(ctx, "redis publish failed, delivering locally",
			slog.String("type", event.Type), slog.String("error", err.Error()))
	}
	if p.hub != nil {
		p.hub.BroadcastAll(data)
	}
}
