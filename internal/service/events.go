package service

import (
	"context"

	"factoryfeed/internal/models"
)

// EventSink receives feed changes for realtime fan-out. Implementations must
// not block the caller for long; delivery is best effort.
type EventSink interface {
	PostCreated(ctx context.Context, post *models.Post)
	PostDeleted(ctx context.Context, postID uint)
	PostReactionUpdated(ctx context.Context, postID uint, likeCount int, action models.LikeAction)
	FactoryAlert(ctx context.Context, alert models.FactoryAlert)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) PostCreated(context.Context, *models.Post) {}
func (NopSink) PostDeleted(context.Context, uint) {}
func (NopSink) PostReactionUpdated(context.Context, uint, int, models.LikeAction) {}
func (NopSink) FactoryAlert(context.Context, models.FactoryAlert) {}
