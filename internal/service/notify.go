package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/authgate/internal/events"
	"github.com/Skotchmaster/authgate/internal/logging"
	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/search"
)

const indexTimeout = 5 * time.Second

// Side effects run after the store mutation committed; their failures are
// logged and never change the outcome of the request.

func publish(ctx context.Context, p events.Publisher, e events.Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}

func reindex(ctx context.Context, idx search.Index, u models.PublicUser) {
	if idx == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := idx.IndexUser(ctx, u); err != nil {
		logging.FromContext(ctx).Warn("user_index_failed", "user_id", u.ID, "error", err)
	}
}

func unindex(ctx context.Context, idx search.Index, id uint) {
	if idx == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := idx.DeleteUser(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("user_unindex_failed", "user_id", id, "error", err)
	}
}
