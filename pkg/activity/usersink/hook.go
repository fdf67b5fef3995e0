package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-syncsettings/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook records settings activity in a go-users ActivitySink. Window IDs are
// UUIDs, so the window the change happened in becomes the record's actor.
type Hook struct {
	Sink usertypes.ActivitySink
	// TenantID is stamped on every record when set.
	TenantID uuid.UUID
}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = event.Normalize()
	if !event.Valid() {
		return nil
	}
	objectType, objectID := event.Object()
	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    parseUUID(event.Window),
		UserID:     parseUUID(event.UserID),
		TenantID:   h.TenantID,
		Verb:       event.Verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    event.Channel,
		Data:       event.Data(),
		OccurredAt: event.OccurredAt,
	})
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
