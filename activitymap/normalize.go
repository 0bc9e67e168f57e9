package activitymap

import (
	"context"
	"fmt"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-resolver"
)

// MetadataKeyError is the event metadata key carrying a strategy failure
const MetadataKeyError = "error"

const (
	defaultChannel = "auth"
	anonymousActor = "anonymous"
)

// Normalized is the flat record written for each resolution attempt.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	Outcome    string         `json:"outcome"`
	Strategy   string         `json:"strategy,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Option func(*options)

type options struct {
	channel       string
	actorFallback string
}

func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

// WithActorFallback sets the actor recorded for attempts that resolved no
// user. Defaults to "anonymous".
func WithActorFallback(actorID string) Option {
	return func(o *options) {
		o.actorFallback = strings.TrimSpace(actorID)
	}
}

// Normalize flattens an auth.ActivityEvent. The failure reason moves out of
// the metadata into Error; the event itself is not modified.
func Normalize(event auth.ActivityEvent, opts ...Option) Normalized {
	o := options{channel: defaultChannel, actorFallback: anonymousActor}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	out := Normalized{
		ActorID:    strings.TrimSpace(event.UserID),
		Verb:       string(event.EventType),
		Outcome:    outcomeOf(event.EventType),
		Strategy:   event.Strategy,
		Channel:    o.channel,
		OccurredAt: event.OccurredAt,
	}
	if out.ActorID == "" {
		out.ActorID = o.actorFallback
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now().UTC()
	}

	for key, value := range event.Metadata {
		if key == MetadataKeyError {
			out.Error = fmt.Sprint(value)
			continue
		}
		if out.Metadata == nil {
			out.Metadata = make(map[string]any, len(event.Metadata))
		}
		out.Metadata[key] = value
	}

	return out
}

// Sink adapts a callback receiving normalized records to auth.ActivitySink
func Sink(emit func(Normalized) error, opts ...Option) auth.ActivitySink {
	return auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		if emit == nil {
			return nil
		}
		return emit(Normalize(event, opts...))
	})
}

func outcomeOf(eventType auth.ActivityEventType) string {
	switch eventType {
	case auth.ActivityEventLoginSuccess:
		return auth.OutcomeSuccess
	case auth.ActivityEventLoginFailure:
		return auth.OutcomeFailure
	}
	return ""
}
