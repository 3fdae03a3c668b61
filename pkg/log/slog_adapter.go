package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("transport", event.Transport.String()),
		slog.String("category", event.Category.String()),
	}

	// Add optional identifiers
	if event.ConnectionID != "" {
		attrs = append(attrs, slog.String("conn_id", event.ConnectionID))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}

	// Add type-specific attributes
	switch {
	case event.Query != nil:
		attrs = append(attrs, slog.Int("status", event.Query.Status))
		if event.Query.Param != "" {
			attrs = append(attrs, slog.String("param", event.Query.Param))
		}
		if event.Query.Duration != nil {
			attrs = append(attrs, slog.Duration("duration", *event.Query.Duration))
		}
	case event.Edit != nil:
		attrs = append(attrs,
			slog.String("kind", event.Edit.Kind),
			slog.String("origin", event.Edit.Origin),
			slog.Bool("changed", event.Edit.Changed),
		)
		if event.Edit.Tags != "" {
			attrs = append(attrs, slog.String("tags", event.Edit.Tags))
		}
	case event.Notify != nil:
		attrs = append(attrs,
			slog.String("command", event.Notify.Command),
			slog.Int("subscribers", event.Notify.Subscribers),
		)
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
