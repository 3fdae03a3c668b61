// Package commands implements the oscquery-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oscquery/oscquery-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Transport *log.Transport
	Direction *log.Direction
	Category  *log.Category
	Path      string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION TRANSPORT Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	dir := event.Direction.String()

	var typeLabel string
	switch {
	case event.Query != nil:
		typeLabel = "Query"
	case event.Edit != nil:
		typeLabel = "Edit"
	case event.Notify != nil:
		typeLabel = event.Notify.Command
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %-4s %s\n", ts, connID, dir, event.Transport.String(), typeLabel)

	if event.Path != "" {
		fmt.Fprintf(w, "  Path: %s\n", event.Path)
	}
	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", event.RemoteAddr)
	}

	switch {
	case event.Query != nil:
		formatQueryDetails(w, event.Query)
	case event.Edit != nil:
		formatEditDetails(w, event.Edit)
	case event.Notify != nil:
		formatNotifyDetails(w, event.Notify)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatQueryDetails writes attribute query details.
func formatQueryDetails(w io.Writer, q *log.QueryEvent) {
	if q.Param != "" {
		fmt.Fprintf(w, "  Param: %s\n", q.Param)
	}
	fmt.Fprintf(w, "  Status: %d\n", q.Status)
	if q.Duration != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*q.Duration))
	}
}

// formatEditDetails writes tree edit details.
func formatEditDetails(w io.Writer, e *log.EditEvent) {
	fmt.Fprintf(w, "  Kind: %s  Origin: %s\n", e.Kind, e.Origin)
	if e.Tags != "" {
		fmt.Fprintf(w, "  Tags: %s\n", e.Tags)
	}
	fmt.Fprintf(w, "  Changed: %t\n", e.Changed)
}

// formatNotifyDetails writes subscriber notification details.
func formatNotifyDetails(w io.Writer, n *log.NotifyEvent) {
	fmt.Fprintf(w, "  Subscribers: %d\n", n.Subscribers)
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEvent) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// filterEvents returns events matching the filter criteria.
func filterEvents(events []log.Event, filter ViewFilter) []log.Event {
	var result []log.Event
	for _, e := range events {
		if filter.Transport != nil && e.Transport != *filter.Transport {
			continue
		}
		if filter.Direction != nil && e.Direction != *filter.Direction {
			continue
		}
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		if filter.Path != "" && e.Path != filter.Path {
			continue
		}
		result = append(result, e)
	}
	return result
}

// ParseTransportFlag parses a transport string from command-line flag (case-insensitive).
func ParseTransportFlag(s string) (log.Transport, error) {
	return parseTransport(s)
}

// parseTransport parses a transport string (case-insensitive).
func parseTransport(s string) (log.Transport, error) {
	switch strings.ToLower(s) {
	case "http":
		return log.TransportHTTP, nil
	case "ws":
		return log.TransportWS, nil
	case "osc":
		return log.TransportOSC, nil
	case "host":
		return log.TransportHost, nil
	default:
		return 0, fmt.Errorf("invalid transport: %s (must be http, ws, osc, or host)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	return parseDirection(s)
}

// parseDirection parses a direction string (case-insensitive).
func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "query":
		return log.CategoryQuery, nil
	case "edit":
		return log.CategoryEdit, nil
	case "notify":
		return log.CategoryNotify, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be query, edit, notify, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if filter.Transport != nil && event.Transport != *filter.Transport {
			continue
		}
		if filter.Direction != nil && event.Direction != *filter.Direction {
			continue
		}
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}
		if filter.Path != "" && event.Path != filter.Path {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
