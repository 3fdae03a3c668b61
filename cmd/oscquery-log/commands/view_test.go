package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/oscquery/oscquery-go/pkg/log"
)

func TestFormatQueryEvent(t *testing.T) {
	ts := time.Date(2026, 8, 12, 10, 15, 32, 123456000, time.UTC)
	dur := 250 * time.Microsecond
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionIn,
		Transport:    log.TransportHTTP,
		Category:     log.CategoryQuery,
		RemoteAddr:   "192.168.1.10:52110",
		Path:         "/synth/freq",
		Query: &log.QueryEvent{
			Param:    "VALUE",
			Status:   200,
			Duration: &dur,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "2026-08-12T10:15:32.123456Z") {
		t.Errorf("expected microsecond timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[conn:abc12345]") {
		t.Errorf("expected shortened connection ID, got: %s", output)
	}
	if !strings.Contains(output, "IN") {
		t.Errorf("expected IN direction, got: %s", output)
	}
	if !strings.Contains(output, "HTTP") {
		t.Errorf("expected HTTP transport, got: %s", output)
	}
	if !strings.Contains(output, "Path: /synth/freq") {
		t.Errorf("expected path line, got: %s", output)
	}
	if !strings.Contains(output, "Param: VALUE") {
		t.Errorf("expected param line, got: %s", output)
	}
	if !strings.Contains(output, "Status: 200") {
		t.Errorf("expected status line, got: %s", output)
	}
	if !strings.Contains(output, "Duration:") {
		t.Errorf("expected duration line, got: %s", output)
	}
}

func TestFormatEditEvent(t *testing.T) {
	ts := time.Date(2026, 8, 12, 10, 15, 33, 0, time.UTC)
	event := log.Event{
		Timestamp: ts,
		Direction: log.DirectionIn,
		Transport: log.TransportOSC,
		Category:  log.CategoryEdit,
		Path:      "/synth/gain",
		Edit: &log.EditEvent{
			Kind:    "SET",
			Origin:  "network",
			Tags:    "f",
			Changed: true,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "OSC") {
		t.Errorf("expected OSC transport, got: %s", output)
	}
	if !strings.Contains(output, "Kind: SET  Origin: network") {
		t.Errorf("expected edit detail line, got: %s", output)
	}
	if !strings.Contains(output, "Tags: f") {
		t.Errorf("expected tags line, got: %s", output)
	}
	if !strings.Contains(output, "Changed: true") {
		t.Errorf("expected changed line, got: %s", output)
	}
}

func TestFormatNotifyEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Date(2026, 8, 12, 10, 15, 34, 0, time.UTC),
		ConnectionID: "def67890-1234-5678-9012-34567890abcd",
		Direction:    log.DirectionOut,
		Transport:    log.TransportWS,
		Category:     log.CategoryNotify,
		Path:         "/synth/freq",
		Notify: &log.NotifyEvent{
			Command:     "PATH_CHANGED",
			Subscribers: 3,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "PATH_CHANGED") {
		t.Errorf("expected command label, got: %s", output)
	}
	if !strings.Contains(output, "Subscribers: 3") {
		t.Errorf("expected subscriber count, got: %s", output)
	}
	if !strings.Contains(output, "OUT") {
		t.Errorf("expected OUT direction, got: %s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Date(2026, 8, 12, 10, 15, 35, 0, time.UTC),
		Direction: log.DirectionIn,
		Transport: log.TransportWS,
		Category:  log.CategoryError,
		Error: &log.ErrorEvent{
			Message: "malformed packet",
			Context: "osc decode",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Error") {
		t.Errorf("expected Error label, got: %s", output)
	}
	if !strings.Contains(output, "Message: malformed packet") {
		t.Errorf("expected message line, got: %s", output)
	}
	if !strings.Contains(output, "Context: osc decode") {
		t.Errorf("expected context line, got: %s", output)
	}
}

func TestFilterByTransport(t *testing.T) {
	events := []log.Event{
		{Transport: log.TransportHTTP, Category: log.CategoryQuery},
		{Transport: log.TransportWS, Category: log.CategoryNotify},
		{Transport: log.TransportOSC, Category: log.CategoryEdit},
	}

	ws := log.TransportWS
	filter := ViewFilter{Transport: &ws}

	filtered := filterEvents(events, filter)
	if len(filtered) != 1 {
		t.Errorf("expected 1 event, got %d", len(filtered))
	}
	if filtered[0].Transport != log.TransportWS {
		t.Errorf("expected WS transport, got %v", filtered[0].Transport)
	}
}

func TestFilterByDirection(t *testing.T) {
	events := []log.Event{
		{Direction: log.DirectionIn, Category: log.CategoryEdit},
		{Direction: log.DirectionOut, Category: log.CategoryNotify},
		{Direction: log.DirectionIn, Category: log.CategoryQuery},
	}

	out := log.DirectionOut
	filter := ViewFilter{Direction: &out}

	filtered := filterEvents(events, filter)
	if len(filtered) != 1 {
		t.Errorf("expected 1 event, got %d", len(filtered))
	}
	if filtered[0].Direction != log.DirectionOut {
		t.Errorf("expected out direction, got %v", filtered[0].Direction)
	}
}

func TestFilterByPath(t *testing.T) {
	events := []log.Event{
		{Path: "/synth/freq", Category: log.CategoryEdit},
		{Path: "/synth/gain", Category: log.CategoryEdit},
		{Path: "/synth/freq", Category: log.CategoryNotify},
	}

	filter := ViewFilter{Path: "/synth/freq"}

	filtered := filterEvents(events, filter)
	if len(filtered) != 2 {
		t.Errorf("expected 2 events, got %d", len(filtered))
	}
	for _, e := range filtered {
		if e.Path != "/synth/freq" {
			t.Errorf("expected /synth/freq, got %s", e.Path)
		}
	}
}

func TestParseTransport(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Transport
		wantErr  bool
	}{
		{"http", log.TransportHTTP, false},
		{"HTTP", log.TransportHTTP, false},
		{"ws", log.TransportWS, false},
		{"osc", log.TransportOSC, false},
		{"host", log.TransportHost, false},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		got, err := parseTransport(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseTransport(%q) expected error", tt.input)
			}
		} else {
			if err != nil {
				t.Errorf("parseTransport(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseTransport(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Direction
		wantErr  bool
	}{
		{"in", log.DirectionIn, false},
		{"IN", log.DirectionIn, false},
		{"out", log.DirectionOut, false},
		{"OUT", log.DirectionOut, false},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		got, err := parseDirection(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseDirection(%q) expected error", tt.input)
			}
		} else {
			if err != nil {
				t.Errorf("parseDirection(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseDirection(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		}
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Category
		wantErr  bool
	}{
		{"query", log.CategoryQuery, false},
		{"QUERY", log.CategoryQuery, false},
		{"edit", log.CategoryEdit, false},
		{"notify", log.CategoryNotify, false},
		{"error", log.CategoryError, false},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		got, err := parseCategory(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseCategory(%q) expected error", tt.input)
			}
		} else {
			if err != nil {
				t.Errorf("parseCategory(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseCategory(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		}
	}
}

func TestRunViewFromFile(t *testing.T) {
	path := writeTestLog(t)

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView returned error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{"Query", "Edit", "PATH_CHANGED", "Error"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestRunViewCategoryFilter(t *testing.T) {
	path := writeTestLog(t)

	edit := log.CategoryEdit
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Category: &edit}, &buf); err != nil {
		t.Fatalf("RunView returned error: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Kind: SET") {
		t.Errorf("expected edit event in output, got: %s", output)
	}
	if strings.Contains(output, "PATH_CHANGED") {
		t.Errorf("notify event should be filtered out, got: %s", output)
	}
	if strings.Contains(output, "Status: 200") {
		t.Errorf("query event should be filtered out, got: %s", output)
	}
}
