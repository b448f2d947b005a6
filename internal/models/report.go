// Package models - client error reports and the batch document shipped to
// the chat dispatch.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ErrorReport is one client-reported error. Line and Date keep the string
// form the client sent; clients are panel installations in the field and
// send whatever they have.
type ErrorReport struct {
	Type      string `json:"type"`                 // Error class label
	Message   string `json:"message"`              // Log message text
	File      string `json:"file"`                 // Source-file label
	Line      string `json:"line"`                 // Line number as reported
	Date      string `json:"date"`                 // Occurrence time, unix seconds
	HumanDate string `json:"human_date,omitempty"` // Derived UTC timestamp, omitted when Date is unusable
}

// DeriveHumanDate fills HumanDate from Date. A missing or non-numeric Date
// leaves HumanDate empty; a bad timestamp in one report must not sink the
// batch.
func (e *ErrorReport) DeriveHumanDate() {
	if e.Date == "" {
		return
	}
	secs, err := strconv.ParseInt(e.Date, 10, 64)
	if err != nil {
		return
	}
	e.HumanDate = time.Unix(secs, 0).UTC().Format("2006-01-02 15:04:05")
}

// ErrorBatch is one client submission: the ordered reports plus application
// metadata and a server-assigned reception timestamp. It is serialized and
// handed to the dispatch collaborator immediately, never retained.
type ErrorBatch struct {
	Errors     []ErrorReport `json:"errors"`
	Version    string        `json:"version"`
	Revision   string        `json:"revision"`
	ReceivedAt string        `json:"received_at"` // ISO-8601, UTC
}

// NewErrorBatch stamps a batch with the server clock.
func NewErrorBatch(reports []ErrorReport, version, revision string, now time.Time) *ErrorBatch {
	return &ErrorBatch{
		Errors:     reports,
		Version:    version,
		Revision:   revision,
		ReceivedAt: now.UTC().Format(time.RFC3339),
	}
}

// Payload serializes the batch as indented JSON for attachment upload.
func (b *ErrorBatch) Payload() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal error batch: %w", err)
	}
	return data, nil
}

// Filename derives the upload filename from the batch reception time.
func (b *ErrorBatch) Filename() string {
	t, err := time.Parse(time.RFC3339, b.ReceivedAt)
	if err != nil {
		t = time.Now().UTC()
	}
	return fmt.Sprintf("errors_%s.json", t.UTC().Format("20060102_150405"))
}
