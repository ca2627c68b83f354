// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/domain"
)

// --- Envelope ---

// Envelope wraps every response body.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the error part of a failure envelope.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// OK wraps data into a success envelope.
func OK(data any, message string) Envelope {
	return Envelope{Success: true, Data: data, Message: message}
}

// Fail builds a failure envelope.
func Fail(code, message string, details map[string]any) Envelope {
	return Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message, Details: details},
	}
}

// --- Paging ---

// ListQuery contains the query parameters shared by list endpoints.
type ListQuery struct {
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"omitempty,min=0,max=500"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to a domain filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	return domain.ListFilter{
		Search:  q.Search,
		OrderBy: q.OrderBy,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}.Normalize()
}

// --- Dates ---

// Date accepts either a calendar date ("2026-03-01") or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	for _, layout := range []string{dateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// timePtr returns nil for a missing date.
func timePtr(d *Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// parseQueryDate parses an optional query parameter as a Date.
func parseQueryDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	var d Date
	if err := d.UnmarshalJSON([]byte(strconv.Quote(raw))); err != nil {
		return nil, invalidQuery(field, raw)
	}
	return timePtr(&d), nil
}

func invalidQuery(field, raw string) error {
	return apperror.NewValidation("invalid query parameter").
		WithDetail("field", field).
		WithDetail("value", raw)
}

// --- IDs ---

// ParseID parses a path or body identifier into a validation error on failure.
func ParseID(field, raw string) (id.ID, error) {
	parsed, err := id.Parse(raw)
	if err != nil || id.IsNil(parsed) {
		return id.Nil(), apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return parsed, nil
}

// parseOptionalID parses raw unless it is empty.
func parseOptionalID(field, raw string) (*id.ID, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := ParseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// IDResponse for operations that return only an id.
type IDResponse struct {
	ID string `json:"id"`
}
