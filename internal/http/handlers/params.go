package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/domain"
)

// date-times without an offset, as sent by <input type="datetime-local">
var localDateTimes = []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04"}

// parseDate accepts RFC 3339, a date-time without offset (read as UTC) or
// YYYY-MM-DD (midnight UTC). dateOnly reports which form matched.
func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err = time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), false, nil
	}
	for _, layout := range localDateTimes {
		if t, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, false, nil
		}
	}
	if t, err = time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q: use RFC 3339 or YYYY-MM-DD", s)
}

// endOfDay is the last instant of the UTC day starting at midnight.
func endOfDay(midnight time.Time) time.Time {
	return midnight.Add(24*time.Hour - time.Nanosecond)
}

// dueDateField decodes an optional dueDate body member.
//
//	absent      -> set=false
//	null or ""  -> set=true, due=nil
//	date string -> set=true, due=parsed
func dueDateField(raw json.RawMessage) (due *time.Time, set bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true, dueDateError("must be a date string")
	}
	if strings.TrimSpace(s) == "" {
		return nil, true, nil
	}

	t, _, err := parseDate(s)
	if err != nil {
		return nil, true, dueDateError("must be RFC 3339 or YYYY-MM-DD")
	}
	return &t, true, nil
}

func dueDateError(msg string) error {
	return domain.FieldError("dueDate", msg)
}
