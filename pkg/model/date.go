package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const DateLayout = "2006-01-02"

// Date is a calendar date held as midnight UTC.
// A JSON value that is not a date decodes to a zero Date that keeps the raw input,
// so validation can report it alongside the other fields.
type Date struct {
	time.Time
	rejected string
}

// NewDate truncates t to its calendar date, as seen in t's own location.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("date is empty")
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return NewDate(t), nil
}

// Invalid reports whether the date was decoded from a value that is not a date.
func (d Date) Invalid() bool {
	return d.rejected != ""
}

// Rejected returns the raw input of an invalid date.
func (d Date) Rejected() string {
	return d.rejected
}

// Normalized truncates d to midnight UTC. Invalid dates are returned unchanged.
func (d Date) Normalized() Date {
	if d.Invalid() {
		return d
	}
	return NewDate(d.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// DayRange returns the first and last millisecond of the calendar day.
func (d Date) DayRange() (time.Time, time.Time) {
	start := d.Time
	return start, start.Add(24*time.Hour - time.Millisecond)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = Date{rejected: string(data)}
		return nil
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{rejected: s}
		return nil
	}
	*d = parsed
	return nil
}

func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.Time)
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var tm time.Time
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&tm); err != nil {
		return err
	}
	*d = NewDate(tm.UTC())
	return nil
}
