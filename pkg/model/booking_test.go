package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain date", input: "2024-06-10", want: "2024-06-10"},
		{name: "rfc3339 utc", input: "2024-06-10T15:30:00Z", want: "2024-06-10"},
		{name: "rfc3339 with offset keeps local calendar day", input: "2024-06-10T01:00:00+03:00", want: "2024-06-10"},
		{name: "surrounding whitespace", input: " 2024-06-10 ", want: "2024-06-10"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "tomorrow", wantErr: true},
		{name: "impossible day", input: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC || got.Hour() != 0 || got.Minute() != 0 {
				t.Errorf("ParseDate(%q) should be midnight UTC, got %v", tt.input, got.Time)
			}
		})
	}
}

func TestDate_DayRange(t *testing.T) {
	d, _ := ParseDate("2024-06-10")
	start, end := d.DayRange()

	if !start.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 6, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC)) {
		t.Errorf("end = %v", end)
	}
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		When Date `json:"when"`
	}
	if err := json.Unmarshal([]byte(`{"when":"2024-06-10T08:00:00Z"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"when":"2024-06-10"}` {
		t.Errorf("marshal = %s", out)
	}

	for _, raw := range []string{`"not-a-date"`, `"2024-13-45"`, `20240610`} {
		if err := json.Unmarshal([]byte(`{"when":`+raw+`}`), &payload); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if !payload.When.Invalid() || !payload.When.IsZero() {
			t.Errorf("%s: expected an invalid zero date, got %+v", raw, payload.When)
		}
		if payload.When.Normalized() != payload.When {
			t.Errorf("%s: Normalized() dropped the rejected input", raw)
		}
	}
	if payload.When.Rejected() != "20240610" {
		t.Errorf("Rejected() = %q", payload.When.Rejected())
	}

	if err := json.Unmarshal([]byte(`{"when":null}`), &payload); err != nil || payload.When.Invalid() {
		t.Errorf("null should decode to an empty valid date, got %+v (%v)", payload.When, err)
	}
}

func TestBooking_RefreshSlotKey(t *testing.T) {
	date, _ := ParseDate("2024-06-10")

	tests := []struct {
		name   string
		status string
		want   string
	}{
		{name: "pending holds slot", status: StatusPending, want: "2024-06-10T09:00"},
		{name: "confirmed holds slot", status: StatusConfirmed, want: "2024-06-10T09:00"},
		{name: "in-progress holds slot", status: StatusInProgress, want: "2024-06-10T09:00"},
		{name: "completed frees slot", status: StatusCompleted, want: ""},
		{name: "cancelled frees slot", status: StatusCancelled, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{PreferredDate: date, PreferredTime: "09:00", Status: tt.status, SlotKey: "stale"}
			b.RefreshSlotKey()
			if b.SlotKey != tt.want {
				t.Errorf("SlotKey = %q, want %q", b.SlotKey, tt.want)
			}
		})
	}
}

func TestBooking_SlotKeyHiddenFromJSON(t *testing.T) {
	date, _ := ParseDate("2024-06-10")
	b := Booking{PreferredDate: date, PreferredTime: "09:00", Status: StatusPending}
	b.RefreshSlotKey()

	out, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	_ = json.Unmarshal(out, &fields)
	if _, ok := fields["slot_key"]; ok {
		t.Errorf("slot_key should not be exposed: %s", out)
	}
	if fields["preferred_date"] != "2024-06-10" {
		t.Errorf("preferred_date = %v", fields["preferred_date"])
	}
}
