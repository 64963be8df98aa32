package acmeclient

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfterInteger(t *testing.T) {
	now := time.Now()

	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"120", 120, false},
		{" 300 ", 300, false},
		{"0", 0, false},
		{"-30", 0, true},
		{"60.5", 0, true},
		{"", 0, true},
		{"   ", 0, true},
	}

	for _, c := range cases {
		got, err := parseRetryAfter(c.in, now)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseRetryAfter(%q) = %d, nil; want error", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRetryAfter(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseRetryAfter(%q) = %d; want %d", c.in, got, c.want)
		}
	}
}

func TestParseRetryAfterRFC3339(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(90 * time.Second).Format(time.RFC3339)

	got, err := parseRetryAfter(future, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 90 {
		t.Fatalf("got %d, want 90", got)
	}

	past := now.Add(-90 * time.Second).Format(time.RFC3339)
	got, err = parseRetryAfter(past, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("past datetime should yield 0, got %d", got)
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(240 * time.Second).Format(http.TimeFormat)

	got, err := parseRetryAfter(future, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 239 || got > 241 {
		t.Fatalf("got %d, want ~240", got)
	}
}

func TestParseRetryAfterNeverPanics(t *testing.T) {
	inputs := []string{"", " ", "garbage", "🙂", "2026-13-40T99:99:99Z", "Notaday, 99 Wat 9999 99:99:99 GMT"}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("parseRetryAfter(%q) panicked: %v", in, r)
				}
			}()
			_, _ = parseRetryAfter(in, time.Now())
		}()
	}
}
