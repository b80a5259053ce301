package booking

import (
	"errors"
	"testing"
	"time"
)

func TestClaimCutoff(t *testing.T) {
	s := &Service{timeout: 5 * time.Minute}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	want := time.Date(2024, 1, 1, 11, 55, 0, 0, time.UTC)
	if got := s.claimCutoff(now); !got.Equal(want) {
		t.Fatalf("claimCutoff = %v, want %v", got, want)
	}
}

func TestClaimExpired(t *testing.T) {
	s := &Service{timeout: 5 * time.Minute}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		claimedAt time.Time
		expired   bool
	}{
		{now.Add(-4 * time.Minute), false},
		{now.Add(-5 * time.Minute), false}, // exactly at timeout still holds
		{now.Add(-5*time.Minute - time.Second), true},
		{now.Add(-time.Hour), true},
	}
	for _, c := range cases {
		if got := s.claimExpired(c.claimedAt, now); got != c.expired {
			t.Fatalf("claimExpired(%v) = %v, want %v", c.claimedAt, got, c.expired)
		}
	}
}

func TestParseWhenBareDate(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	got, dateOnly, err := ParseWhen("2024-03-15", loc)
	if err != nil {
		t.Fatalf("ParseWhen: %v", err)
	}
	if !dateOnly {
		t.Fatal("dateOnly = false, want true")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("ParseWhen = %v, want %v", got, want)
	}
}

func TestParseWhenNaiveTimestamp(t *testing.T) {
	for _, in := range []string{
		"2024-03-15T09:30:00",
		"2024-03-15T09:30",
		"2024-03-15T09:30:00.000000",
	} {
		got, dateOnly, err := ParseWhen(in, time.UTC)
		if err != nil {
			t.Fatalf("ParseWhen(%q): %v", in, err)
		}
		if dateOnly {
			t.Fatalf("ParseWhen(%q): dateOnly = true", in)
		}
		want := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("ParseWhen(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseWhenRFC3339KeepsOffset(t *testing.T) {
	got, dateOnly, err := ParseWhen("2024-03-15T09:30:00+02:00", time.UTC)
	if err != nil {
		t.Fatalf("ParseWhen: %v", err)
	}
	if dateOnly {
		t.Fatal("dateOnly = true, want false")
	}
	want := time.Date(2024, 3, 15, 7, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseWhen = %v, want %v", got, want)
	}
}

func TestParseWhenRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "15.03.2024"} {
		if _, _, err := ParseWhen(in, time.UTC); !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseWhen(%q): err = %v, want ErrValidation", in, err)
		}
	}
}

func TestWindowAfter(t *testing.T) {
	at := time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC)
	from, until := windowAfter(at, 2)
	if !from.Equal(at) {
		t.Fatalf("from = %v, want %v", from, at)
	}
	if want := at.AddDate(0, 0, 2); !until.Equal(want) {
		t.Fatalf("until = %v, want %v", until, want)
	}
}

func TestWindowBefore(t *testing.T) {
	at := time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC)
	from, until := windowBefore(at, 2)
	if want := at.AddDate(0, 0, -2); !from.Equal(want) {
		t.Fatalf("from = %v, want %v", from, want)
	}
	if !until.Equal(at) {
		t.Fatalf("until = %v, want %v", until, at)
	}
}
