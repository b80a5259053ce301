package booking

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

func freeAt(ts ...time.Time) []model.FreeSlot {
	out := make([]model.FreeSlot, 0, len(ts))
	for _, t := range ts {
		out = append(out, model.FreeSlot{StartDateTime: t, FreeAppointments: 1})
	}
	return out
}

func TestClaimNearestPrefersAfterList(t *testing.T) {
	after := freeAt(
		time.Date(2024, 1, 23, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 24, 9, 0, 0, 0, time.UTC),
	)
	before := freeAt(time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC))

	var tried []time.Time
	token, at, err := claimNearest(after, before, func(start time.Time) (string, error) {
		tried = append(tried, start)
		return "tok-1", nil
	})
	if err != nil {
		t.Fatalf("claimNearest: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("token = %q, want tok-1", token)
	}
	if !at.Equal(after[0].StartDateTime) {
		t.Fatalf("claimed %v, want first after-candidate %v", at, after[0].StartDateTime)
	}
	if len(tried) != 1 {
		t.Fatalf("tried %d candidates, want 1", len(tried))
	}
}

func TestClaimNearestSkipsLostCandidates(t *testing.T) {
	after := freeAt(
		time.Date(2024, 1, 23, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 24, 9, 0, 0, 0, time.UTC),
	)
	before := freeAt(time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC))

	// Both after-candidates are snatched concurrently; the scan must
	// fall through to the before list instead of giving up.
	token, at, err := claimNearest(after, before, func(start time.Time) (string, error) {
		if start.Day() != 21 {
			return "", ErrSlotUnavailable
		}
		return "tok-2", nil
	})
	if err != nil {
		t.Fatalf("claimNearest: %v", err)
	}
	if token != "tok-2" {
		t.Fatalf("token = %q, want tok-2", token)
	}
	if !at.Equal(before[0].StartDateTime) {
		t.Fatalf("claimed %v, want before-candidate %v", at, before[0].StartDateTime)
	}
}

func TestClaimNearestExhaustion(t *testing.T) {
	after := freeAt(time.Date(2024, 1, 23, 9, 0, 0, 0, time.UTC))
	before := freeAt(time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC))

	_, _, err := claimNearest(after, before, func(time.Time) (string, error) {
		return "", ErrSlotUnavailable
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("err = %v, want ErrSlotUnavailable", err)
	}

	_, _, err = claimNearest(nil, nil, func(time.Time) (string, error) {
		t.Fatal("claim called with no candidates")
		return "", nil
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("empty candidates: err = %v, want ErrSlotUnavailable", err)
	}
}

func TestClaimNearestPropagatesClaimErrors(t *testing.T) {
	after := freeAt(
		time.Date(2024, 1, 23, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 24, 9, 0, 0, 0, time.UTC),
	)
	boom := fmt.Errorf("connection reset")

	var tried int
	_, _, err := claimNearest(after, nil, func(time.Time) (string, error) {
		tried++
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if tried != 1 {
		t.Fatalf("tried %d candidates after hard error, want 1", tried)
	}
}
