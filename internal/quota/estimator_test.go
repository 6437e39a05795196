package quota_test

import (
	"math"
	"testing"

	"renderlane/internal/quota"
)

func TestFromRawZeroBalance(t *testing.T) {
	t.Parallel()

	est := quota.FromRaw(0)
	if !est.Known {
		t.Fatal("zero is a valid empty balance, not unknown")
	}
	if est.Credits != 0 || est.MaxDurationMinutes != 0 {
		t.Fatalf("expected zero credits/minutes, got %+v", est)
	}
	if got := est.Format(); got != "0:00" {
		t.Fatalf("expected 0:00, got %q", got)
	}
}

func TestFromRawTwoCredits(t *testing.T) {
	t.Parallel()

	est := quota.FromRaw(120)
	if est.Credits != 2.0 {
		t.Fatalf("expected 2 credits, got %v", est.Credits)
	}
	if est.MaxDurationMinutes != 4.0 {
		t.Fatalf("expected 4 minutes, got %v", est.MaxDurationMinutes)
	}
	if got := est.Format(); got != "4:00" {
		t.Fatalf("expected 4:00, got %q", got)
	}
}

func TestFormatSwitchesToHoursAtOneHour(t *testing.T) {
	t.Parallel()

	// 1800 units = 30 credits = 60 minutes.
	if got := quota.FromRaw(1800).Format(); got != "1:00:00" {
		t.Fatalf("expected 1:00:00, got %q", got)
	}
	// 1770 units = 29.5 credits = 59 minutes.
	if got := quota.FromRaw(1770).Format(); got != "59:00" {
		t.Fatalf("expected 59:00, got %q", got)
	}
	// Fractional credits keep their seconds: 75 units = 1.25 credits = 2.5 minutes.
	if got := quota.FromRaw(75).Format(); got != "2:30" {
		t.Fatalf("expected 2:30, got %q", got)
	}
}

func TestInvalidInputsYieldUnknown(t *testing.T) {
	t.Parallel()

	for _, raw := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		est := quota.FromRaw(raw)
		if est.Known {
			t.Fatalf("expected unknown for %v, got %+v", raw, est)
		}
		if got := est.Format(); got != "unknown" {
			t.Fatalf("expected unknown format for %v, got %q", raw, got)
		}
	}
}

func TestFromRawIsPure(t *testing.T) {
	t.Parallel()

	first := quota.FromRaw(600)
	second := quota.FromRaw(600)
	if first != second {
		t.Fatalf("same input must yield identical output: %+v vs %+v", first, second)
	}
}
