package quota

import (
	"fmt"
	"math"
)

// The remote service's historical billing rule: 60 raw quota units buy one
// credit, and one credit buys two minutes of generated video. Treat these as
// fixed contract constants, not derived values.
const (
	UnitsPerCredit   = 60.0
	MinutesPerCredit = 2.0
)

// Estimate is the user-meaningful reading of a raw quota value.
type Estimate struct {
	// Known is false when the raw input was absent or invalid; all other
	// fields are zero in that case and Format returns "unknown".
	Known bool
	// Raw echoes the service's own value.
	Raw float64
	// Credits is the normalized credit count.
	Credits float64
	// MaxDurationMinutes is the estimated generation time the credits buy.
	MaxDurationMinutes float64
}

// Unknown returns the explicit "cannot estimate" result.
func Unknown() Estimate {
	return Estimate{}
}

// FromRaw converts a raw remaining-quota value. Negative and non-finite
// inputs yield the unknown estimate rather than an error; zero is a valid
// empty balance.
func FromRaw(raw float64) Estimate {
	if raw < 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Unknown()
	}
	credits := raw / UnitsPerCredit
	return Estimate{
		Known:              true,
		Raw:                raw,
		Credits:            credits,
		MaxDurationMinutes: credits * MinutesPerCredit,
	}
}

// Format renders the estimated duration as HH:MM:SS when at least an hour
// remains, MM:SS otherwise.
func (e Estimate) Format() string {
	if !e.Known {
		return "unknown"
	}
	totalSeconds := int(math.Round(e.MaxDurationMinutes * 60))
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// String renders the full estimate for display, mirroring the account view:
// raw value plus credits and usable minutes.
func (e Estimate) String() string {
	if !e.Known {
		return "quota unknown"
	}
	return fmt.Sprintf("%.2f (%.1f credits / %s)", e.Raw, e.Credits, e.Format())
}
