package currency

import (
	"fmt"
	"sort"
	"time"
)

// Status is the derived currency state for one user and vehicle type at a
// single evaluation instant. It is never stored; recomputing with a longer log
// or a later now is the only way it changes.
type Status struct {
	Username         string      `json:"username"`
	VehicleType      VehicleType `json:"vehicle_type"`
	WindowDistanceKM float64     `json:"window_distance_km"`
	Current          bool        `json:"current"`
	// ExpiryKnown is false when the log never accumulates the threshold, in
	// which case ExpiryDate and DaysToExpiry carry no meaning.
	ExpiryKnown   bool      `json:"expiry_known"`
	ExpiryDate    time.Time `json:"expiry_date,omitempty"`
	DaysToExpiry  int       `json:"days_to_expiry"`
	LastDriveDate time.Time `json:"last_drive_date,omitempty"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// ComputeCurrency evaluates the full currency status for one user and vehicle
// type from a snapshot of their drive log. The records slice may be in any
// order and is never mutated. Deterministic given (records, vehicleType, now).
func ComputeCurrency(records []DriveRecord, vehicleType VehicleType, now time.Time) (Status, error) {
	if !vehicleType.Valid() {
		return Status{}, fmt.Errorf("%w: %q", ErrInvalidVehicleType, vehicleType)
	}

	windowKM, err := WindowDistanceKM(records, vehicleType, now, CurrencyWindowDays)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		VehicleType:      vehicleType,
		WindowDistanceKM: windowKM,
		Current:          IsCurrent(windowKM, CurrencyThresholdKM),
		EvaluatedAt:      now,
	}

	matching := filterByVehicle(records, vehicleType)
	if len(matching) > 0 {
		st.Username = matching[0].Username
	}
	for _, r := range matching {
		if d := day(r.Date); st.LastDriveDate.IsZero() || d.After(st.LastDriveDate) {
			st.LastDriveDate = d
		}
	}

	if expiry, ok := ExpiryDate(matching, CurrencyThresholdKM, CurrencyValidityDays); ok {
		st.ExpiryKnown = true
		st.ExpiryDate = expiry
		st.DaysToExpiry = DaysToExpiry(expiry, now)
	}

	return st, nil
}

// ExpiryDate finds the anchor drive and derives the expiry date from it.
//
// The log is walked most-recent-first, accumulating distance. The first date
// at which the cumulative total reaches the threshold is the anchor: the last
// time the user did enough recent driving to qualify. Expiry is the anchor
// date plus validityDays. Records sharing a calendar date are folded into a
// single accumulation step, so their relative order never changes the anchor.
//
// The walk deliberately covers the whole log, not just the currency window;
// "when did you last qualify" and "are you current today" answer different
// questions with different horizons.
//
// Returns ok=false when the log is empty or never accumulates the threshold.
func ExpiryDate(records []DriveRecord, thresholdKM float64, validityDays int) (time.Time, bool) {
	if len(records) == 0 {
		return time.Time{}, false
	}

	perDay := make(map[time.Time]float64)
	for _, r := range records {
		perDay[day(r.Date)] += r.DistanceKM
	}

	dates := make([]time.Time, 0, len(perDay))
	for d := range perDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	cumulative := 0.0
	for _, d := range dates {
		cumulative += perDay[d]
		if cumulative >= thresholdKM {
			return d.AddDate(0, 0, validityDays), true
		}
	}
	return time.Time{}, false
}

// DaysToExpiry is the whole-day distance from now to the expiry date. Negative
// values mean already expired; callers read the sign, the engine does not
// suppress it.
func DaysToExpiry(expiry, now time.Time) int {
	return int(day(expiry).Sub(day(now)).Hours() / 24)
}
