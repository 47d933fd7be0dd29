package currency

import "time"

// Policy constants. These are unit SOP values, not engine invariants, so they
// are exported for configuration and reporting code.
const (
	// CurrencyThresholdKM is the distance a driver must accumulate to be
	// considered current on a vehicle type.
	CurrencyThresholdKM = 2.0

	// CurrencyWindowDays is the trailing window for the currency check.
	CurrencyWindowDays = 90

	// CurrencyValidityDays is how long currency lasts after the anchor drive.
	CurrencyValidityDays = 90

	// ExpiringSoonDays is the warning horizon used by team dashboards.
	ExpiringSoonDays = 14

	// FitnessWindowDays is the trailing window for workout session counts.
	FitnessWindowDays = 30
)

// VehicleType identifies which platform a drive was performed on. Currency is
// tracked independently per type.
type VehicleType string

const (
	VehicleTerrex VehicleType = "Terrex"
	VehicleBelrex VehicleType = "Belrex"
)

// VehicleTypes returns the closed set of supported platforms.
func VehicleTypes() []VehicleType {
	return []VehicleType{VehicleTerrex, VehicleBelrex}
}

// Valid reports whether vt is one of the supported platforms.
func (vt VehicleType) Valid() bool {
	return vt == VehicleTerrex || vt == VehicleBelrex
}

// DriveRecord is one logged trip. Records are validated at the ingestion
// boundary and immutable afterwards; the engine assumes DistanceKM >= 0 and a
// real calendar date.
type DriveRecord struct {
	Username    string      `json:"username"`
	Date        time.Time   `json:"date_of_drive"`
	VehicleNo   string      `json:"vehicle_no_mid"`
	InitialKM   float64     `json:"initial_mileage_km"`
	FinalKM     float64     `json:"final_mileage_km"`
	DistanceKM  float64     `json:"distance_driven_km"`
	VehicleType VehicleType `json:"vehicle_type"`
	LoggedAt    time.Time   `json:"timestamp"`
}

// WorkoutRecord is one logged strength-training session entry.
type WorkoutRecord struct {
	Username string    `json:"username"`
	Date     time.Time `json:"date"`
	Exercise string    `json:"exercise"`
	WeightKG float64   `json:"weight_kg"`
	Reps     int       `json:"reps"`
}

// day truncates t to calendar-date granularity in UTC. All engine comparisons
// are date-granular; time of day never affects a result.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
