package currency

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidWindow is returned when a caller asks for a non-positive window.
var ErrInvalidWindow = errors.New("window length must be positive")

// ErrInvalidVehicleType is returned when a caller passes a vehicle type
// outside the supported set.
var ErrInvalidVehicleType = errors.New("unknown vehicle type")

// windowReduce is the shared trailing-window reduction. It filters items to
// those whose date falls inside the window [now - windowDays, now], sorts the
// survivors by date ascending so float accumulation is reproducible, and folds
// them with the supplied reducer. An empty filtered set yields init.
//
// The currency distance sum, the fitness session count and the max-weight
// lookup are all specializations of this one function.
func windowReduce[T any](items []T, dateOf func(T) time.Time, now time.Time, windowDays int, init float64, reduce func(acc float64, item T) float64) (float64, error) {
	if windowDays <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWindow, windowDays)
	}

	cutoff := day(now).AddDate(0, 0, -windowDays)

	kept := make([]T, 0, len(items))
	for _, it := range items {
		if !day(dateOf(it)).Before(cutoff) {
			kept = append(kept, it)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return day(dateOf(kept[i])).Before(day(dateOf(kept[j])))
	})

	acc := init
	for _, it := range kept {
		acc = reduce(acc, it)
	}
	return acc, nil
}

// WindowDistanceKM sums the distance of records matching vehicleType whose
// date falls within the trailing window ending at now. An empty log is not an
// error; the sum is simply zero.
func WindowDistanceKM(records []DriveRecord, vehicleType VehicleType, now time.Time, windowDays int) (float64, error) {
	if !vehicleType.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVehicleType, vehicleType)
	}

	matching := filterByVehicle(records, vehicleType)
	return windowReduce(matching,
		func(r DriveRecord) time.Time { return r.Date },
		now, windowDays, 0,
		func(acc float64, r DriveRecord) float64 { return acc + r.DistanceKM },
	)
}

// IsCurrent is the currency predicate. The comparison is non-strict: a window
// distance exactly at the threshold satisfies currency.
func IsCurrent(windowDistanceKM, thresholdKM float64) bool {
	return windowDistanceKM >= thresholdKM
}

func filterByVehicle(records []DriveRecord, vehicleType VehicleType) []DriveRecord {
	out := make([]DriveRecord, 0, len(records))
	for _, r := range records {
		if r.VehicleType == vehicleType {
			out = append(out, r)
		}
	}
	return out
}
