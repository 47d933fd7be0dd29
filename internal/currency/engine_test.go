package currency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

func drive(daysAgo int, km float64, vt VehicleType) DriveRecord {
	return DriveRecord{
		Username:    "trooper1",
		Date:        testNow.AddDate(0, 0, -daysAgo),
		VehicleNo:   "MID-1234",
		DistanceKM:  km,
		VehicleType: vt,
	}
}

func TestComputeCurrency_EmptyLog(t *testing.T) {
	st, err := ComputeCurrency(nil, VehicleTerrex, testNow)
	require.NoError(t, err)

	assert.Zero(t, st.WindowDistanceKM)
	assert.False(t, st.Current)
	assert.False(t, st.ExpiryKnown)
	assert.True(t, st.ExpiryDate.IsZero())
	assert.True(t, st.LastDriveDate.IsZero())
}

func TestComputeCurrency_InvalidVehicleType(t *testing.T) {
	_, err := ComputeCurrency(nil, VehicleType("Bronco"), testNow)
	require.ErrorIs(t, err, ErrInvalidVehicleType)

	_, err = ComputeCurrency(nil, VehicleType(""), testNow)
	require.ErrorIs(t, err, ErrInvalidVehicleType)
}

func TestWindowDistanceKM_ThresholdBoundary(t *testing.T) {
	// Exactly 2.0 km, 89 days ago: inside the window and exactly at the
	// threshold, which satisfies currency (non-strict comparison).
	records := []DriveRecord{drive(89, 2.0, VehicleTerrex)}
	st, err := ComputeCurrency(records, VehicleTerrex, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2.0, st.WindowDistanceKM)
	assert.True(t, st.Current)

	// Same record 91 days ago: outside the window entirely.
	records = []DriveRecord{drive(91, 2.0, VehicleTerrex)}
	st, err = ComputeCurrency(records, VehicleTerrex, testNow)
	require.NoError(t, err)
	assert.Zero(t, st.WindowDistanceKM)
	assert.False(t, st.Current)
}

func TestWindowDistanceKM_ExcludesOldRecordsFromSum(t *testing.T) {
	records := []DriveRecord{
		drive(100, 1.0, VehicleTerrex),
		drive(10, 1.5, VehicleTerrex),
	}

	st, err := ComputeCurrency(records, VehicleTerrex, testNow)
	require.NoError(t, err)

	// Only the drive 10 days ago is inside the 90-day window; the older
	// drive must not leak into the sum even though all-time total is 2.5.
	assert.Equal(t, 1.5, st.WindowDistanceKM)
	assert.False(t, st.Current)
}

func TestWindowDistanceKM_FiltersVehicleType(t *testing.T) {
	records := []DriveRecord{
		drive(5, 3.0, VehicleTerrex),
		drive(5, 4.0, VehicleBelrex),
	}

	km, err := WindowDistanceKM(records, VehicleBelrex, testNow, CurrencyWindowDays)
	require.NoError(t, err)
	assert.Equal(t, 4.0, km)
}

func TestWindowDistanceKM_InvalidWindow(t *testing.T) {
	_, err := WindowDistanceKM(nil, VehicleTerrex, testNow, 0)
	require.ErrorIs(t, err, ErrInvalidWindow)

	_, err = WindowDistanceKM(nil, VehicleTerrex, testNow, -30)
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestExpiryDate_AnchorWalksDescending(t *testing.T) {
	records := []DriveRecord{
		drive(5, 0.5, VehicleTerrex),
		drive(20, 1.0, VehicleTerrex),
		drive(40, 3.0, VehicleTerrex),
	}

	// Walked most-recent-first: 0.5, then 1.5, then 4.5. The threshold is
	// crossed on the drive 40 days ago, so expiry = T-40 + 90 = T+50.
	expiry, ok := ExpiryDate(records, CurrencyThresholdKM, CurrencyValidityDays)
	require.True(t, ok)
	assert.Equal(t, day(testNow).AddDate(0, 0, 50), expiry)
	assert.Equal(t, 50, DaysToExpiry(expiry, testNow))
}

func TestExpiryDate_SingleQualifyingDrive(t *testing.T) {
	// One drive whose distance alone clears the threshold anchors on its own
	// date, with no partial attribution.
	records := []DriveRecord{
		drive(3, 0.4, VehicleTerrex),
		drive(12, 5.0, VehicleTerrex),
	}

	expiry, ok := ExpiryDate(records, CurrencyThresholdKM, CurrencyValidityDays)
	require.True(t, ok)
	assert.Equal(t, day(testNow).AddDate(0, 0, -12+CurrencyValidityDays), expiry)
}

func TestExpiryDate_SameDateRecordsFoldIntoOneStep(t *testing.T) {
	// Two drives on the same calendar date accumulate as one step, so the
	// anchor is that date regardless of their relative order.
	records := []DriveRecord{
		drive(7, 1.2, VehicleTerrex),
		drive(7, 0.8, VehicleTerrex),
	}

	expiry, ok := ExpiryDate(records, CurrencyThresholdKM, CurrencyValidityDays)
	require.True(t, ok)
	assert.Equal(t, day(testNow).AddDate(0, 0, -7+CurrencyValidityDays), expiry)

	// Reversed order, same anchor.
	reversed := []DriveRecord{records[1], records[0]}
	expiry2, ok := ExpiryDate(reversed, CurrencyThresholdKM, CurrencyValidityDays)
	require.True(t, ok)
	assert.Equal(t, expiry, expiry2)
}

func TestExpiryDate_ThresholdNeverReached(t *testing.T) {
	records := []DriveRecord{
		drive(10, 0.5, VehicleTerrex),
		drive(300, 0.9, VehicleTerrex),
	}

	_, ok := ExpiryDate(records, CurrencyThresholdKM, CurrencyValidityDays)
	assert.False(t, ok)
}

func TestExpiryDate_WalksAllHistoryNotJustWindow(t *testing.T) {
	// A qualifying drive over a year ago still sets an expiry date even
	// though the windowed currency check excludes it. The two computations
	// use different horizons on purpose.
	records := []DriveRecord{drive(400, 10.0, VehicleTerrex)}

	st, err := ComputeCurrency(records, VehicleTerrex, testNow)
	require.NoError(t, err)

	assert.False(t, st.Current)
	assert.Zero(t, st.WindowDistanceKM)
	require.True(t, st.ExpiryKnown)
	assert.Equal(t, day(testNow).AddDate(0, 0, -400+CurrencyValidityDays), st.ExpiryDate)
	assert.Negative(t, st.DaysToExpiry)
}

func TestDaysToExpiry_NegativeMeansExpired(t *testing.T) {
	expiry := testNow.AddDate(0, 0, -3)
	assert.Equal(t, -3, DaysToExpiry(expiry, testNow))

	// Date-granular: time of day on either side never shifts the count.
	assert.Equal(t, 0, DaysToExpiry(day(testNow).Add(23*time.Hour), testNow))
}

func TestComputeCurrency_Idempotent(t *testing.T) {
	records := []DriveRecord{
		drive(5, 0.5, VehicleTerrex),
		drive(20, 1.0, VehicleTerrex),
		drive(40, 3.0, VehicleTerrex),
	}
	snapshot := make([]DriveRecord, len(records))
	copy(snapshot, records)

	first, err := ComputeCurrency(records, VehicleTerrex, testNow)
	require.NoError(t, err)
	second, err := ComputeCurrency(records, VehicleTerrex, testNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// The input snapshot is never mutated.
	assert.Equal(t, snapshot, records)
}

func TestComputeCurrency_TimePassingFlipsState(t *testing.T) {
	records := []DriveRecord{drive(10, 3.0, VehicleTerrex)}

	st, err := ComputeCurrency(records, VehicleTerrex, testNow)
	require.NoError(t, err)
	assert.True(t, st.Current)

	// Same log re-evaluated 85 days later: the drive has aged out.
	later := testNow.AddDate(0, 0, 85)
	st, err = ComputeCurrency(records, VehicleTerrex, later)
	require.NoError(t, err)
	assert.False(t, st.Current)
	assert.Negative(t, st.DaysToExpiry)
}

func TestComputeCurrency_LastDriveDate(t *testing.T) {
	records := []DriveRecord{
		drive(30, 1.0, VehicleTerrex),
		drive(4, 1.0, VehicleTerrex),
		drive(2, 5.0, VehicleBelrex),
	}

	st, err := ComputeCurrency(records, VehicleTerrex, testNow)
	require.NoError(t, err)
	assert.Equal(t, day(testNow.AddDate(0, 0, -4)), st.LastDriveDate)
}
