package currency

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func status(user string, vt VehicleType, current bool, daysToExpiry int) Status {
	return Status{
		Username:     user,
		VehicleType:  vt,
		Current:      current,
		ExpiryKnown:  true,
		DaysToExpiry: daysToExpiry,
	}
}

func testRoster() map[string]UnitInfo {
	return map[string]UnitInfo{
		"alpha":   {Name: "TAN AH KOW", Rank: "3SG", Platoon: "MSP1", SubUnit: "Alpha"},
		"bravo":   {Name: "LIM BENG", Rank: "CPL", Platoon: "MSP1", SubUnit: "Alpha"},
		"charlie": {Name: "ONG WEI", Rank: "LCP", Platoon: "MSP2", SubUnit: "Bravo"},
		"delta":   {Name: "RAJ KUMAR", Rank: "CFC", Platoon: "MSP5", SubUnit: "Bravo"},
	}
}

func TestSummarizeTeam_Counts(t *testing.T) {
	statuses := []Status{
		status("alpha", VehicleTerrex, true, 60),
		status("bravo", VehicleTerrex, false, -5),
		status("charlie", VehicleTerrex, true, 10),
		status("delta", VehicleBelrex, true, 3),
	}

	summary := SummarizeTeam(statuses, testRoster())

	assert.Equal(t, 4, summary.Overall.Total)
	assert.Equal(t, 3, summary.Overall.Current)
	assert.Equal(t, 1, summary.Overall.NotCurrent)
	assert.Equal(t, 2, summary.Overall.ExpiringSoon)

	assert.Equal(t, 2, summary.ByVehicle[VehicleTerrex].Current)
	assert.Equal(t, 1, summary.ByVehicle[VehicleBelrex].Current)

	assert.Equal(t, 2, summary.ByPlatoon["MSP1"].Total)
	assert.Equal(t, 1, summary.ByPlatoon["MSP1"].NotCurrent)
	assert.Equal(t, 1, summary.ByPlatoon["MSP2"].ExpiringSoon)
}

func TestSummarizeTeam_ExpiringSoonBoundary(t *testing.T) {
	statuses := []Status{
		status("alpha", VehicleTerrex, true, ExpiringSoonDays),   // counts
		status("bravo", VehicleTerrex, true, ExpiringSoonDays+1), // does not
		status("charlie", VehicleTerrex, true, 0),                // counts
		status("delta", VehicleTerrex, true, -1),                 // expired, not "soon"
	}

	summary := SummarizeTeam(statuses, testRoster())
	assert.Equal(t, 2, summary.Overall.ExpiringSoon)

	names := []string{}
	for _, p := range summary.ExpiringSoon {
		names = append(names, p.Username)
	}
	assert.Equal(t, []string{"alpha", "charlie"}, names)
}

func TestSummarizeTeam_NotCurrentList_JoinsRoster(t *testing.T) {
	statuses := []Status{
		status("bravo", VehicleTerrex, false, -20),
	}

	summary := SummarizeTeam(statuses, testRoster())
	require.Len(t, summary.NotCurrent, 1)
	assert.Equal(t, "LIM BENG", summary.NotCurrent[0].Name)
	assert.Equal(t, "CPL", summary.NotCurrent[0].Rank)
	assert.Equal(t, "MSP1", summary.NotCurrent[0].Platoon)
}

func TestSummarizeTeam_UnknownUserStillCounted(t *testing.T) {
	statuses := []Status{
		status("ghost", VehicleTerrex, false, 0),
	}

	summary := SummarizeTeam(statuses, testRoster())
	assert.Equal(t, 1, summary.Overall.Total)
	assert.Equal(t, 1, summary.ByPlatoon[""].Total)
}

func TestSummarizeTeam_PartitionInvariant(t *testing.T) {
	// The sum of per-platoon current counts always equals the overall
	// current count, for any partition of the inputs.
	statuses := []Status{
		status("alpha", VehicleTerrex, true, 60),
		status("bravo", VehicleTerrex, false, -5),
		status("charlie", VehicleTerrex, true, 10),
		status("delta", VehicleBelrex, true, 3),
		status("ghost", VehicleBelrex, false, 0),
	}

	summary := SummarizeTeam(statuses, testRoster())

	sumCurrent := 0
	for _, counts := range summary.ByPlatoon {
		sumCurrent += counts.Current
	}
	assert.Equal(t, summary.Overall.Current, sumCurrent)
}

func TestSummarizeTeam_OrderIndependent(t *testing.T) {
	statuses := []Status{
		status("alpha", VehicleTerrex, true, 60),
		status("bravo", VehicleTerrex, false, -5),
		status("charlie", VehicleTerrex, true, 10),
		status("delta", VehicleBelrex, true, 3),
	}

	want := SummarizeTeam(statuses, testRoster())

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]Status, len(statuses))
		copy(shuffled, statuses)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, SummarizeTeam(shuffled, testRoster()))
	}
}
