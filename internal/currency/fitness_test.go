package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workout(daysAgo int, exercise string, kg float64) WorkoutRecord {
	return WorkoutRecord{
		Username: "trooper1",
		Date:     testNow.AddDate(0, 0, -daysAgo),
		Exercise: exercise,
		WeightKG: kg,
		Reps:     5,
	}
}

func TestComputeFitnessSummary_Empty(t *testing.T) {
	summary, err := ComputeFitnessSummary(nil, testNow)
	require.NoError(t, err)

	assert.Zero(t, summary.RecentSessionCount)
	assert.Empty(t, summary.Exercises)
}

func TestComputeFitnessSummary_SessionCountWindowed(t *testing.T) {
	records := []WorkoutRecord{
		workout(2, "deadlift", 100),
		workout(15, "squat", 80),
		workout(29, "bench", 60),
		workout(31, "deadlift", 90), // outside the 30-day window
		workout(200, "squat", 70),
	}

	summary, err := ComputeFitnessSummary(records, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.RecentSessionCount)
}

func TestComputeFitnessSummary_SameDayIsOneSession(t *testing.T) {
	records := []WorkoutRecord{
		workout(3, "deadlift", 100),
		workout(3, "bench", 60),
		workout(3, "squat", 80),
	}

	summary, err := ComputeFitnessSummary(records, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RecentSessionCount)
}

func TestComputeFitnessSummary_MaxWeightIsAllTime(t *testing.T) {
	// Max is not windowed: an old heavy lift still holds the record.
	records := []WorkoutRecord{
		workout(400, "deadlift", 180),
		workout(5, "deadlift", 120),
	}

	summary, err := ComputeFitnessSummary(records, testNow)
	require.NoError(t, err)
	require.Len(t, summary.Exercises, 1)
	assert.Equal(t, 180.0, summary.Exercises[0].MaxWeightKG)
}

func TestComputeFitnessSummary_PersonalRecordHeuristic(t *testing.T) {
	// Walked chronologically with a running max, a set within 5% of the max
	// so far counts as a PR. The rule flags generously by design.
	records := []WorkoutRecord{
		workout(60, "squat", 100), // first set, max so far 100 -> PR
		workout(50, "squat", 96),  // within 5% of 100 -> PR
		workout(40, "squat", 90),  // below 95 -> no
		workout(30, "squat", 110), // new max -> PR
		workout(20, "squat", 105), // within 5% of 110 -> PR
		workout(10, "squat", 100), // below 104.5 -> no
	}

	summary, err := ComputeFitnessSummary(records, testNow)
	require.NoError(t, err)
	require.Len(t, summary.Exercises, 1)
	assert.Equal(t, 4, summary.Exercises[0].PersonalRecords)
	assert.Equal(t, 110.0, summary.Exercises[0].MaxWeightKG)
}

func TestComputeFitnessSummary_ExercisesSorted(t *testing.T) {
	records := []WorkoutRecord{
		workout(1, "squat", 80),
		workout(2, "bench", 60),
		workout(3, "deadlift", 100),
	}

	summary, err := ComputeFitnessSummary(records, testNow)
	require.NoError(t, err)
	require.Len(t, summary.Exercises, 3)
	assert.Equal(t, "bench", summary.Exercises[0].Exercise)
	assert.Equal(t, "deadlift", summary.Exercises[1].Exercise)
	assert.Equal(t, "squat", summary.Exercises[2].Exercise)
}

func TestComputeFitnessSummary_Deterministic(t *testing.T) {
	records := []WorkoutRecord{
		workout(60, "squat", 100),
		workout(5, "deadlift", 140),
		workout(5, "squat", 96),
	}

	first, err := ComputeFitnessSummary(records, testNow)
	require.NoError(t, err)
	second, err := ComputeFitnessSummary(records, testNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
