package currency

import (
	"sort"
	"time"
)

// prTolerance is how close to the running all-time max a lift must be to get
// flagged as a personal record. The within-5% rule flags generously on
// purpose; tightening it is a product decision, not an engineering one.
const prTolerance = 0.95

// ExerciseSummary aggregates all-time lifting stats for one exercise.
type ExerciseSummary struct {
	Exercise    string  `json:"exercise"`
	MaxWeightKG float64 `json:"max_weight_kg"`
	// PersonalRecords counts sessions whose weight came within 5% of the
	// running max at the time they were performed.
	PersonalRecords int `json:"personal_records"`
}

// FitnessSummary is the derived fitness state for one user at an evaluation
// instant. Like Status it is pure output, never stored.
type FitnessSummary struct {
	Username string `json:"username"`
	// RecentSessionCount is the number of distinct workout dates within the
	// trailing window.
	RecentSessionCount int               `json:"recent_session_count"`
	Exercises          []ExerciseSummary `json:"exercises"`
	EvaluatedAt        time.Time         `json:"evaluated_at"`
}

// ComputeFitnessSummary reduces a workout log snapshot into the 30-day session
// count and per-exercise all-time maxima with PR flags. Same windowing
// machinery as the currency engine, with count and max reducers instead of a
// sum.
func ComputeFitnessSummary(records []WorkoutRecord, now time.Time) (FitnessSummary, error) {
	summary := FitnessSummary{
		Exercises:   []ExerciseSummary{},
		EvaluatedAt: now,
	}
	if len(records) > 0 {
		summary.Username = records[0].Username
	}

	// Distinct dates, so two exercises logged on the same day are one session.
	seen := make(map[time.Time]bool)
	sessions, err := windowReduce(records,
		func(r WorkoutRecord) time.Time { return r.Date },
		now, FitnessWindowDays, 0,
		func(acc float64, r WorkoutRecord) float64 {
			d := day(r.Date)
			if seen[d] {
				return acc
			}
			seen[d] = true
			return acc + 1
		},
	)
	if err != nil {
		return FitnessSummary{}, err
	}
	summary.RecentSessionCount = int(sessions)

	byExercise := make(map[string][]WorkoutRecord)
	for _, r := range records {
		byExercise[r.Exercise] = append(byExercise[r.Exercise], r)
	}

	for exercise, sets := range byExercise {
		summary.Exercises = append(summary.Exercises, summarizeExercise(exercise, sets))
	}
	sort.Slice(summary.Exercises, func(i, j int) bool {
		return summary.Exercises[i].Exercise < summary.Exercises[j].Exercise
	})

	return summary, nil
}

// summarizeExercise walks one exercise's sets in chronological order keeping a
// running max; a set within 5% of the running max counts as a PR.
func summarizeExercise(exercise string, sets []WorkoutRecord) ExerciseSummary {
	ordered := make([]WorkoutRecord, len(sets))
	copy(ordered, sets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return day(ordered[i].Date).Before(day(ordered[j].Date))
	})

	out := ExerciseSummary{Exercise: exercise}
	runningMax := 0.0
	for _, s := range ordered {
		if s.WeightKG > runningMax {
			runningMax = s.WeightKG
		}
		if runningMax > 0 && s.WeightKG >= prTolerance*runningMax {
			out.PersonalRecords++
		}
	}
	out.MaxWeightKG = runningMax
	return out
}
