package workouts

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format for workout dates.
const DateLayout = "2006-01-02"

type PerformedSet struct {
	ID                  int     `json:"id"`
	PerformedExerciseID int     `json:"performed_exercise_id"`
	Reps                int     `json:"reps"`
	WeightKg            float64 `json:"weight_kg"`
}

type PerformedExercise struct {
	ID             int            `json:"id"`
	WorkoutID      int            `json:"workout_id"`
	ExerciseID     int            `json:"exercise_id"`
	DefinitionName string         `json:"definition_name,omitempty"`
	Sets           []PerformedSet `json:"sets"`
}

// Workout is a dated training session, one routine performed by one user.
type Workout struct {
	ID        int                 `json:"id"`
	Date      time.Time           `json:"date"`
	UserID    int                 `json:"user_id"`
	RoutineID int                 `json:"routine_id"`
	Exercises []PerformedExercise `json:"exercises"`
}

func (w Workout) MarshalJSON() ([]byte, error) {
	type alias Workout
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{
		alias: alias(w),
		Date:  w.Date.Format(DateLayout),
	})
}

// SessionRequest is the payload for logging a performed session.
type SessionRequest struct {
	Date      string            `json:"date"`
	RoutineID int               `json:"routine_id"`
	Exercises []SessionExercise `json:"exercises"`
}

type SessionExercise struct {
	ExerciseID int          `json:"exercise_id"`
	Sets       []SessionSet `json:"sets"`
}

type SessionSet struct {
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg"`
}
