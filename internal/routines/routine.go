package routines

import "time"

// Level is a difficulty catalog entry (beginner, intermediate, ...).
type Level struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Set struct {
	ID         int     `json:"id"`
	ExerciseID int     `json:"exercise_id"`
	Reps       int     `json:"reps"`
	WeightKg   float64 `json:"weight_kg"`
}

// Exercise is a catalog definition planned inside a routine, together
// with its target sets.
type Exercise struct {
	ID             int    `json:"id"`
	RoutineID      int    `json:"routine_id"`
	DefinitionID   int    `json:"definition_id"`
	DefinitionName string `json:"definition_name,omitempty"`
	Sets           []Set  `json:"sets"`
}

type Routine struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	UserID      int        `json:"user_id"`
	LevelID     *int       `json:"level_id,omitempty"`
	LevelName   string     `json:"level_name,omitempty"`
	Exercises   []Exercise `json:"exercises"`
	CreatedAt   time.Time  `json:"created_at"`
}
