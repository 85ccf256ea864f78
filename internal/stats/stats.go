package stats

// RoutineStats is one per-routine performance summary. The wire keys
// are the published API contract and must not change.
type RoutineStats struct {
	RoutineID         int     `json:"rutina_id"`
	RoutineName       string  `json:"rutina_nombre"`
	MaxWeightLifted   float64 `json:"max_peso_levantado"`
	MaxWeightExercise *string `json:"ejercicio_max_peso"`
	AverageWeight     float64 `json:"promedio_peso_general"`
}

// RoutineRef identifies one routine owned by a user.
type RoutineRef struct {
	ID   int
	Name string
}

// RoutineMax is the heaviest single lift recorded for one routine,
// with the exercise it happened in.
type RoutineMax struct {
	RoutineID    int
	MaxWeight    float64
	ExerciseName string
}

// RoutineAvg is the average weight across all sets recorded for one
// routine. Each set counts once regardless of its reps.
type RoutineAvg struct {
	RoutineID int
	AvgWeight float64
}
