package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrRoutineNotFound = errors.New("routine not found")
	ErrExerciseMissing = errors.New("exercise does not belong to the routine")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// LogSession stores a workout with all of its performed exercises and
// sets in a single transaction. Readers never see a half-written
// session.
func (r *Repo) LogSession(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.logSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	// every performed exercise must reference an exercise of the
	// routine being logged
	exerciseIDs := make([]int, 0, len(workout.Exercises))
	for _, performed := range workout.Exercises {
		exerciseIDs = append(exerciseIDs, performed.ExerciseID)
	}
	if len(exerciseIDs) > 0 {
		var found int
		if err = tx.QueryRow(
			ctx,
			`SELECT count(DISTINCT id) FROM exercise WHERE routine_id = $1 AND id = ANY($2);`,
			workout.RoutineID, exerciseIDs,
		).Scan(&found); err != nil {
			return nil, err
		}
		if found != len(uniqueInts(exerciseIDs)) {
			err = ErrExerciseMissing
			return nil, err
		}
	}

	if err = tx.QueryRow(
		ctx,
		`INSERT INTO workout (workout_date, user_id, routine_id) VALUES ($1, $2, $3) RETURNING id;`,
		workout.Date, workout.UserID, workout.RoutineID,
	).Scan(&workout.ID); err != nil {
		return nil, err
	}

	for i := range workout.Exercises {
		performed := &workout.Exercises[i]
		performed.WorkoutID = workout.ID
		if err = tx.QueryRow(
			ctx,
			`INSERT INTO performed_exercise (workout_id, exercise_id) VALUES ($1, $2) RETURNING id;`,
			performed.WorkoutID, performed.ExerciseID,
		).Scan(&performed.ID); err != nil {
			return nil, err
		}

		for j := range performed.Sets {
			set := &performed.Sets[j]
			set.PerformedExerciseID = performed.ID
			if err = tx.QueryRow(
				ctx,
				`INSERT INTO performed_set (performed_exercise_id, reps, weight_kg) VALUES ($1, $2, $3) RETURNING id;`,
				set.PerformedExerciseID, set.Reps, set.WeightKg,
			).Scan(&set.ID); err != nil {
				return nil, err
			}
		}
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))
	return &workout, nil
}

const completeWorkoutSelect = `
	SELECT
		w.id, w.workout_date, w.user_id, w.routine_id,
		pe.id, pe.exercise_id, d.name,
		ps.id, ps.reps, ps.weight_kg
	FROM workout w
	LEFT JOIN performed_exercise pe ON pe.workout_id = w.id
	LEFT JOIN exercise e ON e.id = pe.exercise_id
	LEFT JOIN exercise_definition d ON d.id = e.definition_id
	LEFT JOIN performed_set ps ON ps.performed_exercise_id = pe.id`

// List loads all of a user's workouts eagerly, newest first.
func (r *Repo) List(ctx context.Context, userID int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		completeWorkoutSelect+` WHERE w.user_id = $1 ORDER BY w.workout_date DESC, w.id DESC, pe.id, ps.id;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2workouts(rows)
}

// ListForRoutine loads all workouts logged against one routine, newest
// first.
func (r *Repo) ListForRoutine(ctx context.Context, routineID int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listForRoutine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", routineID))

	rows, err := r.db.Query(
		ctx,
		completeWorkoutSelect+` WHERE w.routine_id = $1 ORDER BY w.workout_date DESC, w.id DESC, pe.id, ps.id;`,
		routineID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2workouts(rows)
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// Owner returns the user that logged the workout.
func (r *Repo) Owner(ctx context.Context, workoutID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.owner")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	var ownerID int
	if err = r.db.QueryRow(
		ctx,
		`SELECT user_id FROM workout WHERE id = $1;`,
		workoutID,
	).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrWorkoutNotFound
		}
		return 0, err
	}
	return ownerID, nil
}

// RoutineOwner returns the user that owns the routine.
func (r *Repo) RoutineOwner(ctx context.Context, routineID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.routineOwner")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", routineID))

	var ownerID int
	if err = r.db.QueryRow(
		ctx,
		`SELECT user_id FROM routine WHERE id = $1;`,
		routineID,
	).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRoutineNotFound
		}
		return 0, err
	}
	return ownerID, nil
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workoutOrder []int
	workoutsByID := make(map[int]*Workout)
	performedByID := make(map[int]*PerformedExercise)
	performedOrder := make(map[int][]int)

	for rows.Next() {
		var (
			workout     Workout
			performedID *int
			exerciseID  *int
			defName     *string
			setID       *int
			setReps     *int
			setWeight   *float64
		)
		if err := rows.Scan(
			&workout.ID, &workout.Date, &workout.UserID, &workout.RoutineID,
			&performedID, &exerciseID, &defName,
			&setID, &setReps, &setWeight,
		); err != nil {
			return nil, err
		}

		if _, ok := workoutsByID[workout.ID]; !ok {
			workoutsByID[workout.ID] = &workout
			workoutOrder = append(workoutOrder, workout.ID)
		}

		if performedID == nil {
			continue
		}

		performed, ok := performedByID[*performedID]
		if !ok {
			performed = &PerformedExercise{
				ID:         *performedID,
				WorkoutID:  workout.ID,
				ExerciseID: *exerciseID,
				Sets:       []PerformedSet{},
			}
			if defName != nil {
				performed.DefinitionName = *defName
			}
			performedByID[*performedID] = performed
			performedOrder[workout.ID] = append(performedOrder[workout.ID], *performedID)
		}

		if setID != nil {
			performed.Sets = append(performed.Sets, PerformedSet{
				ID:                  *setID,
				PerformedExerciseID: *performedID,
				Reps:                *setReps,
				WeightKg:            *setWeight,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts := make([]Workout, 0, len(workoutOrder))
	for _, workoutID := range workoutOrder {
		workout := workoutsByID[workoutID]
		workout.Exercises = []PerformedExercise{}
		for _, performedID := range performedOrder[workoutID] {
			workout.Exercises = append(workout.Exercises, *performedByID[performedID])
		}
		workouts = append(workouts, *workout)
	}
	return workouts, nil
}

func uniqueInts(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	var out []int
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
