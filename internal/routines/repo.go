package routines

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
	ErrRoutineNotFound   = errors.New("routine not found")
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrSetNotFound       = errors.New("set not found")
	ErrDefinitionMissing = errors.New("exercise definition does not exist")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// CreateComplete stores a routine together with its exercises and
// sets in a single transaction. Either the whole routine lands or
// nothing does.
func (r *Repo) CreateComplete(ctx context.Context, routine Routine) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.createComplete")
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

	// all referenced definitions must exist before anything is written
	definitionIDs := make([]int, 0, len(routine.Exercises))
	for _, exercise := range routine.Exercises {
		definitionIDs = append(definitionIDs, exercise.DefinitionID)
	}
	if len(definitionIDs) > 0 {
		var found int
		if err = tx.QueryRow(
			ctx,
			`SELECT count(DISTINCT id) FROM exercise_definition WHERE id = ANY($1);`,
			definitionIDs,
		).Scan(&found); err != nil {
			return nil, err
		}
		if found != len(uniqueInts(definitionIDs)) {
			err = ErrDefinitionMissing
			return nil, err
		}
	}

	if err = tx.QueryRow(
		ctx,
		`INSERT INTO routine (name, description, user_id, level_id)
				VALUES ($1, $2, $3, $4)
			RETURNING id, created_at;`,
		routine.Name, routine.Description, routine.UserID, routine.LevelID,
	).Scan(&routine.ID, &routine.CreatedAt); err != nil {
		return nil, err
	}

	for i := range routine.Exercises {
		exercise := &routine.Exercises[i]
		exercise.RoutineID = routine.ID
		if err = tx.QueryRow(
			ctx,
			`INSERT INTO exercise (routine_id, definition_id) VALUES ($1, $2) RETURNING id;`,
			exercise.RoutineID, exercise.DefinitionID,
		).Scan(&exercise.ID); err != nil {
			return nil, err
		}

		for j := range exercise.Sets {
			set := &exercise.Sets[j]
			set.ExerciseID = exercise.ID
			if err = tx.QueryRow(
				ctx,
				`INSERT INTO exercise_set (exercise_id, reps, weight_kg) VALUES ($1, $2, $3) RETURNING id;`,
				set.ExerciseID, set.Reps, set.WeightKg,
			).Scan(&set.ID); err != nil {
				return nil, err
			}
		}
	}

	span.SetAttributes(attribute.Int("routine.id", routine.ID))
	return &routine, nil
}

const completeRoutineSelect = `
	SELECT
		r.id, r.name, r.description, r.user_id, r.level_id, l.name, r.created_at,
		e.id, e.definition_id, d.name,
		s.id, s.reps, s.weight_kg
	FROM routine r
	LEFT JOIN routine_level l ON r.level_id = l.id
	LEFT JOIN exercise e ON e.routine_id = r.id
	LEFT JOIN exercise_definition d ON e.definition_id = d.id
	LEFT JOIN exercise_set s ON s.exercise_id = e.id`

// GetComplete loads one routine with its exercises and sets eagerly,
// in a single query.
func (r *Repo) GetComplete(ctx context.Context, id int) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.getComplete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		completeRoutineSelect+` WHERE r.id = $1 ORDER BY e.id, s.id;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routines, err := r.rows2completeRoutines(rows)
	if err != nil {
		return nil, err
	}
	if len(routines) != 1 {
		return nil, ErrRoutineNotFound
	}

	return &routines[0], nil
}

// ListComplete loads all of a user's routines eagerly, ordered by name.
func (r *Repo) ListComplete(ctx context.Context, userID int) (_ []Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.listComplete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		completeRoutineSelect+` WHERE r.user_id = $1 ORDER BY r.name, r.id, e.id, s.id;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2completeRoutines(rows)
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM routine WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoutineNotFound
	}
	return nil
}

// Owner returns the user that owns the routine.
func (r *Repo) Owner(ctx context.Context, routineID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.owner")
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

func (r *Repo) AddExercise(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.addExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("routine.id", exercise.RoutineID))

	if err = r.db.QueryRow(
		ctx,
		`INSERT INTO exercise (routine_id, definition_id) VALUES ($1, $2) RETURNING id;`,
		exercise.RoutineID, exercise.DefinitionID,
	).Scan(&exercise.ID); err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (r *Repo) DeleteExercise(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.deleteExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM exercise WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

// ExerciseOwner returns the user owning the routine the exercise
// belongs to.
func (r *Repo) ExerciseOwner(ctx context.Context, exerciseID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.exerciseOwner")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	var ownerID int
	if err = r.db.QueryRow(
		ctx,
		`SELECT r.user_id FROM exercise e JOIN routine r ON e.routine_id = r.id WHERE e.id = $1;`,
		exerciseID,
	).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrExerciseNotFound
		}
		return 0, err
	}
	return ownerID, nil
}

func (r *Repo) AddSet(ctx context.Context, set Set) (_ *Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.addSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", set.ExerciseID))

	if err = r.db.QueryRow(
		ctx,
		`INSERT INTO exercise_set (exercise_id, reps, weight_kg) VALUES ($1, $2, $3) RETURNING id;`,
		set.ExerciseID, set.Reps, set.WeightKg,
	).Scan(&set.ID); err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *Repo) UpdateSet(ctx context.Context, set *Set) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.updateSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", set.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise_set SET reps = $1, weight_kg = $2 WHERE id = $3;`,
		set.Reps, set.WeightKg, set.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSetNotFound
	}
	return nil
}

func (r *Repo) DeleteSet(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.deleteSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM exercise_set WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSetNotFound
	}
	return nil
}

// SetOwner returns the user owning the routine the set belongs to.
func (r *Repo) SetOwner(ctx context.Context, setID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.setOwner")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("set.id", setID))

	var ownerID int
	if err = r.db.QueryRow(
		ctx,
		`SELECT r.user_id
			FROM exercise_set s
			JOIN exercise e ON s.exercise_id = e.id
			JOIN routine r ON e.routine_id = r.id
			WHERE s.id = $1;`,
		setID,
	).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrSetNotFound
		}
		return 0, err
	}
	return ownerID, nil
}

func (r *Repo) rows2completeRoutines(rows pgx.Rows) ([]Routine, error) {
	var routineOrder []int
	routinesByID := make(map[int]*Routine)
	exercisesByID := make(map[int]*Exercise)
	exerciseOrder := make(map[int][]int)

	for rows.Next() {
		var (
			routine    Routine
			levelName  *string
			exerciseID *int
			defID      *int
			defName    *string
			setID      *int
			setReps    *int
			setWeight  *float64
		)
		if err := rows.Scan(
			&routine.ID, &routine.Name, &routine.Description, &routine.UserID,
			&routine.LevelID, &levelName, &routine.CreatedAt,
			&exerciseID, &defID, &defName,
			&setID, &setReps, &setWeight,
		); err != nil {
			return nil, err
		}

		if _, ok := routinesByID[routine.ID]; !ok {
			if levelName != nil {
				routine.LevelName = *levelName
			}
			routinesByID[routine.ID] = &routine
			routineOrder = append(routineOrder, routine.ID)
		}

		if exerciseID == nil {
			continue
		}

		exercise, ok := exercisesByID[*exerciseID]
		if !ok {
			exercise = &Exercise{
				ID:           *exerciseID,
				RoutineID:    routine.ID,
				DefinitionID: *defID,
				Sets:         []Set{},
			}
			if defName != nil {
				exercise.DefinitionName = *defName
			}
			exercisesByID[*exerciseID] = exercise
			exerciseOrder[routine.ID] = append(exerciseOrder[routine.ID], *exerciseID)
		}

		if setID != nil {
			exercise.Sets = append(exercise.Sets, Set{
				ID:         *setID,
				ExerciseID: *exerciseID,
				Reps:       *setReps,
				WeightKg:   *setWeight,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	routines := make([]Routine, 0, len(routineOrder))
	for _, routineID := range routineOrder {
		routine := routinesByID[routineID]
		routine.Exercises = []Exercise{}
		for _, exerciseID := range exerciseOrder[routineID] {
			routine.Exercises = append(routine.Exercises, *exercisesByID[exerciseID])
		}
		routines = append(routines, *routine)
	}
	return routines, nil
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
