package stats

import (
	"context"

	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) UserExists(ctx context.Context, userID int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.stats.userExists")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	var exists bool
	if err = r.db.QueryRow(
		ctx,
		`SELECT exists(SELECT 1 FROM users WHERE id = $1);`,
		userID,
	).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UserRoutines returns all routines owned by the user, data or no
// data. The statistics merge is anchored on this list.
func (r *Repo) UserRoutines(ctx context.Context, userID int) (_ []RoutineRef, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.stats.userRoutines")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name FROM routine WHERE user_id = $1 ORDER BY id;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routines []RoutineRef
	for rows.Next() {
		var routine RoutineRef
		if err = rows.Scan(&routine.ID, &routine.Name); err != nil {
			return nil, err
		}
		routines = append(routines, routine)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return routines, nil
}

// MaxWeightPerRoutine finds, per routine, the heaviest single lift the
// user ever logged and the exercise it happened in. One ranked scan,
// row_number partitioned by routine, only rank 1 survives. Ties fall
// wherever the engine's row order puts them.
func (r *Repo) MaxWeightPerRoutine(ctx context.Context, userID int) (_ []RoutineMax, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.stats.maxWeightPerRoutine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT routine_id, weight_kg, exercise_name
			FROM (
				SELECT
					w.routine_id,
					ps.weight_kg,
					d.name AS exercise_name,
					row_number() OVER (PARTITION BY w.routine_id ORDER BY ps.weight_kg DESC) AS rn
				FROM performed_set ps
				JOIN performed_exercise pe ON ps.performed_exercise_id = pe.id
				JOIN workout w ON pe.workout_id = w.id
				JOIN exercise e ON pe.exercise_id = e.id
				JOIN exercise_definition d ON e.definition_id = d.id
				WHERE w.user_id = $1
			) ranked
			WHERE rn = 1;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var maxima []RoutineMax
	for rows.Next() {
		var m RoutineMax
		if err = rows.Scan(&m.RoutineID, &m.MaxWeight, &m.ExerciseName); err != nil {
			return nil, err
		}
		maxima = append(maxima, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return maxima, nil
}

// AvgWeightPerRoutine computes, per routine, the average weight across
// every set the user ever logged for it.
func (r *Repo) AvgWeightPerRoutine(ctx context.Context, userID int) (_ []RoutineAvg, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.stats.avgWeightPerRoutine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT r.id, avg(ps.weight_kg)
			FROM performed_set ps
			JOIN performed_exercise pe ON ps.performed_exercise_id = pe.id
			JOIN workout w ON pe.workout_id = w.id
			JOIN routine r ON w.routine_id = r.id
			WHERE r.user_id = $1
			GROUP BY r.id;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var averages []RoutineAvg
	for rows.Next() {
		var a RoutineAvg
		if err = rows.Scan(&a.RoutineID, &a.AvgWeight); err != nil {
			return nil, err
		}
		averages = append(averages, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return averages, nil
}
