package routines

import (
	"context"
	"errors"

	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var ErrLevelNotFound = errors.New("routine level not found")

func (r *Repo) ListLevels(ctx context.Context) (_ []Level, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.listLevels")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT id, name FROM routine_level ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []Level
	for rows.Next() {
		var level Level
		if err := rows.Scan(&level.ID, &level.Name); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return levels, nil
}

func (r *Repo) AddLevel(ctx context.Context, level Level) (_ *Level, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.addLevel")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err = r.db.QueryRow(
		ctx,
		`INSERT INTO routine_level (name) VALUES ($1) RETURNING id;`,
		level.Name,
	).Scan(&level.ID); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("level.id", level.ID))
	return &level, nil
}

func (r *Repo) UpdateLevel(ctx context.Context, level *Level) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.updateLevel")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", level.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE routine_level SET name = $1 WHERE id = $2;`,
		level.Name, level.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLevelNotFound
	}
	return nil
}

// DeleteLevel fails with a foreign key violation while any routine
// still references the level (ON DELETE RESTRICT).
func (r *Repo) DeleteLevel(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.deleteLevel")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM routine_level WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLevelNotFound
	}
	return nil
}
