package catalog

import (
	"context"
	"errors"

	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrDefinitionNotFound = errors.New("exercise definition not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, def ExerciseDefinition) (_ *ExerciseDefinition, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercise_definition (name, description, video_url)
				VALUES ($1, $2, $3)
			RETURNING id, created_at;`,
		def.Name, def.Description, def.VideoURL,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}
	if err := rows.Scan(&def.ID, &def.CreatedAt); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("definition.id", def.ID))
	return &def, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *ExerciseDefinition, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, description, video_url, created_at
			FROM exercise_definition WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs, err := r.rows2definitions(rows)
	if err != nil {
		return nil, err
	}
	if len(defs) != 1 {
		return nil, ErrDefinitionNotFound
	}

	return &defs[0], nil
}

func (r *Repo) List(ctx context.Context) (_ []ExerciseDefinition, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, description, video_url, created_at
			FROM exercise_definition ORDER BY name;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2definitions(rows)
}

func (r *Repo) Update(ctx context.Context, def *ExerciseDefinition) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", def.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise_definition SET name = $1, description = $2, video_url = $3 WHERE id = $4;`,
		def.Name, def.Description, def.VideoURL, def.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDefinitionNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise_definition WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDefinitionNotFound
	}
	return nil
}

func (r *Repo) rows2definitions(rows pgx.Rows) ([]ExerciseDefinition, error) {
	var defs []ExerciseDefinition
	for rows.Next() {
		var def ExerciseDefinition
		if err := rows.Scan(&def.ID, &def.Name, &def.Description, &def.VideoURL, &def.CreatedAt); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return defs, nil
}
