package stats

import (
	"context"
	"errors"

	"github.com/fittrack-ar/fittrack/internal/telemetry/metrics"
	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var ErrUserNotFound = errors.New("user not found")

type statsRepo interface {
	UserExists(ctx context.Context, userID int) (bool, error)
	UserRoutines(ctx context.Context, userID int) ([]RoutineRef, error)
	MaxWeightPerRoutine(ctx context.Context, userID int) ([]RoutineMax, error)
	AvgWeightPerRoutine(ctx context.Context, userID int) ([]RoutineAvg, error)
}

// Analyzer computes per-routine performance summaries. Stateless and
// read-only; every call recomputes from storage, two aggregate
// queries per call.
type Analyzer struct {
	repo    statsRepo
	metrics *metrics.Manager
}

func NewAnalyzer(repo statsRepo, metricsManager *metrics.Manager) *Analyzer {
	return &Analyzer{
		repo:    repo,
		metrics: metricsManager,
	}
}

// Analyze returns one summary per routine owned by the user. Every
// owned routine appears; routines with no logged weight get zero max,
// zero average and no exercise name. Same storage state always yields
// the same result.
func (a *Analyzer) Analyze(ctx context.Context, userID int) (_ []RoutineStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.analyze")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	exists, err := a.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	routines, err := a.repo.UserRoutines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(routines) == 0 {
		a.metrics.CounterStatsComputed.Inc()
		return []RoutineStats{}, nil
	}

	maxima, err := a.repo.MaxWeightPerRoutine(ctx, userID)
	if err != nil {
		return nil, err
	}
	averages, err := a.repo.AvgWeightPerRoutine(ctx, userID)
	if err != nil {
		return nil, err
	}

	maxByRoutine := make(map[int]RoutineMax, len(maxima))
	for _, m := range maxima {
		maxByRoutine[m.RoutineID] = m
	}
	avgByRoutine := make(map[int]float64, len(averages))
	for _, avg := range averages {
		avgByRoutine[avg.RoutineID] = avg.AvgWeight
	}

	// left-join anchored on the full routines list
	result := make([]RoutineStats, 0, len(routines))
	for _, routine := range routines {
		entry := RoutineStats{
			RoutineID:   routine.ID,
			RoutineName: routine.Name,
		}
		if m, ok := maxByRoutine[routine.ID]; ok {
			entry.MaxWeightLifted = m.MaxWeight
			exerciseName := m.ExerciseName
			entry.MaxWeightExercise = &exerciseName
		}
		if avg, ok := avgByRoutine[routine.ID]; ok {
			entry.AverageWeight = avg
		}
		result = append(result, entry)
	}

	a.metrics.CounterStatsComputed.Inc()
	span.SetAttributes(attribute.Int("routines.count", len(result)))
	return result, nil
}

// HasWeightData reports whether any routine in the summary has a
// recorded lift.
func HasWeightData(summaries []RoutineStats) bool {
	for _, s := range summaries {
		if s.MaxWeightLifted > 0 {
			return true
		}
	}
	return false
}
