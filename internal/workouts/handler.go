package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fittrack-ar/fittrack/internal/auth"
	"github.com/fittrack-ar/fittrack/internal/telemetry/metrics"
	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"
	"github.com/fittrack-ar/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type workoutsRepo interface {
	LogSession(ctx context.Context, workout Workout) (*Workout, error)
	List(ctx context.Context, userID int) ([]Workout, error)
	ListForRoutine(ctx context.Context, routineID int) ([]Workout, error)
	Delete(ctx context.Context, id int) error
	Owner(ctx context.Context, workoutID int) (int, error)
	RoutineOwner(ctx context.Context, routineID int) (int, error)
}

type Handler struct {
	repo    workoutsRepo
	metrics *metrics.Manager
}

func NewHandler(repo workoutsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/workouts", handler.HandleLog).Methods("POST", "OPTIONS").Name("new-workout")
	mainRouter.HandleFunc("/workouts", handler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	mainRouter.HandleFunc("/workouts/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")
	mainRouter.HandleFunc("/routines/{id}/workouts", handler.HandleListForRoutine).Methods("GET", "OPTIONS").Name("list-routine-workouts")
}

// HandleLog validates the whole session before touching storage, then
// stores it atomically.
func (handler *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.log")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var sessionReq SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&sessionReq); err != nil {
		log.Errorf("log workout, unmarshal json params: %s", err)
		http.Error(w, "log workout failed", http.StatusBadRequest)
		return
	}

	workoutDate, err := time.Parse(DateLayout, sessionReq.Date)
	if err != nil {
		http.Error(w, "error, invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if sessionReq.RoutineID <= 0 {
		http.Error(w, "error, routine_id required", http.StatusBadRequest)
		return
	}
	if len(sessionReq.Exercises) == 0 {
		http.Error(w, "error, exercises empty", http.StatusBadRequest)
		return
	}
	for _, exercise := range sessionReq.Exercises {
		if exercise.ExerciseID <= 0 {
			http.Error(w, "error, exercise_id required", http.StatusBadRequest)
			return
		}
		if len(exercise.Sets) == 0 {
			http.Error(w, "error, sets empty", http.StatusBadRequest)
			return
		}
		for _, set := range exercise.Sets {
			if set.Reps < 0 || set.WeightKg < 0 {
				http.Error(w, "error, reps and weight_kg must be non-negative", http.StatusBadRequest)
				return
			}
		}
	}

	ownerID, err := handler.repo.RoutineOwner(ctx, sessionReq.RoutineID)
	if err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			http.Error(w, "routine not found", http.StatusNotFound)
			return
		}
		log.Errorf("log workout, routine %d owner check: %s", sessionReq.RoutineID, err)
		http.Error(w, "log workout failed", http.StatusInternalServerError)
		return
	}
	if ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	workout := Workout{
		Date:      workoutDate,
		UserID:    userID,
		RoutineID: sessionReq.RoutineID,
	}
	for _, exercise := range sessionReq.Exercises {
		performed := PerformedExercise{ExerciseID: exercise.ExerciseID}
		for _, set := range exercise.Sets {
			performed.Sets = append(performed.Sets, PerformedSet{
				Reps:     set.Reps,
				WeightKg: set.WeightKg,
			})
		}
		workout.Exercises = append(workout.Exercises, performed)
	}

	loggedWorkout, err := handler.repo.LogSession(ctx, workout)
	if err != nil {
		if errors.Is(err, ErrExerciseMissing) {
			http.Error(w, "error, exercise does not belong to the routine", http.StatusBadRequest)
			return
		}
		log.Errorf("log workout for user %d: %s", userID, err)
		http.Error(w, "log workout failed", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWorkoutsLogged.Inc()
	span.SetAttributes(attribute.Int("workout.id", loggedWorkout.ID))

	workoutBytes, err := json.Marshal(loggedWorkout)
	if err != nil {
		log.Errorf("log workout, marshal: %s", err)
		http.Error(w, "log workout failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutBytes, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workouts, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list workouts for user %d: %s", userID, err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}
	if workouts == nil {
		workouts = []Workout{}
	}

	span.SetAttributes(attribute.Int("workouts.count", len(workouts)))

	workoutsBytes, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("list workouts, marshal: %s", err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutsBytes)
}

func (handler *Handler) HandleListForRoutine(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.listForRoutine")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	routineID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid routine id", http.StatusBadRequest)
		return
	}

	ownerID, err := handler.repo.RoutineOwner(ctx, routineID)
	if err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			http.Error(w, "routine not found", http.StatusNotFound)
			return
		}
		log.Errorf("list workouts, routine %d owner check: %s", routineID, err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}
	if ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	workouts, err := handler.repo.ListForRoutine(ctx, routineID)
	if err != nil {
		log.Errorf("list workouts for routine %d: %s", routineID, err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}
	if workouts == nil {
		workouts = []Workout{}
	}

	workoutsBytes, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("list workouts, marshal: %s", err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutsBytes)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid workout id", http.StatusBadRequest)
		return
	}

	ownerID, err := handler.repo.Owner(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete workout %d, owner check: %s", id, err)
		http.Error(w, "delete workout failed", http.StatusInternalServerError)
		return
	}
	if ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		log.Errorf("delete workout %d: %s", id, err)
		http.Error(w, "delete workout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}
