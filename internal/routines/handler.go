package routines

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fittrack-ar/fittrack/internal/auth"
	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"
	"github.com/fittrack-ar/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type routinesRepo interface {
	CreateComplete(ctx context.Context, routine Routine) (*Routine, error)
	GetComplete(ctx context.Context, id int) (*Routine, error)
	ListComplete(ctx context.Context, userID int) ([]Routine, error)
	Delete(ctx context.Context, id int) error
	Owner(ctx context.Context, routineID int) (int, error)
	AddExercise(ctx context.Context, exercise Exercise) (*Exercise, error)
	DeleteExercise(ctx context.Context, id int) error
	ExerciseOwner(ctx context.Context, exerciseID int) (int, error)
	AddSet(ctx context.Context, set Set) (*Set, error)
	UpdateSet(ctx context.Context, set *Set) error
	DeleteSet(ctx context.Context, id int) error
	SetOwner(ctx context.Context, setID int) (int, error)
	ListLevels(ctx context.Context) ([]Level, error)
	AddLevel(ctx context.Context, level Level) (*Level, error)
	UpdateLevel(ctx context.Context, level *Level) error
	DeleteLevel(ctx context.Context, id int) error
}

type Handler struct {
	repo routinesRepo
}

func NewHandler(repo routinesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/routines", handler.HandleCreate).Methods("POST", "OPTIONS").Name("new-routine")
	mainRouter.HandleFunc("/routines", handler.HandleList).Methods("GET", "OPTIONS").Name("list-routines")
	mainRouter.HandleFunc("/routines/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-routine")
	mainRouter.HandleFunc("/routines/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-routine")
	mainRouter.HandleFunc("/routines/{id}/exercises", handler.HandleAddExercise).Methods("POST", "OPTIONS").Name("new-routine-exercise")
	mainRouter.HandleFunc("/exercises/{id}", handler.HandleDeleteExercise).Methods("DELETE", "OPTIONS").Name("delete-routine-exercise")
	mainRouter.HandleFunc("/exercises/{id}/sets", handler.HandleAddSet).Methods("POST", "OPTIONS").Name("new-set")
	mainRouter.HandleFunc("/sets/{id}", handler.HandleUpdateSet).Methods("PUT", "OPTIONS").Name("update-set")
	mainRouter.HandleFunc("/sets/{id}", handler.HandleDeleteSet).Methods("DELETE", "OPTIONS").Name("delete-set")

	mainRouter.HandleFunc("/levels", handler.HandleListLevels).Methods("GET", "OPTIONS").Name("list-levels")
	mainRouter.HandleFunc("/levels", handler.HandleAddLevel).Methods("POST", "OPTIONS").Name("new-level")
	mainRouter.HandleFunc("/levels/{id}", handler.HandleUpdateLevel).Methods("PUT", "OPTIONS").Name("update-level")
	mainRouter.HandleFunc("/levels/{id}", handler.HandleDeleteLevel).Methods("DELETE", "OPTIONS").Name("delete-level")
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.create")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var routine Routine
	if err := json.NewDecoder(r.Body).Decode(&routine); err != nil {
		log.Errorf("create routine, unmarshal json params: %s", err)
		http.Error(w, "create routine failed", http.StatusBadRequest)
		return
	}

	if routine.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}
	for _, exercise := range routine.Exercises {
		if exercise.DefinitionID <= 0 {
			http.Error(w, "error, exercise definition_id required", http.StatusBadRequest)
			return
		}
		for _, set := range exercise.Sets {
			if set.Reps < 0 || set.WeightKg < 0 {
				http.Error(w, "error, reps and weight_kg must be non-negative", http.StatusBadRequest)
				return
			}
		}
	}

	// the owner always comes from the session, never the payload
	routine.UserID = userID

	createdRoutine, err := handler.repo.CreateComplete(ctx, routine)
	if err != nil {
		if errors.Is(err, ErrDefinitionMissing) {
			http.Error(w, "error, unknown exercise definition", http.StatusBadRequest)
			return
		}
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, unknown level or definition", http.StatusBadRequest)
			return
		}
		log.Errorf("create routine: %s", err)
		http.Error(w, "create routine failed", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.Int("routine.id", createdRoutine.ID))

	routineBytes, err := json.Marshal(createdRoutine)
	if err != nil {
		log.Errorf("create routine, marshal: %s", err)
		http.Error(w, "create routine failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, routineBytes, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	routines, err := handler.repo.ListComplete(ctx, userID)
	if err != nil {
		log.Errorf("list routines for user %d: %s", userID, err)
		http.Error(w, "failed to list routines", http.StatusInternalServerError)
		return
	}
	if routines == nil {
		routines = []Routine{}
	}

	span.SetAttributes(attribute.Int("routines.count", len(routines)))

	routinesBytes, err := json.Marshal(routines)
	if err != nil {
		log.Errorf("list routines, marshal: %s", err)
		http.Error(w, "failed to list routines", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, routinesBytes)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid routine id", http.StatusBadRequest)
		return
	}

	routine, err := handler.repo.GetComplete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			http.Error(w, "routine not found", http.StatusNotFound)
			return
		}
		log.Errorf("get routine %d: %s", id, err)
		http.Error(w, "failed to get routine", http.StatusInternalServerError)
		return
	}

	if routine.UserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	routineBytes, err := json.Marshal(routine)
	if err != nil {
		log.Errorf("get routine, marshal: %s", err)
		http.Error(w, "failed to get routine", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, routineBytes)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.delete")
	defer span.End()

	id, ok := handler.ownedRoutineID(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			http.Error(w, "routine not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete routine %d: %s", id, err)
		http.Error(w, "delete routine failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.addExercise")
	defer span.End()

	routineID, ok := handler.ownedRoutineID(w, r)
	if !ok {
		return
	}

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Errorf("add exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}
	if exercise.DefinitionID <= 0 {
		http.Error(w, "error, definition_id required", http.StatusBadRequest)
		return
	}
	exercise.RoutineID = routineID

	addedExercise, err := handler.repo.AddExercise(ctx, exercise)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, unknown exercise definition", http.StatusBadRequest)
			return
		}
		log.Errorf("add exercise to routine %d: %s", routineID, err)
		http.Error(w, "add exercise failed", http.StatusInternalServerError)
		return
	}

	exerciseBytes, err := json.Marshal(addedExercise)
	if err != nil {
		log.Errorf("add exercise, marshal: %s", err)
		http.Error(w, "add exercise failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exerciseBytes, http.StatusCreated)
}

func (handler *Handler) HandleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.deleteExercise")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid exercise id", http.StatusBadRequest)
		return
	}

	ownerID, err := handler.repo.ExerciseOwner(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete exercise %d, owner check: %s", id, err)
		http.Error(w, "delete exercise failed", http.StatusInternalServerError)
		return
	}
	if ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := handler.repo.DeleteExercise(ctx, id); err != nil {
		log.Errorf("delete exercise %d: %s", id, err)
		http.Error(w, "delete exercise failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleAddSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.addSet")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	exerciseID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid exercise id", http.StatusBadRequest)
		return
	}

	ownerID, err := handler.repo.ExerciseOwner(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("add set, exercise %d owner check: %s", exerciseID, err)
		http.Error(w, "add set failed", http.StatusInternalServerError)
		return
	}
	if ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var set Set
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		log.Errorf("add set, unmarshal json params: %s", err)
		http.Error(w, "add set failed", http.StatusBadRequest)
		return
	}
	if set.Reps < 0 || set.WeightKg < 0 {
		http.Error(w, "error, reps and weight_kg must be non-negative", http.StatusBadRequest)
		return
	}
	set.ExerciseID = exerciseID

	addedSet, err := handler.repo.AddSet(ctx, set)
	if err != nil {
		log.Errorf("add set to exercise %d: %s", exerciseID, err)
		http.Error(w, "add set failed", http.StatusInternalServerError)
		return
	}

	setBytes, err := json.Marshal(addedSet)
	if err != nil {
		log.Errorf("add set, marshal: %s", err)
		http.Error(w, "add set failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, setBytes, http.StatusCreated)
}

func (handler *Handler) HandleUpdateSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.updateSet")
	defer span.End()

	id, ok := handler.ownedSetID(w, r)
	if !ok {
		return
	}

	var set Set
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		log.Errorf("update set, unmarshal json params: %s", err)
		http.Error(w, "update set failed", http.StatusBadRequest)
		return
	}
	if set.Reps < 0 || set.WeightKg < 0 {
		http.Error(w, "error, reps and weight_kg must be non-negative", http.StatusBadRequest)
		return
	}
	set.ID = id

	if err := handler.repo.UpdateSet(ctx, &set); err != nil {
		if errors.Is(err, ErrSetNotFound) {
			http.Error(w, "set not found", http.StatusNotFound)
			return
		}
		log.Errorf("update set %d: %s", id, err)
		http.Error(w, "update set failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) HandleDeleteSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.deleteSet")
	defer span.End()

	id, ok := handler.ownedSetID(w, r)
	if !ok {
		return
	}

	if err := handler.repo.DeleteSet(ctx, id); err != nil {
		if errors.Is(err, ErrSetNotFound) {
			http.Error(w, "set not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete set %d: %s", id, err)
		http.Error(w, "delete set failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleListLevels(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.listLevels")
	defer span.End()

	levels, err := handler.repo.ListLevels(ctx)
	if err != nil {
		log.Errorf("list levels: %s", err)
		http.Error(w, "failed to list levels", http.StatusInternalServerError)
		return
	}
	if levels == nil {
		levels = []Level{}
	}

	levelsBytes, err := json.Marshal(levels)
	if err != nil {
		log.Errorf("list levels, marshal: %s", err)
		http.Error(w, "failed to list levels", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, levelsBytes)
}

func (handler *Handler) HandleAddLevel(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.addLevel")
	defer span.End()

	var level Level
	if err := json.NewDecoder(r.Body).Decode(&level); err != nil {
		log.Errorf("add level, unmarshal json params: %s", err)
		http.Error(w, "add level failed", http.StatusBadRequest)
		return
	}
	if level.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}

	addedLevel, err := handler.repo.AddLevel(ctx, level)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			http.Error(w, "error, level name already exists", http.StatusConflict)
			return
		}
		log.Errorf("add level: %s", err)
		http.Error(w, "add level failed", http.StatusInternalServerError)
		return
	}

	levelBytes, err := json.Marshal(addedLevel)
	if err != nil {
		log.Errorf("add level, marshal: %s", err)
		http.Error(w, "add level failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, levelBytes, http.StatusCreated)
}

func (handler *Handler) HandleUpdateLevel(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.updateLevel")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid level id", http.StatusBadRequest)
		return
	}

	var level Level
	if err := json.NewDecoder(r.Body).Decode(&level); err != nil {
		log.Errorf("update level, unmarshal json params: %s", err)
		http.Error(w, "update level failed", http.StatusBadRequest)
		return
	}
	if level.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}
	level.ID = id

	if err := handler.repo.UpdateLevel(ctx, &level); err != nil {
		if errors.Is(err, ErrLevelNotFound) {
			http.Error(w, "level not found", http.StatusNotFound)
			return
		}
		log.Errorf("update level %d: %s", id, err)
		http.Error(w, "update level failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) HandleDeleteLevel(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.deleteLevel")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid level id", http.StatusBadRequest)
		return
	}

	if err := handler.repo.DeleteLevel(ctx, id); err != nil {
		if errors.Is(err, ErrLevelNotFound) {
			http.Error(w, "level not found", http.StatusNotFound)
			return
		}
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, level is in use", http.StatusConflict)
			return
		}
		log.Errorf("delete level %d: %s", id, err)
		http.Error(w, "delete level failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

// ownedRoutineID parses the routine id from the path and verifies the
// caller owns it.
func (handler *Handler) ownedRoutineID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, false
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid routine id", http.StatusBadRequest)
		return 0, false
	}

	ownerID, err := handler.repo.Owner(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			http.Error(w, "routine not found", http.StatusNotFound)
			return 0, false
		}
		log.Errorf("routine %d owner check: %s", id, err)
		http.Error(w, "routine owner check failed", http.StatusInternalServerError)
		return 0, false
	}
	if ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return 0, false
	}

	return id, true
}

func (handler *Handler) ownedSetID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, false
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid set id", http.StatusBadRequest)
		return 0, false
	}

	ownerID, err := handler.repo.SetOwner(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSetNotFound) {
			http.Error(w, "set not found", http.StatusNotFound)
			return 0, false
		}
		log.Errorf("set %d owner check: %s", id, err)
		http.Error(w, "set owner check failed", http.StatusInternalServerError)
		return 0, false
	}
	if ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return 0, false
	}

	return id, true
}
