package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"
	"github.com/fittrack-ar/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type Handler struct {
	repo catalogRepo
}

func NewHandler(repo catalogRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/catalog", handler.HandleList).Methods("GET", "OPTIONS").Name("list-definitions")
	mainRouter.HandleFunc("/catalog", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-definition")
	mainRouter.HandleFunc("/catalog/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-definition")
	mainRouter.HandleFunc("/catalog/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-definition")
	mainRouter.HandleFunc("/catalog/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-definition")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "catalogHandler.add")
	defer span.End()

	var def ExerciseDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		log.Errorf("add definition, unmarshal json params: %s", err)
		http.Error(w, "add definition failed", http.StatusBadRequest)
		return
	}

	if def.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}

	addedDef, err := handler.repo.Add(ctx, def)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			http.Error(w, "error, definition name already exists", http.StatusConflict)
			return
		}
		log.Errorf("add definition: %s", err)
		http.Error(w, "add definition failed", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.Int("definition.id", addedDef.ID))

	defBytes, err := json.Marshal(addedDef)
	if err != nil {
		log.Errorf("add definition, marshal: %s", err)
		http.Error(w, "add definition failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, defBytes, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "catalogHandler.list")
	defer span.End()

	defs, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list definitions: %s", err)
		http.Error(w, "failed to list definitions", http.StatusInternalServerError)
		return
	}
	if defs == nil {
		defs = []ExerciseDefinition{}
	}

	span.SetAttributes(attribute.Int("definitions.count", len(defs)))

	defsBytes, err := json.Marshal(defs)
	if err != nil {
		log.Errorf("list definitions, marshal: %s", err)
		http.Error(w, "failed to list definitions", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, defsBytes)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "catalogHandler.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid definition id", http.StatusBadRequest)
		return
	}

	def, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			http.Error(w, "definition not found", http.StatusNotFound)
			return
		}
		log.Errorf("get definition %d: %s", id, err)
		http.Error(w, "failed to get definition", http.StatusInternalServerError)
		return
	}

	defBytes, err := json.Marshal(def)
	if err != nil {
		log.Errorf("get definition, marshal: %s", err)
		http.Error(w, "failed to get definition", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, defBytes)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "catalogHandler.update")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid definition id", http.StatusBadRequest)
		return
	}

	var def ExerciseDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		log.Errorf("update definition, unmarshal json params: %s", err)
		http.Error(w, "update definition failed", http.StatusBadRequest)
		return
	}
	if def.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}
	def.ID = id

	if err := handler.repo.Update(ctx, &def); err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			http.Error(w, "definition not found", http.StatusNotFound)
			return
		}
		log.Errorf("update definition %d: %s", id, err)
		http.Error(w, "update definition failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "catalogHandler.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid definition id", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			http.Error(w, "definition not found", http.StatusNotFound)
			return
		}
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, definition is in use", http.StatusConflict)
			return
		}
		log.Errorf("delete definition %d: %s", id, err)
		http.Error(w, "delete definition failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}
