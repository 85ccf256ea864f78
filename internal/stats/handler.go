package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fittrack-ar/fittrack/internal/auth"
	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"
	"github.com/fittrack-ar/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type statsAnalyzer interface {
	Analyze(ctx context.Context, userID int) ([]RoutineStats, error)
}

type Handler struct {
	analyzer statsAnalyzer
}

func NewHandler(analyzer statsAnalyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

// SetupRoutes must run before the routines routes are registered so
// that /routines/stats is not captured by /routines/{id}.
func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/routines/stats", handler.HandleStats).Methods("GET", "OPTIONS").Name("routine-stats")
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detalle"`
}

type infoResponse struct {
	Message string         `json:"mensaje"`
	Detail  string         `json:"detalle,omitempty"`
	Stats   []RoutineStats `json:"estadisticas,omitempty"`
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "statsHandler.stats")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	summaries, err := handler.analyzer.Analyze(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeJSON(w, errorResponse{
				Error:  "Usuario no encontrado",
				Detail: "El usuario asociado al token no existe.",
			}, http.StatusNotFound)
			return
		}
		log.Errorf("compute stats for user %d: %s", userID, err)
		writeJSON(w, errorResponse{
			Error:  "Ocurrió un error al calcular las estadísticas",
			Detail: err.Error(),
		}, http.StatusInternalServerError)
		return
	}

	if len(summaries) == 0 {
		writeJSON(w, infoResponse{
			Message: "No se encontraron rutinas para este usuario.",
		}, http.StatusOK)
		return
	}

	if !HasWeightData(summaries) {
		writeJSON(w, infoResponse{
			Message: "No hay estadísticas de peso disponibles.",
			Detail:  "Aún no se han registrado entrenamientos con peso para estas rutinas.",
			Stats:   summaries,
		}, http.StatusOK)
		return
	}

	writeJSON(w, summaries, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("stats, marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, payloadBytes, status)
}
