package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fittrack-ar/fittrack/internal/catalog"
	"github.com/fittrack-ar/fittrack/internal/routines"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) createDefinition(ctx context.Context, token, name string) catalog.ExerciseDefinition {
	t := s.T()

	body, err := json.Marshal(map[string]string{"name": name})
	require.NoError(t, err)

	resp := doRequest(ctx, t, "POST", "/catalog", body, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var definition catalog.ExerciseDefinition
	readJSON(t, resp, &definition)
	return definition
}

func (s *IntegrationTestSuite) createRoutine(ctx context.Context, token, name string, definitionID int) routines.Routine {
	t := s.T()

	body, err := json.Marshal(map[string]any{
		"name": name,
		"exercises": []map[string]any{
			{"definition_id": definitionID},
		},
	})
	require.NoError(t, err)

	resp := doRequest(ctx, t, "POST", "/routines", body, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var routine routines.Routine
	readJSON(t, resp, &routine)
	require.NotZero(t, routine.ID)
	require.NotEmpty(t, routine.Exercises)
	return routine
}

func (s *IntegrationTestSuite) logWorkout(ctx context.Context, token, date string, routineID, exerciseID int, weights ...float64) {
	t := s.T()

	sets := make([]map[string]any, 0, len(weights))
	for _, weight := range weights {
		sets = append(sets, map[string]any{"reps": 8, "weight_kg": weight})
	}
	body, err := json.Marshal(map[string]any{
		"date":       date,
		"routine_id": routineID,
		"exercises": []map[string]any{
			{"exercise_id": exerciseID, "sets": sets},
		},
	})
	require.NoError(t, err)

	resp := doRequest(ctx, t, "POST", "/workouts", body, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestStats_MaxAndAveragePerRoutine() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Ana", "ana@example.com", "s3cret-pass")
	login := doLogin(ctx, t, "ana@example.com", "s3cret-pass")

	definition := s.createDefinition(ctx, login.Token, "Bench Press")
	routine := s.createRoutine(ctx, login.Token, "Push Day", definition.ID)
	exerciseID := routine.Exercises[0].ID

	// a routine with no workouts at all must still show up
	s.createRoutine(ctx, login.Token, "Leg Day", definition.ID)

	// weights 50 and 80 across two different workouts
	s.logWorkout(ctx, login.Token, "2025-03-10", routine.ID, exerciseID, 50)
	s.logWorkout(ctx, login.Token, "2025-03-12", routine.ID, exerciseID, 80)

	resp := doRequest(ctx, t, "GET", "/routines/stats", nil, login.Token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]any
	readJSON(t, resp, &entries)
	require.Len(t, entries, 2)

	byName := make(map[string]map[string]any)
	for _, entry := range entries {
		byName[entry["rutina_nombre"].(string)] = entry
	}

	pushDay := byName["Push Day"]
	require.NotNil(t, pushDay)
	assert.Equal(t, float64(routine.ID), pushDay["rutina_id"])
	assert.Equal(t, float64(80), pushDay["max_peso_levantado"])
	assert.Equal(t, "Bench Press", pushDay["ejercicio_max_peso"])
	assert.Equal(t, float64(65), pushDay["promedio_peso_general"])

	legDay := byName["Leg Day"]
	require.NotNil(t, legDay)
	assert.Equal(t, float64(0), legDay["max_peso_levantado"])
	assert.Nil(t, legDay["ejercicio_max_peso"])
	assert.Equal(t, float64(0), legDay["promedio_peso_general"])
}

func (s *IntegrationTestSuite) TestStats_CrossUserIsolation() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Bruno", "bruno@example.com", "s3cret-pass")
	registerUser(ctx, t, "Carla", "carla@example.com", "s3cret-pass")
	brunoLogin := doLogin(ctx, t, "bruno@example.com", "s3cret-pass")
	carlaLogin := doLogin(ctx, t, "carla@example.com", "s3cret-pass")

	// shared exercise definition, separate routines
	definition := s.createDefinition(ctx, brunoLogin.Token, "Deadlift")

	brunoRoutine := s.createRoutine(ctx, brunoLogin.Token, "Strength", definition.ID)
	s.logWorkout(ctx, brunoLogin.Token, "2025-04-01", brunoRoutine.ID, brunoRoutine.Exercises[0].ID, 120)

	carlaRoutine := s.createRoutine(ctx, carlaLogin.Token, "Strength", definition.ID)
	s.logWorkout(ctx, carlaLogin.Token, "2025-04-01", carlaRoutine.ID, carlaRoutine.Exercises[0].ID, 200)

	resp := doRequest(ctx, t, "GET", "/routines/stats", nil, brunoLogin.Token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]any
	readJSON(t, resp, &entries)
	require.Len(t, entries, 1)

	// Carla's 200kg lift must never leak into Bruno's stats
	assert.Equal(t, float64(120), entries[0]["max_peso_levantado"])
	assert.Equal(t, float64(120), entries[0]["promedio_peso_general"])
}

func (s *IntegrationTestSuite) TestStats_NoRoutines() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Diego", "diego@example.com", "s3cret-pass")
	login := doLogin(ctx, t, "diego@example.com", "s3cret-pass")

	resp := doRequest(ctx, t, "GET", "/routines/stats", nil, login.Token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope map[string]any
	readJSON(t, resp, &envelope)
	assert.Equal(t, "No se encontraron rutinas para este usuario.", envelope["mensaje"])
}

func (s *IntegrationTestSuite) TestStats_NoWeightDataEnvelope() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Elena", "elena@example.com", "s3cret-pass")
	login := doLogin(ctx, t, "elena@example.com", "s3cret-pass")

	definition := s.createDefinition(ctx, login.Token, "Squat")
	s.createRoutine(ctx, login.Token, "Lower Body", definition.ID)

	resp := doRequest(ctx, t, "GET", "/routines/stats", nil, login.Token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope map[string]any
	readJSON(t, resp, &envelope)
	assert.Equal(t, "No hay estadísticas de peso disponibles.", envelope["mensaje"])

	entries, ok := envelope["estadisticas"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "Lower Body", entry["rutina_nombre"])
	assert.Equal(t, float64(0), entry["max_peso_levantado"])
}

func (s *IntegrationTestSuite) TestStats_RoutineDeleteCascades() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Fede", "fede@example.com", "s3cret-pass")
	login := doLogin(ctx, t, "fede@example.com", "s3cret-pass")

	definition := s.createDefinition(ctx, login.Token, "Overhead Press")
	routine := s.createRoutine(ctx, login.Token, "Shoulders", definition.ID)
	s.logWorkout(ctx, login.Token, "2025-05-05", routine.ID, routine.Exercises[0].ID, 40, 45)

	resp := doRequest(ctx, t, "DELETE", fmt.Sprintf("/routines/%d", routine.ID), nil, login.Token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// all dependents are gone with the routine
	var workoutCount int
	require.NoError(t, s.DB.QueryRow(
		`SELECT count(*) FROM workout WHERE routine_id = $1`, routine.ID,
	).Scan(&workoutCount))
	assert.Zero(t, workoutCount)

	var performedSetCount int
	require.NoError(t, s.DB.QueryRow(
		`SELECT count(*)
			FROM performed_set ps
			JOIN performed_exercise pe ON ps.performed_exercise_id = pe.id
			JOIN workout w ON pe.workout_id = w.id
			WHERE w.routine_id = $1`, routine.ID,
	).Scan(&performedSetCount))
	assert.Zero(t, performedSetCount)

	statsResp := doRequest(ctx, t, "GET", "/routines/stats", nil, login.Token)
	defer statsResp.Body.Close()
	require.Equal(t, http.StatusOK, statsResp.StatusCode)

	var envelope map[string]any
	readJSON(t, statsResp, &envelope)
	assert.Equal(t, "No se encontraron rutinas para este usuario.", envelope["mensaje"])
}
