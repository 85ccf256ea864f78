package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestWorkouts_LogAndList() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Gabi", "gabi@example.com", "s3cret-pass")
	login := doLogin(ctx, t, "gabi@example.com", "s3cret-pass")

	definition := s.createDefinition(ctx, login.Token, "Barbell Row")
	routine := s.createRoutine(ctx, login.Token, "Back Day", definition.ID)
	exerciseID := routine.Exercises[0].ID

	s.logWorkout(ctx, login.Token, "2025-06-01", routine.ID, exerciseID, 60)
	s.logWorkout(ctx, login.Token, "2025-06-03", routine.ID, exerciseID, 62.5)

	resp := doRequest(ctx, t, "GET", "/workouts", nil, login.Token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var workouts []map[string]any
	readJSON(t, resp, &workouts)
	require.Len(t, workouts, 2)

	// newest first
	assert.Equal(t, "2025-06-03", workouts[0]["date"])
	assert.Equal(t, "2025-06-01", workouts[1]["date"])

	exercises, ok := workouts[0]["exercises"].([]any)
	require.True(t, ok)
	require.Len(t, exercises, 1)
	assert.Equal(t, "Barbell Row", exercises[0].(map[string]any)["definition_name"])
}

func (s *IntegrationTestSuite) TestWorkouts_SessionIsAtomic() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Hugo", "hugo@example.com", "s3cret-pass")
	login := doLogin(ctx, t, "hugo@example.com", "s3cret-pass")

	definition := s.createDefinition(ctx, login.Token, "Pull Up")
	routine := s.createRoutine(ctx, login.Token, "Calisthenics", definition.ID)
	exerciseID := routine.Exercises[0].ID

	// second exercise id belongs to no routine, whole session must
	// roll back
	body, err := json.Marshal(map[string]any{
		"date":       "2025-06-10",
		"routine_id": routine.ID,
		"exercises": []map[string]any{
			{"exercise_id": exerciseID, "sets": []map[string]any{{"reps": 10, "weight_kg": 0}}},
			{"exercise_id": 999999, "sets": []map[string]any{{"reps": 10, "weight_kg": 0}}},
		},
	})
	require.NoError(t, err)

	resp := doRequest(ctx, t, "POST", "/workouts", body, login.Token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var workoutCount int
	require.NoError(t, s.DB.QueryRow(
		`SELECT count(*) FROM workout WHERE routine_id = $1`, routine.ID,
	).Scan(&workoutCount))
	assert.Zero(t, workoutCount)
}

func (s *IntegrationTestSuite) TestWorkouts_OwnershipChecks() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Ines", "ines@example.com", "s3cret-pass")
	registerUser(ctx, t, "Julia", "julia@example.com", "s3cret-pass")
	inesLogin := doLogin(ctx, t, "ines@example.com", "s3cret-pass")
	juliaLogin := doLogin(ctx, t, "julia@example.com", "s3cret-pass")

	definition := s.createDefinition(ctx, inesLogin.Token, "Lunge")
	routine := s.createRoutine(ctx, inesLogin.Token, "Legs", definition.ID)

	// logging against someone else's routine is forbidden
	body, err := json.Marshal(map[string]any{
		"date":       "2025-06-15",
		"routine_id": routine.ID,
		"exercises": []map[string]any{
			{"exercise_id": routine.Exercises[0].ID, "sets": []map[string]any{{"reps": 12, "weight_kg": 20}}},
		},
	})
	require.NoError(t, err)

	resp := doRequest(ctx, t, "POST", "/workouts", body, juliaLogin.Token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// neither is reading its workouts
	listResp := doRequest(ctx, t, "GET", fmt.Sprintf("/routines/%d/workouts", routine.ID), nil, juliaLogin.Token)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, listResp.StatusCode)
}

func (s *IntegrationTestSuite) TestWorkouts_Delete() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	registerUser(ctx, t, "Katia", "katia@example.com", "s3cret-pass")
	login := doLogin(ctx, t, "katia@example.com", "s3cret-pass")

	definition := s.createDefinition(ctx, login.Token, "Hip Thrust")
	routine := s.createRoutine(ctx, login.Token, "Glutes", definition.ID)
	s.logWorkout(ctx, login.Token, "2025-07-01", routine.ID, routine.Exercises[0].ID, 80)

	resp := doRequest(ctx, t, "GET", "/workouts", nil, login.Token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var workouts []map[string]any
	readJSON(t, resp, &workouts)
	require.Len(t, workouts, 1)
	workoutID := int(workouts[0]["id"].(float64))

	deleteResp := doRequest(ctx, t, "DELETE", fmt.Sprintf("/workouts/%d", workoutID), nil, login.Token)
	defer deleteResp.Body.Close()
	require.Equal(t, http.StatusOK, deleteResp.StatusCode)

	var performedCount int
	require.NoError(t, s.DB.QueryRow(
		`SELECT count(*) FROM performed_exercise WHERE workout_id = $1`, workoutID,
	).Scan(&performedCount))
	assert.Zero(t, performedCount)
}
