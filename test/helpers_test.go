package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID int    `json:"user_id"`
}

func registerUser(ctx context.Context, t *testing.T, name, email, password string) {
	t.Helper()

	body, err := json.Marshal(registerRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	resp := doRequest(ctx, t, "POST", "/users", body, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func doLogin(ctx context.Context, t *testing.T, email, password string) loginResponse {
	t.Helper()

	body, err := json.Marshal(loginRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	resp := doRequest(ctx, t, "POST", "/a/login", body, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var loginResp loginResponse
	require.NoError(t, json.Unmarshal(respBytes, &loginResp))
	require.NotEmpty(t, loginResp.Token)

	return loginResp
}

func doRequest(ctx context.Context, t *testing.T, method, path string, body []byte, token string) *http.Response {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, bodyReader)
	require.NoError(t, err)

	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func readJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBytes, target), "body: %s", respBytes)
}
