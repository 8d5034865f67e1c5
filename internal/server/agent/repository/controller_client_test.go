package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-edge-controller/internal/config"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
)

func newClient(t *testing.T, url string) IControllerClient {
	t.Helper()
	cfg := &config.AgentConfig{ControllerURL: url, RequestTimeout: 2 * time.Second}
	return NewControllerClient(cfg, logger.NewNop())
}

func TestConnect_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/agent/connect/tok-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dto.ConnectResponse{
			Success: true,
			Config:  dto.ConnectConfig{AgentID: "a-1", AgentKey: "k-1", PollingInterval: 30, APIEndpoint: "/api/agent/poll"},
		})
	}))
	defer ts.Close()

	resp, err := newClient(t, ts.URL).Connect(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", resp.Config.AgentID)
	assert.Equal(t, 30, resp.Config.PollingInterval)
}

func TestConnect_StatusMapsToTaxonomy(t *testing.T) {
	cases := map[int]error{
		http.StatusNotFound:            apperror.ErrNotFound,
		http.StatusConflict:            apperror.ErrConflict,
		http.StatusServiceUnavailable:  apperror.ErrPersistence,
		http.StatusUnauthorized:        apperror.ErrAuthentication,
		http.StatusInternalServerError: nil,
	}
	for code, want := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"success":false,"message":"nope"}`))
		}))

		_, err := newClient(t, ts.URL).Connect(context.Background(), "tok")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope")
		if want != nil {
			assert.ErrorIs(t, err, want, "status %d", code)
		} else {
			assert.False(t, apperror.Retryable(err))
		}
		ts.Close()
	}
}

func TestPoll_SendsBearerAndBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/agent/poll", r.URL.Path)
		assert.Equal(t, "Bearer k-1", r.Header.Get("Authorization"))

		var req dto.PollRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a-1", req.AgentID)
		assert.Equal(t, "k-1", req.AgentKey)

		_ = json.NewEncoder(w).Encode(dto.PollResponse{
			Success:          true,
			Stats:            dto.PollStats{TotalDomains: 2},
			NextPollInterval: 45,
		})
	}))
	defer ts.Close()

	resp, err := newClient(t, ts.URL).Poll(context.Background(), Credentials{AgentID: "a-1", AgentKey: "k-1"})
	require.NoError(t, err)
	assert.Equal(t, 45, resp.NextPollInterval)
	assert.Equal(t, 2, resp.Stats.TotalDomains)
}

func TestPoll_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := newClient(t, url).Poll(context.Background(), Credentials{AgentID: "a", AgentKey: "k"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
}

func TestRepositoryStoresSnapshot(t *testing.T) {
	repo := NewRepository()
	_, ok := repo.Snapshot()
	assert.False(t, ok)
	_, ok = repo.Credentials()
	assert.False(t, ok)

	repo.SetCredentials(Credentials{AgentID: "a", AgentKey: "k"})
	repo.UpdateSnapshot(&dto.PollResponse{NextPollInterval: 10})

	creds, ok := repo.Credentials()
	require.True(t, ok)
	assert.Equal(t, "a", creds.AgentID)
	snap, ok := repo.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 10, snap.NextPollInterval)
}

func TestCredentialsFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "agent.json")

	_, ok, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.False(t, ok)

	want := Credentials{AgentID: "a", AgentKey: "k", PollingInterval: 60}
	require.NoError(t, SaveCredentials(path, want))

	got, ok, err := LoadCredentials(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, SaveCredentials("", want))
}
