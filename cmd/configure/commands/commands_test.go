package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTargets(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "chat", want: []string{"chat"}},
		{name: "spaces and blanks", raw: " chat , ,email ", want: []string{"chat", "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitTargets(tt.raw))
		})
	}
}

func TestRulesAdd_ValidatesBeforeConnecting(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing user", args: []string{"add", "--targets", "chat"}},
		{name: "missing targets", args: []string{"add", "--user", "u1"}},
		{name: "unknown target", args: []string{"add", "--user", "u1", "--targets", "fax"}},
		{name: "negative amount", args: []string{"add", "--user", "u1", "--targets", "chat", "--min-amount=-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRulesCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid automation rule")
		})
	}
}

func TestRulesList_RequiresUser(t *testing.T) {
	cmd := NewRulesCmd()
	cmd.SetArgs([]string{"list"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user is required")
}

func TestTestCmd_PostsSampleSync(t *testing.T) {
	var received models.SyncRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		case "/api/v1/sync":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(models.SyncResponse{
				Success:      true,
				Synced:       []string{"chat", "email"},
				Failed:       []string{},
				TimeSavedSec: 420,
				DecisionLog:  []string{"chat: Success", "email: Success"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := NewTestCmd()
	cmd.SetArgs([]string{"--base-url", srv.URL + "/", "--user", "u1", "--amount", "60000"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())

	assert.Equal(t, models.SourceManual, received.Source)
	assert.Equal(t, "u1", received.UserID)
	assert.Equal(t, 60000.0, received.Data.Amount)
	assert.Equal(t, []string{"chat", "email"}, received.Targets)
	assert.Contains(t, out.String(), "Time saved: 420s")
	assert.Contains(t, out.String(), "chat: Success")
	assert.Contains(t, out.String(), "Sync test passed")
}

func TestTestCmd_PartialSyncFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusMultiStatus)
		_ = json.NewEncoder(w).Encode(models.SyncResponse{
			Synced:      []string{"chat"},
			Failed:      []string{"email"},
			DecisionLog: []string{"chat: Success", "email: smtp down"},
		})
	}))
	defer srv.Close()

	cmd := NewTestCmd()
	cmd.SetArgs([]string{"--base-url", srv.URL})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 207")
}
