package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/decision-board/backend/internal/client"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

func run(t *testing.T, api, tokenFile string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("DECISIONCTL_TOKEN", "")
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--api", api, "--token-file", tokenFile}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestLoginSavesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.AuthResponse{Token: "tok-9", User: models.User{Username: "alice"}})
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")
	out, _, err := run(t, srv.URL, tokenFile, "login", "--email", "a@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as alice")

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", strings.TrimSpace(string(data)))
}

func TestVoteCommand(t *testing.T) {
	id := uuid.New()
	var votes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/decisions/" + id.String():
			json.NewEncoder(w).Encode(models.DecisionView{ID: id, Title: "Adopt a cat?", Votes: models.Tally{Up: 3, Down: 1}})
		case "/api/decisions/" + id.String() + "/vote":
			votes++
			down := models.VoteDown
			json.NewEncoder(w).Encode(models.VoteResult{Action: models.VoteCreated, Votes: models.Tally{Up: 3, Down: 2, UserVote: &down}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("tok\n"), 0o600))

	out, _, err := run(t, srv.URL, tokenFile, "vote", id.String(), "down")
	require.NoError(t, err)
	assert.Equal(t, 1, votes)
	assert.Contains(t, out, "▲ 3  ▼ 2  (you: down)")

	_, _, err = run(t, srv.URL, tokenFile, "vote", id.String(), "sideways")
	assert.Error(t, err)
	assert.Equal(t, 1, votes)
}

func TestVoteCommand_AuthRequired(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/vote") {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Authorization header is required","code":"auth_required"}`))
			return
		}
		json.NewEncoder(w).Encode(models.DecisionView{ID: id, Title: "t"})
	}))
	defer srv.Close()

	_, _, err := run(t, srv.URL, filepath.Join(t.TempDir(), "token"), "vote", id.String(), "up")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrAuthRequired)
	assert.Contains(t, err.Error(), "decisionctl login")
}

func TestBreakdownCommand_ShowsZerosOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error","code":"internal"}`))
	}))
	defer srv.Close()

	out, errOut, err := run(t, srv.URL, "", "breakdown", uuid.NewString())
	require.NoError(t, err)
	assert.Contains(t, errOut, "breakdown unavailable")
	assert.Contains(t, out, "male")
	assert.Contains(t, out, "0")
}

func TestFeedCommand(t *testing.T) {
	cat := "Career"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Career", r.URL.Query().Get("category"))
		json.NewEncoder(w).Encode(models.DecisionPage{
			Decisions: []models.DecisionView{{ID: uuid.New(), Title: "Switch teams?", Category: &cat, CommentCount: 2}},
			Page:      1,
			HasMore:   true,
		})
	}))
	defer srv.Close()

	out, _, err := run(t, srv.URL, "", "feed", "--category", "Career")
	require.NoError(t, err)
	assert.Contains(t, out, "Switch teams?")
	assert.Contains(t, out, "--page 2")
}
