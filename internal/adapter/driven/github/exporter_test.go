package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/exporthub/internal/adapter/driven/github"
	"github.com/ericfisherdev/exporthub/internal/domain/model"
)

// newTestAdapter creates an Adapter backed by the given httptest handler,
// served under the Enterprise Server API prefix.
func newTestAdapter(t *testing.T, handler http.Handler) *ghAdapter.Adapter {
	t.Helper()

	server := httptest.NewServer(http.StripPrefix("/api/v3", handler))
	t.Cleanup(server.Close)

	adapter, err := ghAdapter.NewAdapterWithHTTPClient(server.Client(), server.URL, nil)
	require.NoError(t, err)
	return adapter
}

func githubConfig(token string) model.IntegrationConfig {
	return model.IntegrationConfig{
		Type:        model.IntegrationGitHub,
		Name:        "GitHub",
		IsEnabled:   true,
		Credentials: map[string]string{model.CredentialAPIToken: token},
	}
}

type repoJSON struct {
	Name      string   `json:"name"`
	FullName  string   `json:"full_name"`
	Owner     userJSON `json:"owner"`
	Archived  bool     `json:"archived"`
	HasIssues bool     `json:"has_issues"`
}

type userJSON struct {
	Login string `json:"login"`
}

func TestGetTargets_SinglePage(t *testing.T) {
	repos := []repoJSON{
		{Name: "api", FullName: "acme/api", Owner: userJSON{Login: "acme"}, HasIssues: true},
		{Name: "old", FullName: "acme/old", Owner: userJSON{Login: "acme"}, HasIssues: true, Archived: true},
		{Name: "wiki", FullName: "alice/wiki", Owner: userJSON{Login: "alice"}, HasIssues: false},
		{Name: "dotfiles", FullName: "alice/dotfiles", Owner: userJSON{Login: "alice"}, HasIssues: true},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(repos)
	})

	adapter := newTestAdapter(t, handler)
	targets, err := adapter.GetTargets(context.Background(), githubConfig("test-token"))

	require.NoError(t, err)
	assert.Equal(t, []model.ExportTarget{
		{ID: "acme/api", Name: "api", Group: "acme"},
		{ID: "alice/dotfiles", Name: "dotfiles", Group: "alice"},
	}, targets)
}

func TestNewAdapterWithHTTPClient_EnterpriseAPIPath(t *testing.T) {
	for _, suffix := range []string{"", "/", "/api/v3", "/api/v3/"} {
		t.Run("base"+suffix, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`[]`))
			}))
			t.Cleanup(server.Close)

			adapter, err := ghAdapter.NewAdapterWithHTTPClient(server.Client(), server.URL+suffix, nil)
			require.NoError(t, err)

			_, err = adapter.GetTargets(context.Background(), githubConfig("test-token"))

			require.NoError(t, err)
			assert.Equal(t, "/api/v3/user/repos", gotPath)
		})
	}
}

func TestGetTargets_Pagination(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_ = json.NewEncoder(w).Encode([]repoJSON{
				{Name: "two", FullName: "acme/two", Owner: userJSON{Login: "acme"}, HasIssues: true},
			})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/user/repos?page=2>; rel="next"`, r.Host))
		_ = json.NewEncoder(w).Encode([]repoJSON{
			{Name: "one", FullName: "acme/one", Owner: userJSON{Login: "acme"}, HasIssues: true},
		})
	})

	adapter := newTestAdapter(t, handler)
	targets, err := adapter.GetTargets(context.Background(), githubConfig("test-token"))

	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "acme/one", targets[0].ID)
	assert.Equal(t, "acme/two", targets[1].ID)
}

func TestGetTargets_LaterPageFailureKeepsCollected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/user/repos?page=2>; rel="next"`, r.Host))
		_ = json.NewEncoder(w).Encode([]repoJSON{
			{Name: "one", FullName: "acme/one", Owner: userJSON{Login: "acme"}, HasIssues: true},
		})
	})

	adapter := newTestAdapter(t, handler)
	targets, err := adapter.GetTargets(context.Background(), githubConfig("test-token"))

	require.NoError(t, err)
	assert.Equal(t, []model.ExportTarget{{ID: "acme/one", Name: "one", Group: "acme"}}, targets)
}

func TestGetTargets_FirstPageFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	})

	adapter := newTestAdapter(t, handler)
	targets, err := adapter.GetTargets(context.Background(), githubConfig("bad"))

	assert.Nil(t, targets)
	var reqErr *model.ProviderRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, model.IntegrationGitHub, reqErr.Provider)
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "Bad credentials")
}

func TestGetTargets_MissingToken(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})

	adapter := newTestAdapter(t, handler)
	_, err := adapter.GetTargets(context.Background(), githubConfig(""))

	var missingErr *model.MissingCredentialsError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, []string{model.CredentialAPIToken}, missingErr.Keys)
	assert.Equal(t, int32(0), calls.Load(), "no HTTP call should be made without a token")
}

func TestCreateTask_Success(t *testing.T) {
	var got map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/api/issues", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":7,"html_url":"https://github.com/acme/api/issues/7"}`))
	})

	adapter := newTestAdapter(t, handler)
	ref, err := adapter.CreateTask(
		context.Background(),
		githubConfig("test-token"),
		model.ExportItem{Title: "Write docs", Content: "for the export API"},
		"acme/api",
	)

	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/api/issues/7", ref)
	assert.Equal(t, "Write docs", got["title"])
	assert.Equal(t, "for the export API", got["body"])
}

func TestCreateTask_ProviderError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte(`{"message":"Issues are disabled for this repo"}`))
	})

	adapter := newTestAdapter(t, handler)
	_, err := adapter.CreateTask(context.Background(), githubConfig("test-token"), model.ExportItem{Title: "x"}, "acme/api")

	var reqErr *model.ProviderRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusGone, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "Issues are disabled")
}

func TestCreateTask_InvalidTarget(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	adapter := newTestAdapter(t, handler)
	_, err := adapter.CreateTask(context.Background(), githubConfig("test-token"), model.ExportItem{Title: "x"}, "not-a-repo")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected owner/repo")
	assert.Equal(t, int32(0), calls.Load())
}
