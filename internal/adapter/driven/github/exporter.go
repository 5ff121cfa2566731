// Package github implements the ExportAdapter port using the go-github library.
// Repositories are targets and issues are the exported items.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
	"github.com/ericfisherdev/exporthub/internal/domain/port/driven"
)

const maxErrorBody = 1 << 20

// Compile-time interface satisfaction check.
var _ driven.ExportAdapter = (*Adapter)(nil)

// Adapter implements driven.ExportAdapter for GitHub issues. A go-github
// client is built per call from the config's personal access token, so one
// Adapter serves any number of stored configs.
type Adapter struct {
	httpClient *http.Client
	baseURL    *url.URL // nil means api.github.com
	logger     *slog.Logger
}

// NewAdapter creates an Adapter talking to api.github.com.
func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{httpClient: &http.Client{}, logger: logger}
}

// NewAdapterWithHTTPClient creates an Adapter with a custom http.Client and base URL.
// Used by tests (httptest servers) and GitHub Enterprise Server deployments.
// baseURL may be the server root; go-github appends /api/v3/ unless the URL
// already ends with it or names an api.* host.
func NewAdapterWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) (*Adapter, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	c, err := gh.NewClient(httpClient).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	return &Adapter{httpClient: httpClient, baseURL: c.BaseURL, logger: logger}, nil
}

// client returns a go-github client authenticated with the config's token.
func (a *Adapter) client(cfg model.IntegrationConfig) (*gh.Client, error) {
	if missing := cfg.MissingCredentials(model.CredentialAPIToken); len(missing) > 0 {
		return nil, &model.MissingCredentialsError{Provider: model.IntegrationGitHub, Keys: missing}
	}

	c := gh.NewClient(a.httpClient).WithAuthToken(cfg.Credential(model.CredentialAPIToken))
	if a.baseURL != nil {
		u := *a.baseURL
		c.BaseURL = &u
	}
	return c, nil
}

// GetTargets lists repositories the token can open issues in, grouped by owner.
// Archived repositories and those with issues disabled are skipped.
//
// A failure on the first page fails the discovery. A failure on a later page
// is logged and the targets collected so far are returned.
func (a *Adapter) GetTargets(ctx context.Context, cfg model.IntegrationConfig) ([]model.ExportTarget, error) {
	c, err := a.client(cfg)
	if err != nil {
		return nil, err
	}

	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Affiliation: "owner,collaborator,organization_member",
		Sort:        "full_name",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	targets := []model.ExportTarget{}

	for {
		repos, resp, err := c.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			if opts.Page == 0 {
				return nil, mapError("list repositories", resp, err)
			}
			a.logger.Warn("github: stopping repository discovery, page fetch failed",
				"page", opts.Page,
				"collected", len(targets),
				"error", err,
			)
			break
		}

		a.logRateLimit(resp, "user/repos", opts.Page, len(repos))

		for _, r := range repos {
			if r.GetArchived() || !r.GetHasIssues() {
				continue
			}
			targets = append(targets, model.ExportTarget{
				ID:    r.GetFullName(),
				Name:  r.GetName(),
				Group: r.GetOwner().GetLogin(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return targets, nil
}

// CreateTask opens an issue in targetID ("owner/repo") and returns its HTML URL.
func (a *Adapter) CreateTask(ctx context.Context, cfg model.IntegrationConfig, item model.ExportItem, targetID string) (string, error) {
	c, err := a.client(cfg)
	if err != nil {
		return "", err
	}

	owner, repo, err := splitRepo(targetID)
	if err != nil {
		return "", err
	}

	req := &gh.IssueRequest{Title: gh.Ptr(item.Title)}
	if item.Content != "" {
		req.Body = gh.Ptr(item.Content)
	}

	issue, resp, err := c.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return "", mapError("create issue", resp, err)
	}

	a.logRateLimit(resp, targetID+"/issues", 0, 1)
	a.logger.Info("github: issue created", "repo", targetID, "number", issue.GetNumber())

	return issue.GetHTMLURL(), nil
}

// mapError converts a non-2xx go-github failure into *model.ProviderRequestError.
// go-github re-populates the response body after parsing it, so the raw text
// is still readable here. Transport failures are wrapped as-is.
func mapError(op string, resp *gh.Response, err error) error {
	if resp == nil || resp.Response == nil || (resp.StatusCode >= 200 && resp.StatusCode <= 299) {
		return fmt.Errorf("github %s: %w", op, err)
	}

	var body string
	if resp.Body != nil {
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); readErr == nil {
			body = string(data)
		}
	}
	if body == "" {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) {
			body = ghErr.Message
		}
	}

	return &model.ProviderRequestError{
		Provider:   model.IntegrationGitHub,
		Operation:  op,
		StatusCode: resp.StatusCode,
		Body:       body,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func (a *Adapter) logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	a.logger.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		a.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
