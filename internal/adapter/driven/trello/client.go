// Package trello implements the ExportAdapter port against the Trello REST API.
package trello

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
	"github.com/ericfisherdev/exporthub/internal/domain/port/driven"
)

// DefaultBaseURL is the production Trello API root.
const DefaultBaseURL = "https://api.trello.com"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 1 << 20

// Compile-time interface satisfaction check.
var _ driven.ExportAdapter = (*Adapter)(nil)

// Adapter implements driven.ExportAdapter for Trello. Boards map to target
// groups and lists map to targets; cards are the exported items.
// Authentication is the key/token query-parameter pair on every call.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewAdapter creates an Adapter talking to the production Trello API.
// The client carries no timeout; callers bound requests through the context.
func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		logger:     logger,
	}
}

// NewAdapterWithHTTPClient creates an Adapter with a custom http.Client and base URL.
// Used by tests (httptest servers) and by deployments that proxy the Trello API.
func NewAdapterWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) (*Adapter, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(u.String(), "/"),
		logger:     logger,
	}, nil
}

// board is the subset of a Trello board the adapter reads.
type board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// list is the subset of a Trello list the adapter reads.
type list struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IDBoard string `json:"idBoard"`
}

// card is the subset of a created Trello card the adapter reads.
type card struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// auth holds the key/token pair appended to every request.
type auth struct {
	key   string
	token string
}

func credentials(cfg model.IntegrationConfig) (auth, error) {
	if missing := cfg.MissingCredentials(model.CredentialAPIKey, model.CredentialAPIToken); len(missing) > 0 {
		return auth{}, &model.MissingCredentialsError{Provider: model.IntegrationTrello, Keys: missing}
	}
	return auth{
		key:   cfg.Credential(model.CredentialAPIKey),
		token: cfg.Credential(model.CredentialAPIToken),
	}, nil
}

// GetTargets lists the user's boards, then fetches every board's lists
// concurrently and flattens them into targets grouped by board name.
//
// A failed boards request fails the discovery. A failed lists request for one
// board is logged and that board contributes no targets. Order follows the
// boards response, but callers must not rely on it.
func (a *Adapter) GetTargets(ctx context.Context, cfg model.IntegrationConfig) ([]model.ExportTarget, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	var boards []board
	query := url.Values{"fields": {"name,id"}}
	if err := a.getJSON(ctx, "list boards", "/1/members/me/boards", query, creds, &boards); err != nil {
		return nil, err
	}

	// One slot per board; each goroutine writes only its own slot.
	perBoard := make([][]model.ExportTarget, len(boards))

	// No derived context: a failing branch must not cancel its siblings.
	var g errgroup.Group
	for i, b := range boards {
		g.Go(func() error {
			lists, err := a.fetchLists(ctx, b.ID, creds)
			if err != nil {
				a.logger.Warn("trello: skipping board, list fetch failed",
					"board_id", b.ID,
					"board", b.Name,
					"error", err,
				)
				return nil
			}

			targets := make([]model.ExportTarget, 0, len(lists))
			for _, l := range lists {
				targets = append(targets, model.ExportTarget{ID: l.ID, Name: l.Name, Group: b.Name})
			}
			perBoard[i] = targets
			return nil
		})
	}
	_ = g.Wait() // branches swallow their own errors

	result := []model.ExportTarget{}
	for _, targets := range perBoard {
		result = append(result, targets...)
	}

	a.logger.Debug("trello: targets discovered", "boards", len(boards), "targets", len(result))

	return result, nil
}

// fetchLists returns the lists of a single board.
func (a *Adapter) fetchLists(ctx context.Context, boardID string, creds auth) ([]list, error) {
	var lists []list
	query := url.Values{"fields": {"name,id,idBoard"}}
	path := "/1/boards/" + url.PathEscape(boardID) + "/lists"
	if err := a.getJSON(ctx, "list board lists", path, query, creds, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// CreateTask creates a card named item.Title with description item.Content in
// the list targetID and returns the card's URL exactly as Trello reports it.
func (a *Adapter) CreateTask(ctx context.Context, cfg model.IntegrationConfig, item model.ExportItem, targetID string) (string, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(targetID) == "" {
		return "", errors.New("trello create card: target list id is required")
	}

	query := url.Values{
		"idList": {targetID},
		"name":   {item.Title},
		"desc":   {item.Content},
	}

	var created card
	if err := a.do(ctx, http.MethodPost, "create card", "/1/cards", query, creds, &created); err != nil {
		return "", err
	}

	a.logger.Info("trello: card created", "list_id", targetID, "card_id", created.ID)

	return created.URL, nil
}

func (a *Adapter) getJSON(ctx context.Context, op, path string, query url.Values, creds auth, out any) error {
	return a.do(ctx, http.MethodGet, op, path, query, creds, out)
}

// do issues a single request with key/token query auth and decodes a 2xx JSON
// body into out. Non-2xx responses become *model.ProviderRequestError carrying
// the response text.
func (a *Adapter) do(ctx context.Context, method, op, path string, query url.Values, creds auth, out any) error {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("key", creds.key)
	q.Set("token", creds.token)

	endpoint := a.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("trello %s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trello %s: %w", op, redact(err, creds))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			a.logger.Warn("trello: reading error body failed", "operation", op, "error", readErr)
		}
		return &model.ProviderRequestError{
			Provider:   model.IntegrationTrello,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("trello %s: decoding response: %w", op, err)
	}

	return nil
}

// redact strips the request URL from transport errors so the key and token
// query parameters never reach logs.
func redact(err error, creds auth) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request failed: %w", urlErr.Op, urlErr.Err)
	}
	msg := err.Error()
	if creds.token != "" && strings.Contains(msg, creds.token) {
		return errors.New(strings.ReplaceAll(msg, creds.token, "REDACTED"))
	}
	return err
}
