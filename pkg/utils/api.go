package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
)

type API struct {
	client  *http.Client
	baseURL string
}

func NewAPI(baseURL string) *API {
	return &API{client: http.DefaultClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// WithClient replaces the HTTP client used for requests.
func (a *API) WithClient(client *http.Client) *API {
	a.client = client
	return a
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

func (a *API) Get(ctx context.Context, path string, params url.Values, v any) error {
	if params != nil {
		path += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s", a.baseURL, path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return a.do(req, v)
}

func (a *API) Post(ctx context.Context, path string, body any, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", a.baseURL, path), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, v)
}

func (a *API) do(req *http.Request, v any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var reply data.SaveResponse
		_ = json.Unmarshal(body, &reply)
		return &StatusError{Code: resp.StatusCode, Message: reply.Message}
	}

	if v == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// Ping checks the ingest listener health probe.
func (a *API) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// SavePage posts one page to the ingest listener.
func (a *API) SavePage(ctx context.Context, payload data.PagePayload) error {
	var reply data.SaveResponse
	if err := a.Post(ctx, "/save_page", payload, &reply); err != nil {
		return err
	}
	if reply.Status != "success" {
		return fmt.Errorf("save rejected: %s", reply.Message)
	}
	return nil
}
