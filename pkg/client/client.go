// Package client is a typed Go client for the notes API.
//
// A Client covers every endpoint: note CRUD, registration, login and the
// bearer-protected identity endpoint.
//
//	c := client.NewClient("http://localhost:8080", client.WithAPIKey("api_key", key))
//
//	note, err := c.CreateNote(ctx, client.NoteRequest{Title: "Groceries"})
//	page, err := c.ListNotes(ctx, "user1", 1, 10)
//
//	if _, err := c.Login(ctx, "alice", "s3cret"); err != nil {
//		return err
//	}
//	me, err := c.Me(ctx)
//
// Login stores the returned token; later calls to bearer routes send it via
// an oauth2 transport. Responses with status >= 400 come back as *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/notes-api/internal/model"
)

// Client provides typed access to the notes REST API. Configure it before
// sharing it between goroutines; Login and SetToken must not race with
// other calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authClient *http.Client // nil until a token is set

	apiKeyName string
	apiKey     string
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 30 second timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sets the query parameter sent to API-key routes.
func WithAPIKey(name, key string) Option {
	return func(c *Client) {
		c.apiKeyName = name
		c.apiKey = key
	}
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8080", without a trailing slash.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKeyName: "api_key",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken makes bearer routes send tok. A nil token clears it.
func (c *Client) SetToken(tok *oauth2.Token) {
	if tok == nil {
		c.authClient = nil
		return
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	c.authClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	c.authClient.Timeout = c.httpClient.Timeout
}

// APIError is a response with status >= 400.
type APIError struct {
	StatusCode int
	Type       string // e.g. "not_found"; empty when the body was not JSON
	Message    string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("API error: status=%d, body=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: status=%d, %s: %s", e.StatusCode, e.Type, e.Message)
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	bearer      bool
}

// do sends req and decodes the JSON reply into target.
func (c *Client) do(ctx context.Context, req request, target any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	hc := c.httpClient
	if req.bearer && c.authClient != nil {
		hc = c.authClient
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	return decodeResponse(resp, target)
}

func jsonBody(v any) (io.Reader, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(buf), nil
}

func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		var parsed struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			apiErr.Type, apiErr.Message = parsed.Error, parsed.Message
		}
		return apiErr
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Hello calls the root endpoint and returns its message.
func (c *Client) Hello(ctx context.Context) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/"}, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

func noteIDPath(id int64) string {
	return "/notes/" + strconv.FormatInt(id, 10)
}

// Note management

// NoteRequest is the body of CreateNote. Empty fields are omitted and take
// the server defaults.
type NoteRequest struct {
	Title    string `json:"title,omitempty"`
	Body     string `json:"body,omitempty"`
	URL      string `json:"url,omitempty"`
	Category string `json:"category,omitempty"`
	Username string `json:"username,omitempty"`
}

// CreateNote stores a note from structured fields.
func (c *Client) CreateNote(ctx context.Context, note NoteRequest) (*model.Note, error) {
	body, err := jsonBody(note)
	if err != nil {
		return nil, err
	}

	var result model.Note
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/notes/",
		body:        body,
		contentType: "application/json",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateRawNote stores text as the body of a note titled with the server's
// current date.
func (c *Client) CreateRawNote(ctx context.Context, text string) (*model.Note, error) {
	var result model.Note
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/notes/",
		body:        bytes.NewBufferString(text),
		contentType: "text/plain; charset=utf-8",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListNotes fetches one page of username's notes, newest first.
func (c *Client) ListNotes(ctx context.Context, username string, page, pageSize int) (*model.NotePage, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var result model.NotePage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/notes/", query: q}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetNote fetches one note. It sends the key set with WithAPIKey.
func (c *Client) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	q := url.Values{}
	q.Set(c.apiKeyName, c.apiKey)

	var result model.Note
	if err := c.do(ctx, request{method: http.MethodGet, path: noteIDPath(id), query: q}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateNote changes the non-nil fields of patch.
func (c *Client) UpdateNote(ctx context.Context, id int64, patch model.NotePatch) (*model.Note, error) {
	body, err := jsonBody(patch)
	if err != nil {
		return nil, err
	}

	var result model.Note
	err = c.do(ctx, request{
		method:      http.MethodPut,
		path:        noteIDPath(id),
		body:        body,
		contentType: "application/json",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteNote removes a note and returns what it held.
func (c *Client) DeleteNote(ctx context.Context, id int64) (*model.Note, error) {
	var result model.Note
	if err := c.do(ctx, request{method: http.MethodDelete, path: noteIDPath(id)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
