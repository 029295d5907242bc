// Package client provides a REST client for the Aisha server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Client talks to the Aisha HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
// If baseURL is empty, uses the AISHA_SERVER_URL env var or defaults to
// localhost:8087. Timeout can be configured via AISHA_CLIENT_TIMEOUT.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("AISHA_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8087"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("AISHA_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiError is the error payload the server sends for non-2xx responses.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error: %s", apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(body))
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, result any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, result)
}

// ChatReply is the server's answer to a chat request.
type ChatReply struct {
	Reply       string `json:"reply"`
	Persona     string `json:"persona"`
	DisplayName string `json:"display_name"`
	Degraded    bool   `json:"degraded,omitempty"`
	ImagePath   string `json:"image_path,omitempty"`
}

// ChatOptions configures a chat request.
type ChatOptions struct {
	Persona  string
	Language string
	Reset    bool
}

// Chat sends a text message and returns the persona's reply.
func (c *Client) Chat(ctx context.Context, message string, opts ChatOptions) (*ChatReply, error) {
	payload := map[string]any{
		"message":  message,
		"persona":  opts.Persona,
		"language": opts.Language,
		"reset":    opts.Reset,
	}

	var reply ChatReply
	if err := c.postJSON(ctx, "/chat", payload, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ChatImage sends an image with an optional caption and returns the reply.
func (c *Client) ChatImage(ctx context.Context, imagePath, message string, opts ChatOptions) (*ChatReply, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	mime := mimeForExt(filepath.Ext(imagePath))
	if mime == "" {
		return nil, fmt.Errorf("unsupported image type: %s", imagePath)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(imagePath)))
	header.Set("Content-Type", mime)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}

	fields := map[string]string{
		"message":  message,
		"persona":  opts.Persona,
		"language": opts.Language,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/image", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var reply ChatReply
	if err := c.do(req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func mimeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	}
	return ""
}

// Profile mirrors the server's stored user profile.
type Profile struct {
	Name      *string           `json:"name"`
	Interests []string          `json:"interests"`
	Notes     map[string]string `json:"notes"`
}

// Turn is one stored conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"msg"`
}

// Memory is the per-persona memory record as the server reports it.
type Memory struct {
	User          Profile `json:"user"`
	Conversations []Turn  `json:"conversations"`
}

type memoryEnvelope struct {
	Persona string `json:"persona"`
	Memory  Memory `json:"memory"`
}

// GetMemory fetches the memory record for a persona.
func (c *Client) GetMemory(ctx context.Context, personaID string) (*Memory, error) {
	query := url.Values{}
	if personaID != "" {
		query.Set("persona", personaID)
	}

	var env memoryEnvelope
	if err := c.getJSON(ctx, "/memory", query, &env); err != nil {
		return nil, err
	}
	return &env.Memory, nil
}

// ProfileUpdate is the input for UpdateMemory. Nil fields are left
// untouched on the server.
type ProfileUpdate struct {
	Name      *string           `json:"name,omitempty"`
	Interests []string          `json:"interests,omitempty"`
	Notes     map[string]string `json:"notes,omitempty"`
}

// UpdateMemory patches the stored user profile for a persona.
func (c *Client) UpdateMemory(ctx context.Context, personaID string, update ProfileUpdate) (*Memory, error) {
	payload := map[string]any{"persona": personaID}
	if update.Name != nil {
		payload["name"] = *update.Name
	}
	if len(update.Interests) > 0 {
		payload["interests"] = update.Interests
	}
	if len(update.Notes) > 0 {
		payload["notes"] = update.Notes
	}

	var env memoryEnvelope
	if err := c.postJSON(ctx, "/memory/update", payload, &env); err != nil {
		return nil, err
	}
	return &env.Memory, nil
}

// ListPersonas returns id -> display name for the server's personas.
func (c *Client) ListPersonas(ctx context.Context) (map[string]string, error) {
	var resp struct {
		Personas map[string]string `json:"personas"`
	}
	if err := c.getJSON(ctx, "/modes/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Personas, nil
}

// Health checks whether the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil, nil)
}

// Stats returns the server's runtime statistics as raw JSON.
func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/stats", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
