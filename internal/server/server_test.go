package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/aisha-chat/aisha-go/internal/chat"
	"github.com/aisha-chat/aisha-go/internal/config"
	"github.com/aisha-chat/aisha-go/internal/imaging"
	"github.com/aisha-chat/aisha-go/internal/llm"
	"github.com/aisha-chat/aisha-go/internal/memory"
	"github.com/aisha-chat/aisha-go/internal/metrics"
	"github.com/aisha-chat/aisha-go/internal/persona"
)

// echoModel replies with a fixed string regardless of model id.
type echoModel struct {
	reply string
}

func (e *echoModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: e.reply}},
	}, nil
}

func (e *echoModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return e.reply, nil
}

func newTestServer(t *testing.T) (*Server, memory.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	registry, err := persona.Load("", logger)
	require.NoError(t, err)

	store, err := memory.NewFileStore(t.TempDir(), memory.Options{}, logger)
	require.NoError(t, err)

	uploads, err := imaging.NewUploadStore(t.TempDir(), time.Hour, logger)
	require.NoError(t, err)

	cfg := config.Config{
		PrimaryModel:      "primary",
		FallbackModel:     "fallback",
		CompletionTimeout: 5 * time.Second,
		ContextWindow:     6,
		ReplyMaxRunes:     1200,
		UploadMaxBytes:    5 * 1024 * 1024,
		CORSOrigins:       []string{"http://localhost:5500"},
	}

	collector := metrics.NewCollector()
	engine := chat.NewEngine(registry, store, llm.NewClientWithModel(&echoModel{reply: "namaste! ☕"}), cfg, logger, collector)
	return New(engine, registry, store, uploads, collector, cfg, logger), store
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestChatEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	w := postJSON(t, h, "/chat", map[string]any{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[chatResponse](t, w)
	assert.Equal(t, "namaste! ☕", resp.Reply)
	assert.Equal(t, "default", resp.Persona)
	assert.Equal(t, "Aisha (Default)", resp.DisplayName)

	rec, err := store.Load(context.Background(), "default")
	require.NoError(t, err)
	assert.Len(t, rec.Conversations, 2)
}

func TestChatRejectsBlankMessage(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	w := postJSON(t, h, "/chat", map[string]any{"message": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Khaali")

	// No storage mutation on validation failure.
	rec, err := store.Load(context.Background(), "default")
	require.NoError(t, err)
	assert.Empty(t, rec.Conversations)
}

func TestChatUnknownPersonaFallsBack(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := postJSON(t, h, "/chat", map[string]any{"message": "hi", "persona": "nope"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[chatResponse](t, w)
	assert.Equal(t, "default", resp.Persona)
	assert.Equal(t, "Aisha (Default)", resp.DisplayName)
}

func TestModesList(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/modes/list", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Personas map[string]string `json:"personas"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Aisha (Default)", resp.Personas["default"])
	assert.Contains(t, resp.Personas, "gojo")
}

func TestMemoryGetAndUpdate(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/memory?persona=levi", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[memoryResponse](t, w)
	assert.Equal(t, "levi", got.Persona)
	assert.Empty(t, got.Memory.Conversations)

	w = postJSON(t, h, "/memory/update", map[string]any{
		"persona":   "levi",
		"name":      "Sonu",
		"interests": []string{"cleaning"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	got = decode[memoryResponse](t, w)
	require.NotNil(t, got.Memory.User.Name)
	assert.Equal(t, "Sonu", *got.Memory.User.Name)
	assert.Equal(t, []string{"cleaning"}, got.Memory.User.Interests)
}

func TestMemoryUnknownPersonaResolvesToDefault(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	// A chat under an unknown persona records its turns on the default
	// persona's memory.
	w := postJSON(t, h, "/chat", map[string]any{"message": "hi", "persona": "no-such-persona"})
	require.Equal(t, http.StatusOK, w.Code)

	// The memory view of that conversation keys the same record, rather
	// than minting a fresh one under the raw id.
	req := httptest.NewRequest(http.MethodGet, "/memory?persona=no-such-persona", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[memoryResponse](t, w)
	assert.Equal(t, "default", got.Persona)
	assert.Len(t, got.Memory.Conversations, 2)

	// Profile updates resolve the same way.
	w = postJSON(t, h, "/memory/update", map[string]any{"persona": "no-such-persona", "name": "Sonu"})
	require.Equal(t, http.StatusOK, w.Code)

	got = decode[memoryResponse](t, w)
	assert.Equal(t, "default", got.Persona)
	require.NotNil(t, got.Memory.User.Name)
	assert.Equal(t, "Sonu", *got.Memory.User.Name)
}

func pngUpload(t *testing.T, message, mime string) (*bytes.Buffer, string) {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("message", message))

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="pic.png"`)
	header.Set("Content-Type", mime)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestChatImageEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	body, contentType := pngUpload(t, "what is this?", "image/png")
	req := httptest.NewRequest(http.MethodPost, "/chat/image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[chatResponse](t, w)
	assert.Equal(t, "namaste! ☕", resp.Reply)
	assert.True(t, strings.HasPrefix(resp.ImagePath, "/uploads/"))

	// The stored upload is served back.
	req = httptest.NewRequest(http.MethodGet, resp.ImagePath, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatImageRejectsUnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	body, contentType := pngUpload(t, "hi", "image/webp")
	req := httptest.NewRequest(http.MethodPost, "/chat/image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "supported")
}

func TestChatImageRejectsOversizedUpload(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cfg.UploadMaxBytes = 64
	h := srv.Handler()

	body, contentType := pngUpload(t, "hi", "image/png")
	req := httptest.NewRequest(http.MethodPost, "/chat/image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestChatImageCorruptPayloadDegradesToText(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="pic.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("not an image at all"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/chat/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[chatResponse](t, w)
	assert.NotEmpty(t, resp.Reply)
	assert.Empty(t, resp.ImagePath)
}

func TestHealthAndStats(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "uptime_seconds")
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5500")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5500", w.Header().Get("Access-Control-Allow-Origin"))

	// Unknown origins get no CORS headers.
	req = httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
