package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aisha-chat/aisha-go/internal/chat"
	"github.com/aisha-chat/aisha-go/internal/imaging"
	"github.com/aisha-chat/aisha-go/internal/memory"
)

// Fixed user-facing strings. Internal error detail goes to the log,
// never into a response body.
const (
	msgEmptyMessage    = "Khaali message mat bhej yaar 😄"
	msgUnsupportedType = "Only JPEG, PNG and GIF images are supported"
	msgTooLarge        = "Image too large, max 5 MB"
	msgServerTrouble   = "Kuch gadbad ho gayi, thodi der mein try karo 🙏"
)

type chatRequest struct {
	Message  string `json:"message"`
	Persona  string `json:"persona"`
	Language string `json:"language"`
	Reset    bool   `json:"reset"`
}

type chatResponse struct {
	Reply       string `json:"reply"`
	Persona     string `json:"persona"`
	DisplayName string `json:"display_name"`
	Degraded    bool   `json:"degraded,omitempty"`
	ImagePath   string `json:"image_path,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "detail": "aisha backend alive"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"personas": s.registry.List()})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := s.engine.Respond(r.Context(), chat.Request{
		Message:   req.Message,
		PersonaID: req.Persona,
		Language:  req.Language,
		Reset:     req.Reset,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:       reply.Text,
		Persona:     reply.PersonaID,
		DisplayName: reply.DisplayName,
		Degraded:    reply.Degraded,
	})
}

func (s *Server) handleChatImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.UploadMaxBytes)

	if err := r.ParseMultipartForm(s.cfg.UploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	if mime := header.Header.Get("Content-Type"); !imaging.AllowedType(mime) {
		writeError(w, http.StatusBadRequest, msgUnsupportedType)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read image")
		return
	}

	message := r.FormValue("message")

	// A corrupt image degrades the request to text-only rather than
	// failing it.
	img, err := imaging.Normalize(data)
	if err != nil {
		s.logger.Warn("image normalization failed, degrading to text", "error", err)
		img = nil
		if strings.TrimSpace(message) == "" {
			message = "I sent you an image but it could not be read."
		}
	}

	var imagePath string
	if img != nil && s.uploads != nil {
		if imagePath, err = s.uploads.Save(img); err != nil {
			// The chat can proceed without the stored copy.
			s.logger.Warn("upload save failed", "error", err)
		}
	}

	reply, err := s.engine.Respond(r.Context(), chat.Request{
		Message:   message,
		PersonaID: r.FormValue("persona"),
		Language:  r.FormValue("language"),
		Image:     img,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:       reply.Text,
		Persona:     reply.PersonaID,
		DisplayName: reply.DisplayName,
		Degraded:    reply.Degraded,
		ImagePath:   imagePath,
	})
}

type memoryResponse struct {
	Persona string         `json:"persona"`
	Memory  *memory.Record `json:"memory"`
}

func (s *Server) handleMemoryGet(w http.ResponseWriter, r *http.Request) {
	id := s.resolvePersonaID(r.URL.Query().Get("persona"))

	rec, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.logger.Error("memory load failed", "persona", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgServerTrouble)
		return
	}
	writeJSON(w, http.StatusOK, memoryResponse{Persona: id, Memory: rec})
}

type memoryUpdateRequest struct {
	Persona   string            `json:"persona"`
	Name      *string           `json:"name,omitempty"`
	Interests []string          `json:"interests,omitempty"`
	Notes     map[string]string `json:"notes,omitempty"`
}

func (s *Server) handleMemoryUpdate(w http.ResponseWriter, r *http.Request) {
	var req memoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := s.resolvePersonaID(req.Persona)
	rec, err := s.store.UpdateProfile(r.Context(), id, memory.ProfilePatch{
		Name:      req.Name,
		Interests: req.Interests,
		Notes:     req.Notes,
	})
	if err != nil {
		s.logger.Error("memory update failed", "persona", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgServerTrouble)
		return
	}
	writeJSON(w, http.StatusOK, memoryResponse{Persona: id, Memory: rec})
}

// writeEngineError maps pipeline errors to status codes and fixed
// user-facing strings.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, msgEmptyMessage)
	default:
		s.logger.Error("chat request failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgServerTrouble)
	}
}

// resolvePersonaID maps blank or unknown ids to the default persona,
// mirroring the engine's lenient resolution so the memory endpoints
// and the chat path always key the same record.
func (s *Server) resolvePersonaID(id string) string {
	return s.registry.Resolve(strings.TrimSpace(id)).ID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
