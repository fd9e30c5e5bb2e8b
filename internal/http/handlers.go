package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/contacts"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/pipeline"
)

// maxBodyBytes bounds request bodies; dictated messages are short.
const maxBodyBytes = 64 << 10

func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

type messageRequest struct {
	Text       string `json:"text"`
	Recipient  string `json:"recipient,omitempty"`
	FixGrammar *bool  `json:"fix_grammar,omitempty"` // default true
}

func (m messageRequest) fixGrammar() bool {
	return m.FixGrammar == nil || *m.FixGrammar
}

type previewResponse struct {
	Original          string  `json:"original"`
	Corrected         string  `json:"corrected"`
	Recipient         *string `json:"recipient"`
	RecipientHandle   *string `json:"recipient_handle"`
	Confidence        float64 `json:"confidence"`
	CorrectionWarning string  `json:"correction_warning,omitempty"`
}

type sendResponse struct {
	previewResponse
	Sent      bool `json:"sent"`
	MessageID int  `json:"message_id,omitempty"`
}

func previewFrom(p pipeline.Preview) previewResponse {
	resp := previewResponse{
		Original:   p.Original,
		Corrected:  p.Corrected,
		Confidence: p.Result.Confidence,
	}
	if p.Target != nil {
		resp.Recipient = &p.Target.Name
		resp.RecipientHandle = &p.Target.Handle
	}
	if p.Result.Err != "" {
		resp.CorrectionWarning = p.Result.Err
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	connected := s.deliverer != nil && s.deliverer.Connected()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"telegram_connected": connected,
		"grammar_ai":         s.pipeline.CorrectionProvider(),
		"contacts":           s.directory.Len(),
	})
}

// handleConfig exposes the effective config with secrets masked.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.MaskedCopy())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	preview := s.pipeline.Compose(r.Context(), req.Text, req.Recipient, req.fixGrammar())
	writeJSON(w, http.StatusOK, previewFrom(preview))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	preview, outcome, err := s.pipeline.Send(r.Context(), req.Text, req.Recipient, req.fixGrammar())
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, pipeline.ErrRecipientNotFound):
			status = http.StatusNotFound
		case errors.Is(err, pipeline.ErrNotConnected):
			status = http.StatusServiceUnavailable
		}
		resp := sendResponse{previewResponse: previewFrom(preview)}
		writeJSONError(w, status, err.Error(), resp)
		return
	}

	resp := sendResponse{
		previewResponse: previewFrom(preview),
		Sent:            true,
		MessageID:       outcome.MessageID,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"contacts": s.directory.List()})
}

type createContactRequest struct {
	Name    string   `json:"name"`
	Handle  string   `json:"handle"`
	Role    string   `json:"role,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req createContactRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" || req.Handle == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and handle are required"})
		return
	}

	id, err := s.directory.Create(req.Name, req.Handle, req.Role, req.Aliases, req.Notes)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, contacts.ErrDuplicateContact) {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.directory.Delete(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, contacts.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "history is disabled"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": entries})
}

// writeJSONError merges an error string into an existing response payload.
func writeJSONError(w http.ResponseWriter, status int, msg string, resp sendResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	out := map[string]interface{}{
		"error":     msg,
		"original":  resp.Original,
		"corrected": resp.Corrected,
		"sent":      false,
	}
	if resp.Recipient != nil {
		out["recipient"] = *resp.Recipient
	}
	json.NewEncoder(w).Encode(out)
}
