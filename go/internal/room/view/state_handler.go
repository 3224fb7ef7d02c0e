package view

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/salapix/go/internal/pref"
)

const handlerTimeout = 10 * time.Second

// StateHandler serves the mounted room's state over HTTP.
type StateHandler struct {
	view *View
}

// NewStateHandler creates a new state handler
func NewStateHandler(view *View) *StateHandler {
	return &StateHandler{view: view}
}

// RegisterRoutes registers the room endpoints on mux.
func (h *StateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/room/state", h.HandleGetState)
	mux.HandleFunc("/api/room/mute", h.HandleMute)
	mux.HandleFunc("/api/room/messages", h.HandleSendMessage)
}

// HandleGetState handles GET /api/room/state. A chat-muted cookie on the
// request takes precedence over the stored preference.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if muted, ok := pref.ReadCookie(r); ok && muted != h.view.Muted() {
		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()
		if err := h.view.SetMuted(ctx, muted); err != nil {
			log.Warn().Err(err).Msg("failed to apply mute cookie")
		}
	}

	writeJSON(w, http.StatusOK, h.view.State())
}

type muteRequest struct {
	Muted *bool `json:"muted"`
}

// HandleMute handles POST /api/room/mute. With a {"muted": bool} body the flag
// is set; with an empty body it is toggled.
func (h *StateHandler) HandleMute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req muteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var (
		muted bool
		err   error
	)
	if req.Muted != nil {
		muted = *req.Muted
		err = h.view.SetMuted(ctx, muted)
	} else {
		muted, err = h.view.ToggleMute(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to update mute preference")
		http.Error(w, "Failed to update mute preference", http.StatusInternalServerError)
		return
	}

	pref.WriteCookie(w, muted)
	writeJSON(w, http.StatusOK, map[string]bool{"muted": muted})
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

// HandleSendMessage handles POST /api/room/messages.
func (h *StateHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	msg, err := h.view.SendMessage(ctx, req.Body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, msg)
	case errors.Is(err, ErrEmptyMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrLoginRequired):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrNotParticipant):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNotMounted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error().Err(err).Str("room_id", h.view.RoomID()).Msg("failed to send chat message")
		http.Error(w, "Failed to send message", http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
