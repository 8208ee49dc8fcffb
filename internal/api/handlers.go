package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"pulse/internal/history"
	"pulse/internal/models"
	"pulse/internal/roster"
)

const defaultHistoryLimit = 50

// MessageLister is the storage read side used when the in-memory ring
// has nothing for a room.
type MessageLister interface {
	ListMessages(ctx context.Context, room models.RoomID, limit int) ([]models.Message, error)
}

type API struct {
	log    *slog.Logger
	hist   *history.Log
	store  MessageLister
	roster *roster.Store
}

func New(log *slog.Logger, hist *history.Log, store MessageLister, ro *roster.Store) *API {
	return &API{log: log, hist: hist, store: store, roster: ro}
}

// MessagesHandler serves recent messages for one room, oldest first.
// The ring answers for active rooms; cold rooms fall back to storage.
func (a *API) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	room, err := models.ParseRoomID(r.PathValue("kind") + ":" + r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid room", http.StatusBadRequest)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
	}

	messages := a.hist.Last(room, limit)
	if len(messages) == 0 {
		messages, err = a.store.ListMessages(r.Context(), room, limit)
		if err != nil {
			a.log.Error("message listing failed", "room", room.String(), "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}

	a.writeJSON(w, messages)
}

func (a *API) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		a.log.Error("failed to write health response", "error", err)
	}
}

func (a *API) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, a.roster.Sessions())
}

func (a *API) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, a.roster.RoomCounts())
}

func (a *API) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error("failed to encode response", "error", err)
	}
}
