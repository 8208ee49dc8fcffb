package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"pulse/internal/history"
	"pulse/internal/models"
	"pulse/internal/roster"
)

type mockLister struct {
	messages []models.Message
	err      error

	gotRoom  models.RoomID
	gotLimit int
}

func (m *mockLister) ListMessages(_ context.Context, room models.RoomID, limit int) ([]models.Message, error) {
	m.gotRoom = room
	m.gotLimit = limit
	return m.messages, m.err
}

func newTestAPI(lister *mockLister) (*API, *history.Log) {
	hist := history.NewLog(10)
	return New(slog.New(slog.DiscardHandler), hist, lister, roster.New()), hist
}

func serve(a *API, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms/{kind}/{id}/messages", a.MessagesHandler)
	mux.HandleFunc("GET /healthz", a.HealthzHandler)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeMessages(t *testing.T, rec *httptest.ResponseRecorder) []models.Message {
	t.Helper()
	var out []models.Message
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestMessagesFromRing(t *testing.T) {
	lister := &mockLister{}
	a, hist := newTestAPI(lister)

	room := models.ServerRoom("s1")
	hist.Append(models.Message{ID: 1, Room: room, Content: "one"})
	hist.Append(models.Message{ID: 2, Room: room, Content: "two"})

	rec := serve(a, "/api/rooms/server/s1/messages")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeMessages(t, rec)
	if len(got) != 2 || got[0].Content != "one" || got[1].Content != "two" {
		t.Fatalf("messages = %+v", got)
	}
	if lister.gotLimit != 0 {
		t.Fatal("storage consulted although the ring had messages")
	}
}

func TestMessagesStorageFallback(t *testing.T) {
	lister := &mockLister{messages: []models.Message{{ID: 5, Content: "archived"}}}
	a, _ := newTestAPI(lister)

	rec := serve(a, "/api/rooms/conversation/c1/messages?limit=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeMessages(t, rec)
	if len(got) != 1 || got[0].Content != "archived" {
		t.Fatalf("messages = %+v", got)
	}
	if lister.gotRoom != models.ConversationRoom("c1") || lister.gotLimit != 7 {
		t.Fatalf("storage query = %v limit %d", lister.gotRoom, lister.gotLimit)
	}
}

func TestMessagesBadRequest(t *testing.T) {
	a, _ := newTestAPI(&mockLister{})

	if rec := serve(a, "/api/rooms/bogus/s1/messages"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad kind status = %d", rec.Code)
	}
	if rec := serve(a, "/api/rooms/server/s1/messages?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}
	if rec := serve(a, "/api/rooms/server/s1/messages?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit status = %d", rec.Code)
	}
}

func TestMessagesStorageError(t *testing.T) {
	a, _ := newTestAPI(&mockLister{err: errors.New("boom")})

	rec := serve(a, "/api/rooms/server/s1/messages")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	a, _ := newTestAPI(&mockLister{})

	rec := serve(a, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}
