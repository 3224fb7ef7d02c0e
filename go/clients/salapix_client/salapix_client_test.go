package salapix_client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/salapix/go/clients"
	"github.com/mcdev12/salapix/go/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*SalapixClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSalapixClient(srv.URL+"/api", "tok-123", "5"), srv
}

func TestGetRoom(t *testing.T) {
	tests := []struct {
		name              string
		body              string
		wantParticipating bool
		wantCount         int
		wantStatus        models.RoomStatus
	}{
		{
			name: "plain body",
			body: `{"id":12,"nome":"Sala 12","valor_entrada":"2.00","quantidade_jogadores":100,"lucro_porcentagem":80,"rodada":3,
				"participantes":[{"user":{"id":1,"name":"Ana"},"created_at":"2025-03-01 10:00:00"}],
				"participantes_count":1,"participando_count":0}`,
			wantCount:  1,
			wantStatus: models.RoomStatusOpen,
		},
		{
			name: "wrapped in data, local user listed",
			body: `{"data":{"id":"12","nome":"Sala 12","valor_entrada":2,"quantidade_jogadores":100,"lucro_porcentagem":"80",
				"participantes":[{"user":{"id":1,"name":"Ana"}},{"user":{"id":5,"name":"Eu"}}],
				"participantes_count":2,"vencedor_id":1}}`,
			wantParticipating: true,
			wantCount:         2,
			wantStatus:        models.RoomStatusResolved,
		},
		{
			name:              "participando_count flag",
			body:              `{"id":12,"quantidade_jogadores":10,"participantes":[],"participantes_count":4,"participando_count":1}`,
			wantParticipating: true,
			wantCount:         4,
			wantStatus:        models.RoomStatusOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/sala/12" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
					t.Errorf("Authorization = %q", got)
				}
				io.WriteString(w, tt.body)
			})

			snap, err := client.GetRoom(context.Background(), "12")
			if err != nil {
				t.Fatalf("GetRoom() error = %v", err)
			}
			if snap.ID != "12" {
				t.Errorf("ID = %q", snap.ID)
			}
			if snap.IsLocalUserParticipating != tt.wantParticipating {
				t.Errorf("IsLocalUserParticipating = %v", snap.IsLocalUserParticipating)
			}
			if snap.ConfirmedCount != tt.wantCount {
				t.Errorf("ConfirmedCount = %d, want %d", snap.ConfirmedCount, tt.wantCount)
			}
			if snap.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", snap.Status, tt.wantStatus)
			}
			for _, p := range snap.ConfirmedParticipants {
				if p.Provenance != models.ProvenanceConfirmed {
					t.Errorf("participant %s provenance = %s", p.UserID, p.Provenance)
				}
			}
		})
	}
}

func TestGetRoomEntryValue(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":1,"valor_entrada":"2.50","lucro_porcentagem":"80","quantidade_jogadores":10}`)
	})
	snap, err := client.GetRoom(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetRoom() error = %v", err)
	}
	if snap.EntryValue.String() != "2.5" || snap.ProfitPercentage.String() != "80" || snap.Capacity != 10 {
		t.Fatalf("room = %+v", snap.Room)
	}
}

func TestGetChatHistoryReversesToChronological(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sala/3/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{"data":[
			{"id":3,"mensagem":"terceira","user":{"id":2,"name":"Bia"},"created_at":"2025-03-01T10:00:03.000000Z"},
			{"id":2,"mensagem":"segunda","user":{"id":1,"name":"Ana"},"created_at":"2025-03-01T10:00:02.000000Z"},
			{"id":1,"mensagem":"primeira","user":{"id":2,"name":"Bia"},"created_at":"2025-03-01T10:00:01.000000Z"}
		]}`)
	})

	msgs, err := client.GetChatHistory(context.Background(), "3")
	if err != nil {
		t.Fatalf("GetChatHistory() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d", len(msgs))
	}
	for i, want := range []string{"1", "2", "3"} {
		if msgs[i].ID != want {
			t.Errorf("msgs[%d].ID = %s, want %s", i, msgs[i].ID, want)
		}
		if msgs[i].Provenance != models.MessageHistorical {
			t.Errorf("msgs[%d].Provenance = %s", i, msgs[i].Provenance)
		}
	}
	if msgs[0].AuthorID != "2" || msgs[0].AuthorName != "Bia" {
		t.Errorf("author = %s/%s", msgs[0].AuthorID, msgs[0].AuthorName)
	}
}

func TestSendMessage(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.SalaID != "3" || req.Mensagem != "olá" {
			t.Errorf("request = %+v", req)
		}
		io.WriteString(w, `{"id":77,"mensagem":"olá","user_id":5,"name":"Eu","created_at":"2025-03-01T10:00:00.000000Z"}`)
	})

	msg, err := client.SendMessage(context.Background(), "3", "olá")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.ID != "77" || msg.AuthorID != "5" || msg.AuthorName != "Eu" || msg.Provenance != models.MessageLocal {
		t.Fatalf("echo = %+v", msg)
	}
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, clients.ErrUnexpectedStatus},
		{"forbidden", http.StatusForbidden, clients.ErrUnexpectedStatus},
		{"unauthorized", http.StatusUnauthorized, clients.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"message":"nope"}`)
			})
			if _, err := client.GetRoom(context.Background(), "1"); !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetRoom() err = %v, want %v", err, tt.wantErr)
			}
			if _, err := client.SendMessage(context.Background(), "1", "x"); !errors.Is(err, tt.wantErr) {
				t.Fatalf("SendMessage() err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
