package channel

import (
	"errors"
	"testing"
	"time"
)

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		data    string
		wantErr error
		check   func(t *testing.T, got interface{})
	}{
		{
			name:  "participant arrived with numeric id",
			event: ".novo_participante",
			data:  `{"participante":"Ana","participante_id":17}`,
			check: func(t *testing.T, got interface{}) {
				p := got.(ParticipantArrived)
				if p.ParticipantID != "17" || p.DisplayName != "Ana" {
					t.Errorf("got %+v", p)
				}
			},
		},
		{
			name:  "message posted",
			event: "chat_nova_mensagem",
			data:  `{"id":"m-1","mensagem":"oi","user_id":3,"user_nome":"Bia","data":"2025-03-01T12:00:00.000000Z"}`,
			check: func(t *testing.T, got interface{}) {
				m := got.(MessagePosted)
				if m.ID != "m-1" || m.Body != "oi" || m.AuthorID != "3" || m.AuthorName != "Bia" {
					t.Errorf("got %+v", m)
				}
				want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
				if !m.CreatedAt.Equal(want) {
					t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, want)
				}
			},
		},
		{
			name:  "message with unreadable timestamp",
			event: "chat_nova_mensagem",
			data:  `{"id":"m-2","mensagem":"oi","user_id":3,"user_nome":"Bia","data":"ontem"}`,
			check: func(t *testing.T, got interface{}) {
				m := got.(MessagePosted)
				if m.ID != "m-2" || m.Body != "oi" || !m.CreatedAt.IsZero() {
					t.Errorf("got %+v", m)
				}
			},
		},
		{
			name:  "draw resolved",
			event: ".sala_sorteada",
			data:  `{"usuario_vencedor":"Caio"}`,
			check: func(t *testing.T, got interface{}) {
				if d := got.(DrawResolved); d.WinnerDisplayName != "Caio" {
					t.Errorf("got %+v", d)
				}
			},
		},
		{name: "message without id", event: "chat_nova_mensagem", data: `{"mensagem":"oi"}`, wantErr: ErrMalformedPayload},
		{name: "participant without id", event: "novo_participante", data: `{"participante":"Ana"}`, wantErr: ErrMalformedPayload},
		{name: "draw without winner", event: "sala_sorteada", data: `{"usuario_vencedor":"  "}`, wantErr: ErrMalformedPayload},
		{name: "not json", event: "sala_sorteada", data: `nope`, wantErr: ErrMalformedPayload},
		{name: "unknown event", event: "sala_fechada", data: `{}`, wantErr: ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got interface{}
			h := Handlers{
				OnParticipantArrived: func(p ParticipantArrived) { got = p },
				OnMessagePosted:      func(m MessagePosted) { got = m },
				OnDrawResolved:       func(d DrawResolved) { got = d },
			}
			err := Dispatch(tt.event, []byte(tt.data), h)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if got != nil {
					t.Fatalf("handler called for rejected event: %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if got == nil {
				t.Fatal("handler not called")
			}
			tt.check(t, got)
		})
	}
}

func TestDispatchNilHandler(t *testing.T) {
	if err := Dispatch("sala_sorteada", []byte(`{"usuario_vencedor":"Caio"}`), Handlers{}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
}

func TestRoomChannel(t *testing.T) {
	if got := RoomChannel("42"); got != "sala.42" {
		t.Fatalf("RoomChannel = %q", got)
	}
	if got := Subject(RoomChannel("42"), EventDrawResolved); got != "sala.42.sala_sorteada" {
		t.Fatalf("Subject = %q", got)
	}
	if got := eventFromSubject("sala.42.chat_nova_mensagem"); got != "chat_nova_mensagem" {
		t.Fatalf("eventFromSubject = %q", got)
	}
}
