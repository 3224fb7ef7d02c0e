package channel

import (
	"errors"
	"testing"
)

type recorder struct {
	arrivals []ParticipantArrived
	messages []MessagePosted
	draws    []DrawResolved
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnParticipantArrived: func(p ParticipantArrived) { r.arrivals = append(r.arrivals, p) },
		OnMessagePosted:      func(m MessagePosted) { r.messages = append(r.messages, m) },
		OnDrawResolved:       func(d DrawResolved) { r.draws = append(r.draws, d) },
	}
}

const drawPayload = `{"usuario_vencedor":"Caio"}`

func TestSubscriptionOpenIsIdempotent(t *testing.T) {
	lb := NewLoopback()
	m := NewManager(lb)
	rec := &recorder{}
	sub := m.NewSubscription(rec.handlers())

	sub.Open("1")
	sub.Open("1")
	sub.Open("1")

	if n := lb.Subscribers("sala.1"); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}
	lb.Publish("sala.1", ".sala_sorteada", []byte(drawPayload))
	if len(rec.draws) != 1 {
		t.Fatalf("draws delivered = %d, want 1", len(rec.draws))
	}
	if !sub.Live() || sub.RoomID() != "1" {
		t.Fatalf("live=%v room=%q", sub.Live(), sub.RoomID())
	}
}

func TestSubscriptionCloseAndReopen(t *testing.T) {
	lb := NewLoopback()
	m := NewManager(lb)
	rec := &recorder{}
	sub := m.NewSubscription(rec.handlers())

	sub.Open("1")
	sub.Close()
	sub.Close()
	if n := lb.Subscribers("sala.1"); n != 0 {
		t.Fatalf("subscribers after close = %d", n)
	}
	if n := lb.Publish("sala.1", "sala_sorteada", []byte(drawPayload)); n != 0 {
		t.Fatalf("published to %d subscribers after close", n)
	}

	sub.Open("1")
	if n := lb.Subscribers("sala.1"); n != 1 {
		t.Fatalf("subscribers after reopen = %d, want 1", n)
	}
	lb.Publish("sala.1", "sala_sorteada", []byte(drawPayload))
	if len(rec.draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(rec.draws))
	}
}

func TestSubscriptionSwitchRoom(t *testing.T) {
	lb := NewLoopback()
	m := NewManager(lb)
	rec := &recorder{}
	sub := m.NewSubscription(rec.handlers())

	sub.Open("1")
	sub.Open("2")

	if n := lb.Subscribers("sala.1"); n != 0 {
		t.Fatalf("old room subscribers = %d, want 0", n)
	}
	if n := lb.Subscribers("sala.2"); n != 1 {
		t.Fatalf("new room subscribers = %d, want 1", n)
	}

	lb.Publish("sala.1", "novo_participante", []byte(`{"participante":"Ana","participante_id":1}`))
	lb.Publish("sala.2", "novo_participante", []byte(`{"participante":"Bia","participante_id":2}`))
	if len(rec.arrivals) != 1 || rec.arrivals[0].ParticipantID != "2" {
		t.Fatalf("arrivals = %+v", rec.arrivals)
	}

	stats := m.Stats()
	if stats["total_subscriptions"] != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestSubscriptionFailureIsSilent(t *testing.T) {
	lb := NewLoopback()
	lb.FailSubscriptions(errors.New("socket down"))
	m := NewManager(lb)
	rec := &recorder{}
	sub := m.NewSubscription(rec.handlers())

	sub.Open("1")
	if sub.Live() {
		t.Fatal("subscription reported live after transport failure")
	}
	if sub.RoomID() != "1" {
		t.Fatalf("RoomID = %q", sub.RoomID())
	}
	lb.Publish("sala.1", "sala_sorteada", []byte(drawPayload))
	if len(rec.draws) != 0 {
		t.Fatalf("events delivered on failed subscription")
	}
	sub.Close()
}

func TestSubscriptionNilTransport(t *testing.T) {
	sub := NewManager(nil).NewSubscription(Handlers{})
	sub.Open("1")
	if sub.Live() {
		t.Fatal("nil transport reported live")
	}
	sub.Close()
}

func TestStaleDeliveryDropped(t *testing.T) {
	lb := NewLoopback()
	m := NewManager(lb)
	rec := &recorder{}
	sub := m.NewSubscription(rec.handlers())

	sub.Open("1")
	stale := sub.generation
	sub.Close()

	sub.deliver(stale, "1", "sala_sorteada", []byte(drawPayload))
	if len(rec.draws) != 0 {
		t.Fatal("stale event delivered")
	}
}

func TestMalformedEventIgnored(t *testing.T) {
	lb := NewLoopback()
	m := NewManager(lb)
	rec := &recorder{}
	sub := m.NewSubscription(rec.handlers())
	sub.Open("1")

	lb.Publish("sala.1", "chat_nova_mensagem", []byte(`{"mensagem":"no id"}`))
	lb.Publish("sala.1", "chat_nova_mensagem", []byte(`{"id":9,"mensagem":"ok"}`))

	if len(rec.messages) != 1 || rec.messages[0].ID != "9" {
		t.Fatalf("messages = %+v", rec.messages)
	}
}
