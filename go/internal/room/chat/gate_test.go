package chat

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShouldChime(t *testing.T) {
	tests := []struct {
		name   string
		author string
		local  string
		muted  bool
		want   bool
	}{
		{"other author, unmuted", "2", "1", false, true},
		{"other author, muted", "2", "1", true, false},
		{"own message, unmuted", "1", "1", false, false},
		{"own message, muted", "1", "1", true, false},
		{"guest session", "2", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldChime(msg("m", tt.author), tt.local, tt.muted); got != tt.want {
				t.Errorf("ShouldChime = %v, want %v", got, tt.want)
			}
		})
	}
}

type recordingChimer struct {
	calls chan struct{}
	err   error
}

func (c *recordingChimer) Chime(ctx context.Context) error {
	c.calls <- struct{}{}
	return c.err
}

func TestNotifier(t *testing.T) {
	chimer := &recordingChimer{calls: make(chan struct{}, 4), err: errors.New("no speakers")}
	n := NewNotifier(chimer)

	if n.Notify(msg("1", "me"), "me", false) {
		t.Error("own message chimed")
	}
	if n.Notify(msg("2", "other"), "me", true) {
		t.Error("muted message chimed")
	}
	if !n.Notify(msg("3", "other"), "me", false) {
		t.Fatal("expected chime")
	}
	select {
	case <-chimer.calls:
	case <-time.After(time.Second):
		t.Fatal("chimer was not called")
	}

	var nilNotifier *Notifier
	if nilNotifier.Notify(msg("4", "other"), "me", false) {
		t.Error("nil notifier chimed")
	}
}
