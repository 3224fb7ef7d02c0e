package channel

import (
	"errors"
	"sync"
)

// Loopback is an in-process transport. Publish delivers synchronously to
// every current subscriber of a channel.
type Loopback struct {
	mu      sync.Mutex
	nextID  uint64
	subs    map[string]map[uint64]DeliverFunc
	failErr error
	closed  bool
}

// NewLoopback creates an empty in-process transport.
func NewLoopback() *Loopback {
	return &Loopback{subs: make(map[string]map[uint64]DeliverFunc)}
}

// FailSubscriptions makes every following Subscribe return err. A nil err
// restores normal behaviour.
func (l *Loopback) FailSubscriptions(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failErr = err
}

func (l *Loopback) Subscribe(channel string, deliver DeliverFunc) (func(), error) {
	if deliver == nil {
		return nil, errors.New("nil deliver func")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrTransportClosed
	}
	if l.failErr != nil {
		return nil, l.failErr
	}

	l.nextID++
	id := l.nextID
	if l.subs[channel] == nil {
		l.subs[channel] = make(map[uint64]DeliverFunc)
	}
	l.subs[channel][id] = deliver

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if subs, ok := l.subs[channel]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(l.subs, channel)
			}
		}
	}, nil
}

// Publish delivers an event to the channel's subscribers and returns how many
// received it.
func (l *Loopback) Publish(channel, event string, data []byte) int {
	l.mu.Lock()
	targets := make([]DeliverFunc, 0, len(l.subs[channel]))
	for _, d := range l.subs[channel] {
		targets = append(targets, d)
	}
	l.mu.Unlock()

	for _, d := range targets {
		d(event, data)
	}
	return len(targets)
}

// Subscribers returns the number of subscribers on channel.
func (l *Loopback) Subscribers(channel string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[channel])
}

// Close rejects further subscriptions.
func (l *Loopback) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.subs = make(map[string]map[uint64]DeliverFunc)
}
