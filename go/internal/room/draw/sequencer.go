// Package draw turns a room's single draw-resolved event into a fixed-length
// reveal animation and a final outcome.
package draw

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/salapix/go/internal/models"
)

// State is a draw sequencer state. Transitions only move forward.
type State int

const (
	StateIdle State = iota
	StateAnnouncing
	StateCycling
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnnouncing:
		return "announcing"
	case StateCycling:
		return "cycling"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config holds the reveal pacing.
type Config struct {
	Ticks       int           `yaml:"ticks"`
	Interval    time.Duration `yaml:"interval"`
	Placeholder string        `yaml:"placeholder"`
}

// DefaultConfig returns the pacing of the web client: 20 highlights, 200ms apart.
func DefaultConfig() Config {
	return Config{
		Ticks:       20,
		Interval:    200 * time.Millisecond,
		Placeholder: "Sorteando...",
	}
}

// Frame is one observable step of the sequence.
type Frame struct {
	State       State
	Tick        int
	Highlighted string
	Outcome     *models.DrawOutcome
	Prize       decimal.Decimal
}

// ParticipantsFunc returns the current participant list. It is called on every
// tick so late arrivals join the animation.
type ParticipantsFunc func() []models.Participant

// Sequencer runs Idle → Announcing → Cycling → Resolved once per room view.
// The first Resolve call captures the winner; every later one is a no-op.
type Sequencer struct {
	mu sync.Mutex

	cfg     Config
	clock   clockwork.Clock
	onFrame func(Frame)

	state        State
	winner       string
	terms        Terms
	participants ParticipantsFunc
	tick         int
	cursor       int
	highlighted  string
	outcome      *models.DrawOutcome

	ticker  clockwork.Ticker
	stopCh  chan struct{}
	stopped bool
}

// NewSequencer creates an idle sequencer. onFrame, if set, is called after
// every state change or tick, outside the sequencer's lock.
func NewSequencer(cfg Config, clock clockwork.Clock, onFrame func(Frame)) *Sequencer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultConfig().Placeholder
	}
	return &Sequencer{
		cfg:     cfg,
		clock:   clock,
		onFrame: onFrame,
	}
}

// Resolve starts the reveal for winner. It reports false when a draw was
// already captured or the winner name is blank.
func (s *Sequencer) Resolve(winner string, terms Terms, participants ParticipantsFunc) bool {
	winner = strings.TrimSpace(winner)
	if winner == "" {
		log.Warn().Msg("draw resolved without a winner name, ignoring")
		return false
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		log.Debug().Str("state", state.String()).Str("winner", winner).Msg("draw already captured, ignoring")
		return false
	}
	s.state = StateAnnouncing
	s.winner = winner
	s.terms = terms
	s.participants = participants
	s.highlighted = s.cfg.Placeholder
	announcing := s.frameLocked()

	var frames []Frame
	frames = append(frames, announcing)

	s.state = StateCycling
	if s.cfg.Ticks <= 0 {
		frames = append(frames, s.frameLocked(), s.finishLocked())
	} else {
		s.ticker = s.clock.NewTicker(s.cfg.Interval)
		s.stopCh = make(chan struct{})
		go s.run(s.ticker, s.stopCh)
		frames = append(frames, s.frameLocked())
	}
	s.mu.Unlock()

	log.Info().Str("winner", winner).Int("ticks", s.cfg.Ticks).Dur("interval", s.cfg.Interval).Msg("draw sequence started")
	s.emit(frames...)
	return true
}

func (s *Sequencer) run(ticker clockwork.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if done := s.step(); done {
				return
			}
		}
	}
}

// step advances the highlight pointer; it returns true once Resolved.
func (s *Sequencer) step() bool {
	s.mu.Lock()
	participants := s.participants
	live := s.state == StateCycling && !s.stopped
	s.mu.Unlock()
	if !live {
		return true
	}

	// Read the participant list without holding the lock; the callback
	// belongs to the owning view and takes its own locks.
	var list []models.Participant
	if participants != nil {
		list = participants()
	}

	s.mu.Lock()
	if s.state != StateCycling || s.stopped {
		s.mu.Unlock()
		return true
	}
	switch {
	case len(list) == 0:
		s.highlighted = s.cfg.Placeholder
	default:
		if s.cursor >= len(list) {
			s.cursor = 0
		}
		s.highlighted = list[s.cursor].DisplayName
		if s.highlighted == "" {
			s.highlighted = s.cfg.Placeholder
		}
	}
	s.cursor++
	s.tick++

	frames := []Frame{s.frameLocked()}
	done := s.tick >= s.cfg.Ticks
	if done {
		frames = append(frames, s.finishLocked())
	}
	s.mu.Unlock()

	s.emit(frames...)
	return done
}

// finishLocked moves to Resolved and releases the ticker.
func (s *Sequencer) finishLocked() Frame {
	s.state = StateResolved
	s.highlighted = ""
	s.outcome = &models.DrawOutcome{WinnerName: s.winner, ResolvedAt: s.clock.Now()}
	s.releaseLocked()

	log.Info().
		Str("winner", s.winner).
		Str("prize", s.terms.Prize().StringFixed(2)).
		Msg("draw resolved")
	return s.frameLocked()
}

func (s *Sequencer) releaseLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// Stop clears any pending tick. It is used on view teardown; the state is
// left where it was and no further frames are emitted.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.releaseLocked()
	s.onFrame = nil
}

func (s *Sequencer) frameLocked() Frame {
	f := Frame{
		State:       s.state,
		Tick:        s.tick,
		Highlighted: s.highlighted,
	}
	if s.outcome != nil {
		o := *s.outcome
		f.Outcome = &o
		f.Prize = s.terms.Prize()
	}
	return f
}

func (s *Sequencer) emit(frames ...Frame) {
	s.mu.Lock()
	onFrame := s.onFrame
	s.mu.Unlock()
	if onFrame == nil {
		return
	}
	for _, f := range frames {
		onFrame(f)
	}
}

// Snapshot returns the current frame.
func (s *Sequencer) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Winner returns the captured winner name, empty while idle.
func (s *Sequencer) Winner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner
}

// Outcome returns the draw outcome once Resolved.
func (s *Sequencer) Outcome() *models.DrawOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return nil
	}
	o := *s.outcome
	return &o
}

// Terms returns the room terms the draw was resolved with.
func (s *Sequencer) Terms() Terms {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terms
}
