// Package view owns the state of one mounted room: its header, participants,
// chat feed and draw. All mutations run on a single event loop; push
// handlers, fetch results and user actions are posted into it.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/salapix/go/internal/models"
	"github.com/mcdev12/salapix/go/internal/pref"
	"github.com/mcdev12/salapix/go/internal/room/channel"
	"github.com/mcdev12/salapix/go/internal/room/chat"
	"github.com/mcdev12/salapix/go/internal/room/draw"
	"github.com/mcdev12/salapix/go/internal/room/participants"
)

var (
	ErrNotMounted     = errors.New("no room mounted")
	ErrEmptyRoomID    = errors.New("room id is required")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrLoginRequired  = models.ErrLoginRequired
	ErrNotParticipant = models.ErrNotParticipant
	ErrStopped        = errors.New("room view stopped")
)

const inboxSize = 256

// RoomAPI is the REST collaborator the view fetches from.
type RoomAPI interface {
	GetRoom(ctx context.Context, roomID string) (*models.RoomSnapshot, error)
	GetChatHistory(ctx context.Context, roomID string) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, roomID, text string) (*models.ChatMessage, error)
}

// Resolution describes a finished draw, handed to Deps.OnResolved.
type Resolution struct {
	RoomID       string
	Room         models.Room
	Outcome      models.DrawOutcome
	Prize        decimal.Decimal
	Participants []models.Participant
}

// Deps are the collaborators of a view.
type Deps struct {
	API      RoomAPI
	Channels *channel.Manager
	Notifier *chat.Notifier
	Mute     pref.Store
	Clock    clockwork.Clock
	Session  models.Session
	Draw     draw.Config

	// OnResolved runs on its own goroutine once per mounted draw.
	OnResolved func(Resolution)
}

// View is the room view. Create it with New, start Run, then Mount a room.
type View struct {
	deps  Deps
	inbox chan func()
	done  chan struct{}

	// push events queue here without bound so transport goroutines never wait
	// on the loop.
	pushMu     sync.Mutex
	pushQueue  []func()
	pushSignal chan struct{}

	// loop-only
	ctx         context.Context
	cancelFetch context.CancelFunc
	sub         *channel.Subscription

	mu            sync.RWMutex
	seq           *draw.Sequencer
	mounted       bool
	roomID        string
	generation    uint64
	room          *models.Room
	snapshotDone  bool
	historyDone   bool
	participating bool
	reconciler    *participants.Reconciler
	feed          *chat.Feed
	pendingDraws  []string
	notices       []Notice
	muted         bool
	live          bool
}

// New creates a view. Nothing happens until Run and Mount are called.
func New(deps Deps) *View {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Mute == nil {
		deps.Mute = &pref.MemoryStore{}
	}
	if deps.Channels == nil {
		deps.Channels = channel.NewManager(nil)
	}
	if deps.Draw.Ticks == 0 && deps.Draw.Interval == 0 {
		deps.Draw = draw.DefaultConfig()
	}

	muted, err := deps.Mute.Load()
	if err != nil {
		log.Warn().Err(err).Msg("could not load mute preference, chimes enabled")
	}

	return &View{
		deps:       deps,
		inbox:      make(chan func(), inboxSize),
		done:       make(chan struct{}),
		pushSignal: make(chan struct{}, 1),
		ctx:        context.Background(),
		muted:      muted,
	}
}

// Run processes the view's events until ctx is cancelled. The mounted room is
// torn down on exit.
func (v *View) Run(ctx context.Context) error {
	v.ctx = ctx
	defer close(v.done)
	defer v.teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.pushSignal:
			v.drainPush()
		case fn := <-v.inbox:
			// Push events received before fn was posted run first.
			v.drainPush()
			fn()
		}
	}
}

// enqueuePush hands a push event to the loop without blocking.
func (v *View) enqueuePush(fn func()) {
	v.pushMu.Lock()
	v.pushQueue = append(v.pushQueue, fn)
	v.pushMu.Unlock()

	select {
	case v.pushSignal <- struct{}{}:
	default:
	}
}

func (v *View) drainPush() {
	v.pushMu.Lock()
	queue := v.pushQueue
	v.pushQueue = nil
	v.pushMu.Unlock()

	for _, fn := range queue {
		fn()
	}
}

func (v *View) post(fn func()) bool {
	select {
	case v.inbox <- fn:
		return true
	case <-v.done:
		return false
	}
}

// do runs fn on the loop and waits for it.
func (v *View) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !v.post(func() { fn(); close(finished) }) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-v.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Mount shows roomID. Mounting the current room again is a no-op; mounting
// another room tears the current one down first. Snapshot and history are
// fetched in the background.
func (v *View) Mount(ctx context.Context, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return ErrEmptyRoomID
	}
	return v.do(ctx, func() { v.mount(roomID) })
}

// Unmount tears the current room down.
func (v *View) Unmount(ctx context.Context) error {
	return v.do(ctx, v.teardown)
}

func (v *View) mount(roomID string) {
	v.mu.RLock()
	same := v.mounted && v.roomID == roomID
	v.mu.RUnlock()
	if same {
		log.Debug().Str("room_id", roomID).Msg("room already mounted")
		return
	}
	v.teardown()

	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.mounted = true
	v.roomID = roomID
	v.room = nil
	v.snapshotDone = false
	v.historyDone = false
	v.participating = false
	v.reconciler = participants.NewReconciler(v.deps.Clock)
	v.feed = chat.NewFeed()
	v.pendingDraws = nil
	v.notices = nil
	v.live = false
	v.mu.Unlock()

	seq := draw.NewSequencer(v.deps.Draw, v.deps.Clock, func(f draw.Frame) {
		if f.State == draw.StateResolved {
			go v.post(func() { v.handleResolved(gen, f) })
		}
	})
	v.mu.Lock()
	v.seq = seq
	v.mu.Unlock()

	v.sub = v.deps.Channels.NewSubscription(channel.Handlers{
		OnParticipantArrived: func(e channel.ParticipantArrived) {
			v.enqueuePush(func() { v.handleArrival(gen, e) })
		},
		OnMessagePosted: func(e channel.MessagePosted) {
			v.enqueuePush(func() { v.handleMessage(gen, e) })
		},
		OnDrawResolved: func(e channel.DrawResolved) {
			v.enqueuePush(func() { v.handleDraw(gen, e.WinnerDisplayName) })
		},
	})
	v.sub.Open(roomID)

	live := v.sub.Live()
	v.mu.Lock()
	v.live = live
	if !live {
		v.addNoticeLocked(NoticeLiveUnavailable, "live updates are unavailable for this room")
	}
	v.mu.Unlock()

	fetchCtx, cancel := context.WithCancel(v.ctx)
	v.cancelFetch = cancel

	log.Info().Str("room_id", roomID).Bool("live", live).Msg("room mounted")

	go func() {
		snap, err := v.deps.API.GetRoom(fetchCtx, roomID)
		v.post(func() { v.applySnapshot(gen, snap, err) })
	}()
	go func() {
		history, err := v.deps.API.GetChatHistory(fetchCtx, roomID)
		v.post(func() { v.applyHistory(gen, history, err) })
	}()
}

func (v *View) teardown() {
	if v.cancelFetch != nil {
		v.cancelFetch()
		v.cancelFetch = nil
	}
	if v.sub != nil {
		v.sub.Close()
		v.sub = nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seq != nil {
		v.seq.Stop()
		v.seq = nil
	}
	if !v.mounted {
		return
	}
	log.Info().Str("room_id", v.roomID).Msg("room unmounted")

	v.generation++
	v.mounted = false
	v.roomID = ""
	v.room = nil
	v.reconciler = nil
	v.feed = nil
	v.pendingDraws = nil
	v.notices = nil
	v.live = false
}

// currentLocked reports whether gen is the mounted generation. Caller holds v.mu.
func (v *View) currentLocked(gen uint64) bool {
	return v.mounted && v.generation == gen
}

func (v *View) applySnapshot(gen uint64, snap *models.RoomSnapshot, err error) {
	v.mu.Lock()
	if !v.currentLocked(gen) {
		v.mu.Unlock()
		return
	}
	roomID := v.roomID
	v.snapshotDone = true
	if err != nil || snap == nil {
		if err == nil {
			err = errors.New("empty snapshot")
		}
		log.Warn().Err(err).Str("room_id", roomID).Msg("room snapshot fetch failed")
		v.addNoticeLocked(NoticeSnapshotFailed, "could not load the room")
		// Confirmed membership is empty for the life of this mount.
		v.reconciler.SetConfirmed(nil)
	} else {
		room := snap.Room
		room.ID = roomID
		v.room = &room
		v.participating = snap.IsLocalUserParticipating
		v.reconciler.SetConfirmed(snap.ConfirmedParticipants)
		log.Info().
			Str("room_id", roomID).
			Int("confirmed", len(snap.ConfirmedParticipants)).
			Int("speculative", len(v.reconciler.Speculative())).
			Msg("room snapshot loaded")
	}
	pending := v.pendingDraws
	v.pendingDraws = nil
	v.mu.Unlock()

	for _, winner := range pending {
		v.startDraw(gen, winner)
	}
}

func (v *View) applyHistory(gen uint64, history []models.ChatMessage, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.currentLocked(gen) {
		return
	}
	v.historyDone = true
	if err != nil {
		log.Warn().Err(err).Str("room_id", v.roomID).Msg("chat history fetch failed")
		v.addNoticeLocked(NoticeHistoryFailed, "could not load the chat history")
		v.feed.AppendHistorical(nil)
		return
	}
	added := v.feed.AppendHistorical(history)
	log.Debug().Str("room_id", v.roomID).Int("messages", added).Msg("chat history loaded")
}

func (v *View) handleArrival(gen uint64, e channel.ParticipantArrived) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.currentLocked(gen) {
		return
	}
	if v.reconciler.RecordArrival(e.ParticipantID, e.DisplayName) {
		log.Debug().Str("room_id", v.roomID).Str("participant_id", e.ParticipantID).Msg("participant arrived")
	}
}

func (v *View) handleMessage(gen uint64, e channel.MessagePosted) {
	msg := models.ChatMessage{
		ID:         e.ID,
		AuthorID:   e.AuthorID,
		AuthorName: e.AuthorName,
		Body:       e.Body,
		CreatedAt:  e.CreatedAt,
		Provenance: models.MessageLive,
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = v.deps.Clock.Now()
	}

	v.mu.Lock()
	if !v.currentLocked(gen) {
		v.mu.Unlock()
		return
	}
	added := v.feed.AppendLive(msg)
	muted := v.muted
	v.mu.Unlock()

	if added {
		v.deps.Notifier.Notify(msg, v.deps.Session.UserID, muted)
	}
}

func (v *View) handleDraw(gen uint64, winner string) {
	v.mu.Lock()
	if !v.currentLocked(gen) {
		v.mu.Unlock()
		return
	}
	if !v.snapshotDone {
		v.pendingDraws = append(v.pendingDraws, winner)
		v.mu.Unlock()
		log.Debug().Str("room_id", v.RoomID()).Msg("draw resolved before snapshot, queued")
		return
	}
	v.mu.Unlock()
	v.startDraw(gen, winner)
}

// startDraw runs on the loop without v.mu held.
func (v *View) startDraw(gen uint64, winner string) {
	v.mu.RLock()
	if !v.currentLocked(gen) || v.seq == nil {
		v.mu.RUnlock()
		return
	}
	var terms draw.Terms
	if v.room != nil {
		terms = termsOf(*v.room)
	}
	rec := v.reconciler
	seq := v.seq
	v.mu.RUnlock()

	seq.Resolve(winner, terms, func() []models.Participant {
		v.mu.RLock()
		defer v.mu.RUnlock()
		return rec.All()
	})
}

func (v *View) handleResolved(gen uint64, f draw.Frame) {
	v.mu.RLock()
	if !v.currentLocked(gen) || f.Outcome == nil {
		v.mu.RUnlock()
		return
	}
	res := Resolution{
		RoomID:       v.roomID,
		Outcome:      *f.Outcome,
		Prize:        f.Prize,
		Participants: v.reconciler.All(),
	}
	if v.room != nil {
		res.Room = *v.room
	}
	res.Room.ID = v.roomID
	res.Room.Status = models.RoomStatusResolved
	v.mu.RUnlock()

	if v.deps.OnResolved != nil {
		go v.deps.OnResolved(res)
	}
}

// SendMessage posts body to the mounted room and seeds the feed with the
// server's echo.
func (v *View) SendMessage(ctx context.Context, body string) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	v.mu.RLock()
	mounted, roomID, gen := v.mounted, v.roomID, v.generation
	participating := v.participatingLocked()
	v.mu.RUnlock()

	if !mounted {
		return nil, ErrNotMounted
	}
	if err := v.deps.Session.Role.CheckSendChat(participating); err != nil {
		return nil, err
	}

	echo, err := v.deps.API.SendMessage(ctx, roomID, body)
	if err != nil {
		return nil, err
	}
	echo.Provenance = models.MessageLocal

	msg := *echo
	if err := v.do(ctx, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.currentLocked(gen) {
			v.feed.AppendLocal(msg)
		}
	}); err != nil {
		return echo, err
	}
	return echo, nil
}

// SetMuted sets and persists the mute preference.
func (v *View) SetMuted(ctx context.Context, muted bool) error {
	return v.do(ctx, func() { v.setMuted(muted) })
}

// ToggleMute flips the mute preference and returns the new value.
func (v *View) ToggleMute(ctx context.Context) (bool, error) {
	var muted bool
	err := v.do(ctx, func() {
		v.mu.RLock()
		muted = !v.muted
		v.mu.RUnlock()
		v.setMuted(muted)
	})
	return muted, err
}

func (v *View) setMuted(muted bool) {
	v.mu.Lock()
	changed := v.muted != muted
	v.muted = muted
	v.mu.Unlock()
	if !changed {
		return
	}
	if err := v.deps.Mute.Save(muted); err != nil {
		log.Warn().Err(err).Bool("muted", muted).Msg("could not persist mute preference")
	}
}

// Muted reports the current mute preference.
func (v *View) Muted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.muted
}

// RoomID returns the mounted room id, empty when nothing is mounted.
func (v *View) RoomID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.roomID
}

func (v *View) participatingLocked() bool {
	if v.participating {
		return true
	}
	return v.reconciler != nil && v.reconciler.Contains(v.deps.Session.UserID)
}

func (v *View) addNoticeLocked(kind NoticeKind, message string) {
	v.notices = append(v.notices, Notice{Kind: kind, Message: message, At: v.deps.Clock.Now()})
}

func termsOf(r models.Room) draw.Terms {
	return draw.Terms{
		EntryValue:       r.EntryValue,
		Capacity:         r.Capacity,
		ProfitPercentage: r.ProfitPercentage,
	}
}

// NoticeKind classifies a transient, user-visible notice.
type NoticeKind string

const (
	NoticeSnapshotFailed  NoticeKind = "snapshot_failed"
	NoticeHistoryFailed   NoticeKind = "history_failed"
	NoticeLiveUnavailable NoticeKind = "live_unavailable"
)

type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}
