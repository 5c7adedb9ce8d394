package tocsync

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/doctoc/internal/outline"
)

// PanelState is whether the TOC panel is shown.
type PanelState int

const (
	PanelClosed PanelState = iota
	PanelOpen
)

func (p PanelState) String() string {
	if p == PanelOpen {
		return "open"
	}
	return "closed"
}

// Phase tracks the one-way startup animation window.
type Phase int

const (
	// Animating is the grace window after page ready. Reveal speed is zero so
	// sections already expanded by a deep link appear pre-opened.
	Animating Phase = iota
	// Idle is the steady state for the rest of the session.
	Idle
)

func (p Phase) String() string {
	if p == Idle {
		return "idle"
	}
	return "animating"
}

// SyncState is the observable state of a session.
type SyncState struct {
	ActiveID           string
	PanelOpen          bool
	AnimationThrottled bool
}

// Lifecycle steps, in the order Start performs them.
const (
	StepMakeTOC     = "make_toc"
	StepAnimate     = "animate"
	StepTrackImages = "track_images"
)

// Options configures a Session.
type Options struct {
	// HighlightOffset is how far below the scroll position, in pixels, a
	// heading is considered reached.
	HighlightOffset float64
	// ScrollHistory replaces the location hash as the active heading changes.
	ScrollHistory bool
	// ShowEffectSpeed is the steady reveal speed once the grace window ends.
	ShowEffectSpeed time.Duration
	HideEffectSpeed time.Duration
	GraceWindow     time.Duration

	// InitialHash is the deep-linked fragment the page was opened with.
	InitialHash string
	// TrackedImages is how many content images must settle before heights
	// are recalculated.
	TrackedImages int

	Clock     Clock
	Logger    *zap.Logger
	QueueSize int
}

// DefaultOptions mirrors the panel's stock behavior.
func DefaultOptions() Options {
	return Options{
		HighlightOffset: 60,
		ScrollHistory:   true,
		ShowEffectSpeed: 180 * time.Millisecond,
		HideEffectSpeed: 180 * time.Millisecond,
		GraceWindow:     50 * time.Millisecond,
		QueueSize:       64,
	}
}

// Session synchronizes one page view. Construct it with NewSession, call
// Start once, then feed events either through Post and Run, or directly
// through Dispatch from a single goroutine. The two styles must not be mixed.
type Session struct {
	ID string

	tree *outline.Tree
	opts Options
	sink Sink
	bus  *Bus
	log  *zap.Logger

	state SyncState
	panel PanelState
	phase Phase

	tops          []float64
	lastTop       float64
	scrolled      bool
	pendingScroll *float64
	hash          string
	active        *outline.Entry

	images       imageTracker
	recalculated bool

	lifecycle []string
	started   bool

	queue chan Event
	done  chan struct{}
}

// NewSession prepares a session over tree. Zero-valued option fields fall back
// to DefaultOptions.
func NewSession(id string, tree *outline.Tree, opts Options, sink Sink) *Session {
	def := DefaultOptions()
	if opts.ShowEffectSpeed == 0 {
		opts.ShowEffectSpeed = def.ShowEffectSpeed
	}
	if opts.HideEffectSpeed == 0 {
		opts.HideEffectSpeed = def.HideEffectSpeed
	}
	if opts.GraceWindow == 0 {
		opts.GraceWindow = def.GraceWindow
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if tree == nil {
		tree = &outline.Tree{}
	}
	return &Session{
		ID:     id,
		tree:   tree,
		opts:   opts,
		sink:   sink,
		bus:    NewBus(),
		log:    opts.Logger.With(zap.String("session", id)),
		panel:  PanelClosed,
		phase:  Animating,
		images: imageTracker{total: opts.TrackedImages},
		queue:  make(chan Event, opts.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start builds the TOC state, opens the grace window and begins image
// tracking, strictly in that order. Later calls do nothing.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	s.makeTOC()
	s.animate()
	s.trackImages()
}

// Run starts the session if needed and processes posted events until ctx is
// done. It is the only goroutine that touches session state.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	s.Start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.queue:
			s.handle(ev)
		}
	}
}

// Post enqueues ev for Run. It is safe from any goroutine and reports false
// once Run has returned.
func (s *Session) Post(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.queue <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Dispatch processes ev on the caller's goroutine.
func (s *Session) Dispatch(ev Event) {
	s.Start()
	s.bus.Publish(ev)
}

// Flush dispatches every queued event, coalescing scrolls the way Run does.
func (s *Session) Flush() int {
	n := 0
	for {
		select {
		case ev := <-s.queue:
			s.handle(ev)
			n++
		default:
			return n
		}
	}
}

// handle publishes ev; a scroll is first merged with any scrolls already
// queued behind it so bursts collapse into one recomputation.
func (s *Session) handle(ev Event) {
	if ev.Kind != KindScroll {
		s.bus.Publish(ev)
		return
	}
	for {
		select {
		case next := <-s.queue:
			if next.Kind == KindScroll {
				ev = next
				continue
			}
			s.bus.Publish(ev)
			s.handle(next)
			return
		default:
			s.bus.Publish(ev)
			return
		}
	}
}

// State returns a snapshot of the synchronized state.
func (s *Session) State() SyncState { return s.state }

// Panel returns the panel state.
func (s *Session) Panel() PanelState { return s.panel }

// Phase returns the animation phase.
func (s *Session) Phase() Phase { return s.phase }

// Lifecycle returns the startup steps in the order they ran.
func (s *Session) Lifecycle() []string {
	out := make([]string, len(s.lifecycle))
	copy(out, s.lifecycle)
	return out
}

// Subscriptions exposes the bus registration order.
func (s *Session) Subscriptions() []Kind { return s.bus.Subscriptions() }

// Tree returns the outline the session drives.
func (s *Session) Tree() *outline.Tree { return s.tree }

func (s *Session) emit(e Effect) {
	if s.sink != nil {
		s.sink.Apply(e)
	}
}

func (s *Session) makeTOC() {
	s.lifecycle = append(s.lifecycle, StepMakeTOC)

	s.bus.Subscribe(KindToggle, s.onToggle)
	s.bus.Subscribe(KindDocumentClick, func(Event) { s.closeTOC() })
	s.bus.Subscribe(KindEntrySelect, s.onSelect)
	s.bus.Subscribe(KindScroll, s.onScroll)
	s.bus.Subscribe(KindHeights, s.onHeights)

	s.emit(speedEffect(0, s.opts.HideEffectSpeed))

	s.hash = strings.TrimPrefix(s.opts.InitialHash, "#")
	if s.hash != "" {
		if e := s.tree.Find(s.hash); e != nil {
			s.activate(e)
		} else {
			s.log.Debug("deep link does not match any entry", zap.String("hash", s.hash))
		}
	}
}

func (s *Session) animate() {
	s.lifecycle = append(s.lifecycle, StepAnimate)
	s.phase = Animating
	s.state.AnimationThrottled = true

	s.bus.Subscribe(KindGraceElapsed, s.onGraceElapsed)
	s.opts.Clock.AfterFunc(s.opts.GraceWindow, func() {
		s.Post(Event{Kind: KindGraceElapsed})
	})
}

func (s *Session) trackImages() {
	s.lifecycle = append(s.lifecycle, StepTrackImages)

	s.bus.Subscribe(KindImageSettled, s.onImageSettled)
	s.bus.Subscribe(KindImagesSettled, s.onImagesSettled)
	if s.images.total <= 0 {
		s.bus.Publish(Event{Kind: KindImagesSettled})
	}
}

func (s *Session) onToggle(Event) {
	if s.panel == PanelOpen {
		s.setPanel(PanelClosed)
	} else {
		s.setPanel(PanelOpen)
	}
}

// closeTOC closes the panel; it is a no-op when already closed.
func (s *Session) closeTOC() {
	if s.panel == PanelOpen {
		s.setPanel(PanelClosed)
	}
}

func (s *Session) setPanel(p PanelState) {
	s.panel = p
	s.state.PanelOpen = p == PanelOpen
	s.log.Debug("panel", zap.Stringer("state", p))
	s.emit(Effect{Kind: EffectOpen, Open: s.state.PanelOpen})
}

func (s *Session) onSelect(ev Event) {
	s.closeTOC()
	e := s.tree.Find(ev.ID)
	if e == nil {
		return
	}
	// The entry's link already navigated to #id.
	s.hash = e.ID
	s.activate(e)
}

func (s *Session) onScroll(ev Event) {
	top := ev.Top
	if s.phase == Animating {
		s.pendingScroll = &top
		return
	}
	s.scrollTo(top)
}

func (s *Session) onHeights(ev Event) {
	s.tops = append(s.tops[:0], ev.Tops...)
	if s.phase == Idle && s.scrolled {
		s.scrollTo(s.lastTop)
	}
}

func (s *Session) onGraceElapsed(Event) {
	if s.phase != Animating {
		return
	}
	s.phase = Idle
	s.state.AnimationThrottled = false
	s.log.Debug("grace window elapsed")
	s.emit(speedEffect(s.opts.ShowEffectSpeed, s.opts.HideEffectSpeed))

	if s.pendingScroll != nil {
		top := *s.pendingScroll
		s.pendingScroll = nil
		s.scrollTo(top)
	}
}

func (s *Session) onImageSettled(ev Event) {
	if ev.Failed {
		s.log.Debug("image failed to load", zap.String("src", ev.Src))
	}
	if s.images.settle() {
		s.bus.Publish(Event{Kind: KindImagesSettled})
	}
}

func (s *Session) onImagesSettled(Event) {
	if s.recalculated {
		return
	}
	s.recalculated = true
	s.emit(Effect{Kind: EffectRecalculateHeights})
}

func (s *Session) scrollTo(top float64) {
	s.lastTop = top
	s.scrolled = true
	entries := s.tree.Entries()
	idx := closestAnchor(s.tops, top+s.opts.HighlightOffset)
	if idx < 0 || idx >= len(entries) {
		return
	}
	s.activate(entries[idx])
}

func (s *Session) activate(e *outline.Entry) {
	if e == s.active {
		return
	}
	s.active = e
	expanded := s.tree.Expand(e)
	s.state.ActiveID = e.ID
	s.emit(Effect{Kind: EffectHighlight, ActiveID: e.ID, Expanded: expanded})

	if s.opts.ScrollHistory && s.hash != e.ID {
		s.hash = e.ID
		s.emit(Effect{Kind: EffectReplaceHash, Hash: "#" + e.ID})
	}
}

// closestAnchor walks anchor offsets in document order and returns the index
// nearest to target, stopping as soon as the distance grows.
func closestAnchor(tops []float64, target float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, top := range tops {
		d := math.Abs(top - target)
		if d >= bestDist {
			break
		}
		best, bestDist = i, d
	}
	return best
}

// imageTracker counts settled images; settle reports true exactly once, on
// the last tracked image.
type imageTracker struct {
	total   int
	settled int
	done    bool
}

func (t *imageTracker) settle() bool {
	if t.done {
		return false
	}
	t.settled++
	if t.settled >= t.total {
		t.done = true
		return true
	}
	return false
}
