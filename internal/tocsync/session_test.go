package tocsync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/doctoc/internal/outline"
)

const page = `<h1 id="api">API</h1>
<h2 id="create">Create</h2>
<h3 id="params">Parameters</h3>
<h2 id="delete">Delete</h2>
<h1 id="errors">Errors</h1>`

// tops are the measured anchor offsets for page, in document order.
var tops = []float64{0, 400, 800, 1200, 2000}

func testTree(t *testing.T) *outline.Tree {
	t.Helper()
	doc, err := outline.Parse(strings.NewReader(page), outline.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return outline.Build(doc)
}

func newTestSession(t *testing.T, mutate func(*Options)) (*Session, *Recorder, *ManualClock) {
	t.Helper()
	clock := &ManualClock{}
	rec := &Recorder{}
	opts := DefaultOptions()
	opts.Clock = clock
	opts.TrackedImages = 2
	if mutate != nil {
		mutate(&opts)
	}
	s := NewSession("test", testTree(t), opts, rec)
	s.Start()
	return s, rec, clock
}

// endGrace fires the grace timer and processes the event it posts.
func endGrace(t *testing.T, s *Session, clock *ManualClock) {
	t.Helper()
	if clock.Fire() != 1 {
		t.Fatal("expected exactly one pending grace timer")
	}
	s.Flush()
}

func TestStartOrdering(t *testing.T) {
	s, _, clock := newTestSession(t, nil)

	got := strings.Join(s.Lifecycle(), ",")
	if got != "make_toc,animate,track_images" {
		t.Errorf("lifecycle = %s", got)
	}

	subs := s.Subscriptions()
	index := func(k Kind) int {
		for i, sk := range subs {
			if sk == k {
				return i
			}
		}
		return -1
	}
	if !(index(KindScroll) < index(KindGraceElapsed) && index(KindGraceElapsed) < index(KindImagesSettled)) {
		t.Errorf("subscription order = %v", subs)
	}
	if d := clock.Delays(); len(d) != 1 || d[0] != 50*time.Millisecond {
		t.Errorf("grace timer delays = %v, want [50ms]", d)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	s, _, clock := newTestSession(t, nil)
	s.Start()
	if len(s.Lifecycle()) != 3 || len(clock.Delays()) != 1 {
		t.Error("second Start re-ran initialization")
	}
}

func TestInitialState(t *testing.T) {
	s, rec, _ := newTestSession(t, nil)
	if s.Panel() != PanelClosed {
		t.Errorf("panel = %v, want closed", s.Panel())
	}
	if s.Phase() != Animating || !s.State().AnimationThrottled {
		t.Error("session should start in the grace window")
	}
	first := rec.Effects()[0]
	if first.Kind != EffectSpeed || first.ShowSpeedMS != 0 || first.HideSpeedMS != 180 {
		t.Errorf("first effect = %+v, want zero reveal speed", first)
	}
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	s, rec, _ := newTestSession(t, nil)
	before := s.Panel()

	s.Dispatch(Event{Kind: KindToggle})
	if s.Panel() != PanelOpen || !s.State().PanelOpen {
		t.Fatal("first toggle did not open the panel")
	}
	s.Dispatch(Event{Kind: KindToggle})
	if s.Panel() != before {
		t.Errorf("panel after two toggles = %v, want %v", s.Panel(), before)
	}
	if rec.Count(EffectOpen) != 2 {
		t.Errorf("open effects = %d, want 2", rec.Count(EffectOpen))
	}
}

func TestEntrySelectAlwaysCloses(t *testing.T) {
	s, rec, _ := newTestSession(t, nil)

	s.Dispatch(Event{Kind: KindToggle})
	s.Dispatch(Event{Kind: KindEntrySelect, ID: "api-create"})
	if s.Panel() != PanelClosed {
		t.Fatal("selecting an entry left the panel open")
	}
	if s.State().ActiveID != "api-create" {
		t.Errorf("active = %q, want api-create", s.State().ActiveID)
	}

	opens := rec.Count(EffectOpen)
	s.Dispatch(Event{Kind: KindEntrySelect, ID: "errors"})
	if s.Panel() != PanelClosed {
		t.Error("panel reopened")
	}
	if rec.Count(EffectOpen) != opens {
		t.Error("closing an already closed panel emitted an effect")
	}
	if rec.Count(EffectReplaceHash) != 0 {
		t.Error("entry selection should not rewrite the hash")
	}
}

func TestDocumentClickClosesOnlyWhenOpen(t *testing.T) {
	s, rec, _ := newTestSession(t, nil)
	s.Dispatch(Event{Kind: KindDocumentClick})
	if rec.Count(EffectOpen) != 0 {
		t.Error("click on closed panel emitted an effect")
	}
	s.Dispatch(Event{Kind: KindToggle})
	s.Dispatch(Event{Kind: KindDocumentClick})
	if s.Panel() != PanelClosed {
		t.Error("document click did not close the panel")
	}
}

func TestGraceWindowTransition(t *testing.T) {
	s, rec, clock := newTestSession(t, nil)
	endGrace(t, s, clock)

	if s.Phase() != Idle || s.State().AnimationThrottled {
		t.Fatal("grace window did not end")
	}
	last, _ := rec.Last(EffectSpeed)
	if last.ShowSpeedMS != 180 {
		t.Errorf("steady show speed = %d, want 180", last.ShowSpeedMS)
	}

	// The transition is one-way.
	s.Dispatch(Event{Kind: KindGraceElapsed})
	if rec.Count(EffectSpeed) != 2 {
		t.Errorf("speed effects = %d, want 2", rec.Count(EffectSpeed))
	}
}

func TestScrollDeferredUntilGraceEnds(t *testing.T) {
	s, rec, clock := newTestSession(t, nil)
	s.Dispatch(Event{Kind: KindHeights, Tops: tops})
	s.Dispatch(Event{Kind: KindScroll, Top: 350})
	s.Dispatch(Event{Kind: KindScroll, Top: 750})

	if rec.Count(EffectHighlight) != 0 {
		t.Fatal("scroll highlighted during the grace window")
	}

	endGrace(t, s, clock)

	effects := rec.Effects()
	var speedAt, highlightAt = -1, -1
	for i, e := range effects {
		if e.Kind == EffectSpeed && e.ShowSpeedMS > 0 && speedAt < 0 {
			speedAt = i
		}
		if e.Kind == EffectHighlight && highlightAt < 0 {
			highlightAt = i
		}
	}
	if speedAt < 0 || highlightAt < 0 || speedAt > highlightAt {
		t.Fatalf("steady speed must precede the first scroll highlight: %+v", effects)
	}
	// Only the latest deferred scroll applies: 750+60 is closest to 800.
	if got := s.State().ActiveID; got != "api-create-params" {
		t.Errorf("active = %q, want api-create-params", got)
	}
}

func TestDeepLinkPreExpandedAtZeroSpeed(t *testing.T) {
	s, rec, _ := newTestSession(t, func(o *Options) { o.InitialHash = "#api-create-params" })

	effects := rec.Effects()
	if len(effects) < 2 || effects[0].Kind != EffectSpeed || effects[1].Kind != EffectHighlight {
		t.Fatalf("effects = %+v", effects)
	}
	if effects[0].ShowSpeedMS != 0 {
		t.Error("deep link expanded with a nonzero reveal speed")
	}
	want := "api,api-create,api-create-params"
	if got := strings.Join(effects[1].Expanded, ","); got != want {
		t.Errorf("expanded = %s, want %s", got, want)
	}
	if rec.Count(EffectReplaceHash) != 0 {
		t.Error("deep link should not rewrite its own hash")
	}
	if s.State().ActiveID != "api-create-params" {
		t.Errorf("active = %q", s.State().ActiveID)
	}
}

func TestScrollHighlightAndHistory(t *testing.T) {
	s, rec, clock := newTestSession(t, nil)
	endGrace(t, s, clock)
	s.Dispatch(Event{Kind: KindHeights, Tops: tops})

	tests := []struct {
		top  float64
		want string
	}{
		{0, "api"},
		{300, "api-create"},
		{1150, "api-delete"},
		{5000, "errors"},
	}
	for _, tt := range tests {
		s.Dispatch(Event{Kind: KindScroll, Top: tt.top})
		if got := s.State().ActiveID; got != tt.want {
			t.Errorf("scroll %.0f: active = %q, want %q", tt.top, got, tt.want)
		}
		if h, _ := rec.Last(EffectReplaceHash); h.Hash != "#"+tt.want {
			t.Errorf("scroll %.0f: hash = %q", tt.top, h.Hash)
		}
	}

	// Same position again changes nothing.
	n := len(rec.Effects())
	s.Dispatch(Event{Kind: KindScroll, Top: 5000})
	if len(rec.Effects()) != n {
		t.Error("unchanged active heading emitted effects")
	}
}

func TestScrollHistoryDisabled(t *testing.T) {
	s, rec, clock := newTestSession(t, func(o *Options) { o.ScrollHistory = false })
	endGrace(t, s, clock)
	s.Dispatch(Event{Kind: KindHeights, Tops: tops})
	s.Dispatch(Event{Kind: KindScroll, Top: 1150})
	if rec.Count(EffectReplaceHash) != 0 {
		t.Error("hash replaced with scroll history disabled")
	}
}

func TestHeightsRecomputeActive(t *testing.T) {
	s, _, clock := newTestSession(t, nil)
	endGrace(t, s, clock)
	s.Dispatch(Event{Kind: KindHeights, Tops: tops})
	s.Dispatch(Event{Kind: KindScroll, Top: 340})
	if s.State().ActiveID != "api-create" {
		t.Fatalf("active = %q", s.State().ActiveID)
	}

	// An image above pushes everything after the first heading down by 600px.
	shifted := []float64{0, 1000, 1400, 1800, 2600}
	s.Dispatch(Event{Kind: KindHeights, Tops: shifted})
	if s.State().ActiveID != "api" {
		t.Errorf("active after relayout = %q, want api", s.State().ActiveID)
	}
}

func TestRecalculateHeightsOnceAfterLastImage(t *testing.T) {
	s, rec, _ := newTestSession(t, nil)

	s.Dispatch(Event{Kind: KindImageSettled, Src: "a.png"})
	if rec.Count(EffectRecalculateHeights) != 0 {
		t.Fatal("recalculated before the last image settled")
	}
	s.Dispatch(Event{Kind: KindImageSettled, Src: "b.png", Failed: true})
	if rec.Count(EffectRecalculateHeights) != 1 {
		t.Fatal("failed image did not count as settled")
	}
	s.Dispatch(Event{Kind: KindImageSettled, Src: "late.png"})
	s.Dispatch(Event{Kind: KindImagesSettled})
	if n := rec.Count(EffectRecalculateHeights); n != 1 {
		t.Errorf("recalculations = %d, want 1", n)
	}
}

func TestNoImagesRecalculatesImmediately(t *testing.T) {
	_, rec, _ := newTestSession(t, func(o *Options) { o.TrackedImages = 0 })
	if rec.Count(EffectRecalculateHeights) != 1 {
		t.Error("page without images should recalculate once at start")
	}
}

func TestFlushCoalescesScrolls(t *testing.T) {
	s, rec, clock := newTestSession(t, nil)
	endGrace(t, s, clock)
	s.Dispatch(Event{Kind: KindHeights, Tops: tops})

	for _, top := range []float64{0, 340, 740, 1140, 1940} {
		s.Post(Event{Kind: KindScroll, Top: top})
	}
	s.Post(Event{Kind: KindToggle})
	s.Flush()

	if n := rec.Count(EffectHighlight); n != 1 {
		t.Errorf("highlights = %d, want 1 after coalescing", n)
	}
	if s.State().ActiveID != "errors" {
		t.Errorf("active = %q, want errors", s.State().ActiveID)
	}
	if s.Panel() != PanelOpen {
		t.Error("event queued behind scrolls was lost")
	}
}

func TestClosestAnchor(t *testing.T) {
	tests := []struct {
		tops   []float64
		target float64
		want   int
	}{
		{nil, 10, -1},
		{[]float64{0}, 1000, 0},
		{[]float64{0, 100, 200}, 60, 1},
		{[]float64{0, 100, 200}, 50, 0},
		{[]float64{0, 100, 50}, 40, 0},
	}
	for _, tt := range tests {
		if got := closestAnchor(tt.tops, tt.target); got != tt.want {
			t.Errorf("closestAnchor(%v, %v) = %d, want %d", tt.tops, tt.target, got, tt.want)
		}
	}
}

func TestRunProcessesPostedEvents(t *testing.T) {
	effects := make(chan Effect, 32)
	opts := DefaultOptions()
	opts.GraceWindow = time.Millisecond
	s := NewSession("run", testTree(t), opts, SinkFunc(func(e Effect) { effects <- e }))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	s.Post(Event{Kind: KindToggle})

	deadline := time.After(2 * time.Second)
	var sawOpen, sawSteady bool
	for !(sawOpen && sawSteady) {
		select {
		case e := <-effects:
			if e.Kind == EffectOpen && e.Open {
				sawOpen = true
			}
			if e.Kind == EffectSpeed && e.ShowSpeedMS == 180 {
				sawSteady = true
			}
		case <-deadline:
			t.Fatalf("timed out: open=%v steady=%v", sawOpen, sawSteady)
		}
	}

	cancel()
	if err := <-errc; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	if s.Post(Event{Kind: KindToggle}) {
		t.Error("Post succeeded after Run returned")
	}
}

func TestBusPublishCounts(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(KindToggle, func(Event) { got = append(got, "a") })
	b.Subscribe(KindToggle, func(Event) { got = append(got, "b") })
	if n := b.Publish(Event{Kind: KindToggle}); n != 2 {
		t.Errorf("Publish ran %d handlers, want 2", n)
	}
	if strings.Join(got, "") != "ab" {
		t.Errorf("handler order = %v", got)
	}
	if b.Publish(Event{Kind: KindScroll}) != 0 {
		t.Error("unsubscribed kind ran handlers")
	}
}
