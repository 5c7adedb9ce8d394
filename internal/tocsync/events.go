// Package tocsync keeps a page's TOC panel in step with the reader's position
// in the document body.
//
// A Session consumes events reported by the page (toggle presses, clicks,
// scroll positions, image settles, measured heading offsets) on a single
// goroutine and answers with Effects for the page to apply. All state lives in
// the Session, so any number of pages can be synchronized in one process.
package tocsync

// Kind names an event type on the bus.
type Kind string

const (
	KindToggle        Kind = "toggle"
	KindDocumentClick Kind = "document_click"
	KindEntrySelect   Kind = "entry_select"
	KindScroll        Kind = "scroll"
	KindHeights       Kind = "heights"
	KindImageSettled  Kind = "image_settled"
	KindImagesSettled Kind = "images_settled"
	KindGraceElapsed  Kind = "grace_elapsed"
)

// Event is a single occurrence delivered to a Session. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind Kind

	ID     string    // entry_select: the chosen entry.
	Top    float64   // scroll: document scroll offset in pixels.
	Tops   []float64 // heights: anchor offsets, in document order.
	Src    string    // image_settled
	Failed bool      // image_settled: the image errored instead of loading.
}

// Handler reacts to one event.
type Handler func(Event)

// Bus is a synchronous, typed event bus. Handlers run in subscription order
// on the publisher's goroutine.
type Bus struct {
	handlers map[Kind][]Handler
	order    []Kind
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers h for events of kind k.
func (b *Bus) Subscribe(k Kind, h Handler) {
	b.handlers[k] = append(b.handlers[k], h)
	b.order = append(b.order, k)
}

// Publish delivers ev to every handler subscribed to its kind and returns how
// many ran. Events nobody listens to are dropped.
func (b *Bus) Publish(ev Event) int {
	hs := b.handlers[ev.Kind]
	for _, h := range hs {
		h(ev)
	}
	return len(hs)
}

// Subscriptions returns the subscribed kinds in registration order.
func (b *Bus) Subscriptions() []Kind {
	out := make([]Kind, len(b.order))
	copy(out, b.order)
	return out
}
