package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/doctoc/internal/config"
	"github.com/ziadkadry99/doctoc/internal/tocsync"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is the incoming websocket message format. Only the fields
// relevant to Type are set.
type clientMessage struct {
	Type string `json:"type"`

	// ready
	Page   string `json:"page,omitempty"`
	Hash   string `json:"hash,omitempty"`
	Images int    `json:"images,omitempty"`

	ID     string    `json:"id,omitempty"`     // entry_select
	Top    float64   `json:"top,omitempty"`    // scroll
	Tops   []float64 `json:"tops,omitempty"`   // heights
	Src    string    `json:"src,omitempty"`    // image_settled
	Failed bool      `json:"failed,omitempty"` // image_settled
}

const msgReady = "ready"

// event maps a page message onto a session event. Kinds a page may not send,
// such as grace_elapsed, are rejected.
func (m clientMessage) event() (tocsync.Event, bool) {
	switch k := tocsync.Kind(m.Type); k {
	case tocsync.KindToggle, tocsync.KindDocumentClick:
		return tocsync.Event{Kind: k}, true
	case tocsync.KindEntrySelect:
		return tocsync.Event{Kind: k, ID: m.ID}, true
	case tocsync.KindScroll:
		return tocsync.Event{Kind: k, Top: m.Top}, true
	case tocsync.KindHeights:
		return tocsync.Event{Kind: k, Tops: m.Tops}, true
	case tocsync.KindImageSettled:
		return tocsync.Event{Kind: k, Src: m.Src, Failed: m.Failed}, true
	default:
		return tocsync.Event{}, false
	}
}

// SessionOptions maps the TOC configuration onto synchronizer options.
func SessionOptions(c config.TOCConfig) tocsync.Options {
	opts := tocsync.DefaultOptions()
	opts.HighlightOffset = c.HighlightOffset
	opts.ScrollHistory = c.ScrollHistory
	if c.ShowEffectSpeedMS > 0 {
		opts.ShowEffectSpeed = time.Duration(c.ShowEffectSpeedMS) * time.Millisecond
	}
	if c.HideEffectSpeedMS > 0 {
		opts.HideEffectSpeed = time.Duration(c.HideEffectSpeedMS) * time.Millisecond
	}
	if c.GraceWindowMS > 0 {
		opts.GraceWindow = time.Duration(c.GraceWindowMS) * time.Millisecond
	}
	return opts
}

// connSink writes effects to the websocket. Only the session goroutine calls
// it, so writes never race.
type connSink struct {
	conn   *websocket.Conn
	log    *zap.Logger
	cancel context.CancelFunc
}

func (c *connSink) Apply(e tocsync.Effect) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(e); err != nil {
		c.log.Warn("websocket write", zap.Error(err))
		c.cancel()
	}
}

// handleSync runs one synchronizer session per connection. The first message
// must be "ready"; it names the page and carries the values the session is
// started with.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	var hello clientMessage
	if err := conn.ReadJSON(&hello); err != nil {
		s.log.Debug("websocket closed before ready", zap.Error(err))
		return
	}
	if hello.Type != msgReady {
		s.log.Warn("websocket: first message must be ready", zap.String("type", hello.Type))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected ready"),
			time.Now().Add(writeWait))
		return
	}

	tree, ok := s.tree(hello.Page)
	if !ok {
		s.log.Warn("websocket: unknown page", zap.String("page", hello.Page))
	}

	id := uuid.New().String()
	log := s.log.With(zap.String("page", hello.Page))
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	opts := SessionOptions(s.cfg.TOC)
	opts.InitialHash = hello.Hash
	opts.TrackedImages = hello.Images
	opts.Logger = log
	opts.Clock = s.clock
	sess := tocsync.NewSession(id, tree, opts, &connSink{conn: conn, log: log, cancel: cancel})

	s.sessions.Add(1)
	defer s.sessions.Add(-1)
	log.Debug("sync session started", zap.String("session", id), zap.Int("entries", tree.Len()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx)
		// Unblocks the reader below when the session ends first.
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read", zap.Error(err))
			}
			break
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("websocket: invalid message", zap.Error(err))
			continue
		}
		ev, ok := msg.event()
		if !ok {
			log.Debug("websocket: ignored message", zap.String("type", msg.Type))
			continue
		}
		if !sess.Post(ev) {
			break
		}
	}

	cancel()
	<-done
	log.Debug("sync session ended", zap.String("session", id))
}
