package debug

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"

	"github.com/xraph/poke"
	"github.com/xraph/poke/internal/logger"
)

// Event types.
const (
	EventInject  = "inject"
	EventRelease = "release"
)

const (
	writeWait    = 5 * time.Second
	eventBacklog = 256
)

// Event is one message on the events stream.
type Event struct {
	Seq    uint64    `json:"seq"`
	Type   string    `json:"type"`
	Target string    `json:"target"`
	Time   time.Time `json:"time"`
}

// Events is a graph monitor that streams inject and release events to
// websocket clients. Register it with poke.WithMonitor and start Run.
type Events struct {
	logger   poke.Logger
	upgrader websocket.Upgrader

	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}

	seq     atomic.Uint64
	clients atomic.Int64
	dropped atomic.Uint64
}

// NewEvents creates an event hub. A nil log discards hub logs.
func NewEvents(log poke.Logger) *Events {
	if log == nil {
		log = logger.NewNoopLogger()
	}

	return &Events{
		logger:     log,
		broadcast:  make(chan []byte, eventBacklog),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

func (e *Events) OnInject(target any) {
	e.publish(EventInject, target)
}

func (e *Events) OnRelease(target any) {
	e.publish(EventRelease, target)
}

// Clients reports the connected websocket clients.
func (e *Events) Clients() int {
	return int(e.clients.Load())
}

// Dropped reports events discarded because the backlog was full.
func (e *Events) Dropped() uint64 {
	return e.dropped.Load()
}

// publish never blocks: monitors run while the graph is locked.
func (e *Events) publish(typ string, target any) {
	data, err := json.Marshal(Event{
		Seq:    e.seq.Add(1),
		Type:   typ,
		Target: fmt.Sprintf("%T", target),
		Time:   time.Now().UTC(),
	})
	if err != nil {
		e.logger.Error("encode event failed", logger.Error(err))

		return
	}

	select {
	case e.broadcast <- data:
	default:
		e.dropped.Add(1)
	}
}

// Run delivers events to clients until ctx is done, then closes every
// connection. Run must be called exactly once.
func (e *Events) Run(ctx context.Context) {
	conns := make(map[*websocket.Conn]struct{})

	defer func() {
		close(e.done)
		for conn := range conns {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			_ = conn.Close()
		}
		e.clients.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-e.register:
			conns[conn] = struct{}{}
			e.clients.Store(int64(len(conns)))
			e.logger.Debug("events client connected", logger.String("remote_addr", conn.RemoteAddr().String()))

		case conn := <-e.unregister:
			if _, ok := conns[conn]; ok {
				delete(conns, conn)
				_ = conn.Close()
				e.clients.Store(int64(len(conns)))
			}

		case msg := <-e.broadcast:
			for conn := range conns {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					e.logger.Warn("events client write failed", logger.Error(err))
					delete(conns, conn)
					_ = conn.Close()
					e.clients.Store(int64(len(conns)))
				}
			}
		}
	}
}

// ServeHTTP upgrades the request and holds the connection until the client
// goes away or Run stops. A client that leaves before Run starts is dropped
// without waiting for the hub.
func (e *Events) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Warn("events upgrade failed", logger.Error(err))

		return
	}

	// Clients only listen; reading surfaces the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case e.register <- conn:
	case <-e.done:
		_ = conn.Close()

		return
	case <-gone:
		_ = conn.Close()

		return
	case <-r.Context().Done():
		_ = conn.Close()

		return
	}

	<-gone

	select {
	case e.unregister <- conn:
	case <-e.done:
	}
}
