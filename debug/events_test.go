package debug

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/poke"
)

type other struct {
	Repo *Repo `inject:""`
}

func readEvent(t *testing.T, conn *websocket.Conn, target string) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		if ev.Target == target {
			return ev
		}
	}
}

func TestEventsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := NewEvents(nil)
	go events.Run(ctx)

	g := newTestGraph(t, poke.WithMonitor(events))

	srv := httptest.NewServer(NewHandler(g, nil, WithEvents(events)))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return events.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	o := &other{}
	require.NoError(t, poke.Inject(g, o))
	injected := readEvent(t, conn, "*debug.other")
	assert.Equal(t, EventInject, injected.Type)

	require.NoError(t, poke.Release(g, o))
	released := readEvent(t, conn, "*debug.other")
	assert.Equal(t, EventRelease, released.Type)
	assert.Greater(t, released.Seq, injected.Seq)

	cancel()
	require.Eventually(t, func() bool { return events.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)

	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestEventsDropWhenBacklogFull(t *testing.T) {
	events := NewEvents(nil)

	for i := 0; i < eventBacklog+3; i++ {
		events.OnInject(&other{})
	}

	assert.Equal(t, uint64(3), events.Dropped())
}

func TestEventsRouteOnlyWithOption(t *testing.T) {
	rec := get(t, NewHandler(newTestGraph(t), nil), "/events", nil)
	assert.Equal(t, 404, rec.Code)
}

func TestEventsClientBeforeRun(t *testing.T) {
	events := NewEvents(nil)

	returned := make(chan struct{}, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		events.ServeHTTP(w, r)
		returned <- struct{}{}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	// Leaving before the hub runs releases the handler.
	early, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.NoError(t, early.Close())

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("handler still waiting for the hub")
	}

	// Staying connected registers once the hub starts.
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go events.Run(ctx)

	require.Eventually(t, func() bool { return events.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not return after the hub stopped")
	}
}
