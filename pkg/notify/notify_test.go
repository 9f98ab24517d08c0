package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

func TestDecodeEvent(t *testing.T) {
	arg, _ := json.Marshal(`{"message":"OK","data":{"projectId":"p1","wallets":[]}}`)
	ev, err := DecodeEvent(TagSimulateCompleted, arg)
	require.NoError(t, err)
	assert.True(t, ev.Success)
	sim, err := ev.Simulation()
	require.NoError(t, err)
	assert.Equal(t, "p1", sim.ProjectID)

	arg, _ = json.Marshal(`{"message":"Failed","error":"pool not found"}`)
	ev, err = DecodeEvent(TagBuyCompleted, arg)
	require.NoError(t, err)
	assert.False(t, ev.Success)
	var evErr *types.EventError
	require.ErrorAs(t, ev.Err(), &evErr)
	assert.Equal(t, "pool not found", evErr.Message)

	ev, err = DecodeEvent(TagSellCompleted, json.RawMessage(`{"message":"OK","project":{"_id":"p2","status":"TRADE"}}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Project)
	assert.Equal(t, types.ProjectTrade, ev.Project.Status)

	ev, err = DecodeEvent(TagBuyPending, nil)
	require.NoError(t, err)
	assert.True(t, ev.Success)

	ev, err = DecodeEvent(TagLog, json.RawMessage(`"bundle sent"`))
	require.NoError(t, err)
	assert.Equal(t, "bundle sent", ev.Text)
}

func TestParseEventWithNamespaceAndAck(t *testing.T) {
	name, args, err := parseEvent([]byte(`/admin,12["CLOSE_TOKEN","{}"]`))
	require.NoError(t, err)
	assert.Equal(t, TagCloseToken, name)
	assert.Len(t, args, 1)

	frame, err := encodeEvent(emitNewUser, "u1")
	require.NoError(t, err)
	assert.Equal(t, `42["NEW_USER","u1"]`, string(frame))
}

func TestSocketURL(t *testing.T) {
	u, err := SocketURL("https://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/socket.io/?EIO=4&transport=websocket", u)

	_, err = SocketURL("ftp://x")
	assert.Error(t, err)
}

func TestHubFanOutAndDrops(t *testing.T) {
	hub := NewHub(1)
	all := hub.Subscribe()
	sims := hub.Subscribe(TagSimulateCompleted)
	defer all.Close()
	defer sims.Close()

	hub.Publish(Event{Tag: TagSimulateCompleted, Success: true})
	hub.Publish(Event{Tag: TagBuyCompleted, Success: true})

	ctx := context.Background()
	ev, err := sims.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, TagSimulateCompleted, ev.Tag)

	ev, err = all.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, TagSimulateCompleted, ev.Tag)
	assert.Equal(t, uint64(1), all.Dropped())
	assert.Equal(t, uint64(0), sims.Dropped())
	assert.Equal(t, uint64(1), hub.Dropped())

	latest, ok := hub.Latest()
	require.True(t, ok)
	assert.Equal(t, TagBuyCompleted, latest.Tag)
}

func TestHubAwaitOnlySeesLaterEvents(t *testing.T) {
	hub := NewHub(0)
	hub.Publish(Event{Tag: TagDisperseCompleted})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan Event, 1)
	ready := make(chan struct{})
	go func() {
		sub := hub.Subscribe(TagDisperseCompleted)
		defer sub.Close()
		close(ready)
		ev, _ := sub.Next(ctx)
		done <- ev
	}()
	<-ready
	hub.Publish(Event{Tag: TagDisperseCompleted, Success: true})
	ev := <-done
	assert.True(t, ev.Success)

	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	_, err := hub.Await(short, TagCollectAllFee)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// fakeSocketIO speaks just enough Engine.IO v4 to drive the listener.
func fakeSocketIO(t *testing.T, announced chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/socket.io/", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("EIO"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		send := func(s string) { _ = conn.WriteMessage(websocket.TextMessage, []byte(s)) }
		read := func() string {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return ""
			}
			return string(msg)
		}

		send(`0{"sid":"s1","pingInterval":25000,"pingTimeout":20000}`)
		if read() != "40" {
			return
		}
		send(`40{"sid":"n1"}`)
		announced <- read()
		send("2")
		if read() != "3" {
			return
		}
		payload, _ := json.Marshal(`{"message":"OK","data":{"projectId":"p1"}}`)
		send(`42["SIMULATE_COMPLETED",` + string(payload) + `]`)
		// hold the connection until the client leaves
		for read() != "" {
		}
	}))
}

func TestListenerSession(t *testing.T) {
	announced := make(chan string, 1)
	srv := fakeSocketIO(t, announced)
	defer srv.Close()

	hub := NewHub(8)
	sub := hub.Subscribe(TagConnect, TagSimulateCompleted)
	defer sub.Close()

	var hooked []string
	l, err := NewListener(strings.Replace(srv.URL, "http://", "ws://", 1), "u1", hub,
		WithEventHook(func(ev Event) { hooked = append(hooked, ev.Tag) }))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	ev, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, TagConnect, ev.Tag)
	assert.Equal(t, `42["NEW_USER","u1"]`, <-announced)

	ev, err = sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, TagSimulateCompleted, ev.Tag)
	assert.True(t, ev.Success)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Contains(t, hooked, TagSimulateCompleted)
}
