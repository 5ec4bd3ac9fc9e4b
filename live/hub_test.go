package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gameon-esports/gameon-rooms/models"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	return hub
}

// The broadcast path never touches the websocket connection, so clients with
// a bare Send channel are enough to exercise fan-out.
func newTestClient(hub *Hub, tournamentID, buffer int) *Client {
	client := &Client{
		Hub:          hub,
		Send:         make(chan []byte, buffer),
		TournamentID: tournamentID,
	}
	hub.Register <- client
	waitRegistered(hub, client, true)
	return client
}

func waitRegistered(hub *Hub, client *Client, want bool) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		_, ok := hub.rooms[client.TournamentID][client]
		hub.mu.RUnlock()
		if ok == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func receive(t *testing.T, client *Client) RoomEvent {
	t.Helper()
	select {
	case payload := <-client.Send:
		var event RoomEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return RoomEvent{}
	}
}

func TestBroadcastReachesSubscribedClients(t *testing.T) {
	hub := newTestHub()
	a := newTestClient(hub, 1, 4)
	b := newTestClient(hub, 1, 4)
	other := newTestClient(hub, 2, 4)

	room := models.NewRoom(1, 2, 4)
	room.PlacePlayer(models.SlotRef{TeamNumber: 1, SlotNumber: 1}, 101)
	hub.BroadcastRoomEvent(RoomEvent{
		Type:         EventPlayerMoved,
		TournamentID: 1,
		Room:         room,
		At:           time.Now().UTC(),
	})

	for _, client := range []*Client{a, b} {
		event := receive(t, client)
		require.Equal(t, EventPlayerMoved, event.Type)
		require.Equal(t, 1, event.TournamentID)
		require.NotNil(t, event.Room)
		require.Equal(t, 1, event.Room.TotalPlayers)
		require.Nil(t, event.AdminID)
	}

	select {
	case <-other.Send:
		t.Fatal("client on another tournament must not receive the event")
	default:
	}
}

func TestBroadcastToEmptyRoomIsNoOp(t *testing.T) {
	hub := newTestHub()

	hub.BroadcastRoomEvent(RoomEvent{
		Type:         EventSlotsLocked,
		TournamentID: 99,
		Room:         models.NewRoom(99, 1, 1),
		At:           time.Now().UTC(),
	})
}

func TestBroadcastDropsWhenClientBufferFull(t *testing.T) {
	hub := newTestHub()
	slow := newTestClient(hub, 1, 1)

	room := models.NewRoom(1, 2, 4)
	event := RoomEvent{Type: EventPlayerMoved, TournamentID: 1, Room: room, At: time.Now().UTC()}
	hub.BroadcastRoomEvent(event)
	hub.BroadcastRoomEvent(event)

	// The first fills the buffer; the second is dropped, not blocked on.
	<-slow.Send
	select {
	case <-slow.Send:
		t.Fatal("second event should have been dropped")
	default:
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, 1, 4)

	hub.Unregister <- client
	waitRegistered(hub, client, false)

	require.Eventually(t, func() bool {
		select {
		case _, open := <-client.Send:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// Broadcasting after the last client left is a no-op.
	hub.BroadcastRoomEvent(RoomEvent{
		Type:         EventPlayerMoved,
		TournamentID: 1,
		Room:         models.NewRoom(1, 1, 1),
		At:           time.Now().UTC(),
	})
}

func TestAdminIdentitySurvivesRoundTrip(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, 1, 4)

	adminID := 900
	hub.BroadcastRoomEvent(RoomEvent{
		Type:         EventSlotsLocked,
		TournamentID: 1,
		Room:         models.NewRoom(1, 2, 4),
		AdminID:      &adminID,
		At:           time.Now().UTC(),
	})

	event := receive(t, client)
	require.Equal(t, EventSlotsLocked, event.Type)
	require.NotNil(t, event.AdminID)
	require.Equal(t, 900, *event.AdminID)
}
