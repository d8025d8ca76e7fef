package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"factoryfeed/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return Event{}
	}
}

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register(2, nil)
	assert.NoError(t, err)
	assert.Equal(t, maxConnsPerUser+1, hub.Count())
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	hub.Unregister(c)
	hub.Unregister(c)
	assert.Zero(t, hub.Count())

	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	_, ok := <-c.Send
	assert.False(t, ok)

	hub.Unregister(c)
	_, err = hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestClient_DropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize+5; i++ {
		hub.BroadcastAll([]byte(`{"type":"x"}`))
	}
	assert.Len(t, c.Send, sendBufferSize)
}

func TestPublisher_LocalDelivery(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)
	p := NewPublisher(hub, NewNotifier(nil), nil)
	ctx := context.Background()

	p.PostCreated(ctx, &models.Post{ID: 5, Content: "hello"})
	ev := recv(t, c)
	assert.Equal(t, models.EventPostCreated, ev.Type)

	p.PostReactionUpdated(ctx, 5, 3, models.LikeAdded)
	ev = recv(t, c)
	assert.Equal(t, models.EventPostReactionUpdated, ev.Type)
	payload := ev.Payload.(map[string]any)
	assert.EqualValues(t, 5, payload["post_id"])
	assert.EqualValues(t, 3, payload["like_count"])
	assert.Equal(t, "added", payload["action"])

	p.PostDeleted(ctx, 5)
	assert.Equal(t, models.EventPostDeleted, recv(t, c).Type)
}

func TestPublisher_RedisFanOut(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two instances sharing one Redis.
	hubA, hubB := NewHub(), NewHub()
	require.NoError(t, hubA.StartWiring(ctx, NewNotifier(rdb)))
	require.NoError(t, hubB.StartWiring(ctx, NewNotifier(rdb)))
	clientA, err := hubA.Register(1, nil)
	require.NoError(t, err)
	clientB, err := hubB.Register(2, nil)
	require.NoError(t, err)

	p := NewPublisher(hubA, NewNotifier(rdb), nil)
	p.PostDeleted(ctx, 9)

	assert.Equal(t, models.EventPostDeleted, recv(t, clientA).Type)
	assert.Equal(t, models.EventPostDeleted, recv(t, clientB).Type)
	assert.Empty(t, clientA.Send, "delivered once, through Redis only")
}

type fakeNATS struct {
	mu       sync.Mutex
	subjects []string
	data     [][]byte
	err      error
}

func (f *fakeNATS) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.data = append(f.data, data)
	return f.err
}

func TestPublisher_FactoryAlertGoesToBus(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)
	bus := &fakeNATS{}
	p := NewPublisher(hub, nil, NewAlertBus(bus, ""))

	alert := models.FactoryAlert{FactoryID: "factory_001", FactoryName: "F1", AlertType: "overheat", Priority: models.PriorityEmergency}
	p.FactoryAlert(context.Background(), alert)

	assert.Equal(t, models.EventFactoryAlert, recv(t, c).Type)
	require.Len(t, bus.subjects, 1)
	assert.Equal(t, "factory.alerts.factory_001", bus.subjects[0])

	var got models.FactoryAlert
	require.NoError(t, json.Unmarshal(bus.data[0], &got))
	assert.Equal(t, alert.AlertType, got.AlertType)
}

func TestPublisher_BusFailureStillDeliversLocally(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)
	p := NewPublisher(hub, nil, NewAlertBus(&fakeNATS{err: errors.New("no responders")}, "alerts"))

	p.FactoryAlert(context.Background(), models.FactoryAlert{FactoryID: "factory_002"})
	assert.Equal(t, models.EventFactoryAlert, recv(t, c).Type)
}

func TestAlertBus_NilDiscards(t *testing.T) {
	var bus *AlertBus
	assert.NoError(t, bus.Publish(models.FactoryAlert{FactoryID: "factory_001"}))
}
