package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	cachemocks "github.com/rezzza07/artmart/cache/mocks"
	"github.com/rezzza07/artmart/service"
)

const hubTestArtId = "018e38d7-0000-7000-8000-000000000001"

// Fan-out runs inside the hub loop; the pub/sub callback only hands the
// message over, so subscribers receive it without the callback ever reading
// the hub's client maps.
func TestHubBroadcastFanout(t *testing.T) {
	mockCache := new(cachemocks.MockCache)
	handlerCh := make(chan func(message []byte), 1)
	mockCache.On("Subscribe", mock.Anything, service.ArtworkChannel(hubTestArtId), mock.Anything).
		Run(func(args mock.Arguments) {
			handlerCh <- args.Get(2).(func(message []byte))
		}).Return(nil)

	hub := NewHub(mockCache)
	go hub.Run()

	client := NewClient(hub, nil, "a@example.com", nil)
	hub.OpenCh <- client
	hub.SubscribeCh <- subscription{client: client, artworkId: hubTestArtId}

	var handler func(message []byte)
	select {
	case handler = <-handlerCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel subscription")
	}

	handler([]byte(`{"type":"likes_updated"}`))

	select {
	case msg := <-client.Send:
		assert.JSONEq(t, `{"type":"likes_updated"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fan-out")
	}
}

// A subscriber whose send buffer is full must not block delivery to the rest.
func TestHubBroadcastSkipsSlowClient(t *testing.T) {
	mockCache := new(cachemocks.MockCache)
	handlerCh := make(chan func(message []byte), 1)
	mockCache.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			handlerCh <- args.Get(2).(func(message []byte))
		}).Return(nil)

	hub := NewHub(mockCache)
	go hub.Run()

	slow := NewClient(hub, nil, "slow@example.com", nil)
	healthy := NewClient(hub, nil, "healthy@example.com", nil)
	hub.OpenCh <- slow
	hub.OpenCh <- healthy
	hub.SubscribeCh <- subscription{client: slow, artworkId: hubTestArtId}
	hub.SubscribeCh <- subscription{client: healthy, artworkId: hubTestArtId}

	var handler func(message []byte)
	select {
	case handler = <-handlerCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel subscription")
	}

	// Nudge until a delivery lands on healthy, which proves both
	// subscriptions have been processed by the hub loop
	deadline := time.Now().Add(2 * time.Second)
warmup:
	for {
		handler([]byte("warmup"))
		select {
		case <-healthy.Send:
			break warmup
		case <-time.After(20 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("timed out waiting for subscriptions to register")
			}
		}
	}

	// Nobody drains slow's Send, so fill it to the brim
fill:
	for {
		select {
		case slow.Send <- []byte("backlog"):
		default:
			break fill
		}
	}

	handler([]byte("event"))

	// Stray warmup deliveries may still be in flight; wait for the event itself
	for {
		select {
		case msg := <-healthy.Send:
			if string(msg) == "event" {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for fan-out")
		}
	}
}
