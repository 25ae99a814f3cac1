package ws

import (
	"context"
	"log/slog"

	"github.com/rezzza07/artmart/cache"
	"github.com/rezzza07/artmart/service"
)

type subscription struct {
	client    *Client
	artworkId string
}

type broadcast struct {
	artworkId string
	message   []byte
}

// Hub maintains the set of active clients and fans engagement events out
// to the clients watching each artwork.
type Hub struct {
	artmartCache              cache.ArtmartCache
	OpenCh                    chan *Client
	CloseCh                   chan *Client
	SubscribeCh               chan subscription
	UnsubscribeCh             chan subscription
	broadcastCh               chan broadcast
	userToClients             map[string]map[*Client]struct{}
	artworkToClients          map[string]map[*Client]struct{}
	artworkToSubscriberCancel map[string]context.CancelFunc
}

func NewHub(artmartCache cache.ArtmartCache) *Hub {
	return &Hub{
		artmartCache:              artmartCache,
		OpenCh:                    make(chan *Client, 256),
		CloseCh:                   make(chan *Client, 256),
		SubscribeCh:               make(chan subscription, 1024),
		UnsubscribeCh:             make(chan subscription, 1024),
		broadcastCh:               make(chan broadcast, 1024),
		userToClients:             make(map[string]map[*Client]struct{}),
		artworkToClients:          make(map[string]map[*Client]struct{}),
		artworkToSubscriberCancel: make(map[string]context.CancelFunc),
	}
}

const (
	maxConnectionsPerUser         = 3
	maxSubscriptionsPerConnection = 50
)

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.OpenCh:
			if _, ok := h.userToClients[client.email]; !ok {
				h.userToClients[client.email] = make(map[*Client]struct{})
			}

			if len(h.userToClients[client.email]) >= maxConnectionsPerUser {
				slog.Warn("User reached max connections", "email", client.email, "max", maxConnectionsPerUser)
				close(client.Send)
				continue
			}

			h.userToClients[client.email][client] = struct{}{}

		case client := <-h.CloseCh:
			for artworkId := range client.subscribedArtworks {
				delete(h.artworkToClients[artworkId], client)
				if len(h.artworkToClients[artworkId]) == 0 {
					if cancel, ok := h.artworkToSubscriberCancel[artworkId]; ok {
						cancel()
						delete(h.artworkToSubscriberCancel, artworkId)
					}
					delete(h.artworkToClients, artworkId)
				}
			}
			delete(h.userToClients[client.email], client)
			if len(h.userToClients[client.email]) == 0 {
				delete(h.userToClients, client.email)
			}

		case sub := <-h.SubscribeCh:
			if len(sub.client.subscribedArtworks) >= maxSubscriptionsPerConnection {
				slog.Warn("Connection reached max subscriptions", "email", sub.client.email, "max", maxSubscriptionsPerConnection)
				continue
			}
			if h.artworkToClients[sub.artworkId] == nil {
				ctx, cancel := context.WithCancel(context.Background())
				artworkId := sub.artworkId
				channel := service.ArtworkChannel(artworkId)

				// The pump goroutine never touches the hub maps; it hands
				// the message back to the Run loop for fan-out
				err := h.artmartCache.Subscribe(ctx, channel, func(messageBytes []byte) {
					h.broadcastCh <- broadcast{artworkId: artworkId, message: messageBytes}
				})
				if err != nil {
					slog.Error("Failed to create redis sub for channel", "channel", channel, "error", err)
					cancel()
					continue
				}

				h.artworkToClients[sub.artworkId] = make(map[*Client]struct{})
				h.artworkToSubscriberCancel[sub.artworkId] = cancel
			}
			h.artworkToClients[sub.artworkId][sub.client] = struct{}{}
			sub.client.subscribedArtworks[sub.artworkId] = struct{}{}

		case b := <-h.broadcastCh:
			for client := range h.artworkToClients[b.artworkId] {
				select {
				case client.Send <- b.message:
				default:
					// Client's write buffer is full; drop rather than stall
					// every other subscriber of this artwork
					slog.Warn("Dropping event for slow client", "email", client.email, "artworkId", b.artworkId)
				}
			}

		case unsub := <-h.UnsubscribeCh:
			delete(h.artworkToClients[unsub.artworkId], unsub.client)
			delete(unsub.client.subscribedArtworks, unsub.artworkId)
			if len(h.artworkToClients[unsub.artworkId]) == 0 {
				if cancel, ok := h.artworkToSubscriberCancel[unsub.artworkId]; ok {
					cancel()
					delete(h.artworkToSubscriberCancel, unsub.artworkId)
				}
				delete(h.artworkToClients, unsub.artworkId)
			}
		}
	}
}
