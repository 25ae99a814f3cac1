package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/rezzza07/artmart/mq"
	"github.com/rezzza07/artmart/store"
)

// CleanupArtworkMessage asks for the like/favorite rows of a deleted artwork
// to be swept away. The artwork row itself is already gone by the time this
// message is enqueued.
type CleanupArtworkMessage struct {
	ArtworkId string `json:"artworkId"`
}

type CleanupConsumer struct {
	cleanupQueue mq.MessageQueue
	artmartStore store.ArtmartStore
}

func NewCleanupConsumer(cleanupQueue mq.MessageQueue, artmartStore store.ArtmartStore) *CleanupConsumer {
	return &CleanupConsumer{
		cleanupQueue: cleanupQueue,
		artmartStore: artmartStore,
	}
}

// Allow up to 5 minutes for the throttled batch deletion of the artwork's
// engagement rows
const visibilityTimeout = 300

func (cleanupConsumer CleanupConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := cleanupConsumer.cleanupQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			slog.Error("cleanup consumer receive error", "error", err)
			continue
		}

		if msg == nil {
			continue
		}

		var cleanupMsg CleanupArtworkMessage
		if err := json.Unmarshal([]byte(msg.Body), &cleanupMsg); err != nil {
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)

		err = cleanupConsumer.artmartStore.DeleteArtworkEngagements(ctx, cleanupMsg.ArtworkId)
		cancel()
		if err != nil {
			slog.Error("failed to delete artwork engagements", "artworkId", cleanupMsg.ArtworkId, "error", err)
			continue
		}

		slog.Info("cleaned up engagements for deleted artwork", "artworkId", cleanupMsg.ArtworkId)

		if err := cleanupConsumer.cleanupQueue.Delete(context.Background(), msg); err != nil {
			slog.Error("cleanup consumer delete error", "error", err)
			continue
		}
	}
}
