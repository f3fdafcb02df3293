package creator

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const jobQueue = "creator:jobs"

// Worker consumes rendering jobs from Redis one at a time. Clip
// generation must stay strictly serialized, so jobs are processed
// inline rather than in per-job goroutines.
type Worker struct {
	rdb      *redis.Client
	sessions *SessionStore
	pipeline *Pipeline
	hub      *Hub
}

func NewWorker(rdb *redis.Client, sessions *SessionStore, pipeline *Pipeline, hub *Hub) *Worker {
	pipeline.SetProgressFunc(hub.Broadcast)
	return &Worker{
		rdb:      rdb,
		sessions: sessions,
		pipeline: pipeline,
		hub:      hub,
	}
}

// Enqueue pushes a session onto the rendering queue.
func (w *Worker) Enqueue(ctx context.Context, sessionID string) error {
	if err := w.rdb.LPush(ctx, jobQueue, sessionID).Err(); err != nil {
		return err
	}
	log.Printf("📬 Rendering job queued: %s", sessionID)
	return nil
}

// Start blocks on the queue and renders each job to completion before
// taking the next one.
func (w *Worker) Start() {
	log.Println("🔄 Rendering worker starting...")
	log.Printf("👀 Watching queue: %s", jobQueue)

	ctx := context.Background()

	for {
		result, err := w.rdb.BRPop(ctx, 0, jobQueue).Result()
		if err != nil {
			log.Printf("❌ Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		sessionID := result[1]
		log.Printf("🎯 Received rendering job: %s", sessionID)
		w.process(ctx, sessionID)
	}
}

func (w *Worker) process(ctx context.Context, sessionID string) {
	project, ok := w.sessions.Get(sessionID)
	if !ok {
		log.Printf("⚠️ Rendering job for unknown session: %s", sessionID)
		return
	}

	if err := w.pipeline.FinalGenerate(ctx, project); err != nil {
		log.Printf("❌ Rendering job failed for %s: %v", sessionID, err)
		return
	}

	log.Printf("✅ Rendering job done for %s", sessionID)
}
