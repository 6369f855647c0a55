package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"qrattend/internal/config"
	"qrattend/internal/queue"
	"qrattend/internal/scan"
	"qrattend/internal/store"
)

// Worker consumes scan outcome events and keeps per-day tallies in Redis so
// dashboards can read counts without querying the ledger.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis not reachable at %s, tallies will fail until it returns", cfg.RedisAddr)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "qrattend:outcomes")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for outcome events...")
	for msg := range messages {
		if msg.Type != "outcome" {
			continue
		}

		var evt scan.OutcomeEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad outcome event: %v", err)
			continue
		}

		if err := redisClient.IncrTally(ctx, evt.Day, evt.Outcome); err != nil {
			log.Printf("tally %s/%s failed: %v", evt.Day, evt.Outcome, err)
			continue
		}
		log.Printf("station=%s user=%s outcome=%s at %s %s",
			evt.Station, evt.UserID, evt.Outcome, evt.Day, evt.TimeOfDay)
	}

	log.Println("worker stopped")
}
