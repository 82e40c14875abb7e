// queuectl inspects and manages the submission queues from the command line.
//
// Usage:
//
//	queuectl view      print pending and sent entries
//	queuectl drain     run one retry drain cycle now
//	queuectl clear     clear both queues
//	queuectl failures  list recently failed submissions from the archive
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"lead-relay/internal/archive"
	"lead-relay/internal/config"
	"lead-relay/internal/delivery"
	"lead-relay/internal/failstore"
	"lead-relay/internal/models"
	"lead-relay/internal/retry"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := failstore.New(rdb)
	ctx := context.Background()

	switch os.Args[1] {
	case "view":
		printQueue(ctx, store, "pending", failstore.QueuePendingRetry)
		printQueue(ctx, store, "sent", failstore.QueueSentHistory)
	case "drain":
		router := &delivery.Router{
			Email: delivery.NewEmailClient(cfg.EmailEndpoint, cfg.EmailUserID),
			Sheet: delivery.NewSheetClient(cfg.SheetWebhookURL),
		}
		depth := store.Depth(ctx, failstore.QueuePendingRetry)
		retry.New(store, router, 0, cfg.RetryInterval).DrainOnce(ctx)
		log.Printf("drained %d entries", depth)
	case "clear":
		store.Clear(ctx, failstore.QueuePendingRetry)
		store.Clear(ctx, failstore.QueueSentHistory)
		log.Print("queues cleared")
	case "failures":
		if cfg.PostgresDSN == "" {
			log.Fatal("failures requires POSTGRES_DSN")
		}
		arch, err := archive.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer arch.Close()
		recs, err := arch.RecentFailures(ctx, 50)
		if err != nil {
			log.Fatalf("query failures: %v", err)
		}
		fmt.Printf("failed submissions (%d)\n", len(recs))
		for _, rec := range recs {
			data, _ := json.Marshal(rec)
			fmt.Printf("  %s\n", data)
		}
	default:
		usage()
	}
}

func printQueue(ctx context.Context, store *failstore.Store, label, key string) {
	entries := store.ReadAll(ctx, key)
	fmt.Printf("%s (%d entries)\n", label, len(entries))
	for _, e := range entries {
		printEntry(e)
	}
}

func printEntry(e models.StoredEntry) {
	data, err := json.Marshal(e)
	if err != nil {
		fmt.Printf("  <unprintable entry: %v>\n", err)
		return
	}
	fmt.Printf("  %s\n", data)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: queuectl view|drain|clear|failures")
	os.Exit(2)
}
