// outbox-dispatcher runs the transactional-outbox publisher as a standalone
// process. It polls the outbox table and publishes pending order/payment
// events to Pub/Sub until terminated.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	PUBSUB_PROJECT_ID=... PUBSUB_TOPIC=... go run ./cmd/outbox-dispatcher
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/workflow"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.EnsureOrderEventsTopic(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pubsub topic not ready: %v\n", err)
		os.Exit(1)
	}

	dispatcher := workflow.NewOutboxDispatcher(db, logger)
	fmt.Printf("outbox dispatcher %s started\n", dispatcher.DispatcherID)
	dispatcher.Run(ctx)
	fmt.Println("outbox dispatcher stopped")
}
