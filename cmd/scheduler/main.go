package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ordermart/ordermart/app/scheduler"
	"github.com/ordermart/ordermart/pkg/utils"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := scheduler.Initialize(ctx)
	if err != nil {
		panic(err)
	}

	// Immediate pass before cron
	if utils.EnvBool("RUN_ON_START", false) {
		app.RunOnce(ctx)
	}

	// Start cron scheduler
	app.StartCron()

	// Start server
	app.Start(ctx)
}
