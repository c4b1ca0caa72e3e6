package main

import (
	"context"
	"log"
	"os"

	"school_resource_hub/app"
	"school_resource_hub/notify"
	"school_resource_hub/routes"
)

func main() {
	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	s := routes.RegisterRoutes(r, application)

	// Debounced change subscription: other writers (or other instances of
	// this service) publish on redis; we drop the affected cache keys once
	// per quiesced burst.
	sub := notify.NewSubscriber(application.RDB, application.Cache, application.Log, notify.SubscriberOpts{
		DebounceDelay:  application.Config.DebounceDelay,
		HeartbeatEvery: application.Config.HeartbeatEvery,
	})
	sub.Start()
	defer sub.Close()

	// Scheduled reconciliation, if enabled.
	if every := application.Config.ReconcileEvery; every > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go s.Rec.RunEvery(ctx, every)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
