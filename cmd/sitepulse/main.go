// main.go - HTTP server application
package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"sitepulse/internal"
	"sitepulse/internal/pkg/geoip"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

func main() {
	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed")

	log.Println("Starting application...")
	if err := app.StartAsync(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
	log.Println("Application started successfully")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		defaultShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Println("Initiating graceful shutdown...")
				return app.Shutdown(ctx)
			},
			"geoip": func(ctx context.Context) error {
				geoip.Close()
				return nil
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server shutdown complete (exit code %d)", exitCode)
	os.Exit(exitCode)
}
