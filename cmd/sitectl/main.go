// main.go - Admin control tool for sitepulse
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitepulse/internal"
	"sitepulse/internal/analytics"
	"sitepulse/internal/auth"
	"sitepulse/internal/config"
	"sitepulse/internal/seeder"
	"sitepulse/internal/sites"
	"sitepulse/internal/timeframe"
	"sitepulse/internal/visits"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&SeedCommand{},
	&TokenCommand{},
	&ReportCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	// help and token do not need the database
	var app *internal.Application
	if needsApp(cmd) {
		var err error
		app, err = internal.NewApp()
		if err != nil {
			log.Fatalf("Failed to initialize app: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}()
	}

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}

func needsApp(cmd Command) bool {
	switch cmd.(type) {
	case *HelpCommand, *TokenCommand:
		return false
	}
	return true
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates the DB with demo sites and visits
type SeedCommand struct{}

func (c *SeedCommand) Name() string { return "seed" }
func (c *SeedCommand) Description() string {
	return "Seeds sites and visits from a YAML fixture (default: built-in demo data)"
}

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	var (
		fixture *seeder.Fixture
		err     error
	)
	if len(args) > 0 {
		fixture, err = seeder.LoadFixture(args[0])
	} else {
		fixture, err = seeder.DefaultFixture()
	}
	if err != nil {
		return err
	}

	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return seeder.NewSeeder(app.DBManager, slog.Default()).Run(ctx, fixture)
}

// TokenCommand mints a bearer token for local testing of the analytics API
type TokenCommand struct{}

func (c *TokenCommand) Name() string { return "token" }
func (c *TokenCommand) Description() string {
	return "Prints a bearer token for <userId> [-ttl 24h]"
}

func (c *TokenCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: %s [-ttl 24h] <userId>", c.Name())
	}

	cfg := config.GetConfig()
	token, err := auth.NewVerifier(cfg.GetJWTSecret(), cfg.JWTIssuer).Issue(fs.Arg(0), *ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}

// ReportCommand prints the analytics summary of a user as JSON
type ReportCommand struct{}

func (c *ReportCommand) Name() string { return "report" }
func (c *ReportCommand) Description() string {
	return "Prints the analytics summary for <userId> [-site id] [-start date] [-end date]"
}

func (c *ReportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	siteID := fs.String("site", "", "limit the report to one site")
	startDate := fs.String("start", "", "window start (RFC3339 or YYYY-MM-DD)")
	endDate := fs.String("end", "", "window end (RFC3339 or YYYY-MM-DD)")
	tz := fs.String("tz", "", "timezone for date-only bounds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: %s [-site id] [-start date] [-end date] <userId>", c.Name())
	}

	r, err := timeframe.ParseRange(timeframe.RangeParams{StartDate: *startDate, EndDate: *endDate, Tz: *tz})
	if err != nil {
		return err
	}

	cfg := config.GetConfig()
	logger := slog.Default()
	service := analytics.NewService(
		sites.NewStore(app.DBManager, logger),
		visits.NewStore(app.DBManager, logger, cfg.GetQueryTimeout()),
		logger,
		cfg.GetAnalyticsWorkers(),
	)

	summary, err := service.GetAnalytics(ctx, analytics.Query{UserID: fs.Arg(0), SiteID: *siteID, Range: r})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()

	var siteCount, visitCount int64
	if err := db.Model(&sites.Site{}).Count(&siteCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&visits.Visit{}).Count(&visitCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Sites: %d", siteCount)
	log.Printf("- Visits: %d", visitCount)
	log.Printf("- Max Open Connections: %d", sqlDB.Stats().MaxOpenConnections)
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: sitectl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
