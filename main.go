package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talbenari/project_clara/internal/config"
	"github.com/talbenari/project_clara/internal/executor"
	"github.com/talbenari/project_clara/internal/gcal"
	"github.com/talbenari/project_clara/internal/interpreter"
	"github.com/talbenari/project_clara/internal/server"
	"github.com/talbenari/project_clara/internal/timeutil"
)

func main() {
	cfg := config.LoadFromEnv()

	loc, fellBack := timeutil.ResolveLocation(cfg.Timezone)
	if fellBack && cfg.Timezone != "" {
		fmt.Printf("Warning: unknown timezone %q, using UTC\n", cfg.Timezone)
	}

	interp := initInterpreter(cfg)
	gcalClient := initGCal(cfg)

	var exec *executor.Executor
	if gcalClient != nil && gcalClient.IsAuthenticated() {
		exec = executor.New(gcalClient, cfg.CalendarID, loc)
	}

	srv := server.New(server.Config{
		Interpreter: interp,
		Exec:        exec,
		GCalClient:  gcalClient,
		Location:    loc,
		Port:        cfg.HTTPPort,
	})
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "HTTP server error: %v\n", err)
		}
	}()

	if gcalClient != nil && !gcalClient.IsAuthenticated() {
		fmt.Printf("Google Calendar not authorized yet. Visit: %s\n", gcalClient.GetAuthURL())
	}

	if cfg.DevMode {
		fmt.Printf("Dev mode: model=%s temperature=%.2f timezone=%s calendar=%s\n",
			cfg.ClaudeModel, cfg.ClaudeTemperature, loc.String(), cfg.CalendarID)
	}

	waitForShutdown(srv)
}

func initInterpreter(cfg *config.Config) *interpreter.Interpreter {
	if cfg.AnthropicAPIKey == "" {
		fmt.Println("Warning: ANTHROPIC_API_KEY not set, running with the local parser only")
	} else {
		fmt.Println("Command resolver configured (tool-calling mode)")
	}

	return interpreter.NewDefault(interpreter.RemoteConfig{
		APIKey:      cfg.AnthropicAPIKey,
		Model:       cfg.ClaudeModel,
		Temperature: cfg.ClaudeTemperature,
	}, interpreter.WithTimeout(time.Duration(cfg.RemoteTimeoutSeconds)*time.Second))
}

func initGCal(cfg *config.Config) *gcal.Client {
	client, err := gcal.NewClient(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile)
	if err != nil {
		fmt.Printf("Warning: Google Calendar not configured: %v\n", err)
		return nil
	}

	if client.IsAuthenticated() {
		fmt.Println("Google Calendar client initialized")
	}
	return client
}

func waitForShutdown(srv *server.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv.Shutdown(ctx)
}
