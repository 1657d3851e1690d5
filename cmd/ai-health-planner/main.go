package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-health-planner/internal/app"
	"ai-health-planner/internal/config"
	"ai-health-planner/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// issue-token only needs the secret, not a generation backend.
	if os.Args[1] == "issue-token" {
		if err := issueToken(os.Args[2:], os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("failed to issue token")
		}
		return
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	app.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	switch os.Args[1] {
	case "serve":
		err = serve(ctx, cfg, application)
	case "generate-meals":
		userID := requireUser("generate-meals", os.Args[2:])
		err = application.GenerateMeals(ctx, userID, os.Stdout)
	case "generate-workout":
		userID := requireUser("generate-workout", os.Args[2:])
		err = application.GenerateWorkout(ctx, userID, os.Stdout)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])
		err = application.CleanupMetrics(ctx, *days, os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		application.Close()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, application *app.App) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable not set")
	}
	srv := server.NewHTTPServer(cfg, application.ServerDependencies())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	// In-flight generations may run up to the LLM timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.LLMTimeout+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exiting")
	return nil
}

func issueToken(args []string, out io.Writer) error {
	cmd := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	ttl := cmd.Duration("ttl", 30*24*time.Hour, "Token lifetime")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if cmd.NArg() != 1 {
		return errors.New("usage: ai-health-planner issue-token [-ttl 720h] <user-id>")
	}

	token, err := server.IssueToken([]byte(os.Getenv("JWT_SECRET")), cmd.Arg(0), *ttl, time.Now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func requireUser(command string, args []string) string {
	if len(args) != 1 || args[0] == "" {
		fmt.Printf("Usage: ai-health-planner %s <user-id>\n", command)
		os.Exit(1)
	}
	return args[0]
}

func printUsage() {
	fmt.Println("Usage: ai-health-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve                      Run the HTTP API")
	fmt.Println("  generate-meals <user>      Generate today's breakfast, lunch and dinner")
	fmt.Println("  generate-workout <user>    Generate today's workout")
	fmt.Println("  metrics-cleanup -days N    Remove old metric records")
	fmt.Println("  issue-token <user>         Print a bearer token for the API")
}
