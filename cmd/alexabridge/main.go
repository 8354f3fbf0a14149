// Gray Logic Alexa Bridge
//
// This is the main entry point for the Alexa smart home bridge. The bridge
// translates Alexa Smart Home directives into Gray Logic item operations and
// runs in one of two modes:
//   - AWS Lambda (when invoked by the Alexa skill infrastructure)
//   - Standalone HTTP server (for self-hosted skill endpoints and testing)
//
// The mode is selected automatically: Lambda when the AWS runtime environment
// is detected, HTTP otherwise.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/api"
	"github.com/nerrad567/gray-logic-alexa/internal/directive"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/items"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Alexa Bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Create the item API client
	client := items.New(cfg.Server, log)
	log.Info("item client configured", "base_url", cfg.Server.BaseURL)

	// Create the directive dispatcher
	dispatcher := directive.New(cfg, client, log)

	// Lambda mode: the AWS runtime sets AWS_LAMBDA_FUNCTION_NAME. The skill
	// invokes the function with the raw directive envelope, so no HTTP layer
	// is needed.
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		log.Info("running as AWS Lambda handler")
		lambda.StartWithOptions(func(lctx context.Context, req *alexa.Request) (*alexa.Response, error) {
			return dispatcher.Dispatch(lctx, req), nil
		}, lambda.WithContext(ctx))
		return nil
	}

	// Standalone mode: serve the directive endpoint over HTTP
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Security:   cfg.Security,
		Logger:     log,
		Dispatcher: dispatcher,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Gray Logic Alexa Bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ALEXABRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ALEXABRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
