package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/fusionflow/meetlink/internal/calendar"
	"github.com/fusionflow/meetlink/internal/google"
	"github.com/fusionflow/meetlink/internal/instrumentation"
	"github.com/fusionflow/meetlink/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// ServeConfig holds the resolved configuration of the serve command.
type ServeConfig struct {
	HTTPAddr           string
	Debug              bool
	GoogleClientID     string
	GoogleClientSecret string
	SessionTimeout     time.Duration
	RequestTimeout     time.Duration
	Metrics            MetricsConfig
}

func newServeCmd() *cobra.Command {
	var (
		debugMode          bool
		httpAddr           string
		googleClientID     string
		googleClientSecret string
		sessionTimeout     time.Duration
		requestTimeout     time.Duration
		metricsEnabled     bool
		metricsAddr        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the meeting-link API server",
		Long: `Start the HTTP server exposing the meeting-link JSON API.

Clients authenticate by sending a Google access token, either as an
Authorization: Bearer header or in the meetlink_session cookie. The token
is used as-is to call the Calendar API on the user's behalf.

Token Refresh (optional):
  --google-client-id and --google-client-secret flags
  OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars
  When configured, session credentials are treated as refresh tokens and
  exchanged for access tokens automatically. Without these, credentials
  are used as plain access tokens and expire after ~1 hour.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := ServeConfig{
				HTTPAddr:           httpAddr,
				Debug:              debugMode,
				GoogleClientID:     googleClientID,
				GoogleClientSecret: googleClientSecret,
				SessionTimeout:     sessionTimeout,
				RequestTimeout:     requestTimeout,
				Metrics: MetricsConfig{
					Enabled: metricsEnabled,
					Addr:    metricsAddr,
				},
			}
			loadServeEnvVars(cmd, &config)
			return runServe(config)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultAPIAddr, "HTTP server address")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID for automatic token refresh. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret for automatic token refresh. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().DurationVar(&sessionTimeout, "session-timeout", server.DefaultSessionTimeout, "How long idle sessions and their meeting history are kept")
	cmd.Flags().DurationVar(&requestTimeout, "request-timeout", calendar.DefaultRequestTimeout, "Per-call deadline for Calendar API requests")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars fills config values from environment variables for
// flags the user did not set explicitly.
func loadServeEnvVars(cmd *cobra.Command, config *ServeConfig) {
	if config.GoogleClientID == "" {
		config.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if config.GoogleClientSecret == "" {
		config.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v == "false" {
			config.Metrics.Enabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			config.Metrics.Addr = addr
		}
	}
}

func runServe(config ServeConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	setupLogging(config.Debug)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during instrumentation shutdown: %v", err)
		}
	}()

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if config.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     config.Metrics.Addr,
			Provider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			log.Printf("Metrics server started on %s", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// Create server context with the gateway factory matching the
	// configured credential mode.
	serverContext := server.NewServerContextWithFactory(shutdownCtx,
		newGatewayFactory(config))
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
	}

	sessions := server.NewSessionManagerWithTimeout(config.SessionTimeout)
	if provider.Enabled() {
		sessions.SetMetrics(provider.Metrics())
	}

	health := server.NewHealthChecker(serverContext, sessions)

	apiServer := server.NewAPIServer(server.APIServerConfig{
		Addr:     config.HTTPAddr,
		Handlers: server.NewHandlers(serverContext, sessions, slog.Default()),
		Health:   health,
		Metrics:  provider.Metrics(),
	})

	defer func() {
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		sessions.Stop()
		if err := serverContext.Shutdown(); err != nil {
			log.Printf("Error during server context shutdown: %v", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	log.Printf("API server started on %s", apiServer.Addr())

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()
	if err := apiServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	return nil
}

// newGatewayFactory picks the credential mode for upstream calls. With
// OAuth client credentials configured, session credentials are treated as
// refresh tokens and exchanged automatically; otherwise they are used as
// plain access tokens.
func newGatewayFactory(config ServeConfig) server.GatewayFactory {
	return func(ctx context.Context, credential string) (calendar.Gateway, error) {
		var provider google.TokenProvider
		if config.GoogleClientID != "" && config.GoogleClientSecret != "" {
			conf := google.OAuthConfig(config.GoogleClientID, config.GoogleClientSecret)
			provider = google.NewRefreshingTokenProvider(ctx, conf, &oauth2.Token{
				RefreshToken: credential,
			})
		} else {
			provider = google.NewStaticTokenProvider(credential)
		}

		client, err := calendar.NewClient(ctx, provider)
		if err != nil {
			return nil, err
		}
		client.SetRequestTimeout(config.RequestTimeout)
		return client, nil
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
