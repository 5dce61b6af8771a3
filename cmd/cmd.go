package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"synvoy-client/internal/clock"
	"synvoy-client/internal/config"
	"synvoy-client/internal/handlers"
	"synvoy-client/internal/middleware"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
	"synvoy-client/internal/session"
	"synvoy-client/internal/tui"
)

// Run parses the command line, wires the client and executes one command.
func Run() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flagSet := pflag.NewFlagSet("synvoy", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	configPath := flagSet.String("config", config.DefaultPath(), "path to the config file")
	apiURL := flagSet.String("api", "", "API base URL (overrides config and "+config.EnvAPIURL+")")
	logLevel := flagSet.String("log-level", "", "debug, info, warn or error")
	flagSet.SetOutput(io.Discard)
	err := flagSet.Parse(args)
	helpRequested := errors.Is(err, pflag.ErrHelp)
	if err != nil && !helpRequested {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the API client
	store := session.NewFileStore(cfg.Session.Path)
	httpClient := &http.Client{
		Timeout: cfg.API.Timeout,
		Transport: middleware.Chain(http.DefaultTransport,
			middleware.RequestID(),
			middleware.Auth(store),
			middleware.Logger(),
		),
	}
	client := repository.NewClient(cfg.API.BaseURL, httpClient)

	// Initialize repositories
	authRepo := repository.NewAuthRepository(client)
	tripRepo := repository.NewTripRepository(client)
	connectionRepo := repository.NewConnectionRepository(client)
	contactRepo := repository.NewContactRepository(client)

	clk := clock.Real()
	sessions := services.NewSessionManager(authRepo, store, clk)

	root := handlers.NewRoot(handlers.Deps{
		AuthRepo:       authRepo,
		TripRepo:       tripRepo,
		ConnectionRepo: connectionRepo,
		ContactRepo:    contactRepo,
		Sessions:       sessions,
		Clock:          clk,
		Verification: services.VerificationConfig{
			PollInterval: cfg.Verification.PollInterval,
			TickInterval: cfg.Verification.TickInterval,
		},
		Console: handlers.NewConsole(os.Stdin, os.Stdout, os.Stderr),
		Stdin:   os.Stdin,
		VerifyUI: func(ctx context.Context, flow *services.VerificationFlow) (services.Destination, error) {
			return tui.RunVerify(ctx, flow, tui.DefaultTheme)
		},
	})

	log.Debug().Str("api", cfg.API.BaseURL).Str("session", store.Path()).Msg("Client configured")

	if helpRequested {
		root.PrintHelp(os.Stdout)
		fmt.Fprintf(os.Stdout, "\nGlobal flags:\n%s", flagSet.FlagUsages())
		return 0
	}

	// Restore the session
	sessions.Init(ctx)

	if err := root.Execute(ctx, flagSet.Args(), os.Stdout); err != nil {
		handlers.PrintError(os.Stderr, err)
		if errors.Is(err, handlers.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}
