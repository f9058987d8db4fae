package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmuslimabdulj/goat-relay/internal/chat"
	"github.com/mmuslimabdulj/goat-relay/internal/config"
	httpHandler "github.com/mmuslimabdulj/goat-relay/internal/delivery/http"
	"github.com/mmuslimabdulj/goat-relay/internal/delivery/tcp"
	"github.com/mmuslimabdulj/goat-relay/internal/delivery/ws"
	"github.com/mmuslimabdulj/goat-relay/internal/domain"
	"github.com/mmuslimabdulj/goat-relay/internal/middleware"
	"github.com/mmuslimabdulj/goat-relay/internal/usecase"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if done, err := applyFlags(cfg, args); done || err != nil {
		return err
	}

	logger := cfg.NewLogger(os.Stderr)

	// Initialize dependencies
	acceptLimiter := middleware.NewIPRateLimiter(cfg.AcceptRate, cfg.AcceptBurst)
	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, int(cfg.RateLimitWS)*2)
	hub := chat.NewHub(chat.Options{
		LogCapacity: cfg.LogCapacityBytes,
		MaxSessions: cfg.MaxConcurrentSessions,
		Limiter:     acceptLimiter,
		Personas:    usecase.NewPersonaGenerator(),
	}, logger)

	if cfg.WelcomeMessage != "" {
		hub.Publish([]byte(cfg.WelcomeMessage))
	}

	ln, err := tcp.Listen(cfg.ListenAddr(), cfg.ChunkSize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	serve := func(name string, ln chat.Listener) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hub.Serve(ctx, ln); err != nil {
				logger.Error("accept loop stopped", "listener", name, "error", err)
			}
		}()
	}

	logger.Info("relay listening",
		"addr", ln.Addr().String(),
		"capacity", cfg.LogCapacityBytes,
		"max_sessions", cfg.MaxConcurrentSessions)
	serve("tcp", ln)

	var server *http.Server
	if cfg.HTTPPort != "" {
		wsListener := ws.NewListener(cfg.AllowedOrigins, cfg.ChunkSize)
		serve("ws", wsListener)

		handler := httpHandler.NewHandler(hub, wsListener)
		// No WriteTimeout: /ws connections are long-lived
		server = &http.Server{
			Addr:              cfg.HTTPAddr(),
			Handler:           handler.Routes(wsLimiter),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			logger.Info("status page listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
				stop()
			}
		}()
	}

	pruneStop := make(chan struct{})
	go acceptLimiter.Run(time.Minute, pruneStop)
	go wsLimiter.Run(time.Minute, pruneStop)

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down relay")
	close(pruneStop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), domain.ShutdownGracePeriod)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server forced to shutdown", "error", err)
		}
	}
	wg.Wait()

	if err := hub.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("sessions did not close in time: %w", err)
	}

	logger.Info("relay exited gracefully")
	return nil
}

// applyFlags overrides cfg with explicitly set flags. done reports that
// the process should exit without serving (help was printed).
func applyFlags(cfg *config.Config, args []string) (done bool, err error) {
	flagSet := pflag.NewFlagSet("goat-relay", pflag.ContinueOnError)
	address := flagSet.StringP("address", "a", cfg.Address, "address to bind (empty for all interfaces)")
	port := flagSet.StringP("port", "p", cfg.Port, "TCP port for chat clients")
	httpPort := flagSet.String("http-port", cfg.HTTPPort, "port for the status page and /ws (empty disables)")
	maxConns := flagSet.IntP("max-connections", "l", cfg.MaxConcurrentSessions, "maximum simultaneous sessions (0 for unlimited)")
	capacity := flagSet.IntP("capacity", "c", cfg.LogCapacityBytes, "bytes of history kept in the shared log")
	configFile := flagSet.String("config", "", "YAML config file applied before flags")
	debug := flagSet.BoolP("debug", "d", false, "enable debug logging")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return false, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			return false, err
		}
	}

	flagSet.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "address":
			cfg.Address = *address
		case "port":
			cfg.Port = *port
		case "http-port":
			cfg.HTTPPort = *httpPort
		case "max-connections":
			cfg.MaxConcurrentSessions = *maxConns
		case "capacity":
			cfg.LogCapacityBytes = *capacity
		case "debug":
			if *debug {
				cfg.LogLevel = "debug"
			}
		}
	})

	return false, cfg.Validate()
}
