package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flagSet := pflag.NewFlagSet("goat-relay-client", pflag.ContinueOnError)
	address := flagSet.StringP("address", "a", "127.0.0.1", "relay host")
	port := flagSet.StringP("port", "p", "4000", "relay TCP port")
	debug := flagSet.BoolP("debug", "d", false, "log connection progress to stderr")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	addr := net.JoinHostPort(*address, *port)
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	logger.Debug("connected", "addr", addr)

	return relay(conn, stdin, stdout, logger)
}

// relay copies stdin to conn and conn to stdout until either side ends.
// The history arrives first on conn, so it is printed before anything live.
func relay(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	defer conn.Close()

	sendDone := make(chan error, 1)
	go func() {
		_, err := io.Copy(conn, stdin)
		// Half-close so the server sees EOF but can still flush to us
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.CloseWrite()
		}
		sendDone <- err
	}()

	_, err := io.Copy(stdout, conn)
	logger.Debug("server closed the connection")
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("receive: %w", err)
	}

	select {
	case err := <-sendDone:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("send: %w", err)
		}
	default:
		// stdin is still open; the process exits anyway
	}
	return nil
}
