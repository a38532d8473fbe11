package serviceutil

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ehclient/lib/apperr"
)

// Returns a context that will live until Ctrl+C is pressed
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}

// Fatal logs err together with its failure kind and exits.
func Fatal(message string, err error) {
	if err == nil {
		err = errors.New("unknown failure")
	}
	slog.Error(message, "kind", apperr.KindOf(err).String(), "err", err.Error())
	os.Exit(1)
}
