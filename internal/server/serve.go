package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Printf("gateway listening at %v", lis.Addr())
		errc <- srv.Serve(lis)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Printf("gateway stopped")
	return nil
}
