package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/julianstephens/habitcast/internal/logger"
)

// Listener is the short-lived local HTTP server that receives the redirect.
type Listener struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and serves handler in the background.
func Listen(addr string, handler http.Handler) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	l := &Listener{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ln: ln,
	}

	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("OAuth callback listener stopped", "error", err)
		}
	}()
	return l, nil
}

// Addr returns the bound address, useful when addr asked for port 0.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight responses.
func (l *Listener) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := l.srv.Shutdown(ctx); err != nil {
		return l.srv.Close()
	}
	return nil
}
