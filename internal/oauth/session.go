package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/logger"
)

// ErrInterrupted is returned by Wait when the context ends before a callback.
var ErrInterrupted = errors.New("interrupted before receiving authorization code")

type ResultKind int

const (
	ResultPending ResultKind = iota
	ResultCode
	ResultError
)

// Result is the single outcome of a callback.
type Result struct {
	Kind  ResultKind
	Code  string
	Error string
}

// CallbackError is a callback that ended the flow without a usable code.
type CallbackError struct {
	Reason string
}

func (e *CallbackError) Error() string {
	return "OAuth failed: " + e.Reason
}

// Session holds the state token for one authorization attempt and the slot
// its callback handler writes exactly once.
type Session struct {
	State string
	Host  string
	Port  int
	Path  string

	result atomic.Pointer[Result]
	once   sync.Once
	done   chan Result
}

// NewState returns a random URL-safe token.
func NewState() (string, error) {
	buf := make([]byte, constants.OAuthStateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewSession creates a session listening where redirectURI points.
func NewSession(redirectURI string) (*Session, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", redirectURI)
	}

	port := constants.DefaultRedirectPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid port in redirect URI %q", redirectURI)
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	state, err := NewState()
	if err != nil {
		return nil, err
	}

	return &Session{
		State: state,
		Host:  u.Hostname(),
		Port:  port,
		Path:  path,
		done:  make(chan Result, 1),
	}, nil
}

// ListenAddr is the local address the callback listener binds.
func (s *Session) ListenAddr() string {
	host := s.Host
	if host == "localhost" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, s.Port)
}

// Result returns the captured outcome, or a pending result.
func (s *Session) Result() Result {
	if r := s.result.Load(); r != nil {
		return *r
	}
	return Result{Kind: ResultPending}
}

// resolve records r if no outcome has been recorded yet.
func (s *Session) resolve(r Result) bool {
	won := false
	s.once.Do(func() {
		s.result.Store(&r)
		s.done <- r
		won = true
	})
	return won
}

// Wait blocks until the callback resolves the session or ctx ends.
// It is meant for a single consumer.
func (s *Session) Wait(ctx context.Context) (string, error) {
	select {
	case r := <-s.done:
		if r.Kind == ResultCode {
			return r.Code, nil
		}
		return "", &CallbackError{Reason: r.Error}
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
	}
}

// Handler serves the redirect path. The first request decides the outcome;
// later requests are acknowledged without touching it.
func (s *Session) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.Path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if s.Result().Kind != ResultPending {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte("Authorization already handled. You can close this tab."))
			return
		}

		q := r.URL.Query()
		var res Result
		switch {
		case q.Get("error") != "":
			res = Result{Kind: ResultError, Error: q.Get("error")}
		case q.Get("code") == "":
			res = Result{Kind: ResultError, Error: "Missing code in callback"}
		case q.Get("state") != s.State:
			res = Result{Kind: ResultError, Error: "State parameter mismatch"}
		default:
			res = Result{Kind: ResultCode, Code: q.Get("code")}
		}

		if !s.resolve(res) {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte("Authorization already handled. You can close this tab."))
			return
		}

		logger.Debug("OAuth callback received", "captured", res.Kind == ResultCode)
		if res.Kind == ResultError {
			w.Write([]byte("Authorization failed. You can close this tab."))
			return
		}
		w.Write([]byte("Authorization succeeded. You can close this tab."))
	})
	return mux
}
