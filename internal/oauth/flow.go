package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/logger"
)

// Config describes the TickTick OAuth client.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client
}

func (c Config) oauth2() *oauth2.Config {
	authURL := c.AuthURL
	if authURL == "" {
		authURL = constants.TickTickAuthorizeURL
	}
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = constants.TickTickTokenURL
	}
	scope := c.Scope
	if scope == "" {
		scope = constants.DefaultOAuthScope
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       strings.Fields(scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthURL returns the authorization URL carrying state.
func AuthURL(cfg Config, state string) string {
	return cfg.oauth2().AuthCodeURL(state)
}

// Token is the token endpoint response.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Preview returns the first n characters of the access token.
func (t *Token) Preview(n int) string {
	if len(t.AccessToken) <= n {
		return t.AccessToken
	}
	return t.AccessToken[:n] + "..."
}

// TokenError is a non-2xx token endpoint response.
type TokenError struct {
	StatusCode int
	Body       string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token exchange failed: %d %s", e.StatusCode, e.Body)
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, cfg Config, code string) (*Token, error) {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: constants.HTTPTimeout}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)

	tok, err := cfg.oauth2().Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return nil, &TokenError{StatusCode: rerr.Response.StatusCode, Body: string(rerr.Body)}
		}
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	out := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if s, ok := tok.Extra("scope").(string); ok {
		out.Scope = s
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		out.ExpiresIn = int64(v)
	case int64:
		out.ExpiresIn = v
	}
	return out, nil
}

// Flow runs the interactive authorization: listen, open the browser, wait
// for the callback, exchange the code.
type Flow struct {
	Config Config

	// ListenAddr overrides the address derived from the redirect URI.
	ListenAddr string
	// OpenBrowser defaults to the system browser.
	OpenBrowser func(url string) error
	// Ready is called once the listener is up.
	Ready func(authURL, callbackURL string)
	// Exchange defaults to the package-level Exchange.
	Exchange func(ctx context.Context, cfg Config, code string) (*Token, error)
}

// Run performs the flow. The listener is shut down on every return path.
func (f *Flow) Run(ctx context.Context) (*Token, error) {
	if f.Config.RedirectURI == "" {
		f.Config.RedirectURI = constants.DefaultRedirectURI
	}
	session, err := NewSession(f.Config.RedirectURI)
	if err != nil {
		return nil, err
	}

	addr := f.ListenAddr
	if addr == "" {
		addr = session.ListenAddr()
	}
	ln, err := Listen(addr, session.Handler())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ln.Shutdown(constants.OAuthShutdownTimeout); err != nil {
			logger.Warn("OAuth listener shutdown", "error", err)
		}
	}()

	authURL := AuthURL(f.Config, session.State)
	callbackURL := fmt.Sprintf("http://%s%s", ln.Addr().String(), session.Path)
	logger.Debug("OAuth listener ready", "addr", ln.Addr().String())
	if f.Ready != nil {
		f.Ready(authURL, callbackURL)
	}

	open := f.OpenBrowser
	if open == nil {
		open = OpenInBrowser
	}
	if err := open(authURL); err != nil {
		logger.Warn("Could not open browser, visit the URL manually", "error", err)
	}

	code, err := session.Wait(ctx)
	if err != nil {
		return nil, err
	}

	exchange := f.Exchange
	if exchange == nil {
		exchange = Exchange
	}
	return exchange(ctx, f.Config, code)
}

// OpenInBrowser opens url in the system browser without echoing its output.
func OpenInBrowser(url string) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return browser.OpenURL(url)
}
