package auth

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitcast/internal/cli"
	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/keyring"
	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/oauth"
)

// openURL is replaced in tests.
var openURL = oauth.OpenInBrowser

// URLCmd prints an authorization URL for a manual flow.
type URLCmd struct {
	cli.OAuthFlags `embed:""`

	State     string `help:"State value to embed; random when empty."`
	NoBrowser bool   `name:"no-browser" help:"Only print the URL; do not open a browser."`
}

func (cmd *URLCmd) Run(ctx *cli.Context) error {
	cfg, err := cmd.OAuthFlags.Config(false)
	if err != nil {
		return err
	}

	state := cmd.State
	if state == "" {
		if state, err = oauth.NewState(); err != nil {
			return err
		}
	}

	authURL := oauth.AuthURL(cfg, state)
	fmt.Fprintf(ctx.Out, "Authorization URL:\n\n%s\n\n", authURL)
	fmt.Fprintf(ctx.Out, "Use this state value when exchanging the code: %s\n", state)

	if cmd.NoBrowser {
		return nil
	}
	if err := openURL(authURL); err != nil {
		logger.Debug("Browser open failed", "error", err)
		fmt.Fprintln(ctx.Out, "Could not open browser automatically; copy the URL into your browser.")
		return nil
	}
	fmt.Fprintln(ctx.Out, "Opened default browser. If it didn't appear, copy the URL manually.")
	return nil
}

// ExchangeCmd trades a manually captured code for tokens.
type ExchangeCmd struct {
	cli.OAuthFlags `embed:""`

	Code  string `arg:"" help:"Authorization code captured from the redirect."`
	Raw   bool   `help:"Print the token response as JSON."`
	Store bool   `help:"Save the tokens in the OS keyring."`
}

func (cmd *ExchangeCmd) Run(ctx *cli.Context) error {
	cfg, err := cmd.OAuthFlags.Config(true)
	if err != nil {
		return err
	}

	tok, err := oauth.Exchange(ctx.Context(), cfg, cmd.Code)
	if err != nil {
		return err
	}

	if cmd.Raw {
		if err := ctx.PrintJSON(tok); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(ctx.Out, "Exchange successful. Add the following to your .env if needed:")
		fmt.Fprintln(ctx.Out)
		fmt.Fprintf(ctx.Out, "TICKTICK_ACCESS_TOKEN=%s\n", tok.AccessToken)
		if tok.RefreshToken != "" {
			fmt.Fprintln(ctx.Out, "# Optional: refresh token (not used by the summarizer)")
			fmt.Fprintf(ctx.Out, "TICKTICK_REFRESH_TOKEN=%s\n", tok.RefreshToken)
		}
		printExpiry(ctx, tok)
	}

	if cmd.Store {
		return storeToken(ctx, tok)
	}
	return nil
}

// LoginCmd runs the full browser flow with a local callback listener.
type LoginCmd struct {
	cli.OAuthFlags `embed:""`

	NoBrowser bool `name:"no-browser" help:"Do not open a browser; visit the printed URL yourself."`
	Store     bool `help:"Save the tokens in the OS keyring."`
	Yes       bool `short:"y" help:"Store without asking for confirmation."`
}

func (cmd *LoginCmd) Run(ctx *cli.Context) error {
	cfg, err := cmd.OAuthFlags.Config(true)
	if err != nil {
		return err
	}

	flow := &oauth.Flow{
		Config: cfg,
		Ready: func(authURL, callbackURL string) {
			fmt.Fprintf(ctx.Out, "\n1. Visit the following URL in your browser and authorize the app:\n\n%s\n", authURL)
			fmt.Fprintf(ctx.Out, "\n2. After authorizing, you will be redirected to %s.\n", callbackURL)
			fmt.Fprintln(ctx.Out, "   The authorization code is captured automatically.")
			fmt.Fprintln(ctx.Out)
		},
		OpenBrowser: openURL,
	}
	if cmd.NoBrowser {
		flow.OpenBrowser = func(string) error { return nil }
	}

	tok, err := flow.Run(ctx.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, "Received tokens:")
	if tok.RefreshToken != "" {
		fmt.Fprintf(ctx.Out, "  TICKTICK_REFRESH_TOKEN=%s\n", tok.RefreshToken)
	} else {
		fmt.Fprintln(ctx.Out, "  (No refresh token returned; check your app's OAuth permissions.)")
	}
	fmt.Fprintf(ctx.Out, "  Access token (expires in %ds): %s\n", tok.ExpiresIn, tok.Preview(constants.AccessTokenPreviewSize))

	if !cmd.Store {
		fmt.Fprintln(ctx.Out, "\nRe-run with --store to keep the tokens in the OS keyring.")
		return nil
	}
	if !cmd.Yes {
		ok, err := ctx.Ask("Store these tokens in the OS keyring?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ctx.Out, "Tokens not stored.")
			return nil
		}
	}
	return storeToken(ctx, tok)
}

func printExpiry(ctx *cli.Context, tok *oauth.Token) {
	if tok.ExpiresIn > 0 {
		fmt.Fprintf(ctx.Out, "\nAccess token expires in roughly %d seconds.\n", tok.ExpiresIn)
	}
	if tok.TokenType != "" {
		fmt.Fprintf(ctx.Out, "Token type: %s\n", tok.TokenType)
	}
}

func storeToken(ctx *cli.Context, tok *oauth.Token) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	if err := keyring.SetToken(tok); err != nil {
		return err
	}
	cli.OK(ctx.Out, "Tokens stored in OS keyring")
	return nil
}

// TokenShowCmd prints the stored token with the access token masked.
type TokenShowCmd struct{}

func (cmd *TokenShowCmd) Run(ctx *cli.Context) error {
	tok, err := keyring.GetToken()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no token stored in keyring. Use 'habitcast auth login --store' to store one")
		}
		return err
	}

	fmt.Fprintf(ctx.Out, "Access token: %s\n", tok.Preview(constants.AccessTokenPreviewSize))
	if tok.RefreshToken != "" {
		fmt.Fprintln(ctx.Out, "Refresh token: stored")
	}
	if !tok.Expiry.IsZero() {
		fmt.Fprintf(ctx.Out, "Expires: %s\n", tok.Expiry.Local().Format("2006-01-02 15:04"))
	}
	if tok.TokenType != "" {
		fmt.Fprintf(ctx.Out, "Token type: %s\n", tok.TokenType)
	}
	return nil
}

// TokenDeleteCmd removes the stored token.
type TokenDeleteCmd struct{}

func (cmd *TokenDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no token stored in keyring")
		}
		return err
	}
	cli.OK(ctx.Out, "Token deleted from OS keyring")
	return nil
}
