package cli

import (
	"errors"
	"strconv"

	"github.com/julianstephens/habitcast/internal/constants"
	apperrors "github.com/julianstephens/habitcast/internal/errors"
	"github.com/julianstephens/habitcast/internal/keyring"
	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/notifier"
	"github.com/julianstephens/habitcast/internal/oauth"
	"github.com/julianstephens/habitcast/internal/slack"
	"github.com/julianstephens/habitcast/internal/ticktick"
)

// TickTickFlags configure the TickTick client.
type TickTickFlags struct {
	AccessToken string `help:"TickTick access token; falls back to the OS keyring." env:"TICKTICK_ACCESS_TOKEN"`
	Cookie      string `help:"TickTick web session cookie for the v2 query endpoint." env:"COOKIE"`
	TickTickURL string `name:"ticktick-url" help:"TickTick API base URL." default:"${ticktick_url}" env:"TICKTICK_BASE_URL" hidden:""`
}

// resolveToken fills AccessToken from the keyring when it is unset.
func (f *TickTickFlags) resolveToken() {
	if f.AccessToken != "" {
		return
	}
	tok, err := keyring.GetToken()
	switch {
	case err == nil:
		logger.Debug("Using access token from OS keyring")
		f.AccessToken = tok.AccessToken
	case !errors.Is(err, keyring.ErrNotFound):
		logger.Debug("Keyring lookup failed", "error", err)
	}
}

// TokenClient returns a client authenticated by access token.
func (f *TickTickFlags) TokenClient() (*ticktick.Client, error) {
	f.resolveToken()
	if f.AccessToken == "" {
		return nil, apperrors.Missing("TICKTICK_ACCESS_TOKEN", "run 'habitcast auth login --store' or set it in .env")
	}
	return f.client(), nil
}

// SessionClient returns a client for the cookie-authenticated query
// endpoint. A bearer token alone is accepted too.
func (f *TickTickFlags) SessionClient() (*ticktick.Client, error) {
	f.resolveToken()
	if f.Cookie == "" && f.AccessToken == "" {
		return nil, apperrors.Missing("COOKIE", "or TICKTICK_ACCESS_TOKEN")
	}
	return f.client(), nil
}

func (f *TickTickFlags) client() *ticktick.Client {
	opts := []ticktick.Option{ticktick.WithBaseURL(f.TickTickURL)}
	if f.Cookie != "" {
		opts = append(opts, ticktick.WithCookie(f.Cookie))
	}
	return ticktick.New(f.AccessToken, opts...)
}

// SlackFlags configure the Slack poster.
type SlackFlags struct {
	SlackToken string `name:"slack-token" help:"Slack bot token." env:"SLACK_BOT_TOKEN"`
	SlackURL   string `name:"slack-url" help:"Slack Web API base URL." default:"${slack_url}" env:"SLACK_API_URL" hidden:""`
	DryRun     bool   `help:"Log Slack payloads instead of sending them."`
}

// Poster validates the token (not needed for a dry run) and builds a poster.
func (f *SlackFlags) Poster() (*slack.Poster, error) {
	if f.SlackToken == "" && !f.DryRun {
		return nil, apperrors.Missing("SLACK_BOT_TOKEN", "set it in .env or use --dry-run")
	}
	return slack.NewPoster(f.SlackToken, slack.WithBaseURL(f.SlackURL), slack.WithDryRun(f.DryRun)), nil
}

// SMTPFlags configure failure e-mails.
type SMTPFlags struct {
	Host     string `name:"smtp-host" help:"SMTP relay host." env:"SMTP_HOST"`
	Port     int    `name:"smtp-port" help:"SMTP relay port." default:"${smtp_port}" env:"SMTP_PORT"`
	Username string `name:"smtp-username" help:"SMTP username." env:"SMTP_USERNAME"`
	Password string `name:"smtp-password" help:"SMTP password." env:"SMTP_PASSWORD"`
	From     string `name:"smtp-from" help:"Sender address; defaults to the username." env:"SMTP_FROM_ADDRESS"`
	To       string `name:"smtp-to" help:"Recipient of failure e-mails." env:"SMTP_TO_ADDRESS"`
	UseTLS   bool   `name:"smtp-tls" help:"Upgrade the connection with STARTTLS." default:"true" negatable:"" env:"SMTP_USE_TLS"`
}

func (f *SMTPFlags) Notifier() *notifier.Notifier {
	from := f.From
	if from == "" {
		from = f.Username
	}
	return notifier.New(notifier.SMTPConfig{
		Host:     f.Host,
		Port:     f.Port,
		Username: f.Username,
		Password: f.Password,
		From:     from,
		To:       f.To,
		UseTLS:   f.UseTLS,
	})
}

// OAuthFlags configure the TickTick OAuth client.
type OAuthFlags struct {
	ClientID     string `help:"TickTick OAuth client id." env:"TICKTICK_CLIENT_ID"`
	ClientSecret string `help:"TickTick OAuth client secret." env:"TICKTICK_CLIENT_SECRET"`
	RedirectURI  string `help:"Redirect URI registered for the app." default:"${redirect_uri}" env:"TICKTICK_REDIRECT_URI"`
	Scope        string `help:"Space separated OAuth scopes." default:"${oauth_scope}" env:"TICKTICK_SCOPE"`
	AuthorizeURL string `help:"Authorization endpoint." default:"${authorize_url}" hidden:""`
	TokenURL     string `help:"Token endpoint." default:"${token_url}" hidden:""`
}

// Config validates the client credentials. The secret is only required
// when needSecret is set.
func (f *OAuthFlags) Config(needSecret bool) (oauth.Config, error) {
	if f.ClientID == "" {
		return oauth.Config{}, apperrors.Missing("TICKTICK_CLIENT_ID", "or use --client-id")
	}
	if needSecret && f.ClientSecret == "" {
		return oauth.Config{}, apperrors.Missing("TICKTICK_CLIENT_SECRET", "or use --client-secret")
	}
	return oauth.Config{
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		RedirectURI:  f.RedirectURI,
		Scope:        f.Scope,
		AuthURL:      f.AuthorizeURL,
		TokenURL:     f.TokenURL,
	}, nil
}

// Vars are the kong interpolation variables used by the flag defaults.
func Vars() map[string]string {
	return map[string]string{
		"ticktick_url":  constants.TickTickBaseURL,
		"slack_url":     constants.SlackBaseURL,
		"smtp_port":     strconv.Itoa(constants.DefaultSMTPPort),
		"redirect_uri":  constants.DefaultRedirectURI,
		"oauth_scope":   constants.DefaultOAuthScope,
		"authorize_url": constants.TickTickAuthorizeURL,
		"token_url":     constants.TickTickTokenURL,
		"mapping_path":  constants.HabitMappingPath,
		"channels_path": constants.HabitChannelsPath,
		"config_path":   constants.HabitConfigPath,
		"history_limit": strconv.Itoa(constants.DefaultHistorySize),
	}
}
