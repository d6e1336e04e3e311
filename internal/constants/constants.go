package constants

import "time"

const (
	AppName = "habitcast"
	Version = "v0.3.0"

	// DateFormat is the ISO date format accepted by --date flags (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	DefaultHome         = "~/.config/habitcast"
	DefaultTimezone     = "Local"
	DefaultLookbackDays = 7
	HTTPTimeout         = 30 * time.Second

	// TickTick API
	TickTickBaseURL        = "https://api.ticktick.com"
	TickTickHabitsPath     = "/api/v2/habits"
	TickTickCheckinsPath   = "/api/v2/habits/%s/checkins"
	TickTickQueryPath      = "/api/v2/habitCheckins/query"
	TickTickOrigin         = "https://ticktick.com"
	BrowserUserAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
	TickTickAuthorizeURL   = "https://ticktick.com/oauth/authorize"
	TickTickTokenURL       = "https://ticktick.com/oauth/token"
	DefaultOAuthScope      = "tasks:read tasks:write habit:read"
	DefaultRedirectPort    = 8765
	DefaultRedirectURI     = "http://localhost:8765/callback"
	OAuthStateBytes        = 16
	OAuthShutdownTimeout   = 5 * time.Second
	AccessTokenPreviewSize = 12

	// Slack API
	SlackBaseURL = "https://slack.com/api"

	// Files
	HabitMappingPath   = "habit_id_mapping.json"
	HabitChannelsPath  = "config/habit_channels.json"
	HabitConfigPath    = "config/habits.yaml"
	HistoryFileName    = "history.json"
	LogDirName         = "logs"
	LogFileName        = "habitcast.log"
	DefaultTemplate    = "*{title}*: {status}"
	MaxMappingBackups  = 14
	BackupDirName      = "backups"
	BackupFilePrefix   = "habit_id_mapping-"
	BackupFileSuffix   = ".json"
	DefaultHistorySize = 20

	// Keyring
	KeyringTokenUser = "ticktick-token"

	// Failure notification
	FailureSubject     = "habitcast failed"
	DefaultSMTPPort    = 587
	SMTPTimeout        = 10 * time.Second
	NotifyStatusFloor  = 500
	FailureBodyMaxSize = 4096
)
