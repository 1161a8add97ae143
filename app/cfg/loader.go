package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./rss-sheet.db" description:"SQLite database file"`
	SheetTab string `long:"sheet-tab" env:"SHEET_TAB" default:"RSS Aggregator" description:"Destination table name"`

	// Application configuration
	SourcesFile       string `long:"sources" env:"SOURCES_FILE" description:"YAML file with feed sources (built-in list when empty)"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"0" description:"Aggregation interval in seconds (0 disables periodic runs)"`
	RunOnce           bool   `long:"once" env:"RUN_ONCE" description:"Run a single aggregation and exit"`
	RunOnStart        bool   `long:"run-on-start" env:"RUN_ON_START" description:"Run an aggregation when the server starts"`
	FetchTimeout      int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"0" description:"Per-request timeout in seconds (0 uses the transport default)"`
	RunTimeout        int    `long:"run-timeout" env:"RUN_TIMEOUT" default:"360" description:"Maximum duration of one aggregation run in seconds"`

	// Lookup cache, geocoding and places
	RedisAddr  string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the lookup cache (in-memory when empty)"`
	CacheTTL   int    `long:"cache-ttl" env:"CACHE_TTL" default:"21600" description:"Lookup cache TTL in seconds"`
	MapsAPIKey string `long:"maps-api-key" env:"MAPS_API_KEY" description:"Google Maps API key for geocoding and places lookups"`
	PlacesBias string `long:"places-bias" env:"PLACES_BIAS" default:"São Paulo, Brasil" description:"Location appended to every places search"`

	// Digest mail
	SMTPHost     string `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host for digest mail"`
	SMTPPort     int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP port"`
	SMTPUser     string `long:"smtp-user" env:"SMTP_USER" description:"SMTP user"`
	SMTPPassword string `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
	MailFrom     string `long:"mail-from" env:"MAIL_FROM" description:"Sender address for digest mail"`
	DigestTo     string `long:"digest-to" env:"DIGEST_TO" description:"Recipient of the digest mail after each run"`
	DigestLimit  int    `long:"digest-limit" env:"DIGEST_LIMIT" default:"20" description:"Maximum items listed in the digest"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Sheet/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for item dates (e.g., UTC, America/Sao_Paulo)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: .env file exists but couldn't be loaded: %v\n", err)
	}

	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.DigestLimit < 0 {
		return nil, fmt.Errorf("digest limit must be non-negative")
	}
	if raw.FetchTimeout < 0 || raw.RunTimeout < 0 || raw.SchedulerInterval < 0 {
		return nil, fmt.Errorf("timeouts and intervals must be non-negative")
	}

	return &Cfg{
		DBPath:            raw.DBPath,
		SheetTab:          raw.SheetTab,
		SourcesFile:       raw.SourcesFile,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		SchedulerInterval: raw.SchedulerInterval,
		RunOnce:           raw.RunOnce,
		RunOnStart:        raw.RunOnStart,
		FetchTimeout:      time.Duration(raw.FetchTimeout) * time.Second,
		RunTimeout:        time.Duration(raw.RunTimeout) * time.Second,
		RedisAddr:         raw.RedisAddr,
		CacheTTL:          time.Duration(raw.CacheTTL) * time.Second,
		MapsAPIKey:        raw.MapsAPIKey,
		PlacesBias:        raw.PlacesBias,
		SMTPHost:          raw.SMTPHost,
		SMTPPort:          raw.SMTPPort,
		SMTPUser:          raw.SMTPUser,
		SMTPPassword:      raw.SMTPPassword,
		MailFrom:          raw.MailFrom,
		DigestTo:          raw.DigestTo,
		DigestLimit:       raw.DigestLimit,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
