package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DBPath   string
	SheetTab string

	// Application configuration
	SourcesFile       string
	Port              string
	APIAccessKey      string
	SchedulerInterval int
	RunOnce           bool
	RunOnStart        bool
	FetchTimeout      time.Duration
	RunTimeout        time.Duration

	// Lookup cache, geocoding and places
	RedisAddr  string
	CacheTTL   time.Duration
	MapsAPIKey string
	PlacesBias string

	// Digest mail
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	DigestTo     string
	DigestLimit  int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// DigestEnabled reports whether enough mail settings are present to send digests.
func (c *Cfg) DigestEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != "" && c.DigestTo != ""
}
