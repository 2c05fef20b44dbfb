package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBDriver string `long:"db-driver" env:"DB_DRIVER" default:"sqlite" choice:"sqlite" choice:"postgres" description:"Database driver"`
	DBDSN    string `long:"db-dsn" env:"DB_DSN" default:"rss-relay.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite" description:"Database data source name"`

	// Application configuration
	OwnersDir    string `long:"owners-dir" env:"OWNERS_DIR" default:"./owners" description:"Directory containing owner configuration files"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of task consumers"`

	// Task transport
	QueueBackend  string `long:"queue-backend" env:"QUEUE_BACKEND" default:"memory" choice:"memory" choice:"redis" choice:"sqs" description:"Task queue transport"`
	QueueCapacity int    `long:"queue-capacity" env:"QUEUE_CAPACITY" default:"300" description:"Buffer size of the in-process task queue"`
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address for the redis queue backend"`
	RedisKey      string `long:"redis-key" env:"REDIS_KEY" default:"rss-relay:tasks" description:"Redis list holding queued tasks"`
	SQSQueueURL   string `long:"sqs-queue-url" env:"SQS_QUEUE_URL" description:"SQS queue URL for the sqs queue backend"`
	SQSRegion     string `long:"sqs-region" env:"AWS_REGION" default:"us-east-1" description:"AWS region of the SQS queue"`
	SQSEndpoint   string `long:"sqs-endpoint" env:"SQS_ENDPOINT" description:"Custom SQS endpoint for local testing"`

	// Pipeline
	FeedSweepInterval    time.Duration `long:"feed-sweep-interval" env:"FEED_SWEEP_INTERVAL" default:"1h" description:"How often stale feeds are queued for fetching"`
	PublishSweepInterval time.Duration `long:"publish-sweep-interval" env:"PUBLISH_SWEEP_INTERVAL" default:"1m" description:"How often pending drafts are queued for publishing"`
	RefreshInterval      time.Duration `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"1h" description:"Minimum age of a feed watermark before it is fetched again"`
	MaxRetries           int           `long:"max-retries" env:"MAX_RETRIES" default:"100" description:"Publish attempts after which a draft is discarded"`
	FetchTimeout         time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"Timeout for feed downloads"`
	PublishTimeout       time.Duration `long:"publish-timeout" env:"PUBLISH_TIMEOUT" default:"30s" description:"Timeout for downstream publish calls"`
	CredentialCacheTTL   time.Duration `long:"credential-cache-ttl" env:"CREDENTIAL_CACHE_TTL" default:"5m" description:"How long resolved owner credentials are cached"`

	// Downstream API
	NingAPIURL         string `long:"ning-api-url" env:"NING_API_URL" default:"https://external.ningapis.com" description:"Ning REST API base URL"`
	NingSubdomain      string `long:"ning-subdomain" env:"NING_SUBDOMAIN" description:"Ning network subdomain" required:"true"`
	NingConsumerKey    string `long:"ning-consumer-key" env:"NING_CONSUMER_KEY" description:"Ning OAuth consumer key" required:"true"`
	NingConsumerSecret string `long:"ning-consumer-secret" env:"NING_CONSUMER_SECRET" description:"Ning OAuth consumer secret" required:"true"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Relay/1.0" description:"User agent string for HTTP requests"`
	LogFile   string `long:"log-file" env:"LOG_FILE" default:"-" description:"Log file path, '-' for stderr"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses the process arguments and environment. It returns nil, nil
// when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBDriver:             raw.DBDriver,
		DBDSN:                raw.DBDSN,
		OwnersDir:            raw.OwnersDir,
		Port:                 raw.Port,
		APIAccessKey:         raw.APIAccessKey,
		WorkerCount:          raw.WorkerCount,
		QueueBackend:         raw.QueueBackend,
		QueueCapacity:        raw.QueueCapacity,
		RedisAddr:            raw.RedisAddr,
		RedisKey:             raw.RedisKey,
		SQSQueueURL:          raw.SQSQueueURL,
		SQSRegion:            raw.SQSRegion,
		SQSEndpoint:          raw.SQSEndpoint,
		FeedSweepInterval:    raw.FeedSweepInterval,
		PublishSweepInterval: raw.PublishSweepInterval,
		RefreshInterval:      raw.RefreshInterval,
		MaxRetries:           raw.MaxRetries,
		FetchTimeout:         raw.FetchTimeout,
		PublishTimeout:       raw.PublishTimeout,
		CredentialCacheTTL:   raw.CredentialCacheTTL,
		NingAPIURL:           raw.NingAPIURL,
		NingSubdomain:        raw.NingSubdomain,
		NingConsumerKey:      raw.NingConsumerKey,
		NingConsumerSecret:   raw.NingConsumerSecret,
		UserAgent:            raw.UserAgent,
		LogFile:              raw.LogFile,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}

	positive := map[string]time.Duration{
		"feed sweep interval":    c.FeedSweepInterval,
		"publish sweep interval": c.PublishSweepInterval,
		"fetch timeout":          c.FetchTimeout,
		"publish timeout":        c.PublishTimeout,
		"credential cache TTL":   c.CredentialCacheTTL,
	}
	for name, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	switch c.QueueBackend {
	case "memory":
		if c.QueueCapacity <= 0 {
			return fmt.Errorf("queue capacity must be positive")
		}
	case "sqs":
		if c.SQSQueueURL == "" {
			return fmt.Errorf("sqs queue URL is required for the sqs backend")
		}
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
