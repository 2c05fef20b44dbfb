package cfg

import "time"

// Cfg is built once at startup and passed to every component that needs it.
type Cfg struct {
	// Database configuration
	DBDriver string
	DBDSN    string

	// Application configuration
	OwnersDir    string
	Port         string
	APIAccessKey string
	WorkerCount  int

	// Task transport
	QueueBackend  string
	QueueCapacity int
	RedisAddr     string
	RedisKey      string
	SQSQueueURL   string
	SQSRegion     string
	SQSEndpoint   string

	// Pipeline
	FeedSweepInterval    time.Duration
	PublishSweepInterval time.Duration
	RefreshInterval      time.Duration
	MaxRetries           int
	FetchTimeout         time.Duration
	PublishTimeout       time.Duration
	CredentialCacheTTL   time.Duration

	// Downstream API
	NingAPIURL         string
	NingSubdomain      string
	NingConsumerKey    string
	NingConsumerSecret string

	// Application metadata
	UserAgent string
	LogFile   string
	Timezone  string
	Debug     bool
	Version   string
}
