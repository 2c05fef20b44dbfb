package owners

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	ownersDir string
	cache     map[string]*Config
	mu        sync.RWMutex
}

func NewConfigCache(ownersDir string) *ConfigCache {
	return &ConfigCache{
		ownersDir: ownersDir,
		cache:     make(map[string]*Config),
	}
}

// Run loads every *.yml file in the owners directory. A missing directory
// is not an error.
func (cc *ConfigCache) Run() error {
	if cc.ownersDir == "" {
		return nil
	}
	if _, err := os.Stat(cc.ownersDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.ownersDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Owner configuration loaded", "owner", config.Owner, "feeds", len(config.Feeds))
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(name string) (*Config, error) {
	configFile := filepath.Join(cc.ownersDir, name+".yml")
	config, err := parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// The file name stands in for a missing owner field.
	if config.Owner == "" {
		config.Owner = name
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Owner] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(owner string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[owner]
	if !ok {
		return nil, fmt.Errorf("owner config '%s' not found", owner)
	}
	return config, nil
}

// GetConfigs returns the loaded configs ordered by owner.
func (cc *ConfigCache) GetConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configs := make([]*Config, 0, len(cc.cache))
	for _, config := range cc.cache {
		configs = append(configs, config)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Owner < configs[j].Owner })
	return configs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Owner = strings.TrimSpace(config.Owner)
	for i, feedURL := range config.Feeds {
		config.Feeds[i] = strings.TrimSpace(feedURL)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	cred := config.Credential
	if (cred.TokenKey == "") != (cred.TokenSecret == "") {
		return fmt.Errorf("credential needs both token_key and token_secret")
	}

	seen := make(map[string]bool, len(config.Feeds))
	for i, feedURL := range config.Feeds {
		if err := ValidateFeedURL(feedURL); err != nil {
			return fmt.Errorf("feed at index %d: %w", i, err)
		}
		if seen[feedURL] {
			return fmt.Errorf("duplicate feed at index %d: %s", i, feedURL)
		}
		seen[feedURL] = true
	}

	return nil
}

// ValidateFeedURL accepts absolute http(s) URLs only.
func ValidateFeedURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("feed URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid feed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported feed URL scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("feed URL has no host")
	}

	return nil
}
