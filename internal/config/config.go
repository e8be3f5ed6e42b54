package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config carries every tunable for a run. Values come from defaults, then an
// optional YAML file, then environment variables, each layer overriding the
// previous one.
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Harvest  HarvestConfig  `yaml:"harvest"`
	Website  WebsiteConfig  `yaml:"website"`
	Outreach OutreachConfig `yaml:"outreach"`
	Apollo   ApolloConfig   `yaml:"apollo"`
	DB       DBConfig       `yaml:"db"`
}

type BrowserConfig struct {
	Headless       bool   `yaml:"headless"`
	UserAgent      string `yaml:"user_agent"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
}

type HarvestConfig struct {
	Limit       int           `yaml:"limit"`
	FeedTimeout time.Duration `yaml:"feed_timeout"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	ScrollDelay time.Duration `yaml:"scroll_delay"`
}

type WebsiteConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxPages int           `yaml:"max_pages"`
}

type OutreachConfig struct {
	SenderName  string `yaml:"sender_name"`
	CompanyName string `yaml:"company_name"`
	Website     string `yaml:"website"`
}

type ApolloConfig struct {
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

func defaults() Config {
	return Config{
		Browser: BrowserConfig{
			Headless:       true,
			UserAgent:      defaultUserAgent,
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
		Harvest: HarvestConfig{
			Limit:       20,
			FeedTimeout: 15 * time.Second,
			SettleDelay: time.Second,
			ScrollDelay: 2 * time.Second,
		},
		Website: WebsiteConfig{
			Timeout:  15 * time.Second,
			MaxPages: 6,
		},
		Apollo: ApolloConfig{
			Timeout: 30 * time.Second,
		},
		DB: DBConfig{
			Host: "127.0.0.1",
			Port: "3306",
			User: "root",
			Name: "ghosthunter",
		},
	}
}

// Load builds the effective configuration. A missing YAML file is fine when
// path is empty; a named file that cannot be read is an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, eris.Wrapf(err, "config: read %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, eris.Wrapf(err, "config: parse %s", path)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Browser.Headless = boolOrDefault("GH_HEADLESS", c.Browser.Headless)
	c.Browser.UserAgent = valueOrDefault("GH_USER_AGENT", c.Browser.UserAgent)
	c.Browser.ViewportWidth = intOrDefault("GH_VIEWPORT_WIDTH", c.Browser.ViewportWidth)
	c.Browser.ViewportHeight = intOrDefault("GH_VIEWPORT_HEIGHT", c.Browser.ViewportHeight)

	c.Harvest.Limit = intOrDefault("GH_HARVEST_LIMIT", c.Harvest.Limit)
	c.Harvest.FeedTimeout = durationOrDefault("GH_FEED_TIMEOUT", c.Harvest.FeedTimeout)
	c.Harvest.SettleDelay = durationOrDefault("GH_SETTLE_DELAY", c.Harvest.SettleDelay)
	c.Harvest.ScrollDelay = durationOrDefault("GH_SCROLL_DELAY", c.Harvest.ScrollDelay)

	c.Website.Timeout = durationOrDefault("GH_WEBSITE_TIMEOUT", c.Website.Timeout)
	c.Website.MaxPages = intOrDefault("GH_WEBSITE_MAX_PAGES", c.Website.MaxPages)

	c.Outreach.SenderName = valueOrDefault("GH_SENDER_NAME", c.Outreach.SenderName)
	c.Outreach.CompanyName = valueOrDefault("GH_COMPANY_NAME", c.Outreach.CompanyName)
	c.Outreach.Website = valueOrDefault("GH_COMPANY_WEBSITE", c.Outreach.Website)

	c.Apollo.APIKey = valueOrDefault("APOLLO_API_KEY", c.Apollo.APIKey)
	c.Apollo.Timeout = durationOrDefault("APOLLO_TIMEOUT", c.Apollo.Timeout)

	c.DB.Host = valueOrDefault("DB_HOST", c.DB.Host)
	c.DB.Port = valueOrDefault("DB_PORT", c.DB.Port)
	c.DB.User = valueOrDefault("DB_USER", c.DB.User)
	c.DB.Password = valueOrDefault("DB_PASSWORD", c.DB.Password)
	c.DB.Name = valueOrDefault("DB_NAME", c.DB.Name)
}

// DSN renders the MySQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

func valueOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func intOrDefault(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolOrDefault(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
