package config

import (
	"fmt"
	"strings"
	"time"
)

// SourceConfig describes one published spreadsheet export
type SourceConfig struct {
	ID  string `mapstructure:"id" yaml:"id"`
	URL string `mapstructure:"url" yaml:"url"`
}

// SheetConfig represents the configuration for fetching the spreadsheet
type SheetConfig struct {
	Sources         []SourceConfig
	EditURL         string
	Timeout         time.Duration
	MaxBodyBytes    int64
	CacheBuster     bool
	FallbackToCache bool
	UserAgent       string
}

// ColumnsConfig names the spreadsheet columns
type ColumnsConfig struct {
	Phone             string
	Message           string
	Timestamp         string
	TimestampFallback string
}

// FeedConfig represents the configuration for grouping and refreshing
type FeedConfig struct {
	Refresh          string
	RefreshTimeout   time.Duration
	RecentWindow     time.Duration
	Location         *time.Location
	Columns          ColumnsConfig
	TimestampLayouts []string
	IgnoredPhones    []string
	Greeting         string
	ReplyBaseURL     string
}

// ServerConfig represents the configuration for the HTTP API
type ServerConfig struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Username      string
	Password      string
}

// CacheConfig represents the configuration for the snapshot cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// ReplyConfig selects the reply drafting provider
type ReplyConfig struct {
	Provider string
	Timeout  time.Duration
}

// LLMConfig holds the generation settings shared by every provider
type LLMConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	LLMConfig
	Region string
}

// NotifyConfig represents the configuration for new-contact notifications
type NotifyConfig struct {
	Type          string
	SMTPAddress   string
	SMTPPort      int
	From          string
	To            []string
	SubjectPrefix string
	Timeout       time.Duration
}

// GetSources returns the configured spreadsheet sources. A plain sheet.url is
// treated as a single source with ID "default".
func (c *Config) GetSources() ([]SourceConfig, error) {
	var sources []SourceConfig
	if err := c.v.UnmarshalKey("sheet.sources", &sources); err != nil {
		return nil, fmt.Errorf("failed to decode sheet.sources: %w", err)
	}

	if url := strings.TrimSpace(c.GetString("sheet.url")); url != "" {
		sources = append([]SourceConfig{{ID: "default", URL: url}}, sources...)
	}

	for i := range sources {
		if sources[i].URL == "" {
			return nil, fmt.Errorf("sheet source %d has no url", i)
		}
		if sources[i].ID == "" {
			sources[i].ID = fmt.Sprintf("source-%d", i+1)
		}
	}

	return sources, nil
}

// GetSheet returns the spreadsheet fetch configuration
func (c *Config) GetSheet() (SheetConfig, error) {
	sources, err := c.GetSources()
	if err != nil {
		return SheetConfig{}, err
	}
	timeout, err := c.GetDuration("sheet.timeout")
	if err != nil {
		return SheetConfig{}, fmt.Errorf("invalid sheet timeout: %w", err)
	}

	return SheetConfig{
		Sources:         sources,
		EditURL:         c.GetString("sheet.edit_url"),
		Timeout:         timeout,
		MaxBodyBytes:    c.GetInt64("sheet.max_body_bytes"),
		CacheBuster:     c.GetBool("sheet.cache_buster"),
		FallbackToCache: c.GetBool("sheet.fallback_to_cache"),
		UserAgent:       c.GetString("sheet.user_agent"),
	}, nil
}

// GetFeed returns the grouping configuration
func (c *Config) GetFeed() (FeedConfig, error) {
	window, err := c.GetDuration("feed.recent_window")
	if err != nil {
		return FeedConfig{}, fmt.Errorf("invalid recent window: %w", err)
	}

	refreshTimeout, err := c.GetDuration("feed.refresh_timeout")
	if err != nil {
		return FeedConfig{}, fmt.Errorf("invalid refresh timeout: %w", err)
	}

	loc, err := time.LoadLocation(c.GetString("feed.timezone"))
	if err != nil {
		return FeedConfig{}, fmt.Errorf("invalid timezone: %w", err)
	}

	return FeedConfig{
		Refresh:        c.GetString("feed.refresh"),
		RefreshTimeout: refreshTimeout,
		RecentWindow:   window,
		Location:       loc,
		Columns: ColumnsConfig{
			Phone:             c.GetString("feed.columns.phone"),
			Message:           c.GetString("feed.columns.message"),
			Timestamp:         c.GetString("feed.columns.timestamp"),
			TimestampFallback: c.GetString("feed.columns.timestamp_fallback"),
		},
		TimestampLayouts: c.GetStringSlice("feed.timestamp_layouts"),
		IgnoredPhones:    c.GetStringSlice("feed.ignored_phones"),
		Greeting:         c.GetString("feed.greeting"),
		ReplyBaseURL:     c.GetString("feed.reply_base_url"),
	}, nil
}

// GetServer returns the HTTP API configuration
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server read timeout: %w", err)
	}
	writeTimeout, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server write timeout: %w", err)
	}

	return ServerConfig{
		ListenAddress: c.GetString("server.listen_address"),
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		Username:      c.GetString("server.basic_auth.username"),
		Password:      c.GetString("server.basic_auth.password"),
	}, nil
}

// GetCache returns the snapshot cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetReply returns the reply drafting configuration
func (c *Config) GetReply() ReplyConfig {
	timeout, err := c.GetDuration("reply.timeout")
	if err != nil {
		timeout = 20 * time.Second
	}
	return ReplyConfig{
		Provider: c.GetString("reply.provider"),
		Timeout:  timeout,
	}
}

func (c *Config) llm(prefix string) LLMConfig {
	return LLMConfig{
		APIKey:      c.GetString(prefix + ".api_key"),
		ModelName:   c.GetString(prefix + ".model_name"),
		MaxTokens:   c.GetInt(prefix + ".max_tokens"),
		Temperature: float32(c.GetFloat64(prefix + ".temperature")),
		TopP:        float32(c.GetFloat64(prefix + ".top_p")),
		MaxBodySize: c.GetInt(prefix + ".max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() LLMConfig {
	return c.llm("openai")
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() LLMConfig {
	return c.llm("gemini")
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	cfg := BedrockConfig{
		LLMConfig: c.llm("bedrock"),
		Region:    c.GetString("bedrock.region"),
	}
	cfg.ModelName = c.GetString("bedrock.model_id")
	return cfg
}

// GetNotify returns the notification configuration
func (c *Config) GetNotify() NotifyConfig {
	timeout, err := c.GetDuration("notify.smtp.timeout")
	if err != nil {
		timeout = 10 * time.Second
	}
	return NotifyConfig{
		Type:          c.GetString("notify.type"),
		SMTPAddress:   c.GetString("notify.smtp.address"),
		SMTPPort:      c.GetInt("notify.smtp.port"),
		From:          c.GetString("notify.smtp.from"),
		To:            c.GetStringSlice("notify.smtp.to"),
		SubjectPrefix: c.GetString("notify.smtp.subject_prefix"),
		Timeout:       timeout,
	}
}
