package config

import (
	"bytes"
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2339
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "paperlens"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultSummaryLanguage  = "korean"
	defaultMaxFullTextChars = 400_000
	defaultHeadingCollapse  = 3
	defaultHistoryMaxItems  = 50
	defaultHistoryMaxBytes  = 4 * 1024 * 1024

	defaultNotionEndpoint = "https://api.notion.com"
)

// AppConfig holds runtime configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	AccessToken    string                `yaml:"access_token"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Summary        SummaryConfig         `yaml:"summary"`
	History        HistoryConfig         `yaml:"history"`
	Providers      []Provider            `yaml:"providers"`
	Notion         NotionConfig          `yaml:"notion"`
	Notify         NotifyConfig          `yaml:"notify"`
}

type DatabaseRuntimeConfig struct {
	DSN       string `yaml:"dsn"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
	Charset   string `yaml:"charset"`
	ParseTime bool   `yaml:"parse_time"`
	Loc       string `yaml:"loc"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// SummaryConfig controls prompt building and translation limits.
type SummaryConfig struct {
	Language         string `yaml:"language"` // korean | english | auto
	AbstractPrompt   string `yaml:"abstract_prompt"`
	FullPrompt       string `yaml:"full_prompt"`
	MaxFullTextChars int    `yaml:"max_full_text_chars"`
	HeadingCollapse  int    `yaml:"heading_collapse"` // deepest heading level kept in block output
}

// HistoryConfig bounds the local result store.
type HistoryConfig struct {
	MaxItems int `yaml:"max_items"`
	MaxBytes int `yaml:"max_bytes"`
}

// Provider describes one summarization backend.
type Provider struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // webhook | claude | openai | generic
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	Enabled  bool   `yaml:"enabled"`
}

// NotifyConfig enables Bark push notifications for background task
// outcomes and abuse alerts. Disabled while the key is empty.
type NotifyConfig struct {
	BarkKey    string `yaml:"bark_key"`
	BarkServer string `yaml:"bark_server"`
	Title      string `yaml:"title"`
}

// NotionConfig holds the document-workspace integration settings.
type NotionConfig struct {
	Token        string `yaml:"token"`
	ParentPageID string `yaml:"parent_page_id"`
	DatabaseID   string `yaml:"database_id"`
	Endpoint     string `yaml:"endpoint"`
}

type rawAppConfig struct {
	Port               int                   `yaml:"port"`
	Env                string                `yaml:"env"`
	NodeEnv            string                `yaml:"node_env"`
	DSN                string                `yaml:"dsn"`
	DatabaseURL        string                `yaml:"database_url"`
	RedisURL           string                `yaml:"redis_url"`
	Database           DatabaseRuntimeConfig `yaml:"database"`
	Redis              RedisRuntimeConfig    `yaml:"redis"`
	AllowedOrigins     []string              `yaml:"allowed_origins"`
	CORSAllowedOrigins []string              `yaml:"cors_allowed_origins"`
	AccessToken        string                `yaml:"access_token"`
	APIToken           string                `yaml:"api_token"`
	JWTSecret          string                `yaml:"jwt_secret"`
	Summary            SummaryConfig         `yaml:"summary"`
	History            HistoryConfig         `yaml:"history"`
	Providers          []Provider            `yaml:"providers"`
	Notion             NotionConfig          `yaml:"notion"`
	Notify             NotifyConfig          `yaml:"notify"`
}

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	applyRawAppConfig(&cfg, raw)
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return nil, fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, path)
	}
	for i, p := range cfg.Providers {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("providers[%d] in %q is missing an id", i, path)
		}
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Summary: SummaryConfig{
			Language:         defaultSummaryLanguage,
			AbstractPrompt:   DefaultAbstractPrompt,
			FullPrompt:       DefaultFullPrompt,
			MaxFullTextChars: defaultMaxFullTextChars,
			HeadingCollapse:  defaultHeadingCollapse,
		},
		History: HistoryConfig{
			MaxItems: defaultHistoryMaxItems,
			MaxBytes: defaultHistoryMaxBytes,
		},
		Notion: NotionConfig{
			Endpoint: defaultNotionEndpoint,
		},
		Notify: NotifyConfig{
			Title: "PaperLens",
		},
	}
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}

	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	if v := strings.TrimSpace(raw.AccessToken); v != "" {
		cfg.AccessToken = v
	}
	if v := strings.TrimSpace(raw.APIToken); v != "" {
		cfg.AccessToken = v
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}

	if v := strings.TrimSpace(raw.Summary.Language); v != "" {
		cfg.Summary.Language = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Summary.AbstractPrompt); v != "" {
		cfg.Summary.AbstractPrompt = raw.Summary.AbstractPrompt
	}
	if v := strings.TrimSpace(raw.Summary.FullPrompt); v != "" {
		cfg.Summary.FullPrompt = raw.Summary.FullPrompt
	}
	if raw.Summary.MaxFullTextChars > 0 {
		cfg.Summary.MaxFullTextChars = raw.Summary.MaxFullTextChars
	}
	if raw.Summary.HeadingCollapse > 0 {
		cfg.Summary.HeadingCollapse = raw.Summary.HeadingCollapse
	}

	if raw.History.MaxItems > 0 {
		cfg.History.MaxItems = raw.History.MaxItems
	}
	if raw.History.MaxBytes > 0 {
		cfg.History.MaxBytes = raw.History.MaxBytes
	}

	if raw.Providers != nil {
		cfg.Providers = normalizeProviders(raw.Providers)
	}

	if v := strings.TrimSpace(raw.Notion.Token); v != "" {
		cfg.Notion.Token = v
	}
	if v := strings.TrimSpace(raw.Notion.ParentPageID); v != "" {
		cfg.Notion.ParentPageID = v
	}
	if v := strings.TrimSpace(raw.Notion.DatabaseID); v != "" {
		cfg.Notion.DatabaseID = v
	}
	if v := strings.TrimSpace(raw.Notion.Endpoint); v != "" {
		cfg.Notion.Endpoint = strings.TrimRight(v, "/")
	}

	if v := strings.TrimSpace(raw.Notify.BarkKey); v != "" {
		cfg.Notify.BarkKey = v
	}
	if v := strings.TrimSpace(raw.Notify.BarkServer); v != "" {
		cfg.Notify.BarkServer = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Notify.Title); v != "" {
		cfg.Notify.Title = v
	}

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Env = normalizeEnv(cfg.Env)
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Database.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DatabaseURL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.Host); v != "" {
		cfg.Host = v
	}
	if raw.Database.Port != 0 {
		cfg.Port = raw.Database.Port
	}
	if v := strings.TrimSpace(raw.Database.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Password); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(raw.Database.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.Database.ParseTime {
		cfg.ParseTime = true
	}
	if v := strings.TrimSpace(raw.Database.Loc); v != "" {
		cfg.Loc = v
	}

	return cfg
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		cfg.Host = v
	}
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		cfg.Password = v
	}
	if raw.Redis.DB != 0 {
		cfg.DB = raw.Redis.DB
	}
	if raw.Redis.TLS {
		cfg.TLS = true
	}

	return cfg
}

func normalizeProviders(providers []Provider) []Provider {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.Endpoint = strings.TrimSpace(p.Endpoint)
		p.Model = strings.TrimSpace(p.Model)
		if p.Name == "" {
			p.Name = p.ID
		}
		out = append(out, p)
	}
	return out
}

// SelectProvider returns the enabled provider with the given id,
// or the first enabled one when id is empty.
func (c *AppConfig) SelectProvider(id string) *Provider {
	id = strings.TrimSpace(id)
	for i := range c.Providers {
		p := &c.Providers[i]
		if !p.Enabled {
			continue
		}
		if id == "" || p.ID == id {
			selected := *p
			return &selected
		}
	}
	return nil
}

func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultDBHost
	}
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		user = defaultDBUser
	}
	password := strings.TrimSpace(c.Password)
	if password == "" {
		password = defaultDBPassword
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = defaultDBName
	}
	charset := strings.TrimSpace(c.Charset)
	if charset == "" {
		charset = defaultDBCharset
	}
	loc := strings.TrimSpace(c.Loc)
	if loc == "" {
		loc = defaultDBLoc
	}

	params := neturl.Values{}
	params.Set("charset", charset)
	params.Set("parseTime", strconv.FormatBool(c.ParseTime))
	params.Set("loc", loc)

	auth := user
	if password != "" {
		auth += ":" + password
	}
	return fmt.Sprintf("%s@tcp(%s)/%s?%s", auth, net.JoinHostPort(host, strconv.Itoa(port)), name, params.Encode())
}

func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultRedisHost
	}
	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(db),
	}
	username := strings.TrimSpace(c.Username)
	password := strings.TrimSpace(c.Password)
	if username != "" {
		if password != "" {
			u.User = neturl.UserPassword(username, password)
		} else {
			u.User = neturl.User(username)
		}
	} else if password != "" {
		u.User = neturl.UserPassword("", password)
	}

	return u.String()
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}
