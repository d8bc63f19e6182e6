package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	// 上游服务配置只从环境变量读取，不写入配置文件
	AI    AIConfig    `mapstructure:"-"`
	Image ImageConfig `mapstructure:"-"`

	// 内置超时，不暴露在配置文件
	Upstream UpstreamConfig `mapstructure:"-"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxRequestSize int64         `mapstructure:"max_request_size"`
	StaticDir      string        `mapstructure:"static_dir"`
}

type SecurityConfig struct {
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"`
	Output        string `mapstructure:"output"`
	ConsoleOutput bool   `mapstructure:"console_output"`
	MaxSize       int    `mapstructure:"max_size"`
	MaxBackups    int    `mapstructure:"max_backups"`
	MaxAge        int    `mapstructure:"max_age"`
	Compress      bool   `mapstructure:"compress"`
}

// AIConfig holds the text-generation provider settings.
type AIConfig struct {
	DefaultModel string `env:"AI_DEFAULT_MODEL" envDefault:"DeepSeek-R1-0528"`
	APIURL       string `env:"AI_API_URL" envDefault:"https://chatapi.akash.network/api/v1"`
	APIKey       string `env:"AI_API_KEY"`
}

// HasAPIKey reports whether a secret key is configured. The key itself is never exposed.
func (c AIConfig) HasAPIKey() bool {
	return c.APIKey != ""
}

// ImageConfig holds the image-generation provider settings.
type ImageConfig struct {
	APIURL       string `env:"IMAGE_API_URL" envDefault:"https://image.pollinations.ai"`
	APIKey       string `env:"IMAGE_API_KEY"`
	Referrer     string `env:"IMAGE_REFERRER"`
	DefaultModel string `env:"IMAGE_DEFAULT_MODEL" envDefault:"flux"`
}

type UpstreamConfig struct {
	ModelsTimeout time.Duration
	ChatTimeout   time.Duration
	ImageTimeout  time.Duration
}

// EnvPrefix prefixes environment overrides of file settings, e.g. GENBRIDGE_LOGGING_LEVEL.
const EnvPrefix = "GENBRIDGE"

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 8111
	defaultHTTPTimeout    = 90 * time.Second // 图片生成最长 60 秒，写超时需要留余量
	defaultMaxRequestSize = 1 << 20
	defaultStaticDir      = "./static"

	defaultLogLevel      = "info"
	defaultLogFormat     = "json"
	defaultLogOutput     = "logs/genbridge.log"
	defaultLogMaxSize    = 100
	defaultLogMaxBackups = 10
	defaultLogMaxAge     = 30
)

// BindEnv registers every file setting on v so that GENBRIDGE_* variables override it.
// AutomaticEnv alone only covers keys viper already knows about.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v)
}

func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.host", defaultHost)
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("server.mode", gin.ReleaseMode)
	v.SetDefault("server.read_timeout", defaultHTTPTimeout)
	v.SetDefault("server.write_timeout", defaultHTTPTimeout)
	v.SetDefault("server.max_request_size", defaultMaxRequestSize)
	v.SetDefault("server.static_dir", defaultStaticDir)

	v.SetDefault("security.enable_cors", false)
	v.SetDefault("security.allowed_origins", []string{})

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.format", defaultLogFormat)
	v.SetDefault("logging.output", defaultLogOutput)
	// Console output enabled by default
	v.SetDefault("logging.console_output", true)
	v.SetDefault("logging.max_size", defaultLogMaxSize)
	v.SetDefault("logging.max_backups", defaultLogMaxBackups)
	v.SetDefault("logging.max_age", defaultLogMaxAge)
	v.SetDefault("logging.compress", false)
}

// Load loads the configuration from viper and the process environment
func Load() (*Config, error) {
	return load(viper.GetViper())
}

// Default returns a config with every built-in default applied and provider settings read
// from the environment. Config files are ignored.
func Default() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	registerDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := LoadProviders(&cfg); err != nil {
		return nil, err
	}

	// 设置默认值
	setDefaults(&cfg)

	// 验证配置
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadProviders fills the AI and Image sections from environment variables.
func LoadProviders(cfg *Config) error {
	if err := env.Parse(&cfg.AI); err != nil {
		return fmt.Errorf("failed to parse AI provider env: %w", err)
	}
	if err := env.Parse(&cfg.Image); err != nil {
		return fmt.Errorf("failed to parse image provider env: %w", err)
	}
	return nil
}

// SaveConfig 保存配置到文件
func SaveConfig(cfg *Config, path string) error {
	// 只保存用户可配置的字段，密钥等上游配置不落盘
	v := viper.New()
	for key, value := range fileSettings(cfg) {
		v.Set(key, value)
	}

	if path == "" {
		path = "./config.yaml"
	}

	return v.WriteConfigAs(path)
}

// fileSettings flattens the file-backed sections under the same keys Load reads.
func fileSettings(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":             cfg.Server.Host,
		"server.port":             cfg.Server.Port,
		"server.mode":             cfg.Server.Mode,
		"server.read_timeout":     cfg.Server.ReadTimeout.String(),
		"server.write_timeout":    cfg.Server.WriteTimeout.String(),
		"server.max_request_size": cfg.Server.MaxRequestSize,
		"server.static_dir":       cfg.Server.StaticDir,

		"security.enable_cors":     cfg.Security.EnableCORS,
		"security.allowed_origins": cfg.Security.AllowedOrigins,

		"logging.level":          cfg.Logging.Level,
		"logging.format":         cfg.Logging.Format,
		"logging.output":         cfg.Logging.Output,
		"logging.console_output": cfg.Logging.ConsoleOutput,
		"logging.max_size":       cfg.Logging.MaxSize,
		"logging.max_backups":    cfg.Logging.MaxBackups,
		"logging.max_age":        cfg.Logging.MaxAge,
		"logging.compress":       cfg.Logging.Compress,
	}
}

// setDefaults fills zero values left by an explicit empty setting
func setDefaults(cfg *Config) {
	// 服务器配置
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = gin.ReleaseMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultHTTPTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultHTTPTimeout
	}
	if cfg.Server.MaxRequestSize == 0 {
		cfg.Server.MaxRequestSize = defaultMaxRequestSize
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = defaultStaticDir
	}

	// 日志配置
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultLogFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = defaultLogOutput
	}
	if cfg.Logging.MaxSize == 0 {
		cfg.Logging.MaxSize = defaultLogMaxSize
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = defaultLogMaxBackups
	}
	if cfg.Logging.MaxAge == 0 {
		cfg.Logging.MaxAge = defaultLogMaxAge
	}

	if cfg.Upstream.ModelsTimeout == 0 {
		cfg.Upstream.ModelsTimeout = 10 * time.Second
	}
	if cfg.Upstream.ChatTimeout == 0 {
		cfg.Upstream.ChatTimeout = 50 * time.Second
	}
	if cfg.Upstream.ImageTimeout == 0 {
		cfg.Upstream.ImageTimeout = 60 * time.Second
	}
}

func validate(cfg *Config) error {
	var result error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid port: %d", cfg.Server.Port))
	}

	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		result = multierror.Append(result, fmt.Errorf("invalid server mode: %q", cfg.Server.Mode))
	}

	if _, err := url.Parse(cfg.AI.APIURL); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid AI_API_URL: %w", err))
	}
	if _, err := url.Parse(cfg.Image.APIURL); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid IMAGE_API_URL: %w", err))
	}

	return result
}
