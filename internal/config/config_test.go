package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var providerEnv = []string{
	"AI_DEFAULT_MODEL", "AI_API_URL", "AI_API_KEY",
	"IMAGE_API_URL", "IMAGE_API_KEY", "IMAGE_REFERRER", "IMAGE_DEFAULT_MODEL",
}

// clearProviderEnv unsets every provider variable for the duration of the test.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range providerEnv {
		if old, ok := os.LookupEnv(key); ok {
			key, old := key, old
			t.Cleanup(func() { os.Setenv(key, old) })
		}
		os.Unsetenv(key)
	}
}

func TestLoadProviders_Fallbacks(t *testing.T) {
	clearProviderEnv(t)

	var cfg Config
	require.NoError(t, LoadProviders(&cfg))

	assert.Equal(t, "DeepSeek-R1-0528", cfg.AI.DefaultModel)
	assert.Equal(t, "https://chatapi.akash.network/api/v1", cfg.AI.APIURL)
	assert.Empty(t, cfg.AI.APIKey)
	assert.False(t, cfg.AI.HasAPIKey())

	assert.Equal(t, "https://image.pollinations.ai", cfg.Image.APIURL)
	assert.Equal(t, "flux", cfg.Image.DefaultModel)
	assert.Empty(t, cfg.Image.APIKey)
	assert.Empty(t, cfg.Image.Referrer)
}

func TestLoadProviders_EnvCombinations(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantModel string
		wantURL   string
		wantKey   bool
	}{
		{
			name:      "nothing set",
			env:       map[string]string{},
			wantModel: "DeepSeek-R1-0528",
			wantURL:   "https://chatapi.akash.network/api/v1",
		},
		{
			name:      "only key",
			env:       map[string]string{"AI_API_KEY": "sk-test"},
			wantModel: "DeepSeek-R1-0528",
			wantURL:   "https://chatapi.akash.network/api/v1",
			wantKey:   true,
		},
		{
			name:      "only model",
			env:       map[string]string{"AI_DEFAULT_MODEL": "gpt-4o"},
			wantModel: "gpt-4o",
			wantURL:   "https://chatapi.akash.network/api/v1",
		},
		{
			name:      "only url",
			env:       map[string]string{"AI_API_URL": "https://text.pollinations.ai/openai"},
			wantModel: "DeepSeek-R1-0528",
			wantURL:   "https://text.pollinations.ai/openai",
		},
		{
			name:      "empty key counts as unset",
			env:       map[string]string{"AI_API_KEY": ""},
			wantModel: "DeepSeek-R1-0528",
			wantURL:   "https://chatapi.akash.network/api/v1",
		},
		{
			name: "everything set",
			env: map[string]string{
				"AI_DEFAULT_MODEL": "mistral",
				"AI_API_URL":       "https://api.example.com/v1",
				"AI_API_KEY":       "sk-live",
			},
			wantModel: "mistral",
			wantURL:   "https://api.example.com/v1",
			wantKey:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProviderEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var cfg Config
			require.NoError(t, LoadProviders(&cfg))

			assert.Equal(t, tt.wantModel, cfg.AI.DefaultModel)
			assert.Equal(t, tt.wantURL, cfg.AI.APIURL)
			assert.Equal(t, tt.wantKey, cfg.AI.HasAPIKey())
		})
	}
}

func TestLoadProviders_ImageEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("IMAGE_API_URL", "https://img.example.com")
	t.Setenv("IMAGE_API_KEY", "img-key")
	t.Setenv("IMAGE_REFERRER", "genbridge.example")
	t.Setenv("IMAGE_DEFAULT_MODEL", "turbo")

	var cfg Config
	require.NoError(t, LoadProviders(&cfg))

	assert.Equal(t, "https://img.example.com", cfg.Image.APIURL)
	assert.Equal(t, "img-key", cfg.Image.APIKey)
	assert.Equal(t, "genbridge.example", cfg.Image.Referrer)
	assert.Equal(t, "turbo", cfg.Image.DefaultModel)
}

func TestDefault(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8111, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.ConsoleOutput)
	assert.Equal(t, 10*time.Second, cfg.Upstream.ModelsTimeout)
	assert.Equal(t, 50*time.Second, cfg.Upstream.ChatTimeout)
	assert.Equal(t, 60*time.Second, cfg.Upstream.ImageTimeout)
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.Upstream.ImageTimeout)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Server.Port = 70000
	cfg.Server.Mode = "loud"

	err := validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port: 70000")
	assert.Contains(t, err.Error(), `invalid server mode: "loud"`)
}

func TestValidate_Defaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Default()
	require.NoError(t, err)
	assert.NoError(t, validate(cfg))
}

func TestLoad_FromViper(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AI_API_KEY", "sk-test")
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("server.port", 9000)
	viper.Set("logging.level", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.AI.HasAPIKey())
}

func TestSaveConfig_OmitsSecrets(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AI_API_KEY", "sk-secret")

	cfg, err := Default()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port: 8111")
	assert.Contains(t, string(data), "read_timeout: 1m30s")
	assert.NotContains(t, string(data), "sk-secret")
}

func TestSaveConfig_RoundTripsThroughLoad(t *testing.T) {
	clearProviderEnv(t)
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Default()
	require.NoError(t, err)
	cfg.Server.Port = 9090
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 2 * time.Minute
	cfg.Server.MaxRequestSize = 4096
	cfg.Server.StaticDir = "/srv/www"
	cfg.Security.EnableCORS = true
	cfg.Security.AllowedOrigins = []string{"https://app.example.com", "https://admin.example.com"}
	cfg.Logging.ConsoleOutput = false
	cfg.Logging.MaxSize = 5
	cfg.Logging.MaxBackups = 2
	cfg.Logging.MaxAge = 7
	cfg.Logging.Compress = true

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	loaded, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.Security, loaded.Security)
	assert.Equal(t, cfg.Logging, loaded.Logging)
}

func TestLoad_ConsoleOutputCanBeDisabled(t *testing.T) {
	clearProviderEnv(t)
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  console_output: false\n"), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Logging.ConsoleOutput)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ConsoleOutputDefaultsOn(t *testing.T) {
	clearProviderEnv(t)
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Logging.ConsoleOutput)
}

func TestBindEnv_OverridesKeysWithoutFlags(t *testing.T) {
	clearProviderEnv(t)
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("GENBRIDGE_LOGGING_LEVEL", "debug")
	t.Setenv("GENBRIDGE_LOGGING_CONSOLE_OUTPUT", "false")
	t.Setenv("GENBRIDGE_SECURITY_ENABLE_CORS", "true")
	t.Setenv("GENBRIDGE_SERVER_READ_TIMEOUT", "15s")
	t.Setenv("GENBRIDGE_SERVER_STATIC_DIR", "/srv/www")

	BindEnv(viper.GetViper())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.ConsoleOutput)
	assert.True(t, cfg.Security.EnableCORS)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/srv/www", cfg.Server.StaticDir)
	assert.Equal(t, 8111, cfg.Server.Port)
}
