package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Backend string

const (
	BackendMock  Backend = "mock"
	BackendGenAI Backend = "genai"
	BackendHTTP  Backend = "http"
)

type Config struct {
	Addr  string `yaml:"addr"`
	Debug bool   `yaml:"debug"`

	Backend Backend `yaml:"backend"`

	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`
	ModelName    string `yaml:"model_name"`
	APIKey       string `yaml:"api_key"`

	BackendURL     string        `yaml:"backend_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	MockDelay      time.Duration `yaml:"mock_delay"`

	// CredentialExpiresAt, when set, makes chat report an expired session
	// after that instant.
	CredentialExpiresAt time.Time `yaml:"credential_expires_at"`

	RetryDelay time.Duration `yaml:"retry_delay"`

	FirestoreTelemetry bool `yaml:"firestore_telemetry"`
	TelemetryBuffer    int  `yaml:"telemetry_buffer"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		Backend:         BackendMock,
		GCPLocation:     "us-central1",
		ModelName:       "gemini-2.5-flash-lite",
		BackendTimeout:  60 * time.Second,
		RetryDelay:      20 * time.Millisecond,
		TelemetryBuffer: 256,
	}
}

// Load builds the config from defaults, then the YAML file at path (or
// FARUM_CONFIG) if any, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FARUM_CONFIG")
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	c.Addr = getEnv("FARUM_ADDR", c.Addr)
	if port := os.Getenv("FARUM_PORT"); port != "" {
		c.Addr = ":" + port
	}
	c.Debug = getBoolEnv("FARUM_DEBUG", c.Debug)

	c.Backend = Backend(getEnv("FARUM_BACKEND", string(c.Backend)))
	if getBoolEnv("FARUM_USE_MOCK_LLM", false) {
		c.Backend = BackendMock
	}

	c.GCPProjectID = getEnv("FARUM_GCP_PROJECT", c.GCPProjectID)
	c.GCPLocation = getEnv("FARUM_GCP_LOCATION", c.GCPLocation)
	c.ModelName = getEnv("FARUM_MODEL_NAME", c.ModelName)
	c.APIKey = getEnv("FARUM_API_KEY", c.APIKey)
	c.BackendURL = getEnv("FARUM_BACKEND_URL", c.BackendURL)
	c.FirestoreTelemetry = getBoolEnv("FARUM_FIRESTORE_TELEMETRY", c.FirestoreTelemetry)

	var err error
	if c.BackendTimeout, err = getDurationEnv("FARUM_BACKEND_TIMEOUT", c.BackendTimeout); err != nil {
		return err
	}
	if c.MockDelay, err = getDurationEnv("FARUM_MOCK_DELAY", c.MockDelay); err != nil {
		return err
	}
	if c.RetryDelay, err = getDurationEnv("FARUM_RETRY_DELAY", c.RetryDelay); err != nil {
		return err
	}
	if c.TelemetryBuffer, err = getIntEnv("FARUM_TELEMETRY_BUFFER", c.TelemetryBuffer); err != nil {
		return err
	}
	if v := os.Getenv("FARUM_CREDENTIAL_EXPIRES_AT"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("FARUM_CREDENTIAL_EXPIRES_AT: %w", err)
		}
		c.CredentialExpiresAt = t
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendMock:
	case BackendGenAI:
		if c.APIKey == "" && c.GCPProjectID == "" {
			errs = append(errs, errors.New("genai backend needs FARUM_API_KEY or FARUM_GCP_PROJECT"))
		}
	case BackendHTTP:
		if c.BackendURL == "" {
			errs = append(errs, errors.New("http backend needs FARUM_BACKEND_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	if c.FirestoreTelemetry && c.GCPProjectID == "" {
		errs = append(errs, errors.New("firestore telemetry needs FARUM_GCP_PROJECT"))
	}
	if c.RetryDelay <= 0 {
		errs = append(errs, errors.New("retry delay must be positive"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	return errors.Join(errs...)
}

// Credential is what the auth provider checks. The mock backend needs none.
func (c *Config) Credential() string {
	switch c.Backend {
	case BackendMock:
		return string(BackendMock)
	case BackendGenAI:
		if c.APIKey != "" {
			return c.APIKey
		}
		return c.GCPProjectID
	case BackendHTTP:
		// The key is optional for http backends; the endpoint identifies them.
		if c.APIKey != "" {
			return c.APIKey
		}
		return c.BackendURL
	default:
		return c.APIKey
	}
}
