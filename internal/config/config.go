// Package config loads application configuration from environment variables.
package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// keyInfo separates the credential encryption key from any other key a
// future version derives from the same passphrase.
var keyInfo = []byte("brainpanel.credentials.v1")

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr        string
	DBPath            string
	SecretKey         string
	TelemetryInterval time.Duration
	GeoURL            string
	GeoTimeout        time.Duration
	Services          []string
	MessageLimit      int
	PanelIdleTTL      time.Duration
	MaxPanels         int
	GroqAPIKey        string
}

// HasSecretKey reports whether credential storage is enabled.
func (c *Config) HasSecretKey() bool {
	return c.SecretKey != ""
}

// EncryptionKey derives the 32-byte AES-256 key from SecretKey with
// HKDF-SHA256. It returns nil when no passphrase is configured.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.SecretKey == "" {
		return nil, nil
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(c.SecretKey), nil, keyInfo), key); err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}
	return key, nil
}

// FallbackCredentials returns the pre-provisioned secrets keyed by service.
func (c *Config) FallbackCredentials() map[string]string {
	fallbacks := map[string]string{}
	if c.GroqAPIKey != "" {
		fallbacks["groq"] = c.GroqAPIKey
	}
	return fallbacks
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional. Defaults: BRAINPANEL_LISTEN_ADDR (127.0.0.1:8080),
// BRAINPANEL_DB_PATH (brainpanel.db), BRAINPANEL_TELEMETRY_INTERVAL (8s),
// BRAINPANEL_GEO_TIMEOUT (5s), BRAINPANEL_SERVICES (Groq,OpenAI,ElevenLabs),
// BRAINPANEL_MESSAGE_LIMIT (50), BRAINPANEL_PANEL_IDLE_TTL (10m),
// BRAINPANEL_MAX_PANELS (64, 0 disables the cap). An empty BRAINPANEL_GEO_URL disables location,
// an empty BRAINPANEL_SECRET_KEY disables credential storage.
func Load() (*Config, error) {
	telemetryInterval, err := durationEnv("BRAINPANEL_TELEMETRY_INTERVAL", 8*time.Second)
	if err != nil {
		return nil, err
	}

	geoTimeout, err := durationEnv("BRAINPANEL_GEO_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	panelIdleTTL, err := durationEnv("BRAINPANEL_PANEL_IDLE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("BRAINPANEL_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "brainpanel.db"
	if v, ok := os.LookupEnv("BRAINPANEL_DB_PATH"); ok {
		dbPath = v
	}

	messageLimit := 50
	if v, ok := os.LookupEnv("BRAINPANEL_MESSAGE_LIMIT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("BRAINPANEL_MESSAGE_LIMIT has invalid value %q", v)
		}
		messageLimit = parsed
	}

	maxPanels := 64
	if v, ok := os.LookupEnv("BRAINPANEL_MAX_PANELS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("BRAINPANEL_MAX_PANELS has invalid value %q", v)
		}
		maxPanels = parsed
	}

	services := []string{"Groq", "OpenAI", "ElevenLabs"}
	if v, ok := os.LookupEnv("BRAINPANEL_SERVICES"); ok {
		services = []string{}
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				services = append(services, name)
			}
		}
	}

	return &Config{
		ListenAddr:        listenAddr,
		DBPath:            dbPath,
		SecretKey:         os.Getenv("BRAINPANEL_SECRET_KEY"),
		TelemetryInterval: telemetryInterval,
		GeoURL:            os.Getenv("BRAINPANEL_GEO_URL"),
		GeoTimeout:        geoTimeout,
		Services:          services,
		MessageLimit:      messageLimit,
		PanelIdleTTL:      panelIdleTTL,
		MaxPanels:         maxPanels,
		GroqAPIKey:        os.Getenv("BRAINPANEL_GROQ_API_KEY"),
	}, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return parsed, nil
}
