package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
)

// Config carries everything the driver needs to reach the SR-API:
// credentials for the token endpoint, the stream endpoint, and the
// building the calls are addressed to.
type Config struct {
	ClientID      string
	ClientSecret  string
	TokenEndpoint string
	WSEndpoint    string
	Scope         string
	BuildingID    string
	GroupID       string
	BuildingFile  string
}

// Load reads an optional .env file and then the environment. Missing
// optional values fall back to the sandbox defaults.
func Load() (*Config, error) {
	// .env is a convenience for local runs; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		ClientID:      os.Getenv("KONE_CLIENT_ID"),
		ClientSecret:  os.Getenv("KONE_CLIENT_SECRET"),
		TokenEndpoint: getEnv("KONE_TOKEN_ENDPOINT", constants.DefaultTokenEndpoint),
		WSEndpoint:    getEnv("KONE_WS_ENDPOINT", constants.DefaultWSEndpoint),
		Scope:         getEnv("KONE_SCOPE", constants.DefaultScope),
		BuildingID:    os.Getenv("KONE_BUILDING_ID"),
		GroupID:       getEnv("KONE_GROUP_ID", constants.DefaultGroupID),
		BuildingFile:  os.Getenv("KONE_BUILDING_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("config: KONE_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("config: KONE_CLIENT_SECRET is required")
	}
	if c.BuildingID == "" {
		return fmt.Errorf("config: KONE_BUILDING_ID is required")
	}
	return nil
}

// getEnv returns environment variable value or default if empty
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
