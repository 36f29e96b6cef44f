package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerAddr string
	Nickname   string
	Output     string
	Timeout    time.Duration
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerAddr: getEnvOrDefault("SHOP_SERVER", "127.0.0.1:65432"),
		Nickname:   os.Getenv("SHOP_NICKNAME"),
		Output:     "text",
		Timeout:    10 * time.Second,
		Verbose:    false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
