package config

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/skybi/netaccess/internal/netaccess"
	"os"
	"strings"
	"time"
)

// Config represents the application configuration structure
type Config struct {
	Environment string `default:"prod"`

	Username     string
	Password     string
	PasswordFile string `split_words:"true"`

	BaseURL       string `split_words:"true" default:"https://netaccess.iitm.ac.in"`
	Duration      int    `default:"2"`
	ApprovePolicy string `split_words:"true" default:"optimistic"`

	Timeout    time.Duration `default:"30s"`
	Retries    int           `default:"0"`
	RetryDelay time.Duration `split_words:"true" default:"2s"`
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("na", config); err != nil {
		return nil, err
	}

	// Fall back to the secret file if the password was not set directly
	if config.Password == "" && config.PasswordFile != "" {
		password, err := readSecretFile(config.PasswordFile)
		if err != nil {
			return nil, err
		}
		config.Password = password
	}
	return config, nil
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return strings.ToLower(config.Environment) == "prod"
}

// Policy returns the parsed approval match policy
func (config *Config) Policy() (netaccess.MatchPolicy, error) {
	return netaccess.ParseMatchPolicy(config.ApprovePolicy)
}

// Validate checks whether the configuration allows a complete login & approval run
func (config *Config) Validate() error {
	if config.Username == "" || config.Password == "" {
		return errors.New("credentials missing: set NA_USERNAME and NA_PASSWORD (or NA_PASSWORD_FILE)")
	}
	if !netaccess.Duration(config.Duration).Valid() {
		return fmt.Errorf("duration must be 1 (1 hour) or 2 (1 day), got %d", config.Duration)
	}
	if _, err := config.Policy(); err != nil {
		return err
	}
	if config.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", config.Retries)
	}
	return nil
}

// String renders the configuration without its secrets
func (config Config) String() string {
	password := ""
	if config.Password != "" {
		password = "***"
	}
	return fmt.Sprintf("{Environment:%s Username:%s Password:%s BaseURL:%s Duration:%d ApprovePolicy:%s Timeout:%s Retries:%d RetryDelay:%s}",
		config.Environment, config.Username, password, config.BaseURL, config.Duration, config.ApprovePolicy,
		config.Timeout, config.Retries, config.RetryDelay)
}

// readSecretFile reads the first line of a secret file
func readSecretFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return "", fmt.Errorf("read %s: secret file is empty", path)
	}
	secret := strings.TrimSpace(scanner.Text())
	if secret == "" {
		return "", fmt.Errorf("read %s: secret file is empty", path)
	}
	return secret, nil
}
