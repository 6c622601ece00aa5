// Package config handles configuration for the server: defaults, a JSON
// overlay, environment variables (with .env support) and command-line flags,
// followed by a fail-fast validation pass.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Avatar storage backends.
const (
	AvatarBackendFS = "fs"
	AvatarBackendS3 = "s3"
)

// Config holds runtime settings for the server.
//
// DatabaseDSN, DatabaseName, SecretKey and RedisURL have no defaults and must
// be provided; LoadConfig fails when any of them is missing.
//
// SessionTTL must not exceed AccessTokenValidityDuration: a session entry is
// never allowed to outlive the token it vouches for.
type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration

	DatabaseDSN  string
	DatabaseName string
	RedisURL     string

	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	SessionTTL                  time.Duration
	BcryptCost                  int

	LoginRateWindow  time.Duration
	UploadRateWindow time.Duration

	LogFile string

	AvatarBackend  string
	AvatarDir      string
	MaxAvatarBytes int64
	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates the optional settings. Required settings stay empty.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.RequestTimeout = 10 * time.Second
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.SessionTTL = 30 * time.Minute
	c.BcryptCost = 10
	c.LoginRateWindow = 4 * time.Second
	c.UploadRateWindow = 10 * time.Second
	c.AvatarBackend = AvatarBackendFS
	c.AvatarDir = "UserData"
	c.MaxAvatarBytes = 5 << 20
	c.S3Region = "us-east-1"
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs []error

	var missing []string
	for name, v := range map[string]string{
		EnvDatabaseDSN:  c.DatabaseDSN,
		EnvDatabaseName: c.DatabaseName,
		EnvSecretKey:    c.SecretKey,
		EnvRedisURL:     c.RedisURL,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		errs = append(errs, fmt.Errorf("missing required settings: %s", strings.Join(missing, ", ")))
	}

	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token validity must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.SessionTTL > c.AccessTokenValidityDuration {
		errs = append(errs, fmt.Errorf("session ttl %s exceeds access token validity %s", c.SessionTTL, c.AccessTokenValidityDuration))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.MaxAvatarBytes <= 0 {
		errs = append(errs, errors.New("max avatar size must be positive"))
	}

	switch c.AvatarBackend {
	case AvatarBackendFS:
		if c.AvatarDir == "" {
			errs = append(errs, errors.New("avatar dir is required for the fs backend"))
		}
	case AvatarBackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown avatar backend %q", c.AvatarBackend))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values from
// an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
