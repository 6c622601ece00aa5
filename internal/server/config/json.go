package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/flagx"
	"github.com/dmitrijs2005/avatargate/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Duration
// fields accept "30m"-style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	RequestTimeout              timex.Duration `json:"request_timeout"`
	DatabaseDSN                 string         `json:"database_dsn"`
	DatabaseName                string         `json:"database_name"`
	RedisURL                    string         `json:"redis_url"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	SessionTTL                  timex.Duration `json:"session_ttl"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	LoginRateWindow             timex.Duration `json:"login_rate_window"`
	UploadRateWindow            timex.Duration `json:"upload_rate_window"`
	LogFile                     string         `json:"log_file"`
	AvatarBackend               string         `json:"avatar_backend"`
	AvatarDir                   string         `json:"avatar_dir"`
	MaxAvatarBytes              int64          `json:"max_avatar_bytes"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field that is set in it onto config. Fields absent from the file keep their
// current values.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DatabaseName, c.DatabaseName)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogFile, c.LogFile)
	setString(&config.AvatarBackend, c.AvatarBackend)
	setString(&config.AvatarDir, c.AvatarDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setDuration(&config.RequestTimeout, c.RequestTimeout)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.LoginRateWindow, c.LoginRateWindow)
	setDuration(&config.UploadRateWindow, c.UploadRateWindow)

	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.MaxAvatarBytes != 0 {
		config.MaxAvatarBytes = c.MaxAvatarBytes
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
