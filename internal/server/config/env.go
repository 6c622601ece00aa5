package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvDatabaseDSN    = "DATABASE_URL"
	EnvDatabaseName   = "DATABASE_NAME"
	EnvRedisURL       = "REDIS_URL"
	EnvSecretKey      = "SECRET_KEY"
	EnvAccessTokenTTL = "ACCESS_TOKEN_TTL"
	EnvSessionTTL     = "SESSION_TTL"
	EnvBcryptCost     = "BCRYPT_COST"
	EnvLoginRate      = "LOGIN_RATE_WINDOW"
	EnvUploadRate     = "UPLOAD_RATE_WINDOW"
	EnvLogFile        = "LOG_FILE"
	EnvAvatarBackend  = "AVATAR_BACKEND"
	EnvAvatarDir      = "AVATAR_DIR"
	EnvMaxAvatarBytes = "MAX_AVATAR_BYTES"
	EnvS3RootUser     = "S3_ROOT_USER"
	EnvS3RootPassword = "S3_ROOT_PASSWORD"
	EnvS3Bucket       = "S3_BUCKET"
	EnvS3Region       = "S3_REGION"
	EnvS3BaseEndpoint = "S3_BASE_ENDPOINT"
)

const defaultEnvFile = ".env"

// loadEnvFile merges a dotenv file into the process environment. Variables
// already set in the environment win. A missing default .env is not an
// error; a missing file named with -env-file is.
func loadEnvFile() error {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays settings found in the environment onto config.
func parseEnv(config *Config) error {
	if err := loadEnvFile(); err != nil {
		return err
	}

	strs := map[string]*string{
		EnvHTTPAddr:       &config.HTTPAddr,
		EnvDatabaseDSN:    &config.DatabaseDSN,
		EnvDatabaseName:   &config.DatabaseName,
		EnvRedisURL:       &config.RedisURL,
		EnvSecretKey:      &config.SecretKey,
		EnvLogFile:        &config.LogFile,
		EnvAvatarBackend:  &config.AvatarBackend,
		EnvAvatarDir:      &config.AvatarDir,
		EnvS3RootUser:     &config.S3RootUser,
		EnvS3RootPassword: &config.S3RootPassword,
		EnvS3Bucket:       &config.S3Bucket,
		EnvS3Region:       &config.S3Region,
		EnvS3BaseEndpoint: &config.S3BaseEndpoint,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		EnvRequestTimeout: &config.RequestTimeout,
		EnvAccessTokenTTL: &config.AccessTokenValidityDuration,
		EnvSessionTTL:     &config.SessionTTL,
		EnvLoginRate:      &config.LoginRateWindow,
		EnvUploadRate:     &config.UploadRateWindow,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = d
	}

	if v := os.Getenv(EnvBcryptCost); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBcryptCost, err)
		}
		config.BcryptCost = n
	}
	if v := os.Getenv(EnvMaxAvatarBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxAvatarBytes, err)
		}
		config.MaxAvatarBytes = n
	}

	return nil
}
