package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-n", "-k", "-s", "-t", "-r", "-l", "-f", "-m", "-u", "-p", "-b", "-g", "-e"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-n string   database name
//	-k string   Redis URL
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      session ttl, minutes
//	-l string   log file
//	-f string   avatar directory (fs backend)
//	-m string   avatar backend: fs or s3
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Only the flags above are picked out of os.Args, so -c and -env-file can
// coexist with them.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseName, "n", config.DatabaseName, "database name")
	fs.StringVar(&config.RedisURL, "k", config.RedisURL, "redis URL")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	sessionTTL := fs.Int("r", int(config.SessionTTL.Minutes()), "session ttl (in minutes)")

	fs.StringVar(&config.LogFile, "l", config.LogFile, "log file")
	fs.StringVar(&config.AvatarDir, "f", config.AvatarDir, "avatar directory")
	fs.StringVar(&config.AvatarBackend, "m", config.AvatarBackend, "avatar backend (fs|s3)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Minute flags only override when given, so sub-minute values from the
	// environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		case "r":
			config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
		}
	})

	return nil
}
