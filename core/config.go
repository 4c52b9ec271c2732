package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName         string
		Env             string // DEV (default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		SecretKey       []byte
		FrontendBaseURL string
		WorkDir         string

		DefaultFromEmailAddr string
		SendgridAPIKey       string
		RollbarToken         string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Blob     BlobConfig
		Session  SessionConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       string
		DisableTLS bool
	}

	RedisConfig struct {
		URL string
	}

	BlobConfig struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}

	// SessionConfig holds the knobs of the client session lifecycle.
	SessionConfig struct {
		// DemoDuration is the hard ceiling on a demo session.
		DemoDuration time.Duration
		// VerifyPollInterval is the fixed interval at which a pending
		// account's email confirmation is re-checked.
		VerifyPollInterval time.Duration
		// LoadTimeout bounds the initial identity resolution; the session
		// stops reporting the loading state once it elapses.
		LoadTimeout time.Duration
		// VerificationTokenTimeout is the validity window of emailed
		// verification tokens.
		VerificationTokenTimeout time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmailAddr}
}

func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

// NewConfig loads the app configuration from the environment,
// `config/.env.<env>` (if present) and defaults, in that order of precedence.
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "EduHub")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "q0z8#rm$@y5=+_e&0d(xjw!kuo7^sg1t%*4fb)v62hnic9pla3")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("serverHost", "0.0.0.0")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("serverDebugHost", "0.0.0.0:4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbName", "eduhub")
	conf.SetDefault("dbUser", "eduhub")
	conf.SetDefault("dbPassword", "eduhub")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbDisableTLS", true)
	conf.SetDefault("redisURL", "redis://localhost:6379/0")
	conf.SetDefault("blobEndpoint", "localhost:9000")
	conf.SetDefault("blobAccessKey", "eduhub")
	conf.SetDefault("blobSecretKey", "eduhub-secret")
	conf.SetDefault("blobBucket", "eduhub-library")
	conf.SetDefault("blobUseSSL", false)
	conf.SetDefault("demoDuration", 10*time.Minute)
	conf.SetDefault("verifyPollInterval", 5*time.Second)
	conf.SetDefault("sessionLoadTimeout", 15*time.Second)
	conf.SetDefault("verificationTokenTimeout", 3*24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatal(fmt.Errorf("config.godotenv(%s): %v", dotEnvPath, err))
		}
	} else if !os.IsNotExist(err) {
		log.Fatal(fmt.Errorf("config.os.Stat(%s): %v", dotEnvPath, err))
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:              conf.GetString("appName"),
		Env:                  env,
		Build:                conf.GetString("build"),
		Debug:                conf.GetBool("debug"),
		TestMode:             conf.GetBool("testMode"),
		SecretKey:            []byte(conf.GetString("secretKey")),
		FrontendBaseURL:      conf.GetString("frontendBaseURL"),
		WorkDir:              wd,
		DefaultFromEmailAddr: conf.GetString("defaultFromEmail"),
		SendgridAPIKey:       conf.GetString("sendgridApiKey"),
		RollbarToken:         conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetString("serverPort"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("dbEngine"),
			Name:       conf.GetString("dbName"),
			User:       conf.GetString("dbUser"),
			Password:   conf.GetString("dbPassword"),
			Host:       conf.GetString("dbHost"),
			Port:       conf.GetString("dbPort"),
			DisableTLS: conf.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			URL: conf.GetString("redisURL"),
		},
		Blob: BlobConfig{
			Endpoint:  conf.GetString("blobEndpoint"),
			AccessKey: conf.GetString("blobAccessKey"),
			SecretKey: conf.GetString("blobSecretKey"),
			Bucket:    conf.GetString("blobBucket"),
			UseSSL:    conf.GetBool("blobUseSSL"),
		},
		Session: SessionConfig{
			DemoDuration:             conf.GetDuration("demoDuration"),
			VerifyPollInterval:       conf.GetDuration("verifyPollInterval"),
			LoadTimeout:              conf.GetDuration("sessionLoadTimeout"),
			VerificationTokenTimeout: conf.GetDuration("verificationTokenTimeout"),
		},
	}
}
