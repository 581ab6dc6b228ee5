package core

import (
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
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string
		WorkDir  string

		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		Batch    BatchConfig
	}

	ServerConfig struct {
		Host            string
		Addr            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool

		// pool settings
		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
		PrePing         bool
	}

	BatchConfig struct {
		ChunkSize     int
		MaxUploadSize int64
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables (prefixed with the
// current ENV: DEV (local; default), TEST, QA or PROD).
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Darasa")
	conf.SetDefault("build", "dev")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("serverDebugHost", "localhost:4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)

	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbName", "darasa")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbUser", "")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbAdminUser", "")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbDisableTLS", true)
	conf.SetDefault("dbMaxOpenConns", 25)
	conf.SetDefault("dbMaxIdleConns", 25)
	conf.SetDefault("dbConnMaxLifetime", 5*time.Minute)
	conf.SetDefault("dbPrePing", true)

	conf.SetDefault("batchChunkSize", 1000)
	conf.SetDefault("batchMaxUploadSize", 100<<20) // 100 MiB

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:      env,
		Debug:    conf.GetBool("debug"),
		TestMode: testMode,
		AppName:  conf.GetString("appName"),
		Build:    conf.GetString("build"),
		WorkDir:  wd,

		DefaultFromEmail: mail.Address{Name: conf.GetString("appName"), Address: conf.GetString("defaultFromEmail")},
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),

		Server: ServerConfig{
			Host:            conf.GetString("serverHost"),
			Addr:            conf.GetString("serverAddr"),
			DebugHost:       conf.GetString("serverDebugHost"),
			ShutdownTimeout: conf.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:          conf.GetString("dbEngine"),
			Name:            conf.GetString("dbName"),
			Host:            conf.GetString("dbHost"),
			Port:            conf.GetString("dbPort"),
			User:            conf.GetString("dbUser"),
			Password:        conf.GetString("dbPassword"),
			AdminUser:       conf.GetString("dbAdminUser"),
			AdminPassword:   conf.GetString("dbAdminPassword"),
			DisableTLS:      conf.GetBool("dbDisableTLS"),
			MaxOpenConns:    conf.GetInt("dbMaxOpenConns"),
			MaxIdleConns:    conf.GetInt("dbMaxIdleConns"),
			ConnMaxLifetime: conf.GetDuration("dbConnMaxLifetime"),
			PrePing:         conf.GetBool("dbPrePing"),
		},
		Batch: BatchConfig{
			ChunkSize:     conf.GetInt("batchChunkSize"),
			MaxUploadSize: conf.GetInt64("batchMaxUploadSize"),
		},
	}
}
