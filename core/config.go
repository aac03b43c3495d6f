package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EngineSqlite   = "sqlite"
	EnginePostgres = "postgres"

	StorageFilesystem = "filesystem"
	StorageS3         = "s3"
)

type (
	Config struct {
		Env                 string
		Build               string
		Debug               bool
		TestMode            bool
		AppName             string
		SecretKey           string
		RollbarToken        string
		WorkDir             string
		PasswordCodeTimeout time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Chat     ChatConfig
		Storage  StorageConfig
		Mail     MailConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugAddress              string
		ShutdownTimeout           time.Duration
		AllowedOrigins            []string
		DisableReqLogs            bool
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite only
	}

	ChatConfig struct {
		// Capacity is the registry-wide ceiling of live relay connections. <= 0 disables it.
		Capacity       int
		MaxMessageSize int64
	}

	StorageConfig struct {
		Backend string
		Root    string
		Bucket  string
		Region  string
	}

	MailConfig struct {
		DefaultFromEmail string
		SendgridAPIKey   string
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func (m MailConfig) From() mail.Address {
	addr, err := mail.ParseAddress(m.DefaultFromEmail)
	if err != nil {
		return mail.Address{Address: m.DefaultFromEmail}
	}
	return *addr
}

// NewConfig loads the configuration of the current environment (`ENV`) from defaults,
// config/.env.<env> (if it exists) and <ENV>_ prefixed environment variables.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "HRMobile")
	v.SetDefault("secretKey", "n0t-s0-s3cr3t(k3y)f0r-d3v3l0pm3nt-0nly")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordCodeTimeout", 10*time.Minute)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)

	v.SetDefault("database.engine", EnginePostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "hrmobile")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "hrmobile.db")

	v.SetDefault("chat.capacity", 2)
	v.SetDefault("chat.maxMessageSize", int64(64<<10))

	v.SetDefault("storage.backend", StorageFilesystem)
	v.SetDefault("storage.root", "uploads")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")

	v.SetDefault("mail.defaultFromEmail", "noreply@localhost")
	v.SetDefault("mail.sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:                 env,
		Build:               v.GetString("build"),
		Debug:               v.GetBool("debug"),
		TestMode:            v.GetBool("testMode"),
		AppName:             v.GetString("appName"),
		SecretKey:           v.GetString("secretKey"),
		RollbarToken:        v.GetString("rollbarToken"),
		WorkDir:             wd,
		PasswordCodeTimeout: v.GetDuration("passwordCodeTimeout"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugAddress:              v.GetString("server.debugAddress"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			AllowedOrigins:            v.GetStringSlice("server.allowedOrigins"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Chat: ChatConfig{
			Capacity:       v.GetInt("chat.capacity"),
			MaxMessageSize: v.GetInt64("chat.maxMessageSize"),
		},
		Storage: StorageConfig{
			Backend: v.GetString("storage.backend"),
			Root:    v.GetString("storage.root"),
			Bucket:  v.GetString("storage.bucket"),
			Region:  v.GetString("storage.region"),
		},
		Mail: MailConfig{
			DefaultFromEmail: v.GetString("mail.defaultFromEmail"),
			SendgridAPIKey:   v.GetString("mail.sendgridApiKey"),
		},
	}
}
