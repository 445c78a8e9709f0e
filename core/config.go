package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env     string
		Build   string
		AppName string
		Debug   bool

		Server   ServerConfig
		Admin    AdminConfig
		Session  SessionConfig
		Store    StoreConfig
		Blob     BlobConfig
		Quiz     QuizConfig
		Rollbar  RollbarConfig
		Sendgrid SendgridConfig

		DefaultFromEmail mail.Address
	}

	ServerConfig struct {
		Host            string
		Port            string
		ShutdownTimeout time.Duration
		AuthRateLimit   float64 // requests per second, per IP, on /login & /signup
		DisableReqLogs  bool
	}

	AdminConfig struct {
		Email    string
		Password string
	}

	SessionConfig struct {
		Secret     string
		CookieName string
		MaxAge     time.Duration
	}

	StoreConfig struct {
		Engine string // memory | postgres | sqlite3 | redis | mongo
		DSN    string
		Name   string
	}

	BlobConfig struct {
		Engine     string // local | cloudinary
		Dir        string
		Cloudinary CloudinaryConfig
	}

	CloudinaryConfig struct {
		CloudName string
		APIKey    string
		APISecret string
		Folder    string
	}

	QuizConfig struct {
		StrictQuestions bool
	}

	RollbarConfig struct {
		Token string
	}

	SendgridConfig struct {
		APIKey string
	}
)

// Address is the address the API server listens on.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// NewConfig loads the configuration from the environment (and an optional `config/.env.<env>` file).
func NewConfig() (*Config, error) {
	conf := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", env == "DEV" || env == "TEST")
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "English Haven")
	conf.SetDefault("server.host", "")
	conf.SetDefault("port", "3000")
	conf.SetDefault("server.shutdownTimeout", 10*time.Second)
	conf.SetDefault("server.authRateLimit", 5.0)
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("admin.email", "admin@englishhaven.com")
	conf.SetDefault("admin.password", "enghaven(f)")
	conf.SetDefault("session.secret", "dev_secret")
	conf.SetDefault("session.cookie", "eh_sess")
	conf.SetDefault("session.maxAge", 50*365*24*time.Hour)
	conf.SetDefault("store.engine", "memory")
	conf.SetDefault("store.dsn", "")
	conf.SetDefault("store.name", "enghaven")
	conf.SetDefault("blob.engine", "local")
	conf.SetDefault("blob.dir", os.TempDir())
	conf.SetDefault("cloudinary.cloudName", "")
	conf.SetDefault("cloudinary.apiKey", "")
	conf.SetDefault("cloudinary.apiSecret", "")
	conf.SetDefault("cloudinary.folder", "enghaven/proofs")
	conf.SetDefault("quiz.strictQuestions", false)
	conf.SetDefault("rollbar.token", "")
	conf.SetDefault("sendgrid.apiKey", "")
	conf.SetDefault("mail.from", "English Haven <noreply@englishhaven.com>")

	// env vars: `store.engine` -> STORE_ENGINE, `session.maxAge` -> SESSION_MAXAGE, ...
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()
	_ = conf.BindEnv("cloudinary.cloudName", "CLOUDINARY_CLOUD_NAME")
	_ = conf.BindEnv("cloudinary.apiKey", "CLOUDINARY_API_KEY")
	_ = conf.BindEnv("cloudinary.apiSecret", "CLOUDINARY_API_SECRET")
	_ = conf.BindEnv("quiz.strictQuestions", "QUIZ_STRICT_QUESTIONS")
	_ = conf.BindEnv("sendgrid.apiKey", "SENDGRID_API_KEY")
	_ = conf.BindEnv("rollbar.token", "ROLLBAR_TOKEN")

	from, err := mail.ParseAddress(conf.GetString("mail.from"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing mail.from")
	}

	return &Config{
		Env:     env,
		Build:   conf.GetString("build"),
		AppName: conf.GetString("appName"),
		Debug:   conf.GetBool("debug"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Port:            conf.GetString("port"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			AuthRateLimit:   conf.GetFloat64("server.authRateLimit"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
		},
		Admin: AdminConfig{
			Email:    conf.GetString("admin.email"),
			Password: conf.GetString("admin.password"),
		},
		Session: SessionConfig{
			Secret:     conf.GetString("session.secret"),
			CookieName: conf.GetString("session.cookie"),
			MaxAge:     conf.GetDuration("session.maxAge"),
		},
		Store: StoreConfig{
			Engine: strings.ToLower(conf.GetString("store.engine")),
			DSN:    conf.GetString("store.dsn"),
			Name:   conf.GetString("store.name"),
		},
		Blob: BlobConfig{
			Engine: strings.ToLower(conf.GetString("blob.engine")),
			Dir:    conf.GetString("blob.dir"),
			Cloudinary: CloudinaryConfig{
				CloudName: conf.GetString("cloudinary.cloudName"),
				APIKey:    conf.GetString("cloudinary.apiKey"),
				APISecret: conf.GetString("cloudinary.apiSecret"),
				Folder:    conf.GetString("cloudinary.folder"),
			},
		},
		Quiz:             QuizConfig{StrictQuestions: conf.GetBool("quiz.strictQuestions")},
		Rollbar:          RollbarConfig{Token: conf.GetString("rollbar.token")},
		Sendgrid:         SendgridConfig{APIKey: conf.GetString("sendgrid.apiKey")},
		DefaultFromEmail: *from,
	}, nil
}
