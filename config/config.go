package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const EnvPrefix = "SACCO"

// Config holds application configuration. Every field is read from the
// environment as SACCO_<TAG> and may also come from configs/config.<env>.yaml.
type Config struct {
	AppEnv             string        `mapstructure:"APP_ENV" validate:"required,oneof=dev qa staging prod"`
	HTTPAddr           string        `mapstructure:"HTTP_ADDR" validate:"required"`
	MetricsPath        string        `mapstructure:"METRICS_PATH" validate:"required,startswith=/"`
	ModelPath          string        `mapstructure:"MODEL_PATH" validate:"required"`
	MemberSource       string        `mapstructure:"MEMBER_SOURCE" validate:"oneof=csv postgres"`
	MemberCSVPath      string        `mapstructure:"MEMBER_CSV_PATH" validate:"required_if=MemberSource csv"`
	DatabaseDSN        string        `mapstructure:"DATABASE_DSN" validate:"required_if=MemberSource postgres"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS" validate:"min=1"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS" validate:"min=0,ltefield=DBMaxConns"`
	RunMigrations      bool          `mapstructure:"RUN_MIGRATIONS"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisUseTLS        bool          `mapstructure:"REDIS_USE_TLS"`
	CacheTTL           time.Duration `mapstructure:"CACHE_TTL" validate:"gte=0s"`
	RateLimitPerMinute int           `mapstructure:"RATE_LIMIT_PER_MINUTE" validate:"min=1"`
	MinLoanAmount      float64       `mapstructure:"MIN_LOAN_AMOUNT" validate:"gt=0"`
	CounterOfferStep   float64       `mapstructure:"COUNTER_OFFER_STEP" validate:"gt=0"`
	AssessmentHistory  int           `mapstructure:"ASSESSMENT_HISTORY" validate:"min=0"`
	Currency           string        `mapstructure:"CURRENCY" validate:"required,len=3"`
	CooperativeName    string        `mapstructure:"COOPERATIVE_NAME" validate:"required"`
	OpenAIAPIKey       string        `mapstructure:"OPENAI_API_KEY"`
	AdvisorModel       string        `mapstructure:"ADVISOR_MODEL" validate:"required"`
	AdvisorTimeout     time.Duration `mapstructure:"ADVISOR_TIMEOUT" validate:"gt=0s"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0s"`
}

var defaults = map[string]any{
	"APP_ENV":               "prod",
	"HTTP_ADDR":             ":8080",
	"METRICS_PATH":          "/metrics",
	"MODEL_PATH":            "models/smartsacco_risk_v2.yaml",
	"MEMBER_SOURCE":         "csv",
	"MEMBER_CSV_PATH":       "data/members.csv",
	"DB_MAX_CONNS":          "10",
	"DB_MIN_CONNS":          "2",
	"RUN_MIGRATIONS":        "false",
	"CACHE_TTL":             "5m",
	"RATE_LIMIT_PER_MINUTE": "30",
	"MIN_LOAN_AMOUNT":       "1000",
	"COUNTER_OFFER_STEP":    "5000",
	"ASSESSMENT_HISTORY":    "10000",
	"CURRENCY":              "KES",
	"COOPERATIVE_NAME":      "SmartSacco",
	"ADVISOR_MODEL":         "gpt-4o-mini",
	"ADVISOR_TIMEOUT":       "10s",
	"SHUTDOWN_TIMEOUT":      "10s",
}

// Load reads configuration from the environment and the optional YAML file
// in configDir, then validates it.
func Load(logger *zap.Logger, configDir string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	env := v.GetString("APP_ENV")
	if env != "prod" {
		logger.Warn("running_in_non_production_mode", zap.String("env", env))
	}
	v.SetConfigName("config." + env)
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		logger.Info("config file loaded", zap.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := parseStructEnv(v, &cfg); err != nil {
		return nil, err
	}

	if err := newValidator().Struct(&cfg); err != nil {
		return nil, formatConfigErrors(logger, err)
	}
	return &cfg, nil
}

// parseStructEnv binds env vars to struct fields using the mapstructure tag
func parseStructEnv(v *viper.Viper, cfg *Config) error {
	t := reflect.TypeOf(*cfg)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if err := v.BindEnv(tag); err != nil {
			return err
		}
	}
	return v.Unmarshal(cfg)
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return EnvPrefix + "_" + fld.Tag.Get("mapstructure")
	})
	return validate
}

func formatConfigErrors(logger *zap.Logger, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		logger.Error("invalid_config", zap.String("field", fe.Field()), zap.String("rule", fe.Tag()))
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// UseRedis reports whether a Redis cache is configured.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}
