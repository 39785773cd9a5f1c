package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// Amounts are kept as strings so they reach the decimal parser untouched.
type PromoRule struct {
	Code    string `mapstructure:"code"    json:"code"`
	Kind    string `mapstructure:"kind"    json:"kind"`
	Value   string `mapstructure:"value"   json:"value"`
	Message string `mapstructure:"message" json:"message"`
}

type DeliveryOption struct {
	ID          string `mapstructure:"id"          json:"id"`
	Name        string `mapstructure:"name"        json:"name"`
	Description string `mapstructure:"description" json:"description"`
	FlatCost    string `mapstructure:"flat_cost"   json:"flat_cost"`
}

type Order struct {
	Mode         string        `mapstructure:"mode"          json:"mode"`
	SubmitterURL string        `mapstructure:"submitter_url" json:"submitter_url"`
	BatchSize    int           `mapstructure:"batch_size"    json:"batch_size"`
	Interval     time.Duration `mapstructure:"interval"      json:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"       json:"timeout"`
}

type Checkout struct {
	GiftWrapFee      string           `mapstructure:"gift_wrap_fee"      json:"gift_wrap_fee"`
	SuccessRedirect  string           `mapstructure:"success_redirect"   json:"success_redirect"`
	AddressLookupURL string           `mapstructure:"address_lookup_url" json:"address_lookup_url"`
	PromoRules       []PromoRule      `mapstructure:"promo_rules"        json:"promo_rules"`
	DeliveryOptions  []DeliveryOption `mapstructure:"delivery_options"   json:"delivery_options"`
	Order            Order            `mapstructure:"order"              json:"order"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Checkout    `mapstructure:"checkout"    json:"checkout"`
}

const (
	OrderModeDatabase = "database"
	OrderModeHttp     = "http"
)

var (
	once   sync.Once
	config *Config
)

func Get(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "config Get").
			Str("filename", filename).
			Logger()

		logger = logger.With().Str(log.KeyProcess, "loading config").Logger()
		logger.Info().Msg("loading config")
		cfg, err := Load(logger.WithContext(c), viper.GetViper(), filename, "./env")
		if err != nil {
			err = fmt.Errorf("failed loading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger.Info().Any(log.KeyConfig, cfg).Msg("loaded config")
	})
	return config
}

// Load reads <path>/<filename>.yaml into v. A missing file is not an error:
// defaults and environment variables still apply.
func Load(c context.Context, v *viper.Viper, filename string, path string) (Config, error) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "config Load").Logger()

	v.SetConfigName(filename)
	v.AddConfigPath(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
	logger.Info().Msg("reading config")
	err := v.ReadInConfig()
	if err != nil {
		notFound := viper.ConfigFileNotFoundError{}
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed reading config with error=%w", err)
		}
		logger.Warn().Err(err).Msg("config file not found, using defaults")
	} else {
		logger.Info().Msg("read config")
	}

	logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
	logger.Info().Msg("unmarshaling config")
	cfg := Config{}
	err = v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed unmarshaling config with error=%w", err)
	}
	logger.Info().Msg("unmarshaled config")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)

	v.SetDefault("db.migration_path", "file://checkout/migrations")
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 2)
	v.SetDefault("db.port", 5432)

	v.SetDefault("cache.port", 6379)

	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)

	v.SetDefault("checkout.gift_wrap_fee", "9.90")
	v.SetDefault("checkout.success_redirect", "/user-account-dashboard?tab=orders&success=true")
	v.SetDefault("checkout.address_lookup_url", "https://viacep.com.br/ws")
	v.SetDefault("checkout.promo_rules", []map[string]interface{}{
		{"code": "LUXE10", "kind": "percent_of_subtotal", "value": "0.10", "message": "10% discount applied"},
		{"code": "PRIMEIRA20", "kind": "percent_of_subtotal", "value": "0.20", "message": "20% off your first purchase"},
		{"code": "FRETEGRATIS", "kind": "waive_shipping", "value": "0", "message": "Free shipping applied"},
	})
	v.SetDefault("checkout.delivery_options", []map[string]interface{}{
		{"id": "standard", "name": "Standard delivery", "description": "5 to 8 business days", "flat_cost": "0.00"},
		{"id": "express", "name": "Express delivery", "description": "2 to 3 business days", "flat_cost": "15.90"},
		{"id": "same_day", "name": "Same-day delivery", "description": "Order before 2pm", "flat_cost": "29.90"},
	})
	v.SetDefault("checkout.order.mode", OrderModeDatabase)
	v.SetDefault("checkout.order.batch_size", 50)
	v.SetDefault("checkout.order.interval", 300*time.Millisecond)
	v.SetDefault("checkout.order.timeout", 10*time.Second)
}
