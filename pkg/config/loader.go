package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	viper.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	viper.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	viper.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	viper.BindEnv("queue.nats_url", "NATS_URL", "APP_QUEUE_NATS_URL")
	viper.BindEnv("queue.rabbitmq_url", "RABBITMQ_URL", "APP_QUEUE_RABBITMQ_URL")
	viper.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	viper.BindEnv("analytics.remote_base_url", "ANALYTICS_REMOTE_URL", "APP_ANALYTICS_REMOTE_BASE_URL")
	viper.BindEnv("analytics.rawdata_base_url", "ANALYTICS_RAWDATA_URL", "APP_ANALYTICS_RAWDATA_BASE_URL")
	viper.BindEnv("email.api_key", "SENDGRID_API_KEY", "APP_EMAIL_API_KEY")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file: env vars plus defaults carry the whole config.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "voltgrid-console")
	viper.SetDefault("http.port", 8080)
	viper.SetDefault("queue.provider", "nats")
	viper.SetDefault("prometheus.path", "/metrics")
	viper.SetDefault("analytics.fallback_source", "api")
	viper.SetDefault("analytics.request_timeout", 30*time.Second)
	viper.SetDefault("analytics.refresh_interval", time.Minute)
	viper.SetDefault("suggestions.station_share_pct", 30)
	viper.SetDefault("suggestions.region_share_pct", 40)
	viper.SetDefault("suggestions.top_peak_hours", 3)
	viper.SetDefault("cache.report_ttl", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", time.Minute)
	viper.SetDefault("logging.level", "info")
}
