package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Engine    Engine    `envPrefix:"ENGINE_"`
		Cache     Cache     `envPrefix:"CACHE_"`
		Project   Project   `envPrefix:"PROJECT_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"8765"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	// Engine points at the raster engine daemon that performs the
	// actual pixel work (GDAL sidecar).
	Engine struct {
		BaseURL string        `env:"BASE_URL" envDefault:"http://127.0.0.1:8766"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
	}

	Cache struct {
		Backend string `env:"BACKEND" envDefault:"lru"`
		MaxSize int    `env:"MAX_SIZE" envDefault:"500"`
		Redis   Redis  `envPrefix:"REDIS_"`
	}

	Redis struct {
		Addr     string        `env:"ADDR" envDefault:"127.0.0.1:6379"`
		Password string        `env:"PASSWORD"`
		DB       int           `env:"DB" envDefault:"0"`
		TTL      time.Duration `env:"TTL" envDefault:"1h"`
	}

	Project struct {
		Path string `env:"PATH" envDefault:"rasterview.db"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"rasterview"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
		Environment    string `env:"ENVIRONMENT" envDefault:"local"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"127.0.0.1:4317"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
