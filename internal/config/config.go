package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string        `env:"PORT, default=8080"`
	DBUrl          string        `env:"DB_URL, required"`
	JWTSecret      string        `env:"JWT_SECRET"`
	JWTTTL         time.Duration `env:"JWT_TTL, default=24h"`
	LogLevel       string        `env:"LOG_LEVEL, default=info"`
	LogPretty      bool          `env:"LOG_PRETTY, default=false"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=10s"`
	RateLimit      float64       `env:"RATE_LIMIT, default=10"`
	RateBurst      int           `env:"RATE_BURST, default=20"`
	CORSOrigins    []string      `env:"CORS_ORIGINS, default=*"`

	DB    DBConfig
	Stats StatsConfig
	Redis RedisConfig
	Admin AdminConfig
}

type DBConfig struct {
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=5m"`
}

type StatsConfig struct {
	// Snapshot runs the dashboard reads in one read-only transaction.
	Snapshot   bool          `env:"STATS_SNAPSHOT, default=true"`
	MaxRetries uint64        `env:"STATS_MAX_RETRIES, default=3"`
	CacheTTL   time.Duration `env:"STATS_CACHE_TTL, default=30s"`
}

// RedisConfig is optional; an empty Addr disables the stats cache.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// AdminConfig seeds the first admin account when none exists yet.
type AdminConfig struct {
	Name     string `env:"ADMIN_NAME, default=Administrator"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment only")
	}
	return Process(context.Background(), envconfig.OsLookuper())
}

// Process fills a Config from l. Tests pass a map lookuper.
func Process(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
