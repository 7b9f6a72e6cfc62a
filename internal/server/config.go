package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"

	"wizards-server/internal/board"
)

// Config is read from the environment (and a .env file, when present) at
// startup.
type Config struct {
	Port            int           `env:"PORT"             envDefault:"1701"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	DefaultMap      string        `env:"DEFAULT_MAP"      envDefault:"galilei"`
	PointerInterval time.Duration `env:"POINTER_INTERVAL" envDefault:"100ms"`
	RateLimit       float64       `env:"RATE_LIMIT"       envDefault:"60"`
	RateBurst       int           `env:"RATE_BURST"       envDefault:"120"`
	SendBuffer      int           `env:"SEND_BUFFER"      envDefault:"64"`
	JournalBuffer   int           `env:"JOURNAL_BUFFER"   envDefault:"256"`
	JournalRetain   time.Duration `env:"JOURNAL_RETAIN"   envDefault:"168h"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS"  envDefault:"*" envSeparator:","`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig is the configuration with every default applied.
func DefaultConfig() Config {
	return Config{
		Port:            1701,
		DefaultMap:      board.DefaultMap,
		PointerInterval: 100 * time.Millisecond,
		RateLimit:       60,
		RateBurst:       120,
		SendBuffer:      64,
		JournalBuffer:   256,
		JournalRetain:   7 * 24 * time.Hour,
		AllowedOrigins:  []string{"*"},
	}
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("INVALID_CONFIG: PORT %d out of range", c.Port)
	}
	if c.PointerInterval <= 0 {
		return fmt.Errorf("INVALID_CONFIG: POINTER_INTERVAL must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("INVALID_CONFIG: RATE_LIMIT and RATE_BURST must be positive")
	}
	if c.SendBuffer <= 0 || c.JournalBuffer <= 0 {
		return fmt.Errorf("INVALID_CONFIG: buffers must be positive")
	}
	return nil
}
