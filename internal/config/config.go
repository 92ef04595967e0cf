package config

import (
	"fmt"
	"os"
	"time"

	"board-reviewer/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// TrustProxy honors X-Forwarded-For / X-Real-IP from a reverse proxy.
		TrustProxy bool `yaml:"trustProxy"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL          string `yaml:"ttl"`
		Course       string `yaml:"course"`
		QuestionsDir string `yaml:"questionsDir"`
		Lenient      bool   `yaml:"lenient"`
	} `yaml:"quiz"`
	Catalog []domain.Subject `yaml:"catalog"`
	CheckIn struct {
		Timezone           string `yaml:"timezone"`
		ResetStreakOnBreak bool   `yaml:"resetStreakOnBreak"`
	} `yaml:"checkIn"`
	Contact struct {
		Limit  int    `yaml:"limit"`
		Window string `yaml:"window"`
	} `yaml:"contact"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Load reads YAML config from path. Environment variables of the form
// ${NAME} are expanded first, so secrets can come from the environment or a
// .env file.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	seen := make(map[string]bool, len(c.Catalog))
	for _, s := range c.Catalog {
		if s.Abbr == "" {
			return fmt.Errorf("catalog: subject %q has no abbreviation", s.Name)
		}
		if seen[s.Abbr] {
			return fmt.Errorf("catalog: duplicate subject %s", s.Abbr)
		}
		seen[s.Abbr] = true
	}
	if c.CheckIn.Timezone != "" {
		if _, err := time.LoadLocation(c.CheckIn.Timezone); err != nil {
			return fmt.Errorf("checkIn.timezone: %w", err)
		}
	}
	return nil
}

// Location returns the check-in time zone, or time.Local when unset.
func (c Config) Location() *time.Location {
	if c.CheckIn.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.CheckIn.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ContactLimit returns the contact-form limit and window, defaulting to 5 per hour.
func (c Config) ContactLimit() (int, time.Duration) {
	limit := c.Contact.Limit
	if limit <= 0 {
		limit = 5
	}
	return limit, TTLDuration(c.Contact.Window, time.Hour)
}

// Course returns the default course id.
func (c Config) Course() string {
	if c.Quiz.Course == "" {
		return "cpa"
	}
	return c.Quiz.Course
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
