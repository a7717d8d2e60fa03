// internal/config/config.go
//
// Server configuration.
// Layers, later wins:
//   - built-in defaults
//   - optional TOML file (CONFIG_FILE)
//   - environment variables (a .env file is loaded by main before Load)
//
// Persisted game timings from the database are applied afterwards through
// Live, which is also what admin updates go through.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/game"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Game     GameConfig     `toml:"game"`
	Words    WordsConfig    `toml:"words"`
	Logging  LoggingConfig  `toml:"logging"`
	Limits   LimitsConfig   `toml:"limits"`
}

type ServerConfig struct {
	Port         string `toml:"port"`
	ClientOrigin string `toml:"client_origin"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	JWTSecret      string `toml:"jwt_secret"`
	JWTExpiresDays int    `toml:"jwt_expires_days"`
	AdminUser      string `toml:"admin_user"`
	AdminPassword  string `toml:"admin_password"` // seeds an admin account when set
}

// GameConfig holds the timings new sessions are created with.
type GameConfig struct {
	WaitTime      int           `toml:"wait_time"`      // seconds
	RoundDuration int           `toml:"round_duration"` // seconds
	StartDelay    time.Duration `toml:"start_delay"`
	ResultDelay   time.Duration `toml:"result_delay"`
}

type WordsConfig struct {
	File string `toml:"file"` // empty uses the embedded list
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type LimitsConfig struct {
	GuessRPS   float64 `toml:"guess_rps"`
	GuessBurst int     `toml:"guess_burst"`
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.sanitize()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server:   ServerConfig{Port: "5175", ClientOrigin: "http://localhost:5173"},
		Database: DatabaseConfig{Path: "./data/wordduel.db"},
		Auth: AuthConfig{
			JWTSecret:      "dev_secret_change_me",
			JWTExpiresDays: 14,
			AdminUser:      "admin",
		},
		Game: GameConfig{
			WaitTime:      10,
			RoundDuration: 30,
			StartDelay:    3 * time.Second,
			ResultDelay:   3 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		Limits:  LimitsConfig{GuessRPS: 10, GuessBurst: 5},
	}
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ClientOrigin = getEnv("CLIENT_ORIGIN", c.Server.ClientOrigin)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTExpiresDays = getEnvInt("JWT_EXPIRES_DAYS", c.Auth.JWTExpiresDays)
	c.Auth.AdminUser = getEnv("ADMIN_USER", c.Auth.AdminUser)
	c.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", c.Auth.AdminPassword)
	c.Game.WaitTime = getEnvInt("WAIT_TIME", c.Game.WaitTime)
	c.Game.RoundDuration = getEnvInt("ROUND_DURATION", c.Game.RoundDuration)
	c.Game.StartDelay = getEnvDuration("START_DELAY", c.Game.StartDelay)
	c.Game.ResultDelay = getEnvDuration("RESULT_DELAY", c.Game.ResultDelay)
	c.Words.File = getEnv("WORDS_FILE", c.Words.File)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Limits.GuessRPS = getEnvFloat("GUESS_RATE_RPS", c.Limits.GuessRPS)
	c.Limits.GuessBurst = getEnvInt("GUESS_RATE_BURST", c.Limits.GuessBurst)
}

// sanitize replaces values a server cannot run with by their defaults.
// A zero wait time is allowed and disables waiting expiry.
func (c *Config) sanitize() {
	def := defaults()
	positiveInt("game.wait_time", &c.Game.WaitTime, def.Game.WaitTime, true)
	positiveInt("game.round_duration", &c.Game.RoundDuration, def.Game.RoundDuration, false)
	positiveInt("auth.jwt_expires_days", &c.Auth.JWTExpiresDays, def.Auth.JWTExpiresDays, false)
	positiveInt("limits.guess_burst", &c.Limits.GuessBurst, def.Limits.GuessBurst, false)
	positiveDuration("game.start_delay", &c.Game.StartDelay, def.Game.StartDelay)
	positiveDuration("game.result_delay", &c.Game.ResultDelay, def.Game.ResultDelay)
	if c.Limits.GuessRPS <= 0 {
		log.Warn().Str("key", "limits.guess_rps").Float64("value", c.Limits.GuessRPS).Msg("must be positive, using default")
		c.Limits.GuessRPS = def.Limits.GuessRPS
	}
}

func positiveInt(key string, v *int, def int, zeroOK bool) {
	if *v > 0 || (zeroOK && *v == 0) {
		return
	}
	log.Warn().Str("key", key).Int("value", *v).Msg("must be positive, using default")
	*v = def
}

func positiveDuration(key string, v *time.Duration, def time.Duration) {
	if *v > 0 {
		return
	}
	log.Warn().Str("key", key).Dur("value", *v).Msg("must be positive, using default")
	*v = def
}

// Timings converts the game section into session timings.
func (c *Config) Timings() game.Timings {
	return game.Timings{
		WaitingTime:   time.Duration(c.Game.WaitTime) * time.Second,
		RoundDuration: time.Duration(c.Game.RoundDuration) * time.Second,
		StartDelay:    c.Game.StartDelay,
		ResultDelay:   c.Game.ResultDelay,
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
		return def
	}
	return n
}

func getEnvFloat(k string, def float64) float64 {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid number, using default")
		return def
	}
	return f
}

// getEnvDuration accepts Go durations ("3s", "1500ms") or bare seconds.
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
	return def
}
