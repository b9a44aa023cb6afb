package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is the development fallback signing key. Release mode refuses it.
const DefaultJWTSecret = "default_super_secret_key"

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Logging   LoggingConfig
	Invoice   InvoiceConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type InvoiceConfig struct {
	VATRate float64
}

type AnalyticsConfig struct {
	// Seed fixes the random source of the insights engine; 0 draws a fresh one per computation
	Seed uint64
}

// Load reads envFiles (missing files are ignored) and the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", "configs/.env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the environment
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			GinMode:     v.GetString("GIN_MODE"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
		Invoice: InvoiceConfig{
			VATRate: v.GetFloat64("VAT_RATE"),
		},
		Analytics: AnalyticsConfig{
			Seed: v.GetUint64("ANALYTICS_SEED"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", DefaultJWTSecret)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")

	v.SetDefault("VAT_RATE", 0.15)
	v.SetDefault("ANALYTICS_SEED", 0)
}

func (c *Config) validate() error {
	if c.Server.GinMode == "release" && c.Auth.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET environment variable is required in release mode")
	}
	if c.Invoice.VATRate < 0 || c.Invoice.VATRate >= 1 {
		return fmt.Errorf("VAT_RATE must be in [0,1), got %v", c.Invoice.VATRate)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
