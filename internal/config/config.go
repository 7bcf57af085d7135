package config

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tabletap/internal/domain"
)

type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"database"`
}

type RabbitMQ struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Catalog cache TTL in seconds; 0 disables caching.
	CatalogTTL int `yaml:"catalog_ttl"`
}

type Auth struct {
	// HMAC secret for caller-identity tokens.
	Secret string `yaml:"secret"`
}

type Loyalty struct {
	EarnRate    int64 `yaml:"earn_rate"`
	RedeemValue int64 `yaml:"redeem_value"`
}

type App struct {
	Database Database `yaml:"database"`
	Rabbit   RabbitMQ `yaml:"rabbitmq"`
	Redis    Redis    `yaml:"redis"`
	Auth     Auth     `yaml:"auth"`
	Loyalty  Loyalty  `yaml:"loyalty"`
}

func (a App) LoyaltyRates() domain.LoyaltyRates {
	r := domain.DefaultLoyaltyRates()
	if a.Loyalty.EarnRate > 0 {
		r.EarnRate = decimal.NewFromInt(a.Loyalty.EarnRate)
	}
	if a.Loyalty.RedeemValue > 0 {
		r.RedeemValue = decimal.NewFromInt(a.Loyalty.RedeemValue)
	}
	return r
}

func Load(path string) (App, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return App{}, err
	}
	var a App
	if err := yaml.Unmarshal(b, &a); err != nil {
		return App{}, fmt.Errorf("parse %s: %w", path, err)
	}
	applyEnv(&a)
	if a.Database.Host == "" || a.Rabbit.Host == "" {
		return App{}, fmt.Errorf("invalid config: missing database/rabbitmq host")
	}
	return a, nil
}

// applyEnv lets deployment env vars win over the file.
func applyEnv(a *App) {
	envStr(&a.Database.Host, "DB_HOST")
	envInt(&a.Database.Port, "DB_PORT")
	envStr(&a.Database.User, "DB_USER")
	envStr(&a.Database.Password, "DB_PASSWORD")
	envStr(&a.Database.Name, "DB_NAME")
	envStr(&a.Rabbit.Host, "RABBITMQ_HOST")
	envInt(&a.Rabbit.Port, "RABBITMQ_PORT")
	envStr(&a.Rabbit.User, "RABBITMQ_USER")
	envStr(&a.Rabbit.Password, "RABBITMQ_PASSWORD")
	envStr(&a.Redis.Addr, "REDIS_ADDR")
	envStr(&a.Redis.Password, "REDIS_PASSWORD")
	envStr(&a.Auth.Secret, "AUTH_SECRET")
}

func envStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
