package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Esewa struct {
		ProductCode    string `yaml:"product_code"`
		SecretKey      string `yaml:"secret_key"`
		PaymentURL     string `yaml:"payment_url"`
		StatusURL      string `yaml:"status_url"`
		SuccessURL     string `yaml:"success_url"`
		FailureURL     string `yaml:"failure_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"esewa"`
}

// StatusTimeout is the bound on a single gateway status lookup.
// Lookups that exceed it resolve to an ambiguous outcome, never success.
func (c *Config) StatusTimeout() time.Duration {
	if c.Esewa.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Esewa.TimeoutSeconds) * time.Second
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyEsewaDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	// Environment-variable mode (tests, containers).
	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Esewa.ProductCode = os.Getenv("ESEWA_PRODUCT_CODE")
	cfg.Esewa.SecretKey = os.Getenv("ESEWA_SECRET_KEY")
	cfg.Esewa.PaymentURL = os.Getenv("ESEWA_PAYMENT_URL")
	cfg.Esewa.StatusURL = os.Getenv("ESEWA_STATUS_URL")
	cfg.Esewa.SuccessURL = os.Getenv("ESEWA_SUCCESS_URL")
	cfg.Esewa.FailureURL = os.Getenv("ESEWA_FAILURE_URL")

	applyEsewaDefaults(&cfg)
	AppConfig = &cfg
}

// applyEsewaDefaults fills in the sandbox endpoints so a bare config
// still points at the test gateway, never at production.
func applyEsewaDefaults(cfg *Config) {
	if cfg.Esewa.ProductCode == "" {
		cfg.Esewa.ProductCode = "EPAYTEST"
	}
	if cfg.Esewa.PaymentURL == "" {
		cfg.Esewa.PaymentURL = "https://rc-epay.esewa.com.np/api/epay/main/v2/form"
	}
	if cfg.Esewa.StatusURL == "" {
		cfg.Esewa.StatusURL = "https://rc-epay.esewa.com.np/api/epay/transaction/status/"
	}
	if cfg.Esewa.TimeoutSeconds <= 0 {
		cfg.Esewa.TimeoutSeconds = 10
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
