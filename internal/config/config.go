package config

import (
	"encoding/hex"
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Merchant credentials issued by Datatrans. The HMAC secret is the
	// hex-encoded key used to sign outbound checkout requests.
	MerchantID    string `env:"MERCHANT_ID,required"`
	HMACSecretHex string `env:"HMAC_SECRET_HEX,required"`

	GatewayBaseURL string `env:"GATEWAY_BASE_URL" envDefault:"https://pay.datatrans.com/upp/jsp/upStart.jsp"`
	BaseURL        string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Mode           string `env:"GATEWAY_MODE" envDefault:"live"`

	// CurrencyMinorFactor converts the gateway's smallest-unit amounts to
	// merchant-currency major units (100 for two-decimal currencies).
	CurrencyMinorFactor int32 `env:"CURRENCY_MINOR_FACTOR" envDefault:"100"`

	// StrictStatusCheck restricts completion to pending contributions.
	// The default mirrors the historical behavior: anything not already
	// completed is allowed to complete.
	StrictStatusCheck bool `env:"IPN_STRICT_STATUS" envDefault:"false"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate checks the processor credentials beyond mere presence. A secret
// that fails hex decoding would otherwise only surface on the first signed
// checkout.
func (c *Config) Validate() error {
	if _, err := hex.DecodeString(c.HMACSecretHex); err != nil {
		return fmt.Errorf("HMAC_SECRET_HEX is not valid hexadecimal: %w", err)
	}
	if c.CurrencyMinorFactor <= 0 {
		return fmt.Errorf("CURRENCY_MINOR_FACTOR must be positive, got %d", c.CurrencyMinorFactor)
	}
	return nil
}
