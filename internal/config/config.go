package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL"`

	AppEnv             string `env:"APP_ENV,default=development"`
	BaseURLDevelopment string `env:"BASE_URL_DEVELOPMENT,default=http://localhost:3000"`
	BaseURLProduction  string `env:"BASE_URL_PRODUCTION,default=https://www.solarpanama.com"`
	PDFRendererURL     string `env:"PDF_RENDERER_URL"`
	DefaultCountryCode string `env:"DEFAULT_COUNTRY_CODE,default=+507"`
	AdminEmail         string `env:"ADMIN_EMAIL,required=true"`

	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID,required=true"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN,required=true"`
	TwilioWhatsAppFrom string `env:"TWILIO_WHATSAPP_FROM,required=true"`
	TwilioSMSFrom      string `env:"TWILIO_SMS_FROM,required=true"`
	TwilioBaseURL      string `env:"TWILIO_BASE_URL,default=https://api.twilio.com"`

	SendGridAPIKey    string `env:"SENDGRID_API_KEY,required=true"`
	SendGridFromEmail string `env:"SENDGRID_FROM_EMAIL,required=true"`
	SendGridFromName  string `env:"SENDGRID_FROM_NAME,default=Solar Panamá"`
	SendGridBaseURL   string `env:"SENDGRID_BASE_URL,default=https://api.sendgrid.com"`

	EnergyRatePerKWh         float64 `env:"ENERGY_RATE_PER_KWH,default=0.25"`
	SavingsFraction          float64 `env:"SAVINGS_FRACTION,default=0.70"`
	PlaceholderWindowSeconds int     `env:"PLACEHOLDER_WINDOW_SECONDS,default=300"`
	ProviderTimeoutSeconds   int     `env:"PROVIDER_TIMEOUT_SECONDS,default=10"`

	SubmitRateLimit         int `env:"SUBMIT_RATE_LIMIT,default=10"`
	SubmitRateWindowSeconds int `env:"SUBMIT_RATE_WINDOW_SECONDS,default=60"`

	// ProxyHeader names the header carrying the client IP when the API runs
	// behind a load balancer, e.g. X-Forwarded-For. TrustedProxies is a comma
	// separated list of proxy IPs or CIDRs allowed to set it.
	ProxyHeader    string `env:"PROXY_HEADER"`
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=4"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	if c.AppEnv != EnvDevelopment && c.AppEnv != EnvProduction {
		return fmt.Errorf("invalid config: APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.AppEnv)
	}
	if !strings.HasPrefix(strings.TrimSpace(c.DefaultCountryCode), "+") {
		return fmt.Errorf("invalid config: DEFAULT_COUNTRY_CODE must start with +, got %q", c.DefaultCountryCode)
	}
	if c.EnergyRatePerKWh <= 0 {
		return fmt.Errorf("invalid config: ENERGY_RATE_PER_KWH must be > 0")
	}
	if c.SavingsFraction <= 0 || c.SavingsFraction > 1 {
		return fmt.Errorf("invalid config: SAVINGS_FRACTION must be in (0, 1]")
	}
	if c.PlaceholderWindowSeconds <= 0 {
		return fmt.Errorf("invalid config: PLACEHOLDER_WINDOW_SECONDS must be > 0")
	}
	if len(c.TrustedProxyList()) > 0 && strings.TrimSpace(c.ProxyHeader) == "" {
		return fmt.Errorf("invalid config: TRUSTED_PROXIES requires PROXY_HEADER")
	}
	return nil
}

// BaseURL returns the public site origin for the active environment, without a trailing slash.
func (c *Config) BaseURL() string {
	base := c.BaseURLDevelopment
	if c.AppEnv == EnvProduction {
		base = c.BaseURLProduction
	}
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// PDFBaseURL returns the renderer prefix that proposal PDF links redirect to.
func (c *Config) PDFBaseURL() string {
	if v := strings.TrimRight(strings.TrimSpace(c.PDFRendererURL), "/"); v != "" {
		return v
	}
	return c.BaseURL() + "/api/pdf"
}

func (c *Config) PlaceholderWindow() time.Duration {
	return time.Duration(c.PlaceholderWindowSeconds) * time.Second
}

func (c *Config) ProviderTimeout() time.Duration {
	if c.ProviderTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c *Config) SubmitRateWindow() time.Duration {
	if c.SubmitRateWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.SubmitRateWindowSeconds) * time.Second
}

// TrustedProxyList splits TRUSTED_PROXIES into its non-empty entries.
func (c *Config) TrustedProxyList() []string {
	var proxies []string
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			proxies = append(proxies, entry)
		}
	}
	return proxies
}
