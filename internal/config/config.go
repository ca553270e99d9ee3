package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	QuickBooks QuickBooksConfig `mapstructure:"quickbooks"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	Mode    string     `mapstructure:"mode"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

// QuickBooksConfig mirrors the exportable settings an operator tunes for a
// company file: which order document to emit, reference-number prefixes, and
// the account names QuickBooks items are booked against.
type QuickBooksConfig struct {
	ServerVersion string            `mapstructure:"server_version"`
	OrderType     string            `mapstructure:"order_type"` // invoices or sales_receipts
	IDPrefixes    IDPrefixConfig    `mapstructure:"id_prefixes"`
	Accounts      AccountsConfig    `mapstructure:"accounts"`
	Adjustments   AdjustmentsConfig `mapstructure:"adjustments"`
	QWC           QWCConfig         `mapstructure:"qwc"`
}

type IDPrefixConfig struct {
	PONumberPrefix string `mapstructure:"po_number_prefix"`
	PaymentPrefix  string `mapstructure:"payment_prefix"`
}

type AccountsConfig struct {
	MainIncomeAccount string `mapstructure:"main_income_account"`
	COGSAccount       string `mapstructure:"cogs_account"`
	AssetsAccount     string `mapstructure:"assets_account"`
}

type AdjustmentsConfig struct {
	ShippingService string `mapstructure:"shipping_service"`
	DiscountService string `mapstructure:"discount_service"`
}

// QWCConfig feeds the downloadable Web Connector descriptor file.
type QWCConfig struct {
	AppName        string `mapstructure:"app_name"`
	AppDescription string `mapstructure:"app_description"`
	Username       string `mapstructure:"username"`
	OwnerID        string `mapstructure:"owner_id"`
	FileID         string `mapstructure:"file_id"`
}

type ScheduleConfig struct {
	RequeueEnabled bool   `mapstructure:"requeue_enabled"`
	RequeueCron    string `mapstructure:"requeue_cron"`
}

type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type AuditConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_all_origins", false)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/qbexport.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("quickbooks.server_version", "1.0")
	v.SetDefault("quickbooks.order_type", "sales_receipts")
	v.SetDefault("quickbooks.id_prefixes.po_number_prefix", "")
	v.SetDefault("quickbooks.id_prefixes.payment_prefix", "")
	v.SetDefault("quickbooks.accounts.main_income_account", "Sales")
	v.SetDefault("quickbooks.accounts.cogs_account", "Cost of Goods Sold")
	v.SetDefault("quickbooks.accounts.assets_account", "Inventory Asset")
	v.SetDefault("quickbooks.adjustments.shipping_service", "Freight")
	v.SetDefault("quickbooks.adjustments.discount_service", "Discount")
	v.SetDefault("quickbooks.qwc.app_name", "Commerce Exporter")
	v.SetDefault("quickbooks.qwc.app_description", "Exports storefront data to QuickBooks")
	v.SetDefault("schedule.requeue_enabled", false)
	v.SetDefault("schedule.requeue_cron", "0 3 * * *")
	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.region", "us-east-1")
	v.SetDefault("audit.prefix", "qbexport")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("quickbooks.qwc.owner_id", "QWC_OWNER_ID")
	v.BindEnv("quickbooks.qwc.file_id", "QWC_FILE_ID")
	v.BindEnv("notify.webhook_url", "NOTIFY_WEBHOOK_URL")
	v.BindEnv("audit.access_key", "AUDIT_ACCESS_KEY")
	v.BindEnv("audit.secret_key", "AUDIT_SECRET_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
