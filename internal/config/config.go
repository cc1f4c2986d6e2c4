package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultMetricsAddr     = ":9090"
	defaultAPITimeout      = 30 * time.Second
	defaultAPIRetryMax     = 3
	defaultSessionLifetime = 12 * time.Hour
	defaultPageSize        = 20
)

// WizardVariant selects the step order of the CE-Azure connector wizard.
type WizardVariant string

const (
	WizardVariantStandard          WizardVariant = "standard"
	WizardVariantRequirementsFirst WizardVariant = "requirements_first"
)

// ParseWizardVariant maps a configured value onto a known variant.
func ParseWizardVariant(raw string) (WizardVariant, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(WizardVariantStandard):
		return WizardVariantStandard, nil
	case string(WizardVariantRequirementsFirst), "requirements-first":
		return WizardVariantRequirementsFirst, nil
	default:
		return "", fmt.Errorf("CE_AZURE_WIZARD_VARIANT must be one of: %s, %s", WizardVariantStandard, WizardVariantRequirementsFirst)
	}
}

type Config struct {
	HTTPAddr         string
	MetricsAddr      string
	DatabaseURL      string
	AuthCookieSecure bool
	SessionLifetime  time.Duration

	APIBaseURL        string
	AccountID         string
	OrgIdentifier     string
	ProjectIdentifier string
	APIKey            string
	APITimeout        time.Duration
	APIRetryMax       int

	VaultAddr         string
	VaultToken        string
	APIKeyVaultPath   string
	DefaultPageSize   int
	AzureWizard       WizardVariant
	ServiceCacheLimit int
}

type LoadOptions struct {
	RequireDatabaseURL bool
	RequireBackend     bool
}

// Load reads the configuration used by the serve command.
func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireBackend: true})
}

// LoadForMigrations only requires DATABASE_URL.
func LoadForMigrations() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	variant, err := ParseWizardVariant(os.Getenv("CE_AZURE_WIZARD_VARIANT"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:          getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:       getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AuthCookieSecure:  getenvBoolDefault("AUTH_COOKIE_SECURE", false),
		SessionLifetime:   defaultSessionLifetime,
		APIBaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("NG_API_BASE_URL")), "/"),
		AccountID:         strings.TrimSpace(os.Getenv("NG_ACCOUNT_ID")),
		OrgIdentifier:     getenvDefault("NG_ORG_ID", "default"),
		ProjectIdentifier: strings.TrimSpace(os.Getenv("NG_PROJECT_ID")),
		APIKey:            strings.TrimSpace(os.Getenv("NG_API_KEY")),
		APITimeout:        defaultAPITimeout,
		APIRetryMax:       getenvIntDefault("NG_API_RETRY_MAX", defaultAPIRetryMax),
		VaultAddr:         strings.TrimSpace(os.Getenv("VAULT_ADDR")),
		VaultToken:        strings.TrimSpace(os.Getenv("VAULT_TOKEN")),
		APIKeyVaultPath:   strings.TrimSpace(os.Getenv("NG_API_KEY_VAULT_PATH")),
		DefaultPageSize:   getenvIntDefault("LIST_PAGE_SIZE", defaultPageSize),
		AzureWizard:       variant,
		ServiceCacheLimit: getenvIntDefault("SERVICE_CACHE_LIMIT", 200),
	}

	if v := os.Getenv("NG_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.APITimeout = d
		}
	}
	if v := os.Getenv("SESSION_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionLifetime = d
		}
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if opts.RequireBackend {
		if cfg.APIBaseURL == "" {
			return cfg, errors.New("NG_API_BASE_URL is required")
		}
		if cfg.AccountID == "" {
			return cfg, errors.New("NG_ACCOUNT_ID is required")
		}
		if cfg.APIKey == "" && cfg.APIKeyVaultPath == "" {
			return cfg, errors.New("one of NG_API_KEY or NG_API_KEY_VAULT_PATH is required")
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return def
	}
}
