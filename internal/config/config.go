package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "WalletPass"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultIssueRateLimit  = 30
	defaultUpstreamTimeout = 30 * time.Second
	defaultRefreshBuffer   = 5 * time.Minute
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	issueRateLimitEnvVar   = "ISSUE_RATE_LIMIT_PER_MIN"
	upstreamTimeoutEnvVar  = "UPSTREAM_TIMEOUT"
	refreshBufferEnvVar    = "TOKEN_REFRESH_BUFFER"
	credentialsFileEnvVar  = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Google endpoints and fixed presentation assets used when nothing overrides them.
const (
	DefaultWalletAPIURL = "https://walletobjects.googleapis.com/walletobjects/v1"
	DefaultTokenURL     = "https://oauth2.googleapis.com/token"
	DefaultSaveURL      = "https://pay.google.com/gp/v/save"
	DefaultScope        = "https://www.googleapis.com/auth/wallet_object.issuer"
	DefaultLogoURI      = "https://placehold.co/200x200/000000/FFFFFF/png?text=DP"
	DefaultHeroImageURI = "https://placehold.co/600x400/4F46E5/FFFFFF/png?text=Coupon"
	DefaultWebsiteURI   = "https://digitalplacemaking.com"
	DefaultIssuerName   = "Digital Placemaking"
	DefaultProgramName  = "Coupon Program"
)

// ErrNotConfigured reports that wallet settings or service-account credentials are missing.
var ErrNotConfigured = errors.New("google wallet not configured")

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	Env            string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	IssueRateLimit int
	Wallet         Wallet
}

// Wallet holds everything the issuance workflow needs to talk to Google Wallet.
// It is passed by value into each component so tests can build one directly.
type Wallet struct {
	IssuerID            string
	ClassSuffix         string
	ServiceAccountEmail string
	PrivateKey          string

	APIBaseURL  string
	TokenURL    string
	SaveURLBase string
	Scope       string
	Origins     []string

	IssuerName   string
	ProgramName  string
	LogoURI      string
	HeroImageURI string
	WebsiteURI   string

	UpstreamTimeout time.Duration
	RefreshBuffer   time.Duration
}

// ClassID is the provider-side identifier of the shared coupon class.
func (w Wallet) ClassID() string {
	return w.IssuerID + "." + w.ClassSuffix
}

// Validate reports the missing settings, wrapped in ErrNotConfigured.
func (w Wallet) Validate() error {
	var missing []string
	if w.IssuerID == "" {
		missing = append(missing, "GOOGLE_WALLET_ISSUER_ID")
	}
	if w.ClassSuffix == "" {
		missing = append(missing, "GOOGLE_WALLET_CLASS_ID")
	}
	if w.ServiceAccountEmail == "" {
		missing = append(missing, "GOOGLE_SERVICE_ACCOUNT_EMAIL")
	}
	if w.PrivateKey == "" {
		missing = append(missing, "GOOGLE_PRIVATE_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// WithDefaults fills empty endpoint, asset and timing fields.
func (w Wallet) WithDefaults() Wallet {
	w.APIBaseURL = strings.TrimRight(orDefault(w.APIBaseURL, DefaultWalletAPIURL), "/")
	w.TokenURL = orDefault(w.TokenURL, DefaultTokenURL)
	w.SaveURLBase = strings.TrimRight(orDefault(w.SaveURLBase, DefaultSaveURL), "/")
	w.Scope = orDefault(w.Scope, DefaultScope)
	w.IssuerName = orDefault(w.IssuerName, DefaultIssuerName)
	w.ProgramName = orDefault(w.ProgramName, DefaultProgramName)
	w.LogoURI = orDefault(w.LogoURI, DefaultLogoURI)
	w.HeroImageURI = orDefault(w.HeroImageURI, DefaultHeroImageURI)
	w.WebsiteURI = orDefault(w.WebsiteURI, DefaultWebsiteURI)
	if w.UpstreamTimeout <= 0 {
		w.UpstreamTimeout = defaultUpstreamTimeout
	}
	if w.RefreshBuffer <= 0 {
		w.RefreshBuffer = defaultRefreshBuffer
	}
	return w
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		Env:            getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		IssueRateLimit: defaultIssueRateLimit,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(issueRateLimitEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", issueRateLimitEnvVar, err)
		}
		cfg.IssueRateLimit = n
	}

	wallet, err := loadWallet()
	if err != nil {
		return Config{}, err
	}
	cfg.Wallet = wallet

	return cfg, nil
}

// Missing wallet credentials are not a load error: the service still starts and
// answers add-pass requests with a configuration error.
func loadWallet() (Wallet, error) {
	w := Wallet{
		IssuerID:            os.Getenv("GOOGLE_WALLET_ISSUER_ID"),
		ClassSuffix:         os.Getenv("GOOGLE_WALLET_CLASS_ID"),
		ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		PrivateKey:          os.Getenv("GOOGLE_PRIVATE_KEY"),
		APIBaseURL:          os.Getenv("GOOGLE_WALLET_API_URL"),
		TokenURL:            os.Getenv("GOOGLE_OAUTH_TOKEN_URL"),
		SaveURLBase:         os.Getenv("GOOGLE_WALLET_SAVE_URL"),
		Origins:             splitList(os.Getenv("GOOGLE_WALLET_ORIGINS")),
	}

	if path := os.Getenv(credentialsFileEnvVar); path != "" && (w.ServiceAccountEmail == "" || w.PrivateKey == "") {
		sa, err := ReadServiceAccountFile(path)
		if err != nil {
			return Wallet{}, err
		}
		if w.ServiceAccountEmail == "" {
			w.ServiceAccountEmail = sa.ClientEmail
		}
		if w.PrivateKey == "" {
			w.PrivateKey = sa.PrivateKey
		}
	}

	if v := os.Getenv(upstreamTimeoutEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Wallet{}, fmt.Errorf("invalid %s: %w", upstreamTimeoutEnvVar, err)
		}
		w.UpstreamTimeout = d
	}
	if v := os.Getenv(refreshBufferEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Wallet{}, fmt.Errorf("invalid %s: %w", refreshBufferEnvVar, err)
		}
		w.RefreshBuffer = d
	}

	return w.WithDefaults(), nil
}

// ServiceAccount is the subset of a Google service-account key file we read.
type ServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// ReadServiceAccountFile parses a downloaded service-account JSON key.
func ReadServiceAccountFile(path string) (ServiceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ServiceAccount{}, fmt.Errorf("read %s: %w", credentialsFileEnvVar, err)
	}
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("decode %s: %w", credentialsFileEnvVar, err)
	}
	return sa, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a local/development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
