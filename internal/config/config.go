package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/password"
	"jobboard-service/internal/pkg/ratelimit"

	"github.com/BurntSushi/toml"
)

// MinSecretLength is the shortest signing secret accepted in production.
const MinSecretLength = 32

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// known placeholder values shipped in sample env files
var placeholderSecrets = map[string]bool{
	"secret":          true,
	"changeme":        true,
	"change-me":       true,
	"change_me":       true,
	"your-secret-key": true,
	"your_secret_key": true,
	"jwt-secret":      true,
	"jwt_secret":      true,
	"supersecret":     true,
	"default":         true,
	"development":     true,
	"password":        true,
}

type AppConfig struct {
	Env string

	// Server
	HTTPAddr    string
	DatabaseURL string
	RedisAddr   string
	RedisPass   string
	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []string
	// AllowedOrigins may make credentialed cross-origin calls.
	AllowedOrigins []string

	Session    SessionConfig
	BcryptCost int
	RateLimit  RateLimitConfig
	Throttle   ThrottleConfig

	PrincipalLookupTimeout time.Duration
	SecurityStream         string

	BootstrapAdmin BootstrapAdmin

	// Warnings lists insecure settings tolerated outside production.
	Warnings []string
}

// SessionLifetime is how long an issued session stays valid. It is not
// configurable.
const SessionLifetime = 7 * 24 * time.Hour

type SessionConfig struct {
	Secret       []byte
	Issuer       string
	TTL          time.Duration
	CookieSecure bool
}

type RateLimitConfig struct {
	Backend       string
	Login         ratelimit.Policy
	SubmitJob     ratelimit.Policy
	SweepInterval time.Duration
}

type ThrottleConfig struct {
	RPS   float64
	Burst int
}

type BootstrapAdmin struct {
	Email    string
	Password string
}

func (c AppConfig) Production() bool {
	return c.Env == EnvProduction
}

// Load reads the process environment, overlaid on the TOML file named by
// CONFIG_FILE when set. Insecure settings fail with ErrConfiguration in
// production and become Warnings elsewhere.
func Load() (AppConfig, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (AppConfig, error) {
	env := envLookup(getenv)

	appEnv, err := parseEnv(env.get("APP_ENV", EnvDevelopment))
	if err != nil {
		return AppConfig{}, err
	}

	cfg := AppConfig{
		Env:            appEnv,
		HTTPAddr:       env.get("HTTP_ADDR", ":8000"),
		DatabaseURL:    env.get("DATABASE_URL", ""),
		RedisAddr:      env.get("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env.get("REDIS_PASS", ""),
		TrustedProxies: env.list("TRUSTED_PROXIES"),
		AllowedOrigins: env.list("CORS_ALLOWED_ORIGINS"),
		Session: SessionConfig{
			Issuer: env.get("SESSION_ISSUER", "jobboard"),
			TTL:    SessionLifetime,
		},
		BcryptCost: password.DefaultCost,
		RateLimit: RateLimitConfig{
			Backend:       BackendMemory,
			Login:         ratelimit.Policy{Name: "login", MaxRequests: 5, Window: 5 * time.Minute},
			SubmitJob:     ratelimit.Policy{Name: "submit-job", MaxRequests: 3, Window: time.Hour},
			SweepInterval: time.Minute,
		},
		Throttle:               ThrottleConfig{RPS: 20, Burst: 40},
		PrincipalLookupTimeout: 2 * time.Second,
		SecurityStream:         env.get("SECURITY_STREAM", ""),
		BootstrapAdmin: BootstrapAdmin{
			Email:    env.get("BOOTSTRAP_ADMIN_EMAIL", ""),
			Password: env.get("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}

	if path := env.get("CONFIG_FILE", ""); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return AppConfig{}, err
		}
	}

	cfg.Session.CookieSecure = cfg.Production()
	if err := applyEnv(&cfg, env); err != nil {
		return AppConfig{}, err
	}

	secret, warnings, err := resolveSecret(env.get("SESSION_SECRET", ""), cfg.Production())
	if err != nil {
		return AppConfig{}, err
	}
	cfg.Session.Secret = secret
	cfg.Warnings = append(cfg.Warnings, warnings...)

	if cfg.BcryptCost < password.MinCost {
		if cfg.Production() {
			return AppConfig{}, fmt.Errorf("%w: BCRYPT_COST must be at least %d", xerrors.ErrConfiguration, password.MinCost)
		}
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("BCRYPT_COST %d raised to %d", cfg.BcryptCost, password.MinCost))
		cfg.BcryptCost = password.MinCost
	}
	if cfg.Production() && !cfg.Session.CookieSecure {
		cfg.Warnings = append(cfg.Warnings, "COOKIE_SECURE is disabled in production")
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig, env envLookup) error {
	var err error
	set := func(e error) {
		if err == nil {
			err = e
		}
	}

	set(env.parseBool("COOKIE_SECURE", &cfg.Session.CookieSecure))
	set(env.parseInt("BCRYPT_COST", &cfg.BcryptCost))

	if v := env.get("RATE_LIMIT_BACKEND", ""); v != "" {
		cfg.RateLimit.Backend = strings.ToLower(v)
	}
	set(env.parseInt("LOGIN_RATE_MAX", &cfg.RateLimit.Login.MaxRequests))
	set(env.parseDuration("LOGIN_RATE_WINDOW", &cfg.RateLimit.Login.Window))
	set(env.parseInt("SUBMIT_JOB_RATE_MAX", &cfg.RateLimit.SubmitJob.MaxRequests))
	set(env.parseDuration("SUBMIT_JOB_RATE_WINDOW", &cfg.RateLimit.SubmitJob.Window))
	set(env.parseDuration("RATE_LIMIT_SWEEP_INTERVAL", &cfg.RateLimit.SweepInterval))

	set(env.parseFloat("THROTTLE_RPS", &cfg.Throttle.RPS))
	set(env.parseInt("THROTTLE_BURST", &cfg.Throttle.Burst))
	set(env.parseDuration("PRINCIPAL_LOOKUP_TIMEOUT", &cfg.PrincipalLookupTimeout))
	return err
}

func (c AppConfig) validate() error {
	switch c.RateLimit.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("%w: RATE_LIMIT_BACKEND must be %q or %q", xerrors.ErrConfiguration, BackendMemory, BackendRedis)
	}
	for _, p := range []ratelimit.Policy{c.RateLimit.Login, c.RateLimit.SubmitJob} {
		if p.MaxRequests <= 0 || p.Window <= 0 {
			return fmt.Errorf("%w: rate limit %q needs a positive max and window", xerrors.ErrConfiguration, p.Name)
		}
	}
	if c.PrincipalLookupTimeout <= 0 {
		return fmt.Errorf("%w: PRINCIPAL_LOOKUP_TIMEOUT must be positive", xerrors.ErrConfiguration)
	}
	if c.Throttle.RPS <= 0 || c.Throttle.Burst <= 0 {
		return fmt.Errorf("%w: THROTTLE_RPS and THROTTLE_BURST must be positive", xerrors.ErrConfiguration)
	}
	return nil
}

// resolveSecret applies the signing secret posture rules.
func resolveSecret(raw string, production bool) ([]byte, []string, error) {
	secret := strings.TrimSpace(raw)

	var problem string
	switch {
	case secret == "":
		problem = "SESSION_SECRET is not set"
	case IsPlaceholderSecret(secret):
		problem = "SESSION_SECRET is a placeholder value"
	case len(secret) < MinSecretLength:
		problem = fmt.Sprintf("SESSION_SECRET is shorter than %d bytes", MinSecretLength)
	}

	if problem == "" {
		return []byte(secret), nil, nil
	}
	if production {
		return nil, nil, fmt.Errorf("%w: %s", xerrors.ErrConfiguration, problem)
	}
	if secret != "" {
		return []byte(secret), []string{problem}, nil
	}

	ephemeral := make([]byte, MinSecretLength)
	if _, err := rand.Read(ephemeral); err != nil {
		return nil, nil, fmt.Errorf("%w: generate ephemeral secret: %v", xerrors.ErrConfiguration, err)
	}
	return ephemeral, []string{problem + "; using an ephemeral secret, sessions end on restart"}, nil
}

// IsPlaceholderSecret reports whether s looks like a sample value.
func IsPlaceholderSecret(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if placeholderSecrets[s] {
		return true
	}
	for _, marker := range []string{"changeme", "change-me", "change_me", "placeholder", "replace-me", "replace_me"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func parseEnv(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return EnvProduction, nil
	case "development", "dev", "local":
		return EnvDevelopment, nil
	case "test":
		return EnvTest, nil
	}
	return "", fmt.Errorf("%w: unknown APP_ENV %q", xerrors.ErrConfiguration, v)
}

// --- TOML overlay ---

type fileConfig struct {
	RateLimit struct {
		Backend       string                `toml:"backend"`
		SweepInterval duration              `toml:"sweep_interval"`
		Policies      map[string]filePolicy `toml:"policies"`
	} `toml:"rate_limit"`
	Throttle struct {
		RPS   float64 `toml:"rps"`
		Burst int     `toml:"burst"`
	} `toml:"throttle"`
	Session struct {
		Issuer string `toml:"issuer"`
	} `toml:"session"`
}

type filePolicy struct {
	Max    int      `toml:"max"`
	Window duration `toml:"window"`
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func applyFile(cfg *AppConfig, path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", xerrors.ErrConfiguration, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown keys in %s: %v", xerrors.ErrConfiguration, path, undecoded)
	}

	if fc.RateLimit.Backend != "" {
		cfg.RateLimit.Backend = strings.ToLower(fc.RateLimit.Backend)
	}
	if fc.RateLimit.SweepInterval.Duration > 0 {
		cfg.RateLimit.SweepInterval = fc.RateLimit.SweepInterval.Duration
	}
	for name, p := range fc.RateLimit.Policies {
		var target *ratelimit.Policy
		switch name {
		case cfg.RateLimit.Login.Name:
			target = &cfg.RateLimit.Login
		case cfg.RateLimit.SubmitJob.Name:
			target = &cfg.RateLimit.SubmitJob
		default:
			return fmt.Errorf("%w: unknown rate limit policy %q in %s", xerrors.ErrConfiguration, name, path)
		}
		if p.Max != 0 {
			target.MaxRequests = p.Max
		}
		if p.Window.Duration != 0 {
			target.Window = p.Window.Duration
		}
	}
	if fc.Throttle.RPS != 0 {
		cfg.Throttle.RPS = fc.Throttle.RPS
	}
	if fc.Throttle.Burst != 0 {
		cfg.Throttle.Burst = fc.Throttle.Burst
	}
	if fc.Session.Issuer != "" {
		cfg.Session.Issuer = fc.Session.Issuer
	}
	return nil
}

// --- Helper functions ---

type envLookup func(string) string

func (e envLookup) get(key, fallback string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return fallback
}

// list splits a comma-separated value, dropping blanks.
func (e envLookup) list(key string) []string {
	var out []string
	for _, part := range strings.Split(e(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e envLookup) parseInt(key string, dst *int) error {
	v := e.get(key, "")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", xerrors.ErrConfiguration, key, err)
	}
	*dst = n
	return nil
}

func (e envLookup) parseFloat(key string, dst *float64) error {
	v := e.get(key, "")
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", xerrors.ErrConfiguration, key, err)
	}
	*dst = f
	return nil
}

func (e envLookup) parseDuration(key string, dst *time.Duration) error {
	v := e.get(key, "")
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", xerrors.ErrConfiguration, key, err)
	}
	*dst = d
	return nil
}

func (e envLookup) parseBool(key string, dst *bool) error {
	v := e.get(key, "")
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", xerrors.ErrConfiguration, key, err)
	}
	*dst = b
	return nil
}
