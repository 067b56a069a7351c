package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	xerrors "jobboard-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongSecret = "k3Q9v8Lx2pR7tY1wZ5mN0bC4dF6gH8jA"

func fromMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(fromMap(map[string]string{"SESSION_SECRET": strongSecret}))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.False(t, cfg.Production())
	assert.Equal(t, []byte(strongSecret), cfg.Session.Secret)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, BackendMemory, cfg.RateLimit.Backend)
	assert.Equal(t, 5, cfg.RateLimit.Login.MaxRequests)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Login.Window)
	assert.Equal(t, "login", cfg.RateLimit.Login.Name)
	assert.Equal(t, 3, cfg.RateLimit.SubmitJob.MaxRequests)
	assert.Equal(t, time.Hour, cfg.RateLimit.SubmitJob.Window)
	assert.Equal(t, "submit-job", cfg.RateLimit.SubmitJob.Name)
	assert.Equal(t, 2*time.Second, cfg.PrincipalLookupTimeout)
	assert.Empty(t, cfg.Warnings)
}

func TestProductionRefusesWeakSecrets(t *testing.T) {
	for name, secret := range map[string]string{
		"missing":     "",
		"short":       "tooshort",
		"placeholder": "changeme",
		"long sample": "please-changeme-before-deploying-this-service",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := load(fromMap(map[string]string{
				"APP_ENV":        "production",
				"SESSION_SECRET": secret,
			}))
			require.Error(t, err)
			assert.True(t, errors.Is(err, xerrors.ErrConfiguration))
		})
	}
}

func TestProductionAcceptsStrongSecret(t *testing.T) {
	cfg, err := load(fromMap(map[string]string{
		"APP_ENV":        "prod",
		"SESSION_SECRET": strongSecret,
	}))
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.True(t, cfg.Session.CookieSecure)
	assert.Empty(t, cfg.Warnings)
}

func TestDevelopmentWarnsInsteadOfFailing(t *testing.T) {
	cfg, err := load(fromMap(map[string]string{"SESSION_SECRET": "secret"}))
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), cfg.Session.Secret)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "placeholder")

	cfg, err = load(fromMap(map[string]string{}))
	require.NoError(t, err)
	assert.Len(t, cfg.Session.Secret, MinSecretLength)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "ephemeral")
}

func TestBcryptCostFloor(t *testing.T) {
	cfg, err := load(fromMap(map[string]string{"SESSION_SECRET": strongSecret, "BCRYPT_COST": "4"}))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Len(t, cfg.Warnings, 1)

	_, err = load(fromMap(map[string]string{
		"APP_ENV":        "production",
		"SESSION_SECRET": strongSecret,
		"BCRYPT_COST":    "4",
	}))
	assert.ErrorIs(t, err, xerrors.ErrConfiguration)
}

func TestEnvOverrides(t *testing.T) {
	cfg, err := load(fromMap(map[string]string{
		"SESSION_SECRET":           strongSecret,
		"SESSION_TTL":              "24h",
		"COOKIE_SECURE":            "true",
		"RATE_LIMIT_BACKEND":       "REDIS",
		"LOGIN_RATE_MAX":           "10",
		"LOGIN_RATE_WINDOW":        "1m",
		"SUBMIT_JOB_RATE_MAX":      "1",
		"SUBMIT_JOB_RATE_WINDOW":   "30m",
		"THROTTLE_RPS":             "2.5",
		"THROTTLE_BURST":           "5",
		"PRINCIPAL_LOOKUP_TIMEOUT": "500ms",
		"TRUSTED_PROXIES":          " 10.0.0.0/8, ,127.0.0.1 ",
		"CORS_ALLOWED_ORIGINS":     "https://jobs.example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, SessionLifetime, cfg.Session.TTL, "session lifetime ignores SESSION_TTL")
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, BackendRedis, cfg.RateLimit.Backend)
	assert.Equal(t, 10, cfg.RateLimit.Login.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Login.Window)
	assert.Equal(t, 1, cfg.RateLimit.SubmitJob.MaxRequests)
	assert.Equal(t, 30*time.Minute, cfg.RateLimit.SubmitJob.Window)
	assert.Equal(t, 2.5, cfg.Throttle.RPS)
	assert.Equal(t, 5, cfg.Throttle.Burst)
	assert.Equal(t, 500*time.Millisecond, cfg.PrincipalLookupTimeout)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, []string{"https://jobs.example.com"}, cfg.AllowedOrigins)
}

func TestInvalidValuesAreConfigurationErrors(t *testing.T) {
	for key, value := range map[string]string{
		"APP_ENV":             "staging-ish",
		"LOGIN_RATE_MAX":      "five",
		"LOGIN_RATE_WINDOW":   "soon",
		"RATE_LIMIT_BACKEND":  "memcached",
		"SUBMIT_JOB_RATE_MAX": "0",
		"COOKIE_SECURE":       "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			_, err := load(fromMap(map[string]string{"SESSION_SECRET": strongSecret, key: value}))
			assert.ErrorIs(t, err, xerrors.ErrConfiguration)
		})
	}
}

func TestTOMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobboard.toml")
	content := strings.Join([]string{
		`[rate_limit]`,
		`backend = "redis"`,
		`sweep_interval = "30s"`,
		``,
		`[rate_limit.policies.login]`,
		`max = 8`,
		`window = "10m"`,
		``,
		`[rate_limit.policies.submit-job]`,
		`max = 2`,
		``,
		`[throttle]`,
		`rps = 5.0`,
		`burst = 10`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := load(fromMap(map[string]string{
		"SESSION_SECRET": strongSecret,
		"CONFIG_FILE":    path,
		"LOGIN_RATE_MAX": "6",
	}))
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.RateLimit.Backend)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.SweepInterval)
	assert.Equal(t, 6, cfg.RateLimit.Login.MaxRequests, "env wins over file")
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.Login.Window)
	assert.Equal(t, 2, cfg.RateLimit.SubmitJob.MaxRequests)
	assert.Equal(t, time.Hour, cfg.RateLimit.SubmitJob.Window)
	assert.Equal(t, 5.0, cfg.Throttle.RPS)
	assert.Equal(t, 10, cfg.Throttle.Burst)
}

func TestTOMLOverlayRejectsUnknownPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rate_limit.policies.signup]\nmax = 1\n"), 0o600))

	_, err := load(fromMap(map[string]string{"SESSION_SECRET": strongSecret, "CONFIG_FILE": path}))
	assert.ErrorIs(t, err, xerrors.ErrConfiguration)
}

func TestTOMLOverlayRejectsSessionTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttl.toml")
	require.NoError(t, os.WriteFile(path, []byte("[session]\nttl = \"1h\"\n"), 0o600))

	_, err := load(fromMap(map[string]string{"SESSION_SECRET": strongSecret, "CONFIG_FILE": path}))
	assert.ErrorIs(t, err, xerrors.ErrConfiguration)
}

func TestIsPlaceholderSecret(t *testing.T) {
	assert.True(t, IsPlaceholderSecret(" ChangeMe "))
	assert.True(t, IsPlaceholderSecret("your-secret-key"))
	assert.False(t, IsPlaceholderSecret(strongSecret))
}
