package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// Store
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DATABASE_DSN", "u:p@tcp(db:3306)/countries?parseTime=true")

	// Upstream
	t.Setenv("EXTERNAL_COUNTRIES_URL", "http://a/all")
	t.Setenv("EXTERNAL_RATES_URL", "http://b/latest")
	t.Setenv("EXTERNAL_TIMEOUT", "7") // bare seconds

	// Summary / lock
	t.Setenv("SUMMARY_BACKEND", "minio")
	t.Setenv("MINIO_BUCKET", "summaries")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("REFRESH_LOCK", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REFRESH_LOCK_TTL", "90s")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 1.0
	t.Setenv("RATE_BURST", "nope") // -> default 3

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// Store / upstream
	if cfg.DB.Driver != "mysql" || !strings.HasPrefix(cfg.DB.DSN, "u:p@tcp") {
		t.Fatalf("db unexpected: %+v", cfg.DB)
	}
	if cfg.External.CountriesURL != "http://a/all" || cfg.External.RatesURL != "http://b/latest" ||
		cfg.External.Timeout != 7*time.Second {
		t.Fatalf("external unexpected: %+v", cfg.External)
	}

	// Summary / lock
	if cfg.Summary.Backend != "minio" || cfg.Summary.Minio.Bucket != "summaries" || !cfg.Summary.Minio.UseSSL {
		t.Fatalf("summary unexpected: %+v", cfg.Summary)
	}
	if cfg.Lock.Backend != "redis" || cfg.Lock.RedisAddr != "redis:6379" || cfg.Lock.TTL != 90*time.Second {
		t.Fatalf("lock unexpected: %+v", cfg.Lock)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 1.0 || cfg.RateBurst != 3 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT via spaces", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes <= 0", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"empty DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"unknown DB_DRIVER", map[string]string{"DB_DRIVER": "postgres"}, "DB_DRIVER"},
		{"mysql without DSN", map[string]string{"DB_DRIVER": "mysql"}, "DATABASE_DSN"},
		{"zero EXTERNAL_TIMEOUT", map[string]string{"EXTERNAL_TIMEOUT": "0s"}, "EXTERNAL_TIMEOUT"},
		{"empty SUMMARY_PATH", map[string]string{"SUMMARY_PATH": "  "}, "SUMMARY_PATH"},
		{"unknown SUMMARY_BACKEND", map[string]string{"SUMMARY_BACKEND": "s3"}, "SUMMARY_BACKEND"},
		{"minio without bucket", map[string]string{"SUMMARY_BACKEND": "minio", "MINIO_BUCKET": " "}, "MINIO_BUCKET"},
		{"unknown REFRESH_LOCK", map[string]string{"REFRESH_LOCK": "etcd"}, "REFRESH_LOCK"},
		{"redis without addr", map[string]string{"REFRESH_LOCK": "redis", "REDIS_ADDR": " "}, "REDIS_ADDR"},
		{"lock ttl non-positive", map[string]string{"REFRESH_LOCK_TTL": "0s"}, "REFRESH_LOCK_TTL"},
		{"rate rps negative", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst < 1", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts max age negative", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"otel sample ratio out of range", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil || !containsErr(err, tc.want) {
				t.Fatalf("expected %s validation error, got: %v", tc.want, err)
			}
		})
	}
}

// --- dotenv ---

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	p := filepath.Join(t.TempDir(), "test.env")
	content := "CC_DOTENV_NEW=from-file\nCC_DOTENV_SET=from-file\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CC_DOTENV_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("CC_DOTENV_NEW") })

	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("CC_DOTENV_NEW"); got != "from-file" {
		t.Fatalf("CC_DOTENV_NEW = %q", got)
	}
	if got := os.Getenv("CC_DOTENV_SET"); got != "from-env" {
		t.Fatalf("existing variable overridden: %q", got)
	}
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_SECONDS", "12")
	if getdur("D_SECONDS", time.Second) != 12*time.Second {
		t.Fatalf("getdur bare seconds failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	trueVals := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	for i, v := range trueVals {
		k := "B_T_" + config_strconv(i)
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	falseVals := []string{"0", "false", "FALSE", " no ", "N", "off", "Off"}
	for i, v := range falseVals {
		k := "B_F_" + config_strconv(i)
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	// default on unset/empty
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	in := " a, ,b ,  c  ,"
	want := []string{"a", "b", "c"}
	if got := splitCSV(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV mismatch: got %#v want %#v", got, want)
	}

	for in, want := range map[string]string{
		"":     "/",
		"v1":   "/v1",
		"/v1/": "/v1",
		" / ":  "/",
		"//":   "/",
	} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

// small helper (avoid fmt just for ints)
func config_strconv(i int) string { return string('a' + rune(i)) }

// Ensure tests don't leak env to others.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/" {
		t.Fatalf("API_BASE_PATH default expected '/', got %q", cfg.APIBasePath)
	}
	if cfg.DB.Driver != "sqlite" || cfg.Summary.Backend != "file" || cfg.Lock.Backend != "local" {
		t.Fatalf("backend defaults unexpected: %+v %+v %+v", cfg.DB, cfg.Summary, cfg.Lock)
	}
	if cfg.External.CountriesURL != DefaultCountriesURL || cfg.External.RatesURL != DefaultRatesURL ||
		cfg.External.Timeout != 10*time.Second {
		t.Fatalf("external defaults unexpected: %+v", cfg.External)
	}
	if cfg.Summary.Path != "cache/summary.png" {
		t.Fatalf("summary path default unexpected: %q", cfg.Summary.Path)
	}
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	// No special env needed; defaults are valid.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}
