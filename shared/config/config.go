package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	LogLevel              string        `yaml:"log_level"`
	LogJSON               bool          `yaml:"log_json"`
	HTTPPort              int           `yaml:"http_port" validate:"required"`
	SecureCookies         bool          `yaml:"secure_cookies"`
	AllowedOrigins        []string      `yaml:"allowed_origins"`
	UserJwtTTL            time.Duration `yaml:"user_jwt_ttl" validate:"required"`
	StaffJwtTTL           time.Duration `yaml:"staff_jwt_ttl" validate:"required"`
	LogoutRefreshInterval time.Duration `yaml:"logout_refresh_interval" validate:"required"`

	Trust      Trust      `yaml:"trust"`
	Moderation Moderation `yaml:"moderation"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Tracing    Tracing    `yaml:"tracing"`
}

// Trust holds every tunable of the trust score engine.
// Scores are integers; thresholds are compared with "<".
type Trust struct {
	Min                     int           `yaml:"min"`
	Max                     int           `yaml:"max" validate:"required,gtfield=Min"`
	Baseline                int           `yaml:"baseline" validate:"required"`
	ThrottleThreshold       int           `yaml:"throttle_threshold" validate:"required"`
	BlockThreshold          int           `yaml:"block_threshold" validate:"required,ltfield=ThrottleThreshold"`
	PenaltyPerSeverity      int           `yaml:"penalty_per_severity" validate:"required"`
	UpheldPenalty           int           `yaml:"upheld_penalty" validate:"required"`
	ClearedRestore          int           `yaml:"cleared_restore" validate:"required,ltfield=UpheldPenalty"`
	ContributionReward      int           `yaml:"contribution_reward"`
	RecoveryDelta           int           `yaml:"recovery_delta"`
	RecoveryCeiling         int           `yaml:"recovery_ceiling"`
	RecoveryInterval        time.Duration `yaml:"recovery_interval"`
	RecoveryQuietPeriod     time.Duration `yaml:"recovery_quiet_period"`
	ThrottleAfterViolations int           `yaml:"throttle_after_violations" validate:"required"`
	BlockAfterViolations    int           `yaml:"block_after_violations" validate:"required,gtfield=ThrottleAfterViolations"`
	ViolationWindow         time.Duration `yaml:"violation_window" validate:"required"`
}

type Moderation struct {
	BannedTerms        []string `yaml:"banned_terms"`
	ReviewTerms        []string `yaml:"review_terms"`
	BannedTermSeverity int      `yaml:"banned_term_severity" validate:"required"`
	MaxLinks           int      `yaml:"max_links" validate:"required"`
	MaxRepeatedChars   int      `yaml:"max_repeated_chars" validate:"required"`
	MaxCapsRatio       float64  `yaml:"max_caps_ratio" validate:"required"`
	MaxLength          int      `yaml:"max_length" validate:"required"`
}

type RateLimit struct {
	Backend          string      `yaml:"backend" validate:"oneof=memory redis"`
	Auth             LimitConfig `yaml:"auth"`
	API              LimitConfig `yaml:"api"`
	Posting          LimitConfig `yaml:"posting"`
	PostingThrottled LimitConfig `yaml:"posting_throttled"`
}

// LimitConfig mirrors ratelimiter.Config in yaml form.
type LimitConfig struct {
	Window time.Duration `yaml:"window" validate:"required"`
	Max    int           `yaml:"max" validate:"required"`
	Scope  string        `yaml:"scope" validate:"oneof=ip identity"`
}

type Tracing struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	JwtKey string `yaml:"jwt_key" validate:"required"`
	Redis  Redis  `yaml:"redis"`

	BootstrapAdmin BootstrapAdmin `yaml:"bootstrap_admin"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password" validate:"required"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// BootstrapAdmin is provisioned at start-up when the staff table is empty.
type BootstrapAdmin struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, Private: private}
	if err := Validate(cfg); err != nil {
		panic("invalid config: " + err.Error())
	}
	return cfg
}

func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if cfg.Private.BootstrapAdmin.Email != "" && cfg.Private.BootstrapAdmin.Password == "" {
		return fmt.Errorf("bootstrap_admin.password is required when bootstrap_admin.email is set")
	}
	if cfg.Public.RateLimit.Backend == "redis" && cfg.Private.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the redis rate limit backend")
	}
	return nil
}
