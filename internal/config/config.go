package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/kelseyhightower/envconfig"

	"github.com/abhishek622/hiringpipeline/internal/events"
	"github.com/abhishek622/hiringpipeline/internal/grading"
	"github.com/abhishek622/hiringpipeline/internal/panel"
	"github.com/abhishek622/hiringpipeline/internal/pipeline"
	"github.com/abhishek622/hiringpipeline/internal/profile"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// Config holds all application configuration
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     int    `envconfig:"APP_PORT" default:"8080"`
	DB       DBConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Limiter  RateLimiterConfig
	CORS     CORSConfig
	Grading  GradingConfig
	Pipeline PipelineConfig
	Profile  ProfileConfig
	Panel    PanelConfig
}

// database configuration
type DBConfig struct {
	DSN             string        `envconfig:"DATABASE_URL" required:"true"`
	MaxOpenConns    int32         `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MinConns        int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxIdleTime     time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"15m"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// redis configuration; an empty address disables the profile cache
type RedisConfig struct {
	Addr       string        `envconfig:"REDIS_ADDR"`
	Password   string        `envconfig:"REDIS_PASSWORD"`
	DB         int           `envconfig:"REDIS_DB" default:"0"`
	ProfileTTL time.Duration `envconfig:"REDIS_PROFILE_TTL" default:"10m"`
}

// event broker configuration; an empty URL disables publishing
type AMQPConfig struct {
	URL        string        `envconfig:"AMQP_URL"`
	Exchange   string        `envconfig:"AMQP_EXCHANGE" default:"hiring.pipeline"`
	KeyPrefix  string        `envconfig:"AMQP_ROUTING_PREFIX"`
	PublishTTL time.Duration `envconfig:"AMQP_PUBLISH_TIMEOUT" default:"5s"`
}

// rate limiting configuration
type RateLimiterConfig struct {
	RPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst   int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORS configuration
type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000,http://localhost:4173,http://localhost:5173"`
}

// metric grading configuration
type GradingConfig struct {
	MaxLow       int     `envconfig:"GRADING_MAX_LOW" default:"2"`
	MinHighRatio float64 `envconfig:"GRADING_MIN_HIGH_RATIO" default:"0"`
}

// StagePolicyConfig is read as PIPELINE_<TYPE>_SCALE, _THRESHOLD and _QUORUM.
type StagePolicyConfig struct {
	Scale     float64 `envconfig:"SCALE"`
	Threshold float64 `envconfig:"THRESHOLD"`
	Quorum    int     `envconfig:"QUORUM" default:"1"`
}

type PipelineConfig struct {
	Document  StagePolicyConfig `envconfig:"DOCUMENT"`
	AI        StagePolicyConfig `envconfig:"AI"`
	Practical StagePolicyConfig `envconfig:"PRACTICAL"`
	Executive StagePolicyConfig `envconfig:"EXECUTIVE"`
}

// interviewer profile configuration
type ProfileConfig struct {
	Neutral              float64 `envconfig:"PROFILE_NEUTRAL" default:"50"`
	ConfidenceSaturation float64 `envconfig:"PROFILE_CONFIDENCE_SATURATION" default:"10"`
	Decay                float64 `envconfig:"PROFILE_DECAY" default:"0"`
}

// panel balancing configuration
type PanelConfig struct {
	BandLow          float64 `envconfig:"PANEL_VARIANCE_LOW" default:"100"`
	BandHigh         float64 `envconfig:"PANEL_VARIANCE_HIGH" default:"400"`
	WeightSpread     float64 `envconfig:"PANEL_WEIGHT_SPREAD" default:"0.35"`
	WeightCoverage   float64 `envconfig:"PANEL_WEIGHT_COVERAGE" default:"0.35"`
	WeightExperience float64 `envconfig:"PANEL_WEIGHT_EXPERIENCE" default:"0.30"`
	NoviceConfidence float64 `envconfig:"PANEL_NOVICE_CONFIDENCE" default:"20"`
	MaxCombinations  int     `envconfig:"PANEL_MAX_COMBINATIONS" default:"5000"`
}

// defaultScales fills unset stage scales: documents and the AI stage are
// scored on 0-100, interviewers score on 0-10.
var defaultScales = map[model.InterviewType]float64{
	model.InterviewDocument:  100,
	model.InterviewAI:        100,
	model.InterviewPractical: 10,
	model.InterviewExecutive: 10,
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) stagePolicies() map[model.InterviewType]*StagePolicyConfig {
	return map[model.InterviewType]*StagePolicyConfig{
		model.InterviewDocument:  &c.Pipeline.Document,
		model.InterviewAI:        &c.Pipeline.AI,
		model.InterviewPractical: &c.Pipeline.Practical,
		model.InterviewExecutive: &c.Pipeline.Executive,
	}
}

func (c *Config) applyDefaults() {
	for t, p := range c.stagePolicies() {
		if p.Scale == 0 {
			p.Scale = defaultScales[t]
		}
		if p.Threshold == 0 {
			p.Threshold = p.Scale * 70 / 100
		}
	}
}

func (c *Config) Validate() error {
	// Validate environment
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DB.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxOpenConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must be between 0 and DB_MAX_OPEN_CONNS (%d)",
			c.DB.MinConns, c.DB.MaxOpenConns)
	}
	if c.Redis.Addr != "" && c.Redis.ProfileTTL <= 0 {
		return fmt.Errorf("REDIS_PROFILE_TTL must be positive")
	}
	if c.AMQP.URL != "" && strings.TrimSpace(c.AMQP.Exchange) == "" {
		return fmt.Errorf("AMQP_EXCHANGE is required when AMQP_URL is set")
	}
	if c.Limiter.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be non-negative")
	}
	if c.Limiter.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}
	if len(c.CORS.TrustedOrigins) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}
	if c.Grading.MaxLow < 1 {
		return fmt.Errorf("GRADING_MAX_LOW must be at least 1")
	}
	if c.Grading.MinHighRatio < 0 || c.Grading.MinHighRatio > 1 {
		return fmt.Errorf("GRADING_MIN_HIGH_RATIO must be within [0, 1]")
	}

	for _, t := range []model.InterviewType{
		model.InterviewDocument, model.InterviewAI, model.InterviewPractical, model.InterviewExecutive,
	} {
		p := c.stagePolicies()[t]
		if p.Scale != 10 && p.Scale != 100 {
			return fmt.Errorf("PIPELINE_%s_SCALE must be 10 or 100 (got %g)", t, p.Scale)
		}
		if p.Threshold < 0 || p.Threshold > p.Scale {
			return fmt.Errorf("PIPELINE_%s_THRESHOLD %g must be within [0, %g]", t, p.Threshold, p.Scale)
		}
		if p.Quorum < 1 {
			return fmt.Errorf("PIPELINE_%s_QUORUM must be at least 1", t)
		}
	}

	if c.Profile.Neutral < 0 || c.Profile.Neutral > 100 {
		return fmt.Errorf("PROFILE_NEUTRAL must be within [0, 100]")
	}
	if c.Profile.ConfidenceSaturation <= 0 {
		return fmt.Errorf("PROFILE_CONFIDENCE_SATURATION must be positive")
	}
	if c.Profile.Decay < 0 || c.Profile.Decay > 1 {
		return fmt.Errorf("PROFILE_DECAY must be within [0, 1]")
	}

	if c.Panel.BandLow <= 0 || c.Panel.BandLow > c.Panel.BandHigh {
		return fmt.Errorf("PANEL_VARIANCE_LOW (%g) must be positive and not above PANEL_VARIANCE_HIGH (%g)",
			c.Panel.BandLow, c.Panel.BandHigh)
	}
	weights := []float64{c.Panel.WeightSpread, c.Panel.WeightCoverage, c.Panel.WeightExperience}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("panel weights must be non-negative")
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("panel weights must sum to a positive number")
	}
	if c.Panel.MaxCombinations < 1 {
		return fmt.Errorf("PANEL_MAX_COMBINATIONS must be at least 1")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetCORSOrigins returns the list of trusted CORS origins
func (c *Config) GetCORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.TrustedOrigins))
	for _, origin := range c.CORS.TrustedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *Config) GradingPolicy() grading.Policy {
	return grading.Policy{MaxLow: c.Grading.MaxLow, MinHighRatio: c.Grading.MinHighRatio}
}

func (c *Config) StagePolicies() pipeline.Policies {
	out := make(pipeline.Policies, 4)
	for t, p := range c.stagePolicies() {
		out[t] = pipeline.StagePolicy{Scale: p.Scale, PassThreshold: p.Threshold, RequiredEvaluations: p.Quorum}
	}
	return out
}

func (c *Config) ProfileSettings() profile.Settings {
	return profile.Settings{
		Neutral:              c.Profile.Neutral,
		ConfidenceSaturation: c.Profile.ConfidenceSaturation,
		Decay:                c.Profile.Decay,
	}
}

func (c *Config) PanelSettings() panel.Settings {
	return panel.Settings{
		BandLow:          c.Panel.BandLow,
		BandHigh:         c.Panel.BandHigh,
		WeightSpread:     c.Panel.WeightSpread,
		WeightCoverage:   c.Panel.WeightCoverage,
		WeightExperience: c.Panel.WeightExperience,
		NoviceConfidence: c.Panel.NoviceConfidence,
		MaxCombinations:  c.Panel.MaxCombinations,
	}
}

func (c *Config) RabbitMQ() events.RabbitMQConfig {
	return events.RabbitMQConfig{
		URL:        c.AMQP.URL,
		Exchange:   c.AMQP.Exchange,
		KeyPrefix:  c.AMQP.KeyPrefix,
		PublishTTL: c.AMQP.PublishTTL,
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, DB.MaxOpenConns=%d, DB.MinConns=%d, "+
		"Redis.Enabled=%t, AMQP.Enabled=%t, Limiter.RPS=%.2f, Limiter.Burst=%d, Limiter.Enabled=%t, "+
		"CORS.Origins=%d, Grading.MaxLow=%d, Panel.MaxCombinations=%d}",
		c.Env, c.Port, c.DB.MaxOpenConns, c.DB.MinConns,
		c.Redis.Addr != "", c.AMQP.URL != "", c.Limiter.RPS, c.Limiter.Burst, c.Limiter.Enabled,
		len(c.CORS.TrustedOrigins), c.Grading.MaxLow, c.Panel.MaxCombinations)
}
