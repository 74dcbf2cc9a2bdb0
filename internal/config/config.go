package config

import (
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete rummy configuration
type Config struct {
	Companion CompanionSettings
	Game      GameSettings
	Log       LogSettings
}

// CompanionSettings configures the chat backend and the commentary bridge
type CompanionSettings struct {
	APIURL               string
	ModelName            string
	APIKey               string
	PersonaTemplatesPath string
	RequestTimeout       time.Duration
	Workers              int
	QueueSize            int
	Temperature          float64
	MaxTokens            int
	CommentOn            []string
	Disabled             bool
}

// GameSettings contains the table rules
type GameSettings struct {
	KnockThreshold  int
	MatchScoreLimit int
	UndercutBonus   int
	GinBonus        int
	LayOffs         bool
	MaxTurns        int
	RNGSeed         *int64
	HumanName       string
	Companions      int
}

// LogSettings controls the file logger
type LogSettings struct {
	Level string
	File  string
}

// fileConfig is the on-disk HCL schema. Pointer attributes distinguish an
// explicit zero from an absent value.
type fileConfig struct {
	Companion *fileCompanion `hcl:"companion,block"`
	Game      *fileGame      `hcl:"game,block"`
	Log       *fileLog       `hcl:"log,block"`
}

type fileCompanion struct {
	APIURL               string   `hcl:"api_url,optional"`
	ModelName            string   `hcl:"model_name,optional"`
	APIKey               string   `hcl:"api_key,optional"`
	PersonaTemplatesPath string   `hcl:"persona_templates_path,optional"`
	RequestTimeout       string   `hcl:"request_timeout,optional"`
	Workers              *int     `hcl:"workers,optional"`
	QueueSize            *int     `hcl:"queue_size,optional"`
	Temperature          *float64 `hcl:"temperature,optional"`
	MaxTokens            *int     `hcl:"max_tokens,optional"`
	CommentOn            []string `hcl:"comment_on,optional"`
	Disabled             bool     `hcl:"disabled,optional"`
}

type fileGame struct {
	KnockThreshold  *int   `hcl:"knock_threshold,optional"`
	MatchScoreLimit *int   `hcl:"match_score_limit,optional"`
	UndercutBonus   *int   `hcl:"undercut_bonus,optional"`
	GinBonus        *int   `hcl:"gin_bonus,optional"`
	LayOffs         *bool  `hcl:"layoffs,optional"`
	MaxTurns        *int   `hcl:"max_turns,optional"`
	RNGSeed         *int64 `hcl:"rng_seed,optional"`
	HumanName       string `hcl:"human_name,optional"`
	Companions      *int   `hcl:"companions,optional"`
}

type fileLog struct {
	Level string `hcl:"level,optional"`
	File  string `hcl:"file,optional"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Companion: CompanionSettings{
			APIURL:               "http://localhost:11434/v1/chat/completions",
			ModelName:            "llama3",
			PersonaTemplatesPath: "personas.yaml",
			RequestTimeout:       20 * time.Second,
			Workers:              2,
			QueueSize:            16,
			Temperature:          0.8,
			MaxTokens:            120,
			CommentOn:            []string{"discard", "draw_discard", "knock", "round_scored", "match_complete"},
		},
		Game: GameSettings{
			KnockThreshold:  10,
			MatchScoreLimit: 100,
			UndercutBonus:   10,
			GinBonus:        0,
			LayOffs:         true,
			HumanName:       "You",
			Companions:      2,
		},
		Log: LogSettings{
			Level: "info",
			File:  "rummy.log",
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults; present files are merged over them.
func Load(filename string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, invalid(filename, "failed to parse HCL file: %s", diags.Error())
	}

	var raw fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, invalid(filename, "failed to decode HCL: %s", diags.Error())
	}

	if err := config.merge(&raw); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) merge(raw *fileConfig) error {
	if cc := raw.Companion; cc != nil {
		setString(&c.Companion.APIURL, cc.APIURL)
		setString(&c.Companion.ModelName, cc.ModelName)
		setString(&c.Companion.APIKey, cc.APIKey)
		setString(&c.Companion.PersonaTemplatesPath, cc.PersonaTemplatesPath)
		setInt(&c.Companion.Workers, cc.Workers)
		setInt(&c.Companion.QueueSize, cc.QueueSize)
		setInt(&c.Companion.MaxTokens, cc.MaxTokens)
		if cc.RequestTimeout != "" {
			d, err := time.ParseDuration(cc.RequestTimeout)
			if err != nil {
				return invalid("companion.request_timeout", "invalid duration %q", cc.RequestTimeout)
			}
			c.Companion.RequestTimeout = d
		}
		if cc.Temperature != nil {
			c.Companion.Temperature = *cc.Temperature
		}
		if cc.CommentOn != nil {
			c.Companion.CommentOn = cc.CommentOn
		}
		c.Companion.Disabled = cc.Disabled
	}

	if g := raw.Game; g != nil {
		setInt(&c.Game.KnockThreshold, g.KnockThreshold)
		setInt(&c.Game.MatchScoreLimit, g.MatchScoreLimit)
		setInt(&c.Game.MaxTurns, g.MaxTurns)
		setString(&c.Game.HumanName, g.HumanName)
		setInt(&c.Game.UndercutBonus, g.UndercutBonus)
		setInt(&c.Game.GinBonus, g.GinBonus)
		if g.LayOffs != nil {
			c.Game.LayOffs = *g.LayOffs
		}
		setInt(&c.Game.Companions, g.Companions)
		c.Game.RNGSeed = g.RNGSeed
	}

	if l := raw.Log; l != nil {
		setString(&c.Log.Level, l.Level)
		setString(&c.Log.File, l.File)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validKinds = map[string]bool{
	"round_started":  true,
	"draw_pile":      true,
	"draw_discard":   true,
	"discard":        true,
	"knock":          true,
	"stalemate":      true,
	"round_scored":   true,
	"round_complete": true,
	"match_complete": true,
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Game.KnockThreshold < 0 {
		return invalid("game.knock_threshold", "must not be negative, got %d", c.Game.KnockThreshold)
	}
	if c.Game.MatchScoreLimit <= 0 {
		return invalid("game.match_score_limit", "must be positive, got %d", c.Game.MatchScoreLimit)
	}
	if c.Game.UndercutBonus < 0 || c.Game.GinBonus < 0 {
		return invalid("game", "bonuses must not be negative")
	}
	if c.Game.MaxTurns < 0 {
		return invalid("game.max_turns", "must not be negative, got %d", c.Game.MaxTurns)
	}
	// Two to six seats including the human
	if c.Game.Companions < 1 || c.Game.Companions > 5 {
		return invalid("game.companions", "must be between 1 and 5, got %d", c.Game.Companions)
	}
	if strings.TrimSpace(c.Game.HumanName) == "" {
		return invalid("game.human_name", "must not be empty")
	}

	if !c.Companion.Disabled {
		if c.Companion.APIURL == "" {
			return invalid("companion.api_url", "is required unless companions are disabled")
		}
		if c.Companion.ModelName == "" {
			return invalid("companion.model_name", "is required unless companions are disabled")
		}
	}
	if c.Companion.RequestTimeout <= 0 {
		return invalid("companion.request_timeout", "must be positive, got %s", c.Companion.RequestTimeout)
	}
	if c.Companion.Workers < 1 {
		return invalid("companion.workers", "must be at least 1, got %d", c.Companion.Workers)
	}
	if c.Companion.QueueSize < 1 {
		return invalid("companion.queue_size", "must be at least 1, got %d", c.Companion.QueueSize)
	}
	if c.Companion.Temperature < 0 || c.Companion.Temperature > 2 {
		return invalid("companion.temperature", "must be between 0 and 2, got %g", c.Companion.Temperature)
	}
	for _, kind := range c.Companion.CommentOn {
		if !validKinds[kind] {
			return invalid("companion.comment_on", "unknown event kind %q", kind)
		}
	}

	if !validLogLevels[c.Log.Level] {
		return invalid("log.level", "invalid log level %q", c.Log.Level)
	}
	return nil
}

// Seed returns the configured RNG seed and whether one was set
func (c *Config) Seed() (int64, bool) {
	if c.Game.RNGSeed == nil {
		return 0, false
	}
	return *c.Game.RNGSeed, true
}
