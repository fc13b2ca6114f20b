// Package config loads and validates the JSON project configuration. It is
// deliberately thin per spec.md's Out-of-scope note on the config-file
// loader: field-level validation is delegated to go-playground/validator
// struct tags rather than hand-written checks, following the pattern the
// teacher and AleutianFOSS/TaskWing use for config validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
)

// LanguageConfig configures one language's extraction behavior.
type LanguageConfig struct {
	ExtractDocumentation bool   `json:"extractDocumentation"`
	IncludePrivate       bool   `json:"includePrivate"`
	DocstringFormat      string `json:"docstringFormat,omitempty" validate:"omitempty,oneof=google numpy sphinx auto"`
	TSConfigPath         string `json:"tsConfigPath,omitempty"`
}

// LanguagesConfig groups per-language settings.
type LanguagesConfig struct {
	TypeScript LanguageConfig `json:"typescript"`
	JavaScript LanguageConfig `json:"javascript"`
	Python     LanguageConfig `json:"python"`
}

// SynonymsConfig configures the synonym expander (spec.md §6, §4.7).
type SynonymsConfig struct {
	Enabled           bool                `json:"enabled"`
	UseBuiltinSynonyms bool               `json:"useBuiltinSynonyms"`
	CustomSynonyms    []CustomSynonym     `json:"customSynonyms,omitempty"`
	Overrides         map[string]float64  `json:"overrides,omitempty"`
	Disabled          []string            `json:"disabled,omitempty"`
	MinWeightThreshold float64            `json:"minWeightThreshold" validate:"gte=0,lte=1"`
	MaxExpansions     int                 `json:"maxExpansions" validate:"gte=1"`
}

// CustomSynonym is a user-supplied synonym entry appended to the builtin graph.
type CustomSynonym struct {
	Canonical     string  `json:"canonical"`
	Term          string  `json:"term"`
	Relation      string  `json:"relation" validate:"oneof=exact abbreviation conceptual implementation"`
	Weight        float64 `json:"weight" validate:"gte=0,lte=1"`
	Bidirectional bool    `json:"bidirectional"`
}

// ChainWeights configures the default blend weight of each Markov chain.
type ChainWeights struct {
	CallFlow      float64 `json:"call_flow" validate:"gte=0,lte=1"`
	Cooccurrence  float64 `json:"cooccurrence" validate:"gte=0,lte=1"`
	TypeAffinity  float64 `json:"type_affinity" validate:"gte=0,lte=1"`
	ImportCluster float64 `json:"import_cluster" validate:"gte=0,lte=1"`
}

// MarkovConfig configures chain building and the query engine (spec.md §6, §4.8).
type MarkovConfig struct {
	Enabled             bool         `json:"enabled"`
	AutoRebuild         bool         `json:"autoRebuild"`
	ChainTypes          []string     `json:"chainTypes,omitempty"`
	DefaultDepth        int          `json:"defaultDepth" validate:"gte=1,lte=5"`
	DefaultDecayFactor  float64      `json:"defaultDecayFactor" validate:"gte=0,lte=1"`
	MinProbability      float64      `json:"minProbability" validate:"gte=0,lte=1"`
	ChainWeights        ChainWeights `json:"chainWeights"`
	CooccurrenceScope   string       `json:"cooccurrenceScope,omitempty" validate:"omitempty,oneof=file function"`
}

// ParserConfig configures the shared parser guard rails (spec.md §4.1).
type ParserConfig struct {
	// MaxFileSize is in bytes. The parsers do not read it: they apply the
	// fixed 1 MiB limit maxFileBytes in internal/parser, so 0 does not
	// disable the limit.
	MaxFileSize int64 `json:"maxFileSize"`
}

// OutputConfig configures where the persisted SQL database lives.
type OutputConfig struct {
	Database string `json:"database"`
}

// Config is the top-level project configuration, loaded from JSON.
type Config struct {
	Directories []string        `json:"directories" validate:"required,min=1"`
	Include     []string        `json:"include,omitempty"`
	Exclude     []string        `json:"exclude,omitempty"`
	Output      OutputConfig    `json:"output"`
	Languages   LanguagesConfig `json:"languages"`
	Synonyms    SynonymsConfig  `json:"synonyms"`
	Markov      MarkovConfig    `json:"markov"`
	Parser      ParserConfig    `json:"parser"`

	// Performance/governance knobs not named by spec.md §6's config schema
	// but required by the ambient stack (worker pool sizing, watch debounce,
	// session governor thresholds). Kept here rather than invented ad hoc in
	// each consuming package.
	ParallelFileWorkers int `json:"parallelFileWorkers,omitempty"`
	WatchDebounceMs     int `json:"watchDebounceMs,omitempty"`
	AutoRebuildThreshold int `json:"autoRebuildThreshold,omitempty"`
	ToolTimeoutSeconds  int `json:"toolTimeoutSeconds,omitempty"`
	Governor            GovernorConfig `json:"governor,omitempty"`
}

// GovernorConfig configures the session governor's thresholds (spec.md §4.10).
type GovernorConfig struct {
	NovelExploreLimit    int `json:"novelExploreLimit,omitempty"`
	NovelSynthesizeLimit int `json:"novelSynthesizeLimit,omitempty"`
	TotalHardCap         int `json:"totalHardCap,omitempty"`
}

// Default returns the configuration defaults named in spec.md §6.
func Default() *Config {
	return &Config{
		Directories: []string{"."},
		Exclude:     []string{"**/node_modules/**", "**/.git/**", "**/dist/**", "**/__pycache__/**"},
		Output:      OutputConfig{Database: ".lazyload/index.db"},
		Languages: LanguagesConfig{
			TypeScript: LanguageConfig{ExtractDocumentation: true, DocstringFormat: "auto"},
			JavaScript: LanguageConfig{ExtractDocumentation: true, DocstringFormat: "auto"},
			Python:     LanguageConfig{ExtractDocumentation: true, DocstringFormat: "auto"},
		},
		Synonyms: SynonymsConfig{
			Enabled:            true,
			UseBuiltinSynonyms: true,
			MinWeightThreshold: 0.3,
			MaxExpansions:      15,
		},
		Markov: MarkovConfig{
			Enabled:            true,
			AutoRebuild:        true,
			DefaultDepth:       2,
			DefaultDecayFactor: 0.7,
			MinProbability:     0.05,
			CooccurrenceScope:  "file",
			ChainWeights: ChainWeights{
				CallFlow:      0.4,
				Cooccurrence:  0.25,
				TypeAffinity:  0.2,
				ImportCluster: 0.15,
			},
		},
		Parser:               ParserConfig{MaxFileSize: 1 << 20},
		ParallelFileWorkers:  0,
		WatchDebounceMs:      250,
		AutoRebuildThreshold: 5,
		ToolTimeoutSeconds:   15,
		Governor: GovernorConfig{
			NovelExploreLimit:    8,
			NovelSynthesizeLimit: 15,
			TotalHardCap:         25,
		},
	}
}

var validate = validator.New()

// Load reads, defaults and validates a config file at path. A missing file
// is not an error: the defaults are returned as-is, matching a tool meant
// to work with zero setup against the current directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, &lzerrors.ConfigError{Field: "path", Underlying: err}
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, &lzerrors.ConfigError{Field: "json", Underlying: err}
	}
	fillGovernorDefaults(cfg)
	if err := validate.Struct(cfg); err != nil {
		return nil, &lzerrors.ConfigError{Field: "schema", Underlying: err}
	}
	return cfg, nil
}

func fillGovernorDefaults(cfg *Config) {
	d := Default()
	if cfg.Governor.NovelExploreLimit == 0 {
		cfg.Governor.NovelExploreLimit = d.Governor.NovelExploreLimit
	}
	if cfg.Governor.NovelSynthesizeLimit == 0 {
		cfg.Governor.NovelSynthesizeLimit = d.Governor.NovelSynthesizeLimit
	}
	if cfg.Governor.TotalHardCap == 0 {
		cfg.Governor.TotalHardCap = d.Governor.TotalHardCap
	}
	if cfg.ParallelFileWorkers == 0 {
		cfg.ParallelFileWorkers = d.ParallelFileWorkers
	}
	if cfg.WatchDebounceMs == 0 {
		cfg.WatchDebounceMs = d.WatchDebounceMs
	}
	if cfg.AutoRebuildThreshold == 0 {
		cfg.AutoRebuildThreshold = d.AutoRebuildThreshold
	}
	if cfg.ToolTimeoutSeconds == 0 {
		cfg.ToolTimeoutSeconds = d.ToolTimeoutSeconds
	}
}

// Validate re-runs struct validation on an already-built Config.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
