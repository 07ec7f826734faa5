package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration. Values come from an optional
// YAML file with environment variables taking precedence for secrets.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Concept  ConceptConfig  `yaml:"concept"`
	Quality  QualityConfig  `yaml:"quality"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// LLMConfig points at an OpenAI-compatible generation endpoint.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"` // runes
	OverlapSize  int `yaml:"overlap_size"`   // runes
}

type ConceptConfig struct {
	BatchSize     int `yaml:"batch_size"`     // chunks per call before map-reduce kicks in
	MaxConcurrent int `yaml:"max_concurrent"` // concurrent batch calls
	MaxSelected   int `yaml:"max_selected"`   // cap on selected chunks
}

type QualityConfig struct {
	PassThreshold int `yaml:"pass_threshold"` // pass requires every score strictly above this
}

type PipelineConfig struct {
	RegenLimit int `yaml:"regen_limit"` // regeneration cycles after the first attempt
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api",
			Model:       "google/gemini-2.5-flash",
			Temperature: 0,
			Timeout:     90 * time.Second,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 1000,
			OverlapSize:  200,
		},
		Concept: ConceptConfig{
			BatchSize:     12,
			MaxConcurrent: 4,
			MaxSelected:   8,
		},
		Quality: QualityConfig{
			PassThreshold: 3,
		},
		Pipeline: PipelineConfig{
			RegenLimit: 2,
		},
	}
}

// Load reads the YAML file at path (if it exists), applies environment
// overrides, and fills unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.LLM.BaseURL = envOr("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = envOr("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = envOr("LLM_MODEL", cfg.LLM.Model)
	cfg.Chunking.MaxChunkSize = envInt("MAX_CHUNK_SIZE", cfg.Chunking.MaxChunkSize)
	cfg.Chunking.OverlapSize = envInt("CHUNK_OVERLAP_SIZE", cfg.Chunking.OverlapSize)
	cfg.Pipeline.RegenLimit = envInt("REGEN_LIMIT", cfg.Pipeline.RegenLimit)

	cfg.applyFloors()
	return cfg, nil
}

func (c *Config) applyFloors() {
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 90 * time.Second
	}
	if c.Concept.BatchSize <= 0 {
		c.Concept.BatchSize = 12
	}
	if c.Concept.MaxConcurrent <= 0 {
		c.Concept.MaxConcurrent = 4
	}
	if c.Concept.MaxSelected <= 0 {
		c.Concept.MaxSelected = 8
	}
	if c.Quality.PassThreshold <= 0 {
		c.Quality.PassThreshold = 3
	}
	if c.Pipeline.RegenLimit < 0 {
		c.Pipeline.RegenLimit = 0
	}
}

// Validate rejects configurations the pipeline cannot run with. Chunking
// invariants are checked here so a bad overlap fails fast, before any
// document is touched.
func (c Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("chunking: max_chunk_size must be positive, got %d", c.Chunking.MaxChunkSize)
	}
	if c.Chunking.OverlapSize < 0 || c.Chunking.OverlapSize >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("chunking: overlap_size %d must be in [0, max_chunk_size %d)",
			c.Chunking.OverlapSize, c.Chunking.MaxChunkSize)
	}
	if c.Quality.PassThreshold >= 5 {
		return fmt.Errorf("quality: pass_threshold %d leaves no passing score on a 1-5 scale", c.Quality.PassThreshold)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
