package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Faces     FacesConfig
	Output    OutputConfig
	Ledger    LedgerConfig
	Match     MatchConfig
	Embedding EmbeddingConfig
	Database  DatabaseConfig
	Models    ModelsConfig
}

type FacesConfig struct {
	Dir string // directory with reference photos, one person per file
}

type OutputConfig struct {
	Dir string // annotated images are written here
}

type LedgerConfig struct {
	Path string // CSV attendance ledger path
}

type MatchConfig struct {
	Threshold float64 // maximum cosine distance for a match; 0 means "use the model default"
}

type EmbeddingConfig struct {
	URL      string // embedding server base URL (defaults to http://localhost:8000)
	Model    string // embedding model identifier, passed through to the server
	Detector string // face detector backend identifier, passed through to the server
}

type DatabaseConfig struct {
	URL          string // optional PostgreSQL connection URL
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

type ModelsConfig struct {
	Models map[string]ModelInfo `yaml:"models"`
}

// ModelInfo describes an embedding model the external server can run.
type ModelInfo struct {
	Dim       int     `yaml:"dim"`
	Threshold float64 `yaml:"threshold"`
}

const defaultThreshold = 0.40

// envStr reads an environment variable, falling back to a default when unset.
func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	return &Config{
		Faces: FacesConfig{
			Dir: envStr("FACES_DIR", "Faces"),
		},
		Output: OutputConfig{
			Dir: envStr("OUTPUT_DIR", "outputs"),
		},
		Ledger: LedgerConfig{
			Path: envStr("ATTENDANCE_CSV", "attendance.csv"),
		},
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", 0),
		},
		Embedding: EmbeddingConfig{
			URL:      envStr("EMBEDDING_URL", "http://localhost:8000"),
			Model:    envStr("EMBEDDING_MODEL", "VGG-Face"),
			Detector: envStr("DETECTOR_BACKEND", "opencv"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Models: models,
	}
}

// GetModelInfo returns registry data for an embedding model.
// Unknown models get a zero dim (accepted as-is from the server) and the
// generic default threshold.
func (c *Config) GetModelInfo(modelName string) ModelInfo {
	if info, ok := c.Models.Models[modelName]; ok {
		return info
	}
	return ModelInfo{Threshold: defaultThreshold}
}

// ResolveThreshold picks the match threshold for a run: an explicit value
// (flag or MATCH_THRESHOLD) wins over the model registry default.
func (c *Config) ResolveThreshold(explicit float64) float64 {
	if explicit > 0 {
		return explicit
	}
	if c.Match.Threshold > 0 {
		return c.Match.Threshold
	}
	info := c.GetModelInfo(c.Embedding.Model)
	if info.Threshold > 0 {
		return info.Threshold
	}
	return defaultThreshold
}
