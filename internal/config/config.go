package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const FileName = "querygraft.config"

type Config struct {
	Version   string   `json:"version" mapstructure:"version"`
	SchemaDir string   `json:"schema_dir" mapstructure:"schema_dir"` // folder containing .sql schema files
	Queries   string   `json:"queries" mapstructure:"queries"`
	Workers   int      `json:"workers,omitempty" mapstructure:"workers"`
	Database  Database `json:"database" mapstructure:"database"`
	Metadata  Metadata `json:"metadata" mapstructure:"metadata"`
	Output    Output   `json:"output" mapstructure:"output"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

// Metadata selects where column types come from: "schema" (CREATE TABLE
// files in SchemaDir), "database" (live connection) or "none".
type Metadata struct {
	Source string `json:"source" mapstructure:"source"`
}

type Output struct {
	Format string `json:"format" mapstructure:"format"`
	Path   string `json:"path,omitempty" mapstructure:"path"`
}

var (
	supportedProviders = []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	supportedSources   = []string{"schema", "database", "none"}
	supportedFormats   = []string{"json", "yaml", "yml"}
)

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.SchemaDir == "" {
		c.SchemaDir = "db/schema"
	}
	if c.Queries == "" {
		c.Queries = "db/queries/"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Database.Provider == "" {
		c.Database.Provider = "postgresql"
	}
	if c.Database.URLEnv == "" {
		c.Database.URLEnv = "DATABASE_URL"
	}
	if c.Metadata.Source == "" {
		c.Metadata.Source = "schema"
	}
	if c.Output.Format == "" {
		c.Output.Format = "json"
	}
}

func (c *Config) Validate() error {
	if !slices.Contains(supportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}
	if !slices.Contains(supportedSources, c.Metadata.Source) {
		return fmt.Errorf("unsupported metadata source: %s. Supported sources: %v", c.Metadata.Source, supportedSources)
	}
	if !slices.Contains(supportedFormats, c.Output.Format) {
		return fmt.Errorf("unsupported output format: %s. Supported formats: %v", c.Output.Format, supportedFormats)
	}
	if c.Queries == "" {
		return fmt.Errorf("queries cannot be empty")
	}
	return nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

// NormalizedProvider folds provider aliases onto postgresql, mysql or sqlite.
func (c *Config) NormalizedProvider() string {
	switch c.Database.Provider {
	case "postgresql", "postgres":
		return "postgresql"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return "postgresql"
	}
}

// GetSchemaFiles returns all .sql files in the schema directory, sorted by name.
func (c *Config) GetSchemaFiles() ([]string, error) {
	entries, err := os.ReadDir(c.SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", c.SchemaDir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, filepath.Join(c.SchemaDir, entry.Name()))
		}
	}
	// os.ReadDir already sorts by filename, so 001_users.sql comes before 002_posts.sql
	return files, nil
}
