// Package model defines the data structures for job preparation: parameters,
// structures, execution options, plans, exit codes and configuration.
package model

type Config struct {
	Conventions ConventionsConfig `yaml:"conventions"`
	Options     ExecutionOptions  `yaml:"options"`
	Batch       BatchConfig       `yaml:"batch"`
	Watcher     WatcherConfig     `yaml:"watcher"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ConventionsConfig struct {
	Prefix       string `yaml:"prefix"`
	ParentFolder string `yaml:"parent_folder"`
}

type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type WatcherConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

const (
	DefaultBatchConcurrency = 4
	DefaultDebounceMs       = 200
)

func DefaultConfig() Config {
	conv := DefaultConventions()
	return Config{
		Conventions: ConventionsConfig{
			Prefix:       conv.Prefix(),
			ParentFolder: conv.ParentFolder(),
		},
		Options: DefaultExecutionOptions(conv),
		Batch:   BatchConfig{Concurrency: DefaultBatchConcurrency},
		Watcher: WatcherConfig{DebounceMs: DefaultDebounceMs},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// ConventionsValue builds the naming conventions from the config section.
func (c Config) ConventionsValue() Conventions {
	return NewConventions(c.Conventions.Prefix, c.Conventions.ParentFolder)
}

// EffectiveOptions returns the conventions' defaults overlaid with the
// configured options.
func (c Config) EffectiveOptions() ExecutionOptions {
	return DefaultExecutionOptions(c.ConventionsValue()).Merge(c.Options)
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = DefaultBatchConcurrency
	}
	if c.Watcher.DebounceMs <= 0 {
		c.Watcher.DebounceMs = DefaultDebounceMs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return c
}
