// Package config defines the runtime configuration for the picofst
// pipeline in the shape of DMRHub's nested internal/config Config
// struct: each concern of the pipeline gets its own sub-struct. The
// struct tags carry configulator-style names, descriptions and defaults,
// but no package in this module loads Config through configulator; the
// run subcommand (internal/cmd/run.go) binds the fields to cobra flags.
package config

// LogLevel selects the verbosity of the slog logger internal/logging builds.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Lexicon locates the compiled lexicon images sastage's word-level
// lookup reads from (spec.md §4.6, SaStage's Lexicon collaborator).
type Lexicon struct {
	MainPath string `name:"main-path" description:"path to the compiled main lexicon image" default:""`
	UserPath string `name:"user-path" description:"path to an optional compiled user lexicon image, used for WORDINDEX items whose Info2 selects the user lexicon" default:""`
}

// FST locates the compiled FST cascade images the word-level and
// sentence-level stages load in order (spec.md §4.2, §4.6, §4.7).
type FST struct {
	WordPaths     []string `name:"word-paths" description:"ordered word-level FST cascade image paths" default:""`
	SentencePaths []string `name:"sentence-paths" description:"ordered sentence-level FST cascade image paths" default:""`
}

// Pipeline holds buffer bounds for the cooperative stages (spec.md §5).
// Validate checks that each is positive; the run subcommand does not
// pass these values on to sastage or sphostage, which keep their own
// built-in limits.
type Pipeline struct {
	MaxWordHeads     int `name:"max-word-heads" description:"items SaStage collects before a forced phrase end" default:"60"`
	MaxSentenceHeads int `name:"max-sentence-heads" description:"items SphoStage collects before a forced window boundary" default:"80"`
	MaxSearchDepth   int `name:"max-search-depth" description:"alt-descriptor stack depth bound for a transduction search" default:"64"`
	MaxOutputBytes   int `name:"max-output-bytes" description:"buffered encoded output bytes before a stage reports OutFull" default:"4096"`
}

// Metrics configures the Prometheus exporter internal/metrics serves.
type Metrics struct {
	Enabled bool   `name:"enabled" description:"expose a Prometheus /metrics endpoint" default:"false"`
	Bind    string `name:"bind" description:"metrics server bind address" default:"[::]"`
	Port    int    `name:"port" description:"metrics server port" default:"9090"`
}

// Config is the root configuration struct. The run subcommand fills it
// from its command-line flags and checks it with Validate before use.
type Config struct {
	LogLevel LogLevel `name:"log-level" description:"logging verbosity" default:"info"`
	Lexicon  Lexicon  `name:"lexicon"`
	FST      FST      `name:"fst"`
	Pipeline Pipeline `name:"pipeline"`
	Metrics  Metrics  `name:"metrics"`
}
