package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ihuguet/picofst/fstimage"
	"github.com/ihuguet/picofst/internal/config"
	"github.com/ihuguet/picofst/internal/logging"
	"github.com/ihuguet/picofst/internal/metrics"
	"github.com/ihuguet/picofst/item"
	"github.com/ihuguet/picofst/phonetable"
	"github.com/ihuguet/picofst/sastage"
	"github.com/ihuguet/picofst/sphostage"
	"github.com/ihuguet/picofst/stage"
)

func newRunCommand() *cobra.Command {
	cfg := config.Config{
		LogLevel: config.LogLevelInfo,
		Pipeline: config.Pipeline{
			MaxWordHeads:     60,
			MaxSentenceHeads: 80,
			MaxSearchDepth:   64,
			MaxOutputBytes:   4096,
		},
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline over item bytes read from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, &cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar((*string)(&cfg.LogLevel), "log-level", string(config.LogLevelInfo), "logging verbosity (debug, info, warn, error)")
	flags.StringSliceVar(&cfg.FST.WordPaths, "word-fst", nil, "ordered word-level FST cascade image paths")
	flags.StringSliceVar(&cfg.FST.SentencePaths, "sentence-fst", nil, "ordered sentence-level FST cascade image paths")
	flags.IntVar(&cfg.Pipeline.MaxWordHeads, "max-word-heads", cfg.Pipeline.MaxWordHeads, "items collected before a forced phrase end")
	flags.IntVar(&cfg.Pipeline.MaxSentenceHeads, "max-sentence-heads", cfg.Pipeline.MaxSentenceHeads, "items collected before a forced window end")
	flags.IntVar(&cfg.Pipeline.MaxSearchDepth, "max-search-depth", cfg.Pipeline.MaxSearchDepth, "transduction search depth bound")
	flags.IntVar(&cfg.Pipeline.MaxOutputBytes, "max-output-bytes", cfg.Pipeline.MaxOutputBytes, "buffered output bytes before OutFull")
	flags.BoolVar(&cfg.Metrics.Enabled, "metrics", false, "expose a Prometheus /metrics endpoint")
	flags.StringVar(&cfg.Metrics.Bind, "metrics-bind", "[::]", "metrics server bind address")
	flags.IntVar(&cfg.Metrics.Port, "metrics-port", 9090, "metrics server port")
	flags.StringVar(&cfg.Lexicon.MainPath, "lexicon-main", "placeholder", "path to the compiled main lexicon image (unused until a lexicon reader exists)")

	return cmd
}

func runPipeline(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel)
	warn := logging.NewWarnSink(logger)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.CreateMetricsServer(cfg.Metrics, reg); err != nil {
				logger.Error("metrics server exited", "error", err)
			}
		}()
	}

	wordFSTs, err := loadFSTs(cfg.FST.WordPaths)
	if err != nil {
		return fmt.Errorf("loading word FSTs: %w", err)
	}
	sentenceFSTs, err := loadFSTs(cfg.FST.SentencePaths)
	if err != nil {
		return fmt.Errorf("loading sentence FSTs: %w", err)
	}

	// No serialized phone-table format is defined yet (SPEC_FULL.md
	// names the Table/Builder API but not a wire format for it), so run
	// builds an empty table: every phone reports no special property.
	phones := phonetable.NewBuilder().Build()

	sa := sastage.New(nil, nil, nil, nil, phones, wordFSTs)
	sa.SetObserver(metrics.NewStageObserver("sastage", m, warn))

	spho := sphostage.New(sentenceFSTs, phones)
	spho.SetObserver(metrics.NewStageObserver("sphostage", m, warn))

	in, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	out := cmd.OutOrStdout()
	return drivePipeline(sa, spho, in, out, logger, m)
}

// saToSphoItems bridges sastage's per-phrase output (WORDPHON and
// pass-through items terminated by a PUNC boundary marker) into the BOUND
// SBEG/SEND-delimited window sphostage's Collect expects (spec.md §4.7
// ParsePhones), since sastage and sphostage were each built against
// spec.md's description of their own stage in isolation and neither
// names the other's exact wire shape. Every non-PUNC item passes
// through unchanged inside an open BOUND SBEG/SEND pair; a PUNC item
// closes the current window and opens the next one.
func saToSphoItems(buf []byte) ([]byte, error) {
	items, err := item.DecodeAll(buf)
	if err != nil {
		return nil, err
	}

	var out []byte
	open := false
	for _, it := range items {
		if it.Type == item.PUNC {
			if open {
				out = item.Encode(out, item.Item{Type: item.BOUND, Info1: item.BoundSEND})
				open = false
			}
			continue
		}
		if !open {
			out = item.Encode(out, item.Item{Type: item.BOUND, Info1: item.BoundSBEG})
			open = true
		}
		out = item.Encode(out, it)
	}
	if open {
		out = item.Encode(out, item.Item{Type: item.BOUND, Info1: item.BoundSEND})
	}
	return out, nil
}

func loadFSTs(paths []string) ([]*fstimage.FstImage, error) {
	fsts := make([]*fstimage.FstImage, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		fi, err := fstimage.Load(raw)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
		fsts = append(fsts, fi)
	}
	return fsts, nil
}

// drivePipeline feeds in through sa and spho to completion, writing
// spho's output to out. sa is stepped to Idle first, each output chunk
// being bridged by saToSphoItems and fed to spho as it appears; only
// then is spho stepped to Idle.
func drivePipeline(sa *sastage.Stage, spho *sphostage.Stage, in []byte, out io.Writer, logger *slog.Logger, m *metrics.Metrics) error {
	sa.Feed(in)
	sa.SetUpstreamIdle(true)

	for {
		status := sa.Step(0)
		m.RecordStageStep("sastage", status.String())
		if status == stage.Error {
			logger.Error("sastage reported an error")
			return fmt.Errorf("sastage reported an error")
		}
		if chunk := sa.Output(); len(chunk) > 0 {
			translated, err := saToSphoItems(chunk)
			if err != nil {
				logger.Error("decoding sastage output", "error", err)
				return fmt.Errorf("decoding sastage output: %w", err)
			}
			spho.Feed(translated)
		}
		if status == stage.Idle {
			break
		}
	}
	spho.SetUpstreamIdle(true)

	for {
		status := spho.Step(0)
		m.RecordStageStep("sphostage", status.String())
		if status == stage.Error {
			logger.Error("sphostage reported an error")
			return fmt.Errorf("sphostage reported an error")
		}
		if chunk := spho.Output(); len(chunk) > 0 {
			if _, err := out.Write(chunk); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
		if status == stage.Idle {
			break
		}
	}
	return nil
}
