package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Rana718/querygraft/internal/analyzer"
	"github.com/Rana718/querygraft/internal/config"
	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/Rana718/querygraft/internal/metadata"
	"github.com/fatih/color"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openAnalyzer builds an analyzer over the configured metadata source. The
// returned source must be closed by the caller.
func openAnalyzer(ctx context.Context, cfg *config.Config) (*analyzer.Analyzer, metadata.Source, error) {
	src, err := metadata.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s metadata: %w", cfg.Metadata.Source, err)
	}
	return analyzer.New(src), src, nil
}

// readQuery takes the query from the positional argument, --query or --file,
// in that order, falling back to stdin when it is piped.
func readQuery(args []string, query, file string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case query != "":
		return query, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", fmt.Errorf("no query given: pass it as an argument, with --query, --file or on stdin")
}

// openOutput returns stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// printNotices goes to stderr so that piped descriptor output stays clean.
func printNotices(notices []descriptor.Notice) {
	warn := color.New(color.FgYellow)
	info := color.New(color.FgCyan)
	for _, n := range notices {
		if n.Kind == "lookup-miss" {
			warn.Fprintf(os.Stderr, "⚠️  %s\n", n.Message)
		} else {
			info.Fprintf(os.Stderr, "ℹ️  %s\n", n.Message)
		}
	}
}
