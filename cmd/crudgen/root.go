package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/crudgen"
	"github.com/aretw0/crudgen/internal/cli"
	"github.com/aretw0/crudgen/internal/config"
	"github.com/aretw0/crudgen/pkg/adapters/memory"
	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	schemaPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "crudgen",
		Short:         "crudgen validates records against compact field definitions",
		Long:          `crudgen validates records against schemas written as "[_]type[:maxLength][:special]" definitions and serves them over HTTP or MCP.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a crudgen.yaml configuration file")
	root.PersistentFlags().StringVarP(&flags.schemaPath, "schema", "s", "", "Path to a JSON or YAML schema file (overrides the config)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(
		newParseCmd(),
		newValidateCmd(flags),
		newCoerceCmd(),
		newOpenAPICmd(flags),
		newDiagramCmd(flags),
		newRecordsCmd(flags),
		newServeCmd(flags),
		newMCPCmd(flags),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration and applies flag overrides.
func (f *globalFlags) load() (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	if f.schemaPath != "" {
		abs, err := filepath.Abs(f.schemaPath)
		if err != nil {
			return nil, nil, err
		}
		cfg.Schema = nil
		cfg.SchemaFile = abs
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := cli.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// offlineGenerator builds a Generator over a throwaway memory store for
// commands that only validate.
func (f *globalFlags) offlineGenerator(strict bool) (*crudgen.Generator, *config.Config, error) {
	cfg, logger, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	s, err := cfg.ResolveSchema()
	if err != nil {
		return nil, nil, err
	}
	gen, err := crudgen.New(memory.NewStore(), s,
		crudgen.WithLogger(logger),
		crudgen.WithStrict(strict || cfg.Strict),
	)
	if err != nil {
		return nil, nil, err
	}
	return gen, cfg, nil
}

// readRecords decodes a JSON or YAML document holding one record or a list
// of records. "-" reads from in.
func readRecords(path string, in io.Reader) ([]domain.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse records in %s: %w", path, err)
	}

	switch v := doc.(type) {
	case map[string]any:
		return []domain.Record{v}, nil
	case []any:
		records := make([]domain.Record, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: item %d is not an object", path, i)
			}
			records = append(records, m)
		}
		return records, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%s: expected an object or a list of objects, got %T", path, doc)
	}
}

func trimVersion() string {
	return strings.TrimSpace(crudgen.Version)
}
