package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/awdkit/internal/config"
	"github.com/Faultbox/awdkit/internal/logger"
	"github.com/Faultbox/awdkit/pkg/awd"
)

// app is the state shared by all commands once flags are parsed.
type app struct {
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout, errOut: stderr}

	root := &cobra.Command{
		Use:           "awdtool",
		Short:         "Inspect, validate and convert AWD scene files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	config.BindGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		newInfoCmd(a),
		newTreeCmd(a),
		newDumpCmd(a),
		newConvertCmd(a),
		newValidateCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the config and wires the logger into the codec.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	opts := logger.Options{Level: cfg.Logging.Level, Console: a.errOut}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		return err
	}
	awd.SetLogger(logger.Log)
	logger.Debug("config loaded",
		zap.String("command", cmd.Name()),
		zap.String("compression", cfg.Encode.Compression),
		zap.String("legacy_charset", cfg.Decode.LegacyCharset))
	return nil
}

// load decodes path with the configured options. Warnings are logged; in
// strict mode they fail the command.
func (a *app) load(path string) (*awd.Document, awd.Warnings, error) {
	doc, warnings, err := awd.ParseFile(path, a.cfg.DecodeOptions()...)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		logger.Warn("decode warning",
			zap.String("file", path),
			zap.Stringer("kind", w.Kind),
			zap.Int("block", w.Block),
			zap.Int("offset", w.Offset),
			zap.String("detail", w.Detail))
	}
	if a.cfg.Decode.Strict {
		if err := warnings.Err(); err != nil {
			return nil, warnings, fmt.Errorf("%s: %w", path, err)
		}
	}
	return doc, warnings, nil
}
