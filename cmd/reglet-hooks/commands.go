package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.starlark.net/syntax"

	"github.com/reglet-dev/reglet-hooks/application/loader"
	"github.com/reglet-dev/reglet-hooks/application/schema"
	"github.com/reglet-dev/reglet-hooks/log"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "reglet-hooks",
		Short:         "Tools for method patch manifests and scripts",
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	newLogger := func() (*slog.Logger, error) {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return nil, err
		}
		return log.New(stderr, log.WithLevel(level)), nil
	}

	root.AddCommand(newSchemaCmd(), newCheckCmd(newLogger))
	return root
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of patch manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := schema.ManifestSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		},
	}
}

func newCheckCmd(newLogger func() (*slog.Logger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "check <manifest>",
		Short: "Validate a manifest and parse the scripts it enables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			l, err := loader.New(loader.WithLogger(logger))
			if err != nil {
				return err
			}

			path := args[0]
			m, err := l.ReadManifest(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := &syntax.FileOptions{}
			failed := 0
			for _, sc := range m.Scripts {
				if !sc.IsEnabled() {
					fmt.Fprintf(out, "skip %s\n", sc.Path)
					continue
				}
				file := loader.ScriptPath(path, sc.Path)
				if _, err := opts.Parse(file, nil, 0); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", sc.Path, err)
					logger.Debug("script syntax error", slog.String("path", file), log.Err(err))
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", sc.Path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scripts failed", failed, len(m.Scripts))
			}
			return nil
		},
	}
}
