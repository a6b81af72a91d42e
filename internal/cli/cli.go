/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the popupstudio command-line interface. Every command that
// changes a document loads it into an editor.Store, applies the change through the
// store's operations and saves the exported result.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"popupstudio/internal/config"
	"popupstudio/internal/crash"
	"popupstudio/internal/domain"
	"popupstudio/internal/editor"
	applog "popupstudio/internal/log"
	"popupstudio/internal/storage"
	"popupstudio/internal/telemetry"
	"popupstudio/internal/version"
)

// CLI holds state shared by all commands.
type CLI struct {
	errOut     io.Writer
	configPath string
	verbose    bool

	cfg config.AppConfig
	log *slog.Logger
	tel *telemetry.Client
}

// New creates a CLI that logs to errOut.
func New(errOut io.Writer) *CLI {
	return &CLI{errOut: errOut, cfg: config.Defaults(), log: applog.Nop()}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "popupstudio",
		Short:         "Build popup and banner layouts from blocks",
		Long:          `popupstudio edits popup and banner documents: a canvas plus freely positioned blocks such as text, buttons, forms and prize wheels. Documents are JSON files; templates live in a SQLite or Postgres library.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.tel == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			c.tel.Flush(ctx)
		},
	}
	root.SetVersionTemplate("popupstudio {{.Version}}\n")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: user config dir)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.versionCommand())
	root.AddCommand(c.newCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.resizeCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.canvasCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.groupCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.blocksCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.libraryCommand())
	root.AddCommand(c.packCommand())
	return root
}

func (c *CLI) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	opts := cfg.Logging.LoggingOptions()
	opts.Writer = c.errOut
	if c.verbose {
		opts.Level = "debug"
	}
	applog.Init(opts)
	c.log = applog.WithComponent("cli")
	c.tel = telemetry.Default()
	return nil
}

// newStore loads snap into an editor configured from the user config.
func (c *CLI) newStore(snap domain.Snapshot) *editor.Store {
	return editor.New(editor.Config{
		Canvas:        snap.CanvasSettings,
		Blocks:        snap.Blocks,
		History:       c.cfg.Editor.History.UndoConfig(),
		SnapThreshold: c.cfg.Editor.SnapThreshold,
		Logger:        applog.WithComponent("editor"),
	})
}

// editDocument opens the document at path, runs fn against it and saves the result.
// A panic inside fn leaves a crash report and an emergency copy next to the file.
func (c *CLI) editDocument(path string, fn func(s *editor.Store) error) error {
	snap, err := storage.Open(path)
	if err != nil {
		return err
	}
	s := c.newStore(snap)
	defer crash.Recover(path, s)

	var edits telemetry.EditCounter
	unsubscribe := s.Subscribe(edits.Observe)
	defer unsubscribe()
	if err := fn(s); err != nil {
		return err
	}
	if err := storage.Save(path, s.ExportToJSON()); err != nil {
		return err
	}
	c.log.Debug("document saved", slog.String("path", path), slog.Int("blocks", s.Len()))
	c.tel.Event("document_edited", edits.Props())
	return nil
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "popupstudio %s\n", version.String())
		},
	}
}
