/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"popupstudio/internal/domain"
	"popupstudio/internal/preview"
	"popupstudio/internal/storage"
)

func (c *CLI) previewCommand() *cobra.Command {
	var (
		pngPath, pdfPath, svgPath string
		scale                     float64
		noLabels                  bool
	)
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Render a wireframe of a document to PNG, PDF or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pngPath == "" && pdfPath == "" && svgPath == "" {
				pngPath = strings.TrimSuffix(args[0], storage.DocumentExt) + ".png"
			}
			snap, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			opt := preview.Options{Scale: scale, NoLabels: noLabels}
			out := cmd.OutOrStdout()
			if pngPath != "" {
				if err := preview.WritePNG(pngPath, snap, opt); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", pngPath)
			}
			if pdfPath != "" {
				if err := preview.WritePDF(pdfPath, snap, opt); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", pdfPath)
			}
			if svgPath != "" {
				if err := writeSVGFile(svgPath, snap, opt); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", svgPath)
			}
			c.tel.Event("preview_rendered", map[string]any{"png": pngPath != "", "pdf": pdfPath != "", "svg": svgPath != ""})
			return nil
		},
	}
	cmd.Flags().StringVar(&pngPath, "png", "", "PNG output path")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "PDF output path")
	cmd.Flags().StringVar(&svgPath, "svg", "", "SVG output path")
	cmd.Flags().Float64Var(&scale, "scale", 1, "PNG pixel scale")
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "omit block labels")
	return cmd
}

func writeSVGFile(path string, snap domain.Snapshot, opt preview.Options) error {
	var buf bytes.Buffer
	if err := preview.WriteSVG(&buf, snap, opt); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// openLibrary selects Postgres when a DSN is configured and the local SQLite file otherwise.
func (c *CLI) openLibrary(ctx context.Context) (*storage.Library, error) {
	if dsn := strings.TrimSpace(c.cfg.Storage.PostgresDSN); dsn != "" {
		return storage.OpenPostgres(ctx, dsn)
	}
	path, err := c.cfg.Storage.LibraryFile()
	if err != nil {
		return nil, err
	}
	return storage.OpenSQLite(path)
}

func (c *CLI) withLibrary(cmd *cobra.Command, fn func(ctx context.Context, lib *storage.Library) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	lib, err := c.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer lib.Close()
	return fn(ctx, lib)
}

func (c *CLI) libraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage saved templates and autosaves",
	}
	cmd.AddCommand(c.librarySaveCommand())
	cmd.AddCommand(c.libraryLoadCommand())
	cmd.AddCommand(c.libraryListCommand())
	cmd.AddCommand(c.libraryDeleteCommand())
	cmd.AddCommand(c.libraryAutosaveCommand())
	cmd.AddCommand(c.libraryRestoreCommand())
	return cmd
}

func (c *CLI) librarySaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <file>",
		Short: "Store a document as a named template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := storage.Open(args[1])
			if err != nil {
				return err
			}
			return c.withLibrary(cmd, func(ctx context.Context, lib *storage.Library) error {
				if err := lib.SaveTemplate(ctx, args[0], snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved template %s (%d blocks)\n", args[0], len(snap.Blocks))
				return nil
			})
		},
	}
}

func (c *CLI) libraryLoadCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "load <name> <file>",
		Short: "Create a document from a saved template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[1]
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			return c.withLibrary(cmd, func(ctx context.Context, lib *storage.Library) error {
				snap, err := lib.GetTemplate(ctx, args[0])
				if err != nil {
					return err
				}
				s := c.newStore(domain.Snapshot{CanvasSettings: c.cfg.Canvas.Settings()})
				s.LoadTemplate(snap)
				if err := storage.Save(path, s.ExportToJSON()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s from %s\n", path, args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) libraryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd, func(ctx context.Context, lib *storage.Library) error {
				infos, err := lib.ListTemplates(ctx)
				if err != nil {
					return err
				}
				for _, ti := range infos {
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-6s %3d blocks  %s\n",
						ti.Name, ti.Mode, ti.Blocks, ti.UpdatedAt.Local().Format(time.DateTime))
				}
				return nil
			})
		},
	}
}

func (c *CLI) libraryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd, func(ctx context.Context, lib *storage.Library) error {
				return lib.DeleteTemplate(ctx, args[0])
			})
		},
	}
}

// autosaveKey identifies a document across working directories.
func autosaveKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (c *CLI) libraryAutosaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "autosave <file>",
		Short: "Record the current state of a document in the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			key := autosaveKey(args[0])
			return c.withLibrary(cmd, func(ctx context.Context, lib *storage.Library) error {
				if err := lib.SaveAutosave(ctx, key, snap, time.Now()); err != nil {
					return err
				}
				pruned, err := lib.PruneAutosaves(ctx, key, c.cfg.Storage.AutosaveKeep)
				if err != nil {
					return err
				}
				c.log.Debug("autosave recorded", "doc", key, "pruned", pruned)
				return nil
			})
		},
	}
}

func (c *CLI) libraryRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Overwrite a document with its latest autosave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := autosaveKey(args[0])
			return c.withLibrary(cmd, func(ctx context.Context, lib *storage.Library) error {
				as, err := lib.LatestAutosave(ctx, key)
				if err != nil {
					return err
				}
				if err := storage.Save(args[0], as.Snapshot); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", args[0], as.TS.Local().Format(time.DateTime))
				return nil
			})
		},
	}
}
