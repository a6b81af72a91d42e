/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"popupstudio/internal/domain"
	"popupstudio/internal/editor"
	"popupstudio/internal/geometry"
	"popupstudio/internal/registry"
	"popupstudio/internal/storage"
	"popupstudio/internal/templates"
)

// ErrNoBlock is returned when a command names a block the document does not contain.
var ErrNoBlock = errors.New("no such block")

func (c *CLI) newCommand() *cobra.Command {
	var (
		tmpl          string
		mode          string
		width, height float64
		force         bool
	)
	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create a document from the configured canvas or a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			cfg := c.cfg.Canvas
			if mode != "" {
				cfg.Mode = mode
			}
			canvas := cfg.Settings()
			var blocks []domain.BlockInstance
			if tmpl != "" {
				snap, err := templates.Get(tmpl)
				if err != nil {
					return err
				}
				canvas, blocks = snap.CanvasSettings, snap.Blocks
			}
			if width > 0 {
				canvas.Width = width
			}
			if height > 0 {
				canvas.Height = height
			}
			s := c.newStore(domain.Snapshot{CanvasSettings: canvas, Blocks: blocks})
			if err := storage.Save(path, s.ExportToJSON()); err != nil {
				return err
			}
			c.tel.Event("document_created", map[string]any{"mode": string(canvas.Mode), "template": tmpl})
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s %gx%g, %d blocks)\n", path, canvas.Mode, canvas.Width, canvas.Height, s.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&tmpl, "template", "t", "", "start from a built-in template")
	cmd.Flags().StringVar(&mode, "mode", "", "popup or banner")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "canvas height in pixels")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Summarize a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func printInfo(w io.Writer, snap domain.Snapshot) {
	cv := snap.CanvasSettings
	fmt.Fprintf(w, "name:    %s\n", cv.Name)
	fmt.Fprintf(w, "mode:    %s\n", cv.Mode)
	fmt.Fprintf(w, "canvas:  %gx%g %s\n", cv.Width, cv.Height, cv.Background)
	fmt.Fprintf(w, "trigger: %s\n", cv.Trigger.Type)
	fmt.Fprintf(w, "blocks:  %d\n", len(snap.Blocks))
	for _, b := range domain.ZOrder(snap.Blocks) {
		group := ""
		if b.GroupID != "" {
			group = " group=" + b.GroupID
		}
		fmt.Fprintf(w, "  %-36s %-13s at %g,%g size %gx%g z=%d%s\n",
			b.ID, b.Type, b.Position.X, b.Position.Y, b.Size.Width, b.Size.Height, b.ZIndex, group)
	}
}

func (c *CLI) addCommand() *cobra.Command {
	var (
		x, y float64
		text string
		snap bool
	)
	cmd := &cobra.Command{
		Use:   "add <file> <type>",
		Short: "Place a block centered on a point",
		Long:  `Place a block of the given type centered on --x/--y, the way a palette drop does. The block is clamped into the canvas and stacked on top.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			err := c.editDocument(args[0], func(s *editor.Store) error {
				var o registry.Overrides
				if text != "" {
					o.Content = domain.Content{textKey(s.Registry().Resolve(args[1])): text}
				}
				id = s.PlaceBlock(args[1], geometry.Point{X: x, Y: y}, o)
				if snap {
					b, _ := s.Block(id)
					pos, _ := s.SnapPosition(id, b.Position)
					s.DragBlock(id, pos)
					s.Commit()
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "drop point x")
	cmd.Flags().Float64Var(&y, "y", 0, "drop point y")
	cmd.Flags().StringVar(&text, "text", "", "primary text of the block")
	cmd.Flags().BoolVar(&snap, "snap", false, "snap to canvas and block guides")
	return cmd
}

// textKey picks the content key holding a block type's visible text.
func textKey(d registry.Definition) string {
	for _, k := range []string{"text", "label", "code", "prize", "placeholder"} {
		if _, ok := d.DefaultContent[k]; ok {
			return k
		}
	}
	return "text"
}

func requireBlock(s *editor.Store, id string) error {
	if _, ok := s.Block(id); !ok {
		return fmt.Errorf("%w: %s", ErrNoBlock, id)
	}
	return nil
}

func (c *CLI) moveCommand() *cobra.Command {
	var (
		x, y float64
		snap bool
	)
	cmd := &cobra.Command{
		Use:   "move <file> <id>",
		Short: "Move a block's top-left corner, clamped to the canvas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[1]
			return c.editDocument(args[0], func(s *editor.Store) error {
				if err := requireBlock(s, id); err != nil {
					return err
				}
				pos := geometry.Point{X: x, Y: y}
				if snap {
					var guides []geometry.GuideLine
					pos, guides = s.SnapPosition(id, pos)
					for _, g := range guides {
						fmt.Fprintf(cmd.OutOrStdout(), "guide %s %s at %g\n", g.Orientation, g.Kind, g.Position)
					}
				}
				s.DragBlock(id, pos)
				s.Commit()
				b, _ := s.Block(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%s at %g,%g\n", id, b.Position.X, b.Position.Y)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "new left edge")
	cmd.Flags().Float64Var(&y, "y", 0, "new top edge")
	cmd.Flags().BoolVar(&snap, "snap", false, "snap to canvas and block guides")
	return cmd
}

func (c *CLI) resizeCommand() *cobra.Command {
	var (
		handle string
		dx, dy float64
	)
	cmd := &cobra.Command{
		Use:   "resize <file> <id>",
		Short: "Drag a corner handle of a block by dx/dy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := geometry.ParseHandle(handle)
			if err != nil {
				return err
			}
			id := args[1]
			return c.editDocument(args[0], func(s *editor.Store) error {
				b, ok := s.Block(id)
				if !ok {
					return fmt.Errorf("%w: %s", ErrNoBlock, id)
				}
				s.ResizeWithHandle(id, h, b.Box(), geometry.Point{X: dx, Y: dy})
				b, _ = s.Block(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%s at %g,%g size %gx%g\n", id, b.Position.X, b.Position.Y, b.Size.Width, b.Size.Height)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&handle, "handle", string(geometry.BottomRight), "corner: top-left, top-right, bottom-left, bottom-right (or tl/tr/bl/br)")
	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal drag distance")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical drag distance")
	return cmd
}

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <file> <id>...",
		Short: "Remove blocks",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editDocument(args[0], func(s *editor.Store) error {
				for _, id := range args[1:] {
					if err := requireBlock(s, id); err != nil {
						return err
					}
					s.RemoveBlock(id)
				}
				return nil
			})
		},
	}
}

func (c *CLI) setCommand() *cobra.Command {
	var content, style []string
	cmd := &cobra.Command{
		Use:   "set <file> <id>",
		Short: "Merge style values or replace content values of a block",
		Long: `Set key=value pairs on a block. Style pairs are merged into the existing style;
content pairs are merged into the current content and the result replaces it.
Values that parse as numbers or booleans are stored as such.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cbag, err := parsePairs(content)
			if err != nil {
				return err
			}
			sbag, err := parsePairs(style)
			if err != nil {
				return err
			}
			id := args[1]
			return c.editDocument(args[0], func(s *editor.Store) error {
				b, ok := s.Block(id)
				if !ok {
					return fmt.Errorf("%w: %s", ErrNoBlock, id)
				}
				if len(cbag) > 0 {
					s.UpdateBlockContent(id, b.Content.Merge(domain.Content(cbag)))
				}
				if len(sbag) > 0 {
					s.UpdateBlockStyle(id, domain.Style(sbag))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&content, "content", nil, "content key=value (repeatable)")
	cmd.Flags().StringArrayVar(&style, "style", nil, "style key=value (repeatable)")
	return cmd
}

func parsePairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[k] = parseValue(v)
	}
	return out, nil
}

func parseValue(v string) any {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

func (c *CLI) canvasCommand() *cobra.Command {
	var (
		name, mode, background, placement, trigger string
		width, height                              float64
	)
	cmd := &cobra.Command{
		Use:   "canvas <file>",
		Short: "Change canvas settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p domain.CanvasPatch
			fl := cmd.Flags()
			if fl.Changed("name") {
				p.Name = &name
			}
			if fl.Changed("mode") {
				m := domain.Mode(mode)
				if m != domain.ModePopup && m != domain.ModeBanner {
					return fmt.Errorf("mode must be popup or banner, got %q", mode)
				}
				p.Mode = &m
				if m == domain.ModeBanner {
					p.ClearOverlay = true
				}
			}
			if fl.Changed("background") {
				p.Background = &background
			}
			if fl.Changed("placement") {
				p.Placement = &placement
			}
			if fl.Changed("width") {
				p.Width = &width
			}
			if fl.Changed("height") {
				p.Height = &height
			}
			return c.editDocument(args[0], func(s *editor.Store) error {
				if fl.Changed("trigger") {
					t := s.Canvas().Trigger
					t.Type = trigger
					p.Trigger = &t
				}
				s.SetCanvasSettings(p)
				cv := s.Canvas()
				fmt.Fprintf(cmd.OutOrStdout(), "%s %gx%g %s\n", cv.Mode, cv.Width, cv.Height, cv.Background)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&mode, "mode", "", "popup or banner")
	cmd.Flags().StringVar(&background, "background", "", "background color")
	cmd.Flags().StringVar(&placement, "placement", "", "banner placement: top or bottom")
	cmd.Flags().StringVar(&trigger, "trigger", "", "on-load, exit-intent, scroll, timer or click")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width")
	cmd.Flags().Float64Var(&height, "height", 0, "canvas height")
	return cmd
}

func (c *CLI) arrangeCommand() *cobra.Command {
	var front, back, duplicate bool
	cmd := &cobra.Command{
		Use:   "arrange <file> <id>",
		Short: "Bring a block to the front, send it to the back or duplicate it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if front && back {
				return errors.New("--front and --back are exclusive")
			}
			id := args[1]
			return c.editDocument(args[0], func(s *editor.Store) error {
				if err := requireBlock(s, id); err != nil {
					return err
				}
				switch {
				case front:
					s.BringToFront(id)
				case back:
					s.SendToBack(id)
				}
				if duplicate {
					fmt.Fprintln(cmd.OutOrStdout(), s.DuplicateBlock(id))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&front, "front", false, "raise above every other block")
	cmd.Flags().BoolVar(&back, "back", false, "lower below every other block")
	cmd.Flags().BoolVar(&duplicate, "duplicate", false, "copy the block, offset by 10px")
	return cmd
}

func (c *CLI) groupCommand() *cobra.Command {
	var (
		dissolve string
		dx, dy   float64
		move     string
	)
	cmd := &cobra.Command{
		Use:   "group <file> [id...]",
		Short: "Group blocks, move a group or dissolve it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editDocument(args[0], func(s *editor.Store) error {
				switch {
				case dissolve != "":
					s.Ungroup(dissolve)
					s.Commit()
				case move != "":
					if len(s.GroupMembers(move)) == 0 {
						return fmt.Errorf("group %s has no members", move)
					}
					s.MoveGroup(move, dx, dy)
					s.Commit()
				default:
					gid := s.CreateGroup(args[1:])
					if gid == "" {
						return fmt.Errorf("%w: none of %s", ErrNoBlock, strings.Join(args[1:], ", "))
					}
					s.Commit()
					fmt.Fprintln(cmd.OutOrStdout(), gid)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dissolve, "ungroup", "", "remove the group tag from every member")
	cmd.Flags().StringVar(&move, "move", "", "translate every member of the group by --dx/--dy")
	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal offset for --move")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical offset for --move")
	return cmd
}

func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check documents against the document schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err == nil {
					err = storage.Validate(data)
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, len(args))
			}
			return nil
		},
	}
}

func (c *CLI) blocksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List the block types of the palette",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, d := range registry.Default().Types() {
				fmt.Fprintf(w, "%-8s %-13s %-18s %gx%g\n", d.Category, d.Type, d.Label, d.DefaultSize.Width, d.DefaultSize.Height)
			}
		},
	}
}

func (c *CLI) templatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the built-in templates",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range templates.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %-6s %s\n", t.Name, t.Mode, t.Description)
			}
		},
	}
}
