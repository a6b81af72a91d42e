/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"popupstudio/internal/pack"
	"popupstudio/internal/storage"
)

func (c *CLI) packCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Share documents as zip template packs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export <zip> <file>...",
		Short: "Bundle documents into a template pack",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pack.Export(args[0], args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "packed %d documents into %s\n", len(args)-1, args[0])
			return nil
		},
	})

	var (
		dir       string
		toLibrary bool
	)
	install := &cobra.Command{
		Use:   "install <zip>",
		Short: "Extract a template pack into a directory or the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toLibrary {
				return c.withLibrary(cmd, func(ctx context.Context, lib *storage.Library) error {
					n, err := pack.InstallTemplates(ctx, args[0], lib)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "installed %d templates\n", n)
					return nil
				})
			}
			n, err := pack.Install(args[0], dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %d documents into %s\n", n, dir)
			return nil
		},
	}
	install.Flags().StringVar(&dir, "dir", ".", "target directory")
	install.Flags().BoolVar(&toLibrary, "library", false, "save the documents as library templates instead")
	cmd.AddCommand(install)
	return cmd
}
