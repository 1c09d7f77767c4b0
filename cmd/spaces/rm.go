package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"spaces/internal/api"
	"spaces/internal/config"
)

// newRmCmd removes records by id. The prefix decides the kind: sp- ids
// delete a space (which must be empty), fl- ids delete a file record and
// reclaim its bytes when unreferenced.
func newRmCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove spaces (sp-) or files (fl-) by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				for _, id := range args {
					switch {
					case strings.HasPrefix(id, "sp-"):
						space, err := client.DeleteSpace(cmd.Context(), id)
						if err != nil {
							return err
						}
						if *jsonOutput {
							if err := writeJSON(space); err != nil {
								return err
							}
						} else if err := writePlain("removed space %s\n", space.ID); err != nil {
							return err
						}
					case strings.HasPrefix(id, "fl-"):
						file, err := client.DeleteFile(cmd.Context(), id)
						if err != nil {
							return err
						}
						if *jsonOutput {
							if err := writeJSON(file); err != nil {
								return err
							}
						} else if err := writePlain("removed file %s (%s)\n", file.ID, file.OriginalFilename); err != nil {
							return err
						}
					default:
						return fmt.Errorf("unrecognized id %q (expected sp- or fl- prefix)", id)
					}
				}
				return nil
			})
		},
	}
}
