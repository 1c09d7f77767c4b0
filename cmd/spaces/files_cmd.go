package main

import (
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"spaces/internal/api"
	"spaces/internal/config"
)

func newUploadCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var accessCode string

	cmd := &cobra.Command{
		Use:   "upload <space-id> <path>...",
		Short: "Upload local files into a space",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spaceID := args[0]
			paths := args[1:]

			handles := make([]*os.File, 0, len(paths))
			defer func() {
				for _, f := range handles {
					_ = f.Close()
				}
			}()

			parts := make([]api.UploadPart, 0, len(paths))
			for _, path := range paths {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				handles = append(handles, f)
				parts = append(parts, api.UploadPart{
					Filename:  filepath.Base(path),
					MediaType: mime.TypeByExtension(filepath.Ext(path)),
					Reader:    f,
				})
			}

			return withClient(cfg, func(client *api.Client) error {
				files, err := client.UploadFiles(cmd.Context(), spaceID, accessCode, parts)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(files)
				}
				for _, file := range files {
					if err := writePlain("uploaded %s as %s\n", file.OriginalFilename, file.ID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&accessCode, "access-code", "", "access code of a protected space")
	return cmd
}

func newFilesCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var accessCode string

	cmd := &cobra.Command{
		Use:   "files <space-id>",
		Short: "List the files of a space, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				files, err := client.ListFiles(cmd.Context(), args[0], accessCode)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(files)
				}
				return writeFileList(files)
			})
		},
	}

	cmd.Flags().StringVar(&accessCode, "access-code", "", "access code of a protected space")
	return cmd
}

func newStatCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var accessCode string

	cmd := &cobra.Command{
		Use:   "stat <file-id>",
		Short: "Show one file record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				file, err := client.GetFile(cmd.Context(), args[0], accessCode)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(file)
				}
				return writeFileDetail(file)
			})
		},
	}

	cmd.Flags().StringVar(&accessCode, "access-code", "", "access code of a protected space")
	return cmd
}

func newGetCmd(cfg *config.Config) *cobra.Command {
	var accessCode string
	var output string

	cmd := &cobra.Command{
		Use:   "get <file-id>",
		Short: "Download a file's payload",
		Long:  "Download a file's payload. Writes to the stored filename in the current directory unless -o names a target; -o - streams to stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				rc, info, err := client.DownloadFile(cmd.Context(), args[0], accessCode)
				if err != nil {
					return err
				}
				defer rc.Close()

				if output == "-" {
					_, err := io.Copy(os.Stdout, rc)
					return err
				}

				target := output
				if target == "" {
					target = filepath.Base(info.Filename)
					if target == "" || target == "." || target == string(filepath.Separator) {
						target = args[0]
					}
				}

				f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
				if err != nil {
					return err
				}
				if _, err := io.Copy(f, rc); err != nil {
					_ = f.Close()
					_ = os.Remove(target)
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				return writePlain("wrote %s\n", target)
			})
		},
	}

	cmd.Flags().StringVar(&accessCode, "access-code", "", "access code of a protected space")
	cmd.Flags().StringVarP(&output, "output", "o", "", "target path, or - for stdout")
	return cmd
}

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show server and catalog state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				info, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(info)
				}
				return writePlain(
					"db: %s\nschema: v%d\nspaces: %d\nfiles: %d\nblobs: %d\nstored: %s\n",
					info.DBPath, info.SchemaVersion, info.SpaceCount, info.FileCount, info.BlobCount,
					formatBytes(info.TotalStoredBytes),
				)
			})
		},
	}
}
