package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spaces/internal/api"
	"spaces/internal/config"
)

func newCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var description string
	var public bool
	var accessCode string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				req := api.SpaceCreateRequest{
					Name:        args[0],
					Description: description,
					AccessCode:  accessCode,
				}
				if cmd.Flags().Changed("public") {
					req.IsPublic = &public
				}

				space, err := client.CreateSpace(cmd.Context(), req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(space)
				}
				return writePlain("created %s\n", space.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "space description")
	cmd.Flags().BoolVar(&public, "public", false, "make the space public")
	cmd.Flags().StringVar(&accessCode, "access-code", "", "protect the space with an access code")
	return cmd
}

func newLsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List spaces, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				spaces, err := client.ListSpaces(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(spaces)
				}
				return writeSpaceList(spaces)
			})
		},
	}
}

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <space-id>",
		Short: "Show one space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				space, err := client.GetSpace(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(space)
				}
				return writeSpaceDetail(space)
			})
		},
	}
}

func newUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var name, description, accessCode string
	var public, clearAccessCode bool

	cmd := &cobra.Command{
		Use:   "update <space-id>",
		Short: "Update a space; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearAccessCode && cmd.Flags().Changed("access-code") {
				return fmt.Errorf("--access-code and --clear-access-code are mutually exclusive")
			}

			return withClient(cfg, func(client *api.Client) error {
				var req api.SpaceUpdateRequest
				if cmd.Flags().Changed("name") {
					req.Name = &name
				}
				if cmd.Flags().Changed("description") {
					req.Description = &description
				}
				if cmd.Flags().Changed("public") {
					req.IsPublic = &public
				}
				if cmd.Flags().Changed("access-code") {
					req.AccessCode = &accessCode
				}
				if clearAccessCode {
					empty := ""
					req.AccessCode = &empty
				}

				space, err := client.UpdateSpace(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(space)
				}
				return writeSpaceDetail(space)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().BoolVar(&public, "public", false, "public visibility")
	cmd.Flags().StringVar(&accessCode, "access-code", "", "new access code")
	cmd.Flags().BoolVar(&clearAccessCode, "clear-access-code", false, "remove the access code")
	return cmd
}
