package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eringen/opinions"
	"github.com/eringen/opinions/auth"
	"github.com/eringen/opinions/store"
)

type userAddOptions struct {
	*rootOptions
	Email    string
	Password string
	Name     string
	Roles    []string
}

func newUserCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserGrantCommand(rootOpts))
	return cmd
}

func newUserAddCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &userAddOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Long: `Create an account with a bcrypt-hashed password.

Only accounts holding the admin role can sign in to the admin area.

Example:
  opinions user add --email me@example.com --password s3cret-pass --name "Jane" --role admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := parseRoles(opts.Roles)
			if err != nil {
				return err
			}
			s, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := opinions.CreateUser(cmd.Context(), s, opinions.NewUser{
				Email:    opts.Email,
				Password: opts.Password,
				Name:     opts.Name,
				Roles:    roles,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) roles=%s\n", u.Email, u.ID, auth.NewRoleSet(roles...))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringSliceVar(&opts.Roles, "role", nil, "role to grant (admin, editor, reader); repeatable")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserGrantCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <email> <role>",
		Short: "Grant a role to an existing account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := auth.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("unknown role %q", args[1])
			}
			s, _, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := s.GetUserByEmail(cmd.Context(), store.NormalizeEmail(args[0]))
			if err != nil {
				return fmt.Errorf("find %s: %w", args[0], err)
			}
			if err := s.GrantRole(cmd.Context(), u.ID, string(role)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", role, u.Email)
			return nil
		},
	}
}

func parseRoles(names []string) ([]auth.Role, error) {
	roles := make([]auth.Role, 0, len(names))
	for _, n := range names {
		r, ok := auth.ParseRole(n)
		if !ok {
			return nil, fmt.Errorf("unknown role %q (want one of admin, editor, reader)", strings.TrimSpace(n))
		}
		roles = append(roles, r)
	}
	return roles, nil
}
