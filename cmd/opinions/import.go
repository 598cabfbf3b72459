package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/opinions"
	"github.com/eringen/opinions/store"
)

type importOptions struct {
	*rootOptions
	Author string
}

func newImportCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &importOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import markdown files as draft posts",
		Long: `Import every .md file in a directory as a draft post.

Front matter may set title, slug, category, image, description, keywords
and date. Missing categories are created.

Example:
  opinions import ./drafts --author me@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var authorID string
			if opts.Author != "" {
				u, err := s.GetUserByEmail(cmd.Context(), store.NormalizeEmail(opts.Author))
				if err != nil {
					return fmt.Errorf("find author %s: %w", opts.Author, err)
				}
				authorID = u.ID
			}

			res, err := opinions.ImportPosts(cmd.Context(), s, args[0], authorID)
			out := cmd.OutOrStdout()
			for _, p := range res.Imported {
				fmt.Fprintf(out, "imported %q as draft %s\n", p.Title, p.ID)
			}
			for path, skipErr := range res.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", path, skipErr)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Author, "author", "", "email of the account the posts are attributed to")

	return cmd
}
