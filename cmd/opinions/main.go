// Command opinions serves the blog and manages its accounts and content.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/opinions"
	"github.com/eringen/opinions/store"
)

// version is set at build time via ldflags.
var version = "dev"

// rootOptions holds flags shared by every command.
type rootOptions struct {
	ConfigPath string
}

func (o *rootOptions) load() (opinions.SiteConfig, error) {
	return opinions.LoadConfig(o.ConfigPath)
}

// openStore opens the database named by the configuration.
func (o *rootOptions) openStore() (*store.Store, opinions.SiteConfig, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, cfg, err
	}
	s, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, cfg, err
	}
	return s, cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "opinions",
		Short:         "opinions - a personal opinion blog and book shelf",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file (environment variables override it)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newUserCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the opinions version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "opinions %s\n", version)
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
