// Package configcmder provides the config command for managing persistent
// marquee configuration stored in the .marquee/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
)

const configLongDesc string = `Manage persistent marquee configuration.

Configuration is stored as config.toml in the .marquee/ directory and provides
default values for command flags. Environment variables (MARQUEE_*) and CLI
flags take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  catalog.path,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model,
  embedding.dimensions, embedding.api_key_env,
  indexing.batch_size, api.listen, client.api_target,
  event_stream.provider, event_stream.brokers, event_stream.topic

Examples:
  marquee config set embedding.model nomic-embed-text
  marquee config set vector_store.provider qdrant
  marquee config get catalog.path
  marquee config list`

const configShortDesc string = "Manage persistent marquee configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func keysCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
