// Package marqueecmder provides the root marquee cobra command.
package marqueecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/marquee/cmd/marquee/config"
	indexcmder "github.com/papercomputeco/marquee/cmd/marquee/index"
	initcmder "github.com/papercomputeco/marquee/cmd/marquee/init"
	recommendcmder "github.com/papercomputeco/marquee/cmd/marquee/recommend"
	servecmder "github.com/papercomputeco/marquee/cmd/marquee/serve"
	statscmder "github.com/papercomputeco/marquee/cmd/marquee/stats"
	versioncmder "github.com/papercomputeco/marquee/cmd/version"
)

const marqueeLongDesc string = `Marquee is a semantic movie recommendation engine.

It embeds a movie catalog into a vector store and answers natural-language
queries with the closest matches.

  marquee init                   Create a local .marquee/ directory
  marquee index                  Embed the catalog into the vector store
  marquee serve                  Run the recommendation API server
  marquee recommend "<query>"    Ask the running server for recommendations
  marquee stats                  Show collection stats`

const marqueeShortDesc string = "Marquee - Semantic Movie Recommendations"

func NewMarqueeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "marquee",
		Short:        marqueeShortDesc,
		Long:         marqueeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .marquee/ config directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(recommendcmder.NewRecommendCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
