// Package relaycmder
package relaycmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/relay/cmd/relay/ask"
	authcmder "github.com/papercomputeco/relay/cmd/relay/auth"
	configcmder "github.com/papercomputeco/relay/cmd/relay/config"
	rendercmder "github.com/papercomputeco/relay/cmd/relay/render"
	servecmder "github.com/papercomputeco/relay/cmd/relay/serve"
	versioncmder "github.com/papercomputeco/relay/cmd/version"
)

const relayLongDesc string = `Relay turns raw LLM agent output into clean chat messages.

It decodes SSE streams and escaped JSON from a watsonx deployment, folds the
events into tool calls, tool results, JSON blocks and prose, and lays them out
as the ordered lines a chat bot sends.

Run services using:
  relay serve          Run the chat bot webhook and API server
  relay render [file]  Render raw provider output from a file or stdin
  relay ask <prompt>   Send one prompt to the deployment and print the answer`

const relayShortDesc string = "Relay - LLM response normalization"

func NewRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        relayShortDesc,
		Long:         relayLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .relay/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(rendercmder.NewRenderCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
