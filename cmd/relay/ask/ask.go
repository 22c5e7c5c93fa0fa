// Package askcmder provides the ask command, a one-shot query against the
// configured watsonx deployment.
package askcmder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	rendercmder "github.com/papercomputeco/relay/cmd/relay/render"
	"github.com/papercomputeco/relay/cmd/relay/wiring"
	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/credentials"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/render"
	"github.com/papercomputeco/relay/pkg/steps"
)

type askCommander struct {
	cfg       *config.Config
	configDir string
	debug     bool
	plain     bool
	asJSON    bool

	scoringURL string
	authURL    string
	timeout    string
}

var askFlags = []string{
	config.FlagScoringURL,
	config.FlagAuthURL,
	config.FlagTimeout,
}

const askLongDesc string = `Send one prompt to the watsonx deployment and print the rendered answer.

The deployment URL comes from provider.scoring_url (or --scoring-url) and the
API key from IBM_API_KEY or "relay auth ibm".

Examples:
  relay ask "¿cuántas ventas hubo ayer?"
  relay ask --json top clientes del mes`

const askShortDesc string = "Send one prompt to watsonx"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := wiring.ResolveConfig(cmd, askFlags...)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagScoringURL, &cmder.scoringURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagAuthURL, &cmder.authURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print lines as is, without markdown rendering")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the lines as a JSON array")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return errors.New("prompt cannot be empty")
	}

	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	apiKey, err := creds.ResolveKey(credentials.ProviderIBM)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	client, _, err := wiring.NewLLMClient(c.cfg.Provider, apiKey, log, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var raw steps.RawChunk
	err = cliui.Step(cmd.ErrOrStderr(), "Asking watsonx", func() error {
		var sendErr error
		raw, sendErr = client.Send(ctx, prompt)
		return sendErr
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return rendercmder.WriteLines(out, render.Render(raw), c.asJSON, !c.plain && cliui.IsTerminal(out))
}
