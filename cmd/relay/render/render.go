// Package rendercmder provides the render command, which runs raw provider
// output through the normalization pipeline offline.
package rendercmder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/render"
)

type renderCommander struct {
	plain  bool
	asJSON bool
}

const renderLongDesc string = `Render raw provider output into chat lines.

Reads a watsonx response body (an SSE stream, a JSON string escaped any
number of times, or a JSON object) from the given file, or from stdin when
no file or "-" is given, and prints the lines relay would send to a chat.

Output is rendered as markdown when stdout is a terminal.

Examples:
  relay render response.txt
  curl -s ... | relay render
  relay render --json response.txt`

const renderShortDesc string = "Render raw provider output into chat lines"

func NewRenderCmd() *cobra.Command {
	cmder := &renderCommander{}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: renderShortDesc,
		Long:  renderLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening input: %w", err)
				}
				defer f.Close()
				in = f
			}
			return cmder.run(in, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print lines as is, without markdown rendering")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the lines as a JSON array")

	return cmd
}

func (c *renderCommander) run(in io.Reader, out io.Writer) error {
	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	lines := render.Body(body)
	return WriteLines(out, lines, c.asJSON, !c.plain && cliui.IsTerminal(out))
}

// WriteLines prints lines as a JSON array or through cliui.PrintLines.
func WriteLines(out io.Writer, lines []string, asJSON, pretty bool) error {
	if asJSON {
		if lines == nil {
			lines = []string{}
		}
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(lines)
	}
	return cliui.PrintLines(out, lines, pretty)
}
