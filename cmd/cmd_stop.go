// cmd_stop.go - Stop Command
// Hauptfunktionen: StopHandler
//
// Wendet Stop-Strings auf Text von stdin an, ohne Tokenizer. Der Text wird in
// Stuecken von --chunk Zeichen an den StopStringHandler gegeben.
package cmd

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ollama/textstream/envconfig"
	"github.com/ollama/textstream/streamer"
)

// StopHandler - Gibt stdin bis zum ersten Stop-String aus
func StopHandler(cmd *cobra.Command, args []string) error {
	stops, _ := cmd.Flags().GetStringArray("stop")
	stops = append(stops, args...)

	chunk, _ := cmd.Flags().GetInt("chunk")
	if chunk < 1 {
		chunk = 1
	}

	h := streamer.NewStopStringHandler(stops)
	r := bufio.NewReader(textReader(cmd.InOrStdin()))
	out := cmd.OutOrStdout()

	var sb strings.Builder
	for !h.StopTriggered() {
		sb.Reset()

		var err error
		for range chunk {
			var c rune
			if c, _, err = r.ReadRune(); err != nil {
				break
			}
			sb.WriteRune(c)
		}

		if _, werr := io.WriteString(out, h.Put(sb.String())); werr != nil {
			return werr
		}

		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return err
		}
	}

	_, err := io.WriteString(out, h.Finish())
	return err
}

// newStopCmd - Erstellt den stop Command
func newStopCmd() *cobra.Command {
	stopCmd := &cobra.Command{
		Use:   "stop [STOP...]",
		Short: "Cut stdin at the first stop string",
		RunE:  StopHandler,
	}

	stopCmd.Flags().StringArray("stop", envconfig.StopStrings(), "Stop string, can be repeated")
	stopCmd.Flags().Int("chunk", int(envconfig.ChunkSize()), "Characters per put call")

	return stopCmd
}
