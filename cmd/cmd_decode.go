// cmd_decode.go - Decode Command
// Hauptfunktionen: DecodeHandler, decodeSession.run
//
// Jede Eingabedatei ist eine eigene Generierungs-Session mit eigener
// Pipeline. Mehrere Dateien werden parallel dekodiert und in der Reihenfolge
// der Argumente ausgegeben.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ollama/textstream/envconfig"
	"github.com/ollama/textstream/streamer"
)

// decodeSession - Einstellungen, die alle Sessions eines Aufrufs teilen
type decodeSession struct {
	dec   codec
	stops []string
	chunk int
	eos   bool
}

// decodeResult - Ergebnis einer Session fuer --verbose
type decodeResult struct {
	id     string
	reason streamer.DoneReason
	stop   string
}

// run - Dekodiert die Token-IDs aus name nach w
func (s *decodeSession) run(ctx context.Context, cmd *cobra.Command, w io.Writer, name string) (decodeResult, error) {
	r, err := openInput(cmd, name)
	if err != nil {
		return decodeResult{}, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return decodeResult{}, fmt.Errorf("%s: %w", name, err)
	}

	ids, err := parseTokenIDs(data)
	if err != nil {
		return decodeResult{}, fmt.Errorf("%s: %w", name, err)
	}

	var opts []streamer.Option
	if s.eos {
		opts = append(opts, streamer.WithStopTokens(s.dec.EOS()...))
	}

	p := streamer.NewPipeline(s.dec, s.stops, opts...)
	for chunk := range slices.Chunk(ids, s.chunk) {
		if err := ctx.Err(); err != nil {
			return decodeResult{}, err
		}

		text, err := p.Put(chunk)
		if err != nil {
			return decodeResult{}, fmt.Errorf("%s: %w", name, err)
		}

		if _, err := io.WriteString(w, text); err != nil {
			return decodeResult{}, err
		}

		if p.Stopped() {
			break
		}
	}

	text, err := p.Finish()
	if err != nil {
		return decodeResult{}, fmt.Errorf("%s: %w", name, err)
	}

	if _, err := io.WriteString(w, text); err != nil {
		return decodeResult{}, err
	}

	return decodeResult{id: p.ID, reason: p.DoneReason(), stop: p.StopString()}, nil
}

// DecodeHandler - Dekodiert Token-IDs aus Dateien oder stdin
func DecodeHandler(cmd *cobra.Command, args []string) error {
	dec, err := loadCodec(cmd)
	if err != nil {
		return err
	}

	stops, _ := cmd.Flags().GetStringArray("stop")
	chunk, _ := cmd.Flags().GetInt("chunk")
	eos, _ := cmd.Flags().GetBool("eos")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if chunk < 1 {
		return fmt.Errorf("invalid chunk size %d", chunk)
	}

	if len(args) == 0 {
		args = []string{"-"}
	}

	s := &decodeSession{dec: dec, stops: stops, chunk: chunk, eos: eos}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		res, err := s.run(cmd.Context(), cmd, out, args[0])
		if err != nil {
			return err
		}

		if verbose {
			printDone(cmd, args[0], res)
		}
		return nil
	}

	outputs := make([]bytes.Buffer, len(args))
	results := make([]decodeResult, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(envconfig.NumParallel())
	for i, name := range args {
		g.Go(func() error {
			res, err := s.run(ctx, cmd, &outputs[i], name)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, name := range args {
		if i > 0 {
			fmt.Fprintln(out)
		}

		fmt.Fprintf(out, "==> %s <==\n", name)
		if _, err := out.Write(outputs[i].Bytes()); err != nil {
			return err
		}

		if verbose {
			printDone(cmd, name, results[i])
		}
	}

	return nil
}

func printDone(cmd *cobra.Command, name string, res decodeResult) {
	msg := fmt.Sprintf("%s: session %s done: %s", name, res.id, res.reason)
	if res.stop != "" {
		msg += fmt.Sprintf(" (%q)", res.stop)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), msg)
}

// newDecodeCmd - Erstellt den decode Command
func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode [FILE...]",
		Short: "Stream token ids to text",
		Long: `Decode token ids (a JSON array or whitespace separated integers) to text.
Each FILE is decoded as its own session, "-" or no FILE reads stdin.`,
		RunE: DecodeHandler,
	}

	addCodecFlags(decodeCmd)
	decodeCmd.Flags().StringArray("stop", envconfig.StopStrings(), "Stop string, can be repeated")
	decodeCmd.Flags().Int("chunk", int(envconfig.ChunkSize()), "Token ids per put call")
	decodeCmd.Flags().Bool("eos", false, "Stop at the tokenizer's end-of-sequence tokens")
	decodeCmd.Flags().Bool("verbose", envconfig.Verbose(), "Report why each session ended")

	return decodeCmd
}
