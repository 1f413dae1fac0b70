// cmd_utils.go - Gemeinsame Hilfsfunktionen
// Hauptfunktionen: loadCodec, openInput, textReader, parseTokenIDs
package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ollama/textstream/envconfig"
	"github.com/ollama/textstream/streamer"
	"github.com/ollama/textstream/tokenizer"
)

var errNoTokenizer = errors.New("no tokenizer configured, use --tokenizer or --encoding")

// codec - Gemeinsame Schnittstelle von tokenizer.Tokenizer und tokenizer.Tiktoken
type codec interface {
	streamer.Decoder
	Encode(s string, addBOS bool) []int32
	EOS() []int32
}

// addCodecFlags - Registriert --tokenizer und --encoding
func addCodecFlags(cmd *cobra.Command) {
	cmd.Flags().String("tokenizer", envconfig.Tokenizer(), "Path to tokenizer.json or a tokenizer directory")
	cmd.Flags().String("encoding", envconfig.Encoding(), "tiktoken encoding (e.g. cl100k_base), used when --tokenizer is empty")
}

// loadCodec - Laedt den Tokenizer aus den Flags
func loadCodec(cmd *cobra.Command) (codec, error) {
	path, _ := cmd.Flags().GetString("tokenizer")
	encoding, _ := cmd.Flags().GetString("encoding")

	switch {
	case path != "":
		t, err := tokenizer.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
		}

		slog.Debug("loaded tokenizer", "path", path, "type", t.Type(), "vocab", t.VocabSize(), "eos", t.EOS())
		return t, nil
	case encoding != "":
		t, err := tokenizer.NewTiktoken(encoding)
		if err != nil {
			return nil, err
		}

		slog.Debug("loaded tiktoken encoding", "encoding", encoding)
		return t, nil
	default:
		return nil, errNoTokenizer
	}
}

// openInput - Oeffnet name, "-" ist stdin
func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	return os.Open(name)
}

// textReader - Liest UTF-8 Text, eine fuehrende BOM wird entfernt und
// ungueltige Bytes werden ersetzt
func textReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// parseTokenIDs - Liest Token-IDs als JSON-Array oder durch Leerzeichen getrennt
func parseTokenIDs(data []byte) ([]int32, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var ids []int32
		if err := json.Unmarshal(data, &ids); err != nil {
			return nil, fmt.Errorf("invalid token ids: %w", err)
		}
		return ids, nil
	}

	fields := strings.FieldsFunc(string(data), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	ids := make([]int32, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q: %w", f, err)
		}
		ids = append(ids, int32(id))
	}

	return ids, nil
}
