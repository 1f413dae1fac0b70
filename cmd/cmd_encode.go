// cmd_encode.go - Encode Command
// Hauptfunktionen: EncodeHandler
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// EncodeHandler - Gibt die Token-IDs eines Textes aus
func EncodeHandler(cmd *cobra.Command, args []string) error {
	c, err := loadCodec(cmd)
	if err != nil {
		return err
	}

	bos, _ := cmd.Flags().GetBool("bos")
	format, _ := cmd.Flags().GetString("format")

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(textReader(cmd.InOrStdin()))
		if err != nil {
			return err
		}
		text = string(data)
	}

	ids := c.Encode(text, bos)
	if ids == nil {
		ids = []int32{}
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return json.NewEncoder(out).Encode(ids)
	case "text":
		fields := make([]string, len(ids))
		for i, id := range ids {
			fields[i] = strconv.Itoa(int(id))
		}
		_, err := fmt.Fprintln(out, strings.Join(fields, " "))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// newEncodeCmd - Erstellt den encode Command
func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode [TEXT]",
		Short: "Print the token ids of a text",
		RunE:  EncodeHandler,
	}

	addCodecFlags(encodeCmd)
	encodeCmd.Flags().Bool("bos", false, "Prepend the tokenizer's BOS token")
	encodeCmd.Flags().String("format", "json", "Output format (json or text)")

	return encodeCmd
}
