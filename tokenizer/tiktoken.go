// tiktoken.go - Adapter fuer OpenAI tiktoken Encodings
//
// Enthaelt:
// - NewTiktoken: Laedt ein Encoding (cl100k_base, o200k_base, ...)
// - Decode / Encode: Gleiche Schnittstelle wie Tokenizer
//
// tiktoken laedt die BPE-Dateien beim ersten Zugriff herunter, ausser
// TIKTOKEN_CACHE_DIR zeigt auf einen gefuellten Cache.

package tokenizer

import (
	"fmt"
	"slices"

	"github.com/pkoukk/tiktoken-go"
)

const tiktokenEndOfText = "<|endoftext|>"

// Tiktoken dekodiert Token-IDs eines tiktoken Encodings zu Bytes
type Tiktoken struct {
	name string
	enc  *tiktoken.Tiktoken
	eos  []int32
}

// NewTiktoken laedt das Encoding name
func NewTiktoken(name string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("init tiktoken encoding %s: %w", name, err)
	}

	return newTiktoken(name, enc), nil
}

func newTiktoken(name string, enc *tiktoken.Tiktoken) *Tiktoken {
	t := &Tiktoken{name: name, enc: enc}
	for _, id := range enc.Encode(tiktokenEndOfText, []string{tiktokenEndOfText}, nil) {
		t.eos = append(t.eos, int32(id))
	}
	return t
}

// Decode konvertiert ids zu Bytes. tiktoken selbst ueberspringt unbekannte
// IDs, deshalb wird jede ID einzeln geprueft: jedes bekannte Token (auch
// Special Tokens) hat mindestens ein Byte.
func (t *Tiktoken) Decode(ids []int32) ([]byte, error) {
	tokens := make([]int, len(ids))
	for i, id := range ids {
		if id < 0 || len(t.enc.Decode([]int{int(id)})) == 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidToken, id)
		}
		tokens[i] = int(id)
	}

	return []byte(t.enc.Decode(tokens)), nil
}

// Encode kodiert s, Special Tokens werden als Text behandelt. tiktoken
// Encodings haben kein BOS Token, addBOS wird ignoriert.
func (t *Tiktoken) Encode(s string, addBOS bool) []int32 {
	tokens := t.enc.Encode(s, nil, nil)
	ids := make([]int32, len(tokens))
	for i, id := range tokens {
		ids[i] = int32(id)
	}
	return ids
}

// IsEOS meldet ob id das <|endoftext|> Token ist
func (t *Tiktoken) IsEOS(id int32) bool {
	return slices.Contains(t.eos, id)
}

// EOS gibt die End-of-Sequence Token-IDs zurueck
func (t *Tiktoken) EOS() []int32 {
	return t.eos
}

func (t *Tiktoken) String() string {
	return fmt.Sprintf("tiktoken[%s]", t.name)
}
