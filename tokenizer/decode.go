// decode.go - Token-IDs zu Bytes dekodieren
//
// Enthaelt:
// - Decode: Konvertiert Token-IDs zu rohen Bytes
// - Unterstuetzt BPE, SentencePiece und WordPiece Formate
//
// Das Ergebnis kann mitten in einem UTF-8 Zeichen enden, wenn ein Token nur
// einen Teil eines Multi-Byte Zeichens traegt. Die Zeichengrenze bestimmt
// der Aufrufer (siehe streamer.TextStreamer).

package tokenizer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Decode konvertiert Token-IDs zu Bytes. Unbekannte IDs ergeben
// ErrInvalidToken.
func (t *Tokenizer) Decode(ids []int32) ([]byte, error) {
	out := make([]byte, 0, len(ids)*4)

	for i, id := range ids {
		if id < 0 || int(id) >= len(t.vocab.Values) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidToken, id)
		}

		token := t.vocab.Values[id]
		if t.special[id] {
			out = append(out, token...)
			continue
		}

		switch t.typ {
		case TypeWordPiece:
			// WordPiece: ## markiert Fortsetzung, sonst Leerzeichen zwischen Woertern
			if rest, ok := strings.CutPrefix(token, "##"); ok {
				out = append(out, rest...)
			} else {
				if i > 0 {
					out = append(out, ' ')
				}
				out = append(out, token...)
			}
		case TypeSentencePiece:
			// Byte-Fallback Tokens wie <0x0D>
			if len(token) == 6 && token[0] == '<' && token[1] == '0' && token[2] == 'x' && token[5] == '>' {
				if v, err := strconv.ParseUint(token[3:5], 16, 8); err == nil {
					out = append(out, byte(v))
					continue
				}
			}

			token = strings.ReplaceAll(token, "▁", " ")
			// wie HuggingFace: fuehrendes Leerzeichen der Sequenz entfernen
			if i == 0 {
				token = strings.TrimPrefix(token, " ")
			}
			out = append(out, token...)
		default:
			// GPT-2 Byte-Level: jede Rune steht fuer ein Byte
			for _, r := range token {
				switch {
				case r == 0x0100:
					out = append(out, 0)
					continue
				case r == 0x0143:
					r = 0x00ad
				case r > 0x0100 && r <= 0x0120:
					r = r - 0x0100
				case r > 0x0120 && r <= 0x0142:
					r = r - 0x00a2
				case r > 0x00ff:
					// kein Byte-Level Zeichen, als UTF-8 uebernehmen
					out = utf8.AppendRune(out, r)
					continue
				}
				out = append(out, byte(r))
			}
		}
	}

	return out, nil
}

// DecodeString dekodiert ids zu einem String, der ungueltiges UTF-8 enthalten
// kann
func (t *Tokenizer) DecodeString(ids []int32) (string, error) {
	b, err := t.Decode(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
