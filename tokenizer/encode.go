// encode.go - Text zu Token-IDs encodieren
//
// Enthaelt:
// - Encode: Text zu Token-IDs
// - splitBySpecialTokens: Trennt Special Tokens
// - pretokenize: Zerlegt Text mit dem Pretokenizer-Regex (regexp2, mit Lookahead)
//
// Siehe auch: bpe.go fuer Encoding-Algorithmen, decode.go fuer Decoding

package tokenizer

import (
	"cmp"
	"slices"
	"strings"
)

// GPT-2 Pretokenizer, wird verwendet wenn tokenizer.json keinen angibt
const defaultPretokenizer = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// splitBySpecialTokens zerlegt s, Special Tokens bleiben eigene Elemente
func (t *Tokenizer) splitBySpecialTokens(s string) []string {
	if len(t.specialTokens) == 0 {
		return []string{s}
	}

	// Laengste zuerst, damit ueberlappende Special Tokens gierig passen
	tokens := make([]string, 0, len(t.specialTokens))
	for tok := range t.specialTokens {
		tokens = append(tokens, tok)
	}
	slices.SortFunc(tokens, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	var result []string
	remaining := s

	for len(remaining) > 0 {
		found := false
		for _, tok := range tokens {
			if strings.HasPrefix(remaining, tok) {
				result = append(result, tok)
				remaining = remaining[len(tok):]
				found = true
				break
			}
		}
		if !found {
			nextPos := len(remaining)
			for _, tok := range tokens {
				if idx := strings.Index(remaining, tok); idx != -1 && idx < nextPos {
					nextPos = idx
				}
			}
			if nextPos > 0 {
				result = append(result, remaining[:nextPos])
			}
			remaining = remaining[nextPos:]
		}
	}

	return result
}

// pretokenize zerlegt s in die Chunks, die einzeln kodiert werden
func (t *Tokenizer) pretokenize(s string) []string {
	if t.pretokenizer == nil {
		return []string{s}
	}

	var chunks []string
	m, _ := t.pretokenizer.FindStringMatch(s)
	for m != nil {
		chunks = append(chunks, m.String())
		m, _ = t.pretokenizer.FindNextMatch(m)
	}

	return chunks
}

// Encode kodiert s zu Token-IDs. Mit addBOS wird das BOS Token vorangestellt,
// falls das Vokabular eines hat.
func (t *Tokenizer) Encode(s string, addBOS bool) []int32 {
	var ids []int32
	if addBOS && t.vocab.BOS >= 0 {
		ids = append(ids, t.vocab.BOS)
	}

	for i, part := range t.splitBySpecialTokens(s) {
		if id, ok := t.specialTokens[part]; ok {
			ids = append(ids, id)
			continue
		}

		// SentencePiece: Sequenzbeginn bekommt ein ▁, Decode entfernt es wieder
		if t.typ == TypeSentencePiece && i == 0 {
			part = " " + part
		}

		for _, chunk := range t.pretokenize(part) {
			ids = t.encodeChunkInto(chunk, ids)
		}
	}

	if t.vocab.AddEOS && len(t.vocab.EOS) > 0 {
		ids = append(ids, t.vocab.EOS[0])
	}

	return ids
}
