// bpe.go - BPE und WordPiece Encoding-Algorithmen
//
// Enthaelt:
// - byteToRune: GPT-2 Byte-Level Abbildung (Umkehrung in decode.go)
// - encodeBPEMerge: BPE Merge-Algorithmus (GPT-2, SentencePiece)
// - encodeWordPieceInto: WordPiece Algorithmus (BERT)

package tokenizer

import (
	"math"
	"strings"
)

// byteToRune bildet jedes Byte auf ein druckbares Zeichen ab (bytes_to_unicode)
var byteToRune = func() (table [256]rune) {
	n := rune(0)
	for b := range 256 {
		switch {
		case b >= '!' && b <= '~', b >= 0xa1 && b <= 0xac, b >= 0xae:
			table[b] = rune(b)
		default:
			table[b] = 0x100 + n
			n++
		}
	}
	return table
}()

// encodeChunkInto haengt die Tokens von s an ids an
func (t *Tokenizer) encodeChunkInto(s string, ids []int32) []int32 {
	if t.typ == TypeWordPiece {
		return t.encodeWordPieceInto(s, ids)
	}

	if s == "" {
		return ids
	}

	// SentencePiece: Leerzeichen als ▁
	// BPE: Bytes ueber byteToRune (GPT-2 Byte-Level)
	var encoded string
	if t.typ == TypeSentencePiece {
		encoded = strings.ReplaceAll(s, " ", "▁")
	} else {
		var sb strings.Builder
		sb.Grow(len(s) * 2)
		for i := range len(s) {
			sb.WriteRune(byteToRune[s[i]])
		}
		encoded = sb.String()
	}

	if id, ok := t.vocab.Reverse[encoded]; ok {
		return append(ids, id)
	}

	return t.encodeBPEMerge(encoded, ids)
}

// encodeBPEMerge verschmilzt wiederholt das Paar mit dem niedrigsten Rang
func (t *Tokenizer) encodeBPEMerge(encoded string, ids []int32) []int32 {
	runes := []rune(encoded)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}

	for len(parts) > 1 {
		minRank := math.MaxInt
		minIdx := -1

		for i := 0; i < len(parts)-1; i++ {
			if rank, ok := t.vocab.Merges[parts[i]+" "+parts[i+1]]; ok && rank < minRank {
				minRank = rank
				minIdx = i
			}
		}

		if minIdx < 0 {
			break
		}

		parts[minIdx] = parts[minIdx] + parts[minIdx+1]
		parts = append(parts[:minIdx+1], parts[minIdx+2:]...)
	}

	for _, part := range parts {
		if id, ok := t.vocab.Reverse[part]; ok {
			ids = append(ids, id)
			continue
		}

		// Byte-Fallback (<0xNN>) fuer unbekannte Teile
		if t.typ == TypeSentencePiece {
			part = strings.ReplaceAll(part, "▁", " ")
		}
		for _, b := range []byte(part) {
			if id := t.vocab.byteTokens[b]; id >= 0 {
				ids = append(ids, id)
			}
		}
	}

	return ids
}

// encodeWordPieceInto nutzt gierige Laengste-Treffer Suche mit ## fuer
// Fortsetzungs-Tokens
func (t *Tokenizer) encodeWordPieceInto(s string, ids []int32) []int32 {
	for _, word := range strings.Fields(s) {
		if id, ok := t.vocab.Reverse[word]; ok {
			ids = append(ids, id)
			continue
		}

		runes := []rune(word)
		start := 0

		for start < len(runes) {
			end := len(runes)
			found := false

			for end > start {
				substr := string(runes[start:end])
				if start > 0 {
					substr = "##" + substr
				}

				if id, ok := t.vocab.Reverse[substr]; ok {
					ids = append(ids, id)
					found = true
					start = end
					break
				}
				end--
			}

			if !found {
				if t.unkToken >= 0 {
					ids = append(ids, t.unkToken)
				}
				start++
			}
		}
	}

	return ids
}
