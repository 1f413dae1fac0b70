// Package tokenizer - Vokabular-basierte Tokenizer fuer den Text-Streamer
//
// Dieses Modul enthaelt die gemeinsamen Typen:
// - Type: BPE (Byte-Level), SentencePiece, WordPiece
// - Vocabulary: Token-Strings, Reverse-Map, Merges und Special Tokens
// - Tokenizer: Encode (encode.go, bpe.go) und Decode (decode.go)
// - New: Tokenizer aus einer Token-Liste im Speicher
//
// Laden aus Dateien: loader.go (tokenizer.json), loader_vocab.go
// (vocab.json + merges.txt), config.go (Special Token Konfiguration).
package tokenizer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dlclark/regexp2"
)

// ErrInvalidToken wird fuer Token-IDs ausserhalb des Vokabulars zurueckgegeben
var ErrInvalidToken = errors.New("invalid token id")

// Type bestimmt wie Tokens auf Bytes abgebildet werden
type Type int

const (
	TypeBPE           Type = iota // GPT-2 Byte-Level BPE
	TypeSentencePiece             // ▁ fuer Leerzeichen, <0xNN> Byte-Fallback
	TypeWordPiece                 // ## fuer Fortsetzungs-Tokens (BERT)
)

func (t Type) String() string {
	switch t {
	case TypeSentencePiece:
		return "sentencepiece"
	case TypeWordPiece:
		return "wordpiece"
	default:
		return "bpe"
	}
}

// Vocabulary haelt die Token-Tabellen
type Vocabulary struct {
	Values  []string
	Reverse map[string]int32
	Merges  map[string]int

	BOS    int32
	EOS    []int32
	PAD    int32
	AddBOS bool
	AddEOS bool

	// byteTokens[b] ist die ID von <0xNN>, -1 wenn nicht vorhanden
	byteTokens [256]int32
}

// Tokenizer kodiert Text zu Token-IDs und dekodiert Token-IDs zu Bytes.
// Nach dem Laden ist er unveraenderlich und kann von mehreren Sessions
// gleichzeitig benutzt werden.
type Tokenizer struct {
	vocab        *Vocabulary
	typ          Type
	pretokenizer *regexp2.Regexp

	// specialTokens bildet den Inhalt von added_tokens auf ihre ID ab
	specialTokens map[string]int32
	special       map[int32]bool
	unkToken      int32
}

// New erstellt einen Tokenizer aus einer Token-Liste, die ID eines Tokens ist
// sein Index. Merges werden in Rang-Reihenfolge erwartet ("a b").
func New(typ Type, values []string, merges []string) (*Tokenizer, error) {
	t := &Tokenizer{
		vocab: &Vocabulary{
			Values:  slices.Clone(values),
			Reverse: make(map[string]int32, len(values)),
			Merges:  make(map[string]int, len(merges)),
			BOS:     -1,
			PAD:     -1,
		},
		typ:           typ,
		specialTokens: make(map[string]int32),
		special:       make(map[int32]bool),
		unkToken:      -1,
	}

	for i, v := range values {
		t.vocab.Reverse[v] = int32(i)
	}

	for i, merge := range merges {
		t.vocab.Merges[merge] = i
	}

	if err := t.init(""); err != nil {
		return nil, err
	}

	return t, nil
}

// AddSpecial registriert ein bereits im Vokabular enthaltenes Token als
// Special Token. Special Tokens werden beim Kodieren nicht zerlegt und beim
// Dekodieren unveraendert ausgegeben.
func (t *Tokenizer) AddSpecial(content string) error {
	id, ok := t.vocab.Reverse[content]
	if !ok {
		return fmt.Errorf("special token %q not in vocabulary", content)
	}

	t.specialTokens[content] = id
	t.special[id] = true
	return nil
}

// init berechnet abgeleitete Tabellen nach dem Laden
func (t *Tokenizer) init(pattern string) error {
	initByteTokens(t)

	if id, ok := t.vocab.Reverse["[UNK]"]; ok && t.typ == TypeWordPiece {
		t.unkToken = id
	}

	if t.typ != TypeBPE {
		return nil
	}

	if pattern == "" {
		pattern = defaultPretokenizer
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return fmt.Errorf("failed to compile pretokenizer regex %q: %w", pattern, err)
	}
	t.pretokenizer = re

	return nil
}

// Type gibt den Tokenizer-Typ zurueck
func (t *Tokenizer) Type() Type {
	return t.typ
}

// VocabSize gibt die Anzahl der Token-IDs zurueck
func (t *Tokenizer) VocabSize() int {
	return len(t.vocab.Values)
}

// EOS gibt die End-of-Sequence Token-IDs zurueck
func (t *Tokenizer) EOS() []int32 {
	return t.vocab.EOS
}

// IsEOS meldet ob id ein End-of-Sequence Token ist
func (t *Tokenizer) IsEOS(id int32) bool {
	return slices.Contains(t.vocab.EOS, id)
}
