// Package streamer - Inkrementelle Detokenisierung fuer die Generierungsschleife
//
// Dieses Modul enthaelt den TextStreamer:
// - NewTextStreamer: Erstellt einen Streamer fuer einen Decoder
// - Put: Nimmt neue Token-IDs an, gibt gueltigen UTF-8 Text zurueck
// - Finish: Gibt den Rest aus und setzt den Streamer zurueck
//
// Tokenizer bilden einzelne Tokens haeufig auf Bruchstuecke von Multi-Byte
// Zeichen ab (CJK, Byte-Level BPE). Der Streamer haelt solche Tokens zurueck,
// bis die Zeichengrenze erreicht ist.
package streamer

import (
	"bytes"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ollama/textstream/logutil"
)

// Decoder dekodiert eine vollstaendige Token-Sequenz zu Bytes. Die Bytes
// duerfen mitten in einem Multi-Byte Zeichen enden.
type Decoder interface {
	Decode(ids []int32) ([]byte, error)
}

// TextStreamer wandelt einen Token-Strom in gueltige UTF-8 Text-Deltas um.
// Eine Instanz gehoert genau einer Generierungs-Session.
type TextStreamer struct {
	dec Decoder

	// tokens ist das Dekodier-Fenster: optional ein bereits ausgegebenes
	// Kontext-Token, gefolgt von den noch offenen Tokens
	tokens []int32

	// emitted ist die Anzahl Bytes von Decode(tokens), die schon ausgegeben
	// wurden, pending die Anzahl der Bytes dahinter
	emitted int
	pending int
}

// NewTextStreamer erstellt einen Streamer. dec wird nur geliehen.
func NewTextStreamer(dec Decoder) *TextStreamer {
	return &TextStreamer{dec: dec}
}

// Put haengt delta an die offenen Tokens an und gibt den Text bis zur
// letzten vollstaendigen Zeichengrenze zurueck. Fehler des Decoders werden
// unveraendert zurueckgegeben, delta wird dann verworfen.
func (s *TextStreamer) Put(delta []int32) (string, error) {
	if len(delta) == 0 {
		return "", nil
	}

	tokens, emitted, pending := slices.Clone(s.tokens), s.emitted, s.pending

	var sb strings.Builder
	for _, id := range delta {
		text, err := s.push(id)
		if err != nil {
			s.tokens, s.emitted, s.pending = tokens, emitted, pending
			return "", err
		}
		sb.WriteString(text)
	}

	logutil.Trace("text streamer put", "delta", delta, "text", sb.String(), "window", len(s.tokens), "pending", s.pending)
	return sb.String(), nil
}

// push dekodiert das Fenster mit einem weiteren Token. Tokens ohne Bytes
// hinter offenen Bytes kommen nicht ins Fenster.
func (s *TextStreamer) push(id int32) (string, error) {
	n := len(s.tokens)
	s.tokens = append(s.tokens, id)

	b, err := s.dec.Decode(s.tokens)
	if err != nil {
		return "", err
	}

	if s.pending > 0 && len(b) == s.emitted+s.pending {
		s.tokens = s.tokens[:n]
		return "", nil
	}

	// Decoder muessen Praefix-stabil sein, sonst hier nur begrenzen
	s.emitted = min(s.emitted, len(b))

	tail := b[s.emitted:]
	complete := completeLen(tail)
	text := validString(tail[:complete])
	s.emitted += complete
	s.pending = len(tail) - complete

	s.compact(tail[complete:])
	return text, nil
}

// compact verkleinert das Fenster, so dass nur noch das Kontext-Token und die
// Tokens der offenen Bytes bleiben. Ohne offene Bytes bleibt ein Token,
// damit Decoder mit kontextabhaengigem Praefix (SentencePiece) konsistent
// bleiben.
func (s *TextStreamer) compact(pending []byte) {
	keep := 1
	if len(pending) > 0 {
		if len(s.tokens) <= utf8.UTFMax+1 {
			return
		}
		keep = utf8.UTFMax + 1
	}

	if len(s.tokens) <= keep {
		return
	}

	window := s.tokens[len(s.tokens)-keep:]
	b, err := s.dec.Decode(window)
	if err != nil || len(b) < len(pending) || !bytes.HasSuffix(b, pending) {
		return
	}

	s.tokens = append(s.tokens[:0], window...)
	s.emitted = len(b) - len(pending)
}

// Finish dekodiert alle offenen Tokens. Bytes, die kein gueltiges Zeichen
// mehr werden koennen, werden durch U+FFFD ersetzt. Danach ist der Streamer
// im Ausgangszustand.
func (s *TextStreamer) Finish() (string, error) {
	defer s.reset()

	if len(s.tokens) == 0 {
		return "", nil
	}

	b, err := s.dec.Decode(s.tokens)
	if err != nil {
		return "", err
	}

	return validString(b[min(s.emitted, len(b)):]), nil
}

// Window gibt die Groesse des Dekodier-Fensters zurueck (Kontext-Token und
// offene Tokens)
func (s *TextStreamer) Window() int {
	return len(s.tokens)
}

func (s *TextStreamer) reset() {
	s.tokens = nil
	s.emitted = 0
	s.pending = 0
}
