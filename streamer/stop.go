// stop.go - Inkrementelle Stop-String Erkennung
//
// Der StopStringHandler nimmt Text-Deltas entgegen und gibt nur Text zurueck,
// der sicher nicht Teil eines Stop-Strings ist. Stop-Strings duerfen ueber
// mehrere Put-Aufrufe verteilt ankommen: das laengste Textende, das noch
// Praefix eines Stop-Strings ist, wird zurueckgehalten (hoechstens max_len-1
// Bytes), bis klar ist, dass es keinen Treffer mehr bilden kann.
//
// Enthaelt:
// - NewStopStringHandler: Erstellt den Handler und baut den Automaten
// - Put: Verarbeitet ein Text-Delta
// - Finish: Gibt den zurueckgehaltenen Rest aus
// - StopTriggered / StopString: Zustand nach einem Treffer
package streamer

import (
	"log/slog"

	"github.com/ollama/textstream/logutil"
)

// StopStringHandler erkennt literale Stop-Strings in einem Textstrom.
// Eine Instanz gehoert genau einer Generierungs-Session und ist nicht fuer
// gleichzeitigen Zugriff gedacht.
type StopStringHandler struct {
	ac *automaton

	pending []byte
	state   int32

	stopped  bool
	finished bool
	matched  string
}

// NewStopStringHandler erstellt einen Handler fuer die gegebenen Stop-Strings.
// Leere Strings werden ignoriert. Ohne Stop-Strings wird jeder Put-Aufruf
// unveraendert durchgereicht.
func NewStopStringHandler(stops []string) *StopStringHandler {
	patterns := make([]string, 0, len(stops))
	h := &StopStringHandler{}
	for _, s := range stops {
		if s == "" {
			continue
		}

		patterns = append(patterns, s)
	}

	if len(patterns) > 0 {
		h.ac = newAutomaton(patterns)
	}

	return h
}

// Put fuegt input an den zurueckgehaltenen Text an und gibt den Teil zurueck,
// der sicher ausgegeben werden kann. Nach einem Treffer (oder nach Finish)
// ist das Ergebnis immer leer.
func (h *StopStringHandler) Put(input string) string {
	if h.stopped || h.finished {
		return ""
	}

	if h.ac == nil {
		return input
	}

	from := len(h.pending)
	h.pending = append(h.pending, input...)

	if start, n, ok := h.scan(from); ok {
		out := string(h.pending[:start])
		h.matched = string(h.pending[start : start+n])
		h.pending = nil
		h.stopped = true
		slog.Debug("hit stop string", "stop", h.matched, "emitted", len(out))
		return out
	}

	// pending endet mit dem Praefix, den der Automatenzustand darstellt
	cut := len(h.pending) - int(h.ac.depth[h.state])
	out := string(h.pending[:cut])
	h.pending = append(h.pending[:0], h.pending[cut:]...)

	logutil.Trace("stop string handler put", "input", input, "output", out, "pending", string(h.pending))
	return out
}

// scan laesst den Automaten ueber pending[from:] laufen und sucht den
// frueheste beginnenden Treffer, bei gleichem Start den laengsten. Gibt
// Startposition und Laenge zurueck.
func (h *StopStringHandler) scan(from int) (start, n int, ok bool) {
	start = -1
	for i := from; i < len(h.pending); i++ {
		// ein spaeter endender Treffer kann nicht mehr bei start beginnen
		if start >= 0 && i-start >= h.ac.maxBytes {
			break
		}

		h.state = h.ac.step(h.state, h.pending[i])
		if l := int(h.ac.match[h.state]); l > 0 {
			if s := max(i-l+1, 0); start < 0 || s <= start {
				start, n = s, i-s+1
			}
		}
	}

	return start, n, start >= 0
}

// Finish gibt allen zurueckgehaltenen Text aus. Es kommt kein weiterer Input,
// ein offener Praefix kann also kein Stop-String mehr werden.
func (h *StopStringHandler) Finish() string {
	if h.stopped || h.finished {
		return ""
	}

	h.finished = true
	out := string(h.pending)
	h.pending = nil
	return out
}

// StopTriggered meldet ob ein Stop-String gefunden wurde
func (h *StopStringHandler) StopTriggered() bool {
	return h.stopped
}

// MaxLen gibt die Laenge (Bytes) des laengsten Stop-Strings zurueck, 0 ohne
// Stop-Strings. Der zurueckgehaltene Text ist immer kuerzer.
func (h *StopStringHandler) MaxLen() int {
	if h.ac == nil {
		return 0
	}
	return h.ac.maxBytes
}

// StopString gibt den gefundenen Stop-String zurueck, leer solange keiner
// gefunden wurde. Beginnen mehrere an derselben Position, ist es der laengste.
func (h *StopStringHandler) StopString() string {
	return h.matched
}
