// automaton.go - Aho-Corasick Automat fuer Stop-Strings
//
// Der Automat wird einmal pro Handler gebaut und ist danach unveraenderlich.
// Zustaende sind Indizes in eine flache Uebergangstabelle, so dass der
// laufende Zustand als einfacher int32 ueber Put-Aufrufe getragen wird.
//
// Enthaelt:
// - newAutomaton: Trie-Aufbau und Breitensuche fuer Fehlerlinks
// - step: Ein Byte weiterschalten
package streamer

import (
	"github.com/emirpasic/gods/v2/lists/arraylist"
)

type automaton struct {
	// classes bildet Bytes auf Alphabet-Klassen ab, Klasse 0 = kommt in
	// keinem Stop-String vor
	classes [256]int32
	width   int32

	// next[state*width+class] ist der Folgezustand
	next []int32

	// match[state] ist die Laenge (Bytes) des laengsten Stop-Strings, der auf
	// state endet, 0 wenn keiner
	match []int32

	// depth[state] ist die Laenge des Trie-Praefix, den state darstellt
	depth []int32

	maxBytes int
}

func newAutomaton(patterns []string) *automaton {
	a := &automaton{width: 1}

	var seen [256]bool
	for _, p := range patterns {
		for i := range len(p) {
			seen[p[i]] = true
		}
	}

	for b := range 256 {
		if seen[b] {
			a.classes[b] = a.width
			a.width++
		}
	}

	a.addState()
	for _, p := range patterns {
		var s int32
		for i := range len(p) {
			idx := s*a.width + a.classes[p[i]]
			if a.next[idx] < 0 {
				t := a.addState()
				a.depth[t] = a.depth[s] + 1
				a.next[idx] = t
			}
			s = a.next[idx]
		}

		a.match[s] = int32(len(p))
		a.maxBytes = max(a.maxBytes, len(p))
	}

	fail := make([]int32, len(a.match))
	queue := arraylist.New[int32]()

	for c := range a.width {
		if t := a.next[c]; t > 0 {
			queue.Add(t)
		} else {
			a.next[c] = 0
		}
	}

	// Breitensuche: fail[s] hat geringere Tiefe als s, seine Zeile ist also
	// schon vollstaendig wenn s bearbeitet wird
	for i := 0; i < queue.Size(); i++ {
		s, _ := queue.Get(i)
		if a.match[s] == 0 {
			a.match[s] = a.match[fail[s]]
		}

		row, failRow := s*a.width, fail[s]*a.width
		for c := range a.width {
			if t := a.next[row+c]; t >= 0 {
				fail[t] = a.next[failRow+c]
				queue.Add(t)
			} else {
				a.next[row+c] = a.next[failRow+c]
			}
		}
	}

	return a
}

// addState haengt eine leere Zeile an und gibt den neuen Zustand zurueck
func (a *automaton) addState() int32 {
	s := int32(len(a.match))
	for range a.width {
		a.next = append(a.next, -1)
	}
	a.match = append(a.match, 0)
	a.depth = append(a.depth, 0)
	return s
}

func (a *automaton) step(state int32, b byte) int32 {
	return a.next[state*a.width+a.classes[b]]
}

func (a *automaton) states() int {
	return len(a.match)
}
