// utf8.go - UTF-8 Grenzerkennung fuer inkrementell dekodierte Bytes
//
// Enthaelt:
// - completeLen: Laenge bis zur letzten vollstaendigen Codepoint-Grenze
// - validString: Bytes zu gueltigem UTF-8, ungueltige Sequenzen werden ersetzt
package streamer

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// completeLen gibt die Laenge des laengsten Praefix von b zurueck, das nicht
// innerhalb einer noch vervollstaendigbaren Multi-Byte-Sequenz endet.
// Ungueltige Bytes zaehlen als abgeschlossen, sie koennen nie gueltig werden.
func completeLen(b []byte) int {
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}

		if utf8.FullRune(b[i:]) {
			return len(b)
		}

		return i
	}

	return len(b)
}

// validString konvertiert b zu einem String. Ungueltige oder abgeschnittene
// Sequenzen werden durch U+FFFD ersetzt (maximaler Teilbereich je Ersetzung).
func validString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		// der UTF-8 Decoder meldet keine Fehler, nur Ersetzungen
		return string(b)
	}

	return string(out)
}
