// config.go - Haupt-Konfigurationsfunktionen fuer textstream
//
// Dieses Modul enthaelt:
// - Tokenizer: Pfad zu tokenizer.json oder Tokenizer-Verzeichnis (OLLAMA_TOKENIZER)
// - Encoding: tiktoken Encoding als Alternative (OLLAMA_ENCODING)
// - StopStrings: Default Stop-Strings (OLLAMA_STOP)
// - NumParallel: Parallele Sessions im decode Command (OLLAMA_NUM_PARALLEL)
// - LogLevel: Gibt Log-Level zurueck (OLLAMA_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Tokenizer gibt den Pfad zum Tokenizer zurueck
// Konfigurierbar via OLLAMA_TOKENIZER
// Datei (tokenizer.json) oder Verzeichnis (tokenizer.json bzw. vocab.json + merges.txt)
var Tokenizer = String("OLLAMA_TOKENIZER")

// Encoding gibt das tiktoken Encoding zurueck
// Konfigurierbar via OLLAMA_ENCODING (z.B. cl100k_base)
// Wird nur verwendet wenn kein Tokenizer-Pfad gesetzt ist
var Encoding = String("OLLAMA_ENCODING")

// StopStrings gibt die Default Stop-Strings zurueck
// Konfigurierbar via OLLAMA_STOP (komma-separiert)
// Leere Eintraege werden entfernt, "\n" wird als Zeilenumbruch gelesen
func StopStrings() []string {
	raw := Var("OLLAMA_STOP")
	if raw == "" {
		return nil
	}

	var stops []string
	for _, s := range strings.Split(raw, ",") {
		if s == "" {
			continue
		}
		s = strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
		stops = append(stops, s)
	}

	return stops
}

// NumParallel gibt die Anzahl parallel verarbeiteter Sessions zurueck
// Konfigurierbar via OLLAMA_NUM_PARALLEL
// Default: 0 = GOMAXPROCS
func NumParallel() int {
	if n := Uint("OLLAMA_NUM_PARALLEL", 0)(); n > 0 {
		return int(n)
	}

	return runtime.GOMAXPROCS(0)
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via OLLAMA_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("OLLAMA_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
