package envconfig

import (
	"log/slog"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ollama/textstream/logutil"
)

func TestStopStrings(t *testing.T) {
	cases := map[string][]string{
		"":                  nil,
		"STOP":              {"STOP"},
		"a,b":               {"a", "b"},
		"a,,b,":             {"a", "b"},
		`"</s>,<|im_end|>"`: {"</s>", "<|im_end|>"},
		`User:,\n\n`:        {"User:", "\n\n"},
	}

	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("OLLAMA_STOP", k)
			if diff := cmp.Diff(v, StopStrings()); diff != "" {
				t.Errorf("StopStrings() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"0":     slog.LevelInfo,
		"true":  slog.LevelDebug,
		"1":     slog.LevelDebug,
		"2":     logutil.LevelTrace,
	}

	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("OLLAMA_DEBUG", k)
			if got := LogLevel(); got != v {
				t.Errorf("LogLevel() = %v, erwartet %v", got, v)
			}
		})
	}
}

func TestNumParallel(t *testing.T) {
	cases := map[string]int{
		"":        runtime.GOMAXPROCS(0),
		"0":       runtime.GOMAXPROCS(0),
		"3":       3,
		"invalid": runtime.GOMAXPROCS(0),
	}

	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("OLLAMA_NUM_PARALLEL", k)
			if got := NumParallel(); got != v {
				t.Errorf("NumParallel() = %d, erwartet %d", got, v)
			}
		})
	}
}

func TestVar(t *testing.T) {
	cases := map[string]string{
		"value":       "value",
		" value ":     "value",
		` "value" `:   "value",
		` 'value' `:   "value",
		`"' value '"`: " value ",
	}

	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("OLLAMA_VAR", k)
			if s := Var("OLLAMA_VAR"); s != v {
				t.Errorf("Var() = %q, erwartet %q", s, v)
			}
		})
	}
}

func TestValues(t *testing.T) {
	t.Setenv("OLLAMA_TOKENIZER", "/models/tokenizer.json")
	t.Setenv("OLLAMA_CHUNK_SIZE", "4")

	vals := Values()
	if vals["OLLAMA_TOKENIZER"] != "/models/tokenizer.json" {
		t.Errorf("OLLAMA_TOKENIZER = %q", vals["OLLAMA_TOKENIZER"])
	}
	if vals["OLLAMA_CHUNK_SIZE"] != "4" {
		t.Errorf("OLLAMA_CHUNK_SIZE = %q", vals["OLLAMA_CHUNK_SIZE"])
	}
	if len(vals) != len(AsMap()) {
		t.Errorf("Values() hat %d Eintraege, AsMap() %d", len(vals), len(AsMap()))
	}
}
