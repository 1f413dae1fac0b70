package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/textstream/tokenizer"
)

// byteLevelRune bildet ein Byte wie GPT-2 auf ein druckbares Zeichen ab
func byteLevelRune(b int) rune {
	switch {
	case b >= '!' && b <= '~', b >= 0xa1 && b <= 0xac, b >= 0xae:
		return rune(b)
	case b <= ' ':
		return rune(0x100 + b)
	case b <= 0xa0:
		return rune(0x100 + 33 + b - 0x7f)
	default:
		return 0x143
	}
}

// writeTokenizer schreibt einen Byte-Level Tokenizer (ID b = Byte b) mit
// <|endoftext|> = 256 als vocab.json + merges.txt nach dir
func writeTokenizer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	vocab := make(map[string]int32, 256)
	for b := range 256 {
		vocab[string(byteLevelRune(b))] = int32(b)
	}

	write := func(name string, v any) {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	write("vocab.json", vocab)
	write("added_tokens.json", map[string]int32{"<|endoftext|>": 256})
	write("config.json", map[string]any{"eos_token_id": 256})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "merges.txt"), []byte("#version: 0.2\n"), 0o644))

	return dir
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"OLLAMA_TOKENIZER", "OLLAMA_ENCODING", "OLLAMA_STOP", "OLLAMA_CHUNK_SIZE", "OLLAMA_VERBOSE", "OLLAMA_NUM_PARALLEL"} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cli := NewCLI()
	cli.SetArgs(args)
	cli.SetIn(strings.NewReader(stdin))
	cli.SetOut(&stdout)
	cli.SetErr(&stderr)

	err := cli.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEncodeDecode(t *testing.T) {
	clearEnv(t)
	dir := writeTokenizer(t)

	ids, _, err := run(t, "", "encode", "--tokenizer", dir, "héllo 世界")
	require.NoError(t, err)

	var parsed []int32
	require.NoError(t, json.Unmarshal([]byte(ids), &parsed))
	assert.Len(t, parsed, len("héllo 世界"))

	for _, chunk := range []string{"1", "2", "7"} {
		t.Run("chunk "+chunk, func(t *testing.T) {
			out, _, err := run(t, ids, "decode", "--tokenizer", dir, "--chunk", chunk)
			require.NoError(t, err)
			assert.Equal(t, "héllo 世界", out)
		})
	}
}

func TestEncodeText(t *testing.T) {
	clearEnv(t)
	dir := writeTokenizer(t)

	out, _, err := run(t, "\xef\xbb\xbfhi", "encode", "--tokenizer", dir, "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "104 105\n", out)

	_, _, err = run(t, "", "encode", "--tokenizer", dir, "--format", "xml", "x")
	assert.ErrorContains(t, err, "unknown format")
}

func TestDecodeStop(t *testing.T) {
	clearEnv(t)
	dir := writeTokenizer(t)

	ids := "104 101 108 108 111 32 83 84 79 80 32 119"

	out, stderr, err := run(t, ids, "decode", "--tokenizer", dir, "--stop", "STOP", "--verbose")
	require.NoError(t, err)
	assert.Equal(t, "hello ", out)
	assert.Contains(t, stderr, "done: stop (\"STOP\")")

	// Default Stop-Strings aus der Umgebung
	t.Setenv("OLLAMA_STOP", "llo")
	out, _, err = run(t, ids, "decode", "--tokenizer", dir)
	require.NoError(t, err)
	assert.Equal(t, "he", out)
}

func TestDecodeEOS(t *testing.T) {
	clearEnv(t)
	dir := writeTokenizer(t)

	out, _, err := run(t, "[104, 105, 256, 33]", "decode", "--tokenizer", dir, "--eos")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	out, _, err = run(t, "[104, 105, 256, 33]", "decode", "--tokenizer", dir)
	require.NoError(t, err)
	assert.Equal(t, "hi<|endoftext|>!", out)
}

func TestDecodeFiles(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_NUM_PARALLEL", "2")
	dir := writeTokenizer(t)

	inputs := []string{"[97]", "[98, 99]", "[100]"}
	var files []string
	for i, in := range inputs {
		name := filepath.Join(t.TempDir(), "tokens"+string(rune('0'+i))+".json")
		require.NoError(t, os.WriteFile(name, []byte(in), 0o644))
		files = append(files, name)
	}

	out, _, err := run(t, "", append([]string{"decode", "--tokenizer", dir}, files...)...)
	require.NoError(t, err)

	want := "==> " + files[0] + " <==\na\n==> " + files[1] + " <==\nbc\n==> " + files[2] + " <==\nd"
	assert.Equal(t, want, out)
}

func TestDecodeErrors(t *testing.T) {
	clearEnv(t)
	dir := writeTokenizer(t)

	_, _, err := run(t, "[104, 9999]", "decode", "--tokenizer", dir)
	assert.ErrorIs(t, err, tokenizer.ErrInvalidToken)

	_, _, err = run(t, "1 two 3", "decode", "--tokenizer", dir)
	assert.ErrorContains(t, err, `invalid token id "two"`)

	_, _, err = run(t, "1", "decode", "--tokenizer", dir, "--chunk", "0")
	assert.ErrorContains(t, err, "invalid chunk size")

	_, _, err = run(t, "1", "decode")
	assert.ErrorIs(t, err, errNoTokenizer)

	_, _, err = run(t, "", "decode", "--tokenizer", dir, filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStop(t *testing.T) {
	clearEnv(t)

	cases := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"cut", "abc STOP def", []string{"--stop", "STOP", "--chunk", "2"}, "abc "},
		{"positional", "abc STOP def", []string{"STOP"}, "abc "},
		{"no match", "abc ST", []string{"--stop", "STOP"}, "abc ST"},
		{"bom", "\xef\xbb\xbfhi<end>x", []string{"--stop", "<end>", "--chunk", "3"}, "hi"},
		{"multibyte", "你好。再见", []string{"--stop", "。"}, "你好"},
		{"pass through", "plain text\n", nil, "plain text\n"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.stdin, append([]string{"stop"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_STOP", "END")

	out, _, err := run(t, "", "env")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "OLLAMA_TOKENIZER")
	assert.Contains(t, out, "[END]")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "textstream version is "+Version+"\n", out)
}

func TestParseTokenIDs(t *testing.T) {
	cases := []struct {
		in   string
		want []int32
	}{
		{"", nil},
		{"  \n", nil},
		{"[1,2,3]", []int32{1, 2, 3}},
		{"[]", []int32{}},
		{"1 2\n3", []int32{1, 2, 3}},
		{"1, 2,3", []int32{1, 2, 3}},
	}

	for _, tt := range cases {
		got, err := parseTokenIDs([]byte(tt.in))
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseTokenIDs([]byte("[1,"))
	assert.Error(t, err)

	_, err = parseTokenIDs([]byte("99999999999"))
	assert.Error(t, err)
}
