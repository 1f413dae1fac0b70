package streamer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/ollama/textstream/tokenizer"
)

var errUnknownToken = errors.New("unknown token")

// pieceDecoder bildet Token i auf pieces[i] ab
type pieceDecoder [][]byte

func (d pieceDecoder) Decode(ids []int32) ([]byte, error) {
	var out []byte
	for _, id := range ids {
		if id < 0 || int(id) >= len(d) {
			return nil, fmt.Errorf("%w: %d", errUnknownToken, id)
		}
		out = append(out, d[id]...)
	}
	return out, nil
}

// byteDecoder: Token b ist das Byte b
func byteDecoder() pieceDecoder {
	d := make(pieceDecoder, 256)
	for b := range 256 {
		d[b] = []byte{byte(b)}
	}
	return d
}

func byteIDs(s string) []int32 {
	ids := make([]int32, len(s))
	for i := range len(s) {
		ids[i] = int32(s[i])
	}
	return ids
}

func TestTextStreamer(t *testing.T) {
	cases := []struct {
		name   string
		puts   [][]int32
		want   []string
		finish string
	}{
		{
			name: "ascii",
			puts: [][]int32{byteIDs("Hello"), byteIDs(" world")},
			want: []string{"Hello", " world"},
		},
		{
			name: "split codepoint",
			puts: [][]int32{byteIDs("a"), {0xe4}, {0xb8}, {0xad}, byteIDs("b")},
			want: []string{"a", "", "", "中", "b"},
		},
		{
			name: "split emoji",
			puts: [][]int32{{0xf0, 0x9f}, {0x98}, {0x80, '!'}},
			want: []string{"", "", "😀!"},
		},
		{
			name: "complete and partial in one delta",
			puts: [][]int32{{'x', 0xe4, 0xb8, 0xad, 0xe4}, {0xb8, 0xad}},
			want: []string{"x中", "中"},
		},
		{
			name: "empty delta",
			puts: [][]int32{{}, byteIDs("a"), nil},
			want: []string{"", "a", ""},
		},
		{
			name: "invalid byte",
			puts: [][]int32{{0xff}, byteIDs("a")},
			want: []string{"�", "a"},
		},
		{
			name: "orphan continuation after flush",
			puts: [][]int32{{0xe4, 0xb8, 0xad}, {0x80}},
			want: []string{"中", "�"},
		},
		{
			name:   "pending at finish",
			puts:   [][]int32{byteIDs("ab"), {0xe4}},
			want:   []string{"ab", ""},
			finish: "�",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTextStreamer(byteDecoder())

			var got []string
			for _, delta := range tt.puts {
				text, err := s.Put(delta)
				if err != nil {
					t.Fatal(err)
				}
				got = append(got, text)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Put (-want +got):\n%s", diff)
			}

			finish, err := s.Finish()
			if err != nil {
				t.Fatal(err)
			}
			if finish != tt.finish {
				t.Errorf("Finish = %q, erwartet %q", finish, tt.finish)
			}

			if s.Window() != 0 {
				t.Errorf("Window nach Finish = %d", s.Window())
			}
		})
	}
}

func TestTextStreamerFinishTruncated(t *testing.T) {
	s := NewTextStreamer(byteDecoder())

	if text, _ := s.Put([]int32{0xe4, 0xb8}); text != "" {
		t.Fatalf("Put = %q, erwartet leer", text)
	}

	text, err := s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(text) || !strings.Contains(text, "�") {
		t.Errorf("Finish = %q, erwartet U+FFFD", text)
	}

	// nach Finish beginnt eine neue Sequenz
	if text, _ := s.Put(byteIDs("x")); text != "x" {
		t.Errorf("Put nach Finish = %q, erwartet \"x\"", text)
	}
}

func TestTextStreamerDecodeError(t *testing.T) {
	s := NewTextStreamer(byteDecoder())

	if _, err := s.Put([]int32{0xe4}); err != nil {
		t.Fatal(err)
	}

	_, err := s.Put([]int32{0xb8, 999})
	if !errors.Is(err, errUnknownToken) {
		t.Fatalf("Put = %v, erwartet errUnknownToken", err)
	}

	// das fehlerhafte Delta wurde verworfen, der offene Zustand bleibt
	text, err := s.Put([]int32{0xb8, 0xad})
	if err != nil {
		t.Fatal(err)
	}
	if text != "中" {
		t.Errorf("Put = %q, erwartet \"中\"", text)
	}
}

func TestTextStreamerWindow(t *testing.T) {
	s := NewTextStreamer(byteDecoder())

	for _, id := range byteIDs(strings.Repeat("中文", 16)) {
		if _, err := s.Put([]int32{id}); err != nil {
			t.Fatal(err)
		}

		if s.Window() > utf8.UTFMax+1 {
			t.Fatalf("Window = %d, erwartet hoechstens %d", s.Window(), utf8.UTFMax+1)
		}
	}

	if _, err := s.Put(byteIDs("done")); err != nil {
		t.Fatal(err)
	}
	if s.Window() != 1 {
		t.Errorf("Window = %d, erwartet 1", s.Window())
	}
}

func TestTextStreamerWindowEmptyTokens(t *testing.T) {
	// Token 0 dekodiert zu keinem Byte (Steuer-Token)
	s := NewTextStreamer(pieceDecoder{{}, []byte("\xe4"), []byte("\xb8\xad")})

	if text, err := s.Put([]int32{1}); err != nil || text != "" {
		t.Fatalf("Put = %q, %v", text, err)
	}

	for range 100 {
		if text, err := s.Put([]int32{0}); err != nil || text != "" {
			t.Fatalf("Put = %q, %v", text, err)
		}
	}
	if s.Window() > utf8.UTFMax+1 {
		t.Fatalf("Window = %d nach leeren Tokens", s.Window())
	}

	if text, err := s.Put(append(slices.Repeat([]int32{0}, 50), 2)); err != nil || text != "中" {
		t.Fatalf("Put = %q, %v, erwartet \"中\"", text, err)
	}
	if s.Window() != 1 {
		t.Errorf("Window = %d, erwartet 1", s.Window())
	}
}

func TestTextStreamerSentencePiece(t *testing.T) {
	tok, err := tokenizer.New(tokenizer.TypeSentencePiece, []string{"<unk>", "▁hello", "▁world", "<0xE4>", "<0xB8>", "<0xAD>", "!"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	s := NewTextStreamer(tok)

	var sb strings.Builder
	for _, id := range []int32{1, 2, 6, 3, 4, 5, 1} {
		text, err := s.Put([]int32{id})
		if err != nil {
			t.Fatal(err)
		}
		sb.WriteString(text)
	}

	rest, err := s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	sb.WriteString(rest)

	if got, want := sb.String(), "hello world!中 hello"; got != want {
		t.Errorf("stream = %q, erwartet %q", got, want)
	}
}

func TestTextStreamerInvalidTokenFromTokenizer(t *testing.T) {
	tok, err := tokenizer.New(tokenizer.TypeBPE, []string{"a", "b"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	s := NewTextStreamer(tok)
	if _, err := s.Put([]int32{0, 7}); !errors.Is(err, tokenizer.ErrInvalidToken) {
		t.Errorf("Put = %v, erwartet ErrInvalidToken", err)
	}
}

// splitPieces zerlegt s an zufaelligen Byte-Positionen in Tokens
func splitPieces(t *rapid.T, s string) (pieceDecoder, []int32) {
	var dec pieceDecoder
	var ids []int32
	for len(s) > 0 {
		n := rapid.IntRange(1, min(6, len(s))).Draw(t, "piece")
		ids = append(ids, int32(len(dec)))
		dec = append(dec, []byte(s[:n]))
		s = s[n:]
	}
	return dec, ids
}

// drawDeltas gruppiert ids in zufaellige Deltas, auch leere
func drawDeltas(t *rapid.T, ids []int32) [][]int32 {
	var deltas [][]int32
	for len(ids) > 0 {
		if rapid.Bool().Draw(t, "empty") {
			deltas = append(deltas, nil)
		}

		n := rapid.IntRange(1, min(4, len(ids))).Draw(t, "delta")
		deltas = append(deltas, ids[:n])
		ids = ids[n:]
	}
	return deltas
}

func TestTextStreamerRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		dec, ids := splitPieces(t, text)

		s := NewTextStreamer(dec)

		var sb strings.Builder
		for _, delta := range drawDeltas(t, ids) {
			out, err := s.Put(delta)
			if err != nil {
				t.Fatal(err)
			}

			if !utf8.ValidString(out) {
				t.Fatalf("Put(%v) = %q, kein gueltiges UTF-8", delta, out)
			}

			if s.Window() > utf8.UTFMax+1 {
				t.Fatalf("Window = %d nach Delta %v", s.Window(), delta)
			}

			sb.WriteString(out)
		}

		rest, err := s.Finish()
		if err != nil {
			t.Fatal(err)
		}
		sb.WriteString(rest)

		if sb.String() != text {
			t.Fatalf("stream = %q, erwartet %q", sb.String(), text)
		}
	})
}

func TestTextStreamerArbitraryBytes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "data")
		dec, ids := splitPieces(t, string(data))

		s := NewTextStreamer(dec)
		for _, delta := range drawDeltas(t, ids) {
			out, err := s.Put(delta)
			if err != nil {
				t.Fatal(err)
			}
			if !utf8.ValidString(out) {
				t.Fatalf("Put(%v) = %q, kein gueltiges UTF-8", delta, out)
			}
		}

		rest, err := s.Finish()
		if err != nil {
			t.Fatal(err)
		}
		if !utf8.ValidString(rest) {
			t.Fatalf("Finish = %q, kein gueltiges UTF-8", rest)
		}
	})
}
