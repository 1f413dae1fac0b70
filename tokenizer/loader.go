// loader.go - Tokenizer Laden und Parsen (tokenizer.json Format)
//
// Enthaelt:
// - Load: Laedt aus Datei oder Verzeichnis
// - LoadFromBytes, LoadFromBytesWithConfig: Laden aus Byte-Slices
// - loadFromTokenizerJSON: Parst tokenizer.json Format
// - detectSentencePiece, extractPretokenizer
//
// Siehe auch: loader_vocab.go fuer GPT-style vocab.json + merges.txt

package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFromBytes laedt einen Tokenizer aus tokenizer.json Bytes, ohne
// Begleitdateien
func LoadFromBytes(data []byte) (*Tokenizer, error) {
	return LoadFromBytesWithConfig(data, nil)
}

// LoadFromBytesWithConfig laedt einen Tokenizer aus tokenizer.json Bytes und
// wendet die Special Token Konfiguration aus config an
func LoadFromBytesWithConfig(data []byte, config *Config) (*Tokenizer, error) {
	t, err := loadFromTokenizerJSON(data)
	if err != nil {
		return nil, err
	}

	if config != nil {
		applySpecialTokenConfig(t, config)
	}

	return t, nil
}

// Load laedt einen Tokenizer aus:
// - einer tokenizer.json Datei
// - einem Verzeichnis mit tokenizer.json oder vocab.json + merges.txt
//
// Begleitdateien (generation_config.json, tokenizer_config.json, ...) im
// selben Verzeichnis werden fuer BOS/EOS ausgewertet.
func Load(path string) (*Tokenizer, error) {
	dir := filepath.Dir(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		dir = path
		data, err := os.ReadFile(filepath.Join(dir, "tokenizer.json"))
		if err != nil {
			return LoadVocabMerges(dir)
		}
		return loadWithCompanions(data, dir)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer: %w", err)
	}

	return loadWithCompanions(data, dir)
}

func loadWithCompanions(data []byte, dir string) (*Tokenizer, error) {
	t, err := loadFromTokenizerJSON(data)
	if err != nil {
		return nil, err
	}

	applySpecialTokenConfig(t, readConfig(dir))
	return t, nil
}

// loadFromTokenizerJSON parst eine tokenizer.json Datei
func loadFromTokenizerJSON(data []byte) (*Tokenizer, error) {
	var raw struct {
		Model struct {
			Type   string           `json:"type"` // "BPE" oder "WordPiece"
			Vocab  map[string]int32 `json:"vocab"`
			Merges json.RawMessage  `json:"merges"` // []string oder [][]string (nur BPE)
		} `json:"model"`
		PreTokenizer json.RawMessage `json:"pre_tokenizer"`
		Decoder      json.RawMessage `json:"decoder"`
		AddedTokens  []struct {
			ID      int32  `json:"id"`
			Content string `json:"content"`
			Special bool   `json:"special"`
		} `json:"added_tokens"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer: %w", err)
	}

	// Merges: []string (Llama) oder [][]string (GPT-OSS), WordPiece hat keine
	var merges []string
	if raw.Model.Type != "WordPiece" && len(raw.Model.Merges) > 0 {
		if err := json.Unmarshal(raw.Model.Merges, &merges); err != nil {
			var pairs [][]string
			if err := json.Unmarshal(raw.Model.Merges, &pairs); err != nil {
				return nil, fmt.Errorf("failed to parse merges: %w", err)
			}

			merges = make([]string, 0, len(pairs))
			for _, pair := range pairs {
				if len(pair) != 2 {
					return nil, fmt.Errorf("failed to parse merges: invalid pair %q", pair)
				}
				merges = append(merges, pair[0]+" "+pair[1])
			}
		}
	}

	t := &Tokenizer{
		vocab: &Vocabulary{
			Values:  make([]string, len(raw.Model.Vocab)),
			Reverse: raw.Model.Vocab,
			Merges:  make(map[string]int, len(merges)),
			BOS:     -1,
			PAD:     -1,
		},
		specialTokens: make(map[string]int32),
		special:       make(map[int32]bool),
		unkToken:      -1,
	}

	for token, id := range raw.Model.Vocab {
		t.setValue(id, token)
	}

	for i, merge := range merges {
		t.vocab.Merges[merge] = i
	}

	for _, tok := range raw.AddedTokens {
		t.setValue(tok.ID, tok.Content)
		t.vocab.Reverse[tok.Content] = tok.ID
		t.specialTokens[tok.Content] = tok.ID
		t.special[tok.ID] = true
	}

	switch {
	case raw.Model.Type == "WordPiece":
		t.typ = TypeWordPiece
	case detectSentencePiece(raw.Decoder):
		t.typ = TypeSentencePiece
	default:
		t.typ = TypeBPE
	}

	if err := t.init(extractPretokenizer(raw.PreTokenizer)); err != nil {
		return nil, err
	}

	return t, nil
}

// setValue traegt token unter id ein und vergroessert Values bei Bedarf
func (t *Tokenizer) setValue(id int32, token string) {
	if id < 0 {
		return
	}

	if int(id) >= len(t.vocab.Values) {
		values := make([]string, id+1)
		copy(values, t.vocab.Values)
		t.vocab.Values = values
	}
	t.vocab.Values[id] = token
}

// detectSentencePiece prueft ob der Decoder ▁ fuer Leerzeichen verwendet
func detectSentencePiece(data json.RawMessage) bool {
	if data == nil {
		return false
	}

	var dec struct {
		Type     string `json:"type"`
		Decoders []struct {
			Type    string `json:"type"`
			Pattern struct {
				String string `json:"String"`
			} `json:"pattern"`
		} `json:"decoders"`
	}
	if err := json.Unmarshal(data, &dec); err != nil {
		return false
	}

	switch dec.Type {
	case "Metaspace":
		return true
	case "Sequence":
		for _, d := range dec.Decoders {
			if d.Type == "Replace" && d.Pattern.String == "▁" {
				return true
			}
		}
	}

	return false
}

// initByteTokens berechnet die IDs der <0xNN> Fallback-Tokens
func initByteTokens(t *Tokenizer) {
	for i := range t.vocab.byteTokens {
		t.vocab.byteTokens[i] = -1
	}
	for b := range 256 {
		if id, ok := t.vocab.Reverse[fmt.Sprintf("<0x%02X>", b)]; ok {
			t.vocab.byteTokens[b] = id
		}
	}
}

// extractPretokenizer liest das Regex-Muster aus der pre_tokenizer Konfiguration
func extractPretokenizer(data json.RawMessage) string {
	if data == nil {
		return ""
	}

	var single struct {
		Type    string `json:"type"`
		Pattern struct {
			Regex string `json:"Regex"`
		} `json:"pattern"`
	}
	if err := json.Unmarshal(data, &single); err == nil && single.Pattern.Regex != "" {
		return single.Pattern.Regex
	}

	// Sequence von Pretokenizern: erstes Split-Muster verwenden
	var seq struct {
		Type          string `json:"type"`
		Pretokenizers []struct {
			Type    string `json:"type"`
			Pattern struct {
				Regex string `json:"Regex"`
			} `json:"pattern"`
		} `json:"pretokenizers"`
	}
	if err := json.Unmarshal(data, &seq); err == nil && seq.Type == "Sequence" {
		for _, pt := range seq.Pretokenizers {
			if pt.Type == "Split" && pt.Pattern.Regex != "" {
				return pt.Pattern.Regex
			}
		}
	}

	return ""
}
