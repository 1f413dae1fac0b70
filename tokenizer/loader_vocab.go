// loader_vocab.go - GPT-Style Tokenizer Laden (vocab.json + merges.txt)
//
// Enthaelt:
// - LoadVocabMerges: Laedt GPT-2 Format aus separaten Dateien

package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GPT-2/tiktoken Pretokenizer fuer vocab.json + merges.txt
const gpt2Pretokenizer = `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`

// LoadVocabMerges laedt einen Byte-Level BPE Tokenizer aus dir/vocab.json und
// dir/merges.txt, optional mit dir/added_tokens.json
func LoadVocabMerges(dir string) (*Tokenizer, error) {
	vocabData, err := os.ReadFile(filepath.Join(dir, "vocab.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read vocab.json: %w", err)
	}

	vocab := make(map[string]int32)
	if err := json.Unmarshal(vocabData, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocab.json: %w", err)
	}

	mergesData, err := os.ReadFile(filepath.Join(dir, "merges.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read merges.txt: %w", err)
	}

	var merges []string
	for _, line := range strings.Split(string(mergesData), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		merges = append(merges, line)
	}

	t := &Tokenizer{
		vocab: &Vocabulary{
			Values:  make([]string, len(vocab)),
			Reverse: vocab,
			Merges:  make(map[string]int, len(merges)),
			BOS:     -1,
			PAD:     -1,
		},
		typ:           TypeBPE,
		specialTokens: make(map[string]int32),
		special:       make(map[int32]bool),
		unkToken:      -1,
	}

	if addedData, err := os.ReadFile(filepath.Join(dir, "added_tokens.json")); err == nil {
		added := make(map[string]int32)
		if err := json.Unmarshal(addedData, &added); err != nil {
			return nil, fmt.Errorf("failed to parse added_tokens.json: %w", err)
		}
		for token, id := range added {
			vocab[token] = id
			t.specialTokens[token] = id
			t.special[id] = true
		}
	}

	for token, id := range vocab {
		t.setValue(id, token)
	}

	for i, merge := range merges {
		t.vocab.Merges[merge] = i
	}

	if err := t.init(gpt2Pretokenizer); err != nil {
		return nil, err
	}

	applySpecialTokenConfig(t, readConfig(dir))
	return t, nil
}
