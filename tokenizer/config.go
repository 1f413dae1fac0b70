// config.go - Laden von Special Token Konfiguration
//
// Enthaelt:
// - Config: Inhalt der HuggingFace Begleitdateien
// - readConfig: Liest die Begleitdateien aus einem Verzeichnis
// - applySpecialTokenConfig: Setzt BOS/EOS/PAD nach Prioritaet
// - extractTokenString: Extrahiert Token-Strings aus verschiedenen JSON-Formaten

package tokenizer

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config enthaelt die Begleitdateien eines Tokenizers. Leere Felder werden
// uebersprungen.
type Config struct {
	GenerationConfigJSON []byte // generation_config.json
	ConfigJSON           []byte // config.json
	TokenizerConfigJSON  []byte // tokenizer_config.json
	SpecialTokensMapJSON []byte // special_tokens_map.json
}

func readConfig(dir string) *Config {
	read := func(name string) []byte {
		data, _ := os.ReadFile(filepath.Join(dir, name))
		return data
	}

	return &Config{
		GenerationConfigJSON: read("generation_config.json"),
		ConfigJSON:           read("config.json"),
		TokenizerConfigJSON:  read("tokenizer_config.json"),
		SpecialTokensMapJSON: read("special_tokens_map.json"),
	}
}

// parseTokenIDs liest eos_token_id/bos_token_id, die int oder []int sein koennen
func parseTokenIDs(v any) []int32 {
	switch val := v.(type) {
	case float64:
		return []int32{int32(val)}
	case []any:
		ids := make([]int32, 0, len(val))
		for _, id := range val {
			if f, ok := id.(float64); ok {
				ids = append(ids, int32(f))
			}
		}
		return ids
	}
	return nil
}

// applySpecialTokenConfig setzt Special Tokens in dieser Prioritaet:
//  1. generation_config.json - eos_token_id (entspricht HuggingFace generate)
//  2. config.json - eos_token_id
//  3. tokenizer_config.json - Token-Strings + add_bos/add_eos
//  4. special_tokens_map.json
func applySpecialTokenConfig(t *Tokenizer, config *Config) {
	for _, data := range [][]byte{config.GenerationConfigJSON, config.ConfigJSON} {
		if len(data) == 0 {
			continue
		}

		var ids struct {
			EOSTokenID any `json:"eos_token_id"`
			BOSTokenID any `json:"bos_token_id"`
		}
		if err := json.Unmarshal(data, &ids); err != nil {
			continue
		}

		if len(t.vocab.EOS) == 0 {
			t.vocab.EOS = parseTokenIDs(ids.EOSTokenID)
		}
		if t.vocab.BOS < 0 {
			if bos := parseTokenIDs(ids.BOSTokenID); len(bos) > 0 {
				t.vocab.BOS = bos[0]
			}
		}
	}

	for _, data := range [][]byte{config.TokenizerConfigJSON, config.SpecialTokensMapJSON} {
		if len(data) == 0 {
			continue
		}

		var tokens struct {
			BOSToken    any   `json:"bos_token"`
			EOSToken    any   `json:"eos_token"`
			PADToken    any   `json:"pad_token"`
			AddBOSToken *bool `json:"add_bos_token"`
			AddEOSToken *bool `json:"add_eos_token"`
		}
		if err := json.Unmarshal(data, &tokens); err != nil {
			continue
		}

		if id, ok := t.lookupSpecial(tokens.BOSToken); ok && t.vocab.BOS < 0 {
			t.vocab.BOS = id
		}
		if id, ok := t.lookupSpecial(tokens.EOSToken); ok && len(t.vocab.EOS) == 0 {
			t.vocab.EOS = []int32{id}
		}
		if id, ok := t.lookupSpecial(tokens.PADToken); ok && t.vocab.PAD < 0 {
			t.vocab.PAD = id
		}
		if tokens.AddBOSToken != nil {
			t.vocab.AddBOS = *tokens.AddBOSToken
		}
		if tokens.AddEOSToken != nil {
			t.vocab.AddEOS = *tokens.AddEOSToken
		}
	}
}

func (t *Tokenizer) lookupSpecial(v any) (int32, bool) {
	s := extractTokenString(v)
	if s == "" {
		return -1, false
	}

	id, ok := t.specialTokens[s]
	return id, ok
}

// extractTokenString extrahiert den Token-String aus HuggingFace Konfigurationen:
//   - string: "token"
//   - object: {"content": "token", ...}
func extractTokenString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if content, ok := val["content"].(string); ok {
			return content
		}
	}
	return ""
}
