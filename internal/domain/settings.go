package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Settings is a company's configuration document: string keys mapped to
// arbitrary JSON values, kept in insertion order.
//
// Keys are normalized with SettingKey on every access, so "theme" and
// ":theme" address the same entry. The zero value is an empty document.
type Settings struct {
	entries *orderedmap.OrderedMap[string, any]
}

func NewSettings() *Settings {
	return &Settings{entries: orderedmap.New[string, any]()}
}

func (s *Settings) m() *orderedmap.OrderedMap[string, any] {
	if s.entries == nil {
		s.entries = orderedmap.New[string, any]()
	}
	return s.entries
}

// SettingKey is the canonical form of a settings key.
func SettingKey(key string) string {
	key = strings.TrimSpace(key)
	return strings.TrimPrefix(key, ":")
}

// ParseSettings decodes a stored settings document. Empty or malformed input
// yields an empty document.
func ParseSettings(raw string) *Settings {
	s := NewSettings()
	if strings.TrimSpace(raw) == "" || !json.Valid([]byte(raw)) {
		return s
	}

	decoded := orderedmap.New[string, any]()
	if err := json.Unmarshal([]byte(raw), decoded); err != nil {
		return s
	}

	for pair := decoded.Oldest(); pair != nil; pair = pair.Next() {
		s.Set(pair.Key, pair.Value)
	}

	return s
}

func (s *Settings) Get(key string) (any, bool) {
	return s.m().Get(SettingKey(key))
}

// Set assigns value to key, keeping the key's original position if present.
func (s *Settings) Set(key string, value any) {
	s.m().Set(SettingKey(key), value)
}

func (s *Settings) Delete(key string) bool {
	_, ok := s.m().Delete(SettingKey(key))
	return ok
}

func (s *Settings) Len() int {
	return s.m().Len()
}

func (s *Settings) Keys() []string {
	keys := make([]string, 0, s.m().Len())
	for pair := s.m().Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// ToMap copies the document into a plain map.
func (s *Settings) ToMap() map[string]any {
	out := make(map[string]any, s.m().Len())
	for pair := s.m().Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

func (s *Settings) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.m())
	if err != nil {
		return nil, fmt.Errorf("domain.Settings.MarshalJSON: %w", err)
	}
	return data, nil
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	decoded := orderedmap.New[string, any]()
	if err := json.Unmarshal(data, decoded); err != nil {
		return fmt.Errorf("domain.Settings.UnmarshalJSON: %w", err)
	}

	s.entries = orderedmap.New[string, any]()
	for pair := decoded.Oldest(); pair != nil; pair = pair.Next() {
		s.Set(pair.Key, pair.Value)
	}
	return nil
}
