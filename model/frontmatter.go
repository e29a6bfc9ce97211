package model

import (
	"strings"
)

// Field is a single front matter key with its display value.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FrontMatter keeps fields in document order.
type FrontMatter []Field

func (fm FrontMatter) Len() int {
	return len(fm)
}

func (fm FrontMatter) Keys() []string {
	keys := make([]string, 0, len(fm))
	for _, f := range fm {
		keys = append(keys, f.Key)
	}
	return keys
}

// Get returns value of the first field with the key.
func (fm FrontMatter) Get(key string) (string, bool) {
	for _, f := range fm {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}
