package translate

import (
	"context"
	"sort"
)

// Missing returns the keys of source that target lacks or holds empty,
// sorted.
func Missing(source, target map[string]string) []string {
	var keys []string
	for k := range source {
		if target[k] == "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Fill translates the source values of keys into lang and returns the
// translations by key.
func Fill(ctx context.Context, tr Translator, source map[string]string, keys []string, lang string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	texts := make([]string, len(keys))
	for i, k := range keys {
		texts[i] = source[k]
	}

	translated, err := tr.Translate(ctx, texts, lang)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(keys))
	for i, k := range keys {
		out[k] = translated[i]
	}
	return out, nil
}
