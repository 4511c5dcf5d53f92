package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the single word-list configuration shared by the text parsers
// and the feature assembler. It is persisted with every trained model: a
// model must always be served with the vocabulary it was trained with.
type Vocabulary struct {
	Version string `yaml:"version"`

	// Brands is ordered. The known-brand scan returns the first entry
	// contained in the text, and the assembler emits one column per entry in
	// this order.
	Brands []string `yaml:"brands"`

	// JunkWords are leading tokens that are never accepted as a guessed brand
	JunkWords []string `yaml:"junk_words"`

	// BulkKeywords mark a listing as a bulk offer when contained in the text
	BulkKeywords []string `yaml:"bulk_keywords"`
}

// DefaultVocabularyVersion identifies the compiled-in vocabulary
const DefaultVocabularyVersion = "2024.1"

// DefaultVocabulary returns the compiled-in vocabulary.
//
// "hp" is absent: a two-letter brand cannot be detected by
// substring containment without matching words like "shampoo".
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Version: DefaultVocabularyVersion,
		Brands: []string{
			"mccormick", "rani", "goya", "frontier", "betty", "starbucks",
			"badia", "amoretti", "bob's", "campbell's", "kraft",
			"gerber", "eden", "lorann", "kirkland", "bigelow", "knorr",
			"kellogg's", "morton", "twinings", "hershey's", "heinz",
			"torani", "celestial", "quaker", "apple", "samsung", "sony",
			"nike", "adidas", "lego", "funko", "disney", "dell",
		},
		JunkWords: []string{
			"the", "a", "new", "pack", "set", "lot", "case", "box", "of", "for",
			"premium", "organic", "fresh", "natural", "large", "small", "blue",
			"red", "black", "white", "green", "gold", "silver", "combo", "pair",
			"food", "item", "generic", "unbranded",
		},
		BulkKeywords: []string{
			"kit", "pallet", "case", "bucket", "pack", "bulk", "servings", "supply", "bottles",
		},
	}
}

// LoadVocabulary reads a vocabulary from a YAML file
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}

	v.normalize()
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return &v, nil
}

// Validate rejects vocabularies that would produce ambiguous feature columns
func (v *Vocabulary) Validate() error {
	seen := make(map[string]struct{}, len(v.Brands))
	for _, b := range v.Brands {
		if b == "" {
			return fmt.Errorf("empty brand entry")
		}
		key := strings.ToLower(b)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate brand %q", b)
		}
		seen[key] = struct{}{}
	}
	for _, k := range v.BulkKeywords {
		if k == "" {
			return fmt.Errorf("empty bulk keyword")
		}
	}
	return nil
}

// Clone returns a deep copy
func (v *Vocabulary) Clone() *Vocabulary {
	return &Vocabulary{
		Version:      v.Version,
		Brands:       append([]string(nil), v.Brands...),
		JunkWords:    append([]string(nil), v.JunkWords...),
		BulkKeywords: append([]string(nil), v.BulkKeywords...),
	}
}

func (v *Vocabulary) normalize() {
	for i, s := range v.Brands {
		v.Brands[i] = strings.ToLower(strings.TrimSpace(s))
	}
	for i, s := range v.JunkWords {
		v.JunkWords[i] = strings.ToLower(strings.TrimSpace(s))
	}
	for i, s := range v.BulkKeywords {
		v.BulkKeywords[i] = strings.ToLower(strings.TrimSpace(s))
	}
}
