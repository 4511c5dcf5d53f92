// Package tfidf implements the n-gram TF-IDF text vectorizer. A Vectorizer is
// fitted once on a training corpus and is read-only afterwards: Transform
// never grows the vocabulary, terms unseen at fit time are ignored.
package tfidf

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

// ErrEmptyVocabulary is returned by Fit when no term survives tokenization
var ErrEmptyVocabulary = errors.New("empty vocabulary; corpus only contains stop words")

// Config controls tokenization and vocabulary selection
type Config struct {
	NGramMin    int      `yaml:"ngram_min"`
	NGramMax    int      `yaml:"ngram_max"`
	MaxFeatures int      `yaml:"max_features"`
	StopWords   []string `yaml:"stop_words"`
}

// DefaultConfig returns unigrams to trigrams, 2000 features and the English
// stop list.
func DefaultConfig() Config {
	return Config{
		NGramMin:    1,
		NGramMax:    3,
		MaxFeatures: 2000,
		StopWords:   EnglishStopWords,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.NGramMin < 1 || c.NGramMax < c.NGramMin {
		return fmt.Errorf("invalid n-gram range [%d, %d]", c.NGramMin, c.NGramMax)
	}
	if c.MaxFeatures < 1 {
		return fmt.Errorf("max_features must be positive, got %d", c.MaxFeatures)
	}
	return nil
}

// Vectorizer is a fitted TF-IDF transform. Column j corresponds to Terms[j];
// terms are sorted so the column order is a pure function of the vocabulary.
type Vectorizer struct {
	Config Config
	Terms  []string
	IDF    []float64

	index     map[string]int
	stopWords map[string]struct{}
}

// Fit learns the vocabulary and inverse document frequencies of a corpus.
// The vocabulary keeps the MaxFeatures terms with the highest corpus
// frequency; ties are broken alphabetically.
func Fit(corpus []string, cfg Config) (*Vectorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	v := &Vectorizer{Config: cfg}
	v.buildStopWords()

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range corpus {
		counts := v.countTerms(doc)
		for term, c := range counts {
			termFreq[term] += c
			docFreq[term]++
		}
	}
	if len(termFreq) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		fi, fj := termFreq[terms[i]], termFreq[terms[j]]
		if fi != fj {
			return fi > fj
		}
		return terms[i] < terms[j]
	})
	if len(terms) > cfg.MaxFeatures {
		terms = terms[:cfg.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	v.Terms = terms
	v.IDF = make([]float64, len(terms))
	for j, term := range terms {
		v.IDF[j] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	v.buildIndex()

	return v, nil
}

// Width is the number of columns Transform emits
func (v *Vectorizer) Width() int {
	return len(v.Terms)
}

// Transform maps one text onto the fitted vocabulary. The row is
// L2-normalised; a text without known terms yields an empty vector.
func (v *Vectorizer) Transform(text string) domain.SparseVector {
	counts := v.countTerms(text)

	var out domain.SparseVector
	for term := range counts {
		j, ok := v.index[term]
		if !ok {
			continue
		}
		out.Indices = append(out.Indices, j)
	}
	if len(out.Indices) == 0 {
		return out
	}
	sort.Ints(out.Indices)

	out.Values = make([]float64, len(out.Indices))
	var norm float64
	for k, j := range out.Indices {
		w := float64(counts[v.Terms[j]]) * v.IDF[j]
		out.Values[k] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for k := range out.Values {
		out.Values[k] /= norm
	}
	return out
}

// TransformBatch transforms every text in order
func (v *Vectorizer) TransformBatch(texts []string) []domain.SparseVector {
	out := make([]domain.SparseVector, len(texts))
	for i, text := range texts {
		out[i] = v.Transform(text)
	}
	return out
}

// countTerms returns n-gram counts for one document after stop-word removal
func (v *Vectorizer) countTerms(doc string) map[string]int {
	tokens := v.tokenize(doc)
	counts := make(map[string]int, len(tokens)*v.Config.NGramMax)
	for n := v.Config.NGramMin; n <= v.Config.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			counts[strings.Join(tokens[i:i+n], " ")]++
		}
	}
	return counts
}

// tokenize lower-cases the text and splits it into runs of word characters.
// Runs shorter than two characters and stop words are dropped.
func (v *Vectorizer) tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		current.Reset()
		if utf8.RuneCountInString(word) < 2 {
			return
		}
		if _, stop := v.stopWords[word]; stop {
			return
		}
		tokens = append(tokens, word)
	}

	for _, r := range text {
		if isWordRune(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_'
}

func (v *Vectorizer) buildStopWords() {
	v.stopWords = make(map[string]struct{}, len(v.Config.StopWords))
	for _, w := range v.Config.StopWords {
		v.stopWords[strings.ToLower(w)] = struct{}{}
	}
}

func (v *Vectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.Terms))
	for j, term := range v.Terms {
		v.index[term] = j
	}
}

// MarshalBinary encodes the fitted vectorizer with gob
func (v *Vectorizer) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(struct {
		Config Config
		Terms  []string
		IDF    []float64
	}{v.Config, v.Terms, v.IDF}); err != nil {
		return nil, fmt.Errorf("encode vectorizer: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a vectorizer written by MarshalBinary
func (v *Vectorizer) UnmarshalBinary(data []byte) error {
	var decoded struct {
		Config Config
		Terms  []string
		IDF    []float64
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
		return fmt.Errorf("decode vectorizer: %w", err)
	}
	if err := decoded.Config.Validate(); err != nil {
		return fmt.Errorf("decode vectorizer: %w", err)
	}
	if len(decoded.Terms) == 0 || len(decoded.Terms) != len(decoded.IDF) {
		return fmt.Errorf("decode vectorizer: %d terms but %d idf weights", len(decoded.Terms), len(decoded.IDF))
	}
	if !sort.StringsAreSorted(decoded.Terms) {
		return fmt.Errorf("decode vectorizer: terms are not sorted")
	}

	v.Config = decoded.Config
	v.Terms = decoded.Terms
	v.IDF = decoded.IDF
	v.buildStopWords()
	v.buildIndex()
	return nil
}
