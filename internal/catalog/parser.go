package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

// UnknownBrand is returned when no brand can be resolved
const UnknownBrand = "Unknown"

// DefaultItemQuantity is returned when no quantity marker is present
const DefaultItemQuantity = 1

// Compiled regex patterns for catalog parsing
var (
	// Leading label such as "Item Name:", "Product:", "Description -".
	// Applied to lower-cased text; the label must be followed by a
	// separator so that "itemized" or "products" are left alone.
	labelPrefixPattern = regexp.MustCompile(`^(?:item\s*name|item|product\s*name|product|description)(?:[:\s-]+|$)`)

	// Quantity marker: "IPQ: 6", "Pack of 12", "Count 24". First match only.
	quantityPattern = regexp.MustCompile(`(?i)(?:IPQ|Pack of|Count)[\s:]*(\d+)`)
)

// Parser maps raw catalog text to ParsedSignals. It holds no mutable state
// and is safe for concurrent use.
type Parser struct {
	brands       []string
	bulkKeywords []string
	junkWords    map[string]struct{}
}

// NewParser creates a parser over the given vocabulary
func NewParser(vocab *Vocabulary) *Parser {
	junk := make(map[string]struct{}, len(vocab.JunkWords))
	for _, w := range vocab.JunkWords {
		junk[strings.ToLower(w)] = struct{}{}
	}
	brands := make([]string, len(vocab.Brands))
	for i, b := range vocab.Brands {
		brands[i] = strings.ToLower(b)
	}
	bulk := make([]string, len(vocab.BulkKeywords))
	for i, k := range vocab.BulkKeywords {
		bulk[i] = strings.ToLower(k)
	}
	return &Parser{
		brands:       brands,
		bulkKeywords: bulk,
		junkWords:    junk,
	}
}

// Parse runs every parser over the text
func (p *Parser) Parse(text string) domain.ParsedSignals {
	return domain.ParsedSignals{
		BrandLabel:   p.Brand(text),
		IsBulk:       p.IsBulk(text),
		ItemQuantity: p.ItemQuantity(text),
	}
}

// Brand resolves the brand label. A known brand contained anywhere in the
// text wins, earliest vocabulary entry first. Otherwise the first token after
// an optional label prefix is guessed, unless it is a junk word or shorter
// than two characters.
func (p *Parser) Brand(text string) string {
	lower := strings.ToLower(text)

	for _, brand := range p.brands {
		if strings.Contains(lower, brand) {
			return titleCase(brand)
		}
	}

	cleaned := labelPrefixPattern.ReplaceAllString(lower, "")
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return UnknownBrand
	}

	candidate := words[0]
	if _, junk := p.junkWords[candidate]; junk || utf8.RuneCountInString(candidate) < 2 {
		return UnknownBrand
	}
	return titleCase(candidate)
}

// IsBulk reports whether the lower-cased text contains any bulk keyword
func (p *Parser) IsBulk(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range p.bulkKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// ItemQuantity returns the integer following the first quantity marker.
// Zero and values that overflow an int fall back to the default.
func (p *Parser) ItemQuantity(text string) int {
	match := quantityPattern.FindStringSubmatch(text)
	if match == nil {
		return DefaultItemQuantity
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 1 {
		return DefaultItemQuantity
	}
	return n
}

// titleCase upper-cases the first letter of every word. Apostrophes do not
// start a new word ("bob's" -> "Bob's").
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := ' '
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.IsLetter(prev) && prev != '\'' {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
