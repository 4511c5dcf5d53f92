package catalog

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

// Engineered column names preceding the brand one-hot block
const (
	ColumnIsBulk       = "is_bulk"
	ColumnItemQuantity = "item_quantity"
	brandColumnPrefix  = "brand_"
)

// Assembler turns catalog text into the fixed-width engineered block
// [is_bulk, item_quantity, brand_<b> for b in vocabulary]. The parsed brand
// label itself is not emitted; only its projection onto the vocabulary is.
type Assembler struct {
	parser  *Parser
	brands  []string
	columns []string
}

// NewAssembler creates an assembler over the given vocabulary
func NewAssembler(vocab *Vocabulary) *Assembler {
	brands := make([]string, len(vocab.Brands))
	columns := make([]string, 0, 2+len(vocab.Brands))
	columns = append(columns, ColumnIsBulk, ColumnItemQuantity)
	for i, b := range vocab.Brands {
		brands[i] = strings.ToLower(b)
		columns = append(columns, brandColumnPrefix+brands[i])
	}
	return &Assembler{
		parser:  NewParser(vocab),
		brands:  brands,
		columns: columns,
	}
}

// Parser returns the parser the assembler runs
func (a *Assembler) Parser() *Parser {
	return a.parser
}

// Width is the constant number of columns Assemble emits
func (a *Assembler) Width() int {
	return len(a.columns)
}

// ColumnNames returns the column names in emission order
func (a *Assembler) ColumnNames() []string {
	return append([]string(nil), a.columns...)
}

// Assemble parses the text and encodes the signals
func (a *Assembler) Assemble(text string) []float64 {
	return a.Encode(a.parser.Parse(text))
}

// Encode turns parsed signals into the engineered block
func (a *Assembler) Encode(sig domain.ParsedSignals) []float64 {
	row := make([]float64, len(a.columns))
	if sig.IsBulk {
		row[0] = 1
	}
	row[1] = float64(sig.ItemQuantity)

	label := strings.ToLower(sig.BrandLabel)
	for i, b := range a.brands {
		if label == b {
			row[2+i] = 1
			break
		}
	}
	return row
}

// OneHot returns the brand one-hot block keyed by column name
func (a *Assembler) OneHot(sig domain.ParsedSignals) map[string]float64 {
	row := a.Encode(sig)
	out := make(map[string]float64, len(a.brands))
	for i := range a.brands {
		out[a.columns[2+i]] = row[2+i]
	}
	return out
}

// AssembleBatch assembles every text independently. Output order matches
// input order.
func (a *Assembler) AssembleBatch(ctx context.Context, texts []string) ([][]float64, error) {
	rows := make([][]float64, len(texts))
	if len(texts) == 0 {
		return rows, nil
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(texts) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(texts); start += chunk {
		start, end := start, min(start+chunk, len(texts))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				rows[i] = a.Assemble(texts[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
