package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	input := "sample_id,catalog_content,price\n" +
		"1,\"Nike Pack of 12, Running Shoes\",10.5\n" +
		"2,,20\n" +
		"3,Sony headphones,\n" +
		"4,Goya beans,nan\n"

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "1", rows[0].SampleID)
	assert.Equal(t, "Nike Pack of 12, Running Shoes", rows[0].Text)
	require.NotNil(t, rows[0].Price)
	assert.Equal(t, 10.5, *rows[0].Price)

	assert.Equal(t, "", rows[1].Text, "missing text is kept as empty string")
	require.NotNil(t, rows[1].Price)

	assert.Nil(t, rows[2].Price)
	assert.Nil(t, rows[3].Price)
}

func TestRead_HeaderVariants(t *testing.T) {
	input := "\ufeffPrice, Catalog_Content \n3,hello\n"

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hello", rows[0].Text)
	assert.Equal(t, "1", rows[0].SampleID, "row number when no sample_id column")
}

func TestRead_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty csv"},
		{"missing price column", "catalog_content\nx\n", "header columns"},
		{"bad price", "catalog_content,price\nx,abc\n", "line 2: invalid price"},
		{"infinite price", "catalog_content,price\nx,1\ny,inf\n", "line 3: invalid price"},
		{"spelled out infinity", "catalog_content,price\nx,Infinity\n", "line 2: invalid price"},
		{"negative infinity", "catalog_content,price\nx,-inf\n", "line 2: invalid price"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.input))
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("catalog_content,price\nwidget,1\n"), 0o644))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
