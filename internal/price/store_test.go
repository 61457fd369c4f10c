package price

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLibrary() Library {
	changed := time.Date(2023, time.March, 14, 9, 30, 0, 0, time.UTC)
	lib := Library{}
	lib.Add(&Book{ASIN: "B00000000Z", URL: "https://a/dp/B00000000Z/", Title: "Zed", Author: "Z", Price: 3.5, MinPrice: 3, MaxPrice: 4, LastChange: changed})
	lib.Add(&Book{ASIN: "B00000000A", URL: "https://a/dp/B00000000A/", Title: "Ay", Author: "A", Price: 1.99, MinPrice: 1.99, MaxPrice: 1.99, DiffPrice: 0.5, LastChange: changed})
	return lib
}

func TestLibrary_Add(t *testing.T) {
	lib := Library{}
	assert.True(t, lib.Add(&Book{ASIN: "B1", Title: "first"}))
	assert.False(t, lib.Add(&Book{ASIN: "B1", Title: "second"}))
	assert.Equal(t, "first", lib["B1"].Title)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yaml")
	lib := sampleLibrary()

	require.NoError(t, Save(path, lib))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Less(t, strings.Index(text, "B00000000A"), strings.Index(text, "B00000000Z"))
	assert.Contains(t, text, "min_price: 1.99")
	assert.Contains(t, text, "last_change: 2023-03-14T09:30:00Z")
	assert.NoFileExists(t, path+".xz")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, lib, loaded)
}

func TestSave_keepsCompressedBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yaml")
	first := sampleLibrary()
	require.NoError(t, Save(path, first))

	second := Library{}
	second.Add(&Book{ASIN: "B00000000Q", Title: "Q"})
	require.NoError(t, Save(path, second))

	backup, err := LoadBackup(path)
	require.NoError(t, err)
	assert.Equal(t, first, backup)

	current, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, second, current)
}

func TestLoad_pythonTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yaml")
	content := `-   asin: B00000000A
    url: https://a/dp/B00000000A/
    title: Ay
    author: A
    price: 2.99
    image: https://img/a.jpg
    min_price: 1.99
    max_price: 3.99
    diff_price: -1.0
    last_change: 2023-04-01 12:34:56.789000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lib, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, lib, "B00000000A")
	b := lib["B00000000A"]
	assert.Equal(t, 2.99, b.Price)
	assert.Equal(t, -1.0, b.DiffPrice)
	assert.Equal(t, 2023, b.LastChange.Year())
	assert.Equal(t, 34, b.LastChange.Minute())
}

func TestLoad_emptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	lib, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, lib)
}
