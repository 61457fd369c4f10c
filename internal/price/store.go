package price

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"

	"github.com/edward-yakop/go-chores/internal/misc"
)

const backupExt = ".xz"

// Library is the set of tracked books keyed by ASIN.
type Library map[string]*Book

// Add inserts book unless its ASIN is already tracked.
func (l Library) Add(book *Book) bool {
	if _, ok := l[book.ASIN]; ok {
		return false
	}
	l[book.ASIN] = book
	return true
}

// Sorted returns the books ordered by ASIN, then title.
func (l Library) Sorted() []*Book {
	books := make([]*Book, 0, len(l))
	for _, b := range l {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].ASIN != books[j].ASIN {
			return books[i].ASIN < books[j].ASIN
		}
		return books[i].Title < books[j].Title
	})
	return books
}

// Load reads the YAML state file.
func Load(path string) (Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open state ["+path+"] failed")
	}
	defer f.Close()

	lib, err := decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "Decode state ["+path+"] failed")
	}
	return lib, nil
}

// LoadBackup reads the compressed copy of the previous state written by Save.
func LoadBackup(path string) (Library, error) {
	backup := path + backupExt
	f, err := os.Open(backup)
	if err != nil {
		return nil, errors.Wrap(err, "Open backup ["+backup+"] failed")
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "Open xz stream ["+backup+"] failed")
	}

	lib, err := decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "Decode backup ["+backup+"] failed")
	}
	return lib, nil
}

// Save writes the library sorted by ASIN and title. The state it replaces is
// kept next to it as an xz-compressed backup.
func Save(path string, lib Library) error {
	if err := backup(path); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(lib.Sorted()); err != nil {
		return errors.Wrap(err, "Encode state failed")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "Encode state failed")
	}

	return misc.WriteFileAtomic(path, buf.Bytes(), 0644)
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "Read state ["+path+"] failed")
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return errors.Wrap(err, "Create xz writer failed")
	}
	if _, err = w.Write(data); err != nil {
		return errors.Wrap(err, "Compress state failed")
	}
	if err = w.Close(); err != nil {
		return errors.Wrap(err, "Compress state failed")
	}

	return misc.WriteFileAtomic(path+backupExt, buf.Bytes(), 0644)
}

func decode(r io.Reader) (Library, error) {
	var books []*Book
	if err := yaml.NewDecoder(r).Decode(&books); err != nil && err != io.EOF {
		return nil, err
	}

	lib := make(Library, len(books))
	for _, b := range books {
		if b == nil || b.ASIN == "" {
			continue
		}
		lib.Add(b)
	}
	return lib, nil
}
