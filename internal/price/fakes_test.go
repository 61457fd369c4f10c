package price

import (
	"github.com/pkg/errors"
)

type sale struct {
	asin   string
	diff   float64
	lowest bool
}

type fakeNotifier struct {
	sales  []sale
	errors []string
	fail   bool
}

func (n *fakeNotifier) Sale(book *Book, lowest bool) error {
	n.sales = append(n.sales, sale{asin: book.ASIN, diff: book.DiffPrice, lowest: lowest})
	if n.fail {
		return errors.New("ntfy down")
	}
	return nil
}

func (n *fakeNotifier) Error(text string) error {
	n.errors = append(n.errors, text)
	return nil
}

// fakeScraper serves Info by URL; unknown URLs fail like a broken page.
type fakeScraper map[string]*Info

func (s fakeScraper) Scrape(url string) (*Info, error) {
	if info, ok := s[url]; ok {
		return info, nil
	}
	return nil, &ScrapeError{URL: url, Field: "title"}
}
