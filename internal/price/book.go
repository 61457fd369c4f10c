package price

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	asinMarker = "/dp/"
	asinLength = 10
)

// Book is one tracked product as persisted in the state file.
type Book struct {
	ASIN       string    `yaml:"asin"`
	URL        string    `yaml:"url"`
	Title      string    `yaml:"title"`
	Author     string    `yaml:"author"`
	Price      float64   `yaml:"price"`
	Image      string    `yaml:"image"`
	MinPrice   float64   `yaml:"min_price"`
	MaxPrice   float64   `yaml:"max_price"`
	DiffPrice  float64   `yaml:"diff_price"`
	LastChange time.Time `yaml:"last_change"`
}

func (b *Book) String() string {
	return fmt.Sprintf("%s by %s on %s", b.Title, b.Author, b.URL)
}

// ASIN extracts the product id that follows "/dp/" in a product URL.
func ASIN(url string) (string, error) {
	url = strings.TrimSpace(url)
	i := strings.Index(url, asinMarker)
	if i < 0 {
		return "", errors.Errorf("no %s segment in [%s]", asinMarker, url)
	}
	rest := url[i+len(asinMarker):]
	if len(rest) < asinLength {
		return "", errors.Errorf("ASIN in [%s] is shorter than %d characters", url, asinLength)
	}
	return rest[:asinLength], nil
}

// CanonicalURL fills the product URL template with asin.
func CanonicalURL(template, asin string) string {
	return fmt.Sprintf(template, asin)
}

// NewBook scrapes a freshly added product. Its price is both the minimum and
// the maximum seen so far.
func NewBook(rawURL, template string, scraper Scraper, now time.Time) (*Book, error) {
	asin, err := ASIN(rawURL)
	if err != nil {
		return nil, err
	}

	url := CanonicalURL(template, asin)
	info, err := scraper.Scrape(url)
	if err != nil {
		return nil, errors.Wrap(err, "Scrape new book ["+asin+"] failed")
	}

	return &Book{
		ASIN:       asin,
		URL:        url,
		Title:      info.Title,
		Author:     info.Author,
		Price:      info.Price,
		Image:      info.Image,
		MinPrice:   info.Price,
		MaxPrice:   info.Price,
		LastChange: now,
	}, nil
}

// UpdatePrice records a newly observed price. A drop below the historical
// minimum sends a "lowest price" notification, any other drop a regular one.
// The book is updated even when the notification fails; that error is
// returned for the caller to log.
func (b *Book) UpdatePrice(price float64, notifier Notifier, now time.Time) (changed bool, err error) {
	if price == b.Price {
		return false, nil
	}

	b.DiffPrice = b.Price - price
	switch {
	case price < b.MinPrice:
		err = notifier.Sale(b, true)
		b.MinPrice = price
	case price < b.Price:
		err = notifier.Sale(b, false)
	case price > b.MaxPrice:
		b.MaxPrice = price
	}
	b.Price = price
	b.LastChange = now

	if err != nil {
		err = errors.Wrap(err, "Notify price change of ["+b.ASIN+"] failed")
	}
	return true, err
}
