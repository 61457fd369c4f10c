package price

import (
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly"
	"github.com/pkg/errors"
)

// Info is what a product page yields.
type Info struct {
	Title  string
	Author string
	Price  float64
	Image  string
}

type Scraper interface {
	Scrape(url string) (*Info, error)
}

// ScrapeError reports a product page lacking one of the expected fields.
type ScrapeError struct {
	URL   string
	Field string
}

func (e *ScrapeError) Error() string {
	return "no " + e.Field + " found on [" + e.URL + "]"
}

// price selectors in order of preference
var priceSelectors = []string{
	"#kindle-price",
	"span.a-size-base.a-color-secondary.ebook-price-value",
	"span.kindleExtraMessage span.a-color-price",
}

type CollyScraper struct {
	userAgent      string
	acceptLanguage string
	timeout        time.Duration
}

var _ Scraper = &CollyScraper{}

func NewScraper(userAgent, acceptLanguage string, timeout time.Duration) *CollyScraper {
	return &CollyScraper{
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
		timeout:        timeout,
	}
}

func (s *CollyScraper) Scrape(url string) (*Info, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
	)
	if s.timeout > 0 {
		c.SetRequestTimeout(s.timeout)
	}
	c.OnRequest(func(r *colly.Request) {
		if s.acceptLanguage != "" {
			r.Headers.Set("Accept-Language", s.acceptLanguage)
		}
	})

	var (
		info     *Info
		parseErr error
	)
	c.OnHTML("html", func(e *colly.HTMLElement) {
		info, parseErr = parseProduct(e)
	})

	if err := c.Visit(url); err != nil {
		return nil, errors.Wrap(err, "Fetch product page ["+url+"] failed")
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if info == nil {
		return nil, &ScrapeError{URL: url, Field: "html document"}
	}
	return info, nil
}

func parseProduct(e *colly.HTMLElement) (*Info, error) {
	url := e.Request.URL.String()
	info := &Info{}

	info.Title = firstText(e, "#productTitle")
	if info.Title == "" {
		return nil, &ScrapeError{URL: url, Field: "title"}
	}

	var raw string
	for _, sel := range priceSelectors {
		if raw = firstText(e, sel); raw != "" {
			break
		}
	}
	price, err := parsePrice(raw)
	if err != nil {
		return nil, errors.Wrap(&ScrapeError{URL: url, Field: "price"}, err.Error())
	}
	info.Price = price

	// data-a-dynamic-image is a JSON object keyed by image URL
	dynamic := strings.Split(e.DOM.Find("img#landingImage").First().AttrOr("data-a-dynamic-image", ""), `"`)
	if len(dynamic) < 2 || dynamic[1] == "" {
		return nil, &ScrapeError{URL: url, Field: "image"}
	}
	info.Image = dynamic[1]

	info.Author = firstLine(e.DOM.Find("span.author.notFaded").First().Text())
	if info.Author == "" {
		return nil, &ScrapeError{URL: url, Field: "author"}
	}

	return info, nil
}

// parsePrice reads "$12.99" style text, ignoring anything after the amount.
func parsePrice(raw string) (float64, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, errors.New("empty price")
	}

	amount := []rune(fields[0])
	if len(amount) < 2 {
		return 0, errors.Errorf("malformed price %q", fields[0])
	}
	value := strings.ReplaceAll(string(amount[1:]), ",", "")
	price, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed price %q", fields[0])
	}
	return price, nil
}

func firstText(e *colly.HTMLElement, selector string) string {
	return strings.TrimSpace(e.DOM.Find(selector).First().Text())
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
