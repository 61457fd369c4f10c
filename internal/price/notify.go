package price

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Notifier delivers price alerts and failure reports.
type Notifier interface {
	Sale(book *Book, lowest bool) error
	Error(text string) error
}

// NtfyNotifier posts plain-text messages to an ntfy topic.
type NtfyNotifier struct {
	client *resty.Client
	url    string
}

var _ Notifier = &NtfyNotifier{}

func NewNotifier(topicURL string, timeout time.Duration) *NtfyNotifier {
	return &NtfyNotifier{
		client: resty.New().SetTimeout(timeout),
		url:    topicURL,
	}
}

func (n *NtfyNotifier) Sale(book *Book, lowest bool) error {
	headers := map[string]string{
		"Priority": "3",
		"Actions":  fmt.Sprintf("view, Check promo, %s, clear=true;", book.URL),
	}
	if book.Image != "" {
		headers["Attach"] = book.Image
	}

	prefix := ""
	if lowest {
		headers["Tags"] = "warning"
		headers["Priority"] = "high"
		prefix = "Lowest price!! "
	}

	return n.post(saleMessage(prefix, book), headers)
}

func (n *NtfyNotifier) Error(text string) error {
	return n.post(text, map[string]string{
		"Tags":     "no_entry",
		"Priority": "4",
	})
}

func saleMessage(prefix string, book *Book) string {
	return fmt.Sprintf("%s%s by %s is currently on sale by %0.2f$.", prefix, book.Title, book.Author, book.DiffPrice)
}

func (n *NtfyNotifier) post(body string, headers map[string]string) error {
	resp, err := n.client.R().
		SetHeaders(headers).
		SetBody(body).
		Post(n.url)
	if err != nil {
		return errors.Wrap(err, "Post notification to ["+n.url+"] failed")
	}
	if resp.IsError() {
		return errors.Errorf("notification to [%s] rejected: %s", n.url, resp.Status())
	}
	return nil
}
