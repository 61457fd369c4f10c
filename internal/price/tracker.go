package price

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/edward-yakop/go-chores/internal/misc"
)

var (
	log       = misc.NewLogger("Price", 2)
	importLog = log.With("Import")
)

// Listener is notified after each tracked book has been refreshed.
type Listener func(book *Book, err error, curr, count int)

var doNothingListener Listener = func(*Book, error, int, int) {}

type TrackerOptions struct {
	StateFile    string
	NewBooksFile string
	// ProductURL is the printf template of a canonical product page.
	ProductURL string
	Listener   Listener
	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary counts what a run did.
type Summary struct {
	Imported     int
	ImportFailed int
	Updated      int
	UpdateFailed int
	Changed      int
	Tracked      int
}

type Tracker struct {
	scraper  Scraper
	notifier Notifier
	opts     TrackerOptions
}

func NewTracker(scraper Scraper, notifier Notifier, opts TrackerOptions) *Tracker {
	if opts.Listener == nil {
		opts.Listener = doNothingListener
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Tracker{
		scraper:  scraper,
		notifier: notifier,
		opts:     opts,
	}
}

// Run imports newly requested books, refreshes the prices of tracked ones and
// saves the merged state. Per-book failures are reported, not returned.
func (t *Tracker) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	fresh := Library{}
	if misc.IsFileExists(t.opts.NewBooksFile) {
		var err error
		if fresh, err = t.Import(ctx, summary); err != nil {
			return summary, err
		}
	}

	lib := Library{}
	if misc.IsFileExists(t.opts.StateFile) {
		var err error
		if lib, err = Load(t.opts.StateFile); err != nil {
			return summary, err
		}
		if err = t.refresh(ctx, lib, summary); err != nil {
			return summary, err
		}
	}

	for _, b := range fresh.Sorted() {
		lib.Add(b)
	}
	summary.Tracked = len(lib)

	if err := Save(t.opts.StateFile, lib); err != nil {
		return summary, errors.Wrap(err, "Save state failed")
	}
	log.Info("Tracking %d books: %d imported, %d updated, %d changed.",
		summary.Tracked, summary.Imported, summary.Updated, summary.Changed)

	return summary, nil
}

// Import scrapes every URL listed in the new-books file. Lines that fail are
// written back to the file; when all succeed the file is removed.
func (t *Tracker) Import(ctx context.Context, summary *Summary) (Library, error) {
	path := t.opts.NewBooksFile
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	lib := Library{}
	var failed []string
	for _, line := range lines {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		book, berr := NewBook(line, t.opts.ProductURL, t.scraper, t.opts.Now())
		if berr != nil {
			importLog.Trace("%s: %+v", line, berr)
			importLog.Error("Can't add book %s: %v.", line, berr)
			failed = append(failed, line)
			continue
		}
		lib.Add(book)
	}
	summary.Imported = len(lines) - len(failed)
	summary.ImportFailed = len(failed)

	if len(failed) == 0 {
		if err = os.Remove(path); err != nil {
			return nil, errors.Wrap(err, "Remove ["+path+"] failed")
		}
		return lib, nil
	}

	if err = misc.WriteFileAtomic(path, []byte(strings.Join(failed, "\n")+"\n"), 0644); err != nil {
		return nil, errors.Wrap(err, "Rewrite new books file failed")
	}
	t.reportError(fmt.Sprintf("Failed adding %d books.", len(failed)))

	return lib, nil
}

func (t *Tracker) refresh(ctx context.Context, lib Library, summary *Summary) error {
	books := lib.Sorted()
	var failed []string
	for i, b := range books {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := t.update(b, summary)
		if err != nil {
			failed = append(failed, b.URL)
		} else {
			summary.Updated++
		}
		t.opts.Listener(b, err, i+1, len(books))
	}

	summary.UpdateFailed = len(failed)
	if len(failed) > 0 {
		t.reportError(fmt.Sprintf("Failed updating prices for %d books.", len(failed)))
		for _, url := range failed {
			log.Error("Can't update book %s.", url)
		}
	}
	return nil
}

func (t *Tracker) update(b *Book, summary *Summary) error {
	info, err := t.scraper.Scrape(b.URL)
	if err != nil {
		log.Trace("Refresh %s: %+v", b.URL, err)
		return err
	}

	changed, err := b.UpdatePrice(info.Price, t.notifier, t.opts.Now())
	if changed {
		summary.Changed++
	}
	if err != nil {
		log.Warn("%v.", err)
	}
	return nil
}

func (t *Tracker) reportError(text string) {
	if err := t.notifier.Error(text); err != nil {
		log.Warn("Send error report failed: %v.", err)
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open ["+path+"] failed")
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Read ["+path+"] failed")
	}
	return lines, nil
}
