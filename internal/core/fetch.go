package core

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/edward-yakop/go-chores/internal/misc"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/111.0"
	DefaultAcceptEncoding = "gzip, deflate"
	DefaultChunkSize      = 1 << 20
)

var (
	log = misc.NewLogger("Fetch", 2)
)

// DefaultHeaders returns the browser-like header set sent with every request.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", DefaultUserAgent)
	h.Set("Accept-Encoding", DefaultAcceptEncoding)
	return h
}

// Options configures HTTPFetcher.
type Options struct {
	// Headers are sent verbatim. Setting Accept-Encoding disables the
	// transport's transparent decompression, so encoded bodies are decoded
	// by the fetcher itself.
	Headers http.Header
	// ChunkSize is the copy buffer size. Default: 1 MiB.
	ChunkSize int
	// Timeout bounds a whole download, zero means none.
	Timeout time.Duration
	// Output receives console notices. Default: os.Stdout.
	Output io.Writer
}

type HTTPFetcher struct {
	client *http.Client
	opts   Options
}

var _ Fetcher = &HTTPFetcher{}

func NewFetcher(opts Options) *HTTPFetcher {
	if opts.Headers == nil {
		opts.Headers = DefaultHeaders()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &HTTPFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Fetch downloads task.URL into a temp file next to task.Destination and
// renames it into place once verified. A failed fetch leaves no file at the
// destination, including one left over from an earlier run.
func (h *HTTPFetcher) Fetch(ctx context.Context, task Task) (res Result) {
	res = Result{Task: task}

	var tmpPath string
	defer func() {
		if res.Success {
			return
		}
		if tmpPath != "" {
			h.discard(tmpPath)
		}
		h.discard(task.Destination)
	}()

	dir := filepath.Dir(task.Destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		res.Err = errors.Wrap(err, "Create folder ["+dir+"] failed")
		log.Error("%v.", res.Err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		res.Err = &TransportError{URL: task.URL, Err: err}
		log.Warn("Download %s failed: %v.", task.URL, err)
		return
	}
	for k, v := range h.opts.Headers {
		req.Header[k] = append([]string(nil), v...)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if isBadContentLength(err) {
			res.Err = h.sizeUnknown(task.URL)
			return
		}
		res.Err = &TransportError{URL: task.URL, Err: err}
		log.Warn("Download %s failed: %v.", task.URL, err)
		return
	}
	defer resp.Body.Close()

	// ContentLength is -1 for absent or chunked lengths.
	size := resp.ContentLength
	if size < 0 {
		res.Err = h.sizeUnknown(task.URL)
		return
	}
	if size == 0 {
		res.Err = errors.Wrapf(ErrSizeZero, "download [%s]", task.URL)
		log.Warn("Download %s declared an empty body, keeping it queued.", task.URL)
		return
	}

	dl, err := h.saveBodyToDisk(resp, task.Destination)
	tmpPath = dl.path
	res.Bytes = dl.written
	if err != nil {
		if errors.Is(err, ErrEncoding) {
			res.Err = errors.Wrapf(err, "download [%s]", task.URL)
		} else {
			res.Err = &TransportError{URL: task.URL, Err: err}
		}
		log.Warn("Download %s interrupted after %d bytes: %v.", task.URL, dl.written, err)
		return
	}

	if err = verify(resp.StatusCode, size, dl.received()); err != nil {
		res.Err = errors.Wrapf(err, "download [%s]", task.URL)
		log.Warn("%v.", res.Err)
		return
	}

	if err = os.Rename(dl.path, task.Destination); err != nil {
		res.Err = errors.Wrap(err, "Rename ["+dl.path+"] failed")
		log.Error("%v.", res.Err)
		return
	}

	res.Success = true
	res.Bytes = size
	log.Trace("Downloaded %s (%s) to %s.", task.URL, misc.HumanSize(size), task.Destination)
	return
}

func (h *HTTPFetcher) sizeUnknown(url string) error {
	fmt.Fprintf(h.opts.Output, "No valid size for %s\n", url)
	return errors.Wrapf(ErrSizeUnknown, "download [%s]", url)
}

// verify accepts a download only when the status is 200 and the received
// size equals the declared one.
func verify(statusCode int, size, received int64) error {
	if statusCode != http.StatusOK {
		return errors.Wrapf(ErrBadStatus, "status %d", statusCode)
	}
	if received != size {
		return errors.Wrapf(ErrSizeMismatch, "got %d, want %d", received, size)
	}
	return nil
}

type download struct {
	// path is the temp file holding the body.
	path string
	// wire counts body bytes read off the connection.
	wire int64
	// written counts bytes stored on disk, after decoding.
	written int64
	decoded bool
}

// received is the size Content-Length describes: the encoded bytes when the
// body was decoded, otherwise what landed on disk.
func (d download) received() int64 {
	if d.decoded {
		return d.wire
	}
	return d.written
}

func (h *HTTPFetcher) saveBodyToDisk(resp *http.Response, dest string) (dl download, err error) {
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		err = errors.Wrap(err, "Create temp file for ["+dest+"] failed")
		return
	}
	dl.path = f.Name()

	wire := &countingReader{r: resp.Body}
	body, decoded, err := decodeBody(resp.Header.Get("Content-Encoding"), wire)
	dl.decoded = decoded
	if err != nil {
		_ = f.Close()
		dl.wire = wire.n
		return
	}

	// Hide ReadFrom so the copy really goes through ChunkSize buffers.
	dl.written, err = io.CopyBuffer(struct{ io.Writer }{f}, body, make([]byte, h.opts.ChunkSize))
	if err == nil && decoded {
		// count any bytes trailing the compressed stream
		_, err = io.Copy(io.Discard, wire)
	}
	dl.wire = wire.n
	if err != nil {
		_ = f.Close()
		err = errors.Wrap(err, "Saving ["+dest+"] failed")
		return
	}

	if err = f.Chmod(0644); err != nil {
		_ = f.Close()
		err = errors.Wrap(err, "Chmod ["+dl.path+"] failed")
		return
	}
	if err = f.Close(); err != nil {
		err = errors.Wrap(err, "Close file ["+dl.path+"] failed")
	}
	return
}

// decodeBody undoes the Content-Encoding the server applied. deflate bodies
// come either zlib-wrapped or raw, so the zlib header is sniffed first.
func decodeBody(encoding string, r io.Reader) (body io.Reader, decoded bool, err error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return r, false, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, true, errors.Wrap(err, "Open gzip body failed")
		}
		return zr, true, nil
	case "deflate":
		br := bufio.NewReader(r)
		if head, err := br.Peek(2); err == nil && isZlibHeader(head[0], head[1]) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, true, errors.Wrap(err, "Open zlib body failed")
			}
			return zr, true, nil
		}
		return flate.NewReader(br), true, nil
	default:
		return nil, false, errors.Wrapf(ErrEncoding, "%q", encoding)
	}
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (h *HTTPFetcher) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Remove %s failed: %v.", path, err)
	}
}
