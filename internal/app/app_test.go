package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParseQueueOption_flagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "chores.yaml")
	writeFile(t, cfgPath, "queue:\n  file: /from/config\n  workers: 3\n")

	cfg, err := ParseQueueOption(QueueArgs{Config: cfgPath, Workers: 8, Timeout: time.Minute, Verbose: true})
	require.NoError(t, err)

	assert.Equal(t, "/from/config", cfg.Queue.File)
	assert.Equal(t, 8, cfg.Queue.Workers)
	assert.Equal(t, time.Minute, cfg.Queue.Timeout)
	assert.Equal(t, "trace", cfg.Logging.Level)
}

func TestParseQueueOption_invalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "chores.yaml")
	writeFile(t, cfgPath, "queue:\n  workers: 2\n")

	_, err := ParseQueueOption(QueueArgs{Config: cfgPath, Workers: -1})
	assert.Error(t, err)
}

func TestParsePriceOption(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "chores.yaml")
	writeFile(t, cfgPath, "price:\n  state_file: /from/config.yaml\n")

	cfg, err := ParsePriceOption(PriceArgs{Config: cfgPath, NewBooks: "/tmp/new.txt", Notify: "http://ntfy.local/t"})
	require.NoError(t, err)

	assert.Equal(t, "/from/config.yaml", cfg.Price.StateFile)
	assert.Equal(t, "/tmp/new.txt", cfg.Price.NewBooksFile)
	assert.Equal(t, "http://ntfy.local/t", cfg.Price.NotifyURL)
}

func TestQueueApp_Execute(t *testing.T) {
	payload := []byte("episode bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ep.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	queuePath := filepath.Join(dir, "queue")
	dest := filepath.Join(dir, "ep.mp3")
	writeFile(t, queuePath, srv.URL+"/ep.mp3 \""+dest+"\"\n"+srv.URL+"/missing.mp3 \""+dest+".2\"\n")
	cfgPath := filepath.Join(dir, "chores.yaml")
	writeFile(t, cfgPath, "queue:\n  workers: 2\n")

	cfg, err := ParseQueueOption(QueueArgs{Config: cfgPath, Queue: queuePath})
	require.NoError(t, err)

	report, err := NewQueueApp(cfg, false).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, int64(len(payload)), report.Bytes)

	data, err := os.ReadFile(queuePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/missing.mp3 \"")
	assert.NotContains(t, string(data), "/ep.mp3 \"")
}

func TestQueueApp_Execute_progressHoldsNotices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no Content-Length: the body is streamed chunked
		_, _ = w.Write([]byte("stream"))
		w.(http.Flusher).Flush()
	}))
	defer srv.Close()

	dir := t.TempDir()
	queuePath := filepath.Join(dir, "queue")
	writeFile(t, queuePath, srv.URL+"/live.mp3 \""+filepath.Join(dir, "live.mp3")+"\"\n")
	cfgPath := filepath.Join(dir, "chores.yaml")
	writeFile(t, cfgPath, "queue:\n  workers: 1\n")

	cfg, err := ParseQueueOption(QueueArgs{Config: cfgPath, Queue: queuePath})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	app := NewQueueApp(cfg, true)
	app.out = out
	report, err := app.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	console := out.String()
	notice := strings.Index(console, "No valid size for "+srv.URL+"/live.mp3\n")
	require.NotEqual(t, -1, notice)
	assert.Greater(t, notice, strings.LastIndex(console, "\r"))
	assert.True(t, strings.HasSuffix(console, "Total size is 0 B\n"))
}

func TestQueueApp_Execute_missingQueue(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "chores.yaml")
	writeFile(t, cfgPath, "queue:\n  workers: 1\n")

	cfg, err := ParseQueueOption(QueueArgs{Config: cfgPath, Queue: filepath.Join(dir, "absent")})
	require.NoError(t, err)

	for _, showProgress := range []bool{false, true} {
		app := NewQueueApp(cfg, showProgress)
		app.out = &bytes.Buffer{}
		_, err = app.Execute(context.Background())
		assert.Error(t, err)
	}
}

func TestPriceApp_Execute_nothingToDo(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "chores.yaml")
	writeFile(t, cfgPath, "price:\n  state_file: "+filepath.Join(dir, "books.yaml")+"\n  new_books_file: "+filepath.Join(dir, "new.txt")+"\n")

	cfg, err := ParsePriceOption(PriceArgs{Config: cfgPath})
	require.NoError(t, err)

	summary, err := NewPriceApp(cfg, false).Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Tracked)
	assert.FileExists(t, filepath.Join(dir, "books.yaml"))
}
