// Package download fetches release artifacts to local files with progress
// reporting. A transfer either completes and atomically replaces the
// destination, or fails and leaves the destination untouched.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/addonmgr/addonmgr/internal/config"
	"github.com/addonmgr/addonmgr/internal/httputil"
	"github.com/addonmgr/addonmgr/internal/log"
	"github.com/addonmgr/addonmgr/internal/progress"
)

// Task describes one transfer. It lives only for the duration of Fetch.
type Task struct {
	Subject          string // reported as Event.Subject
	SourceURL        string
	DestinationPath  string
	BytesExpected    int64 // -1 when the server sends no Content-Length
	BytesTransferred int64
}

// Downloader performs single-attempt HTTPS downloads. Retrying is the
// caller's decision.
type Downloader struct {
	client *http.Client
	logger log.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default hardened client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		d.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(d *Downloader) {
		d.logger = l
	}
}

// New creates a Downloader. The default client uses ADDONMGR_DOWNLOAD_TIMEOUT
// as its overall timeout.
func New(opts ...Option) *Downloader {
	d := &Downloader{logger: log.Default()}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = httputil.NewSecureClient(httputil.ClientOptions{
			Timeout:      config.GetDownloadTimeout(),
			DialTimeout:  10 * time.Second,
			MaxRedirects: 5,
		})
	}
	return d
}

// Fetch downloads rawURL to dest. subject labels progress events, usually
// the addon identifier. report receives Downloading events with a
// non-decreasing Percent, then exactly one Completed or Failed event.
func (d *Downloader) Fetch(ctx context.Context, subject, rawURL, dest string, report progress.Reporter) error {
	report = progress.Or(report)
	task := &Task{
		Subject:         subject,
		SourceURL:       rawURL,
		DestinationPath: dest,
		BytesExpected:   -1,
	}

	err := d.fetch(ctx, task, report)
	if err != nil {
		report(progress.Event{Subject: subject, Phase: progress.PhaseFailed, Err: err})
		return err
	}

	report(progress.Event{
		Subject:    subject,
		Phase:      progress.PhaseCompleted,
		Percent:    100,
		BytesDone:  task.BytesTransferred,
		BytesTotal: task.BytesExpected,
	})
	return nil
}

func (d *Downloader) fetch(ctx context.Context, task *Task, report progress.Reporter) error {
	u, err := url.Parse(task.SourceURL)
	if err != nil {
		return &TransferError{Task: task, Message: "invalid URL", Err: err}
	}
	if u.Scheme != "https" {
		return &TransferError{Task: task, Message: "only HTTPS URLs are allowed", Err: ErrInsecureURL}
	}

	d.logger.Debug("download starting", "subject", task.Subject, "url", log.SanitizeURL(task.SourceURL), "dest", task.DestinationPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.SourceURL, nil)
	if err != nil {
		return &TransferError{Task: task, Message: "failed to create request", Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &TransferError{Task: task, Message: "HTTP request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransferError{Task: task, StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	task.BytesExpected = resp.ContentLength

	dir := filepath.Dir(task.DestinationPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &TransferError{Task: task, Message: "failed to create destination directory", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(task.DestinationPath)+".*.part")
	if err != nil {
		return &TransferError{Task: task, Message: "failed to create temp file", Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	tracker := progress.NewTracker(task.Subject, task.BytesExpected, report)
	n, err := io.Copy(io.MultiWriter(tmp, tracker), resp.Body)
	task.BytesTransferred = n
	if err != nil {
		return &TransferError{Task: task, Message: "transfer interrupted", Err: err}
	}
	if task.BytesExpected >= 0 && n != task.BytesExpected {
		return &TransferError{Task: task, Message: fmt.Sprintf("short transfer: got %d of %d bytes", n, task.BytesExpected)}
	}
	if err := tmp.Sync(); err != nil {
		return &TransferError{Task: task, Message: "failed to flush file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &TransferError{Task: task, Message: "failed to close file", Err: err}
	}

	if err := replace(tmpPath, task.DestinationPath); err != nil {
		return &TransferError{Task: task, Message: "failed to move download into place", Err: err}
	}
	committed = true

	d.logger.Debug("download complete", "subject", task.Subject, "bytes", n)
	return nil
}

// replace renames src over dst. Windows refuses to rename over an existing
// file, so the destination is removed first there.
func replace(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}
