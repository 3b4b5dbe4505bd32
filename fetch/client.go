package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/tsawler/timetable/format"
)

// ErrNoLinks is returned when the schedules page lists no PDF.
var ErrNoLinks = errors.New("no PDF links found")

// ErrNotPDF is returned when a download is not a PDF document.
var ErrNotPDF = errors.New("not a PDF")

// ErrTooLarge is returned when a response body exceeds Client.MaxBytes.
var ErrTooLarge = errors.New("response too large")

// DefaultMaxBytes caps a response body. Timetable PDFs are a few hundred
// kilobytes.
const DefaultMaxBytes = 50 << 20

// DefaultSchedulesURL is the PATCO schedules page
const DefaultSchedulesURL = "https://www.ridepatco.org/schedules/schedules.asp"

// Client fetches the schedules page and its PDFs
type Client struct {
	HTTP      *http.Client
	UserAgent string

	// MaxBytes caps each response body; 0 means DefaultMaxBytes
	MaxBytes int64
}

// NewClient creates a client whose requests time out after timeout
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
		},
		UserAgent: "timetable/1.0",
		MaxBytes:  DefaultMaxBytes,
	}
}

// Links fetches pageURL and returns the PDFs it links to.
func (c *Client) Links(ctx context.Context, pageURL string) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid schedules URL: %w", err)
	}

	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	links, err := ParseLinks(bytes.NewReader(body), base)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNoLinks
	}
	return links, nil
}

// Download saves the PDF behind link to dest. With skipExisting an existing
// file is kept without a request. A file whose content did not change is
// not rewritten, so its modification time is preserved. changed reports
// whether dest was written.
func (c *Client) Download(ctx context.Context, link Link, dest string, skipExisting bool) (changed bool, err error) {
	if skipExisting {
		if _, err := os.Stat(dest); err == nil {
			log.Printf("Already exists: %s", filepath.Base(dest))
			return false, nil
		}
	}

	log.Printf("Downloading: %s", link.URL)
	body, err := c.get(ctx, link.URL)
	if err != nil {
		return false, err
	}
	if f := format.DetectFromMagic(body); f != format.PDF {
		return false, fmt.Errorf("%s: %w (got %s content)", link.URL, ErrNotPDF, f)
	}

	if current, err := os.ReadFile(dest); err == nil && bytes.Equal(current, body) {
		log.Printf("File unchanged: %s", filepath.Base(dest))
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	// write then rename so readers never see a partial PDF
	tmp := dest + ".part"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("failed to save %s: %w", dest, err)
	}

	log.Printf("Saved: %s", filepath.Base(dest))
	return true, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}

	limit := c.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%s: %w (over %d bytes)", target, ErrTooLarge, limit)
	}
	return body, nil
}
