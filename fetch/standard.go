package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultStandardPrefix names the standard timetable's tables when its
// file name is unknown.
const DefaultStandardPrefix = "PATCO_Timetable"

// Standard identifies the current standard timetable
type Standard struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Prefix returns the file name without its extension, which is the
// document name its tables are stored under.
func (s Standard) Prefix() string {
	if s.Filename == "" {
		return DefaultStandardPrefix
	}
	return strings.TrimSuffix(s.Filename, filepath.Ext(s.Filename))
}

// StandardStore holds the currently known standard timetable. It is loaded
// once at startup and updated after each refresh that found a standard link.
type StandardStore struct {
	mu      sync.RWMutex
	current Standard

	path       string // saved state
	pdfDir     string // cached standard PDFs
	pdfBaseURL string // where cached PDFs were downloaded from
	defaultURL string
}

// NewStandardStore creates a store persisting to path. pdfDir and
// pdfBaseURL describe the download cache; defaultURL is the last resort.
func NewStandardStore(path, pdfDir, pdfBaseURL, defaultURL string) *StandardStore {
	return &StandardStore{
		path:       path,
		pdfDir:     pdfDir,
		pdfBaseURL: pdfBaseURL,
		defaultURL: defaultURL,
	}
}

// Load initializes the store from the newest cached standard PDF, then the
// saved state, then the default URL, taking the first that is available.
// The saved state still supplies the URL and timestamp of a cached PDF it
// names, since that file may not have come from pdfBaseURL. A corrupt state
// file is only an error when nothing is cached.
func (s *StandardStore) Load() (Standard, error) {
	saved, savedErr := s.loadSaved()
	if errors.Is(savedErr, os.ErrNotExist) {
		savedErr = nil
	}

	std := s.fromCache()
	switch {
	case std.URL != "":
		if savedErr != nil {
			log.Printf("Warning: ignoring saved standard timetable: %v", savedErr)
		} else if saved.URL != "" && saved.Filename == std.Filename {
			std = saved
		}
	case savedErr != nil:
		return Standard{}, savedErr
	case saved.URL != "":
		std = saved
	case s.defaultURL != "":
		std = Standard{URL: s.defaultURL, Filename: urlFilename(s.defaultURL)}
	}

	s.mu.Lock()
	s.current = std
	s.mu.Unlock()
	return std, nil
}

// Current returns the known standard timetable. URL is empty when none is
// known.
func (s *StandardStore) Current() Standard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the known standard timetable and persists it.
func (s *StandardStore) Update(std Standard) error {
	if std.UpdatedAt.IsZero() {
		std.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		data, err := json.MarshalIndent(std, "", "  ")
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		if err := os.WriteFile(s.path, data, 0644); err != nil {
			return fmt.Errorf("failed to save standard timetable: %w", err)
		}
	}

	s.current = std
	return nil
}

func (s *StandardStore) loadSaved() (Standard, error) {
	if s.path == "" {
		return Standard{}, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Standard{}, err
	}

	var std Standard
	if err := json.Unmarshal(data, &std); err != nil {
		return Standard{}, fmt.Errorf("corrupt %s: %w", s.path, err)
	}
	return std, nil
}

// fromCache builds the state from the most recently modified cached PDF
func (s *StandardStore) fromCache() Standard {
	if s.pdfDir == "" {
		return Standard{}
	}
	matches, _ := filepath.Glob(filepath.Join(s.pdfDir, "*.pdf"))

	var newest string
	var newestTime time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest, newestTime = m, info.ModTime()
		}
	}
	if newest == "" {
		return Standard{}
	}

	filename := filepath.Base(newest)
	return Standard{
		URL:       resolve(s.pdfBaseURL, filename),
		Filename:  filename,
		UpdatedAt: newestTime.UTC(),
	}
}

func resolve(base, filename string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return filename
	}
	return u.ResolveReference(&url.URL{Path: filename}).String()
}

func urlFilename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}
