// Package m3u writes extended M3U playlists of internet radio channels.
package m3u

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// ErrLineBreakInURL is returned for entry URLs containing CR or LF, which
// would split the entry across playlist lines.
var ErrLineBreakInURL = errors.New("URL contains a line break")

// Entry is a single station in a playlist.
type Entry struct {
	// Duration in seconds. Zero is written as -1, the value players expect
	// for live streams.
	Duration int

	// ID is written as tvg-id.
	ID string

	// Name is written as tvg-name.
	Name string

	// Logo is written as tvg-logo.
	Logo string

	// Group is written as group-title, typically the network name.
	Group string

	// Title follows the comma on the EXTINF line.
	Title string

	URL string

	// Extra attributes, written in key order after the known ones.
	Extra map[string]string
}

// Writer streams M3U entries to an io.Writer.
type Writer struct {
	w             io.Writer
	headerWritten bool
	entries       int
}

// NewWriter creates a new M3U writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the #EXTM3U header.
// WriteEntry calls it automatically if it has not been written yet.
func (w *Writer) WriteHeader() error {
	if w.headerWritten {
		return nil
	}
	if _, err := fmt.Fprintln(w.w, "#EXTM3U"); err != nil {
		return fmt.Errorf("writing M3U header: %w", err)
	}
	w.headerWritten = true
	return nil
}

// WriteEntry writes an EXTINF line followed by the entry URL.
func (w *Writer) WriteEntry(entry *Entry) error {
	if entry.URL == "" {
		return fmt.Errorf("writing entry %q: empty URL", entry.Title)
	}
	if strings.ContainsAny(entry.URL, "\r\n") {
		return fmt.Errorf("writing entry %q: %w", entry.Title, ErrLineBreakInURL)
	}
	if err := w.WriteHeader(); err != nil {
		return err
	}

	var attrs []string
	addAttr := func(key, value string) {
		if value != "" {
			attrs = append(attrs, fmt.Sprintf(`%s="%s"`, key, escapeAttr(value)))
		}
	}
	addAttr("tvg-id", entry.ID)
	addAttr("tvg-name", entry.Name)
	addAttr("tvg-logo", entry.Logo)
	addAttr("group-title", entry.Group)
	for _, k := range slices.Sorted(maps.Keys(entry.Extra)) {
		addAttr(k, entry.Extra[k])
	}

	duration := entry.Duration
	if duration == 0 {
		duration = -1
	}

	title := singleLine(entry.Title)
	extinf := fmt.Sprintf("#EXTINF:%d,%s", duration, title)
	if len(attrs) > 0 {
		extinf = fmt.Sprintf("#EXTINF:%d %s,%s", duration, strings.Join(attrs, " "), title)
	}

	if _, err := fmt.Fprintln(w.w, extinf); err != nil {
		return fmt.Errorf("writing EXTINF: %w", err)
	}
	if _, err := fmt.Fprintln(w.w, entry.URL); err != nil {
		return fmt.Errorf("writing URL: %w", err)
	}

	w.entries++
	return nil
}

// Entries returns the number of entries written so far.
func (w *Writer) Entries() int {
	return w.entries
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine replaces line breaks so a value cannot start a new playlist line.
func singleLine(s string) string {
	return lineBreaks.Replace(s)
}

func escapeAttr(s string) string {
	return strings.ReplaceAll(singleLine(s), `"`, `\"`)
}
