package service

import (
	"io"

	"github.com/jmylchreest/aaradio/internal/urlutil"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
	"github.com/jmylchreest/aaradio/pkg/m3u"
)

// URLFunc returns the playlist URL for a channel key.
type URLFunc func(key string) (string, error)

// WritePlaylist writes an M3U playlist with one entry per channel, grouped
// under the network's display name. Channels without a key are skipped.
// urlFor errors abort the playlist.
func WritePlaylist(w io.Writer, svc audioaddict.Service, channels []audioaddict.Channel, urlFor URLFunc) (int, error) {
	writer := m3u.NewWriter(w)
	if err := writer.WriteHeader(); err != nil {
		return 0, err
	}

	for _, ch := range channels {
		key := ch.Key()
		if key == "" {
			continue
		}
		url, err := urlFor(key)
		if err != nil {
			return writer.Entries(), err
		}
		if err := writer.WriteEntry(&m3u.Entry{
			ID:    key,
			Name:  ch.Name(),
			Group: svc.DisplayName(),
			Title: ch.Title(),
			URL:   url,
		}); err != nil {
			return writer.Entries(), err
		}
	}

	return writer.Entries(), nil
}

// ProxyURLs builds playlist URLs that point at a running server's listen
// endpoint, so each play resolves a fresh stream. base is normalized first.
func ProxyURLs(base string, svc audioaddict.Service) URLFunc {
	base = urlutil.NormalizeBaseURL(base)
	return func(key string) (string, error) {
		return urlutil.JoinPath(base, "listen", svc.String(), key), nil
	}
}
