package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

func TestWritePlaylist(t *testing.T) {
	channels := []audioaddict.Channel{
		{"key": "smoothjazz", "name": "Smooth Jazz"},
		{"name": "keyless"},
		{"key": "bebop"},
	}

	var buf bytes.Buffer
	n, err := WritePlaylist(&buf, audioaddict.ServiceJazzRadio, channels, ProxyURLs("http://host:8080", audioaddict.ServiceJazzRadio))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := "#EXTM3U\n" +
		`#EXTINF:-1 tvg-id="smoothjazz" tvg-name="Smooth Jazz" group-title="JazzRadio.com",Smooth Jazz` + "\n" +
		"http://host:8080/listen/jazzradio/smoothjazz\n" +
		`#EXTINF:-1 tvg-id="bebop" group-title="JazzRadio.com",bebop` + "\n" +
		"http://host:8080/listen/jazzradio/bebop\n"
	assert.Equal(t, want, buf.String())
}

func TestProxyURLs(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://host:8080", "http://host:8080/listen/di/trance"},
		{"https://example.net/aa/", "https://example.net/aa/listen/di/trance"},
		{"radio.local", "http://radio.local/listen/di/trance"},
	}

	for _, tt := range tests {
		got, err := ProxyURLs(tt.base, audioaddict.ServiceDI)("trance")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.base)
	}
}

func TestWritePlaylist_HostileKeys(t *testing.T) {
	channels := []audioaddict.Channel{
		{"key": "evil\n#EXTINF:-1,Injected\nhttp://attacker.example/x", "name": "Evil"},
		{"key": "a/b?c", "name": "Odd\r\nName"},
	}

	var buf bytes.Buffer
	n, err := WritePlaylist(&buf, audioaddict.ServiceDI, channels, ProxyURLs("http://radio.local", audioaddict.ServiceDI))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5, buf.String())
	assert.Equal(t, "http://radio.local/listen/di/evil%0A%23EXTINF:-1%2CInjected%0Ahttp:%2F%2Fattacker.example%2Fx", lines[2])
	assert.Equal(t, "http://radio.local/listen/di/a%2Fb%3Fc", lines[4])
	assert.Contains(t, lines[3], ",Odd Name")
}

func TestWritePlaylist_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WritePlaylist(&buf, audioaddict.ServiceSky, nil, ProxyURLs("", audioaddict.ServiceSky))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "#EXTM3U\n", buf.String())
}

func TestWritePlaylist_URLError(t *testing.T) {
	boom := errors.New("resolve failed")
	channels := []audioaddict.Channel{{"key": "a"}, {"key": "b"}}

	calls := 0
	var buf bytes.Buffer
	n, err := WritePlaylist(&buf, audioaddict.ServiceDI, channels, func(key string) (string, error) {
		calls++
		if key == "b" {
			return "", boom
		}
		return "http://example.com/" + key, nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls)
}
