package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/aaradio/internal/config"
	"github.com/jmylchreest/aaradio/internal/testutil"
	"github.com/jmylchreest/aaradio/internal/version"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestWriteServices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeServices(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "di "))
	assert.Contains(t, lines[0], "DI.fm")
	assert.Contains(t, lines[0], "http://listen.di.fm")
	assert.True(t, strings.HasPrefix(lines[3], "sky "))
}

func TestWriteQualities(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeQualities(&buf))
	assert.Equal(t, "public3 (default)\npremium_high\nandroid_premium_high\n", buf.String())
}

func TestWriteChannelTable(t *testing.T) {
	channels := []audioaddict.Channel{
		{"key": "trance", "name": "Trance"},
		{"key": "vocaltrance", "name": "Vocal Trance"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeChannelTable(&buf, channels))

	want := "KEY          NAME\n" +
		"trance       Trance\n" +
		"vocaltrance  Vocal Trance\n" +
		"\n2 channels\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, writeChannelTable(&buf, channels[:1]))
	assert.True(t, strings.HasSuffix(buf.String(), "\n1 channel\n"))
}

func TestWriteChannel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeChannel(&buf, audioaddict.Channel{
		"key":  "bebop",
		"name": "Bebop",
		"id":   float64(42),
	}))

	out := buf.String()
	assert.Contains(t, out, "Key:         bebop\n")
	assert.Contains(t, out, "Name:        Bebop\n")
	assert.Contains(t, out, "ID:          42\n")
	assert.NotContains(t, out, "Description")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, []audioaddict.Channel{{"key": "a"}}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a", decoded[0]["key"])
}

func TestSelectChannels(t *testing.T) {
	channels := []audioaddict.Channel{{"key": "a"}, {"key": "b"}, {"key": "c"}}

	t.Run("no keys selects all", func(t *testing.T) {
		got, err := selectChannels(channels, nil)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("keeps requested order", func(t *testing.T) {
		got, err := selectChannels(channels, []string{"c", "a"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "c", got[0].Key())
		assert.Equal(t, "a", got[1].Key())
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := selectChannels(channels, []string{"a", "zzz"})
		assert.ErrorIs(t, err, audioaddict.ErrChannelNotFound)
	})

	t.Run("duplicate key picks the last entry", func(t *testing.T) {
		dup := []audioaddict.Channel{
			{"key": "a", "name": "first"},
			{"key": "a", "name": "second"},
		}
		got, err := selectChannels(dup, []string{"a"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "second", got[0].Name())
	})

	t.Run("empty key never matches keyless records", func(t *testing.T) {
		_, err := selectChannels([]audioaddict.Channel{{"name": "keyless"}}, []string{""})
		assert.ErrorIs(t, err, audioaddict.ErrChannelNotFound)
	})
}

func TestToMap(t *testing.T) {
	m := toMap(defaultConfig(t))

	server, ok := m["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 8080, server["port"])
	assert.Equal(t, "30s", server["read_timeout"])
	assert.Equal(t, "2m0s", server["idle_timeout"])

	aa, ok := m["audioaddict"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "di", aa["service"])
	assert.Equal(t, "public3", aa["stream_quality"])
}

func TestDumpDefaults(t *testing.T) {
	t.Setenv("AARADIO_AUDIOADDICT_LISTEN_KEY", "should-not-appear")

	var buf bytes.Buffer
	require.NoError(t, dumpDefaults(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# aaradio Configuration File"))
	assert.NotContains(t, out, "should-not-appear")

	var parsed map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "info", parsed["logging"]["level"])
	assert.Equal(t, "30s", parsed["http_client"]["timeout"])
	assert.Equal(t, true, parsed["http_client"]["enable_decompression"])
}

func TestUserAgent(t *testing.T) {
	cfg := defaultConfig(t)
	assert.Equal(t, version.UserAgent(), userAgent(cfg))

	cfg.HTTPClient.UserAgent = "custom/1.0"
	assert.Equal(t, "custom/1.0", userAgent(cfg))
}

func TestNewServeStack(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("registers routes and refresh jobs", func(t *testing.T) {
		cfg := defaultConfig(t)
		cfg.Server.RefreshSchedule = "@every 1h"

		stack, err := newServeStack(cfg, logger)
		require.NoError(t, err)

		jobs := stack.scheduler.Jobs()
		require.Len(t, jobs, 4)
		assert.Equal(t, "refresh-di", jobs[0].Name)

		rec := httptest.NewRecorder()
		stack.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var services []map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&services))
		assert.Len(t, services, 4)

		rec = httptest.NewRecorder()
		stack.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no schedule means no jobs", func(t *testing.T) {
		stack, err := newServeStack(defaultConfig(t), logger)
		require.NoError(t, err)
		assert.Empty(t, stack.scheduler.Jobs())
	})

	t.Run("invalid schedule", func(t *testing.T) {
		cfg := defaultConfig(t)
		cfg.Server.RefreshSchedule = "not a schedule"

		_, err := newServeStack(cfg, logger)
		assert.Error(t, err)
	})
}

func TestServeStack_AgainstUpstream(t *testing.T) {
	upstream := testutil.NewFakeUpstream(t)
	cfg := defaultConfig(t)
	cfg.AudioAddict.ListenKey = "s3cret"
	cfg.Server.PublicURL = "https://radio.example.com"

	stack, err := newServeStack(cfg, slog.New(slog.DiscardHandler), upstream.Options()...)
	require.NoError(t, err)
	handler := stack.server.Handler()

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := get("/api/v1/services/jazzradio/channels")
	require.Equal(t, http.StatusOK, rec.Code)
	var channels []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&channels))
	assert.Len(t, channels, len(testutil.Genres[audioaddict.ServiceJazzRadio]))

	rec = get("/listen/jazzradio/bebopcorner")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/bebopcorner?listen_key=s3cret")

	rec = get("/playlist/jazzradio.m3u")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://radio.example.com/listen/jazzradio/smoothlane\n")
	assert.NotContains(t, rec.Body.String(), "s3cret")

	rec = get("/api/v1/services/jazzradio/channels/nothere")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, stack.scheduler.Start(t.Context()))
	stack.scheduler.Stop()

	for _, st := range stack.radio.Status() {
		if st.Service == "jazzradio" {
			assert.Equal(t, len(testutil.Genres[audioaddict.ServiceJazzRadio]), st.Channels)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		versionJSON = false
	})

	require.NoError(t, Execute())

	var info version.Info
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, version.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
