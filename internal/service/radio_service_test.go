package service

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/aaradio/internal/config"
	"github.com/jmylchreest/aaradio/internal/testutil"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

func newTestRadioService(t *testing.T, cfg config.AudioAddictConfig) (*RadioService, *testutil.FakeUpstream) {
	t.Helper()
	upstream := testutil.NewFakeUpstream(t)
	svc, err := NewRadioService(cfg, upstream.Options()...)
	require.NoError(t, err)
	return svc.WithLogger(slog.New(slog.DiscardHandler)), upstream
}

func TestNewClient(t *testing.T) {
	t.Run("applies configuration", func(t *testing.T) {
		client, err := NewClient(config.AudioAddictConfig{
			Service:          "jazzradio",
			StreamQuality:    "premium_high",
			SourcePreference: "prem2",
			ListenKey:        "abc",
		})
		require.NoError(t, err)

		service, ok := client.Service()
		assert.True(t, ok)
		assert.Equal(t, audioaddict.ServiceJazzRadio, service)
		assert.Equal(t, audioaddict.QualityPremiumHigh, client.StreamQuality())
		assert.Equal(t, "prem2", client.SourcePreference())
		assert.Equal(t, "?listen_key=abc", client.ListenKeyQuery())
	})

	t.Run("empty service leaves none selected", func(t *testing.T) {
		client, err := NewClient(config.AudioAddictConfig{})
		require.NoError(t, err)

		_, ok := client.Service()
		assert.False(t, ok)
		assert.Equal(t, audioaddict.DefaultStreamQuality, client.StreamQuality())
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := NewClient(config.AudioAddictConfig{Service: "radiotunes"})
		assert.ErrorIs(t, err, audioaddict.ErrInvalidService)

		_, err = NewClient(config.AudioAddictConfig{StreamQuality: "lossless"})
		assert.ErrorIs(t, err, audioaddict.ErrInvalidStreamQuality)
	})
}

func TestRadioService_Services(t *testing.T) {
	svc, _ := newTestRadioService(t, config.AudioAddictConfig{})

	services := svc.Services()
	require.Len(t, services, 4)
	assert.Equal(t, ServiceInfo{ID: "di", Name: "DI.fm", URL: "http://listen.di.fm"}, services[0])
	assert.Equal(t, "sky", services[3].ID)
}

func TestRadioService_Channels(t *testing.T) {
	svc, upstream := newTestRadioService(t, config.AudioAddictConfig{})
	ctx := context.Background()

	di, err := svc.Channels(ctx, "di", false)
	require.NoError(t, err)
	require.Len(t, di, len(testutil.Genres[audioaddict.ServiceDI]))
	assert.Equal(t, "deeppulse", di[0].Key())

	sky, err := svc.Channels(ctx, "sky", false)
	require.NoError(t, err)
	assert.Equal(t, "loungehours", sky[0].Key())

	// Cached per network.
	_, err = svc.Channels(ctx, "di", false)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.Requests())

	_, err = svc.Channels(ctx, "di", true)
	require.NoError(t, err)
	assert.Equal(t, 3, upstream.Requests())
}

func TestRadioService_InvalidService(t *testing.T) {
	svc, upstream := newTestRadioService(t, config.AudioAddictConfig{})
	ctx := context.Background()

	_, err := svc.Channels(ctx, "radiotunes", false)
	assert.ErrorIs(t, err, audioaddict.ErrInvalidService)

	_, err = svc.Channel(ctx, "", "x")
	assert.ErrorIs(t, err, audioaddict.ErrInvalidService)

	_, err = svc.StreamURL(ctx, "DI", "x")
	assert.ErrorIs(t, err, audioaddict.ErrInvalidService)

	assert.Zero(t, upstream.Requests())
}

func TestRadioService_Channel(t *testing.T) {
	svc, _ := newTestRadioService(t, config.AudioAddictConfig{})
	ctx := context.Background()

	ch, err := svc.Channel(ctx, "rockradio", "arenahits")
	require.NoError(t, err)
	assert.Equal(t, "Arena Hits", ch.Name())

	_, err = svc.Channel(ctx, "rockradio", "missing")
	assert.ErrorIs(t, err, audioaddict.ErrChannelNotFound)
}

func TestRadioService_StreamURL(t *testing.T) {
	svc, _ := newTestRadioService(t, config.AudioAddictConfig{
		StreamQuality:    "premium_high",
		SourcePreference: "prem4",
		ListenKey:        "k3y",
	})

	url, err := svc.StreamURL(context.Background(), "di", "nightdrive")
	require.NoError(t, err)
	assert.Equal(t, "http://prem4.example.test:80/nightdrive?listen_key=k3y", url)

	current, ok := svc.clients[audioaddict.ServiceDI].client.CurrentChannel()
	assert.True(t, ok)
	assert.Equal(t, "nightdrive", current)
}

func TestRadioService_StreamURLLogOmitsQuery(t *testing.T) {
	upstream := testutil.NewFakeUpstream(t)
	svc, err := NewRadioService(config.AudioAddictConfig{ListenKey: "0123abcd"}, upstream.Options()...)
	require.NoError(t, err)

	var buf bytes.Buffer
	svc.WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	url, err := svc.StreamURL(context.Background(), "di", "deeppulse")
	require.NoError(t, err)
	assert.Contains(t, url, "0123abcd")

	assert.Contains(t, buf.String(), "resolved stream")
	assert.Contains(t, buf.String(), "?REDACTED")
	assert.NotContains(t, buf.String(), "0123abcd")
}

func TestRadioService_RefreshAndStatus(t *testing.T) {
	svc, upstream := newTestRadioService(t, config.AudioAddictConfig{})
	ctx := context.Background()

	for _, st := range svc.Status() {
		assert.Zero(t, st.Channels)
		assert.True(t, st.LastRefresh.IsZero())
	}

	jazz := len(testutil.Genres[audioaddict.ServiceJazzRadio])
	n, err := svc.Refresh(ctx, "jazzradio")
	require.NoError(t, err)
	assert.Equal(t, jazz, n)

	status := svc.Status()
	require.Len(t, status, 4)
	assert.Equal(t, "jazzradio", status[1].Service)
	assert.Equal(t, jazz, status[1].Channels)
	assert.False(t, status[1].LastRefresh.IsZero())
	assert.Empty(t, status[1].LastError)

	upstream.SetFailing(true)
	_, err = svc.Refresh(ctx, "jazzradio")
	var netErr *audioaddict.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)

	status = svc.Status()
	assert.Equal(t, jazz, status[1].Channels, "cache survives a failed refresh")
	assert.NotEmpty(t, status[1].LastError)

	// The cached directory is still served.
	channels, err := svc.Channels(ctx, "jazzradio", false)
	require.NoError(t, err)
	assert.Len(t, channels, jazz)
}

func TestRadioService_Concurrent(t *testing.T) {
	svc, _ := newTestRadioService(t, config.AudioAddictConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		id := audioaddict.ServiceIDs()[i%4]
		service := id.String()
		key := testutil.ChannelKey(testutil.Genres[id][0])
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Channels(ctx, service, i%3 == 0)
			assert.NoError(t, err)
			_, err = svc.StreamURL(ctx, service, key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, st := range svc.Status() {
		assert.Equal(t, len(testutil.Genres[audioaddict.Service(st.Service)]), st.Channels)
	}
}
