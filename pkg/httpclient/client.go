// Package httpclient provides the outbound HTTP transport used by aaradio.
//
// The client wraps a standard http.RoundTripper and adds:
//   - Transparent decompression (gzip, deflate, brotli)
//   - A maximum response size, enforced after decompression
//   - A default User-Agent
//   - Structured request logging and request counters
//
// Requests are attempted exactly once. Failures are returned to the caller
// unchanged so that higher layers decide what, if anything, to do about them.
package httpclient

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"
)

// ErrResponseTooLarge is returned while reading a body that exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("response body exceeds maximum size limit")

// Default configuration values.
const (
	DefaultTimeout              = 30 * time.Second
	DefaultMaxResponseSize      = 0 // 0 means no limit
	DefaultAcceptEncodingHeader = "gzip, deflate, br"
	DefaultUserAgentHeader      = "aaradio-httpclient/1.0"
)

// HTTP header constants.
const (
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentEncoding = "Content-Encoding"
	HeaderUserAgent       = "User-Agent"

	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
	EncodingBrotli  = "br"
)

// Config holds the configuration for the HTTP client.
type Config struct {
	// Timeout is the overall request timeout applied by StandardClient.
	Timeout time.Duration

	// UserAgent is sent when the request does not carry its own.
	UserAgent string

	// Logger receives one debug line per request and a warning per failure.
	Logger *slog.Logger

	// EnableDecompression advertises and decodes gzip, deflate and brotli bodies.
	EnableDecompression bool

	// MaxResponseSize is the maximum allowed response body size in bytes,
	// applied after decompression. 0 disables the limit.
	MaxResponseSize int64

	// Transport is the underlying round tripper. If nil, http.DefaultTransport is used.
	Transport http.RoundTripper
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgentHeader,
		Logger:              slog.Default(),
		EnableDecompression: true,
		MaxResponseSize:     DefaultMaxResponseSize,
	}
}

// Stats is a snapshot of the client's request counters.
type Stats struct {
	Requests int64 `json:"requests"`
	Failures int64 `json:"failures"`
}

// Client is an http.RoundTripper with decompression, size limiting and logging.
type Client struct {
	config    Config
	transport http.RoundTripper
	logger    *slog.Logger

	requests atomic.Int64
	failures atomic.Int64
}

// New creates a new client with the given configuration.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		config:    cfg,
		transport: transport,
		logger:    cfg.Logger,
	}
}

// NewWithDefaults creates a new client with default configuration.
func NewWithDefaults() *Client {
	return New(DefaultConfig())
}

// RoundTrip implements http.RoundTripper.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	needsUA := req.Header.Get(HeaderUserAgent) == "" && c.config.UserAgent != ""
	needsAE := c.config.EnableDecompression && req.Header.Get(HeaderAcceptEncoding) == ""
	if needsUA || needsAE {
		req = req.Clone(req.Context())
		if needsUA {
			req.Header.Set(HeaderUserAgent, c.config.UserAgent)
		}
		if needsAE {
			req.Header.Set(HeaderAcceptEncoding, DefaultAcceptEncodingHeader)
		}
	}

	c.requests.Add(1)
	start := time.Now()
	resp, err := c.transport.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		c.failures.Add(1)
		c.logger.Warn("request failed",
			slog.String("url", req.URL.String()),
			slog.String("method", req.Method),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.failures.Add(1)
	}

	c.logger.Debug("request completed",
		slog.String("url", req.URL.String()),
		slog.String("method", req.Method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
		slog.Int64("content_length", resp.ContentLength),
	)

	if c.config.EnableDecompression {
		c.wrapDecompression(resp)
	}

	if c.config.MaxResponseSize > 0 {
		resp.Body = newLimitedReader(resp.Body, c.config.MaxResponseSize)
	}

	return resp, nil
}

// Get performs a GET request to the specified URL.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.StandardClient().Do(req)
}

// StandardClient returns a standard *http.Client that uses this client as its
// transport, for code that accepts a plain *http.Client.
func (c *Client) StandardClient() *http.Client {
	return &http.Client{
		Transport: c,
		Timeout:   c.config.Timeout,
	}
}

// Stats returns a snapshot of the request counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests: c.requests.Load(),
		Failures: c.failures.Load(),
	}
}

var _ http.RoundTripper = (*Client)(nil)

// wrapDecompression replaces the response body with a decoding reader when
// the server used a supported content encoding.
func (c *Client) wrapDecompression(resp *http.Response) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get(HeaderContentEncoding)))
	if encoding == "" {
		return
	}

	var reader io.Reader
	switch encoding {
	case EncodingGzip:
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			c.logger.Warn("failed to create gzip reader, returning raw body",
				slog.String("error", err.Error()),
			)
			return
		}
		reader = gz
	case EncodingDeflate:
		reader = flate.NewReader(resp.Body)
	case EncodingBrotli:
		reader = brotli.NewReader(resp.Body)
	default:
		c.logger.Debug("unknown content encoding, returning raw body",
			slog.String("encoding", encoding),
		)
		return
	}

	resp.Body = &decompressReader{reader: reader, closer: resp.Body}
	resp.Header.Del(HeaderContentEncoding)
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
}

// decompressReader wraps a decompression reader with the original body closer.
type decompressReader struct {
	reader io.Reader
	closer io.Closer
}

func (d *decompressReader) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

func (d *decompressReader) Close() error {
	if closer, ok := d.reader.(io.Closer); ok {
		_ = closer.Close()
	}
	return d.closer.Close()
}

// limitedReader returns ErrResponseTooLarge once more than limit bytes are read.
type limitedReader struct {
	reader    io.ReadCloser
	remaining int64
	exceeded  bool
}

func newLimitedReader(r io.ReadCloser, limit int64) *limitedReader {
	return &limitedReader{reader: r, remaining: limit}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, ErrResponseTooLarge
	}

	n, err := l.reader.Read(p)
	l.remaining -= int64(n)

	if l.remaining < 0 {
		l.exceeded = true
		return n, ErrResponseTooLarge
	}

	return n, err
}

func (l *limitedReader) Close() error {
	return l.reader.Close()
}
