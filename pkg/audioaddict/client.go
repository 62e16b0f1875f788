package audioaddict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jmylchreest/aaradio/internal/version"
)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// APIHost is the host of the AudioAddict v1 API shared by all services.
	APIHost = "api.audioaddict.com"

	// Query parameter names.
	paramListenKey = "listen_key"

	maxErrorBodyReadSize = 1024
)

// HTTP header constants.
const (
	headerUserAgent = "User-Agent"
	headerAccept    = "Accept"
	mimeJSON        = "application/json"
)

// APIURL returns the base URL of the AudioAddict v1 API.
func APIURL(ssl bool) string {
	scheme := "http"
	if ssl {
		scheme = "https"
	}
	return scheme + "://" + APIHost + "/v1/"
}

// Client is an AudioAddict listen API client.
//
// A Client holds the selected service, listen key, stream quality, source
// preference and a cached channel directory. It is not safe for concurrent
// use; callers that need concurrency should use one Client per goroutine or
// guard it externally.
type Client struct {
	// HTTPClient is the standard HTTP client used for requests.
	// If nil, http.DefaultClient is used.
	HTTPClient *http.Client

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	logger   *slog.Logger
	intn     func(n int) int
	baseURLs map[Service]string

	service          Service
	listenKey        string
	quality          StreamQuality
	sourcePreference string
	channels         []Channel
	currentChannel   string
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new client with no service selected and the default
// stream quality.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		UserAgent: version.UserAgent(),
		logger:    slog.New(slog.DiscardHandler),
		intn:      rand.IntN,
		quality:   DefaultStreamQuality,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient sets a custom standard library HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
// This creates a new HTTP client with the specified timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.HTTPClient = &http.Client{
			Timeout: timeout,
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.UserAgent = ua
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRand sets the random source used to pick a stream source when no
// preference matches.
func WithRand(r *rand.Rand) ClientOption {
	return func(c *Client) {
		if r != nil {
			c.intn = r.IntN
		}
	}
}

// WithBaseURL overrides the listen URL of a single service, e.g. to target a
// mirror or a test server.
func WithBaseURL(service Service, baseURL string) ClientOption {
	return func(c *Client) {
		if c.baseURLs == nil {
			c.baseURLs = make(map[Service]string)
		}
		c.baseURLs[service] = strings.TrimSuffix(baseURL, "/")
	}
}

// SetService selects the active service. An unsupported id leaves the
// current selection unchanged. The cached channel directory is kept; call
// Channels with refresh set after switching services.
func (c *Client) SetService(id string) error {
	s, err := ParseService(id)
	if err != nil {
		return err
	}
	c.service = s
	return nil
}

// Service returns the active service and whether one has been selected.
func (c *Client) Service() (Service, bool) {
	return c.service, c.service != ""
}

// SetListenKey stores the listen key. An empty key clears it.
func (c *Client) SetListenKey(key string) {
	c.listenKey = key
}

// ListenKey returns the raw listen key, or "" when none is set.
func (c *Client) ListenKey() string {
	return c.listenKey
}

// ListenKeyQuery returns "?listen_key=<key>" for URL composition, or "" when
// no key is set.
func (c *Client) ListenKeyQuery() string {
	if c.listenKey == "" {
		return ""
	}
	return "?" + paramListenKey + "=" + c.listenKey
}

// SetStreamQuality selects the stream quality. An unsupported value leaves
// the current quality unchanged.
func (c *Client) SetStreamQuality(q string) error {
	sq, err := ParseStreamQuality(q)
	if err != nil {
		return err
	}
	c.quality = sq
	return nil
}

// StreamQuality returns the selected stream quality.
func (c *Client) StreamQuality() StreamQuality {
	return c.quality
}

// SetSourcePreference sets a substring used to prefer one stream source over
// the others. An empty value clears the preference.
func (c *Client) SetSourcePreference(source string) {
	c.sourcePreference = source
}

// SourcePreference returns the source preference, or "" when none is set.
func (c *Client) SourcePreference() string {
	return c.sourcePreference
}

// SetCurrentChannel records the channel currently being streamed.
// The key is not checked against the directory.
func (c *Client) SetCurrentChannel(key string) {
	c.currentChannel = key
}

// CurrentChannel returns the recorded channel key and whether one is set.
func (c *Client) CurrentChannel() (string, bool) {
	return c.currentChannel, c.currentChannel != ""
}

// ServiceURL returns the listen URL of the active service.
func (c *Client) ServiceURL() (string, error) {
	if c.service == "" {
		return "", ErrNoService
	}
	if u, ok := c.baseURLs[c.service]; ok {
		return u, nil
	}
	return c.service.BaseURL(), nil
}

// Channels returns the channel directory of the active service.
// The cached directory is returned unless it is empty or refresh is set, in
// which case it is fetched from <service url>/<stream quality> and replaces
// the cache. Fetch errors leave the cache untouched.
func (c *Client) Channels(ctx context.Context, refresh bool) ([]Channel, error) {
	if len(c.channels) > 0 && !refresh {
		return slices.Clone(c.channels), nil
	}

	base, err := c.ServiceURL()
	if err != nil {
		return nil, err
	}

	var channels []Channel
	if err := c.doRequest(ctx, base+"/"+c.quality.String(), &channels); err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "channel directory fetched",
		slog.String("service", c.service.String()),
		slog.String("stream_quality", c.quality.String()),
		slog.Int("channels", len(channels)),
	)

	c.channels = channels
	return slices.Clone(channels), nil
}

// Channel returns a copy of the directory entry whose key matches.
// When several entries share a key the last one wins.
func (c *Client) Channel(ctx context.Context, key string) (Channel, error) {
	channels, err := c.Channels(ctx, false)
	if err != nil {
		return nil, err
	}

	found, ok := FindChannel(channels, key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, key)
	}

	return found.Clone(), nil
}

// StreamSources returns the candidate stream URLs for a channel, in the
// order the service lists them.
func (c *Client) StreamSources(ctx context.Context, key string) ([]string, error) {
	base, err := c.ServiceURL()
	if err != nil {
		return nil, err
	}

	requestURL := base + "/" + c.quality.String() + "/" + key + c.ListenKeyQuery()

	var sources []string
	if err := c.doRequest(ctx, requestURL, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// StreamURL resolves a channel key to a playable stream URL.
//
// The first source containing the source preference is returned. Without a
// preference, or when nothing matches, a source is picked at random.
func (c *Client) StreamURL(ctx context.Context, key string) (string, error) {
	sources, err := c.StreamSources(ctx, key)
	if err != nil {
		return "", err
	}

	if c.sourcePreference != "" {
		for _, source := range sources {
			if strings.Contains(source, c.sourcePreference) {
				return source, nil
			}
		}
	}

	if len(sources) == 0 {
		return "", fmt.Errorf("%w: channel %q", ErrNoSources, key)
	}

	return sources[c.intn(len(sources))], nil
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, requestURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &NetworkError{URL: requestURL, Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set(headerAccept, mimeJSON)
	if c.UserAgent != "" {
		req.Header.Set(headerUserAgent, c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	c.logger.DebugContext(ctx, "requesting", slog.String("url", requestURL))

	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{URL: requestURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyReadSize))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &NetworkError{
			URL:        requestURL,
			StatusCode: resp.StatusCode,
			Err:        errors.New(msg),
		}
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(target); err != nil {
		return decodeFailure(requestURL, err)
	}

	// The body must hold exactly one JSON value.
	var trailing json.RawMessage
	switch err := dec.Decode(&trailing); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return &MalformedResponseError{URL: requestURL, Err: errTrailingData}
	default:
		return decodeFailure(requestURL, err)
	}
}

func decodeFailure(requestURL string, err error) error {
	if isDecodeError(err) {
		return &MalformedResponseError{URL: requestURL, Err: err}
	}
	return &NetworkError{URL: requestURL, Err: fmt.Errorf("reading response: %w", err)}
}

// isDecodeError reports whether err came from the JSON payload itself rather
// than from reading the body.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
