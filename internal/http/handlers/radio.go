package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/aaradio/internal/service"
	"github.com/jmylchreest/aaradio/internal/urlutil"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

// RadioService is the subset of service.RadioService the handlers use.
type RadioService interface {
	Services() []service.ServiceInfo
	Channels(ctx context.Context, service string, refresh bool) ([]audioaddict.Channel, error)
	Channel(ctx context.Context, service, key string) (audioaddict.Channel, error)
	StreamURL(ctx context.Context, service, key string) (string, error)
}

// RadioHandler serves the channel directory, stream resolution and playlists.
type RadioHandler struct {
	radio     RadioService
	publicURL string
}

// NewRadioHandler creates a new radio handler.
func NewRadioHandler(radio RadioService) *RadioHandler {
	return &RadioHandler{radio: radio}
}

// WithPublicURL sets the externally reachable base URL written into
// playlists. When empty it is derived from each request.
func (h *RadioHandler) WithPublicURL(publicURL string) *RadioHandler {
	h.publicURL = strings.TrimSuffix(publicURL, "/")
	return h
}

// Register registers the radio routes with the API.
func (h *RadioHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listServices",
		Method:      http.MethodGet,
		Path:        "/api/v1/services",
		Summary:     "List services",
		Description: "Returns the supported AudioAddict networks",
		Tags:        []string{"Services"},
	}, h.ListServices)

	huma.Register(api, huma.Operation{
		OperationID: "listQualities",
		Method:      http.MethodGet,
		Path:        "/api/v1/qualities",
		Summary:     "List stream qualities",
		Tags:        []string{"Services"},
	}, h.ListQualities)

	huma.Register(api, huma.Operation{
		OperationID: "listChannels",
		Method:      http.MethodGet,
		Path:        "/api/v1/services/{service}/channels",
		Summary:     "List channels",
		Description: "Returns the channel directory of a network. The directory is cached; pass refresh=true to refetch it.",
		Tags:        []string{"Channels"},
	}, h.ListChannels)

	huma.Register(api, huma.Operation{
		OperationID: "getChannel",
		Method:      http.MethodGet,
		Path:        "/api/v1/services/{service}/channels/{key}",
		Summary:     "Get channel",
		Tags:        []string{"Channels"},
	}, h.GetChannel)

	huma.Register(api, huma.Operation{
		OperationID: "getChannelStream",
		Method:      http.MethodGet,
		Path:        "/api/v1/services/{service}/channels/{key}/stream",
		Summary:     "Resolve stream URL",
		Description: "Resolves a playable stream URL for a channel using the configured quality, listen key and source preference",
		Tags:        []string{"Channels"},
	}, h.GetStream)

	huma.Register(api, huma.Operation{
		OperationID:   "listen",
		Method:        http.MethodGet,
		Path:          "/listen/{service}/{key}",
		Summary:       "Listen to a channel",
		Description:   "Redirects to a freshly resolved stream URL",
		Tags:          []string{"Listen"},
		DefaultStatus: http.StatusFound,
	}, h.Listen)

	huma.Register(api, huma.Operation{
		OperationID: "getPlaylist",
		Method:      http.MethodGet,
		Path:        "/playlist/{service}.m3u",
		Summary:     "Get M3U playlist",
		Description: "Returns an M3U playlist of every channel of a network, each pointing at the listen endpoint",
		Tags:        []string{"Listen"},
	}, h.GetPlaylist)
}

// ListServicesOutput is the output for listing services.
type ListServicesOutput struct {
	Body []service.ServiceInfo
}

// ListServices returns the supported networks.
func (h *RadioHandler) ListServices(_ context.Context, _ *struct{}) (*ListServicesOutput, error) {
	return &ListServicesOutput{Body: h.radio.Services()}, nil
}

// ListQualitiesOutput is the output for listing qualities.
type ListQualitiesOutput struct {
	Body QualitiesResponse
}

// ListQualities returns the supported stream qualities.
func (h *RadioHandler) ListQualities(_ context.Context, _ *struct{}) (*ListQualitiesOutput, error) {
	qualities := audioaddict.SupportedStreamQualities()
	names := make([]string, len(qualities))
	for i, q := range qualities {
		names[i] = q.String()
	}
	return &ListQualitiesOutput{Body: QualitiesResponse{
		Qualities: names,
		Default:   audioaddict.DefaultStreamQuality.String(),
	}}, nil
}

// ListChannelsInput is the input for listing channels.
type ListChannelsInput struct {
	Service string `path:"service" doc:"Service identifier" example:"di"`
	Refresh bool   `query:"refresh" doc:"Refetch the directory instead of using the cache"`
}

// ListChannelsOutput is the output for listing channels.
type ListChannelsOutput struct {
	Body []audioaddict.Channel
}

// ListChannels returns the channel directory of a network.
func (h *RadioHandler) ListChannels(ctx context.Context, input *ListChannelsInput) (*ListChannelsOutput, error) {
	channels, err := h.radio.Channels(ctx, input.Service, input.Refresh)
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	if channels == nil {
		channels = []audioaddict.Channel{}
	}
	return &ListChannelsOutput{Body: channels}, nil
}

// ChannelInput identifies one channel of a network.
type ChannelInput struct {
	Service string `path:"service" doc:"Service identifier" example:"di"`
	Key     string `path:"key" doc:"Channel key" example:"trance"`
}

// Resolve decodes a key whose escaped form reached the router unchanged,
// as happens for keys containing a slash.
func (i *ChannelInput) Resolve(_ huma.Context) []error {
	i.Key = urlutil.UnescapeSegment(i.Key)
	return nil
}

// GetChannelOutput is the output for getting a channel.
type GetChannelOutput struct {
	Body audioaddict.Channel
}

// GetChannel returns one channel record as the service published it.
func (h *RadioHandler) GetChannel(ctx context.Context, input *ChannelInput) (*GetChannelOutput, error) {
	ch, err := h.radio.Channel(ctx, input.Service, input.Key)
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	return &GetChannelOutput{Body: ch}, nil
}

// GetStreamOutput is the output for resolving a stream.
type GetStreamOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         StreamResponse
}

// GetStream resolves a playable stream URL for a channel.
func (h *RadioHandler) GetStream(ctx context.Context, input *ChannelInput) (*GetStreamOutput, error) {
	url, err := h.radio.StreamURL(ctx, input.Service, input.Key)
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	return &GetStreamOutput{
		CacheControl: "no-store",
		Body:         StreamResponse{Service: input.Service, Channel: input.Key, URL: url},
	}, nil
}

// ListenOutput is a redirect to a stream.
type ListenOutput struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}

// Listen redirects to a freshly resolved stream URL.
func (h *RadioHandler) Listen(ctx context.Context, input *ChannelInput) (*ListenOutput, error) {
	url, err := h.radio.StreamURL(ctx, input.Service, input.Key)
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	return &ListenOutput{
		Status:       http.StatusFound,
		Location:     url,
		CacheControl: "no-store",
	}, nil
}

// PlaylistInput is the input for getting a playlist.
type PlaylistInput struct {
	Service string `path:"service" doc:"Service identifier" example:"di"`

	// Origin is the scheme and host the request arrived on.
	Origin string
}

// Resolve captures the request origin for building listen URLs.
func (i *PlaylistInput) Resolve(ctx huma.Context) []error {
	i.Origin = urlutil.Origin(ctx.Header("X-Forwarded-Proto"), ctx.Header("X-Forwarded-Host"), ctx.Host())
	return nil
}

// PlaylistOutput is the output for getting a playlist.
type PlaylistOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// GetPlaylist returns an M3U playlist whose entries point at the listen
// endpoint, so players resolve a fresh stream URL on every play.
func (h *RadioHandler) GetPlaylist(ctx context.Context, input *PlaylistInput) (*PlaylistOutput, error) {
	channels, err := h.radio.Channels(ctx, input.Service, false)
	if err != nil {
		return nil, upstreamError(ctx, err)
	}

	base := h.publicURL
	if base == "" {
		base = input.Origin
	}

	var buf bytes.Buffer
	svc := audioaddict.Service(input.Service)
	if _, err := service.WritePlaylist(&buf, svc, channels, service.ProxyURLs(base, svc)); err != nil {
		return nil, huma.Error500InternalServerError("failed to write playlist", err)
	}

	return &PlaylistOutput{
		ContentType:        "audio/x-mpegurl",
		ContentDisposition: fmt.Sprintf(`inline; filename="%s.m3u"`, input.Service),
		Body:               buf.Bytes(),
	}, nil
}
