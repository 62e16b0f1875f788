package audioaddict

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Service identifies one AudioAddict-operated radio network.
type Service string

// Supported services.
const (
	ServiceSky       Service = "sky"
	ServiceDI        Service = "di"
	ServiceJazzRadio Service = "jazzradio"
	ServiceRockRadio Service = "rockradio"
)

// serviceInfo is the fixed table backing every Service lookup.
var serviceInfo = map[Service]struct {
	name    string
	baseURL string
}{
	ServiceSky:       {name: "Sky.fm", baseURL: "http://listen.sky.fm"},
	ServiceDI:        {name: "DI.fm", baseURL: "http://listen.di.fm"},
	ServiceJazzRadio: {name: "JazzRadio.com", baseURL: "http://listen.jazzradio.com"},
	ServiceRockRadio: {name: "RockRadio.com", baseURL: "http://listen.rockradio.com"},
}

// ParseService validates id against the supported services.
func ParseService(id string) (Service, error) {
	s := Service(id)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidService, id)
	}
	return s, nil
}

// Valid reports whether s is one of the supported services.
func (s Service) Valid() bool {
	_, ok := serviceInfo[s]
	return ok
}

// DisplayName returns the human readable brand name, e.g. "DI.fm".
// It returns an empty string for unsupported services.
func (s Service) DisplayName() string {
	return serviceInfo[s].name
}

// BaseURL returns the fixed listen URL for the service.
func (s Service) BaseURL() string {
	return serviceInfo[s].baseURL
}

func (s Service) String() string {
	return string(s)
}

// SupportedServices returns every supported service mapped to its display name.
// The returned map is a fresh copy and may be modified by the caller.
func SupportedServices() map[Service]string {
	out := make(map[Service]string, len(serviceInfo))
	for s, info := range serviceInfo {
		out[s] = info.name
	}
	return out
}

// ServiceIDs returns the supported service identifiers in a stable order.
func ServiceIDs() []Service {
	return slices.Sorted(maps.Keys(serviceInfo))
}

// ServiceDisplayName returns the display name for the given service id.
func ServiceDisplayName(id string) (string, error) {
	s, err := ParseService(id)
	if err != nil {
		return "", err
	}
	return s.DisplayName(), nil
}

// StreamQuality is an encoding/bitrate tier exposed by the listen endpoints.
type StreamQuality string

// Supported stream qualities. Only MP3 tiers are listed.
const (
	// QualityPublic3 is the free 96k MP3 tier and the only one present on every service.
	QualityPublic3 StreamQuality = "public3"
	// QualityPremiumHigh is the 256k MP3 premium tier.
	QualityPremiumHigh StreamQuality = "premium_high"
	// QualityAndroidPremiumHigh is only offered by rockradio.
	QualityAndroidPremiumHigh StreamQuality = "android_premium_high"
)

// DefaultStreamQuality is used until SetStreamQuality is called.
const DefaultStreamQuality = QualityPublic3

var streamQualities = []StreamQuality{
	QualityPublic3,
	QualityPremiumHigh,
	QualityAndroidPremiumHigh,
}

// SupportedStreamQualities returns the supported qualities in their canonical order.
func SupportedStreamQualities() []StreamQuality {
	return slices.Clone(streamQualities)
}

// ParseStreamQuality validates q against the supported qualities.
func ParseStreamQuality(q string) (StreamQuality, error) {
	sq := StreamQuality(q)
	if !sq.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStreamQuality, q)
	}
	return sq, nil
}

// Valid reports whether q is a supported stream quality.
func (q StreamQuality) Valid() bool {
	return slices.Contains(streamQualities, q)
}

func (q StreamQuality) String() string {
	return string(q)
}

// Channel is a single entry of a service's channel directory.
//
// The directory endpoint returns loosely structured objects; only "key" is
// relied upon. Everything else is kept as decoded so callers can pass it on
// unchanged.
type Channel map[string]any

// Well-known channel fields.
const (
	FieldKey         = "key"
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldPlaylist    = "playlist"
)

// Key returns the channel key, or "" when the field is missing or not a string.
func (c Channel) Key() string {
	return c.stringField(FieldKey)
}

// HasKey reports whether the record's key field is a string equal to key.
// Records with a missing or non-string key never match, not even "".
func (c Channel) HasKey(key string) bool {
	k, ok := c[FieldKey].(string)
	return ok && k == key
}

// FindChannel returns the entry whose key field equals key. When several
// entries share a key the last one wins.
func FindChannel(channels []Channel, key string) (Channel, bool) {
	for i := len(channels) - 1; i >= 0; i-- {
		if channels[i].HasKey(key) {
			return channels[i], true
		}
	}
	return nil, false
}

// Name returns the channel display name if present.
func (c Channel) Name() string {
	return c.stringField(FieldName)
}

// Description returns the channel description if present.
func (c Channel) Description() string {
	return c.stringField(FieldDescription)
}

// ID returns the numeric channel id as a string if present.
// JSON numbers decode as float64, so they are formatted without a fraction.
func (c Channel) ID() string {
	switch v := c[FieldID].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Title returns Name, falling back to Key.
func (c Channel) Title() string {
	if name := c.Name(); name != "" {
		return name
	}
	return c.Key()
}

// Clone returns a shallow copy of the channel record.
func (c Channel) Clone() Channel {
	return maps.Clone(c)
}

func (c Channel) stringField(field string) string {
	if v, ok := c[field].(string); ok {
		return v
	}
	return ""
}
