// Package testutil provides test utilities including sample channel
// directories and a fake AudioAddict listen server.
package testutil

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

// Genres are the fictional channel names used per service. Keys are derived
// by lower-casing and removing spaces.
var Genres = map[audioaddict.Service][]string{
	audioaddict.ServiceDI:        {"Deep Pulse", "Night Drive", "Vocal Haze", "Chill Step", "Hard Grid"},
	audioaddict.ServiceSky:       {"Lounge Hours", "Café Strings", "Solo Piano", "Easy Hits"},
	audioaddict.ServiceJazzRadio: {"Smooth Lane", "Bebop Corner", "Late Trio", "Blue Brass"},
	audioaddict.ServiceRockRadio: {"Garage Riffs", "Arena Hits", "Slow Burn"},
}

// StreamHosts are the fictional hosts returned in stream source lists.
var StreamHosts = []string{"prem1", "prem2", "prem4"}

// ChannelKey returns the directory key for a genre name.
func ChannelKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// SampleDirectory returns the channel directory a service serves, in the
// shape the listen API uses.
func SampleDirectory(svc audioaddict.Service) []map[string]any {
	names := Genres[svc]
	channels := make([]map[string]any, 0, len(names))
	for i, name := range names {
		channels = append(channels, map[string]any{
			"id":          i + 1,
			"key":         ChannelKey(name),
			"name":        name,
			"description": fmt.Sprintf("%s on %s", name, svc.DisplayName()),
		})
	}
	return channels
}

// SampleSources returns the stream source list for a channel.
func SampleSources(key, query string) []string {
	sources := make([]string, 0, len(StreamHosts))
	for _, host := range StreamHosts {
		u := fmt.Sprintf("http://%s.example.test:80/%s", host, key)
		if query != "" {
			u += "?" + query
		}
		sources = append(sources, u)
	}
	return sources
}

// SampleDataGenerator builds larger random directories for tests that care
// about volume rather than exact content.
type SampleDataGenerator struct {
	rng *rand.Rand
}

// NewSampleDataGeneratorWithSeed creates a deterministic generator.
func NewSampleDataGeneratorWithSeed(seed uint64) *SampleDataGenerator {
	return &SampleDataGenerator{rng: rand.New(rand.NewPCG(seed, seed))}
}

// GenerateDirectory returns count channels with unique keys drawn from the
// genre names of every service.
func (g *SampleDataGenerator) GenerateDirectory(count int) []audioaddict.Channel {
	var names []string
	for _, svc := range audioaddict.ServiceIDs() {
		names = append(names, Genres[svc]...)
	}

	channels := make([]audioaddict.Channel, 0, count)
	for i := range count {
		name := names[g.rng.IntN(len(names))]
		channels = append(channels, audioaddict.Channel{
			"id":   float64(i + 1),
			"key":  fmt.Sprintf("%s%d", ChannelKey(name), i),
			"name": fmt.Sprintf("%s %d", name, i),
		})
	}
	return channels
}
