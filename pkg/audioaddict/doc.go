// Package audioaddict provides a Go client for the AudioAddict listen API.
//
// AudioAddict operates several internet radio networks (DI.fm, Sky.fm,
// JazzRadio.com, RockRadio.com) that share one JSON API. The client tracks the
// selected network, an optional listen key, the preferred stream quality and a
// cached channel directory, and resolves channel keys to playable stream URLs.
//
// # Basic Usage
//
//	client := audioaddict.NewClient()
//	if err := client.SetService("di"); err != nil {
//		return err
//	}
//	client.SetListenKey("abc123") // optional, premium qualities need it
//
//	// List channels (cached after the first call)
//	channels, err := client.Channels(ctx, false)
//
//	// Look up a single channel
//	ch, err := client.Channel(ctx, "trance")
//
//	// Resolve a stream URL, preferring sources hosted on a given edge
//	client.SetSourcePreference("prem2")
//	streamURL, err := client.StreamURL(ctx, "trance")
//
// # API Endpoints
//
//	{listenURL}/{quality}                          channel directory (JSON array of objects)
//	{listenURL}/{quality}/{channel}[?listen_key=]  stream sources (JSON array of URLs)
//
// Listen URLs are fixed per network:
//   - di: http://listen.di.fm
//   - sky: http://listen.sky.fm
//   - jazzradio: http://listen.jazzradio.com
//   - rockradio: http://listen.rockradio.com
//
// # Errors
//
// Validation failures are reported as ErrInvalidService and
// ErrInvalidStreamQuality. Transport failures are returned as *NetworkError and
// undecodable bodies as *MalformedResponseError. Nothing is retried.
package audioaddict
