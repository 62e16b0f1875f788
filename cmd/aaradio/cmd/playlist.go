package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/aaradio/internal/observability"
	"github.com/jmylchreest/aaradio/internal/service"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

var (
	playlistOutput    string
	playlistProxyBase string
)

var playlistCmd = &cobra.Command{
	Use:   "playlist [keys...]",
	Short: "Write an M3U playlist of the selected service's channels",
	Long: `Write an M3U playlist of the selected service's channels.

With no keys every channel is included. Without --proxy-base each entry is
a resolved stream URL, which embeds the listen key and may expire. With
--proxy-base each entry points at a running "aaradio serve" instance, which
resolves a fresh URL on every play.

Examples:
  aaradio playlist -s di trance vocaltrance > di.m3u
  aaradio playlist -s jazzradio --proxy-base http://radio.local:8080 -o jazz.m3u`,
	RunE: runPlaylist,
}

func init() {
	playlistCmd.Flags().StringVarP(&playlistOutput, "output", "o", "", "write the playlist to a file instead of stdout")
	playlistCmd.Flags().StringVar(&playlistProxyBase, "proxy-base", "", "base URL of an aaradio server to route entries through")
	rootCmd.AddCommand(playlistCmd)
}

func runPlaylist(cmd *cobra.Command, args []string) (err error) {
	client, err := newClient()
	if err != nil {
		return err
	}
	svc, _ := client.Service()

	channels, err := client.Channels(cmd.Context(), false)
	if err != nil {
		return fmt.Errorf("fetching channels: %w", err)
	}
	channels, err = selectChannels(channels, args)
	if err != nil {
		return err
	}

	urlFor := service.URLFunc(func(key string) (string, error) {
		return client.StreamURL(cmd.Context(), key)
	})
	if playlistProxyBase != "" {
		urlFor = service.ProxyURLs(playlistProxyBase, svc)
	}

	var w io.Writer = cmd.OutOrStdout()
	if playlistOutput != "" {
		f, createErr := os.Create(playlistOutput)
		if createErr != nil {
			return fmt.Errorf("creating playlist file: %w", createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing playlist file: %w", cerr)
			}
		}()
		w = f
	}

	n, err := service.WritePlaylist(w, svc, channels, urlFor)
	if err != nil {
		return fmt.Errorf("writing playlist: %w", err)
	}

	observability.WithOperation(slog.Default(), "playlist").Info("playlist written",
		slog.String("service", svc.String()),
		slog.Int("entries", n),
		slog.String("output", playlistOutput),
	)
	return nil
}

// selectChannels keeps the channels named by keys, in the order given, using
// the same lookup rule as Client.Channel. No keys selects the whole directory.
func selectChannels(channels []audioaddict.Channel, keys []string) ([]audioaddict.Channel, error) {
	if len(keys) == 0 {
		return channels, nil
	}

	selected := make([]audioaddict.Channel, 0, len(keys))
	for _, key := range keys {
		ch, ok := audioaddict.FindChannel(channels, key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", audioaddict.ErrChannelNotFound, key)
		}
		selected = append(selected, ch)
	}
	return selected, nil
}
