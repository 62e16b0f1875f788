package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/aaradio/pkg/audioaddict"
	"github.com/jmylchreest/aaradio/pkg/format"
)

var (
	channelsRefresh bool
	channelsJSON    bool
	channelJSON     bool
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the channels of the selected service",
	Long: `List the channel directory of the selected service.

Examples:
  aaradio channels -s di
  aaradio channels -s jazzradio --json`,
	Args: cobra.NoArgs,
	RunE: runChannels,
}

var channelCmd = &cobra.Command{
	Use:   "channel <key>",
	Short: "Show a single channel record",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannel,
}

var streamCmd = &cobra.Command{
	Use:   "stream <key>",
	Short: "Resolve a playable stream URL for a channel",
	Long: `Resolve a playable stream URL for a channel.

The URL carries the configured listen key, if any. When a source preference
is set (--source), the first stream host containing it is chosen; otherwise
one is picked at random.`,
	Args: cobra.ExactArgs(1),
	RunE: runStream,
}

func init() {
	channelsCmd.Flags().BoolVar(&channelsRefresh, "refresh", false, "force a fresh fetch of the channel directory")
	channelsCmd.Flags().BoolVar(&channelsJSON, "json", false, "output the raw channel records as JSON")
	channelCmd.Flags().BoolVar(&channelJSON, "json", false, "output the raw channel record as JSON")

	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.AddCommand(streamCmd)
}

func runChannels(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	channels, err := client.Channels(cmd.Context(), channelsRefresh)
	if err != nil {
		return fmt.Errorf("fetching channels: %w", err)
	}

	if channelsJSON {
		return writeJSON(cmd.OutOrStdout(), channels)
	}
	return writeChannelTable(cmd.OutOrStdout(), channels)
}

func runChannel(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ch, err := client.Channel(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if channelJSON {
		return writeJSON(cmd.OutOrStdout(), ch)
	}
	return writeChannel(cmd.OutOrStdout(), ch)
}

func runStream(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	url, err := client.StreamURL(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("resolving stream: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
	return err
}

// writeChannelTable prints one "key name" line per channel and a count footer.
func writeChannelTable(w io.Writer, channels []audioaddict.Channel) error {
	width := len("KEY")
	for _, ch := range channels {
		width = max(width, len(ch.Key()))
	}

	if _, err := fmt.Fprintf(w, "%-*s  %s\n", width, "KEY", "NAME"); err != nil {
		return err
	}
	for _, ch := range channels {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width, ch.Key(), ch.Name()); err != nil {
			return err
		}
	}

	noun := "channels"
	if len(channels) == 1 {
		noun = "channel"
	}
	_, err := fmt.Fprintf(w, "\n%s %s\n", format.Number(int64(len(channels))), noun)
	return err
}

func writeChannel(w io.Writer, ch audioaddict.Channel) error {
	fields := []struct{ label, value string }{
		{"Key", ch.Key()},
		{"Name", ch.Name()},
		{"ID", ch.ID()},
		{"Description", ch.Description()},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-12s %s\n", f.label+":", f.value); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
