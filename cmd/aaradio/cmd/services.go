package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the supported AudioAddict networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeServices(cmd.OutOrStdout())
	},
}

var qualitiesCmd = &cobra.Command{
	Use:   "qualities",
	Short: "List the supported stream qualities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeQualities(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(qualitiesCmd)
}

func writeServices(w io.Writer) error {
	for _, id := range audioaddict.ServiceIDs() {
		if _, err := fmt.Fprintf(w, "%-10s %-14s %s\n", id, id.DisplayName(), id.BaseURL()); err != nil {
			return err
		}
	}
	return nil
}

func writeQualities(w io.Writer) error {
	for _, q := range audioaddict.SupportedStreamQualities() {
		marker := ""
		if q == audioaddict.DefaultStreamQuality {
			marker = " (default)"
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", q, marker); err != nil {
			return err
		}
	}
	return nil
}
