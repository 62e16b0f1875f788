package cmd

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/aaradio/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing aaradio configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

This shows all available configuration options with their default values.
You can redirect this output to a file to create a configuration template:

  aaradio config dump > config.yaml

Configuration can be set via:
  - Config file (./config.yaml, /etc/aaradio/config.yaml, $HOME/.aaradio/config.yaml)
  - Environment variables (AARADIO_SERVER_PORT, AARADIO_AUDIOADDICT_LISTEN_KEY, etc.)
  - Command-line flags (--service, --quality, --source, --listen-key)

Environment variables use the AARADIO_ prefix and underscores for nesting.
Example: server.port -> AARADIO_SERVER_PORT`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return dumpDefaults(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap converts a config struct to a map keyed by mapstructure tags,
// formatting durations for readability.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	typ := val.Type()

	for i := range val.NumField() {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = fieldType.Name
		}

		switch fv := field.Interface().(type) {
		case time.Duration:
			result[key] = fv.String()
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = fv
			}
		}
	}
	return result
}

// dumpDefaults writes the built-in defaults only; files, env and flags are
// ignored so a configured listen key is never printed.
func dumpDefaults(w io.Writer) error {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.FromViper(v)
	if err != nil {
		return fmt.Errorf("loading defaults: %w", err)
	}

	yamlData, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	header := `# aaradio Configuration File
# ===========================
#
# All values shown below are defaults.
# Duration format: 30s, 5m, 1h
#
# Environment variable overrides:
#   AARADIO_AUDIOADDICT_SERVICE, AARADIO_AUDIOADDICT_LISTEN_KEY
#   AARADIO_SERVER_HOST, AARADIO_SERVER_PORT
#   AARADIO_LOGGING_LEVEL, AARADIO_LOGGING_FORMAT
#   etc.
#

`
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err = w.Write(yamlData)
	return err
}
