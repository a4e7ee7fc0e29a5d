package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configShowSecrets bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit config.toml",
	Long: `View and edit <data-dir>/config.toml. Keys use dot notation, for example
llm.provider, llm.groq.api_key or chunking.size.

Environment variables override the file: DOCUCHAT_LLM_PROVIDER, or the
plain names such as GROQ_API_KEY and DATABASE_URL.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a stored setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a setting",
	Long: `Stores a setting in config.toml. Values that parse as booleans, integers
or floats are stored with that type.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a stored setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

func init() {
	configCmd.PersistentFlags().BoolVar(&configShowSecrets, "show-secrets", false, "print API keys and passwords unmasked")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	store := current().Config
	if store == nil {
		return errNotConfigured("config store")
	}

	keys := store.Keys()
	cmd.Printf("Settings in %s\n", store.Path())
	if len(keys) == 0 {
		cmd.Println("  (none)")
		return nil
	}
	for _, key := range keys {
		value, _ := store.Get(key)
		cmd.Printf("  %s = %s\n", key, displayValue(key, value))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store := current().Config
	if store == nil {
		return errNotConfigured("config store")
	}

	value, ok := store.Get(args[0])
	if !ok {
		return fmt.Errorf("%s is not set in %s", args[0], store.Path())
	}
	cmd.Println(displayValue(args[0], value))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store := current().Config
	if store == nil {
		return errNotConfigured("config store")
	}

	key, value := args[0], parseValue(args[1])
	if err := store.Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("Set %s = %s\n", key, displayValue(key, value))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	store := current().Config
	if store == nil {
		return errNotConfigured("config store")
	}

	if err := store.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove setting: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

// parseValue keeps "true", "42" and "0.5" typed in the TOML file.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func displayValue(key string, value any) string {
	s := fmt.Sprint(value)
	if !configShowSecrets && isSecretKey(key) {
		return maskAPIKey(s)
	}
	return s
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	return strings.HasSuffix(k, "api_key") || strings.HasSuffix(k, "password") || k == "db.url"
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
