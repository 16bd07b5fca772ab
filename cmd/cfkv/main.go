// Command cfkv is a small command-line front end for the SDK: get, put,
// delete and list against one Workers KV namespace described by a YAML
// profile (overridable via CF_* environment variables).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgekv/cfkv_sdk_go/internal/config"
	"github.com/edgekv/cfkv_sdk_go/pkg/kv"
)

var version = "0.1.0"

var (
	configPath string
	putTTL     int
	putJSON    bool
	listPrefix string
	listLimit  int
	listCursor string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cfkv",
	Short: "Workers KV command-line client",
	Long: `cfkv reads and writes a Cloudflare Workers KV namespace.

The namespace binding (account, namespace, token) comes from a YAML profile,
with CF_ACCOUNT_ID, CF_KV_NAMESPACE_ID, CF_API_TOKEN and CFKV_API_BASE_URL
overriding file values. Point CFKV_API_BASE_URL at a running cfkv-sandbox to
work without a Cloudflare account.

Examples:
  cfkv get greeting
  cfkv put greeting "hello world"
  cfkv put session '{"user":1}' --json --ttl 3600
  cfkv list --prefix jobs: --limit 50
  cfkv delete greeting`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "cfkv.yaml", "path to the profile file")

	putCmd.Flags().IntVar(&putTTL, "ttl", 0, "expiration TTL in seconds (0 disables expiry)")
	putCmd.Flags().BoolVar(&putJSON, "json", false, "treat the value as a JSON document instead of plain text")

	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "only list keys with this prefix")
	listCmd.Flags().IntVar(&listLimit, "limit", 100, "page size (1-1000)")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "pagination cursor from a previous page")

	rootCmd.AddCommand(getCmd, putCmd, deleteCmd, listCmd)
}

func newClient() (*kv.Client, error) {
	profile, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	profile.ApplyEnv()
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	var opts []kv.Option
	if profile.BaseURL != "" {
		opts = append(opts, kv.WithAPIBaseURL(profile.BaseURL))
	}
	client, err := kv.New(profile.AccountID, profile.NamespaceID, profile.APIToken, opts...)
	if err != nil {
		return nil, err
	}
	if profile.Debug {
		client.ShowErrors(true)
	}
	return client, nil
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		item, err := client.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("key %q not found", args[0])
		}
		os.Stdout.Write(item.Raw)
		fmt.Println()
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Store a value under a key",
	Long: `Store a value under a key. Pass "-" as the value to read it from stdin.
Plain values are stored as text; --json validates the value and stores it
with a JSON content type.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		raw := []byte(args[1])
		if args[1] == "-" {
			raw, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read value from stdin: %w", err)
			}
		}

		var value any = string(raw)
		if putJSON {
			if !json.Valid(raw) {
				return fmt.Errorf("value is not valid JSON")
			}
			value = json.RawMessage(raw)
		}

		var opts *kv.PutOptions
		if putTTL > 0 {
			opts = &kv.PutOptions{ExpirationTTL: putTTL}
		}
		return client.Put(cmd.Context(), args[0], value, opts)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a key from the namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		return client.Delete(cmd.Context(), args[0])
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List key names in the namespace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		res, err := client.ListKeys(cmd.Context(), kv.ListOptions{
			Prefix: listPrefix,
			Limit:  listLimit,
			Cursor: listCursor,
		})
		if err != nil {
			return err
		}
		for _, key := range res.Keys {
			if key.Expiration > 0 {
				fmt.Printf("%s\t(expires %d)\n", key.Name, key.Expiration)
			} else {
				fmt.Println(key.Name)
			}
		}
		if !res.ListComplete {
			fmt.Fprintf(os.Stderr, "more keys available; continue with --cursor %s\n", res.Cursor)
		}
		return nil
	},
}
