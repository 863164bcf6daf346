// Package cli implements webhookctl, a command line client for webhookd.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eldtechnologies/webhookd/clients/go/webhook"
)

// Execute runs webhookctl with os.Args.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Settings come from flags, then
// WEBHOOKD_URL / WEBHOOK_SECRET, then defaults.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "webhookctl",
		Short: "Sign, deliver and query webhookd messages",
		Long: `webhookctl talks to a webhookd server: it signs payloads with the shared
secret, delivers them to POST /webhook and reads messages and stats back.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("url", "http://localhost:8080", "webhookd base URL")
	root.PersistentFlags().String("secret", "", "shared webhook secret")
	cobra.CheckErr(v.BindPFlag("url", root.PersistentFlags().Lookup("url")))
	cobra.CheckErr(v.BindPFlag("secret", root.PersistentFlags().Lookup("secret")))
	cobra.CheckErr(v.BindEnv("url", "WEBHOOKD_URL"))
	cobra.CheckErr(v.BindEnv("secret", "WEBHOOK_SECRET"))
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`, `-`, `_`))
	v.AutomaticEnv()

	newClient := func() *webhook.Client {
		return webhook.NewClient(strings.TrimRight(v.GetString("url"), "/"), v.GetString("secret"))
	}

	root.AddCommand(
		newSignCmd(v),
		newSendCmd(newClient),
		newMessagesCmd(newClient),
		newStatsCmd(newClient),
	)
	return root
}

// readBody reads the file named by args[0], or stdin when no file is given.
func readBody(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return body, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
