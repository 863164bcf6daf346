package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eldtechnologies/webhookd/clients/go/webhook"
)

var errNoSecret = errors.New("no secret: set --secret or WEBHOOK_SECRET")

func newSignCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sign [payload.json]",
		Short: "Print the X-Signature value for a payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := v.GetString("secret")
			if secret == "" {
				return errNoSecret
			}
			body, err := readBody(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), webhook.Sign(body, secret))
			return err
		},
	}
}

func newSendCmd(newClient func() *webhook.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "send [payload.json]",
		Short: "Sign a payload and deliver it to POST /webhook",
		Long:  "Sends the payload bytes unchanged so the signature covers exactly what the server receives.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			if client.Secret == "" {
				return errNoSecret
			}
			body, err := readBody(cmd, args)
			if err != nil {
				return err
			}
			if err := client.SendRaw(cmd.Context(), body); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}
}

func newMessagesCmd(newClient func() *webhook.Client) *cobra.Command {
	var q webhook.MessagesQuery

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List stored messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := newClient().Messages(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().IntVar(&q.Limit, "limit", 0, "page size, 1-100 (server default 50)")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "number of messages to skip")
	cmd.Flags().StringVar(&q.From, "from", "", "only messages from this number")
	cmd.Flags().StringVar(&q.Since, "since", "", "only messages with ts >= this timestamp")
	cmd.Flags().StringVarP(&q.Q, "query", "q", "", "case-sensitive text substring")
	return cmd
}

func newStatsCmd(newClient func() *webhook.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show message statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := newClient().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}
