package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/jsonrpc"
	"github.com/theapemachine/a2a-engine/pkg/sse"
)

var (
	urlFlag    string
	streamFlag bool

	clientCmd = &cobra.Command{
		Use:   "client [message]",
		Short: "Send a message to a running engine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := a2a.MessageSendParams{
				Message: a2a.NewTextMessage(a2a.RoleUser, args[0]),
			}

			if streamFlag {
				return sse.NewClient(urlFlag).Stream(
					context.Background(), "message/stream", params,
					func(event a2a.Event) {
						if task, ok := event.(*a2a.Task); ok {
							fmt.Println(task)
							return
						}

						fmt.Printf("%s event received\n", event.EventKind())
					},
				)
			}

			var task a2a.Task

			if err := jsonrpc.NewRPCClient(urlFlag).Call(
				context.Background(), "message/send", params, &task,
			); err != nil {
				return err
			}

			fmt.Println(&task)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.Flags().StringVarP(&urlFlag, "url", "u", "http://localhost:3210/rpc", "RPC endpoint of the engine")
	clientCmd.Flags().BoolVar(&streamFlag, "stream", false, "Use message/stream and print events as they arrive")
}
