package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/eventqueue"
	"github.com/theapemachine/a2a-engine/pkg/push"
	"github.com/theapemachine/a2a-engine/pkg/service"
	"github.com/theapemachine/a2a-engine/pkg/stores"
	"github.com/theapemachine/a2a-engine/pkg/stores/s3"
)

var (
	addrFlag    string
	apiKeyFlag  string
	s3StoreFlag bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the A2A engine with the echo executor",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			var store stores.TaskStore = stores.NewInMemoryTaskStore()

			if s3StoreFlag {
				conn, err := s3.NewConn()

				if err != nil {
					return err
				}

				store = s3.NewStore(conn)
				log.Info("using s3 task store")
			}

			handler := service.NewRequestHandler(
				service.NewEchoExecutor(),
				store,
				eventqueue.NewManager(),
				push.NewService(),
			)

			srv := service.NewServer(a2a.NewAgentCardFromConfig("default"), handler)

			if apiKeyFlag != "" {
				srv.WithAuth(service.APIKeyAuth{Key: apiKeyFlag})
			}

			addr := addrFlag

			if addr == "" {
				addr = viper.GetString("server.addr")
			}

			return srv.Start(addr)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Require X-API-Key on the RPC endpoint")
	serveCmd.Flags().BoolVar(&s3StoreFlag, "s3", false, "Persist tasks in the configured S3 bucket")
}

var longServe = `
Serve the A2A engine.

Examples:
  # Serve on the configured address with in-memory task storage
  a2a-engine serve

  # Serve on a custom port with S3-backed task storage
  a2a-engine serve --addr :8080 --s3
`
