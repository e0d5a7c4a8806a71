package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/iotlab/internal/collector"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session upload collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Collector.ListenAddr
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return collector.NewServer(st.UploadRepo(), logger).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides IOTLAB_LISTEN_ADDR)")
}
