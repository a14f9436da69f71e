package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mudlink/pkg/client"
	"mudlink/pkg/config"
	"mudlink/pkg/logger"
	"mudlink/pkg/transport/tcpline"
	"mudlink/pkg/ui/game"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Connect to a game server and play",
	Long:  "Connects to the configured game server and runs the interactive screen.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.play")

		adapter, err := tcpline.NewAdapter(cfg.Server, log)
		if err != nil {
			log.Error("Transport configuration invalid", "error", err)
			return
		}

		svc, err := client.New(cfg, adapter, adapter, log)
		if err != nil {
			log.Error("Failed to initialize client", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// The UI and the pipeline share one lifetime: either one ending
		// tears down the other.
		appCtx, cancelApp := context.WithCancel(runCtx)
		defer cancelApp()

		events, unsubscribe := svc.Events(appCtx, 256)
		defer unsubscribe()

		pipelineDone := make(chan error, 1)
		go func() {
			pipelineDone <- svc.Run(appCtx)
			cancelApp()
		}()

		log.Info("Connecting", "server", cfg.Server.Address, "name", cfg.Server.Name)

		uiErr := game.Run(appCtx, game.Hooks{
			ServerName: cfg.Server.Name,
			Events:     events,
			Send: func(text string) bool {
				return svc.SendCommand(appCtx, text)
			},
		})

		cancelApp()
		if err := <-pipelineDone; err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Pipeline failed", "error", err)
		}
		if uiErr != nil && !errors.Is(uiErr, context.Canceled) && !errors.Is(uiErr, tea.ErrProgramKilled) {
			log.Error("Screen closed with error", "error", uiErr)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}
