package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/idlanyor/kachina-go/internal/builtin"
	"github.com/idlanyor/kachina-go/internal/client"
	"github.com/idlanyor/kachina-go/internal/config"
	"github.com/idlanyor/kachina-go/internal/logger"
	"github.com/idlanyor/kachina-go/internal/store"
	"github.com/idlanyor/kachina-go/internal/wa"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect and run the bot until interrupted",
	RunE:  runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.ParseLevel(cfg.LogLevel), "")

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}

	bridge := wa.NewBridge(cfg.BridgeURL, cfg.BridgeToken, log)
	bot, err := client.New(cfg, client.Options{
		Transport: bridge,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	for _, spec := range builtin.Specs(bot, db) {
		bot.LoadPlugin(spec)
	}
	bot.LoadPlugins(cfg.PluginsDir, builtin.Handlers(bot, db))

	bot.OnReady(func(id *wa.Identity) {
		log.Successf("ready as %s", id.Name)
	})
	bot.OnPairingCode(func(code string) {
		fmt.Printf("\nPairing code: %s\n", code)
		fmt.Println("Open WhatsApp > Settings > Linked Devices > Link a Device and enter the code.")
	})
	bot.On(client.EventLogout, func(any) {
		log.Warn("logged out, shutting down")
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("starting client: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		bot.Wait()
		close(done)
	}()

	select {
	case <-sig:
		log.Info("shutting down")
		return bot.Stop()
	case <-done:
		return nil
	}
}
