package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lyrics-pinyin/internal/app"
	"lyrics-pinyin/internal/config"
	"lyrics-pinyin/internal/ipc"
	"lyrics-pinyin/internal/lyrics"
	"lyrics-pinyin/pkg/pinyin"
)

func main() {
	var configPath string

	loadConfig := func() *config.Config {
		cfg := config.Load(configPath)
		app.SetupLogging(cfg.App.LogLevel)
		return cfg
	}

	root := &cobra.Command{
		Use:           "lyrics-pinyin",
		Short:         "Synchronized lyrics with pinyin for the playing video",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			a, err := app.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/lyrics-pinyin/config.toml)")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search LRCLib and list candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			records, err := app.NewLRCLib(cfg).Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, r := range records {
				synced := " "
				if r.SyncedLyrics != "" {
					synced = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %8d  %s - %s  (%s)\n", synced, r.ID, r.ArtistName, r.TrackName, lyrics.FormatClock(r.Duration))
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print synced lyrics with pinyin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid lyrics id %q", args[0])
			}
			cfg := loadConfig()
			provider, _ := app.NewLyricsProvider(cfg)

			lrc, err := provider.Fetch(cmd.Context(), id)
			if err != nil {
				return err
			}
			lines := lyrics.Annotate(lyrics.ParseLRC(lrc), pinyin.NewConverter(), nil)
			for _, line := range lines {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n        %s\n", lyrics.FormatClock(line.Time), line.Text, line.Pinyin)
			}
			return nil
		},
	}

	var wait time.Duration
	send := &cobra.Command{
		Use:   "send <command...>",
		Short: "Send a command to the running server and print the events it sends back",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			lines, err := ipc.Send(cfg.App.SocketPath, strings.Join(args, " "), wait)
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return err
		},
	}
	send.Flags().DurationVar(&wait, "wait", 2*time.Second, "how long to collect events")

	root.AddCommand(search, show, send)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("lyrics-pinyin failed")
		os.Exit(1)
	}
}
