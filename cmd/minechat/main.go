package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/minechat/internal/app"
	"github.com/vovakirdan/minechat/internal/config"
	applog "github.com/vovakirdan/minechat/internal/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		serverURL  string
		user       string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:          "minechat",
		Short:        "Terminal chat client with a built-in minesweeper",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional.
			_ = godotenv.Load()

			bootLogger := applog.New(logLevel, nil)
			cfg, resolvedPath, err := config.Load(bootLogger, configPath)
			if err != nil {
				bootLogger.Error().Err(err).Msg("failed to load config")
				return err
			}
			cfg.UpdateFrom(config.Config{ServerURL: serverURL, LogLevel: logLevel})

			logFile, err := applog.Open(cfg.LogFile)
			if err != nil {
				bootLogger.Error().Err(err).Str("path", cfg.LogFile).Msg("failed to open log file")
				return err
			}
			if logFile != nil {
				defer logFile.Close()
			}
			logger := applog.New(cfg.LogLevel, logFile)
			logger.Info().Str("config_path", resolvedPath).Str("server_url", cfg.ServerURL).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger, app.IO{
				In:   os.Stdin,
				Out:  os.Stdout,
				ANSI: isatty.IsTerminal(os.Stdout.Fd()),
			}, app.WithUser(user))
			if err != nil {
				logger.Error().Err(err).Msg("failed to initialize client")
				return err
			}

			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("client exited with error")
				return err
			}
			logger.Info().Msg("client stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file (default: user config dir)")
	flags.StringVar(&serverURL, "server", "", "chat server websocket URL")
	flags.StringVar(&user, "user", "", "log in as this user instead of the saved identity")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	return cmd
}
