package streamlog

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	app "github.com/sorahel/streamlog/internal/streamlog"
	"github.com/sorahel/streamlog/internal/streamlog/conf"
	apphttp "github.com/sorahel/streamlog/internal/streamlog/http"
	"github.com/sorahel/streamlog/pkg/util"
)

const defaultHTTPAddr = "127.0.0.1:5140"

var (
	archiveDir string
	stateDir   string
	httpAddr   string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&LogFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.Flags().StringVar(&archiveDir, "archive", "", "message archive directory")
	rootCmd.Flags().StringVar(&stateDir, "state", "", "state directory holding config and blacklist")
	rootCmd.Flags().StringVar(&httpAddr, "addr", "", "http listen address")
	rootCmd.PersistentPreRun = initLog
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command execution failed")
	}
}

var rootCmd = &cobra.Command{
	Use:   "streamlog",
	Short: "Twitch/Kick chat archive and preference service",
	Args:  cobra.MinimumNArgs(0),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Run: Root,
}

func Root(cmd *cobra.Command, args []string) {
	confDir := util.DefaultWorkDir("")
	appConf, cm, err := conf.Load(confDir)
	if err != nil {
		log.Err(err).Msg("failed to load app settings")
		return
	}

	if archiveDir == "" {
		archiveDir = appConf.LastArchive
	}
	if archiveDir == "" {
		log.Error().Msg("no archive directory configured; pass --archive")
		return
	}

	session, _ := appConf.FindSession(archiveDir)
	if stateDir == "" {
		stateDir = session.StateDir
	}
	if stateDir == "" {
		stateDir = util.DefaultWorkDir("state")
	}
	if httpAddr == "" {
		httpAddr = session.HTTPAddr
	}
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}

	svc, err := app.New(app.Options{StateDir: stateDir, ArchiveDir: archiveDir})
	if err != nil {
		log.Err(err).Msg("failed to initialize state layer")
		return
	}
	defer svc.Close()

	appConf.UpsertSession(conf.SessionConfig{
		ArchiveDir: archiveDir,
		StateDir:   stateDir,
		HTTPAddr:   httpAddr,
	})
	if err := cm.SetConfig("last_archive", appConf.LastArchive); err != nil {
		log.Err(err).Msg("set last_archive failed")
	}
	if err := cm.SetConfig("history", appConf.History); err != nil {
		log.Err(err).Msg("set history failed")
	}

	hs := apphttp.NewService(httpAddr, svc)
	if err := hs.Start(); err != nil {
		log.Err(err).Msg("failed to start http service")
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Stop(ctx); err != nil {
		log.Err(err).Msg("http shutdown failed")
	}
}
