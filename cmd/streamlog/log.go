package streamlog

import (
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sorahel/streamlog/pkg/util"
)

var (
	Debug   bool
	LogFile string
)

func initLog(cmd *cobra.Command, args []string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if LogFile == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		stdlog.SetOutput(os.Stderr)
		return
	}

	if err := util.PrepareDir(filepath.Dir(LogFile)); err != nil {
		panic(err)
	}
	f, err := os.OpenFile(LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		panic(err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339})
	stdlog.SetOutput(f)
}
