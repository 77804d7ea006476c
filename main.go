package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"language-translator-go/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var conf = config.Get()

var (
	flagDir       string
	flagWorkers   int
	flagDebug     bool
	flagStatsAddr string
	flagCacheFile string
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "language-translator",
		Short: "Translate Localization.txt files with cached, batched provider calls",
		Long: "language-translator discovers Localization.txt files under a directory,\n" +
			"translates their entries into every target language in the header using\n" +
			"OpenAI and Gemini, and writes .translated.txt files next to the sources.\n" +
			"Translations are cached on disk so reruns only pay for what is missing.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				log.SetLevel(log.DebugLevel)
			}
			return run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&flagDir, "dir", "d", ".", "root directory to scan for Localization.txt files")
	cmd.Flags().IntVarP(&flagWorkers, "workers", "w", conf.Workers, "number of files translated in parallel")
	cmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&flagStatsAddr, "stats-addr", conf.StatsAddr, "listen address for the stats endpoint (empty disables it)")
	cmd.Flags().StringVar(&flagCacheFile, "cache-file", conf.Cache.File, "path of the translation cache database")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
