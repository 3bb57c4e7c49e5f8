package main

import (
	"mediatagger/internal/config"
	"mediatagger/internal/log"

	"github.com/spf13/cobra"
)

// options holds the persistent flags and the configuration they resolve to
type options struct {
	cfgFile string
	debug   bool
	jsonLog bool
	cfg     *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "mediatagger",
		Short: "Browse, preview and tag the best of your photos and videos",
		Long: `mediatagger walks a directory of images and videos, previews them and
lets you tag the best ones. Tagged files can then be copied into a sibling
directory, e.g. holiday/ -> holiday-best/.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.config/mediatagger/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonLog, "json-log", false, "log in JSON format")

	rootCmd.AddCommand(newTagCmd(opts, true))
	rootCmd.AddCommand(newTagCmd(opts, false))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newClassifyCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newExtractCmd(opts))
	rootCmd.AddCommand(newRemoveExtractedCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newTUICmd(opts))
	rootCmd.AddCommand(newGUICmd(opts))

	return rootCmd
}

func (o *options) load() error {
	var err error
	if o.cfgFile != "" {
		o.cfg, err = config.LoadConfigFile(o.cfgFile)
	} else {
		o.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	var logOpts []log.Option
	if o.jsonLog || o.cfg.Log.JSON {
		logOpts = append(logOpts, log.WithJSON())
	}
	if o.cfg.Log.File != "" {
		logOpts = append(logOpts, log.WithFile(o.cfg.Log.File))
	}
	log.Configure(logOpts...)
	log.SetDebug(o.debug || o.cfg.Log.Debug)
	return nil
}
