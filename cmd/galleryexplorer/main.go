package main

import (
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/galleryexplorer/internal/cli"
	"codeberg.org/snonux/galleryexplorer/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command; the processor is built once the config is loaded
	rootCmd := cli.CreateRootCommand(flags, func(cfg cli.Config) (cli.Runner, error) {
		return processor.NewProcessor(cfg)
	})

	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
