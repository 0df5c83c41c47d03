package internal

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/version"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metafetch",
		Short: "Conditional downloader for marketplace reference metadata",
		Long: `metafetch keeps a local copy of slowly-changing marketplace metadata
(sites, currencies, shipping locations, shipping services, return policies...).

Every request first asks the API for the last update time of the selected
sections and downloads the full payload only when the cached copy is older.
Failed calls are retried when their error matches the configured triggers.`,
		Example: `metafetch get --site DE
metafetch get --detail SiteDetails --detail CurrencyDetails --json`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.ConfigureFromFlags()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				version.Print(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolP("version", "v", false, "Print version information")
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.config/metafetch/config.yml)")
	cmd.PersistentFlags().CountVarP(&logger.FlagVerboseCount, "verbose", "V", "Verbose output (repeatable)")
	cmd.PersistentFlags().BoolVarP(&logger.FlagQuiet, "quiet", "q", false, "Only print errors")
	cmd.PersistentFlags().BoolVar(&logger.FlagJSON, "json-logs", false, "Emit logs as JSON")

	RegisterSubCommands(cmd)

	return cmd
}

func Execute() error {
	root := NewRootCmd()

	if os.Getenv("COMP_LINE") != "" ||
		(len(os.Args) > 1 && strings.HasPrefix(os.Args[1], "__complete")) {
		return root.Execute()
	}

	if err := root.Execute(); err != nil {
		logger.Debug("Failed to execute root command: %v", err)
		return err
	}
	return nil
}
