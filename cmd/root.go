package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harishcmuthyala/portfolio/internal/config"
	"github.com/harishcmuthyala/portfolio/internal/logging"
)

var cfgFile string

// rootCmd runs the site when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Personal portfolio site with a resume download collector.",
	Long: `portfolio serves a single-page personal portfolio, a hidden ideas page, and the small
JSON API that counts resume downloads.

Run without a subcommand to start the web server.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.portfolio.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Set log level. Available: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config file, the environment and the command line flags, in rising
// priority.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	if err := config.ReadFile(v, cfgFile); err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("loglevel"); f != nil && f.Changed {
		v.Set("log_level", f.Value.String())
	}
	for _, name := range []string{"port", "bind", "db-path", "content-dir"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(flagKey(name), f); err != nil {
				return nil, err
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func flagKey(name string) string {
	switch name {
	case "db-path":
		return "db_path"
	case "content-dir":
		return "content_dir"
	}
	return name
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(os.Stderr, cfg.LogLevel)
}
