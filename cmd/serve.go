package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harishcmuthyala/portfolio/internal/content"
	"github.com/harishcmuthyala/portfolio/internal/db"
	"github.com/harishcmuthyala/portfolio/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server.",
	RunE:  runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().Int("port", 0, "Port to listen on (default 8080, or $PORT)")
		c.Flags().String("bind", "", "Address to bind (default 0.0.0.0)")
		c.Flags().String("db-path", "", "SQLite database file (default portfolio.db)")
		c.Flags().String("content-dir", "", "Load content from this directory instead of the built-in set")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	store, err := loadContent(cfg.ContentDir)
	if err != nil {
		return err
	}
	log.WithField("version", store.Version()).Info("Content loaded")

	database, err := db.Init(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	srv, err := web.New(web.Deps{
		Config:  cfg,
		Content: store,
		DB:      database,
		Log:     log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func loadContent(dir string) (*content.Store, error) {
	if dir == "" {
		return content.Default()
	}
	return content.LoadDir(dir)
}
