package cmd

import (
	"fmt"

	"github.com/agentic-research/garden/internal/liveserver"
	"github.com/agentic-research/garden/internal/source"
	"github.com/spf13/cobra"
)

var serveCachePathFlag string

func init() {
	serveCmd.Flags().StringVar(&serveCachePathFlag, "cache", "", "Path to the cache file (default: <file>.cache)")
}

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Expose an eval tool over MCP, backed by a long-lived Driver for <file>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		cachePath := source.CachePath(path, serveCachePathFlag)
		files := source.Open(path)

		d, err := loadDriver(files, cachePath)
		if err != nil {
			return err
		}

		srv := liveserver.New(d, "garden", Version)
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("garden serve: %w", err)
		}
		return nil
	},
}
