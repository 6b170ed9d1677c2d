package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentic-research/garden/internal/cache"
	"github.com/agentic-research/garden/internal/driver"
	"github.com/agentic-research/garden/internal/render"
	"github.com/agentic-research/garden/internal/source"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	cachePathFlag string
	pollInterval  time.Duration
	noColor       bool
)

func init() {
	rootCmd.Flags().StringVar(&cachePathFlag, "cache", "", "Path to the cache file (default: <file>.cache)")
	rootCmd.Flags().DurationVar(&pollInterval, "poll", 0, "Poll the source file on this interval instead of using fsnotify")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colour in the change report")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

var rootCmd = &cobra.Command{
	Use:     "garden <file>",
	Short:   "Garden: a live-evaluation engine for a tiny expression language",
	Args:    cobra.ExactArgs(1),
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(args[0])
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runWatch(path string) error {
	cachePath := source.CachePath(path, cachePathFlag)
	files := source.Open(path)

	d, err := loadDriver(files, cachePath)
	if err != nil {
		return err
	}

	printer := render.New(os.Stdout)
	printer.NoColor = noColor

	runCycle := func() error {
		src, err := files.ReadSource(path)
		if err != nil {
			return fmt.Errorf("garden: %w", err)
		}
		printer.Header(path)
		report, perr := d.RunCycle(src)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "parse error: %s\n", perr.Message)
			return nil
		}
		printer.Report(report)
		if data, err := d.Persist(); err != nil {
			log.Printf("garden: encoding cache: %v", err)
		} else if err := files.WriteCache(cachePath, data); err != nil {
			log.Printf("garden: writing cache: %v", err)
		}
		return nil
	}

	if err := runCycle(); err != nil {
		log.Printf("garden: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	if pollInterval > 0 {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := runCycle(); err != nil {
					log.Printf("garden: %v", err)
				}
			case <-sig:
				return nil
			}
		}
	}

	watcher, err := source.Watch(path)
	if err != nil {
		return fmt.Errorf("garden: attaching watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for {
		select {
		case <-watcher.Events:
			if err := runCycle(); err != nil {
				log.Printf("garden: %v", err)
			}
		case err := <-watcher.Errors:
			log.Printf("garden: watch error: %v", err)
		case <-sig:
			return nil
		}
	}
}

// loadDriver builds a Driver from a warm cache sidecar when one is
// readable and decodes. A sidecar that cannot be read starts cold without
// a message; one that cannot be decoded starts cold with a logged warning.
// Neither case is fatal (spec §4.7).
func loadDriver(files *source.Files, cachePath string) (*driver.Driver, error) {
	data, err := files.ReadCache(cachePath)
	if err != nil {
		return driver.New(cache.New()), nil
	}
	d, err := driver.Restore(data)
	if err != nil {
		log.Printf("garden: cache %s unreadable, starting cold: %v", cachePath, err)
	}
	return d, nil
}
