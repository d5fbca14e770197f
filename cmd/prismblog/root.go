package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/prismblog"
)

var flagEnvFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prismblog",
		Short:         "Blog front-end for a Prismic repository",
		Long:          "prismblog renders the posts of a Prismic repository as a paginated blog, either served over HTTP or written to disk as a static site.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "load environment variables from this file instead of .env")

	root.AddCommand(newServeCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(versionCmd)
	return root
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prismblog %s\n", version)
	},
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(apply func(*prismblog.SiteConfig)) (prismblog.SiteConfig, error) {
	var files []string
	if flagEnvFile != "" {
		files = append(files, flagEnvFile)
	}
	cfg, err := prismblog.LoadConfig(files...)
	if err != nil {
		return cfg, err
	}
	if apply != nil {
		apply(&cfg)
	}
	return cfg, cfg.Validate()
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *prismblog.SiteConfig) {
				if addr != "" {
					c.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			logger := prismblog.NewLogger(cfg.Environment, cfg.LogLevel)
			app := prismblog.New(cfg, prismblog.WithLogger(logger))
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- app.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Info(context.Background(), "shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return <-errc
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func newBuildCmd() *cobra.Command {
	var (
		out      string
		localize bool
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the blog to disk as a static site",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *prismblog.SiteConfig) {
				if out != "" {
					c.OutputDir = out
				}
				if localize {
					c.LocalizeImages = true
				}
			})
			if err != nil {
				return err
			}
			logger := prismblog.NewLogger(cfg.Environment, cfg.LogLevel)
			b := prismblog.NewBuilder(cfg, prismblog.NewSource(cfg), logger)
			if workers > 0 {
				b.Workers = workers
			}
			report, err := b.Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built %d posts and %d fragments into %s in %s\n",
				report.Posts, report.Fragments, b.OutDir, report.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (overrides OUTPUT_DIR)")
	cmd.Flags().BoolVar(&localize, "localize-images", false, "download and resize post banners into the output")
	cmd.Flags().IntVar(&workers, "workers", 0, "posts rendered in parallel")
	return cmd
}
