package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ryansann/rolodex/config"
	"github.com/ryansann/rolodex/pkg/httpd"
	"github.com/ryansann/rolodex/pkg/service"
	"github.com/ryansann/rolodex/pkg/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rolodexd",
		Short:         "rolodexd is an in-memory contact store server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfgFile string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the contact API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cfgFile)
		},
	}
	serve.Flags().StringVarP(&cfgFile, "config", "c", "", "path to a yaml config file")

	root.AddCommand(serve)

	return root
}

func serveRun(cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	var storeOpts []store.StoreOption
	if cfg.Store.ExactOnly {
		storeOpts = append(storeOpts, store.ExactOnly())
	}
	st := store.New(log, storeOpts...)

	svc, err := service.New(log, st, service.CacheSize(cfg.Cache.Size))
	if err != nil {
		return err
	}

	srv, err := httpd.NewServer(log, httpd.NewHandler(log, svc, st.Stats),
		httpd.Addr(cfg.Server.Addr),
		httpd.ReadTimeout(cfg.Server.ReadTimeout.Std()),
		httpd.ShutdownTimeout(cfg.Server.ShutdownTimeout.Std()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Serve)

	g.Go(func() error {
		// blocks until a signal arrives or Serve fails
		<-ctx.Done()

		log.Info("shutting down...")

		return srv.Close()
	})

	return g.Wait()
}
