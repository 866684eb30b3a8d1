package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/devtools"
	"github.com/vango-dev/reactor/pkg/observe"
	"github.com/vango-dev/reactor/pkg/scheduler"
)

func devtoolsCmd(load loader) *cobra.Command {
	var (
		addr     string
		interval time.Duration
		region   string
	)

	cmd := &cobra.Command{
		Use:   "devtools",
		Short: "Run the demo tree behind the devtools server",
		Long: `Mount the demo application on a runtime loop, toggle one of its
todos on an interval and serve the devtools routes:

  GET  /instances      instance tree snapshot
  GET  /instances/{id} one instance
  GET  /stats          runtime counters
  POST /snapshot       export a snapshot to snapshot.dir or snapshot.bucket
  GET  /ws             live lifecycle feed
  GET  /metrics        Prometheus metrics

Examples:
  reactor devtools
  reactor devtools --addr :7070 --interval 500ms
  REACTOR_SNAPSHOT_BUCKET=my-bucket reactor devtools --region eu-west-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Devtools.Addr = addr
			}
			return runDevtools(cmd.Context(), cfg, interval, region)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from reactor.json)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Delay between scripted changes")
	cmd.Flags().StringVar(&region, "region", os.Getenv("AWS_REGION"), "AWS region for snapshot.bucket")
	return cmd
}

func runDevtools(parent context.Context, cfg *config.Config, interval time.Duration, region string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cfg.Logger(os.Stderr)
	loop := scheduler.NewLoop(256, logger)
	go loop.Run(ctx)

	hub := devtools.NewHub(logger, func(*http.Request) bool { return true })
	registry := prometheus.NewRegistry()
	observers := []component.Option{
		component.WithObserver(devtools.NewFeed(hub, true)),
		component.WithObserver(observe.NewTracing()),
	}
	if cfg.Metrics.Enabled {
		observers = append(observers, component.WithObserver(observe.NewMetrics(
			observe.WithNamespace(cfg.Metrics.Namespace),
			observe.WithRegistry(registry),
		)))
	}

	exporter, err := snapshotExporter(cfg.Snapshot, region)
	if err != nil {
		return err
	}

	var (
		rt       *component.Runtime
		root     *component.Instance
		mountErr error
	)
	err = loop.Call(ctx, func() {
		rt = component.New(append([]component.Option{
			component.WithConfig(cfg.Runtime()),
			component.WithLogger(logger),
			component.WithTicker(loop),
		}, observers...)...)
		root, mountErr = rt.Mount(demoApp(logger), nil)
	})
	if err != nil {
		return err
	}
	if mountErr != nil {
		return mountErr
	}

	srvConfig := devtools.Config{
		Runtime:  rt,
		Loop:     loop,
		Hub:      hub,
		Exporter: exporter,
		Logger:   logger,
	}
	if cfg.Metrics.Enabled {
		srvConfig.Gatherer = registry
	}
	srv, err := devtools.NewServer(srvConfig)
	if err != nil {
		return err
	}

	printBanner()
	success("devtools on http://%s", cfg.Devtools.Addr)
	info("%d instances mounted", rt.Len())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := loop.Submit(func() {
					if item, ok := findItem(root, "write docs"); ok {
						item.Emit("toggle")
					}
				})
				if err != nil {
					return
				}
			}
		}
	}()

	err = srv.ListenAndServe(ctx, cfg.Devtools.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := loop.Shutdown(shutdownCtx); serr != nil && !errors.Is(serr, context.DeadlineExceeded) {
		logger.Warn("loop shutdown", "error", serr)
	}
	return err
}

// snapshotExporter selects S3 when a bucket is configured and the local
// snapshot directory otherwise.
func snapshotExporter(sc config.SnapshotConfig, region string) (devtools.Exporter, error) {
	if sc.Bucket == "" {
		exp, err := devtools.NewFileExporter(sc.Dir)
		if err != nil {
			return nil, err
		}
		return exp, nil
	}
	if region == "" {
		return nil, fmt.Errorf("snapshot.bucket %q needs a region (--region or AWS_REGION)", sc.Bucket)
	}
	client := s3.New(s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials()),
	})
	slog.Debug("snapshots go to s3", "bucket", sc.Bucket, "prefix", sc.Prefix, "region", region)
	return devtools.NewS3Exporter(client, sc.Bucket, sc.Prefix), nil
}

// envCredentials reads the standard AWS_* credential variables.
func envCredentials() aws.CredentialsProviderFunc {
	return func(context.Context) (aws.Credentials, error) {
		id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}, nil
	}
}
