package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/wandb/threadline/internal/chart"
	"github.com/wandb/threadline/internal/chartmetrics"
	"github.com/wandb/threadline/internal/observability"
	"github.com/wandb/threadline/internal/sampling"
	"github.com/wandb/threadline/internal/sentry_ext"
	"github.com/wandb/threadline/internal/timeline"
	"github.com/wandb/threadline/internal/tui"
	"github.com/wandb/threadline/internal/version"
)

const (
	envDebug          = "THREADLINE_DEBUG"
	envSentryDSN      = "THREADLINE_SENTRY_DSN"
	envErrorReporting = "THREADLINE_ERROR_REPORTING"

	debugLogFile = "threadline.debug.log"
)

type options struct {
	source      string
	file        string
	pids        string
	interval    time.Duration
	record      string
	metricsAddr string
	configDir   string
	headless    bool
}

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	opts := options{}
	flag.StringVar(&opts.source, "source", "demo", "Sample source: demo, process or file")
	flag.StringVar(&opts.file, "file", "", "Capture file to replay and follow (with -source file)")
	flag.StringVar(&opts.pids, "pids", "", "Comma-separated process IDs to sample (with -source process)")
	flag.DurationVar(&opts.interval, "interval", 0, "Sampling interval (default depends on the source)")
	flag.StringVar(&opts.record, "record", "", "Also write every sample to this capture file")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.StringVar(&opts.configDir, "config", "", "Directory holding "+tui.ConfigName)
	flag.BoolVar(&opts.headless, "headless", false, "Consume samples without a terminal UI")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "threadline - live thread and counter timelines in the terminal\n\n")
		fmt.Fprintf(os.Stderr, "Usage: threadline [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  %s       write a debug log to %s\n", envDebug, debugLogFile)
		fmt.Fprintf(os.Stderr, "  %s  override the config directory\n", tui.EnvConfigDir)
		fmt.Fprintf(os.Stderr, "  %s  report errors to this Sentry DSN\n", envSentryDSN)
		fmt.Fprintf(os.Stderr, "  %s  set to false to disable error reporting\n", envErrorReporting)
	}
	flag.Parse()

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments: %v\n\n", flag.Args())
		flag.Usage()
		return 1
	}

	enableErrorReporting := true
	if v := os.Getenv(envErrorReporting); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			enableErrorReporting = parsed
		}
	}

	sentryClient := sentry_ext.New(sentry_ext.Params{
		DSN:              os.Getenv(envSentryDSN),
		Disabled:         !enableErrorReporting,
		AttachStacktrace: true,
		Release:          version.Version,
		Environment:      version.Environment,
	})
	defer sentryClient.Flush(2 * time.Second)

	var writer io.Writer = io.Discard
	if os.Getenv(envDebug) != "" {
		logFile, err := os.OpenFile(debugLogFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			return 1
		}
		defer logFile.Close()
		writer = logFile
	}

	// A nil limiter lets every warning through.
	limiter, _ := observability.NewCaptureRateLimiter(64, time.Minute)

	logger := observability.NewCoreLogger(
		slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug})),
		&observability.CoreLoggerParams{
			Tags:    observability.Tags{"source": opts.source},
			Sentry:  sentryClient,
			Limiter: limiter,
		},
	)
	defer logger.Reraise()

	logger.Info("threadline: starting", "version", version.Version, "source", opts.source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error(fmt.Sprintf("threadline: %v", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opts options, logger *observability.CoreLogger) error {
	config := tui.NewConfigManager(afero.NewOsFs(), tui.ConfigPath(opts.configDir), logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := chartmetrics.New(reg)

	src, err := newSource(ctx, opts, logger)
	if err != nil {
		return err
	}

	if opts.record != "" {
		recording, err := os.Create(opts.record)
		if err != nil {
			return fmt.Errorf("creating capture file: %w", err)
		}
		defer recording.Close()
		src = sampling.Recorded(src, recording)
	}

	c, err := chart.New(chart.Params{
		Rows:            src.Rows(),
		Fit:             config.FitOnStart(),
		AutoFitPeriod:   config.AutoFitPeriod(),
		InitialZoom:     config.InitialZoom(),
		MinTickDistance: config.TickSpacing(),
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	grp, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.metricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		grp.Go(func() error {
			logger.Info("threadline: serving metrics", "addr", opts.metricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %v", err)
			}
			return nil
		})
		grp.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
	}

	queue := sampling.NewQueue(sampling.DefaultQueueSize)
	done := make(chan error, 1)
	grp.Go(func() error {
		// The consumer reports the source's error.
		done <- src.Run(ctx, queue)
		close(queue)
		return nil
	})

	grp.Go(func() error {
		defer cancel()
		if opts.headless {
			return consume(ctx, c, queue, done, logger)
		}
		return runTUI(ctx, c, config, opts.source, queue, done, logger)
	})

	return grp.Wait()
}

func newSource(
	ctx context.Context,
	opts options,
	logger *observability.CoreLogger,
) (sampling.Source, error) {
	switch opts.source {
	case "demo":
		return sampling.NewDemoSource(sampling.DemoParams{
			Interval: opts.interval,
			Seed:     time.Now().UnixNano(),
		}), nil

	case "process":
		pids, err := parsePIDs(opts.pids)
		if err != nil {
			return nil, err
		}
		src, err := sampling.NewProcessSource(ctx, pids, sampling.ProcessParams{
			Logger:   logger,
			Interval: opts.interval,
		})
		if err != nil {
			return nil, err
		}
		return src, nil

	case "file":
		if opts.file == "" {
			return nil, errors.New("-source file requires -file")
		}
		src, err := sampling.NewFileSource(opts.file, sampling.FileParams{
			Logger: logger,
			Follow: true,
		})
		if err != nil {
			return nil, err
		}
		return src, nil

	default:
		return nil, fmt.Errorf("unknown source %q", opts.source)
	}
}

func parsePIDs(s string) ([]int32, error) {
	var pids []int32
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pid, err := strconv.ParseInt(field, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid pid %q", field)
		}
		pids = append(pids, int32(pid))
	}
	if len(pids) == 0 {
		return nil, errors.New("-source process requires -pids")
	}
	return pids, nil
}

// consume feeds the chart without a terminal until the source stops or the
// process is interrupted.
func consume(
	ctx context.Context,
	c *chart.Chart,
	queue <-chan timeline.Batch,
	done <-chan error,
	logger *observability.CoreLogger,
) error {
	err := c.Consume(ctx, queue)
	if sampling.IsShutdown(err) {
		select {
		case err = <-done:
		default:
		}
	}

	logger.Info(
		"threadline: headless run finished",
		"samples", c.Timeline().Count(),
		"rows", len(c.Items()),
	)
	if sampling.IsShutdown(err) {
		return nil
	}
	return err
}

func runTUI(
	ctx context.Context,
	c *chart.Chart,
	config *tui.ConfigManager,
	source string,
	queue <-chan timeline.Batch,
	done <-chan error,
	logger *observability.CoreLogger,
) error {
	model := tui.NewModel(tui.Params{
		Chart:   c,
		Config:  config,
		Source:  source,
		Batches: queue,
		Done:    done,
		Logger:  logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	switch {
	case errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil:
		logger.Info("threadline: interrupted")
	case err != nil:
		return fmt.Errorf("running program: %v", err)
	}

	if _, err := model.SourceDone(); !sampling.IsShutdown(err) {
		logger.Warn(fmt.Sprintf("threadline: source stopped with error: %v", err))
	}
	return nil
}
