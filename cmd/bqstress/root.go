package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanfei1991/blockingqueue/pkg/notifier"
	"github.com/hanfei1991/blockingqueue/pkg/promutil"
	"github.com/hanfei1991/blockingqueue/pkg/workload"
)

const metricOwnerID = "bqstress"

type options struct {
	cfg        workload.Config
	configFile string

	logLevel  string
	logFile   string
	logFormat string

	metricsAddr string
}

func newRootCmd() *cobra.Command {
	o := &options{cfg: workload.DefaultConfig()}
	cmd := &cobra.Command{
		Use:          "bqstress",
		Short:        "Run concurrent producers and consumers against a blocking queue",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}

	fs := cmd.Flags()
	o.cfg.RegisterFlags(fs)
	fs.StringVar(&o.configFile, "config", "", "path to a TOML workload config file, flags override its values")
	fs.StringVarP(&o.logLevel, "log-level", "L", "info", "log level: debug, info, warn, error, fatal")
	fs.StringVar(&o.logFile, "log-file", "", "log file path")
	fs.StringVar(&o.logFormat, "log-format", "text", `the format of the log, "text" or "json"`)
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	return cmd
}

func (o *options) run(cmd *cobra.Command) error {
	if err := initLogger(o.logLevel, o.logFile, o.logFormat); err != nil {
		return err
	}

	cfg := o.cfg
	if o.configFile != "" {
		cfg = workload.DefaultConfig()
		if err := cfg.DecodeFile(o.configFile); err != nil {
			return err
		}
		if err := cfg.OverlayFlags(cmd.Flags()); err != nil {
			return err
		}
	}
	if tomlStr, err := cfg.Toml(); err == nil {
		log.L().Debug("resolved workload config", zap.String("toml", tomlStr))
	}

	var runnerOpts []workload.RunnerOption
	if o.metricsAddr != "" {
		srv, err := serveMetrics(o.metricsAddr)
		if err != nil {
			return err
		}
		defer func() {
			if err := srv.Close(); err != nil {
				log.L().Warn("close metrics server", zap.Error(err))
			}
		}()
		defer promutil.UnregisterOwner(metricOwnerID)
		runnerOpts = append(runnerOpts, workload.WithMetricFactory(promutil.NewFactory(metricOwnerID, metricOwnerID)))
	}

	progress := notifier.NewNotifier[workload.ProducerDone]()
	defer progress.Close()
	go logProgress(progress.NewReceiver())
	runnerOpts = append(runnerOpts, workload.WithProgress(progress))

	runner, err := workload.NewRunner(cfg, runnerOpts...)
	if err != nil {
		return err
	}
	report, runErr := runner.Run(cmd.Context())

	out, err := json.Marshal(report)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return runErr
}

// logProgress logs producer events until the notifier is closed.
func logProgress(r *notifier.Receiver[workload.ProducerDone]) {
	for ev := range r.C {
		if ev.Err != nil {
			log.L().Warn("producer aborted",
				zap.Int("producer", ev.Producer), zap.Int("pushed", ev.Pushed), zap.Error(ev.Err))
			continue
		}
		log.L().Info("producer finished", zap.Int("producer", ev.Producer), zap.Int("pushed", ev.Pushed))
	}
}

func initLogger(level, file, format string) error {
	lg, props, err := log.InitLogger(&log.Config{
		Level:  level,
		Format: format,
		File: log.FileLogConfig{
			Filename: file,
		},
	})
	if err != nil {
		return errors.Annotate(err, "init logger")
	}
	log.ReplaceGlobals(lg, props)
	return nil
}

func serveMetrics(addr string) (*http.Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "listen on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promutil.HTTPHandlerForMetric())
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
			log.L().Warn("metrics server exited", zap.Error(err))
		}
	}()
	log.L().Info("serving metrics", zap.String("addr", l.Addr().String()))
	return srv, nil
}
