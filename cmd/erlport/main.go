// Command erlport is a demo port host. It serves three commands over standard
// input and output using {packet, N} framing and can dump the trace files it
// writes.
//
// Usage:
//
//	erlport [-config file] [-packet N] [-trace file] [-trace-compression type]
//	erlport -dump file
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/erlport/format"
	"github.com/arloliu/erlport/internal/config"
	"github.com/arloliu/erlport/internal/logging"
	"github.com/arloliu/erlport/internal/observability"
	"github.com/arloliu/erlport/port"
	"github.com/arloliu/erlport/trace"
	"github.com/rs/zerolog"
)

const appName = "erlport"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		stop()
		os.Exit(1)
	}
}

type flags struct {
	configPath       string
	dumpPath         string
	packet           int
	maxMessageSize   int
	traceFile        string
	traceCompression string
}

func parseFlags(args []string, stderr io.Writer) (flags, map[string]bool, error) {
	var f flags

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "TOML config file")
	fs.StringVar(&f.dumpPath, "dump", "", "print the records of a trace file and exit")
	fs.IntVar(&f.packet, "packet", port.DefaultPacketSize, "length prefix size: 1, 2 or 4")
	fs.IntVar(&f.maxMessageSize, "max-message-size", 0, "largest accepted message in bytes")
	fs.StringVar(&f.traceFile, "trace", "", "append traffic to this trace file")
	fs.StringVar(&f.traceCompression, "trace-compression", "", "trace body compression: none, zstd, s2 or lz4")

	if err := fs.Parse(args); err != nil {
		return flags{}, nil, err
	}
	if fs.NArg() > 0 {
		return flags{}, nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	return f, set, nil
}

// resolveConfig loads the config file, if any, and applies the flags that were
// given on the command line.
func resolveConfig(f flags, set map[string]bool) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if set["packet"] {
		cfg.PacketSize = f.packet
	}
	if set["max-message-size"] {
		cfg.MaxMessageSize = f.maxMessageSize
	}
	if set["trace"] {
		cfg.TraceFile = f.traceFile
	}
	if set["trace-compression"] {
		ct, ok := format.ParseCompressionType(f.traceCompression)
		if !ok {
			return config.Config{}, fmt.Errorf("unknown trace compression %q", f.traceCompression)
		}
		cfg.TraceCompression = ct
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	f, set, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if f.dumpPath != "" {
		return dumpTrace(f.dumpPath, stdout)
	}

	cfg, err := resolveConfig(f, set)
	if err != nil {
		return err
	}

	logCfg := cfg.Logging()
	logging.ApplyEnv(&logCfg, getenv)

	var logger zerolog.Logger
	if logCfg.File != "" {
		var closer io.Closer
		logger, closer, err = logging.New(logCfg, appName)
		if err != nil {
			return err
		}
		defer closer.Close()
	} else {
		logger = logging.NewWithWriter(logCfg, appName, stderr)
	}

	observability.RegisterMetrics()
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, logger)
		defer shutdown()
	}

	serveOpts := []port.ServeOption{port.WithLogger(logger)}
	if cfg.TraceFile != "" {
		tf, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		defer tf.Close()

		tw, err := trace.NewWriter(tf, trace.WithCompression(cfg.TraceCompression))
		if err != nil {
			return err
		}
		serveOpts = append(serveOpts, port.WithTracer(tw))
	}

	p, err := port.New(stdin, stdout,
		port.WithPacketSize(cfg.PacketSize),
		port.WithMaxMessageSize(cfg.MaxMessageSize),
	)
	if err != nil {
		return err
	}

	logger.Info().
		Int("packet", p.PacketSize()).
		Int("max_message_size", p.MaxMessageSize()).
		Str("trace_file", cfg.TraceFile).
		Stringer("trace_compression", cfg.TraceCompression).
		Msg("serving")

	return port.Serve(ctx, p, newMux(logger), serveOpts...)
}

func serveMetrics(addr string, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server")
		}
	}()
	logger.Info().Str("addr", addr).Msg("metrics server started")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
