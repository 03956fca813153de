// rawget fetches a single URL with a bare HTTP/1.0 GET and relays the raw response
// (status line, headers and body, unparsed) to standard error.
//
//	usage:
//	   rawget URL
//
// Only the http access method is supported. Exit status is 0 if the request completed,
// whatever the status code, and 1 on any failure.
//
// environment:
//
//	RAWGET_LOG_LEVEL	zap log level: debug, info, warn, error (default warn)
//	RAWGET_TIMEOUT		deadline for the whole fetch, e.g 10s (default 0: wait forever)
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/efronlicht/enve"
	"gitlab.com/efronlicht/rawget/fetcherr"
	"gitlab.com/efronlicht/rawget/httpconn"
	"gitlab.com/efronlicht/rawget/observability/trace"
	"gitlab.com/efronlicht/rawget/weburl"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const name = "rawget"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT)
	code := Run(ctx, os.Args, os.Stderr)
	cancel()
	os.Exit(code)
}

// Run runs rawget with the given command-line arguments (including the program name),
// writing diagnostics and the relayed response to stderr. It returns the process exit code.
func Run(ctx context.Context, args []string, stderr io.Writer) int {
	logger, level := setupLogger(stderr)
	defer logger.Sync()
	defer zap.ReplaceGlobals(logger)()
	defer zap.RedirectStdLog(logger)() // enve reports its fallbacks through the log package.

	cfg := configFromEnv()
	level.SetLevel(cfg.level)
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	ctx = trace.SaveCtx(ctx, trace.New())
	f := fetcher{resolver: net.DefaultResolver, open: httpconn.Open, stderr: stderr, log: logger}
	return f.run(ctx, args)
}

type config struct {
	level   zapcore.Level
	timeout time.Duration
}

func configFromEnv() config {
	return config{
		level:   enve.FromTextOr("RAWGET_LOG_LEVEL", zapcore.WarnLevel),
		timeout: enve.DurationOr("RAWGET_TIMEOUT", 0),
	}
}

// setupLogger logs to stderr, the same stream the response goes to; that's why the default level is warn.
// The returned level can be raised or lowered after the fact.
func setupLogger(stderr io.Writer) (*zap.Logger, zap.AtomicLevel) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(zapcore.AddSync(stderr)),
		level,
	)).Named(name)
	return logger, level
}

// fetcher does one fetch. Its collaborators are fields so tests can swap them out.
type fetcher struct {
	resolver weburl.Resolver
	open     func(ctx context.Context, addr net.IP, port int) (*httpconn.Conn, error)
	stderr   io.Writer
	log      *zap.Logger
}

// run fetches the URL in args[1], returning the exit code.
func (f *fetcher) run(ctx context.Context, args []string) int {
	f.log = f.log.With(trace.FromCtxOrNew(ctx).Field())
	start := time.Now()
	if err := f.fetch(ctx, args); err != nil {
		f.log.Debug("fetch failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return 1
	}
	return 0
}

// fetch runs parse -> method check -> resolve -> open -> request -> response, stopping at the first failure.
// Each failure gets a one-line explanation on stderr.
func (f *fetcher) fetch(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintf(f.stderr, "Usage: %s <url>\n", name)
		return fetcherr.Errorf(fetcherr.Usage, name, "expected exactly one argument, got %d", len(args)-1)
	}
	raw := args[1]
	u, err := weburl.Parse(raw)
	if err != nil {
		fmt.Fprintf(f.stderr, "Illegal URL: '%s'\n", raw)
		return err
	}
	// check the method before touching the network: nothing but http gets a lookup or a connection.
	if !u.IsHTTP() {
		fmt.Fprintln(f.stderr, u)
		fmt.Fprintln(f.stderr, "Only HTTP access method is supported")
		return fetcherr.Errorf(fetcherr.UnsupportedMethod, name, "access method %q", u.Method)
	}
	addr, err := u.Address(ctx, f.resolver)
	fmt.Fprintln(f.stderr, u)
	if err != nil {
		fmt.Fprintf(f.stderr, "Unable to resolve host '%s': %v\n", u.Hostname, err)
		return err
	}

	c, err := f.open(ctx, addr, u.Port)
	if err != nil {
		host := "(NULL)"
		if u.HasHostname {
			host = u.Hostname
		}
		fmt.Fprintf(f.stderr, "Unable to contact host '%s', port %d\n", host, u.Port)
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			f.log.Warn("close connection", zap.Error(err))
		}
	}()
	if err := c.Request(u.Path, u.Hostname); err != nil {
		fmt.Fprintf(f.stderr, "Unable to send request to '%s': %v\n", u.Hostname, err)
		return err
	}
	n, err := c.Response(f.stderr)
	if err != nil {
		fmt.Fprintf(f.stderr, "\nError reading response from '%s': %v\n", u.Hostname, err)
		return err
	}
	f.log.Info("fetched", zap.String("url", raw), zap.Stringer("remote_addr", c.RemoteAddr()), zap.Int64("bytes", n))
	return nil
}
