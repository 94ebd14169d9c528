// Command linkme resolves deep links against a link service from the shell
// and can serve a demo endpoint behind the resolver middleware.
//
//	linkme [-config linkme.yaml] [-env-file .env] <command> [args]
//
// Commands:
//
//	resolve <url>                 print the payload for url, or null
//	claim                         claim a deferred link
//	track [-user id] <event> [k=v ...]
//	serve [-redirect]             serve GET / behind the middleware
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
	"syscall"
	"time"

	"github.com/dmitrymomot/linkme"
	"github.com/dmitrymomot/linkme/pkg/config"
	"github.com/dmitrymomot/linkme/pkg/httpclient"
	"github.com/dmitrymomot/linkme/pkg/logger"
	"github.com/dmitrymomot/linkme/pkg/requestid"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type settings struct {
	BaseURL               string        `env:"LINKME_BASE_URL" yaml:"base_url"`
	AppID                 string        `env:"LINKME_APP_ID" yaml:"app_id"`
	AppKey                string        `env:"LINKME_APP_KEY" yaml:"app_key"`
	SendDeviceInfo        bool          `env:"LINKME_SEND_DEVICE_INFO" yaml:"send_device_info" envDefault:"true"`
	ResolveUniversalLinks bool          `env:"LINKME_RESOLVE_UNIVERSAL_LINKS" yaml:"resolve_universal_links" envDefault:"true"`
	Timeout               time.Duration `env:"LINKME_TIMEOUT" yaml:"timeout" envDefault:"10s"`
	Env                   string        `env:"LINKME_ENV" yaml:"env" envDefault:"development"`
	ListenAddr            string        `env:"LINKME_LISTEN_ADDR" yaml:"listen_addr" envDefault:":8080"`
	Debug                 bool          `env:"LINKME_DEBUG" yaml:"debug"`
}

func (s settings) linkmeConfig() linkme.Config {
	return linkme.Config{
		BaseURL:               s.BaseURL,
		AppID:                 s.AppID,
		AppKey:                s.AppKey,
		Transport:             httpclient.FromHTTPClient(&http.Client{Timeout: s.Timeout}),
		AutoResolve:           linkme.Bool(false),
		AutoListen:            linkme.Bool(false),
		SendDeviceInfo:        linkme.Bool(s.SendDeviceInfo),
		ResolveUniversalLinks: linkme.Bool(s.ResolveUniversalLinks),
	}
}

func (s settings) newLogger(w io.Writer) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(s.Env, "linkme"),
		logger.WithOutput(w),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if s.Debug {
		opts = append(opts, logger.WithLevel(slog.LevelDebug))
	}
	return logger.New(opts...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("linkme", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "YAML config file")
	envFile := fs.String("env-file", "", ".env file loaded before parsing the environment")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: linkme [-config file] [-env-file file] <resolve|claim|track|serve> [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	s, err := loadSettings(*configFile, *envFile)
	if err != nil {
		fmt.Fprintln(stderr, "linkme:", err)
		return exitFailed
	}
	log := s.newLogger(stderr)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "resolve":
		err = cmdResolve(ctx, s, log, rest, stdout)
	case "claim":
		err = cmdClaim(ctx, s, log, stdout)
	case "track":
		err = cmdTrack(ctx, s, log, rest, stderr)
	case "serve":
		err = cmdServe(ctx, s, log, rest, stderr)
	default:
		fmt.Fprintf(stderr, "linkme: unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}

	var usage usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		fmt.Fprintln(stderr, "linkme:", err)
		return exitUsage
	default:
		log.ErrorContext(ctx, "linkme command failed", logger.Component(cmd), logger.Error(err))
		return exitFailed
	}
}

func loadSettings(configFile, envFile string) (settings, error) {
	var s settings
	if envFile != "" {
		if err := config.Load(&s, envFile); err != nil {
			return s, err
		}
	}
	if configFile != "" {
		return s, config.LoadFile(configFile, &s)
	}
	return s, config.Load(&s)
}

type usageError string

func (e usageError) Error() string { return string(e) }
