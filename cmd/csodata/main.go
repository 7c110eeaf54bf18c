package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-csodata/pkg/cache"
	"github.com/robert-malhotra/go-csodata/pkg/client"
	"github.com/robert-malhotra/go-csodata/pkg/config"
)

// Global flag names.
const (
	urlFlag      = "url"
	timeoutFlag  = "timeout"
	retriesFlag  = "retries"
	configFlag   = "config"
	noCacheFlag  = "no-cache"
	sanitiseFlag = "sanitise"
	verboseFlag  = "verbose"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "csodata",
		Usage:     "Search and download CSO PxStat tables",
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    urlFlag,
				Aliases: []string{"u"},
				Usage:   "PxStat cube API base URL",
				Sources: cli.EnvVars("CSODATA_URL"),
			},
			&cli.DurationFlag{
				Name:    timeoutFlag,
				Aliases: []string{"t"},
				Usage:   "HTTP client timeout (e.g. 30s, 1m)",
				Value:   client.DefaultTimeout,
			},
			&cli.IntFlag{
				Name:  retriesFlag,
				Usage: "attempts per request, including the first",
				Value: client.DefaultMaxAttempts,
			},
			&cli.StringFlag{
				Name:    configFlag,
				Usage:   "settings file",
				Value:   config.DefaultPath,
				Sources: cli.EnvVars("CSODATA_CONFIG"),
			},
			&cli.BoolFlag{Name: noCacheFlag, Usage: "do not cache API responses"},
			&cli.BoolFlag{Name: sanitiseFlag, Usage: "normalise labels in catalogue and dataset output"},
			&cli.BoolFlag{
				Name:    verboseFlag,
				Aliases: []string{"v"},
				Usage:   "log requests and build steps to stderr",
			},
		},
		Commands: []*cli.Command{
			newTOCCommand(),
			newSearchCommand(),
			newDatasetCommand(),
			newDescribeCommand(),
		},
	}
}

// settings merges the config file with flags given on the command line.
func settings(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String(configFlag))
	if err != nil {
		return cfg, err
	}
	if cmd.IsSet(urlFlag) {
		cfg.BaseURL = cmd.String(urlFlag)
	}
	if cmd.IsSet(timeoutFlag) {
		cfg.Timeout = cmd.Duration(timeoutFlag)
	}
	if cmd.IsSet(retriesFlag) {
		cfg.Retries = cmd.Int(retriesFlag)
	}
	if cmd.Bool(noCacheFlag) {
		cfg.Cache = false
	}
	if cmd.Bool(sanitiseFlag) {
		cfg.Sanitise = true
	}
	if cmd.Bool(verboseFlag) {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	return cfg, cfg.Validate()
}

func newLogger(cmd *cli.Command, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(cmd.Root().ErrWriter)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(lvl)
	return logger, nil
}

// env is what every command needs: settings, a logger and an API client.
type env struct {
	cfg    config.Config
	logger *logrus.Logger
	client *client.Client
	store  *cache.Cache
}

func (e *env) Close() {
	if e.store == nil {
		return
	}
	e.logger.Debugf("cache: %s", e.store.Info())
	e.store.Close()
}

func envFromCommand(cmd *cli.Command) (*env, error) {
	cfg, err := settings(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var store *cache.Cache
	if cfg.Cache {
		if store, err = cache.New(cfg.CacheOptions()); err != nil {
			return nil, err
		}
	}

	c, err := client.NewClient(cfg.BaseURL,
		client.WithTimeout(cfg.Timeout),
		client.WithMaxAttempts(cfg.Retries),
		client.WithLogger(logger),
		client.WithCache(store),
	)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	logger.Debugf("api: %s", c.BaseURL())
	return &env{cfg: cfg, logger: logger, client: c, store: store}, nil
}
