// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/pingw33n/xerocole/internal/config"
	"github.com/pingw33n/xerocole/internal/metrics"
	"github.com/pingw33n/xerocole/internal/runtimeEnv"
	"github.com/pingw33n/xerocole/pkg/log"

	_ "github.com/pingw33n/xerocole/internal/eventdecoder"
	_ "github.com/pingw33n/xerocole/internal/filter"
	_ "github.com/pingw33n/xerocole/internal/input"
	_ "github.com/pingw33n/xerocole/internal/output"
	_ "github.com/pingw33n/xerocole/internal/output/nats"
	_ "github.com/pingw33n/xerocole/internal/output/s3"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	app := &cli.App{
		Name:  "xerocole",
		Usage: "tail, parse, and route log events",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "loglevel", Value: "info", Usage: "debug, info, notice, warn, err, crit"},
			&cli.BoolFlag{Name: "logdate", Usage: "add date/time to log messages"},
			&cli.StringFlag{Name: "diagnostics-addr", Usage: "listen address for github.com/google/gops/agent"},
			&cli.StringFlag{Name: "env-file", Value: "./.env", Usage: "optional .env file applied to the process environment"},
		},
		Before: func(c *cli.Context) error {
			log.SetLogLevel(c.String("loglevel"))
			log.SetLogDateTime(c.Bool("logdate"))
			if err := runtimeEnv.LoadEnv(c.String("env-file")); err != nil && !os.IsNotExist(err) {
				return cli.Exit(fmt.Sprintf("loading env file failed: %s", err), 1)
			}
			if addr := c.String("diagnostics-addr"); addr != "" {
				if err := agent.Listen(agent.Options{Addr: addr}); err != nil {
					return cli.Exit(fmt.Sprintf("gops/agent.Listen failed: %s", err), 1)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand(),
			validateConfigCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "start the pipeline and block until shutdown",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "./config.yaml", Usage: "path to the pipeline config file"},
			&cli.StringFlag{Name: "user", Usage: "drop privileges to this user after startup"},
			&cli.StringFlag{Name: "group", Usage: "drop privileges to this group after startup"},
		},
		Action: func(c *cli.Context) error {
			data, err := os.ReadFile(c.String("config"))
			if err != nil {
				return cli.Exit(err, 1)
			}
			v, err := config.Load(data)
			if err != nil {
				return cli.Exit(err, 1)
			}

			reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			p, err := config.Build(ctx, v, reg)
			if err != nil {
				return cli.Exit(err, 1)
			}

			if user, group := c.String("user"), c.String("group"); user != "" || group != "" {
				if err := runtimeEnv.DropPrivileges(user, group); err != nil {
					return cli.Exit(fmt.Sprintf("dropping privileges failed: %s", err), 1)
				}
			}

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigs
				log.Info("xerocole: shutting down")
				runtimeEnv.SystemdNotify(false, "stopping")
				cancel()
			}()

			log.Info("xerocole: pipeline running")
			runtimeEnv.SystemdNotify(true, "running")
			if err := p.Run(ctx); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

func validateConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate-config",
		Usage: "parse and schema-validate a config file, then exit",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "./config.yaml", Usage: "path to the pipeline config file"},
		},
		Action: func(c *cli.Context) error {
			data, err := os.ReadFile(c.String("config"))
			if err != nil {
				return cli.Exit(err, 1)
			}
			if _, err := config.Load(data); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print version information and exit",
		Action: func(c *cli.Context) error {
			fmt.Println("xerocole " + version)
			return nil
		},
	}
}
