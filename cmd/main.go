package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/airbusgeo/godal"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/smap-coverage-cli/internal/logger"
	"github.com/forest-guardian/smap-coverage-cli/internal/notification"
	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/forest-guardian/smap-coverage-cli/internal/statistics"
	"github.com/forest-guardian/smap-coverage-cli/internal/ui"
	"gopkg.in/urfave/cli.v1"
)

const version = "1.0.0"

func printBanner() {
	figure1 := figure.NewFigure("SMAP", "isometric1", true)
	figure2 := figure.NewFigure("Coverage", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func reportPanic(discord *notification.Discord) {
	r := recover()
	if r == nil {
		return
	}
	pc, file, line, ok := runtime.Caller(3)
	location := "Unknown location"
	if ok {
		location = fmt.Sprintf("%s:%d in %s", file, line, runtime.FuncForPC(pc).Name())
	}

	fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
	fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
	fmt.Printf("\033[31mPlease check the input and try again.\033[0m\n")
	fmt.Printf("\033[31mExiting...\033[0m\n")

	errMessage := fmt.Sprintf("SMAP coverage CLI panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, debug.Stack())
	if err := discord.SendError(context.Background(), errMessage); err != nil {
		fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
	}
	os.Exit(2)
}

func main() {
	properties.LoadEnvFiles()
	cfg, err := properties.Load()
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	log := logger.Build(logger.Config{
		Level:     cfg.Logging.Level,
		Console:   cfg.Logging.Console,
		Component: "smap-coverage-cli",
	}, nil)

	discord := notification.NewDiscord(cfg.Notification)
	defer reportPanic(discord)

	godal.RegisterAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline{cfg: cfg, log: log, runner: ui.StepRunner{Notifier: discord, Log: log}}

	app := cli.NewApp()
	app.Name = "smap-coverage"
	app.Usage = "SMAP soil moisture coverage and SWAT+ agreement pipeline"
	app.Version = version
	app.Action = func(c *cli.Context) error {
		printBanner()
		ui.ShowMenu(p.menuOptions(ctx))
		return nil
	}

	app.Commands = []cli.Command{{
		Name:  "menu",
		Usage: "Interactive numbered menu",
		Action: func(c *cli.Context) error {
			printBanner()
			ui.ShowMenu(p.menuOptions(ctx))
			return nil
		},
	}}
	for _, s := range steps {
		s := s
		cmd := cli.Command{Name: s.name, Usage: s.title}
		if s.run == nil {
			cmd.Flags = []cli.Flag{cli.StringFlag{
				Name:  "metric, m",
				Value: "pearson",
				Usage: "pearson, nse or r2",
			}}
			cmd.Action = func(c *cli.Context) error {
				metric, err := statistics.ParseMetric(c.String("metric"))
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				return exitOnError(p.run(ctx, s.name, statisticsStep(metric)))
			}
		} else {
			cmd.Action = func(c *cli.Context) error {
				return exitOnError(p.run(ctx, s.name, s.run))
			}
		}
		app.Commands = append(app.Commands, cmd)
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// exitOnError turns a step failure into a non zero exit status. The message has already been
// printed.
func exitOnError(err error) error {
	if err != nil {
		return cli.NewExitError("", 1)
	}
	return nil
}
