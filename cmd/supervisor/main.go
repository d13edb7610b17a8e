// The supervisor launches the backend server, waits for its health
// endpoint to answer, and then follows the process to completion,
// exiting with the server's own exit code.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"autobahn/internal/logging"
	"autobahn/internal/supervisor"
)

func main() {
	app := cli.NewApp()
	app.Name = "autobahn-supervisor"
	app.Usage = "launch the server, verify readiness, and propagate its exit code"
	app.UsageText = "autobahn-supervisor [options] -- <command> [args...]"

	defaults := supervisor.DefaultPollOptions()
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "health-url",
			Usage: "health endpoint to poll",
			Value: supervisor.DefaultHealthURL,
		},
		cli.DurationFlag{
			Name:  "interval",
			Usage: "delay between readiness probes",
			Value: defaults.Interval,
		},
		cli.IntFlag{
			Name:  "attempts",
			Usage: "maximum number of readiness probes",
			Value: defaults.MaxAttempts,
		},
		cli.StringFlag{
			Name:  "dir",
			Usage: "working directory for the launched command",
		},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := logging.NewConsole()

	args := c.Args()
	if len(args) == 0 {
		return cli.NewExitError("no command given; see --help", 1)
	}

	proc, err := supervisor.Launch(supervisor.Spec{
		Command: args[0],
		Args:    args[1:],
		Dir:     c.String("dir"),
	})
	if err != nil {
		// Environment failures abort before any supervision begins.
		return cli.NewExitError(err.Error(), 1)
	}
	log.Infow("server launched", "pid", proc.PID(), "command", args[0])

	// Relay interactive stop signals so the server shuts down first and
	// its exit code still reaches us through Wait.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range sigs {
			log.Infow("forwarding signal", "signal", sig.String())
			if err := proc.Signal(sig); err != nil {
				log.Warnw("signal forward failed", "signal", sig.String(), "error", err)
			}
		}
	}()

	res := supervisor.Poll(context.Background(), supervisor.PollOptions{
		Interval:    c.Duration("interval"),
		MaxAttempts: c.Int("attempts"),
	}, supervisor.HealthProbe(nil, c.String("health-url")), proc.Alive)
	supervisor.ReportReadiness(log, res)

	code := proc.Wait()
	log.Infow("server stopped", "exit_code", code, "uptime", time.Since(proc.StartTime()).Round(time.Second).String())
	if code != 0 {
		return cli.NewExitError("", code)
	}
	return nil
}
