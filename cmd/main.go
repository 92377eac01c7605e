package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	fossil "github.com/fossillogic/fossil-test"
	"github.com/fossillogic/fossil-test/exitcodes"
	"github.com/fossillogic/fossil-test/flags"
)

var (
	Version   = "v1.1.8"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = runApp(ctx, app, os.Args)
	shutdown()
	if err != nil {
		log.Error("Application failed", "message", err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "fossil-test"
	app.Usage = "Fossil Test unit test runner"
	app.Description = "fossil-test runs the registered test groups once and prints a summary. " +
		"Options may also be given as commands after the flags, e.g. `reverse enable repeat 3 format table`."
	app.ArgsUsage = "[command [value]]..."
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		cli.HandleExitCoder(cli.Exit(err.Error(), fossil.ExitCode(err)))
	}
	return app
}

// runApp runs app with flags given after the positional commands moved in
// front of them
func runApp(ctx context.Context, app *cli.App, args []string) error {
	return app.RunContext(ctx, flags.HoistFlags(args, app.Flags))
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := fossil.NewConfig(ctx, log)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, fossil.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)

	app, err := fossil.New(cfg, Version, fossil.Deps{Out: ctx.App.Writer}, closeApp)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, fossil.NewRuntimeError(fmt.Errorf("failed to create app: %w", err))
	}

	return app, nil
}
