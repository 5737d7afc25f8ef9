// main.go is cygnic's CLI entry point: two required flags, -i/--input and
// -o/--output, wiring the four-stage pipeline in src/compiler. Exit code 0
// on success, 1 on any diagnostic from any stage.
//
// The CLI surface is built on github.com/urfave/cli (cli.App/cli.Command/
// cli.StringFlag{Required: true}), matching how other production tools in
// this ecosystem shape a single-command CLI (see DESIGN.md).
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"cygnic/src/compiler"
	"cygnic/src/diag"
	"cygnic/src/util"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "cygnic"
	app.Usage = "compile a cygnic source file to VM bytecode"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:     "input, i",
			Usage:    "UTF-8 source file to compile",
			Required: true,
		},
		cli.StringFlag{
			Name:     "output, o",
			Usage:    "path to write the compiled bytecode artifact",
			Required: true,
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "raise the log level to debug",
		},
	}
	app.Action = run
	return app
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		// A logger that cannot be built is not itself a compilation
		// diagnostic; fall back to a no-op sink rather than failing the CLI
		// over tooling.
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// run is the cli.App action: read source, compile, write the artifact.
// Everything here is synchronous, like the pipeline itself.
func run(c *cli.Context) error {
	log := newLogger(c.Bool("verbose"))
	defer func() { _ = log.Sync() }()

	inputPath := c.String("input")
	outputPath := c.String("output")

	src, err := util.ReadSource(inputPath)
	if err != nil {
		log.Errorw("could not read source", "path", inputPath, "error", err)
		return cli.NewExitError(fmt.Sprintf("could not read source: %s", err), 1)
	}

	result, err := compiler.Compile(compiler.Options{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Source:     src,
		Log:        log,
	})
	if err != nil {
		log.Errorw("compilation failed", diag.Fields(err)...)
		return cli.NewExitError(fmt.Sprintf("Error: %s", err), 1)
	}

	artifact := compiler.WriteArtifact(result)
	if err := util.WriteArtifact(outputPath, artifact); err != nil {
		log.Errorw("could not write artifact", "path", outputPath, "error", err)
		return cli.NewExitError(fmt.Sprintf("could not write artifact: %s", err), 1)
	}

	log.Infow("compilation succeeded", "output", outputPath, "functions", result.FunctionCount)
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}
