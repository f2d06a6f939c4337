// Command xinuc compiles a single Xinu-flavored C source file to a
// textual stream of stack-machine instructions.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"xinuc/pkg/asmwriter"
	"xinuc/pkg/driver"
)

func main() {
	app := &cli.App{
		Name:    asmwriter.ProductName,
		Usage:   "compile a Xinu-flavored C source file to stack-machine instructions",
		Version: asmwriter.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "o", Aliases: []string{"output"}, Value: "out.xc", Usage: "output path"},
			&cli.BoolFlag{Name: "dump-tokens", Usage: "dump the token stream"},
			&cli.BoolFlag{Name: "dump-ast", Usage: "dump the parsed AST"},
			&cli.BoolFlag{Name: "dump-symbols", Usage: "dump the final symbol table"},
			&cli.BoolFlag{Name: "dump-code", Usage: "dump the generated instructions"},
			&cli.BoolFlag{Name: "O", Usage: "reserved for optimisation; currently has no effect"},
			&cli.IntFlag{Name: "W", Value: 0, Usage: "warning level 0-3"},
		},
		ArgsUsage: "<source.c>",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one source file argument", 1)
	}
	source := c.Args().First()

	opts, err := driver.LoadProjectConfig(driver.DefaultOptions())
	if err != nil {
		return cli.Exit(err, 1)
	}

	if c.IsSet("o") {
		opts.Output = c.String("o")
	}
	if c.IsSet("dump-tokens") {
		opts.DumpTokens = c.Bool("dump-tokens")
	}
	if c.IsSet("dump-ast") {
		opts.DumpAST = c.Bool("dump-ast")
	}
	if c.IsSet("dump-symbols") {
		opts.DumpSymbols = c.Bool("dump-symbols")
	}
	if c.IsSet("dump-code") {
		opts.DumpCode = c.Bool("dump-code")
	}
	if c.IsSet("O") {
		opts.Optimize = c.Bool("O")
	}
	if c.IsSet("W") {
		opts.WarnLevel = c.Int("W")
	}

	log := driver.NewLogger(os.Stderr, opts.WarnLevel)

	report, err := driver.CompileFile(source, opts, log)
	if err != nil {
		return cli.Exit(err, 1)
	}

	for _, name := range []string{"tokens", "ast", "symbols", "code"} {
		if dump, ok := report.Dumps[name]; ok {
			fmt.Println(dump)
		}
	}

	if !report.OK {
		os.Exit(1)
	}
	return nil
}
