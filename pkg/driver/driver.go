// Package driver orchestrates the lex/parse/generate pipeline in
// pkg/compiler for a single source file: reading it, running the
// compilation, rendering the requested dumps, and writing the textual
// assembly output, all behind one CompileFile entry point shared by
// cmd/xinuc and any future caller.
package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"xinuc/pkg/asmwriter"
	"xinuc/pkg/compiler"
)

// Report is everything CompileFile produced: the underlying compiler
// Result, the rendered dump strings the caller asked for (only the ones
// requested are populated), and whether the run should exit non-zero.
type Report struct {
	Result *compiler.Result
	Dumps  map[string]string
	OK     bool
}

// NewLogger builds a zerolog.Logger writing to w. Info-level phase
// transitions appear at warnLevel 2 and above; warnings appear at
// warnLevel 1 and above; the logger is otherwise silent except for the
// final diagnostic line on failure.
func NewLogger(w io.Writer, warnLevel int) zerolog.Logger {
	level := zerolog.ErrorLevel
	if warnLevel >= 2 {
		level = zerolog.InfoLevel
	} else if warnLevel >= 1 {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

// CompileFile reads sourcePath, runs it through the compiler pipeline,
// writes the assembly output to opts.Output, and returns a Report
// describing what happened. It never calls os.Exit; the caller decides
// how to act on Report.OK.
func CompileFile(sourcePath string, opts Options, log zerolog.Logger) (*Report, error) {
	fullPath, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, errors.WithMessage(err, "resolving source path")
	}

	log.Info().Str("phase", "read").Str("file", fullPath).Msg("reading source")
	src, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, compiler.WrapIO(err, "reading source file")
	}

	filename := filepath.Base(fullPath)

	log.Info().Str("phase", "compile").Msg("lexing, parsing, generating")
	res := compiler.Compile(string(src), filename)

	report := &Report{Result: res, Dumps: map[string]string{}, OK: res.OK}

	if opts.DumpTokens {
		toks, _ := compiler.LexAll(string(src), filename)
		report.Dumps["tokens"] = renderTokens(toks)
	}
	if opts.DumpAST {
		report.Dumps["ast"] = compiler.DumpProgram(res.Program)
	}
	if opts.DumpSymbols {
		report.Dumps["symbols"] = res.Symbols.String()
	}
	if opts.DumpCode && res.Code != nil {
		report.Dumps["code"] = asmwriter.String(res.Code, filename)
	}

	if opts.Optimize {
		log.Warn().Str("phase", "optimize").Msg("-O is reserved and has no effect")
	}

	for _, w := range res.Diags.Warnings {
		if opts.WarnLevel >= 1 {
			log.Warn().Msg(w.Error())
		}
	}

	if !res.OK {
		if d := res.Diags.First(); d != nil {
			log.Error().Msg(d.Error())
		}
		return report, nil
	}

	log.Info().Str("phase", "write").Str("file", opts.Output).Msg("writing assembly output")
	out, err := os.Create(opts.Output)
	if err != nil {
		return report, compiler.WrapIO(err, "creating output file")
	}
	defer out.Close()

	if err := asmwriter.Write(out, res.Code, filename); err != nil {
		return report, compiler.WrapIO(err, "writing output file")
	}

	return report, nil
}

func renderTokens(toks []compiler.Token) string {
	s := ""
	for _, t := range toks {
		s += fmt.Sprintf("%s\n", t)
	}
	return s
}
