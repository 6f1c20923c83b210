// seehuhn.de/go/clut - convert colour lookup tables
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Cluttool converts colour lookup tables between file formats.
//
// Usage:
//
//	cluttool convert [flags] src dst
//	cluttool batch -to format -out dir [flags] files...
//	cluttool generate [-script file.js] [-size n] [-to format] dst
//	cluttool diff a b
//
// Run "cluttool <command> -h" for the flags of each command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"seehuhn.de/go/clut"
	"seehuhn.de/go/clut/observability"
	"seehuhn.de/go/clut/script"
)

// Exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// errUsage marks errors in the command line arguments.
var errUsage = errors.New("usage error")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	var err error
	switch args[0] {
	case "convert":
		err = convert(args[1:], stdout, stderr)
	case "batch":
		err = batch(ctx, args[1:], stdout, stderr)
	case "generate":
		err = generate(ctx, args[1:], stderr)
	case "diff":
		err = diff(args[1:], stdout, stderr)
	case "formats":
		for _, f := range clut.Formats() {
			fmt.Fprintf(stdout, "%-9s %s\n", f, f.Extension())
		}
	case "-h", "-help", "--help", "help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "cluttool: unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return exitUsage
	default:
		fmt.Fprintf(stderr, "cluttool: %v\n", err)
		return exitFailure
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage:
  cluttool convert [flags] src dst
  cluttool batch -to format -out dir [flags] files...
  cluttool generate [-script file.js] [-size n] [-to format] dst
  cluttool diff a b
  cluttool formats
`)
}

// newFlagSet returns a flag set which reports errors to stderr.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseArgs parses the flags and checks the number of positional
// arguments.  A negative count means "at least one".
func parseArgs(fs *flag.FlagSet, args []string, count int) error {
	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return err
	} else if err != nil {
		return errUsage
	}
	n := fs.NArg()
	if (count >= 0 && n != count) || (count < 0 && n == 0) {
		fmt.Fprintf(fs.Output(), "%s: wrong number of arguments\n", fs.Name())
		fs.Usage()
		return errUsage
	}
	return nil
}

// convOptions holds the flags shared by convert and batch.
type convOptions struct {
	to        string
	size      int
	bits      int
	inputBits int
	haldBits  int
	title     string
	interp    string
	verbose   bool
}

func (o *convOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.to, "to", "", "destination `format`")
	fs.IntVar(&o.size, "size", 0, "mesh size of the output")
	fs.IntVar(&o.bits, "bits", 0, "3DL output bit depth (default 12)")
	fs.IntVar(&o.inputBits, "input-bits", 0, "3DL breakpoint bit depth (default 10)")
	fs.IntVar(&o.haldBits, "hald-bits", 0, "Hald image bit depth, 8 or 16 (default 16)")
	fs.StringVar(&o.title, "title", "", "title for Cube and ICC output")
	fs.StringVar(&o.interp, "interp", "trilinear", "resampling kernel, trilinear or tetrahedral")
	fs.BoolVar(&o.verbose, "v", false, "verbose output")
}

func (o *convOptions) options(stderr io.Writer) (*clut.Options, error) {
	method, err := clut.ParseInterpolation(o.interp)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, errUsage
	}
	return &clut.Options{
		Size:                 o.size,
		Interpolation:        method,
		ThreeDLBitDepth:      o.bits,
		ThreeDLInputBitDepth: o.inputBits,
		HaldBitDepth:         o.haldBits,
		Title:                o.title,
		Logger:               newLogger(stderr, o.verbose),
	}, nil
}

func newLogger(w io.Writer, verbose bool) observability.Logger {
	level := observability.LevelWarn
	if verbose {
		level = observability.LevelDebug
	}
	return observability.NewTextLogger(w, level)
}

func convert(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("convert", stderr)
	var o convOptions
	o.register(fs)
	err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	src, dst := fs.Arg(0), fs.Arg(1)

	from, err := clut.FormatFromPath(src)
	if err != nil {
		return err
	}
	to, err := destFormat(o.to, dst, stderr)
	if err != nil {
		return err
	}
	opts, err := o.options(stderr)
	if err != nil {
		return err
	}

	c, err := clut.NewConverter(from, to, opts)
	if err != nil {
		return err
	}
	res, err := c.ConvertFile(src, dst)
	if err != nil {
		return err
	}
	if o.verbose {
		fmt.Fprintf(stdout, "%s -> %s: size %d -> %d, %d bytes\n",
			res.From, res.To, res.SourceSize, res.Size, res.Bytes)
	}
	return nil
}

// destFormat returns the format given by the -to flag, or else the format
// implied by the destination file name.
func destFormat(name, dst string, stderr io.Writer) (clut.Format, error) {
	if name == "" {
		return clut.FormatFromPath(dst)
	}
	f, err := clut.ParseFormat(name)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return "", errUsage
	}
	return f, nil
}

func batch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("batch", stderr)
	var o convOptions
	o.register(fs)
	outDir := fs.String("out", "", "output `directory`")
	workers := fs.Int("j", 4, "number of parallel conversions")
	failFast := fs.Bool("fail-fast", false, "stop at the first failure")
	err := parseArgs(fs, args, -1)
	if err != nil {
		return err
	}
	if o.to == "" || *outDir == "" {
		fmt.Fprintln(stderr, "batch: -to and -out are required")
		return errUsage
	}
	to, err := destFormat(o.to, "", stderr)
	if err != nil {
		return err
	}
	opts, err := o.options(stderr)
	if err != nil {
		return err
	}

	var jobs []clut.Job
	for _, src := range fs.Args() {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		jobs = append(jobs, clut.Job{
			Src: src,
			Dst: filepath.Join(*outDir, base+to.Extension()),
			To:  to,
		})
	}

	results, err := clut.RunBatch(ctx, jobs, &clut.BatchOptions{
		Workers:  *workers,
		FailFast: *failFast,
		Options:  opts,
	})
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(stdout, "FAIL %s: %v\n", r.Job.Src, r.Err)
		case r.Result != nil:
			fmt.Fprintf(stdout, "ok   %s -> %s\n", r.Job.Src, r.Job.Dst)
		}
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(jobs))
	}
	return nil
}

func generate(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("generate", stderr)
	scriptFile := fs.String("script", "", "JavaScript `file` defining transform(r, g, b)")
	size := fs.Int("size", 33, "mesh size")
	toName := fs.String("to", "", "destination `format`")
	err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	dst := fs.Arg(0)
	to, err := destFormat(*toName, dst, stderr)
	if err != nil {
		return err
	}

	var src []byte
	if *scriptFile != "" {
		src, err = os.ReadFile(*scriptFile)
		if err != nil {
			return err
		}
	}
	l, err := script.Generate(ctx, string(src), *size)
	if err != nil {
		return err
	}

	return clut.EncodeFile(dst, to, l, &clut.Options{Logger: newLogger(stderr, false)})
}

func diff(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("diff", stderr)
	err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	a, err := load(fs.Arg(0))
	if err != nil {
		return err
	}
	b, err := load(fs.Arg(1))
	if err != nil {
		return err
	}

	d, err := clut.Compare(a, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "points:       %d\n", d.Points)
	fmt.Fprintf(stdout, "max channel:  %.6f\n", d.MaxChannel)
	fmt.Fprintf(stdout, "mean channel: %.6f\n", d.MeanChannel)
	fmt.Fprintf(stdout, "max ΔE00:     %.4f\n", d.MaxDeltaE)
	fmt.Fprintf(stdout, "mean ΔE00:    %.4f\n", d.MeanDeltaE)
	return nil
}

func load(fname string) (*clut.Lattice, error) {
	f, err := clut.FormatFromPath(fname)
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	l, _, err := clut.Decode(fd, f, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return l, nil
}
