// Command-line interface to the neuropil label curation tools.
// Serves the HTTP API for a viewer or runs transfers and exports in batch on slice stacks.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/mutlog"
	"github.com/janelia-flyem/neuropil/server"
	"github.com/janelia-flyem/neuropil/slices"
	"github.com/janelia-flyem/neuropil/transfer"
	"github.com/janelia-flyem/neuropil/volume"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Address for http communication.  Overrides the config file.
	httpAddress = flag.String("http", "", "")

	// Pixel format of exported slices.
	pixelFormat = flag.String("format", "auto", "")

	// Region selection for transfers.
	regionMode = flag.String("mode", "value", "")

	// File name prefix of exported slices.
	outPrefix = flag.String("prefix", "lbl", "")

	// Optional mutation log for batch commands.
	mutationLog = flag.String("mutlog", "", "")

	// Move regions from the destination stack back into the source stack.
	reverseTransfer = flag.Bool("reverse", false, "")
)

const helpMessage = `
neuropil moves labeled regions between neuron segmentation volumes and exports them as slice images

Usage: neuropil [options] <command>

      -http       =string   Address for HTTP communication, overriding the config file.
      -format     =string   Pixel format of exported slices: auto, gray8, gray16 or rgba64.
      -mode       =string   Region selection for transfers: value or connected.
      -prefix     =string   File name prefix of exported slices (default "lbl").
      -mutlog     =string   Append batch mutations to this log file.
      -reverse    (flag)    Transfer from the destination stack back into the source
                            stack and export the source.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	help
	serve     <config.toml>
	transfer  <src dir> <src prefix> <points> <out dir> [<dst dir> <dst prefix>]
	export    <dir> <prefix> <out dir>
	relabel   <dir> <prefix> <out dir>
	mutations <log file>

Points are given as "z,y,x;z,y,x;...".  Label stacks are read from files named
{prefix}_*.png (tif, bmp and jpg also work) in lexicographic order and written as
{prefix}_{z}.png with z zero-padded to at least three digits.
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *runVerbose {
		core.Verbose = true
		core.SetLogMode(core.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	// Capture ctrl+c and other interrupts.  Then handle graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := DoCommand(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		core.Shutdown()
		os.Exit(1)
	}
	core.Shutdown()
}

// DoCommand serves as a switchboard for commands.
func DoCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("Blank command!")
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "about":
		fmt.Printf("neuropil %s\n", server.Version)
		return nil
	case "serve":
		return DoServe(ctx, args)
	case "transfer":
		return DoTransfer(ctx, args)
	case "export":
		return DoExport(ctx, args)
	case "relabel":
		return DoRelabel(ctx, args)
	case "mutations":
		return DoMutations(args)
	default:
		return fmt.Errorf("Unknown command %q.  Use -help for usage.", cmd)
	}
}

func needArgs(cmd string, args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		return fmt.Errorf("%s: bad number of arguments, see -help", cmd)
	}
	return nil
}

// DoServe loads the config and volumes and serves the HTTP API until interrupted.
func DoServe(ctx context.Context, args []string) error {
	if err := needArgs("serve", args, 1, 1); err != nil {
		return err
	}
	if err := server.LoadConfig(args[0], *httpAddress); err != nil {
		return err
	}
	server.LogConfig().SetLogger()

	store, err := server.LoadVolumes(ctx)
	if err != nil {
		return err
	}
	adapter, err := server.Initialize(store)
	if err != nil {
		return err
	}
	defer adapter.Shutdown()
	return server.ServeHTTP(ctx, server.HTTPAddress(), adapter)
}

// DoTransfer moves the regions under the given points from a source stack into a
// destination stack, which starts empty unless given, and exports the result.
// With -reverse the regions move from the destination back into the source.
func DoTransfer(ctx context.Context, args []string) error {
	if err := needArgs("transfer", args, 4, 6); err != nil {
		return err
	}
	if len(args) == 5 {
		return fmt.Errorf("transfer: destination stack needs both a directory and prefix")
	}
	points, err := core.StringToPoints(args[2])
	if err != nil {
		return err
	}
	mode, err := volume.ParseRegionMode(*regionMode)
	if err != nil {
		return err
	}
	format, err := core.ParsePixelFormat(*pixelFormat)
	if err != nil {
		return err
	}

	src, err := slices.Import(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	var dst *volume.Labels
	if len(args) == 6 {
		dst, err = slices.Import(ctx, args[4], args[5])
	} else {
		dst, err = volume.NewEmptyLabels(src.Shape())
	}
	if err != nil {
		return err
	}
	store := volume.NewStore()
	if err := store.Load(nil, src, dst); err != nil {
		return err
	}

	engine := transfer.NewEngine(store, mode)
	if *mutationLog != "" {
		l, err := mutlog.Open(*mutationLog)
		if err != nil {
			return err
		}
		defer l.Close()
		engine.SetLog(l)
	}
	from, to := volume.Source, volume.Destination
	if *reverseTransfer {
		from, to = to, from
	}
	result, err := engine.TransferBetween(from, to, points)
	if err != nil {
		return err
	}
	for _, o := range result.Outcomes {
		fmt.Println(o)
	}

	out, err := store.Labels(to)
	if err != nil {
		return err
	}
	exp, err := slices.NewExporter(format).Export(ctx, out, args[3], *outPrefix)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d %s slices to %s\n", exp.Written(), exp.Format, args[3])
	return exp.Err()
}

// DoExport re-exports a label stack, e.g., to change its pixel format or prefix.
func DoExport(ctx context.Context, args []string) error {
	if err := needArgs("export", args, 3, 3); err != nil {
		return err
	}
	format, err := core.ParsePixelFormat(*pixelFormat)
	if err != nil {
		return err
	}
	labels, err := slices.Import(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	result, err := slices.NewExporter(format).Export(ctx, labels, args[2], *outPrefix)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d %s slices to %s\n", result.Written(), result.Format, args[2])
	return result.Err()
}

// DoRelabel compacts the labels of a stack to 1..N and exports it.
func DoRelabel(ctx context.Context, args []string) error {
	if err := needArgs("relabel", args, 3, 3); err != nil {
		return err
	}
	format, err := core.ParsePixelFormat(*pixelFormat)
	if err != nil {
		return err
	}
	labels, err := slices.Import(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	relabeled, mapping := volume.Relabel(labels)
	result, err := slices.NewExporter(format).Export(ctx, relabeled, args[2], *outPrefix)
	if err != nil {
		return err
	}
	fmt.Printf("Relabeled %d labels; wrote %d %s slices to %s\n", len(mapping), result.Written(), result.Format, args[2])
	return result.Err()
}

// DoMutations prints the records of a mutation log.
func DoMutations(args []string) error {
	if err := needArgs("mutations", args, 1, 1); err != nil {
		return err
	}
	records, err := mutlog.ReadFile(args[0])
	if err != nil {
		return err
	}
	for i := range records {
		fmt.Println(&records[i])
	}
	return nil
}
