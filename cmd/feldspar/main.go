// feldspar - a bitboard chess engine with a UCI front end, perft tooling and an HTTP API
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0x5844/feldspar"
	"github.com/0x5844/feldspar/perft"
	"github.com/0x5844/feldspar/search"
	"github.com/0x5844/feldspar/server"
	"github.com/0x5844/feldspar/uci"
)

const version = "0.3.0"

func main() {
	level := new(slog.LevelVar)
	if os.Getenv("FELDSPAR_DEBUG") != "" {
		level.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command, args := "uci", []string(nil)
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	var err error
	switch command {
	case "uci":
		err = cmdUCI(ctx, args)
	case "perft":
		err = cmdPerft(ctx, args)
	case "divide":
		err = cmdDivide(args)
	case "suite":
		err = cmdSuite(ctx, args)
	case "bench":
		err = cmdBench(ctx, args)
	case "search":
		err = cmdSearch(ctx, args)
	case "serve":
		err = cmdServe(ctx, args)
	case "version":
		fmt.Println("feldspar", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error(command+" failed", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`feldspar - chess engine

Usage: feldspar [command] [options]

Commands:
  uci       Speak UCI on stdin/stdout (default)
  perft     Count positions to a depth and print per-ply totals
  divide    Print the leaf count below each root move
  suite     Check the move generator against reference perft counts
  bench     Measure perft speed over several runs
  search    Search a position and print the best move
  serve     Run the HTTP API
  version   Print the version

Use "feldspar <command> -h" for command-specific help.`)
}

func positionFlag(fs *flag.FlagSet) *string {
	return fs.String("fen", feldspar.StartFEN, "position in Forsyth-Edwards Notation")
}

func cmdUCI(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("uci", flag.ExitOnError)
	depth := fs.Int("depth", 6, "default search depth")
	quiescence := fs.Int("quiescence", 4, "capture extension depth, 0 to disable")
	workers := fs.Int("workers", 1, "root search goroutines")
	fs.Parse(args)

	e := uci.New(os.Stdout, uci.WithDepth(*depth), uci.WithQuiescence(*quiescence), uci.WithWorkers(*workers))
	err := e.Run(ctx, os.Stdin)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func cmdPerft(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("perft", flag.ExitOnError)
	fen := positionFlag(fs)
	depth := fs.Int("depth", 5, "plies to enumerate")
	workers := fs.Int("workers", 0, "goroutines, 0 for GOMAXPROCS")
	fs.Parse(args)

	pos, err := feldspar.ParseFEN(*fen)
	if err != nil {
		return err
	}
	start := time.Now()
	r, err := perft.RunParallel(ctx, pos, *depth, *workers)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	perft.WriteTable(os.Stdout, &r)
	fmt.Printf("%d nodes in %v (%.0f nps)\n", r.Total(), elapsed.Round(time.Millisecond), float64(r.Total())/elapsed.Seconds())
	return nil
}

func cmdDivide(args []string) error {
	fs := flag.NewFlagSet("divide", flag.ExitOnError)
	fen := positionFlag(fs)
	depth := fs.Int("depth", 3, "plies to enumerate")
	fs.Parse(args)

	pos, err := feldspar.ParseFEN(*fen)
	if err != nil {
		return err
	}
	div, err := perft.Divide(pos, *depth)
	if err != nil {
		return err
	}
	return perft.WriteDivide(os.Stdout, div)
}

func cmdSuite(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("suite", flag.ExitOnError)
	depth := fs.Int("depth", 4, "deepest depth to verify per position")
	workers := fs.Int("workers", 0, "goroutines, 0 for GOMAXPROCS")
	fs.Parse(args)

	cases, err := perft.LoadSuite()
	if err != nil {
		return err
	}
	var failed int
	for _, c := range cases {
		start := time.Now()
		r, err := perft.Verify(ctx, c, *depth, *workers)
		switch {
		case errors.Is(err, perft.ErrMismatch):
			failed++
			fmt.Printf("FAIL %-20s %v\n", c.Name, err)
		case err != nil:
			return err
		default:
			fmt.Printf("ok   %-20s %12d leaves  %v\n", c.Name, r.Leaves(), time.Since(start).Round(time.Millisecond))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d suite positions failed", failed, len(cases))
	}
	return nil
}

func cmdBench(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	fen := positionFlag(fs)
	depth := fs.Int("depth", 5, "perft depth per run")
	runs := fs.Int("runs", 5, "number of runs")
	workers := fs.Int("workers", 0, "goroutines, 0 for GOMAXPROCS")
	fs.Parse(args)

	pos, err := feldspar.ParseFEN(*fen)
	if err != nil {
		return err
	}
	res, err := perft.Bench(ctx, pos, *depth, *runs, *workers)
	if err != nil {
		return err
	}
	fmt.Printf("%d runs of %d nodes in %v: %.0f nps (stddev %.0f)\n",
		res.Runs, res.Nodes, res.Elapsed.Round(time.Millisecond), res.MeanNPS, res.StdDevNPS)
	return nil
}

func cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	fen := positionFlag(fs)
	depth := fs.Int("depth", 5, "search depth in plies")
	quiescence := fs.Int("quiescence", 0, "capture extension depth")
	workers := fs.Int("workers", 1, "root search goroutines")
	timeout := fs.Duration("timeout", 0, "stop after this long and report the best completed move")
	fs.Parse(args)

	pos, err := feldspar.ParseFEN(*fen)
	if err != nil {
		return err
	}
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}
	opts := []search.Option{search.WithCaptureOrdering(true), search.WithQuiescence(*quiescence)}
	var res search.Result
	if *workers > 1 {
		res, err = search.SearchParallel(ctx, pos, *depth, *workers, opts...)
	} else {
		res, err = search.AlphaBeta(ctx, search.NewTree(pos), *depth, opts...)
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	fmt.Printf("bestmove %s score %d nodes %d\n", res.Move, res.Score, res.Nodes)
	return nil
}

func cmdServe(ctx context.Context, args []string) error {
	cfg := server.DefaultConfig()
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&cfg.Host, "host", cfg.Host, "address to bind")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	fs.IntVar(&cfg.MaxJobs, "jobs", cfg.MaxJobs, "concurrent searches and perft runs")
	fs.IntVar(&cfg.MaxSearchDepth, "max-search-depth", cfg.MaxSearchDepth, "deepest search a request may ask for")
	fs.IntVar(&cfg.MaxPerftDepth, "max-perft-depth", cfg.MaxPerftDepth, "deepest perft a request may ask for")
	fs.DurationVar(&cfg.SearchTimeout, "search-timeout", cfg.SearchTimeout, "search time limit per request")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "goroutines per job, 0 for GOMAXPROCS")
	fs.Parse(args)

	return server.New(cfg, version).ListenAndServe(ctx)
}
