// Command forkjoin-demo exercises the core scheduler through a handful of
// scenarios: two classic fork/join microbenchmarks (fib, treesum) and the
// compress package's block compressor/decompressor built on top of it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"forkjoin/compress"
	"forkjoin/core"
)

func main() {
	scenario := flag.String("scenario", "", "fib, treesum, compress, or decompress")
	workers := flag.Int("workers", 0, "worker count (0 = GOMAXPROCS)")
	n := flag.Int("n", 20, "fib: which Fibonacci number to compute")
	depth := flag.Int("depth", 5, "treesum: tree depth")
	breadth := flag.Int("breadth", 5, "treesum: children per node")
	inPath := flag.String("in", "", "compress/decompress: input file path")
	outPath := flag.String("out", "", "compress/decompress: output file path")
	blockSize := flag.Uint("block-size", 0, "compress: block size in bytes (0 = default)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := zerolog.Nop()
	if *verbose {
		logger = core.NewConsoleLogger(zerolog.DebugLevel)
		log.Logger = logger
	}

	pool := core.NewPool(*workers, core.WithLogger(logger))
	defer func() {
		if err := pool.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "forkjoin-demo:", err)
		}
	}()

	switch *scenario {
	case "fib":
		result := core.SyncWait(pool, func(w *core.Worker) int64 {
			return fib(w, int64(*n))
		})
		fmt.Println(result)

	case "treesum":
		result := core.SyncWait(pool, func(w *core.Worker) int64 {
			return treeSum(w, *depth, *breadth)
		})
		fmt.Println(result)

	case "compress":
		if *inPath == "" || *outPath == "" {
			fmt.Fprintln(os.Stderr, "forkjoin-demo: -in and -out are required for compress")
			os.Exit(2)
		}
		if *blockSize > 0 {
			compress.SetBlockSizeBytes(uint32(*blockSize))
		}
		if err := compress.CompressFile(pool, *inPath, *outPath); err != nil {
			fmt.Fprintln(os.Stderr, "forkjoin-demo:", err)
			os.Exit(1)
		}

	case "decompress":
		if *inPath == "" || *outPath == "" {
			fmt.Fprintln(os.Stderr, "forkjoin-demo: -in and -out are required for decompress")
			os.Exit(2)
		}
		if err := compress.DecompressFile(pool, *inPath, *outPath); err != nil {
			fmt.Fprintln(os.Stderr, "forkjoin-demo:", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "forkjoin-demo: -scenario must be one of: fib, treesum, compress, decompress")
		os.Exit(2)
	}
}

// fib is the textbook fork/join stress test: recursive, branching, and
// cheap enough per call that scheduling overhead dominates unless the
// runtime's fast paths (own-deque pop, inline self-join) hold up.
func fib(w *core.Worker, n int64) int64 {
	if n < 2 {
		return n
	}

	var a, b int64
	core.Fork(w, &a, func(cw *core.Worker) int64 {
		return fib(cw, n-1)
	})
	core.Call(w, &b, func(cw *core.Worker) int64 {
		return fib(cw, n-2)
	})
	core.Join(w)

	return a + b
}

// treeSum builds and sums a depth/breadth tree, forking one child per
// branch via CoNew so the number of forks at each level is only known at
// runtime.
func treeSum(w *core.Worker, depth, breadth int) int64 {
	if depth <= 0 {
		return 1
	}

	results := core.CoNew[int64](w, breadth)
	for i := 0; i < breadth; i++ {
		i := i
		core.Fork(w, &results[i], func(cw *core.Worker) int64 {
			return treeSum(cw, depth-1, breadth)
		})
	}
	core.Join(w)

	var total int64
	for _, r := range results {
		total += r
	}
	return total
}
