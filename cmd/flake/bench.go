package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/idgen"
	"github.com/ceyewan/flake/xerrors"
)

// benchOptions bench 子命令参数
type benchOptions struct {
	workers     int
	count       int
	rate        float64
	node        int64
	noSmoothing bool
}

// benchResult 一次压测的统计
type benchResult struct {
	Generated int
	Unique    int
	Elapsed   time.Duration
}

// errDuplicateIDs 压测中出现重复 ID
var errDuplicateIDs = xerrors.WithCode(xerrors.New("duplicate ids generated"), "duplicate_ids")

func (r benchResult) verify() error {
	if r.Unique != r.Generated {
		return xerrors.Wrapf(errDuplicateIDs, "found %d duplicate ids in %d", r.Generated-r.Unique, r.Generated)
	}
	return nil
}

func (r benchResult) throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Generated) / r.Elapsed.Seconds()
}

func newBenchCmd(root *rootOptions) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Generate IDs concurrently, verify uniqueness and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.workers < 1 || opts.count < 1 {
				return xerrors.Wrapf(xerrors.ErrInvalidInput, "workers=%d count=%d", opts.workers, opts.count)
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.close()

			gen, err := a.newGenerator(ctx, generatorFlags{
				nodeID:      opts.node,
				nodeIDSet:   cmd.Flags().Changed("node"),
				noSmoothing: opts.noSmoothing,
			})
			if err != nil {
				return err
			}

			a.logger.Info("bench started",
				clog.Int("workers", opts.workers),
				clog.Int("count", opts.count),
				clog.Float64("rate", opts.rate),
				clog.Bool("smoothing", !opts.noSmoothing),
			)
			res, err := runBench(ctx, gen, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "generated:  %d\n", res.Generated)
			fmt.Fprintf(out, "unique:     %d\n", res.Unique)
			fmt.Fprintf(out, "elapsed:    %s\n", res.Elapsed.Round(time.Microsecond))
			fmt.Fprintf(out, "throughput: %.0f ids/s\n", res.throughput())
			return res.verify()
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", runtime.GOMAXPROCS(0), "Concurrent goroutines")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1_000_000, "Total IDs to generate")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "Limit to this many IDs per second across all workers; 0 means unlimited")
	cmd.Flags().Int64Var(&opts.node, "node", 0, "Node id [0, 1023]; overrides config and allocator")
	cmd.Flags().BoolVar(&opts.noSmoothing, "no-smoothing", false, "Disable overload smoothing")
	return cmd
}

// runBench 各 worker 写入自己的切片，结束后统一去重
func runBench(ctx context.Context, gen *idgen.Snowflake, opts *benchOptions) (benchResult, error) {
	var limiter *rate.Limiter
	if opts.rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.rate), opts.workers)
	}

	results := make([][]idgen.ID, opts.workers)
	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()

	for w := 0; w < opts.workers; w++ {
		n := opts.count / opts.workers
		if w < opts.count%opts.workers {
			n++
		}
		g.Go(func() error {
			ids := make([]idgen.ID, 0, n)
			for i := 0; i < n; i++ {
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						return err
					}
				}
				id, err := gen.Next(gctx)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			results[w] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return benchResult{}, err
	}
	elapsed := time.Since(start)

	seen := make(map[idgen.ID]struct{}, opts.count)
	generated := 0
	for _, ids := range results {
		generated += len(ids)
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	return benchResult{Generated: generated, Unique: len(seen), Elapsed: elapsed}, nil
}
