// flake 命令行：生成、解码雪花 ID，以及并发压测
//
//	flake generate -n 5 --node 7 --format base58
//	flake decode 1782349234810880 --epoch 2020-01-01T00:00:00Z
//	flake bench --workers 8 --count 1000000 --no-smoothing
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
