package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ceyewan/flake/idgen"
	"github.com/ceyewan/flake/xerrors"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		count  int
		node   int64
		epoch  string
		format string
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate snowflake IDs, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return xerrors.Wrapf(xerrors.ErrInvalidInput, "-n must be positive, got %d", count)
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.close()

			gen, err := a.newGenerator(ctx, generatorFlags{
				nodeID:    node,
				nodeIDSet: cmd.Flags().Changed("node"),
				epoch:     epoch,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				id, err := gen.Next(ctx)
				if err != nil {
					return err
				}
				s, err := id.Encode(idgen.Format(format))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of IDs to generate")
	cmd.Flags().Int64Var(&node, "node", 0, "Node id [0, 1023]; overrides config and allocator")
	cmd.Flags().StringVar(&epoch, "epoch", "", "Epoch in RFC3339 (default 2020-01-01T00:00:00Z)")
	cmd.Flags().StringVar(&format, "format", string(idgen.FormatInt), "Output format: int|base2|base32|base36|base58|base64")
	return cmd
}
