package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ceyewan/flake/idgen"
	"github.com/ceyewan/flake/xerrors"
)

func newDecodeCmd(root *rootOptions) *cobra.Command {
	var (
		epoch  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "decode <id>",
		Short: "Decode an ID into time, node and sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.close()

			if epoch == "" {
				epoch = a.cfg.IDGen.Epoch
			}
			epochTime := idgen.DefaultEpoch
			if epoch != "" {
				if epochTime, err = time.Parse(time.RFC3339Nano, epoch); err != nil {
					return xerrors.Wrapf(xerrors.ErrInvalidInput, "epoch %q: %v", epoch, err)
				}
			}

			id, err := idgen.ParseID(args[0], idgen.Format(format))
			if err != nil {
				return err
			}
			parts := idgen.DecodeWithEpoch(id, epochTime)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:        %d\n", id.Int64())
			fmt.Fprintf(out, "time:      %s\n", parts.Timestamp.Format(time.RFC3339Nano))
			fmt.Fprintf(out, "elapsed:   %dms\n", parts.Elapsed)
			fmt.Fprintf(out, "node:      %d\n", parts.NodeID)
			fmt.Fprintf(out, "sequence:  %d\n", parts.Sequence)
			return nil
		},
	}

	cmd.Flags().StringVar(&epoch, "epoch", "", "Epoch in RFC3339; defaults to idgen.epoch from config or 2020-01-01T00:00:00Z")
	cmd.Flags().StringVar(&format, "format", string(idgen.FormatInt), "Input format: int|base2|base32|base36|base58|base64")
	return cmd
}
