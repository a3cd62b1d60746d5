package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/graphstore"
)

var (
	convertFrom        string
	convertTo          string
	convertVertexCount int
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a plain edge-list file into an indexed graph store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if convertFrom != "edgelist" {
			return fmt.Errorf("unsupported --from %q (only edgelist is supported)", convertFrom)
		}
		if convertTo != "store" {
			return fmt.Errorf("unsupported --to %q (only store is supported)", convertTo)
		}
		if convertVertexCount <= 0 {
			return fmt.Errorf("--vertices must be set to the number of vertices in the input graph")
		}

		if err := graphstore.BuildFromEdgeListFile(args[0], args[1], convertVertexCount); err != nil {
			return err
		}

		GetLogger().Info("wrote indexed store %s from edge list %s (%d vertices)", args[1], args[0], convertVertexCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertFrom, "from", "edgelist", "Input format: edgelist")
	convertCmd.Flags().StringVar(&convertTo, "to", "store", "Output format: store")
	convertCmd.Flags().IntVar(&convertVertexCount, "vertices", 0, "Number of vertices in the input graph (ids must be dense in [0, vertices))")
	_ = convertCmd.MarkFlagRequired("vertices")
}
