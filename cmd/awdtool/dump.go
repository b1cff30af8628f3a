package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

// dumpConfig prints blocks without pointer addresses so output is stable.
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
	MaxDepth:                6,
}

func newDumpCmd(a *app) *cobra.Command {
	block := -1
	cmd := &cobra.Command{
		Use:   "dump <file.awd>",
		Short: "Dump decoded blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, _, err := a.load(args[0])
			if err != nil {
				return err
			}
			if block >= 0 {
				if block >= len(doc.Blocks) {
					return fmt.Errorf("block %d out of range (document has %d)", block, len(doc.Blocks))
				}
				dumpConfig.Fdump(a.out, doc.Blocks[block])
				return nil
			}
			for i, b := range doc.Blocks {
				fmt.Fprintln(a.out, styleTitle.Render(fmt.Sprintf("#%d %s %q", i, b.Kind(), b.BlockName())))
				dumpConfig.Fdump(a.out, b)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&block, "block", -1, "Dump only the block at this index")
	return cmd
}
