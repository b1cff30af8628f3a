package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Faultbox/awdkit/pkg/awd"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.awd>",
		Short: "Show header, block counts and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, warnings, err := a.load(args[0])
			if err != nil {
				return err
			}
			a.printInfo(args[0], doc, warnings)
			return nil
		},
	}
}

func (a *app) printInfo(path string, doc *awd.Document, warnings awd.Warnings) {
	indices := "narrow (16-bit)"
	if doc.Header.WideIndices {
		indices = "wide (32-bit)"
	}
	fmt.Fprintln(a.out, styleTitle.Render(path))
	fmt.Fprintf(a.out, "%s %s\n", styleLabel.Render("version:    "), doc.Header.Version)
	fmt.Fprintf(a.out, "%s %s\n", styleLabel.Render("compression:"), doc.Header.Compression)
	fmt.Fprintf(a.out, "%s %s\n", styleLabel.Render("indices:    "), indices)
	fmt.Fprintf(a.out, "%s %d\n", styleLabel.Render("blocks:     "), len(doc.Blocks))

	counts := doc.CountByKind()
	kinds := make([]awd.BlockKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(a.out, "  %-14s %d\n", k, counts[k])
	}
	if lo, hi, ok := doc.Bounds(); ok {
		fmt.Fprintf(a.out, "%s (%g, %g, %g) .. (%g, %g, %g)\n", styleLabel.Render("bounds:     "),
			lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
	}

	fmt.Fprintf(a.out, "%s %d\n", styleLabel.Render("warnings:   "), len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(a.out, "  %s\n", styleWarning.Render(w.String()))
	}
}
