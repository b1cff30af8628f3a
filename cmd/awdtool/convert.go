package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/awdkit/internal/config"
	"github.com/Faultbox/awdkit/internal/logger"
	"github.com/Faultbox/awdkit/pkg/awd"
	"github.com/Faultbox/awdkit/pkg/math"
)

func newConvertCmd(a *app) *cobra.Command {
	var transform string
	cmd := &cobra.Command{
		Use:   "convert <in.awd> <out.awd>",
		Short: "Re-encode a file with different settings",
		Long: "Decode a file and write it again with the configured compression, index width\n" +
			"and matrix precision. --transform applies constructors such as\n" +
			"\"translate:0,1,0;rotate_y:1.57\" to every root node.\n\n" +
			"Constructors (angles in radians):\n" + constructorUsage(),
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, _, err := a.load(args[0])
			if err != nil {
				return err
			}
			if transform != "" {
				m, err := math.ParseConstructor(transform)
				if err != nil {
					return fmt.Errorf("--transform: %w", err)
				}
				applyRootTransform(doc, m)
			}
			opts, err := a.cfg.EncodeOptions()
			if err != nil {
				return err
			}
			if err := awd.WriteFile(args[1], doc, opts...); err != nil {
				return err
			}
			compression := a.cfg.Encode.Compression
			if compression == "" {
				compression = doc.Header.Compression.String()
			}
			logger.Info("converted",
				zap.String("from", args[0]),
				zap.String("to", args[1]),
				zap.String("compression", compression),
				zap.Int("blocks", len(doc.Blocks)))
			fmt.Fprintf(a.out, "%s %s -> %s\n", styleSuccess.Render("converted"), args[0], args[1])
			return nil
		},
	}
	config.BindEncodeFlags(cmd.Flags())
	cmd.Flags().StringVar(&transform, "transform", "", "Transform applied to root nodes, e.g. scale:2,2,2;translate:0,1,0")
	return cmd
}

// applyRootTransform pre-multiplies every root node's transform by m.
func applyRootTransform(doc *awd.Document, m math.Mat4) {
	for _, root := range doc.Roots() {
		root.Transform = m.Mul(root.Transform)
	}
}

func constructorUsage() string {
	var b strings.Builder
	for _, name := range math.ConstructorNames() {
		fmt.Fprintf(&b, "  %s\n", math.Constructors[name].Usage)
	}
	return b.String()
}
