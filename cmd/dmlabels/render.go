package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dmlabels/internal/normalize"
	"dmlabels/internal/pipeline"
	u "dmlabels/internal/utils"
)

type renderOptions struct {
	in          string
	out         string
	preview     string
	size        string
	paper       string
	orientation string
	margin      string
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a serial list file to a PDF without starting the server",
		Example: `  dmlabels render --in serials.txt --size large --out labels.pdf
  cat serials.txt | dmlabels render --in - --out labels.pdf --preview preview.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.in, "in", "i", "", "serial list, one per line (\"-\" reads stdin)")
	f.StringVarP(&opts.out, "out", "o", "labels.pdf", "output PDF path")
	f.StringVarP(&opts.preview, "preview", "p", "", "optional preview PNG path")
	f.StringVarP(&opts.size, "size", "s", "", "size class: small, medium or large (default medium)")
	f.StringVar(&opts.paper, "paper", "", "paper size name from the config (default pdf.default_paper)")
	f.StringVar(&opts.orientation, "orientation", "", "portrait or landscape")
	f.StringVar(&opts.margin, "margin", "", "page margin in inches")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	cfg := u.LoadConfig()
	u.SetLogLevel(cfg.Logger.Level)

	data, err := readInput(opts.in, cmd.InOrStdin())
	if err != nil {
		return err
	}
	text, err := normalize.Source(data, true, "")
	if err != nil {
		return err
	}

	conv := pipeline.New(pipeline.ConfigFrom(cfg))
	res, err := conv.Convert(cmd.Context(), pipeline.Request{
		Text: text,
		Size: opts.size,
		Page: pipeline.PageParams{
			Paper:       opts.paper,
			Orientation: opts.orientation,
			Margin:      opts.margin,
		},
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.out, res.PDF(), 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	if opts.preview != "" {
		if err := os.WriteFile(opts.preview, res.PreviewPNG(), 0o644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d labels (%s) on %d page(s) -> %s\n",
		len(res.Symbols), res.Size, res.Pages(), opts.out)
	return nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read serials: %w", err)
	}
	return data, nil
}
