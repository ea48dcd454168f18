package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tendereval/services"
)

type normalizeOptions struct {
	boq, bids, overrides, out string
	algorithm                 string
	unpriced, arithmetic      bool
	raw                       bool
}

type normalizeOutput struct {
	Settings  services.NormalizationSettings `json:"settings"`
	ItemCount int                            `json:"itemCount"`
	Bids      any                            `json:"bids"`
	Totals    []services.ContractorTotal     `json:"totals"`
	Lowest    *services.ContractorTotal      `json:"lowest"`
	Issues    []services.CellIssue           `json:"issues"`
}

// NewNormalizeCmd builds the normalize subcommand.
func NewNormalizeCmd() *cobra.Command {
	opts := &normalizeOptions{}
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize contractor bids against a BOQ",
		Long: "Reads a BOQ tree and contractor bids from JSON files, fills unpriced and " +
			"arithmetic-error items and prints the normalized bids, lowest total first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNormalize(cmd, opts)
		},
	}

	d := services.DefaultSettings()
	f := cmd.Flags()
	f.StringVarP(&opts.boq, "boq", "b", "", "Path to the BOQ JSON file (required)")
	f.StringVar(&opts.bids, "bids", "", "Path to the bids JSON file (required)")
	f.StringVar(&opts.overrides, "overrides", "", `Path to a JSON object of "<contractorId>-<itemId>": price overrides`)
	f.StringVarP(&opts.out, "out", "o", "", "Write the result to this file instead of stdout")
	f.StringVarP(&opts.algorithm, "algorithm", "a", string(d.Algorithm), "Fill algorithm: median or lowest")
	f.BoolVar(&opts.unpriced, "normalize-unpriced", d.NormalizeUnpriced, "Fill unpriced items")
	f.BoolVar(&opts.arithmetic, "normalize-arithmetic-errors", d.NormalizeArithmeticErrors, "Fill items with arithmetic errors")
	f.BoolVar(&opts.raw, "raw", false, "Print bids in the stored wire shape instead of per-line detail")
	markRequired(cmd, "boq", "bids")
	return cmd
}

func runNormalize(cmd *cobra.Command, opts *normalizeOptions) error {
	settings := services.NormalizationSettings{
		NormalizeUnpriced:         opts.unpriced,
		NormalizeArithmeticErrors: opts.arithmetic,
		Algorithm:                 services.Algorithm(opts.algorithm),
	}
	if err := services.ValidateSettings(settings); err != nil {
		return err
	}

	boqData, err := os.ReadFile(opts.boq)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.boq, err)
	}
	boq, err := services.DecodeBOQ(boqData)
	if err != nil {
		return fmt.Errorf("boq: %w", err)
	}

	var raws []services.ContractorBid
	if err := readJSON(opts.bids, &raws); err != nil {
		return err
	}

	overrides := services.Overrides{}
	if opts.overrides != "" {
		var rawOverrides map[string]any
		if err := readJSON(opts.overrides, &rawOverrides); err != nil {
			return err
		}
		ids := make([]string, len(raws))
		for i, r := range raws {
			ids[i] = r.ContractorID
		}
		overrides, err = services.ParseOverrides(rawOverrides, ids, services.FlattenItemIDs(boq))
		if err != nil {
			return fmt.Errorf("overrides: %w", err)
		}
	}

	cmp, err := services.BuildComparison(boq, raws, settings, overrides)
	if err != nil {
		return fmt.Errorf("bids: %w", err)
	}
	out := normalizeOutput{
		Settings:  settings,
		ItemCount: boq.ItemCount(),
		Bids:      cmp.Bids,
		Totals:    cmp.Totals(),
		Issues:    cmp.Issues,
	}
	if lowest, ok := cmp.LowestBidder(); ok {
		out.Lowest = &services.ContractorTotal{
			ContractorID:   lowest.ContractorID,
			ContractorName: lowest.ContractorName,
			TotalAmount:    lowest.TotalAmount,
		}
	}
	if opts.raw {
		wire := make([]services.ContractorBid, len(cmp.Bids))
		for i, b := range cmp.Bids {
			wire[i] = b.Raw()
		}
		out.Bids = wire
	}
	return writeJSON(cmd.OutOrStdout(), opts.out, out)
}
