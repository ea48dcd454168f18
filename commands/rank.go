package commands

import (
	"github.com/spf13/cobra"

	"tendereval/services"
)

type rankOptions struct {
	technical, contractors, commercial, out string
}

type rankOutput struct {
	ReviewComplete bool                      `json:"reviewComplete"`
	Technical      []services.TechnicalRank  `json:"technical"`
	Commercial     []services.CommercialRank `json:"commercial"`
	Eligible       []services.CommercialRank `json:"eligible"`
	WeightTotals   map[string]float64        `json:"weightTotals"`
}

// NewRankCmd builds the rank subcommand.
func NewRankCmd() *cobra.Command {
	opts := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank contractors on technical scores and commercial totals",
		Long: "Scores every contractor that uploaded a proposal in a technical round and, " +
			"given a commercial summary, ranks normalized totals and lists who is eligible for award.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRank(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.technical, "technical", "t", "", "Path to the technical evaluation JSON file (required)")
	f.StringVarP(&opts.contractors, "contractors", "c", "", "Path to the contractors JSON file (required)")
	f.StringVar(&opts.commercial, "commercial", "", "Path to a commercial summary JSON file")
	f.StringVarP(&opts.out, "out", "o", "", "Write the result to this file instead of stdout")
	markRequired(cmd, "technical", "contractors")
	return cmd
}

func runRank(cmd *cobra.Command, opts *rankOptions) error {
	var te services.TechnicalEvaluation
	if err := readJSON(opts.technical, &te); err != nil {
		return err
	}
	if err := services.ValidateTechnical(&te); err != nil {
		return err
	}

	var contractors []services.Contractor
	if err := readJSON(opts.contractors, &contractors); err != nil {
		return err
	}

	var summary *services.CommercialSummary
	if opts.commercial != "" {
		summary = &services.CommercialSummary{}
		if err := readJSON(opts.commercial, summary); err != nil {
			return err
		}
	}

	out := rankOutput{
		ReviewComplete: te.ReviewComplete(),
		Technical:      services.RankTechnical(&te, contractors),
		Commercial:     services.RankCommercial(summary),
		WeightTotals:   services.WeightTotals(te.Scopes),
	}
	out.Eligible = services.EligibleForAward(out.Technical, out.Commercial, out.ReviewComplete)
	return writeJSON(cmd.OutOrStdout(), opts.out, out)
}
