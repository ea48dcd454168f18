package services

import (
	"cmp"
	"slices"
)

// Technical evaluation statuses. Award is gated on StatusReviewComplete.
const (
	StatusDraft          = "draft"
	StatusInReview       = "in_review"
	StatusReviewComplete = "review_complete"
)

// Contractor is the minimal contractor identity rankings need.
type Contractor struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// Breakdown is one weighted criterion. Weight is a percentage.
type Breakdown struct {
	ID     string  `json:"id" validate:"required"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight" validate:"gte=0,lte=100"`
}

// Scope groups breakdowns. Weights within a scope set are expected to sum
// to 100; ranking does not enforce it.
type Scope struct {
	ID         string      `json:"id" validate:"required"`
	Name       string      `json:"name"`
	Breakdowns []Breakdown `json:"breakdowns" validate:"dive"`
}

// TechnicalEvaluation is one technical round of a package.
type TechnicalEvaluation struct {
	RoundNumber       int                           `json:"roundNumber"`
	Status            string                        `json:"status"`
	Scopes            []Scope                       `json:"scopes" validate:"dive"`
	Scores            map[string]map[string]float64 `json:"scores"` // contractor id -> breakdown id -> raw score
	ProposalsUploaded []string                      `json:"proposalsUploaded"`
}

// ReviewComplete reports whether the round may gate an award.
func (te *TechnicalEvaluation) ReviewComplete() bool {
	return te != nil && te.Status == StatusReviewComplete
}

// TechnicalRank is one leaderboard row; higher scores are better.
type TechnicalRank struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Grade string  `json:"grade"`
}

// RankTechnical scores every contractor that uploaded a proposal as
// Σ raw × weight / 100 across all scope breakdowns, highest first. A
// missing score counts as 0. A nil evaluation yields an empty list.
func RankTechnical(eval *TechnicalEvaluation, contractors []Contractor) []TechnicalRank {
	out := []TechnicalRank{}
	if eval == nil {
		return out
	}
	uploaded := make(map[string]bool, len(eval.ProposalsUploaded))
	for _, id := range eval.ProposalsUploaded {
		uploaded[id] = true
	}

	for _, c := range contractors {
		if !uploaded[c.ID] {
			continue
		}
		raw := eval.Scores[c.ID]
		var score float64
		for _, s := range eval.Scopes {
			for _, bd := range s.Breakdowns {
				score += raw[bd.ID] * bd.Weight / 100
			}
		}
		out = append(out, TechnicalRank{ID: c.ID, Name: c.Name, Score: score, Grade: Grade(score)})
	}

	slices.SortStableFunc(out, func(a, b TechnicalRank) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// Grade buckets a weighted technical score.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

// WeightTotals returns the weight sum of each scope, keyed by scope id.
func WeightTotals(scopes []Scope) map[string]float64 {
	out := make(map[string]float64, len(scopes))
	for _, s := range scopes {
		var sum float64
		for _, bd := range s.Breakdowns {
			sum += bd.Weight
		}
		out[s.ID] = sum
	}
	return out
}

// ContractorTotal is one contractor's total in a commercial round.
type ContractorTotal struct {
	ContractorID   string  `json:"contractorId"`
	ContractorName string  `json:"contractorName"`
	TotalAmount    float64 `json:"totalAmount"`
}

// CommercialRound is one evaluation round of an asset.
type CommercialRound struct {
	RoundNumber int               `json:"roundNumber"`
	Totals      []ContractorTotal `json:"totals"`
}

// AssetCommercial holds every round evaluated for one asset.
type AssetCommercial struct {
	AssetID   string            `json:"assetId"`
	AssetName string            `json:"assetName"`
	Rounds    []CommercialRound `json:"rounds"`
}

// CommercialSummary covers all assets of a package.
type CommercialSummary struct {
	Assets []AssetCommercial `json:"assets"`
}

// CommercialRank is one leaderboard row; lower totals are better.
type CommercialRank struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// LatestRound returns the round with the highest number.
func (a AssetCommercial) LatestRound() (CommercialRound, bool) {
	if len(a.Rounds) == 0 {
		return CommercialRound{}, false
	}
	latest := a.Rounds[0]
	for _, r := range a.Rounds[1:] {
		if r.RoundNumber > latest.RoundNumber {
			latest = r
		}
	}
	return latest, true
}

// RankCommercial sums each contractor's total over the latest round of
// every asset, lowest first. Contractors missing from an asset contribute
// nothing for it. A nil summary yields an empty list.
func RankCommercial(summary *CommercialSummary) []CommercialRank {
	out := []CommercialRank{}
	if summary == nil {
		return out
	}
	idx := make(map[string]int)
	var totals [][]float64
	for _, asset := range summary.Assets {
		round, ok := asset.LatestRound()
		if !ok {
			continue
		}
		for _, t := range round.Totals {
			i, seen := idx[t.ContractorID]
			if !seen {
				i = len(out)
				idx[t.ContractorID] = i
				out = append(out, CommercialRank{ID: t.ContractorID, Name: t.ContractorName})
				totals = append(totals, nil)
			}
			totals[i] = append(totals[i], t.TotalAmount)
		}
	}
	for i := range out {
		out[i].Total = SumCents(totals[i])
	}

	slices.SortStableFunc(out, func(a, b CommercialRank) int {
		return cmp.Compare(a.Total, b.Total)
	})
	return out
}

// EligibleForAward returns the contractors present in both rankings, in
// commercial order. Nothing is eligible until the latest technical round
// is review-complete.
func EligibleForAward(technical []TechnicalRank, commercial []CommercialRank, reviewComplete bool) []CommercialRank {
	out := []CommercialRank{}
	if !reviewComplete {
		return out
	}
	scored := make(map[string]bool, len(technical))
	for _, t := range technical {
		scored[t.ID] = true
	}
	for _, c := range commercial {
		if scored[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
