package riskmatrix

import (
	"fmt"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

type Count struct {
	Label      string
	Count      int
	Percentage string
}

// Summary is the dashboard sheet content.
type Summary struct {
	OverallScore         float64
	RiskDistribution     []Count
	RisksByCategory      []Count
	ControlEffectiveness []Count
	TotalRisks           int
	TotalControls        int
	OpenActions          int
	ControlsToImplement  int
}

// Percent formats part/total with one decimal. A zero total gives "0.0%".
func Percent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}

func Summarize(r *assurance.AssuranceReport, risks []RiskMatrixRow, controls []ControlMatrixRow) Summary {
	s := Summary{
		OverallScore:  r.OverallScore,
		TotalRisks:    len(risks),
		TotalControls: len(controls),
	}

	byRating := map[string]int{}
	byCategory := map[string]int{}
	var categories []string
	for _, row := range risks {
		byRating[row.RiskRating]++
		if _, seen := byCategory[row.RiskCategory]; !seen {
			categories = append(categories, row.RiskCategory)
		}
		byCategory[row.RiskCategory]++
		if row.Status == statusOpen {
			s.OpenActions++
		}
	}
	for _, level := range []string{"Critical", "High", "Medium", "Low"} {
		s.RiskDistribution = append(s.RiskDistribution, Count{level, byRating[level], Percent(byRating[level], len(risks))})
	}
	for _, c := range categories {
		s.RisksByCategory = append(s.RisksByCategory, Count{Label: c, Count: byCategory[c]})
	}

	byEff := map[string]int{}
	for _, c := range controls {
		byEff[c.Effectiveness]++
		if c.Status == statusToImplement {
			s.ControlsToImplement++
		}
	}
	for _, level := range []string{"Effective", "Generally Effective", "Partially Effective", "Ineffective"} {
		s.ControlEffectiveness = append(s.ControlEffectiveness, Count{level, byEff[level], Percent(byEff[level], len(controls))})
	}
	return s
}
