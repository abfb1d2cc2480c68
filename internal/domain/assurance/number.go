package assurance

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// number is a score or count as the model writes it: 72, "72", "72.5%" or null.
// Strings that are not numbers decode as 0.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = 0
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if !strings.HasPrefix(raw, `"`) {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*n = number(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = number(f)
	return nil
}

func (b *BenefitItem) UnmarshalJSON(data []byte) error {
	type plain BenefitItem
	aux := struct {
		*plain
		ReadinessScore number `json:"readinessScore"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.ReadinessScore = float64(aux.ReadinessScore)
	return nil
}

func (s *BenefitsSummary) UnmarshalJSON(data []byte) error {
	type plain BenefitsSummary
	aux := struct {
		*plain
		BenefitsCount number `json:"benefitsCount"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.BenefitsCount = int(math.Round(float64(aux.BenefitsCount)))
	return nil
}

func (f *FrameworkAlignment) UnmarshalJSON(data []byte) error {
	type plain FrameworkAlignment
	aux := struct {
		*plain
		AlignmentScore number `json:"alignmentScore"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.AlignmentScore = float64(aux.AlignmentScore)
	return nil
}

func (f *FinancialAssurance) UnmarshalJSON(data []byte) error {
	type plain FinancialAssurance
	aux := struct {
		*plain
		RiskScore number `json:"riskScore"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.RiskScore = float64(aux.RiskScore)
	return nil
}

func (r *AssuranceReport) UnmarshalJSON(data []byte) error {
	type plain AssuranceReport
	aux := struct {
		*plain
		OverallScore number `json:"overallScore"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.OverallScore = float64(aux.OverallScore)
	return nil
}
