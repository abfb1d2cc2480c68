package assurance

// Severity label yang dipakai di gap analysis
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// BenefitCategory enum
type BenefitCategory string

const (
	BenefitFinancial   BenefitCategory = "Financial"
	BenefitOperational BenefitCategory = "Operational"
	BenefitStrategic   BenefitCategory = "Strategic"
)

// GapAnalysisItem is one discrepancy or risk finding produced by the assessment.
type GapAnalysisItem struct {
	Area             string   `json:"area"`
	Observation      string   `json:"observation"`
	Finding          string   `json:"finding"`
	Severity         Severity `json:"severity"`
	Recommendation   string   `json:"recommendation"`
	LeadingQuestions []string `json:"leadingQuestions"`
}

// BenefitItem is one claimed business benefit with its baseline/target metrics.
type BenefitItem struct {
	Name                 string          `json:"name"`
	Category             BenefitCategory `json:"category"`
	Description          string          `json:"description"`
	Observation          string          `json:"observation"`
	Baseline             string          `json:"baseline"`
	Target               string          `json:"target"`
	Metric               string          `json:"metric"`
	TargetDate           string          `json:"targetDate"`
	Owner                string          `json:"owner"`
	FinancialValue       string          `json:"financialValue"`
	ReadinessScore       float64         `json:"readinessScore"`
	ChallengingQuestions []string        `json:"challengingQuestions"`
}

type CriticalQuestion struct {
	Question   string `json:"question"`
	Context    string `json:"context"`
	TargetRole string `json:"targetRole"`
}

type BenefitsSummary struct {
	TotalPlannedValue    string `json:"totalPlannedValue"`
	ProjectedAnnualValue string `json:"projectedAnnualValue"`
	BenefitsCount        int    `json:"benefitsCount"`
	RealizationOutlook   string `json:"realizationOutlook"`
}

type FrameworkAlignment struct {
	Framework      string  `json:"framework"`
	AlignmentScore float64 `json:"alignmentScore"`
	Notes          string  `json:"notes"`
}

type FinancialAssurance struct {
	BudgetStatus     string  `json:"budgetStatus"`
	VarianceAnalysis string  `json:"varianceAnalysis"`
	RiskScore        float64 `json:"riskScore"`
}

// AssuranceReport is produced wholesale by the assessment provider as one JSON
// document. Nothing beyond field access is enforced on it.
type AssuranceReport struct {
	OverallScore        float64            `json:"overallScore"`
	Summary             string             `json:"summary"`
	BenefitsSummary     BenefitsSummary    `json:"benefitsSummary"`
	GapAnalysis         []GapAnalysisItem  `json:"gapAnalysis"`
	BenefitsRealisation []BenefitItem      `json:"benefitsRealisation"`
	CriticalQuestions   []CriticalQuestion `json:"criticalQuestions"`
	FrameworkAlignment  FrameworkAlignment `json:"frameworkAlignment"`
	FinancialAssurance  FinancialAssurance `json:"financialAssurance"`
}

// SeverityCounts value object
type SeverityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

// Counts tallies gap items by severity. Anything outside the three labels is
// counted as Medium.
func (r *AssuranceReport) Counts() SeverityCounts {
	var c SeverityCounts
	for _, g := range r.GapAnalysis {
		switch NormalizeSeverity(string(g.Severity)) {
		case SeverityHigh:
			c.High++
		case SeverityLow:
			c.Low++
		default:
			c.Medium++
		}
		c.Total++
	}
	return c
}
