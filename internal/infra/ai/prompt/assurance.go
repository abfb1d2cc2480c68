package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

// PromptVersion identifies the template text below. Bump it whenever the wording changes.
const PromptVersion = "assurance-audit/2"

// MaxDocumentChars is the per-document content budget, in characters.
const MaxDocumentChars = 18000

// Truncate returns at most n characters (runes) of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// DocumentContext renders every artifact between delimiters, joined by a blank line.
func DocumentContext(docs []assurance.ProjectDocument) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf(
			"--- [ARTIFACT START] ---\nFILENAME: %s\nCATEGORY: %s\nCONTENT:\n%s\n--- [ARTIFACT END] ---",
			d.Name, d.Category, Truncate(d.Content, MaxDocumentChars),
		))
	}
	return strings.Join(parts, "\n\n")
}

// SystemInstruction provides the auditor persona and quality bar.
func SystemInstruction() string {
	return `You are a World-Class Senior Project Assurance Auditor and Enterprise Architect with 20+ years experience.
Your task is to perform a deterministic, rigorous evaluation of a project based on its artifacts.

CORE AUDIT PRINCIPLES:
1. EVIDENCE-BASED OBSERVATION: For every finding, provide a detailed observation of what you saw in the documents (cite specific sections, numbers, dates).
2. COMPREHENSIVE COVERAGE: Analyze ALL dimensions - Budget, Schedule, Requirements, Governance, Risks, Resources, Architecture, Benefits. Don't focus only on obvious gaps.
3. ROOT CAUSE ANALYSIS: Don't just identify gaps - explain WHY they exist and their upstream/downstream impacts.
4. CORRELATION MAPPING: Cross-reference all artifacts. If the Business Case promises a benefit not in Requirements or Architecture, mark as 'High' severity.
5. FINANCIAL FORENSICS: Analyze budget vs actual spend, cost allocation patterns, burn rate trends, contingency usage, and ROI projections.
6. BENEFITS CHAIN TRACING: For EVERY benefit mentioned in business case:
   - Classify as Financial (cost reduction/revenue increase), Operational (efficiency/quality), or Strategic (capability/positioning)
   - Extract baseline measurement, target measurement, and quantify financial impact
   - Identify benefit owner by name and role
   - Validate measurement approach and data source
   - Calculate total portfolio value and realization outlook
7. ARCHITECTURAL COHERENCE: Validate solution design against requirements, assess technical debt, scalability, and integration risks.
8. GOVERNANCE RIGOR: Assess decision rights, RACI clarity, escalation paths, and stakeholder engagement quality.
9. LEADING QUESTIONS: Generate probing questions that challenge assumptions and expose hidden risks. Target these to specific roles (PMO, CIO, CFO, Architect, Business Owner).

OUTPUT QUALITY STANDARDS:
- Generate 5-8 substantive findings covering multiple dimensions (not just one area)
- Be specific with numbers, dates, document names
- For benefits: ALWAYS quantify financial impact if possible, even as estimate
- Use industry frameworks (TOGAF, PRINCE2, PMBOK, COBIT) to ground assessments
- Avoid generic statements like "needs improvement" - quantify and cite evidence
- For High severity findings: explain immediate business impact and mitigation urgency
- Leading questions must be strategic, not tactical - designed to trigger deeper inquiry
- Respond with one JSON object only.`
}

const responseShape = `{
  "overallScore": number (0-100, weighted: 30% gaps + 30% benefits + 20% financial + 20% framework alignment),
  "summary": "2-3 paragraph executive summary highlighting: (1) overall project health, (2) top 3 risks, (3) readiness to proceed",
  "benefitsSummary": {
    "totalPlannedValue": "Total $ value of all quantified benefits (e.g., '$3.2M')",
    "projectedAnnualValue": "Expected annual recurring value (e.g., '$2.8M annually')",
    "benefitsCount": number of benefits identified,
    "realizationOutlook": "1-2 sentence assessment of whether benefits are achievable and well-defined"
  },
  "gapAnalysis": [
    {
      "area": "Budget & Cost Management | Schedule | Requirements | Governance | etc",
      "observation": "Start with the document source: 'Based on analysis of [Document Name], which shows [specific data/section]...' then explain the gap, citing document names, sections, amounts and dates",
      "finding": "Clear statement of what is missing, misaligned, or at risk",
      "severity": "High|Medium|Low",
      "recommendation": "Specific, actionable remediation step with owner and timeline",
      "leadingQuestions": ["Strategic question for PMO/Sponsor", "Architectural question for Tech Lead", "Financial question for CFO"]
    }
  ],
  "benefitsRealisation": [
    {
      "name": "Specific benefit title from business case",
      "category": "Financial | Operational | Strategic",
      "description": "What this benefit delivers to the business",
      "baseline": "Current state measurement",
      "target": "Target state measurement",
      "observation": "Evidence of how this benefit is tracked/justified in the business case and supporting docs",
      "owner": "Name and role of benefit owner",
      "financialValue": "Quantified $ value if financial benefit, 'Not quantified' otherwise",
      "metric": "Specific KPI measurement method",
      "targetDate": "Expected realization date (YYYY-MM-DD)",
      "readinessScore": number (0-100, based on: clarity of metric, owner assigned, baseline documented, tracking mechanism defined),
      "challengingQuestions": ["Who owns this benefit post-go-live and how is accountability enforced?", "What happens if baseline assumptions prove incorrect?"]
    }
  ],
  "criticalQuestions": [
    {
      "question": "Deep, strategic question exposing risk or assumption",
      "context": "Why this question matters - what evidence triggered it",
      "targetRole": "PMO Director | CIO | CFO | Solution Architect | Business Owner"
    }
  ],
  "frameworkAlignment": {
    "framework": "PRINCE2 | PMBOK | TOGAF | Agile/SAFe | MSP (based on doc structure)",
    "alignmentScore": number (0-100),
    "notes": "Specific gaps in framework compliance"
  },
  "financialAssurance": {
    "budgetStatus": "Total budget, spent to date, committed, forecast at completion, variance %, contingency burn",
    "varianceAnalysis": "Root cause analysis of any variance >10% with impact assessment",
    "riskScore": number (0-100, lower is better)
  }
}`

const coverageRequirements = `CRITICAL REQUIREMENTS:
1. COMPREHENSIVE COVERAGE: Generate findings across ALL these dimensions (minimum 5-8 findings total):
   - Budget & Cost Management (variance, contingency, forecast accuracy)
   - Schedule & Milestones (critical path, dependencies, delays)
   - Requirements & Scope (traceability, completeness, creep)
   - Governance & Reporting (decision rights, RACI, escalation)
   - Risk & Issue Management (register quality, mitigation plans, monitoring)
   - Resource Allocation (skill gaps, capacity, utilization)
   - Solution Architecture (technical debt, scalability, integration)
   - Benefits Realisation (ownership, measurement, tracking)
2. HOLISTIC ANALYSIS: acknowledge strengths, flag critical gaps (High), medium-term improvements (Medium) and optimisation opportunities (Low).
3. DOCUMENT CITATIONS: Every finding MUST cite specific documents, sections, and data points.
4. Focus on 5-8 most important findings with substantive detail to ensure complete, valid JSON output.`

// UserPrompt builds the assessment request for one project.
func UserPrompt(p assurance.ProjectData) string {
	focus := make([]string, 0, len(p.FocusAreas))
	for _, f := range p.FocusAreas {
		focus = append(focus, string(f))
	}

	var sb strings.Builder
	sb.WriteString("Perform a comprehensive Project Assurance Assessment for:\n\n")
	sb.WriteString("PROJECT CONTEXT:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", p.Name)
	fmt.Fprintf(&sb, "- ID: %s\n", p.Number)
	fmt.Fprintf(&sb, "- Current Phase: %s\n", p.Stage)
	fmt.Fprintf(&sb, "- Audit Focus: %s\n\n", strings.Join(focus, ", "))
	sb.WriteString("ARTIFACTS TO ANALYZE:\n")
	sb.WriteString(DocumentContext(p.Documents))
	sb.WriteString("\n\nReturn a JSON object with this EXACT structure (populate ALL fields with substantive content):\n")
	sb.WriteString(responseShape)
	sb.WriteString("\n\n")
	sb.WriteString(coverageRequirements)
	return sb.String()
}
