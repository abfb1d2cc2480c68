package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "", Truncate("ab", 0))
	// counts characters, not bytes
	assert.Equal(t, "héé", Truncate("hééllo", 3))
}

func TestDocumentContext_CapsEachDocument(t *testing.T) {
	long := strings.Repeat("x", MaxDocumentChars+500)
	docs := []assurance.ProjectDocument{
		{Name: "Business_Case_v2.txt", Category: "Business Case", Content: long},
		{Name: "Project_Budget_Sheet.csv", Category: "Budget", Content: "Total Cost,$1350000"},
	}

	out := DocumentContext(docs)

	parts := strings.Split(out, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, MaxDocumentChars, strings.Count(parts[0], "x"))
	assert.True(t, strings.HasPrefix(parts[0], "--- [ARTIFACT START] ---\nFILENAME: Business_Case_v2.txt\nCATEGORY: Business Case\nCONTENT:\n"))
	assert.True(t, strings.HasSuffix(parts[1], "Total Cost,$1350000\n--- [ARTIFACT END] ---"))
}

func TestDocumentContext_MultibyteCap(t *testing.T) {
	long := strings.Repeat("é", MaxDocumentChars+1)
	out := DocumentContext([]assurance.ProjectDocument{{Name: "a", Category: "Other", Content: long}})
	assert.Equal(t, MaxDocumentChars, strings.Count(out, "é"))
}

func TestUserPrompt(t *testing.T) {
	p := assurance.ProjectData{
		Name:       "GRC Transformation",
		Number:     "PRJ-042",
		Stage:      assurance.StageExecution,
		FocusAreas: []assurance.FocusArea{assurance.FocusBudget, assurance.FocusBenefits},
		Documents:  []assurance.ProjectDocument{{Name: "b.csv", Category: "Budget", Content: "Total Cost,$1350000"}},
	}

	out := UserPrompt(p)

	assert.Contains(t, out, "- Name: GRC Transformation\n")
	assert.Contains(t, out, "- ID: PRJ-042\n")
	assert.Contains(t, out, "- Current Phase: Execution\n")
	assert.Contains(t, out, "- Audit Focus: Budget & Cost Management, Benefits Realisation\n")
	assert.Contains(t, out, "FILENAME: b.csv")
	for _, field := range []string{"overallScore", "benefitsSummary", "gapAnalysis", "benefitsRealisation", "criticalQuestions", "frameworkAlignment", "financialAssurance", "leadingQuestions", "readinessScore"} {
		assert.Contains(t, out, `"`+field+`"`)
	}
}

func TestSystemInstructionIsStatic(t *testing.T) {
	assert.Equal(t, SystemInstruction(), SystemInstruction())
	assert.Contains(t, SystemInstruction(), "CORRELATION MAPPING")
}
