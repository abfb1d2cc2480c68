package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

func TestCategorize(t *testing.T) {
	cases := map[string]string{
		"Business_Case_v2.txt":            assurance.CategoryBusinessCase,
		"Solution_Architecture_Draft.txt": assurance.CategoryArchitecture,
		"Project_Budget_Sheet.csv":        assurance.CategoryBudget,
		"COST-breakdown.xlsx":             assurance.CategoryBudget,
		"requirements_matrix.docx":        assurance.CategoryRequirement,
		"req_budget.txt":                  assurance.CategoryRequirement,
		"design-notes.md":                 assurance.CategoryArchitecture,
		"delivery-schedule.csv":           assurance.CategoryPlan,
		"RISK_log.txt":                    assurance.CategoryRiskRegister,
		"weekly-status.txt":               assurance.CategoryStatusReport,
		"minutes.txt":                     assurance.CategoryOther,
	}
	for name, want := range cases {
		assert.Equal(t, want, Categorize(name), name)
	}
}

func TestCategorize_BudgetUnlessEarlierRule(t *testing.T) {
	for _, name := range []string{"budget.txt", "BUDGET.TXT", "Q3 Cost Report.txt", "xcostx"} {
		assert.Equal(t, assurance.CategoryBudget, Categorize(name), name)
	}
	// "case" comes before "budget" in rule order
	assert.Equal(t, assurance.CategoryBusinessCase, Categorize("budget_case.txt"))
	assert.Equal(t, assurance.CategoryArchitecture, Categorize("arch_cost.txt"))
}

func TestRead_PlainText(t *testing.T) {
	doc, err := Ingestor{}.Read(File{Name: "Project_Budget_Sheet.csv", ContentType: "text/csv", Body: strings.NewReader("Item,Cost\nTotal Cost,$1350000")})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Project_Budget_Sheet.csv", doc.Name)
	assert.Equal(t, "text/csv", doc.Type)
	assert.Equal(t, "Budget", doc.Category)
	assert.Equal(t, "29 B", doc.Size)
	assert.Contains(t, doc.Content, "$1350000")
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{29, "29 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1229, "1.2 KB"},
		{1587, "1.5 KB"},
		{1600, "1.6 KB"},
		{10 << 20, "10 MB"},
		{3 << 30, "3 GB"},
		{5 << 40, "5120 GB"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatSize(c.n), "%d bytes", c.n)
	}
}

func TestRead_HTMLStripsMarkup(t *testing.T) {
	body := `<html><head><style>p{}</style><script>alert(1)</script></head><body><h1>Status</h1><p>Amber on schedule</p></body></html>`
	doc, err := Ingestor{}.Read(File{Name: "status.html", Body: strings.NewReader(body)})
	require.NoError(t, err)

	assert.Equal(t, "text/html", doc.Type)
	assert.Equal(t, "Status\nAmber on schedule", doc.Content)
	assert.Equal(t, assurance.CategoryStatusReport, doc.Category)
}

func TestRead_TooLarge(t *testing.T) {
	_, err := Ingestor{MaxBytes: 4}.Read(File{Name: "big.txt", Body: strings.NewReader("12345")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "big.txt")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestReadAll_StopsOnUnreadable(t *testing.T) {
	files := []File{
		{Name: "a.txt", Body: strings.NewReader("ok")},
		{Name: "b.txt", Body: failingReader{}},
	}
	_, err := Ingestor{}.ReadAll(context.Background(), files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read b.txt")
	assert.Contains(t, err.Error(), "disk gone")
}

func TestRead_InvalidUTF8(t *testing.T) {
	doc, err := Ingestor{}.Read(File{Name: "x.txt", Body: strings.NewReader("ok\xff")})
	require.NoError(t, err)
	assert.Equal(t, "ok�", doc.Content)
}
