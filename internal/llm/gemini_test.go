package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanModelJSON(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare array", `[{"category":"Food"}]`, `[{"category":"Food"}]`},
		{"fenced", "```json\n[{\"category\":\"Food\"}]\n```", `[{"category":"Food"}]`},
		{"fenced no lang", "```\n[]\n```", `[]`},
		{"prose around array", "Here you go:\n[1, 2]\nHope that helps!", `[1, 2]`},
		{"leading whitespace", "  \n\t[]", `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, cleanModelJSON(tc.in))
		})
	}
}

func TestClampSuggestions(t *testing.T) {
	t.Parallel()
	req := ClassifyRequest{
		Transactions: []TransactionInput{
			{Description: "metro"}, {Description: "payroll"}, {Description: "mystery"},
		},
		ExpenseCategories: []string{"Food > Groceries", "Transport"},
		IncomeCategories:  []string{"Income > Salary"},
	}

	got := clampSuggestions([]Suggestion{
		{Category: "Food > Groceries", Type: "EXPENSE"},
		{Category: "Totally Made Up", Type: "INFLOW", IncomeClass: "EARNED"},
		{Category: "Income > Salary", Type: "BOGUS", IncomeClass: "SOMETIMES"},
		{Category: "Transport"}, // extra entry beyond the input length
	}, req)

	require.Len(t, got, 3)
	require.Equal(t, Suggestion{Category: "Food > Groceries", Type: "EXPENSE"}, got[0])
	require.Equal(t, Suggestion{Type: "INFLOW", IncomeClass: "EARNED"}, got[1], "invented category dropped")
	require.Equal(t, Suggestion{Category: "Income > Salary"}, got[2], "invalid enums dropped")
}

func TestClampSuggestionsPadsShortResponse(t *testing.T) {
	t.Parallel()
	req := ClassifyRequest{
		Transactions:      []TransactionInput{{Description: "a"}, {Description: "b"}},
		ExpenseCategories: []string{"Food"},
	}
	got := clampSuggestions([]Suggestion{{Category: "Food"}}, req)
	require.Len(t, got, 2)
	require.Equal(t, Suggestion{}, got[1])
}

func TestBuildPromptCarriesVocabularyAndInputs(t *testing.T) {
	t.Parallel()
	req := ClassifyRequest{
		Transactions: []TransactionInput{
			{Description: "UBER TRIP", AmountCents: 23_50, Date: "2024-03-01", Type: "EXPENSE"},
		},
		ExpenseCategories: []string{"Transport"},
		IncomeCategories:  []string{"Income > Salary"},
	}
	prompt := buildPrompt(req)
	require.Contains(t, prompt, "Transport")
	require.Contains(t, prompt, "Income > Salary")
	require.Contains(t, prompt, "UBER TRIP")

	// The embedded transaction payload stays valid JSON.
	payload, err := json.Marshal(req.Transactions)
	require.NoError(t, err)
	require.Contains(t, prompt, string(payload))
}
