package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCustomerName(t *testing.T) {
	assert.Equal(t, "LOWES HOME CENTERS 1234", NormalizeCustomerName("  Lowe's Home Centers, #1234  "))
	assert.Equal(t, "TRACTOR SUPPLY", NormalizeCustomerName("tractor   supply"))
	assert.Equal(t, "", NormalizeCustomerName("--/--"))
}

func TestParseStrategicCustomers(t *testing.T) {
	text := `# strategic accounts
Lowe's|LOWES,LOWE'S
Tractor Supply|TRACTOR SUPPLY,TSC STORE

Menards
Lowe's|DUPLICATE ENTRY IGNORED`

	customers := ParseStrategicCustomers(text)

	require.Len(t, customers, 3)
	assert.Equal(t, "LOWES", customers[0].Key)
	assert.Equal(t, []string{"LOWES", "LOWES"}, customers[0].Patterns)
	assert.Equal(t, []string{"TRACTOR SUPPLY", "TSC STORE"}, customers[1].Patterns)
	// A bare label matches on itself
	assert.Equal(t, []string{"MENARDS"}, customers[2].Patterns)
}

func TestMatchStrategic_SubstringOnNormalizedName(t *testing.T) {
	customers := ParseStrategicCustomers("Lowe's|LOWES\nTractor Supply|TRACTOR SUPPLY")

	match := MatchStrategic(customers, "LOWE'S HOME CENTERS #0441")
	miss := MatchStrategic(customers, "Ace Hardware")

	require.NotNil(t, match)
	assert.Equal(t, "LOWES", match.Key)
	assert.Nil(t, miss)
}

func TestApplyRules_CopiesFlagsByKey(t *testing.T) {
	customers := ParseStrategicCustomers("Lowe's|LOWES\nMenards")
	flex := 2

	customers = ApplyRules(customers, map[string]StrategicRule{
		"LOWES": {NoMix: true, RequiresReturnToOrigin: true, DueDateFlexDays: &flex},
	})

	assert.True(t, customers[0].NoMix)
	assert.True(t, customers[0].RequiresReturnToOrigin)
	require.NotNil(t, customers[0].DueDateFlexDays)
	assert.Equal(t, 2, *customers[0].DueDateFlexDays)
	assert.False(t, customers[1].NoMix)
}
