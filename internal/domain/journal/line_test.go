package journal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lineNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestNewLine(t *testing.T) {
	accountID := uuid.New()

	t.Run("DebitLine", func(t *testing.T) {
		line, err := NewLine(accountID, decimal.NewFromInt(100), decimal.Zero, " Office rent ", "CC-01", "HQ", lineNow)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, line.ID)
		assert.Equal(t, accountID, line.AccountID)
		assert.True(t, line.Debit.Equal(decimal.NewFromInt(100)))
		assert.True(t, line.Credit.IsZero())
		assert.Equal(t, "Office rent", line.Description)
		assert.Equal(t, "CC-01", line.CostCenter)
		assert.Equal(t, "HQ", line.Location)
	})

	t.Run("FourDecimalPlacesAllowed", func(t *testing.T) {
		amount, err := decimal.NewFromString("10.1234")
		require.NoError(t, err)

		_, err = NewLine(accountID, decimal.Zero, amount, "", "", "", lineNow)

		assert.NoError(t, err)
	})

	t.Run("Violations", func(t *testing.T) {
		tooFine, err := decimal.NewFromString("10.12345")
		require.NoError(t, err)

		tests := []struct {
			name      string
			accountID uuid.UUID
			debit     decimal.Decimal
			credit    decimal.Decimal
			want      error
		}{
			{"MissingAccount", uuid.Nil, decimal.NewFromInt(10), decimal.Zero, ErrLineAccountRequired},
			{"NegativeDebit", accountID, decimal.NewFromInt(-10), decimal.Zero, ErrLineNegativeAmount},
			{"NegativeCredit", accountID, decimal.Zero, decimal.NewFromInt(-10), ErrLineNegativeAmount},
			{"BothSides", accountID, decimal.NewFromInt(10), decimal.NewFromInt(10), ErrLineBothSides},
			{"NoAmount", accountID, decimal.Zero, decimal.Zero, ErrLineNoAmount},
			{"TooManyDecimals", accountID, tooFine, decimal.Zero, ErrLinePrecision},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewLine(tt.accountID, tt.debit, tt.credit, "", "", "", lineNow)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}

func TestLine_Mirrored(t *testing.T) {
	accountID := uuid.New()
	line, err := NewLine(accountID, decimal.NewFromInt(250), decimal.Zero, "Rent", "CC-01", "", lineNow)
	require.NoError(t, err)

	later := lineNow.Add(time.Hour)
	m := line.mirrored(later)

	assert.NotEqual(t, line.ID, m.ID)
	assert.Equal(t, accountID, m.AccountID)
	assert.True(t, m.Debit.IsZero())
	assert.True(t, m.Credit.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "Reversal of: Rent", m.Description)
	assert.Equal(t, later, m.CreatedAt)

	// The original is untouched.
	assert.True(t, line.Debit.Equal(decimal.NewFromInt(250)))
	assert.True(t, line.Credit.IsZero())
}
