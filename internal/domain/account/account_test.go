package account

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newLeafAccount(t *testing.T, code string, accountType Type) *Account {
	t.Helper()
	parentID := uuid.New()
	acc, err := New(code, "حساب ورقي", "Leaf account", accountType, &parentID, 4, false, "", "tester", accountNow)
	require.NoError(t, err)
	return acc
}

func TestNew(t *testing.T) {
	t.Run("RootAccount", func(t *testing.T) {
		acc, err := New("1000", "الأصول", "Assets", TypeAsset, nil, 1, false, "", "tester", accountNow)

		require.NoError(t, err)
		assert.Equal(t, 1, acc.Level)
		assert.True(t, acc.IsLeaf)
		assert.False(t, acc.AllowPosting)
		assert.True(t, acc.IsActive)
		assert.False(t, acc.HasPostings)
		assert.Equal(t, NormalBalanceDebit, acc.NormalBalance)
		assert.Equal(t, 1, acc.Version)
	})

	t.Run("OnlyLevelFourIsPostable", func(t *testing.T) {
		parentID := uuid.New()
		for level := 2; level <= 4; level++ {
			acc, err := New("1110", "حساب", "", TypeAsset, &parentID, level, false, "", "tester", accountNow)
			require.NoError(t, err)
			assert.Equal(t, level == 4, acc.AllowPosting, "level %d", level)
		}
	})

	t.Run("NormalBalanceByType", func(t *testing.T) {
		tests := []struct {
			accountType Type
			want        NormalBalance
		}{
			{TypeAsset, NormalBalanceDebit},
			{TypeExpense, NormalBalanceDebit},
			{TypeCOGS, NormalBalanceDebit},
			{TypeOtherExpense, NormalBalanceDebit},
			{TypeLiability, NormalBalanceCredit},
			{TypeEquity, NormalBalanceCredit},
			{TypeRevenue, NormalBalanceCredit},
			{TypeOtherIncome, NormalBalanceCredit},
		}
		for _, tt := range tests {
			acc, err := New("1000", "حساب", "", tt.accountType, nil, 1, false, "", "tester", accountNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, acc.NormalBalance, "%s", tt.accountType)
		}
	})

	t.Run("Violations", func(t *testing.T) {
		parentID := uuid.New()

		_, err := New("10", "حساب", "", TypeAsset, nil, 1, false, "", "tester", accountNow)
		assert.ErrorIs(t, err, ErrCodeFormat)

		_, err = New("1000", "  ", "", TypeAsset, nil, 1, false, "", "tester", accountNow)
		assert.ErrorIs(t, err, ErrNameRequired)

		_, err = New("1000", "حساب", "", TypeAsset, nil, 5, false, "", "tester", accountNow)
		assert.ErrorIs(t, err, ErrLevelOutOfRange)

		_, err = New("1000", "حساب", "", TypeAsset, &parentID, 1, false, "", "tester", accountNow)
		assert.ErrorIs(t, err, ErrRootWithParent)

		_, err = New("1100", "حساب", "", TypeAsset, nil, 2, false, "", "tester", accountNow)
		assert.ErrorIs(t, err, ErrChildWithoutParent)

		_, err = New("1000", "حساب", "", Type("BOGUS"), nil, 1, false, "", "tester", accountNow)
		assert.ErrorIs(t, err, ErrUnknownAccountType)
	})
}

func TestValidateChildCode(t *testing.T) {
	t.Run("WithinParentRange", func(t *testing.T) {
		assert.NoError(t, ValidateChildCode("1000", "1100", 1))
		assert.NoError(t, ValidateChildCode("1100", "1110", 2))
		assert.NoError(t, ValidateChildCode("1110", "1111", 3))
	})

	t.Run("OutsideParentRange", func(t *testing.T) {
		assert.Error(t, ValidateChildCode("1000", "2100", 1))
		assert.Error(t, ValidateChildCode("1100", "1210", 2))
		assert.Error(t, ValidateChildCode("1110", "1121", 3))
	})

	t.Run("LeafParentRejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateChildCode("1111", "1111", 4), ErrChildBelowLeafLevel)
	})
}

func TestAccount_CanReceivePostings(t *testing.T) {
	acc := newLeafAccount(t, "1131", TypeAsset)
	assert.True(t, acc.CanReceivePostings())

	t.Run("InactiveRejected", func(t *testing.T) {
		acc := newLeafAccount(t, "1131", TypeAsset)
		require.NoError(t, acc.Deactivate())
		assert.False(t, acc.CanReceivePostings())

		acc.Activate()
		assert.True(t, acc.CanReceivePostings())
	})

	t.Run("ParentRejected", func(t *testing.T) {
		acc := newLeafAccount(t, "1131", TypeAsset)
		acc.MarkAsParent()
		assert.False(t, acc.CanReceivePostings())
	})

	t.Run("DeletedRejected", func(t *testing.T) {
		acc := newLeafAccount(t, "1131", TypeAsset)
		require.NoError(t, acc.SoftDelete("tester", accountNow))
		assert.False(t, acc.CanReceivePostings())
	})
}

func TestAccount_ChangeType(t *testing.T) {
	t.Run("RederivesNormalBalance", func(t *testing.T) {
		acc := newLeafAccount(t, "5211", TypeExpense)
		require.Equal(t, NormalBalanceDebit, acc.NormalBalance)

		require.NoError(t, acc.ChangeType(TypeRevenue))

		assert.Equal(t, TypeRevenue, acc.Type)
		assert.Equal(t, NormalBalanceCredit, acc.NormalBalance)
	})

	t.Run("BlockedOnceUsed", func(t *testing.T) {
		acc := newLeafAccount(t, "5211", TypeExpense)
		acc.MarkAsUsed()

		assert.ErrorIs(t, acc.ChangeType(TypeRevenue), ErrTypeChangeAfterUse)
		assert.Equal(t, TypeExpense, acc.Type)
	})

	t.Run("SystemAccountFrozen", func(t *testing.T) {
		parentID := uuid.New()
		acc, err := New("3121", "الأرباح المحتجزة", "", TypeEquity, &parentID, 4, true, "", "tester", accountNow)
		require.NoError(t, err)

		assert.ErrorIs(t, acc.ChangeType(TypeRevenue), ErrSystemAccount)
		assert.ErrorIs(t, acc.Deactivate(), ErrSystemAccount)
		assert.ErrorIs(t, acc.SoftDelete("tester", accountNow), ErrSystemAccount)
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		acc := newLeafAccount(t, "5211", TypeExpense)
		assert.ErrorIs(t, acc.ChangeType(Type("BOGUS")), ErrUnknownAccountType)
	})
}

func TestAccount_Rename(t *testing.T) {
	t.Run("TrimsAndStores", func(t *testing.T) {
		acc := newLeafAccount(t, "1131", TypeAsset)
		require.NoError(t, acc.Rename(" نقدية ", " Cash "))
		assert.Equal(t, "نقدية", acc.NameAr)
		assert.Equal(t, "Cash", acc.NameEn)
	})

	t.Run("SystemArabicNameFixed", func(t *testing.T) {
		parentID := uuid.New()
		acc, err := New("3121", "الأرباح المحتجزة", "Retained earnings", TypeEquity, &parentID, 4, true, "", "tester", accountNow)
		require.NoError(t, err)

		assert.ErrorIs(t, acc.Rename("اسم جديد", ""), ErrSystemAccount)
		// English name changes are allowed as long as the Arabic name stays.
		assert.NoError(t, acc.Rename("الأرباح المحتجزة", "Accumulated profits"))
		assert.Equal(t, "Accumulated profits", acc.NameEn)
	})
}

func TestAccount_SoftDelete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		acc := newLeafAccount(t, "1900", TypeAsset)
		require.NoError(t, acc.SoftDelete("tester", accountNow))
		assert.True(t, acc.Lifecycle.IsDeleted())
		assert.Equal(t, "tester", acc.Lifecycle.DeletedBy)
	})

	t.Run("BlockedWithPostings", func(t *testing.T) {
		acc := newLeafAccount(t, "1900", TypeAsset)
		acc.MarkAsUsed()
		assert.ErrorIs(t, acc.SoftDelete("tester", accountNow), ErrDeleteWithPostings)
	})

	t.Run("BlockedForParents", func(t *testing.T) {
		acc := newLeafAccount(t, "1900", TypeAsset)
		acc.MarkAsParent()
		assert.ErrorIs(t, acc.SoftDelete("tester", accountNow), ErrDeleteNonLeaf)
	})
}

func TestAccount_MarkAsParent(t *testing.T) {
	acc := newLeafAccount(t, "1110", TypeAsset)
	require.True(t, acc.IsLeaf)

	acc.MarkAsParent()

	assert.False(t, acc.IsLeaf)
	assert.False(t, acc.AllowPosting)
}

func TestIsIncomeStatementType(t *testing.T) {
	assert.True(t, IsIncomeStatementType(TypeRevenue))
	assert.True(t, IsIncomeStatementType(TypeCOGS))
	assert.True(t, IsIncomeStatementType(TypeExpense))
	assert.True(t, IsIncomeStatementType(TypeOtherIncome))
	assert.True(t, IsIncomeStatementType(TypeOtherExpense))

	assert.False(t, IsIncomeStatementType(TypeAsset))
	assert.False(t, IsIncomeStatementType(TypeLiability))
	assert.False(t, IsIncomeStatementType(TypeEquity))

	for _, bs := range []Type{TypeAsset, TypeLiability, TypeEquity} {
		assert.True(t, IsBalanceSheetType(bs))
	}
}
