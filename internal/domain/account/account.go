package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// Domain rule violations
var (
	ErrCodeRequired        = errors.New("account code is required")
	ErrCodeFormat          = errors.New("account code must be exactly 4 digits")
	ErrNameRequired        = errors.New("arabic account name is required")
	ErrLevelOutOfRange     = errors.New("account level must be between 1 and 4")
	ErrRootWithParent      = errors.New("level 1 accounts cannot have a parent")
	ErrChildWithoutParent  = errors.New("accounts below level 1 must have a parent")
	ErrUnknownAccountType  = errors.New("unknown account type")
	ErrSystemAccount       = errors.New("system accounts cannot be modified this way")
	ErrTypeChangeAfterUse  = errors.New("account type cannot change once postings reference the account")
	ErrDeleteWithPostings  = errors.New("accounts with postings cannot be deleted, only deactivated")
	ErrDeleteNonLeaf       = errors.New("accounts with children cannot be deleted")
	ErrChildBelowLeafLevel = errors.New("accounts cannot be created below level 4")
)

// Type classifies accounts in the chart of accounts.
type Type string

const (
	TypeAsset        Type = "ASSET"
	TypeLiability    Type = "LIABILITY"
	TypeEquity       Type = "EQUITY"
	TypeRevenue      Type = "REVENUE"
	TypeCOGS         Type = "COGS"
	TypeExpense      Type = "EXPENSE"
	TypeOtherIncome  Type = "OTHER_INCOME"
	TypeOtherExpense Type = "OTHER_EXPENSE"
)

// NormalBalance is the side an account of a given type naturally carries.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// DeriveNormalBalance derives the normal balance from the account type.
// It is never set independently.
func DeriveNormalBalance(t Type) (NormalBalance, error) {
	switch t {
	case TypeAsset, TypeCOGS, TypeExpense, TypeOtherExpense:
		return NormalBalanceDebit, nil
	case TypeLiability, TypeEquity, TypeRevenue, TypeOtherIncome:
		return NormalBalanceCredit, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAccountType, t)
	}
}

// IsBalanceSheetType reports whether accounts of this type carry forward at
// year-end.
func IsBalanceSheetType(t Type) bool {
	return t == TypeAsset || t == TypeLiability || t == TypeEquity
}

// IsIncomeStatementType reports whether accounts of this type are closed to
// retained earnings at year-end.
func IsIncomeStatementType(t Type) bool {
	switch t {
	case TypeRevenue, TypeCOGS, TypeExpense, TypeOtherIncome, TypeOtherExpense:
		return true
	}
	return false
}

// Account is one node in the chart of accounts. Codes follow 4-digit
// hierarchical numbering over levels 1-4; only active leaf accounts with
// AllowPosting receive journal lines.
type Account struct {
	ID              uuid.UUID        `json:"id"`
	Code            string           `json:"code"`
	NameAr          string           `json:"name_ar"`
	NameEn          string           `json:"name_en,omitempty"`
	Type            Type             `json:"type"`
	NormalBalance   NormalBalance    `json:"normal_balance"`
	ParentID        *uuid.UUID       `json:"parent_id,omitempty"`
	Level           int              `json:"level"`
	IsLeaf          bool             `json:"is_leaf"`
	AllowPosting    bool             `json:"allow_posting"`
	IsActive        bool             `json:"is_active"`
	IsSystemAccount bool             `json:"is_system_account"`
	HasPostings     bool             `json:"has_postings"`
	Description     string           `json:"description,omitempty"`
	Version         int              `json:"version"` // Optimistic concurrency token
	Lifecycle       shared.Lifecycle `json:"lifecycle"`
}

// New creates an account with full invariant validation. New accounts start
// as leaves; only level-4 accounts are postable.
func New(code, nameAr, nameEn string, accountType Type, parentID *uuid.UUID, level int, isSystem bool, description, createdBy string, createdAt time.Time) (*Account, error) {
	if err := ValidateCode(code); err != nil {
		return nil, err
	}
	if strings.TrimSpace(nameAr) == "" {
		return nil, ErrNameRequired
	}
	if level < 1 || level > 4 {
		return nil, ErrLevelOutOfRange
	}
	if level == 1 && parentID != nil {
		return nil, ErrRootWithParent
	}
	if level > 1 && parentID == nil {
		return nil, ErrChildWithoutParent
	}

	normal, err := DeriveNormalBalance(accountType)
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:              uuid.New(),
		Code:            strings.TrimSpace(code),
		NameAr:          strings.TrimSpace(nameAr),
		NameEn:          strings.TrimSpace(nameEn),
		Type:            accountType,
		NormalBalance:   normal,
		ParentID:        parentID,
		Level:           level,
		IsLeaf:          true,
		AllowPosting:    level == 4,
		IsActive:        true,
		IsSystemAccount: isSystem,
		Description:     strings.TrimSpace(description),
		Version:         1,
		Lifecycle:       shared.NewLifecycle(createdBy, createdAt),
	}, nil
}

// CanReceivePostings reports whether the account may appear on a journal line.
func (a *Account) CanReceivePostings() bool {
	return a.IsActive && a.IsLeaf && a.AllowPosting && !a.Lifecycle.IsDeleted()
}

// Rename changes the account names. System account Arabic names are fixed.
func (a *Account) Rename(nameAr, nameEn string) error {
	if strings.TrimSpace(nameAr) == "" {
		return ErrNameRequired
	}
	if a.IsSystemAccount && strings.TrimSpace(nameAr) != a.NameAr {
		return ErrSystemAccount
	}
	a.NameAr = strings.TrimSpace(nameAr)
	a.NameEn = strings.TrimSpace(nameEn)
	return nil
}

// Describe replaces the free-text description.
func (a *Account) Describe(description string) {
	a.Description = strings.TrimSpace(description)
}

// Activate re-enables postings to a previously deactivated account.
func (a *Account) Activate() {
	a.IsActive = true
}

// Deactivate disables new postings. System accounts cannot be deactivated.
func (a *Account) Deactivate() error {
	if a.IsSystemAccount {
		return ErrSystemAccount
	}
	a.IsActive = false
	return nil
}

// ChangeType changes the account classification and re-derives the normal
// balance. Forbidden for system accounts and once any posting exists.
func (a *Account) ChangeType(newType Type) error {
	if a.IsSystemAccount {
		return ErrSystemAccount
	}
	if a.HasPostings {
		return ErrTypeChangeAfterUse
	}
	normal, err := DeriveNormalBalance(newType)
	if err != nil {
		return err
	}
	a.Type = newType
	a.NormalBalance = normal
	return nil
}

// MarkAsParent transitions the account from leaf to parent when it gains its
// first child. A parent never accepts postings again.
func (a *Account) MarkAsParent() {
	a.IsLeaf = false
	a.AllowPosting = false
}

// MarkAsUsed records that at least one posted journal entry references this
// account. One-way: the flag never clears.
func (a *Account) MarkAsUsed() {
	a.HasPostings = true
}

// SoftDelete removes the account from active use. Only childless, unused,
// non-system accounts may be deleted.
func (a *Account) SoftDelete(deletedBy string, deletedAt time.Time) error {
	if a.IsSystemAccount {
		return ErrSystemAccount
	}
	if a.HasPostings {
		return ErrDeleteWithPostings
	}
	if !a.IsLeaf {
		return ErrDeleteNonLeaf
	}
	a.Lifecycle.MarkDeleted(deletedBy, deletedAt)
	return nil
}

// ValidateCode checks that a code is exactly 4 numeric characters.
func ValidateCode(code string) error {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ErrCodeRequired
	}
	if len(trimmed) != 4 {
		return ErrCodeFormat
	}
	for _, ch := range trimmed {
		if ch < '0' || ch > '9' {
			return ErrCodeFormat
		}
	}
	return nil
}

// ValidateChildCode checks that a child's code lies within the numeric range
// implied by the parent's code and level: a level-1 parent X000 owns X_00
// children, a level-2 parent XX00 owns XX_0, a level-3 parent XXX0 owns XXX_.
// Level-4 accounts cannot have children.
func ValidateChildCode(parentCode, childCode string, parentLevel int) error {
	if err := ValidateCode(parentCode); err != nil {
		return err
	}
	if err := ValidateCode(childCode); err != nil {
		return err
	}
	if parentLevel < 1 || parentLevel > 3 {
		return ErrChildBelowLeafLevel
	}
	if childCode[:parentLevel] != parentCode[:parentLevel] {
		return fmt.Errorf("child code %s does not fall within the range of parent %s", childCode, parentCode)
	}
	return nil
}
