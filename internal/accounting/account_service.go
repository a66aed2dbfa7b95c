package accounting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marco-erp/ledger-core/internal/domain/account"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	journalRepo journal.Repository
	txManager   TxManager
	authorizer  shared.Authorizer
	currentUser shared.CurrentUser
	clock       shared.Clock
	audit       shared.AuditLogger
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	logger *slog.Logger,
	accountRepo account.Repository,
	journalRepo journal.Repository,
	txManager TxManager,
	authorizer shared.Authorizer,
	currentUser shared.CurrentUser,
	clock shared.Clock,
	audit shared.AuditLogger,
) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		txManager:   txManager,
		authorizer:  authorizer,
		currentUser: currentUser,
		clock:       clock,
		audit:       audit,
		logger:      logger,
	}
}

// CreateAccount creates an account under an optional parent. The account's
// level is derived from the parent; the code must be unique and, for child
// accounts, fall within the parent's numeric range. A leaf parent gaining its
// first child is marked as a parent in the same transaction.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, input CreateAccountInput) (*account.Account, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionAccountsCreate); err != nil {
		return nil, serviceError(err)
	}
	if err := account.ValidateCode(input.Code); err != nil {
		return nil, shared.WrapError(shared.KindValidation, err)
	}

	var created *account.Account
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.accountRepo.WithTx(tx)

		exists, err := repo.CodeExists(ctx, input.Code)
		if err != nil {
			return err
		}
		if exists {
			return account.ErrDuplicateCode{Code: input.Code}
		}

		level := 1
		var parent *account.Account
		if input.ParentID != nil {
			parent, err = repo.GetByID(ctx, *input.ParentID)
			if err != nil {
				return err
			}
			level = parent.Level + 1
			if err := account.ValidateChildCode(parent.Code, input.Code, parent.Level); err != nil {
				return domainViolation(err)
			}
		}

		acc, err := account.New(input.Code, input.NameAr, input.NameEn, input.Type,
			input.ParentID, level, input.IsSystem, input.Description,
			s.currentUser.Username(), s.clock.Now())
		if err != nil {
			return domainViolation(err)
		}

		if err := repo.Create(ctx, acc); err != nil {
			return err
		}

		if parent != nil && parent.IsLeaf {
			parent.MarkAsParent()
			parent.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())
			if err := repo.Update(ctx, parent); err != nil {
				return err
			}
		}

		if err := s.audit.Log(ctx, tx, "account", acc.ID, "create", s.currentUser.Username(),
			fmt.Sprintf("created account %s (%s)", acc.Code, acc.NameAr)); err != nil {
			return err
		}

		created = acc
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.logger.Info("account created", "code", created.Code, "id", created.ID.String())
	return created, nil
}

// UpdateAccount changes names and description of an account
func (s *AccountServiceImpl) UpdateAccount(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*account.Account, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionAccountsEdit); err != nil {
		return nil, serviceError(err)
	}

	var updated *account.Account
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.accountRepo.WithTx(tx)

		acc, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := acc.Rename(input.NameAr, input.NameEn); err != nil {
			return domainViolation(err)
		}
		acc.Describe(input.Description)
		acc.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())

		if err := repo.Update(ctx, acc); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "account", acc.ID, "update", s.currentUser.Username(),
			fmt.Sprintf("updated account %s", acc.Code)); err != nil {
			return err
		}

		updated = acc
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return updated, nil
}

// ChangeAccountType reclassifies an account. The domain forbids the change
// for system accounts and once any posting references the account; the
// posted-lines check here catches rows written before the usage flag existed.
func (s *AccountServiceImpl) ChangeAccountType(ctx context.Context, id uuid.UUID, newType account.Type) (*account.Account, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionAccountsEdit); err != nil {
		return nil, serviceError(err)
	}

	var updated *account.Account
	err := s.txManager.ExecuteSerializableTx(ctx, func(tx pgx.Tx) error {
		repo := s.accountRepo.WithTx(tx)

		acc, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		used, err := s.journalRepo.WithTx(tx).HasPostedLinesForAccount(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return domainViolation(account.ErrTypeChangeAfterUse)
		}

		if err := acc.ChangeType(newType); err != nil {
			return domainViolation(err)
		}
		acc.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())

		if err := repo.Update(ctx, acc); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "account", acc.ID, "change_type", s.currentUser.Username(),
			fmt.Sprintf("changed account %s type to %s", acc.Code, newType)); err != nil {
			return err
		}

		updated = acc
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return updated, nil
}

// ActivateAccount re-enables postings to a deactivated account
func (s *AccountServiceImpl) ActivateAccount(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, true)
}

// DeactivateAccount stops new postings without touching history
func (s *AccountServiceImpl) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, false)
}

func (s *AccountServiceImpl) setActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionAccountsEdit); err != nil {
		return serviceError(err)
	}

	action := "deactivate"
	if active {
		action = "activate"
	}

	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.accountRepo.WithTx(tx)

		acc, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if active {
			acc.Activate()
		} else if err := acc.Deactivate(); err != nil {
			return domainViolation(err)
		}
		acc.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())

		if err := repo.Update(ctx, acc); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, "account", acc.ID, action, s.currentUser.Username(),
			fmt.Sprintf("%sd account %s", action, acc.Code))
	})
	return serviceError(err)
}

// DeleteAccount soft-deletes an account. Only childless, never-posted,
// non-system accounts can go; anything else is deactivation territory.
func (s *AccountServiceImpl) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionAccountsDelete); err != nil {
		return serviceError(err)
	}

	err := s.txManager.ExecuteSerializableTx(ctx, func(tx pgx.Tx) error {
		repo := s.accountRepo.WithTx(tx)

		acc, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		hasChildren, err := repo.HasChildren(ctx, id)
		if err != nil {
			return err
		}
		if hasChildren {
			return domainViolation(account.ErrDeleteNonLeaf)
		}

		used, err := s.journalRepo.WithTx(tx).HasPostedLinesForAccount(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return domainViolation(account.ErrDeleteWithPostings)
		}

		if err := acc.SoftDelete(s.currentUser.Username(), s.clock.Now()); err != nil {
			return domainViolation(err)
		}
		if err := repo.Update(ctx, acc); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, "account", acc.ID, "delete", s.currentUser.Username(),
			fmt.Sprintf("deleted account %s", acc.Code))
	})
	return serviceError(err)
}

// GetAccount retrieves an account by ID
func (s *AccountServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, serviceError(err)
	}
	return acc, nil
}

// GetAccountByCode retrieves an account by its 4-digit code
func (s *AccountServiceImpl) GetAccountByCode(ctx context.Context, code string) (*account.Account, error) {
	acc, err := s.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, serviceError(err)
	}
	if acc == nil {
		return nil, shared.NotFound(fmt.Sprintf("account with code %s not found", code))
	}
	return acc, nil
}

// ListAccounts returns all accounts in code order
func (s *AccountServiceImpl) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	accounts, err := s.accountRepo.GetAll(ctx)
	if err != nil {
		return nil, serviceError(err)
	}
	return accounts, nil
}

// ListAccountsByType returns accounts of one classification
func (s *AccountServiceImpl) ListAccountsByType(ctx context.Context, accountType account.Type) ([]*account.Account, error) {
	if _, err := account.DeriveNormalBalance(accountType); err != nil {
		return nil, shared.WrapError(shared.KindValidation, err)
	}
	accounts, err := s.accountRepo.GetByType(ctx, accountType)
	if err != nil {
		return nil, serviceError(err)
	}
	return accounts, nil
}

// ListPostableAccounts returns active leaves that accept journal lines
func (s *AccountServiceImpl) ListPostableAccounts(ctx context.Context) ([]*account.Account, error) {
	accounts, err := s.accountRepo.GetPostable(ctx)
	if err != nil {
		return nil, serviceError(err)
	}
	return accounts, nil
}

// GetAccountTree returns the chart of accounts as a hierarchy, roots in code
// order and children nested under their parents.
func (s *AccountServiceImpl) GetAccountTree(ctx context.Context) ([]*AccountNode, error) {
	accounts, err := s.accountRepo.GetAll(ctx)
	if err != nil {
		return nil, serviceError(err)
	}

	nodes := make(map[uuid.UUID]*AccountNode, len(accounts))
	for _, acc := range accounts {
		nodes[acc.ID] = &AccountNode{Account: acc}
	}

	var roots []*AccountNode
	for _, acc := range accounts {
		node := nodes[acc.ID]
		if acc.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*acc.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			// Orphaned by a deleted parent; surface it at the root
			roots = append(roots, node)
		}
	}

	return roots, nil
}
