package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	accountingapp "github.com/shivfurniture/erp/internal/application/accounting"
	"github.com/shivfurniture/erp/internal/application/scope"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Policy holds the ledger switches for behavior the business may want either way
type Policy struct {
	// ReverseBudgetOnCancel credits accrued usage back when a CONFIRMED document is cancelled
	ReverseBudgetOnCancel bool
	// PaidRequiresConfirmedPayment counts only CONFIRMED payments toward a document's paid amount
	PaidRequiresConfirmedPayment bool
	// SingleDerivedDocument allows at most one live bill or invoice per order
	SingleDerivedDocument bool
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{SingleDerivedDocument: true}
}

// TransactionServiceConfig holds the collaborators of TransactionService
type TransactionServiceConfig struct {
	Store    scope.Store
	Policy   Policy
	Recorder scope.TransitionRecorder
	Logger   *zap.Logger
	Now      func() time.Time
}

// TransactionService drives purchase orders, vendor bills, sales orders and
// customer invoices through their lifecycle
type TransactionService struct {
	store    scope.Store
	policy   Policy
	recorder scope.TransitionRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(config TransactionServiceConfig) *TransactionService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := config.Recorder
	if recorder == nil {
		recorder = scope.NopRecorder{}
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &TransactionService{
		store:    config.Store,
		policy:   config.Policy,
		recorder: recorder,
		logger:   logger,
		now:      now,
	}
}

// GetByID returns a document with its lines
func (s *TransactionService) GetByID(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.store.Transactions().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(txn)
	return &resp, nil
}

// List returns a page of documents without lines
func (s *TransactionService) List(ctx context.Context, filter TransactionListFilter) (shared.Paginated[TransactionResponse], error) {
	domainFilter := trade.TransactionFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "transaction_date",
			OrderDir: "desc",
			Search:   filter.Search,
		}.Normalize(),
		Type:          trade.TransactionType(filter.Type),
		Status:        trade.TransactionStatus(filter.Status),
		PaymentStatus: trade.PaymentStatus(filter.PaymentStatus),
		ContactID:     filter.ContactID,
		From:          filter.From,
		To:            filter.To,
	}

	txns, total, err := s.store.Transactions().FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[TransactionResponse]{}, err
	}
	return shared.NewPaginated(ToTransactionResponses(txns), total, domainFilter.Page, domainFilter.PageSize), nil
}

// ListChildren returns documents derived from id
func (s *TransactionService) ListChildren(ctx context.Context, id uuid.UUID) ([]TransactionResponse, error) {
	if _, err := s.store.Transactions().FindByID(ctx, id); err != nil {
		return nil, err
	}
	children, err := s.store.Transactions().FindChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(children), nil
}

// headerInput is the part of create and update requests that becomes trade.Header
type headerInput struct {
	VendorID        *uuid.UUID
	CustomerID      *uuid.UUID
	TransactionDate *time.Time
	DueDate         *time.Time
	Reference       string
	Notes           string
}

// Create costs and persists a new DRAFT document together with its number
func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (*TransactionResponse, error) {
	txnType := trade.TransactionType(req.Type)
	if !txnType.IsValid() {
		return nil, shared.NewValidationError("unknown transaction type " + req.Type)
	}

	var created *trade.Transaction
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		header, err := s.buildHeader(ctx, repos, txnType, headerInput{
			VendorID:        req.VendorID,
			CustomerID:      req.CustomerID,
			TransactionDate: req.TransactionDate,
			DueDate:         req.DueDate,
			Reference:       req.Reference,
			Notes:           req.Notes,
		})
		if err != nil {
			return err
		}
		if req.ParentID != nil {
			if _, err := repos.Transactions().FindByID(ctx, *req.ParentID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewValidationError("parent transaction not found")
				}
				return err
			}
		}
		specs, err := resolveLines(ctx, repos, txnType, req.Lines)
		if err != nil {
			return err
		}

		number, err := shared.NextDocumentNumber(ctx, repos.Sequences(), txnType.Prefix(), s.now())
		if err != nil {
			return err
		}
		txn, err := trade.NewTransaction(number, txnType, header, req.ParentID, specs)
		if err != nil {
			return err
		}
		if err := repos.Transactions().Create(ctx, txn); err != nil {
			return err
		}
		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.String("transaction_number", created.Number),
		zap.String("type", string(created.Type)),
		zap.String("total_amount", created.TotalAmount.String()))
	s.recorder.RecordTransition(string(created.Type), string(created.Status))
	resp := ToTransactionResponse(created)
	return &resp, nil
}

// Update replaces header and lines of a DRAFT document
func (s *TransactionService) Update(ctx context.Context, id uuid.UUID, req UpdateTransactionRequest) (*TransactionResponse, error) {
	var updated *trade.Transaction
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		txn, err := repos.Transactions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if txn.Status != trade.TransactionStatusDraft {
			return shared.NewInvalidStateError("can only update DRAFT transactions")
		}

		date := req.TransactionDate
		if date == nil {
			date = &txn.TransactionDate
		}
		header, err := s.buildHeader(ctx, repos, txn.Type, headerInput{
			VendorID:        req.VendorID,
			CustomerID:      req.CustomerID,
			TransactionDate: date,
			DueDate:         req.DueDate,
			Reference:       req.Reference,
			Notes:           req.Notes,
		})
		if err != nil {
			return err
		}
		specs, err := resolveLines(ctx, repos, txn.Type, req.Lines)
		if err != nil {
			return err
		}
		if err := txn.Revise(header, specs); err != nil {
			return err
		}
		if err := repos.Transactions().Save(ctx, txn); err != nil {
			return err
		}
		if err := repos.Transactions().ReplaceLines(ctx, txn); err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToTransactionResponse(updated)
	return &resp, nil
}

// Confirm moves a DRAFT document to CONFIRMED and accrues every line that
// carries an analytical account into the budget of the transaction date's month
func (s *TransactionService) Confirm(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	var confirmed *trade.Transaction
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		txn, err := repos.Transactions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := txn.Confirm(); err != nil {
			return err
		}

		period := accounting.PeriodOf(txn.TransactionDate)
		for _, accrual := range txn.Accruals() {
			found, err := accountingapp.AccrueUsage(ctx, repos.Budgets(), accrual.AnalyticalAccountID, period, accrual.Amount)
			if err != nil {
				return fmt.Errorf("failed to accrue budget usage: %w", err)
			}
			if !found {
				s.logger.Debug("no budget for accrual",
					zap.String("transaction_number", txn.Number),
					zap.String("analytical_account_id", accrual.AnalyticalAccountID.String()),
					zap.String("period", period.String()))
			}
		}

		if err := repos.Transactions().Save(ctx, txn); err != nil {
			return err
		}
		confirmed = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction confirmed",
		zap.String("transaction_number", confirmed.Number),
		zap.String("total_amount", confirmed.TotalAmount.String()))
	s.recorder.RecordTransition(string(confirmed.Type), string(confirmed.Status))
	resp := ToTransactionResponse(confirmed)
	return &resp, nil
}

// Cancel moves a DRAFT or CONFIRMED document to CANCELLED. Budget usage of a
// confirmed document is credited back only when the policy asks for it.
// Paid amounts are left as they are.
func (s *TransactionService) Cancel(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	var cancelled *trade.Transaction
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		txn, err := repos.Transactions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		wasConfirmed, err := txn.Cancel()
		if err != nil {
			return err
		}

		if wasConfirmed && s.policy.ReverseBudgetOnCancel {
			period := accounting.PeriodOf(txn.TransactionDate)
			for _, accrual := range txn.Accruals() {
				if _, err := accountingapp.ReverseUsage(ctx, repos.Budgets(), accrual.AnalyticalAccountID, period, accrual.Amount); err != nil {
					return fmt.Errorf("failed to reverse budget usage: %w", err)
				}
			}
		}

		if err := repos.Transactions().Save(ctx, txn); err != nil {
			return err
		}
		cancelled = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction cancelled", zap.String("transaction_number", cancelled.Number))
	s.recorder.RecordTransition(string(cancelled.Type), string(cancelled.Status))
	resp := ToTransactionResponse(cancelled)
	return &resp, nil
}

// Delete removes a DRAFT document
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Execute(ctx, func(repos scope.Repositories) error {
		txn, err := repos.Transactions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := txn.EnsureDeletable(); err != nil {
			return err
		}
		return repos.Transactions().Delete(ctx, id)
	})
}

// CreateBillFromPO creates a DRAFT vendor bill from a confirmed purchase order
func (s *TransactionService) CreateBillFromPO(ctx context.Context, poID uuid.UUID) (*TransactionResponse, error) {
	return s.derive(ctx, poID, trade.TransactionTypePurchaseOrder)
}

// CreateInvoiceFromSO creates a DRAFT customer invoice from a confirmed sales order
func (s *TransactionService) CreateInvoiceFromSO(ctx context.Context, soID uuid.UUID) (*TransactionResponse, error) {
	return s.derive(ctx, soID, trade.TransactionTypeSalesOrder)
}

// Derive creates the complementary document of whatever order sourceID is
func (s *TransactionService) Derive(ctx context.Context, sourceID uuid.UUID) (*TransactionResponse, error) {
	src, err := s.store.Transactions().FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return s.derive(ctx, sourceID, src.Type)
}

func (s *TransactionService) derive(ctx context.Context, sourceID uuid.UUID, sourceType trade.TransactionType) (*TransactionResponse, error) {
	derivedType, ok := sourceType.DerivedType()
	if !ok {
		return nil, shared.NewValidationError("cannot derive a document from " + string(sourceType))
	}

	var created *trade.Transaction
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		// the lock serializes concurrent derivations from the same source
		src, err := repos.Transactions().FindByIDForUpdate(ctx, sourceID)
		if err != nil {
			return err
		}
		if src.Type != sourceType {
			return shared.NewValidationError(fmt.Sprintf("transaction %s is not a %s", src.Number, sourceType))
		}
		if src.Status != trade.TransactionStatusConfirmed {
			return shared.NewInvalidStateError("can only create a " + string(derivedType) + " from a CONFIRMED " + string(sourceType))
		}

		if s.policy.SingleDerivedDocument {
			children, err := repos.Transactions().FindChildren(ctx, src.ID)
			if err != nil {
				return err
			}
			for _, c := range children {
				if c.Type == derivedType && c.Status != trade.TransactionStatusCancelled {
					return shared.NewDomainError(shared.CodeAlreadyExists,
						fmt.Sprintf("%s %s was already created from %s", derivedType, c.Number, src.Number))
				}
			}
		}

		header := src.Header()
		header.TransactionDate = s.now()
		header.DueDate = nil

		number, err := shared.NextDocumentNumber(ctx, repos.Sequences(), derivedType.Prefix(), s.now())
		if err != nil {
			return err
		}
		txn, err := trade.NewTransaction(number, derivedType, header, &src.ID, src.LineSpecs())
		if err != nil {
			return err
		}
		if err := repos.Transactions().Create(ctx, txn); err != nil {
			return err
		}
		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("derived transaction created",
		zap.String("transaction_number", created.Number),
		zap.String("parent_id", sourceID.String()))
	s.recorder.RecordTransition(string(created.Type), string(created.Status))
	resp := ToTransactionResponse(created)
	return &resp, nil
}

// UpdatePaymentStatus recomputes paid amount and payment status from live allocations
func (s *TransactionService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	var txn *trade.Transaction
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		txn, err = RecomputePaymentStatus(ctx, repos, id, s.policy.PaidRequiresConfirmedPayment)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(txn)
	return &resp, nil
}

// RecomputePaymentStatus locks the document, sums its live allocations and
// stores the derived paid amount and payment status. It is the only path that
// writes payment status and must run inside the caller's database transaction.
func RecomputePaymentStatus(ctx context.Context, repos scope.Repositories, id uuid.UUID, confirmedOnly bool) (*trade.Transaction, error) {
	txn, err := repos.Transactions().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	paid, err := repos.Payments().SumAllocatedForTransaction(ctx, id, confirmedOnly)
	if err != nil {
		return nil, err
	}
	paid = shared.RoundAmount(paid)
	if paid.Equal(txn.PaidAmount) && txn.PaymentStatus == trade.DerivePaymentStatus(paid, txn.TotalAmount) {
		return txn, nil
	}
	txn.ApplyPaidAmount(paid)
	if err := repos.Transactions().Save(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// CheckBudgetWarnings lists lines of a DRAFT document whose amount would push
// the budget of the transaction date's month over its allocation. Lines
// sharing a budget are counted cumulatively in line order. Advisory only.
func (s *TransactionService) CheckBudgetWarnings(ctx context.Context, id uuid.UUID) ([]BudgetWarning, error) {
	txn, err := s.store.Transactions().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.Status != trade.TransactionStatusDraft {
		return nil, shared.NewInvalidStateError("budget warnings are only computed for DRAFT transactions")
	}

	period := accounting.PeriodOf(txn.TransactionDate)
	budgets := make(map[uuid.UUID]*accounting.Budget)
	pending := make(map[uuid.UUID]decimal.Decimal)
	warnings := make([]BudgetWarning, 0)

	for i := range txn.Lines {
		line := &txn.Lines[i]
		if line.AnalyticalAccountID == nil {
			continue
		}
		accountID := *line.AnalyticalAccountID
		budget, seen := budgets[accountID]
		if !seen {
			budget, err = s.store.Budgets().FindByPeriod(ctx, accountID, period)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			budgets[accountID] = budget
		}
		if budget == nil {
			continue
		}

		before := pending[accountID]
		if budget.WouldExceed(before, line.LineTotal) {
			remaining := budget.Remaining().Sub(before)
			warnings = append(warnings, BudgetWarning{
				LineID:              line.ID,
				LineNo:              line.LineNo,
				AnalyticalAccountID: accountID,
				BudgetID:            budget.ID,
				BudgetedAmount:      budget.AllocatedAmount,
				UsedAmount:          budget.UsedAmount.Add(before),
				Remaining:           remaining,
				LineTotal:           line.LineTotal,
				Message:             budgetWarningMessage(line.LineNo, period, remaining, line.LineTotal),
			})
		}
		pending[accountID] = before.Add(line.LineTotal)
	}
	return warnings, nil
}

func (s *TransactionService) buildHeader(ctx context.Context, repos scope.Repositories, t trade.TransactionType, in headerInput) (trade.Header, error) {
	header := trade.Header{
		Parties:   trade.Parties{VendorID: in.VendorID, CustomerID: in.CustomerID},
		Reference: in.Reference,
		Notes:     in.Notes,
		DueDate:   in.DueDate,
	}
	if in.TransactionDate != nil {
		header.TransactionDate = *in.TransactionDate
	} else {
		header.TransactionDate = s.now()
	}

	switch {
	case t.IsPurchase() && in.VendorID != nil:
		if err := ensureContact(ctx, repos, *in.VendorID, partner.ContactTypeVendor); err != nil {
			return trade.Header{}, err
		}
	case t.IsSales() && in.CustomerID != nil:
		if err := ensureContact(ctx, repos, *in.CustomerID, partner.ContactTypeCustomer); err != nil {
			return trade.Header{}, err
		}
	}
	return header, nil
}

func ensureContact(ctx context.Context, repos scope.Repositories, id uuid.UUID, want partner.ContactType) error {
	contact, err := repos.Contacts().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("contact not found")
		}
		return err
	}
	if contact.Type != want {
		return shared.NewValidationError(fmt.Sprintf("contact %s is not a %s", contact.Name, want))
	}
	if !contact.Active {
		return shared.NewValidationError(fmt.Sprintf("contact %s is inactive", contact.Name))
	}
	return nil
}

// resolveLines turns line requests into costed specs: product defaults are
// applied and analytical accounts are either checked or auto-assigned
func resolveLines(ctx context.Context, repos scope.Repositories, t trade.TransactionType, lines []LineRequest) ([]trade.LineSpec, error) {
	if len(lines) == 0 {
		return nil, shared.NewValidationError("a transaction needs at least one line")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := repos.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	specs := make([]trade.LineSpec, 0, len(lines))
	for i, l := range lines {
		product, ok := byID[l.ProductID]
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("line %d: product not found", i+1))
		}
		if !product.Active {
			return nil, shared.NewValidationError(fmt.Sprintf("line %d: product %s is inactive", i+1, product.Name))
		}

		spec := trade.LineSpec{
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			GSTRate:     catalog.DefaultGSTRate,
		}
		if spec.Description == "" {
			spec.Description = product.Name
		}
		switch {
		case l.UnitPrice != nil:
			spec.UnitPrice = *l.UnitPrice
		case t.IsPurchase():
			spec.UnitPrice = product.PurchasePrice
		default:
			spec.UnitPrice = product.SalesPrice
		}
		if l.GSTRate != nil {
			spec.GSTRate = *l.GSTRate
		}

		if l.AnalyticalAccountID != nil {
			account, err := repos.Accounts().FindByID(ctx, *l.AnalyticalAccountID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, shared.NewValidationError(fmt.Sprintf("line %d: analytical account not found", i+1))
				}
				return nil, err
			}
			if !account.IsActive() {
				return nil, shared.NewValidationError(fmt.Sprintf("line %d: analytical account %s is archived", i+1, account.Code))
			}
			spec.AnalyticalAccountID = l.AnalyticalAccountID
		} else {
			spec.AnalyticalAccountID, err = accountingapp.ResolveAccount(ctx, repos.AutoRules(), l.ProductID)
			if err != nil {
				return nil, err
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
