package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/application/scope"
	tradeapp "github.com/shivfurniture/erp/internal/application/trade"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentServiceConfig holds the collaborators of PaymentService
type PaymentServiceConfig struct {
	Store scope.Store
	// PaidRequiresConfirmedPayment counts only CONFIRMED payments toward paid amounts
	PaidRequiresConfirmedPayment bool
	Recorder                     scope.TransitionRecorder
	Logger                       *zap.Logger
	Now                          func() time.Time
}

// PaymentService is the payment and allocation ledger. Every allocation
// change recomputes the affected documents in the same database transaction.
type PaymentService struct {
	store         scope.Store
	confirmedOnly bool
	recorder      scope.TransitionRecorder
	logger        *zap.Logger
	now           func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(config PaymentServiceConfig) *PaymentService {
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
	return &PaymentService{
		store:         config.Store,
		confirmedOnly: config.PaidRequiresConfirmedPayment,
		recorder:      recorder,
		logger:        logger,
		now:           now,
	}
}

// GetByID returns a payment with its allocations
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.store.Payments().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// List returns a page of payments
func (s *PaymentService) List(ctx context.Context, filter PaymentListFilter) (shared.Paginated[PaymentResponse], error) {
	domainFilter := finance.PaymentFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "payment_date",
			OrderDir: "desc",
			Search:   filter.Search,
		}.Normalize(),
		Type:      finance.PaymentType(filter.Type),
		Status:    finance.PaymentStatus(filter.Status),
		ContactID: filter.ContactID,
		From:      filter.From,
		To:        filter.To,
	}

	payments, total, err := s.store.Payments().FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[PaymentResponse]{}, err
	}
	return shared.NewPaginated(ToPaymentResponses(payments), total, domainFilter.Page, domainFilter.PageSize), nil
}

// Create records a payment with its allocations. The allocation sum is
// checked before anything is written.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error) {
	allocs := toAllocationInputs(req.Allocations)
	if err := finance.ValidateAllocations(req.Amount, allocs); err != nil {
		return nil, err
	}

	var created *finance.Payment
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		contact, err := repos.Contacts().FindByID(ctx, req.ContactID)
		if err != nil {
			return err
		}
		paymentType, err := resolvePaymentType(req.Type, contact)
		if err != nil {
			return err
		}

		locked, err := lockTransactions(ctx, repos, allocationIDs(allocs))
		if err != nil {
			return err
		}

		number, err := shared.NextDocumentNumber(ctx, repos.Sequences(), finance.PaymentPrefix, s.now())
		if err != nil {
			return err
		}
		p, err := finance.NewPayment(number, paymentType, contact.ID, s.details(req.Amount, req.PaymentDate, req.Method, req.Reference, req.Notes), allocs)
		if err != nil {
			return err
		}
		if err := s.checkTargets(ctx, repos, p, locked, nil); err != nil {
			return err
		}
		if req.Confirm {
			if err := p.Confirm(); err != nil {
				return err
			}
		}

		if err := repos.Payments().Create(ctx, p); err != nil {
			return err
		}
		if err := s.recompute(ctx, repos, p.AllocatedTransactionIDs()); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment created",
		zap.String("payment_number", created.Number),
		zap.String("amount", created.Amount.String()),
		zap.Int("allocations", len(created.Allocations)))
	s.recorder.RecordTransition("PAYMENT", string(created.Status))
	resp := ToPaymentResponse(created)
	return &resp, nil
}

// Update replaces the payment fields and allocations, then recomputes both the
// previously and the newly allocated documents
func (s *PaymentService) Update(ctx context.Context, id uuid.UUID, req UpdatePaymentRequest) (*PaymentResponse, error) {
	allocs := toAllocationInputs(req.Allocations)
	if err := finance.ValidateAllocations(req.Amount, allocs); err != nil {
		return nil, err
	}

	var updated *finance.Payment
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		p, err := repos.Payments().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == finance.PaymentStatusVoided {
			return shared.NewInvalidStateError("cannot update a voided payment")
		}

		previous := make(map[uuid.UUID]decimal.Decimal, len(p.Allocations))
		for _, a := range p.Allocations {
			previous[a.TransactionID] = a.AllocatedAmount
		}
		affected := finance.UnionIDs(p.AllocatedTransactionIDs(), allocationIDs(allocs))
		locked, err := lockTransactions(ctx, repos, affected)
		if err != nil {
			return err
		}

		date := req.PaymentDate
		if date == nil {
			date = &p.PaymentDate
		}
		if _, err := p.Revise(s.details(req.Amount, date, req.Method, req.Reference, req.Notes), allocs); err != nil {
			return err
		}
		if err := s.checkTargets(ctx, repos, p, locked, previous); err != nil {
			return err
		}

		if err := repos.Payments().Save(ctx, p); err != nil {
			return err
		}
		if err := repos.Payments().ReplaceAllocations(ctx, p); err != nil {
			return err
		}
		if err := s.recompute(ctx, repos, affected); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment updated", zap.String("payment_number", updated.Number))
	resp := ToPaymentResponse(updated)
	return &resp, nil
}

// Confirm posts a DRAFT payment
func (s *PaymentService) Confirm(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	var confirmed *finance.Payment
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		p, err := repos.Payments().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Confirm(); err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, p); err != nil {
			return err
		}
		if err := s.recompute(ctx, repos, p.AllocatedTransactionIDs()); err != nil {
			return err
		}
		confirmed = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment confirmed", zap.String("payment_number", confirmed.Number))
	s.recorder.RecordTransition("PAYMENT", string(confirmed.Status))
	resp := ToPaymentResponse(confirmed)
	return &resp, nil
}

// Void removes every allocation of a payment and reverts the paid amounts of
// the documents it funded
func (s *PaymentService) Void(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	var voided *finance.Payment
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		p, err := repos.Payments().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		affected, err := p.Void()
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, p); err != nil {
			return err
		}
		if err := repos.Payments().ReplaceAllocations(ctx, p); err != nil {
			return err
		}
		if err := s.recompute(ctx, repos, affected); err != nil {
			return err
		}
		voided = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment voided", zap.String("payment_number", voided.Number))
	s.recorder.RecordTransition("PAYMENT", string(voided.Status))
	resp := ToPaymentResponse(voided)
	return &resp, nil
}

// Delete removes a payment that was never posted, reversing its allocations
func (s *PaymentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Execute(ctx, func(repos scope.Repositories) error {
		p, err := repos.Payments().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := p.EnsureDeletable(); err != nil {
			return err
		}
		affected := p.AllocatedTransactionIDs()
		if err := repos.Payments().Delete(ctx, id); err != nil {
			return err
		}
		return s.recompute(ctx, repos, affected)
	})
}

// GetOutstandingTransactions lists the contact's confirmed bills (vendors) or
// invoices (customers) that are not fully paid, oldest first
func (s *PaymentService) GetOutstandingTransactions(ctx context.Context, contactID uuid.UUID) ([]tradeapp.TransactionResponse, error) {
	contact, err := s.store.Contacts().FindByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	txnType := trade.TransactionTypeCustomerInvoice
	if contact.IsVendor() {
		txnType = trade.TransactionTypeVendorBill
	}
	txns, err := s.store.Transactions().FindOutstanding(ctx, contactID, txnType)
	if err != nil {
		return nil, err
	}
	return tradeapp.ToTransactionResponses(txns), nil
}

// PayableBalance is the amount a gateway receipt for the document would
// record: its total minus every allocation that is not voided
func (s *PaymentService) PayableBalance(ctx context.Context, txn *trade.Transaction) (decimal.Decimal, error) {
	return availableBalance(ctx, s.store, txn, decimal.Zero)
}

// RecordGatewayReceipt records a CONFIRMED receipt for the exact outstanding
// amount of one document after the gateway verified the charge. A gateway
// payment id that was already recorded returns the existing receipt.
func (s *PaymentService) RecordGatewayReceipt(ctx context.Context, req RecordReceiptRequest) (*PaymentResponse, error) {
	method := finance.PaymentMethodOnline
	if req.Method != "" {
		method = finance.PaymentMethod(req.Method)
	}

	var recorded *finance.Payment
	duplicate := false
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		existing, err := repos.Payments().FindByGatewayPaymentID(ctx, req.GatewayPaymentID)
		if err == nil {
			recorded, duplicate = existing, true
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		txn, err := repos.Transactions().FindByIDForUpdate(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		if txn.Status != trade.TransactionStatusConfirmed {
			return shared.NewInvalidStateError("can only record receipts for CONFIRMED transactions")
		}
		if !txn.Type.IsSales() {
			return shared.NewValidationError("gateway receipts can only settle sales documents")
		}
		outstanding, err := availableBalance(ctx, repos, txn, decimal.Zero)
		if err != nil {
			return err
		}
		if !outstanding.IsPositive() {
			return shared.NewInvalidStateError(fmt.Sprintf("transaction %s has no outstanding balance", txn.Number))
		}
		if shared.RoundAmount(req.VerifiedAmount).LessThan(outstanding) {
			return shared.NewValidationError(fmt.Sprintf("verified amount %s is less than the outstanding %s",
				req.VerifiedAmount.StringFixed(2), outstanding.StringFixed(2)))
		}

		number, err := shared.NextDocumentNumber(ctx, repos.Sequences(), finance.ReceiptPrefix, s.now())
		if err != nil {
			return err
		}
		now := s.now()
		p, err := finance.NewPayment(number, finance.PaymentTypeReceive, txn.ContactID(), finance.PaymentDetails{
			Amount:      outstanding,
			PaymentDate: now,
			Method:      method,
			Reference:   req.GatewayPaymentID,
			Notes:       "online payment for " + txn.Number,
		}, []finance.AllocationInput{{TransactionID: txn.ID, AllocatedAmount: outstanding}})
		if err != nil {
			return err
		}
		p.AttachGatewayPayment(req.GatewayPaymentID)
		if err := p.Confirm(); err != nil {
			return err
		}

		if err := repos.Payments().Create(ctx, p); err != nil {
			return err
		}
		if _, err := tradeapp.RecomputePaymentStatus(ctx, repos, txn.ID, s.confirmedOnly); err != nil {
			return err
		}
		recorded = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		s.logger.Info("gateway receipt already recorded",
			zap.String("gateway_payment_id", req.GatewayPaymentID),
			zap.String("payment_number", recorded.Number))
	} else {
		s.logger.Info("gateway receipt recorded",
			zap.String("gateway_payment_id", req.GatewayPaymentID),
			zap.String("payment_number", recorded.Number),
			zap.String("amount", recorded.Amount.String()))
		s.recorder.RecordTransition("PAYMENT", string(recorded.Status))
	}
	resp := ToPaymentResponse(recorded)
	return &resp, nil
}

func (s *PaymentService) details(amount decimal.Decimal, date *time.Time, method, reference, notes string) finance.PaymentDetails {
	d := finance.PaymentDetails{
		Amount:    amount,
		Method:    finance.PaymentMethod(method),
		Reference: reference,
		Notes:     notes,
	}
	if date != nil {
		d.PaymentDate = *date
	} else {
		d.PaymentDate = s.now()
	}
	return d
}

// checkTargets validates every allocation of p against its locked document.
// previous holds what p allocated before an update so that its own earlier
// allocation does not count against the outstanding balance. An allocation
// that an update keeps or lowers is accepted even if its document has been
// cancelled since.
func (s *PaymentService) checkTargets(ctx context.Context, repos scope.Repositories, p *finance.Payment, locked map[uuid.UUID]*trade.Transaction, previous map[uuid.UUID]decimal.Decimal) error {
	for _, a := range p.Allocations {
		txn, ok := locked[a.TransactionID]
		if !ok {
			return shared.NewValidationError(fmt.Sprintf("transaction %s not found", a.TransactionID))
		}
		if prev, had := previous[txn.ID]; had && txn.Status == trade.TransactionStatusCancelled &&
			a.AllocatedAmount.LessThanOrEqual(prev) {
			continue
		}
		if txn.Status != trade.TransactionStatusConfirmed {
			return shared.NewValidationError(fmt.Sprintf("transaction %s is %s, only CONFIRMED transactions can be paid", txn.Number, txn.Status))
		}
		if txn.ContactID() != p.ContactID {
			return shared.NewValidationError(fmt.Sprintf("transaction %s belongs to another contact", txn.Number))
		}
		if !compatible(p.Type, txn.Type) {
			return shared.NewValidationError(fmt.Sprintf("a %s payment cannot be allocated to %s %s", p.Type, txn.Type, txn.Number))
		}
		available, err := availableBalance(ctx, repos, txn, previous[txn.ID])
		if err != nil {
			return err
		}
		if a.AllocatedAmount.GreaterThan(available) {
			return shared.NewValidationError(fmt.Sprintf("allocation of %s exceeds the outstanding %s of %s",
				a.AllocatedAmount.StringFixed(2), available.StringFixed(2), txn.Number))
		}
	}
	return nil
}

// recompute refreshes paid amount and status of ids in lock order
func (s *PaymentService) recompute(ctx context.Context, repos scope.Repositories, ids []uuid.UUID) error {
	for _, id := range finance.SortIDs(ids) {
		txn, err := tradeapp.RecomputePaymentStatus(ctx, repos, id, s.confirmedOnly)
		if err != nil {
			return fmt.Errorf("failed to recompute payment status of %s: %w", id, err)
		}
		s.logger.Debug("payment status recomputed",
			zap.String("transaction_number", txn.Number),
			zap.String("paid_amount", txn.PaidAmount.String()),
			zap.String("payment_status", string(txn.PaymentStatus)))
	}
	return nil
}

// availableBalance is what can still be allocated to txn: its total minus
// every live allocation, whatever the owning payment's status, plus credit
// the payment being edited already holds on it
func availableBalance(ctx context.Context, repos scope.Repositories, txn *trade.Transaction, credit decimal.Decimal) (decimal.Decimal, error) {
	allocated, err := repos.Payments().SumAllocatedForTransaction(ctx, txn.ID, false)
	if err != nil {
		return decimal.Zero, err
	}
	available := txn.TotalAmount.Sub(allocated).Add(credit)
	if available.IsNegative() {
		return decimal.Zero, nil
	}
	return available, nil
}

// lockTransactions loads and locks documents in ascending id order
func lockTransactions(ctx context.Context, repos scope.Repositories, ids []uuid.UUID) (map[uuid.UUID]*trade.Transaction, error) {
	locked := make(map[uuid.UUID]*trade.Transaction, len(ids))
	for _, id := range finance.SortIDs(ids) {
		txn, err := repos.Transactions().FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		locked[id] = txn
	}
	return locked, nil
}

func allocationIDs(allocs []finance.AllocationInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(allocs))
	for _, a := range allocs {
		ids = append(ids, a.TransactionID)
	}
	return ids
}

func resolvePaymentType(requested string, contact *partner.Contact) (finance.PaymentType, error) {
	implied := finance.PaymentTypeReceive
	if contact.IsVendor() {
		implied = finance.PaymentTypeSend
	}
	if requested == "" {
		return implied, nil
	}
	t := finance.PaymentType(requested)
	if !t.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("unknown payment type %q", requested))
	}
	if t != implied {
		return "", shared.NewValidationError(fmt.Sprintf("a %s contact cannot have %s payments", contact.Type, t))
	}
	return t, nil
}

// compatible reports whether a payment direction may settle a document type
func compatible(p finance.PaymentType, t trade.TransactionType) bool {
	if p == finance.PaymentTypeSend {
		return t.IsPurchase()
	}
	return t.IsSales()
}
