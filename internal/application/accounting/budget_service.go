package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SummaryExporter renders a budget summary into a downloadable document
type SummaryExporter interface {
	ExportBudgetSummary(summary accounting.BudgetSummary) ([]byte, error)
	ContentType() string
}

// ReportArchive keeps exported reports in object storage and hands out
// time-limited download links for them
type ReportArchive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// BudgetServiceOption configures optional collaborators of a BudgetService
type BudgetServiceOption func(*BudgetService)

// WithReportArchive enables ArchiveSummary
func WithReportArchive(archive ReportArchive) BudgetServiceOption {
	return func(s *BudgetService) {
		s.archive = archive
	}
}

// WithBudgetClock overrides the clock used to stamp archived reports
func WithBudgetClock(now func() time.Time) BudgetServiceOption {
	return func(s *BudgetService) {
		s.now = now
	}
}

// AccrueUsage adds amount to the used amount of the (account, period) budget.
// Unbudgeted spend is not tracked, so a missing budget is not an error.
// budgets must be bound to the caller's database transaction.
func AccrueUsage(ctx context.Context, budgets accounting.BudgetRepository, accountID uuid.UUID, period accounting.Period, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, nil
	}
	return budgets.AddUsage(ctx, accountID, period, shared.RoundAmount(amount))
}

// ReverseUsage subtracts a previously accrued amount
func ReverseUsage(ctx context.Context, budgets accounting.BudgetRepository, accountID uuid.UUID, period accounting.Period, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, nil
	}
	return budgets.AddUsage(ctx, accountID, period, shared.RoundAmount(amount).Neg())
}

// BudgetService manages per-account monthly budgets
type BudgetService struct {
	budgetRepo  accounting.BudgetRepository
	accountRepo accounting.AnalyticalAccountRepository
	exporter    SummaryExporter
	archive     ReportArchive
	now         func() time.Time
}

// NewBudgetService creates a new BudgetService. exporter may be nil, in which
// case ExportSummary is unavailable.
func NewBudgetService(
	budgetRepo accounting.BudgetRepository,
	accountRepo accounting.AnalyticalAccountRepository,
	exporter SummaryExporter,
	opts ...BudgetServiceOption,
) *BudgetService {
	s := &BudgetService{
		budgetRepo:  budgetRepo,
		accountRepo: accountRepo,
		exporter:    exporter,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of budgets
func (s *BudgetService) List(ctx context.Context, filter BudgetListFilter) (shared.Paginated[BudgetResponse], error) {
	domainFilter := accounting.BudgetFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "year",
			OrderDir: "desc",
		}.Normalize(),
		Year:                filter.Year,
		Month:               filter.Month,
		AnalyticalAccountID: filter.AnalyticalAccountID,
	}

	budgets, total, err := s.budgetRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[BudgetResponse]{}, err
	}
	return shared.NewPaginated(ToBudgetResponses(budgets), total, domainFilter.Page, domainFilter.PageSize), nil
}

// GetByID returns one budget
func (s *BudgetService) GetByID(ctx context.Context, id uuid.UUID) (*BudgetResponse, error) {
	budget, err := s.budgetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// GetSummary aggregates allocated vs used across every budget of a period
func (s *BudgetService) GetSummary(ctx context.Context, year, month int) (*BudgetSummaryResponse, error) {
	summary, err := s.summarize(ctx, accounting.Period{Year: year, Month: month})
	if err != nil {
		return nil, err
	}
	resp := ToBudgetSummaryResponse(summary)
	return &resp, nil
}

// ExportSummary renders the period summary with the configured exporter.
// Returns the document bytes and its content type.
func (s *BudgetService) ExportSummary(ctx context.Context, year, month int) ([]byte, string, error) {
	if s.exporter == nil {
		return nil, "", shared.NewInvalidStateError("budget export is not configured")
	}
	summary, err := s.summarize(ctx, accounting.Period{Year: year, Month: month})
	if err != nil {
		return nil, "", err
	}
	data, err := s.exporter.ExportBudgetSummary(summary)
	if err != nil {
		return nil, "", err
	}
	return data, s.exporter.ContentType(), nil
}

// ArchiveSummary exports the period summary, stores it in the report archive
// and returns a download link. Every call writes a new object.
func (s *BudgetService) ArchiveSummary(ctx context.Context, year, month int) (*ArchivedReportResponse, error) {
	if s.archive == nil {
		return nil, shared.NewInvalidStateError("report archive is not configured")
	}
	data, contentType, err := s.ExportSummary(ctx, year, month)
	if err != nil {
		return nil, err
	}

	key := SummaryArchiveKey(accounting.Period{Year: year, Month: month}, s.now())
	if err := s.archive.Store(ctx, key, data, contentType); err != nil {
		return nil, shared.NewExternalServiceError("failed to archive budget summary", err)
	}
	url, expiresAt, err := s.archive.DownloadURL(ctx, key)
	if err != nil {
		return nil, shared.NewExternalServiceError("failed to sign report download", err)
	}
	return &ArchivedReportResponse{
		Key:         key,
		Size:        len(data),
		ContentType: contentType,
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	}, nil
}

// SummaryArchiveKey is the object key of a summary archived at the given time,
// e.g. budget-summaries/2025/06/budget-summary-2025-06-20250701T093000Z.xlsx
func SummaryArchiveKey(period accounting.Period, at time.Time) string {
	return fmt.Sprintf("budget-summaries/%04d/%02d/budget-summary-%04d-%02d-%s.xlsx",
		period.Year, period.Month, period.Year, period.Month, at.UTC().Format("20060102T150405Z"))
}

func (s *BudgetService) summarize(ctx context.Context, period accounting.Period) (accounting.BudgetSummary, error) {
	if err := period.Validate(); err != nil {
		return accounting.BudgetSummary{}, err
	}
	budgets, err := s.findPeriod(ctx, period)
	if err != nil {
		return accounting.BudgetSummary{}, err
	}

	ids := make([]uuid.UUID, 0, len(budgets))
	for _, b := range budgets {
		ids = append(ids, b.AnalyticalAccountID)
	}
	accounts, err := s.accountRepo.FindByIDs(ctx, ids)
	if err != nil {
		return accounting.BudgetSummary{}, err
	}
	byID := make(map[uuid.UUID]accounting.AnalyticalAccount, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return accounting.Summarize(period, budgets, byID), nil
}

// findPeriod pages through every budget of a period
func (s *BudgetService) findPeriod(ctx context.Context, period accounting.Period) ([]accounting.Budget, error) {
	year, month := period.Year, period.Month
	filter := accounting.BudgetFilter{
		Filter: shared.Filter{Page: 1, PageSize: 100, OrderBy: "created_at", OrderDir: "asc"},
		Year:   &year,
		Month:  &month,
	}
	var all []accounting.Budget
	for {
		page, total, err := s.budgetRepo.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		filter.Page++
	}
}

// Create creates a budget for an active account and a period without one
func (s *BudgetService) Create(ctx context.Context, req CreateBudgetRequest) (*BudgetResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, req.AnalyticalAccountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("analytical account not found")
		}
		return nil, err
	}
	if !account.IsActive() {
		return nil, shared.NewValidationError("cannot budget an archived analytical account")
	}

	period := accounting.Period{Year: req.Year, Month: req.Month}
	budget, err := accounting.NewBudget(req.AnalyticalAccountID, period, req.AllocatedAmount)
	if err != nil {
		return nil, err
	}

	exists, err := s.budgetRepo.ExistsForPeriod(ctx, req.AnalyticalAccountID, period)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "a budget already exists for this account and period")
	}

	if err := s.budgetRepo.Save(ctx, budget); err != nil {
		return nil, err
	}
	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// Update changes the allocated amount. The used amount is never edited here.
func (s *BudgetService) Update(ctx context.Context, id uuid.UUID, req UpdateBudgetRequest) (*BudgetResponse, error) {
	budget, err := s.budgetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := budget.SetAllocated(req.AllocatedAmount); err != nil {
		return nil, err
	}
	if err := s.budgetRepo.Save(ctx, budget); err != nil {
		return nil, err
	}
	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// Delete removes a budget
func (s *BudgetService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.budgetRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.budgetRepo.Delete(ctx, id)
}

// AccrueUsage adds amount to the (account, year, month) budget outside any
// wider transaction. Reports whether a budget was found.
func (s *BudgetService) AccrueUsage(ctx context.Context, accountID uuid.UUID, year, month int, amount decimal.Decimal) (bool, error) {
	period := accounting.Period{Year: year, Month: month}
	if err := period.Validate(); err != nil {
		return false, err
	}
	return AccrueUsage(ctx, s.budgetRepo, accountID, period, amount)
}

// ReverseUsage credits amount back to the (account, year, month) budget
func (s *BudgetService) ReverseUsage(ctx context.Context, accountID uuid.UUID, year, month int, amount decimal.Decimal) (bool, error) {
	period := accounting.Period{Year: year, Month: month}
	if err := period.Validate(); err != nil {
		return false, err
	}
	return ReverseUsage(ctx, s.budgetRepo, accountID, period, amount)
}
