package models

// DocumentSequenceModel is one document-number counter, keyed by prefix and month (e.g. "PO-2602")
type DocumentSequenceModel struct {
	Name         string `gorm:"type:varchar(32);primary_key"`
	CurrentValue int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}

// AllModels lists every model in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&AnalyticalAccountModel{},
		&AutoAnalyticalModelModel{},
		&BudgetModel{},
		&ContactModel{},
		&ProductModel{},
		&TransactionModel{},
		&TransactionLineModel{},
		&PaymentModel{},
		&PaymentAllocationModel{},
		&DocumentSequenceModel{},
	}
}
