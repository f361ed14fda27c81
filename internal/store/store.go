package store

import (
	"context"
	"errors"

	"shopledger/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidRecord       = errors.New("invalid record")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

// Repository is the storage gateway. Create methods assign ids; Update and
// Delete report ErrNotFound on unknown ids; unique index collisions (category
// name, customer phone) report ErrConstraintViolation. Deletions never
// cascade.
type Repository interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ListItemsByCategory(ctx context.Context, category string) ([]domain.Item, error)
	GetItemByBarcode(ctx context.Context, barcode string) (*domain.Item, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	// RecordSaleLine inserts the sale and decrements the item's stock in one
	// transaction. Both happen or neither does; an over-decrement reports
	// ErrInsufficientStock.
	RecordSaleLine(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	ListSalesByDateRange(ctx context.Context, from, to string) ([]domain.Sale, error)
	ListSalesByTransaction(ctx context.Context, transactionID string) ([]domain.Sale, error)
	ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error

	ListPurchases(ctx context.Context) ([]domain.Purchase, error)
	CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error)
	ListPurchasesBySupplier(ctx context.Context, supplierID int64) ([]domain.Purchase, error)
	ListPurchasesByDateRange(ctx context.Context, from, to string) ([]domain.Purchase, error)

	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListExpensesByDateRange(ctx context.Context, from, to string) ([]domain.Expense, error)

	GetSetting(ctx context.Context, key string) (*domain.Setting, error)
	PutSetting(ctx context.Context, setting domain.Setting) error
	ListSettings(ctx context.Context) ([]domain.Setting, error)

	// ExportAll snapshots every collection. ImportAll inserts the bundle's
	// records with fresh ids and timestamps; when clearExisting is set, the
	// data collections are emptied first (settings are merged, never
	// cleared).
	ExportAll(ctx context.Context) (*domain.ExportBundle, error)
	ImportAll(ctx context.Context, bundle domain.ExportBundle, clearExisting bool) (*domain.ImportResult, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
