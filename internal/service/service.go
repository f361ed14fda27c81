package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"shopledger/internal/billshare"
	"shopledger/internal/domain"
	"shopledger/internal/store"
)

var (
	ErrForbidden = errors.New("admin role required")

	// ErrCheckoutFailed is returned when not a single bill line could be
	// recorded; the bill is left untouched so the cashier can retry.
	ErrCheckoutFailed = errors.New("checkout failed")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo         store.Repository
	shares       billshare.Cache
	shareBaseURL string

	// The billing session is process-local: one logical cashier builds one
	// bill at a time.
	billMu    sync.Mutex
	bill      domain.Bill
	savedBill *domain.Bill
}

func New(repo store.Repository, shares billshare.Cache, shareBaseURL string) *Service {
	if shares == nil {
		shares = billshare.NewMemoryCache()
	}
	return &Service{
		repo:         repo,
		shares:       shares,
		shareBaseURL: shareBaseURL,
		bill:         emptyBill(),
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return ErrForbidden
	}
	return nil
}

// Items

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) GetItem(ctx context.Context, id int64) (domain.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) GetItemByBarcode(ctx context.Context, barcode string) (domain.Item, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Item{}, fmt.Errorf("barcode required: %w", store.ErrInvalidRecord)
	}
	item, err := s.repo.GetItemByBarcode(ctx, barcode)
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) ListItemsByCategory(ctx context.Context, category string) ([]domain.Item, error) {
	return s.repo.ListItemsByCategory(ctx, category)
}

// SearchItems matches the query against item names, barcodes and categories,
// case-insensitively.
func (s *Service) SearchItems(ctx context.Context, query string) ([]domain.Item, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.repo.ListItems(ctx)
	}
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Item{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), query) ||
			strings.Contains(strings.ToLower(item.Barcode), query) ||
			strings.Contains(strings.ToLower(item.Category), query) {
			out = append(out, item)
		}
	}
	return out, nil
}

// newItem applies the defaults for every field the caller omitted. This is
// the single place item defaulting happens.
func newItem(req domain.ItemCreateRequest) (domain.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" {
		return domain.Item{}, fmt.Errorf("item name required: %w", store.ErrInvalidRecord)
	}
	if req.Price < 0 || req.Quantity < 0 || req.CostPrice < 0 {
		return domain.Item{}, fmt.Errorf("negative amounts: %w", store.ErrInvalidRecord)
	}
	if req.Unit == "" {
		req.Unit = "pieces"
	}
	if !domain.ValidUnit(req.Unit) {
		return domain.Item{}, fmt.Errorf("unknown unit %q: %w", req.Unit, store.ErrInvalidRecord)
	}
	reorder := float64(domain.DefaultReorderLevel)
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return domain.Item{}, fmt.Errorf("negative reorder level: %w", store.ErrInvalidRecord)
		}
		reorder = *req.ReorderLevel
	}
	return domain.Item{
		Name:         req.Name,
		Category:     req.Category,
		Price:        req.Price,
		Quantity:     req.Quantity,
		CostPrice:    req.CostPrice,
		Unit:         req.Unit,
		Barcode:      strings.TrimSpace(req.Barcode),
		Description:  strings.TrimSpace(req.Description),
		SupplierID:   req.SupplierID,
		ExpiryDate:   strings.TrimSpace(req.ExpiryDate),
		ReorderLevel: reorder,
	}, nil
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Item{}, err
	}
	item, err := newItem(req)
	if err != nil {
		return domain.Item{}, err
	}
	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}
	return *created, nil
}

func (s *Service) UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Item{}, err
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.ID < 1 || item.Name == "" {
		return domain.Item{}, fmt.Errorf("item id and name required: %w", store.ErrInvalidRecord)
	}
	if item.Price < 0 || item.Quantity < 0 || item.CostPrice < 0 || item.ReorderLevel < 0 {
		return domain.Item{}, fmt.Errorf("negative amounts: %w", store.ErrInvalidRecord)
	}
	if !domain.ValidUnit(item.Unit) {
		return domain.Item{}, fmt.Errorf("unknown unit %q: %w", item.Unit, store.ErrInvalidRecord)
	}
	updated, err := s.repo.UpdateItem(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, id)
}

func (s *Service) LowStockItems(ctx context.Context) ([]domain.Item, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Item{}
	for _, item := range items {
		if item.Quantity <= item.ReorderLevel {
			out = append(out, item)
		}
	}
	return out, nil
}

// ExpiringItems returns items whose expiry date falls within the next `days`
// days, soonest first. Items without an expiry date never appear.
func (s *Service) ExpiringItems(ctx context.Context, days int) ([]domain.Item, error) {
	if days < 1 {
		days = 30
	}
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	today := time.Now().Format("2006-01-02")
	cutoff := time.Now().AddDate(0, 0, days).Format("2006-01-02")
	out := []domain.Item{}
	for _, item := range items {
		if item.ExpiryDate == "" {
			continue
		}
		if item.ExpiryDate >= today && item.ExpiryDate <= cutoff {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b domain.Item) int {
		return strings.Compare(a.ExpiryDate, b.ExpiryDate)
	})
	return out, nil
}

// Categories

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return domain.Category{}, fmt.Errorf("category name required: %w", store.ErrInvalidRecord)
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return domain.Category{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}
	category.Name = strings.TrimSpace(category.Name)
	if category.ID < 1 || category.Name == "" {
		return domain.Category{}, fmt.Errorf("category id and name required: %w", store.ErrInvalidRecord)
	}
	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		return domain.Category{}, err
	}
	return *updated, nil
}

// DeleteCategory refuses to remove a category while items still reference its
// name; items store the name, so deletion would leave them dangling.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	inUse, err := s.repo.ListItemsByCategory(ctx, category.Name)
	if err != nil {
		return err
	}
	if len(inUse) > 0 {
		return fmt.Errorf("category %q has %d items: %w", category.Name, len(inUse), store.ErrConstraintViolation)
	}
	return s.repo.DeleteCategory(ctx, id)
}

// Customers

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) GetCustomerByPhone(ctx context.Context, phone string) (domain.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return domain.Customer{}, fmt.Errorf("phone required: %w", store.ErrInvalidRecord)
	}
	customer, err := s.repo.GetCustomerByPhone(ctx, phone)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Customer{}, fmt.Errorf("customer name required: %w", store.ErrInvalidRecord)
	}
	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		Name:    req.Name,
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
		Notes:   req.Notes,
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.ID < 1 || customer.Name == "" {
		return domain.Customer{}, fmt.Errorf("customer id and name required: %w", store.ErrInvalidRecord)
	}
	updated, err := s.repo.UpdateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCustomer(ctx, id)
}

func (s *Service) TopCustomers(ctx context.Context, limit int) ([]domain.Customer, error) {
	if limit < 1 {
		limit = 10
	}
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		switch {
		case a.TotalSpent > b.TotalSpent:
			return -1
		case a.TotalSpent < b.TotalSpent:
			return 1
		default:
			return 0
		}
	})
	if len(customers) > limit {
		customers = customers[:limit]
	}
	return customers, nil
}

// AccrueLoyalty credits one point per whole ten rupees spent and bumps the
// customer's lifetime totals.
func (s *Service) AccrueLoyalty(ctx context.Context, customerID int64, amount float64) (domain.LoyaltyAccrualResponse, error) {
	if amount <= 0 {
		return domain.LoyaltyAccrualResponse{}, fmt.Errorf("amount must be positive: %w", store.ErrInvalidRecord)
	}
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return domain.LoyaltyAccrualResponse{}, err
	}
	points := int64(amount / domain.LoyaltyRupeesPerPoint)
	customer.LoyaltyPoints += points
	customer.TotalPurchases++
	customer.TotalSpent += amount
	updated, err := s.repo.UpdateCustomer(ctx, *customer)
	if err != nil {
		return domain.LoyaltyAccrualResponse{}, err
	}
	return domain.LoyaltyAccrualResponse{
		CustomerID:    updated.ID,
		PointsAdded:   points,
		LoyaltyPoints: updated.LoyaltyPoints,
		TotalSpent:    updated.TotalSpent,
	}, nil
}

// Suppliers

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	supplier, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *supplier, nil
}

func (s *Service) CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return domain.Supplier{}, fmt.Errorf("supplier name required: %w", store.ErrInvalidRecord)
	}
	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.ID < 1 || supplier.Name == "" {
		return domain.Supplier{}, fmt.Errorf("supplier id and name required: %w", store.ErrInvalidRecord)
	}
	updated, err := s.repo.UpdateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteSupplier(ctx, id)
}

// Purchases

func (s *Service) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	return s.repo.ListPurchases(ctx)
}

func (s *Service) ListPurchasesBySupplier(ctx context.Context, supplierID int64) ([]domain.Purchase, error) {
	return s.repo.ListPurchasesBySupplier(ctx, supplierID)
}

func (s *Service) ListPurchasesByDateRange(ctx context.Context, from, to string) ([]domain.Purchase, error) {
	return s.repo.ListPurchasesByDateRange(ctx, from, to)
}

// CreatePurchase records a restock and adds the purchased quantity to the
// item's stock. The item's cost price follows the latest purchase.
func (s *Service) CreatePurchase(ctx context.Context, purchase domain.Purchase) (domain.Purchase, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Purchase{}, err
	}
	if purchase.Quantity <= 0 || purchase.CostPrice < 0 {
		return domain.Purchase{}, fmt.Errorf("quantity must be positive: %w", store.ErrInvalidRecord)
	}
	item, err := s.repo.GetItem(ctx, purchase.ItemID)
	if err != nil {
		return domain.Purchase{}, err
	}
	if purchase.Unit == "" {
		purchase.Unit = item.Unit
	}
	if purchase.TotalAmount == 0 {
		purchase.TotalAmount = purchase.Quantity * purchase.CostPrice
	}
	if purchase.Date == "" {
		purchase.Date = time.Now().Format("2006-01-02")
	}
	created, err := s.repo.CreatePurchase(ctx, purchase)
	if err != nil {
		return domain.Purchase{}, err
	}

	item.Quantity += purchase.Quantity
	if purchase.CostPrice > 0 {
		item.CostPrice = purchase.CostPrice
	}
	if _, err := s.repo.UpdateItem(ctx, *item); err != nil {
		log.Printf("[service] WARN: purchase %d recorded but stock update failed for item %d: %v", created.ID, item.ID, err)
	}
	return *created, nil
}

// Expenses

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

func (s *Service) ListExpensesByDateRange(ctx context.Context, from, to string) ([]domain.Expense, error) {
	return s.repo.ListExpensesByDateRange(ctx, from, to)
}

func (s *Service) CreateExpense(ctx context.Context, expense domain.Expense) (domain.Expense, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Expense{}, err
	}
	if expense.Amount <= 0 {
		return domain.Expense{}, fmt.Errorf("amount must be positive: %w", store.ErrInvalidRecord)
	}
	if expense.Category == "" {
		expense.Category = "Miscellaneous"
	}
	if expense.Date == "" {
		expense.Date = time.Now().Format("2006-01-02")
	}
	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	return *created, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteExpense(ctx, id)
}

// Settings

const (
	settingShopName          = "shop_name"
	settingShopAddress       = "shop_address"
	settingShopPhone         = "shop_phone"
	settingUPIID             = "upi_id"
	settingBillPrefix        = "bill_prefix"
	settingExpenseCategories = "expense_categories"
)

func (s *Service) ShopProfile(ctx context.Context) (domain.ShopProfile, error) {
	profile := domain.ShopProfile{BillPrefix: domain.DefaultBillPrefix}
	profile.Name = s.settingString(ctx, settingShopName, "My Shop")
	profile.Address = s.settingString(ctx, settingShopAddress, "")
	profile.Phone = s.settingString(ctx, settingShopPhone, "")
	profile.UPIID = s.settingString(ctx, settingUPIID, "")
	profile.BillPrefix = s.settingString(ctx, settingBillPrefix, domain.DefaultBillPrefix)

	raw := s.settingString(ctx, settingExpenseCategories, "")
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &profile.ExpenseCategories); err != nil {
			log.Printf("[service] WARN: malformed expense_categories setting: %v", err)
		}
	}
	if len(profile.ExpenseCategories) == 0 {
		profile.ExpenseCategories = domain.DefaultExpenseCategories
	}
	return profile, nil
}

func (s *Service) UpdateShopProfile(ctx context.Context, profile domain.ShopProfile) (domain.ShopProfile, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ShopProfile{}, err
	}
	if profile.BillPrefix == "" {
		profile.BillPrefix = domain.DefaultBillPrefix
	}
	if len(profile.ExpenseCategories) == 0 {
		profile.ExpenseCategories = domain.DefaultExpenseCategories
	}
	categories, err := json.Marshal(profile.ExpenseCategories)
	if err != nil {
		return domain.ShopProfile{}, err
	}
	pairs := []domain.Setting{
		{Key: settingShopName, Value: quoteJSON(profile.Name)},
		{Key: settingShopAddress, Value: quoteJSON(profile.Address)},
		{Key: settingShopPhone, Value: quoteJSON(profile.Phone)},
		{Key: settingUPIID, Value: quoteJSON(profile.UPIID)},
		{Key: settingBillPrefix, Value: quoteJSON(profile.BillPrefix)},
		{Key: settingExpenseCategories, Value: string(categories)},
	}
	for _, setting := range pairs {
		if err := s.repo.PutSetting(ctx, setting); err != nil {
			return domain.ShopProfile{}, err
		}
	}
	return profile, nil
}

// settingString reads a JSON string setting, falling back when the key is
// missing or malformed.
func (s *Service) settingString(ctx context.Context, key, fallback string) string {
	setting, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return fallback
	}
	var out string
	if err := json.Unmarshal([]byte(setting.Value), &out); err != nil || out == "" {
		return fallback
	}
	return out
}

func quoteJSON(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// Export / import

func (s *Service) ExportData(ctx context.Context) (domain.ExportBundle, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ExportBundle{}, err
	}
	bundle, err := s.repo.ExportAll(ctx)
	if err != nil {
		return domain.ExportBundle{}, err
	}
	return *bundle, nil
}

func (s *Service) ImportData(ctx context.Context, bundle domain.ExportBundle, clearExisting bool) (domain.ImportResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ImportResult{}, err
	}
	if bundle.Version > domain.ExportVersion {
		return domain.ImportResult{}, fmt.Errorf("bundle version %d not supported: %w", bundle.Version, store.ErrInvalidRecord)
	}
	result, err := s.repo.ImportAll(ctx, bundle, clearExisting)
	if err != nil {
		return domain.ImportResult{}, err
	}
	if result.Failed > 0 {
		log.Printf("[service] import finished with %d failed records", result.Failed)
	}
	return *result, nil
}
