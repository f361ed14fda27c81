package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shopledger/internal/domain"
	"shopledger/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	nextID          map[string]int64
	items           map[int64]domain.Item
	categories      map[int64]domain.Category
	sales           map[int64]domain.Sale
	customers       map[int64]domain.Customer
	suppliers       map[int64]domain.Supplier
	purchases       map[int64]domain.Purchase
	expenses        map[int64]domain.Expense
	settings        map[string]domain.Setting
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		nextID:          map[string]int64{},
		items:           map[int64]domain.Item{},
		categories:      map[int64]domain.Category{},
		sales:           map[int64]domain.Sale{},
		customers:       map[int64]domain.Customer{},
		suppliers:       map[int64]domain.Supplier{},
		purchases:       map[int64]domain.Purchase{},
		expenses:        map[int64]domain.Expense{},
		settings:        map[string]domain.Setting{},
		usersByUsername: map[string]domain.UserAccount{},
	}
}

// NewSeeded returns a store preloaded with the default categories, the
// expense category setting, and dev/demo user accounts.
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()
	for _, name := range domain.DefaultCategories {
		if _, err := s.CreateCategory(ctx, domain.Category{Name: name}); err != nil {
			log.Fatalf("[memory-store] seed category %s: %v", name, err)
		}
	}
	for _, setting := range defaultSettings() {
		if err := s.PutSetting(ctx, setting); err != nil {
			log.Fatalf("[memory-store] seed setting %s: %v", setting.Key, err)
		}
	}
	s.usersByUsername = seedUsers()
	return s
}

func defaultSettings() []domain.Setting {
	categories := `["` + strings.Join(domain.DefaultExpenseCategories, `","`) + `"]`
	return []domain.Setting{
		{Key: "shop_name", Value: `"My Shop"`},
		{Key: "bill_prefix", Value: `"` + domain.DefaultBillPrefix + `"`},
		{Key: "expense_categories", Value: categories},
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables; hardcoded dev defaults apply when unset, with a
// warning printed to stdout.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) allocID(collection string) int64 {
	s.nextID[collection]++
	return s.nextID[collection]
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Items

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, cloneItem(item))
	}
	sortByID(out, func(i domain.Item) int64 { return i.ID })
	return out, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.allocID("items")
	item.CreatedAt = nowStamp()
	item.UpdatedAt = item.CreatedAt
	s.items[item.ID] = cloneItem(item)
	return &item, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	out := cloneItem(item)
	return &out, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[item.ID]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", item.ID, store.ErrNotFound)
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = nowStamp()
	s.items[item.ID] = cloneItem(item)
	return &item, nil
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListItemsByCategory(ctx context.Context, category string) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Item{}
	for _, item := range s.items {
		if item.Category == category {
			out = append(out, cloneItem(item))
		}
	}
	sortByID(out, func(i domain.Item) int64 { return i.ID })
	return out, nil
}

func (s *Store) GetItemByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.Barcode != "" && item.Barcode == barcode {
			out := cloneItem(item)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("barcode %s: %w", barcode, store.ErrNotFound)
}

// Categories

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sortByID(out, func(c domain.Category) int64 { return c.ID })
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return nil, fmt.Errorf("category name %q: %w", category.Name, store.ErrConstraintViolation)
		}
	}
	category.ID = s.allocID("categories")
	category.CreatedAt = nowStamp()
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[category.ID]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", category.ID, store.ErrNotFound)
	}
	for _, c := range s.categories {
		if c.ID != category.ID && strings.EqualFold(c.Name, category.Name) {
			return nil, fmt.Errorf("category name %q: %w", category.Name, store.ErrConstraintViolation)
		}
	}
	category.CreatedAt = existing.CreatedAt
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	delete(s.categories, id)
	return nil
}

// Sales

func (s *Store) RecordSaleLine(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[sale.ItemID]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", sale.ItemID, store.ErrNotFound)
	}
	if item.Quantity < sale.QuantitySold {
		return nil, fmt.Errorf("item %d has %.3f, want %.3f: %w",
			sale.ItemID, item.Quantity, sale.QuantitySold, store.ErrInsufficientStock)
	}
	item.Quantity -= sale.QuantitySold
	item.UpdatedAt = nowStamp()
	s.items[item.ID] = item

	sale.ID = s.allocID("sales")
	sale.CreatedAt = nowStamp()
	s.sales[sale.ID] = cloneSale(sale)
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, cloneSale(sale))
	}
	sortByID(out, func(sl domain.Sale) int64 { return sl.ID })
	return out, nil
}

func (s *Store) ListSalesByDateRange(ctx context.Context, from, to string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Sale{}
	for _, sale := range s.sales {
		if sale.Date >= from && sale.Date <= to {
			out = append(out, cloneSale(sale))
		}
	}
	sortByID(out, func(sl domain.Sale) int64 { return sl.ID })
	return out, nil
}

func (s *Store) ListSalesByTransaction(ctx context.Context, transactionID string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Sale{}
	for _, sale := range s.sales {
		if sale.TransactionID == transactionID {
			out = append(out, cloneSale(sale))
		}
	}
	sortByID(out, func(sl domain.Sale) int64 { return sl.ID })
	return out, nil
}

func (s *Store) ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Sale{}
	for _, sale := range s.sales {
		if sale.CustomerID != nil && *sale.CustomerID == customerID {
			out = append(out, cloneSale(sale))
		}
	}
	sortByID(out, func(sl domain.Sale) int64 { return sl.ID })
	return out, nil
}

// Customers

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sortByID(out, func(c domain.Customer) int64 { return c.ID })
	return out, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if customer.Phone != "" {
		for _, c := range s.customers {
			if c.Phone == customer.Phone {
				return nil, fmt.Errorf("customer phone %s: %w", customer.Phone, store.ErrConstraintViolation)
			}
		}
	}
	customer.ID = s.allocID("customers")
	customer.CreatedAt = nowStamp()
	customer.UpdatedAt = customer.CreatedAt
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.Phone == phone {
			out := c
			return &out, nil
		}
	}
	return nil, fmt.Errorf("customer phone %s: %w", phone, store.ErrNotFound)
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.customers[customer.ID]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", customer.ID, store.ErrNotFound)
	}
	if customer.Phone != "" {
		for _, c := range s.customers {
			if c.ID != customer.ID && c.Phone == customer.Phone {
				return nil, fmt.Errorf("customer phone %s: %w", customer.Phone, store.ErrConstraintViolation)
			}
		}
	}
	customer.CreatedAt = existing.CreatedAt
	customer.UpdatedAt = nowStamp()
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	delete(s.customers, id)
	return nil
}

// Suppliers

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		out = append(out, sup)
	}
	sortByID(out, func(sp domain.Supplier) int64 { return sp.ID })
	return out, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	supplier.ID = s.allocID("suppliers")
	supplier.CreatedAt = nowStamp()
	supplier.UpdatedAt = supplier.CreatedAt
	s.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sup, ok := s.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("supplier %d: %w", id, store.ErrNotFound)
	}
	return &sup, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.suppliers[supplier.ID]
	if !ok {
		return nil, fmt.Errorf("supplier %d: %w", supplier.ID, store.ErrNotFound)
	}
	supplier.CreatedAt = existing.CreatedAt
	supplier.UpdatedAt = nowStamp()
	s.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[id]; !ok {
		return fmt.Errorf("supplier %d: %w", id, store.ErrNotFound)
	}
	delete(s.suppliers, id)
	return nil
}

// Purchases

func (s *Store) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		out = append(out, clonePurchase(p))
	}
	sortByID(out, func(p domain.Purchase) int64 { return p.ID })
	return out, nil
}

func (s *Store) CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purchase.ID = s.allocID("purchases")
	purchase.CreatedAt = nowStamp()
	s.purchases[purchase.ID] = clonePurchase(purchase)
	return &purchase, nil
}

func (s *Store) ListPurchasesBySupplier(ctx context.Context, supplierID int64) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Purchase{}
	for _, p := range s.purchases {
		if p.SupplierID != nil && *p.SupplierID == supplierID {
			out = append(out, clonePurchase(p))
		}
	}
	sortByID(out, func(p domain.Purchase) int64 { return p.ID })
	return out, nil
}

func (s *Store) ListPurchasesByDateRange(ctx context.Context, from, to string) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Purchase{}
	for _, p := range s.purchases {
		if p.Date >= from && p.Date <= to {
			out = append(out, clonePurchase(p))
		}
	}
	sortByID(out, func(p domain.Purchase) int64 { return p.ID })
	return out, nil
}

// Expenses

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	sortByID(out, func(e domain.Expense) int64 { return e.ID })
	return out, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expense.ID = s.allocID("expenses")
	expense.CreatedAt = nowStamp()
	s.expenses[expense.ID] = expense
	return &expense, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %d: %w", id, store.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpensesByDateRange(ctx context.Context, from, to string) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Expense{}
	for _, e := range s.expenses {
		if e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	sortByID(out, func(e domain.Expense) int64 { return e.ID })
	return out, nil
}

// Settings

func (s *Store) GetSetting(ctx context.Context, key string) (*domain.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	setting, ok := s.settings[key]
	if !ok {
		return nil, fmt.Errorf("setting %s: %w", key, store.ErrNotFound)
	}
	return &setting, nil
}

func (s *Store) PutSetting(ctx context.Context, setting domain.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	setting.UpdatedAt = nowStamp()
	s.settings[setting.Key] = setting
	return nil
}

func (s *Store) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Setting, 0, len(s.settings))
	for _, setting := range s.settings {
		out = append(out, setting)
	}
	slices.SortFunc(out, func(a, b domain.Setting) int {
		return strings.Compare(a.Key, b.Key)
	})
	return out, nil
}

// Export / import

func (s *Store) ExportAll(ctx context.Context) (*domain.ExportBundle, error) {
	items, _ := s.ListItems(ctx)
	categories, _ := s.ListCategories(ctx)
	sales, _ := s.ListSales(ctx)
	customers, _ := s.ListCustomers(ctx)
	suppliers, _ := s.ListSuppliers(ctx)
	purchases, _ := s.ListPurchases(ctx)
	expenses, _ := s.ListExpenses(ctx)
	settings, _ := s.ListSettings(ctx)
	return &domain.ExportBundle{
		ExportedAt: nowStamp(),
		Version:    domain.ExportVersion,
		Items:      items,
		Categories: categories,
		Sales:      sales,
		Customers:  customers,
		Suppliers:  suppliers,
		Purchases:  purchases,
		Expenses:   expenses,
		Settings:   settings,
	}, nil
}

func (s *Store) ImportAll(ctx context.Context, bundle domain.ExportBundle, clearExisting bool) (*domain.ImportResult, error) {
	if clearExisting {
		s.mu.Lock()
		s.items = map[int64]domain.Item{}
		s.categories = map[int64]domain.Category{}
		s.sales = map[int64]domain.Sale{}
		s.customers = map[int64]domain.Customer{}
		s.suppliers = map[int64]domain.Supplier{}
		s.purchases = map[int64]domain.Purchase{}
		s.expenses = map[int64]domain.Expense{}
		s.mu.Unlock()
	}

	result := &domain.ImportResult{}
	for _, c := range bundle.Categories {
		c.ID, c.CreatedAt = 0, ""
		if _, err := s.CreateCategory(ctx, c); err != nil {
			result.Failed++
			continue
		}
		result.Categories++
	}
	for _, item := range bundle.Items {
		item.ID, item.CreatedAt, item.UpdatedAt = 0, "", ""
		if _, err := s.CreateItem(ctx, item); err != nil {
			result.Failed++
			continue
		}
		result.Items++
	}
	for _, c := range bundle.Customers {
		c.ID, c.CreatedAt, c.UpdatedAt = 0, "", ""
		if _, err := s.CreateCustomer(ctx, c); err != nil {
			result.Failed++
			continue
		}
		result.Customers++
	}
	for _, sup := range bundle.Suppliers {
		sup.ID, sup.CreatedAt, sup.UpdatedAt = 0, "", ""
		if _, err := s.CreateSupplier(ctx, sup); err != nil {
			result.Failed++
			continue
		}
		result.Suppliers++
	}
	for _, sale := range bundle.Sales {
		sale.ID, sale.CreatedAt = 0, ""
		if err := s.insertSaleRaw(sale); err != nil {
			result.Failed++
			continue
		}
		result.Sales++
	}
	for _, p := range bundle.Purchases {
		p.ID, p.CreatedAt = 0, ""
		if _, err := s.CreatePurchase(ctx, p); err != nil {
			result.Failed++
			continue
		}
		result.Purchases++
	}
	for _, e := range bundle.Expenses {
		e.ID, e.CreatedAt = 0, ""
		if _, err := s.CreateExpense(ctx, e); err != nil {
			result.Failed++
			continue
		}
		result.Expenses++
	}
	for _, setting := range bundle.Settings {
		if err := s.PutSetting(ctx, setting); err != nil {
			result.Failed++
			continue
		}
		result.Settings++
	}
	return result, nil
}

// insertSaleRaw stores a historical sale without touching stock; imports
// replay history, they do not re-sell the items.
func (s *Store) insertSaleRaw(sale domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale.ID = s.allocID("sales")
	sale.CreatedAt = nowStamp()
	s.sales[sale.ID] = cloneSale(sale)
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[user.Username]; exists {
		return fmt.Errorf("username %s: %w", user.Username, store.ErrConstraintViolation)
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.usersByUsername[username]
	if !ok {
		return fmt.Errorf("username %s: %w", username, store.ErrNotFound)
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// helpers

func sortByID[T any](items []T, id func(T) int64) {
	slices.SortFunc(items, func(a, b T) int {
		switch {
		case id(a) < id(b):
			return -1
		case id(a) > id(b):
			return 1
		default:
			return 0
		}
	})
}

func cloneItem(item domain.Item) domain.Item {
	out := item
	if item.SupplierID != nil {
		v := *item.SupplierID
		out.SupplierID = &v
	}
	return out
}

func cloneSale(sale domain.Sale) domain.Sale {
	out := sale
	if sale.CustomerID != nil {
		v := *sale.CustomerID
		out.CustomerID = &v
	}
	return out
}

func clonePurchase(p domain.Purchase) domain.Purchase {
	out := p
	if p.SupplierID != nil {
		v := *p.SupplierID
		out.SupplierID = &v
	}
	return out
}
