package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"shopledger/internal/domain"
	"shopledger/internal/store"
)

// schemaVersion is bumped whenever migrate gains statements. The schema only
// ever grows; opening an older file applies the missing pieces and never
// drops anything.
const schemaVersion = 1

type Store struct {
	db *sqlx.DB
}

func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers; SQLite does not want more.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			price REAL NOT NULL DEFAULT 0,
			quantity REAL NOT NULL DEFAULT 0,
			cost_price REAL NOT NULL DEFAULT 0,
			unit TEXT NOT NULL DEFAULT 'pieces',
			barcode TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			supplier_id INTEGER,
			expiry_date TEXT NOT NULL DEFAULT '',
			reorder_level REAL NOT NULL DEFAULT 10,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);`,
		`CREATE INDEX IF NOT EXISTS idx_items_barcode ON items(barcode);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL COLLATE NOCASE UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id INTEGER NOT NULL,
			item_name TEXT NOT NULL DEFAULT '',
			quantity_sold REAL NOT NULL DEFAULT 0,
			unit TEXT NOT NULL DEFAULT 'pieces',
			price_per_unit REAL NOT NULL DEFAULT 0,
			cost_price REAL NOT NULL DEFAULT 0,
			total_price REAL NOT NULL DEFAULT 0,
			profit REAL NOT NULL DEFAULT 0,
			customer_id INTEGER,
			customer_name TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT 'cash',
			discount REAL NOT NULL DEFAULT 0,
			tax REAL NOT NULL DEFAULT 0,
			transaction_id TEXT NOT NULL DEFAULT '',
			bill_number TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(date);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_transaction ON sales(transaction_id);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id);`,
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			loyalty_points INTEGER NOT NULL DEFAULT 0,
			total_purchases INTEGER NOT NULL DEFAULT 0,
			total_spent REAL NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone) WHERE phone <> '';`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			contact_person TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS purchases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id INTEGER NOT NULL,
			supplier_id INTEGER,
			quantity REAL NOT NULL DEFAULT 0,
			unit TEXT NOT NULL DEFAULT 'pieces',
			cost_price REAL NOT NULL DEFAULT 0,
			total_amount REAL NOT NULL DEFAULT 0,
			date TEXT NOT NULL DEFAULT '',
			invoice_number TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_supplier ON purchases(supplier_id);`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_date ON purchases(date);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL DEFAULT '',
			amount REAL NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT ''
		);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("migrate: set user_version: %w", err)
	}
	return nil
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Items

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	items := []domain.Item{}
	if err := s.db.SelectContext(ctx, &items, `SELECT * FROM items ORDER BY id`); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	item.CreatedAt = nowStamp()
	item.UpdatedAt = item.CreatedAt
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO items (name, category, price, quantity, cost_price, unit, barcode,
			description, supplier_id, expiry_date, reorder_level, created_at, updated_at)
		VALUES (:name, :category, :price, :quantity, :cost_price, :unit, :barcode,
			:description, :supplier_id, :expiry_date, :reorder_level, :created_at, :updated_at)
	`, item)
	if err != nil {
		return nil, err
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	err := s.db.GetContext(ctx, &item, `SELECT * FROM items WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %d: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	item.UpdatedAt = nowStamp()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE items
		SET name = :name, category = :category, price = :price, quantity = :quantity,
			cost_price = :cost_price, unit = :unit, barcode = :barcode,
			description = :description, supplier_id = :supplier_id,
			expiry_date = :expiry_date, reorder_level = :reorder_level,
			updated_at = :updated_at
		WHERE id = :id
	`, item)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("item %d: %w", item.ID, store.ErrNotFound)
	}
	return s.GetItem(ctx, item.ID)
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListItemsByCategory(ctx context.Context, category string) ([]domain.Item, error) {
	items := []domain.Item{}
	if err := s.db.SelectContext(ctx, &items, `SELECT * FROM items WHERE category = ? ORDER BY id`, category); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetItemByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.GetContext(ctx, &item, `SELECT * FROM items WHERE barcode = ? AND barcode <> '' LIMIT 1`, barcode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("barcode %s: %w", barcode, store.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// Categories

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	if err := s.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY id`); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	category.CreatedAt = nowStamp()
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO categories (name, description, created_at)
		VALUES (:name, :description, :created_at)
	`, category)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category name %q: %w", category.Name, store.ErrConstraintViolation)
		}
		return nil, err
	}
	category.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var category domain.Category
	err := s.db.GetContext(ctx, &category, `SELECT * FROM categories WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE categories SET name = :name, description = :description WHERE id = :id
	`, category)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category name %q: %w", category.Name, store.ErrConstraintViolation)
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("category %d: %w", category.ID, store.ErrNotFound)
	}
	return s.GetCategory(ctx, category.ID)
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// Sales

func (s *Store) RecordSaleLine(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE items
		SET quantity = quantity - ?, updated_at = ?
		WHERE id = ? AND quantity >= ?
	`, sale.QuantitySold, nowStamp(), sale.ItemID, sale.QuantitySold)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM items WHERE id = ?`, sale.ItemID); err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, fmt.Errorf("item %d: %w", sale.ItemID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("item %d: %w", sale.ItemID, store.ErrInsufficientStock)
	}

	sale.CreatedAt = nowStamp()
	ins, err := tx.NamedExecContext(ctx, `
		INSERT INTO sales (item_id, item_name, quantity_sold, unit, price_per_unit,
			cost_price, total_price, profit, customer_id, customer_name, customer_phone,
			payment_method, discount, tax, transaction_id, bill_number, date, time, created_at)
		VALUES (:item_id, :item_name, :quantity_sold, :unit, :price_per_unit,
			:cost_price, :total_price, :profit, :customer_id, :customer_name, :customer_phone,
			:payment_method, :discount, :tax, :transaction_id, :bill_number, :date, :time, :created_at)
	`, sale)
	if err != nil {
		return nil, err
	}
	sale.ID, err = ins.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	if err := s.db.SelectContext(ctx, &sales, `SELECT * FROM sales ORDER BY id`); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) ListSalesByDateRange(ctx context.Context, from, to string) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	if err := s.db.SelectContext(ctx, &sales, `
		SELECT * FROM sales WHERE date >= ? AND date <= ? ORDER BY id
	`, from, to); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) ListSalesByTransaction(ctx context.Context, transactionID string) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	if err := s.db.SelectContext(ctx, &sales, `
		SELECT * FROM sales WHERE transaction_id = ? ORDER BY id
	`, transactionID); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	if err := s.db.SelectContext(ctx, &sales, `
		SELECT * FROM sales WHERE customer_id = ? ORDER BY id
	`, customerID); err != nil {
		return nil, err
	}
	return sales, nil
}

// Customers

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if err := s.db.SelectContext(ctx, &customers, `SELECT * FROM customers ORDER BY id`); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.CreatedAt = nowStamp()
	customer.UpdatedAt = customer.CreatedAt
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO customers (name, phone, email, address, loyalty_points,
			total_purchases, total_spent, notes, created_at, updated_at)
		VALUES (:name, :phone, :email, :address, :loyalty_points,
			:total_purchases, :total_spent, :notes, :created_at, :updated_at)
	`, customer)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("customer phone %s: %w", customer.Phone, store.ErrConstraintViolation)
		}
		return nil, err
	}
	customer.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.GetContext(ctx, &customer, `SELECT * FROM customers WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &customer, nil
}

func (s *Store) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.GetContext(ctx, &customer, `SELECT * FROM customers WHERE phone = ? LIMIT 1`, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer phone %s: %w", phone, store.ErrNotFound)
		}
		return nil, err
	}
	return &customer, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.UpdatedAt = nowStamp()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE customers
		SET name = :name, phone = :phone, email = :email, address = :address,
			loyalty_points = :loyalty_points, total_purchases = :total_purchases,
			total_spent = :total_spent, notes = :notes, updated_at = :updated_at
		WHERE id = :id
	`, customer)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("customer phone %s: %w", customer.Phone, store.ErrConstraintViolation)
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("customer %d: %w", customer.ID, store.ErrNotFound)
	}
	return s.GetCustomer(ctx, customer.ID)
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// Suppliers

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers := []domain.Supplier{}
	if err := s.db.SelectContext(ctx, &suppliers, `SELECT * FROM suppliers ORDER BY id`); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.CreatedAt = nowStamp()
	supplier.UpdatedAt = supplier.CreatedAt
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO suppliers (name, phone, email, address, contact_person, notes, created_at, updated_at)
		VALUES (:name, :phone, :email, :address, :contact_person, :notes, :created_at, :updated_at)
	`, supplier)
	if err != nil {
		return nil, err
	}
	supplier.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := s.db.GetContext(ctx, &supplier, `SELECT * FROM suppliers WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.UpdatedAt = nowStamp()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE suppliers
		SET name = :name, phone = :phone, email = :email, address = :address,
			contact_person = :contact_person, notes = :notes, updated_at = :updated_at
		WHERE id = :id
	`, supplier)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("supplier %d: %w", supplier.ID, store.ErrNotFound)
	}
	return s.GetSupplier(ctx, supplier.ID)
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("supplier %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// Purchases

func (s *Store) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	purchases := []domain.Purchase{}
	if err := s.db.SelectContext(ctx, &purchases, `SELECT * FROM purchases ORDER BY id`); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	purchase.CreatedAt = nowStamp()
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO purchases (item_id, supplier_id, quantity, unit, cost_price,
			total_amount, date, invoice_number, notes, created_at)
		VALUES (:item_id, :supplier_id, :quantity, :unit, :cost_price,
			:total_amount, :date, :invoice_number, :notes, :created_at)
	`, purchase)
	if err != nil {
		return nil, err
	}
	purchase.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (s *Store) ListPurchasesBySupplier(ctx context.Context, supplierID int64) ([]domain.Purchase, error) {
	purchases := []domain.Purchase{}
	if err := s.db.SelectContext(ctx, &purchases, `
		SELECT * FROM purchases WHERE supplier_id = ? ORDER BY id
	`, supplierID); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) ListPurchasesByDateRange(ctx context.Context, from, to string) ([]domain.Purchase, error) {
	purchases := []domain.Purchase{}
	if err := s.db.SelectContext(ctx, &purchases, `
		SELECT * FROM purchases WHERE date >= ? AND date <= ? ORDER BY id
	`, from, to); err != nil {
		return nil, err
	}
	return purchases, nil
}

// Expenses

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	expenses := []domain.Expense{}
	if err := s.db.SelectContext(ctx, &expenses, `SELECT * FROM expenses ORDER BY id`); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	expense.CreatedAt = nowStamp()
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO expenses (category, amount, description, date, created_at)
		VALUES (:category, :amount, :description, :date, :created_at)
	`, expense)
	if err != nil {
		return nil, err
	}
	expense.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListExpensesByDateRange(ctx context.Context, from, to string) ([]domain.Expense, error) {
	expenses := []domain.Expense{}
	if err := s.db.SelectContext(ctx, &expenses, `
		SELECT * FROM expenses WHERE date >= ? AND date <= ? ORDER BY id
	`, from, to); err != nil {
		return nil, err
	}
	return expenses, nil
}

// Settings

func (s *Store) GetSetting(ctx context.Context, key string) (*domain.Setting, error) {
	var setting domain.Setting
	err := s.db.GetContext(ctx, &setting, `SELECT * FROM settings WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("setting %s: %w", key, store.ErrNotFound)
		}
		return nil, err
	}
	return &setting, nil
}

func (s *Store) PutSetting(ctx context.Context, setting domain.Setting) error {
	setting.UpdatedAt = nowStamp()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (:key, :value, :updated_at)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, setting)
	return err
}

func (s *Store) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	settings := []domain.Setting{}
	if err := s.db.SelectContext(ctx, &settings, `SELECT * FROM settings ORDER BY key`); err != nil {
		return nil, err
	}
	return settings, nil
}

// Export / import

func (s *Store) ExportAll(ctx context.Context) (*domain.ExportBundle, error) {
	bundle := &domain.ExportBundle{
		ExportedAt: nowStamp(),
		Version:    domain.ExportVersion,
	}
	var err error
	if bundle.Items, err = s.ListItems(ctx); err != nil {
		return nil, err
	}
	if bundle.Categories, err = s.ListCategories(ctx); err != nil {
		return nil, err
	}
	if bundle.Sales, err = s.ListSales(ctx); err != nil {
		return nil, err
	}
	if bundle.Customers, err = s.ListCustomers(ctx); err != nil {
		return nil, err
	}
	if bundle.Suppliers, err = s.ListSuppliers(ctx); err != nil {
		return nil, err
	}
	if bundle.Purchases, err = s.ListPurchases(ctx); err != nil {
		return nil, err
	}
	if bundle.Expenses, err = s.ListExpenses(ctx); err != nil {
		return nil, err
	}
	if bundle.Settings, err = s.ListSettings(ctx); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (s *Store) ImportAll(ctx context.Context, bundle domain.ExportBundle, clearExisting bool) (*domain.ImportResult, error) {
	if clearExisting {
		for _, table := range []string{"items", "categories", "sales", "customers", "suppliers", "purchases", "expenses"} {
			if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return nil, fmt.Errorf("clear %s: %w", table, err)
			}
		}
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
		sale.ID = 0
		sale.CreatedAt = nowStamp()
		// Historical sales are replayed as records only; stock is untouched.
		if _, err := s.db.NamedExecContext(ctx, `
			INSERT INTO sales (item_id, item_name, quantity_sold, unit, price_per_unit,
				cost_price, total_price, profit, customer_id, customer_name, customer_phone,
				payment_method, discount, tax, transaction_id, bill_number, date, time, created_at)
			VALUES (:item_id, :item_name, :quantity_sold, :unit, :price_per_unit,
				:cost_price, :total_price, :profit, :customer_id, :customer_name, :customer_phone,
				:payment_method, :discount, :tax, :transaction_id, :bill_number, :date, :time, :created_at)
		`, sale); err != nil {
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

// Users

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt.UTC().Format(time.RFC3339))
	if isUniqueViolation(err) {
		return fmt.Errorf("username %s: %w", user.Username, store.ErrConstraintViolation)
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, password, role, active, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.UserAccount{}
	for rows.Next() {
		var u domain.UserAccount
		var createdAt string
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE username = ?`, password, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("username %s: %w", username, store.ErrNotFound)
	}
	return nil
}
