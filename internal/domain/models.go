package domain

import "time"

// Item is a stock-keeping record. Category stores the category name rather
// than an id; category deletion is guarded against dangling references at the
// service layer.
type Item struct {
	ID           int64    `db:"id" json:"id"`
	Name         string   `db:"name" json:"name"`
	Category     string   `db:"category" json:"category"`
	Price        float64  `db:"price" json:"price"`
	Quantity     float64  `db:"quantity" json:"quantity"`
	CostPrice    float64  `db:"cost_price" json:"cost_price"`
	Unit         string   `db:"unit" json:"unit"`
	Barcode      string   `db:"barcode" json:"barcode,omitempty"`
	Description  string   `db:"description" json:"description,omitempty"`
	SupplierID   *int64   `db:"supplier_id" json:"supplier_id,omitempty"`
	ExpiryDate   string   `db:"expiry_date" json:"expiry_date,omitempty"`
	ReorderLevel float64  `db:"reorder_level" json:"reorder_level"`
	CreatedAt    string   `db:"created_at" json:"created_at"`
	UpdatedAt    string   `db:"updated_at" json:"updated_at"`
}

type ItemCreateRequest struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Price        float64  `json:"price"`
	Quantity     float64  `json:"quantity"`
	CostPrice    float64  `json:"cost_price"`
	Unit         string   `json:"unit"`
	Barcode      string   `json:"barcode"`
	Description  string   `json:"description"`
	SupplierID   *int64   `json:"supplier_id"`
	ExpiryDate   string   `json:"expiry_date"`
	ReorderLevel *float64 `json:"reorder_level"`
}

type Category struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

// Sale is one recorded bill line. Sales are immutable once written; the item
// name, unit and prices are snapshotted so later catalog edits do not rewrite
// history.
type Sale struct {
	ID            int64   `db:"id" json:"id"`
	ItemID        int64   `db:"item_id" json:"item_id"`
	ItemName      string  `db:"item_name" json:"item_name"`
	QuantitySold  float64 `db:"quantity_sold" json:"quantity_sold"`
	Unit          string  `db:"unit" json:"unit"`
	PricePerUnit  float64 `db:"price_per_unit" json:"price_per_unit"`
	CostPrice     float64 `db:"cost_price" json:"cost_price"`
	TotalPrice    float64 `db:"total_price" json:"total_price"`
	Profit        float64 `db:"profit" json:"profit"`
	CustomerID    *int64  `db:"customer_id" json:"customer_id,omitempty"`
	CustomerName  string  `db:"customer_name" json:"customer_name,omitempty"`
	CustomerPhone string  `db:"customer_phone" json:"customer_phone,omitempty"`
	PaymentMethod string  `db:"payment_method" json:"payment_method"`
	Discount      float64 `db:"discount" json:"discount"`
	Tax           float64 `db:"tax" json:"tax"`
	TransactionID string  `db:"transaction_id" json:"transaction_id"`
	BillNumber    string  `db:"bill_number" json:"bill_number"`
	Date          string  `db:"date" json:"date"`
	Time          string  `db:"time" json:"time"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
}

type Customer struct {
	ID             int64   `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Phone          string  `db:"phone" json:"phone"`
	Email          string  `db:"email" json:"email,omitempty"`
	Address        string  `db:"address" json:"address,omitempty"`
	LoyaltyPoints  int64   `db:"loyalty_points" json:"loyalty_points"`
	TotalPurchases int64   `db:"total_purchases" json:"total_purchases"`
	TotalSpent     float64 `db:"total_spent" json:"total_spent"`
	Notes          string  `db:"notes" json:"notes,omitempty"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	UpdatedAt      string  `db:"updated_at" json:"updated_at"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type Supplier struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Phone         string `db:"phone" json:"phone,omitempty"`
	Email         string `db:"email" json:"email,omitempty"`
	Address       string `db:"address" json:"address,omitempty"`
	ContactPerson string `db:"contact_person" json:"contact_person,omitempty"`
	Notes         string `db:"notes" json:"notes,omitempty"`
	CreatedAt     string `db:"created_at" json:"created_at"`
	UpdatedAt     string `db:"updated_at" json:"updated_at"`
}

type Purchase struct {
	ID            int64   `db:"id" json:"id"`
	ItemID        int64   `db:"item_id" json:"item_id"`
	SupplierID    *int64  `db:"supplier_id" json:"supplier_id,omitempty"`
	Quantity      float64 `db:"quantity" json:"quantity"`
	Unit          string  `db:"unit" json:"unit"`
	CostPrice     float64 `db:"cost_price" json:"cost_price"`
	TotalAmount   float64 `db:"total_amount" json:"total_amount"`
	Date          string  `db:"date" json:"date"`
	InvoiceNumber string  `db:"invoice_number" json:"invoice_number,omitempty"`
	Notes         string  `db:"notes" json:"notes,omitempty"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
}

type Expense struct {
	ID          int64   `db:"id" json:"id"`
	Category    string  `db:"category" json:"category"`
	Amount      float64 `db:"amount" json:"amount"`
	Description string  `db:"description" json:"description,omitempty"`
	Date        string  `db:"date" json:"date"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
}

// Setting is a free-form key/value pair; Value holds raw JSON so callers can
// store structured settings without schema changes.
type Setting struct {
	Key       string `db:"key" json:"key"`
	Value     string `db:"value" json:"value"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// BillLine is one line of the in-progress bill. Total is always
// Price * Quantity at the moment the line was added.
type BillLine struct {
	ItemID   int64   `json:"item_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
	Total    float64 `json:"total"`
}

type BillCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Bill is the transient checkout state. It is never persisted; it lives in
// the billing session until the sale completes or the bill is cleared.
type Bill struct {
	Lines         []BillLine   `json:"lines"`
	Customer      BillCustomer `json:"customer"`
	PaymentMethod string       `json:"payment_method"`
	UPIID         string       `json:"upi_id,omitempty"`
	Total         float64      `json:"total"`
}

type AddBillLineRequest struct {
	ItemID   int64   `json:"item_id"`
	Quantity float64 `json:"quantity"`
}

type CompleteSaleResponse struct {
	TransactionID string  `json:"transaction_id"`
	BillNumber    string  `json:"bill_number"`
	LinesRecorded int     `json:"lines_recorded"`
	LinesFailed   int     `json:"lines_failed"`
	Total         float64 `json:"total"`
	CreatedAt     string  `json:"created_at"`
}

// Receipt groups the sale lines that share a transaction id back into the
// bill the customer saw.
type Receipt struct {
	TransactionID string  `json:"transaction_id"`
	BillNumber    string  `json:"bill_number"`
	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerPhone string  `json:"customer_phone,omitempty"`
	PaymentMethod string  `json:"payment_method"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Items         []Sale  `json:"items"`
	TotalQuantity float64 `json:"total_quantity"`
	Total         float64 `json:"total"`
	Profit        float64 `json:"profit"`
}

type SalesReport struct {
	From             string    `json:"from"`
	To               string    `json:"to"`
	Receipts         []Receipt `json:"receipts"`
	TransactionCount int       `json:"transaction_count"`
	ItemsSold        float64   `json:"items_sold"`
	TotalSales       float64   `json:"total_sales"`
	TotalProfit      float64   `json:"total_profit"`
}

type DashboardStats struct {
	ItemCount         int     `json:"item_count"`
	CategoryCount     int     `json:"category_count"`
	CustomerCount     int     `json:"customer_count"`
	SupplierCount     int     `json:"supplier_count"`
	TodaySales        float64 `json:"today_sales"`
	TodayProfit       float64 `json:"today_profit"`
	TodayTransactions int     `json:"today_transactions"`
	MonthSales        float64 `json:"month_sales"`
	MonthProfit       float64 `json:"month_profit"`
	LowStockItems     []Item  `json:"low_stock_items"`
	ExpiringItems     []Item  `json:"expiring_items"`
}

type InventoryCategorySummary struct {
	Category      string  `json:"category"`
	ItemCount     int     `json:"item_count"`
	TotalQuantity float64 `json:"total_quantity"`
	RetailValue   float64 `json:"retail_value"`
	CostValue     float64 `json:"cost_value"`
}

type InventoryReport struct {
	GeneratedAt      string                     `json:"generated_at"`
	ItemCount        int                        `json:"item_count"`
	TotalRetailValue float64                    `json:"total_retail_value"`
	TotalCostValue   float64                    `json:"total_cost_value"`
	ByCategory       []InventoryCategorySummary `json:"by_category"`
	LowStock         []Item                     `json:"low_stock"`
	OutOfStock       []Item                     `json:"out_of_stock"`
}

// ExportBundle is the full-store backup format. Ids and timestamps are
// carried on export but stripped on import so the receiving store reassigns
// them.
type ExportBundle struct {
	ExportedAt string     `json:"_exportedAt"`
	Version    int        `json:"_version"`
	Items      []Item     `json:"items"`
	Categories []Category `json:"categories"`
	Sales      []Sale     `json:"sales"`
	Customers  []Customer `json:"customers"`
	Suppliers  []Supplier `json:"suppliers"`
	Purchases  []Purchase `json:"purchases"`
	Expenses   []Expense  `json:"expenses"`
	Settings   []Setting  `json:"settings"`
}

type ImportResult struct {
	Items      int `json:"items"`
	Categories int `json:"categories"`
	Sales      int `json:"sales"`
	Customers  int `json:"customers"`
	Suppliers  int `json:"suppliers"`
	Purchases  int `json:"purchases"`
	Expenses   int `json:"expenses"`
	Settings   int `json:"settings"`
	Failed     int `json:"failed"`
}

// BillSnapshot is the compact shareable form of a completed bill, small
// enough to live in a cache entry behind a short link.
type BillSnapshot struct {
	Date          string             `json:"d"`
	CustomerName  string             `json:"n,omitempty"`
	CustomerPhone string             `json:"p,omitempty"`
	BillNumber    string             `json:"b"`
	PaymentMethod string             `json:"pm"`
	UPIID         string             `json:"u,omitempty"`
	Lines         []BillSnapshotLine `json:"i"`
	Total         float64            `json:"tot"`
	ShopName      string             `json:"s,omitempty"`
}

type BillSnapshotLine struct {
	Name     string  `json:"n"`
	Quantity float64 `json:"q"`
	Unit     string  `json:"u"`
	Total    float64 `json:"t"`
}

type ShareBillResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

type LoyaltyAccrualResponse struct {
	CustomerID    int64   `json:"customer_id"`
	PointsAdded   int64   `json:"points_added"`
	LoyaltyPoints int64   `json:"loyalty_points"`
	TotalSpent    float64 `json:"total_spent"`
}

type ShopProfile struct {
	Name              string   `json:"name"`
	Address           string   `json:"address"`
	Phone             string   `json:"phone"`
	UPIID             string   `json:"upi_id"`
	BillPrefix        string   `json:"bill_prefix"`
	ExpenseCategories []string `json:"expense_categories"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentUPI  = "upi"
)

const (
	DefaultReorderLevel = 10
	DefaultBillPrefix   = "BILL"
	ExportVersion       = 1
)

// LoyaltyRupeesPerPoint is the accrual ratio: one point per whole ten rupees
// spent.
const LoyaltyRupeesPerPoint = 10

// Units lists the accepted measurement units for items.
var Units = []string{"pieces", "kg", "grams", "liters", "ml", "boxes", "packs", "dozen"}

// DefaultCategories seeds a fresh store with the usual shop departments.
var DefaultCategories = []string{
	"Grocery", "Dairy", "Snacks", "Beverages", "Personal Care",
	"Household", "Stationery", "Electronics",
}

// DefaultExpenseCategories seeds the expense category setting.
var DefaultExpenseCategories = []string{
	"Rent", "Electricity", "Salaries", "Transport", "Maintenance", "Miscellaneous",
}

// ValidUnit reports whether u is one of the accepted measurement units.
func ValidUnit(u string) bool {
	for _, v := range Units {
		if v == u {
			return true
		}
	}
	return false
}
