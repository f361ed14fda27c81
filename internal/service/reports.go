package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"shopledger/internal/domain"
	"shopledger/internal/store"
)

// SalesReport groups the raw sale lines in [from, to] back into receipts by
// transaction id. The report totals are derived from the receipts and equal
// the raw per-line sums.
func (s *Service) SalesReport(ctx context.Context, from, to string) (domain.SalesReport, error) {
	if from == "" || to == "" {
		return domain.SalesReport{}, fmt.Errorf("from and to dates required: %w", store.ErrInvalidRecord)
	}
	if from > to {
		from, to = to, from
	}
	sales, err := s.repo.ListSalesByDateRange(ctx, from, to)
	if err != nil {
		return domain.SalesReport{}, err
	}

	byTxn := map[string]*domain.Receipt{}
	order := []string{}
	for _, sale := range sales {
		receipt, ok := byTxn[sale.TransactionID]
		if !ok {
			receipt = &domain.Receipt{
				TransactionID: sale.TransactionID,
				BillNumber:    sale.BillNumber,
				CustomerName:  sale.CustomerName,
				CustomerPhone: sale.CustomerPhone,
				PaymentMethod: sale.PaymentMethod,
				Date:          sale.Date,
				Time:          sale.Time,
			}
			byTxn[sale.TransactionID] = receipt
			order = append(order, sale.TransactionID)
		}
		receipt.Items = append(receipt.Items, sale)
		receipt.TotalQuantity += sale.QuantitySold
		receipt.Total += sale.TotalPrice
		receipt.Profit += sale.Profit
	}

	report := domain.SalesReport{From: from, To: to, Receipts: make([]domain.Receipt, 0, len(order))}
	for _, id := range order {
		report.Receipts = append(report.Receipts, *byTxn[id])
	}
	// Most recent receipt first; stable so same-minute checkouts keep
	// their first-seen order.
	slices.SortStableFunc(report.Receipts, func(a, b domain.Receipt) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return strings.Compare(b.Time, a.Time)
	})

	for _, receipt := range report.Receipts {
		report.TransactionCount++
		report.ItemsSold += receipt.TotalQuantity
		report.TotalSales += receipt.Total
		report.TotalProfit += receipt.Profit
	}
	return report, nil
}

func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	stats := domain.DashboardStats{}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return stats, err
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return stats, err
	}
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return stats, err
	}
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return stats, err
	}
	stats.ItemCount = len(items)
	stats.CategoryCount = len(categories)
	stats.CustomerCount = len(customers)
	stats.SupplierCount = len(suppliers)

	now := time.Now()
	today := now.Format("2006-01-02")
	monthStart := now.Format("2006-01") + "-01"

	monthSales, err := s.repo.ListSalesByDateRange(ctx, monthStart, today)
	if err != nil {
		return stats, err
	}
	todayTxns := map[string]struct{}{}
	for _, sale := range monthSales {
		stats.MonthSales += sale.TotalPrice
		stats.MonthProfit += sale.Profit
		if sale.Date == today {
			stats.TodaySales += sale.TotalPrice
			stats.TodayProfit += sale.Profit
			todayTxns[sale.TransactionID] = struct{}{}
		}
	}
	stats.TodayTransactions = len(todayTxns)

	stats.LowStockItems = []domain.Item{}
	for _, item := range items {
		if item.Quantity <= item.ReorderLevel {
			stats.LowStockItems = append(stats.LowStockItems, item)
		}
	}
	expiring, err := s.ExpiringItems(ctx, 30)
	if err != nil {
		return stats, err
	}
	stats.ExpiringItems = expiring
	return stats, nil
}

func (s *Service) InventoryReport(ctx context.Context) (domain.InventoryReport, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return domain.InventoryReport{}, err
	}

	report := domain.InventoryReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		ItemCount:   len(items),
		LowStock:    []domain.Item{},
		OutOfStock:  []domain.Item{},
	}
	byCategory := map[string]*domain.InventoryCategorySummary{}
	order := []string{}
	for _, item := range items {
		retail := item.Price * item.Quantity
		cost := item.CostPrice * item.Quantity
		report.TotalRetailValue += retail
		report.TotalCostValue += cost

		summary, ok := byCategory[item.Category]
		if !ok {
			summary = &domain.InventoryCategorySummary{Category: item.Category}
			byCategory[item.Category] = summary
			order = append(order, item.Category)
		}
		summary.ItemCount++
		summary.TotalQuantity += item.Quantity
		summary.RetailValue += retail
		summary.CostValue += cost

		switch {
		case item.Quantity == 0:
			report.OutOfStock = append(report.OutOfStock, item)
		case item.Quantity <= item.ReorderLevel:
			report.LowStock = append(report.LowStock, item)
		}
	}
	slices.Sort(order)
	for _, category := range order {
		report.ByCategory = append(report.ByCategory, *byCategory[category])
	}
	return report, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func (s *Service) ListSalesByDateRange(ctx context.Context, from, to string) ([]domain.Sale, error) {
	return s.repo.ListSalesByDateRange(ctx, from, to)
}

func (s *Service) ListSalesByTransaction(ctx context.Context, transactionID string) ([]domain.Sale, error) {
	return s.repo.ListSalesByTransaction(ctx, transactionID)
}

func (s *Service) ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error) {
	return s.repo.ListSalesByCustomer(ctx, customerID)
}
