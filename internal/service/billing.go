package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"shopledger/internal/billshare"
	"shopledger/internal/domain"
	"shopledger/internal/store"
	"shopledger/internal/xid"
)

func emptyBill() domain.Bill {
	return domain.Bill{
		Lines:         []domain.BillLine{},
		PaymentMethod: domain.PaymentCash,
	}
}

func billTotal(bill domain.Bill) float64 {
	var total float64
	for _, line := range bill.Lines {
		total += line.Total
	}
	return total
}

func cloneBill(bill domain.Bill) domain.Bill {
	out := bill
	out.Lines = append([]domain.BillLine{}, bill.Lines...)
	out.Total = billTotal(out)
	return out
}

// Bill returns a copy of the in-progress bill.
func (s *Service) Bill() domain.Bill {
	s.billMu.Lock()
	defer s.billMu.Unlock()
	return cloneBill(s.bill)
}

// AddBillLine re-reads the item and rejects the line when the requested
// quantity, together with quantities of the same item already on the bill,
// exceeds current stock.
func (s *Service) AddBillLine(ctx context.Context, req domain.AddBillLineRequest) (domain.Bill, error) {
	if req.Quantity <= 0 {
		return domain.Bill{}, fmt.Errorf("quantity must be positive: %w", store.ErrInvalidRecord)
	}
	item, err := s.repo.GetItem(ctx, req.ItemID)
	if err != nil {
		return domain.Bill{}, err
	}

	s.billMu.Lock()
	defer s.billMu.Unlock()

	var pending float64
	for _, line := range s.bill.Lines {
		if line.ItemID == item.ID {
			pending += line.Quantity
		}
	}
	if pending+req.Quantity > item.Quantity {
		return domain.Bill{}, fmt.Errorf("item %q has %.3f %s in stock, bill wants %.3f: %w",
			item.Name, item.Quantity, item.Unit, pending+req.Quantity, store.ErrInsufficientStock)
	}

	s.bill.Lines = append(s.bill.Lines, domain.BillLine{
		ItemID:   item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Unit:     item.Unit,
		Quantity: req.Quantity,
		Total:    item.Price * req.Quantity,
	})
	return cloneBill(s.bill), nil
}

// RemoveBillLine removes the line at the given zero-based position.
func (s *Service) RemoveBillLine(index int) (domain.Bill, error) {
	s.billMu.Lock()
	defer s.billMu.Unlock()
	if index < 0 || index >= len(s.bill.Lines) {
		return domain.Bill{}, fmt.Errorf("line %d out of range: %w", index, store.ErrInvalidRecord)
	}
	s.bill.Lines = append(s.bill.Lines[:index], s.bill.Lines[index+1:]...)
	return cloneBill(s.bill), nil
}

func (s *Service) SetBillCustomer(customer domain.BillCustomer) domain.Bill {
	s.billMu.Lock()
	defer s.billMu.Unlock()
	s.bill.Customer = domain.BillCustomer{
		Name:  strings.TrimSpace(customer.Name),
		Phone: strings.TrimSpace(customer.Phone),
		Email: strings.TrimSpace(customer.Email),
	}
	return cloneBill(s.bill)
}

func (s *Service) SetPaymentMethod(method, upiID string) (domain.Bill, error) {
	switch method {
	case domain.PaymentCash, domain.PaymentCard, domain.PaymentUPI:
	default:
		return domain.Bill{}, fmt.Errorf("unknown payment method %q: %w", method, store.ErrInvalidRecord)
	}
	s.billMu.Lock()
	defer s.billMu.Unlock()
	s.bill.PaymentMethod = method
	if method == domain.PaymentUPI {
		s.bill.UPIID = strings.TrimSpace(upiID)
	} else {
		s.bill.UPIID = ""
	}
	return cloneBill(s.bill), nil
}

// DuplicateBill stashes a snapshot of the current bill. After the sale
// completes, the session restores the snapshot instead of starting empty, so
// the next customer buying the same basket is one tap away.
func (s *Service) DuplicateBill() (domain.Bill, error) {
	s.billMu.Lock()
	defer s.billMu.Unlock()
	if len(s.bill.Lines) == 0 {
		return domain.Bill{}, fmt.Errorf("bill is empty: %w", store.ErrInvalidRecord)
	}
	snapshot := cloneBill(s.bill)
	s.savedBill = &snapshot
	return cloneBill(s.bill), nil
}

func (s *Service) ClearBill() domain.Bill {
	s.billMu.Lock()
	defer s.billMu.Unlock()
	s.bill = emptyBill()
	s.savedBill = nil
	return cloneBill(s.bill)
}

// CompleteSale records every line of the bill under one transaction id. Each
// line moves its sale record and stock decrement together; a line that fails
// is logged and skipped so the rest of the bill still sells. The bill is
// kept untouched only when no line at all could be recorded.
func (s *Service) CompleteSale(ctx context.Context) (domain.CompleteSaleResponse, error) {
	s.billMu.Lock()
	defer s.billMu.Unlock()

	if len(s.bill.Lines) == 0 {
		return domain.CompleteSaleResponse{}, fmt.Errorf("bill is empty: %w", store.ErrInvalidRecord)
	}

	now := time.Now()
	profile, _ := s.ShopProfile(ctx)
	transactionID := xid.TransactionID(now)
	billNumber := xid.BillNumber(profile.BillPrefix, now)
	date := now.Format("2006-01-02")
	clock := now.Format("15:04")

	var customerID *int64
	if s.bill.Customer.Phone != "" {
		if customer, err := s.repo.GetCustomerByPhone(ctx, s.bill.Customer.Phone); err == nil {
			customerID = &customer.ID
		}
	}

	recorded, failed := 0, 0
	var total float64
	for _, line := range s.bill.Lines {
		item, err := s.repo.GetItem(ctx, line.ItemID)
		if err != nil {
			log.Printf("[service] checkout line skipped, item %d: %v", line.ItemID, err)
			failed++
			continue
		}
		sale := domain.Sale{
			ItemID:        item.ID,
			ItemName:      item.Name,
			QuantitySold:  line.Quantity,
			Unit:          item.Unit,
			PricePerUnit:  line.Price,
			CostPrice:     item.CostPrice,
			TotalPrice:    line.Total,
			Profit:        line.Total - item.CostPrice*line.Quantity,
			CustomerID:    customerID,
			CustomerName:  s.bill.Customer.Name,
			CustomerPhone: s.bill.Customer.Phone,
			PaymentMethod: s.bill.PaymentMethod,
			TransactionID: transactionID,
			BillNumber:    billNumber,
			Date:          date,
			Time:          clock,
		}
		if _, err := s.repo.RecordSaleLine(ctx, sale); err != nil {
			log.Printf("[service] checkout line failed, item %d qty %.3f: %v", line.ItemID, line.Quantity, err)
			failed++
			continue
		}
		recorded++
		total += line.Total
	}

	if recorded == 0 {
		return domain.CompleteSaleResponse{}, fmt.Errorf("no bill line could be recorded: %w", ErrCheckoutFailed)
	}

	if s.savedBill != nil {
		s.bill = cloneBill(*s.savedBill)
		s.savedBill = nil
	} else {
		s.bill = emptyBill()
	}

	return domain.CompleteSaleResponse{
		TransactionID: transactionID,
		BillNumber:    billNumber,
		LinesRecorded: recorded,
		LinesFailed:   failed,
		Total:         total,
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}, nil
}

// ShareBill publishes a compact snapshot of the current bill under a short
// random key and returns the link. Snapshots expire after seven days.
func (s *Service) ShareBill(ctx context.Context) (domain.ShareBillResponse, error) {
	s.billMu.Lock()
	bill := cloneBill(s.bill)
	s.billMu.Unlock()

	if len(bill.Lines) == 0 {
		return domain.ShareBillResponse{}, fmt.Errorf("bill is empty: %w", store.ErrInvalidRecord)
	}

	now := time.Now()
	profile, _ := s.ShopProfile(ctx)
	snapshot := domain.BillSnapshot{
		Date:          now.Format("2006-01-02"),
		CustomerName:  bill.Customer.Name,
		CustomerPhone: bill.Customer.Phone,
		BillNumber:    xid.BillNumber(profile.BillPrefix, now),
		PaymentMethod: bill.PaymentMethod,
		UPIID:         bill.UPIID,
		Total:         bill.Total,
		ShopName:      profile.Name,
	}
	for _, line := range bill.Lines {
		// Truncate by runes so multibyte names stay valid UTF-8.
		name := line.Name
		if runes := []rune(name); len(runes) > 20 {
			name = string(runes[:20])
		}
		snapshot.Lines = append(snapshot.Lines, domain.BillSnapshotLine{
			Name:     name,
			Quantity: line.Quantity,
			Unit:     line.Unit,
			Total:    line.Total,
		})
	}

	key := xid.ShareKey()
	if err := s.shares.Set(ctx, key, &snapshot, billshare.DefaultTTL); err != nil {
		return domain.ShareBillResponse{}, err
	}
	return domain.ShareBillResponse{
		Key:       key,
		URL:       s.shareBaseURL + "?i=" + key,
		ExpiresAt: now.Add(billshare.DefaultTTL).UTC().Format(time.RFC3339),
	}, nil
}

func (s *Service) SharedBill(ctx context.Context, key string) (domain.BillSnapshot, error) {
	snapshot, ok, err := s.shares.Get(ctx, key)
	if err != nil {
		return domain.BillSnapshot{}, err
	}
	if !ok {
		return domain.BillSnapshot{}, fmt.Errorf("share %s: %w", key, store.ErrNotFound)
	}
	return *snapshot, nil
}

// UPIPaymentLink builds a upi:// deep link for the given amount using the
// shop's configured UPI id.
func (s *Service) UPIPaymentLink(ctx context.Context, amount float64) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("amount must be positive: %w", store.ErrInvalidRecord)
	}
	profile, _ := s.ShopProfile(ctx)
	if profile.UPIID == "" {
		return "", fmt.Errorf("no UPI id configured: %w", store.ErrInvalidRecord)
	}
	params := url.Values{}
	params.Set("pa", profile.UPIID)
	params.Set("pn", profile.Name)
	params.Set("am", fmt.Sprintf("%.2f", amount))
	params.Set("cu", "INR")
	return "upi://pay?" + params.Encode(), nil
}
