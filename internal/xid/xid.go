package xid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// TransactionID returns an identifier shared by every sale line of one bill,
// e.g. TXN-MBX41Q2J-A7F0K2. The timestamp keeps ids roughly sortable; the
// random suffix keeps them unique within a millisecond.
func TransactionID(at time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
	return fmt.Sprintf("TXN-%s-%s", ts, randBase36(6))
}

// BillNumber returns a human-readable bill number, e.g. BILL202608301234.
func BillNumber(prefix string, at time.Time) string {
	if prefix == "" {
		prefix = "BILL"
	}
	return fmt.Sprintf("%s%s%04d", prefix, at.Format("20060102"), randInt(10000))
}

// ShareKey returns a short random key for shareable bill links.
func ShareKey() string {
	return randBase36(12)
}

func randBase36(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(base36[randInt(36)])
	}
	return strings.ToUpper(sb.String())
}

func randInt(max int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back to the
		// clock rather than panicking mid-checkout.
		return time.Now().UnixNano() % max
	}
	return v.Int64()
}
