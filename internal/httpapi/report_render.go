package httpapi

import (
	"fmt"
	"html/template"
	"strings"

	"shopledger/internal/domain"
)

// salesReportToCSV renders a sales report as CSV. The file opens with a
// summary section followed by one row per sold line, grouped by receipt.
func salesReportToCSV(report *domain.SalesReport) string {
	var b strings.Builder

	b.WriteString("section,field,value\n")
	b.WriteString(fmt.Sprintf("summary,from,%s\n", csvEscape(report.From)))
	b.WriteString(fmt.Sprintf("summary,to,%s\n", csvEscape(report.To)))
	b.WriteString(fmt.Sprintf("summary,transactions,%d\n", report.TransactionCount))
	b.WriteString(fmt.Sprintf("summary,items_sold,%.2f\n", report.ItemsSold))
	b.WriteString(fmt.Sprintf("summary,total_sales,%.2f\n", report.TotalSales))
	b.WriteString(fmt.Sprintf("summary,total_profit,%.2f\n", report.TotalProfit))
	b.WriteString("\n")

	b.WriteString("transaction_id,bill_number,date,time,customer,payment,item,quantity,price,total\n")
	for _, receipt := range report.Receipts {
		for _, sale := range receipt.Items {
			b.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%.2f,%.2f,%.2f\n",
				csvEscape(receipt.TransactionID),
				csvEscape(receipt.BillNumber),
				csvEscape(receipt.Date),
				csvEscape(receipt.Time),
				csvEscape(receipt.CustomerName),
				csvEscape(receipt.PaymentMethod),
				csvEscape(sale.ItemName),
				sale.QuantitySold,
				sale.PricePerUnit,
				sale.TotalPrice,
			))
		}
	}

	return b.String()
}

func csvEscape(value string) string {
	if strings.ContainsAny(value, ",\"\n") {
		return "\"" + strings.ReplaceAll(value, "\"", "\"\"") + "\""
	}
	return value
}

var salesReportHTMLTmpl = template.Must(template.New("salesReport").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sales Report {{.From}} to {{.To}}</title>
<style>
body { font-family: "Segoe UI", Arial, sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.4rem; margin-bottom: 0.25rem; }
.meta { color: #666; margin-bottom: 1.5rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.9rem; }
th { background: #f4f4f4; }
td.num { text-align: right; }
.summary td { font-weight: 600; }
@media print { body { margin: 0.5rem; } }
</style>
</head>
<body>
<h1>Sales Report</h1>
<div class="meta">{{.From}} to {{.To}}</div>
<table>
<tr class="summary"><td>Transactions</td><td class="num">{{.TransactionCount}}</td></tr>
<tr class="summary"><td>Items sold</td><td class="num">{{printf "%.2f" .ItemsSold}}</td></tr>
<tr class="summary"><td>Total sales</td><td class="num">{{printf "%.2f" .TotalSales}}</td></tr>
<tr class="summary"><td>Total profit</td><td class="num">{{printf "%.2f" .TotalProfit}}</td></tr>
</table>
{{range .Receipts}}
<table>
<tr><th colspan="4">{{.BillNumber}} &middot; {{.Date}} {{.Time}} &middot; {{if .CustomerName}}{{.CustomerName}}{{else}}Walk-in{{end}} &middot; {{.PaymentMethod}}</th></tr>
<tr><th>Item</th><th>Qty</th><th>Price</th><th>Total</th></tr>
{{range .Items}}
<tr><td>{{.ItemName}}</td><td class="num">{{printf "%.2f" .QuantitySold}}</td><td class="num">{{printf "%.2f" .PricePerUnit}}</td><td class="num">{{printf "%.2f" .TotalPrice}}</td></tr>
{{end}}
<tr><td colspan="3">Receipt total</td><td class="num">{{printf "%.2f" .Total}}</td></tr>
</table>
{{end}}
<script>window.print();</script>
</body>
</html>`))

// salesReportToPrintableHTML renders an auto-printing HTML page for the
// report. Template errors fall back to a minimal error page rather than a
// half-rendered document.
func salesReportToPrintableHTML(report *domain.SalesReport) string {
	var b strings.Builder
	if err := salesReportHTMLTmpl.Execute(&b, report); err != nil {
		return "<!DOCTYPE html><html><body><p>failed to render report</p></body></html>"
	}
	return b.String()
}
