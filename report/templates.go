package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var tmplFuncs = template.FuncMap{
	"money": func(v float64) string {
		return printer.Sprintf("%.2f", v)
	},
	"date": func(v interface{}) string {
		return formatTime(v, "02 Jan 2006")
	},
	"datetime": func(v interface{}) string {
		return formatTime(v, "02 Jan 2006 15:04")
	},
}

// formatTime accepts both time.Time and *time.Time since optional dates are
// pointers on the models.
func formatTime(v interface{}, layout string) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(layout)
	}
	return ""
}

const baseStyle = `
	<style>
		body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; margin: 32px; }
		h1 { font-size: 18px; margin-bottom: 2px; }
		h2 { font-size: 14px; color: #555; font-weight: normal; margin-top: 0; }
		table { width: 100%; border-collapse: collapse; margin-top: 16px; }
		th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: left; }
		th { background: #f3f3f3; }
		td.num, th.num { text-align: right; }
		.summary { margin-top: 16px; width: 40%; margin-left: auto; }
		.summary td { border: none; padding: 3px 8px; }
		.summary tr.total td { border-top: 1px solid #333; font-weight: bold; }
		.meta { color: #666; margin-top: 4px; }
		.badge { display: inline-block; padding: 2px 8px; border: 1px solid #999; border-radius: 3px; font-size: 11px; }
	</style>`

var orderReceiptTmpl = template.Must(template.New("orderReceipt").Funcs(tmplFuncs).Parse(baseStyle + `
	<h1>Order Receipt</h1>
	<h2>Order #{{.Order.OrderNo}} &middot; {{.ClientName}}</h2>
	<p class="meta">Ordered {{date .Order.OrderedDate}}{{if .Order.DueDate}} &middot; Due {{date .Order.DueDate}}{{end}}
	&middot; <span class="badge">{{.Order.Status}}</span></p>
	<table>
		<tr><th>#</th><th>Product</th><th class="num">Qty</th><th>Unit</th><th class="num">Rate</th><th class="num">Amount</th></tr>
		{{range $i, $l := .Order.Products}}
		<tr>
			<td>{{$l.LineOrder}}</td><td>{{index $.ProductNames $l.ProductID}}</td>
			<td class="num">{{$l.Quantity}}</td><td>{{$l.Unit}}</td>
			<td class="num">{{money $l.RatePrice}}</td><td class="num">{{money $l.Amount}}</td>
		</tr>
		{{end}}
	</table>
	<table class="summary">
		<tr><td>Subtotal</td><td class="num">{{money .Order.Subtotal}}</td></tr>
		<tr><td>GST ({{.Order.GSTPercent}}%)</td><td class="num">{{money .Order.Amount}}</td></tr>
		{{if gt .Order.DiscountPercent 0.0}}<tr><td>Discount ({{.Order.DiscountPercent}}%)</td><td class="num">{{money .Order.TotalAmount}}</td></tr>{{end}}
		<tr class="total"><td>Total</td><td class="num">{{money .Financials.Total}}</td></tr>
		<tr><td>Paid</td><td class="num">{{money .Financials.Paid}}</td></tr>
		<tr class="total"><td>Remaining</td><td class="num">{{money .Financials.Remaining}}</td></tr>
	</table>`))

var transactionReceiptTmpl = template.Must(template.New("txnReceipt").Funcs(tmplFuncs).Parse(baseStyle + `
	<h1>Payment Receipt</h1>
	<h2>Receipt #{{.ID}} &middot; {{.ClientName}}</h2>
	<p class="meta">{{datetime .TransactedAt}}{{if .OrderNo}} &middot; Order #{{.OrderNo}}{{end}}</p>
	<table>
		<tr><th>Amount</th><th>Type</th><th>Method</th><th>Reference</th></tr>
		<tr>
			<td class="num">{{money .Amount}}</td>
			<td>{{.TransactionType}}</td>
			<td>{{if .PaymentMethod}}{{.PaymentMethod}}{{else}}&mdash;{{end}}</td>
			<td>{{if .ReferenceNo}}{{.ReferenceNo}}{{else}}&mdash;{{end}}</td>
		</tr>
	</table>
	{{if .Remarks}}<p class="meta">Remarks: {{.Remarks}}</p>{{end}}`))

var advanceReceiptTmpl = template.Must(template.New("advReceipt").Funcs(tmplFuncs).Parse(baseStyle + `
	<h1>Advance Payment Receipt</h1>
	<h2>Receipt #A{{.ID}} &middot; {{.ClientName}}</h2>
	<p class="meta">{{datetime .ReceivedAt}}</p>
	<table>
		<tr><th>Amount</th><th>Type</th><th>Reference</th></tr>
		<tr>
			<td class="num">{{money .Amount}}</td>
			<td>{{.PaymentType}}</td>
			<td>{{if .ReferenceNo}}{{.ReferenceNo}}{{else}}&mdash;{{end}}</td>
		</tr>
	</table>
	{{if .Remarks}}<p class="meta">Remarks: {{.Remarks}}</p>{{end}}`))

var ledgerTmpl = template.Must(template.New("ledger").Funcs(tmplFuncs).Parse(baseStyle + `
	<h1>Client Ledger</h1>
	<h2>{{.ClientName}}</h2>
	<table>
		<tr><th>Order</th><th>Date</th><th>Status</th><th class="num">Total</th><th class="num">Paid</th><th class="num">Remaining</th></tr>
		{{range .Rows}}
		<tr>
			<td>#{{.OrderNo}}</td><td>{{date .OrderedDate}}</td><td>{{.Status}}</td>
			<td class="num">{{money .Total}}</td><td class="num">{{money .Paid}}</td><td class="num">{{money .Remaining}}</td>
		</tr>
		{{end}}
	</table>
	<table class="summary">
		<tr><td>Total ordered</td><td class="num">{{money .TotalOrdered}}</td></tr>
		<tr><td>Total paid</td><td class="num">{{money .TotalPaid}}</td></tr>
		<tr class="total"><td>Outstanding</td><td class="num">{{money .Outstanding}}</td></tr>
	</table>`))

var subOrderInvoiceTmpl = template.Must(template.New("subOrderInvoice").Funcs(tmplFuncs).Parse(baseStyle + `
	<h1>Dispatch Invoice</h1>
	<h2>Invoice #S{{.ID}} &middot; Order #{{.OrderNo}} &middot; {{.ClientName}}</h2>
	<p class="meta"><span class="badge">{{.Status}}</span>
	{{if .DispatchedAt}} &middot; Dispatched {{datetime .DispatchedAt}}{{end}}
	{{if .CompletedAt}} &middot; Completed {{datetime .CompletedAt}}{{end}}</p>
	<table>
		<tr><th>Product</th><th class="num">Qty</th><th>Unit</th><th class="num">Rate</th><th class="num">Amount</th></tr>
		<tr>
			<td>{{.ProductName}}</td><td class="num">{{.Quantity}}</td><td>{{.Unit}}</td>
			<td class="num">{{money .RatePrice}}</td><td class="num">{{money .Amount}}</td>
		</tr>
	</table>`))

func renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	var sb strings.Builder
	sb.WriteString("<html><head><meta charset=\"utf-8\"></head><body>")
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	sb.WriteString("</body></html>")
	return sb.String(), nil
}
