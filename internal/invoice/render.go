package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/yzzyx/invoice/internal/customers"
	"github.com/yzzyx/invoice/internal/money"
	"github.com/yzzyx/invoice/internal/orders"
)

// The plain-text layout mirrors the fields the old LaTeX template
// substituted: customer block, invoice number and date, one line per
// article with optional comment, then the total.
var invoiceTmpl = template.Must(template.New("invoice").Parse(`INVOICE {{.InvoiceNumber}}
Date: {{.Date}}

{{.Customer.Name}}
{{- if .Customer.Reference}}
Ref: {{.Customer.Reference}}
{{- end}}
{{- if .Customer.Address1}}
{{.Customer.Address1}}
{{- end}}
{{- if .Customer.Address2}}
{{.Customer.Address2}}
{{- end}}
{{- if or .Customer.Postcode .Customer.City}}
{{.Customer.Postcode}} {{.Customer.City}}
{{- end}}

{{range .Lines}}{{.}}
{{end}}
Total: {{.Total}}
`))

type renderData struct {
	InvoiceNumber int64
	Date          string
	Customer      customers.Customer
	Lines         []string
	Total         money.Money
}

// Renderer writes one text invoice per committed order into Dir.
type Renderer struct {
	Dir string
}

// Render produces invoice-<date>-<orderid>.txt and returns the file
// name recorded on the order row.
func (r *Renderer) Render(o orders.Order, c customers.Customer, items []orders.OrderLineItem) (string, error) {
	date := time.Now().Format("2006-01-02")

	data := renderData{
		InvoiceNumber: o.ID,
		Date:          date,
		Customer:      c,
		Total:         money.Zero(),
	}
	for _, li := range items {
		label := li.Name
		if li.Comment != "" {
			label = li.Name + " - " + li.Comment
		}
		data.Lines = append(data.Lines,
			fmt.Sprintf("%-40s %10s x %3d  %12s", label, li.Price, li.Count, li.Subtotal()))
		data.Total = data.Total.Add(li.Subtotal())
	}

	var b strings.Builder
	if err := invoiceTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("invoice: render order %d: %w", o.ID, err)
	}

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("invoice-%s-%d.txt", date, o.ID)
	if err := os.WriteFile(filepath.Join(r.Dir, name), []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("invoice: write order %d: %w", o.ID, err)
	}
	return name, nil
}
