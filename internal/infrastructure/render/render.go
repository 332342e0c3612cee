// Package render produces the stored invoice and receipt documents. The
// output is a plain-text layout; swapping in a real PDF engine only means
// replacing this package behind the usecase.Renderer port.
package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/eventfin/fincore/internal/domain"
)

const invoiceTemplate = `{{ .Heading }} #{{ .Invoice.Number }}
{{ .Prefix }}

Billed to: {{ .Invoice.RecipientName }} <{{ .Invoice.RecipientEmail }}>
{{- if .Invoice.RecipientAddress }}
{{ .Invoice.RecipientAddress }}
{{- end }}

{{ .Invoice.Title }}
Invoice date: {{ .Invoice.InvoiceDate.Format "2006-01-02" }}
Due date:     {{ .Invoice.DueDate.Format "2006-01-02" }}

{{ range .Rows -}}
{{ printf "%-40s %3d x %10s  VAT %s%%" .Text .RowCount (.RowAmount.StringFixed 2) .VATRate }}
{{ end -}}

Total VAT: {{ .Invoice.TotalVAT.StringFixed 2 }}
Total due: {{ .Invoice.TotalAmount.StringFixed 2 }}
{{- if .Invoice.PaidAt }}

Paid {{ .Invoice.PaidAt.Format "2006-01-02" }} via {{ .Invoice.PaidUsing }}.
{{- end }}
`

// Renderer renders invoices and receipts from a shared template. Prefix is
// the organisation name printed on every document.
type Renderer struct {
	prefix string
	tmpl   *template.Template
}

// New creates a Renderer. The template is parsed once at startup.
func New(prefix string) (*Renderer, error) {
	tmpl, err := template.New("invoice").Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}

	return &Renderer{prefix: prefix, tmpl: tmpl}, nil
}

// RenderInvoice renders the invoice document stored at finalization time.
func (r *Renderer) RenderInvoice(invoice *domain.Invoice, rows []*domain.InvoiceRow) ([]byte, error) {
	return r.render("INVOICE", invoice, rows)
}

// RenderReceipt renders the receipt stored once a payment settles.
func (r *Renderer) RenderReceipt(invoice *domain.Invoice, rows []*domain.InvoiceRow) ([]byte, error) {
	return r.render("RECEIPT", invoice, rows)
}

func (r *Renderer) render(heading string, invoice *domain.Invoice, rows []*domain.InvoiceRow) ([]byte, error) {
	var buf bytes.Buffer

	data := struct {
		Heading string
		Prefix  string
		Invoice *domain.Invoice
		Rows    []*domain.InvoiceRow
	}{
		Heading: heading,
		Prefix:  r.prefix,
		Invoice: invoice,
		Rows:    rows,
	}

	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s for invoice %s: %w", heading, invoice.ID, err)
	}

	return buf.Bytes(), nil
}
