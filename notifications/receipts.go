package notifications

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Zrodkin/ShulPadServer-sub001/internal"
)

// ReceiptData is the data rendered into a donation receipt.
type ReceiptData struct {
	OrgName    string
	Amount     int64
	Currency   string
	DonatedAt  time.Time
	ReceiptURL string
}

const receiptPlainTemplate = `Thank you for your donation to {{.OrgName}}!

Amount: {{.FormattedAmount}}
Date: {{.FormattedDate}}
{{if .ReceiptURL}}
Your receipt: {{.ReceiptURL}}
{{end}}
This receipt confirms your donation. Please keep it for your records.
`

const receiptHTMLTemplate = `<html><body>
<h2>Thank you for your donation to {{.OrgName}}!</h2>
<p><strong>Amount:</strong> {{.FormattedAmount}}<br>
<strong>Date:</strong> {{.FormattedDate}}</p>
{{if .ReceiptURL}}<p><a href="{{.ReceiptURL}}">View your receipt</a></p>{{end}}
<p>This receipt confirms your donation. Please keep it for your records.</p>
</body></html>`

const receiptSMSTemplate = `Thank you for your {{.FormattedAmount}} donation to {{.OrgName}}.{{if .ReceiptURL}} Receipt: {{.ReceiptURL}}{{end}}`

var (
	receiptPlain = template.Must(template.New("receipt-plain").Parse(receiptPlainTemplate))
	receiptHTML  = template.Must(template.New("receipt-html").Parse(receiptHTMLTemplate))
	receiptSMS   = template.Must(template.New("receipt-sms").Parse(receiptSMSTemplate))
)

type receiptView struct {
	ReceiptData
	FormattedAmount string
	FormattedDate   string
}

func (d ReceiptData) view() receiptView {
	return receiptView{
		ReceiptData:     d,
		FormattedAmount: internal.FormatAmount(d.Amount, d.Currency),
		FormattedDate:   d.DonatedAt.Format("January 2, 2006"),
	}
}

func render(tmpl *template.Template, view receiptView) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("could not render receipt template: %w", err)
	}
	return buf.String(), nil
}

// BuildEmailReceipt renders a donation receipt email for the given address.
func BuildEmailReceipt(toAddress string, data ReceiptData) (*Notification, error) {
	view := data.view()
	plain, err := render(receiptPlain, view)
	if err != nil {
		return nil, err
	}
	html, err := render(receiptHTML, view)
	if err != nil {
		return nil, err
	}
	return &Notification{
		ToAddress: toAddress,
		Subject:   fmt.Sprintf("Your donation receipt from %s", data.OrgName),
		Body:      html,
		PlainBody: plain,
	}, nil
}

// BuildSMSReceipt renders a donation receipt SMS for the given number.
func BuildSMSReceipt(toNumber string, data ReceiptData) (*Notification, error) {
	body, err := render(receiptSMS, data.view())
	if err != nil {
		return nil, err
	}
	return &Notification{
		ToNumber: toNumber,
		Body:     body,
	}, nil
}
