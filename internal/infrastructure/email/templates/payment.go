package templates

import (
	"fmt"
	"strings"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
)

// PaymentConfirmationProps carries what the buyer sees in the receipt.
type PaymentConfirmationProps struct {
	CustomerName   string
	ProductName    string
	AmountCents    int64
	PaymentID      string
	PaidAt         time.Time
	SuccessMessage string
	PageURL        string
	AccentColor    string
}

// GetPaymentConfirmationContent builds the body of the payment receipt.
func GetPaymentConfirmationContent(props PaymentConfirmationProps) string {
	name := strings.TrimSpace(props.CustomerName)
	if first := strings.Fields(name); len(first) > 0 {
		name = first[0]
	}

	var b strings.Builder
	b.WriteString(GetHeading("Pagamento confirmado", props.AccentColor))
	if name != "" {
		b.WriteString(GetParagraph(fmt.Sprintf("Olá, %s!", name)))
	}
	b.WriteString(GetParagraph("Recebemos o seu pagamento via PIX. Confira os detalhes abaixo."))

	paidAt := ""
	if !props.PaidAt.IsZero() {
		paidAt = props.PaidAt.In(saoPaulo()).Format("02/01/2006 15:04")
	}
	b.WriteString(GetReceipt([]ReceiptRow{
		{Label: "Produto", Value: props.ProductName},
		{Label: "Valor", Value: checkout.FormatBRL(props.AmountCents)},
		{Label: "Pago em", Value: paidAt},
		{Label: "Identificador", Value: props.PaymentID},
	}))

	if strings.TrimSpace(props.SuccessMessage) != "" {
		b.WriteString(GetRichParagraph(props.SuccessMessage))
	}
	if props.PageURL != "" {
		b.WriteString(GetButton(ButtonProps{
			Text:            "Ver pagamento",
			URL:             props.PageURL,
			BackgroundColor: props.AccentColor,
		}))
	}
	return b.String()
}

func saoPaulo() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}
