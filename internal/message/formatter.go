package message

import (
	stdErrors "errors"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/entrealas/orderdesk/internal/orders"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

// ErrMissingCode is wrapped when a snapshot without a code is formatted.
var ErrMissingCode = stdErrors.New("order code missing")

const (
	emojiShopping = "\U0001F6CD\uFE0F"
	emojiPackage  = "\U0001F4E6"
	emojiPerson   = "\U0001F464"
	emojiPhone    = "\U0001F4DE"
	emojiChicken  = "\U0001F357"
	emojiMoney    = "\U0001F4B5"
	emojiNote     = "\U0001F4DD"
	emojiCard     = "\U0001F4B3"
	emojiCash     = "\U0001F4B0"
	emojiBank     = "\U0001F3E6"
	emojiCheck    = "✅"
	bullet        = "•"
)

// PaymentMethod is one entry of the footer.
type PaymentMethod struct {
	Label string
	Emoji string
}

// DefaultPaymentMethods is the shop's accepted payment list.
var DefaultPaymentMethods = []PaymentMethod{
	{Label: "Efectivo", Emoji: emojiCash},
	{Label: "Transferencia bancaria", Emoji: emojiBank},
	{Label: "Tarjetas de débito/crédito", Emoji: emojiCard},
}

// Formatter renders order snapshots into the hand-off message.
type Formatter struct {
	ShopName       string
	Currency       string
	PaymentMethods []PaymentMethod
}

func NewFormatter(shopName, currency string) *Formatter {
	return &Formatter{
		ShopName:       shopName,
		Currency:       currency,
		PaymentMethods: DefaultPaymentMethods,
	}
}

// Format returns the full message for snap, normalized to NFC. A snapshot
// without a code is rejected before anything is rendered.
func (f *Formatter) Format(snap orders.Snapshot) (string, error) {
	if strings.TrimSpace(snap.Code) == "" {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, ErrMissingCode, "order code must be assigned before formatting")
	}

	currency := f.Currency
	if currency == "" {
		currency = "$"
	}
	shop := cleanText(f.ShopName)
	if shop == "" {
		shop = "EntreAlas"
	}

	var b strings.Builder
	line := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteByte('\n')
	}

	line(emojiShopping, " *Nuevo Pedido - ", shop, "* ", emojiShopping)
	line()
	line(emojiPackage, " *Código de pedido:* ", snap.Code)
	line()

	name := cleanText(snap.Client.Name)
	phone := cleanText(snap.Client.Phone)
	if name != "" {
		line(emojiPerson, " *Cliente:* ", name)
	}
	if phone != "" {
		line(emojiPhone, " *Teléfono:* ", phone)
	}
	if name != "" || phone != "" {
		line()
	}

	line(emojiPackage, " *Detalle del pedido:*")
	for _, l := range snap.Lines {
		line(emojiChicken, " ", strconv.Itoa(l.Quantity), "x ", cleanText(l.Name), " - ", currency, l.LineTotal().StringFixed(2))
	}
	line()
	line(emojiMoney, " *Total a pagar: ", currency, snap.Total.StringFixed(2), "*")
	if notes := cleanText(snap.Notes); notes != "" {
		line(emojiNote, " *Notas:* ", notes)
	}
	line()

	line(emojiCard, " *Métodos de pago disponibles:*")
	for _, pm := range f.paymentMethods() {
		line(bullet, " ", pm.Label, " ", pm.Emoji)
	}
	line()
	// The closing line has no trailing newline so deep links do not end in %0A.
	b.WriteString(emojiCheck + " ¡Gracias por tu pedido! Pronto nos pondremos en contacto contigo.")

	return norm.NFC.String(b.String()), nil
}

func (f *Formatter) paymentMethods() []PaymentMethod {
	if len(f.PaymentMethods) == 0 {
		return DefaultPaymentMethods
	}
	return f.PaymentMethods
}

// cleanText trims and collapses internal whitespace runs to one space.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
