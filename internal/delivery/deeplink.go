package delivery

import (
	"context"
	"net/url"
	"strings"

	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

// DefaultDeepLinkBase targets WhatsApp's click-to-chat endpoint.
const DefaultDeepLinkBase = "https://wa.me/"

// Opener launches a URL on the user's device.
type Opener interface {
	Open(ctx context.Context, link string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, link string) error

func (f OpenerFunc) Open(ctx context.Context, link string) error {
	return f(ctx, link)
}

// DeepLink hands messages off by opening a chat URL with the text prefilled.
type DeepLink struct {
	base      string
	recipient string
	opener    Opener
}

// NewDeepLink builds a deep-link channel. Without an opener every send fails
// so the caller falls back to showing the message for manual copy.
func NewDeepLink(base, recipient string, opener Opener) *DeepLink {
	return &DeepLink{base: base, recipient: recipient, opener: opener}
}

func (d *DeepLink) Protocol() string {
	return ProtocolDeepLink
}

func (d *DeepLink) Send(ctx context.Context, env Envelope) error {
	if d.opener == nil {
		return pkgerrors.New(pkgerrors.CodeDeliveryFailed, "no opener available for deep link")
	}
	link := Link(d.base, d.recipient, env.Message)
	if err := d.opener.Open(ctx, link); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDeliveryFailed, err, "opening deep link")
	}
	return nil
}

// Link builds <base><recipient>?text=<message>, escaping spaces as %20.
func Link(base, recipient, message string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultDeepLinkBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + cleanRecipient(recipient) + "?text=" + escape(message)
}

// url.QueryEscape encodes a literal '+' as %2B, so every remaining '+' is a space.
func escape(message string) string {
	return strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

func cleanRecipient(recipient string) string {
	var b strings.Builder
	for _, r := range recipient {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
