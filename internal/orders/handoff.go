package orders

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/angelmondragon/vitrine-backend/pkg/cep"
	"github.com/angelmondragon/vitrine-backend/pkg/config"
	"github.com/shopspring/decimal"
)

// Handoff builds the WhatsApp deep link a shopper follows to send the order
// to the store.
type Handoff struct {
	baseURL string
	tag     string
}

func NewHandoff(cfg config.StorefrontConfig) Handoff {
	base := strings.TrimRight(strings.TrimSpace(cfg.WhatsAppBaseURL), "/")
	if base == "" {
		base = "https://wa.me"
	}
	tag := strings.TrimSpace(cfg.OrderMessageTag)
	if tag == "" {
		tag = "Novo pedido"
	}
	return Handoff{baseURL: base, tag: tag}
}

// Link returns base/<digits>?text=<message>. Spaces are encoded as %20.
func (h Handoff) Link(storePhone string, order OrderDTO) string {
	text := strings.ReplaceAll(url.QueryEscape(h.Message(order)), "+", "%20")
	return fmt.Sprintf("%s/%s?text=%s", h.baseURL, digits(storePhone), text)
}

func (h Handoff) Message(order OrderDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s #%d\n\n", h.tag, order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "%dx %s - %s\n", item.Quantity, item.Name, formatBRL(item.Total))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", formatBRL(order.Subtotal))
	if order.ShippingMethodName != nil {
		fmt.Fprintf(&b, "Frete (%s): %s\n", *order.ShippingMethodName, formatBRL(order.ShippingCost))
	}
	if order.Discount.IsPositive() {
		fmt.Fprintf(&b, "Desconto: -%s\n", formatBRL(order.Discount))
	}
	fmt.Fprintf(&b, "Total: %s\n\n", formatBRL(order.Total))
	fmt.Fprintf(&b, "Cliente: %s (%s)\n", order.CustomerName, order.CustomerPhone)

	addr := order.Address
	if addr.Street != "" {
		line := addr.Street
		if addr.Number != "" {
			line += ", " + addr.Number
		}
		if addr.Complement != nil && *addr.Complement != "" {
			line += " - " + *addr.Complement
		}
		fmt.Fprintf(&b, "Endereço: %s\n", line)
		var place []string
		for _, part := range []string{addr.District, addr.City, addr.State} {
			if part != "" {
				place = append(place, part)
			}
		}
		if addr.PostalCode != "" {
			place = append(place, "CEP "+cep.Format(addr.PostalCode))
		}
		if len(place) > 0 {
			fmt.Fprintf(&b, "%s\n", strings.Join(place, ", "))
		}
	}
	if order.Notes != nil && strings.TrimSpace(*order.Notes) != "" {
		fmt.Fprintf(&b, "Obs: %s\n", strings.TrimSpace(*order.Notes))
	}
	return strings.TrimRight(b.String(), "\n")
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatBRL renders 1234.5 as "R$ 1.234,50".
func formatBRL(v decimal.Decimal) string {
	fixed := v.Abs().StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]
	var grouped []string
	for len(intPart) > 3 {
		grouped = append([]string{intPart[len(intPart)-3:]}, grouped...)
		intPart = intPart[:len(intPart)-3]
	}
	grouped = append([]string{intPart}, grouped...)
	sign := ""
	if v.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, strings.Join(grouped, "."), frac)
}
