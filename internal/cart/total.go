package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Total is the sum of price times units over items. Prices are converted
// from their shortest decimal representation so 99.99*2 + 49.99 is exactly
// 249.97.
func Total(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Units())))
		total = total.Add(line)
	}
	return total
}

// FormatUSD renders an amount as en-US currency, e.g. $1,234.50.
func FormatUSD(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, cents := fixed[:len(fixed)-3], fixed[len(fixed)-3:]

	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String() + cents
}

func (c *Container) Total() decimal.Decimal {
	return Total(c.items)
}

func (c *Container) FormatTotal() string {
	return FormatUSD(c.Total())
}
