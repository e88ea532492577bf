package coupon

import "errors"

var ErrInvalidCoupon = errors.New("coupon code is not registered")

type RuleKind string

const (
	KindFlat    RuleKind = "flat"
	KindPercent RuleKind = "percent"
)

// Rule is a stateless discount rule. Keeping rules as tagged data instead
// of stored closures keeps them serializable and testable in isolation.
type Rule struct {
	Kind     RuleKind `json:"kind"`
	Amount   float64  `json:"amount,omitempty"`    // flat: subtracted, floored at 0
	Rate     float64  `json:"rate,omitempty"`      // percent: fraction taken off, e.g. 0.1
	MinTotal float64  `json:"min_total,omitempty"` // percent: no-op below this total
}

// Apply evaluates the rule against a cart total. Unknown kinds leave the
// total unchanged.
func (r Rule) Apply(total float64) float64 {
	switch r.Kind {
	case KindFlat:
		discounted := total - r.Amount
		if discounted < 0 {
			return 0
		}
		return discounted
	case KindPercent:
		if total < r.MinTotal {
			return total
		}
		return total * (1 - r.Rate)
	default:
		return total
	}
}

// Registry maps coupon codes to rules. It is populated at startup and
// read-only afterwards, so no locking is needed.
type Registry struct {
	rules map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

func (reg *Registry) Register(code string, rule Rule) {
	reg.rules[code] = rule
}

func (reg *Registry) Get(code string) (Rule, error) {
	rule, ok := reg.rules[code]
	if !ok {
		return Rule{}, ErrInvalidCoupon
	}
	return rule, nil
}

// Defaults returns a registry with the built-in storefront coupons:
// FLAT50 subtracts 50, PERC10 takes 10% off totals of at least 1000.
func Defaults() *Registry {
	reg := NewRegistry()
	reg.Register("FLAT50", Rule{Kind: KindFlat, Amount: 50})
	reg.Register("PERC10", Rule{Kind: KindPercent, Rate: 0.1, MinTotal: 1000})
	return reg
}
