// Package billing turns attendance into monthly bills and keeps the bill
// ledger.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gdg-garage/mess-billing/internal/models"
)

// DrinkRule decides how a drink the member marked as attended is billed.
// Drinks without an attended mark are always billed; food is billed only
// when attended.
type DrinkRule string

const (
	// DrinkRuleAlways bills attended drinks like any attended item, so
	// every drink in the window is charged.
	DrinkRuleAlways DrinkRule = "always"
	// DrinkRuleUnmarked bills a drink only when the member has no attended
	// mark for it.
	DrinkRuleUnmarked DrinkRule = "unmarked"
)

// ParseDrinkRule validates a configured rule name.
func ParseDrinkRule(s string) (DrinkRule, error) {
	switch DrinkRule(s) {
	case DrinkRuleAlways, "":
		return DrinkRuleAlways, nil
	case DrinkRuleUnmarked:
		return DrinkRuleUnmarked, nil
	}
	return "", fmt.Errorf("unknown drink rule %q", s)
}

// Charge prices a member's window. items are all menu items in the window;
// marks maps item ID to the member's recorded attendance (absent = no row).
//
//	charge = Σ price(attended items) + Σ price(drinks not marked attended)
//
// Under DrinkRuleUnmarked the first term skips drinks.
func Charge(items []models.MenuItem, marks map[uint]bool, rule DrinkRule) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		attended := marks[item.ID]
		if attended && (item.IsFood || rule != DrinkRuleUnmarked) {
			total = total.Add(item.Price)
		}
		if !item.IsFood && !attended {
			total = total.Add(item.Price)
		}
	}
	return total
}
