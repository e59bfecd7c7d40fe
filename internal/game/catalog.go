package game

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Info is the dashboard card for one game.
type Info struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Badge       string `json:"badge"`
}

var catalog = []Info{
	{ID: Savings, Title: "Kitty Savings Bank", Description: "Help the cats save for big goals", Badge: "Super Saver"},
	{ID: Budget, Title: "Cat Budget Planner", Description: "Plan spending like a wise cat", Badge: "Budget Boss"},
	{ID: WantVsNeed, Title: "Paws & Priorities", Description: "Learn what cats need vs want", Badge: "Needs Navigator"},
	{ID: MoneyMatch, Title: "Meow Money Match", Description: "Match items with prices", Badge: "Price Pro"},
	{ID: Investing, Title: "Cat Investment Garden", Description: "Grow wealth like planting seeds", Badge: "Garden Investor"},
	{ID: Debt, Title: "Debt Dilemma", Description: "Learn to escape debt traps", Badge: "Debt Destroyer"},
	{ID: Mortgage, Title: "Cat's First Home", Description: "Understand mortgages and home buying", Badge: "Home Planner"},
}

// Catalog lists every game in dashboard order.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// IDs lists every game id in dashboard order.
func IDs() []ID {
	out := make([]ID, len(catalog))
	for i, c := range catalog {
		out[i] = c.ID
	}
	return out
}

func Lookup(id ID) (Info, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Info{}, false
}

var printer = message.NewPrinter(language.English)

// Money formats whole dollars with thousands separators.
func Money(v int) string {
	if v < 0 {
		return printer.Sprintf("-$%d", -v)
	}
	return printer.Sprintf("$%d", v)
}

// SignedMoney is Money with an explicit plus sign for gains.
func SignedMoney(v int) string {
	if v > 0 {
		return "+" + Money(v)
	}
	return Money(v)
}

func percent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}
