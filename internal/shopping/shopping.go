// Package shopping aggregates the ingredients of a day's meals into one list.
package shopping

import (
	"sort"
	"strings"

	"ai-health-planner/internal/planner"
	"ai-health-planner/internal/recipe"
)

// Item is one ingredient across every meal that uses it.
type Item struct {
	Name    string   `json:"name"`
	Amounts []string `json:"amounts"`
	Meals   []string `json:"meals"`
	Cost    float64  `json:"cost"`
}

// List is the shopping list for one day's plan.
type List struct {
	Date           string  `json:"date"`
	Items          []Item  `json:"items"`
	EstimatedTotal float64 `json:"estimated_total"`
	Currency       string  `json:"currency,omitempty"`
	// Unpriced counts ingredient lines whose cost had no number in it.
	Unpriced int `json:"unpriced"`
}

// Build merges ingredients by case-insensitive name. Items are sorted by name.
func Build(plan *planner.DayPlan) *List {
	list := &List{Date: plan.Date, Items: []Item{}}
	index := map[string]int{}

	for _, m := range plan.Meals {
		if m.Recipe == nil {
			continue
		}
		if list.Currency == "" {
			list.Currency = m.Recipe.Currency
		}
		for _, ing := range m.Recipe.Ingredients {
			list.add(index, string(m.MealType), ing)
		}
	}

	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Name < list.Items[j].Name })
	return list
}

func (l *List) add(index map[string]int, meal string, ing recipe.Ingredient) {
	key := strings.ToLower(strings.TrimSpace(ing.Name))
	if key == "" {
		return
	}

	i, ok := index[key]
	if !ok {
		l.Items = append(l.Items, Item{Name: key})
		i = len(l.Items) - 1
		index[key] = i
	}
	item := &l.Items[i]

	if ing.Amount != "" {
		item.Amounts = append(item.Amounts, ing.Amount)
	}
	if n := len(item.Meals); n == 0 || item.Meals[n-1] != meal {
		item.Meals = append(item.Meals, meal)
	}

	cost := recipe.ParseCost(ing.Cost)
	if cost == nil {
		l.Unpriced++
		return
	}
	item.Cost += *cost
	l.EstimatedTotal += *cost
}
