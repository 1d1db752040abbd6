package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TicketPlanEntry is one priced tier requested by an event proposal.
type TicketPlanEntry struct {
	Name     string
	Quantity int
	Price    float64
}

type TicketPlan []TicketPlanEntry

func (p TicketPlan) TotalSupply() int {
	total := 0
	for _, entry := range p {
		total += entry.Quantity
	}
	return total
}

type rawPlanEntry struct {
	Name     *string         `json:"name"`
	Quantity json.RawMessage `json:"quantity"`
	Price    json.RawMessage `json:"price"`
}

// ParseTicketPlan decodes the proposal's ticket plan payload. Quantity and
// price may be sent either as JSON numbers or as numeric strings.
func ParseTicketPlan(raw json.RawMessage) (TicketPlan, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: plan is missing", ErrMalformedPlan)
	}

	var entries []rawPlanEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: plan has no categories", ErrMalformedPlan)
	}

	plan := make(TicketPlan, 0, len(entries))
	for i, e := range entries {
		if e.Name == nil || strings.TrimSpace(*e.Name) == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrMalformedPlan, i)
		}

		qty, err := parseQuantity(e.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d (%s): %v", ErrMalformedPlan, i, *e.Name, err)
		}

		price, err := parsePrice(e.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d (%s): %v", ErrMalformedPlan, i, *e.Name, err)
		}

		plan = append(plan, TicketPlanEntry{
			Name:     strings.TrimSpace(*e.Name),
			Quantity: qty,
			Price:    price,
		})
	}
	return plan, nil
}

func parseQuantity(raw json.RawMessage) (int, error) {
	text, err := numericText(raw)
	if err != nil {
		return 0, fmt.Errorf("quantity %w", err)
	}
	qty, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("quantity %q is not an integer", text)
	}
	if qty <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %d", qty)
	}
	return qty, nil
}

func parsePrice(raw json.RawMessage) (float64, error) {
	text, err := numericText(raw)
	if err != nil {
		return 0, fmt.Errorf("price %w", err)
	}
	price, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price %q is not a number", text)
	}
	if price < 0 {
		return 0, fmt.Errorf("price must not be negative, got %v", price)
	}
	return price, nil
}

func numericText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", fmt.Errorf("is missing")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("is not a string: %v", err)
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", fmt.Errorf("is not numeric")
	}
	return n.String(), nil
}
