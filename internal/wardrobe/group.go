package wardrobe

import (
	"strings"

	"stylist/internal/domain"
)

// Groups splits a wardrobe for display.
type Groups struct {
	Upper []domain.ClothingItem
	Lower []domain.ClothingItem
	Other []domain.ClothingItem
}

// Group sorts items into upper, lower and other using body_part, falling
// back to category keywords.
func Group(items []domain.ClothingItem) Groups {
	var g Groups
	for _, it := range items {
		part := strings.ToLower(it.Attr(domain.AttrBodyPart))
		category := strings.ToLower(it.Category())
		switch {
		case strings.Contains(part, "upper") || strings.Contains(category, "shirt"):
			g.Upper = append(g.Upper, it)
		case strings.Contains(part, "lower") || strings.Contains(category, "pant"):
			g.Lower = append(g.Lower, it)
		default:
			g.Other = append(g.Other, it)
		}
	}
	return g
}
