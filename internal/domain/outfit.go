package domain

// Outfit roles.
const (
	RoleTop       = "top"
	RoleBottom    = "bottom"
	RoleShoes     = "shoes"
	RoleOuterwear = "outerwear"
)

// Roles lists outfit roles in display order.
var Roles = []string{RoleTop, RoleBottom, RoleShoes, RoleOuterwear}

// OutfitSelection is the best outfit chosen by the scoring service.
type OutfitSelection struct {
	Top       *ClothingItem
	Bottom    *ClothingItem
	Shoes     *ClothingItem
	Outerwear *ClothingItem
	Score     float64
	Reason    string
}

// Item returns the piece filling role, or nil.
func (o OutfitSelection) Item(role string) *ClothingItem {
	switch role {
	case RoleTop:
		return o.Top
	case RoleBottom:
		return o.Bottom
	case RoleShoes:
		return o.Shoes
	case RoleOuterwear:
		return o.Outerwear
	}
	return nil
}

// Empty reports whether no role is filled.
func (o OutfitSelection) Empty() bool {
	for _, r := range Roles {
		if o.Item(r) != nil {
			return false
		}
	}
	return true
}

// MatchResult is a scored selection plus the number of combinations the
// service evaluated to find it.
type MatchResult struct {
	Selection    OutfitSelection
	Combinations int
}

// StylePreferences are the facets extracted from a free-text query. Each is
// optional; nil means the query did not mention it.
type StylePreferences struct {
	Occasion  *string `json:"occasion"`
	Weather   *string `json:"weather"`
	StylePref *string `json:"style_pref"`
}
