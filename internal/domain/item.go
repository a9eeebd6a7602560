package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Attribute keys produced by image analysis.
const (
	AttrCategory    = "category"
	AttrSubCategory = "sub_category"
	AttrColor       = "color"
	AttrPattern     = "pattern"
	AttrMaterial    = "material"
	AttrStyle       = "style"
	AttrDescription = "description"
	AttrBodyPart    = "body_part"

	fieldID        = "_id"
	fieldImagePath = "image_path"
)

// ClothingItem is a single wardrobe piece. ID is empty until the record store
// has assigned one. Attributes keeps every field the service returned so the
// item can be sent back unchanged (scoring relies on fields such as body_part).
type ClothingItem struct {
	ID         string
	ImagePath  string
	Attributes map[string]any
}

// Attr returns a string attribute, or "" when missing or not a string.
func (c ClothingItem) Attr(key string) string {
	if c.Attributes == nil {
		return ""
	}
	if v, ok := c.Attributes[key].(string); ok {
		return v
	}
	return ""
}

func (c ClothingItem) Category() string { return c.Attr(AttrCategory) }
func (c ClothingItem) Color() string { return c.Attr(AttrColor) }
func (c ClothingItem) Style() string { return c.Attr(AttrStyle) }
func (c ClothingItem) Description() string { return c.Attr(AttrDescription) }

// IndexDescription is the text sent to the search index. Analysis may leave
// the description blank, in which case color, category and style stand in.
func (c ClothingItem) IndexDescription() string {
	if d := strings.TrimSpace(c.Description()); d != "" {
		return d
	}
	return strings.Join(strings.Fields(fmt.Sprintf("%s %s %s", c.Color(), c.Category(), c.Style())), " ")
}

// WithID returns a copy carrying the given identity. Attributes are copied so
// the original stays untouched.
func (c ClothingItem) WithID(id string) ClothingItem {
	out := ClothingItem{ID: id, ImagePath: c.ImagePath}
	if c.Attributes != nil {
		out.Attributes = make(map[string]any, len(c.Attributes))
		for k, v := range c.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}

func (c ClothingItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Attributes)+2)
	for k, v := range c.Attributes {
		out[k] = v
	}
	if c.ID != "" {
		out[fieldID] = c.ID
	}
	if c.ImagePath != "" {
		out[fieldImagePath] = c.ImagePath
	}
	return json.Marshal(out)
}

func (c *ClothingItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ClothingItem{}
	if v, ok := raw[fieldID]; ok {
		c.ID = fmt.Sprint(v)
		delete(raw, fieldID)
	}
	if v, ok := raw[fieldImagePath].(string); ok {
		c.ImagePath = v
		delete(raw, fieldImagePath)
	}
	c.Attributes = raw
	return nil
}

// ImageFilename reduces a stored image path (the service reports absolute
// paths on its own disk) to the name the image endpoint serves it under.
func ImageFilename(imagePath string) string {
	p := strings.TrimSpace(strings.ReplaceAll(imagePath, "\\", "/"))
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// ImageFilename is the served name of this item's image.
func (c ClothingItem) ImageFilename() string { return ImageFilename(c.ImagePath) }
