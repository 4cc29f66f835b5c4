// Package catalog holds the garment data model and the immutable catalog
// snapshot the planner works over. Catalog content is produced externally
// (attribute captions + visual embeddings); this package only loads,
// validates and indexes it.
package catalog

import "errors"

// EmbeddingDim is the dimensionality of the visual embedding vectors the
// external extraction step produces.
const EmbeddingDim = 512

// ErrNotInCatalog is returned when a garment id is unknown.
var ErrNotInCatalog = errors.New("garment not in catalog")

// Category is the outfit slot a garment can fill.
type Category string

const (
	CategoryUpper     Category = "Upper"
	CategoryLower     Category = "Lower"
	CategoryDress     Category = "Dress"
	CategorySet       Category = "Set"
	CategoryOuterwear Category = "Outerwear"
	CategoryOther     Category = "Other"
)

// Categories lists the known slots in a stable order.
var Categories = []Category{
	CategoryUpper,
	CategoryLower,
	CategoryDress,
	CategorySet,
	CategoryOuterwear,
	CategoryOther,
}

// ParseCategory folds a raw category string ("upper", "top", "bottom", …)
// to a Category. Unknown values map to CategoryOther rather than failing:
// a garment with a strange category can still be stored and listed, it just
// never fills a mandatory outfit slot.
func ParseCategory(raw string) Category {
	switch normalizeToken(raw) {
	case "upper", "top", "topwear", "shirt", "blouse":
		return CategoryUpper
	case "lower", "bottom", "bottomwear", "pants", "skirt":
		return CategoryLower
	case "dress":
		return CategoryDress
	case "set", "suit", "co-ord", "coord":
		return CategorySet
	case "outerwear", "outer", "coat", "jacket":
		return CategoryOuterwear
	default:
		return CategoryOther
	}
}

// Garment is one catalog entry: caption-derived attributes plus the visual
// embedding. Embedding is nil when the embedding table has no row for this
// garment; such items still pass attribute filters but contribute no
// similarity signal.
type Garment struct {
	ID             string    `json:"id"`
	Category       Category  `json:"category"`
	Subcategory    string    `json:"subcategory,omitempty"`
	ColorPrimary   string    `json:"color_primary,omitempty"`
	ColorSecondary string    `json:"color_secondary,omitempty"`
	Pattern        string    `json:"pattern,omitempty"`
	Material       string    `json:"material,omitempty"`
	SleeveLength   string    `json:"sleeve_length,omitempty"`
	Length         string    `json:"length,omitempty"`
	StyleAesthetic string    `json:"style_aesthetic,omitempty"`
	FitSilhouette  string    `json:"fit_silhouette,omitempty"`
	Description    string    `json:"description,omitempty"`
	Embedding      []float32 `json:"-"`
}

// HasEmbedding reports whether the garment carries a usable embedding.
func (g Garment) HasEmbedding() bool {
	return len(g.Embedding) > 0
}
