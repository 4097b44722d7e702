package entity

import (
	"fmt"
)

// DefaultThreshold минимальная уверенность классификатора для принятия метки
const DefaultThreshold = 0.4

// Имена категорий атрибутов
const (
	CategoryType           = "type"
	CategoryColor          = "color"
	CategoryMaterial       = "material"
	CategoryPattern        = "pattern"
	CategoryStyle          = "style"
	CategoryFit            = "fit"
	CategoryFeatures       = "features"
	CategoryTargetAudience = "target_audience"
)

// Category группа меток-кандидатов с правилом отбора
type Category struct {
	Name   string        `json:"name" yaml:"name"`
	Labels []string      `json:"labels" yaml:"labels"`
	Rule   SelectionRule `json:"rule" yaml:"rule"`
}

// Taxonomy упорядоченный набор категорий. Порядок сохраняется в ответах.
type Taxonomy struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// Category возвращает категорию по имени
func (t *Taxonomy) Category(name string) (Category, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Names возвращает имена категорий в порядке таксономии
func (t *Taxonomy) Names() []string {
	names := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		names = append(names, c.Name)
	}
	return names
}

// WithThreshold возвращает копию таксономии с единым порогом для всех категорий
func (t *Taxonomy) WithThreshold(threshold float64) *Taxonomy {
	out := &Taxonomy{Categories: make([]Category, len(t.Categories))}
	for i, c := range t.Categories {
		c.Labels = append([]string(nil), c.Labels...)
		c.Rule.Threshold = threshold
		out.Categories[i] = c
	}
	return out
}

// Validate проверяет, что таксономией можно пользоваться
func (t *Taxonomy) Validate() error {
	if t == nil || len(t.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidTaxonomy)
	}

	seen := make(map[string]struct{}, len(t.Categories))
	for i, c := range t.Categories {
		if c.Name == "" {
			return fmt.Errorf("%w: category #%d has no name", ErrInvalidTaxonomy, i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidTaxonomy, c.Name)
		}
		seen[c.Name] = struct{}{}

		if len(c.Labels) == 0 {
			return fmt.Errorf("%w: category %q has no labels", ErrInvalidTaxonomy, c.Name)
		}
		if c.Rule.Threshold < 0 || c.Rule.Threshold > 1 {
			return fmt.Errorf("%w: category %q threshold %.2f is outside [0, 1]", ErrInvalidTaxonomy, c.Name, c.Rule.Threshold)
		}
	}
	return nil
}

// DefaultTaxonomy возвращает встроенный набор категорий одежды
func DefaultTaxonomy() *Taxonomy {
	single := SelectionRule{TopK: 1, Threshold: DefaultThreshold}
	top2 := SelectionRule{TopK: 2, Threshold: DefaultThreshold, Multi: true}
	top3 := SelectionRule{TopK: 3, Threshold: DefaultThreshold, Multi: true}

	return &Taxonomy{Categories: []Category{
		{
			Name: CategoryType,
			Labels: []string{
				"t-shirt", "shirt", "polo", "tank top", "sweater", "hoodie", "sweatshirt", "jacket",
				"coat", "blazer", "cardigan", "kurta", "sherwani", "top", "dress", "gown", "jumpsuit",
				"jeans", "trousers", "chinos", "cargo pants", "shorts", "skirt", "leggings", "joggers",
				"shrug", "overcoat", "trench coat", "parka", "puffer", "windbreaker",
			},
			Rule: single,
		},
		{
			Name: CategoryColor,
			Labels: []string{
				"black", "white", "blue", "navy", "light blue", "red", "green", "olive", "yellow",
				"orange", "pink", "purple", "grey", "brown", "beige", "cream", "maroon", "pastel",
				"teal", "mint", "lavender", "burgundy", "mustard",
			},
			Rule: top2,
		},
		{
			Name: CategoryMaterial,
			Labels: []string{
				"cotton", "denim", "leather", "wool", "silk", "linen", "rayon", "polyester", "nylon",
				"velvet", "corduroy", "satin", "fleece", "mesh", "lace", "knit", "chiffon", "jersey", "spandex",
			},
			Rule: top2,
		},
		{
			Name: CategoryPattern,
			Labels: []string{
				"plain", "striped", "checked", "plaid", "floral", "graphic", "animal print",
				"polka dot", "abstract", "embroidered", "tie-dye", "camouflage", "color-blocked",
				"geometric", "aztec", "tribal", "ombre",
			},
			Rule: top2,
		},
		{
			Name: CategoryStyle,
			Labels: []string{
				"casual", "formal", "streetwear", "business", "party", "athleisure", "ethnic",
				"fusion", "boho", "vintage", "korean", "minimal", "preppy", "grunge", "punk",
				"resort", "smart casual",
			},
			Rule: top2,
		},
		{
			Name: CategoryFit,
			Labels: []string{
				"slim fit", "regular fit", "oversized", "relaxed fit", "boxy fit",
				"A-line", "bodycon", "flare", "tapered", "straight cut", "high waist", "low waist",
			},
			Rule: single,
		},
		{
			Name: CategoryFeatures,
			Labels: []string{
				"long sleeve", "short sleeve", "sleeveless", "half sleeve", "quarter sleeve",
				"crop", "high neck", "round neck", "v-neck", "collared", "button-up", "zip-up",
				"drawstring", "elastic waistband", "asymmetrical", "pleated", "belted",
			},
			Rule: top3,
		},
		{
			Name:   CategoryTargetAudience,
			Labels: []string{"men", "women", "unisex", "boys", "girls", "kids", "teens"},
			Rule:   single,
		},
	}}
}
