package product

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/apperr"
)

// DefaultImage is used when a product is saved without any picture.
const DefaultImage = "https://placehold.co/600x600?text=Craft+Island"

// Product maps to the `products` table. Images is the ordered gallery; Image
// always mirrors its first entry so single-image schemas still render.
type Product struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Image         string           `json:"image"`
	Images        []string         `json:"images,omitempty"`
	Stock         int              `json:"stock"`
}

// AllowedCategories contains the supported product categories used across the app.
var AllowedCategories = []string{
	"Crafts",
	"Tools",
	"Materials",
}

// Capabilities reports which optional columns the backing schema has.
type Capabilities struct {
	Images bool `json:"images"`
}

// WriteResult is returned by create and update. Degraded is set when the
// write had to fall back to single-image columns.
type WriteResult struct {
	Product  Product `json:"product"`
	Degraded bool    `json:"degraded"`
}

// DegradedNotice is shown next to a write that lost its image gallery.
const DegradedNotice = "Saved with a single image: the image gallery column is not available."

// EffectivePrice is the discount price when one is set, else the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// Normalize guarantees at least one image and keeps Image == Images[0].
func (p *Product) Normalize() {
	images := make([]string, 0, len(p.Images)+1)
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		img := strings.TrimSpace(p.Image)
		if img == "" {
			img = DefaultImage
		}
		images = append(images, img)
	}
	p.Images = images
	p.Image = images[0]
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Product) Clone() Product {
	out := p
	if p.Images != nil {
		out.Images = append([]string(nil), p.Images...)
	}
	if p.DiscountPrice != nil {
		d := *p.DiscountPrice
		out.DiscountPrice = &d
	}
	return out
}

func validationErrors(p Product) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(p.Name) == "" {
		errs["name"] = "name is required"
	}
	if !p.Price.IsPositive() {
		errs["price"] = "price must be > 0"
	}
	if p.DiscountPrice != nil {
		if p.DiscountPrice.IsNegative() {
			errs["discountPrice"] = "discountPrice must be >= 0"
		} else if !p.DiscountPrice.LessThan(p.Price) {
			errs["discountPrice"] = "discountPrice must be lower than price"
		}
	}
	if p.Stock < 0 {
		errs["stock"] = "stock must be >= 0"
	}
	valid := false
	for _, c := range AllowedCategories {
		if p.Category == c {
			valid = true
			break
		}
	}
	if !valid {
		errs["category"] = "category must be one of " + strings.Join(AllowedCategories, ", ")
	}
	return errs
}

// Validate reports every invalid field in a single ErrValidationFailed.
func (p Product) Validate() error {
	errs := validationErrors(p)
	if len(errs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, errs[f])
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

// ErrNotFound matches apperr.ErrNotFound.
var ErrNotFound = fmt.Errorf("product %w", apperr.ErrNotFound)
