// Package item defines the catalog item aggregate.
package item

import (
	"fmt"
	"strings"
	"time"

	"github.com/rolodex-hq/rolodex/internal/domain"
)

// MaxTextLen caps each textual field in bytes.
const MaxTextLen = 4096

// Item is a catalog entry (immutable value object).
// The embedding is nil until the enricher has processed the item;
// a nil embedding never participates in similarity ranking.
type Item struct {
	id          string
	ownerID     string
	imgURL      string
	title       string
	vendor      string
	price       float64
	currency    string
	description string
	colourHex   string
	category    string
	material    string
	srcURL      string
	notes       string
	embedding   []float32
	createdAt   time.Time
	updatedAt   time.Time
}

// Fields carries the caller-supplied attributes for New.
type Fields struct {
	ImgURL      string
	Title       string
	Vendor      string
	Price       float64
	Currency    string
	Description string
	ColourHex   string
	Category    string
	Material    string
	SrcURL      string
	Notes       string
}

// New validates and creates an Item. The embedding starts absent.
func New(id, ownerID string, f Fields, createdAt time.Time) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("item id is required: %w", domain.ErrInvalidItem)
	}
	if ownerID == "" {
		return Item{}, fmt.Errorf("owner id is required: %w", domain.ErrInvalidItem)
	}
	if f.ImgURL == "" {
		return Item{}, fmt.Errorf("img_url is required: %w", domain.ErrInvalidItem)
	}
	for name, v := range map[string]string{
		"title": f.Title, "vendor": f.Vendor, "description": f.Description,
		"category": f.Category, "material": f.Material, "notes": f.Notes,
	} {
		if len(v) > MaxTextLen {
			return Item{}, fmt.Errorf("%s too long (max %d bytes): %w", name, MaxTextLen, domain.ErrInvalidItem)
		}
	}

	return Item{
		id:          id,
		ownerID:     ownerID,
		imgURL:      f.ImgURL,
		title:       f.Title,
		vendor:      f.Vendor,
		price:       f.Price,
		currency:    f.Currency,
		description: f.Description,
		colourHex:   f.ColourHex,
		category:    f.Category,
		material:    f.Material,
		srcURL:      f.SrcURL,
		notes:       f.Notes,
		createdAt:   createdAt.UTC(),
		updatedAt:   createdAt.UTC(),
	}, nil
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(
	id, ownerID string, f Fields, embedding []float32, createdAt, updatedAt time.Time,
) Item {
	return Item{
		id:          id,
		ownerID:     ownerID,
		imgURL:      f.ImgURL,
		title:       f.Title,
		vendor:      f.Vendor,
		price:       f.Price,
		currency:    f.Currency,
		description: f.Description,
		colourHex:   f.ColourHex,
		category:    f.Category,
		material:    f.Material,
		srcURL:      f.SrcURL,
		notes:       f.Notes,
		embedding:   embedding,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the item identifier.
func (i *Item) ID() string { return i.id }

// OwnerID returns the owning principal.
func (i *Item) OwnerID() string { return i.ownerID }

// ImgURL returns the product image URL.
func (i *Item) ImgURL() string { return i.imgURL }

// Title returns the product title.
func (i *Item) Title() string { return i.title }

// Vendor returns the product vendor.
func (i *Item) Vendor() string { return i.vendor }

// Price returns the product price (0 = unknown).
func (i *Item) Price() float64 { return i.price }

// Currency returns the price currency code.
func (i *Item) Currency() string { return i.currency }

// Description returns the product description.
func (i *Item) Description() string { return i.description }

// ColourHex returns the dominant color as a hex string.
func (i *Item) ColourHex() string { return i.colourHex }

// Category returns the product category.
func (i *Item) Category() string { return i.category }

// Material returns the product material.
func (i *Item) Material() string { return i.material }

// SrcURL returns the source page URL.
func (i *Item) SrcURL() string { return i.srcURL }

// Notes returns the free-form user notes.
func (i *Item) Notes() string { return i.notes }

// Embedding returns the embedding vector (nil until enriched).
func (i *Item) Embedding() []float32 { return i.embedding }

// HasEmbedding reports whether the item has been enriched.
func (i *Item) HasEmbedding() bool { return len(i.embedding) > 0 }

// CreatedAt returns the creation timestamp.
func (i *Item) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the last modification timestamp.
func (i *Item) UpdatedAt() time.Time { return i.updatedAt }

// Fields returns the caller-visible attributes as a Fields value.
func (i *Item) Fields() Fields {
	return Fields{
		ImgURL:      i.imgURL,
		Title:       i.title,
		Vendor:      i.vendor,
		Price:       i.price,
		Currency:    i.currency,
		Description: i.description,
		ColourHex:   i.colourHex,
		Category:    i.category,
		Material:    i.material,
		SrcURL:      i.srcURL,
		Notes:       i.notes,
	}
}

// WithEmbedding returns a copy with the given embedding set.
func (i *Item) WithEmbedding(v []float32) Item {
	c := *i
	c.embedding = v
	return c
}

// WithoutEmbedding returns a copy with the embedding cleared (stale).
func (i *Item) WithoutEmbedding() Item {
	c := *i
	c.embedding = nil
	return c
}

// Touched returns a copy with the modification timestamp set.
func (i *Item) Touched(at time.Time) Item {
	c := *i
	c.updatedAt = at.UTC()
	return c
}

// EmbeddingText builds the composite description the embedding is derived
// from. The concatenation order (title, vendor, category, material,
// description) is fixed: changing it changes the vectors and breaks
// comparability with previously stored embeddings.
func (i *Item) EmbeddingText() string {
	var parts []string
	if i.title != "" {
		parts = append(parts, "Product: "+i.title)
	}
	if i.vendor != "" {
		parts = append(parts, "Brand: "+i.vendor)
	}
	if i.category != "" {
		parts = append(parts, "Category: "+i.category)
	}
	if i.material != "" {
		parts = append(parts, "Material: "+i.material)
	}
	if i.description != "" {
		parts = append(parts, "Description: "+i.description)
	}
	return strings.Join(parts, " | ")
}

// MatchesText reports whether the query occurs as a case-insensitive
// substring of any searchable textual field.
func (i *Item) MatchesText(query string) bool {
	q := strings.ToLower(query)
	for _, f := range []string{i.title, i.vendor, i.description, i.category} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
