package item

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rolodex-hq/rolodex/internal/domain/item"
)

// dto is the storage representation of an item document.
type dto struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	ImgURL      string    `json:"img_url"`
	Title       string    `json:"title,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	Price       float64   `json:"price,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Description string    `json:"description,omitempty"`
	ColourHex   string    `json:"colour_hex,omitempty"`
	Category    string    `json:"category,omitempty"`
	Material    string    `json:"material,omitempty"`
	SrcURL      string    `json:"src_url,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDTO(it *item.Item) dto {
	f := it.Fields()
	return dto{
		ID:          it.ID(),
		OwnerID:     it.OwnerID(),
		ImgURL:      f.ImgURL,
		Title:       f.Title,
		Vendor:      f.Vendor,
		Price:       f.Price,
		Currency:    f.Currency,
		Description: f.Description,
		ColourHex:   f.ColourHex,
		Category:    f.Category,
		Material:    f.Material,
		SrcURL:      f.SrcURL,
		Notes:       f.Notes,
		Embedding:   it.Embedding(),
		CreatedAt:   it.CreatedAt(),
		UpdatedAt:   it.UpdatedAt(),
	}
}

func (d dto) toDomain() item.Item {
	return item.Reconstruct(
		d.ID, d.OwnerID,
		item.Fields{
			ImgURL:      d.ImgURL,
			Title:       d.Title,
			Vendor:      d.Vendor,
			Price:       d.Price,
			Currency:    d.Currency,
			Description: d.Description,
			ColourHex:   d.ColourHex,
			Category:    d.Category,
			Material:    d.Material,
			SrcURL:      d.SrcURL,
			Notes:       d.Notes,
		},
		d.Embedding, d.CreatedAt, d.UpdatedAt,
	)
}

func unmarshalDoc(data []byte) (item.Item, error) {
	var d dto
	if err := json.Unmarshal(data, &d); err != nil {
		return item.Item{}, fmt.Errorf("unmarshal item document: %w", err)
	}
	return d.toDomain(), nil
}
