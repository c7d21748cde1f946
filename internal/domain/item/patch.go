package item

// Patch is a partial update: nil pointers leave fields untouched.
type Patch struct {
	ImgURL      *string
	Title       *string
	Vendor      *string
	Price       *float64
	Currency    *string
	Description *string
	ColourHex   *string
	Category    *string
	Material    *string
	SrcURL      *string
	Notes       *string
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.ImgURL == nil && p.Title == nil && p.Vendor == nil &&
		p.Price == nil && p.Currency == nil && p.Description == nil &&
		p.ColourHex == nil && p.Category == nil && p.Material == nil &&
		p.SrcURL == nil && p.Notes == nil
}

// TouchesEmbeddingText reports whether the patch edits any field that feeds
// EmbeddingText. Such edits invalidate the stored embedding.
func (p *Patch) TouchesEmbeddingText() bool {
	return p.Title != nil || p.Vendor != nil || p.Category != nil ||
		p.Material != nil || p.Description != nil
}

// Apply returns a copy of it with the patch merged in. The embedding is
// carried over unchanged; the caller decides whether it became stale.
func (p *Patch) Apply(it Item) Item {
	f := it.Fields()
	if p.ImgURL != nil {
		f.ImgURL = *p.ImgURL
	}
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Vendor != nil {
		f.Vendor = *p.Vendor
	}
	if p.Price != nil {
		f.Price = *p.Price
	}
	if p.Currency != nil {
		f.Currency = *p.Currency
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.ColourHex != nil {
		f.ColourHex = *p.ColourHex
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Material != nil {
		f.Material = *p.Material
	}
	if p.SrcURL != nil {
		f.SrcURL = *p.SrcURL
	}
	if p.Notes != nil {
		f.Notes = *p.Notes
	}
	return Reconstruct(it.ID(), it.OwnerID(), f, it.Embedding(), it.CreatedAt(), it.UpdatedAt())
}
