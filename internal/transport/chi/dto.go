package chi

import (
	"time"

	"github.com/rolodex-hq/rolodex/internal/domain/item"
	"github.com/rolodex-hq/rolodex/internal/domain/savedsearch"
	"github.com/rolodex-hq/rolodex/internal/domain/search/result"
)

// errorCode is the machine-readable error discriminator in error responses.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeValidationFailed errorCode = "validation_failed"
	codeItemNotFound     errorCode = "item_not_found"
	codeSearchNotFound   errorCode = "search_not_found"
	codeInvalidCursor    errorCode = "invalid_cursor"
	codeRateLimited      errorCode = "rate_limited"
	codeStorageError     errorCode = "storage_unavailable"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type createItemRequest struct {
	ImgURL      string  `json:"img_url"`
	Title       string  `json:"title"`
	Vendor      string  `json:"vendor"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	ColourHex   string  `json:"colour_hex"`
	Category    string  `json:"category"`
	Material    string  `json:"material"`
	SrcURL      string  `json:"src_url"`
	Notes       string  `json:"notes"`
}

func (r createItemRequest) toFields() item.Fields {
	return item.Fields{
		ImgURL:      r.ImgURL,
		Title:       r.Title,
		Vendor:      r.Vendor,
		Price:       r.Price,
		Currency:    r.Currency,
		Description: r.Description,
		ColourHex:   r.ColourHex,
		Category:    r.Category,
		Material:    r.Material,
		SrcURL:      r.SrcURL,
		Notes:       r.Notes,
	}
}

type updateItemRequest struct {
	ImgURL      *string  `json:"img_url"`
	Title       *string  `json:"title"`
	Vendor      *string  `json:"vendor"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
	Description *string  `json:"description"`
	ColourHex   *string  `json:"colour_hex"`
	Category    *string  `json:"category"`
	Material    *string  `json:"material"`
	SrcURL      *string  `json:"src_url"`
	Notes       *string  `json:"notes"`
}

func (r updateItemRequest) toPatch() item.Patch {
	return item.Patch{
		ImgURL:      r.ImgURL,
		Title:       r.Title,
		Vendor:      r.Vendor,
		Price:       r.Price,
		Currency:    r.Currency,
		Description: r.Description,
		ColourHex:   r.ColourHex,
		Category:    r.Category,
		Material:    r.Material,
		SrcURL:      r.SrcURL,
		Notes:       r.Notes,
	}
}

type itemResponse struct {
	ID           string    `json:"id"`
	ImgURL       string    `json:"img_url"`
	Title        string    `json:"title,omitempty"`
	Vendor       string    `json:"vendor,omitempty"`
	Price        float64   `json:"price,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	Description  string    `json:"description,omitempty"`
	ColourHex    string    `json:"colour_hex,omitempty"`
	Category     string    `json:"category,omitempty"`
	Material     string    `json:"material,omitempty"`
	SrcURL       string    `json:"src_url,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	HasEmbedding bool      `json:"has_embedding"`
	Score        float64   `json:"score,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func itemToResponse(it *item.Item) itemResponse {
	f := it.Fields()
	return itemResponse{
		ID:           it.ID(),
		ImgURL:       f.ImgURL,
		Title:        f.Title,
		Vendor:       f.Vendor,
		Price:        f.Price,
		Currency:     f.Currency,
		Description:  f.Description,
		ColourHex:    f.ColourHex,
		Category:     f.Category,
		Material:     f.Material,
		SrcURL:       f.SrcURL,
		Notes:        f.Notes,
		HasEmbedding: it.HasEmbedding(),
		CreatedAt:    it.CreatedAt(),
		UpdatedAt:    it.UpdatedAt(),
	}
}

type listItemsResponse struct {
	Items      []itemResponse `json:"items"`
	NextCursor *string        `json:"next_cursor,omitempty"`
	SearchType string         `json:"search_type"`
}

func pageToResponse(page result.Page) listItemsResponse {
	items := make([]itemResponse, len(page.Results))
	for i := range page.Results {
		it := page.Results[i].Item()
		resp := itemToResponse(&it)
		resp.Score = page.Results[i].Score()
		items[i] = resp
	}

	out := listItemsResponse{Items: items, SearchType: string(page.Type)}
	if page.NextCursor != "" {
		c := page.NextCursor
		out.NextCursor = &c
	}
	return out
}

type createSearchRequest struct {
	Name      string   `json:"name"`
	Query     string   `json:"query"`
	Category  string   `json:"category"`
	Vendor    string   `json:"vendor"`
	ColourHex string   `json:"colour_hex"`
	PriceMax  *float64 `json:"price_max"`
}

type savedSearchResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Query     string    `json:"query,omitempty"`
	Category  string    `json:"category,omitempty"`
	Vendor    string    `json:"vendor,omitempty"`
	ColourHex string    `json:"colour_hex,omitempty"`
	PriceMax  *float64  `json:"price_max,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func savedSearchToResponse(s *savedsearch.SavedSearch) savedSearchResponse {
	cfg := s.Config()
	return savedSearchResponse{
		ID:        s.ID(),
		Name:      s.Name(),
		Query:     cfg.Query,
		Category:  cfg.Category,
		Vendor:    cfg.Vendor,
		ColourHex: cfg.ColourHex,
		PriceMax:  cfg.PriceMax,
		CreatedAt: s.CreatedAt(),
	}
}

type listSearchesResponse struct {
	Items []savedSearchResponse `json:"items"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
