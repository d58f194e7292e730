package domain

import "time"

type ItemType string

const (
	ItemTypeNote  ItemType = "note"
	ItemTypeLink  ItemType = "link"
	ItemTypeImage ItemType = "image"
)

// timestampLayout is fixed-width with millisecond precision so that
// lexicographic ordering of CreatedAt strings equals chronological
// ordering. The remote listing order depends on this.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in the fixed-width UTC form used for
// Item.CreatedAt and for item file names.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Item is the unit of capture. Items are immutable once written to the
// remote repository; UpdatedAt is stamped only by in-cache mutations.
type Item struct {
	ID          string   `json:"id" validate:"required"`
	Type        ItemType `json:"type" validate:"required,oneof=note link image"`
	Content     string   `json:"content"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	ContentType string   `json:"contentType,omitempty"`
	CreatedAt   string   `json:"createdAt" validate:"required"`
	Tags        []string `json:"tags"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

type CreateItemRequest struct {
	Type        ItemType `json:"type" validate:"required,oneof=note link image"`
	Content     string   `json:"content"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	ContentType string   `json:"contentType"`
	Tags        []string `json:"tags"`
}

// UpdateItemRequest carries a partial item mutation. Pointer fields
// make field presence explicit: nil means "leave unchanged".
type UpdateItemRequest struct {
	Content     *string   `json:"content"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Image       *string   `json:"image"`
	ContentType *string   `json:"contentType"`
	Tags        *[]string `json:"tags"`
}
