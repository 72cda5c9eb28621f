package models

// Signature is one completed "hold to sign" on the love document.
type Signature struct {
	ID          uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	SignedAt    string  `json:"signedAt" gorm:"type:text;not null"`
	HoldSeconds float64 `json:"holdSeconds" gorm:"not null"`
	Note        *string `json:"note" gorm:"type:text"`
}

func (Signature) TableName() string { return "love_documents" }

// Click is one button or sticker interaction on the page.
type Click struct {
	ID          uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	ClickedAt   string  `json:"clickedAt" gorm:"type:text;not null"`
	ActionLabel string  `json:"actionLabel" gorm:"type:text;not null"`
	Sticker     *string `json:"sticker" gorm:"type:text"`
	PhotoSrc    *string `json:"photoSrc" gorm:"type:text"`
}

func (Click) TableName() string { return "button_clicks" }

// TimestampLayout is how signed_at and clicked_at are stored, always in UTC.
const TimestampLayout = "2006-01-02 15:04:05"
