package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"       json:"_id"`
	Title             string             `bson:"title"               json:"title"`
	Description       string             `bson:"description"         json:"description"`
	Price             float64            `bson:"price"               json:"price"`
	DiscountedPrice   float64            `bson:"discountedPrice,omitempty" json:"discountedPrice,omitempty"`
	QuantityAvailable int                `bson:"quantityAvailable"   json:"quantityAvailable"`
	Brand             []string           `bson:"brand"               json:"brand"`
	Category          string             `bson:"category,omitempty"  json:"category,omitempty"`
	Keywords          []string           `bson:"keywords"            json:"keywords"`
	PinCodes          []int              `bson:"pinCodes"            json:"pinCodes"`
	Ratings           float64            `bson:"ratings"             json:"ratings"`
	Images            []string           `bson:"images"              json:"images"`
	Shop              primitive.ObjectID `bson:"shop"                json:"shop"`
	CreatedAt         time.Time          `bson:"createdAt"           json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"           json:"updatedAt"`
}

// ProductUpdate carries the fields of a partial update. Nil pointers and
// nil slices mean "leave unchanged".
type ProductUpdate struct {
	Title             *string
	Description       *string
	Price             *float64
	DiscountedPrice   *float64
	QuantityAvailable *int
	Category          *string
	Brand             []string
	Keywords          []string
	PinCodes          []int
}

// Empty reports whether the update would change nothing.
func (u ProductUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil &&
		u.DiscountedPrice == nil && u.QuantityAvailable == nil &&
		u.Category == nil && u.Brand == nil && u.Keywords == nil &&
		u.PinCodes == nil
}

type ProductListResponse struct {
	Message        string    `json:"message"`
	Products       []Product `json:"products"`
	TotalProducts  int64     `json:"totalProducts"`
	ResultsPerPage int       `json:"resultsPerPage"`
}

type HomePageResponse struct {
	Products      []Product `json:"products"`
	TotalProducts int64     `json:"totalProducts"`
	TotalPages    int64     `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
}
