package entity

import (
	"fmt"
	"time"
)

// ItemKind tags the variant of a listable item. Each kind lives in its own collection.
type ItemKind string

const (
	KindProduct  ItemKind = "product"
	KindProperty ItemKind = "property"
	KindCar      ItemKind = "car"
)

func ParseItemKind(s string) (ItemKind, error) {
	switch ItemKind(s) {
	case KindProduct, KindProperty, KindCar:
		return ItemKind(s), nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

func (k ItemKind) Collection() string {
	switch k {
	case KindProduct:
		return "products"
	case KindProperty:
		return "properties"
	case KindCar:
		return "cars"
	}
	panic(fmt.Sprintf("entity: unknown item kind %q", string(k)))
}

// Counter and boost field names on item documents.
const (
	FieldFavoritesCount              = "favoritesCount"
	FieldCartCount                   = "cartCount"
	FieldClickCount                  = "clickCount"
	FieldDailyClickCount             = "dailyClickCount"
	FieldLastClickDate               = "lastClickDate"
	FieldImpressionCount             = "impressionCount"
	FieldIsBoosted                   = "isBoosted"
	FieldBoostStartTime              = "boostStartTime"
	FieldBoostEndTime                = "boostEndTime"
	FieldBoostImpressionCountAtStart = "boostImpressionCountAtStart"
	FieldBoostClickCountAtStart      = "boostClickCountAtStart"
)

// ItemRef addresses one item document.
type ItemRef struct {
	Kind ItemKind `json:"kind" validate:"required,oneof=product property car"`
	ID   string   `json:"id" validate:"required"`
}

func (r ItemRef) String() string {
	return string(r.Kind) + "/" + r.ID
}

// Item is the capability set shared by every listable variant. Counters are
// denormalized aggregates and must only be changed through increments or
// transactions, never overwritten.
type Item struct {
	ID      string   `json:"id"`
	Kind    ItemKind `json:"kind"`
	OwnerID string   `json:"owner_id"`
	Title   string   `json:"title"`
	Price   float64  `json:"price"`

	FavoritesCount  int64      `json:"favorites_count"`
	CartCount       int64      `json:"cart_count"`
	ClickCount      int64      `json:"click_count"`
	DailyClickCount int64      `json:"daily_click_count"`
	LastClickDate   *time.Time `json:"last_click_date,omitempty"`
	ImpressionCount int64      `json:"impression_count"`

	IsBoosted                   bool       `json:"is_boosted"`
	BoostStartTime              *time.Time `json:"boost_start_time,omitempty"`
	BoostEndTime                *time.Time `json:"boost_end_time,omitempty"`
	BoostImpressionCountAtStart int64      `json:"boost_impression_count_at_start"`
	BoostClickCountAtStart      int64      `json:"boost_click_count_at_start"`

	Details   ItemDetails `json:"details"`
	CreatedAt time.Time   `json:"created_at"`
}

func (i *Item) Ref() ItemRef {
	return ItemRef{Kind: i.Kind, ID: i.ID}
}

// Counter returns the aggregate kept in sync with memberships of the given relation.
func (i *Item) Counter(rel Relation) int64 {
	switch rel {
	case RelationFavorite:
		return i.FavoritesCount
	case RelationCart:
		return i.CartCount
	}
	return 0
}

func (i *Item) SetCounter(rel Relation, v int64) {
	switch rel {
	case RelationFavorite:
		i.FavoritesCount = v
	case RelationCart:
		i.CartCount = v
	}
}

// Validate checks that the variant payload matches the declared kind.
func (i *Item) Validate() error {
	if i.OwnerID == "" {
		return fmt.Errorf("item owner is required")
	}
	if i.Details == nil {
		return fmt.Errorf("item details are required")
	}
	if i.Details.Kind() != i.Kind {
		return fmt.Errorf("details of kind %q do not match item kind %q", i.Details.Kind(), i.Kind)
	}
	return nil
}

// ItemDetails is the variant-specific payload of an item.
type ItemDetails interface {
	Kind() ItemKind
}

type ProductDetails struct {
	Brand     string `json:"brand" firestore:"brand"`
	Category  string `json:"category" firestore:"category"`
	Condition string `json:"condition" firestore:"condition"`
	Stock     int    `json:"stock" firestore:"stock"`
}

func (ProductDetails) Kind() ItemKind { return KindProduct }

type PropertyDetails struct {
	City    string  `json:"city" firestore:"city"`
	Rooms   int     `json:"rooms" firestore:"rooms"`
	AreaSqm float64 `json:"area_sqm" firestore:"areaSqm"`
	ForRent bool    `json:"for_rent" firestore:"forRent"`
}

func (PropertyDetails) Kind() ItemKind { return KindProperty }

type CarDetails struct {
	Make    string `json:"make" firestore:"make"`
	Model   string `json:"model" firestore:"model"`
	Year    int    `json:"year" firestore:"year"`
	Mileage int    `json:"mileage" firestore:"mileage"`
}

func (CarDetails) Kind() ItemKind { return KindCar }

// SortOrder values accepted by MarketFilter.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortPopular   = "popular"
)

// MarketFilter is the immutable listing context passed explicitly down to the
// item listing. Modifiers return a copy; Reset returns the zero filter.
type MarketFilter struct {
	kind        ItemKind
	onlyBoosted bool
	minPrice    float64
	maxPrice    float64
	sort        string
	limit       int
}

type MarketFilterOption func(*MarketFilter)

func WithOnlyBoosted(v bool) MarketFilterOption {
	return func(f *MarketFilter) { f.onlyBoosted = v }
}

func WithPriceRange(min, max float64) MarketFilterOption {
	return func(f *MarketFilter) { f.minPrice, f.maxPrice = min, max }
}

func WithSort(sort string) MarketFilterOption {
	return func(f *MarketFilter) { f.sort = sort }
}

func WithLimit(limit int) MarketFilterOption {
	return func(f *MarketFilter) { f.limit = limit }
}

func NewMarketFilter(kind ItemKind, opts ...MarketFilterOption) (MarketFilter, error) {
	f := MarketFilter{kind: kind, sort: SortNewest, limit: 20}
	for _, opt := range opts {
		opt(&f)
	}
	switch f.sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortPopular:
	default:
		return MarketFilter{}, fmt.Errorf("unknown sort %q", f.sort)
	}
	if f.limit <= 0 || f.limit > 100 {
		f.limit = 20
	}
	if f.maxPrice > 0 && f.minPrice > f.maxPrice {
		return MarketFilter{}, fmt.Errorf("min price above max price")
	}
	return f, nil
}

func (f MarketFilter) Kind() ItemKind    { return f.kind }
func (f MarketFilter) OnlyBoosted() bool { return f.onlyBoosted }
func (f MarketFilter) MinPrice() float64 { return f.minPrice }
func (f MarketFilter) MaxPrice() float64 { return f.maxPrice }
func (f MarketFilter) Sort() string      { return f.sort }
func (f MarketFilter) Limit() int        { return f.limit }

// Reset drops every criterion but the kind.
func (f MarketFilter) Reset() MarketFilter {
	return MarketFilter{kind: f.kind, sort: SortNewest, limit: 20}
}

// Matches reports whether an item passes the filter criteria, ignoring sort and limit.
func (f MarketFilter) Matches(item *Item) bool {
	if item.Kind != f.kind {
		return false
	}
	if f.onlyBoosted && !item.IsBoosted {
		return false
	}
	if f.minPrice > 0 && item.Price < f.minPrice {
		return false
	}
	if f.maxPrice > 0 && item.Price > f.maxPrice {
		return false
	}
	return true
}
