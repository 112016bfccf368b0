package frontstack

import "encoding/json"

// Media is an asset attached to a product or category card.
type Media struct {
	Key          string `json:"key,omitempty"`
	Src          string `json:"src,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	AltText      string `json:"altText,omitempty"`
	ThumbnailSrc string `json:"thumbnailSrc,omitempty"`
	Type         string `json:"type,omitempty"`
	Position     int    `json:"position,omitempty"`
}

// Price is a catalog price in minor units. Ref carries the strike
// price for discounted products.
type Price struct {
	Precision int    `json:"precision,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Ref       int64  `json:"ref,omitempty"`
}

// ProductCard is the catalog view of a product as delivered by the
// content API. Key doubles as the Shopware product id.
type ProductCard struct {
	ID            string   `json:"id,omitempty"`
	Key           string   `json:"key"`
	Name          string   `json:"name,omitempty"`
	ProductNumber string   `json:"productNumber,omitempty"`
	Description   string   `json:"description,omitempty"`
	Price         *Price   `json:"price,omitempty"`
	Cover         *Media   `json:"cover,omitempty"`
	CategoryIDs   []string `json:"categoryIds,omitempty"`
}

// CategoryCard is the catalog view of a category.
type CategoryCard struct {
	Key        string   `json:"key"`
	Title      string   `json:"title,omitempty"`
	Slug       string   `json:"slug,omitempty"`
	Level      int      `json:"level,omitempty"`
	Breadcrumb []string `json:"breadcrumb,omitempty"`
	Cover      *Media   `json:"cover,omitempty"`
}

// Listing is a paged listing response. Filter, aggregation and sort
// metadata stay raw: the kiosk renders items and total only.
type Listing[T any] struct {
	Items       []T             `json:"items"`
	Filter      json.RawMessage `json:"filter,omitempty"`
	Aggregation json.RawMessage `json:"aggregation,omitempty"`
	Sort        json.RawMessage `json:"sort,omitempty"`
	Page        json.RawMessage `json:"page,omitempty"`
	Total       int             `json:"total,omitempty"`
}

// ProductListing and CategoryListing are the two listing shapes the
// content API serves.
type (
	ProductListing  = Listing[ProductCard]
	CategoryListing = Listing[CategoryCard]
)

// PageRoute is a resolved route of a content page.
type PageRoute struct {
	Href string `json:"href"`
	Path string `json:"path"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

// AlternateRoute is a localized variant of a page route.
type AlternateRoute struct {
	PageRoute
	Lang   string `json:"lang,omitempty"`
	Locale string `json:"locale,omitempty"`
	Region string `json:"region,omitempty"`
}

// RouteMeta describes routing status of a page, including redirects
// and context mismatches.
type RouteMeta struct {
	Code     int        `json:"code"`
	Redirect *PageRoute `json:"redirect,omitempty"`
	Context  *struct {
		Region    string          `json:"region"`
		Locale    string          `json:"locale"`
		Suggested *AlternateRoute `json:"suggested,omitempty"`
	} `json:"context,omitempty"`
	Alternates []AlternateRoute `json:"alternates,omitempty"`
}

// Page is a content page resolved by slug.
type Page struct {
	Route RouteMeta       `json:"route"`
	Type  string          `json:"type,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Context is the regional session of the content API.
type Context struct {
	Region string `json:"region"`
	Locale string `json:"locale"`
	Scope  string `json:"scope,omitempty"`
	Token  string `json:"token,omitempty"`
}

// ContextOption describes one selectable region with its locales.
type ContextOption struct {
	Region   string   `json:"region"`
	Currency string   `json:"currency,omitempty"`
	Locales  []Locale `json:"locales,omitempty"`
}

// Locale is a selectable locale of a region.
type Locale struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}
