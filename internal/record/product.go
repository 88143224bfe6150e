// Package record holds the fixed-schema aggregates extracted by the spiders.
package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
)

// ErrMissingField reports that a required field could not be extracted.
var ErrMissingField = errors.New("missing required field")

// Product field names, in column order.
const (
	FieldItemName            = "item_name"
	FieldPrice               = "price"
	FieldAvailability        = "availability"
	FieldColor               = "color"
	FieldType                = "type"
	FieldUkuleleCase         = "ukulele_case"
	FieldRange               = "range"
	FieldFrets               = "frets"
	FieldBodyMaterial        = "body_material"
	FieldUkuleleType         = "ukulele_type"
	FieldFretboardMaterial   = "fretboard_material"
	FieldFingerboardMaterial = "fingerboard_material"
	FieldURL                 = "url"
)

// ProductTable is the relational table products are stored in.
const ProductTable = "product"

// Product is one catalog item. Optional attributes are nil when the page does
// not list them.
type Product struct {
	ItemName            string
	Price               *string
	Availability        *string
	Color               *string
	Type                *string
	UkuleleCase         *string
	Range               *string
	Frets               *string
	BodyMaterial        *string
	UkuleleType         *string
	FretboardMaterial   *string
	FingerboardMaterial *string
	URL                 string
}

// NewProduct validates the required fields of p and returns it.
func NewProduct(p Product) (Product, error) {
	p.ItemName = strings.TrimSpace(p.ItemName)
	p.URL = strings.TrimSpace(p.URL)
	if p.ItemName == "" {
		return Product{}, fmt.Errorf("%w: %s", ErrMissingField, FieldItemName)
	}
	if p.URL == "" {
		return Product{}, fmt.Errorf("%w: %s", ErrMissingField, FieldURL)
	}
	return p, nil
}

// Fields implements crawler.Record.
func (p Product) Fields() []crawler.Field {
	name := p.ItemName
	link := p.URL
	return []crawler.Field{
		{Name: FieldItemName, Value: &name},
		{Name: FieldPrice, Value: p.Price},
		{Name: FieldAvailability, Value: p.Availability},
		{Name: FieldColor, Value: p.Color},
		{Name: FieldType, Value: p.Type},
		{Name: FieldUkuleleCase, Value: p.UkuleleCase},
		{Name: FieldRange, Value: p.Range},
		{Name: FieldFrets, Value: p.Frets},
		{Name: FieldBodyMaterial, Value: p.BodyMaterial},
		{Name: FieldUkuleleType, Value: p.UkuleleType},
		{Name: FieldFretboardMaterial, Value: p.FretboardMaterial},
		{Name: FieldFingerboardMaterial, Value: p.FingerboardMaterial},
		{Name: FieldURL, Value: &link},
	}
}

// MarshalJSON keeps the column order when products are encoded directly.
func (p Product) MarshalJSON() ([]byte, error) {
	return crawler.MarshalRecord(p)
}

// Set assigns an optional attribute by field name. It reports false for
// unknown or required fields.
func (p *Product) Set(field, value string) bool {
	v := value
	switch field {
	case FieldPrice:
		p.Price = &v
	case FieldAvailability:
		p.Availability = &v
	case FieldColor:
		p.Color = &v
	case FieldType:
		p.Type = &v
	case FieldUkuleleCase:
		p.UkuleleCase = &v
	case FieldRange:
		p.Range = &v
	case FieldFrets:
		p.Frets = &v
	case FieldBodyMaterial:
		p.BodyMaterial = &v
	case FieldUkuleleType:
		p.UkuleleType = &v
	case FieldFretboardMaterial:
		p.FretboardMaterial = &v
	case FieldFingerboardMaterial:
		p.FingerboardMaterial = &v
	default:
		return false
	}
	return true
}
