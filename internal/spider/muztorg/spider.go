// Package muztorg extracts ukulele listings from the muztorg.ru catalog. A crawl
// walks category pages (following pagination), opens every product, and reads
// the product's characteristics tab into a record.Product.
package muztorg

import (
	"github.com/JakeFAU/catalog-scraper/internal/crawler"
)

// Catalog locations.
const (
	BaseURL  = "https://www.muztorg.ru"
	StartURL = BaseURL + "/category/ukulele"
)

// Parser identifiers.
const (
	ParserCategory        crawler.ParserID = "muztorg.category"
	ParserProduct         crawler.ParserID = "muztorg.product"
	ParserCharacteristics crawler.ParserID = "muztorg.characteristics"
)

// Registry returns the parsers of this spider keyed by identifier.
func Registry() crawler.Registry {
	return crawler.Registry{
		ParserCategory:        crawler.ParserFunc(ParseCategory),
		ParserProduct:         crawler.ParserFunc(ParseProduct),
		ParserCharacteristics: crawler.ParserFunc(ParseCharacteristics),
	}
}

// Start is the default seed task: the first ukulele category page.
func Start() crawler.Task {
	return crawler.Task{URL: StartURL, Parser: ParserCategory}
}
