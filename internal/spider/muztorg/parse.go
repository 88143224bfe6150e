package muztorg

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/record"
)

const (
	productLinkSelector     = ".product-header .text-uppercase a"
	nextPageSelector        = ".pagination-block .pagination .next a"
	characteristicsTabLink  = "#characteristics-tab"
	nameSelector            = `section[itemprop="name"]`
	priceSelector           = `meta[itemprop="price"]`
	availabilitySelector    = "#available-informer span"
	characteristicsSelector = "#ProductAttributes .panel-body li"
)

// characteristicFields maps the catalog's characteristic labels to product fields.
var characteristicFields = map[string]string{
	"Цвет":                        record.FieldColor,
	"Тип":                         record.FieldType,
	"Чехол/Кейс":                  record.FieldUkuleleCase,
	"Мензура (диапазон)":          record.FieldRange,
	"Количество ладов (диапазон)": record.FieldFrets,
	"Материал корпуса":            record.FieldBodyMaterial,
	"Тип корпуса":                 record.FieldUkuleleType,
	"Материал накладки грифа":     record.FieldFretboardMaterial,
	"Материал грифа":              record.FieldFingerboardMaterial,
}

// ParseCategory follows every product on a category page, then the next page.
func ParseCategory(_ context.Context, page crawler.Page) ([]crawler.Output, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}
	var (
		out     []crawler.Output
		linkErr error
	)
	doc.Find(productLinkSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		target, err := page.Resolve(href)
		if err != nil {
			linkErr = err
			return false
		}
		out = append(out, crawler.Follow(target, ParserProduct))
		return true
	})
	if linkErr != nil {
		return nil, fmt.Errorf("resolve product link: %w", linkErr)
	}

	if href, ok := doc.Find(nextPageSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		next, err := page.Resolve(href)
		if err != nil {
			return nil, fmt.Errorf("resolve next page: %w", err)
		}
		out = append(out, crawler.Follow(next, ParserCategory))
	}
	return out, nil
}

// ParseProduct schedules the product's characteristics tab. Products without a
// dedicated tab link are re-read from their own URL.
func ParseProduct(_ context.Context, page crawler.Page) ([]crawler.Output, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}
	base := finalURL(page)
	href := strings.TrimSpace(doc.Find(characteristicsTabLink).First().AttrOr("href", ""))
	if href == "" {
		return []crawler.Output{crawler.Follow(base, ParserCharacteristics)}, nil
	}
	// The tab link is a suffix of the product URL (an anchor or sub-path).
	return []crawler.Output{crawler.Follow(base+href, ParserCharacteristics)}, nil
}

// ParseCharacteristics builds one product record. Characteristics the page does
// not list stay nil; a page without a product name is reported as a fetch
// failure because it did not yield the expected content.
func ParseCharacteristics(_ context.Context, page crawler.Page) ([]crawler.Output, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}
	p := record.Product{
		ItemName: strings.TrimSpace(doc.Find(nameSelector).First().Text()),
		URL:      finalURL(page),
	}
	if price, ok := doc.Find(priceSelector).First().Attr("content"); ok {
		p.Set(record.FieldPrice, strings.TrimSpace(price))
	}
	if avail := doc.Find(availabilitySelector).First(); avail.Length() > 0 {
		p.Set(record.FieldAvailability, strings.TrimSpace(avail.Text()))
	}

	doc.Find(characteristicsSelector).Each(func(_ int, li *goquery.Selection) {
		label := strings.TrimSpace(li.Find("b").First().Text())
		field, ok := characteristicFields[label]
		if !ok {
			return
		}
		p.Set(field, characteristicValue(li))
	})

	product, err := record.NewProduct(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", crawler.ErrFetchFailure, page.URL, err)
	}
	return []crawler.Output{crawler.Emit(product)}, nil
}

// characteristicValue returns the first direct text of li without the ": "
// separator that follows the bold label.
func characteristicValue(li *goquery.Selection) string {
	var value string
	li.Contents().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) != "#text" {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		value = text
		return false
	})
	value = strings.TrimPrefix(value, ":")
	return strings.TrimSpace(value)
}

func document(page crawler.Page) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html of %s: %w", page.URL, err)
	}
	return doc, nil
}

func finalURL(page crawler.Page) string {
	if page.FinalURL != "" {
		return page.FinalURL
	}
	return page.URL
}
