package merch

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Item is one merchandise listing. There is no stable id; sold-out
// entries are filtered at extraction, not deduplicated.
type Item struct {
	Title             string `json:"title"`
	Price             string `json:"price"`
	ImageURL          string `json:"imageUrl"`
	SecondaryImageURL string `json:"secondaryImageUrl"`
	ItemURL           string `json:"itemUrl"`
	ImageAlt          string `json:"imageAlt"`
}

// soldOutMarker flags listings the shop renders as unavailable.
const soldOutMarker = ".thumb_disable"

// Strategy is one independent way of extracting listings from the shop
// page. Strategies are tried in order until one yields records, so
// structural drift upstream is handled by adding a strategy, not by
// touching orchestration.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document) []Item
}

// Extractor extracts merchandise listings from shop collection pages.
type Extractor struct {
	shopBase   string
	keywords   []string
	strategies []Strategy
}

// NewExtractor builds the strategy chain for a shop. shopBase resolves
// relative item links; keywords restrict the generic last-resort strategy
// to listings related to the talent.
func NewExtractor(shopBase string, keywords []string) *Extractor {
	e := &Extractor{shopBase: shopBase, keywords: keywords}
	e.strategies = []Strategy{
		{Name: "item-cards", Extract: e.extractItemCards},
		{Name: "product-cards", Extract: e.extractProductCards},
		{Name: "generic-links", Extract: e.extractGenericLinks},
	}
	return e
}

// Extract applies each strategy in turn and returns the first non-empty
// result.
func (e *Extractor) Extract(doc *goquery.Document) []Item {
	for _, strategy := range e.strategies {
		items := strategy.Extract(doc)
		slog.Debug("Extraction strategy applied", "strategy", strategy.Name, "items", len(items))
		if len(items) > 0 {
			return items
		}
	}
	return nil
}

// extractItemCards is the primary strategy, keyed to the shop's current
// listing markup.
func (e *Extractor) extractItemCards(doc *goquery.Document) []Item {
	var items []Item
	doc.Find(".Item_inner").Each(func(_ int, card *goquery.Selection) {
		if card.Find(soldOutMarker).Length() > 0 {
			return
		}

		href, ok := card.Attr("href")
		if !ok || href == "" {
			// Missing expected link: skip this record only.
			return
		}

		images := card.Find(".Item_images")
		primary := images.Find(".primary-image").First()
		secondary := images.Find(".secondary-image").First()

		items = append(items, Item{
			Title:             strings.TrimSpace(card.Find(".Item_body").First().Text()),
			Price:             strings.TrimSpace(card.Find(".Item_info_price").First().Text()),
			ImageURL:          e.absoluteURL(primary.AttrOr("src", "")),
			ImageAlt:          primary.AttrOr("alt", ""),
			SecondaryImageURL: e.absoluteURL(secondary.AttrOr("src", "")),
			ItemURL:           e.absoluteURL(href),
		})
	})
	return items
}

// extractProductCards is the looser fallback for the shop's alternate
// listing markup.
func (e *Extractor) extractProductCards(doc *goquery.Document) []Item {
	var items []Item
	doc.Find(".product-card").Each(func(_ int, card *goquery.Selection) {
		if card.Find(soldOutMarker).Length() > 0 {
			return
		}

		image := card.Find(".product-card__image img").First()
		items = append(items, Item{
			Title:    strings.TrimSpace(card.Find(".product-card__title").First().Text()),
			Price:    strings.TrimSpace(card.Find(".product-card__price").First().Text()),
			ImageURL: e.absoluteURL(image.AttrOr("src", "")),
			ImageAlt: image.AttrOr("alt", ""),
			ItemURL:  e.absoluteURL(card.Find("a").First().AttrOr("href", "")),
		})
	})
	return items
}

// extractGenericLinks is the last resort: any product link with an image
// inside, restricted to listings mentioning the talent.
func (e *Extractor) extractGenericLinks(doc *goquery.Document) []Item {
	var items []Item
	doc.Find(`a[href*="product"]`).Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if !e.matchesKeyword(href) {
			return
		}
		if link.Find(soldOutMarker).Length() > 0 {
			return
		}

		image := link.Find("img").First()
		title := strings.TrimSpace(link.Find("h3, .title, .name").First().Text())
		if title == "" {
			title = "Moona Merch Item"
		}

		items = append(items, Item{
			Title:    title,
			Price:    strings.TrimSpace(link.Find(".price").First().Text()),
			ImageURL: e.absoluteURL(image.AttrOr("src", "")),
			ImageAlt: image.AttrOr("alt", ""),
			ItemURL:  e.absoluteURL(href),
		})
	})
	return items
}

func (e *Extractor) matchesKeyword(href string) bool {
	lower := strings.ToLower(href)
	for _, keyword := range e.keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// absoluteURL resolves protocol-relative and site-relative references.
func (e *Extractor) absoluteURL(url string) string {
	switch {
	case url == "":
		return ""
	case strings.HasPrefix(url, "//"):
		return "https:" + url
	case strings.HasPrefix(url, "/"):
		return e.shopBase + url
	default:
		return url
	}
}
