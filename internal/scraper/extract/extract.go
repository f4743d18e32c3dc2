// Package extract parses rendered hotel detail pages into records. Every
// field is best-effort: source markup drifts, and a missing block must never
// cost the whole item.
package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"stayscout/internal/domain"
)

// HotelExtractor parses detail-page HTML with goquery.
type HotelExtractor struct {
	country string
}

// NewHotelExtractor creates an extractor. country is stamped on every record
// as the address country.
func NewHotelExtractor(country string) *HotelExtractor {
	return &HotelExtractor{country: country}
}

// Extract builds a record from a page. It fails only when the page carries
// neither a title nor an address, which means the detail page never rendered.
func (e *HotelExtractor) Extract(page, url string) (*domain.HotelRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	rec := &domain.HotelRecord{
		URL:            url,
		AddressCountry: e.country,
	}

	rec.Title = strings.TrimSpace(doc.Find("div#hp_hotel_name h2").First().Text())
	rec.Address = extractAddress(doc)
	rec.Region = extractRegion(page)
	rec.Description = strings.TrimSpace(doc.Find(`p[data-testid="property-description"]`).First().Text())

	if rec.Title == "" && rec.Address == "" {
		return nil, fmt.Errorf("page has no hotel content")
	}

	if latlng, ok := doc.Find("a#map_trigger_header").First().Attr("data-atlas-latlng"); ok {
		if lat, lng, ok := strings.Cut(latlng, ","); ok {
			rec.Latitude = strings.TrimSpace(lat)
			rec.Longitude = strings.TrimSpace(lng)
		}
	}

	if n := doc.Find(`span[data-testid="rating-squares"] svg`).Length(); n > 0 {
		rec.Stars = &n
	}

	review := doc.Find(`div[data-testid="review-score-component"]`).First()
	rec.RatingValue = strings.TrimSpace(review.Find("div.f63b14ab7a.dff2e52086").First().Text())
	rec.RatingText = strings.TrimSpace(review.Find("span.f63b14ab7a.f546354b44.becbee2f63").First().Text())

	rec.ImageLinks = extractImages(doc)
	rec.MostFamousFacilities = extractMostFamous(doc)
	rec.AllFacilities = extractAllFacilities(doc)
	rec.Rooms = extractRooms(doc)

	return rec, nil
}

func extractAddress(doc *goquery.Document) string {
	node := doc.Find(`div[data-testid="PropertyHeaderAddressDesktop-wrapper"] button div`).First()
	// Only the leading text node is the address; the rest of the div holds
	// map links and badges.
	for _, n := range node.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				if text := strings.TrimSpace(c.Data); text != "" {
					return text
				}
			}
		}
	}
	return strings.TrimSpace(node.Text())
}

// extractRegion pulls the region name out of the page's inline analytics
// blob. There is no DOM element that carries it.
func extractRegion(page string) string {
	_, after, ok := strings.Cut(page, "region_name: ")
	if !ok {
		return ""
	}
	region, _, _ := strings.Cut(after, ",")
	return strings.TrimSpace(strings.ReplaceAll(region, "'", ""))
}

func extractImages(doc *goquery.Document) []string {
	var links []string
	doc.Find("div#photo_wrapper img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}
		// Thumbnails are served in low resolution; rewrite to the large size.
		src = strings.ReplaceAll(src, "max500", "max1000")
		src = strings.ReplaceAll(src, "max300", "max1000")
		links = append(links, src)
	})
	return links
}

func extractMostFamous(doc *goquery.Document) map[string]string {
	items := doc.Find(`div[data-testid="property-most-popular-facilities-wrapper"] li`)
	if items.Length() == 0 {
		return nil
	}
	out := make(map[string]string)
	items.Each(func(_ int, li *goquery.Selection) {
		name := strings.TrimSpace(li.Text())
		if name == "" {
			return
		}
		out[name] = outerHTML(li.Find("svg").First())
	})
	return out
}

func extractAllFacilities(doc *goquery.Document) map[string]domain.FacilityGroup {
	groups := doc.Find(`div#hp_facilities_box div[data-testid="property-section--content"] div[data-testid="facility-group-container"]`)
	if groups.Length() == 0 {
		return nil
	}
	out := make(map[string]domain.FacilityGroup)
	groups.Each(func(_ int, group *goquery.Selection) {
		heading := group.Find("h3").First()
		name := strings.TrimSpace(heading.Text())
		if name == "" {
			return
		}
		fg := domain.FacilityGroup{
			SVG:           outerHTML(heading.Find("svg").First()),
			SubFacilities: make(map[string]string),
		}
		group.Find("li").Each(func(_ int, li *goquery.Selection) {
			sub := strings.TrimSpace(li.Text())
			if sub == "" {
				return
			}
			fg.SubFacilities[sub] = outerHTML(li.Find("svg").First())
		})
		out[name] = fg
	})
	return out
}

func extractRooms(doc *goquery.Document) []domain.RoomInfo {
	rows := doc.Find("div#maxotelRoomArea table tr")
	var rooms []domain.RoomInfo
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}
		th := row.Find("th").First()
		room := domain.RoomInfo{
			RoomName:      strings.TrimSpace(th.Find("span").First().Text()),
			BedType:       strings.TrimSpace(th.ChildrenFiltered("div").Last().Text()),
			AdultCount:    row.Find(`span[data-testid="adults-icon"]`).Length(),
			ChildrenCount: row.Find(`span[data-testid="kids-icon"]`).Length(),
		}
		if room.AdultCount == 0 {
			room.AdultCount = 2
		}
		// An occupancy cell like "×4" overrides the icon count.
		if cell := row.Find("td").First().Text(); strings.Contains(cell, "×") {
			_, after, _ := strings.Cut(cell, "×")
			after = strings.TrimSpace(strings.ReplaceAll(after, "+", ""))
			if n, err := strconv.Atoi(after); err == nil {
				room.AdultCount = n
			}
		}
		if room.RoomName == "" && room.BedType == "" {
			return
		}
		room.ContentText = roomContent(row)
		rooms = append(rooms, room)
	})
	return rooms
}

// Facility lists in the room panel are grouped under section headers; each
// list is keyed by the record field it feeds, matched on a header substring.
var roomFacilityLists = map[string]string{
	"الحمام":           "حمام",
	"المرافق المتوفرة": "مرافق",
	"المطبخ":           "مطبخ",
	"الإطلالة":         "الإطلالة:",
}

// roomContent gathers the expanded room panel rendered with each summary row:
// size, description, grouped facility lists, smoking policy, highlight icons
// and the gallery image URLs. Keys are the source page's own labels so the
// stored JSON matches what the site shows.
func roomContent(row *goquery.Selection) map[string]interface{} {
	content := make(map[string]interface{})

	if v := strings.TrimSpace(row.Find(`div[data-testid="rp-room-size"]`).First().Text()); v != "" {
		content["مساحة الغرفة"] = v
	}
	if v := strings.TrimSpace(row.Find(`div[data-testid="rp-description"]`).First().Text()); v != "" {
		content["وصف الغرفة"] = v
	}

	for key, marker := range roomFacilityLists {
		if items, ok := roomFacilityList(row, marker); ok {
			content[key] = items
		}
	}

	if spans := row.Find("section.b7f1f9eb58 span"); spans.Length() > 1 {
		if v := strings.TrimSpace(spans.Eq(1).Text()); v != "" {
			content["سياسة التدخين"] = v
		}
	}

	if highlights := roomHighlights(row); len(highlights) > 0 {
		content["المعلومات المهمه"] = highlights
	}
	if images := roomImages(row); len(images) > 0 {
		content["images_urls"] = images
	}

	if len(content) == 0 {
		return nil
	}
	return content
}

// roomFacilityList returns the items of the first facility section whose
// header contains marker. ok is false when no such section exists, so a
// missing group is absent rather than empty.
func roomFacilityList(scope *goquery.Selection, marker string) ([]string, bool) {
	var section *goquery.Selection
	scope.Find("section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Find("h2").First().Text(), marker) {
			section = s
			return false
		}
		return true
	})
	if section == nil {
		return nil, false
	}
	items := []string{}
	section.Find(`ul[data-testid="rp-facilities"] li`).Each(func(_ int, li *goquery.Selection) {
		if v := strings.TrimSpace(li.Find("span.beb5ef4fb4").First().Text()); v != "" {
			items = append(items, v)
		}
	})
	return items, true
}

// roomHighlights pairs each highlight label with its icon markup.
func roomHighlights(scope *goquery.Selection) map[string]string {
	out := make(map[string]string)
	scope.Find(`div[data-testid="rp-highlights-test"]`).Find("div, span").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Find("span.beb5ef4fb4").First().Text())
		svg := outerHTML(el.Find("svg").First())
		if text != "" && svg != "" {
			out[text] = svg
		}
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// roomImages pulls the gallery slide backgrounds, capped at five per room the
// way the source page's preview strip is.
func roomImages(scope *goquery.Selection) []string {
	var urls []string
	scope.Find(`li[aria-roledescription="slide"] div[style]`).EachWithBreak(func(_ int, div *goquery.Selection) bool {
		style, _ := div.Attr("style")
		if !strings.Contains(style, "background-image") {
			return true
		}
		_, after, ok := strings.Cut(style, `url("`)
		if !ok {
			return true
		}
		u, _, ok := strings.Cut(after, `")`)
		if !ok {
			return true
		}
		urls = append(urls, strings.ReplaceAll(u, "&amp;", "&"))
		return len(urls) < 5
	})
	return urls
}

func outerHTML(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	markup, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return markup
}
