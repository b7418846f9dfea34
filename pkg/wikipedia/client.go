// Package wikipedia talks to the MediaWiki Action API of a language edition.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"wikiroam/pkg/articleproc"
	"wikiroam/pkg/config"
	"wikiroam/pkg/geo"
	"wikiroam/pkg/model"
	"wikiroam/pkg/request"
)

// MaxRadius is the largest geosearch radius the API accepts, in meters.
const MaxRadius = 10000

// APIError is an error object returned inside a 200 response.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wikipedia api: %s: %s", e.Code, e.Info)
}

// Client handles Wikipedia API interactions.
type Client struct {
	request   *request.Client
	endpoint  string
	limit     int
	minWidth  int
	minHeight int
}

// NewClient creates a new Wikipedia client.
func NewClient(r *request.Client, wc config.WikipediaConfig, ic config.ImagesConfig) *Client {
	limit := wc.SearchLimit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return &Client{
		request:   r,
		endpoint:  wc.Endpoint,
		limit:     limit,
		minWidth:  ic.MinWidth,
		minHeight: ic.MinHeight,
	}
}

func (c *Client) apiURL(lang string, params url.Values) string {
	if lang == "" {
		lang = "en"
	}
	endpoint := c.endpoint
	if strings.Contains(endpoint, "%s") {
		endpoint = fmt.Sprintf(endpoint, lang)
	}

	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	return endpoint + "?" + params.Encode()
}

// query performs the request and decodes the body into out.
func (c *Client) query(ctx context.Context, lang string, params url.Values, cacheKey string, out any) error {
	body, err := c.request.Get(ctx, c.apiURL(lang, params), cacheKey)
	if err != nil {
		return err
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// SearchNearby lists geotagged articles around a point. The longitude is
// normalized and the latitude clamped before the request is built.
func (c *Client) SearchNearby(ctx context.Context, lat, lon, radius float64, locale string) ([]model.Point, error) {
	lat = geo.ClampLat(lat)
	lon = geo.NormalizeLon(lon)
	r := int(math.Round(math.Min(math.Max(radius, 10), MaxRadius)))

	coord := formatCoord(lat) + "|" + formatCoord(lon)
	params := url.Values{}
	params.Set("list", "geosearch")
	params.Set("gscoord", coord)
	params.Set("gsradius", strconv.Itoa(r))
	params.Set("gslimit", strconv.Itoa(c.limit))

	var resp struct {
		Query struct {
			GeoSearch []struct {
				PageID int64   `json:"pageid"`
				Title  string  `json:"title"`
				Lat    float64 `json:"lat"`
				Lon    float64 `json:"lon"`
				Dist   float64 `json:"dist"`
			} `json:"geosearch"`
		} `json:"query"`
	}
	key := fmt.Sprintf("wp:%s:nearby:%s|%d|%d", locale, coord, r, c.limit)
	if err := c.query(ctx, locale, params, key, &resp); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	points := make([]model.Point, 0, len(resp.Query.GeoSearch))
	for _, g := range resp.Query.GeoSearch {
		d := g.Dist
		points = append(points, model.Point{
			ID:    g.PageID,
			Title: g.Title,
			Lat:   g.Lat,
			Lon:   g.Lon,
			Dist:  &d,
		})
	}
	return points, nil
}

// FetchDetail returns the summary record for a page, or nil when the page
// does not exist.
func (c *Client) FetchDetail(ctx context.Context, id int64, locale string) (*model.DetailRecord, error) {
	params := url.Values{}
	params.Set("pageids", strconv.FormatInt(id, 10))
	params.Set("prop", "extracts|pageimages|coordinates|info")
	params.Set("exintro", "1")
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", "320")
	params.Set("inprop", "url")
	params.Set("redirects", "1")

	var resp struct {
		Query struct {
			Pages []struct {
				PageID      int64            `json:"pageid"`
				Title       string           `json:"title"`
				Missing     bool             `json:"missing"`
				Invalid     bool             `json:"invalid"`
				Extract     string           `json:"extract"`
				Thumbnail   *model.Thumbnail `json:"thumbnail"`
				Coordinates []model.LatLon   `json:"coordinates"`
				FullURL     string           `json:"fullurl"`
			} `json:"pages"`
		} `json:"query"`
	}
	key := fmt.Sprintf("wp:%s:detail:%d", locale, id)
	if err := c.query(ctx, locale, params, key, &resp); err != nil {
		return nil, fmt.Errorf("detail %d: %w", id, err)
	}

	for _, p := range resp.Query.Pages {
		if p.Missing || p.Invalid || p.PageID == 0 {
			continue
		}
		rec := &model.DetailRecord{
			ID:        p.PageID,
			Title:     p.Title,
			Summary:   articleproc.Summarize(p.Extract),
			Thumbnail: p.Thumbnail,
			URL:       p.FullURL,
		}
		if len(p.Coordinates) > 0 {
			ll := p.Coordinates[0]
			rec.Coordinates = &ll
		}
		return rec, nil
	}
	return nil, nil
}

// SearchByName runs a full-text search and returns the best-ranked hit that
// has coordinates, or nil when there is none.
func (c *Client) SearchByName(ctx context.Context, text, locale string) (*model.SearchHit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("generator", "search")
	params.Set("gsrsearch", text)
	params.Set("gsrlimit", "10")
	params.Set("prop", "coordinates")
	params.Set("colimit", "max")

	var resp struct {
		Query struct {
			Pages []struct {
				Title       string         `json:"title"`
				Index       int            `json:"index"`
				Coordinates []model.LatLon `json:"coordinates"`
			} `json:"pages"`
		} `json:"query"`
	}
	key := fmt.Sprintf("wp:%s:search:%s", locale, strings.ToLower(text))
	if err := c.query(ctx, locale, params, key, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	pages := resp.Query.Pages
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	for _, p := range pages {
		if len(p.Coordinates) == 0 {
			continue
		}
		return &model.SearchHit{Title: p.Title, Lat: p.Coordinates[0].Lat, Lon: p.Coordinates[0].Lon}, nil
	}
	return nil, nil
}

// FetchImages returns the usable gallery images of a page, sorted by title.
func (c *Client) FetchImages(ctx context.Context, id int64, locale string) ([]model.Image, error) {
	params := url.Values{}
	params.Set("pageids", strconv.FormatInt(id, 10))
	params.Set("generator", "images")
	params.Set("gimlimit", "50")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|size")
	params.Set("iiurlwidth", "800")

	var resp struct {
		Query struct {
			Pages []struct {
				Title     string `json:"title"`
				ImageInfo []struct {
					URL      string `json:"url"`
					ThumbURL string `json:"thumburl"`
					Width    int    `json:"width"`
					Height   int    `json:"height"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	key := fmt.Sprintf("wp:%s:images:%d", locale, id)
	if err := c.query(ctx, locale, params, key, &resp); err != nil {
		return nil, fmt.Errorf("images %d: %w", id, err)
	}

	var images []model.Image
	for _, p := range resp.Query.Pages {
		if len(p.ImageInfo) == 0 || isUnwantedImage(p.Title) {
			continue
		}
		info := p.ImageInfo[0]
		if info.Width < c.minWidth || info.Height < c.minHeight {
			continue
		}
		u := info.ThumbURL
		if u == "" {
			u = info.URL
		}
		images = append(images, model.Image{Title: p.Title, URL: u, Width: info.Width, Height: info.Height})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Title < images[j].Title })
	return images, nil
}
