package stylistapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"stylist/internal/domain"
)

const (
	pathUpload      = "/upload/"
	pathAnalyze     = "/analyze/clothing/"
	pathItems       = "/items/"
	pathItemsVector = "/items/vector/"
	pathItemByID    = "/items/mongodb/"
	pathSearch      = "/search/style/"
	pathPreferences = "/extract-preferences/"
	pathScore       = "/outfits/score/"
	pathWardrobe    = "/api/wardrobe"
	pathImages      = "/api/images/"
)

// UploadResult is the server's record of a stored upload.
type UploadResult struct {
	Message           string `json:"message"`
	Filename          string `json:"filename"`
	FilePath          string `json:"file_path"`
	ConvertedFromHEIC bool   `json:"converted_from_heic"`
}

// RecordRef identifies a newly created structured record.
type RecordRef struct {
	Message   string `json:"message"`
	ItemID    string `json:"item_id"`
	ImagePath string `json:"image_path"`
}

// IndexRef identifies a newly created search index entry.
type IndexRef struct {
	Message string `json:"message"`
	ItemID  string `json:"item_id"`
}

// Upload sends the raw file as multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	var out UploadResult
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return out, invalidInput(opUpload, "file name required")
	}
	if content == nil {
		return out, invalidInput(opUpload, "file content required")
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return out, invalidInput(opUpload, err.Error())
	}
	if _, err := io.Copy(part, content); err != nil {
		return out, invalidInput(opUpload, fmt.Sprintf("read %s: %v", name, err))
	}
	if err := mw.Close(); err != nil {
		return out, invalidInput(opUpload, err.Error())
	}
	if err := c.send(ctx, opUpload, http.MethodPost, c.endpoint(pathUpload, nil), &body, mw.FormDataContentType(), &out); err != nil {
		return out, err
	}
	if out.FilePath == "" {
		return out, &Failure{Op: opUpload.name, Status: http.StatusOK, Message: opUpload.fallback + ": response missing file_path"}
	}
	return out, nil
}

// Analyze extracts clothing attributes from an uploaded image. The returned
// item has no ID yet.
func (c *Client) Analyze(ctx context.Context, imagePath string) (domain.ClothingItem, error) {
	var item domain.ClothingItem
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return item, invalidInput(opAnalyze, "image path required")
	}
	q := url.Values{}
	q.Set("image_path", imagePath)
	if err := c.postJSON(ctx, opAnalyze, pathAnalyze, q, nil, &item); err != nil {
		return domain.ClothingItem{}, err
	}
	if item.ImagePath == "" {
		item.ImagePath = imagePath
	}
	return item, nil
}

// CreateRecord persists the attribute set as a structured record.
func (c *Client) CreateRecord(ctx context.Context, item domain.ClothingItem) (RecordRef, error) {
	var out RecordRef
	if strings.TrimSpace(item.ImagePath) == "" {
		return out, invalidInput(opRecord, "image path required")
	}
	if err := c.postJSON(ctx, opRecord, pathItems, nil, item, &out); err != nil {
		return out, err
	}
	if out.ItemID == "" {
		return out, &Failure{Op: opRecord.name, Status: http.StatusOK, Message: opRecord.fallback + ": response missing item_id"}
	}
	return out, nil
}

// CreateIndexEntry indexes an image and its description for style search.
func (c *Client) CreateIndexEntry(ctx context.Context, imagePath, description string) (IndexRef, error) {
	var out IndexRef
	if strings.TrimSpace(imagePath) == "" {
		return out, invalidInput(opIndex, "image path required")
	}
	body := map[string]string{"image_path": imagePath, "description": description}
	if err := c.postJSON(ctx, opIndex, pathItemsVector, nil, body, &out); err != nil {
		return out, err
	}
	return out, nil
}

// SearchCandidates returns wardrobe items matching a free-text style query.
func (c *Client) SearchCandidates(ctx context.Context, query string) ([]domain.ClothingItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidInput(opSearch, "query required")
	}
	var resp struct {
		Message string                `json:"message"`
		Count   int                   `json:"count"`
		Results []domain.ClothingItem `json:"results"`
	}
	if err := c.getJSON(ctx, opSearch, pathSearch, url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []domain.ClothingItem{}, nil
	}
	return resp.Results, nil
}

// ExtractPreferences pulls occasion, weather and style facets out of a query.
// Blank facets are reported as absent.
func (c *Client) ExtractPreferences(ctx context.Context, query string) (domain.StylePreferences, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.StylePreferences{}, invalidInput(opPreferences, "query required")
	}
	var resp struct {
		Message     string                  `json:"message"`
		Preferences domain.StylePreferences `json:"preferences"`
	}
	if err := c.getJSON(ctx, opPreferences, pathPreferences, url.Values{"query": {query}}, &resp); err != nil {
		return domain.StylePreferences{}, err
	}
	p := resp.Preferences
	return domain.StylePreferences{
		Occasion:  blankToNil(p.Occasion),
		Weather:   blankToNil(p.Weather),
		StylePref: blankToNil(p.StylePref),
	}, nil
}

// ScoreOutfit asks the service for the best outfit among the candidates.
// Only present preference facets are sent.
func (c *Client) ScoreOutfit(ctx context.Context, items []domain.ClothingItem, prefs domain.StylePreferences) (domain.MatchResult, error) {
	if len(items) == 0 {
		return domain.MatchResult{}, invalidInput(opScore, "at least one candidate required")
	}
	q := url.Values{}
	setOptional(q, "occasion", prefs.Occasion)
	setOptional(q, "weather", prefs.Weather)
	setOptional(q, "style_pref", prefs.StylePref)

	var resp struct {
		Message    string `json:"message"`
		BestOutfit struct {
			Top       *domain.ClothingItem `json:"top"`
			Bottom    *domain.ClothingItem `json:"bottom"`
			Shoes     *domain.ClothingItem `json:"shoes"`
			Outerwear *domain.ClothingItem `json:"outerwear"`
			Score     *float64             `json:"score"`
			Reason    string               `json:"reason"`
		} `json:"best_outfit"`
		TotalCombinations int     `json:"total_combinations"`
		Score             float64 `json:"score"`
		Reason            string  `json:"reason"`
	}
	if err := c.postJSON(ctx, opScore, pathScore, q, items, &resp); err != nil {
		return domain.MatchResult{}, err
	}
	best := resp.BestOutfit
	sel := domain.OutfitSelection{
		Top:       best.Top,
		Bottom:    best.Bottom,
		Shoes:     best.Shoes,
		Outerwear: best.Outerwear,
		Score:     resp.Score,
		Reason:    best.Reason,
	}
	if best.Score != nil {
		sel.Score = *best.Score
	}
	if sel.Reason == "" {
		sel.Reason = resp.Reason
	}
	return domain.MatchResult{Selection: sel, Combinations: resp.TotalCombinations}, nil
}

// ListItems returns the full wardrobe.
func (c *Client) ListItems(ctx context.Context) ([]domain.ClothingItem, error) {
	var items []domain.ClothingItem
	if err := c.getJSON(ctx, opList, pathWardrobe, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.ClothingItem{}
	}
	return items, nil
}

// GetItem fetches one structured record by id.
func (c *Client) GetItem(ctx context.Context, id string) (domain.ClothingItem, error) {
	var item domain.ClothingItem
	id = strings.TrimSpace(id)
	if id == "" {
		return item, invalidInput(opItem, "item id required")
	}
	if err := c.getJSON(ctx, opItem, pathItemByID+url.PathEscape(id), nil, &item); err != nil {
		return domain.ClothingItem{}, err
	}
	return item, nil
}

// Image downloads the raw bytes of a stored image.
func (c *Client) Image(ctx context.Context, filename string) ([]byte, error) {
	name := domain.ImageFilename(filename)
	if name == "" {
		return nil, invalidInput(opImage, "file name required")
	}
	var data []byte
	if err := c.send(ctx, opImage, http.MethodGet, c.ImageURL(name), nil, "", &data); err != nil {
		return nil, err
	}
	return data, nil
}

// ImageURL is the address the service serves a stored image from.
func (c *Client) ImageURL(filename string) string {
	return c.endpoint(pathImages+url.PathEscape(domain.ImageFilename(filename)), nil)
}

func setOptional(q url.Values, key string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		q.Set(key, s)
	}
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
