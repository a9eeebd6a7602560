// Package testsupport provides an in-memory stylist backend for tests.
package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"slices"
	"strings"
	"sync"
	"testing"
)

// Route names accepted by Fail.
const (
	RouteUpload      = "/upload/"
	RouteAnalyze     = "/analyze/clothing/"
	RouteItems       = "/items/"
	RouteItemsVector = "/items/vector/"
	RouteItemByID    = "/items/mongodb/"
	RouteSearch      = "/search/style/"
	RoutePreferences = "/extract-preferences/"
	RouteScore       = "/outfits/score/"
	RouteWardrobe    = "/api/wardrobe"
	RouteImages      = "/api/images/"
)

type failure struct {
	match  string
	status int
	detail string
}

// Backend imitates the stylist HTTP service with in-memory storage.
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	uploads     map[string][]byte
	attributes  map[string]map[string]any
	items       []map[string]any
	index       map[string]string
	preferences map[string]any
	failures    map[string][]failure
	hits        map[string]int
	lastScore   scoreRequest
	nextID      int
}

type scoreRequest struct {
	Items []map[string]any
	Query map[string]string
}

// NewBackend starts a backend that shuts down with the test.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		uploads:    map[string][]byte{},
		attributes: map[string]map[string]any{},
		index:      map[string]string{},
		failures:   map[string][]failure{},
		hits:       map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+RouteUpload, b.upload)
	mux.HandleFunc("POST "+RouteAnalyze, b.analyze)
	mux.HandleFunc("POST "+RouteItems, b.createItem)
	mux.HandleFunc("POST "+RouteItemsVector, b.createIndex)
	mux.HandleFunc("GET "+RouteItemByID+"{id}", b.getItem)
	mux.HandleFunc("GET "+RouteSearch, b.search)
	mux.HandleFunc("GET "+RoutePreferences, b.extractPreferences)
	mux.HandleFunc("POST "+RouteScore, b.score)
	mux.HandleFunc("GET "+RouteWardrobe, b.wardrobe)
	mux.HandleFunc("GET "+RouteImages+"{filename}", b.image)
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base address of the backend.
func (b *Backend) URL() string { return b.Server.URL }

// SetAttributes fixes what analysis returns for an uploaded filename.
func (b *Backend) SetAttributes(filename string, attrs map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attributes[filename] = attrs
}

// SetPreferences fixes what preference extraction returns.
func (b *Backend) SetPreferences(prefs map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.preferences = prefs
}

// Fail makes route answer status with detail whenever the request's subject
// (file name, image path, query or id) contains match. An empty match fails
// every request to the route.
func (b *Backend) Fail(route, match string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = append(b.failures[route], failure{match: match, status: status, detail: detail})
}

// Hits is how many requests route has received.
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// Items returns the stored records.
func (b *Backend) Items() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]map[string]any, len(b.items))
	copy(out, b.items)
	return out
}

// Indexed returns the description indexed for an image path.
func (b *Backend) Indexed(imagePath string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.index[imagePath]
	return d, ok
}

// LastScore returns the candidates and query of the last scoring request.
func (b *Backend) LastScore() ([]map[string]any, map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastScore.Items, b.lastScore.Query
}

// reject records the hit and writes an injected failure when one applies.
func (b *Backend) reject(w http.ResponseWriter, route, subject string) bool {
	b.mu.Lock()
	b.hits[route]++
	var hit *failure
	for i, f := range b.failures[route] {
		if f.match == "" || strings.Contains(subject, f.match) {
			hit = &b.failures[route][i]
			break
		}
	}
	b.mu.Unlock()
	if hit == nil {
		return false
	}
	writeJSON(w, hit.status, map[string]any{"detail": hit.detail})
	return true
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "No file provided"})
		return
	}
	defer file.Close()
	name := header.Filename
	if b.reject(w, RouteUpload, name) {
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	b.uploads[name] = data
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":             "File uploaded successfully",
		"filename":            name,
		"file_path":           "uploads/" + name,
		"converted_from_heic": false,
	})
}

func (b *Backend) analyze(w http.ResponseWriter, r *http.Request) {
	imagePath := r.URL.Query().Get("image_path")
	if b.reject(w, RouteAnalyze, imagePath) {
		return
	}
	name := path.Base(imagePath)
	b.mu.Lock()
	_, uploaded := b.uploads[name]
	attrs, custom := b.attributes[name]
	b.mu.Unlock()
	if !uploaded {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Image not found"})
		return
	}
	out := map[string]any{
		"category":    "shirt",
		"color":       "blue",
		"style":       "casual",
		"body_part":   "upper",
		"description": "",
	}
	if custom {
		out = map[string]any{}
		for k, v := range attrs {
			out[k] = v
		}
	}
	out["image_path"] = imagePath
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createItem(w http.ResponseWriter, r *http.Request) {
	var item map[string]any
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]any{{"msg": "invalid body"}}})
		return
	}
	imagePath, _ := item["image_path"].(string)
	if b.reject(w, RouteItems, imagePath) {
		return
	}
	b.mu.Lock()
	b.nextID++
	id := fmt.Sprintf("item-%d", b.nextID)
	item["_id"] = id
	b.items = append(b.items, item)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Item created", "item_id": id, "image_path": imagePath})
}

func (b *Backend) createIndex(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ImagePath   string `json:"image_path"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid body"})
		return
	}
	if b.reject(w, RouteItemsVector, body.ImagePath) {
		return
	}
	b.mu.Lock()
	b.index[body.ImagePath] = body.Description
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Indexed", "item_id": body.ImagePath})
}

func (b *Backend) getItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if b.reject(w, RouteItemByID, id) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range b.items {
		if it["_id"] == id {
			writeJSON(w, http.StatusOK, it)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Item not found"})
}

// search returns every indexed record whose description or attributes share
// a word with the query.
func (b *Backend) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if b.reject(w, RouteSearch, query) {
		return
	}
	words := strings.Fields(strings.ToLower(query))
	b.mu.Lock()
	results := []map[string]any{}
	for _, it := range b.items {
		imagePath, _ := it["image_path"].(string)
		desc, indexed := b.index[imagePath]
		if !indexed {
			continue
		}
		text := strings.ToLower(desc + " " + fmt.Sprint(it["category"], " ", it["color"], " ", it["style"]))
		for _, word := range words {
			if strings.Contains(text, word) {
				results = append(results, it)
				break
			}
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "count": len(results), "results": results})
}

func (b *Backend) extractPreferences(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if b.reject(w, RoutePreferences, query) {
		return
	}
	b.mu.Lock()
	prefs := b.preferences
	b.mu.Unlock()
	if prefs == nil {
		prefs = map[string]any{"occasion": nil, "weather": nil, "style_pref": nil}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "preferences": prefs})
}

// score picks the first upper and lower candidates.
func (b *Backend) score(w http.ResponseWriter, r *http.Request) {
	var items []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid body"})
		return
	}
	q := map[string]string{}
	for k := range r.URL.Query() {
		q[k] = r.URL.Query().Get(k)
	}
	b.mu.Lock()
	b.lastScore = scoreRequest{Items: items, Query: q}
	b.mu.Unlock()
	if b.reject(w, RouteScore, q["occasion"]) {
		return
	}

	var top, bottom map[string]any
	for _, it := range items {
		switch it["body_part"] {
		case "upper":
			if top == nil {
				top = it
			}
		case "lower":
			if bottom == nil {
				bottom = it
			}
		}
	}
	if top == nil || bottom == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "Could not generate any valid outfit combinations"})
		return
	}
	reason := "Balanced colors"
	if occ, ok := q["occasion"]; ok {
		reason = "Fits " + occ
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":            "ok",
		"best_outfit":        map[string]any{"top": top, "bottom": bottom, "score": 8.5, "reason": reason},
		"total_combinations": countBodyPart(items, "upper") * countBodyPart(items, "lower"),
	})
}

func (b *Backend) wardrobe(w http.ResponseWriter, r *http.Request) {
	if b.reject(w, RouteWardrobe, "") {
		return
	}
	items := b.Items()
	slices.Reverse(items)
	writeJSON(w, http.StatusOK, items)
}

func (b *Backend) image(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if b.reject(w, RouteImages, name) {
		return
	}
	b.mu.Lock()
	data, ok := b.uploads[name]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Image not found"})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func countBodyPart(items []map[string]any, part string) int {
	n := 0
	for _, it := range items {
		if it["body_part"] == part {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
