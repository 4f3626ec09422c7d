package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultCoversURL = "https://covers.openlibrary.org"
	DefaultBooksURL  = "https://openlibrary.org"

	// Open Library serves a tiny placeholder instead of a 404 for unknown covers.
	minCoverBytes = 1000
	maxCoverBytes = 20 << 20
)

var ErrNoCover = errors.New("no cover available")

// Fetcher retrieves covers and titles from Open Library for seeding the
// catalogue.
type Fetcher struct {
	HTTPClient *http.Client
	CoversURL  string
	BooksURL   string
	limiter    *rate.Limiter
}

// NewFetcher creates a fetcher limited to one request per second, which
// stays under Open Library's 100 requests per 5 minutes.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		CoversURL: DefaultCoversURL,
		BooksURL:  DefaultBooksURL,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Seed is everything needed to register a book from an ISBN.
type Seed struct {
	ISBN  string
	Title string
	URL   string
	Cover []byte
}

// openLibraryBooksResponse is the jscmd=data form of the Books API.
type openLibraryBooksResponse map[string]struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// FetchSeed retrieves the title and large cover image for an ISBN.
func (f *Fetcher) FetchSeed(ctx context.Context, isbn string) (*Seed, error) {
	isbn = CleanISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("empty ISBN")
	}
	slog.Info("Fetching Open Library record", "isbn", isbn)

	title, infoURL, err := f.FetchTitle(ctx, isbn)
	if err != nil {
		return nil, err
	}

	cover, err := f.FetchCover(ctx, isbn)
	if err != nil {
		return nil, err
	}

	return &Seed{ISBN: isbn, Title: title, URL: infoURL, Cover: cover}, nil
}

// FetchCover downloads the large cover for an ISBN from the Covers API.
func (f *Fetcher) FetchCover(ctx context.Context, isbn string) ([]byte, error) {
	coverURL := fmt.Sprintf("%s/b/isbn/%s-L.jpg", strings.TrimRight(f.CoversURL, "/"), url.PathEscape(isbn))

	resp, err := f.get(ctx, coverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w for ISBN %s", ErrNoCover, isbn)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover API returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover data: %w", err)
	}

	if len(imageData) < minCoverBytes {
		return nil, fmt.Errorf("%w for ISBN %s: image too small (likely placeholder)", ErrNoCover, isbn)
	}

	return imageData, nil
}

// FetchTitle looks up the title and Open Library page of an ISBN.
func (f *Fetcher) FetchTitle(ctx context.Context, isbn string) (string, string, error) {
	query := url.Values{}
	query.Set("bibkeys", "ISBN:"+isbn)
	query.Set("format", "json")
	query.Set("jscmd", "data")
	booksURL := strings.TrimRight(f.BooksURL, "/") + "/api/books?" + query.Encode()

	resp, err := f.get(ctx, booksURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to query Open Library: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("open Library API returned status %d", resp.StatusCode)
	}

	var result openLibraryBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("failed to decode Open Library response: %w", err)
	}

	book, ok := result["ISBN:"+isbn]
	if !ok || strings.TrimSpace(book.Title) == "" {
		return "", "", fmt.Errorf("no Open Library record for ISBN %s", isbn)
	}

	title := strings.TrimSpace(book.Title)
	if sub := strings.TrimSpace(book.Subtitle); sub != "" {
		title += ": " + sub
	}
	return title, book.URL, nil
}

func (f *Fetcher) get(ctx context.Context, target string) (*http.Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "covermatch (https://github.com/lehigh-university-libraries/covermatch)")
	return f.HTTPClient.Do(req)
}

// CleanISBN removes hyphens and normalizes ISBN
func CleanISBN(isbn string) string {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	return strings.ToUpper(strings.ReplaceAll(isbn, " ", ""))
}
