package sources

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jwh1000/Manga2EPUB/pkg/data"
)

const (
	DefaultImagePattern = "storage"
	userAgent           = "Mozilla/5.0 (X11; Linux x86_64) Manga2EPUB"
)

var (
	nextSelectors = []string{".next_page", ".next-post", ".nav-next a", "a.next_page"}
	nextTexts     = []string{"Next", "next", "NEXT", ">"}

	mangaTitleUnsafe   = regexp.MustCompile(`[^A-Za-z0-9]`)
	chapterTitleUnsafe = regexp.MustCompile(`[^A-Za-z0-9\-]`)
)

// ReaderSite scrapes chapter pages of an online manga reader.
type ReaderSite struct {
	client       *http.Client
	imagePattern *regexp.Regexp
}

func NewReaderSite(client *http.Client, imagePattern string) (*ReaderSite, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if imagePattern == "" {
		imagePattern = DefaultImagePattern
	}
	re, err := regexp.Compile(imagePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid image pattern: %w", err)
	}
	return &ReaderSite{client: client, imagePattern: re}, nil
}

// FetchChapter downloads and parses one chapter page.
func (r *ReaderSite) FetchChapter(ctx context.Context, chapterURL string) (*data.RemoteChapter, error) {
	base, err := url.Parse(chapterURL)
	if err != nil {
		return nil, fmt.Errorf("invalid chapter url: %w", err)
	}

	resp, err := r.get(ctx, chapterURL, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return r.ParseChapter(resp.Body, base)
}

// FetchImage downloads one page image and reports its media type.
func (r *ReaderSite) FetchImage(ctx context.Context, imageURL, referer string) ([]byte, string, error) {
	resp, err := r.get(ctx, imageURL, referer)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image content: %w", err)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType == "" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(content))
	}
	return content, mediaType, nil
}

func (r *ReaderSite) get(ctx context.Context, target, referer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("bad status for %s: %s", target, resp.Status)
	}
	return resp, nil
}

// ParseChapter extracts page images, titles and the next chapter link from
// a chapter page. Relative links are resolved against base.
func (r *ReaderSite) ParseChapter(body io.Reader, base *url.URL) (*data.RemoteChapter, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chapter page: %w", err)
	}

	docTitle := strings.TrimSpace(doc.Find("title").First().Text())

	chapter := &data.RemoteChapter{
		URL:           base.String(),
		MangaTitle:    mangaTitle(doc, docTitle),
		ChapterTitle:  chapterTitle(base, docTitle),
		ImageURLs:     r.imageURLs(doc, base),
		ExpectedPages: expectedPages(doc),
		NextURL:       nextChapterURL(doc, base),
	}
	return chapter, nil
}

func (r *ReaderSite) imageURLs(doc *goquery.Document, base *url.URL) []string {
	var urls []string
	seen := make(map[string]bool)

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		dataSrc := strings.TrimSpace(img.AttrOr("data-src", ""))
		if !(src != "" && r.imagePattern.MatchString(src)) && !(dataSrc != "" && r.imagePattern.MatchString(dataSrc)) {
			return
		}

		raw := firstNonEmpty(dataSrc, strings.TrimSpace(img.AttrOr("data-lazy-src", "")), src)
		resolved, ok := resolve(base, raw)
		if !ok || seen[resolved] {
			return
		}
		seen[resolved] = true
		urls = append(urls, resolved)
	})

	return urls
}

func expectedPages(doc *goquery.Document) int {
	n, err := strconv.Atoi(strings.TrimSpace(doc.Find("#totalPages").First().Text()))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func mangaTitle(doc *goquery.Document, docTitle string) string {
	text := strings.TrimSpace(doc.Find(".breadcrumb li:nth-child(2) a").First().Text())
	if text == "" {
		text = docTitle
	}
	return mangaTitleUnsafe.ReplaceAllString(text, "_")
}

func chapterTitle(base *url.URL, docTitle string) string {
	name := path.Base(base.Path)
	if strings.HasSuffix(base.Path, "/") || name == "/" || name == "." {
		name = docTitle
	}
	return chapterTitleUnsafe.ReplaceAllString(name, "_")
}

func nextChapterURL(doc *goquery.Document, base *url.URL) string {
	if href, ok := doc.Find(`a[title="Next Chapter"]`).First().Attr("href"); ok {
		if u, ok := resolve(base, href); ok {
			return u
		}
	}

	for _, sel := range nextSelectors {
		if href, ok := doc.Find(sel).First().Attr("href"); ok {
			if u, ok := resolve(base, href); ok {
				return u
			}
		}
	}

	for _, text := range nextTexts {
		var found string
		doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if !strings.Contains(a.Text(), text) {
				return true
			}
			if u, ok := resolve(base, a.AttrOr("href", "")); ok {
				found = u
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	return ""
}

// resolve turns href into an absolute http(s) URL.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
