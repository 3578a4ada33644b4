package sources

import (
	"context"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
)

// Source is a site chapters can be scraped from.
type Source interface {
	FetchChapter(ctx context.Context, chapterURL string) (*data.RemoteChapter, error)
	FetchImage(ctx context.Context, imageURL, referer string) ([]byte, string, error)
}
