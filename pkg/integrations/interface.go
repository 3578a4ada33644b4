package integrations

import "github.com/jwh1000/Manga2EPUB/pkg/data"

// Classifier infers the image format of raw bytes.
type Classifier interface {
	Classify(image []byte) Classification
}

// Assembler compiles ordered chapters into a single book.
type Assembler interface {
	CreateEPub(manga *data.Manga, chapters []*data.Chapter) (*BuildResult, error)
}
