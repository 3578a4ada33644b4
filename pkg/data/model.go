package data

// Manga holds the metadata of the book being assembled.
type Manga struct {
	Title       string
	Author      string
	Language    string
	Description string
}

// Chapter is one chapter folder on disk.
type Chapter struct {
	Folder string // directory name, e.g. Chapter_12_5___The_Return
	Path   string
	Number int
	Sub    int
	Parsed bool
	Title  string
	Pages  []Page
}

// Page is a single page image inside a chapter folder.
type Page struct {
	Path   string
	Name   string
	Number int
}

// StoredPage describes an image written by the ingest listener.
type StoredPage struct {
	Manga    string
	Chapter  string
	Filename string
	Path     string
	Format   string
	Sniffed  bool
	Size     int
}

// PagePayload is the JSON body of POST /save_page.
type PagePayload struct {
	Manga     string `json:"manga"`
	Chapter   string `json:"chapter"`
	Filename  string `json:"filename"`
	ImageData string `json:"image_data"`
}

// SaveResponse is the JSON reply of POST /save_page.
type SaveResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// RemoteChapter is a chapter scraped from a reader site.
type RemoteChapter struct {
	URL           string
	MangaTitle    string
	ChapterTitle  string
	ImageURLs     []string
	ExpectedPages int
	NextURL       string
}
