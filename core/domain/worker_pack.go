package domain

// Media types recorded in a pack manifest.
const (
	MediaCarousel = "CAROUSEL_ALBUM"
	MediaImage    = "IMAGE"
	MediaText     = "TEXT"
)

// MediaTypeFor returns the media type for a pack holding n images.
func MediaTypeFor(n int) string {
	switch {
	case n > 1:
		return MediaCarousel
	case n == 1:
		return MediaImage
	default:
		return MediaText
	}
}

// StoredFile is a file created in cloud storage.
type StoredFile struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PackImage is an image uploaded into a pack folder.
type PackImage struct {
	Index       int    `json:"index"`
	Name        string `json:"-"`
	FileID      string `json:"-"`
	URL         string `json:"url"`
	ContentType string `json:"-"`
	Data        []byte `json:"-"`
}

// PackMeta is the manifest metadata of a pack.
type PackMeta struct {
	CreatedAt     string      `json:"createdAt"`
	Title         string      `json:"title"`
	Type          string      `json:"type"`
	AuthorOrBrand string      `json:"authorOrBrand"`
	Link          string      `json:"link"`
	Notes         string      `json:"notes"`
	MediaType     string      `json:"mediaType"`
	CoverImageURL string      `json:"coverImageUrl"`
	Images        []PackImage `json:"images"`
	EmailSubject  string      `json:"emailSubject"`
	SlidesURL     string      `json:"slidesUrl"`
	PackFolderURL string      `json:"packFolderUrl"`
	DocURL        string      `json:"docUrl"`
}

// PackResult describes an assembled pack.
type PackResult struct {
	Folder   StoredFile
	Slides   StoredFile
	Doc      StoredFile
	Manifest StoredFile
	Images   []PackImage
	Meta     PackMeta
}
