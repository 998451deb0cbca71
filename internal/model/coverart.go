package model

// ImageFormat is a recognized cover-art image container.
type ImageFormat string

const (
	FormatJPEG    ImageFormat = "jpeg"
	FormatPNG     ImageFormat = "png"
	FormatGIF     ImageFormat = "gif"
	FormatWebP    ImageFormat = "webp"
	FormatBMP     ImageFormat = "bmp"
	FormatUnknown ImageFormat = ""
)

// CoverArtImage is a single image candidate returned by a provider.
type CoverArtImage struct {
	URL        string      `json:"url"`
	Width      *int        `json:"width,omitempty"`
	Height     *int        `json:"height,omitempty"`
	SizeBytes  *int64      `json:"size_bytes,omitempty"`
	Format     ImageFormat `json:"format,omitempty"`
	Grade      int         `json:"grade"`
}

// ProviderInfo identifies a cover-art (or favourites) provider.
type ProviderInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// CoverArtProviderResult is one provider's contribution to a fan-out,
// images already sorted by descending grade.
type CoverArtProviderResult struct {
	Provider ProviderInfo    `json:"provider"`
	Images   []CoverArtImage `json:"images"`
}
