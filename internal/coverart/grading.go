package coverart

import (
	"math"
	"strings"

	"github.com/audiocontrol/acrd/internal/model"
)

// grade assigns an integer grade to img per spec.md §4.8: base by format
// rank, plus a log2(pixels) bonus when dimensions are known, plus a
// bounded size bonus, minus a penalty for URLs lacking a recognized
// scheme. Grades are comparable only within one result set.
func grade(img model.CoverArtImage) int {
	score := formatRank(img.Format)

	if img.Width != nil && img.Height != nil && *img.Width > 0 && *img.Height > 0 {
		pixels := float64(*img.Width) * float64(*img.Height)
		score += int(math.Log2(pixels))
	}

	if img.SizeBytes != nil {
		score += sizeBonus(*img.SizeBytes)
	}

	if !hasRecognizedScheme(img.URL) {
		score -= schemePenalty
	}

	return score
}

const (
	rankJPEGPNG  = 100
	rankWebP     = 70
	rankGIF      = 30
	rankBMP      = 10
	rankUnknown  = 0
	maxSizeBonus = 20
	schemePenalty = 50
)

func formatRank(f model.ImageFormat) int {
	switch f {
	case model.FormatJPEG, model.FormatPNG:
		return rankJPEGPNG
	case model.FormatWebP:
		return rankWebP
	case model.FormatGIF:
		return rankGIF
	case model.FormatBMP:
		return rankBMP
	default:
		return rankUnknown
	}
}

// sizeBonus grows with file size but never past maxSizeBonus, so a huge
// download can't dominate the grade over format/resolution.
func sizeBonus(sizeBytes int64) int {
	bonus := int(sizeBytes / (100 * 1024)) // +1 per 100KiB
	if bonus > maxSizeBonus {
		bonus = maxSizeBonus
	}
	return bonus
}

func hasRecognizedScheme(url string) bool {
	for _, scheme := range []string{"http://", "https://", "file://", "data:"} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

// sortByGradeDescending sorts images in place, highest grade first,
// computing and filling in Grade on each.
func sortByGradeDescending(images []model.CoverArtImage) {
	for i := range images {
		images[i].Grade = grade(images[i])
	}
	// Insertion sort: result sets are small (single-digit to low double
	// digit per provider), and this keeps equal grades in provider-returned
	// order (stable), matching spec.md §4.8's "within each provider, images
	// are sorted by grade descending".
	for i := 1; i < len(images); i++ {
		for j := i; j > 0 && images[j].Grade > images[j-1].Grade; j-- {
			images[j], images[j-1] = images[j-1], images[j]
		}
	}
}
