package coverart

import "bytes"

// DetectMIME sniffs data's container format by magic number (spec.md §8),
// independent of any claimed Content-Type or file extension.
func DetectMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case isGIF(data):
		return "image/gif"
	case isWebP(data):
		return "image/webp"
	case bytes.HasPrefix(data, []byte{0x42, 0x4D}):
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

func isGIF(data []byte) bool {
	if len(data) < 6 {
		return false
	}
	if !bytes.HasPrefix(data, []byte{0x47, 0x49, 0x46, 0x38}) {
		return false
	}
	return data[4] == 0x37 || data[4] == 0x39 // GIF87a / GIF89a
}

func isWebP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return bytes.HasPrefix(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}
