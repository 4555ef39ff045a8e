// Package mimetype resolves file extensions to type identifiers and MIME types.
//
// Resolution is a two-step lookup: extension to a uniform type identifier
// (public.jpeg, com.apple.quicktime-movie, ...) and identifier to MIME type.
// Only the extension is consulted, never file contents.
package mimetype

import (
	"mime"
	"strings"
)

type entry struct {
	identifier string
	mime       string
}

var byExtension = map[string]entry{
	// images
	"jpg":  {"public.jpeg", "image/jpeg"},
	"jpeg": {"public.jpeg", "image/jpeg"},
	"jpe":  {"public.jpeg", "image/jpeg"},
	"png":  {"public.png", "image/png"},
	"gif":  {"com.compuserve.gif", "image/gif"},
	"bmp":  {"com.microsoft.bmp", "image/bmp"},
	"tif":  {"public.tiff", "image/tiff"},
	"tiff": {"public.tiff", "image/tiff"},
	"heic": {"public.heic", "image/heic"},
	"heif": {"public.heif", "image/heif"},
	"webp": {"org.webmproject.webp", "image/webp"},
	"dng":  {"com.adobe.raw-image", "image/x-adobe-dng"},

	// video
	"mov":  {"com.apple.quicktime-movie", "video/quicktime"},
	"qt":   {"com.apple.quicktime-movie", "video/quicktime"},
	"mp4":  {"public.mpeg-4", "video/mp4"},
	"m4v":  {"com.apple.m4v-video", "video/x-m4v"},
	"3gp":  {"public.3gpp", "video/3gpp"},
	"avi":  {"public.avi", "video/avi"},
	"mkv":  {"org.matroska.mkv", "video/x-matroska"},
	"webm": {"org.webmproject.webm", "video/webm"},
	"mts":  {"public.avchd-mpeg-2-transport-stream", "video/MP2T"},

	// audio
	"mp3":  {"public.mp3", "audio/mpeg"},
	"m4a":  {"com.apple.m4a-audio", "audio/mp4"},
	"aac":  {"public.aac-audio", "audio/aac"},
	"wav":  {"com.microsoft.waveform-audio", "audio/vnd.wave"},
	"aiff": {"public.aiff-audio", "audio/aiff"},
	"caf":  {"com.apple.coreaudio-format", "audio/x-caf"},
}

var byIdentifier = func() map[string]string {
	m := make(map[string]string, len(byExtension))
	for _, e := range byExtension {
		m[e.identifier] = e.mime
	}
	return m
}()

// dynamicPrefix marks identifiers synthesized for extensions outside the
// built-in table.
const dynamicPrefix = "dyn."

// TypeIdentifier returns the type identifier for an extension. The
// extension may carry a leading dot and is matched case-insensitively.
func TypeIdentifier(ext string) (string, bool) {
	ext = normalize(ext)
	if ext == "" {
		return "", false
	}
	if e, ok := byExtension[ext]; ok {
		return e.identifier, true
	}
	if mime.TypeByExtension("."+ext) != "" {
		return dynamicPrefix + ext, true
	}
	return "", false
}

// FromTypeIdentifier returns the preferred MIME type for an identifier.
func FromTypeIdentifier(id string) (string, bool) {
	if m, ok := byIdentifier[id]; ok {
		return m, true
	}
	if ext, ok := strings.CutPrefix(id, dynamicPrefix); ok {
		m := mime.TypeByExtension("." + ext)
		if m == "" {
			return "", false
		}
		// Drop parameters such as "; charset=utf-8".
		if base, _, err := mime.ParseMediaType(m); err == nil {
			return base, true
		}
		return m, true
	}
	return "", false
}

// ByExtension resolves an extension straight to its MIME type.
func ByExtension(ext string) (string, bool) {
	id, ok := TypeIdentifier(ext)
	if !ok {
		return "", false
	}
	return FromTypeIdentifier(id)
}

func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
