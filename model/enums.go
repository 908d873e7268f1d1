package model

import (
	"github.com/pkg/errors"
)

// SourceType is the closed enumeration of platforms a column can track.
// Unknown values must be rejected at the parsing boundary instead of being
// carried around as free-form strings.
type SourceType string

const (
	SourceTypeInstagram SourceType = "instagram"
	SourceTypeLinkedin  SourceType = "linkedin"
	SourceTypeYoutube   SourceType = "youtube"
	SourceTypeTiktok    SourceType = "tiktok"
	SourceTypeRss       SourceType = "rss"
	SourceTypeMetaAds   SourceType = "meta-ads"
)

// ParseSourceType parses a wire-level platform string, rejecting anything
// outside the closed enumeration.
func ParseSourceType(s string) (SourceType, error) {
	switch t := SourceType(s); t {
	case SourceTypeInstagram, SourceTypeLinkedin, SourceTypeYoutube,
		SourceTypeTiktok, SourceTypeRss, SourceTypeMetaAds:
		return t, nil
	}
	return "", errors.Errorf("unknown source type: %q", s)
}

// MediaType describes the media attached to a post.
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeCarousel MediaType = "carousel"
	MediaTypeNone     MediaType = ""
)

func ParseMediaType(s string) (MediaType, error) {
	switch t := MediaType(s); t {
	case MediaTypeImage, MediaTypeVideo, MediaTypeCarousel, MediaTypeNone:
		return t, nil
	}
	return "", errors.Errorf("unknown media type: %q", s)
}
