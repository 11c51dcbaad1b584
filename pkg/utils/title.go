package utils

import "strings"

const titleMarker = "#Shorts"

// CleanTitle builds a YouTube-safe title from a raw description and a list of
// hashtags. Forbidden characters are stripped, whitespace runs collapse to
// single spaces, and the title is truncated on whole-word boundaries so the
// hashtag suffix (always ending in #Shorts) fits inside maxLength.
func CleanTitle(raw string, hashtags []string, maxLength int) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune("<>:{}[]|\\^~\"'`", r) {
			return -1
		}
		return r
	}, raw)
	clean = strings.Join(strings.Fields(clean), " ")

	suffix := " " + titleMarker
	if tags := CleanHashtags(hashtags); len(tags) > 0 {
		var b strings.Builder
		for _, tag := range tags {
			b.WriteString(" #")
			b.WriteString(tag)
		}
		b.WriteString(" ")
		b.WriteString(titleMarker)
		suffix = b.String()
	}

	available := maxLength - len(suffix)
	if available <= 0 {
		return suffix
	}

	if len(clean) > available {
		var truncated strings.Builder
		for _, word := range strings.Fields(clean) {
			if truncated.Len()+len(word)+1 > available {
				break
			}
			truncated.WriteString(word)
			truncated.WriteString(" ")
		}
		clean = strings.TrimSpace(truncated.String())
	}

	return clean + suffix
}

// CleanHashtags trims each tag and strips any leading '#' characters. Order
// is preserved and no deduplication happens; empty tags are dropped.
func CleanHashtags(hashtags []string) []string {
	var cleaned []string
	for _, tag := range hashtags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}
