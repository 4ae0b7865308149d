package logging

import (
	"net/url"
	"strings"
)

const (
	maskChar   = "*"
	maskLength = 3 // stands in for a masked URL path
	maskCap    = 8 // longest fully masked value
)

// MaskURL keeps the scheme and host of a webhook URL and masks the path and
// query, which usually carry the token.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return maskValue(raw)
	}
	if u.Path == "" && u.RawQuery == "" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/" + strings.Repeat(maskChar, maskLength)
}

// maskValue hides value completely without revealing its length beyond
// maskCap.
func maskValue(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat(maskChar, min(len(value), maskCap))
}
