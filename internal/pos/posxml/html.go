package posxml

import (
	"html"
	"strings"
)

// CleanEmbeddedHTML recovers a hosted-page HTML fragment that a gateway
// embedded inside an XML element. Entities are decoded, CDATA wrappers are
// removed and the bank-specific stray marker characters in markers are
// trimmed from both ends. XML+HTML nesting corrupts the fragment differently
// per bank, so each parser passes its own documented marker set.
func CleanEmbeddedHTML(fragment, markers string) string {
	out := strings.TrimSpace(fragment)
	if strings.HasPrefix(out, "<![CDATA[") && strings.HasSuffix(out, "]]>") {
		out = out[len("<![CDATA[") : len(out)-len("]]>")]
	}
	out = html.UnescapeString(out)
	out = strings.Trim(out, "\uFEFF \t\r\n")
	if markers != "" {
		out = strings.Trim(out, markers)
	}
	return out
}
