package cleaner

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// BodyText returns the text content of <body>, skipping <script>, <style>
// and <noscript>. Text nodes are concatenated as-is so that a JSON
// document rendered by the browser inside <pre> survives intact.
func BodyText(rawHTML []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(rawHTML))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(buf.String())
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = false
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				buf.Write(tokenizer.Text())
			}
		}
	}
}
