// Package sanitizer cleans raw mailbox message bodies before storage: unsafe
// markup is stripped, quoted history and signatures removed, provider bounce
// boilerplate cleaned, and a plain-text preview derived. All functions are
// total; degenerate input yields degenerate output, never an error.
package sanitizer

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	previewLimit  = 400
	previewSuffix = "..."
)

var (
	reComment = regexp.MustCompile(`(?s)<!--.*?-->`)

	// Paired elements removed together with their content.
	reScriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	reStyleBlock  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	reIframeBlock = regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe>`)
	reObjectBlock = regexp.MustCompile(`(?is)<object\b[^>]*>.*?</object>`)
	reAppletBlock = regexp.MustCompile(`(?is)<applet\b[^>]*>.*?</applet>`)
	reFormBlock   = regexp.MustCompile(`(?is)<form\b[^>]*>.*?</form>`)

	// Leftover open/close tags of the above plus self-closing dangerous tags.
	reDangerTag = regexp.MustCompile(`(?i)</?(?:script|style|iframe|object|embed|applet|form|meta|link|base|input)\b[^>]*>`)

	// Inline event handlers in either quote style, or unquoted.
	reOnAttrDouble   = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*"[^"]*"`)
	reOnAttrSingle   = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*'[^']*'`)
	reOnAttrUnquoted = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*[^\s>"']+`)

	// javascript:/data: schemes in attribute values; only the scheme token is
	// removed so the attribute stays syntactically intact but inert.
	reURIScheme = regexp.MustCompile(`(?i)=(\s*["']?\s*)(?:javascript|data)\s*:`)

	reAnyTag    = regexp.MustCompile(`(?is)</?([a-zA-Z][a-zA-Z0-9]*)\b[^>]*>`)
	reSpaceRuns = regexp.MustCompile(`\s+`)

	reBodyInner = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)

	// Quoted prior message inlined by mail clients: a "From:" header line
	// preceded by a line break, through the end of the string.
	reFromHeaderTail = regexp.MustCompile(`(?is)(?:<br\s*/?>|\r?\n)\s*(?:<[a-zA-Z][^>]*>\s*)*from:\s.*$`)

	reDiagMarker      = regexp.MustCompile(`(?is)diagnostic information for administrators:?`)
	reOriginalHeaders = regexp.MustCompile(`(?is)original message headers:?.*$`)
	reServerLine      = regexp.MustCompile(`(?im)^.*(?:generating server|receiving server|remote server returned|\.prod\.outlook\.com|\.protection\.outlook\.com).*$`)
	reTimestampLine   = regexp.MustCompile(`(?im)^\s*\d{1,2}/\d{1,2}/\d{4}.*$`)
	reStatusCodeLine  = regexp.MustCompile(`(?im)^[^a-zA-Z\r\n]*\d+\.\d+\.\d+\S*.*$`)
	reDNSLine         = regexp.MustCompile(`(?im)^\s*dns\b.*$`)
	reNewlineRuns     = regexp.MustCompile(`(?:\r?\n[ \t]*){3,}`)
	reBreakRuns       = regexp.MustCompile(`(?i)(?:<br\s*/?>\s*){3,}`)

	reBareURL = regexp.MustCompile(`https?://[^\s<]+`)
)

var allowedPreviewTags = map[string]struct{}{
	"p": {}, "br": {}, "div": {}, "span": {}, "strong": {},
	"em": {}, "ul": {}, "ol": {}, "li": {}, "a": {},
}

var diagnosticPhrases = []string{
	"delivery has failed",
	"could not be delivered",
	"couldn't be delivered",
	"diagnostic information for administrators",
	"undeliverable",
}

// StripHTML reduces markup to text: styles, scripts and comments disappear
// with their content, any tag outside the allow-list is dropped, and
// whitespace runs collapse to single spaces. Used only for previews; the
// stored body goes through SanitizeHTML instead.
func StripHTML(input string) string {
	out := reScriptBlock.ReplaceAllString(input, " ")
	out = reStyleBlock.ReplaceAllString(out, " ")
	out = reComment.ReplaceAllString(out, " ")

	out = reAnyTag.ReplaceAllStringFunc(out, func(tag string) string {
		name := strings.ToLower(reAnyTag.FindStringSubmatch(tag)[1])
		if _, ok := allowedPreviewTags[name]; ok {
			return tag
		}
		return " "
	})

	out = reSpaceRuns.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// SanitizeHTML removes every executable construct from a message body: the
// result is what gets persisted, so it must never retain script, embedded
// documents, form controls, event handlers or javascript:/data: URIs.
// A removal can splice surrounding text into a new construct (nested blocks,
// tag names reassembled around a stripped tag, stacked URI schemes), so the
// full pass repeats until the output settles. Stable under repeated
// application.
func SanitizeHTML(input string) string {
	out := input
	for {
		prev := out
		out = sanitizePass(out)
		if out == prev {
			return out
		}
	}
}

// sanitizePass applies every removal rule once. Each rule strictly shrinks
// the string, so iterating to a fixpoint terminates.
func sanitizePass(input string) string {
	out := reScriptBlock.ReplaceAllString(input, "")
	out = reStyleBlock.ReplaceAllString(out, "")
	out = reIframeBlock.ReplaceAllString(out, "")
	out = reObjectBlock.ReplaceAllString(out, "")
	out = reAppletBlock.ReplaceAllString(out, "")
	out = reFormBlock.ReplaceAllString(out, "")
	out = reDangerTag.ReplaceAllString(out, "")
	out = reOnAttrDouble.ReplaceAllString(out, "")
	out = reOnAttrSingle.ReplaceAllString(out, "")
	out = reOnAttrUnquoted.ReplaceAllString(out, "")
	out = reURIScheme.ReplaceAllString(out, "=$1")
	return out
}

// ExtractBodyInner unwraps a full-document body, returning only the content
// between <body> and </body>. Input without a body wrapper passes through
// unchanged.
func ExtractBodyInner(input string) string {
	if m := reBodyInner.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return input
}

// StripSignatureAndQuotedHistory removes signature elements (class or id
// "signature" on div/p), quoted-reply blockquotes, and an inlined prior
// message starting at a "From:" header line. Messages attached to legacy
// leads skip this step so their full history is preserved.
func StripSignatureAndQuotedHistory(input string) string {
	out := input

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err == nil {
		doc.Find("div.signature, p.signature, div#signature, p#signature").Remove()
		doc.Find("blockquote").Remove()
		if inner, htmlErr := doc.Find("body").Html(); htmlErr == nil {
			out = inner
		}
	}

	out = reFromHeaderTail.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// isDeliveryDiagnostic detects provider-generated non-delivery reports by
// their boilerplate phrases.
func isDeliveryDiagnostic(input string) bool {
	lower := strings.ToLower(input)
	for _, phrase := range diagnosticPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// CleanDeliveryDiagnostics strips the administrator-facing noise out of
// bounce reports: the diagnostic block marker, server identification lines,
// timestamps, dotted status codes, DNS lines and everything following the
// original message headers. Non-diagnostic input passes through untouched.
func CleanDeliveryDiagnostics(input string) string {
	if !isDeliveryDiagnostic(input) {
		return input
	}

	out := reOriginalHeaders.ReplaceAllString(input, "")
	out = reDiagMarker.ReplaceAllString(out, "")
	out = reServerLine.ReplaceAllString(out, "")
	out = reTimestampLine.ReplaceAllString(out, "")
	out = reStatusCodeLine.ReplaceAllString(out, "")
	out = reDNSLine.ReplaceAllString(out, "")
	out = reNewlineRuns.ReplaceAllString(out, "\n\n")
	out = reBreakRuns.ReplaceAllString(out, "<br><br>")
	return strings.TrimSpace(out)
}

// PlainTextToHTML escapes a plain-text body, auto-links bare http(s) URLs
// and converts newlines to <br>, so text-only messages still render with
// formatting and clickable links.
func PlainTextToHTML(text string) string {
	escaped := html.EscapeString(text)

	escaped = reBareURL.ReplaceAllStringFunc(escaped, func(u string) string {
		return `<a href="` + u + `" target="_blank" rel="noopener noreferrer">` + u + `</a>`
	})

	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return escaped
}

// MakePreview derives the truncated plain-text preview stored alongside the
// body. The result never contains tags and never exceeds the preview limit
// plus the ellipsis marker.
func MakePreview(input string) string {
	text := StripHTML(input)
	text = reAnyTag.ReplaceAllString(text, " ")
	text = reSpaceRuns.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + previewSuffix
}

// CleanBody runs the full per-message pipeline and returns the sanitized
// body plus its preview. preserveHistory selects the legacy-lead variant
// that keeps signatures and quoted replies intact.
func CleanBody(raw string, preserveHistory bool) (string, string) {
	body := raw
	if !preserveHistory {
		body = StripSignatureAndQuotedHistory(body)
	}
	body = CleanDeliveryDiagnostics(body)
	body = ExtractBodyInner(body)
	body = SanitizeHTML(body)
	body = strings.TrimSpace(body)

	if body == "" {
		body = PlainTextToHTML(strings.TrimSpace(raw))
	}

	return body, MakePreview(body)
}
