package sanitizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeHTML_RemovesExecutableConstructs(t *testing.T) {
	inputs := []string{
		`<p>hi</p><script>alert(1)</script>`,
		`<div onclick="steal()">click</div>`,
		`<div onmouseover='steal()'>hover</div>`,
		`<img src=x onerror=alert(1)>`,
		`<a href="javascript:alert(1)">link</a>`,
		`<a href="data:text/html;base64,xx">link</a>`,
		`<iframe src="https://evil.example"></iframe>`,
		`<object data="x"></object><embed src="x">`,
		`<form action="/phish"><input name="pw"></form>`,
		`<style>body{display:none}</style><p>text</p>`,
		`<scr<script>ipt>alert(1)</scr</script>ipt>`,
		`<scri<input>pt>alert(1)</scri<input>pt>`,
		`<div on<input>click="x()">y</div>`,
		`<a href="javascript:javascript:alert(1)">x</a>`,
	}

	for _, input := range inputs {
		out := SanitizeHTML(input)
		lower := strings.ToLower(out)
		assert.NotContains(t, lower, "<script", "input: %s", input)
		assert.NotContains(t, lower, "<iframe", "input: %s", input)
		assert.NotContains(t, lower, "<object", "input: %s", input)
		assert.NotContains(t, lower, "<embed", "input: %s", input)
		assert.NotContains(t, lower, "<form", "input: %s", input)
		assert.NotContains(t, lower, "<input", "input: %s", input)
		assert.NotContains(t, lower, "onclick=", "input: %s", input)
		assert.NotContains(t, lower, "onerror=", "input: %s", input)
		assert.NotContains(t, lower, "onmouseover=", "input: %s", input)
		assert.NotContains(t, lower, "javascript:", "input: %s", input)
		assert.NotContains(t, lower, "data:", "input: %s", input)
	}
}

func TestSanitizeHTML_Idempotent(t *testing.T) {
	inputs := []string{
		`<p>plain</p>`,
		`<p>hi</p><script>alert(1)</script><div onclick="x()">y</div>`,
		`<a href="javascript:alert(1)">link</a>`,
		`<scri<input>pt>alert(1)</scri<input>pt>`,
		`<a href="javascript:javascript:alert(1)">x</a>`,
		`<div on<input>click="x()">y</div>`,
		``,
		`no markup at all`,
	}

	for _, input := range inputs {
		once := SanitizeHTML(input)
		twice := SanitizeHTML(once)
		assert.Equal(t, once, twice, "input: %s", input)
	}
}

func TestSanitizeHTML_KeepsContent(t *testing.T) {
	out := SanitizeHTML(`<p>Dear client,</p><div>your hearing is on Monday</div>`)
	assert.Contains(t, out, "Dear client,")
	assert.Contains(t, out, "your hearing is on Monday")
	assert.Contains(t, out, "<p>")
}

func TestStripHTML(t *testing.T) {
	t.Run("keeps allow-listed tags", func(t *testing.T) {
		out := StripHTML(`<p>hello <strong>world</strong></p>`)
		assert.Contains(t, out, "<strong>")
		assert.Contains(t, out, "hello")
	})

	t.Run("drops other tags but keeps their text", func(t *testing.T) {
		out := StripHTML(`<table><tr><td>cell text</td></tr></table>`)
		assert.NotContains(t, out, "<table>")
		assert.Contains(t, out, "cell text")
	})

	t.Run("removes style and script with content", func(t *testing.T) {
		out := StripHTML(`<style>p{color:red}</style><script>x()</script>visible`)
		assert.NotContains(t, out, "color:red")
		assert.NotContains(t, out, "x()")
		assert.Contains(t, out, "visible")
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		out := StripHTML("a\n\n   b\t\tc")
		assert.Equal(t, "a b c", out)
	})
}

func TestExtractBodyInner(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		input := `<html><head><title>x</title></head><body class="m"><p>content</p></body></html>`
		out := ExtractBodyInner(input)
		assert.Equal(t, `<p>content</p>`, out)
	})

	t.Run("fragment passes through", func(t *testing.T) {
		assert.Equal(t, `<p>content</p>`, ExtractBodyInner(`<p>content</p>`))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", ExtractBodyInner(""))
	})
}

func TestStripSignatureAndQuotedHistory(t *testing.T) {
	t.Run("removes signature div", func(t *testing.T) {
		input := `<p>See you Monday</p><div class="signature">John Doe, Attorney</div>`
		out := StripSignatureAndQuotedHistory(input)
		assert.Contains(t, out, "See you Monday")
		assert.NotContains(t, out, "John Doe, Attorney")
	})

	t.Run("removes signature by id", func(t *testing.T) {
		input := `<p>body</p><p id="signature">sig</p>`
		out := StripSignatureAndQuotedHistory(input)
		assert.NotContains(t, out, "sig")
	})

	t.Run("removes blockquote history", func(t *testing.T) {
		input := `<p>new reply</p><blockquote><p>old message</p></blockquote>`
		out := StripSignatureAndQuotedHistory(input)
		assert.Contains(t, out, "new reply")
		assert.NotContains(t, out, "old message")
	})

	t.Run("cuts inlined From header tail", func(t *testing.T) {
		input := "latest reply\nFrom: someone@other.com\nSent: Monday\nold quoted text"
		out := StripSignatureAndQuotedHistory(input)
		assert.Contains(t, out, "latest reply")
		assert.NotContains(t, out, "old quoted text")
	})

	t.Run("plain text untouched", func(t *testing.T) {
		out := StripSignatureAndQuotedHistory("just a simple message")
		assert.Equal(t, "just a simple message", out)
	})
}

func TestCleanDeliveryDiagnostics(t *testing.T) {
	t.Run("non diagnostic passes through", func(t *testing.T) {
		input := "<p>regular client email about the case</p>"
		assert.Equal(t, input, CleanDeliveryDiagnostics(input))
	})

	t.Run("strips administrator noise", func(t *testing.T) {
		input := "Delivery has failed to these recipients\n" +
			"Diagnostic information for administrators:\n" +
			"Generating server: AM5PR0101MB1234.prod.outlook.com\n" +
			"Remote server returned '550 5.1.10 RESOLVER.ADR.RecipientNotFound'\n" +
			"DNS query returned no results\n" +
			"Original message headers:\n" +
			"Received: from somewhere"
		out := CleanDeliveryDiagnostics(input)
		assert.Contains(t, out, "Delivery has failed to these recipients")
		assert.NotContains(t, out, "Diagnostic information for administrators")
		assert.NotContains(t, out, "Generating server")
		assert.NotContains(t, out, "prod.outlook.com")
		assert.NotContains(t, out, "Original message headers")
		assert.NotContains(t, out, "Received: from somewhere")
		assert.NotContains(t, strings.ToLower(out), "dns query")
	})
}

func TestPlainTextToHTML(t *testing.T) {
	t.Run("escapes markup", func(t *testing.T) {
		out := PlainTextToHTML(`a < b & "c"`)
		assert.NotContains(t, out, "<script")
		assert.Contains(t, out, "&lt; b &amp;")
	})

	t.Run("converts newlines", func(t *testing.T) {
		out := PlainTextToHTML("line one\r\nline two\nline three")
		assert.Equal(t, "line one<br>line two<br>line three", out)
	})

	t.Run("autolinks urls", func(t *testing.T) {
		out := PlainTextToHTML("see https://caseflow.example/cases/42 for details")
		assert.Contains(t, out, `<a href="https://caseflow.example/cases/42"`)
		assert.Contains(t, out, `rel="noopener noreferrer"`)
	})
}

func TestMakePreview(t *testing.T) {
	t.Run("bounded length", func(t *testing.T) {
		long := strings.Repeat("word ", 500)
		out := MakePreview(long)
		assert.LessOrEqual(t, len([]rune(out)), 403)
		assert.True(t, strings.HasSuffix(out, "..."))
	})

	t.Run("short input unchanged", func(t *testing.T) {
		assert.Equal(t, "short note", MakePreview("short note"))
	})

	t.Run("never contains tags", func(t *testing.T) {
		out := MakePreview(`<p>hello <strong>world</strong></p><div>more</div>`)
		assert.NotContains(t, out, "<")
		assert.Contains(t, out, "hello")
		assert.Contains(t, out, "world")
	})

	t.Run("multibyte runes", func(t *testing.T) {
		long := strings.Repeat("ä", 500)
		out := MakePreview(long)
		runes := []rune(out)
		require.LessOrEqual(t, len(runes), 403)
	})
}

func TestCleanBody(t *testing.T) {
	input := `<html><body><p>New update on your case</p>` +
		`<div class="signature">Jane, Paralegal</div>` +
		`<blockquote>earlier thread</blockquote></body></html>`

	t.Run("current lead strips history", func(t *testing.T) {
		body, preview := CleanBody(input, false)
		assert.Contains(t, body, "New update on your case")
		assert.NotContains(t, body, "earlier thread")
		assert.NotContains(t, body, "Jane, Paralegal")
		assert.Contains(t, preview, "New update on your case")
	})

	t.Run("legacy lead keeps history", func(t *testing.T) {
		body, _ := CleanBody(input, true)
		assert.Contains(t, body, "New update on your case")
		assert.Contains(t, body, "earlier thread")
	})

	t.Run("script stripped in both variants", func(t *testing.T) {
		dirty := `<p>ok</p><script>alert(1)</script>`
		for _, preserve := range []bool{true, false} {
			body, preview := CleanBody(dirty, preserve)
			assert.NotContains(t, body, "<script")
			assert.NotContains(t, preview, "alert(1)")
		}
	})

	t.Run("falls back to plain text when sanitized body empty", func(t *testing.T) {
		body, preview := CleanBody("plain text only\nsecond line", false)
		assert.Contains(t, body, "plain text only")
		assert.Contains(t, preview, "plain text only")
	})

	t.Run("empty input", func(t *testing.T) {
		body, preview := CleanBody("", false)
		assert.Equal(t, "", body)
		assert.Equal(t, "", preview)
	})
}
