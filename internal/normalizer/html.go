package normalizer

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Elements whose content is never visible text.
const droppedSelectors = "script, style, noscript, template, svg, iframe, object, embed"

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "caption": true, "dd": true, "details": true, "div": true,
	"dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"html": true, "li": true, "main": true, "nav": true, "ol": true,
	"option": true, "p": true, "pre": true, "section": true, "summary": true,
	"table": true, "td": true, "th": true, "title": true, "tr": true, "ul": true,
}

var markupPattern = regexp.MustCompile(`(?i)<(!doctype|!--|/?[a-z][a-z0-9-]*[\s/>])`)

// NormalizeError reports content that could not be turned into text.
type NormalizeError struct {
	Reason string
	Err    error
}

func (e *NormalizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize: %s: %v", e.Reason, e.Err)
	}
	return "normalize: " + e.Reason
}

// Unwrap returns the underlying error.
func (e *NormalizeError) Unwrap() error {
	return e.Err
}

// Normalizer converts fetched HTML into the plain text that snapshots are compared on.
type Normalizer struct {
	logger zerolog.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.With().Str("component", "Normalizer").Logger(),
	}
}

// Normalize extracts the visible text of an HTML document, one block per line.
// The charset comes from a byte order mark or a <meta> declaration; see NormalizeContent.
func (n *Normalizer) Normalize(raw []byte) (string, error) {
	return n.NormalizeContent(raw, "")
}

// NormalizeContent is Normalize for a body served with the given Content-Type.
// The body is decoded to UTF-8 using, in order, a byte order mark, the charset
// parameter of contentType and a <meta> charset declaration. Other bodies that are
// not valid UTF-8 are read as windows-1252, the way browsers do.
// Input without any markup is treated as plain text and keeps its own line structure.
// Whitespace runs inside a line collapse to a single space and blank lines are dropped,
// so cosmetic reformatting of the markup does not register as a change.
// A body without any visible text is an error: an empty result would look like a
// source that was never fetched.
func (n *Normalizer) NormalizeContent(raw []byte, contentType string) (string, error) {
	content, err := decode(raw, contentType)
	if err != nil {
		return "", err
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return "", &NormalizeError{Reason: "binary content (NUL byte)"}
	}

	var text string
	if markupPattern.Match(content) {
		if text, err = extractText(content); err != nil {
			return "", err
		}
	} else {
		text = collapseLines(strings.ReplaceAll(string(content), "\r\n", "\n"))
	}

	if text == "" {
		return "", &NormalizeError{Reason: "no visible text"}
	}
	n.logger.Trace().Int("raw_size", len(raw)).Int("text_size", len(text)).Msg("Normalized content")
	return text, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode converts raw to UTF-8. Bytes that are invalid in the chosen encoding are an error.
// Only a byte order mark or the Content-Type charset is authoritative; otherwise a body
// that is valid UTF-8 throughout stays UTF-8.
func decode(raw []byte, contentType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if !certain && utf8.Valid(raw) {
		name = "utf-8"
	}
	if name == "utf-8" {
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return nil, &NormalizeError{Reason: "content is not valid UTF-8"}
		}
		return raw, nil
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, &NormalizeError{Reason: "decode " + name, Err: err}
	}
	if !utf8.Valid(decoded) {
		return nil, &NormalizeError{Reason: "content is not valid " + name}
	}
	return decoded, nil
}

func extractText(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", &NormalizeError{Reason: "parse html", Err: err}
	}

	doc.Find(droppedSelectors).Remove()
	doc.Find("head").Children().Not("title").Remove()

	var sb strings.Builder
	for _, node := range doc.Nodes {
		writeText(&sb, node, false)
	}
	return collapseLines(sb.String()), nil
}

func writeText(sb *strings.Builder, node *html.Node, pre bool) {
	switch node.Type {
	case html.TextNode:
		if pre {
			sb.WriteString(node.Data)
		} else {
			sb.WriteString(lineBreaks.Replace(node.Data))
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if node.Data == "br" {
			sb.WriteByte('\n')
			return
		}
		if node.Data == "pre" || node.Data == "textarea" {
			pre = true
		}
	}

	block := node.Type == html.ElementNode && blockElements[node.Data]
	if block {
		sb.WriteByte('\n')
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(sb, child, pre)
	}
	if block {
		sb.WriteByte('\n')
	}
}

// Source line breaks outside <pre> are plain whitespace in HTML.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
