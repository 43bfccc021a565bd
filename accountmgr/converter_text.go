package accountmgr

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	goorg "github.com/niklasfasching/go-org/org"
	"github.com/yuin/goldmark"
	mdast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	mdtext "github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

// Format enumerates text representations of an account manager list.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatOrg      Format = "org"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

// ErrNotImplemented signals that a conversion target is not supported.
var ErrNotImplemented = errors.New("conversion not implemented")

const (
	labelURL   = "URL"
	labelImage = "Image"
)

// ConvertToText renders a list in the requested format. Markdown, Org and
// plain text flatten HTML in descriptions; JSON keeps fields verbatim.
func ConvertToText(list []AccountManager, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(list), nil
	case FormatOrg:
		return renderOrg(list), nil
	case FormatText:
		return renderText(list), nil
	case FormatJSON:
		if list == nil {
			list = []AccountManager{}
		}
		out, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", ErrNotImplemented
	}
}

// ConvertFromText reads a list back from Markdown, Org or JSON.
// In Markdown and Org every heading opens a record named by the heading text;
// "URL:" and "Image:" list items fill the links and remaining paragraphs form
// the description. Records without a name are skipped.
func ConvertFromText(body string, format Format) ([]AccountManager, error) {
	switch format {
	case FormatMarkdown:
		return importMarkdown(body), nil
	case FormatOrg:
		return importOrg(body)
	case FormatJSON:
		list := []AccountManager{}
		if strings.TrimSpace(body) == "" {
			return list, nil
		}
		if err := json.Unmarshal([]byte(body), &list); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, ErrNotImplemented
	}
}

// markdownEscaper backslash-escapes punctuation that goldmark would otherwise
// read as inline markup.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`,
	"#", `\#`, "`", "\\`", "~", `\~`, "&", `\&`,
)

func renderMarkdown(list []AccountManager) string {
	var b strings.Builder
	for _, am := range list {
		b.WriteString("## ")
		b.WriteString(markdownEscaper.Replace(strings.TrimSpace(am.Name)))
		b.WriteString("\n\n")
		writeLinks(&b, AccountManager{
			URL:      markdownEscaper.Replace(am.URL),
			ImageURL: markdownEscaper.Replace(am.ImageURL),
		}, "- ")
		if desc := PlainText(am.Description); desc != "" {
			b.WriteString(markdownEscaper.Replace(desc))
			b.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func renderOrg(list []AccountManager) string {
	var b strings.Builder
	for _, am := range list {
		b.WriteString("* ")
		b.WriteString(strings.TrimSpace(am.Name))
		b.WriteString("\n")
		writeLinks(&b, am, "- ")
		if desc := PlainText(am.Description); desc != "" {
			b.WriteString(desc)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func renderText(list []AccountManager) string {
	var b strings.Builder
	for _, am := range list {
		b.WriteString(strings.TrimSpace(am.Name))
		b.WriteString("\n")
		writeLinks(&b, am, "  ")
		if desc := PlainText(am.Description); desc != "" {
			b.WriteString("  ")
			b.WriteString(desc)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func writeLinks(b *strings.Builder, am AccountManager, prefix string) {
	wrote := false
	if u := strings.TrimSpace(am.URL); u != "" {
		b.WriteString(prefix + labelURL + ": " + u + "\n")
		wrote = true
	}
	if img := strings.TrimSpace(am.ImageURL); img != "" {
		b.WriteString(prefix + labelImage + ": " + img + "\n")
		wrote = true
	}
	if wrote && prefix == "- " {
		b.WriteString("\n")
	}
}

func importMarkdown(body string) []AccountManager {
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
	src := []byte(body)
	root := md.Parser().Parse(mdtext.NewReader(src))

	var c collector
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *mdast.Heading:
			c.open(extractText(node, src))
		case *mdast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				c.line(extractText(item, src))
			}
		case *mdast.Paragraph:
			c.paragraph(extractText(node, src))
		}
	}
	return c.done()
}

func importOrg(body string) ([]AccountManager, error) {
	o := goorg.New().Parse(strings.NewReader(body), "")
	out, err := o.Write(goorg.NewOrgWriter())
	if err != nil {
		return nil, err
	}
	var c collector
	var para []string
	flushPara := func() {
		c.paragraph(strings.Join(para, " "))
		para = nil
	}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flushPara()
		case strings.HasPrefix(line, "*"):
			if title, ok := orgHeadline(line); ok {
				flushPara()
				c.open(title)
				continue
			}
			para = append(para, line)
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "+ "):
			flushPara()
			c.line(strings.TrimSpace(line[2:]))
		default:
			para = append(para, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flushPara()
	return c.done(), nil
}

func orgHeadline(line string) (string, bool) {
	title := strings.TrimLeft(line, "*")
	if title == line || !strings.HasPrefix(title, " ") {
		return "", false
	}
	return strings.TrimSpace(title), true
}

// collector accumulates records while walking a text document.
type collector struct {
	out  []AccountManager
	cur  *Builder
	desc []string
}

func (c *collector) open(name string) {
	c.flush()
	c.cur = NewBuilder().Name(name)
}

func (c *collector) line(text string) {
	if c.cur == nil {
		return
	}
	label, value, ok := strings.Cut(text, ":")
	if ok {
		value = unwrapOrgLink(strings.TrimSpace(value))
		switch strings.ToLower(strings.TrimSpace(label)) {
		case strings.ToLower(labelURL):
			c.cur.URL(value)
			return
		case strings.ToLower(labelImage):
			c.cur.ImageURL(value)
			return
		}
	}
	c.paragraph(text)
}

func (c *collector) paragraph(text string) {
	if c.cur == nil {
		return
	}
	if text = strings.TrimSpace(text); text != "" {
		c.desc = append(c.desc, text)
	}
}

func (c *collector) flush() {
	if c.cur == nil {
		return
	}
	c.cur.Description(strings.Join(c.desc, "\n\n"))
	if am := c.cur.Build(); am.Name != "" {
		c.out = append(c.out, am)
	}
	c.cur = nil
	c.desc = nil
}

func (c *collector) done() []AccountManager {
	c.flush()
	if c.out == nil {
		return []AccountManager{}
	}
	return c.out
}

// unwrapOrgLink turns [[target]] or [[target][label]] into target.
func unwrapOrgLink(v string) string {
	if !strings.HasPrefix(v, "[[") || !strings.HasSuffix(v, "]]") {
		return v
	}
	inner := v[2 : len(v)-2]
	if target, _, ok := strings.Cut(inner, "]["); ok {
		return target
	}
	return inner
}

func extractText(n mdast.Node, src []byte) string {
	var b bytes.Buffer
	mdast.Walk(n, func(nn mdast.Node, entering bool) (mdast.WalkStatus, error) {
		if !entering {
			return mdast.WalkContinue, nil
		}
		switch tn := nn.(type) {
		case *mdast.Text:
			b.Write(tn.Segment.Value(src))
			if tn.SoftLineBreak() || tn.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *mdast.AutoLink:
			b.Write(tn.URL(src))
		}
		return mdast.WalkContinue, nil
	})
	return strings.TrimSpace(string(util.UnescapePunctuations(b.Bytes())))
}

var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"tr": true, "td": true, "th": true, "table": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// PlainText strips HTML markup from s, decodes entities and collapses whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if !skip {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				skip = true
			case blockTags[tag]:
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				skip = false
			case blockTags[tag]:
				b.WriteByte(' ')
			}
		}
	}
}
