package parser

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	frontMatterRe = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)
	hashtagRe     = regexp.MustCompile(`(?:^|[\s(])#([\p{L}\p{N}_][\p{L}\p{N}_/-]*)`)
	wikiLinkRe    = regexp.MustCompile(`\[\[([^\[\]\n]+)\]\]`)
)

// Metadata is what a note body says about itself.
type Metadata struct {
	Title string
	Tags  []string
	Links []string
}

// Parse extracts metadata from a markdown note body. Tags come from the
// front matter, from a "tags:" list, and from inline #hashtags; duplicates
// are dropped in first-seen order.
func Parse(body string) Metadata {
	var meta Metadata
	tags := newTagSet()

	source := []byte(body)
	if fm, rest, ok := splitFrontMatter(source); ok {
		var data struct {
			Title string   `yaml:"title"`
			Tags  []string `yaml:"tags"`
		}
		if err := yaml.Unmarshal(fm, &data); err == nil {
			meta.Title = strings.TrimSpace(data.Title)
			tags.add(data.Tags...)
		}
		source = rest
	}

	document := goldmark.DefaultParser().Parse(text.NewReader(source))

	var inTagsSection bool
	_ = ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, ok := n.(*ast.List); ok && inTagsSection {
				inTagsSection = false
			}
			return ast.WalkContinue, nil
		}

		switch n := n.(type) {
		case *ast.Heading:
			if meta.Title == "" && n.Level == 1 {
				meta.Title = strings.TrimSpace(string(n.Text(source)))
			}
		case *ast.ListItem:
			if inTagsSection {
				tags.add(strings.TrimSpace(string(n.Text(source))))
				return ast.WalkSkipChildren, nil
			}
		case *ast.Text:
			if parent := n.Parent(); parent != nil && parent.Kind() == ast.KindCodeSpan {
				return ast.WalkContinue, nil
			}
			content := string(n.Segment.Value(source))
			if strings.TrimSpace(content) == "tags:" {
				inTagsSection = true
				return ast.WalkContinue, nil
			}
			for _, m := range hashtagRe.FindAllStringSubmatch(content, -1) {
				tags.add(m[1])
			}
		}
		return ast.WalkContinue, nil
	})

	if meta.Title == "" {
		meta.Title = firstLine(string(source))
	}
	meta.Tags = tags.list
	meta.Links = Links(body)
	return meta
}

// Tags returns only the tags of body.
func Tags(body string) []string {
	return Parse(body).Tags
}

// Links returns the targets of [[wiki links]] in body, deduplicated.
func Links(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range wikiLinkRe.FindAllStringSubmatch(body, -1) {
		target := strings.TrimSpace(m[1])
		if i := strings.IndexByte(target, '|'); i >= 0 {
			target = strings.TrimSpace(target[:i])
		}
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// HasNoteLinks reports whether content links to another note.
func HasNoteLinks(content []byte) bool {
	return wikiLinkRe.Match(content)
}

func splitFrontMatter(source []byte) (fm, rest []byte, ok bool) {
	loc := frontMatterRe.FindSubmatchIndex(source)
	if loc == nil {
		return nil, source, false
	}
	return source[loc[2]:loc[3]], source[loc[1]:], true
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			return line
		}
	}
	return ""
}

type tagSet struct {
	seen map[string]struct{}
	list []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: make(map[string]struct{})}
}

func (ts *tagSet) add(tags ...string) {
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := ts.seen[key]; ok {
			continue
		}
		ts.seen[key] = struct{}{}
		ts.list = append(ts.list, tag)
	}
}
