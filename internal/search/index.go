package search

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/Paintersrp/snyft/internal/parser"
)

const (
	tierBody = iota
	tierLink
	tierTag
	tierTitle
)

// maxOccurrences caps the per-document hit count so a tier always dominates.
const maxOccurrences = 999

type document struct {
	ID         string
	Title      string
	Tags       []string
	Links      []string
	Body       string
	ModifiedAt time.Time
}

// Index stores searchable representations of notes.
type Index struct {
	cfg  Config
	docs map[string]document
	// aliases maps lowercase titles and ids to note ids so wiki links resolve.
	aliases   map[string]string
	outbound  map[string][]string
	backlinks map[string][]string
}

// NewIndex constructs an empty index.
func NewIndex(cfg Config) *Index {
	return &Index{
		cfg:       cfg,
		docs:      make(map[string]document),
		aliases:   make(map[string]string),
		outbound:  make(map[string][]string),
		backlinks: make(map[string][]string),
	}
}

// Build replaces the index contents with docs.
func (idx *Index) Build(docs []Document) {
	idx.docs = make(map[string]document, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			continue
		}
		idx.docs[d.ID] = newDocument(d)
	}
	idx.refreshMetadata()
}

// Upsert refreshes the indexed representation of one note.
func (idx *Index) Upsert(d Document) {
	if idx == nil || d.ID == "" {
		return
	}
	if idx.docs == nil {
		idx.docs = make(map[string]document)
	}
	idx.docs[d.ID] = newDocument(d)
	idx.refreshMetadata()
}

// Remove deletes a note from the index if present.
func (idx *Index) Remove(id string) {
	if idx == nil || len(idx.docs) == 0 {
		return
	}
	if _, ok := idx.docs[id]; !ok {
		return
	}
	delete(idx.docs, id)
	idx.refreshMetadata()
}

// Len returns the number of indexed notes.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Title returns the title of an indexed note.
func (idx *Index) Title(id string) (string, bool) {
	if idx == nil {
		return "", false
	}
	doc, ok := idx.docs[id]
	return doc.Title, ok
}

// Clone returns an independent copy safe to query while the original keeps
// changing.
func (idx *Index) Clone() *Index {
	if idx == nil {
		return nil
	}
	out := NewIndex(idx.cfg)
	for id, doc := range idx.docs {
		doc.Tags = append([]string(nil), doc.Tags...)
		doc.Links = append([]string(nil), doc.Links...)
		out.docs[id] = doc
	}
	for k, v := range idx.aliases {
		out.aliases[k] = v
	}
	for k, v := range idx.outbound {
		out.outbound[k] = append([]string(nil), v...)
	}
	for k, v := range idx.backlinks {
		out.backlinks[k] = append([]string(nil), v...)
	}
	return out
}

func newDocument(d Document) document {
	return document{
		ID:         d.ID,
		Title:      d.Title,
		Tags:       append([]string(nil), d.Tags...),
		Links:      parser.Links(d.Body),
		Body:       d.Body,
		ModifiedAt: d.ModifiedAt,
	}
}

func (idx *Index) refreshMetadata() {
	idx.aliases = idx.buildAliases()
	idx.computeRelationships()
}

// RelatedNotes captures outbound links and backlinks for a note.
type RelatedNotes struct {
	Outbound  []string
	Backlinks []string
}

// Related returns the ids a note links to and the ids linking to it. id may
// also be a note title.
func (idx *Index) Related(id string) RelatedNotes {
	if resolved := idx.resolveAlias(id); resolved != "" {
		id = resolved
	}

	related := RelatedNotes{}
	if links, ok := idx.outbound[id]; ok {
		related.Outbound = append([]string(nil), links...)
	}
	if refs, ok := idx.backlinks[id]; ok {
		related.Backlinks = append([]string(nil), refs...)
	}
	return related
}

// Search evaluates the query and returns matching notes, best first. Title
// hits rank above tag hits, tag hits above link hits and link hits above
// body hits; within a tier more occurrences rank higher.
func (idx *Index) Search(q Query) []Result {
	if len(idx.docs) == 0 {
		return nil
	}
	term := strings.ToLower(strings.TrimSpace(q.Term))

	results := make([]Result, 0)
	var candidates []document
	for _, doc := range idx.docs {
		if !doc.matchesFilters(q) {
			continue
		}
		candidates = append(candidates, doc)

		if term == "" {
			// Pure tag filtering request.
			results = append(results, Result{ID: doc.ID, Title: doc.Title, MatchFrom: "tags"})
			continue
		}
		if r, ok := doc.match(term, idx.cfg.EnableBody); ok {
			results = append(results, r)
		}
	}

	if len(results) == 0 && term != "" && idx.cfg.Fuzzy {
		return fuzzyTitles(term, candidates)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		a, b := idx.docs[results[i].ID], idx.docs[results[j].ID]
		if !a.ModifiedAt.Equal(b.ModifiedAt) {
			return a.ModifiedAt.After(b.ModifiedAt)
		}
		return a.ID < b.ID
	})
	return results
}

// Filtered returns the documents carrying every tag in q, ordered by title.
func (idx *Index) Filtered(q Query) []Document {
	if len(idx.docs) == 0 {
		return nil
	}

	matches := make([]Document, 0)
	for _, doc := range idx.docs {
		if !doc.matchesFilters(q) {
			continue
		}
		matches = append(matches, Document{
			ID:         doc.ID,
			Title:      doc.Title,
			Body:       doc.Body,
			Tags:       append([]string(nil), doc.Tags...),
			ModifiedAt: doc.ModifiedAt,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Title != matches[j].Title {
			return matches[i].Title < matches[j].Title
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

func fuzzyTitles(term string, docs []document) []Result {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	titles := make([]string, len(docs))
	for i, doc := range docs {
		titles[i] = doc.Title
	}

	matches := fuzzy.Find(term, titles)
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		doc := docs[m.Index]
		results = append(results, Result{
			ID:        doc.ID,
			Title:     doc.Title,
			Snippet:   doc.Title,
			MatchFrom: "fuzzy",
			Score:     m.Score,
		})
	}
	return results
}

func (idx *Index) computeRelationships() {
	outbound := make(map[string]map[string]struct{}, len(idx.docs))
	backlinks := make(map[string]map[string]struct{}, len(idx.docs))

	for id, doc := range idx.docs {
		for _, raw := range doc.Links {
			target := idx.resolveAlias(raw)
			if target == "" || target == id {
				continue
			}

			if _, ok := outbound[id]; !ok {
				outbound[id] = make(map[string]struct{})
			}
			outbound[id][target] = struct{}{}

			if _, ok := backlinks[target]; !ok {
				backlinks[target] = make(map[string]struct{})
			}
			backlinks[target][id] = struct{}{}
		}
	}

	idx.outbound = make(map[string][]string, len(outbound))
	for id, targets := range outbound {
		idx.outbound[id] = setToSortedSlice(targets)
	}

	idx.backlinks = make(map[string][]string, len(backlinks))
	for id, sources := range backlinks {
		idx.backlinks[id] = setToSortedSlice(sources)
	}
}

func (idx *Index) buildAliases() map[string]string {
	aliases := make(map[string]string, len(idx.docs)*2)
	for id, doc := range idx.docs {
		if title := strings.ToLower(strings.TrimSpace(doc.Title)); title != "" {
			aliases[title] = id
		}
	}
	// Ids win over titles that happen to look like an id.
	for id := range idx.docs {
		aliases[strings.ToLower(id)] = id
	}
	return aliases
}

func (idx *Index) resolveAlias(name string) string {
	if len(idx.aliases) == 0 {
		return ""
	}
	name = strings.TrimSpace(name)
	if hash := strings.Index(name, "#"); hash >= 0 {
		name = name[:hash]
	}
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return ""
	}
	return idx.aliases[normalized]
}

func setToSortedSlice(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (d document) matchesFilters(q Query) bool {
	for _, required := range q.Tags {
		if !containsFold(d.Tags, required) {
			return false
		}
	}
	return true
}

// match scores d against a lowercased term.
func (d document) match(term string, body bool) (Result, bool) {
	res := Result{ID: d.ID, Title: d.Title}
	tier := -1
	hits := 0

	if n := strings.Count(strings.ToLower(d.Title), term); n > 0 {
		tier = tierTitle
		hits += n
		res.MatchFrom, res.Snippet = "title", d.Title
	}
	for _, tag := range d.Tags {
		if n := strings.Count(strings.ToLower(tag), term); n > 0 {
			if tier < tierTag {
				tier = tierTag
				res.MatchFrom, res.Snippet = "tags", "#"+tag
			}
			hits += n
		}
	}
	for _, link := range d.Links {
		if n := strings.Count(strings.ToLower(link), term); n > 0 {
			if tier < tierLink {
				tier = tierLink
				res.MatchFrom, res.Snippet = "links", "link: "+link
			}
			hits += n
		}
	}
	if body {
		lowered := strings.ToLower(d.Body)
		if n := strings.Count(lowered, term); n > 0 {
			if tier < tierBody {
				tier = tierBody
				res.MatchFrom = "body"
			}
			if res.MatchFrom == "body" || res.MatchFrom == "title" {
				// Body context is more useful than repeating the title.
				at := strings.Index(lowered, term)
				res.Snippet = bodySnippet(d.Body, utf8.RuneCountInString(lowered[:at]), utf8.RuneCountInString(term))
			}
			hits += n
		}
	}

	if tier < 0 {
		return Result{}, false
	}
	res.Score = tier*(maxOccurrences+1) + min(hits, maxOccurrences)
	return res, true
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// Snippet returns the window of body around the first case-insensitive
// occurrence of term.
func Snippet(body, term string) (string, bool) {
	lowered := strings.ToLower(body)
	at := strings.Index(lowered, strings.ToLower(term))
	if term == "" || at < 0 {
		return "", false
	}
	return bodySnippet(body, utf8.RuneCountInString(lowered[:at]), utf8.RuneCountInString(term)), true
}

// bodySnippet returns a window of runes around [index, index+termLen).
func bodySnippet(body string, index, termLen int) string {
	if termLen <= 0 {
		termLen = 1
	}

	runes := []rune(body)
	start := index
	end := index + termLen
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}

	const window = 40
	snippetStart := max(0, start-window)
	snippetEnd := min(len(runes), end+window)

	snippet := string(runes[snippetStart:snippetEnd])
	snippet = strings.Join(strings.Fields(snippet), " ")
	if snippetStart > 0 {
		snippet = "…" + snippet
	}
	if snippetEnd < len(runes) {
		snippet = snippet + "…"
	}
	return snippet
}
