package lang

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/mwantia/x4vfs/log"
	"github.com/tidwall/btree"
)

const (
	// DefaultLanguage is English, loaded underneath every other language.
	DefaultLanguage = 44

	LanguagesPath = "libraries/languages.xml"

	maxDepth = 8
)

var referencePattern = regexp.MustCompile(`\{\s*(\d+)\s*,\s*(\d+)\s*\}`)

// DocumentSource opens merged documents by logical path.
type DocumentSource interface {
	OpenDocument(ctx context.Context, path string) (*etree.Document, error)
	OpenLocalizedDocument(ctx context.Context, path string) (*etree.Document, error)
}

type Language struct {
	ID   int
	Name string
}

// Entry is one translated text.
type Entry struct {
	Page int
	ID   int
	Text string
}

// FilePath returns the localization document of a language id.
func FilePath(id int) string {
	return fmt.Sprintf("t/0001-l%03d.xml", id)
}

// Languages lists the languages declared by the data set, sorted by id.
func Languages(ctx context.Context, source DocumentSource) ([]Language, error) {
	doc, err := source.OpenDocument(ctx, LanguagesPath)
	if err != nil {
		return nil, err
	}

	var languages []Language
	for _, el := range doc.FindElements("/languages/language") {
		id, err := strconv.Atoi(el.SelectAttrValue("id", ""))
		if err != nil {
			continue
		}
		languages = append(languages, Language{ID: id, Name: el.SelectAttrValue("name", "")})
	}

	slices.SortFunc(languages, func(a, b Language) int {
		return a.ID - b.ID
	})

	return languages, nil
}

// Resolver expands text references against the loaded language tables.
// Tables loaded later take precedence over earlier ones.
type Resolver struct {
	log   *log.Logger
	texts btree.Map[int64, string]
}

func NewResolver(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Resolver{
		log: logger,
	}
}

// Load reads the localization document of id. Within one document, the
// last entry for a page and id wins.
func (r *Resolver) Load(ctx context.Context, source DocumentSource, id int) error {
	doc, err := source.OpenLocalizedDocument(ctx, FilePath(id))
	if err != nil {
		return err
	}

	count := 0
	for _, page := range doc.FindElements("/language/page") {
		pageID, err := strconv.Atoi(page.SelectAttrValue("id", ""))
		if err != nil {
			continue
		}

		for _, text := range page.SelectElements("t") {
			textID, err := strconv.Atoi(text.SelectAttrValue("id", ""))
			if err != nil {
				continue
			}

			r.texts.Set(key(pageID, textID), text.Text())
			count++
		}
	}

	r.log.Debug("Loaded %d texts for language %d", count, id)
	return nil
}

// Text returns the raw, unresolved text of page and id.
func (r *Resolver) Text(page, id int) (string, bool) {
	return r.texts.Get(key(page, id))
}

// Len returns the number of known texts.
func (r *Resolver) Len() int {
	return r.texts.Len()
}

// Entries returns every known text, resolved, ordered by page and id.
func (r *Resolver) Entries() []Entry {
	entries := make([]Entry, 0, r.texts.Len())
	r.texts.Scan(func(k int64, text string) bool {
		entries = append(entries, Entry{
			Page: int(k >> 32),
			ID:   int(int32(k)),
			Text: r.Resolve(text),
		})
		return true
	})
	return entries
}

// Resolve expands {page,id} references, drops unescaped (comments) and
// unescapes \( and \). Unknown references are kept as written.
func (r *Resolver) Resolve(text string) string {
	return unescape(stripComments(r.expand(text, 0)))
}

func (r *Resolver) expand(text string, depth int) string {
	if depth >= maxDepth || !strings.Contains(text, "{") {
		return text
	}

	return referencePattern.ReplaceAllStringFunc(text, func(ref string) string {
		parts := referencePattern.FindStringSubmatch(ref)
		page, _ := strconv.Atoi(parts[1])
		id, _ := strconv.Atoi(parts[2])

		resolved, ok := r.texts.Get(key(page, id))
		if !ok {
			return ref
		}
		return r.expand(resolved, depth+1)
	})
}

func stripComments(text string) string {
	if !strings.Contains(text, "(") {
		return text
	}

	var b strings.Builder
	depth := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text) && (text[i+1] == '(' || text[i+1] == ')'):
			if depth == 0 {
				b.WriteByte(c)
				b.WriteByte(text[i+1])
			}
			i++
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteByte(c)
		}
	}

	return b.String()
}

func unescape(text string) string {
	return strings.NewReplacer(`\(`, "(", `\)`, ")").Replace(text)
}

func key(page, id int) int64 {
	return int64(page)<<32 | int64(uint32(id))
}
