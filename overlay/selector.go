package overlay

import (
	"strings"

	"github.com/beevik/etree"
)

type targetKind int

const (
	targetElement targetKind = iota
	targetAttribute
	targetText
)

// target is a compiled directive selector. Attribute and text selectors
// address the element before their last step.
type target struct {
	kind targetKind
	path etree.Path
	attr string
	root bool
}

func compileSelector(selector string) (*target, error) {
	selector = strings.TrimSpace(selector)

	t := &target{kind: targetElement}
	if last := strings.LastIndex(selector, "/"); last >= 0 && bracketDepth(selector[:last]) == 0 {
		switch step := selector[last+1:]; {
		case strings.HasPrefix(step, "@"):
			t.kind = targetAttribute
			t.attr = step[1:]
			selector = selector[:last]
		case step == "text()":
			t.kind = targetText
			selector = selector[:last]
		}
	}
	if selector == "" || selector == "/" {
		t.root = true
		return t, nil
	}

	path, err := etree.CompilePath(rewriteConjunctions(selector))
	if err != nil {
		return nil, err
	}

	t.path = path
	return t, nil
}

// resolve returns the first element matched inside doc.
func (t *target) resolve(doc *etree.Document) *etree.Element {
	if t.root {
		return doc.Root()
	}

	e := doc.FindElementPath(t.path)
	if e == &doc.Element {
		return doc.Root()
	}
	return e
}

// rewriteConjunctions turns "[@a='x' and @b='y']" into "[@a='x'][@b='y']",
// which etree paths express as stacked filters.
func rewriteConjunctions(selector string) string {
	if !strings.Contains(selector, " and ") {
		return selector
	}

	var b strings.Builder
	depth := 0
	var quote byte

	for i := 0; i < len(selector); i++ {
		c := selector[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case depth > 0 && strings.HasPrefix(selector[i:], " and "):
			b.WriteString("][")
			i += len(" and ") - 1
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}

func bracketDepth(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		}
	}
	return depth
}
