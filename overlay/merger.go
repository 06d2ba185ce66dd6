package overlay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/mwantia/x4vfs/data"
	dataerrors "github.com/mwantia/x4vfs/data/errors"
	"github.com/mwantia/x4vfs/log"
)

const (
	DiffTag = "diff"

	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

var (
	errMissingSelector = errors.New("missing sel attribute")
	errRootRemoval     = errors.New("the document root cannot be removed")
	errRootSibling     = errors.New("the document root cannot have siblings")
	errRootMismatch    = errors.New("root element does not match the base document")
	errAttributeTarget = errors.New("operation cannot target an attribute")
)

// Result summarizes one merge. Skipped directives never abort the merge.
type Result struct {
	Applied int
	Skipped []*data.DirectiveError
}

// Err joins every skipped directive, or returns nil.
func (r *Result) Err() error {
	if len(r.Skipped) == 0 {
		return nil
	}

	errs := make([]error, 0, len(r.Skipped))
	for _, skipped := range r.Skipped {
		errs = append(errs, skipped)
	}
	return errors.Join(errs...)
}

// Merger folds overlay documents into a base document in place.
// Overlays are only ever read; every node taken from them is copied.
type Merger struct {
	log *log.Logger
}

func NewMerger(logger *log.Logger) *Merger {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Merger{
		log: logger,
	}
}

// Merge applies patch to base. A patch rooted at <diff> is a list of
// add, replace and remove directives applied in document order; each one
// edits the first node its selector matches. Any other patch must share
// the base root tag and has its children appended to the base root.
func (m *Merger) Merge(base, patch *etree.Document) *Result {
	result := &Result{}

	root := patch.Root()
	if root == nil || base.Root() == nil {
		return result
	}

	if root.Tag != DiffTag {
		m.appendDocument(base, root, result)
		return result
	}

	for i, directive := range root.ChildElements() {
		selector := directive.SelectAttrValue("sel", "")
		if err := m.apply(base, directive, selector); err != nil {
			m.skip(result, dataerrors.MalformedDirective(err, i, directive.Tag, selector), isSilent(directive))
			continue
		}

		result.Applied++
	}

	return result
}

// MergeLocalization merges a page table: overlay pages append their
// entries to the base page with the same id, unknown pages are added to
// the base root. Diff documents are handled by Merge.
func (m *Merger) MergeLocalization(base, patch *etree.Document) *Result {
	root := patch.Root()
	if root != nil && root.Tag == DiffTag {
		return m.Merge(base, patch)
	}

	result := &Result{}
	baseRoot := base.Root()
	if root == nil || baseRoot == nil {
		return result
	}

	pages := make(map[string]*etree.Element)
	for _, page := range baseRoot.SelectElements("page") {
		id := page.SelectAttrValue("id", "")
		if _, exists := pages[id]; !exists {
			pages[id] = page
		}
	}

	for i, page := range root.SelectElements("page") {
		id := page.SelectAttr("id")
		if id == nil {
			m.skip(result, dataerrors.MalformedDirective(fmt.Errorf("page without id: %w", dataerrors.ErrMissingContent), i, "page", ""), false)
			continue
		}

		if existing, ok := pages[id.Value]; ok {
			for _, entry := range page.ChildElements() {
				existing.AddChild(entry.Copy())
			}
		} else {
			added := page.Copy()
			baseRoot.AddChild(added)
			pages[id.Value] = added
		}

		result.Applied++
	}

	return result
}

func (m *Merger) apply(base *etree.Document, directive *etree.Element, selector string) error {
	if selector == "" {
		return errMissingSelector
	}

	t, err := compileSelector(selector)
	if err != nil {
		return err
	}

	el := t.resolve(base)
	if el == nil {
		return dataerrors.ErrSelectorNoMatch
	}

	switch directive.Tag {
	case OperationAdd:
		return add(base, el, t, directive)
	case OperationReplace:
		return replace(base, el, t, directive)
	case OperationRemove:
		return remove(base, el, t)
	}

	return fmt.Errorf("unknown operation '%s'", directive.Tag)
}

func add(base *etree.Document, el *etree.Element, t *target, directive *etree.Element) error {
	if t.kind != targetElement {
		return errAttributeTarget
	}

	if kind := directive.SelectAttrValue("type", ""); strings.HasPrefix(kind, "@") {
		el.CreateAttr(kind[1:], directive.Text())
		return nil
	}

	children := directive.ChildElements()
	if len(children) == 0 {
		return dataerrors.ErrMissingContent
	}

	switch pos := directive.SelectAttrValue("pos", "append"); pos {
	case "", "append":
		for _, child := range children {
			el.AddChild(child.Copy())
		}
	case "prepend":
		for i, child := range children {
			el.InsertChildAt(i, child.Copy())
		}
	case "before", "after":
		if el == base.Root() {
			return errRootSibling
		}

		parent, index := el.Parent(), el.Index()
		if pos == "after" {
			index++
		}
		for i, child := range children {
			parent.InsertChildAt(index+i, child.Copy())
		}
	default:
		return fmt.Errorf("unknown position '%s'", pos)
	}

	return nil
}

func replace(base *etree.Document, el *etree.Element, t *target, directive *etree.Element) error {
	switch t.kind {
	case targetAttribute:
		attr := el.SelectAttr(t.attr)
		if attr == nil {
			return dataerrors.ErrSelectorNoMatch
		}
		attr.Value = directive.Text()
		return nil
	case targetText:
		el.SetText(directive.Text())
		return nil
	}

	children := directive.ChildElements()
	if len(children) == 0 {
		return dataerrors.ErrMissingContent
	}
	if el == base.Root() && len(children) > 1 {
		return errRootSibling
	}

	parent, index := el.Parent(), el.Index()
	parent.RemoveChildAt(index)
	for i, child := range children {
		parent.InsertChildAt(index+i, child.Copy())
	}

	return nil
}

func remove(base *etree.Document, el *etree.Element, t *target) error {
	switch t.kind {
	case targetAttribute:
		if el.RemoveAttr(t.attr) == nil {
			return dataerrors.ErrSelectorNoMatch
		}
		return nil
	case targetText:
		el.SetText("")
		return nil
	}

	if el == base.Root() {
		return errRootRemoval
	}

	el.Parent().RemoveChild(el)
	return nil
}

func (m *Merger) appendDocument(base *etree.Document, root *etree.Element, result *Result) {
	baseRoot := base.Root()
	if baseRoot.Tag != root.Tag {
		m.skip(result, dataerrors.MalformedDirective(errRootMismatch, 0, root.Tag, "/"+baseRoot.Tag), false)
		return
	}

	for _, child := range root.ChildElements() {
		baseRoot.AddChild(child.Copy())
	}
	result.Applied++
}

func (m *Merger) skip(result *Result, err *data.DirectiveError, silent bool) {
	result.Skipped = append(result.Skipped, err)

	if silent {
		m.log.Debug("Skipping directive: %v", err)
		return
	}
	m.log.Warn("Skipping directive: %v", err)
}

func isSilent(directive *etree.Element) bool {
	switch strings.ToLower(directive.SelectAttrValue("silent", "")) {
	case "true", "1":
		return true
	}
	return false
}
