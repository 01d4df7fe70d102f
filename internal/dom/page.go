package dom

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Page drives a parsed HTML tree. Behaviors bound to selectors simulate
// the application's reactions to clicks (popovers opening, overlays
// closing); without a binding a click falls back to standard ARIA
// semantics. All operations are safe for concurrent use: the engine, the
// watchdog, and test drivers share one page the way the extension shares
// one UI thread's DOM.
type Page struct {
	mu        sync.Mutex
	doc       *goquery.Document
	url       string
	behaviors []behavior
	observers map[int]func()
	nextObs   int
	muts      []Mutation
}

type behavior struct {
	selector string
	fn       func(Node)
}

// NewPage parses html into a Page. url is the page location reported to
// the navigation checker.
func NewPage(html, url string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return &Page{
		doc:       doc,
		url:       url,
		observers: map[int]func(){},
	}, nil
}

// Bind registers a click behavior for nodes matching selector. Behaviors
// run after the click is recorded and default ARIA toggling applied.
func (p *Page) Bind(selector string, fn func(Node)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.behaviors = append(p.behaviors, behavior{selector: selector, fn: fn})
}

// Mutations returns a copy of the recorded mutation log.
func (p *Page) Mutations() []Mutation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Mutation(nil), p.muts...)
}

// MutatingOps counts recorded operations that change the page (clicks,
// value/attr/text writes, subtree changes); dispatches are excluded.
func (p *Page) MutatingOps() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.muts {
		if m.Op != OpDispatch {
			n++
		}
	}
	return n
}

// ResetMutations clears the mutation log.
func (p *Page) ResetMutations() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muts = nil
}

// SetLocation updates the reported page URL, simulating SPA navigation.
func (p *Page) SetLocation(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

// Location implements Document.
func (p *Page) Location() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Query implements Document.
func (p *Page) Query(selector string) (Node, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel := p.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, false
	}
	return &element{page: p, sel: sel.First()}, true
}

// QueryAll implements Document.
func (p *Page) QueryAll(selector string) []Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wrapAll(p.doc.Find(selector))
}

func (p *Page) wrapAll(sel *goquery.Selection) []Node {
	out := make([]Node, 0, sel.Length())
	for i := 0; i < sel.Length(); i++ {
		out = append(out, &element{page: p, sel: sel.Eq(i)})
	}
	return out
}

// SetMarker implements Document: a class toggle on body.
func (p *Page) SetMarker(name string, on bool) {
	p.mu.Lock()
	body := p.doc.Find("body").First()
	if on {
		body.AddClass(name)
	} else {
		body.RemoveClass(name)
	}
	p.mu.Unlock()
	p.notify()
}

// HasMarker implements Document.
func (p *Page) HasMarker(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Find("body").First().HasClass(name)
}

// SetStyleRule implements Document: an injected <style> block keyed by id.
func (p *Page) SetStyleRule(id, css string) {
	p.mu.Lock()
	style := p.doc.Find("style#" + id)
	if style.Length() == 0 {
		head := p.doc.Find("head").First()
		if head.Length() == 0 {
			p.mu.Unlock()
			return
		}
		head.AppendHtml(fmt.Sprintf("<style id=%q></style>", id))
		style = p.doc.Find("style#" + id)
	}
	style.SetText(css)
	p.mu.Unlock()
}

// StyleRule returns the current css for an injected style block.
func (p *Page) StyleRule(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Find("style#" + id).Text()
}

// Observe implements Document.
func (p *Page) Observe(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers, id)
	}
}

// Render serializes the page back to HTML.
func (p *Page) Render() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	html, err := goquery.OuterHtml(p.doc.Find("html").First())
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return "<!DOCTYPE html>\n" + html, nil
}

func (p *Page) record(m Mutation) {
	p.mu.Lock()
	p.muts = append(p.muts, m)
	p.mu.Unlock()
}

func (p *Page) notify() {
	p.mu.Lock()
	fns := make([]func(), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// element implements Node over a single-node goquery selection.
type element struct {
	page *Page
	sel  *goquery.Selection
}

func (e *element) Tag() string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return goquery.NodeName(e.sel)
}

func (e *element) Attr(name string) (string, bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.sel.Attr(name)
}

func (e *element) SetAttr(name, value string) {
	e.page.mu.Lock()
	e.sel.SetAttr(name, value)
	e.page.muts = append(e.page.muts, Mutation{Op: OpSetAttr, Target: describe(e.sel), Detail: name + "=" + value})
	e.page.mu.Unlock()
	e.page.notify()
}

func (e *element) RemoveAttr(name string) {
	e.page.mu.Lock()
	e.sel.RemoveAttr(name)
	e.page.muts = append(e.page.muts, Mutation{Op: OpSetAttr, Target: describe(e.sel), Detail: "-" + name})
	e.page.mu.Unlock()
	e.page.notify()
}

func (e *element) Text() string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.sel.Text()
}

func (e *element) SetText(text string) {
	e.page.mu.Lock()
	e.sel.SetText(text)
	e.page.muts = append(e.page.muts, Mutation{Op: OpSetText, Target: describe(e.sel)})
	e.page.mu.Unlock()
	e.page.notify()
}

func (e *element) Value() string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if goquery.NodeName(e.sel) == "textarea" {
		return e.sel.Text()
	}
	v, _ := e.sel.Attr("value")
	return v
}

func (e *element) SetValue(value string) {
	e.page.mu.Lock()
	if goquery.NodeName(e.sel) == "textarea" {
		e.sel.SetText(value)
	} else {
		e.sel.SetAttr("value", value)
	}
	e.page.muts = append(e.page.muts, Mutation{Op: OpSetValue, Target: describe(e.sel), Detail: value})
	e.page.mu.Unlock()
	e.page.notify()
}

func (e *element) Dispatch(events ...string) {
	e.page.mu.Lock()
	e.page.muts = append(e.page.muts, Mutation{Op: OpDispatch, Target: describe(e.sel), Detail: strings.Join(events, ",")})
	e.page.mu.Unlock()
	e.page.notify()
}

// Click records the activation, applies default ARIA semantics, then runs
// bound behaviors outside the page lock so they may mutate freely.
func (e *element) Click() {
	e.page.mu.Lock()
	e.page.muts = append(e.page.muts, Mutation{Op: OpClick, Target: describe(e.sel)})

	// Default semantics: switches and expanders toggle their ARIA state.
	if v, ok := e.sel.Attr("aria-checked"); ok {
		e.sel.SetAttr("aria-checked", flip(v))
	}
	if v, ok := e.sel.Attr("aria-expanded"); ok {
		e.sel.SetAttr("aria-expanded", flip(v))
	}

	var fns []func(Node)
	for _, b := range e.page.behaviors {
		if e.sel.Is(b.selector) {
			fns = append(fns, b.fn)
		}
	}
	e.page.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
	e.page.notify()
}

func (e *element) Parent() (Node, bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	parent := e.sel.Parent()
	if parent.Length() == 0 {
		return nil, false
	}
	name := goquery.NodeName(parent)
	if name == "" || strings.HasPrefix(name, "#") {
		return nil, false
	}
	return &element{page: e.page, sel: parent}, true
}

func (e *element) Closest(selector string) (Node, bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	sel := e.sel.Closest(selector)
	if sel.Length() == 0 {
		return nil, false
	}
	return &element{page: e.page, sel: sel}, true
}

func (e *element) Query(selector string) (Node, bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	sel := e.sel.Find(selector)
	if sel.Length() == 0 {
		return nil, false
	}
	return &element{page: e.page, sel: sel.First()}, true
}

func (e *element) QueryAll(selector string) []Node {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.page.wrapAll(e.sel.Find(selector))
}

func (e *element) Matches(selector string) bool {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.sel.Is(selector)
}

var widthRe = regexp.MustCompile(`width:\s*(\d+)px`)

func (e *element) Width() int {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if style, ok := e.sel.Attr("style"); ok {
		if m := widthRe.FindStringSubmatch(style); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	if v, ok := e.sel.Attr("data-width"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func (e *element) AppendHTML(html string) {
	e.page.mu.Lock()
	e.sel.AppendHtml(html)
	e.page.muts = append(e.page.muts, Mutation{Op: OpAppend, Target: describe(e.sel)})
	e.page.mu.Unlock()
	e.page.notify()
}

func (e *element) Remove() {
	e.page.mu.Lock()
	target := describe(e.sel)
	e.sel.Remove()
	e.page.muts = append(e.page.muts, Mutation{Op: OpRemove, Target: target})
	e.page.mu.Unlock()
	e.page.notify()
}

func describe(sel *goquery.Selection) string {
	name := goquery.NodeName(sel)
	if label, ok := sel.Attr("aria-label"); ok {
		return name + `[aria-label=` + label + `]`
	}
	if id, ok := sel.Attr("id"); ok {
		return name + "#" + id
	}
	if class, ok := sel.Attr("class"); ok {
		if fields := strings.Fields(class); len(fields) > 0 {
			return name + "." + fields[0]
		}
	}
	return name
}

func flip(v string) string {
	if v == "true" {
		return "false"
	}
	return "true"
}
