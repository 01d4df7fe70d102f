package dom

import "strings"

// Locating controls is a strategy chain, from most to least precise:
// exact accessible-name attribute, then label text matched
// case-insensitively with collapsed whitespace, then structural proximity
// (a bounded ancestor walk). A markup change in the target application
// degrades one strategy, not the whole engine.

// Normalize lowercases s and collapses runs of whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// FindByAria returns the first node with the exact aria-label. extra
// narrows further, e.g. `[role="switch"]`.
func FindByAria(doc Document, label, extra string) (Node, bool) {
	return doc.Query(`[aria-label="` + label + `"]` + extra)
}

// FindByLabelText scans nodes matching labelSelector for text containing
// label (normalized), returning the first hit.
func FindByLabelText(doc Document, labelSelector, label string) (Node, bool) {
	want := Normalize(label)
	for _, n := range doc.QueryAll(labelSelector) {
		if strings.Contains(Normalize(n.Text()), want) {
			return n, true
		}
	}
	return nil, false
}

// FindNearAncestor walks up from start at most maxHops ancestors, querying
// each for selector, and returns the first descendant found. This mirrors
// how a labelled control sits in some nearby container rather than in a
// predictable position.
func FindNearAncestor(start Node, selector string, maxHops int) (Node, bool) {
	cur := start
	for i := 0; i < maxHops; i++ {
		parent, ok := cur.Parent()
		if !ok {
			return nil, false
		}
		if n, ok := parent.Query(selector); ok {
			return n, true
		}
		cur = parent
	}
	return nil, false
}

// FindLabelled runs the full chain: aria-label exact match, else label
// text plus proximity walk from the label node.
func FindLabelled(doc Document, ariaLabel, labelSelector, labelText, controlSelector string, maxHops int) (Node, bool) {
	if ariaLabel != "" {
		if n, ok := FindByAria(doc, ariaLabel, ""); ok {
			return n, true
		}
	}
	labelNode, ok := FindByLabelText(doc, labelSelector, labelText)
	if !ok {
		return nil, false
	}
	return FindNearAncestor(labelNode, controlSelector, maxHops)
}
