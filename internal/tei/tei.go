// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tei maps TEI XML produced by the PDF conversion service into
// the normalized PaperDocument form. Mapping is pure: no I/O, and every
// selector degrades to empty values when the expected element is
// missing, because the converter's output schema shifts across versions.
package tei

import (
	"strings"

	"github.com/beevik/etree"
)

// fullText returns all character data in the element's subtree in
// document order, whitespace-normalized.
func fullText(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var b strings.Builder
	collectText(el, &b)
	return normalizeWS(b.String())
}

func collectText(el *etree.Element, b *strings.Builder) {
	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.CharData:
			b.WriteString(c.Data)
			b.WriteByte(' ')
		case *etree.Element:
			collectText(c, b)
		}
	}
}

// normalizeWS maps non-breaking spaces to spaces, collapses whitespace
// runs, and trims.
func normalizeWS(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// findAll returns every descendant element with the given tag, in
// document order.
func findAll(root *etree.Element, tag string) []*etree.Element {
	if root == nil {
		return nil
	}
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Tag == tag {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

// findFirst returns the first descendant element with the given tag.
func findFirst(root *etree.Element, tag string) *etree.Element {
	for _, el := range findAll(root, tag) {
		return el
	}
	return nil
}

// findFirstPath resolves a chain of descendant tags: each step searches
// anywhere below the previous match.
func findFirstPath(root *etree.Element, tags ...string) *etree.Element {
	el := root
	for _, tag := range tags {
		el = findFirst(el, tag)
		if el == nil {
			return nil
		}
	}
	return el
}

// childElements returns direct child elements with the given tag.
func childElements(el *etree.Element, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

// firstChild returns the first direct child element with the given tag.
func firstChild(el *etree.Element, tag string) *etree.Element {
	for _, child := range childElements(el, tag) {
		return child
	}
	return nil
}

// insideTable reports whether the element sits under a table, row, or
// cell ancestor. Table contents never become body prose.
func insideTable(el *etree.Element) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		switch p.Tag {
		case "table", "row", "cell":
			return true
		}
	}
	return false
}

// hasAncestor reports whether any ancestor satisfies the predicate.
func hasAncestor(el *etree.Element, pred func(*etree.Element) bool) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if pred(p) {
			return true
		}
	}
	return false
}
