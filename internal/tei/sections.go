// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tei

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/beevik/etree"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

// blockTags are the element kinds whose text counts as section prose.
// Figures contribute their figDesc caption only.
var blockTags = map[string]bool{
	"head": true, "p": true, "ab": true, "quote": true, "cit": true,
	"list": true, "item": true, "label": true, "note": true, "formula": true,
}

// extractSections walks front, body, and back: each top-level div
// becomes a Section (nested divs recurse as subsections), and floating
// block content directly under a container is captured once as a
// synthetic FRONT/BODY/BACK section. The final list is deduplicated by
// (title, content hash), keeping first occurrence in document order.
func extractSections(root *etree.Element) []types.Section {
	text := findFirst(root, "text")
	if text == nil {
		return nil
	}

	var out []types.Section
	for _, container := range text.ChildElements() {
		var containerName string
		switch container.Tag {
		case "front":
			containerName = "FRONT"
		case "body":
			containerName = "BODY"
		case "back":
			containerName = "BACK"
		default:
			continue
		}

		for _, div := range childElements(container, "div") {
			walkDiv(&out, div, 1)
		}

		floating := floatingBlocks(container)
		if floating != "" && !claimed(out, containerName, 1) {
			out = append(out, types.Section{Title: containerName, Level: 1, Text: floating})
		}
	}

	return dedupeSections(out)
}

func claimed(sections []types.Section, title string, level int) bool {
	for _, s := range sections {
		if s.Title == title && s.Level == level {
			return true
		}
	}
	return false
}

// walkDiv appends the div as a Section and recurses into nested divs
// one level deeper. Title falls back from the head element to the div
// type attribute (uppercased) to "SECTION".
func walkDiv(out *[]types.Section, div *etree.Element, level int) {
	title := fullText(firstChild(div, "head"))
	if title == "" {
		if typ := div.SelectAttrValue("type", ""); typ != "" {
			title = strings.ToUpper(typ)
		}
	}
	if title == "" {
		title = "SECTION"
	}

	if text := divText(div); text != "" {
		if level < 1 {
			level = 1
		}
		*out = append(*out, types.Section{Title: title, Level: level, Text: text})
	}

	for _, child := range childElements(div, "div") {
		walkDiv(out, child, level+1)
	}
}

// divText assembles the div's own prose: block elements in document
// order, skipping nested divs, the heading, and anything inside a
// table. Falls back to the div's remaining raw text when no block
// elements are present.
func divText(div *etree.Element) string {
	head := firstChild(div, "head")

	var chunks []string
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Tag == "div" || child == head {
				continue
			}
			if child.Tag == "figure" {
				if t := fullText(findFirst(child, "figDesc")); t != "" && !insideTable(child) {
					chunks = append(chunks, t)
				}
				continue
			}
			if blockTags[child.Tag] && child.Tag != "head" && !insideTable(child) {
				if t := fullText(child); t != "" {
					chunks = append(chunks, t)
				}
			}
			walk(child)
		}
	}
	walk(div)

	if len(chunks) == 0 {
		return divRawText(div, head)
	}
	return strings.Join(chunks, "\n\n")
}

// divRawText is the fallback: all character data under the div except
// the heading and nested divs.
func divRawText(div, head *etree.Element) string {
	var b strings.Builder
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.Child {
			switch c := child.(type) {
			case *etree.CharData:
				b.WriteString(c.Data)
				b.WriteByte(' ')
			case *etree.Element:
				if c.Tag == "div" || c == head {
					continue
				}
				walk(c)
			}
		}
	}
	walk(div)
	return normalizeWS(b.String())
}

// floatingBlocks captures block content sitting directly under a
// container without a wrapping div.
func floatingBlocks(container *etree.Element) string {
	var chunks []string
	for _, child := range container.ChildElements() {
		if child.Tag == "div" {
			continue
		}
		if t := blockText(child); t != "" {
			chunks = append(chunks, t)
		}
	}
	return strings.Join(chunks, "\n\n")
}

func blockText(el *etree.Element) string {
	if insideTable(el) {
		return ""
	}
	if el.Tag == "figure" {
		return fullText(findFirst(el, "figDesc"))
	}
	if blockTags[el.Tag] {
		return fullText(el)
	}
	return ""
}

func dedupeSections(sections []types.Section) []types.Section {
	var out []types.Section
	seen := make(map[string]bool)
	for _, s := range sections {
		h := fnv.New64a()
		h.Write([]byte(s.Text))
		key := fmt.Sprintf("%s::%x", s.Title, h.Sum64())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
