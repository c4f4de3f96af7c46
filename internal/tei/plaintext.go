// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tei

import (
	"strings"

	"github.com/beevik/etree"
)

// plainText flattens the document into paragraph-separated prose:
// block elements in document order, table content excluded, figures
// reduced to their figDesc caption. Falls back to all character data
// when no block elements exist. The walk starts at the text subtree so
// header material (the abstract in particular) is not repeated.
func plainText(root *etree.Element) string {
	if text := findFirst(root, "text"); text != nil {
		root = text
	}
	var chunks []string
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if insideTable(child) {
				continue
			}
			if child.Tag == "figure" {
				if t := fullText(findFirst(child, "figDesc")); t != "" {
					chunks = append(chunks, t)
				}
				continue
			}
			if blockTags[child.Tag] {
				if t := fullText(child); t != "" {
					chunks = append(chunks, t)
				}
				continue
			}
			walk(child)
		}
	}
	walk(root)

	if len(chunks) == 0 {
		return fullText(root)
	}
	return strings.Join(chunks, "\n\n")
}
