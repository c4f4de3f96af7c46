// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tei

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

// extractReferences collects the bibliography from the back matter:
// structured biblStruct entries under a listBibl or references div,
// falling back to loose bibl elements when no structured entries exist.
// Entries with no identifying fields are dropped, duplicates collapse
// to the first occurrence, and the survivors are re-indexed from 1.
func extractReferences(root *etree.Element) []types.Reference {
	back := findFirstPath(root, "text", "back")
	if back == nil {
		return nil
	}

	var refs []types.Reference
	for _, bs := range findAll(back, "biblStruct") {
		if !inBibliography(bs) {
			continue
		}
		refs = append(refs, parseBiblStruct(bs))
	}
	if len(refs) == 0 {
		for _, b := range findAll(back, "bibl") {
			if hasAncestor(b, func(p *etree.Element) bool { return p.Tag == "biblStruct" }) {
				continue
			}
			refs = append(refs, parseBibl(b))
		}
	}

	var out []types.Reference
	seen := make(map[string]bool)
	for _, r := range refs {
		if r.Empty() {
			continue
		}
		key := dedupeKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		r.Index = len(out) + 1
		out = append(out, r)
	}
	return out
}

// inBibliography keeps biblStruct entries that belong to the reference
// list rather than stray structured citations elsewhere in back matter.
func inBibliography(bs *etree.Element) bool {
	return hasAncestor(bs, func(p *etree.Element) bool {
		if p.Tag == "listBibl" {
			return true
		}
		return p.Tag == "div" && strings.EqualFold(p.SelectAttrValue("type", ""), "references")
	})
}

func dedupeKey(r types.Reference) string {
	first := ""
	if len(r.URLs) > 0 {
		first = r.URLs[0]
	}
	return strings.Join([]string{
		strings.ToLower(r.AnalyticTitle),
		strings.ToLower(r.MonogrTitle),
		r.DOI,
		first,
		r.Year,
	}, "::")
}

func parseBiblStruct(bs *etree.Element) types.Reference {
	ref := types.Reference{Idnos: map[string]string{}}

	if analytic := firstChild(bs, "analytic"); analytic != nil {
		ref.AnalyticTitle = fullText(firstChild(analytic, "title"))
		ref.Authors = append(ref.Authors, personNames(analytic)...)
	}
	if monogr := firstChild(bs, "monogr"); monogr != nil {
		for _, title := range childElements(monogr, "title") {
			t := fullText(title)
			if t == "" {
				continue
			}
			switch title.SelectAttrValue("level", "") {
			case "j", "m":
				if ref.Venue == "" {
					ref.Venue = t
				}
				if ref.MonogrTitle == "" {
					ref.MonogrTitle = t
				}
			default:
				if ref.MonogrTitle == "" {
					ref.MonogrTitle = t
				}
			}
		}
		ref.Authors = append(ref.Authors, personNames(monogr)...)
		if imprint := firstChild(monogr, "imprint"); imprint != nil {
			ref.Year = imprintYear(imprint)
			collectImprint(imprint, ref.Idnos)
		}
	}

	for _, idno := range findAll(bs, "idno") {
		typ := strings.ToLower(idno.SelectAttrValue("type", ""))
		val := fullText(idno)
		if val == "" {
			continue
		}
		if typ == "doi" {
			if ref.DOI == "" {
				ref.DOI = NormalizeDOI(val)
			}
			continue
		}
		if typ != "" {
			if _, ok := ref.Idnos[typ]; !ok {
				ref.Idnos[typ] = val
			}
		}
	}

	ref.URLs = collectURLs(bs)
	if ref.DOI == "" {
		ref.DOI = NormalizeDOI(firstDOI(fullText(bs)))
	}
	return ref
}

// collectImprint records the imprint's publisher, publication place,
// date, and biblScope units as auxiliary idno entries.
func collectImprint(imprint *etree.Element, idnos map[string]string) {
	if v := fullText(firstChild(imprint, "publisher")); v != "" {
		idnos["publisher"] = v
	}
	if v := fullText(firstChild(imprint, "pubPlace")); v != "" {
		idnos["pubplace"] = v
	}
	if d := firstChild(imprint, "date"); d != nil {
		v := fullText(d)
		if v == "" {
			v = strings.TrimSpace(d.SelectAttrValue("when", ""))
		}
		if v != "" {
			idnos["date"] = v
		}
	}
	for _, scope := range childElements(imprint, "biblScope") {
		unit := strings.ToLower(strings.TrimSpace(scope.SelectAttrValue("unit", "")))
		if unit == "" {
			continue
		}
		val := scope.SelectAttrValue("from", "")
		if val == "" {
			val = fullText(scope)
		}
		if val != "" {
			idnos["biblscope_"+unit] = val
		}
	}
}

// parseBibl handles the loose, unstructured bibliography form: the
// whole entry text becomes the title, with DOI and year recovered by
// pattern where possible.
func parseBibl(b *etree.Element) types.Reference {
	ref := types.Reference{Idnos: map[string]string{}}

	if title := firstChild(b, "title"); title != nil {
		ref.AnalyticTitle = fullText(title)
	}
	if ref.AnalyticTitle == "" {
		ref.AnalyticTitle = fullText(b)
	}
	ref.Authors = personNames(b)
	if date := firstChild(b, "date"); date != nil {
		ref.Year = parseYear(date.SelectAttrValue("when", ""), fullText(date))
	}
	ref.URLs = collectURLs(b)
	ref.DOI = NormalizeDOI(firstDOI(fullText(b)))
	if raw := fullText(b); raw != "" {
		ref.Idnos["raw_reference"] = raw
	}
	return ref
}

// personNames assembles "Forename Surname" strings from direct author
// elements, preferring structured persName parts over raw text.
func personNames(scope *etree.Element) []string {
	var out []string
	for _, author := range childElements(scope, "author") {
		name := ""
		if pers := findFirst(author, "persName"); pers != nil {
			var parts []string
			for _, fn := range childElements(pers, "forename") {
				if t := fullText(fn); t != "" {
					parts = append(parts, t)
				}
			}
			if sn := fullText(firstChild(pers, "surname")); sn != "" {
				parts = append(parts, sn)
			}
			name = strings.Join(parts, " ")
		}
		if name == "" {
			name = fullText(author)
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func collectURLs(scope *etree.Element) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		u := strings.TrimSpace(raw)
		if u == "" || seen[u] {
			return
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	for _, ptr := range findAll(scope, "ptr") {
		add(ptr.SelectAttrValue("target", ""))
	}
	for _, ref := range findAll(scope, "ref") {
		add(ref.SelectAttrValue("target", ""))
	}
	return out
}

func imprintYear(imprint *etree.Element) string {
	for _, date := range childElements(imprint, "date") {
		if y := parseYear(date.SelectAttrValue("when", ""), fullText(date)); y != "" {
			return y
		}
	}
	return ""
}

// parseYear pulls a four-digit year from the when attribute, falling
// back to the first plausible four-digit run in the text. The result is
// the digit run itself, empty when nothing qualifies.
func parseYear(when, text string) string {
	if len(when) >= 4 {
		if y, err := strconv.Atoi(when[:4]); err == nil && y > 0 {
			return when[:4]
		}
	}
	for i := 0; i+4 <= len(text); i++ {
		run := text[i : i+4]
		if run[0] < '1' || run[0] > '2' {
			continue
		}
		if y, err := strconv.Atoi(run); err == nil {
			if (i == 0 || !isDigit(text[i-1])) && (i+4 == len(text) || !isDigit(text[i+4])) {
				if y >= 1500 && y <= 2100 {
					return run
				}
			}
		}
	}
	return ""
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
