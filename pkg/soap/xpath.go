package soap

import (
	"strings"

	"github.com/beevik/etree"
)

// ExtractXPath extracts the text value at the given path relative to the
// message body payload. Returns an empty string if the path is not found.
//
// Supported path syntax:
//   - element/child - path relative to the payload element
//   - //element - find anywhere below the payload
//   - element/@attr - attribute value
//   - element[1] - indexed access (1-based)
func (m *Message) ExtractXPath(xpath string) string {
	return ExtractXPathFromElement(m.Body, xpath)
}

// ExtractXPathFromElement extracts value at XPath relative to an element.
func ExtractXPathFromElement(elem *etree.Element, xpath string) string {
	if elem == nil || xpath == "" {
		return ""
	}

	// Handle relative paths
	xpath = strings.TrimPrefix(xpath, "./")
	if strings.HasPrefix(xpath, "//") {
		xpath = "." + xpath
	}

	// Try attribute
	if idx := strings.LastIndex(xpath, "/@"); idx >= 0 || strings.HasPrefix(xpath, "@") {
		elemPath, attrName := "", strings.TrimPrefix(xpath, "@")
		if idx >= 0 {
			elemPath, attrName = xpath[:idx], xpath[idx+2:]
		}
		target := elem
		if elemPath != "" && elemPath != "." {
			target = findElement(elem, elemPath)
		}
		if target == nil {
			return ""
		}
		if attr := target.SelectAttr(attrName); attr != nil {
			return attr.Value
		}
		return ""
	}

	if child := findElement(elem, xpath); child != nil {
		return strings.TrimSpace(child.Text())
	}
	return ""
}

// findElement resolves path without panicking on malformed expressions.
func findElement(elem *etree.Element, path string) *etree.Element {
	compiled, err := etree.CompilePath(path)
	if err != nil {
		return nil
	}
	return elem.FindElementPath(compiled)
}

// DetachElement returns a deep copy of el that can be placed in another
// document. Namespace prefixes used inside el but declared on its ancestors
// are redeclared on the copy.
func DetachElement(el *etree.Element) *etree.Element {
	cp := el.Copy()
	parent := el.Parent()
	if parent == nil {
		return cp
	}

	used := make(map[string]struct{})
	collectPrefixes(el, used)
	for prefix := range used {
		key := "xmlns"
		if prefix != "" {
			key = "xmlns:" + prefix
		}
		if cp.SelectAttr(key) != nil {
			continue
		}
		if uri, ok := lookupNamespace(parent, key); ok {
			cp.CreateAttr(key, uri)
		}
	}
	return cp
}

func collectPrefixes(el *etree.Element, used map[string]struct{}) {
	used[el.Space] = struct{}{}
	for _, attr := range el.Attr {
		if attr.Space != "" && attr.Space != "xmlns" && attr.Space != "xml" {
			used[attr.Space] = struct{}{}
		}
	}
	for _, child := range el.ChildElements() {
		collectPrefixes(child, used)
	}
}

func lookupNamespace(el *etree.Element, key string) (string, bool) {
	for cur := el; cur != nil; cur = cur.Parent() {
		if attr := cur.SelectAttr(key); attr != nil {
			return attr.Value, true
		}
	}
	return "", false
}
