// Package taxonomy parses and builds two-level category paths like
// "Food > Groceries".
package taxonomy

import (
	"sort"
	"strings"
)

// Separator joins a parent category and its subcategory.
const Separator = " > "

// Parse splits a category path at the first separator, trimming both
// segments. Empty or blank input returns two empty strings.
func Parse(path string) (parent, sub string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ""
	}
	idx := strings.Index(path, Separator)
	if idx < 0 {
		return path, ""
	}
	return strings.TrimSpace(path[:idx]), strings.TrimSpace(path[idx+len(Separator):])
}

// Build joins parent and subcategory back into a path. Build(p, "") is p,
// so Build is the left inverse of Parse for well-formed segments.
func Build(parent, sub string) string {
	parent = strings.TrimSpace(parent)
	sub = strings.TrimSpace(sub)
	if parent == "" {
		return ""
	}
	if sub == "" {
		return parent
	}
	return parent + Separator + sub
}

// IsValid reports whether path has one or two non-empty segments.
func IsValid(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	parts := strings.Split(path, Separator)
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return false
		}
	}
	return true
}

// Node is one parent category with its subcategories.
type Node struct {
	Name     string
	FullPath string
	Children []Node
}

// BuildTree groups paths into a two-level tree. Parents and children are
// sorted lexicographically; duplicate subcategories collapse to one node.
func BuildTree(paths []string) []Node {
	subsByParent := make(map[string]map[string]bool)
	for _, p := range paths {
		parent, sub := Parse(p)
		if parent == "" {
			continue
		}
		if subsByParent[parent] == nil {
			subsByParent[parent] = make(map[string]bool)
		}
		if sub != "" {
			subsByParent[parent][sub] = true
		}
	}

	parents := make([]string, 0, len(subsByParent))
	for p := range subsByParent {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	out := make([]Node, 0, len(parents))
	for _, p := range parents {
		subs := make([]string, 0, len(subsByParent[p]))
		for s := range subsByParent[p] {
			subs = append(subs, s)
		}
		sort.Strings(subs)
		children := make([]Node, 0, len(subs))
		for _, s := range subs {
			children = append(children, Node{Name: s, FullPath: Build(p, s)})
		}
		out = append(out, Node{Name: p, FullPath: p, Children: children})
	}
	return out
}

// MatchesFilter reports whether txCategory matches the filter path. An
// exact match always counts; a parent-only filter with includeChildren
// also matches every path under that parent.
func MatchesFilter(txCategory, filter string, includeChildren bool) bool {
	txCategory = strings.TrimSpace(txCategory)
	filter = strings.TrimSpace(filter)
	if txCategory == "" || filter == "" {
		return false
	}
	if txCategory == filter {
		return true
	}
	if !includeChildren {
		return false
	}
	if _, sub := Parse(filter); sub != "" {
		return false
	}
	parent, _ := Parse(txCategory)
	return parent == filter
}
