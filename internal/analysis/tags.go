package analysis

import (
	"sort"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
)

// Tag names used by the inference engine. Class instances are tagged with
// the class's qualified name.
const (
	TagAny    = builtins.TagAny
	TagNumber = builtins.TagNumber
	TagString = builtins.TagString
)

// TagSet is a sorted set of type tags. An empty set means nothing is known
// yet; {#any} means the value is unknown and no narrowing is possible.
type TagSet []string

// Tags builds a set from tags.
func Tags(tags ...string) TagSet {
	var s TagSet
	for _, t := range tags {
		s = s.Add(t)
	}

	return s
}

// Has reports whether t is in s, ignoring case.
func (s TagSet) Has(t string) bool {
	for _, x := range s {
		if strings.EqualFold(x, t) {
			return true
		}
	}

	return false
}

// IsAny reports whether s carries the unknown tag.
func (s TagSet) IsAny() bool {
	return s.Has(TagAny)
}

// Add returns s with t added. #any absorbs every other tag.
func (s TagSet) Add(t string) TagSet {
	t = strings.TrimSpace(t)

	switch {
	case t == "":
		return s
	case s.IsAny():
		return s
	case t == TagAny:
		return TagSet{TagAny}
	case s.Has(t):
		return s
	}

	out := append(append(TagSet{}, s...), t)
	sort.Strings(out)

	return out
}

// Union returns the tags of both sets.
func (s TagSet) Union(o TagSet) TagSet {
	for _, t := range o {
		s = s.Add(t)
	}

	return s
}

func (s TagSet) String() string {
	return strings.Join(s, " | ")
}

// normalizeTag maps annotation spellings onto engine tags, e.g. "String"
// to #string. Class names pass through.
func normalizeTag(t string) string {
	t = strings.TrimSpace(t)

	switch strings.ToLower(t) {
	case "":
		return ""
	case "string", "str", "#string":
		return TagString
	case "number", "integer", "int", "float", "#number":
		return TagNumber
	case "any", "#any", "*":
		return TagAny
	}

	return t
}

// parseAnnotation splits a type annotation such as "String|Array" into tags.
func parseAnnotation(text string) TagSet {
	var s TagSet
	for _, part := range strings.Split(text, "|") {
		s = s.Add(normalizeTag(part))
	}

	return s
}

// comObjectTag renders the tag of a COM object created from progID.
func comObjectTag(progID string) string {
	if progID == "" {
		return "ComObject"
	}

	return "ComObject<" + progID + ">"
}

// tagClass strips a COM suffix so "ComObject<X>" looks up as ComObject.
func tagClass(tag string) string {
	if i := strings.IndexByte(tag, '<'); i > 0 {
		return tag[:i]
	}

	return tag
}
