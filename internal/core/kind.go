package core

import "strings"

// ResourceKind classifies a file or archive entry by its extension.
type ResourceKind int

const (
	KindOther ResourceKind = iota
	KindJS
	KindCSS
)

// Archive path prefixes for each resource kind.
const (
	PrefixJS  = "js/"
	PrefixCSS = "css/"
)

// KindOf classifies name by suffix. Matching is case-sensitive: "a.JS" is
// not a script.
func KindOf(name string) ResourceKind {
	switch {
	case strings.HasSuffix(name, ".js"):
		return KindJS
	case strings.HasSuffix(name, ".css"):
		return KindCSS
	default:
		return KindOther
	}
}

// Prefix returns the archive directory for the kind, or "" for KindOther.
func (k ResourceKind) Prefix() string {
	switch k {
	case KindJS:
		return PrefixJS
	case KindCSS:
		return PrefixCSS
	default:
		return ""
	}
}

func (k ResourceKind) String() string {
	switch k {
	case KindJS:
		return "JS"
	case KindCSS:
		return "CSS"
	default:
		return "other"
	}
}
