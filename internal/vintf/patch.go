// Package vintf grants a HAL a vendor interface by splicing its declaration
// into the device manifest and compatibility matrix.
//
// The edit is textual: the files are not parsed as XML. The entry is placed
// immediately before the root end tag, and a file that already mentions the
// HAL name ahead of that tag is left alone. A file without the root end tag
// is left alone as well.
package vintf

import (
	"fmt"
	"strings"
)

// Stems of the patched files. The root element is the stem with "_" as "-".
const (
	ManifestStem            = "manifest"
	CompatibilityMatrixStem = "compatibility_matrix"
)

// File is one vendor interface file and the form of entry it takes.
type File struct {
	Stem string
	// Full entries carry transport and fqname; the manifest needs them, the
	// compatibility matrix does not accept them.
	Full bool
}

// Files lists the patched files in patch order.
var Files = []File{
	{Stem: ManifestStem, Full: true},
	{Stem: CompatibilityMatrixStem, Full: false},
}

// Entry is the HAL declaration.
type Entry struct {
	HALName   string
	Version   string
	Interface string
	Instances []string
}

// Render returns the entry markup, indented for a root-level child.
func (e Entry) Render(full bool) string {
	var b strings.Builder
	b.WriteString("    <hal format=\"hidl\">\n")
	fmt.Fprintf(&b, "        <name>%s</name>\n", e.HALName)
	if full {
		b.WriteString("        <transport>hwbinder</transport>\n")
	}
	fmt.Fprintf(&b, "        <version>%s</version>\n", e.Version)
	b.WriteString("        <interface>\n")
	fmt.Fprintf(&b, "            <name>%s</name>\n", e.Interface)
	for _, instance := range e.Instances {
		fmt.Fprintf(&b, "            <instance>%s</instance>\n", instance)
	}
	b.WriteString("        </interface>\n")
	if full {
		fmt.Fprintf(&b, "        <fqname>@%s::%s/default</fqname>\n", e.Version, e.Interface)
	}
	b.WriteString("    </hal>\n")
	return b.String()
}

// EndTag returns the root end tag for stem.
func EndTag(stem string) string {
	return "</" + strings.ReplaceAll(stem, "_", "-") + ">"
}

// PatchContent returns content with the entry spliced in before the root end
// tag, and whether anything changed. The first end tag wins. Content without
// the end tag is returned unchanged; see HasEndTag.
func PatchContent(content string, file File, entry Entry) (string, bool) {
	idx := strings.Index(content, EndTag(file.Stem))
	if idx < 0 || strings.Contains(content[:idx], entry.HALName) {
		return content, false
	}
	return content[:idx] + entry.Render(file.Full) + content[idx:], true
}

// HasEndTag reports whether content carries the root end tag of file.
func HasEndTag(content string, file File) bool {
	return strings.Contains(content, EndTag(file.Stem))
}
