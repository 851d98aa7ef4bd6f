package notes

import (
	"fmt"
	"strings"
)

// Section headings of the release-note template, in document order.
const (
	SectionFeatures    = "Features"
	SectionFixes       = "Bug Fixes"
	SectionPerformance = "Performance"
	SectionMaintenance = "Maintenance"
)

// Heading returns the release heading line for version and date.
func Heading(version, date string) string {
	return fmt.Sprintf("## %s — %s", version, date)
}

// sections returns the template headings that must appear for in, in order.
func (in DraftInput) sections() []string {
	var out []string
	if len(in.Features) > 0 {
		out = append(out, SectionFeatures)
	}
	if len(in.Fixes) > 0 {
		out = append(out, SectionFixes)
	}
	if len(in.Performance) > 0 {
		out = append(out, SectionPerformance)
	}
	if len(in.Maintenance) > 0 {
		out = append(out, SectionMaintenance)
	}
	return out
}

// Skeleton renders the headings a document for in must contain.
func Skeleton(in DraftInput) string {
	var sb strings.Builder
	sb.WriteString(Heading(in.Version, in.Date) + "\n")
	for _, s := range in.sections() {
		sb.WriteString("\n### " + s + "\n")
	}
	return sb.String()
}

// CheckMarkdown verifies the document follows the release-note template: the
// release heading comes first and each section heading appears exactly when its
// bucket is non-empty, in template order.
func CheckMarkdown(stage, md, version string, in DraftInput) error {
	lines := strings.Split(md, "\n")

	first := ""
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = strings.TrimSpace(line)
			break
		}
	}
	if want := Heading(version, in.Date); first != want {
		return contractErr(stage, ReasonHeading, "first line is %q, want %q", first, want)
	}

	known := map[string]bool{
		SectionFeatures:    true,
		SectionFixes:       true,
		SectionPerformance: true,
		SectionMaintenance: true,
	}

	var found []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "### ") {
			continue
		}
		title := strings.TrimSpace(strings.TrimPrefix(line, "### "))
		if !known[title] {
			return contractErr(stage, ReasonUnexpectedSection, "section %q is not part of the template", title)
		}
		found = append(found, title)
	}

	want := in.sections()
	for i, title := range found {
		if i >= len(want) || want[i] != title {
			if contains(want, title) {
				return contractErr(stage, ReasonUnexpectedSection, "section %q is repeated or out of order", title)
			}
			return contractErr(stage, ReasonUnexpectedSection, "section %q has no entries", title)
		}
	}
	if len(found) < len(want) {
		return contractErr(stage, ReasonMissingSection, "section %q is missing", want[len(found)])
	}

	return nil
}

// stripFences removes a Markdown code fence wrapped around the whole response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
