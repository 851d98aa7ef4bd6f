package notes

import (
	"fmt"
	"strings"

	"github.com/clintrovert/relnotes/pkg/types"
)

const (
	classifySystemPrompt = "You are an expert release engineer that classifies git commits using the conventional-commit taxonomy."
	enrichSystemPrompt   = "You are an expert release-note writer. Keep outputs concise and user-facing."
	draftSystemPrompt    = "You are an expert release-note editor that assembles release notes and critically assesses their completeness."
	refineSystemPrompt   = "You are an expert release-note editor. Return only the improved Markdown document."
)

var typeDefinitions = []struct {
	typ        types.CommitType
	definition string
}{
	{types.CommitFeat, "a new feature or user-visible capability"},
	{types.CommitFix, "a bug fix"},
	{types.CommitPerf, "a performance improvement"},
	{types.CommitChore, "maintenance: dependencies, build, tooling, release chores"},
	{types.CommitDocs, "documentation only"},
	{types.CommitRefactor, "restructuring code without changing behavior"},
	{types.CommitTest, "adding or fixing tests"},
}

func buildClassifyPrompt(commits []types.RawCommit) string {
	var sb strings.Builder

	sb.WriteString("Classify every commit below into exactly one type:\n")
	for _, d := range typeDefinitions {
		fmt.Fprintf(&sb, "- %s: %s\n", d.typ, d.definition)
	}
	sb.WriteString("\nFor each commit return its sha unchanged, its type, its message without any ")
	sb.WriteString("conventional-commit prefix such as \"feat(api):\", and breaking=true only when the ")
	sb.WriteString("commit explicitly declares a breaking change (a \"!\" after the type or a ")
	sb.WriteString("\"BREAKING CHANGE:\" footer).\n")
	sb.WriteString("Return the commits in the same order as the input.\n\n")

	sb.WriteString("Commits:\n")
	for _, c := range commits {
		fmt.Fprintf(&sb, "- sha: %s\n", c.SHA)
		sb.WriteString("  message: ")
		sb.WriteString(strings.ReplaceAll(strings.TrimSpace(c.RawMessage), "\n", "\n  "))
		sb.WriteString("\n")
		if c.PullRequest != nil {
			fmt.Fprintf(&sb, "  pull request #%d: %s\n", c.PullRequest.Number, c.PullRequest.Title)
		}
		for _, issue := range c.Issues {
			fmt.Fprintf(&sb, "  issue %s: %s\n", issue.Key, issue.Summary)
		}
	}

	return sb.String()
}

func buildFeaturesPrompt(features []types.ClassifiedCommit, instructions string) string {
	var sb strings.Builder

	sb.WriteString("Rewrite each feature commit below for a release-notes reader.\n")
	writeEnrichRules(&sb, instructions)
	sb.WriteString("Features:\n")
	writeClassified(&sb, features)

	return sb.String()
}

func buildChangesPrompt(in ChangesInput) string {
	var sb strings.Builder

	sb.WriteString("Rewrite each commit below for a release-notes reader. Keep every commit in the list it was given in.\n")
	writeEnrichRules(&sb, in.Instructions)
	sb.WriteString("Fixes:\n")
	writeClassified(&sb, in.Fixes)
	sb.WriteString("\nPerformance:\n")
	writeClassified(&sb, in.Performance)
	sb.WriteString("\nMaintenance:\n")
	writeClassified(&sb, in.Maintenance)

	return sb.String()
}

func writeEnrichRules(sb *strings.Builder, instructions string) {
	sb.WriteString("For each commit return its sha unchanged, a title of 3 to 6 words in title case ")
	sb.WriteString("without any type prefix, and a description of 1 to 2 sentences framed around ")
	sb.WriteString("the impact on users.\n")
	if instructions != "" {
		sb.WriteString("Additional instructions: " + instructions + "\n")
	}
	sb.WriteString("\n")
}

func writeClassified(sb *strings.Builder, commits []types.ClassifiedCommit) {
	if len(commits) == 0 {
		sb.WriteString("(none)\n")
		return
	}
	for _, c := range commits {
		breaking := ""
		if c.Breaking {
			breaking = " [BREAKING]"
		}
		fmt.Fprintf(sb, "- sha: %s%s\n  message: %s\n", c.SHA, breaking, c.Message)
	}
}

func buildDraftPrompt(in DraftInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write release notes for version %s.\n\n", in.Version)
	sb.WriteString("Use exactly this heading structure, in this order, and no other ### headings:\n\n")
	sb.WriteString(Skeleton(in))
	sb.WriteString("\nUnder each section write one bullet per entry: \"- **Title**: description\". ")
	sb.WriteString("Append \"(#N)\" when a pull request number is given and prefix breaking entries with \"**BREAKING**\".\n")
	if in.Instructions != "" {
		sb.WriteString("Additional instructions: " + in.Instructions + "\n")
	}
	sb.WriteString("\nThen assess the document. Set isComplete=true with no suggestions when it is ")
	sb.WriteString("clear, accurate and covers every entry; otherwise set isComplete=false and list ")
	sb.WriteString("specific suggestions. Return the version exactly as given.\n\n")

	writeEnrichedSection(&sb, SectionFeatures, in.Features)
	writeEnrichedSection(&sb, SectionFixes, in.Fixes)
	writeEnrichedSection(&sb, SectionPerformance, in.Performance)
	writeEnrichedSection(&sb, SectionMaintenance, in.Maintenance)

	if in.Request != "" {
		sb.WriteString("\nOriginal request for context:\n")
		sb.WriteString(in.Request + "\n")
	}

	return sb.String()
}

func buildRefinePrompt(in DraftInput, draft types.Draft) string {
	var sb strings.Builder

	sb.WriteString("Improve the release notes below by addressing every suggestion. ")
	sb.WriteString("Keep the first heading line unchanged and keep the same ### sections in the same order.\n\n")
	sb.WriteString("Suggestions:\n")
	for i, s := range draft.Suggestions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}
	sb.WriteString("\nCurrent draft:\n")
	sb.WriteString(draft.Markdown + "\n\n")
	sb.WriteString("Source entries:\n")
	writeEnrichedSection(&sb, SectionFeatures, in.Features)
	writeEnrichedSection(&sb, SectionFixes, in.Fixes)
	writeEnrichedSection(&sb, SectionPerformance, in.Performance)
	writeEnrichedSection(&sb, SectionMaintenance, in.Maintenance)
	if in.Instructions != "" {
		sb.WriteString("\nAdditional instructions: " + in.Instructions + "\n")
	}

	return sb.String()
}

func writeEnrichedSection(sb *strings.Builder, title string, entries []types.EnrichedCommit) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	for _, e := range entries {
		sb.WriteString("- " + e.Title + ": " + e.Description)
		if e.PullRequest > 0 {
			fmt.Fprintf(sb, " (#%d)", e.PullRequest)
		}
		if e.Breaking {
			sb.WriteString(" [BREAKING]")
		}
		sb.WriteString("\n")
	}
}
