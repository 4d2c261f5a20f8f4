package stages

// Prompt templates rendered with util.RenderTemplate. Models are asked for
// YAML because it tolerates multi-line prose fields far better than JSON.

const identifyAbstractionsTemplate = `For the project ` + "`{{.ProjectName}}`" + `:

Codebase context:
{{.FileContext}}

{{.LanguageInstruction}}Analyze the codebase context.
Identify the top 5-{{.MaxAbstractions}} core most important abstractions to help those new to the codebase.

For each abstraction, provide:
1. A concise name.
2. A beginner-friendly description explaining what it is with a simple analogy, in around 100 words.
3. A list of relevant file indices (integers) using the format "- N # path/to/file".

List of file indices and paths present in the context:
{{.FileListing}}

Format the output as a YAML list of dictionaries:

` + "```yaml" + `
- name: Query Processing
  description: |
    Explains what the abstraction does.
    It's like a central dispatcher routing requests.
  file_indices:
    - 0
    - 3
- name: Query Optimization
  description: |
    Another core concept, similar to a blueprint for objects.
  file_indices:
    - 5
` + "```" + ``

const analyzeRelationshipsTemplate = `Based on the following abstractions and relevant code snippets from the project ` + "`{{.ProjectName}}`" + `:

List of abstraction indices and names:
{{.AbstractionListing}}

Context (abstractions, descriptions, code):
{{.FileContext}}

{{.LanguageInstruction}}Please provide:
1. A high-level ` + "`summary`" + ` of the project's main purpose and functionality in a few beginner-friendly sentences. Use markdown formatting with **bold** and *italic* text to highlight important concepts.
2. A list (` + "`relationships`" + `) describing the key interactions between these abstractions. For each relationship, specify:
    - ` + "`from_abstraction`" + `: index of the source abstraction
    - ` + "`to_abstraction`" + `: index of the target abstraction
    - ` + "`label`" + `: a brief label for the interaction in just a few words

Simplify the relationships and exclude those that are not important. Every abstraction must be involved in at least one relationship.

Format the output as YAML:

` + "```yaml" + `
summary: |
  A brief, simple explanation of the project.
relationships:
  - from_abstraction: 0
    to_abstraction: 1
    label: "Manages"
  - from_abstraction: 2
    to_abstraction: 0
    label: "Provides config"
` + "```" + ``

const orderChaptersTemplate = `Given the following project abstractions and their relationships for the project ` + "`{{.ProjectName}}`" + `:

Abstractions (index # name):
{{.AbstractionListing}}

Context about relationships and project summary:
{{.RelationshipContext}}

If you are going to make a tutorial for ` + "`{{.ProjectName}}`" + `, what is the best order to explain these abstractions, from first to last?
Ideally, first explain those that are the most important or foundational, perhaps user-facing concepts or entry points. Then move to more detailed, lower-level implementation details or supporting concepts.

Output the ordered list of abstraction indices, including the name in a comment for clarity, as YAML:

` + "```yaml" + `
- 2 # FoundationalConcept
- 0 # CoreClassA
- 1 # CoreClassB
` + "```" + ``

const writeChapterTemplate = `{{.LanguageInstruction}}Write a very beginner-friendly tutorial chapter (in Markdown format) for the project ` + "`{{.ProjectName}}`" + ` about the concept: "{{.AbstractionName}}". This is Chapter {{.ChapterNumber}}.

Concept details:
- Name: {{.AbstractionName}}
- Description:
{{.AbstractionDescription}}

Complete tutorial structure (chapter number # concept name):
{{.ChapterListing}}

Context from previous chapters:
{{.PreviousContext}}

Relevant code snippets:
{{.FileContext}}

Instructions:
- Begin with a clear heading: "# Chapter {{.ChapterNumber}}: {{.AbstractionName}}".
- If this is not the first chapter, start with a short transition from the previous chapter.
- Explain what problem this abstraction solves, starting with a central, concrete use case.
- Break complex concepts into simple pieces, explaining each one in a beginner-friendly way with analogies.
- Keep code blocks short (under 10 lines each); simplify aggressively and explain every block right after it.
- Where the internal flow matters, describe it step by step; a simple mermaid sequenceDiagram is welcome.
- End with a brief conclusion and a transition to the next chapter if there is one.
- Output only the Markdown content for this chapter, without wrapping it in a code fence.`

// languageInstruction returns a prompt prefix asking for prose in the
// target language; empty for english since it is the model default.
func languageInstruction(language string) string {
	if language == "" || language == "english" {
		return ""
	}
	return "IMPORTANT: Write all generated prose (names kept technical, explanations, summaries) in " + language + ".\n\n"
}
