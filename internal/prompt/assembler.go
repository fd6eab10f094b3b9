package prompt

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/models"
)

// Assembler composes bounded prompts for a fixed database dialect.
type Assembler struct {
	dialect  string
	maxChars int
}

// NewAssembler creates an Assembler. maxChars bounds the completion projection
// of every assembled prompt; the live question and the system instruction are
// never dropped to satisfy it.
func NewAssembler(dialect string, maxChars int) *Assembler {
	return &Assembler{dialect: dialect, maxChars: maxChars}
}

// Assemble builds the canonical prompt: system instruction carrying the schema
// facts and documentation, QA exemplars as user/assistant turns, then the live
// question. Retrieved slices must be sorted descending by similarity; when the
// budget is exceeded the lowest-scoring artifacts are dropped first.
func (a *Assembler) Assemble(
	question string, qaSamples, schemaFacts, docFacts []models.ScoredArtifact,
) Prompt {
	qa := append([]models.ScoredArtifact(nil), qaSamples...)
	schema := append([]models.ScoredArtifact(nil), schemaFacts...)
	docs := append([]models.ScoredArtifact(nil), docFacts...)

	for {
		p := a.build(question, qa, schema, docs)
		if p.Size() <= a.maxChars {
			return p
		}

		if !dropLowest(&qa, &schema, &docs) {
			// Only the system instruction and the question remain.
			return p
		}
	}
}

// dropLowest removes the globally lowest-scoring artifact, looking only at the
// tail of each kind (the slices are sorted descending). Score ties drop
// documentation before schema before exemplars. Returns false when all three
// kinds are empty.
func dropLowest(qa, schema, docs *[]models.ScoredArtifact) bool {
	var victim *[]models.ScoredArtifact

	lowest := 0.0
	for _, candidate := range []*[]models.ScoredArtifact{docs, schema, qa} {
		if len(*candidate) == 0 {
			continue
		}

		tail := (*candidate)[len(*candidate)-1].Score
		if victim == nil || tail < lowest {
			victim = candidate
			lowest = tail
		}
	}

	if victim == nil {
		return false
	}

	*victim = (*victim)[:len(*victim)-1]

	return true
}

func (a *Assembler) build(
	question string, qa, schema, docs []models.ScoredArtifact,
) Prompt {
	messages := []Message{{Role: RoleSystem, Content: a.systemContent(schema, docs)}}

	for _, sample := range qa {
		messages = append(messages,
			Message{Role: RoleUser, Content: sample.Artifact.Question},
			Message{Role: RoleAssistant, Content: sample.Artifact.SQL},
		)
	}

	messages = append(messages, Message{Role: RoleUser, Content: question})

	return Prompt{messages: messages}
}

func (a *Assembler) systemContent(schema, docs []models.ScoredArtifact) string {
	var b strings.Builder

	fmt.Fprintf(&b,
		"You are a %s expert. Generate a single SQL query that answers the user's question, "+
			"based only on the context provided below. Respond with the SQL statement alone, "+
			"inside a ```sql code block, without explanations.", a.dialect)

	if len(schema) > 0 {
		b.WriteString("\n\n===Tables\n")
		for _, fact := range schema {
			b.WriteString("\n")
			b.WriteString(fact.Artifact.DDL)
			b.WriteString("\n")
		}
	}

	if len(docs) > 0 {
		b.WriteString("\n\n===Additional Context\n")
		for _, fact := range docs {
			b.WriteString("\n")
			b.WriteString(fact.Artifact.Documentation)
			b.WriteString("\n")
		}
	}

	return b.String()
}
