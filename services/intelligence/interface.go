package ai

import (
	"context"

	"frontdesk/models"
)

// Query is the context handed to the escalation resolver when the
// rule-based extractor for a field came back inconclusive.
type Query struct {
	Field      models.FieldName
	Transcript string
	// Today is the session-local reference date (YYYY-MM-DD) so
	// relative expressions resolve deterministically per session.
	Today      string
	Timezone   string
	LastPrompt string
	// Captured holds the values collected so far, for disambiguation.
	Captured   map[models.FieldName]string
	Candidates []string
}

// Resolver is the fallback interpreter for inconclusive extractions.
// It returns the resolved value in canonical text form ("" when even
// broad interpretation cannot decide). For the datetime field the
// canonical form is "YYYY-MM-DD HH:MM"; either half may be omitted.
// Implementations are expected to be slow and fallible; callers bound
// them with a context deadline and treat every failure as unknown.
type Resolver interface {
	ResolveField(ctx context.Context, q Query) (string, error)
}
