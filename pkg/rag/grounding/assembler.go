// Package grounding turns retrieved passages into a context block the
// language model can quote from, plus the citations to surface alongside
// the answer.
package grounding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ehcaw/documix/internal/entity"
)

// Citation identifies one source passage that contributed to the context block.
type Citation struct {
	Source string  `json:"source"`
	Score  float32 `json:"score"`
}

const contextPreamble = "Use the following documents as context when answering. " +
	"When you rely on a document, cite its source locator. " +
	"If the documents do not cover the question, say so instead of guessing."

// Assemble builds the grounding block from passages ranked by score.
// At most k passages are included. An empty or nil passage list yields
// an empty block and no citations.
func Assemble(passages []*entity.Passage, k int) (string, []Citation) {
	if len(passages) == 0 || k <= 0 {
		return "", nil
	}

	ranked := make([]*entity.Passage, len(passages))
	copy(ranked, passages)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	var sb strings.Builder
	sb.WriteString(contextPreamble)
	sb.WriteString("\n")

	citations := make([]Citation, 0, len(ranked))
	for _, p := range ranked {
		sb.WriteString(fmt.Sprintf("\n[Source: %s]\n%s\n", p.Source, p.Text))
		citations = append(citations, Citation{Source: p.Source, Score: p.Score})
	}

	return sb.String(), citations
}
