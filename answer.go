package webrag

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// InsufficientInformation is the fixed answer given when the indexed
// content cannot support an answer.
const InsufficientInformation = "Based on the available information, I cannot provide a complete answer to that question."

// Citation points from an answer back to a chunk it drew from.
type Citation struct {
	SourceURL string  `json:"sourceUrl"`
	ChunkID   string  `json:"chunkId"`
	Title     string  `json:"title,omitempty"`
	Score     float32 `json:"score"`
}

// Answer is the response to a question. Grounded is false when the answer
// is the fixed insufficient-information reply.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
	Grounded  bool       `json:"grounded"`
}

// InsufficientAnswer returns the fixed answer with no citations.
func InsufficientAnswer() *Answer {
	return &Answer{Text: InsufficientInformation, Citations: []Citation{}}
}

// Prompt is a generation request split into the system instruction and the
// user turn.
type Prompt struct {
	System string
	User   string
}

// Generator produces text from a prompt.
type Generator interface {
	// Generate returns the model's reply. Failures are EGENERATION errors
	// with ReasonTimeout, ReasonRateLimited, ReasonRefused or
	// ReasonUnavailable.
	Generate(ctx context.Context, prompt *Prompt) (string, error)
}

// SystemInstruction is the grounding contract every generation call carries.
const SystemInstruction = `You answer questions about a website using ONLY the sources provided in the user message.
Rules:
- Use no knowledge beyond the provided sources. Do not guess.
- If the sources do not contain enough information to answer, reply with exactly: "` + InsufficientInformation + `"
- After every statement, cite the source it came from by writing its id in square brackets, e.g. [0123456789abcdef].
- Cite only ids that appear in the sources.`

// BuildPrompt builds the grounded prompt for query from the retrieved
// chunks. Each chunk is tagged with its id, URL and title.
func BuildPrompt(query string, chunks []*RetrievedChunk) *Prompt {
	var sb strings.Builder
	sb.WriteString("<sources>\n")
	for _, rc := range chunks {
		c := rc.Chunk
		title := c.Title
		if title == "" {
			title = c.SourceURL
		}
		fmt.Fprintf(&sb, "<source id=%q url=%q title=%q>\n", c.ID, c.SourceURL, title)
		sb.WriteString(c.Text)
		sb.WriteString("\n</source>\n")
	}
	sb.WriteString("</sources>\n\n")
	fmt.Fprintf(&sb, "Question: %s", query)
	return &Prompt{System: SystemInstruction, User: sb.String()}
}

// citationMarkerRe matches a bracketed group of one or more chunk ids, such
// as [0123456789abcdef] or [0123456789abcdef, fedcba9876543210].
var citationMarkerRe = regexp.MustCompile(`\[\s*([0-9a-f]{16}(?:\s*,\s*[0-9a-f]{16})*)\s*\]`)

// markerIDs returns the chunk ids inside a matched marker group.
func markerIDs(group string) []string {
	parts := strings.Split(group, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, strings.TrimSpace(p))
	}
	return ids
}

// ExtractCitations maps a generated answer back to the chunks it drew from.
// Only chunks passed to generation can be cited. Chunks referenced by id
// markers are cited in retrieval order; when the text references none,
// every passed chunk is cited in retrieval order, unless the text is the
// insufficient-information reply, which cites nothing.
func ExtractCitations(text string, chunks []*RetrievedChunk) []Citation {
	referenced := make(map[string]bool)
	for _, m := range citationMarkerRe.FindAllStringSubmatch(text, -1) {
		for _, id := range markerIDs(m[1]) {
			referenced[id] = true
		}
	}

	var cited []*RetrievedChunk
	for _, rc := range chunks {
		if referenced[rc.Chunk.ID] {
			cited = append(cited, rc)
		}
	}
	if len(cited) == 0 {
		if IsInsufficient(text) {
			return []Citation{}
		}
		cited = chunks
	}

	seen := make(map[string]bool, len(cited))
	citations := make([]Citation, 0, len(cited))
	for _, rc := range cited {
		if seen[rc.Chunk.ID] {
			continue
		}
		seen[rc.Chunk.ID] = true
		citations = append(citations, Citation{
			SourceURL: rc.Chunk.SourceURL,
			ChunkID:   rc.Chunk.ID,
			Title:     rc.Chunk.Title,
			Score:     rc.Score,
		})
	}
	return citations
}

// IsInsufficient reports whether text is the insufficient-information reply.
func IsInsufficient(text string) bool {
	return strings.Contains(text, InsufficientInformation)
}

// NumberCitations rewrites bracketed chunk id markers in text as their
// 1-based positions in citations. Ids that were not cited are dropped from
// their marker, and a marker left empty is removed. Text outside markers is
// never changed.
func NumberCitations(text string, citations []Citation) string {
	pos := make(map[string]int, len(citations))
	for i, c := range citations {
		pos[c.ChunkID] = i + 1
	}
	return citationMarkerRe.ReplaceAllStringFunc(text, func(marker string) string {
		group := citationMarkerRe.FindStringSubmatch(marker)[1]
		var nums []string
		seen := make(map[int]bool)
		for _, id := range markerIDs(group) {
			if n, ok := pos[id]; ok && !seen[n] {
				seen[n] = true
				nums = append(nums, strconv.Itoa(n))
			}
		}
		if len(nums) == 0 {
			return ""
		}
		return "[" + strings.Join(nums, ", ") + "]"
	})
}
