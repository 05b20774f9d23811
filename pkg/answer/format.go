package answer

import (
	"fmt"
	"strings"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
)

// BibliographyEntry is one numbered source in the answer.
type BibliographyEntry struct {
	Number       int               `json:"number"`
	DisplayName  string            `json:"display_name"`
	Vertical     string            `json:"vertical"`
	SourceFields map[string]string `json:"source_fields,omitempty"`
	URL          string            `json:"url,omitempty"`
}

// formatBibliographyEntry renders a candidate into its vertical-specific
// display form.
func formatBibliographyEntry(number int, c *retrieval.Candidate) BibliographyEntry {
	entry := BibliographyEntry{
		Number:       number,
		Vertical:     string(c.Vertical),
		SourceFields: map[string]string{},
	}

	year := c.MetaString("year")
	source := c.MetaString("source")

	switch c.Vertical {
	case planner.VerticalLegal:
		act := c.MetaString("act_name")
		section := c.MetaString("section")
		if act == "" {
			act = source
		}
		entry.DisplayName = act
		if section != "" {
			entry.DisplayName = fmt.Sprintf("%s, Section %s", act, section)
			entry.SourceFields["section"] = section
		}
		if year != "" {
			entry.DisplayName += fmt.Sprintf(" (%s)", year)
		}
	case planner.VerticalGO:
		goNumber := c.MetaString("go_number")
		entry.DisplayName = fmt.Sprintf("G.O. Ms. No. %s", goNumber)
		if goNumber != "" {
			entry.SourceFields["go_number"] = goNumber
		}
		if source != "" {
			entry.DisplayName += ", " + source
		}
		if year != "" {
			entry.DisplayName += fmt.Sprintf(" (%s)", year)
		}
	case planner.VerticalJudicial:
		caseNumber := c.MetaString("case_number")
		entry.DisplayName = caseNumber
		if caseNumber != "" {
			entry.SourceFields["case_number"] = caseNumber
		}
		if court := c.MetaString("court"); court != "" {
			entry.DisplayName += ", " + court
		} else if source != "" {
			entry.DisplayName += ", " + source
		}
		if year != "" {
			entry.DisplayName += fmt.Sprintf(" (%s)", year)
		}
	case planner.VerticalInternet:
		entry.DisplayName = c.MetaString("title")
		entry.URL = c.MetaString("url")
	default:
		entry.DisplayName = source
		if year != "" {
			entry.DisplayName += fmt.Sprintf(" (%s)", year)
		}
	}

	entry.DisplayName = strings.TrimLeft(strings.TrimSpace(entry.DisplayName), ",")
	entry.DisplayName = strings.TrimSpace(entry.DisplayName)
	if entry.DisplayName == "" {
		entry.DisplayName = c.DocID
	}
	if year != "" {
		entry.SourceFields["year"] = year
	}
	if len(entry.SourceFields) == 0 {
		entry.SourceFields = nil
	}
	return entry
}

// blockHeader renders the one-line context header for a chunk: vertical, the
// strongest identifier present, and year.
func blockHeader(number int, c *retrieval.Candidate) string {
	parts := []string{fmt.Sprintf("[%d] %s", number, c.Vertical)}

	switch {
	case c.MetaString("go_number") != "":
		parts = append(parts, "G.O. No. "+c.MetaString("go_number"))
	case c.MetaString("section") != "":
		parts = append(parts, "Section "+c.MetaString("section"))
	case c.MetaString("case_number") != "":
		parts = append(parts, c.MetaString("case_number"))
	case c.MetaString("scheme_name") != "":
		parts = append(parts, c.MetaString("scheme_name"))
	case c.MetaString("title") != "":
		parts = append(parts, c.MetaString("title"))
	}
	if year := c.MetaString("year"); year != "" {
		parts = append(parts, year)
	}
	return strings.Join(parts, " | ")
}
