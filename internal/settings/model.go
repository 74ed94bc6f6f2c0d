package settings

import (
	"strings"
	"time"
)

// CompanySettings is the current effective widget configuration: company
// profile fields plus the prompt template the conversation engine renders.
// The store keeps a single effective row (update-or-create).
type CompanySettings struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"companyName"`
	Description    string    `json:"description"`
	Services       []string  `json:"services"`
	CaseStudies    []string  `json:"caseStudies"`
	SpecialOffers  []string  `json:"specialOffers"`
	PromptTemplate string    `json:"promptTemplate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SplitLines turns a newline-delimited text field into an ordered list,
// dropping blank lines.
func SplitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
