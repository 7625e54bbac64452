package analysis

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var footerPrinter = message.NewPrinter(language.English)

// Footer renders the usage line appended to a result, for example
// "Tokens: 1,200 input, 300 output, 1,500 total | Tier: free | Credits
// remaining: 9,000", followed by the upgrade hint when there is one. Parts
// without data are left out; an empty string means nothing to show.
func Footer(r *Result) string {
	if r == nil {
		return ""
	}

	var parts []string
	if r.TotalTokens > 0 {
		parts = append(parts, footerPrinter.Sprintf("Tokens: %d input, %d output, %d total",
			r.InputTokens, r.OutputTokens, r.TotalTokens))
	}
	if r.Tier != "" {
		parts = append(parts, "Tier: "+r.Tier)
	}
	if r.TokensRemaining > 0 {
		parts = append(parts, footerPrinter.Sprintf("Credits remaining: %d", r.TokensRemaining))
	}

	var b strings.Builder
	if len(parts) > 0 {
		b.WriteString("---\n")
		b.WriteString(strings.Join(parts, " | "))
	}
	if r.UpgradeHint != nil && *r.UpgradeHint != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(*r.UpgradeHint)
	}
	return b.String()
}

// TextWithFooter returns the result text followed by its footer.
func TextWithFooter(r *Result) string {
	footer := Footer(r)
	if footer == "" {
		return r.Text
	}
	return r.Text + "\n\n" + footer
}
