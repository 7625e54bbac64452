package analysis

import (
	"encoding/json"
	"strings"
)

// Request is one analysis question about a repository.
type Request struct {
	// Repo is a repository URL or owner/repo shorthand.
	Repo string

	// Prompt is the question to answer.
	Prompt string

	// Ref optionally pins a branch, tag or commit.
	Ref string

	// Token is the bearer token sent to the service. Empty sends no
	// Authorization header.
	Token string

	// Fast, when set, is forwarded to the service as the "fast" flag.
	Fast *bool
}

// Model returns the model string sent on the wire: repo, or repo@ref when a
// ref is set.
func (r Request) Model() string {
	ref := strings.TrimSpace(r.Ref)
	if ref == "" {
		return r.Repo
	}
	return r.Repo + "@" + ref
}

type requestBody struct {
	Model  string `json:"model"`
	Input  string `json:"input"`
	Stream bool   `json:"stream"`
	Fast   *bool  `json:"fast,omitempty"`
}

func (r Request) marshal() ([]byte, error) {
	return json.Marshal(requestBody{
		Model:  r.Model(),
		Input:  r.Prompt,
		Stream: true,
		Fast:   r.Fast,
	})
}

// Result is the outcome of a successful analysis.
type Result struct {
	Text            string
	InputTokens     int
	OutputTokens    int
	TotalTokens     int
	Tier            string
	TokensRemaining int
	UpgradeHint     *string
}
