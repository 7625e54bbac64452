package analysis_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/instagit/pkg/analysis"
	"github.com/papercomputeco/instagit/pkg/progress"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

var _ = Describe("Accumulator", func() {
	var (
		tracker *progress.Tracker
		acc     *analysis.Accumulator
	)

	BeforeEach(func() {
		tracker = progress.NewTracker()
		acc = analysis.NewAccumulator(tracker)
	})

	It("concatenates output deltas", func() {
		acc.Apply(analysis.OutputDelta{Text: "Hello, "})
		acc.Apply(analysis.OutputDelta{Text: "world!"})
		acc.Apply(analysis.Sentinel{})

		Expect(acc.Text()).To(Equal("Hello, world!"))
		Expect(acc.Result().Text).To(Equal("Hello, world!"))
	})

	It("forwards reasoning status and token counts to the tracker", func() {
		acc.Apply(analysis.ReasoningDelta{
			Text:   "Reading files...",
			Tokens: &analysis.TokenCounts{Input: intPtr(300), Output: intPtr(12)},
		})

		snap := tracker.Snapshot()
		Expect(snap.LastStatus).To(Equal("Reading files..."))
		Expect(snap.InputTokens).To(Equal(300))
		Expect(snap.OutputTokens).To(Equal(12))
	})

	It("keeps the status when a reasoning delta has no text", func() {
		tracker.SetStatus("Planning...")
		acc.Apply(analysis.ReasoningDelta{})
		Expect(tracker.Snapshot().LastStatus).To(Equal("Planning..."))
	})

	It("estimates output tokens from text length until real counts arrive", func() {
		acc.Apply(analysis.OutputDelta{Text: "0123456789ab"})
		Expect(tracker.OutputTokens()).To(Equal(3))
		Expect(tracker.Snapshot().LastStatus).To(Equal(progress.StatusWriting))
	})

	It("does not overwrite a reported output count with an estimate", func() {
		acc.Apply(analysis.ReasoningDelta{Tokens: &analysis.TokenCounts{Output: intPtr(77)}})
		acc.Apply(analysis.OutputDelta{Text: "0123456789ab"})
		Expect(tracker.OutputTokens()).To(Equal(77))
	})

	It("builds the result from the last usage snapshot", func() {
		acc.Apply(analysis.OutputDelta{Text: "done"})
		acc.Apply(analysis.Completed{Usage: analysis.Usage{InputTokens: 1}})
		acc.Apply(analysis.Completed{Usage: analysis.Usage{
			InputTokens:     100,
			OutputTokens:    50,
			TotalTokens:     150,
			Tier:            strPtr("pro"),
			TokensRemaining: 10,
			UpgradeHint:     strPtr("Upgrade for more"),
		}})

		r := acc.Result()
		Expect(r.InputTokens).To(Equal(100))
		Expect(r.OutputTokens).To(Equal(50))
		Expect(r.TotalTokens).To(Equal(150))
		Expect(r.Tier).To(Equal("pro"))
		Expect(r.TokensRemaining).To(Equal(10))
		Expect(*r.UpgradeHint).To(Equal("Upgrade for more"))
	})

	It("defaults absent usage", func() {
		acc.Apply(analysis.OutputDelta{Text: "x"})
		r := acc.Result()
		Expect(r.InputTokens).To(BeZero())
		Expect(r.Tier).To(Equal(analysis.DefaultTier))
		Expect(r.UpgradeHint).To(BeNil())
	})

	It("ignores unrecognized events", func() {
		acc.Apply(analysis.Unrecognized{Type: "response.created"})
		Expect(acc.Text()).To(BeEmpty())
		Expect(tracker.Snapshot().LastStatus).To(Equal(progress.StatusConnecting))
	})

	It("produces the same result after a reset and replay", func() {
		events := []analysis.Event{
			analysis.ReasoningDelta{Text: "Thinking..."},
			analysis.OutputDelta{Text: "Hello, "},
			analysis.OutputDelta{Text: "world!"},
			analysis.Completed{Usage: analysis.Usage{InputTokens: 3, OutputTokens: 4, TotalTokens: 7}},
			analysis.Sentinel{},
		}

		acc.Reset()
		for _, ev := range events {
			acc.Apply(ev)
		}
		first := acc.Result()

		acc.Reset()
		Expect(acc.Text()).To(BeEmpty())
		for _, ev := range events {
			acc.Apply(ev)
		}

		Expect(acc.Result()).To(Equal(first))
	})

	It("works without a tracker", func() {
		a := analysis.NewAccumulator(nil)
		a.Apply(analysis.OutputDelta{Text: "ok"})
		Expect(a.Text()).To(Equal("ok"))
	})
})
