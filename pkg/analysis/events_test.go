package analysis_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/instagit/pkg/analysis"
	"github.com/papercomputeco/instagit/pkg/sse"
)

var _ = Describe("Decoder", func() {
	var (
		decoder   *analysis.Decoder
		discarded []string
	)

	BeforeEach(func() {
		discarded = nil
		decoder = &analysis.Decoder{
			OnDiscard: func(data string, _ error) {
				discarded = append(discarded, data)
			},
		}
	})

	decode := func(data string) (analysis.Event, bool) {
		return decoder.Decode(sse.Event{Data: data})
	}

	It("maps [DONE] to the sentinel", func() {
		ev, ok := decode("[DONE]")
		Expect(ok).To(BeTrue())
		Expect(ev).To(Equal(analysis.Sentinel{}))
	})

	It("decodes reasoning deltas with token counts", func() {
		ev, ok := decode(`{"type":"response.reasoning.delta","delta":"Cloning repository...","tokens":{"input":1200,"output":40}}`)
		Expect(ok).To(BeTrue())

		rd, isReasoning := ev.(analysis.ReasoningDelta)
		Expect(isReasoning).To(BeTrue())
		Expect(rd.Text).To(Equal("Cloning repository..."))
		Expect(rd.Tokens).NotTo(BeNil())
		Expect(*rd.Tokens.Input).To(Equal(1200))
		Expect(*rd.Tokens.Output).To(Equal(40))
	})

	It("leaves absent token counters nil", func() {
		ev, _ := decode(`{"type":"response.reasoning.delta","delta":"x","tokens":{"input":5}}`)
		rd := ev.(analysis.ReasoningDelta)
		Expect(*rd.Tokens.Input).To(Equal(5))
		Expect(rd.Tokens.Output).To(BeNil())
	})

	It("decodes output text deltas", func() {
		ev, ok := decode(`{"type":"response.output_text.delta","delta":"Hello"}`)
		Expect(ok).To(BeTrue())
		Expect(ev).To(Equal(analysis.OutputDelta{Text: "Hello"}))
	})

	It("decodes the completed usage", func() {
		ev, ok := decode(`{"type":"response.completed","response":{"usage":{"input_tokens":10,"output_tokens":20,"total_tokens":30,"tier":"pro","tokens_remaining":900}}}`)
		Expect(ok).To(BeTrue())

		c := ev.(analysis.Completed)
		Expect(c.Usage.InputTokens).To(Equal(10))
		Expect(c.Usage.OutputTokens).To(Equal(20))
		Expect(c.Usage.TotalTokens).To(Equal(30))
		Expect(*c.Usage.Tier).To(Equal("pro"))
		Expect(c.Usage.TokensRemaining).To(Equal(900))
		Expect(c.Usage.UpgradeHint).To(BeNil())
	})

	It("treats a completed event without usage as zero usage", func() {
		ev, _ := decode(`{"type":"response.completed"}`)
		Expect(ev).To(Equal(analysis.Completed{}))
	})

	It("keeps unknown types as unrecognized", func() {
		ev, ok := decode(`{"type":"response.created"}`)
		Expect(ok).To(BeTrue())
		Expect(ev).To(Equal(analysis.Unrecognized{Type: "response.created"}))
	})

	It("discards invalid JSON through the hook", func() {
		ev, ok := decode(`{not json`)
		Expect(ok).To(BeFalse())
		Expect(ev).To(BeNil())
		Expect(discarded).To(ConsistOf(`{not json`))
	})

	It("discards without a hook", func() {
		d := &analysis.Decoder{}
		_, ok := d.Decode(sse.Event{Data: "oops"})
		Expect(ok).To(BeFalse())
	})
})
