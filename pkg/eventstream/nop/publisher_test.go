package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/instagit/pkg/eventstream"
	"github.com/papercomputeco/instagit/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("creates a non-nil publisher", func() {
		p := nop.NewPublisher()
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilAnalysisEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishAnalysis(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilAnalysisEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishAnalysis(context.Background(), &eventstream.AnalysisEvent{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("satisfies the Publisher interface", func() {
		var p eventstream.Publisher = nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
