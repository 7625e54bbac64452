package progress

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func intPtr(v int) *int { return &v }

var _ = Describe("Tracker", func() {
	var (
		now     time.Time
		tracker *Tracker
	)

	BeforeEach(func() {
		now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		tracker = newTrackerWithClock(func() time.Time { return now })
	})

	It("starts in the connecting state", func() {
		snap := tracker.Snapshot()
		Expect(snap.LastStatus).To(Equal(StatusConnecting))
		Expect(snap.Done).To(BeFalse())
		Expect(snap.FrameIndex).To(BeZero())
	})

	Describe("SetTokens", func() {
		It("overwrites only the provided counters", func() {
			tracker.SetTokens(intPtr(100), nil)
			tracker.SetTokens(nil, intPtr(20))
			tracker.SetTokens(intPtr(80), nil)

			snap := tracker.Snapshot()
			Expect(snap.InputTokens).To(Equal(80))
			Expect(snap.OutputTokens).To(Equal(20))
		})
	})

	Describe("EstimateOutputTokens", func() {
		It("only applies while no output count is known", func() {
			tracker.EstimateOutputTokens(3)
			Expect(tracker.OutputTokens()).To(Equal(3))

			tracker.EstimateOutputTokens(9)
			Expect(tracker.OutputTokens()).To(Equal(3))
		})
	})

	Describe("Format", func() {
		It("joins frame, elapsed time and status", func() {
			now = now.Add(3 * time.Second)
			msg := tracker.Format("")

			Expect(msg).To(Equal(Frames[0] + " · 3s · " + StatusConnecting))
		})

		It("replaces the status when one is given", func() {
			msg := tracker.Format("Registering anonymous token...")
			Expect(msg).To(HaveSuffix("Registering anonymous token..."))
			Expect(tracker.Snapshot().LastStatus).To(Equal("Registering anonymous token..."))
		})

		It("advances the animation frame and wraps", func() {
			for range Frames {
				tracker.Format("")
			}
			msg := tracker.Format("")
			Expect(strings.HasPrefix(msg, Frames[0])).To(BeTrue())
			Expect(tracker.Snapshot().FrameIndex).To(Equal(len(Frames) + 1))
		})

		It("smooths the displayed token count toward the actual count", func() {
			tracker.SetTokens(intPtr(2000), intPtr(0))

			Expect(tracker.Format("")).To(ContainSubstring("100 tokens"))
			Expect(tracker.Snapshot().DisplayedTokens).To(Equal(100))

			tracker.Format("")
			Expect(tracker.Snapshot().DisplayedTokens).To(Equal(195))
		})

		It("uses the minimum step and never overshoots", func() {
			tracker.SetTokens(intPtr(30), nil)

			Expect(tracker.Format("")).To(ContainSubstring("30 tokens"))
			Expect(tracker.Snapshot().DisplayedTokens).To(Equal(30))
		})

		It("omits the token part while the count is zero", func() {
			Expect(tracker.Format("")).NotTo(ContainSubstring("tokens"))
		})
	})

	Describe("MarkDone", func() {
		It("marks the tracker as done", func() {
			tracker.MarkDone()
			Expect(tracker.Done()).To(BeTrue())
		})

		It("can be resumed without losing state", func() {
			tracker.SetTokens(nil, intPtr(1200))
			tracker.Format("")
			now = now.Add(90 * time.Second)
			tracker.MarkDone()

			tracker.Resume()
			snap := tracker.Snapshot()
			Expect(snap.Done).To(BeFalse())
			Expect(snap.OutputTokens).To(Equal(1200))
			Expect(snap.FrameIndex).To(Equal(1))
			Expect(tracker.Elapsed()).To(Equal(90 * time.Second))
		})
	})
})
