package progress

import (
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Frames", func() {
	It("sweeps forward and back without repeating the turn frame", func() {
		Expect(Frames).To(HaveLen(34))
	})

	It("renders fixed width frames", func() {
		for _, f := range Frames {
			Expect(utf8.RuneCountInString(f)).To(Equal(frameWidth))
		}
	})

	It("places the trail behind the head", func() {
		Expect(kittFrame(5, 1)).To(Equal("░░░▒▓█░░░░░░░░░░"))
		Expect(kittFrame(5, -1)).To(Equal("░░░░░█▓▒░░░░░░░░"))
	})

	It("clips the trail at the edges", func() {
		Expect(kittFrame(0, 1)).To(Equal("█░░░░░░░░░░░░░░░"))
		Expect(kittFrame(15, -1)).To(Equal("░░░░░░░░░░░░░░░█"))
	})
})

var _ = Describe("FormatDuration", func() {
	It("formats seconds and minutes", func() {
		Expect(FormatDuration(42 * time.Second)).To(Equal("42s"))
		Expect(FormatDuration(1500 * time.Millisecond)).To(Equal("1s"))
		Expect(FormatDuration(187 * time.Second)).To(Equal("3m 7s"))
	})
})

var _ = Describe("FormatTokens", func() {
	It("abbreviates thousands", func() {
		Expect(FormatTokens(950)).To(Equal("950"))
		Expect(FormatTokens(1000)).To(Equal("1.0k"))
		Expect(FormatTokens(12345)).To(Equal("12.3k"))
	})
})
