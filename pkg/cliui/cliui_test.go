package cliui_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/instagit/pkg/cliui"
)

var _ = Describe("cliui", func() {
	Describe("FormatDuration", func() {
		It("uses milliseconds below a second", func() {
			Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		})

		It("uses fractional seconds above a second", func() {
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("Step", func() {
		It("prints a success mark when fn succeeds", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "Registering", func() error { return nil })
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("Registering"))
			Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
		})

		It("returns the error and prints a failure mark", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "Registering", func() error { return errors.New("boom") })
			Expect(err).To(MatchError("boom"))
			Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
		})
	})

	Describe("RenderMarkdown", func() {
		It("renders markdown text", func() {
			out, err := cliui.RenderMarkdown("# Title\n\nSome *text*.", 60)
			Expect(err).NotTo(HaveOccurred())
			Expect(ansi.Strip(out)).To(ContainSubstring("Title"))
			Expect(ansi.Strip(out)).To(ContainSubstring("text"))
		})
	})

	Describe("DetectTerminal", func() {
		It("treats buffers as non-terminals", func() {
			var buf bytes.Buffer
			t := cliui.DetectTerminal(&buf)
			Expect(t.IsTTY).To(BeFalse())
			Expect(t.Width).To(Equal(80))
		})
	})

	Describe("ProgressLine", func() {
		It("is disabled off a terminal", func() {
			var buf bytes.Buffer
			p := cliui.NewProgressLine(cliui.Terminal{Out: &buf})
			Expect(p).To(BeNil())
			Expect(p.Sink()).To(BeNil())
			p.Clear()
			Expect(buf.String()).To(BeEmpty())
		})

		It("redraws one line truncated to the terminal width", func() {
			var buf bytes.Buffer
			p := cliui.NewProgressLine(cliui.Terminal{Out: &buf, IsTTY: true, Width: 20})

			msg := "░░█▓ · 3s · " + strings.Repeat("Reading files ", 5)
			Expect(p.Draw(context.Background(), msg)).To(Succeed())
			Expect(p.Draw(context.Background(), msg)).To(Succeed())

			lines := strings.Split(buf.String(), "\r")
			last := ansi.Strip(lines[len(lines)-1])
			Expect(ansi.StringWidth(last)).To(BeNumerically("<=", 19))
			Expect(last).To(HavePrefix("░░█▓ · 3s"))
			Expect(buf.String()).NotTo(ContainSubstring("\n"))
		})

		It("ignores draws after Clear", func() {
			var buf bytes.Buffer
			p := cliui.NewProgressLine(cliui.Terminal{Out: &buf, IsTTY: true, Width: 80})
			Expect(p.Draw(context.Background(), "a · b")).To(Succeed())
			p.Clear()
			n := buf.Len()

			Expect(p.Sink()(context.Background(), "c · d")).To(Succeed())
			Expect(buf.Len()).To(Equal(n))
		})
	})
})
