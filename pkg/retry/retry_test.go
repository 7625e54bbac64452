package retry_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/instagit/pkg/retry"
)

var _ = Describe("Delay", func() {
	It("doubles the base delay for each attempt", func() {
		Expect(retry.Delay(0, retry.DefaultBaseDelay)).To(Equal(5 * time.Second))
		Expect(retry.Delay(1, retry.DefaultBaseDelay)).To(Equal(10 * time.Second))
		Expect(retry.Delay(2, retry.DefaultBaseDelay)).To(Equal(20 * time.Second))
	})

	It("treats negative attempts as the first attempt", func() {
		Expect(retry.Delay(-1, time.Second)).To(Equal(time.Second))
	})

	It("does not overflow for very large attempts", func() {
		Expect(retry.Delay(1000, time.Millisecond)).To(BeNumerically(">", 0))
	})
})

var _ = Describe("IsRetryableStatus", func() {
	DescribeTable("classifies status codes",
		func(code int, expected bool) {
			Expect(retry.IsRetryableStatus(code)).To(Equal(expected))
		},
		Entry("303 cold start", 303, true),
		Entry("502 bad gateway", 502, true),
		Entry("503 unavailable", 503, true),
		Entry("504 gateway timeout", 504, true),
		Entry("400 bad request", 400, false),
		Entry("401 unauthorized", 401, false),
		Entry("404 not found", 404, false),
		Entry("429 rate limited", 429, false),
		Entry("500 internal error", 500, false),
	)

	It("lists every retryable code", func() {
		for _, code := range retry.RetryableStatusCodes() {
			Expect(retry.IsRetryableStatus(code)).To(BeTrue())
		}
	})
})

var _ = Describe("IsTransportError", func() {
	DescribeTable("matches transport failures case-insensitively",
		func(msg string) {
			Expect(retry.IsTransportError(errors.New(msg))).To(BeTrue())
		},
		Entry("incomplete chunked read", "peer closed connection without sending complete message body (incomplete chunked read)"),
		Entry("connection reset", "read tcp 10.0.0.1:443: Connection Reset by peer"),
		Entry("timed out", "The read operation timed out"),
		Entry("fetch failed", "TypeError: fetch failed"),
		Entry("ECONNREFUSED", "connect ECONNREFUSED 127.0.0.1:8000"),
		Entry("connection refused", "dial tcp 127.0.0.1:1: connect: connection refused"),
		Entry("unexpected EOF", "unexpected EOF"),
		Entry("deadline exceeded", "context deadline exceeded"),
	)

	It("matches wrapped errors by message", func() {
		err := fmt.Errorf("reading stream: %w", io.ErrUnexpectedEOF)
		Expect(retry.IsTransportError(err)).To(BeTrue())
	})

	It("does not match other errors", func() {
		Expect(retry.IsTransportError(errors.New("invalid character '}' in JSON"))).To(BeFalse())
		Expect(retry.IsTransportError(context.Canceled)).To(BeFalse())
		Expect(retry.IsTransportError(nil)).To(BeFalse())
	})
})

var _ = Describe("IsSecurityRejection", func() {
	It("flags a short response containing the phrase in any case", func() {
		Expect(retry.IsSecurityRejection("Request failed Security Validation.")).To(BeTrue())
		Expect(retry.IsSecurityRejection("SECURITY VALIDATION")).To(BeTrue())
	})

	It("ignores long responses that mention the phrase", func() {
		long := "The repository's security validation layer is described below. " + strings.Repeat("x", 100)
		Expect(retry.IsSecurityRejection(long)).To(BeFalse())
	})

	It("ignores short responses without the phrase", func() {
		Expect(retry.IsSecurityRejection("All good.")).To(BeFalse())
		Expect(retry.IsSecurityRejection("")).To(BeFalse())
	})
})

var _ = Describe("Sleep", func() {
	It("returns after the delay", func() {
		Expect(retry.Sleep(context.Background(), time.Millisecond)).To(Succeed())
	})

	It("returns early when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := retry.Sleep(ctx, time.Hour)
		Expect(err).To(MatchError(context.Canceled))
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
	})
})
