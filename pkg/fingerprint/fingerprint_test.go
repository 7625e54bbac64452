package fingerprint_test

import (
	"net"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/instagit/pkg/fingerprint"
)

var _ = Describe("Fingerprint", func() {
	mac := net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x02}

	Describe("Compute", func() {
		It("hashes host, system, machine and MAC", func() {
			Expect(fingerprint.Compute("devbox", "linux", "amd64", mac)).
				To(Equal("b425fe6ad04328e877da6710ca1ad3c0"))
		})

		It("keeps unmapped architectures as-is", func() {
			Expect(fingerprint.Compute("mac.local", "darwin", "arm64", net.HardwareAddr{0, 0, 0, 0, 0, 0})).
				To(Equal("59579c28c1aa47a44be0bcae3cf26eb3"))
		})

		It("is stable and 32 hex characters long", func() {
			a := fingerprint.Compute("h", "windows", "386", mac)
			Expect(a).To(HaveLen(fingerprint.Length))
			Expect(a).To(MatchRegexp(`^[0-9a-f]{32}$`))
			Expect(fingerprint.Compute("h", "windows", "386", mac)).To(Equal(a))
		})

		It("changes with the host name", func() {
			Expect(fingerprint.Compute("a", "linux", "amd64", mac)).
				NotTo(Equal(fingerprint.Compute("b", "linux", "amd64", mac)))
		})
	})

	Describe("MACDecimal", func() {
		It("renders the address as a 48-bit integer", func() {
			Expect(fingerprint.MACDecimal(mac)).To(Equal("2485377892354"))
			Expect(fingerprint.MACDecimal(net.HardwareAddr{0, 0, 0, 0, 0, 0})).To(Equal("0"))
		})
	})

	Describe("PrimaryMAC", func() {
		It("skips loopback and zero addresses", func() {
			ifaces := []net.Interface{
				{Name: "lo", Flags: net.FlagLoopback, HardwareAddr: net.HardwareAddr{1, 1, 1, 1, 1, 1}},
				{Name: "tun0"},
				{Name: "dummy", HardwareAddr: net.HardwareAddr{0, 0, 0, 0, 0, 0}},
				{Name: "eth0", HardwareAddr: mac},
			}
			Expect(fingerprint.PrimaryMAC(ifaces)).To(Equal(mac))
		})

		It("falls back to the zero MAC", func() {
			Expect(fingerprint.PrimaryMAC(nil)).To(Equal(net.HardwareAddr{0, 0, 0, 0, 0, 0}))
		})
	})

	Describe("Machine", func() {
		It("fingerprints the current host", func() {
			fp, err := fingerprint.Machine()
			Expect(err).NotTo(HaveOccurred())
			Expect(fp).To(HaveLen(fingerprint.Length))
		})
	})
})
