// Package fingerprint derives the stable machine identifier sent when
// registering an anonymous token. The algorithm matches the other instagit
// clients so a machine keeps one identity across them.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Length is the number of hex characters in a fingerprint.
const Length = 32

var zeroMAC = net.HardwareAddr{0, 0, 0, 0, 0, 0}

var systemNames = map[string]string{
	"darwin":  "Darwin",
	"linux":   "Linux",
	"windows": "Windows",
}

var machineNames = map[string]string{
	"amd64": "x86_64",
	"386":   "i686",
}

// Machine returns the fingerprint of the current host.
func Machine() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("reading hostname: %w", err)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("listing network interfaces: %w", err)
	}

	return Compute(host, runtime.GOOS, runtime.GOARCH, PrimaryMAC(ifaces)), nil
}

// Compute hashes host, OS, architecture and MAC address into a
// fingerprint. goos and goarch are Go names and are translated to the
// conventional system and machine names first.
func Compute(host, goos, goarch string, mac net.HardwareAddr) string {
	system, ok := systemNames[goos]
	if !ok {
		system = goos
	}
	machine, ok := machineNames[goarch]
	if !ok {
		machine = goarch
	}

	raw := strings.Join([]string{host, system, machine, MACDecimal(mac)}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:Length]
}

// PrimaryMAC returns the hardware address of the first non-loopback
// interface with a non-zero MAC, or the zero MAC.
func PrimaryMAC(ifaces []net.Interface) net.HardwareAddr {
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 || bytes.Equal(iface.HardwareAddr, zeroMAC) {
			continue
		}
		return iface.HardwareAddr
	}
	return zeroMAC
}

// MACDecimal renders a 48-bit hardware address as a decimal integer.
func MACDecimal(mac net.HardwareAddr) string {
	var n uint64
	for _, b := range mac {
		n = n<<8 | uint64(b)
	}
	return strconv.FormatUint(n, 10)
}
