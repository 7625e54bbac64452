package versioncmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/instagit/cmd/version"
	"github.com/papercomputeco/instagit/pkg/utils"
)

var _ = Describe("NewVersionCmd", func() {
	It("prints the build metadata", func() {
		cmd := versioncmder.NewVersionCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs([]string{})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: " + utils.Version))
		Expect(out.String()).To(ContainSubstring("Sha: " + utils.Sha))
		Expect(out.String()).To(ContainSubstring("Built at: " + utils.Buildtime))
	})
})
