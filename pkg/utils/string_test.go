package utils_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/composable-science/cli/pkg/utils"
)

func TestUtils(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Utils Suite")
}

var _ = Describe("Truncate", func() {
	It("returns short strings unchanged", func() {
		Expect(utils.Truncate("abc", 5)).To(Equal("abc"))
	})

	It("truncates long strings with ellipsis", func() {
		Expect(utils.Truncate("abcdefgh", 5)).To(Equal("abcde..."))
	})
})
