package statuscmder_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	statuscmder "github.com/composable-science/cli/cmd/cs/status"
	"github.com/composable-science/cli/pkg/pipeline"
)

func TestStatusCmder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Status Command Suite")
}

const statusManifest = `[package]
name = "demo"
version = "0.1.0"

[[pipeline]]
name = "data"
cmd = "true"
inputs = ["raw.txt"]
outputs = ["out.txt"]
`

var _ = Describe("NewStatusCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := statuscmder.NewStatusCmd()
		Expect(cmd.Use).To(Equal("status"))
	})

	It("rejects any arguments", func() {
		cmd := statuscmder.NewStatusCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Status command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "cs-status-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("reports staleness without executing anything", func() {
		err := os.WriteFile(filepath.Join(tmpDir, "csf.toml"), []byte(statusManifest), 0o644)
		Expect(err).NotTo(HaveOccurred())
		err = os.WriteFile(filepath.Join(tmpDir, "raw.txt"), []byte("raw"), 0o644)
		Expect(err).NotTo(HaveOccurred())

		cmd := statuscmder.NewStatusCmd()
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		// The missing output must not have been created.
		_, err = os.Stat(filepath.Join(tmpDir, "out.txt"))
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("fails with a usage exit code outside a project", func() {
		cmd := statuscmder.NewStatusCmd()
		cmd.SetArgs([]string{})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())

		var exitErr *pipeline.ExitError
		Expect(errors.As(err, &exitErr)).To(BeTrue())
		Expect(exitErr.Code).To(Equal(pipeline.ExitUsage))
	})
})
