package identity_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/composable-science/cli/pkg/identity"
	"github.com/composable-science/cli/pkg/signature"
)

func TestIdentity(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Identity Suite")
}

var _ = Describe("Manager", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("creates and reloads an identity", func() {
		created, err := identity.Create(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(created.DID()).To(HavePrefix("did:key:z"))

		loaded, err := identity.Load(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.DID()).To(Equal(created.DID()))
	})

	It("stores the private key with owner-only permissions", func() {
		_, err := identity.Create(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		info, err := os.Stat(filepath.Join(tmpDir, "key.pem"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})

	It("refuses to overwrite an existing identity", func() {
		_, err := identity.Create(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, err = identity.Create(tmpDir)
		Expect(err).To(MatchError(identity.ErrExists))
	})

	It("returns ErrNoIdentity when nothing was created", func() {
		_, err := identity.Load(tmpDir)
		Expect(err).To(MatchError(identity.ErrNoIdentity))
	})

	It("produces signatures that verify against its DID", func() {
		m, err := identity.Create(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		payload := map[string]string{"doc": "attestation"}
		block, err := signature.Sign(m, payload, m.Document().Created)
		Expect(err).NotTo(HaveOccurred())

		Expect(block.VerificationMethod).To(Equal(m.DID()))
		Expect(signature.Verify(block, payload)).To(Succeed())
	})
})

var _ = Describe("Rotate", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("replaces the key and records a verifiable revocation", func() {
		old, err := identity.Create(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		successor, rev, err := old.Rotate()
		Expect(err).NotTo(HaveOccurred())

		Expect(successor.DID()).NotTo(Equal(old.DID()))
		Expect(successor.Document().RotatedFrom).To(Equal(old.DID()))

		Expect(rev.RevokedDID).To(Equal(old.DID()))
		Expect(rev.SupersededBy).To(Equal(successor.DID()))
		Expect(identity.VerifyRevocation(rev)).To(Succeed())

		// The stored identity is now the successor.
		loaded, err := identity.Load(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.DID()).To(Equal(successor.DID()))

		revs, err := loaded.Revocations()
		Expect(err).NotTo(HaveOccurred())
		Expect(revs).To(HaveLen(1))
	})

	It("rejects a revocation signed by the wrong key", func() {
		old, err := identity.Create(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, rev, err := old.Rotate()
		Expect(err).NotTo(HaveOccurred())

		rev.SupersededBy = "did:key:zforged"
		Expect(identity.VerifyRevocation(rev)).NotTo(Succeed())
	})
})
