package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/composable-science/cli/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configer", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns defaults when no config file exists", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Build.Workers).To(Equal(uint(4)))
		Expect(cfg.Storage.SQLitePath).To(Equal("attestations.db"))
		Expect(cfg.Ledger.Enabled).To(BeFalse())
		Expect(cfg.Dashboard.Listen).To(Equal(":8090"))
	})

	It("merges file values over defaults", func() {
		data := `
[build]
workers = 8

[ledger]
enabled = true
brokers = ["broker-1:9092", "broker-2:9092"]
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Build.Workers).To(Equal(uint(8)))
		Expect(cfg.Ledger.Enabled).To(BeTrue())
		Expect(cfg.Ledger.Brokers).To(Equal([]string{"broker-1:9092", "broker-2:9092"}))
		// Unset sections fall back to defaults.
		Expect(cfg.Ledger.Topic).To(Equal("csf.attestations"))
		Expect(cfg.Storage.SQLitePath).To(Equal("attestations.db"))
	})

	It("rejects malformed TOML", func() {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid [[["), 0o600)
		Expect(err).NotTo(HaveOccurred())

		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, err = cfger.LoadConfig()
		Expect(err).To(HaveOccurred())
	})

	It("rejects unsupported config versions", func() {
		_, err := config.ParseConfigTOML([]byte("version = 99"))
		Expect(err).To(HaveOccurred())
	})

	It("round-trips set and get", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfger.SetConfigValue("ledger.topic", "lab.attestations")).To(Succeed())
		Expect(cfger.SetConfigValue("ledger.brokers", "a:9092, b:9092")).To(Succeed())

		topic, err := cfger.GetConfigValue("ledger.topic")
		Expect(err).NotTo(HaveOccurred())
		Expect(topic).To(Equal("lab.attestations"))

		brokers, err := cfger.GetConfigValue("ledger.brokers")
		Expect(err).NotTo(HaveOccurred())
		Expect(brokers).To(Equal("a:9092,b:9092"))
	})

	It("rejects unknown keys", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfger.SetConfigValue("nope.nope", "x")).To(HaveOccurred())
		_, err = cfger.GetConfigValue("nope.nope")
		Expect(err).To(HaveOccurred())
	})

	It("rejects zero workers", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfger.SetConfigValue("build.workers", "0")).To(HaveOccurred())
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("lists every supported key", func() {
		keys := config.ValidConfigKeys()
		Expect(keys).To(ContainElements(
			"build.workers", "storage.sqlite_path", "ledger.enabled",
			"ledger.brokers", "ledger.topic", "identity.dir", "dashboard.listen"))

		for _, k := range keys {
			Expect(config.IsValidConfigKey(k)).To(BeTrue())
		}
	})
})
