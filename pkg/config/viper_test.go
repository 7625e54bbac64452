package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/instagit/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("api.url")).To(Equal(defaults.API.URL))
		Expect(v.GetDuration("api.timeout")).To(Equal(defaults.API.Timeout.Duration))
		Expect(v.GetInt("retry.max_retries")).To(Equal(3))
		Expect(v.GetDuration("retry.base_delay")).To(Equal(5 * time.Second))
		Expect(v.GetString("server.listen")).To(Equal(defaults.Server.Listen))
	})

	It("reads config file values over defaults", func() {
		data := `[retry]
base_delay = "1s"
max_retries = 5
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetDuration("retry.base_delay")).To(Equal(time.Second))
		Expect(v.GetInt("retry.max_retries")).To(Equal(5))
		Expect(v.GetDuration("api.timeout")).To(Equal(30 * time.Minute))
	})

	It("reads INSTAGIT_ environment variables over the config file", func() {
		data := `[api]
url = "http://from-file"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("INSTAGIT_API_URL", "http://from-env")
		GinkgoT().Setenv("INSTAGIT_RETRY_MAX_RETRIES", "1")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.url")).To(Equal("http://from-env"))
		Expect(v.GetInt("retry.max_retries")).To(Equal(1))
	})
})

var _ = Describe("FromViper", func() {
	It("materializes resolved settings", func() {
		GinkgoT().Setenv("INSTAGIT_EVENTS_KAFKA_BROKERS", "k1:9092,k2:9092")
		GinkgoT().Setenv("INSTAGIT_API_URL", "http://localhost:8000/")

		v, err := config.InitViper(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.URL).To(Equal("http://localhost:8000"))
		Expect(cfg.Events.KafkaBrokers).To(Equal([]string{"k1:9092", "k2:9092"}))
		Expect(cfg.Events.KafkaTopic).To(Equal("instagit.analysis"))
		Expect(*cfg.Retry.MaxRetries).To(Equal(3))
	})

	It("rejects a negative retry budget", func() {
		GinkgoT().Setenv("INSTAGIT_RETRY_MAX_RETRIES", "-2")
		v, err := config.InitViper(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		_, err = config.FromViper(v)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LoadEnvFile", func() {
	It("loads variables into the environment without overriding set ones", func() {
		path := filepath.Join(GinkgoT().TempDir(), ".env")
		Expect(os.WriteFile(path, []byte("INSTAGIT_TEST_FROM_FILE=file\nINSTAGIT_TEST_PRESET=file\n"), 0o600)).To(Succeed())

		GinkgoT().Setenv("INSTAGIT_TEST_PRESET", "env")
		GinkgoT().Setenv("INSTAGIT_TEST_FROM_FILE", "")
		Expect(os.Unsetenv("INSTAGIT_TEST_FROM_FILE")).To(Succeed())

		Expect(config.LoadEnvFile(path)).To(Succeed())
		Expect(os.Getenv("INSTAGIT_TEST_FROM_FILE")).To(Equal("file"))
		Expect(os.Getenv("INSTAGIT_TEST_PRESET")).To(Equal("env"))
	})

	It("is a no-op without a path", func() {
		Expect(config.LoadEnvFile("")).To(Succeed())
	})

	It("fails on a missing file", func() {
		Expect(config.LoadEnvFile(filepath.Join(GinkgoT().TempDir(), "missing.env"))).To(HaveOccurred())
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("binds cobra flags to viper keys via the registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var vals config.FlagValues
		config.AddAnalysisFlags(cmd, &vals)

		Expect(cmd.Flags().Set("retry-delay", "250ms")).To(Succeed())
		Expect(cmd.Flags().Set("max-retries", "1")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Registry, config.AnalysisFlags)

		Expect(v.GetDuration("retry.base_delay")).To(Equal(250 * time.Millisecond))
		Expect(v.GetInt("retry.max_retries")).To(Equal(1))
	})

	It("falls through to config when the flag is not set", func() {
		data := `[server]
listen = ":5555"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Registry, config.FlagListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.Registry, []string{config.FlagListen})

		Expect(v.GetString("server.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("server.listen")).To(Equal(config.NewDefaultConfig().Server.Listen))
	})

	It("pulls name, shorthand, default and description from the FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Registry, config.FlagListen, &listen)

		f := cmd.Flags().Lookup("listen")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("l"))
		Expect(f.Usage).To(Equal(config.Registry[config.FlagListen].Description))
		Expect(f.DefValue).To(Equal(config.NewDefaultConfig().Server.Listen))
	})

	It("uses typed defaults for duration and int flags", func() {
		cmd := &cobra.Command{Use: "test"}
		var vals config.FlagValues
		config.AddAnalysisFlags(cmd, &vals)
		config.AddEventFlags(cmd, &vals)

		Expect(vals.RetryDelay).To(Equal(5 * time.Second))
		Expect(vals.MaxRetries).To(Equal(3))
		Expect(cmd.Flags().Lookup("timeout").DefValue).To(Equal("30m0s"))
		Expect(vals.KafkaTopic).To(Equal("instagit.analysis"))
	})
})
