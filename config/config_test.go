package config

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

var _ = Describe("Load", func() {
	setenv := func(key, value string) {
		old, had := os.LookupEnv(key)
		Expect(os.Setenv(key, value)).To(Succeed())

		DeferCleanup(func() {
			if had {
				os.Setenv(key, old)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	unset := func(keys ...string) {
		for _, key := range keys {
			old, had := os.LookupEnv(key)
			Expect(os.Unsetenv(key)).To(Succeed())

			DeferCleanup(func() {
				if had {
					os.Setenv(key, old)
				}
			})
		}
	}

	BeforeEach(func() {
		unset("HYDROCOUPLE_LOG_LEVEL", "HYDROCOUPLE_BACKEND_DIR",
			"HYDROCOUPLE_DUMP_DIR", "HYDROCOUPLE_RTOL", "HYDROCOUPLE_ATOL")
	})

	It("should fail on missing env files", func() {
		cfg, err := Load(filepath.Join(GinkgoT().TempDir(), "missing.env"))
		Expect(err).To(HaveOccurred())
		Expect(cfg).To(BeNil())
	})

	It("should use the defaults", func() {
		empty := filepath.Join(GinkgoT().TempDir(), "empty.env")
		Expect(os.WriteFile(empty, nil, 0o600)).To(Succeed())

		cfg, err := Load(empty)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LogLevel).To(Equal("warn"))
		Expect(cfg.BackendDir).To(BeEmpty())
		Expect(cfg.DumpDir).To(Equal("."))
		Expect(cfg.RTol).To(Equal(1e-5))
		Expect(cfg.ATol).To(Equal(1e-8))
	})

	It("should read the environment", func() {
		setenv("HYDROCOUPLE_LOG_LEVEL", "debug")
		setenv("HYDROCOUPLE_RTOL", "0.01")

		cfg, err := Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LogLevel).To(Equal("debug"))
		Expect(cfg.RTol).To(Equal(0.01))
		Expect(cfg.Logger().GetLevel()).To(Equal(logrus.DebugLevel))
	})

	It("should read env files without overriding the environment", func() {
		file := filepath.Join(GinkgoT().TempDir(), "test.env")
		Expect(os.WriteFile(file, []byte(
			"HYDROCOUPLE_DUMP_DIR=/tmp/dumps\nHYDROCOUPLE_ATOL=0.5\n"), 0o600)).
			To(Succeed())
		DeferCleanup(func() {
			os.Unsetenv("HYDROCOUPLE_DUMP_DIR")
		})
		setenv("HYDROCOUPLE_ATOL", "0.25")

		cfg, err := Load(file)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DumpDir).To(Equal("/tmp/dumps"))
		Expect(cfg.ATol).To(Equal(0.25))
	})

	It("should reject invalid values", func() {
		setenv("HYDROCOUPLE_RTOL", "tight")

		_, err := Load()
		Expect(err).To(MatchError(ContainSubstring("parse env")))
	})

	It("should reject invalid log levels", func() {
		setenv("HYDROCOUPLE_LOG_LEVEL", "loud")

		_, err := Load()
		Expect(err).To(HaveOccurred())
	})

	It("should reject negative tolerances", func() {
		setenv("HYDROCOUPLE_ATOL", "-1")

		_, err := Load()
		Expect(err).To(HaveOccurred())
	})
})
