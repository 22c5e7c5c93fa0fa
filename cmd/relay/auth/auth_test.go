package authcmder_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/relay/cmd/relay/auth"
	"github.com/papercomputeco/relay/pkg/credentials"
)

var _ = Describe("auth command", func() {
	var dir string

	run := func(stdin string, args ...string) (string, error) {
		root := &cobra.Command{Use: "relay", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().String("config-dir", dir, "")
		root.AddCommand(authcmder.NewAuthCmd())

		var out bytes.Buffer
		root.SetIn(strings.NewReader(stdin))
		root.SetOut(&out)
		root.SetArgs(append([]string{"auth"}, args...))
		err := root.Execute()
		return out.String(), err
	}

	storedKey := func() string {
		mgr, err := credentials.NewManager(dir)
		Expect(err).NotTo(HaveOccurred())
		key, err := mgr.GetKey(credentials.ProviderIBM)
		Expect(err).NotTo(HaveOccurred())
		return key
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("stores a piped key", func() {
		out, err := run("  ibm-key-123  \nignored\n", "ibm")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Stored"))
		Expect(storedKey()).To(Equal("ibm-key-123"))
	})

	It("accepts the provider in any case", func() {
		_, err := run("k\n", "IBM")
		Expect(err).NotTo(HaveOccurred())
		Expect(storedKey()).To(Equal("k"))
	})

	It("rejects an empty key", func() {
		_, err := run("   \n", "ibm")
		Expect(err).To(MatchError("API key cannot be empty"))
	})

	It("rejects empty input", func() {
		_, err := run("", "ibm")
		Expect(err).To(MatchError(ContainSubstring("no input")))
	})

	It("rejects unsupported providers", func() {
		_, err := run("k\n", "openai")
		Expect(err).To(MatchError(ContainSubstring("unsupported provider")))
	})

	It("requires a provider", func() {
		_, err := run("")
		Expect(err).To(MatchError(ContainSubstring("provider argument required")))
	})

	It("lists stored providers", func() {
		out, err := run("", "--list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No stored credentials"))

		_, err = run("k\n", "ibm")
		Expect(err).NotTo(HaveOccurred())

		out, err = run("", "--list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("ibm"))
		Expect(out).To(ContainSubstring("IBM_API_KEY"))
	})

	It("removes a stored key", func() {
		_, err := run("k\n", "ibm")
		Expect(err).NotTo(HaveOccurred())

		_, err = run("", "--remove", "ibm")
		Expect(err).NotTo(HaveOccurred())
		Expect(storedKey()).To(BeEmpty())
	})
})
