package watsonx_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/watsonx"
)

var _ = Describe("IAMTokenSource", func() {
	var (
		server *httptest.Server
		hits   atomic.Int32
		status int
	)

	BeforeEach(func() {
		hits.Store(0)
		status = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			n := hits.Add(1)
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.ParseForm()).To(Succeed())
			Expect(r.PostForm.Get("grant_type")).To(Equal("urn:ibm:params:oauth:grant-type:apikey"))

			if status != http.StatusOK {
				w.WriteHeader(status)
				fmt.Fprint(w, `{"errorMessage":"bad key"}`)
				return
			}
			fmt.Fprintf(w, `{"access_token":"tok-%s-%d","token_type":"Bearer","expires_in":3600}`, r.PostForm.Get("apikey"), n)
		}))
		DeferCleanup(server.Close)
	})

	It("returns ErrMissingAPIKey without a key", func() {
		src := watsonx.NewIAMTokenSource(server.URL, "  ", nil)
		_, err := src.Token(context.Background())
		Expect(err).To(MatchError(watsonx.ErrMissingAPIKey))
		Expect(hits.Load()).To(BeZero())
	})

	It("caches the token until it expires", func() {
		src := watsonx.NewIAMTokenSource(server.URL, "key", nil)

		first, err := src.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		second, err := src.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal("tok-key-1"))
		Expect(second).To(Equal(first))
		Expect(hits.Load()).To(Equal(int32(1)))
	})

	It("fetches a new token on Refresh", func() {
		src := watsonx.NewIAMTokenSource(server.URL, "key", nil)

		_, err := src.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())

		tok, err := src.Refresh(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(tok).To(Equal("tok-key-2"))
	})

	It("uses the new key after SetAPIKey", func() {
		src := watsonx.NewIAMTokenSource(server.URL, "old", nil)
		_, err := src.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())

		src.SetAPIKey("new")
		tok, err := src.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(tok).To(Equal("tok-new-2"))
	})

	It("surfaces IAM failures as a StatusError", func() {
		status = http.StatusBadRequest
		src := watsonx.NewIAMTokenSource(server.URL, "key", nil)

		_, err := src.Token(context.Background())
		var statusErr *watsonx.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(statusErr.Body).To(ContainSubstring("bad key"))
	})
})
