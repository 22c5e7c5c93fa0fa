package watsonx_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/relay/pkg/metrics"
	"github.com/papercomputeco/relay/pkg/steps"
	"github.com/papercomputeco/relay/pkg/watsonx"
)

// stubTokens hands out "t0" until refreshed, then "t1", "t2", ...
type stubTokens struct {
	current   string
	refreshes int
	err       error
}

func (s *stubTokens) Token(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.current, nil
}

func (s *stubTokens) Refresh(context.Context) (string, error) {
	s.refreshes++
	s.current = fmt.Sprintf("t%d", s.refreshes)
	return s.current, nil
}

var _ = Describe("Client", func() {
	var (
		tokens  *stubTokens
		handler http.HandlerFunc
		server  *httptest.Server
	)

	BeforeEach(func() {
		tokens = &stubTokens{current: "t0"}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	It("requires a scoring URL", func() {
		_, err := watsonx.New("", tokens)
		Expect(err).To(MatchError(watsonx.ErrMissingScoringURL))
	})

	It("posts the prompt and classifies an SSE body", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer t0"))
			Expect(r.Header.Get("Accept")).To(Equal("text/event-stream"))

			body, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())

			var payload map[string]any
			Expect(json.Unmarshal(body, &payload)).To(Succeed())
			Expect(payload["stream"]).To(BeFalse())
			Expect(payload["messages"]).To(Equal([]any{
				map[string]any{"role": "user", "content": "¿ventas?"},
			}))

			fmt.Fprint(w, "id: 1\nevent: message\ndata: {\"choices\":[{\"delta\":{\"content\":\"hola\"}}]}\n\n")
		}

		client, err := watsonx.New(server.URL, tokens)
		Expect(err).NotTo(HaveOccurred())

		chunk, err := client.Send(context.Background(), "¿ventas?")
		Expect(err).NotTo(HaveOccurred())
		Expect(chunk.Kind()).To(Equal(steps.ChunkSSE))
	})

	It("returns a JSON object body as a plain object", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hola"}}]}`)
		}

		client, err := watsonx.New(server.URL, tokens)
		Expect(err).NotTo(HaveOccurred())

		chunk, err := client.Send(context.Background(), "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(chunk.Kind()).To(Equal(steps.ChunkObject))
	})

	It("refreshes the token once on 401 and retries", func() {
		m := metrics.New()
		handler = func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer t0" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, "plain answer")
		}

		client, err := watsonx.New(server.URL, tokens, watsonx.WithMetrics(m))
		Expect(err).NotTo(HaveOccurred())

		chunk, err := client.Send(context.Background(), "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(tokens.refreshes).To(Equal(1))
		Expect(chunk.Kind()).To(Equal(steps.ChunkEscaped))
		Expect(chunk.Text()).To(Equal("plain answer"))

		Expect(testutil.ToFloat64(m.LLMRequests.WithLabelValues("401"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.LLMRequests.WithLabelValues("200"))).To(Equal(1.0))
	})

	It("gives up with ErrUnauthorized after one retry", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}

		client, err := watsonx.New(server.URL, tokens)
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Send(context.Background(), "hi")
		Expect(err).To(MatchError(watsonx.ErrUnauthorized))
		Expect(tokens.refreshes).To(Equal(1))
	})

	It("reports other failures as a StatusError", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, "upstream down")
		}

		client, err := watsonx.New(server.URL, tokens)
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Send(context.Background(), "hi")
		var statusErr *watsonx.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(http.StatusBadGateway))
		Expect(statusErr.Error()).To(ContainSubstring("upstream down"))
	})

	It("wraps token failures", func() {
		tokens.err = watsonx.ErrMissingAPIKey

		client, err := watsonx.New(server.URL, tokens)
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Send(context.Background(), "hi")
		Expect(errors.Is(err, watsonx.ErrMissingAPIKey)).To(BeTrue())
	})
})
