package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/bot"
	"github.com/papercomputeco/relay/pkg/merkle"
	"github.com/papercomputeco/relay/pkg/metrics"
	"github.com/papercomputeco/relay/pkg/steps"
	"github.com/papercomputeco/relay/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/relay/pkg/utils/test"
)

type stubAsker struct {
	answer steps.RawChunk
	err    error
}

func (s stubAsker) Send(context.Context, string) (steps.RawChunk, error) {
	return s.answer, s.err
}

func do(server *Server, method, target, body string) (int, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	Expect(err).NotTo(HaveOccurred())

	resp, err := server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp.StatusCode, out
}

var _ = Describe("Server", func() {
	var (
		server *Server
		driver *inmemory.Driver
		m      *metrics.Metrics
		asker  *stubAsker
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		m = metrics.New()
		asker = &stubAsker{answer: steps.EscapedJSON("Hola desde el asistente.")}

		handler, err := bot.New(bot.Config{
			LLM:     asker,
			Sender:  WebhookSender(),
			Metrics: m,
		})
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(Config{
			ListenAddr: ":0",
			Storer:     driver,
			Bot:        handler,
			Metrics:    m,
		})
	})

	Describe("GET /ping", func() {
		It("answers pong", func() {
			status, body := do(server, http.MethodGet, "/ping", "")
			Expect(status).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("POST /v1/render", func() {
		It("renders an SSE body", func() {
			blob := "event: message\ndata: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
				"event: message\ndata: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"

			status, body := do(server, http.MethodPost, "/v1/render", blob)
			Expect(status).To(Equal(fiber.StatusOK))

			var resp RenderResponse
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.Lines).To(Equal([]string{"Hello"}))
		})

		It("returns an empty list for a blank body", func() {
			status, body := do(server, http.MethodPost, "/v1/render", "   ")
			Expect(status).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(Equal(`{"lines":[]}`))
		})

		It("counts renders", func() {
			do(server, http.MethodPost, "/v1/render", `{"a":1}`)
			status, body := do(server, http.MethodGet, "/metrics", "")
			Expect(status).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(ContainSubstring("relay_render_total 1"))
		})
	})

	Describe("POST /v1/messages", func() {
		It("returns the bot replies", func() {
			status, body := do(server, http.MethodPost, "/v1/messages",
				`{"id":"m1","chat_id":"c1","sender":"ana","text":"!ping"}`)
			Expect(status).To(Equal(fiber.StatusOK))

			var resp MessageResponse
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.ID).To(Equal("m1"))
			Expect(resp.Replies).To(Equal([]string{bot.PongReply}))
		})

		It("generates an id when absent", func() {
			_, body := do(server, http.MethodPost, "/v1/messages", `{"chat_id":"c1","text":"!ask hola"}`)

			var resp MessageResponse
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.ID).To(HaveLen(36))
			Expect(resp.Replies).To(Equal([]string{"Hola desde el asistente."}))
		})

		It("returns no replies for ignored text", func() {
			_, body := do(server, http.MethodPost, "/v1/messages", `{"chat_id":"c1","text":"hola"}`)

			var resp MessageResponse
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.Replies).To(BeEmpty())
		})

		It("reports LLM failures as a reply", func() {
			asker.err = errors.New("boom")
			_, body := do(server, http.MethodPost, "/v1/messages", `{"chat_id":"c1","text":"!ask hola"}`)

			var resp MessageResponse
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.Replies).To(Equal([]string{bot.ErrorReply}))
		})

		It("rejects invalid JSON", func() {
			status, _ := do(server, http.MethodPost, "/v1/messages", `{not json`)
			Expect(status).To(Equal(fiber.StatusBadRequest))
		})

		It("requires a chat id", func() {
			status, _ := do(server, http.MethodPost, "/v1/messages", `{"text":"!ping"}`)
			Expect(status).To(Equal(fiber.StatusBadRequest))
		})

		It("is not mounted without a bot", func() {
			bare := NewServer(Config{})
			status, _ := do(bare, http.MethodPost, "/v1/messages", `{"chat_id":"c1","text":"!ping"}`)
			Expect(status).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("turns", func() {
		var first, second *merkle.Node

		BeforeEach(func() {
			first = merkle.NewNode(testutils.NewTestBucket("c1", "hola", "Hola."), nil)
			second = merkle.NewNode(testutils.NewTestBucket("c1", "ventas", "Hay 3."), first)
			for _, n := range []*merkle.Node{first, second} {
				_, err := driver.Put(ctx, n)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("lists the turns of a chat oldest first", func() {
			status, body := do(server, http.MethodGet, "/v1/turns?chat_id=c1", "")
			Expect(status).To(Equal(fiber.StatusOK))

			var resp TurnsResponse
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.Count).To(Equal(2))
			Expect(resp.Turns[0].Hash).To(Equal(first.Hash))
			Expect(resp.Turns[1].Hash).To(Equal(second.Hash))
			Expect(resp.Turns[1].Bucket.Lines).To(Equal([]string{"Hay 3."}))
		})

		It("lists nothing for an unknown chat", func() {
			_, body := do(server, http.MethodGet, "/v1/turns?chat_id=nope", "")

			var resp TurnsResponse
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.Count).To(BeZero())
		})

		It("requires a chat id", func() {
			status, _ := do(server, http.MethodGet, "/v1/turns", "")
			Expect(status).To(Equal(fiber.StatusBadRequest))
		})

		It("gets a turn by hash", func() {
			status, body := do(server, http.MethodGet, "/v1/turns/"+second.Hash, "")
			Expect(status).To(Equal(fiber.StatusOK))

			var node merkle.Node
			Expect(json.Unmarshal(body, &node)).To(Succeed())
			Expect(node.Hash).To(Equal(second.Hash))
			Expect(*node.ParentHash).To(Equal(first.Hash))
		})

		It("returns 404 for an unknown hash", func() {
			status, body := do(server, http.MethodGet, "/v1/turns/deadbeef", "")
			Expect(status).To(Equal(fiber.StatusNotFound))
			Expect(string(body)).To(ContainSubstring("turn not found"))
		})

		It("returns the history up to a turn", func() {
			status, body := do(server, http.MethodGet, "/v1/turns/"+second.Hash+"/history", "")
			Expect(status).To(Equal(fiber.StatusOK))

			var resp HistoryResponse
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.Depth).To(Equal(2))
			Expect(resp.HeadHash).To(Equal(second.Hash))
			Expect(resp.Turns[0].Hash).To(Equal(first.Hash))
		})

		It("returns 404 for the history of an unknown hash", func() {
			status, _ := do(server, http.MethodGet, "/v1/turns/deadbeef/history", "")
			Expect(status).To(Equal(fiber.StatusNotFound))
		})
	})
})

var _ = Describe("WebhookSender", func() {
	It("fails outside of a webhook request", func() {
		err := WebhookSender().Send(context.Background(), "c1", "hola")
		Expect(err).To(MatchError(ErrNoCollector))
	})

	It("collects replies in order", func() {
		col := &collector{}
		ctx := withCollector(context.Background(), col)
		sender := WebhookSender()

		Expect(sender.Send(ctx, "c1", "uno")).To(Succeed())
		Expect(sender.Send(ctx, "c1", "dos")).To(Succeed())
		Expect(col.all()).To(Equal([]string{"uno", "dos"}))
	})
})
