package sse_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/sse"
)

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		It("parses a single record", func() {
			r := sse.NewReader(strings.NewReader("data: hello world\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("hello world"))
			Expect(ev.Value).To(Equal("hello world"))
			Expect(ev.Type).To(BeEmpty())
			Expect(ev.ID).To(BeEmpty())

			ev, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("starts a new record on every id field", func() {
			r := sse.NewReader(strings.NewReader("id: 1\nevent: message\ndata: {\"a\":1}\nid: 2\ndata: second\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.ID).To(Equal("1"))
			Expect(ev.Type).To(Equal("message"))
			Expect(ev.Value).To(Equal(map[string]any{"a": json.Number("1")}))

			ev, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.ID).To(Equal("2"))
			Expect(ev.Data).To(Equal("second"))

			ev, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("splits records on a repeated data field when no id is sent", func() {
			input := "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n" +
				"data: [DONE]\n"

			events := sse.Parse(input)
			Expect(events).To(HaveLen(3))
			Expect(events[2].Value).To(Equal("[DONE]"))
		})

		It("splits records on a repeated event field", func() {
			events := sse.Parse("event: a\nevent: b\ndata: x\n")
			Expect(events).To(HaveLen(2))
			Expect(events[0].Type).To(Equal("a"))
			Expect(events[0].Value).To(BeNil())
			Expect(events[1].Type).To(Equal("b"))
			Expect(events[1].Data).To(Equal("x"))
		})

		It("drops blank lines and comments", func() {
			events := sse.Parse("\n\n: keep-alive\n\ndata: hello\n\n\n")
			Expect(events).To(HaveLen(1))
			Expect(events[0].Data).To(Equal("hello"))
		})

		It("tolerates CRLF line endings", func() {
			events := sse.Parse("id: 7\r\ndata: hi\r\n\r\n")
			Expect(events).To(HaveLen(1))
			Expect(events[0].ID).To(Equal("7"))
			Expect(events[0].Data).To(Equal("hi"))
		})

		It("falls back to the raw string when data is not JSON", func() {
			events := sse.Parse("data: {not json\n")
			Expect(events).To(HaveLen(1))
			Expect(events[0].Value).To(Equal("{not json"))

			_, ok := events[0].Object()
			Expect(ok).To(BeFalse())
		})

		It("flushes a trailing record without a terminator", func() {
			r := sse.NewReader(strings.NewReader("data: unterminated"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("unterminated"))

			ev, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("ignores unknown fields and lines without a colon", func() {
			events := sse.Parse("retry: 3000\nfoo: bar\ndata\ndata: hello\n")
			Expect(events).To(HaveLen(1))
			Expect(events[0].Data).To(Equal("hello"))
		})

		It("skips an oversized line and keeps the records around it", func() {
			huge := "data: " + strings.Repeat("x", 5*1024*1024)
			events := sse.Parse("data: {\"n\":1}\n" + huge + "\ndata: {\"n\":2}\n")

			Expect(events).To(HaveLen(2))
			Expect(events[0].Data).To(Equal(`{"n":1}`))
			Expect(events[1].Data).To(Equal(`{"n":2}`))
		})

		It("returns nothing for empty input", func() {
			Expect(sse.Parse("")).To(BeEmpty())
			Expect(sse.Parse("\n\n\n")).To(BeEmpty())
		})
	})
})
