package eventstream_test

import (
	"encoding/json"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/eventstream"
	"github.com/papercomputeco/relay/pkg/merkle"
)

var _ = Describe("TurnRenderedEvent", func() {
	var node *merkle.Node

	BeforeEach(func() {
		parent := merkle.NewNode(merkle.Bucket{ChatID: "chat-1", Prompt: "first"}, nil)
		node = merkle.NewNode(merkle.Bucket{
			ChatID: "chat-1",
			Sender: "alice",
			Prompt: "ventas",
			Lines:  []string{"🛠️ Tool: sales", "listo"},
		}, parent)
	})

	It("describes the stored node", func() {
		event := eventstream.NewTurnRenderedEvent(node)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal("relay.turn.rendered"))
		Expect(uuid.Validate(event.EventID)).To(Succeed())
		Expect(event.ChatID).To(Equal("chat-1"))
		Expect(event.Hash).To(Equal(node.Hash))
		Expect(event.ParentHash).To(Equal(node.ParentHash))
		Expect(event.LineCount).To(Equal(2))
	})

	It("uses a fresh id per event", func() {
		a := eventstream.NewTurnRenderedEvent(node)
		b := eventstream.NewTurnRenderedEvent(node)
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("marshals with the expected top-level keys", func() {
		payload, err := json.Marshal(eventstream.NewTurnRenderedEvent(node))
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKeyWithValue("chat_id", "chat-1"))
		Expect(got).To(HaveKey("parent_hash"))
		Expect(got).To(HaveKeyWithValue("line_count", BeNumerically("==", 2)))
	})

	It("provides ErrNilTurnEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilTurnEvent).To(MatchError("nil turn event"))
	})
})
