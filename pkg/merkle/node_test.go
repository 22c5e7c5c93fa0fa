package merkle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/merkle"
)

// testBucket creates a simple bucket for testing with the given prompt
func testBucket(prompt string) merkle.Bucket {
	return merkle.Bucket{
		ChatID: "chat-1",
		Sender: "alice",
		Prompt: prompt,
		Lines:  []string{"🛠️ Tool: lookup", "done"},
	}
}

var _ = Describe("Node", func() {
	Describe("NewNode", func() {
		Context("when creating a root node (no parent)", func() {
			It("creates a node with the given bucket", func() {
				bucket := testBucket("hello world")
				node := merkle.NewNode(bucket, nil)

				Expect(node.Bucket).To(Equal(bucket))
				Expect(node.ParentHash).To(BeNil())
				Expect(node.Hash).To(HaveLen(64))
			})

			It("produces consistent hashes for the same bucket", func() {
				bucket := testBucket("same content")
				Expect(merkle.NewNode(bucket, nil).Hash).To(Equal(merkle.NewNode(bucket, nil).Hash))
			})

			It("produces different hashes for different content", func() {
				a := merkle.NewNode(testBucket("content A"), nil)
				b := merkle.NewNode(testBucket("content B"), nil)
				Expect(a.Hash).NotTo(Equal(b.Hash))
			})

			It("is sensitive to line order", func() {
				a := testBucket("q")
				b := testBucket("q")
				b.Lines = []string{a.Lines[1], a.Lines[0]}
				Expect(merkle.NewNode(a, nil).Hash).NotTo(Equal(merkle.NewNode(b, nil).Hash))
			})
		})

		Context("when creating a child node", func() {
			It("links to the parent hash", func() {
				parent := merkle.NewNode(testBucket("first"), nil)
				child := merkle.NewNode(testBucket("second"), parent)

				Expect(child.ParentHash).NotTo(BeNil())
				Expect(*child.ParentHash).To(Equal(parent.Hash))
			})

			It("hashes differently from the same bucket without a parent", func() {
				parent := merkle.NewNode(testBucket("first"), nil)
				child := merkle.NewNode(testBucket("second"), parent)
				orphan := merkle.NewNode(testBucket("second"), nil)

				Expect(child.Hash).NotTo(Equal(orphan.Hash))
			})

			It("does not alias the parent's hash field", func() {
				parent := merkle.NewNode(testBucket("first"), nil)
				child := merkle.NewNode(testBucket("second"), parent)
				original := parent.Hash

				parent.Hash = "changed"
				Expect(*child.ParentHash).To(Equal(original))
			})
		})
	})

	Describe("Verify", func() {
		It("accepts an untouched node", func() {
			Expect(merkle.NewNode(testBucket("x"), nil).Verify()).To(BeTrue())
		})

		It("detects tampered content", func() {
			node := merkle.NewNode(testBucket("x"), nil)
			node.Bucket.Lines = append(node.Bucket.Lines, "extra")
			Expect(node.Verify()).To(BeFalse())
		})

		It("ignores the timestamp", func() {
			node := merkle.NewNode(testBucket("x"), nil)
			node.CreatedAt = node.CreatedAt.AddDate(-1, 0, 0)
			Expect(node.Verify()).To(BeTrue())
		})
	})
})

var _ = Describe("Bucket", func() {
	It("joins lines with blank lines", func() {
		b := testBucket("q")
		Expect(b.Text()).To(Equal("🛠️ Tool: lookup\n\ndone"))
	})
})
