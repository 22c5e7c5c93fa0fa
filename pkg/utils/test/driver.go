package testutils

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/merkle"
	"github.com/papercomputeco/relay/pkg/storage"
)

// DescribeDriver registers the behavior every storage.Driver must share.
// newDriver is called before each spec; the driver is closed afterwards.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
		DeferCleanup(driver.Close)
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a node", func() {
			node := merkle.NewNode(NewTestBucket("chat", "hello"), nil)

			inserted, err := driver.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeTrue())

			got, err := driver.Get(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Hash).To(Equal(node.Hash))
			Expect(got.Bucket).To(Equal(node.Bucket))
			Expect(got.ParentHash).To(BeNil())
			Expect(got.CreatedAt).To(BeTemporally("~", node.CreatedAt, time.Millisecond))
			Expect(got.Verify()).To(BeTrue())
		})

		It("keeps the parent link", func() {
			parent := merkle.NewNode(NewTestBucket("chat", "one"), nil)
			child := merkle.NewNode(NewTestBucket("chat", "two"), parent)
			Expect(driver.Put(ctx, parent)).To(BeTrue())
			Expect(driver.Put(ctx, child)).To(BeTrue())

			got, err := driver.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ParentHash).To(HaveValue(Equal(parent.Hash)))
		})

		It("returns NotFoundError for a missing hash", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("is idempotent for duplicate puts", func() {
			node := merkle.NewNode(NewTestBucket("chat", "hello"), nil)
			Expect(driver.Put(ctx, node)).To(BeTrue())

			inserted, err := driver.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeFalse())
		})

		It("rejects nil nodes", func() {
			_, err := driver.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Head and List", func() {
		It("reports unknown chats", func() {
			_, err := driver.Head(ctx, "nobody")
			Expect(storage.IsNotFound(err)).To(BeTrue())

			nodes, err := driver.List(ctx, "nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(BeEmpty())
		})

		It("follows the chain of one chat, oldest first", func() {
			first := merkle.NewNode(NewTestBucket("a", "1"), nil)
			second := merkle.NewNode(NewTestBucket("a", "2"), first)
			third := merkle.NewNode(NewTestBucket("a", "3"), second)
			other := merkle.NewNode(NewTestBucket("b", "1"), nil)

			for _, n := range []*merkle.Node{first, second, third, other} {
				Expect(driver.Put(ctx, n)).To(BeTrue())
			}

			head, err := driver.Head(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(head.Hash).To(Equal(third.Hash))

			nodes, err := driver.List(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(hashes(nodes)).To(Equal([]string{first.Hash, second.Hash, third.Hash}))

			nodes, err = driver.List(ctx, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(hashes(nodes)).To(Equal([]string{other.Hash}))
		})
	})

	Describe("Ancestry", func() {
		It("returns the path from node to root", func() {
			first := merkle.NewNode(NewTestBucket("a", "1"), nil)
			second := merkle.NewNode(NewTestBucket("a", "2"), first)
			Expect(driver.Put(ctx, first)).To(BeTrue())
			Expect(driver.Put(ctx, second)).To(BeTrue())

			path, err := driver.Ancestry(ctx, second.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(hashes(path)).To(Equal([]string{second.Hash, first.Hash}))
		})

		It("fails when a link is missing", func() {
			first := merkle.NewNode(NewTestBucket("a", "1"), nil)
			second := merkle.NewNode(NewTestBucket("a", "2"), first)
			Expect(driver.Put(ctx, second)).To(BeTrue())

			_, err := driver.Ancestry(ctx, second.Hash)
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})
	})
}

func hashes(nodes []*merkle.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Hash)
	}
	return out
}
