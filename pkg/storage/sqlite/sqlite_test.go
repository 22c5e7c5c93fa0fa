package sqlite_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/merkle"
	"github.com/papercomputeco/relay/pkg/storage"
	"github.com/papercomputeco/relay/pkg/storage/sqlite"
	testutils "github.com/papercomputeco/relay/pkg/utils/test"
)

var _ = Describe("SQLiteDriver", func() {
	testutils.DescribeDriver(func() storage.Driver {
		d, err := sqlite.NewSQLiteDriver(context.Background(), ":memory:")
		Expect(err).NotTo(HaveOccurred())
		return d
	})

	Describe("NewSQLiteDriver", func() {
		It("persists turns in a database file across reopen", func() {
			ctx := context.Background()
			path := filepath.Join(GinkgoT().TempDir(), "relay.db")

			d, err := sqlite.NewSQLiteDriver(ctx, path)
			Expect(err).NotTo(HaveOccurred())

			node := merkle.NewNode(testutils.NewTestBucket("chat", "hello"), nil)
			Expect(d.Put(ctx, node)).To(BeTrue())
			Expect(d.Close()).To(Succeed())

			d, err = sqlite.NewSQLiteDriver(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			head, err := d.Head(ctx, "chat")
			Expect(err).NotTo(HaveOccurred())
			Expect(head.Hash).To(Equal(node.Hash))
		})
	})
})
