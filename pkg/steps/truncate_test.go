package steps_test

import (
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/steps"
)

var _ = Describe("Truncation", func() {
	Describe("TruncateFields", func() {
		It("cuts long strings at any depth and keeps structure", func() {
			long := strings.Repeat("á", 450)
			in := map[string]any{
				"short": "ok",
				"n":     7,
				"list":  []any{long, map[string]any{"deep": long}},
			}

			out := steps.TruncateFields(in).(map[string]any)
			Expect(out["short"]).To(Equal("ok"))
			Expect(out["n"]).To(Equal(7))

			list := out["list"].([]any)
			first := list[0].(string)
			Expect(utf8.RuneCountInString(first)).To(Equal(steps.MaxFieldChars + 1))
			Expect(first).To(HaveSuffix(steps.Ellipsis))
			Expect(list[1]).To(HaveKeyWithValue("deep", first))
		})

		It("does not modify its input", func() {
			long := strings.Repeat("x", 500)
			in := map[string]any{"s": long}
			steps.TruncateFields(in)
			Expect(in["s"]).To(Equal(long))
		})

		It("leaves a string of exactly the budget untouched", func() {
			s := strings.Repeat("x", steps.MaxFieldChars)
			Expect(steps.TruncateFields(s)).To(Equal(s))
		})
	})

	Describe("TruncateWords", func() {
		It("keeps the first 60 words of an 80 word text", func() {
			words := make([]string, 80)
			for i := range words {
				words[i] = "w"
			}

			out := steps.TruncateWords(strings.Join(words, " "))
			Expect(out).To(HaveSuffix(steps.Ellipsis))
			Expect(strings.Fields(strings.TrimSuffix(out, steps.Ellipsis))).To(HaveLen(steps.MaxRawWords))
		})

		It("returns short text unchanged", func() {
			Expect(steps.TruncateWords("uno  dos\ntres")).To(Equal("uno  dos\ntres"))
		})
	})
})
