package database

import (
	"strings"
	"testing"
)

func TestArticleFilterConds(t *testing.T) {
	t.Run("empty filter", func(t *testing.T) {
		conds, args := ArticleFilter{}.conds()
		if len(conds) != 0 || len(args) != 0 {
			t.Errorf("conds = %v, args = %v", conds, args)
		}
	})

	t.Run("text search spans all searchable columns", func(t *testing.T) {
		conds, args := ArticleFilter{Query: "taiwan"}.conds()
		if len(conds) != 1 {
			t.Fatalf("conds = %v", conds)
		}
		for _, col := range []string{"title", "summary", "content_en", "content_zh", "source_name"} {
			if !strings.Contains(conds[0], col+" ILIKE") {
				t.Errorf("text search missing column %s: %s", col, conds[0])
			}
		}
		if len(args) != 1 || args[0] != "%taiwan%" {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("all filters combined", func(t *testing.T) {
		conds, args := ArticleFilter{
			ChinaOnly: true,
			Query:     "drills",
			Country:   "taiwan",
			Topic:     "war-security",
		}.conds()
		if len(conds) != 4 {
			t.Fatalf("conds = %v", conds)
		}
		if conds[0] != "china_related = TRUE" {
			t.Errorf("china cond = %q", conds[0])
		}
		want := []any{"%drills%", "%|taiwan|%", "%|war-security|%"}
		if len(args) != len(want) {
			t.Fatalf("args = %v", args)
		}
		for i := range want {
			if args[i] != want[i] {
				t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
			}
		}
	})

	t.Run("blank query is ignored", func(t *testing.T) {
		conds, args := ArticleFilter{Query: "   "}.conds()
		if len(conds) != 0 || len(args) != 0 {
			t.Errorf("conds = %v, args = %v", conds, args)
		}
	})
}
