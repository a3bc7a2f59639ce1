package repository

import (
	"strings"

	"github.com/samber/lo"
)

// lowerSet trims, lower-cases and dedupes filter values; blanks are dropped.
func lowerSet(in []string) []string {
	out := lo.Uniq(lo.FilterMap(in, func(item string, _ int) (string, bool) {
		v := strings.ToLower(strings.TrimSpace(item))
		return v, v != ""
	}))
	if len(out) == 0 {
		return nil
	}
	return out
}

func anyArgs(in []string) []any {
	return lo.ToAnySlice(in)
}
