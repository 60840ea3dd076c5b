package sanitizer

import "github.com/samber/lo"

// SanitizeIDs drops repeated ids, keeping first-seen order. Non-positive ids
// are kept so that validation reports them.
func SanitizeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return []int64{}
	}
	return lo.Uniq(ids)
}
