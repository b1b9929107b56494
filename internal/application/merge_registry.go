package application

import "github.com/meridianhq/meridian-runtime/internal/domain"

// mergeFuncsByName names the domain.MergeFunc constructors a coalesce
// PolicyConfig can reference from YAML, since a MergeFunc itself cannot be
// expressed declaratively.
var mergeFuncsByName = map[string]domain.MergeFunc{
	"sum":          domain.SumMerge(),
	"max":          domain.MaxMerge(domain.TieKeepIncoming),
	"min":          domain.MinMerge(domain.TieKeepIncoming),
	"latest_wins":  domain.LatestWinsMerge(),
	"fuzzy_dedupe": domain.FuzzyDedupeMerge(0.9),
}

// lookupMergeFunc resolves a coalesce PolicyConfig's Merge name to a
// domain.MergeFunc.
func lookupMergeFunc(name string) (domain.MergeFunc, bool) {
	fn, ok := mergeFuncsByName[name]
	return fn, ok
}
