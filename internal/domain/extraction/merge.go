package extraction

import "sort"

// MergeRecords deduplicates records sharing a code using an explicit
// precedence order:
//
//  1. table reference column
//  2. explicit "code NNNN" text markers
//  3. line-level code+caption+value patterns
//  4. caption-keyword inference
//
// A record from a higher-precedence tier is never replaced by a
// lower-precedence one. Within the same tier, the higher-confidence record
// wins; on equal confidence the first occurrence is kept. Output is sorted
// by code for deterministic downstream processing.
func MergeRecords(groups ...[]ExtractedCode) []ExtractedCode {
	best := map[string]ExtractedCode{}

	for _, group := range groups {
		for _, rec := range group {
			existing, seen := best[rec.Code]
			if !seen {
				best[rec.Code] = rec
				continue
			}
			if rec.tier < existing.tier {
				best[rec.Code] = rec
				continue
			}
			if rec.tier == existing.tier && rec.Confidence > existing.Confidence {
				best[rec.Code] = rec
			}
		}
	}

	out := make([]ExtractedCode, 0, len(best))
	for _, rec := range best {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
