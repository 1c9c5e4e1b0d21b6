package domain

// PageMeta describes a page of available products.
type PageMeta struct {
	Page     int
	Total    int64
	LastPage int64
}

// Offset returns the number of rows to skip for page. It does not clamp:
// bounds are checked by the transports.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// NewPageMeta computes lastPage as ceil(total / limit). A non-positive
// limit yields lastPage 0.
func NewPageMeta(page, limit int, total int64) PageMeta {
	meta := PageMeta{Page: page, Total: total}
	if limit <= 0 || total <= 0 {
		return meta
	}
	l := int64(limit)
	meta.LastPage = (total + l - 1) / l
	return meta
}

// UniqueIDs drops duplicate identifiers, keeping first occurrences.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
