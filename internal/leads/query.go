package leads

import (
	"sort"
	"strings"
)

// DefaultPageSize matches the dashboard table.
const DefaultPageSize = 10

// Sortable columns.
const (
	SortByID            = "id"
	SortByName          = "name"
	SortByPhone         = "phone"
	SortByIndustry      = "industry"
	SortByCity          = "city"
	SortByStatus        = "status"
	SortByQualification = "qualification_status"
	SortByEmployees     = "employee_count"
	SortByCreatedAt     = "created_at"
)

// SortState is the current sort column and direction of a lead table.
type SortState struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Toggle returns the state after a click on field: the same column flips
// direction, a new column starts ascending.
func (s SortState) Toggle(field string) SortState {
	if field == s.Field {
		return SortState{Field: field, Desc: !s.Desc}
	}
	return SortState{Field: field}
}

// Query is the in-memory filter, sort and page selection over a lead list.
type Query struct {
	Search        string
	Status        string
	Qualification string
	Industry      string
	Sort          SortState
	Page          int
	PageSize      int
}

// Page is one slice of a filtered, sorted lead list.
type Page struct {
	Items    []*Lead `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Pages    int     `json:"pages"`
}

// PageCount is ceil(total / size); a non-positive size uses DefaultPageSize.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Filter keeps the leads matching every non-empty criterion in q.
func Filter(list []*Lead, q Query) []*Lead {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]*Lead, 0, len(list))
	for _, l := range list {
		if l == nil {
			continue
		}
		if q.Status != "" && l.Status != q.Status {
			continue
		}
		if q.Qualification != "" && l.QualificationStatus != q.Qualification {
			continue
		}
		if q.Industry != "" && !strings.EqualFold(l.IndustryLabel(), q.Industry) {
			continue
		}
		if search != "" && !matchesSearch(l, search) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesSearch(l *Lead, needle string) bool {
	for _, hay := range []string{l.Name, l.Phone, l.Category, l.Industry, l.Address, l.City, l.State} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// Sort orders list in place by s; ties fall back to ascending id.
func Sort(list []*Lead, s SortState) {
	if s.Field == "" {
		return
	}
	less := comparator(s.Field)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		c := less(a, b)
		if c == 0 {
			return a.ID < b.ID
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

func comparator(field string) func(a, b *Lead) int {
	str := func(get func(*Lead) string) func(a, b *Lead) int {
		return func(a, b *Lead) int {
			return strings.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
		}
	}
	switch field {
	case SortByName:
		return str(func(l *Lead) string { return l.Name })
	case SortByPhone:
		return str(func(l *Lead) string { return l.Phone })
	case SortByIndustry:
		return str(func(l *Lead) string { return l.IndustryLabel() })
	case SortByCity:
		return str(func(l *Lead) string { return l.City })
	case SortByStatus:
		return str(func(l *Lead) string { return l.Status })
	case SortByQualification:
		return str(func(l *Lead) string { return l.QualificationStatus })
	case SortByEmployees:
		return func(a, b *Lead) int { return a.EmployeeCount - b.EmployeeCount }
	case SortByCreatedAt:
		return func(a, b *Lead) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return func(a, b *Lead) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		}
	}
}

// Apply runs filter, sort and paginate in that order. The requested page is
// clamped into [1, Pages].
func Apply(list []*Lead, q Query) Page {
	filtered := Filter(list, q)
	Sort(filtered, q.Sort)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := PageCount(len(filtered), size)
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = max(pages, 1)
	}

	start := (page - 1) * size
	end := start + size
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page{
		Items:    filtered[start:end],
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
		Pages:    pages,
	}
}
