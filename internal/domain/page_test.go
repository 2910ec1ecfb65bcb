package domain

import "testing"

func TestPaginate(t *testing.T) {
	items := []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0, -1, -2}

	first := Paginate(items, PageRequest{})
	if len(first.Content) != DefaultPageSize || !first.First || first.Last {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if first.TotalPages != 2 || first.TotalElements != 12 {
		t.Fatalf("unexpected totals: %+v", first)
	}

	second := Paginate(items, PageRequest{Page: 1})
	if len(second.Content) != 2 || second.First || !second.Last {
		t.Fatalf("unexpected second page: %+v", second)
	}

	beyond := Paginate(items, PageRequest{Page: 5, Size: 10})
	if len(beyond.Content) != 0 || !beyond.Last {
		t.Fatalf("unexpected page beyond range: %+v", beyond)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	got := PageRequest{Page: -1, Size: 1000}.Normalize()
	if got.Page != 0 || got.Size != MaxPageSize {
		t.Fatalf("unexpected normalize result: %+v", got)
	}
}

func TestMapPage(t *testing.T) {
	page := NewPage([]int{1, 2}, PageRequest{Size: 2}, 4)
	mapped := MapPage(page, func(v int) string { return string(rune('a' + v)) })

	if mapped.TotalElements != 4 || mapped.TotalPages != 2 || mapped.Content[1] != "c" {
		t.Fatalf("unexpected mapped page: %+v", mapped)
	}
}
