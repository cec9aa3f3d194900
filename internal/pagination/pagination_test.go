package pagination

import "testing"

func TestRequest_Offset(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want int
	}{
		{"first page", Request{Page: 1, PageSize: 10}, 0},
		{"second page", Request{Page: 2, PageSize: 10}, 10},
		{"deletion shifts window back", Request{Page: 2, PageSize: 10, DeletedCount: 3}, 7},
		// Page one of five, two items deleted locally, then page two: the
		// window starts at 3 so the shifted rows are not skipped.
		{"comment page after deletes", Request{Page: 2, PageSize: 5, DeletedCount: 2}, 3},
		{"over-reported deletes clamp to zero", Request{Page: 1, PageSize: 10, DeletedCount: 25}, 0},
		{"zero page treated as first", Request{Page: 0, PageSize: 10}, 0},
		{"negative deleted count ignored", Request{Page: 2, PageSize: 10, DeletedCount: -4}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Offset(); got != tt.want {
				t.Errorf("Offset() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequest_Limit(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want int
	}{
		{"explicit size", Request{Page: 1, PageSize: 5}, 5},
		{"zero size falls back to default", Request{Page: 1}, DefaultPageSize},
		{"oversized clamps to max", Request{Page: 1, PageSize: 500}, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Limit(); got != tt.want {
				t.Errorf("Limit() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClampSkip(t *testing.T) {
	if got := ClampSkip(-5); got != 0 {
		t.Errorf("ClampSkip(-5) = %d, want 0", got)
	}
	if got := ClampSkip(15); got != 15 {
		t.Errorf("ClampSkip(15) = %d, want 15", got)
	}
}
