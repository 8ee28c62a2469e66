package main

import (
	"strings"
	"testing"
)

func TestRenderTableKeepsFooterCase(t *testing.T) {
	out := tableSpec{
		headers: []string{"Day", "Files", "Size"},
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight},
		rows:    [][]string{{"2024-03-09", "1", "172 KiB"}},
		footer:  []string{"Total", "1", "172 KiB"},
	}.render()

	if strings.Contains(out, "TOTAL") || strings.Contains(out, "KIB") {
		t.Fatalf("footer was upper-cased:\n%s", out)
	}
	if !strings.Contains(out, "Total") || strings.Count(out, "172 KiB") != 2 {
		t.Fatalf("unexpected table:\n%s", out)
	}
}
