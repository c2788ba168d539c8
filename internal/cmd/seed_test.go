package cmd

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/dendrascience/drsmap/drs"
	"go.uber.org/zap"
)

func TestRandomDates(t *testing.T) {
	dates, err := randomDates(50)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 50 {
		t.Fatalf("Expected 50 dates but got %d", len(dates))
	}
	if !sort.StringsAreSorted(dates) {
		t.Errorf("Dates are not sorted: %v", dates)
	}
	seen := make(map[string]bool)
	for _, d := range dates {
		if seen[d] {
			t.Errorf("Date %s drawn twice", d)
		}
		seen[d] = true
		if _, err := drs.VersionDate("v" + d); err != nil {
			t.Errorf("Date %s is not a valid version date: %v", d, err)
		}
	}

	all, err := randomDates(seedSpanDays)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != seedSpanDays {
		t.Errorf("Expected %d dates but got %d", seedSpanDays, len(all))
	}
}

func TestSeedVersionBounds(t *testing.T) {
	for _, n := range []int{0, -1, seedSpanDays + 1} {
		root := filepath.Join(t.TempDir(), "seed")
		_, err := seedArchive(root, seedOptions{models: []string{"M"}, variables: []string{"tas"}, versions: n}, zap.NewNop())
		if err == nil {
			t.Errorf("Expected an error for %d versions", n)
		}
		if _, err := os.Stat(root); !os.IsNotExist(err) {
			t.Errorf("Expected nothing created for %d versions", n)
		}
	}
	if _, err := randomDates(seedSpanDays + 1); err == nil {
		t.Error("Expected randomDates to reject more dates than its span")
	}
}
