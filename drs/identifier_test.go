package drs

import (
	"errors"
	"strings"
	"testing"
)

const testID = "cmip5.output1.INST.MODEL.historical.mon.atmos.Amon.r1i1p1"

func TestParseDatasetID(t *testing.T) {
	testCases := []struct {
		Name  string
		ID    string
		Error error
	}{
		{Name: "valid identifier", ID: testID},
		{Name: "too few components", ID: "cmip5.output1.INST.MODEL.mon.atmos.Amon.r1i1p1", Error: ErrMalformedIdentifier},
		{Name: "too many components", ID: testID + ".tas", Error: ErrMalformedIdentifier},
		{Name: "wrong project tag", ID: strings.Replace(testID, "cmip5", "cmip6", 1), Error: ErrMalformedIdentifier},
		{Name: "empty component", ID: "cmip5.output1..MODEL.historical.mon.atmos.Amon.r1i1p1", Error: ErrMalformedIdentifier},
	}
	for _, c := range testCases {
		t.Run(c.Name, func(t *testing.T) {
			f, err := ParseDatasetID(c.ID, DefaultSourceTag)
			if !errors.Is(err, c.Error) {
				t.Fatalf("Expected error %v but got %v", c.Error, err)
			}
			if err != nil {
				return
			}
			if f.Institute != "INST" || f.Experiment != "historical" || f.Ensemble != "r1i1p1" {
				t.Errorf("Unexpected facets %s", f)
			}
			if got := FormatDatasetID(f); got != c.ID {
				t.Errorf("Expected round trip to give %q but got %q", c.ID, got)
			}
		})
	}
}

func TestRemapIdentifier(t *testing.T) {
	f, err := ParseDatasetID(testID, DefaultSourceTag)
	if err != nil {
		t.Fatal(err)
	}
	f.Variable = "tas"
	got, err := RemapIdentifier(f, DefaultSourceTag, DefaultTargetTag)
	if err != nil {
		t.Fatal(err)
	}
	want := "cmip5_rt.output1.INST.MODEL.historical.mon.atmos.Amon.r1i1p1.tas"
	if got != want {
		t.Errorf("Expected %q but got %q", want, got)
	}

	oldParts := strings.Split(testID, ".")
	newParts := strings.Split(got, ".")
	if len(newParts) != 10 {
		t.Fatalf("Expected 10 components but got %d", len(newParts))
	}
	for i := 1; i < len(oldParts); i++ {
		if oldParts[i] != newParts[i] {
			t.Errorf("Component %d changed from %q to %q", i, oldParts[i], newParts[i])
		}
	}

	t.Run("missing variable", func(t *testing.T) {
		f.Variable = ""
		if _, err := RemapIdentifier(f, DefaultSourceTag, DefaultTargetTag); !errors.Is(err, ErrMalformedIdentifier) {
			t.Errorf("Expected ErrMalformedIdentifier but got %v", err)
		}
	})
	t.Run("unexpected tag", func(t *testing.T) {
		f.Variable = "tas"
		if _, err := RemapIdentifier(f, "cmip6", DefaultTargetTag); !errors.Is(err, ErrMalformedIdentifier) {
			t.Errorf("Expected ErrMalformedIdentifier but got %v", err)
		}
	})
}

func TestRemapLine(t *testing.T) {
	r := NewRemapper()
	line := testID + " | data/v20110101/tas/tas_Amon_MODEL_historical_r1i1p1_200001-200512.nc | 1234 | mod_time=1.0\n"

	id, out, err := r.RemapLine(line)
	if err != nil {
		t.Fatal(err)
	}
	wantID := "cmip5_rt.output1.INST.MODEL.historical.mon.atmos.Amon.r1i1p1.tas"
	if id != wantID {
		t.Errorf("Expected id %q but got %q", wantID, id)
	}
	wantLine := wantID + " | data/v20110101/tas/tas_Amon_MODEL_historical_r1i1p1_200001-200512.nc | 1234 | mod_time=1.0"
	if out != wantLine {
		t.Errorf("Expected line %q but got %q", wantLine, out)
	}

	testCases := []struct {
		Name  string
		Line  string
		Error error
	}{
		{Name: "bad version segment", Line: testID + " | data/latest/tas/tas.nc", Error: ErrMalformedPath},
		{Name: "short path", Line: testID + " | tas.nc", Error: ErrMalformedPath},
		{Name: "too few fields", Line: testID, Error: ErrMalformedIdentifier},
		{Name: "bad identifier", Line: "cmip5.output1 | data/v1/tas/tas.nc", Error: ErrMalformedIdentifier},
	}
	for _, c := range testCases {
		t.Run(c.Name, func(t *testing.T) {
			_, _, err := r.RemapLine(c.Line)
			if !errors.Is(err, c.Error) {
				t.Errorf("Expected error %v but got %v", c.Error, err)
			}
		})
	}
}

func TestKind(t *testing.T) {
	testCases := []struct {
		Err  error
		Kind string
	}{
		{Err: nil, Kind: ""},
		{Err: ErrMalformedIdentifier, Kind: KindMalformedIdentifier},
		{Err: errors.Join(errors.New("x"), ErrMalformedPath), Kind: KindMalformedPath},
		{Err: ErrAmbiguousLatest, Kind: KindAmbiguousLatest},
		{Err: ErrIOFailure, Kind: KindIOFailure},
		{Err: errors.New("boom"), Kind: KindUnknown},
	}
	for _, c := range testCases {
		if got := Kind(c.Err); got != c.Kind {
			t.Errorf("Kind(%v) = %q, expected %q", c.Err, got, c.Kind)
		}
	}
}
