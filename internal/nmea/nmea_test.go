// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Test sentence splitting
func TestSplit(t *testing.T) {
	tables := []struct {
		in       string
		expected Sentence
	}{
		{"$GPGGA", Sentence{Tag: "$GPGGA", Data: []string{}}},
		{"$GPGGA,", Sentence{Tag: "$GPGGA", Data: []string{""}}},
		{"$GPRMC,1,A,,N*33", Sentence{Tag: "$GPRMC", Data: []string{"1", "A", "", "N*33"}}},
		{"", Sentence{Tag: "", Data: []string{}}},
	}

	for _, table := range tables {
		out := Split(table.in)
		if diff := cmp.Diff(table.expected, out); diff != "" {
			t.Errorf("%q mismatch (-want +got):\n%s", table.in, diff)
		}
	}
}

func TestSentenceField(t *testing.T) {
	s := Split("$GPGGA,a,b,,c")
	tables := []struct {
		in       int
		expected string
	}{
		{0, "$GPGGA"},
		{1, "a"},
		{3, ""},
		{4, "c"},
		{5, ""},
		{-1, ""},
	}

	if s.Len() != 5 {
		t.Errorf("expected 5 fields, got: %d", s.Len())
	}
	for _, table := range tables {
		out := s.Field(table.in)
		if out != table.expected {
			t.Errorf("field %d expected: %q, got: %q", table.in, table.expected, out)
		}
	}
}

// Test sentence stringer
func TestStringer(t *testing.T) {
	tables := []string{
		"$GPGGA",
		"$GPGGA,123519.487,3754.587,N,14507.036,W,1,08,0.9,545.4,M,46.9,M,,*47",
		"$GPRMC,123519.487,A,3754.587,N,14507.036,W,000.0,360.0,120419,,,D",
	}

	for _, in := range tables {
		out := Split(in).String()
		if out != in {
			t.Errorf("expected: %q, got: %q", in, out)
		}
	}
}
