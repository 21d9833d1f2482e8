// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import "strings"

// Sentence is one comma-split NMEA line. The tag (e.g. "$GPGGA") is kept
// verbatim, Data holds the remaining fields in order. A trailing "*HH"
// checksum is not stripped and stays part of the last field.
type Sentence struct {
	Tag  string
	Data []string
}

func Split(line string) Sentence {
	parts := strings.Split(line, ",")
	return Sentence{
		Tag:  parts[0],
		Data: parts[1:],
	}
}

// Len is the number of fields including the tag.
func (s Sentence) Len() int {
	return len(s.Data) + 1
}

// Field returns field i, where field 0 is the tag. Out of range indexes
// return an empty string.
func (s Sentence) Field(i int) string {
	if i == 0 {
		return s.Tag
	}
	if i < 0 || i > len(s.Data) {
		return ""
	}
	return s.Data[i-1]
}

func (s Sentence) String() string {
	if len(s.Data) == 0 {
		return s.Tag
	}
	return s.Tag + "," + strings.Join(s.Data, ",")
}
