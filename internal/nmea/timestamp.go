// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Assembler combines an NMEA time of day with the calendar date of its clock.
// Any date carried by the sentence itself is not consulted.
type Assembler struct {
	// Now supplies the date and location. time.Now is used when nil.
	Now func() time.Time
}

// Assemble parses "HHMMSS.f", with a fraction of 1 to 9 digits, and places
// it on today's date in the clock's location.
func (a Assembler) Assemble(timeOfDay string) (t time.Time, err error) {
	hour, min, sec, nsec, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		err = fmt.Errorf("nmea.Assembler.Assemble(): %w", err)
		return
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	today := now()
	year, month, day := today.Date()

	t = time.Date(year, month, day, hour, min, sec, nsec, today.Location())
	return
}

func parseTimeOfDay(s string) (hour, min, sec, nsec int, err error) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if len(whole) != 6 || !allDigits(whole) || !hasFrac {
		err = fmt.Errorf("%w: time of day %q is not HHMMSS.f", ErrParse, s)
		return
	}
	if len(frac) == 0 || len(frac) > 9 || !allDigits(frac) {
		err = fmt.Errorf("%w: bad fractional seconds in %q", ErrParse, s)
		return
	}

	hour, _ = strconv.Atoi(whole[0:2])
	min, _ = strconv.Atoi(whole[2:4])
	sec, _ = strconv.Atoi(whole[4:6])
	if hour > 23 || min > 59 || sec > 60 {
		err = fmt.Errorf("%w: time of day %q out of range", ErrParse, s)
		return
	}

	// right-pad to nanoseconds
	nsec, _ = strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
	return
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
