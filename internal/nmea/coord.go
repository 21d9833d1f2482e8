// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"fmt"
	"math"
	"strconv"
)

type Axis int

const (
	Latitude Axis = iota
	Longitude
)

// ToDecimal converts an NMEA degree-minute value (ddmm.mmmm or dddmm.mmmm)
// and its hemisphere letter to signed decimal degrees. Degrees and minutes
// are separated at the hundreds boundary, the field width is not checked.
// Only "S" and "W" flip the sign.
func ToDecimal(degreeMinutes string, hemisphere string) (decimal float64, err error) {
	if degreeMinutes == "" {
		err = fmt.Errorf("nmea.ToDecimal(): %w: degree string is empty", ErrEmptyInput)
		return
	}

	value, err := strconv.ParseFloat(degreeMinutes, 64)
	if err != nil {
		err = fmt.Errorf("nmea.ToDecimal(): %w: %w", ErrParse, err)
		return
	}

	degrees := math.Floor(value / 100)
	minutes := value - degrees*100
	decimal = degrees + minutes/60.0

	if hemisphere == "S" || hemisphere == "W" {
		decimal = -decimal
	}
	return
}

// FromDecimal is the inverse of ToDecimal. It returns the degree-minute string
// (two degree digits for latitude, three for longitude) and the hemisphere.
func FromDecimal(decimal float64, axis Axis) (degreeMinutes string, hemisphere string) {
	abs := math.Abs(decimal)
	degrees := math.Floor(abs)
	minutes := (abs - degrees) * 60

	switch axis {
	case Latitude:
		hemisphere = "N"
		if decimal < 0 {
			hemisphere = "S"
		}
		degreeMinutes = fmt.Sprintf("%02d%09.6f", int(degrees), minutes)
	case Longitude:
		hemisphere = "E"
		if decimal < 0 {
			hemisphere = "W"
		}
		degreeMinutes = fmt.Sprintf("%03d%09.6f", int(degrees), minutes)
	}
	return
}
