// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import "fmt"

// KnotsToMetersPerSecond converts RMC speed over ground.
const KnotsToMetersPerSecond = 0.514444

// MinFields is the minimum number of fields, tag included, for every format.
const MinFields = 10

// Format is a supported sentence type.
type Format int

const (
	FormatGGA Format = iota
	FormatRMC
)

// absent marks a layout field the format does not carry.
const absent = -1

// Layout holds the field indexes of one format. Index 0 is the tag.
type Layout struct {
	Timestamp        int
	Latitude         int
	LatitudeHemi     int
	Longitude        int
	LongitudeHemi    int
	Altitude         int
	Speed            int
	SpeedMultiplier  float64
	RequiresAltitude bool
}

func (l Layout) HasAltitude() bool { return l.Altitude != absent }
func (l Layout) HasSpeed() bool    { return l.Speed != absent }

// ParseFormat looks up the format for a sentence tag such as "$GPGGA".
func ParseFormat(tag string) (f Format, err error) {
	switch tag {
	case "$GPGGA":
		f = FormatGGA
	case "$GPRMC":
		f = FormatRMC
	default:
		err = fmt.Errorf("nmea.ParseFormat(): %w: %q", ErrUnsupportedFormat, tag)
	}
	return
}

func (f Format) Tag() string {
	switch f {
	case FormatGGA:
		return "$GPGGA"
	case FormatRMC:
		return "$GPRMC"
	}
	panic(fmt.Sprintf("nmea: unknown format %d", int(f)))
}

func (f Format) String() string {
	switch f {
	case FormatGGA:
		return "GGA"
	case FormatRMC:
		return "RMC"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	switch string(text) {
	case "GGA":
		*f = FormatGGA
	case "RMC":
		*f = FormatRMC
	default:
		return fmt.Errorf("nmea.Format.UnmarshalText(): %w: %q", ErrUnsupportedFormat, text)
	}
	return nil
}

// Layout returns the field layout of the format.
func (f Format) Layout() Layout {
	switch f {
	case FormatGGA:
		// $GPGGA,time,lat,N/S,lon,E/W,quality,sats,hdop,alt,M,geoid,M,age,station
		return Layout{
			Timestamp:        1,
			Latitude:         2,
			LatitudeHemi:     3,
			Longitude:        4,
			LongitudeHemi:    5,
			Altitude:         9,
			Speed:            absent,
			RequiresAltitude: true,
		}
	case FormatRMC:
		// $GPRMC,time,status,lat,N/S,lon,E/W,speed(kn),course,date,...
		return Layout{
			Timestamp:       1,
			Latitude:        3,
			LatitudeHemi:    4,
			Longitude:       5,
			LongitudeHemi:   6,
			Altitude:        absent,
			Speed:           7,
			SpeedMultiplier: KnotsToMetersPerSecond,
		}
	}
	panic(fmt.Sprintf("nmea: unknown format %d", int(f)))
}
