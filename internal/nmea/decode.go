// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Fix is one decoded position. Altitude is nil for RMC and Speed is nil for
// GGA.
type Fix struct {
	Format    Format    `json:"format"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Altitude  *float64  `json:"altitude"` // meters
	Speed     *float64  `json:"speed"`    // meters/second
	Timestamp time.Time `json:"timestamp"`
}

// UnixSeconds returns the timestamp as fractional seconds since the Unix
// epoch.
func (f Fix) UnixSeconds() float64 {
	return float64(f.Timestamp.UnixNano()) / float64(time.Second)
}

// Decoder turns single GGA/RMC lines into fixes. The zero value uses the
// local wall clock and discards best-effort diagnostics.
type Decoder struct {
	Assembler Assembler
	Log       logrus.FieldLogger
}

func NewDecoder(log logrus.FieldLogger) *Decoder {
	return &Decoder{Log: log}
}

var defaultDecoder = &Decoder{Log: discardLogger()}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Decode decodes line with the wall clock, see Decoder.Decode.
func Decode(line string) (Fix, error) {
	return defaultDecoder.Decode(line)
}

// DecodeBestEffort decodes line with the wall clock, see
// Decoder.DecodeBestEffort.
func DecodeBestEffort(line string) *Fix {
	return defaultDecoder.DecodeBestEffort(line)
}

// Decode splits line, checks the fields required by its format and builds the
// fix. Returned errors wrap one of ErrEmptyInput, ErrParse,
// ErrUnsupportedFormat or ErrInsufficientData.
func (d *Decoder) Decode(line string) (fix Fix, err error) {
	s := Split(line)

	format, err := ParseFormat(s.Tag)
	if err != nil {
		err = fmt.Errorf("nmea.Decoder.Decode(): %w", err)
		return
	}
	layout := format.Layout()

	if err = validate(s, format, layout); err != nil {
		err = fmt.Errorf("nmea.Decoder.Decode(): %w", err)
		return
	}

	fix.Format = format
	fix.Latitude, err = ToDecimal(s.Field(layout.Latitude), s.Field(layout.LatitudeHemi))
	if err != nil {
		err = fmt.Errorf("nmea.Decoder.Decode(): latitude: %w", err)
		return
	}
	fix.Longitude, err = ToDecimal(s.Field(layout.Longitude), s.Field(layout.LongitudeHemi))
	if err != nil {
		err = fmt.Errorf("nmea.Decoder.Decode(): longitude: %w", err)
		return
	}

	if layout.HasAltitude() {
		var alt float64
		alt, err = parseFloat(s.Field(layout.Altitude))
		if err != nil {
			err = fmt.Errorf("nmea.Decoder.Decode(): altitude: %w", err)
			return
		}
		fix.Altitude = &alt
	}
	if layout.HasSpeed() {
		var speed float64
		speed, err = parseFloat(s.Field(layout.Speed))
		if err != nil {
			err = fmt.Errorf("nmea.Decoder.Decode(): speed: %w", err)
			return
		}
		speed *= layout.SpeedMultiplier
		fix.Speed = &speed
	}

	fix.Timestamp, err = d.Assembler.Assemble(s.Field(layout.Timestamp))
	if err != nil {
		err = fmt.Errorf("nmea.Decoder.Decode(): timestamp: %w", err)
		return
	}
	return
}

// DecodeBestEffort never fails: any decode error is logged and reported as a
// nil fix.
func (d *Decoder) DecodeBestEffort(line string) *Fix {
	fix, err := d.Decode(line)
	if err != nil {
		if d.Log != nil {
			entry := d.Log.WithFields(logrus.Fields{
				"kind": ErrorKind(err),
				"line": line,
			})
			// receivers interleave many other sentence types
			if errors.Is(err, ErrUnsupportedFormat) {
				entry.Debugf("skipping GPS data: %s", err)
			} else {
				entry.Errorf("error decoding GPS data: %s", err)
			}
		}
		return nil
	}
	return &fix
}

func validate(s Sentence, format Format, layout Layout) error {
	if s.Len() < MinFields {
		return fmt.Errorf("%w for %s: %d fields, need at least %d", ErrInsufficientData, format, s.Len(), MinFields)
	}

	required := []int{layout.Timestamp, layout.Latitude, layout.Longitude}
	if layout.RequiresAltitude {
		required = append(required, layout.Altitude)
	}
	for _, i := range required {
		if s.Field(i) == "" {
			return fmt.Errorf("%w for %s: field %d is empty", ErrInsufficientData, format, i)
		}
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return v, nil
}
