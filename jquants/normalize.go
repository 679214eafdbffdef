/*
Copyright 2022

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package jquants

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"
)

// Float is a numeric field that may be absent. J-Quants reports numbers
// inconsistently: as JSON numbers, as quoted strings, as empty strings or
// as null. Anything that does not parse to a finite number is absent.
type Float struct {
	Value float64
	Valid bool
}

// ParseFloat coerces a raw scalar to a Float. Malformed input yields an
// absent value, never an error.
func ParseFloat(raw string) Float {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Float{}
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return Float{}
	}
	return Float{Value: val, Valid: true}
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = Float{}
		return nil
	}
	*f = ParseFloat(strings.Trim(string(b), `"`))
	return nil
}

// arg returns the value in a form suitable as a query argument; absent
// values map to SQL NULL.
func (f Float) arg() interface{} {
	if !f.Valid {
		return nil
	}
	return f.Value
}

// Day is a calendar date that may be absent.
type Day struct {
	Time  time.Time
	Valid bool
}

// dayLayouts covers both representations the vendor has shipped: ISO dates
// in response bodies and the compact form used in query parameters.
var dayLayouts = []string{"2006-01-02", "20060102"}

// ParseDay coerces a raw scalar to a Day. Malformed input yields an absent
// value, never an error.
func ParseDay(raw string) Day {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Day{}
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Day{Time: t, Valid: true}
		}
	}
	return Day{}
}

func (d *Day) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Day{}
		return nil
	}
	*d = ParseDay(strings.Trim(string(b), `"`))
	return nil
}

func (d Day) arg() interface{} {
	if !d.Valid {
		return nil
	}
	return d.Time
}

// quarterMarkers in numeric order; first match wins.
var quarterMarkers = []string{"1Q", "2Q", "3Q", "4Q"}

// ClassifyQuarter maps a vendor period-type label ("1Q", "2Q", "FY", ...)
// to a fiscal quarter. Labels matching no marker (full-year reports and the
// like) report ok=false.
func ClassifyQuarter(periodLabel string) (quarter int, ok bool) {
	for i, marker := range quarterMarkers {
		if strings.Contains(periodLabel, marker) {
			return i + 1, true
		}
	}
	return 0, false
}
