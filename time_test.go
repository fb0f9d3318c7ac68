// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"testing"
)

func TestDmyToMJD2000(t *testing.T) {

	tests := []struct {
		day, month, year int
		out              int
	}{
		{1, 1, -4713, -2451545},
		{31, 12, -1, -730122},
		{1, 1, 1, -730121},
		{1, 1, 100, -693962},
		{4, 10, 1586, -150924},
		{2, 9, 1752, -90324},
		{14, 9, 1752, -90323},
		{17, 11, 1858, -51544},
		{1, 1, 1950, -18262},
		{1, 1, 1970, -10957},
		{1, 1, 2000, 0},
		{31, 12, 2501, 183351},
	}

	for _, tt := range tests {
		got, err := dmyToMJD2000(tt.day, tt.month, tt.year)
		if err != nil {
			t.Fatalf("dmyToMJD2000(%d-%d-%d) failed: %v", tt.day, tt.month, tt.year, err)
		}
		if got != tt.out {
			t.Errorf("dmyToMJD2000(%d-%d-%d) got %d, want %d",
				tt.day, tt.month, tt.year, got, tt.out)
		}
	}
}

func TestDmyToMJD2000Invalid(t *testing.T) {
	// the year zero and the dates removed by the calendar transition do
	// not exist
	for _, date := range []struct{ day, month, year int }{
		{1, 1, 0},
		{3, 9, 1752},
		{13, 9, 1752},
		{29, 2, 1900},
		{32, 1, 2000},
	} {
		if _, err := dmyToMJD2000(date.day, date.month, date.year); err == nil {
			t.Errorf("dmyToMJD2000(%d-%d-%d) did not fail", date.day, date.month, date.year)
		}
	}
}

func TestTimePartsToDoubleRoundTrip(t *testing.T) {

	tests := []struct {
		year, month, day, hour, minute, second, musec int
	}{
		{2000, 1, 1, 0, 0, 0, 0},
		{2008, 12, 31, 23, 59, 59, 999999},
		{1970, 1, 1, 0, 0, 0, 0},
		{1752, 9, 2, 12, 0, 0, 1},
		{2012, 2, 29, 6, 30, 15, 500000},
	}

	for _, tt := range tests {
		datetime, err := TimePartsToDouble(tt.year, tt.month, tt.day, tt.hour,
			tt.minute, tt.second, tt.musec)
		if err != nil {
			t.Fatalf("TimePartsToDouble failed: %v", err)
		}
		year, month, day, hour, minute, second, musec, err := TimeDoubleToParts(datetime)
		if err != nil {
			t.Fatalf("TimeDoubleToParts failed: %v", err)
		}
		if year != tt.year || month != tt.month || day != tt.day || hour != tt.hour ||
			minute != tt.minute || second != tt.second || musec != tt.musec {
			t.Errorf("round trip of %v got %d-%02d-%02d %02d:%02d:%02d.%06d",
				tt, year, month, day, hour, minute, second, musec)
		}
	}
}

func TestTimePartsToDoubleUTCLeapSecond(t *testing.T) {

	tests := []struct {
		year, month, day, hour, minute, second, musec int
		datetime                                      float64
	}{
		{1972, 1, 1, 0, 0, 0, 0, -883612790},
		{2000, 1, 1, 0, 0, 0, 0, 32},
		{2008, 12, 31, 23, 59, 59, 0, 284083232},
		{2008, 12, 31, 23, 59, 60, 0, 284083233},
		{2009, 1, 1, 0, 0, 0, 0, 284083234},
	}

	for _, tt := range tests {
		datetime, err := TimePartsToDoubleUTC(tt.year, tt.month, tt.day, tt.hour,
			tt.minute, tt.second, tt.musec)
		if err != nil {
			t.Fatalf("TimePartsToDoubleUTC failed: %v", err)
		}
		if datetime != tt.datetime {
			t.Errorf("TimePartsToDoubleUTC(%v) got %f, want %f", tt, datetime, tt.datetime)
		}

		year, month, day, hour, minute, second, musec, err := TimeDoubleToPartsUTC(tt.datetime)
		if err != nil {
			t.Fatalf("TimeDoubleToPartsUTC failed: %v", err)
		}
		if year != tt.year || month != tt.month || day != tt.day || hour != tt.hour ||
			minute != tt.minute || second != tt.second || musec != tt.musec {
			t.Errorf("TimeDoubleToPartsUTC(%f) got %d-%02d-%02d %02d:%02d:%02d.%06d, want %v",
				tt.datetime, year, month, day, hour, minute, second, musec, tt)
		}
	}
}

func TestTimePartsToString(t *testing.T) {

	tests := []struct {
		format string
		out    string
	}{
		{"yyyy-MM-dd HH:mm:ss", "2008-12-31 23:59:60"},
		{"yyyy-MM-dd'T'HH:mm:ss.SSS", "2008-12-31T23:59:60.123"},
		{"dd-MMM-yyyy", "31-DEC-2008"},
		{"yyyyDDD", "2008366"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := TimePartsToString(2008, 12, 31, 23, 59, 60, 123456, tt.format)
			if err != nil {
				t.Fatalf("TimePartsToString(%s) failed: %v", tt.format, err)
			}
			if got != tt.out {
				t.Errorf("TimePartsToString(%s) got %q, want %q", tt.format, got, tt.out)
			}
		})
	}
}

func TestTimeStringToParts(t *testing.T) {

	tests := []struct {
		format string
		str    string
		year   int
		month  int
		day    int
		hour   int
		minute int
		second int
		musec  int
	}{
		{"yyyy-MM-dd HH:mm:ss", "2020-01-02 03:04:05", 2020, 1, 2, 3, 4, 5, 0},
		{"yyyy MM dd HH mm ss*.SSSSSSS", "2020 01 01 00 00  0.0000000", 2020, 1, 1, 0, 0, 0, 0},
		{"dd-MMM-yyyy", "15-jun-1999", 1999, 6, 15, 0, 0, 0, 0},
		{"yyyyDDD", "2004061", 2004, 3, 1, 0, 0, 0, 0},
		{"yyyy-MM-dd|dd-MMM-yyyy", "01-JAN-2001", 2001, 1, 1, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			year, month, day, hour, minute, second, musec, err := TimeStringToParts(tt.format, tt.str)
			if err != nil {
				t.Fatalf("TimeStringToParts(%s, %s) failed: %v", tt.format, tt.str, err)
			}
			if year != tt.year || month != tt.month || day != tt.day || hour != tt.hour ||
				minute != tt.minute || second != tt.second || musec != tt.musec {
				t.Errorf("TimeStringToParts(%s, %s) got %d-%02d-%02d %02d:%02d:%02d.%06d",
					tt.format, tt.str, year, month, day, hour, minute, second, musec)
			}
		})
	}
}

func TestTimeStringToPartsInvalid(t *testing.T) {
	for _, tt := range []struct{ format, str string }{
		{"yyyy-MM-dd", "2020/01/01"},
		{"yyyy-MM-dd", "2020-01-01 extra"},
		{"yyyy-MM-dd", "20-01-01"},
		{"yyyy-MM-dd|yyyyMMdd", "2020.01.01"},
	} {
		if _, _, _, _, _, _, _, err := TimeStringToParts(tt.format, tt.str); err == nil {
			t.Errorf("TimeStringToParts(%s, %s) did not fail", tt.format, tt.str)
		}
	}
}

// parts -> string -> parts is the identity for simple patterns
func TestTimeStringRoundTrip(t *testing.T) {
	const format = "yyyy-MM-dd HH:mm:ss.SSSSSS"
	str, err := TimePartsToString(1999, 7, 16, 4, 30, 59, 123456, format)
	if err != nil {
		t.Fatal(err)
	}
	year, month, day, hour, minute, second, musec, err := TimeStringToParts(format, str)
	if err != nil {
		t.Fatal(err)
	}
	if year != 1999 || month != 7 || day != 16 || hour != 4 || minute != 30 ||
		second != 59 || musec != 123456 {
		t.Errorf("round trip got %d-%02d-%02d %02d:%02d:%02d.%06d",
			year, month, day, hour, minute, second, musec)
	}
}

func TestMonthToInteger(t *testing.T) {
	for i, name := range []string{"jan", "FEB", "Mar", "apr", "MAY", "jun",
		"JUL", "aug", "sep", "OCT", "nov", "DEC"} {
		month, err := MonthToInteger(name)
		if err != nil {
			t.Fatalf("MonthToInteger(%s) failed: %v", name, err)
		}
		if month != i+1 {
			t.Errorf("MonthToInteger(%s) got %d, want %d", name, month, i+1)
		}
	}
	if _, err := MonthToInteger("xyz"); err == nil {
		t.Error("MonthToInteger(xyz) did not fail")
	}
}

func TestDayOfYearToMonthDay(t *testing.T) {

	tests := []struct {
		year, dayOfYear, month, day int
	}{
		{2000, 1, 1, 1},
		{2000, 61, 3, 1},
		{2001, 61, 3, 2},
		{2000, 366, 12, 31},
	}

	for _, tt := range tests {
		month, day, err := DayOfYearToMonthDay(tt.year, tt.dayOfYear)
		if err != nil {
			t.Fatalf("DayOfYearToMonthDay(%d, %d) failed: %v", tt.year, tt.dayOfYear, err)
		}
		if month != tt.month || day != tt.day {
			t.Errorf("DayOfYearToMonthDay(%d, %d) got %d/%d, want %d/%d",
				tt.year, tt.dayOfYear, month, day, tt.month, tt.day)
		}
	}
}
