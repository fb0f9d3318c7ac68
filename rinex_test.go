// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// headerLine pads content to column 60 and appends the label.
func headerLine(content, label string) string {
	if len(content) < 60 {
		content += strings.Repeat(" ", 60-len(content))
	}
	return content + label + "\n"
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func rinexObservationFixture() string {
	var b strings.Builder
	b.WriteString(headerLine("     3.00           OBSERVATION DATA    G (GPS)", "RINEX VERSION / TYPE"))
	b.WriteString(headerLine("test                agency              20200101 000000 UTC", "PGM / RUN BY / DATE"))
	b.WriteString(headerLine("STATION1", "MARKER NAME"))
	b.WriteString(headerLine("observer            agency", "OBSERVER / AGENCY"))
	b.WriteString(headerLine("12345               RCVR                1.0", "REC # / TYPE / VERS"))
	b.WriteString(headerLine("67890               ANT", "ANT # / TYPE"))
	b.WriteString(headerLine("        0.0000        0.0000        0.0000", "ANTENNA: DELTA H/E/N"))
	b.WriteString(headerLine("G    1 C1C", "SYS / # / OBS TYPES"))
	b.WriteString(headerLine("  2020    01    01    00    00    0.0000000     GPS", "TIME OF FIRST OBS"))
	b.WriteString(headerLine("", "END OF HEADER"))
	b.WriteString("> 2020 01 01 00 00  0.0000000  0  1\n")
	b.WriteString("G01  20000000.000  0  0\n")
	return b.String()
}

func TestRINEXObservation(t *testing.T) {
	path := writeTestFile(t, "test.rnx", rinexObservationFixture())

	product, err := Open(path, nil)
	require.NoError(t, err)
	defer product.Close()
	require.Equal(t, FormatRINEX, product.Format)

	var cursor Cursor
	require.NoError(t, cursor.SetProduct(product))

	// header fields
	require.NoError(t, cursor.GotoRecordFieldByName("header"))
	require.NoError(t, cursor.GotoRecordFieldByName("format_version"))
	version, err := cursor.ReadFloat()
	require.NoError(t, err)
	require.Equal(t, float32(3.0), version)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("file_type"))
	fileType, err := cursor.ReadChar()
	require.NoError(t, err)
	require.Equal(t, byte('O'), fileType)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("marker_name"))
	markerName, err := cursor.ReadString()
	require.NoError(t, err)
	require.Equal(t, "STATION1", markerName)
	require.NoError(t, cursor.GotoParent())

	// /header/sys[0]
	require.NoError(t, cursor.GotoRecordFieldByName("sys"))
	numSys, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(1), numSys)
	require.NoError(t, cursor.GotoArrayElementByIndex(0))
	require.NoError(t, cursor.GotoRecordFieldByName("code"))
	code, err := cursor.ReadChar()
	require.NoError(t, err)
	require.Equal(t, byte('G'), code)
	require.NoError(t, cursor.GotoParent())
	require.NoError(t, cursor.GotoRecordFieldByName("descriptor"))
	require.NoError(t, cursor.GotoArrayElementByIndex(0))
	descriptor, err := cursor.ReadString()
	require.NoError(t, err)
	require.Equal(t, "C1C", descriptor)
	require.NoError(t, cursor.GotoRoot())

	// /record[0]
	require.NoError(t, cursor.GotoRecordFieldByName("record"))
	numRecords, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(1), numRecords)
	require.NoError(t, cursor.GotoArrayElementByIndex(0))

	require.NoError(t, cursor.GotoRecordFieldByName("flag"))
	flag, err := cursor.ReadChar()
	require.NoError(t, err)
	require.Equal(t, byte('0'), flag)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("epoch"))
	epoch, err := cursor.ReadDouble()
	require.NoError(t, err)
	expected, err := TimePartsToDouble(2020, 1, 1, 0, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, expected, epoch)
	require.NoError(t, cursor.GotoParent())

	// /record[0]/gps[0]
	require.NoError(t, cursor.GotoRecordFieldByName("gps"))
	numSats, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(1), numSats)
	require.NoError(t, cursor.GotoArrayElementByIndex(0))

	require.NoError(t, cursor.GotoRecordFieldByName("number"))
	number, err := cursor.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(1), number)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("C1C"))
	require.NoError(t, cursor.GotoRecordFieldByName("observation"))
	observation, err := cursor.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 20000000.0, observation)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("lli"))
	lli, err := cursor.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0), lli)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("signal_strength"))
	signalStrength, err := cursor.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0), signalStrength)
}

func TestRINEXObservationSkipsFlaggedEpoch(t *testing.T) {
	var b strings.Builder
	fixture := rinexObservationFixture()
	b.WriteString(fixture)
	// a special event epoch whose lines are consumed without ingestion
	b.WriteString("> 2020 01 01 00 30  0.0000000  4  1\n")
	b.WriteString("this line is skipped\n")
	path := writeTestFile(t, "flagged.rnx", b.String())

	product, err := Open(path, nil)
	require.NoError(t, err)
	defer product.Close()

	var cursor Cursor
	require.NoError(t, cursor.SetProduct(product))
	require.NoError(t, cursor.GotoRecordFieldByName("record"))
	numRecords, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(2), numRecords)

	require.NoError(t, cursor.GotoArrayElementByIndex(1))
	require.NoError(t, cursor.GotoRecordFieldByName("flag"))
	flag, err := cursor.ReadChar()
	require.NoError(t, err)
	require.Equal(t, byte('4'), flag)
	require.NoError(t, cursor.GotoParent())
	// the flagged epoch has an empty per-system array
	require.NoError(t, cursor.GotoRecordFieldByName("gps"))
	numSats, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(0), numSats)
}

// navRecordLines renders a navigation record: the first line carries the
// satellite id, epoch and three values; continuations carry four values
// each in 19 character columns starting at column 4.
func navRecordLines(prefix string, values []float64) string {
	var b strings.Builder
	b.WriteString(prefix)
	for i, v := range values {
		if (i+1)%4 == 0 {
			b.WriteString("\n    ")
		}
		b.WriteString(fmt.Sprintf("%19.12E", v))
	}
	b.WriteString("\n")
	return b.String()
}

func TestRINEXNavigation(t *testing.T) {
	values := make([]float64, 29)
	for i := range values {
		values[i] = float64(i + 1)
	}

	var b strings.Builder
	b.WriteString(headerLine("     3.00           NAVIGATION DATA     G (GPS)", "RINEX VERSION / TYPE"))
	b.WriteString(headerLine("test                agency              20200101 000000 UTC", "PGM / RUN BY / DATE"))
	b.WriteString(headerLine("    18", "LEAP SECONDS"))
	b.WriteString(headerLine("", "END OF HEADER"))
	b.WriteString(navRecordLines("G01 2020 01 01 00 00 00", values))
	path := writeTestFile(t, "test_nav.rnx", b.String())

	product, err := Open(path, nil)
	require.NoError(t, err)
	defer product.Close()

	var cursor Cursor
	require.NoError(t, cursor.SetProduct(product))

	require.NoError(t, cursor.GotoRecordFieldByName("header"))
	require.NoError(t, cursor.GotoRecordFieldByName("leap_seconds"))
	leapSeconds, err := cursor.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(18), leapSeconds)
	require.NoError(t, cursor.GotoRoot())

	require.NoError(t, cursor.GotoRecordFieldByName("gps"))
	numRecords, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(1), numRecords)
	require.NoError(t, cursor.GotoArrayElementByIndex(0))

	require.NoError(t, cursor.GotoRecordFieldByName("number"))
	number, err := cursor.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(1), number)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("sv_clock_bias"))
	bias, err := cursor.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 1.0, bias)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("fit_interval"))
	fitInterval, err := cursor.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 29.0, fitInterval)
	require.NoError(t, cursor.GotoParent())

	// the empty per-system arrays are still present
	require.NoError(t, cursor.GotoRoot())
	require.NoError(t, cursor.GotoRecordFieldByName("glonass"))
	numGlonass, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(0), numGlonass)
}

func TestRINEXClock(t *testing.T) {
	var b strings.Builder
	b.WriteString(headerLine("     3.00           CLOCK DATA          G (GPS)", "RINEX VERSION / TYPE"))
	b.WriteString(headerLine("test                agency              20200101 000000 UTC", "PGM / RUN BY / DATE"))
	b.WriteString(headerLine("", "END OF HEADER"))
	record := "AR AREQ 2017 05 01 00 00  0.000000  2   " +
		" 1.000000000000E-09 " + " 2.000000000000E-10"
	b.WriteString(record + "\n")
	path := writeTestFile(t, "test_clk.rnx", b.String())

	product, err := Open(path, nil)
	require.NoError(t, err)
	defer product.Close()

	var cursor Cursor
	require.NoError(t, cursor.SetProduct(product))
	require.NoError(t, cursor.GotoRecordFieldByName("record"))
	numRecords, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(1), numRecords)
	require.NoError(t, cursor.GotoArrayElementByIndex(0))

	require.NoError(t, cursor.GotoRecordFieldByName("type"))
	clkType, err := cursor.ReadString()
	require.NoError(t, err)
	require.Equal(t, "AR", clkType)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("name"))
	name, err := cursor.ReadString()
	require.NoError(t, err)
	require.Equal(t, "AREQ", name)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("bias"))
	bias, err := cursor.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 1e-09, bias)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("bias_sigma"))
	biasSigma, err := cursor.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 2e-10, biasSigma)
}

func TestRINEXUnsupportedVersion(t *testing.T) {
	content := headerLine("     2.11           OBSERVATION DATA    G (GPS)", "RINEX VERSION / TYPE")
	path := writeTestFile(t, "old.rnx", content)

	_, err := Open(path, nil)
	require.ErrorIs(t, err, ErrUnsupportedProduct)
}
