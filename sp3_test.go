// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// pad extends a line with spaces up to width.
func pad(line string, width int) string {
	if len(line) < width {
		line += strings.Repeat(" ", width-len(line))
	}
	return line + "\n"
}

func sp3Fixture(posVel byte, body []string) string {
	var b strings.Builder
	b.WriteString(pad("#c"+string(posVel)+"2019  2 13  0  0  0.00000000 "+
		"     96 ORBIT IGS14 HLM  IGS", 60))
	b.WriteString(pad("## 2040 518400.00000000   900.00000000 58527 "+
		"0.0000000000000", 60))
	b.WriteString(pad("+    1   G01  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0", 61)[:61] + "\n")
	for i := 0; i < 4; i++ {
		b.WriteString(pad("+        0  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0", 60))
	}
	for i := 0; i < 5; i++ {
		b.WriteString(pad("++         2  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0", 61)[:61] + "\n")
	}
	b.WriteString(pad("%c M  cc GPS ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc", 60))
	b.WriteString(pad("%c cc cc ccc ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc", 60))
	b.WriteString(pad("%f  1.2500000  1.025000000  0.00000000000  0.000000000000000", 60))
	b.WriteString(pad("%f  0.0000000  0.000000000  0.00000000000  0.000000000000000", 60))
	b.WriteString(pad("%i    0    0    0    0      0      0      0      0         0", 60))
	b.WriteString(pad("%i    0    0    0    0      0      0      0      0         0", 60))
	for i := 0; i < 4; i++ {
		b.WriteString(pad("/* COMMENT", 60))
	}
	for _, line := range body {
		b.WriteString(line + "\n")
	}
	b.WriteString("EOF\n")
	return b.String()
}

// sp3PositionLine renders a 60 column position and clock row.
func sp3PositionLine(id string, x, y, z, clock string) string {
	line := "P" + id + x + y + z + clock
	if len(line) < 60 {
		line += strings.Repeat(" ", 60-len(line))
	}
	return line
}

func TestSP3PositionAndClock(t *testing.T) {
	body := []string{
		"*  2019  2 13  0  0  0.00000000",
		sp3PositionLine("G01", "  15000.000000", "      0.000000", "      0.000000",
			"      1.000000"),
	}
	path := writeTestFile(t, "test.sp3", sp3Fixture('P', body))

	product, err := Open(path, nil)
	require.NoError(t, err)
	defer product.Close()
	require.Equal(t, FormatSP3, product.Format)

	var cursor Cursor
	require.NoError(t, cursor.SetProduct(product))

	// header
	require.NoError(t, cursor.GotoRecordFieldByName("header"))
	require.NoError(t, cursor.GotoRecordFieldByName("pos_vel"))
	posVel, err := cursor.ReadString()
	require.NoError(t, err)
	require.Equal(t, "P", posVel)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("num_epochs"))
	numEpochs, err := cursor.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(96), numEpochs)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("gps_week"))
	gpsWeek, err := cursor.ReadInt16()
	require.NoError(t, err)
	require.Equal(t, int16(2040), gpsWeek)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("num_satellites"))
	numSatellites, err := cursor.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(1), numSatellites)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("sat_id"))
	require.NoError(t, cursor.GotoArrayElementByIndex(0))
	satID, err := cursor.ReadString()
	require.NoError(t, err)
	require.Equal(t, "G01", satID)
	require.NoError(t, cursor.GotoRoot())

	// body
	require.NoError(t, cursor.GotoRecordFieldByName("record"))
	numRecords, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(1), numRecords)
	require.NoError(t, cursor.GotoArrayElementByIndex(0))

	require.NoError(t, cursor.GotoRecordFieldByName("epoch"))
	epoch, err := cursor.ReadDouble()
	require.NoError(t, err)
	expected, err := TimePartsToDouble(2019, 2, 13, 0, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, expected, epoch)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("pos_clk"))
	numEntries, err := cursor.GetNumElements()
	require.NoError(t, err)
	require.Equal(t, int64(1), numEntries)
	require.NoError(t, cursor.GotoArrayElementByIndex(0))

	require.NoError(t, cursor.GotoRecordFieldByName("vehicle_id"))
	vehicleID, err := cursor.ReadString()
	require.NoError(t, err)
	require.Equal(t, "G01", vehicleID)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("x_coordinate"))
	x, err := cursor.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 15000.0, x)
	require.NoError(t, cursor.GotoParent())

	require.NoError(t, cursor.GotoRecordFieldByName("clock"))
	clock, err := cursor.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 1.0, clock)
	require.NoError(t, cursor.GotoParent())

	// blank standard deviation columns default to 0
	require.NoError(t, cursor.GotoRecordFieldByName("x_sdev"))
	xSdev, err := cursor.ReadInt8()
	require.NoError(t, err)
	require.Equal(t, int8(0), xSdev)
}

func TestSP3VelocityRejectedForPositionFile(t *testing.T) {
	body := []string{
		"*  2019  2 13  0  0  0.00000000",
		sp3PositionLine("G01", "  15000.000000", "      0.000000", "      0.000000",
			"      1.000000"),
		strings.Replace(sp3PositionLine("G01", "      1.000000", "      0.000000",
			"      0.000000", "      0.000000"), "P", "V", 1),
	}
	path := writeTestFile(t, "test_vel.sp3", sp3Fixture('P', body))

	_, err := Open(path, nil)
	require.ErrorIs(t, err, ErrFileRead)
}

func TestSP3Correlation(t *testing.T) {
	corr := "EP  " + "  12" + " " + "  12" + " " + "  12" + " " + "   1234" + " " +
		" 1234567" + " " + " 1234567" + " " + " 1234567" + " " + " 1234567" + " " +
		" 1234567" + " " + " 1234567"
	body := []string{
		"*  2019  2 13  0  0  0.00000000",
		sp3PositionLine("G01", "  15000.000000", "      0.000000", "      0.000000",
			"      1.000000"),
		corr,
	}
	path := writeTestFile(t, "test_corr.sp3", sp3Fixture('P', body))

	product, err := Open(path, nil)
	require.NoError(t, err)
	defer product.Close()

	var cursor Cursor
	require.NoError(t, cursor.SetProduct(product))
	require.NoError(t, cursor.GotoRecordFieldByName("record"))
	require.NoError(t, cursor.GotoArrayElementByIndex(0))
	require.NoError(t, cursor.GotoRecordFieldByName("pos_clk"))
	require.NoError(t, cursor.GotoArrayElementByIndex(0))
	require.NoError(t, cursor.GotoRecordFieldByName("corr"))

	require.NoError(t, cursor.GotoRecordFieldByName("x_sdev"))
	xSdev, err := cursor.ReadInt16()
	require.NoError(t, err)
	require.Equal(t, int16(12), xSdev)
}
