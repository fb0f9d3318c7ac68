// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// sp3EpochFormat is the pattern of the 28 character SP3 epoch field.
const sp3EpochFormat = "yyyy MM* dd* HH* mm* ss*.SSSSSSSS"

// sp3Types is the static type graph shared by all SP3 products, built once
// per process.
type sp3Types struct {
	posVel           *TextType
	datetimeStartStr *TextType
	datetimeStart    *SpecialType
	numEpochs        *NumberType
	dataUsed         *TextType
	coordinateSys    *TextType
	orbitType        *TextType
	agency           *TextType
	gpsWeek          *NumberType
	secOfWeek        *NumberType
	epochInterval    *NumberType
	mjdStart         *NumberType
	fracDay          *NumberType
	numSatellites    *NumberType
	satID            *TextType
	satIDArray       *ArrayType
	satAccuracy      *NumberType
	satAccuracyArr   *ArrayType
	fileType         *TextType
	timeSystem       *TextType
	basePosVel       *NumberType
	baseClkRate      *NumberType

	vehicleID *TextType

	pXCoordinate   *NumberType
	pYCoordinate   *NumberType
	pZCoordinate   *NumberType
	pClock         *NumberType
	pXSdev         *NumberType
	pYSdev         *NumberType
	pZSdev         *NumberType
	pClockSdev     *NumberType
	pClockEvent    *TextType
	pClockPred     *TextType
	pManeuver      *TextType
	pOrbitPred     *TextType
	pCorrSdev      *NumberType
	pCorrClockSdev *NumberType
	pCorrValue     *NumberType
	pCorr          *RecordType

	vXVelocity     *NumberType
	vYVelocity     *NumberType
	vZVelocity     *NumberType
	vClockRate     *NumberType
	vVelSdev       *NumberType
	vClkRateSdev   *NumberType
	vCorrSdev      *NumberType
	vCorrClkSdev   *NumberType
	vCorrValue     *NumberType
	vCorr          *RecordType

	epochString  *TextType
	epoch        *SpecialType
	posClk       *RecordType
	posClkArray  *ArrayType
	velRate      *RecordType
	velRateArray *ArrayType

	header  *RecordType
	record  *RecordType
	records *ArrayType
	file    *RecordType
}

var (
	sp3Once sync.Once
	sp3     *sp3Types
)

func sp3Text(description string) *TextType {
	t := NewTextType(FormatSP3)
	if description != "" {
		SetDescription(t, description)
	}
	return t
}

func sp3Double(unit, description string) *NumberType {
	t := NewNumberType(FormatSP3, RealClass)
	if unit != "" {
		t.SetUnit(unit)
	}
	if description != "" {
		SetDescription(t, description)
	}
	return t
}

func sp3Int(readType NativeType, unit, description string) *NumberType {
	t := NewNumberType(FormatSP3, IntegerClass)
	t.SetReadType(readType)
	if unit != "" {
		t.SetUnit(unit)
	}
	if description != "" {
		SetDescription(t, description)
	}
	return t
}

func sp3VarArray(base Type) *ArrayType {
	t := NewArrayType(FormatSP3)
	t.AddVariableDimension() //nolint:errcheck
	t.SetBaseType(base)
	return t
}

func sp3Init() *sp3Types {
	sp3Once.Do(func() {
		t := &sp3Types{}

		t.posVel = sp3Text("Position or velocity flag: P = no velocities are included, " +
			"V = velocities are included")
		t.datetimeStartStr = sp3Text("")
		t.datetimeStart = NewTimeType(FormatSP3, newTimeExpression(sp3EpochFormat))
		t.datetimeStart.SetBaseType(t.datetimeStartStr)
		SetDescription(t.datetimeStart, "Date and time of the first epoch of the orbit")
		t.numEpochs = sp3Int(NativeTypeInt32, "", "Number of epochs in the ephemeris file")
		t.dataUsed = sp3Text("Data used descriptor")
		t.coordinateSys = sp3Text("Coordinate system")
		t.orbitType = sp3Text("Orbit type")
		t.agency = sp3Text("Agency generating the file")
		t.gpsWeek = sp3Int(NativeTypeInt16, "week", "GPS week of the first epoch")
		t.secOfWeek = sp3Double("s", "Seconds of the GPS week elapsed at the first epoch")
		t.epochInterval = sp3Double("s", "Epoch interval")
		t.mjdStart = sp3Int(NativeTypeInt32, "days", "Modified Julian Day of the first epoch")
		t.fracDay = sp3Double("days", "Fractional day at the start of the first epoch")
		t.numSatellites = sp3Int(NativeTypeUint8, "", "Number of satellites in the file")
		t.satID = sp3Text("Satellite identifier")
		t.satIDArray = sp3VarArray(t.satID)
		t.satAccuracy = sp3Int(NativeTypeInt16, "", "Satellite accuracy exponent; the orbit "+
			"accuracy is 2**exponent mm")
		t.satAccuracyArr = sp3VarArray(t.satAccuracy)
		t.fileType = sp3Text("File type: G = GPS only, M = mixed, R = GLONASS only, " +
			"L = LEO, E = Galileo only")
		t.timeSystem = sp3Text("Time system used for the epochs")
		t.basePosVel = sp3Double("", "Base number used for the position/velocity standard "+
			"deviation exponents")
		t.baseClkRate = sp3Double("", "Base number used for the clock/rate standard "+
			"deviation exponents")

		t.vehicleID = sp3Text("Vehicle identifier")

		t.pXCoordinate = sp3Double("km", "X coordinate")
		t.pYCoordinate = sp3Double("km", "Y coordinate")
		t.pZCoordinate = sp3Double("km", "Z coordinate")
		t.pClock = sp3Double("us", "Clock correction")
		t.pXSdev = sp3Int(NativeTypeInt8, "", "X standard deviation exponent")
		t.pYSdev = sp3Int(NativeTypeInt8, "", "Y standard deviation exponent")
		t.pZSdev = sp3Int(NativeTypeInt8, "", "Z standard deviation exponent")
		t.pClockSdev = sp3Int(NativeTypeInt16, "", "Clock standard deviation exponent")
		t.pClockEvent = sp3Text("Clock event flag")
		t.pClockPred = sp3Text("Clock prediction flag")
		t.pManeuver = sp3Text("Maneuver flag")
		t.pOrbitPred = sp3Text("Orbit prediction flag")
		t.pCorrSdev = sp3Int(NativeTypeInt16, "mm", "Standard deviation")
		t.pCorrClockSdev = sp3Int(NativeTypeInt32, "ps", "Clock standard deviation")
		t.pCorrValue = sp3Int(NativeTypeInt32, "", "Correlation coefficient * 10**7")

		t.pCorr = NewRecordType(FormatSP3)
		addField(t.pCorr, "x_sdev", t.pCorrSdev)
		addField(t.pCorr, "y_sdev", t.pCorrSdev)
		addField(t.pCorr, "z_sdev", t.pCorrSdev)
		addField(t.pCorr, "clock_sdev", t.pCorrClockSdev)
		addField(t.pCorr, "xy_corr", t.pCorrValue)
		addField(t.pCorr, "xz_corr", t.pCorrValue)
		addField(t.pCorr, "xc_corr", t.pCorrValue)
		addField(t.pCorr, "yz_corr", t.pCorrValue)
		addField(t.pCorr, "yc_corr", t.pCorrValue)
		addField(t.pCorr, "zc_corr", t.pCorrValue)

		t.vXVelocity = sp3Double("dm/s", "X velocity")
		t.vYVelocity = sp3Double("dm/s", "Y velocity")
		t.vZVelocity = sp3Double("dm/s", "Z velocity")
		t.vClockRate = sp3Double("", "Clock rate change")
		t.vVelSdev = sp3Int(NativeTypeInt8, "", "Velocity standard deviation exponent")
		t.vClkRateSdev = sp3Int(NativeTypeInt16, "", "Clock rate standard deviation exponent")
		t.vCorrSdev = sp3Int(NativeTypeInt16, "", "Velocity standard deviation")
		t.vCorrClkSdev = sp3Int(NativeTypeInt32, "", "Clock rate standard deviation")
		t.vCorrValue = sp3Int(NativeTypeInt32, "", "Correlation coefficient * 10**7")

		t.vCorr = NewRecordType(FormatSP3)
		addField(t.vCorr, "xvel_sdev", t.vCorrSdev)
		addField(t.vCorr, "yvel_sdev", t.vCorrSdev)
		addField(t.vCorr, "zvel_sdev", t.vCorrSdev)
		addField(t.vCorr, "clkrate_sdev", t.vCorrClkSdev)
		addField(t.vCorr, "xy_corr", t.vCorrValue)
		addField(t.vCorr, "xz_corr", t.vCorrValue)
		addField(t.vCorr, "xc_corr", t.vCorrValue)
		addField(t.vCorr, "yz_corr", t.vCorrValue)
		addField(t.vCorr, "yc_corr", t.vCorrValue)
		addField(t.vCorr, "zc_corr", t.vCorrValue)

		t.epochString = sp3Text("")
		t.epoch = NewTimeType(FormatSP3, newTimeExpression(sp3EpochFormat))
		t.epoch.SetBaseType(t.epochString)
		SetDescription(t.epoch, "Epoch")

		posClk := NewRecordType(FormatSP3)
		addField(posClk, "vehicle_id", t.vehicleID)
		addField(posClk, "x_coordinate", t.pXCoordinate)
		addField(posClk, "y_coordinate", t.pYCoordinate)
		addField(posClk, "z_coordinate", t.pZCoordinate)
		addField(posClk, "clock", t.pClock)
		addField(posClk, "x_sdev", t.pXSdev)
		addField(posClk, "y_sdev", t.pYSdev)
		addField(posClk, "z_sdev", t.pZSdev)
		addField(posClk, "clock_sdev", t.pClockSdev)
		addField(posClk, "clock_event_flag", t.pClockEvent)
		addField(posClk, "clock_pred_flag", t.pClockPred)
		addField(posClk, "maneuver_flag", t.pManeuver)
		addField(posClk, "orbit_pred_flag", t.pOrbitPred)
		addOptionalField(posClk, "corr", t.pCorr)
		t.posClk = posClk
		t.posClkArray = sp3VarArray(t.posClk)

		velRate := NewRecordType(FormatSP3)
		addField(velRate, "vehicle_id", t.vehicleID)
		addField(velRate, "x_velocity", t.vXVelocity)
		addField(velRate, "y_velocity", t.vYVelocity)
		addField(velRate, "z_velocity", t.vZVelocity)
		addField(velRate, "clock_rate", t.vClockRate)
		addField(velRate, "xvel_sdev", t.vVelSdev)
		addField(velRate, "yvel_sdev", t.vVelSdev)
		addField(velRate, "zvel_sdev", t.vVelSdev)
		addField(velRate, "clkrate_sdev", t.vClkRateSdev)
		addOptionalField(velRate, "corr", t.vCorr)
		t.velRate = velRate
		t.velRateArray = sp3VarArray(t.velRate)

		header := NewRecordType(FormatSP3)
		addField(header, "pos_vel", t.posVel)
		addField(header, "datetime_start", t.datetimeStart)
		addField(header, "num_epochs", t.numEpochs)
		addField(header, "data_used", t.dataUsed)
		addField(header, "coordinate_sys", t.coordinateSys)
		addField(header, "orbit_type", t.orbitType)
		addField(header, "agency", t.agency)
		addField(header, "gps_week", t.gpsWeek)
		addField(header, "sec_of_week", t.secOfWeek)
		addField(header, "epoch_interval", t.epochInterval)
		addField(header, "mjd_start", t.mjdStart)
		addField(header, "frac_day", t.fracDay)
		addField(header, "num_satellites", t.numSatellites)
		addField(header, "sat_id", t.satIDArray)
		addField(header, "sat_accuracy", t.satAccuracyArr)
		addField(header, "file_type", t.fileType)
		addField(header, "time_system", t.timeSystem)
		addField(header, "base_pos_vel", t.basePosVel)
		addField(header, "base_clk_rate", t.baseClkRate)
		t.header = header

		record := NewRecordType(FormatSP3)
		addField(record, "epoch", t.epoch)
		addField(record, "pos_clk", t.posClkArray)
		addOptionalField(record, "vel_rate", t.velRateArray)
		t.record = record
		t.records = sp3VarArray(t.record)

		file := NewRecordType(FormatSP3)
		addField(file, "header", t.header)
		addField(file, "record", t.records)
		t.file = file

		sp3 = t
	})
	return sp3
}

type sp3Ingest struct {
	*lineReader
	product *Product
	types   *sp3Types
	header  *memRecord
	records *memArray

	record       *memRecord // actual data for /record[]
	posClkArray  *memArray  // actual data for /record[]/pos_clk
	posClk       *memRecord // actual data for /record[]/pos_clk[]
	velRateArray *memArray  // actual data for /record[]/vel_rate
	velRate      *memRecord // actual data for /record[]/vel_rate[]

	numSatellites int
	posVel        byte
}

func (info *sp3Ingest) lineError(format string, a ...interface{}) error {
	return newError(ErrFileRead, "%s (line: %d, byte offset: %d)",
		fmt.Sprintf(format, a...), info.lineNumber, info.offset)
}

// addString adds a string field value to record.
func (info *sp3Ingest) addString(record *memRecord, name string, definition *TextType, value string) error {
	str, err := newMemString(definition, nil, info.product, value)
	if err != nil {
		return err
	}
	return record.addField(name, str, false)
}

func (info *sp3Ingest) addDouble(record *memRecord, name string, definition *NumberType, value float64) error {
	v, err := newMemDouble(definition, nil, info.product, value)
	if err != nil {
		return err
	}
	return record.addField(name, v, false)
}

func (info *sp3Ingest) addInteger(record *memRecord, name string, definition *NumberType, value int64) error {
	v, err := newMemInteger(definition, nil, info.product, value)
	if err != nil {
		return err
	}
	return record.addField(name, v, false)
}

// parseOptionalInt parses the given column range, treating a short line or
// all blank field as 0.
func parseOptionalInt(line string, start, end int) (int64, error) {
	if len(line) < end || strings.TrimSpace(line[start:end]) == "" {
		return 0, nil
	}
	return asciiParseInt64(line[start:end])
}

func (info *sp3Ingest) getHeaderLine(lead string) (string, error) {
	line, err := info.getLine()
	if err != nil {
		return "", err
	}
	if len(line) < 60 {
		return "", info.lineError("header line length (%d) too short", len(line))
	}
	if lead != "" && !strings.HasPrefix(line, lead) {
		return "", info.lineError("invalid lead characters for line")
	}
	return line, nil
}

// readHeader parses the fixed 22 line SP3 header.
func (info *sp3Ingest) readHeader() error {
	t := info.types

	// first line; the leading '#' and version character were already
	// verified during format detection
	line, err := info.getHeaderLine("")
	if err != nil {
		return err
	}
	info.posVel = line[2]
	if err := info.addString(info.header, "pos_vel", t.posVel, string(line[2])); err != nil {
		return err
	}
	datetimeStart := line[3:31]
	base, err := newMemString(t.datetimeStartStr, nil, info.product, datetimeStart)
	if err != nil {
		return err
	}
	datetimeValue, err := newMemTime(t.datetimeStart, nil, base)
	if err != nil {
		return err
	}
	if err := info.header.addField("datetime_start", datetimeValue, false); err != nil {
		return err
	}
	numEpochs, err := asciiParseInt64(line[32:39])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addInteger(info.header, "num_epochs", t.numEpochs, numEpochs); err != nil {
		return err
	}
	if err := info.addString(info.header, "data_used", t.dataUsed, line[40:45]); err != nil {
		return err
	}
	if err := info.addString(info.header, "coordinate_sys", t.coordinateSys, line[46:51]); err != nil {
		return err
	}
	if err := info.addString(info.header, "orbit_type", t.orbitType, line[52:55]); err != nil {
		return err
	}
	if err := info.addString(info.header, "agency", t.agency, line[56:60]); err != nil {
		return err
	}

	// line two
	line, err = info.getHeaderLine("## ")
	if err != nil {
		return err
	}
	gpsWeek, err := asciiParseInt64(line[3:7])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addInteger(info.header, "gps_week", t.gpsWeek, gpsWeek); err != nil {
		return err
	}
	secOfWeek, err := asciiParseDouble(line[8:23])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addDouble(info.header, "sec_of_week", t.secOfWeek, secOfWeek); err != nil {
		return err
	}
	epochInterval, err := asciiParseDouble(line[24:38])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addDouble(info.header, "epoch_interval", t.epochInterval, epochInterval); err != nil {
		return err
	}
	mjdStart, err := asciiParseInt64(line[39:44])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addInteger(info.header, "mjd_start", t.mjdStart, mjdStart); err != nil {
		return err
	}
	fracDay, err := asciiParseDouble(line[45:60])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addDouble(info.header, "frac_day", t.fracDay, fracDay); err != nil {
		return err
	}

	// lines three to seven: satellite ids
	line, err = info.getHeaderLine("+   ")
	if err != nil {
		return err
	}
	numSatellites, err := asciiParseInt64(line[4:6])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addInteger(info.header, "num_satellites", t.numSatellites, numSatellites); err != nil {
		return err
	}
	info.numSatellites = int(numSatellites)

	satIDs, err := newMemArray(t.satIDArray, nil)
	if err != nil {
		return err
	}
	for i := 0; i < 5*17; i++ {
		if i%17 == 0 && i > 0 {
			line, err = info.getHeaderLine("+        ")
			if err != nil {
				return err
			}
		}
		if i < info.numSatellites {
			id, err := newMemString(t.satID, nil, info.product, line[9+(i%17)*3:9+(i%17)*3+3])
			if err != nil {
				return err
			}
			if err := satIDs.addElement(id); err != nil {
				return err
			}
		}
	}
	if err := info.header.addField("sat_id", satIDs, false); err != nil {
		return err
	}

	// lines eight to twelve: accuracy exponents
	accuracies, err := newMemArray(t.satAccuracyArr, nil)
	if err != nil {
		return err
	}
	for i := 0; i < 5*17; i++ {
		if i%17 == 0 {
			line, err = info.getHeaderLine("++       ")
			if err != nil {
				return err
			}
		}
		if i < info.numSatellites {
			v, err := asciiParseInt64(line[9+(i%17)*3 : 9+(i%17)*3+3])
			if err != nil {
				return info.lineError("%v", err)
			}
			accuracy, err := newMemInt16(t.satAccuracy, nil, info.product, int16(v))
			if err != nil {
				return err
			}
			if err := accuracies.addElement(accuracy); err != nil {
				return err
			}
		}
	}
	if err := info.header.addField("sat_accuracy", accuracies, false); err != nil {
		return err
	}

	// line thirteen
	line, err = info.getHeaderLine("%c ")
	if err != nil {
		return err
	}
	if err := info.addString(info.header, "file_type", t.fileType, line[3:5]); err != nil {
		return err
	}
	if err := info.addString(info.header, "time_system", t.timeSystem, line[9:12]); err != nil {
		return err
	}

	// line fourteen
	if _, err = info.getHeaderLine("%c "); err != nil {
		return err
	}

	// line fifteen
	line, err = info.getHeaderLine("%f ")
	if err != nil {
		return err
	}
	basePosVel, err := asciiParseDouble(line[3:13])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addDouble(info.header, "base_pos_vel", t.basePosVel, basePosVel); err != nil {
		return err
	}
	baseClkRate, err := asciiParseDouble(line[14:26])
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addDouble(info.header, "base_clk_rate", t.baseClkRate, baseClkRate); err != nil {
		return err
	}

	// lines sixteen to twenty two
	for i := 0; i < 7; i++ {
		if _, err := info.getLine(); err != nil {
			return err
		}
	}

	return nil
}

// flushRecord attaches the pending position and velocity arrays to the
// current epoch record and appends it to the records array.
func (info *sp3Ingest) flushRecord() error {
	if info.record == nil {
		return nil
	}
	if err := info.record.addField("pos_clk", info.posClkArray, false); err != nil {
		return err
	}
	info.posClkArray = nil
	if info.velRateArray != nil {
		if err := info.record.addField("vel_rate", info.velRateArray, false); err != nil {
			return err
		}
		info.velRateArray = nil
	}
	if err := info.records.addElement(info.record); err != nil {
		return err
	}
	info.record = nil
	return nil
}

func (info *sp3Ingest) handleEpochLine(line string) error {
	t := info.types
	if err := info.flushRecord(); err != nil {
		return err
	}
	var err error
	if info.posClkArray, err = newMemArray(t.posClkArray, nil); err != nil {
		return err
	}
	if info.posVel == 'V' {
		if info.velRateArray, err = newMemArray(t.velRateArray, nil); err != nil {
			return err
		}
	}
	if info.record, err = newMemRecord(t.record, nil); err != nil {
		return err
	}
	if len(line) < 31 {
		return info.lineError("record line length (%d) too short", len(line))
	}
	base, err := newMemString(t.epochString, nil, info.product, line[3:31])
	if err != nil {
		return err
	}
	epoch, err := newMemTime(t.epoch, nil, base)
	if err != nil {
		return err
	}
	return info.record.addField("epoch", epoch, false)
}

func (info *sp3Ingest) handlePositionLine(line string) error {
	t := info.types
	if info.posClkArray == nil {
		return info.lineError("Position and Clock Record without Epoch Header Record")
	}
	if len(line) < 60 {
		return info.lineError("record line length (%d) too short", len(line))
	}
	posClk, err := newMemRecord(t.posClk, nil)
	if err != nil {
		return err
	}
	info.posClk = posClk

	if err := info.addString(posClk, "vehicle_id", t.vehicleID, line[1:4]); err != nil {
		return err
	}
	for _, coord := range []struct {
		start      int
		name       string
		definition *NumberType
	}{
		{4, "x_coordinate", t.pXCoordinate},
		{18, "y_coordinate", t.pYCoordinate},
		{32, "z_coordinate", t.pZCoordinate},
		{46, "clock", t.pClock},
	} {
		v, err := asciiParseDouble(line[coord.start : coord.start+14])
		if err != nil {
			return info.lineError("%v", err)
		}
		if err := info.addDouble(posClk, coord.name, coord.definition, v); err != nil {
			return err
		}
	}

	xSdev, err := parseOptionalInt(line, 61, 63)
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addInteger(posClk, "x_sdev", t.pXSdev, xSdev); err != nil {
		return err
	}
	ySdev, err := parseOptionalInt(line, 64, 66)
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addInteger(posClk, "y_sdev", t.pYSdev, ySdev); err != nil {
		return err
	}
	zSdev, err := parseOptionalInt(line, 67, 69)
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addInteger(posClk, "z_sdev", t.pZSdev, zSdev); err != nil {
		return err
	}
	clockSdev, err := parseOptionalInt(line, 70, 73)
	if err != nil {
		return info.lineError("%v", err)
	}
	if err := info.addInteger(posClk, "clock_sdev", t.pClockSdev, clockSdev); err != nil {
		return err
	}

	for _, flag := range []struct {
		column     int
		name       string
		definition *TextType
	}{
		{74, "clock_event_flag", t.pClockEvent},
		{75, "clock_pred_flag", t.pClockPred},
		{78, "maneuver_flag", t.pManeuver},
		{79, "orbit_pred_flag", t.pOrbitPred},
	} {
		value := " "
		if len(line) > flag.column {
			value = string(line[flag.column])
		}
		if err := info.addString(posClk, flag.name, flag.definition, value); err != nil {
			return err
		}
	}
	return nil
}

func (info *sp3Ingest) handleVelocityLine(line string) error {
	t := info.types
	if info.posVel != 'V' {
		return info.lineError(
			"Velocity and Rate Record not allowed due to header Position/Velocity Flag value")
	}
	if info.velRateArray == nil {
		return info.lineError("Velocity and Rate Record without Epoch Header Record")
	}
	if len(line) < 60 {
		return info.lineError("record line length (%d) too short", len(line))
	}
	velRate, err := newMemRecord(t.velRate, nil)
	if err != nil {
		return err
	}
	info.velRate = velRate

	if err := info.addString(velRate, "vehicle_id", t.vehicleID, line[1:4]); err != nil {
		return err
	}
	for _, value := range []struct {
		start      int
		name       string
		definition *NumberType
	}{
		{4, "x_velocity", t.vXVelocity},
		{18, "y_velocity", t.vYVelocity},
		{32, "z_velocity", t.vZVelocity},
		{46, "clock_rate", t.vClockRate},
	} {
		v, err := asciiParseDouble(line[value.start : value.start+14])
		if err != nil {
			return info.lineError("%v", err)
		}
		if err := info.addDouble(velRate, value.name, value.definition, v); err != nil {
			return err
		}
	}

	for _, sdev := range []struct {
		start, end int
		name       string
		definition *NumberType
	}{
		{61, 63, "xvel_sdev", t.vVelSdev},
		{64, 66, "yvel_sdev", t.vVelSdev},
		{67, 69, "zvel_sdev", t.vVelSdev},
		{70, 73, "clkrate_sdev", t.vClkRateSdev},
	} {
		v, err := parseOptionalInt(line, sdev.start, sdev.end)
		if err != nil {
			return info.lineError("%v", err)
		}
		if err := info.addInteger(velRate, sdev.name, sdev.definition, v); err != nil {
			return err
		}
	}
	return nil
}

// handleCorrelationLine parses an EP or EV row and attaches the resulting
// corr record to the preceding position or velocity entry.
func (info *sp3Ingest) handleCorrelationLine(line string) error {
	t := info.types
	if line[1] == 'P' {
		if info.posClk == nil {
			return info.lineError(
				"Position and Clock Correlation Record without Position and Clock Record")
		}
		corr, err := newMemRecord(t.pCorr, nil)
		if err != nil {
			return err
		}
		for _, field := range []struct {
			start, end int
			name       string
			definition *NumberType
		}{
			{4, 8, "x_sdev", t.pCorrSdev},
			{9, 13, "y_sdev", t.pCorrSdev},
			{14, 18, "z_sdev", t.pCorrSdev},
			{19, 26, "clock_sdev", t.pCorrClockSdev},
			{27, 35, "xy_corr", t.pCorrValue},
			{36, 44, "xz_corr", t.pCorrValue},
			{45, 53, "xc_corr", t.pCorrValue},
			{54, 62, "yz_corr", t.pCorrValue},
			{63, 71, "yc_corr", t.pCorrValue},
			{72, 80, "zc_corr", t.pCorrValue},
		} {
			v, err := parseOptionalInt(line, field.start, field.end)
			if err != nil {
				return info.lineError("%v", err)
			}
			if err := info.addInteger(corr, field.name, field.definition, v); err != nil {
				return err
			}
		}
		return info.posClk.addField("corr", corr, false)
	}

	if info.velRate == nil {
		return info.lineError(
			"Velocity and Rate Correlation Record without Velocity and Rate Record")
	}
	corr, err := newMemRecord(t.vCorr, nil)
	if err != nil {
		return err
	}
	for _, field := range []struct {
		start, end int
		name       string
		definition *NumberType
	}{
		{4, 8, "xvel_sdev", t.vCorrSdev},
		{9, 13, "yvel_sdev", t.vCorrSdev},
		{14, 18, "zvel_sdev", t.vCorrSdev},
		{19, 26, "clkrate_sdev", t.vCorrClkSdev},
		{27, 35, "xy_corr", t.vCorrValue},
		{36, 44, "xz_corr", t.vCorrValue},
		{45, 53, "xc_corr", t.vCorrValue},
		{54, 62, "yz_corr", t.vCorrValue},
		{63, 71, "yc_corr", t.vCorrValue},
		{72, 80, "zc_corr", t.vCorrValue},
	} {
		v, err := parseOptionalInt(line, field.start, field.end)
		if err != nil {
			return info.lineError("%v", err)
		}
		if err := info.addInteger(corr, field.name, field.definition, v); err != nil {
			return err
		}
	}
	return info.velRate.addField("corr", corr, false)
}

// readRecords parses the SP3 body. Lines are dispatched on their leading
// character; EP/EV correlation rows attach to the row they follow.
func (info *sp3Ingest) readRecords() error {
	line, err := info.getLine()
	if err != nil {
		return err
	}
	for !strings.HasPrefix(line, "EOF") {
		switch {
		case len(line) > 0 && line[0] == '*':
			if err := info.handleEpochLine(line); err != nil {
				return err
			}
		case len(line) > 0 && line[0] == 'P':
			if err := info.handlePositionLine(line); err != nil {
				return err
			}
		case len(line) > 0 && line[0] == 'V':
			if err := info.handleVelocityLine(line); err != nil {
				return err
			}
		default:
			return info.lineError("invalid line")
		}

		line, err = info.getLine()
		if err != nil {
			return err
		}

		if len(line) >= 2 && line[0] == 'E' && (line[1] == 'P' || line[1] == 'V') {
			if err := info.handleCorrelationLine(line); err != nil {
				return err
			}
			line, err = info.getLine()
			if err != nil {
				return err
			}
		}

		if info.posClk != nil {
			if err := info.posClkArray.addElement(info.posClk); err != nil {
				return err
			}
			info.posClk = nil
		}
		if info.velRate != nil {
			if err := info.velRateArray.addElement(info.velRate); err != nil {
				return err
			}
			info.velRate = nil
		}
	}

	return info.flushRecord()
}

// openSP3 populates the product root type from an SP3 orbit file.
func openSP3(product *Product) error {
	t := sp3Init()
	info := &sp3Ingest{
		lineReader: newLineReader(io.NewSectionReader(product.f, 0, product.FileSize)),
		product:    product,
		types:      t,
	}

	var err error
	if info.header, err = newMemRecord(t.header, nil); err != nil {
		return err
	}
	if info.records, err = newMemArray(t.records, nil); err != nil {
		return err
	}

	if err := info.readHeader(); err != nil {
		return err
	}
	if err := info.readRecords(); err != nil {
		return err
	}

	rootType, err := newMemRecord(t.file, nil)
	if err != nil {
		return err
	}
	if err := rootType.addField("header", info.header, false); err != nil {
		return err
	}
	info.header = nil
	if err := rootType.addField("record", info.records, false); err != nil {
		return err
	}
	info.records = nil

	product.rootType = rootType
	return nil
}
