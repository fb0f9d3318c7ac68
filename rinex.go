// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// maxLineLength is the longest line the RINEX and SP3 readers accept.
const maxLineLength = 1000

// Epoch string patterns. The trailing seconds field allows leading spaces;
// the fraction width differs between observation/clock and SP3 layouts.
const (
	rinexEpochFormats   = "yyyy MM dd HH mm ss*.SSSSSSS|yyyy MM dd HH mm ss*.SSSSSS|yyyy MM dd HH mm ss"
	rinexDatetimeFormat = "yyyyMMdd HHmmss"
	rinexObsTimeFormats = "  yyyy    MM*    dd*    HH*    mm*   ss*.SSSSSSS"
)

// rinexTypes is the static type graph shared by all RINEX products. It is
// built once and cached for the lifetime of the process.
type rinexTypes struct {
	formatVersion   *NumberType
	fileType        *TextType
	satelliteSystem *TextType

	program          *TextType
	runBy            *TextType
	datetimeString   *TextType
	datetime         *SpecialType
	datetimeTimeZone *TextType

	markerName      *TextType
	markerNumber    *TextType
	markerType      *TextType
	observer        *TextType
	agency          *TextType
	receiverNumber  *TextType
	receiverType    *TextType
	receiverVersion *TextType
	antennaNumber   *TextType
	antennaType     *TextType

	approxPositionX *NumberType
	approxPositionY *NumberType
	approxPositionZ *NumberType
	antennaDeltaH   *NumberType
	antennaDeltaE   *NumberType
	antennaDeltaN   *NumberType

	sysCode            *TextType
	sysNumObsTypes     *NumberType
	sysDescriptor      *TextType
	sysDescriptorArray *ArrayType
	sys                *RecordType
	sysArray           *ArrayType

	signalStrengthUnit  *TextType
	obsInterval         *NumberType
	timeOfFirstObsStr   *TextType
	timeOfFirstObs      *SpecialType
	timeOfLastObsStr    *TextType
	timeOfLastObs       *SpecialType
	timeOfObsTimeZone   *TextType
	rcvClockOffsAppl    *NumberType
	leapSeconds         *NumberType
	numSatellites       *NumberType
	timeSystemID        *TextType

	epochString         *TextType
	obsEpoch            *SpecialType
	obsEpochFlag        *TextType
	receiverClockOffset *NumberType
	satelliteNumber     *NumberType
	observation         *NumberType
	lli                 *NumberType
	signalStrength      *NumberType
	observationRecord   *RecordType

	obsHeader *RecordType

	ionosphericCorrType      *TextType
	ionosphericCorrParameter *NumberType
	ionosphericCorrParamArr  *ArrayType
	ionosphericCorr          *RecordType
	ionosphericCorrArray     *ArrayType
	timeSystemCorrType       *TextType
	timeSystemCorrA0         *NumberType
	timeSystemCorrA1         *NumberType
	timeSystemCorrT          *NumberType
	timeSystemCorrW          *NumberType
	timeSystemCorrS          *TextType
	timeSystemCorrU          *NumberType
	timeSystemCorr           *RecordType
	timeSystemCorrArray      *ArrayType

	navEpoch *SpecialType

	navReal map[string]*NumberType

	navDataSources *NumberType
	navBgdE5aE1    *NumberType

	navGPSRecord     *RecordType
	navGlonassRecord *RecordType
	navGalileoRecord *RecordType
	navSBASRecord    *RecordType

	navHeader       *RecordType
	navGPSArray     *ArrayType
	navGlonassArray *ArrayType
	navGalileoArray *ArrayType
	navSBASArray    *ArrayType
	navFile         *RecordType

	clkType              *TextType
	clkName              *TextType
	clkEpoch             *SpecialType
	clkBias              *NumberType
	clkBiasSigma         *NumberType
	clkRate              *NumberType
	clkRateSigma         *NumberType
	clkAcceleration      *NumberType
	clkAccelerationSigma *NumberType

	clkHeader *RecordType
	clkRecord *RecordType
}

var (
	rinexOnce sync.Once
	rinex     *rinexTypes
)

func rinexReal(unit, description string) *NumberType {
	t := NewNumberType(FormatRINEX, RealClass)
	if unit != "" {
		t.SetUnit(unit)
	}
	if description != "" {
		SetDescription(t, description)
	}
	return t
}

func rinexFloat(unit, description string) *NumberType {
	t := rinexReal(unit, description)
	t.SetReadType(NativeTypeFloat)
	return t
}

func rinexInt(readType NativeType, description string) *NumberType {
	t := NewNumberType(FormatRINEX, IntegerClass)
	t.SetReadType(readType)
	if description != "" {
		SetDescription(t, description)
	}
	return t
}

func rinexText(description string) *TextType {
	t := NewTextType(FormatRINEX)
	if description != "" {
		SetDescription(t, description)
	}
	return t
}

func rinexChar(description string) *TextType {
	t := NewTextType(FormatRINEX)
	t.SetByteSize(1)
	t.SetReadType(NativeTypeChar)
	if description != "" {
		SetDescription(t, description)
	}
	return t
}

func rinexTime(base Type, formats, description string) *SpecialType {
	t := NewTimeType(FormatRINEX, newTimeExpression(formats))
	t.SetBaseType(base)
	if description != "" {
		SetDescription(t, description)
	}
	return t
}

func rinexVarArray(base Type) *ArrayType {
	t := NewArrayType(FormatRINEX)
	t.AddVariableDimension() //nolint:errcheck
	t.SetBaseType(base)
	return t
}

func addField(record *RecordType, name string, typ Type) {
	record.CreateField(name, typ) //nolint:errcheck
}

func addOptionalField(record *RecordType, name string, typ Type) {
	record.AddField(&Field{RealName: name, Type: typ, Optional: true}) //nolint:errcheck
}

func rinexInit() *rinexTypes {
	rinexOnce.Do(func() {
		t := &rinexTypes{}

		t.formatVersion = rinexReal("", "Format version")
		t.formatVersion.SetReadType(NativeTypeFloat)

		t.fileType = rinexChar("File type: O for Observation Data, N for Navigation Data, " +
			"C for Clock Data, M for Meteorological Data")
		t.satelliteSystem = rinexChar("Satellite System: G = GPS, R = GLONASS, E = Galileo, " +
			"S = SBAS, M = Mixed")

		t.program = rinexText("Name of program creating current file")
		t.runBy = rinexText("Name of agency creating current file")
		t.datetimeString = rinexText("")
		t.datetime = rinexTime(t.datetimeString, rinexDatetimeFormat, "Date/time of file creation")
		t.datetimeTimeZone = rinexText("Code for file creation timezone: UTC recommended, " +
			"LCL = local time with unknown local time system code")

		t.markerName = rinexText("Name of antenna marker")
		t.markerNumber = rinexText("Number of antenna marker")
		t.markerType = rinexText("Type of the marker")
		t.observer = rinexText("Name of observer")
		t.agency = rinexText("Name of agency of observer")
		t.receiverNumber = rinexText("Receiver number")
		t.receiverType = rinexText("Receiver type")
		t.receiverVersion = rinexText("Receiver version (e.g. Internal Software Version)")
		t.antennaNumber = rinexText("Antenna number")
		t.antennaType = rinexText("Antenna type")

		t.approxPositionX = rinexFloat("m", "Geocentric approximate marker position - X")
		t.approxPositionY = rinexFloat("m", "Geocentric approximate marker position - Y")
		t.approxPositionZ = rinexFloat("m", "Geocentric approximate marker position - Z")
		t.antennaDeltaH = rinexFloat("m", "Height of the antenna reference point (ARP) above the marker")
		t.antennaDeltaE = rinexFloat("m", "Horizontal eccentricity of ARP relative to the marker (east)")
		t.antennaDeltaN = rinexFloat("m", "Horizontal eccentricity of ARP relative to the marker (north)")

		t.sysCode = rinexChar("Satellite system code (G/R/E/S)")
		t.sysNumObsTypes = rinexInt(NativeTypeInt16,
			"Number of different observation types for the specified satellite system")
		t.sysDescriptor = rinexText("Observation descriptor: type, band and attribute, e.g. C1C")
		t.sysDescriptorArray = rinexVarArray(t.sysDescriptor)

		t.sys = NewRecordType(FormatRINEX)
		addField(t.sys, "code", t.sysCode)
		addField(t.sys, "num_obs_types", t.sysNumObsTypes)
		addField(t.sys, "descriptor", t.sysDescriptorArray)
		t.sysArray = rinexVarArray(t.sys)

		t.signalStrengthUnit = rinexText("Unit of the signal strength observations Snn (if present), " +
			"e.g. DBHZ: S/N given in dbHz")
		t.obsInterval = rinexReal("s", "Observation interval in seconds")
		t.timeOfFirstObsStr = rinexText("")
		t.timeOfFirstObs = rinexTime(t.timeOfFirstObsStr, rinexObsTimeFormats,
			"Time of first observation record")
		t.timeOfLastObsStr = rinexText("")
		t.timeOfLastObs = rinexTime(t.timeOfLastObsStr, rinexObsTimeFormats,
			"Time of last observation record")
		t.timeOfObsTimeZone = rinexText("Time system: GPS (=GPS time system), " +
			"GLO (=UTC time system), GAL (=Galileo System Time)")
		t.rcvClockOffsAppl = rinexInt(NativeTypeUint8, "Epoch, code, and phase are corrected by "+
			"applying the realtime-derived receiver clock offset: 1=yes, 0=no; default: 0=no")
		t.leapSeconds = rinexInt(NativeTypeInt32, "Number of leap seconds since 6-Jan-1980 as "+
			"transmitted by the GPS almanac")
		t.numSatellites = rinexInt(NativeTypeUint16,
			"Number of satellites, for which observations are stored in the file")
		t.timeSystemID = rinexText("Time system used for time tags")

		t.epochString = rinexText("")
		t.obsEpoch = rinexTime(t.epochString, rinexEpochFormats, "Epoch of observation")
		t.obsEpochFlag = rinexChar("0: OK, 1: power failure between previous and current epoch, " +
			">1: Special event")
		t.receiverClockOffset = rinexReal("s", "Receiver clock offset")
		t.satelliteNumber = rinexInt(NativeTypeUint8,
			"Satellite number (for the applicable satellite system)")
		t.observation = rinexReal("", "Observations: definition see /header/sys[]/descriptor. "+
			"Missing observations are written as 0.0 or blanks.")
		t.lli = rinexInt(NativeTypeUint8, "Loss of lock indicator (LLI). 0 or blank: OK or not known. "+
			"Bit 0 set: lost lock between previous and current observation. "+
			"Bit 1 set: half-cycle ambiguity/slip possible.")
		t.signalStrength = rinexInt(NativeTypeUint8, "Signal strength projected into interval 1-9. "+
			"0 or blank: not known, don't care")

		t.observationRecord = NewRecordType(FormatRINEX)
		addField(t.observationRecord, "observation", t.observation)
		addField(t.observationRecord, "lli", t.lli)
		addField(t.observationRecord, "signal_strength", t.signalStrength)

		obs := NewRecordType(FormatRINEX)
		addField(obs, "format_version", t.formatVersion)
		addField(obs, "file_type", t.fileType)
		addField(obs, "satellite_system", t.satelliteSystem)
		addField(obs, "program", t.program)
		addField(obs, "run_by", t.runBy)
		addField(obs, "datetime", t.datetime)
		addField(obs, "datetime_time_zone", t.datetimeTimeZone)
		addField(obs, "marker_name", t.markerName)
		addOptionalField(obs, "marker_number", t.markerNumber)
		addOptionalField(obs, "marker_type", t.markerType)
		addField(obs, "observer", t.observer)
		addField(obs, "agency", t.agency)
		addField(obs, "receiver_number", t.receiverNumber)
		addField(obs, "receiver_type", t.receiverType)
		addField(obs, "receiver_version", t.receiverVersion)
		addField(obs, "antenna_number", t.antennaNumber)
		addField(obs, "antenna_type", t.antennaType)
		addOptionalField(obs, "approx_position_x", t.approxPositionX)
		addOptionalField(obs, "approx_position_y", t.approxPositionY)
		addOptionalField(obs, "approx_position_z", t.approxPositionZ)
		addField(obs, "antenna_delta_h", t.antennaDeltaH)
		addField(obs, "antenna_delta_e", t.antennaDeltaE)
		addField(obs, "antenna_delta_n", t.antennaDeltaN)
		addField(obs, "sys", t.sysArray)
		addOptionalField(obs, "signal_strength_unit", t.signalStrengthUnit)
		addOptionalField(obs, "obs_interval", t.obsInterval)
		addField(obs, "time_of_first_obs", t.timeOfFirstObs)
		addField(obs, "time_of_first_obs_time_zone", t.timeOfObsTimeZone)
		addOptionalField(obs, "time_of_last_obs", t.timeOfLastObs)
		addOptionalField(obs, "time_of_last_obs_time_zone", t.timeOfObsTimeZone)
		addOptionalField(obs, "rcv_clock_offs_appl", t.rcvClockOffsAppl)
		addOptionalField(obs, "leap_seconds", t.leapSeconds)
		addOptionalField(obs, "num_satellites", t.numSatellites)
		t.obsHeader = obs

		t.ionosphericCorrType = rinexText("Correction type. GAL = Galileo ai0 - ai2, " +
			"GPSA = GPS alpha0 - alpha3, GPSB = GPS beta0 - beta3")
		t.ionosphericCorrParameter = rinexReal("", "Ionospheric correction parameter")
		t.ionosphericCorrParamArr = NewArrayType(FormatRINEX)
		t.ionosphericCorrParamArr.AddFixedDimension(4) //nolint:errcheck
		t.ionosphericCorrParamArr.SetBaseType(t.ionosphericCorrParameter)

		t.ionosphericCorr = NewRecordType(FormatRINEX)
		addField(t.ionosphericCorr, "type", t.ionosphericCorrType)
		addField(t.ionosphericCorr, "parameter", t.ionosphericCorrParamArr)
		t.ionosphericCorrArray = rinexVarArray(t.ionosphericCorr)

		t.timeSystemCorrType = rinexText("Correction type, e.g. GAUT = GAL to UTC a0, a1")
		t.timeSystemCorrA0 = rinexReal("s", "CORR(s) = a0 + a1 * DELTAT")
		t.timeSystemCorrA1 = rinexReal("s/s", "CORR(s) = a0 + a1 * DELTAT")
		t.timeSystemCorrT = rinexInt(NativeTypeInt32, "Reference time for polynomial")
		t.timeSystemCorrT.SetUnit("s")
		t.timeSystemCorrW = rinexInt(NativeTypeInt16, "Reference week number")
		t.timeSystemCorrW.SetUnit("week")
		t.timeSystemCorrS = rinexText("SBAS only. EGNOS, WAAS, or MSAS")
		t.timeSystemCorrU = rinexInt(NativeTypeUint8, "SBAS only. UTC Identifier (0 if unknown)")

		t.timeSystemCorr = NewRecordType(FormatRINEX)
		addField(t.timeSystemCorr, "type", t.timeSystemCorrType)
		addField(t.timeSystemCorr, "a0", t.timeSystemCorrA0)
		addField(t.timeSystemCorr, "a1", t.timeSystemCorrA1)
		addField(t.timeSystemCorr, "T", t.timeSystemCorrT)
		addField(t.timeSystemCorr, "W", t.timeSystemCorrW)
		addOptionalField(t.timeSystemCorr, "S", t.timeSystemCorrS)
		addOptionalField(t.timeSystemCorr, "U", t.timeSystemCorrU)
		t.timeSystemCorrArray = rinexVarArray(t.timeSystemCorr)

		t.navEpoch = rinexTime(t.epochString, rinexEpochFormats, "Time of Clock")

		// navigation value leaves are all plain doubles; units and
		// descriptions follow the RINEX 3.00 tables
		t.navReal = make(map[string]*NumberType)
		for _, leaf := range []struct{ name, unit, description string }{
			{"sv_clock_bias", "s", "SV clock bias"},
			{"sv_clock_drift", "s/s", "SV clock drift"},
			{"sv_clock_drift_rate", "s/s2", "SV clock drift rate"},
			{"iode", "", "Issue of Data, Ephemeris"},
			{"crs", "m", "Crs"},
			{"delta_n", "rad/s", "Delta n"},
			{"m0", "rad", "M0"},
			{"cuc", "rad", "Cuc"},
			{"e", "", "e Eccentricity"},
			{"cus", "rad", "Cus"},
			{"sqrt_a", "sqrt(m)", "sqrt(A)"},
			{"toe", "s", "Toe Time of Ephemeris (sec of GPS week)"},
			{"cic", "rad", "Cic"},
			{"omega0", "rad", "OMEGA0"},
			{"cis", "rad", "Cis"},
			{"i0", "rad", "i0"},
			{"crc", "m", "Crc"},
			{"omega", "rad", "omega"},
			{"omega_dot", "rad/s", "OMEGA DOT"},
			{"idot", "rad/s", "IDOT"},
			{"l2_codes", "", "Codes on L2 channel"},
			{"gps_week", "week", "GPS Week # (to go with TOE)"},
			{"l2_p_data_flag", "", "L2 P data flag"},
			{"sv_accuracy", "m", "SV accuracy"},
			{"sv_health_gps", "", "SV health (bits 17-22 w 3 sf 1)"},
			{"tgd", "s", "TGD"},
			{"iodc", "", "IODC Issue of Data, Clock"},
			{"transmission_time", "s", "Transmission time of message"},
			{"fit_interval", "hours", "Fit interval"},
			{"iodnav", "", "IODnav Issue of Data of the nav batch"},
			{"gal_week", "week", "GAL Week # (to go with Toe)"},
			{"sisa", "m", "SISA Signal in space accuracy"},
			{"sv_health", "", "SV health"},
			{"bgd_e5b_e1", "s", "BGD E5b/E1"},
			{"sv_rel_freq_bias", "", "SV relative frequency bias"},
			{"msg_frame_time", "s", "Message frame time (seconds of UTC week)"},
			{"sat_pos_x", "km", "Satellite position X"},
			{"sat_pos_y", "km", "Satellite position Y"},
			{"sat_pos_z", "km", "Satellite position Z"},
			{"sat_vel_x", "km/s", "Satellite velocity X"},
			{"sat_vel_y", "km/s", "Satellite velocity Y"},
			{"sat_vel_z", "km/s", "Satellite velocity Z"},
			{"sat_acc_x", "km/s2", "Satellite acceleration X"},
			{"sat_acc_y", "km/s2", "Satellite acceleration Y"},
			{"sat_acc_z", "km/s2", "Satellite acceleration Z"},
			{"sat_health", "", "Satellite health (0=OK)"},
			{"sat_frequency_number", "", "Satellite frequency number (-7 ... +13)"},
			{"age_of_oper_info", "days", "Age of operational information"},
			{"sat_accuracy_code", "", "Accuracy code (URA)"},
			{"iodn", "", "IODN Issue of Data Navigation"},
		} {
			t.navReal[leaf.name] = rinexReal(leaf.unit, leaf.description)
		}

		t.navDataSources = rinexInt(NativeTypeInt32, "Data sources")
		t.navBgdE5aE1 = rinexInt(NativeTypeInt32, "BGD E5a/E1")

		gps := NewRecordType(FormatRINEX)
		addField(gps, "number", t.satelliteNumber)
		addField(gps, "epoch", t.navEpoch)
		for _, name := range []string{"sv_clock_bias", "sv_clock_drift", "sv_clock_drift_rate",
			"iode", "crs", "delta_n", "m0", "cuc", "e", "cus", "sqrt_a", "toe", "cic", "omega0",
			"cis", "i0", "crc", "omega", "omega_dot", "idot", "l2_codes", "gps_week",
			"l2_p_data_flag", "sv_accuracy", "sv_health_gps", "tgd", "iodc",
			"transmission_time", "fit_interval"} {
			addField(gps, name, t.navReal[name])
		}
		t.navGPSRecord = gps

		glonass := NewRecordType(FormatRINEX)
		addField(glonass, "number", t.satelliteNumber)
		addField(glonass, "epoch", t.navEpoch)
		for _, name := range []string{"sv_clock_bias", "sv_rel_freq_bias", "msg_frame_time",
			"sat_pos_x", "sat_vel_x", "sat_acc_x", "sat_health", "sat_pos_y", "sat_vel_y",
			"sat_acc_y", "sat_frequency_number", "sat_pos_z", "sat_vel_z", "sat_acc_z",
			"age_of_oper_info"} {
			addField(glonass, name, t.navReal[name])
		}
		t.navGlonassRecord = glonass

		galileo := NewRecordType(FormatRINEX)
		addField(galileo, "number", t.satelliteNumber)
		addField(galileo, "epoch", t.navEpoch)
		for _, name := range []string{"sv_clock_bias", "sv_clock_drift", "sv_clock_drift_rate",
			"iodnav", "crs", "delta_n", "m0", "cuc", "e", "cus", "sqrt_a", "toe", "cic",
			"omega0", "cis", "i0", "crc", "omega", "omega_dot", "idot"} {
			addField(galileo, name, t.navReal[name])
		}
		addField(galileo, "data_sources", t.navDataSources)
		addField(galileo, "gal_week", t.navReal["gal_week"])
		addField(galileo, "sisa", t.navReal["sisa"])
		addField(galileo, "sv_health", t.navReal["sv_health"])
		addField(galileo, "bgd_e5a_e1", t.navBgdE5aE1)
		addField(galileo, "bgd_e5b_e1", t.navReal["bgd_e5b_e1"])
		addField(galileo, "transmission_time", t.navReal["transmission_time"])
		t.navGalileoRecord = galileo

		sbas := NewRecordType(FormatRINEX)
		addField(sbas, "number", t.satelliteNumber)
		addField(sbas, "epoch", t.navEpoch)
		for _, name := range []string{"sv_clock_bias", "sv_rel_freq_bias", "transmission_time",
			"sat_pos_x", "sat_vel_x", "sat_acc_x", "sat_health", "sat_pos_y", "sat_vel_y",
			"sat_acc_y", "sat_accuracy_code", "sat_pos_z", "sat_vel_z", "sat_acc_z", "iodn"} {
			addField(sbas, name, t.navReal[name])
		}
		t.navSBASRecord = sbas

		nav := NewRecordType(FormatRINEX)
		addField(nav, "format_version", t.formatVersion)
		addField(nav, "file_type", t.fileType)
		addField(nav, "satellite_system", t.satelliteSystem)
		addField(nav, "program", t.program)
		addField(nav, "run_by", t.runBy)
		addField(nav, "datetime", t.datetime)
		addField(nav, "datetime_time_zone", t.datetimeTimeZone)
		addField(nav, "ionospheric_corr", t.ionosphericCorrArray)
		addField(nav, "time_system_corr", t.timeSystemCorrArray)
		addOptionalField(nav, "leap_seconds", t.leapSeconds)
		t.navHeader = nav

		t.navGPSArray = rinexVarArray(t.navGPSRecord)
		t.navGlonassArray = rinexVarArray(t.navGlonassRecord)
		t.navGalileoArray = rinexVarArray(t.navGalileoRecord)
		t.navSBASArray = rinexVarArray(t.navSBASRecord)

		navFile := NewRecordType(FormatRINEX)
		addField(navFile, "header", t.navHeader)
		addField(navFile, "gps", t.navGPSArray)
		addField(navFile, "glonass", t.navGlonassArray)
		addField(navFile, "galileo", t.navGalileoArray)
		addField(navFile, "sbas", t.navSBASArray)
		t.navFile = navFile

		t.clkType = rinexText("Clock data type, e.g. AS = analysis satellite clocks, " +
			"AR = analysis receiver clocks")
		t.clkName = rinexText("Receiver or satellite name")
		t.clkEpoch = rinexTime(t.epochString, rinexEpochFormats, "Epoch")
		t.clkBias = rinexReal("s", "Clock bias")
		t.clkBiasSigma = rinexReal("s", "Clock bias sigma")
		t.clkRate = rinexReal("", "Clock rate")
		t.clkRateSigma = rinexReal("", "Clock rate sigma")
		t.clkAcceleration = rinexReal("1/s", "Clock acceleration")
		t.clkAccelerationSigma = rinexReal("1/s", "Clock acceleration sigma")

		clk := NewRecordType(FormatRINEX)
		addField(clk, "format_version", t.formatVersion)
		addField(clk, "file_type", t.fileType)
		addField(clk, "satellite_system", t.satelliteSystem)
		addField(clk, "program", t.program)
		addField(clk, "run_by", t.runBy)
		addField(clk, "datetime", t.datetime)
		addField(clk, "datetime_time_zone", t.datetimeTimeZone)
		addField(clk, "sys", t.sysArray)
		addOptionalField(clk, "time_system_id", t.timeSystemID)
		addOptionalField(clk, "leap_seconds", t.leapSeconds)
		t.clkHeader = clk

		record := NewRecordType(FormatRINEX)
		addField(record, "type", t.clkType)
		addField(record, "name", t.clkName)
		addField(record, "epoch", t.clkEpoch)
		addField(record, "bias", t.clkBias)
		addOptionalField(record, "bias_sigma", t.clkBiasSigma)
		addOptionalField(record, "rate", t.clkRate)
		addOptionalField(record, "rate_sigma", t.clkRateSigma)
		addOptionalField(record, "acceleration", t.clkAcceleration)
		addOptionalField(record, "acceleration_sigma", t.clkAccelerationSigma)
		t.clkRecord = record

		rinex = t
	})
	return rinex
}

// asciiParseDouble parses a fixed width, possibly space padded floating
// point field. Fortran style 'D' exponents are accepted.
func asciiParseDouble(field string) (float64, error) {
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, newError(ErrFileRead, "empty floating point value")
	}
	if i := strings.IndexAny(s, "Dd"); i >= 0 {
		s = s[:i] + "E" + s[i+1:]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newError(ErrFileRead, "invalid floating point value '%s'", strings.TrimSpace(field))
	}
	return v, nil
}

// asciiParseInt64 parses a fixed width, possibly space padded integer
// field.
func asciiParseInt64(field string) (int64, error) {
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, newError(ErrFileRead, "empty integer value")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, newError(ErrFileRead, "invalid integer value '%s'", s)
	}
	return v, nil
}

func rtrim(s string) string {
	return strings.TrimRight(s, " ")
}

// lineReader reads terminator stripped lines while tracking the byte offset
// and number of the current line for error reporting.
type lineReader struct {
	reader     *bufio.Reader
	offset     int64
	nextOffset int64
	lineNumber int64
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReaderSize(r, maxLineLength)}
}

// getLine returns the next line without its terminator. The line feed may
// be preceded by a carriage return. End of file yields an empty line.
func (r *lineReader) getLine() (string, error) {
	r.offset = r.nextOffset
	r.lineNumber++
	line, err := r.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", newError(ErrFileRead, "could not read from file (%v)", err)
	}
	r.nextOffset += int64(len(line))
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if len(line) > maxLineLength {
		return "", newError(ErrFileRead, "line length exceeds maximum (%d) (line: %d, byte offset: %d)",
			maxLineLength, r.lineNumber, r.offset)
	}
	return line, nil
}

type rinexSatelliteInfo struct {
	observables           []string
	satObsDefinition      *RecordType // definition for /record[]/<sys>[]
	satObsArrayDefinition *ArrayType  // definition for /record[]/<sys>
	satObsArray           *memArray   // actual data for /record[]/<sys>
	records               *memArray   // actual data for /<sys>
}

type rinexIngest struct {
	*lineReader
	product *Product
	types   *rinexTypes
	header  *memRecord
	gps     rinexSatelliteInfo
	glonass rinexSatelliteInfo
	galileo rinexSatelliteInfo
	sbas    rinexSatelliteInfo

	formatVersion   float64
	fileType        byte
	satelliteSystem byte

	epochRecordDefinition *RecordType // definition for /record[]
	sysArray              *memArray   // actual data for /header/sys
	records               *memArray   // actual data for /record
	ionosphericCorrArray  *memArray
	timeSystemCorrArray   *memArray
}

func (info *rinexIngest) satInfo(system byte) *rinexSatelliteInfo {
	switch system {
	case 'G':
		return &info.gps
	case 'R':
		return &info.glonass
	case 'E':
		return &info.galileo
	case 'S':
		return &info.sbas
	}
	return nil
}

func (info *rinexIngest) lineError(format string, a ...interface{}) error {
	return newError(ErrFileRead, "%s (line: %d, byte offset: %d)",
		fmt.Sprintf(format, a...), info.lineNumber, info.offset)
}

// addTextField adds a right-trimmed text value to record.
func (info *rinexIngest) addTextField(record *memRecord, name string, definition *TextType, value string) error {
	text, err := newMemString(definition, nil, info.product, rtrim(value))
	if err != nil {
		return err
	}
	return record.addField(name, text, false)
}

// addTimeField validates the epoch string eagerly and stores it as the base
// of a time value.
func (info *rinexIngest) addTimeField(record *memRecord, name string,
	definition *SpecialType, str string) error {
	base, err := newMemString(definition.BaseType().(*TextType), nil, info.product, str)
	if err != nil {
		return err
	}
	value, err := newMemTime(definition, nil, base)
	if err != nil {
		return err
	}
	return record.addField(name, value, false)
}

// parseEpochString verifies that str holds a valid epoch, allowing an all
// blank value.
func (info *rinexIngest) parseEpochString(str string, byteOffset int64) error {
	if strings.TrimSpace(str) == "" {
		return nil
	}
	var year, month, day, hour, minute int
	var second float64
	if n, err := fmt.Sscanf(str, "%4d %2d %2d %2d %2d%f",
		&year, &month, &day, &hour, &minute, &second); n != 6 || err != nil {
		return newError(ErrFileRead, "invalid time string '%s' (line: %d, byte offset: %d)",
			str, info.lineNumber, info.offset+byteOffset)
	}
	sec := int(second)
	if _, err := TimePartsToDouble(year, month, day, hour, minute, sec,
		int((second-float64(sec))*1e6)); err != nil {
		return newError(ErrFileRead, "invalid time value (line: %d, byte offset: %d)",
			info.lineNumber, info.offset+byteOffset)
	}
	return nil
}

func (info *rinexIngest) readMainHeader() error {
	t := info.types
	line, err := info.getLine()
	if err != nil {
		return err
	}
	if len(line) < 61 {
		return info.lineError("header line length (%d) too short", len(line))
	}
	if !strings.HasPrefix(line[60:], "RINEX VERSION / TYPE") {
		return info.lineError("invalid header item '%s'", line[60:])
	}
	info.formatVersion, err = asciiParseDouble(line[:9])
	if err != nil {
		return info.lineError("%v", err)
	}
	info.fileType = line[20]

	switch info.fileType {
	case 'O':
		if info.formatVersion != 3.0 {
			return newError(ErrUnsupportedProduct,
				"RINEX format version %3.2f is not supported for Observation data", info.formatVersion)
		}
		info.header, err = newMemRecord(t.obsHeader, nil)
	case 'N':
		if info.formatVersion != 3.0 {
			return newError(ErrUnsupportedProduct,
				"RINEX format version %3.2f is not supported for Navigation data", info.formatVersion)
		}
		info.header, err = newMemRecord(t.navHeader, nil)
	case 'C':
		if info.formatVersion != 2.0 && info.formatVersion != 3.0 {
			return newError(ErrUnsupportedProduct,
				"RINEX format version %3.2f is not supported for Clock data", info.formatVersion)
		}
		info.header, err = newMemRecord(t.clkHeader, nil)
	default:
		return newError(ErrUnsupportedProduct,
			"RINEX file type '%c' is not supported", info.fileType)
	}
	if err != nil {
		return err
	}

	if info.formatVersion == 3.0 {
		info.satelliteSystem = line[40]
	} else {
		// for older RINEX versions the only supported satellite system is GPS
		info.satelliteSystem = 'G'
	}

	value, err := newMemFloat(t.formatVersion, nil, info.product, float32(info.formatVersion))
	if err != nil {
		return err
	}
	if err := info.header.addField("format_version", value, false); err != nil {
		return err
	}
	ftype, err := newMemChar(t.fileType, nil, info.product, info.fileType)
	if err != nil {
		return err
	}
	if err := info.header.addField("file_type", ftype, false); err != nil {
		return err
	}
	system, err := newMemChar(t.satelliteSystem, nil, info.product, info.satelliteSystem)
	if err != nil {
		return err
	}
	return info.header.addField("satellite_system", system, false)
}

// handleProgramRunByDate handles the PGM / RUN BY / DATE header line shared
// by all three file types.
func (info *rinexIngest) handleProgramRunByDate(line string) error {
	t := info.types
	if err := info.addTextField(info.header, "program", t.program, line[:20]); err != nil {
		return err
	}
	if err := info.addTextField(info.header, "run_by", t.runBy, line[20:40]); err != nil {
		return err
	}
	str := line[40:55]
	if strings.TrimSpace(str) != "" {
		var year, month, day, hour, minute, second int
		if n, err := fmt.Sscanf(str, "%4d%2d%2d %2d%2d%2d",
			&year, &month, &day, &hour, &minute, &second); n != 6 || err != nil {
			return newError(ErrFileRead, "invalid time string '%s' (line: %d, byte offset: %d)",
				str, info.lineNumber, info.offset+40)
		}
		if _, err := TimePartsToDouble(year, month, day, hour, minute, second, 0); err != nil {
			return newError(ErrFileRead, "invalid time value (line: %d, byte offset: %d)",
				info.lineNumber, info.offset+40)
		}
	}
	if err := info.addTimeField(info.header, "datetime", t.datetime, str); err != nil {
		return err
	}
	return info.addTextField(info.header, "datetime_time_zone", t.datetimeTimeZone, line[56:59])
}

// handleObservationDefinition processes a SYS / # / OBS TYPES header line:
// it appends the per-system entry to /header/sys and synthesizes the
// per-system observation record type used by the epoch records.
func (info *rinexIngest) handleObservationDefinition(line string) error {
	t := info.types
	satInfo := info.satInfo(line[0])
	var fieldName string
	switch line[0] {
	case 'G':
		fieldName = "gps"
	case 'R':
		fieldName = "glonass"
	case 'E':
		fieldName = "galileo"
	case 'S':
		fieldName = "sbas"
	default:
		return info.lineError("invalid satellite system for observation type definition")
	}

	if satInfo.satObsDefinition != nil {
		return info.lineError("multiple observation type definitions for type '%c'", line[0])
	}
	satInfo.satObsDefinition = NewRecordType(FormatRINEX)
	addField(satInfo.satObsDefinition, "number", t.satelliteNumber)

	numTypes, err := asciiParseInt64(line[3:6])
	if err != nil {
		return info.lineError("%v", err)
	}

	sys, err := newMemRecord(t.sys, nil)
	if err != nil {
		return err
	}
	code, err := newMemChar(t.sysCode, nil, info.product, line[0])
	if err != nil {
		return err
	}
	if err := sys.addField("code", code, false); err != nil {
		return err
	}
	count, err := newMemInteger(t.sysNumObsTypes, nil, info.product, numTypes)
	if err != nil {
		return err
	}
	if err := sys.addField("num_obs_types", count, false); err != nil {
		return err
	}
	descriptorArray, err := newMemArray(t.sysDescriptorArray, nil)
	if err != nil {
		return err
	}

	satInfo.observables = make([]string, 0, numTypes)
	for i := 0; i < int(numTypes); i++ {
		if i%13 == 0 && i > 0 {
			// the descriptor list continues on the next line
			line, err = info.getLine()
			if err != nil {
				return err
			}
			expected := 6 + 13*4
			if int(numTypes)-i < 13 {
				expected = 6 + ((int(numTypes)-i)%13)*4
			}
			if len(line) < expected {
				return info.lineError("header line length (%d) too short", len(line))
			}
		}
		descriptor := line[6+(i%13)*4+1 : 6+(i%13)*4+4]
		value, err := newMemString(t.sysDescriptor, nil, info.product, descriptor)
		if err != nil {
			return err
		}
		if err := descriptorArray.addElement(value); err != nil {
			return err
		}
		if err := satInfo.satObsDefinition.CreateField(descriptor, t.observationRecord); err != nil {
			return err
		}
		satInfo.observables = append(satInfo.observables, descriptor)
	}

	// update header
	if err := sys.addField("descriptor", descriptorArray, false); err != nil {
		return err
	}
	if err := info.sysArray.addElement(sys); err != nil {
		return err
	}

	// update the epoch record definition (observation files only)
	satInfo.satObsArrayDefinition = rinexVarArray(satInfo.satObsDefinition)
	if info.epochRecordDefinition != nil {
		return info.epochRecordDefinition.CreateField(fieldName, satInfo.satObsArrayDefinition)
	}
	return nil
}

func (info *rinexIngest) readObservationHeader() error {
	t := info.types
	var err error
	info.sysArray, err = newMemArray(t.sysArray, nil)
	if err != nil {
		return err
	}

	line, err := info.getLine()
	if err != nil {
		return err
	}
	for len(line) > 0 {
		if len(line) < 61 {
			return info.lineError("header line length (%d) too short", len(line))
		}
		label := line[60:]
		switch {
		case strings.HasPrefix(label, "PGM / RUN BY / DATE"):
			if err := info.handleProgramRunByDate(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "COMMENT"):
			// ignore comments
		case strings.HasPrefix(label, "MARKER NAME"):
			if err := info.addTextField(info.header, "marker_name", t.markerName, line[:60]); err != nil {
				return err
			}
		case strings.HasPrefix(label, "MARKER NUMBER"):
			if err := info.addTextField(info.header, "marker_number", t.markerNumber, line[:20]); err != nil {
				return err
			}
		case strings.HasPrefix(label, "MARKER TYPE"):
			if err := info.addTextField(info.header, "marker_type", t.markerType, line[:20]); err != nil {
				return err
			}
		case strings.HasPrefix(label, "OBSERVER / AGENCY"):
			if err := info.addTextField(info.header, "observer", t.observer, line[:20]); err != nil {
				return err
			}
			if err := info.addTextField(info.header, "agency", t.agency, line[20:60]); err != nil {
				return err
			}
		case strings.HasPrefix(label, "REC # / TYPE / VERS"):
			if err := info.addTextField(info.header, "receiver_number", t.receiverNumber, line[:20]); err != nil {
				return err
			}
			if err := info.addTextField(info.header, "receiver_type", t.receiverType, line[20:40]); err != nil {
				return err
			}
			if err := info.addTextField(info.header, "receiver_version", t.receiverVersion, line[40:60]); err != nil {
				return err
			}
		case strings.HasPrefix(label, "ANT # / TYPE"):
			if err := info.addTextField(info.header, "antenna_number", t.antennaNumber, line[:20]); err != nil {
				return err
			}
			if err := info.addTextField(info.header, "antenna_type", t.antennaType, line[20:40]); err != nil {
				return err
			}
		case strings.HasPrefix(label, "APPROX POSITION XYZ"):
			for i, name := range []string{"approx_position_x", "approx_position_y", "approx_position_z"} {
				v, err := asciiParseDouble(line[i*14 : i*14+14])
				if err != nil {
					return info.lineError("%v", err)
				}
				value, err := newMemReal([]*NumberType{t.approxPositionX, t.approxPositionY,
					t.approxPositionZ}[i], nil, info.product, v)
				if err != nil {
					return err
				}
				if err := info.header.addField(name, value, false); err != nil {
					return err
				}
			}
		case strings.HasPrefix(label, "ANTENNA: DELTA H/E/N"):
			for i, name := range []string{"antenna_delta_h", "antenna_delta_e", "antenna_delta_n"} {
				v, err := asciiParseDouble(line[i*14 : i*14+14])
				if err != nil {
					return info.lineError("%v", err)
				}
				value, err := newMemReal([]*NumberType{t.antennaDeltaH, t.antennaDeltaE,
					t.antennaDeltaN}[i], nil, info.product, v)
				if err != nil {
					return err
				}
				if err := info.header.addField(name, value, false); err != nil {
					return err
				}
			}
		case strings.HasPrefix(label, "ANTENNA: DELTA X/Y/Z"),
			strings.HasPrefix(label, "ANTENNA: PHASECENTER"),
			strings.HasPrefix(label, "ANTENNA: B.SIGHT XYZ"),
			strings.HasPrefix(label, "ANTENNA: ZERODIR AZI"),
			strings.HasPrefix(label, "ANTENNA: ZERODIR XYZ"),
			strings.HasPrefix(label, "CENTER OF MASS: XYZ"),
			strings.HasPrefix(label, "SYS / DCBS APPLIED"),
			strings.HasPrefix(label, "SYS / PCVS APPLIED"),
			strings.HasPrefix(label, "SYS / SCALE FACTOR"),
			strings.HasPrefix(label, "PRN / # OF OBS"):
			// not ingested
		case strings.HasPrefix(label, "SYS / # / OBS TYPES"):
			if err := info.handleObservationDefinition(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "SIGNAL STRENGTH UNIT"):
			if err := info.addTextField(info.header, "signal_strength_unit", t.signalStrengthUnit, line[:20]); err != nil {
				return err
			}
		case strings.HasPrefix(label, "INTERVAL"):
			v, err := asciiParseDouble(line[:10])
			if err != nil {
				return info.lineError("%v", err)
			}
			value, err := newMemReal(t.obsInterval, nil, info.product, v)
			if err != nil {
				return err
			}
			if err := info.header.addField("obs_interval", value, false); err != nil {
				return err
			}
		case strings.HasPrefix(label, "TIME OF FIRST OBS"):
			if err := info.handleTimeOfObs(line, "time_of_first_obs", t.timeOfFirstObs); err != nil {
				return err
			}
		case strings.HasPrefix(label, "TIME OF LAST OBS"):
			if err := info.handleTimeOfObs(line, "time_of_last_obs", t.timeOfLastObs); err != nil {
				return err
			}
		case strings.HasPrefix(label, "RCV CLOCK OFFS APPL"):
			v, err := asciiParseInt64(line[:6])
			if err != nil {
				return info.lineError("%v", err)
			}
			value, err := newMemInteger(t.rcvClockOffsAppl, nil, info.product, v)
			if err != nil {
				return err
			}
			if err := info.header.addField("rcv_clock_offs_appl", value, false); err != nil {
				return err
			}
		case strings.HasPrefix(label, "LEAP SECONDS"):
			if err := info.handleLeapSeconds(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "# OF SATELLITES"):
			v, err := asciiParseInt64(line[:6])
			if err != nil {
				return info.lineError("%v", err)
			}
			value, err := newMemInteger(t.numSatellites, nil, info.product, v)
			if err != nil {
				return err
			}
			if err := info.header.addField("num_satellites", value, false); err != nil {
				return err
			}
		case strings.HasPrefix(label, "END OF HEADER"):
			if err := info.header.addField("sys", info.sysArray, false); err != nil {
				return err
			}
			info.sysArray = nil
			return nil
		default:
			return newError(ErrFileRead, "invalid header item '%s' (line: %d, byte offset: %d)",
				label, info.lineNumber, info.offset+60)
		}

		line, err = info.getLine()
		if err != nil {
			return err
		}
	}
	if err := info.header.addField("sys", info.sysArray, false); err != nil {
		return err
	}
	info.sysArray = nil
	return nil
}

// handleTimeOfObs parses a TIME OF FIRST/LAST OBS header line; a blank time
// zone defaults to the file's satellite system.
func (info *rinexIngest) handleTimeOfObs(line, fieldName string, definition *SpecialType) error {
	t := info.types
	str := line[:43]
	var year, month, day, hour, minute int
	var second float64
	if n, err := fmt.Sscanf(str, "%6d%6d%6d%6d%6d%f",
		&year, &month, &day, &hour, &minute, &second); n != 6 || err != nil {
		return info.lineError("invalid time string '%s'", str)
	}
	sec := int(second)
	if _, err := TimePartsToDouble(year, month, day, hour, minute, sec,
		int((second-float64(sec))*1e6)); err != nil {
		return info.lineError("invalid time value")
	}
	if err := info.addTimeField(info.header, fieldName, definition, str); err != nil {
		return err
	}
	zone := line[48:51]
	if strings.TrimSpace(zone) == "" {
		switch info.satelliteSystem {
		case 'G':
			zone = "GPS"
		case 'R':
			zone = "GLO"
		case 'E':
			zone = "GAL"
		}
	}
	return info.addTextField(info.header, fieldName+"_time_zone", t.timeOfObsTimeZone, zone)
}

func (info *rinexIngest) handleLeapSeconds(line string) error {
	v, err := asciiParseInt64(line[:6])
	if err != nil {
		return info.lineError("%v", err)
	}
	value, err := newMemInteger(info.types.leapSeconds, nil, info.product, v)
	if err != nil {
		return err
	}
	return info.header.addField("leap_seconds", value, false)
}

// readObservationRecordForSatellite parses one satellite line of an epoch
// record. Each observation slot is a 14.3 value with single digit LLI and
// signal strength columns; blank observations default to 0.
func (info *rinexIngest) readObservationRecordForSatellite() error {
	t := info.types
	line, err := info.getLine()
	if err != nil {
		return err
	}
	if len(line) == 0 {
		return info.lineError("epoch line length (0) too short")
	}
	satInfo := info.satInfo(line[0])
	if satInfo == nil {
		return info.lineError("invalid satellite system for epoch record")
	}
	if satInfo.satObsArray == nil {
		return info.lineError(
			"satellite system '%c' was not defined in header for this observation record", line[0])
	}

	numObservables := len(satInfo.observables)
	if len(line) >= 3+numObservables*16-2 && len(line) < 3+numObservables*16 {
		// append truncated 'blank' values back again to ease processing
		line += strings.Repeat(" ", 3+numObservables*16-len(line))
	}
	if len(line) < 3+numObservables*16 {
		return info.lineError("epoch line length (%d) too short", len(line))
	}

	satObs, err := newMemRecord(satInfo.satObsDefinition, nil)
	if err != nil {
		return err
	}
	number, err := asciiParseInt64(line[1:3])
	if err != nil {
		return newError(ErrFileRead, "invalid satellite number (line: %d, byte offset: %d)",
			info.lineNumber, info.offset+1)
	}
	value, err := newMemInteger(t.satelliteNumber, nil, info.product, number)
	if err != nil {
		return err
	}
	if err := satObs.addField("number", value, false); err != nil {
		return err
	}

	for i := 0; i < numObservables; i++ {
		slot := line[3+i*16 : 3+i*16+16]
		lli := int64(0)
		if slot[14] >= '0' && slot[14] <= '9' {
			lli = int64(slot[14] - '0')
		}
		signalStrength := int64(0)
		if slot[15] >= '0' && slot[15] <= '9' {
			signalStrength = int64(slot[15] - '0')
		}
		observation := 0.0
		if strings.TrimSpace(slot[:14]) != "" {
			observation, err = asciiParseDouble(slot[:14])
			if err != nil {
				return newError(ErrFileRead, "invalid observation value (line: %d, byte offset: %d)",
					info.lineNumber, info.offset+int64(3+i*16))
			}
		}

		observationRecord, err := newMemRecord(t.observationRecord, nil)
		if err != nil {
			return err
		}
		obsValue, err := newMemReal(t.observation, nil, info.product, observation)
		if err != nil {
			return err
		}
		if err := observationRecord.addField("observation", obsValue, false); err != nil {
			return err
		}
		lliValue, err := newMemInteger(t.lli, nil, info.product, lli)
		if err != nil {
			return err
		}
		if err := observationRecord.addField("lli", lliValue, false); err != nil {
			return err
		}
		ssValue, err := newMemInteger(t.signalStrength, nil, info.product, signalStrength)
		if err != nil {
			return err
		}
		if err := observationRecord.addField("signal_strength", ssValue, false); err != nil {
			return err
		}
		if err := satObs.addField(satInfo.observables[i], observationRecord, false); err != nil {
			return err
		}
	}

	return satInfo.satObsArray.addElement(satObs)
}

func (info *rinexIngest) readObservationRecords() error {
	t := info.types
	line, err := info.getLine()
	if err != nil {
		return err
	}
	for len(line) > 0 {
		if len(line) < 35 {
			return info.lineError("record line length (%d) too short", len(line))
		}
		if line[0] != '>' {
			return info.lineError("expected '>' as start of epoch record")
		}

		epochRecord, err := newMemRecord(info.epochRecordDefinition, nil)
		if err != nil {
			return err
		}

		epochString := line[2:29]
		if err := info.parseEpochString(epochString, 2); err != nil {
			return err
		}
		if err := info.addTimeField(epochRecord, "epoch", t.obsEpoch, epochString); err != nil {
			return err
		}

		epochFlag := line[31]
		flagValue, err := newMemChar(t.obsEpochFlag, nil, info.product, epochFlag)
		if err != nil {
			return err
		}
		if err := epochRecord.addField("flag", flagValue, false); err != nil {
			return err
		}

		numSatellites, err := asciiParseInt64(line[32:35])
		if err != nil {
			return newError(ErrFileRead,
				"invalid 'number of satellites' entry in epoch record (line: %d, byte offset: %d)",
				info.lineNumber, info.offset+34)
		}

		clockOffset := 0.0
		if len(line) >= 56 && strings.TrimSpace(line[41:56]) != "" {
			clockOffset, err = asciiParseDouble(line[41:56])
			if err != nil {
				return info.lineError("%v", err)
			}
		}
		offsetValue, err := newMemReal(t.receiverClockOffset, nil, info.product, clockOffset)
		if err != nil {
			return err
		}
		if err := epochRecord.addField("receiver_clock_offset", offsetValue, false); err != nil {
			return err
		}

		for _, satInfo := range []*rinexSatelliteInfo{&info.gps, &info.glonass, &info.galileo, &info.sbas} {
			if satInfo.satObsArrayDefinition != nil {
				satInfo.satObsArray, err = newMemArray(satInfo.satObsArrayDefinition, nil)
				if err != nil {
					return err
				}
			}
		}

		if epochFlag != '0' {
			// skip the remaining part of this record
			for i := int64(0); i < numSatellites; i++ {
				if _, err := info.getLine(); err != nil {
					return err
				}
			}
		} else {
			for i := int64(0); i < numSatellites; i++ {
				if err := info.readObservationRecordForSatellite(); err != nil {
					return err
				}
			}
		}

		for _, sys := range []struct {
			name    string
			satInfo *rinexSatelliteInfo
		}{{"gps", &info.gps}, {"glonass", &info.glonass}, {"galileo", &info.galileo}, {"sbas", &info.sbas}} {
			if sys.satInfo.satObsArray != nil {
				if err := epochRecord.addField(sys.name, sys.satInfo.satObsArray, false); err != nil {
					return err
				}
				sys.satInfo.satObsArray = nil
			}
		}
		if err := info.records.addElement(epochRecord); err != nil {
			return err
		}

		line, err = info.getLine()
		if err != nil {
			return err
		}
	}
	return nil
}

func (info *rinexIngest) readNavigationHeader() error {
	t := info.types
	var err error
	info.ionosphericCorrArray, err = newMemArray(t.ionosphericCorrArray, nil)
	if err != nil {
		return err
	}
	info.timeSystemCorrArray, err = newMemArray(t.timeSystemCorrArray, nil)
	if err != nil {
		return err
	}

	line, err := info.getLine()
	if err != nil {
		return err
	}
	for len(line) > 0 {
		if len(line) < 61 {
			return info.lineError("header line length (%d) too short", len(line))
		}
		label := line[60:]
		switch {
		case strings.HasPrefix(label, "PGM / RUN BY / DATE"):
			if err := info.handleProgramRunByDate(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "COMMENT"):
			// ignore comments
		case strings.HasPrefix(label, "IONOSPHERIC CORR"):
			corr, err := newMemRecord(t.ionosphericCorr, nil)
			if err != nil {
				return err
			}
			if err := info.addTextField(corr, "type", t.ionosphericCorrType, line[:4]); err != nil {
				return err
			}
			parameterArray, err := newMemArray(t.ionosphericCorrParamArr, nil)
			if err != nil {
				return err
			}
			for i := 0; i < 4; i++ {
				v, err := asciiParseDouble(line[5+i*12 : 5+i*12+12])
				if err != nil {
					return info.lineError("%v", err)
				}
				value, err := newMemReal(t.ionosphericCorrParameter, nil, info.product, v)
				if err != nil {
					return err
				}
				if err := parameterArray.setElement(int64(i), value); err != nil {
					return err
				}
			}
			if err := corr.addField("parameter", parameterArray, false); err != nil {
				return err
			}
			if err := info.ionosphericCorrArray.addElement(corr); err != nil {
				return err
			}
		case strings.HasPrefix(label, "TIME SYSTEM CORR"):
			if err := info.handleTimeSystemCorr(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "LEAP SECONDS"):
			// the header value is stored as-is; it is never cross-checked
			// against the library's own leap second table
			if err := info.handleLeapSeconds(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "END OF HEADER"):
			return info.finishNavigationHeader()
		default:
			return newError(ErrFileRead, "invalid header item '%s' (line: %d, byte offset: %d)",
				label, info.lineNumber, info.offset+60)
		}

		line, err = info.getLine()
		if err != nil {
			return err
		}
	}
	return info.finishNavigationHeader()
}

func (info *rinexIngest) finishNavigationHeader() error {
	if err := info.header.addField("ionospheric_corr", info.ionosphericCorrArray, false); err != nil {
		return err
	}
	info.ionosphericCorrArray = nil
	if err := info.header.addField("time_system_corr", info.timeSystemCorrArray, false); err != nil {
		return err
	}
	info.timeSystemCorrArray = nil
	return nil
}

func (info *rinexIngest) handleTimeSystemCorr(line string) error {
	t := info.types
	corr, err := newMemRecord(t.timeSystemCorr, nil)
	if err != nil {
		return err
	}
	corrType := rtrim(line[:4])
	if err := info.addTextField(corr, "type", t.timeSystemCorrType, corrType); err != nil {
		return err
	}
	isSBAS := strings.HasPrefix(corrType, "SB")

	a0, err := asciiParseDouble(line[5:22])
	if err != nil {
		return info.lineError("%v", err)
	}
	a0Value, err := newMemReal(t.timeSystemCorrA0, nil, info.product, a0)
	if err != nil {
		return err
	}
	if err := corr.addField("a0", a0Value, false); err != nil {
		return err
	}

	a1, err := asciiParseDouble(line[22:38])
	if err != nil {
		return info.lineError("%v", err)
	}
	a1Value, err := newMemReal(t.timeSystemCorrA1, nil, info.product, a1)
	if err != nil {
		return err
	}
	if err := corr.addField("a1", a1Value, false); err != nil {
		return err
	}

	refTime, err := asciiParseInt64(line[38:45])
	if err != nil {
		return info.lineError("%v", err)
	}
	tValue, err := newMemInteger(t.timeSystemCorrT, nil, info.product, refTime)
	if err != nil {
		return err
	}
	if err := corr.addField("T", tValue, false); err != nil {
		return err
	}

	refWeek, err := asciiParseInt64(line[45:50])
	if err != nil {
		return info.lineError("%v", err)
	}
	wValue, err := newMemInteger(t.timeSystemCorrW, nil, info.product, refWeek)
	if err != nil {
		return err
	}
	if err := corr.addField("W", wValue, false); err != nil {
		return err
	}

	if isSBAS {
		if err := info.addTextField(corr, "S", t.timeSystemCorrS, line[51:56]); err != nil {
			return err
		}
		utcID, err := asciiParseInt64(line[57:59])
		if err != nil {
			return info.lineError("%v", err)
		}
		uValue, err := newMemInteger(t.timeSystemCorrU, nil, info.product, utcID)
		if err != nil {
			return err
		}
		if err := corr.addField("U", uValue, false); err != nil {
			return err
		}
	}

	return info.timeSystemCorrArray.addElement(corr)
}

// readNavigationRecordValues reads numValues 19-character floating point
// fields laid out four per line as continuations starting at column 4.
func (info *rinexIngest) readNavigationRecordValues(line string, numValues int) ([]float64, error) {
	values := make([]float64, numValues)
	for i := 0; i < numValues; i++ {
		index := (i + 1) % 4
		if index == 0 {
			var err error
			line, err = info.getLine()
			if err != nil {
				return nil, err
			}
			expected := 4 + 4*19
			if numValues-i < 4 {
				expected = 4 + ((numValues-i)%4)*19
			}
			if len(line) < expected {
				return nil, info.lineError("record line length (%d) too short", len(line))
			}
		}
		if len(line) < 4+index*19+19 {
			return nil, info.lineError("record line length (%d) too short", len(line))
		}
		v, err := asciiParseDouble(line[4+index*19 : 4+index*19+19])
		if err != nil {
			return nil, newError(ErrFileRead, "%v (line: %d, byte offset: %d)",
				err, info.lineNumber, info.offset+int64(4+index*19))
		}
		values[i] = v
	}
	return values, nil
}

// addNavigationValues builds number/epoch plus the per-system value fields
// of a navigation record.
func (info *rinexIngest) addNavigationValues(record *memRecord, names []string,
	values []float64) error {
	t := info.types
	for i, name := range names {
		if name == "" {
			// spare value, not ingested
			continue
		}
		var value DynamicType
		var err error
		switch name {
		case "data_sources":
			value, err = newMemInteger(t.navDataSources, nil, info.product, int64(values[i]))
		case "bgd_e5a_e1":
			value, err = newMemInteger(t.navBgdE5aE1, nil, info.product, int64(values[i]))
		default:
			value, err = newMemReal(t.navReal[name], nil, info.product, values[i])
		}
		if err != nil {
			return err
		}
		if err := record.addField(name, value, false); err != nil {
			return err
		}
	}
	return nil
}

var navGPSValueNames = []string{"sv_clock_bias", "sv_clock_drift", "sv_clock_drift_rate",
	"iode", "crs", "delta_n", "m0", "cuc", "e", "cus", "sqrt_a", "toe", "cic", "omega0",
	"cis", "i0", "crc", "omega", "omega_dot", "idot", "l2_codes", "gps_week",
	"l2_p_data_flag", "sv_accuracy", "sv_health_gps", "tgd", "iodc", "transmission_time",
	"fit_interval"}

var navGlonassValueNames = []string{"sv_clock_bias", "sv_rel_freq_bias", "msg_frame_time",
	"sat_pos_x", "sat_vel_x", "sat_acc_x", "sat_health", "sat_pos_y", "sat_vel_y",
	"sat_acc_y", "sat_frequency_number", "sat_pos_z", "sat_vel_z", "sat_acc_z",
	"age_of_oper_info"}

var navGalileoValueNames = []string{"sv_clock_bias", "sv_clock_drift", "sv_clock_drift_rate",
	"iodnav", "crs", "delta_n", "m0", "cuc", "e", "cus", "sqrt_a", "toe", "cic", "omega0",
	"cis", "i0", "crc", "omega", "omega_dot", "idot", "data_sources", "gal_week", "",
	"sisa", "sv_health", "bgd_e5a_e1", "bgd_e5b_e1", "transmission_time"}

var navSBASValueNames = []string{"sv_clock_bias", "sv_rel_freq_bias", "transmission_time",
	"sat_pos_x", "sat_vel_x", "sat_acc_x", "sat_health", "sat_pos_y", "sat_vel_y",
	"sat_acc_y", "sat_accuracy_code", "sat_pos_z", "sat_vel_z", "sat_acc_z", "iodn"}

func (info *rinexIngest) readNavigationRecords() error {
	t := info.types
	line, err := info.getLine()
	if err != nil {
		return err
	}
	for len(line) > 0 {
		if len(line) < 23 {
			return info.lineError("record line length (%d) too short", len(line))
		}
		satelliteSystem := line[0]
		satInfo := info.satInfo(satelliteSystem)
		var definition *RecordType
		var names []string
		switch satelliteSystem {
		case 'G':
			definition, names = t.navGPSRecord, navGPSValueNames
		case 'R':
			definition, names = t.navGlonassRecord, navGlonassValueNames
		case 'E':
			definition, names = t.navGalileoRecord, navGalileoValueNames
		case 'S':
			definition, names = t.navSBASRecord, navSBASValueNames
		default:
			return info.lineError("invalid satellite system for navigation record")
		}

		record, err := newMemRecord(definition, nil)
		if err != nil {
			return err
		}
		number, err := asciiParseInt64(line[1:3])
		if err != nil {
			return newError(ErrFileRead, "invalid satellite number (line: %d, byte offset: %d)",
				info.lineNumber, info.offset+1)
		}
		numberValue, err := newMemInteger(t.satelliteNumber, nil, info.product, number)
		if err != nil {
			return err
		}
		if err := record.addField("number", numberValue, false); err != nil {
			return err
		}

		epochString := line[4:23]
		var year, month, day, hour, minute, second int
		if n, err := fmt.Sscanf(epochString, "%4d %2d %2d %2d %2d %2d",
			&year, &month, &day, &hour, &minute, &second); n != 6 || err != nil {
			return newError(ErrFileRead, "invalid time string '%s' (line: %d, byte offset: %d)",
				epochString, info.lineNumber, info.offset+4)
		}
		if _, err := TimePartsToDouble(year, month, day, hour, minute, second, 0); err != nil {
			return newError(ErrFileRead, "invalid time value (line: %d, byte offset: %d)",
				info.lineNumber, info.offset+4)
		}
		base, err := newMemString(t.epochString, nil, info.product, epochString)
		if err != nil {
			return err
		}
		epochValue, err := newMemTime(t.navEpoch, nil, base)
		if err != nil {
			return err
		}
		if err := record.addField("epoch", epochValue, false); err != nil {
			return err
		}

		values, err := info.readNavigationRecordValues(line, len(names))
		if err != nil {
			return err
		}
		if err := info.addNavigationValues(record, names, values); err != nil {
			return err
		}
		if err := satInfo.records.addElement(record); err != nil {
			return err
		}

		line, err = info.getLine()
		if err != nil {
			return err
		}
	}
	return nil
}

func (info *rinexIngest) readClockHeader() error {
	t := info.types
	var err error
	info.sysArray, err = newMemArray(t.sysArray, nil)
	if err != nil {
		return err
	}

	line, err := info.getLine()
	if err != nil {
		return err
	}
	for len(line) > 0 {
		if len(line) < 61 {
			return info.lineError("header line length (%d) too short", len(line))
		}
		label := line[60:]
		switch {
		case strings.HasPrefix(label, "PGM / RUN BY / DATE"):
			if err := info.handleProgramRunByDate(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "COMMENT"):
			// ignore comments
		case strings.HasPrefix(label, "SYS / # / OBS TYPES"):
			if err := info.handleObservationDefinition(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "TIME SYSTEM ID"):
			if err := info.addTextField(info.header, "time_system_id", t.timeSystemID, line[3:6]); err != nil {
				return err
			}
		case strings.HasPrefix(label, "LEAP SECONDS"):
			if err := info.handleLeapSeconds(line); err != nil {
				return err
			}
		case strings.HasPrefix(label, "SYS / DCBS APPLIED"),
			strings.HasPrefix(label, "SYS / PCVS APPLIED"),
			strings.HasPrefix(label, "# / TYPES OF DATA"),
			strings.HasPrefix(label, "STATION NAME / NUM"),
			strings.HasPrefix(label, "STATION CLK REF"),
			strings.HasPrefix(label, "ANALYSIS CENTER"),
			strings.HasPrefix(label, "# OF CLK REF"),
			strings.HasPrefix(label, "ANALYSIS CLK REF"),
			strings.HasPrefix(label, "# OF SOLN STA / TRF"),
			strings.HasPrefix(label, "SOLN STA NAME / NUM"),
			strings.HasPrefix(label, "# OF SOLN SATS"),
			strings.HasPrefix(label, "PRN LIST"):
			// not ingested
		case strings.HasPrefix(label, "END OF HEADER"):
			if err := info.header.addField("sys", info.sysArray, false); err != nil {
				return err
			}
			info.sysArray = nil
			return nil
		default:
			return newError(ErrFileRead, "invalid header item '%s' (line: %d, byte offset: %d)",
				label, info.lineNumber, info.offset+60)
		}

		line, err = info.getLine()
		if err != nil {
			return err
		}
	}
	if err := info.header.addField("sys", info.sysArray, false); err != nil {
		return err
	}
	info.sysArray = nil
	return nil
}

func (info *rinexIngest) readClockRecords() error {
	t := info.types
	line, err := info.getLine()
	if err != nil {
		return err
	}
	for len(line) > 0 {
		if len(line) < 59 {
			return info.lineError("record line length (%d) too short", len(line))
		}

		record, err := newMemRecord(t.clkRecord, nil)
		if err != nil {
			return err
		}
		if err := info.addTextField(record, "type", t.clkType, line[:2]); err != nil {
			return err
		}
		if err := info.addTextField(record, "name", t.clkName, line[3:7]); err != nil {
			return err
		}

		epochString := line[8:35]
		if err := info.parseEpochString(epochString, 2); err != nil {
			return err
		}
		if err := info.addTimeField(record, "epoch", t.clkEpoch, epochString); err != nil {
			return err
		}

		numValues, err := asciiParseInt64(line[34:37])
		if err != nil || numValues < 1 || numValues > 6 {
			return newError(ErrFileRead,
				"invalid 'number of data values' entry in clock record (line: %d, byte offset: %d)",
				info.lineNumber, info.offset+34)
		}

		bias, err := asciiParseDouble(line[40:59])
		if err != nil {
			return info.lineError("%v", err)
		}
		biasValue, err := newMemReal(t.clkBias, nil, info.product, bias)
		if err != nil {
			return err
		}
		if err := record.addField("bias", biasValue, false); err != nil {
			return err
		}

		if numValues > 1 {
			if len(line) < 79 {
				return info.lineError("record line length (%d) too short", len(line))
			}
			v, err := asciiParseDouble(line[60:79])
			if err != nil {
				return info.lineError("%v", err)
			}
			value, err := newMemReal(t.clkBiasSigma, nil, info.product, v)
			if err != nil {
				return err
			}
			if err := record.addField("bias_sigma", value, false); err != nil {
				return err
			}
		}

		if numValues > 2 {
			line, err = info.getLine()
			if err != nil {
				return err
			}
			if int64(len(line)) < (numValues-2)*20-1 {
				return info.lineError("record line length (%d) too short", len(line))
			}
			for _, extra := range []struct {
				min        int64
				start, end int
				name       string
				definition *NumberType
			}{
				{3, 0, 19, "rate", t.clkRate},
				{4, 20, 39, "rate_sigma", t.clkRateSigma},
				{5, 40, 59, "acceleration", t.clkAcceleration},
				{6, 60, 79, "acceleration_sigma", t.clkAccelerationSigma},
			} {
				if numValues < extra.min {
					break
				}
				v, err := asciiParseDouble(line[extra.start:extra.end])
				if err != nil {
					return info.lineError("%v", err)
				}
				value, err := newMemReal(extra.definition, nil, info.product, v)
				if err != nil {
					return err
				}
				if err := record.addField(extra.name, value, false); err != nil {
					return err
				}
			}
		}

		if err := info.records.addElement(record); err != nil {
			return err
		}

		line, err = info.getLine()
		if err != nil {
			return err
		}
	}
	return nil
}

// rinexReadFile parses the whole file into the product root type.
func rinexReadFile(product *Product, r io.Reader) error {
	t := rinexInit()
	info := &rinexIngest{
		lineReader: newLineReader(r),
		product:    product,
		types:      t,
	}

	if err := info.readMainHeader(); err != nil {
		return err
	}

	var rootType *memRecord
	switch info.fileType {
	case 'O':
		info.epochRecordDefinition = NewRecordType(FormatRINEX)
		addField(info.epochRecordDefinition, "epoch", t.obsEpoch)
		addField(info.epochRecordDefinition, "flag", t.obsEpochFlag)
		addField(info.epochRecordDefinition, "receiver_clock_offset", t.receiverClockOffset)

		if err := info.readObservationHeader(); err != nil {
			return err
		}
		if err := info.header.validate(); err != nil {
			return err
		}

		recordsDefinition := rinexVarArray(info.epochRecordDefinition)
		records, err := newMemArray(recordsDefinition, nil)
		if err != nil {
			return err
		}
		info.records = records

		if err := info.readObservationRecords(); err != nil {
			return err
		}

		definition := NewRecordType(FormatRINEX)
		rootType, err = newMemRecord(definition, nil)
		if err != nil {
			return err
		}
		if err := rootType.addField("header", info.header, true); err != nil {
			return err
		}
		info.header = nil
		if err := rootType.addField("record", info.records, true); err != nil {
			return err
		}
		info.records = nil

	case 'N':
		if err := info.readNavigationHeader(); err != nil {
			return err
		}
		if err := info.header.validate(); err != nil {
			return err
		}

		var err error
		if info.gps.records, err = newMemArray(t.navGPSArray, nil); err != nil {
			return err
		}
		if info.glonass.records, err = newMemArray(t.navGlonassArray, nil); err != nil {
			return err
		}
		if info.galileo.records, err = newMemArray(t.navGalileoArray, nil); err != nil {
			return err
		}
		if info.sbas.records, err = newMemArray(t.navSBASArray, nil); err != nil {
			return err
		}

		if err := info.readNavigationRecords(); err != nil {
			return err
		}

		if rootType, err = newMemRecord(t.navFile, nil); err != nil {
			return err
		}
		if err := rootType.addField("header", info.header, false); err != nil {
			return err
		}
		info.header = nil
		for _, sys := range []struct {
			name    string
			satInfo *rinexSatelliteInfo
		}{{"gps", &info.gps}, {"glonass", &info.glonass}, {"galileo", &info.galileo}, {"sbas", &info.sbas}} {
			if err := rootType.addField(sys.name, sys.satInfo.records, false); err != nil {
				return err
			}
			sys.satInfo.records = nil
		}

	default: // file type 'C'
		if err := info.readClockHeader(); err != nil {
			return err
		}
		if err := info.header.validate(); err != nil {
			return err
		}

		recordsDefinition := rinexVarArray(t.clkRecord)
		records, err := newMemArray(recordsDefinition, nil)
		if err != nil {
			return err
		}
		info.records = records

		if err := info.readClockRecords(); err != nil {
			return err
		}

		definition := NewRecordType(FormatRINEX)
		rootType, err = newMemRecord(definition, nil)
		if err != nil {
			return err
		}
		if err := rootType.addField("header", info.header, true); err != nil {
			return err
		}
		info.header = nil
		if err := rootType.addField("record", info.records, true); err != nil {
			return err
		}
		info.records = nil
	}

	product.rootType = rootType
	return nil
}

// openRINEX populates the product root type from a RINEX observation,
// navigation or clock file.
func openRINEX(product *Product) error {
	return rinexReadFile(product, io.NewSectionReader(product.f, 0, product.FileSize))
}
