package schema

var PointType = &Enum{
	Name: "PointType",
	Values: map[int32]string{
		0: "obsolete_Tie",
		1: "obsolete_Ground",
		2: "Free",
		3: "Constrained",
		4: "Fixed",
	},
	First: 2,
}

var MeasureType = &Enum{
	Name: "MeasureType",
	Values: map[int32]string{
		0: "Candidate",
		1: "Manual",
		2: "RegisteredPixel",
		3: "RegisteredSubPixel",
	},
	First: 0,
}

var AprioriSource = &Enum{
	Name: "AprioriSource",
	Values: map[int32]string{
		0: "None",
		1: "User",
		2: "AverageOfMeasures",
		3: "Reference",
		4: "Ellipsoid",
		5: "DEM",
		6: "Basemap",
		7: "BundleSolution",
	},
	First: 0,
}

func headerTable(name string, sizeTable bool) *Table {
	fields := []Field{
		{Name: "networkId", Number: 1, Kind: KindString},
		{Name: "targetName", Number: 2, Kind: KindString},
		{Name: "created", Number: 3, Kind: KindString},
		{Name: "lastModified", Number: 4, Kind: KindString},
		{Name: "description", Number: 5, Kind: KindString},
		{Name: "userName", Number: 6, Kind: KindString},
	}
	if sizeTable {
		fields = append(fields, Field{Name: FieldPointSizes, Number: 7, Kind: KindInt32, Repeated: true, Packed: true})
	}
	return NewTable(name, fields...)
}

func pointTable(name string) *Table {
	return NewTable(name,
		Field{Name: FieldID, Number: 1, Kind: KindString},
		Field{Name: "type", Number: 2, Kind: KindEnum, Enum: PointType, Alias: "pointType"},
		Field{Name: "chooserName", Number: 3, Kind: KindString, Alias: "pointChoosername"},
		Field{Name: "datetime", Number: 4, Kind: KindString, Alias: "pointDatetime"},
		Field{Name: "editLock", Number: 5, Kind: KindBool, Alias: "pointEditLock"},
		Field{Name: "ignore", Number: 6, Kind: KindBool, Alias: "pointIgnore"},
		Field{Name: "jigsawRejected", Number: 7, Kind: KindBool, Alias: "pointJigsawRejected"},
		Field{Name: FieldReferenceIndex, Number: 8, Kind: KindInt32},
		Field{Name: "aprioriSurfPointSource", Number: 9, Kind: KindEnum, Enum: AprioriSource},
		Field{Name: "aprioriSurfPointSourceFile", Number: 10, Kind: KindString},
		Field{Name: "aprioriRadiusSource", Number: 11, Kind: KindEnum, Enum: AprioriSource},
		Field{Name: "aprioriRadiusSourceFile", Number: 12, Kind: KindString},
		Field{Name: "latitudeConstrained", Number: 13, Kind: KindBool},
		Field{Name: "longitudeConstrained", Number: 14, Kind: KindBool},
		Field{Name: "radiusConstrained", Number: 15, Kind: KindBool},
		Field{Name: "aprioriX", Number: 16, Kind: KindDouble},
		Field{Name: "aprioriY", Number: 17, Kind: KindDouble},
		Field{Name: "aprioriZ", Number: 18, Kind: KindDouble},
		Field{Name: "aprioriCovar", Number: 19, Kind: KindDouble, Repeated: true, Packed: true},
		Field{Name: "adjustedX", Number: 20, Kind: KindDouble},
		Field{Name: "adjustedY", Number: 21, Kind: KindDouble},
		Field{Name: "adjustedZ", Number: 22, Kind: KindDouble},
		Field{Name: "adjustedCovar", Number: 23, Kind: KindDouble, Repeated: true, Packed: true},
		// Point logs are read but never written.
		Field{Name: FieldLog, Number: 24, Kind: KindMessage, Repeated: true, Alias: "pointLog", Unsupported: true},
		Field{Name: FieldMeasures, Number: 25, Kind: KindMessage, Repeated: true},
	)
}

func measureTable(name string) *Table {
	return NewTable(name,
		Field{Name: "serialnumber", Number: 1, Kind: KindString},
		Field{Name: "type", Number: 2, Kind: KindEnum, Enum: MeasureType, Alias: "measureType"},
		Field{Name: "sample", Number: 3, Kind: KindDouble, PixelCentered: true},
		Field{Name: "line", Number: 4, Kind: KindDouble, PixelCentered: true},
		Field{Name: "sampleResidual", Number: 5, Kind: KindDouble},
		Field{Name: "lineResidual", Number: 6, Kind: KindDouble},
		Field{Name: "choosername", Number: 7, Kind: KindString, Alias: "measureChoosername"},
		Field{Name: "datetime", Number: 8, Kind: KindString, Alias: "measureDatetime"},
		Field{Name: "editLock", Number: 9, Kind: KindBool, Alias: "measureEditLock"},
		Field{Name: "ignore", Number: 10, Kind: KindBool, Alias: "measureIgnore"},
		Field{Name: "jigsawRejected", Number: 11, Kind: KindBool, Alias: "measureJigsawRejected"},
		Field{Name: "diameter", Number: 12, Kind: KindDouble},
		Field{Name: "apriorisample", Number: 13, Kind: KindDouble, PixelCentered: true},
		Field{Name: "aprioriline", Number: 14, Kind: KindDouble, PixelCentered: true},
		Field{Name: "samplesigma", Number: 15, Kind: KindDouble},
		Field{Name: "linesigma", Number: 16, Kind: KindDouble},
		Field{Name: FieldLog, Number: 17, Kind: KindMessage, Repeated: true, Alias: "measureLog"},
	)
}

// logDataTable is shared by measure log and point log entries.
func logDataTable(name string) *Table {
	return NewTable(name,
		Field{Name: "doubleDataType", Number: 1, Kind: KindInt32},
		Field{Name: "doubleDataValue", Number: 2, Kind: KindDouble},
		Field{Name: "boolDataType", Number: 3, Kind: KindInt32},
		Field{Name: "boolDataValue", Number: 4, Kind: KindBool},
	)
}
