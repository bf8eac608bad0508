package measurelog

import (
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/wire"
)

// LogData is a raw point log entry. Point logs are decoded for inspection
// only; they are never written back.
type LogData struct {
	DoubleDataType  int32   `json:"double_data_type"`
	DoubleDataValue float64 `json:"double_data_value"`
	BoolDataType    int32   `json:"bool_data_type"`
	BoolDataValue   bool    `json:"bool_data_value"`
}

// DecodeLogData parses a PointLogData message of version v.
func DecodeLogData(b []byte, v schema.Version) (LogData, error) {
	s, err := schema.Lookup(v)
	if err != nil {
		return LogData{}, err
	}
	rec, err := wire.Unmarshal(s.PointLog, b)
	if err != nil {
		return LogData{}, err
	}
	s.PointLog.FillDefaults(rec)
	return LogData{
		DoubleDataType:  rec["doubleDataType"].(int32),
		DoubleDataValue: rec["doubleDataValue"].(float64),
		BoolDataType:    rec["boolDataType"].(int32),
		BoolDataValue:   rec["boolDataValue"].(bool),
	}, nil
}
