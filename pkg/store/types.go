package store

import (
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/schema"
)

// DefaultHeaderStartByte is where the binary header begins unless configured.
const DefaultHeaderStartByte int64 = 65536

// TimestampLayout formats Created and LastModified.
const TimestampLayout = "2006-01-02 15:04:05"

// None is written for descriptive fields the caller leaves empty.
const None = "None"

// Mode selects how a store opens its file.
type Mode uint8

const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Config holds configuration for a network store
type Config struct {
	FilePath string      // Path to the control network file
	Mode     Mode        // Read or write
	Logger   *zap.Logger // Receives diagnostics and warnings, nil for none
}

// PointReaderConfig holds configuration for the point reader
type PointReaderConfig struct {
	BufferSize int // Read buffer size, 0 for the bufio default
}

// PointWriterConfig holds configuration for the point writer
type PointWriterConfig struct {
	BufferSize int // Write buffer size, 0 for the bufio default
}

// WriteOptions is the network metadata recorded by a write.
type WriteOptions struct {
	Version         schema.Version
	HeaderStartByte int64
	NetworkID       string
	TargetName      string
	Description     string
	UserName        string
	Created         string
	LastModified    string
	// PointIDPrefix and PointIDSuffix are added to every point id.
	PointIDPrefix string
	PointIDSuffix string
}

func (o WriteOptions) withDefaults(now time.Time) WriteOptions {
	if o.Version == 0 {
		o.Version = schema.DefaultVersion
	}
	if o.HeaderStartByte == 0 {
		o.HeaderStartByte = DefaultHeaderStartByte
	}
	for _, s := range []*string{&o.NetworkID, &o.TargetName, &o.Description, &o.UserName} {
		if *s == "" {
			*s = None
		}
	}
	stamp := now.UTC().Format(TimestampLayout)
	if o.Created == "" {
		o.Created = stamp
	}
	if o.LastModified == "" {
		o.LastModified = stamp
	}
	return o
}

func (o WriteOptions) info() schema.NetworkInfo {
	return schema.NetworkInfo{
		NetworkID:    o.NetworkID,
		TargetName:   o.TargetName,
		Description:  o.Description,
		UserName:     o.UserName,
		Created:      o.Created,
		LastModified: o.LastModified,
	}
}

// PointIterator provides streaming access to decoded points
type PointIterator interface {
	Next() bool
	Point() schema.Point
	Err() error
	Close() error
}

type state uint8

const (
	stateClosed state = iota
	stateOpen
	stateHeaderParsed
	statePointsStreamed
	statePointsEncoded
	stateBinaryHeaderWritten
	statePointsWritten
	stateTextHeaderWritten
)

var stateNames = [...]string{
	stateClosed:              "closed",
	stateOpen:                "open",
	stateHeaderParsed:        "header parsed",
	statePointsStreamed:      "points streamed",
	statePointsEncoded:       "points encoded",
	stateBinaryHeaderWritten: "binary header written",
	statePointsWritten:       "points written",
	stateTextHeaderWritten:   "text header written",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
