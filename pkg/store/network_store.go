package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/codec"
	"github.com/ssargent/isiscnet/pkg/diag"
	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/framing"
	"github.com/ssargent/isiscnet/pkg/pvl"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/table"
)

// NetworkStore reads or writes one control network file. A store is used for
// a single read or a single write and is not safe for concurrent use.
type NetworkStore struct {
	config Config
	file   *os.File
	src    io.ReaderAt // read side of file
	size   int64
	logger *zap.Logger
	diag   *diag.Collector
	state  state
	now    func() time.Time

	label  *pvl.Label
	layout Layout
	schema *schema.Schema
	header codec.NetworkHeader

	points   int
	measures int
}

// Open opens config.FilePath for reading, or creates and truncates it for
// writing. Failures wrap errs.ErrStorageUnavailable.
func Open(config Config) (*NetworkStore, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		file *os.File
		err  error
	)
	switch config.Mode {
	case ModeRead:
		file, err = os.Open(config.FilePath)
	case ModeWrite:
		if dir := filepath.Dir(config.FilePath); dir != "" {
			if mkErr := os.MkdirAll(dir, 0750); mkErr != nil {
				return nil, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, mkErr)
			}
		}
		file, err = os.OpenFile(config.FilePath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	default:
		return nil, fmt.Errorf("%w: unknown mode %d", errs.ErrStorageUnavailable, config.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}

	s := &NetworkStore{
		config: config,
		file:   file,
		src:    file,
		logger: logger.With(zap.String("path", config.FilePath), zap.Stringer("mode", config.Mode)),
		diag:   diag.NewCollector(logger),
		state:  stateOpen,
		now:    time.Now,
	}
	if config.Mode == ModeRead {
		stat, err := file.Stat()
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err), file.Close())
		}
		s.size = stat.Size()
	}
	return s, nil
}

func (s *NetworkStore) expect(mode Mode, want ...state) error {
	if s.config.Mode != mode {
		return fmt.Errorf("%w: store opened for %s", errs.ErrInvalidState, s.config.Mode)
	}
	for _, st := range want {
		if s.state == st {
			return nil
		}
	}
	return fmt.Errorf("%w: store is %s", errs.ErrInvalidState, s.state)
}

// ReadHeader parses the text label and the binary header. Nothing in the
// points region is read.
func (s *NetworkStore) ReadHeader() error {
	if err := s.expect(ModeRead, stateOpen); err != nil {
		return err
	}

	label, err := pvl.Parse(io.NewSectionReader(s.src, 0, s.size))
	if err != nil {
		return err
	}
	lay, err := LayoutFromLabel(label)
	if err != nil {
		return err
	}
	if err := lay.Validate(s.size); err != nil {
		return err
	}
	sch, err := schema.Lookup(lay.Version)
	if err != nil {
		return err
	}

	buf := make([]byte, lay.HeaderBytes)
	if _, err := s.src.ReadAt(buf, lay.HeaderStartByte); err != nil {
		return fmt.Errorf("%w: reading binary header: %v", errs.ErrMalformedHeader, err)
	}
	header, err := codec.DecodeHeader(sch, buf)
	if err != nil {
		return fmt.Errorf("%w: binary header: %w", errs.ErrMalformedHeader, err)
	}

	s.label, s.layout, s.schema, s.header = label, lay, sch, header
	s.state = stateHeaderParsed
	s.logger.Debug("header parsed",
		zap.Int("version", int(lay.Version)),
		zap.Int64("header_bytes", lay.HeaderBytes),
		zap.Int64("points_bytes", lay.PointsBytes))
	return nil
}

// Points returns a reader over the points region. ReadHeader must have
// succeeded.
func (s *NetworkStore) Points() (*PointReader, error) {
	if err := s.expect(ModeRead, stateHeaderParsed); err != nil {
		return nil, err
	}
	f, err := framing.ForRead(s.schema.Framing, s.header.PointMessageSizes, s.layout.PointsBytes)
	if err != nil {
		return nil, err
	}
	region := io.NewSectionReader(s.src, s.layout.PointsStartByte, s.layout.PointsBytes)
	return NewPointReader(region, f, codec.NewPointCodec(s.schema, s.diag), PointReaderConfig{}), nil
}

// Read decodes the whole network into a frame.
func (s *NetworkStore) Read() (*table.Frame, error) {
	if err := s.ReadHeader(); err != nil {
		return nil, err
	}
	r, err := s.Points()
	if err != nil {
		return nil, err
	}

	var points []schema.Point
	it := r.Iterator()
	for it.Next() {
		p := it.Point()
		points = append(points, p)
		s.measures += len(p.Measures)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	s.points = len(points)
	s.state = statePointsStreamed

	m := table.NewMapper(s.schema)
	s.logger.Info("network read", zap.Int("points", s.points), zap.Int("measures", s.measures))
	return &table.Frame{
		Version: s.layout.Version,
		Columns: m.Columns(),
		Rows:    m.Flatten(points),
		Label:   s.label,
		Info:    s.header.NetworkInfo,
	}, nil
}

// Write encodes frame and writes the binary header, the points and finally
// the text label.
func (s *NetworkStore) Write(frame *table.Frame, opts WriteOptions) error {
	if err := s.expect(ModeWrite, stateOpen); err != nil {
		return err
	}
	opts = opts.withDefaults(s.now())
	if opts.TargetName == None {
		s.logger.Warn("no target name given; ISIS expects a body such as Moon or Mars")
	}
	sch, err := schema.Lookup(opts.Version)
	if err != nil {
		return err
	}
	s.schema = sch

	var rows []table.Row
	if frame != nil {
		rows = frame.Rows
	}
	points, err := table.NewMapper(sch).Group(rows)
	if err != nil {
		return err
	}

	pc := codec.NewPointCodec(sch, s.diag)
	messages := make([][]byte, len(points))
	sizes := make([]int, len(points))
	for i, p := range points {
		if opts.PointIDPrefix != "" || opts.PointIDSuffix != "" {
			p.Fields[schema.FieldID] = opts.PointIDPrefix + p.ID() + opts.PointIDSuffix
		}
		buf, err := pc.EncodePoint(p)
		if err != nil {
			return fmt.Errorf("point %q: %w", p.ID(), err)
		}
		messages[i], sizes[i] = buf, len(buf)
		s.points++
		s.measures += len(p.Measures)
	}
	s.state = statePointsEncoded

	f, err := framing.ForWrite(sch.Framing)
	if err != nil {
		return err
	}
	sizeTable, pointsBytes, err := f.FinalizeSizes(sizes)
	if err != nil {
		return err
	}

	info := opts.info()
	headerBuf, err := codec.EncodeHeader(sch, codec.NetworkHeader{NetworkInfo: info, PointMessageSizes: sizeTable})
	if err != nil {
		return err
	}

	lay := Layout{
		Version:         opts.Version,
		HeaderStartByte: opts.HeaderStartByte,
		HeaderBytes:     int64(len(headerBuf)),
		PointsStartByte: opts.HeaderStartByte + int64(len(headerBuf)),
		PointsBytes:     pointsBytes,
	}
	// The label is encoded up front so nothing is written when it cannot be.
	label := buildLabel(lay, info, s.points, s.measures)
	var text bytes.Buffer
	if err := pvl.Encode(&text, label); err != nil {
		return err
	}
	if int64(text.Len()) >= lay.HeaderStartByte {
		return fmt.Errorf("%w: label is %d bytes, header starts at %d",
			errs.ErrLabelTooLarge, text.Len(), lay.HeaderStartByte)
	}

	if _, err := s.file.WriteAt(headerBuf, opts.HeaderStartByte); err != nil {
		return err
	}
	s.state = stateBinaryHeaderWritten

	pw := NewPointWriter(io.NewOffsetWriter(s.file, lay.PointsStartByte), f, pointsBytes, PointWriterConfig{})
	for _, msg := range messages {
		if _, err := pw.Put(msg); err != nil {
			return err
		}
	}
	if err := pw.Flush(); err != nil {
		return err
	}
	s.state = statePointsWritten

	if _, err := s.file.WriteAt(text.Bytes(), 0); err != nil {
		return err
	}
	s.state = stateTextHeaderWritten

	s.label, s.layout = label, lay
	s.header = codec.NetworkHeader{NetworkInfo: info, PointMessageSizes: sizeTable}
	s.logger.Info("network written",
		zap.Int("version", int(lay.Version)),
		zap.Int("points", s.points),
		zap.Int("measures", s.measures),
		zap.Int("diagnostics", s.diag.Len()))
	return nil
}

// Close syncs a written file and releases the handle. It is safe to call
// more than once and after a failed operation.
func (s *NetworkStore) Close() error {
	if s.file == nil {
		return nil
	}
	var err error
	if s.config.Mode == ModeWrite {
		err = s.file.Sync()
	}
	err = multierr.Append(err, s.file.Close())
	s.file = nil
	s.state = stateClosed
	return err
}

// PointCount returns the points decoded or encoded so far.
func (s *NetworkStore) PointCount() int { return s.points }

// MeasureCount returns the measures decoded or encoded so far.
func (s *NetworkStore) MeasureCount() int { return s.measures }

// Layout returns the byte layout parsed or written.
func (s *NetworkStore) Layout() Layout { return s.layout }

// Label returns the parsed or written text label.
func (s *NetworkStore) Label() *pvl.Label { return s.label }

// Info returns the network metadata from the binary header.
func (s *NetworkStore) Info() schema.NetworkInfo { return s.header.NetworkInfo }

// Diagnostics returns the non-fatal conditions reported so far.
func (s *NetworkStore) Diagnostics() []diag.Diagnostic { return s.diag.Diagnostics() }

// ReadNetwork reads the network at path.
func ReadNetwork(path string, logger *zap.Logger) (frame *table.Frame, err error) {
	s, err := Open(Config{FilePath: path, Mode: ModeRead, Logger: logger})
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()
	frame, err = s.Read()
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// WriteNetwork writes frame to path and returns the diagnostics raised while
// encoding.
func WriteNetwork(frame *table.Frame, path string, opts WriteOptions, logger *zap.Logger) (diags []diag.Diagnostic, err error) {
	s, err := Open(Config{FilePath: path, Mode: ModeWrite, Logger: logger})
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()
	if err := s.Write(frame, opts); err != nil {
		return s.Diagnostics(), err
	}
	return s.Diagnostics(), nil
}
