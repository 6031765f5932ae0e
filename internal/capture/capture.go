package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/tturner/blecal/internal/meterble"
)

// LinkTypeMeterBLE is DLT_USER0. Each pcap record holds exactly one frame.
const LinkTypeMeterBLE = layers.LinkType(147)

// DefaultSnaplen fits the largest legal frame.
const DefaultSnaplen = meterble.MinFrameSize + meterble.MaxPayloadSize

// Writer records frames to a pcap stream
type Writer struct {
	mu      sync.Mutex
	writer  *pcapgo.Writer
	closer  io.Closer
	snaplen int
	count   int
}

// NewWriter writes the pcap file header to w
func NewWriter(w io.Writer, snaplen int) (*Writer, error) {
	if snaplen <= 0 {
		snaplen = DefaultSnaplen
	}
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(uint32(snaplen), LinkTypeMeterBLE); err != nil {
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	return &Writer{writer: pw, snaplen: snaplen}, nil
}

// Create opens path for writing and returns a Writer that closes the file
func Create(path string, snaplen int) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pcap file: %w", err)
	}
	w, err := NewWriter(file, snaplen)
	if err != nil {
		file.Close()
		return nil, err
	}
	w.closer = file
	return w, nil
}

// WriteFrame appends one frame. Frames longer than the snaplen are truncated
// in the record, with the original length preserved.
func (w *Writer) WriteFrame(ts time.Time, frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data := frame
	if len(data) > w.snaplen {
		data = data[:w.snaplen]
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(frame),
	}
	if err := w.writer.WritePacket(ci, data); err != nil {
		return fmt.Errorf("write pcap record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of frames written
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying file when the Writer owns one (idempotent)
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

// Record is one frame read back from a capture
type Record struct {
	Timestamp time.Time
	Data      []byte
	Layer     *meterble.FrameLayer // nil when the frame failed to parse
	Err       error
}

// ReadFrames reads every record and decodes it through the gopacket layer.
// A record that fails to parse is returned with Err set; reading continues.
func ReadFrames(r io.Reader) ([]Record, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read pcap header: %w", err)
	}
	if lt := reader.LinkType(); lt != LinkTypeMeterBLE {
		return nil, fmt.Errorf("unexpected link type %d (want %d)", lt, LinkTypeMeterBLE)
	}

	var records []Record
	for {
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, fmt.Errorf("read pcap record %d: %w", len(records)+1, err)
		}

		rec := Record{Timestamp: ci.Timestamp, Data: data}
		packet := gopacket.NewPacket(data, meterble.LayerTypeFrame, gopacket.Default)
		if l, ok := packet.Layer(meterble.LayerTypeFrame).(*meterble.FrameLayer); ok {
			rec.Layer = l
		} else if el := packet.ErrorLayer(); el != nil {
			rec.Err = el.Error()
		} else {
			rec.Err = fmt.Errorf("no frame layer in record")
		}
		records = append(records, rec)
	}
	return records, nil
}

// Open reads all frames from a pcap file
func Open(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap file: %w", err)
	}
	defer file.Close()
	return ReadFrames(file)
}
