package batch

import (
	"fmt"
	"time"

	"github.com/tturner/blecal/internal/logging"
	"github.com/tturner/blecal/internal/meterble"
	"github.com/tturner/blecal/internal/metrics"
)

// FrameRecorder receives every frame produced or decoded, e.g. a capture.Writer.
type FrameRecorder interface {
	WriteFrame(ts time.Time, frame []byte) error
}

// EncodedItem is an encode request with its frame attached.
type EncodedItem struct {
	meterble.EncodeRequest `yaml:",inline"`
	Frame                  []byte `json:"-" yaml:"-"`
	Payload                string `json:"payload" yaml:"payload"`
}

// Outcome is the result of one request. On failure Error carries the text
// of the first failing item and Payload is empty.
type Outcome struct {
	ID      string `json:"id" yaml:"id"`
	Mode    Mode   `json:"mode" yaml:"mode"`
	Payload any    `json:"payload,omitempty" yaml:"payload,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Err     error  `json:"-" yaml:"-"`
}

// Encoded returns the encoded items of a successful encode outcome.
func (o Outcome) Encoded() []EncodedItem {
	switch p := o.Payload.(type) {
	case EncodedItem:
		return []EncodedItem{p}
	case []EncodedItem:
		return p
	}
	return nil
}

// Decoded returns the decoded items of a successful decode outcome.
func (o Outcome) Decoded() []*meterble.Decoded {
	switch p := o.Payload.(type) {
	case *meterble.Decoded:
		return []*meterble.Decoded{p}
	case []*meterble.Decoded:
		return p
	}
	return nil
}

// Dispatcher routes requests to the codec. All fields are optional.
type Dispatcher struct {
	Logger   *logging.Logger
	Sink     *metrics.Sink
	Recorder FrameRecorder
	Source   string
}

// Dispatch runs every item of req. The first failing item aborts the batch
// and no partial results are returned.
func (d *Dispatcher) Dispatch(req *Request) Outcome {
	start := time.Now()
	out := Outcome{ID: req.ID, Mode: req.Mode}

	var (
		payload any
		count   int
		err     error
	)
	switch req.Mode {
	case ModeEncode:
		count = len(req.Encode)
		payload, err = d.encodeAll(req)
	case ModeDecode:
		count = len(req.Decode)
		payload, err = d.decodeAll(req)
	default:
		err = fmt.Errorf("unknown mode %q (want encode or decode)", req.Mode)
	}

	if err != nil {
		out.Error = err.Error()
		out.Err = err
	} else {
		out.Payload = payload
	}
	d.logOutcome(out, count, time.Since(start))
	return out
}

func (d *Dispatcher) encodeAll(req *Request) (any, error) {
	if len(req.Encode) == 0 {
		return nil, fmt.Errorf("encode: empty payload")
	}
	items := make([]EncodedItem, 0, len(req.Encode))
	for i, r := range req.Encode {
		t0 := time.Now()
		frame, err := meterble.Encode(r)
		d.record(req.ID, metrics.OperationEncode, r.OAD, t0, len(frame), err)
		if err != nil {
			return nil, itemError(req, i, err)
		}
		items = append(items, EncodedItem{
			EncodeRequest: r,
			Frame:         frame,
			Payload:       meterble.EncodeHex(frame),
		})
	}
	for _, it := range items {
		d.emit("tx", it.Frame[meterble.StartSize+1], it.Frame)
	}
	if req.List {
		return items, nil
	}
	return items[0], nil
}

func (d *Dispatcher) decodeAll(req *Request) (any, error) {
	if len(req.Decode) == 0 {
		return nil, fmt.Errorf("decode: empty payload")
	}
	items := make([]*meterble.Decoded, 0, len(req.Decode))
	raws := make([][]byte, 0, len(req.Decode))
	for i, in := range req.Decode {
		t0 := time.Now()
		raw, err := in.Bytes()
		var dec *meterble.Decoded
		if err == nil {
			dec, err = meterble.Decode(raw)
		}
		command := ""
		if dec != nil {
			command = dec.OADName
			if command == "" {
				command = dec.OADHex
			}
		}
		d.record(req.ID, metrics.OperationDecode, command, t0, len(raw), err)
		if err != nil {
			return nil, itemError(req, i, err)
		}
		items = append(items, dec)
		raws = append(raws, raw)
	}
	for i, dec := range items {
		d.emit("rx", dec.Frame.Command, raws[i])
	}
	if req.List {
		return items, nil
	}
	return items[0], nil
}

func itemError(req *Request, i int, err error) error {
	if req.List {
		return fmt.Errorf("item %d: %w", i, err)
	}
	return err
}

func (d *Dispatcher) record(id string, op metrics.OperationType, command string, start time.Time, n int, err error) {
	if d.Sink == nil {
		return
	}
	m := metrics.Metric{
		Timestamp:  start,
		Source:     d.Source,
		RequestID:  id,
		Operation:  op,
		Command:    command,
		Success:    err == nil,
		DurationMs: metrics.Since(start),
		Bytes:      n,
	}
	if err != nil {
		m.ErrorKind = meterble.KindOf(err).String()
		m.Error = err.Error()
	}
	d.Sink.Record(m)
}

// emit captures and logs a frame. Callers emit only once the whole batch has
// succeeded so an aborted batch leaves nothing in the capture.
func (d *Dispatcher) emit(dir string, command byte, frame []byte) {
	d.capture(frame)
	if d.Logger != nil {
		d.Logger.LogFrame(dir, command, frame)
	}
}

func (d *Dispatcher) capture(frame []byte) {
	if d.Recorder == nil {
		return
	}
	if err := d.Recorder.WriteFrame(time.Now(), frame); err != nil && d.Logger != nil {
		d.Logger.Error("capture frame: %v", err)
	}
}

func (d *Dispatcher) logOutcome(out Outcome, count int, elapsed time.Duration) {
	if d.Logger == nil {
		return
	}
	entry := d.Logger.WithFields(map[string]interface{}{
		"id":       out.ID,
		"mode":     string(out.Mode),
		"items":    count,
		"duration": elapsed.String(),
	})
	if out.Err != nil {
		entry.WithField("error", out.Error).Error("batch failed")
		return
	}
	entry.Debug("batch done")
}
