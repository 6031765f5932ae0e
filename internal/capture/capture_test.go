package capture

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/blecal/internal/meterble"
)

func TestWriteAndReadFrames(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 0)
	require.NoError(t, err)

	req, err := meterble.BuildFrame(byte(meterble.CmdReadMcuVersion), nil)
	require.NoError(t, err)
	resp, err := meterble.BuildFrame(byte(meterble.CmdReadMcuVersion.Response()), []byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)
	broken := []byte{0x00, 0x7E, 0x7E, 0x5A, 0x06, 0x00, 0xDA, 0x7E, 0xA5}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, w.WriteFrame(ts, req))
	require.NoError(t, w.WriteFrame(ts.Add(time.Millisecond), resp))
	require.NoError(t, w.WriteFrame(ts.Add(2*time.Millisecond), broken))
	assert.Equal(t, 3, w.Count())
	require.NoError(t, w.Close())

	records, err := ReadFrames(&buf)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.True(t, records[0].Timestamp.Equal(ts))
	assert.Equal(t, req, records[0].Data)
	require.NotNil(t, records[0].Layer)
	assert.Equal(t, byte(meterble.CmdReadMcuVersion), records[0].Layer.Frame.Command)
	assert.True(t, records[0].Layer.Frame.Valid)

	require.NotNil(t, records[1].Layer)
	assert.True(t, records[1].Layer.Frame.IsResponse())
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, records[1].Layer.Payload())

	assert.Nil(t, records[2].Layer)
	assert.ErrorIs(t, records[2].Err, meterble.ErrBadStart)
}

func TestCreateAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.pcap")
	w, err := Create(path, DefaultSnaplen)
	require.NoError(t, err)

	frame, err := meterble.BuildFrame(byte(meterble.CmdReset), nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(time.Now(), frame))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	records, err := Open(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, frame, records[0].Data)
}

func TestSnaplenTruncates(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 12)
	require.NoError(t, err)

	frame, err := meterble.BuildFrame(byte(meterble.CmdMeterTest), []byte{1, 6, 1, 0, 1, 1, 0xC4, 0x09})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(time.Now(), frame))

	records, err := ReadFrames(&buf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Data, 12)
	assert.Nil(t, records[0].Layer)
	assert.Error(t, records[0].Err)
}

func TestReadFramesRejectsOtherLinkTypes(t *testing.T) {
	var buf bytes.Buffer
	pw := pcapgo.NewWriter(&buf)
	require.NoError(t, pw.WriteFileHeader(65535, layers.LinkTypeEthernet))

	_, err := ReadFrames(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected link type")
}
