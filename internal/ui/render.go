package ui

import (
	"fmt"
	"strings"

	"github.com/tturner/blecal/internal/batch"
	"github.com/tturner/blecal/internal/meterble"
)

type row struct {
	label string
	value string
	style func(Styles) func(...string) string
}

func renderRows(st Styles, title string, rows []row) string {
	var b strings.Builder
	b.WriteString(st.Header.Render(title))
	b.WriteString("\n")
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		render := st.Value.Render
		if r.style != nil {
			render = r.style(st)
		}
		b.WriteString(st.Label.Render(r.label))
		b.WriteString(" ")
		b.WriteString(render(r.value))
		b.WriteString("\n")
	}
	return b.String()
}

func hexStyle(st Styles) func(...string) string { return st.Hex.Render }

// RenderDecoded renders one decoded frame as a labelled block.
func RenderDecoded(d *meterble.Decoded, color bool) string {
	st := StylesFor(color)

	name := d.OADName
	if name == "" {
		name = "unknown"
	}
	dir := "request"
	if d.IsResp {
		dir = "response"
	}
	title := fmt.Sprintf("%s %s (%s)", name, dir, d.OADHex)

	valid := "yes"
	validStyle := func(s Styles) func(...string) string { return s.Success.Render }
	if !d.OK {
		valid = "no (checksum or length mismatch)"
		validStyle = func(s Styles) func(...string) string { return s.Warning.Render }
	}

	rows := []row{
		{label: "valid", value: valid, style: validStyle},
		{label: "length", value: fmt.Sprintf("%d", d.Len)},
		{label: "data", value: d.DataHex, style: hexStyle},
		{label: "checksum", value: d.CSHex, style: hexStyle},
	}
	if d.Result != nil {
		rows = append(rows, row{label: "result", value: fmt.Sprintf("0x%02X %s", *d.Result, d.ResultName)})
	}
	rows = append(rows,
		row{label: "hw version", value: d.HWVer},
		row{label: "sw version", value: d.SWVer},
		row{label: "prepare", value: d.PrepareState},
		row{label: "format", value: d.ConnectFmt},
		row{label: "addr", value: d.Addr, style: hexStyle},
		row{label: "addrAscii6", value: d.AddrASCII6},
		row{label: "slot", value: uint8Text(d.Slot)},
		row{label: "pulse", value: namedText(d.Pulse, func(v uint8) string { return meterble.PulseType(v).String() })},
		row{label: "power", value: uint8Text(d.Power)},
		row{label: "mode", value: namedText(d.Mode, func(v uint8) string { return meterble.TestMode(v).String() })},
		row{label: "baud", value: d.Baud},
	)
	if d.MeterNo != nil {
		rows = append(rows, row{label: "meterNo", value: fmt.Sprintf("%d", *d.MeterNo)})
	}
	if d.BaudCode != nil && d.Baud == "" {
		rows = append(rows, row{label: "baud code", value: fmt.Sprintf("0x%02X (unknown)", *d.BaudCode)})
	}
	return st.Box.Render(strings.TrimRight(renderRows(st, title, rows), "\n"))
}

// RenderEncoded renders encoded frames, one block per item.
func RenderEncoded(items []batch.EncodedItem, color bool) string {
	st := StylesFor(color)
	blocks := make([]string, 0, len(items))
	for _, item := range items {
		rows := []row{{label: "frame", value: spacedHex(item.Frame), style: hexStyle}}
		if len(item.Frame) >= meterble.MinFrameSize {
			data := item.Frame[meterble.StartSize+2 : len(item.Frame)-meterble.EndSize-1]
			rows = append(rows,
				row{label: "length", value: fmt.Sprintf("%d", item.Frame[meterble.StartSize])},
				row{label: "data", value: spacedHex(data), style: hexStyle},
			)
		}
		blocks = append(blocks, st.Box.Render(strings.TrimRight(renderRows(st, item.OAD, rows), "\n")))
	}
	return strings.Join(blocks, "\n")
}

// RenderOutcome renders a batch outcome: the error, or every item.
func RenderOutcome(out batch.Outcome, color bool) string {
	st := StylesFor(color)
	if out.Err != nil || out.Error != "" {
		return st.Error.Render("error:") + " " + out.Error
	}
	switch out.Mode {
	case batch.ModeEncode:
		return RenderEncoded(out.Encoded(), color)
	case batch.ModeDecode:
		decoded := out.Decoded()
		blocks := make([]string, 0, len(decoded))
		for _, d := range decoded {
			blocks = append(blocks, RenderDecoded(d, color))
		}
		return strings.Join(blocks, "\n")
	}
	return ""
}

// RenderSegments renders an itemContent breakdown.
func RenderSegments(segs []meterble.Segment, color bool) string {
	st := StylesFor(color)
	var (
		b      strings.Builder
		packed []byte
	)
	for _, seg := range segs {
		width := "auto"
		if seg.Width > 0 {
			width = fmt.Sprintf("%d", seg.Width)
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			st.Label.Render(fmt.Sprintf("#%d", seg.Index)),
			st.Hex.Render(spacedHex(seg.Bytes)),
			st.Dim.Render(fmt.Sprintf("(%s, width %s, %s)", seg.Source, width, seg.Endian)))
		packed = append(packed, seg.Bytes...)
	}
	fmt.Fprintf(&b, "%s %s", st.Label.Render("packed"), st.Hex.Render(meterble.EncodeHex(packed)))
	return b.String()
}

func spacedHex(b []byte) string {
	return fmt.Sprintf("% X", b)
}

func uint8Text(v *uint8) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func namedText(v *uint8, name func(uint8) string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("0x%02X %s", *v, name(*v))
}
