package box

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"m7s.live/isobmff/pkg"
	"m7s.live/isobmff/pkg/util"
)

func mkbox(typ string, parts ...[]byte) []byte {
	var payload []byte
	for _, p := range parts {
		payload = append(payload, p...)
	}
	b := binary.BigEndian.AppendUint32(nil, uint32(BasicBoxLen+len(payload)))
	b = append(b, typ...)
	return append(b, payload...)
}

func u16(vs ...uint16) (b []byte) {
	for _, v := range vs {
		b = binary.BigEndian.AppendUint16(b, v)
	}
	return
}

func u32(vs ...uint32) (b []byte) {
	for _, v := range vs {
		b = binary.BigEndian.AppendUint32(b, v)
	}
	return
}

func u64(vs ...uint64) (b []byte) {
	for _, v := range vs {
		b = binary.BigEndian.AppendUint64(b, v)
	}
	return
}

func full(version uint8, flags uint32) []byte {
	return u32(uint32(version)<<24 | flags)
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func value(t *testing.T, box *Box, key string) any {
	t.Helper()
	fd, ok := box.Field(key)
	if !ok {
		t.Fatalf("%s has no field %q, fields: %+v", box.Type, key, box.Fields)
	}
	return fd.Value
}

func parse(t *testing.T, data []byte) []*Box {
	t.Helper()
	boxes, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	return boxes
}

func TestParseFtyp(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x14, 0x66, 0x74, 0x79, 0x70, 0x69, 0x73, 0x6F, 0x36, 0x00, 0x00, 0x00, 0x00, 0x69, 0x73, 0x6F, 0x36}
	boxes := parse(t, data)
	if len(boxes) != 1 {
		t.Fatalf("got %d boxes", len(boxes))
	}
	ftyp := boxes[0]
	if ftyp.Type != TypeFTYP || ftyp.Size != 20 || ftyp.Name != "File Type Box" {
		t.Fatalf("unexpected box %+v", ftyp)
	}
	if v := value(t, ftyp, "major_brand"); v != "iso6" {
		t.Errorf("major_brand = %v", v)
	}
	if v := value(t, ftyp, "minor_version"); v != uint64(0) {
		t.Errorf("minor_version = %v", v)
	}
	if v := value(t, ftyp, "compatible_brands"); v != "iso6" {
		t.Errorf("compatible_brands = %v", v)
	}
	fd, _ := ftyp.Field("major_brand")
	if fd.Name != "major_brand" || fd.Description != "Brand identifier." {
		t.Errorf("annotation %+v", fd)
	}
	if ftyp.IsContainer() || ftyp.Children != nil {
		t.Error("ftyp is not a container")
	}
}

func TestParseInput(t *testing.T) {
	data := mkbox("styp", []byte("msdh"), u32(0), []byte("msdhmsix"))
	for name, input := range map[string]any{
		"bytes":  data,
		"buffer": bytes.NewBuffer(data),
		"reader": strings.NewReader(string(data)),
	} {
		t.Run(name, func(t *testing.T) {
			boxes, err := Parse(input)
			if err != nil {
				t.Fatal(err)
			}
			if len(boxes) != 1 || value(t, boxes[0], "compatible_brands") != "msdh, msix" {
				t.Errorf("unexpected %+v", boxes)
			}
		})
	}
	t.Run("unsupported", func(t *testing.T) {
		_, err := Parse(42)
		var unsupported *UnsupportedInputError
		if !errors.As(err, &unsupported) {
			t.Fatalf("err = %v", err)
		}
		if unsupported.Type != "int" {
			t.Errorf("type = %q", unsupported.Type)
		}
	})
	t.Run("empty", func(t *testing.T) {
		boxes := parse(t, nil)
		if boxes == nil || len(boxes) != 0 {
			t.Errorf("want empty non-nil list, got %#v", boxes)
		}
	})
}

func TestUnknownBox(t *testing.T) {
	data := concat(mkbox("zzzz", []byte{1, 2, 3}), mkbox("free"))
	boxes := parse(t, data)
	if len(boxes) != 2 {
		t.Fatalf("got %d boxes", len(boxes))
	}
	unknown := boxes[0]
	if unknown.Type != f("zzzz") || unknown.Size != 11 {
		t.Errorf("unexpected %+v", unknown)
	}
	if unknown.Name != "" || unknown.Description != "" || unknown.Fields != nil || unknown.Children != nil || unknown.Err != nil {
		t.Errorf("unknown box should be opaque: %+v", unknown)
	}
	if boxes[1].Type != TypeFREE || boxes[1].Offset != 11 {
		t.Errorf("walk did not continue: %+v", boxes[1])
	}
}

func mvhdPayload(version uint8) []byte {
	b := full(version, 0)
	if version == 1 {
		b = append(b, u64(1<<40, 1<<40+1)...)
		b = append(b, u32(1000)...)
		b = append(b, u64(1<<53+1)...)
	} else {
		b = append(b, u32(100, 101, 1000, 5000)...)
	}
	b = append(b, u32(0x00010000)...)
	b = append(b, u16(0x0100, 0)...)
	b = append(b, u32(0, 0)...)
	b = append(b, u32(0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000)...)
	b = append(b, make([]byte, 24)...)
	return append(b, u32(2)...)
}

func TestMvhdVersions(t *testing.T) {
	t.Run("v0", func(t *testing.T) {
		mvhd := parse(t, mkbox("mvhd", mvhdPayload(0)))[0]
		if mvhd.Size != 108 || mvhd.Err != nil {
			t.Fatalf("unexpected %+v", mvhd)
		}
		for key, want := range map[string]any{
			"version":           uint64(0),
			"creation_time":     uint64(100),
			"modification_time": uint64(101),
			"timescale":         uint64(1000),
			"duration":          uint64(5000),
			"rate":              1.0,
			"volume":            1.0,
			"next_track_ID":     uint64(2),
		} {
			if v := value(t, mvhd, key); v != want {
				t.Errorf("%s = %v, want %v", key, v, want)
			}
		}
		matrix := value(t, mvhd, "matrix").([]uint64)
		if len(matrix) != 9 || matrix[8] != 0x40000000 {
			t.Errorf("matrix = %v", matrix)
		}
		fd, _ := mvhd.Field("pre_defined")
		if fd.Name != "pre-defined" {
			t.Errorf("pre_defined name = %q", fd.Name)
		}
	})
	t.Run("v1", func(t *testing.T) {
		mvhd := parse(t, mkbox("mvhd", mvhdPayload(1)))[0]
		if mvhd.Size != 120 || mvhd.Err != nil {
			t.Fatalf("unexpected %+v", mvhd)
		}
		if v := value(t, mvhd, "creation_time"); v != uint64(1<<40) {
			t.Errorf("creation_time = %v", v)
		}
		// beyond float64 precision
		if v := value(t, mvhd, "duration"); v != uint64(1<<53+1) {
			t.Errorf("duration = %v", v)
		}
		if v := value(t, mvhd, "next_track_ID"); v != uint64(2) {
			t.Errorf("next_track_ID = %v", v)
		}
	})
	t.Run("v2", func(t *testing.T) {
		data := concat(mkbox("mvhd", mvhdPayload(2)), mkbox("free"))
		boxes := parse(t, data)
		if len(boxes) != 2 {
			t.Fatalf("got %d boxes", len(boxes))
		}
		mvhd := boxes[0]
		if mvhd.Name != "Movie Header Box" || mvhd.Fields != nil {
			t.Errorf("invalid version should drop fields: %+v", mvhd.Fields)
		}
		if !errors.Is(mvhd.Err, ErrInvalidVersion) || mvhd.Error == "" {
			t.Errorf("err = %v", mvhd.Err)
		}
		if boxes[1].Type != TypeFREE {
			t.Error("walk did not continue")
		}
	})
	t.Run("truncated", func(t *testing.T) {
		payload := mvhdPayload(0)[:18]
		mvhd := parse(t, mkbox("mvhd", payload))[0]
		if _, ok := mvhd.Field("timescale"); !ok {
			t.Errorf("complete fields should be kept: %+v", mvhd.Fields)
		}
		if _, ok := mvhd.Field("duration"); ok {
			t.Error("duration is not complete")
		}
		if !errors.Is(mvhd.Err, util.ErrInsufficientData) {
			t.Errorf("err = %v", mvhd.Err)
		}
	})
}

func TestSizeAccounting(t *testing.T) {
	hdlr := mkbox("hdlr", full(0, 0), u32(0), []byte("vide"), u32(0, 0, 0), []byte("VideoHandler\x00"))
	data := concat(
		mkbox("ftyp", []byte("isom"), u32(0x200), []byte("isomiso2")),
		mkbox("moov",
			mkbox("mvhd", mvhdPayload(0)),
			mkbox("trak", mkbox("mdia", hdlr)),
		),
		mkbox("mdat", []byte("payload")),
	)
	boxes := parse(t, data)
	var total uint64
	for _, b := range boxes {
		total += b.Size
	}
	if total != uint64(len(data)) {
		t.Errorf("sum of sizes %d, input %d", total, len(data))
	}
	for _, top := range boxes {
		top.Walk(func(b *Box) bool {
			if !b.IsContainer() {
				return true
			}
			sum := uint64(0)
			offset := b.Offset + int64(b.HeaderSize)
			for _, c := range b.Children {
				if c.Offset != offset {
					t.Errorf("%s child %s offset %d, want %d", b.Type, c.Type, c.Offset, offset)
				}
				offset += int64(c.Size)
				sum += c.Size
			}
			if sum != b.Size-uint64(b.HeaderSize) {
				t.Errorf("%s children cover %d of %d bytes", b.Type, sum, b.Size-uint64(b.HeaderSize))
			}
			return true
		})
	}
	found := Find(boxes, TypeHDLR)
	if len(found) != 1 {
		t.Fatalf("found %d hdlr", len(found))
	}
	if v := value(t, found[0], "handler_type"); v != "vide" {
		t.Errorf("handler_type = %v", v)
	}
	if v := value(t, found[0], "name"); v != "VideoHandler" {
		t.Errorf("name = %v", v)
	}
}

func TestLargeAndOpenEndedSize(t *testing.T) {
	t.Run("largesize", func(t *testing.T) {
		data := concat(u32(1), []byte("free"), u64(20), []byte{9, 9, 9, 9}, mkbox("skip"))
		boxes := parse(t, data)
		if len(boxes) != 2 {
			t.Fatalf("got %d boxes", len(boxes))
		}
		if boxes[0].Size != 20 || boxes[0].HeaderSize != LargeBoxLen {
			t.Errorf("unexpected %+v", boxes[0])
		}
		if boxes[1].Offset != 20 {
			t.Errorf("next offset %d", boxes[1].Offset)
		}
	})
	t.Run("to end", func(t *testing.T) {
		mdat := mkbox("mdat", []byte("0123456789"))
		copy(mdat, u32(0))
		data := concat(mkbox("free"), mdat)
		boxes := parse(t, data)
		if len(boxes) != 2 || boxes[1].Size != uint64(len(mdat)) {
			t.Errorf("unexpected %+v", boxes)
		}
	})
}

func TestUUIDBox(t *testing.T) {
	id := []byte{0xA2, 0x39, 0x4F, 0x52, 0x5A, 0x9B, 0x4F, 0x14, 0xA2, 0x44, 0x6C, 0x42, 0x7C, 0x64, 0x8D, 0xF4}
	payload := []byte{1, 2, 3}
	data := concat(u32(uint32(8+16+len(payload))), []byte("uuid"), id, payload)
	p := NewParser(Options{Preview: 16})
	boxes, err := p.ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	b := boxes[0]
	if b.Subtype == nil || !bytes.Equal(b.Subtype[:], id) {
		t.Fatalf("subtype = %v", b.Subtype)
	}
	if b.Subtype.String() != "A2394F525A9B4F14A2446C427C648DF4" {
		t.Errorf("subtype hex = %s", b.Subtype)
	}
	if b.HeaderSize != BasicBoxLen+UserTypeLen || b.Preview != "010203" || b.Name != "User-defined Box" {
		t.Errorf("unexpected %+v", b)
	}
	id[0] = 0
	if b.Subtype[0] != 0xA2 {
		t.Error("subtype aliases the input")
	}
}

func TestDrefChildren(t *testing.T) {
	dref := mkbox("dref", full(0, 0), u32(1), mkbox("url ", full(0, 1)))
	data := concat(mkbox("dinf", dref), mkbox("free"))
	boxes := parse(t, data)
	d := Find(boxes, TypeDREF)[0]
	if v := value(t, d, "entry_count"); v != uint64(1) {
		t.Errorf("entry_count = %v", v)
	}
	if len(d.Children) != 1 || d.Children[0].Type != TypeURL {
		t.Fatalf("children %+v", d.Children)
	}
	url := d.Children[0]
	if url.Offset != d.Offset+8+8 {
		t.Errorf("url offset %d", url.Offset)
	}
	flags := value(t, url, "flags").(map[string]bool)
	if !flags["self-contained"] {
		t.Errorf("flags = %v", flags)
	}
	if _, ok := url.Field("location"); ok {
		t.Error("self-contained url has no location")
	}

	t.Run("invalid flags", func(t *testing.T) {
		bad := mkbox("dref", full(0, 1), u32(1), mkbox("url ", full(0, 1)))
		boxes := parse(t, concat(mkbox("dinf", bad), mkbox("free")))
		d := Find(boxes, TypeDREF)[0]
		if !errors.Is(d.Err, ErrInvalidFlags) || d.Fields != nil {
			t.Errorf("unexpected %+v", d)
		}
		if boxes[len(boxes)-1].Type != TypeFREE {
			t.Error("walk did not continue")
		}
	})
}

func TestMalformedSizes(t *testing.T) {
	t.Run("size below header", func(t *testing.T) {
		data := concat(u32(4), []byte("free"), mkbox("skip"))
		boxes := parse(t, data)
		if len(boxes) != 1 || !errors.Is(boxes[0].Err, ErrInvalidSize) {
			t.Errorf("unexpected %+v", boxes)
		}
	})
	t.Run("past buffer", func(t *testing.T) {
		data := concat(u32(100), []byte("ftyp"), []byte("iso6"))
		boxes := parse(t, data)
		if len(boxes) != 1 {
			t.Fatalf("got %d boxes", len(boxes))
		}
		b := boxes[0]
		if b.Size != 100 || !errors.Is(b.Err, ErrTruncatedBox) {
			t.Errorf("unexpected %+v", b)
		}
		if v := value(t, b, "major_brand"); v != "iso6" {
			t.Errorf("major_brand = %v", v)
		}
	})
	t.Run("trailing bytes", func(t *testing.T) {
		boxes := parse(t, concat(mkbox("free"), []byte{0, 0, 1}))
		if len(boxes) != 1 {
			t.Errorf("got %d boxes", len(boxes))
		}
	})
}

func TestStrict(t *testing.T) {
	p := NewParser(Options{Strict: true})
	t.Run("valid", func(t *testing.T) {
		if _, err := p.ParseBytes(mkbox("moov", mkbox("mvhd", mvhdPayload(1)))); err != nil {
			t.Fatal(err)
		}
	})
	t.Run("nested failure", func(t *testing.T) {
		data := concat(mkbox("moov", mkbox("mvhd", mvhdPayload(2))), mkbox("free"))
		boxes, err := p.ParseBytes(data)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("err = %v", err)
		}
		if de.Type != TypeMVHD || de.Offset != 8 || !errors.Is(err, ErrInvalidVersion) {
			t.Errorf("unexpected %+v", de)
		}
		if len(boxes) != 1 {
			t.Errorf("walk should stop, got %d boxes", len(boxes))
		}
	})
	t.Run("trailing bytes", func(t *testing.T) {
		_, err := p.ParseBytes([]byte{0, 0})
		if !errors.Is(err, ErrTruncatedHeader) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestNestingLimit(t *testing.T) {
	// every header opens a moov that runs to the end of the buffer
	data := bytes.Repeat([]byte{0, 0, 0, 0, 'm', 'o', 'o', 'v'}, 1000)
	t.Run("lenient", func(t *testing.T) {
		boxes := parse(t, data)
		depth, deepest := 0, boxes[0]
		for len(deepest.Children) > 0 {
			deepest = deepest.Children[0]
			depth++
		}
		if depth != DefaultMaxDepth-1 {
			t.Errorf("walked %d levels, want %d", depth+1, DefaultMaxDepth)
		}
		if !errors.Is(deepest.Err, ErrTooDeep) {
			t.Errorf("deepest box err = %v", deepest.Err)
		}
		if deepest.Offset != int64(8*depth) || deepest.Size != uint64(len(data)-8*depth) {
			t.Errorf("deepest box at %d size %d", deepest.Offset, deepest.Size)
		}
	})
	t.Run("custom", func(t *testing.T) {
		boxes, err := NewParser(Options{MaxDepth: 2}).ParseBytes(data)
		if err != nil {
			t.Fatal(err)
		}
		if len(boxes[0].Children) != 1 || boxes[0].Children[0].Children != nil || !errors.Is(boxes[0].Children[0].Err, ErrTooDeep) {
			t.Errorf("unexpected tree %+v", boxes[0])
		}
	})
	t.Run("strict", func(t *testing.T) {
		_, err := NewParser(Options{Strict: true}).ParseBytes(data)
		var de *DecodeError
		if !errors.As(err, &de) || !errors.Is(err, ErrTooDeep) || de.Offset != int64(8*(DefaultMaxDepth-1)) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestConcurrentParse(t *testing.T) {
	data := concat(
		mkbox("ftyp", []byte("iso6"), u32(0), []byte("iso6")),
		mkbox("moov", mkbox("mvhd", mvhdPayload(1))),
		mkbox("zzzz", u32(7)),
	)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				boxes, err := Parse(data)
				if err == nil && (len(boxes) != 3 || len(boxes[1].Children) != 1 || boxes[1].Children[0].Name == "") {
					err = errors.New("unexpected tree")
				}
				if err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestTraceLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: pkg.TraceLevel}))
	if _, err := NewParser(Options{Logger: logger}).ParseBytes(mkbox("moov", mkbox("mvhd", mvhdPayload(0)))); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"type=moov", "type=mvhd", "depth=1", "fields=13"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace log misses %q:\n%s", want, out)
		}
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewParser(Options{Logger: logger})
	data := concat(
		mkbox("mvhd", mvhdPayload(2)),
		mkbox("mfhd", full(0, 0), u32(1), []byte{0xFF}),
	)
	if _, err := p.ParseBytes(data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"impossible to parse box", "type=mvhd", "not everything has been parsed", "missing=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log misses %q:\n%s", want, out)
		}
	}
}

func TestRegistry(t *testing.T) {
	known := Known()
	for i := 1; i < len(known); i++ {
		if bytes.Compare(known[i-1][:], known[i][:]) >= 0 {
			t.Fatalf("not sorted at %d: %s %s", i, known[i-1], known[i])
		}
	}
	for _, typ := range known {
		d, ok := Lookup(typ)
		if !ok || d.Name == "" {
			t.Errorf("%s: incomplete descriptor", typ)
		}
	}
	for _, typ := range []BoxType{TypeMOOV, TypeTRAK, TypeDREF, TypeSTSD, TypeMETA} {
		if d, _ := Lookup(typ); !d.Container {
			t.Errorf("%s should be a container", typ)
		}
	}
	if d, _ := Lookup(TypeDREF); !d.HasDecoder() {
		t.Error("dref decodes its header")
	}
	if _, ok := Lookup(f("zzzz")); ok {
		t.Error("zzzz is not registered")
	}
}
