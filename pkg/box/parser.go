package box

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"m7s.live/isobmff/pkg"
	"m7s.live/isobmff/pkg/util"
)

type Options struct {
	// Strict turns the first box-local failure into a Parse error instead of
	// recording it on the box and carrying on.
	Strict bool
	// Preview is how many leading content bytes of boxes without a decoder
	// are kept as hex in Box.Preview.
	Preview int
	// MaxDepth bounds container nesting. A container at the last level is
	// kept with ErrTooDeep and its children are not walked. 0 means DefaultMaxDepth.
	MaxDepth int
	Logger   *slog.Logger
}

const DefaultMaxDepth = 64

type Parser struct {
	Options
}

func NewParser(opts Options) *Parser {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Parser{Options: opts}
}

var defaultParser = NewParser(Options{})

// Parse walks input with the default lenient parser. input may be a []byte,
// anything with a Bytes() []byte method (such as *bytes.Buffer) or an io.Reader,
// which is read to the end first.
func Parse(input any) ([]*Box, error) {
	return defaultParser.Parse(input)
}

func ParseBytes(data []byte) ([]*Box, error) {
	return defaultParser.ParseBytes(data)
}

func (p *Parser) Parse(input any) ([]*Box, error) {
	data, err := toBytes(input)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(data)
}

// ParseBytes returns the boxes of data in order. In lenient mode the error is
// always nil and malformed regions show up as boxes with an Err.
func (p *Parser) ParseBytes(data []byte) ([]*Box, error) {
	return p.parseBoxes(data, 0, 0)
}

func toBytes(input any) ([]byte, error) {
	switch v := input.(type) {
	case []byte:
		return v, nil
	case interface{ Bytes() []byte }:
		return v.Bytes(), nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, fmt.Errorf("box: reading input: %w", err)
		}
		return data, nil
	default:
		return nil, &UnsupportedInputError{Type: fmt.Sprintf("%T", input)}
	}
}

// parseBoxes walks consecutive boxes of buf. base is the absolute offset of
// buf[0] and depth the nesting level of those boxes, 0 at the top.
func (p *Parser) parseBoxes(buf []byte, base int64, depth int) (boxes []*Box, err error) {
	boxes = make([]*Box, 0)
	for pos := 0; pos < len(buf); {
		var box *Box
		var next int
		box, next, err = p.parseBox(buf, pos, base, depth)
		if box != nil {
			boxes = append(boxes, box)
		}
		if err != nil {
			return
		}
		pos = next
	}
	return
}

// parseBox decodes the box starting at buf[start] and returns the position of
// the next sibling.
func (p *Parser) parseBox(buf []byte, start int, base int64, depth int) (*Box, int, error) {
	offset := base + int64(start)
	header := util.NewCursor(buf[start:])
	size, err := header.ReadUint(4)
	var typ BoxType
	if err == nil {
		var t []byte
		if t, err = header.ReadBytes(4); err == nil {
			typ = BoxType(t)
		}
	}
	if err == nil && size == 1 {
		size, err = header.ReadUint(8)
	} else if size == 0 {
		size = uint64(len(buf) - start)
	}
	var subtype *UUID
	if err == nil && typ == TypeUUID {
		var u []byte
		if u, err = header.ReadBytes(UserTypeLen); err == nil {
			id := UUID(u)
			subtype = &id
		}
	}
	if err != nil {
		// fewer bytes left than a header needs: nothing more can be walked here
		err = &DecodeError{Type: typ, Offset: offset, Err: ErrTruncatedHeader}
		p.Logger.Warn("trailing bytes", "offset", offset, "length", len(buf)-start)
		if p.Strict {
			return nil, len(buf), err
		}
		return nil, len(buf), nil
	}

	headerSize := header.Offset()
	box := &Box{
		Type:       typ,
		Size:       size,
		Offset:     offset,
		HeaderSize: headerSize,
		Subtype:    subtype,
	}
	if size < uint64(headerSize) {
		// forward progress is impossible to trust, stop walking this buffer
		return box, len(buf), p.fail(box, ErrInvalidSize)
	}

	end := len(buf)
	if size <= uint64(len(buf)-start) {
		end = start + int(size)
	} else if err = p.fail(box, ErrTruncatedBox); err != nil {
		return box, end, err
	}
	content := buf[start+headerSize : end]

	desc, ok := registry[typ]
	if !ok {
		p.preview(box, content)
		return box, end, nil
	}
	box.Name = desc.Name
	box.Description = desc.Description
	box.container = desc.Container

	children := content
	if desc.decode != nil {
		r := newFieldReader(content)
		if err = runDecoder(desc.decode, r); err != nil {
			p.Logger.Warn("impossible to parse box", "type", typ.String(), "offset", offset, "error", err)
			if err = p.fail(box, err); err != nil {
				return box, end, err
			}
		} else {
			box.Fields = desc.annotate(r.fields)
			if r.err != nil {
				if err = p.fail(box, r.err); err != nil {
					return box, end, err
				}
			}
		}
		if desc.Container {
			children = content[len(content)-r.Remaining():]
		} else if !r.Finished() {
			p.Logger.Debug("not everything has been parsed", "type", typ.String(), "offset", offset, "missing", r.Remaining())
		}
	} else if !desc.Container {
		p.preview(box, content)
	}

	p.Logger.Log(context.Background(), pkg.TraceLevel, "box", "type", typ.String(), "offset", offset, "size", size, "depth", depth, "fields", len(box.Fields))

	if desc.Container && depth+1 >= p.MaxDepth {
		p.Logger.Warn("nesting too deep", "type", typ.String(), "offset", offset, "depth", depth)
		if err = p.fail(box, ErrTooDeep); err != nil {
			return box, end, err
		}
	} else if desc.Container {
		childBase := offset + int64(headerSize) + int64(len(content)-len(children))
		if box.Children, err = p.parseBoxes(children, childBase, depth+1); err != nil {
			return box, end, err
		}
	}
	return box, end, nil
}

// fail records err on box and returns it as a DecodeError in strict mode.
func (p *Parser) fail(box *Box, err error) error {
	if box.Err == nil {
		box.Err = &DecodeError{Type: box.Type, Offset: box.Offset, Err: err}
		box.Error = box.Err.Error()
	}
	if p.Strict {
		return box.Err
	}
	return nil
}

func (p *Parser) preview(box *Box, content []byte) {
	if p.Preview > 0 && len(content) > 0 {
		box.Preview = strings.ToUpper(hex.EncodeToString(content[:min(p.Preview, len(content))]))
	}
}

func runDecoder(decode decodeFunc, r *fieldReader) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("box: decoder panic: %v", e)
		}
	}()
	return decode(r)
}
