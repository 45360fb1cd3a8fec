// Package box walks ISO Base Media File Format (MP4, fMP4, CMAF, DASH segment)
// data and turns it into a tree of boxes with their decoded fields.
// It only reads: nothing is validated beyond what decoding needs and
// nothing is ever re-serialized.
package box

import (
	"encoding/hex"
	"strings"

	"m7s.live/isobmff/pkg/util"
)

const (
	BasicBoxLen = 8
	LargeBoxLen = 16
	UserTypeLen = 16
)

// BoxType is the four-character code of a box. It is an opaque identifier and
// need not be printable.
type BoxType [4]byte

func f(s string) BoxType {
	return BoxType([]byte(s))
}

func (t BoxType) String() string {
	return util.Latin1(t[:])
}

func (t BoxType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

var (
	TypeFTYP = f("ftyp")
	TypeSTYP = f("styp")
	TypeMOOV = f("moov")
	TypeMVHD = f("mvhd")
	TypeTRAK = f("trak")
	TypeTKHD = f("tkhd")
	TypeEDTS = f("edts")
	TypeELST = f("elst")
	TypeMDIA = f("mdia")
	TypeMDHD = f("mdhd")
	TypeHDLR = f("hdlr")
	TypeMINF = f("minf")
	TypeVMHD = f("vmhd")
	TypeSMHD = f("smhd")
	TypeHMHD = f("hmhd")
	TypeNMHD = f("nmhd")
	TypeDINF = f("dinf")
	TypeDREF = f("dref")
	TypeURL  = f("url ")
	TypeURN  = f("urn ")
	TypeSTBL = f("stbl")
	TypeSTSD = f("stsd")
	TypeSTTS = f("stts")
	TypeCTTS = f("ctts")
	TypeSTSC = f("stsc")
	TypeSTSZ = f("stsz")
	TypeSTCO = f("stco")
	TypeCO64 = f("co64")
	TypeSTSS = f("stss")
	TypeSDTP = f("sdtp")
	TypeMVEX = f("mvex")
	TypeMEHD = f("mehd")
	TypeTREX = f("trex")
	TypeLEVA = f("leva")
	TypeMOOF = f("moof")
	TypeMFHD = f("mfhd")
	TypeTRAF = f("traf")
	TypeTFHD = f("tfhd")
	TypeTFDT = f("tfdt")
	TypeTRUN = f("trun")
	TypeMFRA = f("mfra")
	TypeTFRA = f("tfra")
	TypeMFRO = f("mfro")
	TypeSIDX = f("sidx")
	TypeEMSG = f("emsg")
	TypePRFT = f("prft")
	TypePSSH = f("pssh")
	TypeSINF = f("sinf")
	TypeFRMA = f("frma")
	TypeSCHM = f("schm")
	TypeSCHI = f("schi")
	TypeTENC = f("tenc")
	TypeSAIZ = f("saiz")
	TypeSAIO = f("saio")
	TypeSENC = f("senc")
	TypePDIN = f("pdin")
	TypeMETA = f("meta")
	TypeUDTA = f("udta")
	TypeIODS = f("iods")
	TypeFREE = f("free")
	TypeSKIP = f("skip")
	TypeMDAT = f("mdat")
	TypeUUID = f("uuid")
)

// UUID is the 16-byte extended type carried by 'uuid' boxes.
type UUID [16]byte

func (u UUID) String() string {
	return strings.ToUpper(hex.EncodeToString(u[:]))
}

func (u UUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// Field is one decoded value of a box, annotated from the registry.
type Field struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Value       any    `json:"value" yaml:"value"`
}

//	aligned(8) class Box (unsigned int(32) boxtype, optional unsigned int(8)[16] extended_type) {
//	    unsigned int(32) size;
//	    unsigned int(32) type = boxtype;
//	    if (size==1) {
//	       unsigned int(64) largesize;
//	    } else if (size==0) {
//	       // box extends to end of file
//	    }
//	    if (boxtype=='uuid') {
//	    unsigned int(8)[16] usertype = extended_type;
//	 }
//	}
type Box struct {
	Type BoxType `json:"type" yaml:"type"`
	// Size is the declared size including the header; a size of 0 in the
	// data is resolved to the rest of the enclosing buffer.
	Size        uint64  `json:"size" yaml:"size"`
	Offset      int64   `json:"offset" yaml:"offset"`
	HeaderSize  int     `json:"header_size" yaml:"header_size"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Subtype     *UUID   `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Fields      []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	Children    []*Box  `json:"children,omitempty" yaml:"children,omitempty"`
	Preview     string  `json:"preview,omitempty" yaml:"preview,omitempty"`
	Error       string  `json:"error,omitempty" yaml:"error,omitempty"`
	Err         error   `json:"-" yaml:"-"`
	container   bool
}

// IsContainer reports whether the box type holds child boxes. Children may
// still be empty.
func (box *Box) IsContainer() bool {
	return box.container
}

// Field returns the decoded field with the given key.
func (box *Box) Field(key string) (Field, bool) {
	for _, fd := range box.Fields {
		if fd.Key == key {
			return fd, true
		}
	}
	return Field{}, false
}

// Walk visits box and its descendants depth-first. Returning false from fn
// skips the children of that box.
func (box *Box) Walk(fn func(*Box) bool) {
	if !fn(box) {
		return
	}
	for _, child := range box.Children {
		child.Walk(fn)
	}
}

// Find returns every box of type t in boxes and their descendants, in document order.
func Find(boxes []*Box, t BoxType) (found []*Box) {
	for _, b := range boxes {
		b.Walk(func(b *Box) bool {
			if b.Type == t {
				found = append(found, b)
			}
			return true
		})
	}
	return
}
