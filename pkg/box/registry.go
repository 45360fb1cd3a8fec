package box

import (
	"bytes"
	"slices"
)

// Descriptor is the registry entry of a known box type.
type Descriptor struct {
	Name        string
	Description string
	Container   bool
	decode      decodeFunc
	content     []contentInfo
}

// contentInfo names and documents one decoded key.
type contentInfo struct {
	key         string
	name        string
	description string
}

func (d *Descriptor) HasDecoder() bool {
	return d.decode != nil
}

func (d *Descriptor) annotate(fields []rawField) []Field {
	out := make([]Field, 0, len(fields))
	for _, raw := range fields {
		fd := Field{Key: raw.key, Name: raw.key, Value: raw.value}
		for _, info := range d.content {
			if info.key == raw.key {
				if info.name != "" {
					fd.Name = info.name
				}
				fd.Description = info.description
				break
			}
		}
		out = append(out, fd)
	}
	return out
}

// registry is built once and never written afterwards, so it is safe to share
// between concurrent parses.
var registry = map[BoxType]*Descriptor{
	TypeFTYP: ftyp,
	TypeSTYP: styp,
	TypeMOOV: moov,
	TypeMVHD: mvhd,
	TypeTRAK: trak,
	TypeTKHD: tkhd,
	TypeEDTS: edts,
	TypeELST: elst,
	TypeMDIA: mdia,
	TypeMDHD: mdhd,
	TypeHDLR: hdlr,
	TypeMINF: minf,
	TypeVMHD: vmhd,
	TypeSMHD: smhd,
	TypeHMHD: hmhd,
	TypeNMHD: nmhd,
	TypeDINF: dinf,
	TypeDREF: dref,
	TypeURL:  url,
	TypeURN:  urn,
	TypeSTBL: stbl,
	TypeSTSD: stsd,
	TypeSTTS: stts,
	TypeCTTS: ctts,
	TypeSTSC: stsc,
	TypeSTSZ: stsz,
	TypeSTCO: stco,
	TypeCO64: co64,
	TypeSTSS: stss,
	TypeSDTP: sdtp,
	TypeMVEX: mvex,
	TypeMEHD: mehd,
	TypeTREX: trex,
	TypeLEVA: leva,
	TypeMOOF: moof,
	TypeMFHD: mfhd,
	TypeTRAF: traf,
	TypeTFHD: tfhd,
	TypeTFDT: tfdt,
	TypeTRUN: trun,
	TypeMFRA: mfra,
	TypeTFRA: tfra,
	TypeMFRO: mfro,
	TypeSIDX: sidx,
	TypeEMSG: emsg,
	TypePRFT: prft,
	TypePSSH: pssh,
	TypeSINF: sinf,
	TypeFRMA: frma,
	TypeSCHM: schm,
	TypeSCHI: schi,
	TypeTENC: tenc,
	TypeSAIZ: saiz,
	TypeSAIO: saio,
	TypeSENC: senc,
	TypePDIN: pdin,
	TypeMETA: meta,
	TypeUDTA: udta,
	TypeIODS: iods,
	TypeFREE: free,
	TypeSKIP: skip,
	TypeMDAT: mdat,
	TypeUUID: uuid,
}

// Lookup returns a copy of the descriptor registered for t.
func Lookup(t BoxType) (Descriptor, bool) {
	d, ok := registry[t]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Known returns the registered box types in byte order.
func Known() []BoxType {
	types := make([]BoxType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.SortFunc(types, func(a, b BoxType) int {
		return bytes.Compare(a[:], b[:])
	})
	return types
}
