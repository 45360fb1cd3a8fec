package box

// aligned(8) class SegmentIndexBox extends FullBox(‘sidx’, version, 0) {
// unsigned int(32) reference_ID;
// unsigned int(32) timescale;
// if (version==0) {
//	unsigned int(32) earliest_presentation_time;
//	unsigned int(32) first_offset;
// }
// else {
//	unsigned int(64) earliest_presentation_time;
//	unsigned int(64) first_offset;
// }
// unsigned int(16) reserved = 0;
// unsigned int(16) reference_count;
// for(i=1; i <= reference_count; i++)
// {
//	bit (1)           reference_type;
//	unsigned int(31)  referenced_size;
//	unsigned int(32)  subsegment_duration;
//	bit(1)            starts_with_SAP;
//	unsigned int(3)   SAP_type;
//	unsigned int(28)  SAP_delta_time;
// }
// }
type SidxReference struct {
	ReferenceType      uint8  `json:"reference_type" yaml:"reference_type"`
	ReferencedSize     uint32 `json:"referenced_size" yaml:"referenced_size"`
	SubsegmentDuration uint64 `json:"subsegment_duration" yaml:"subsegment_duration"`
	StartsWithSAP      uint8  `json:"starts_with_SAP" yaml:"starts_with_SAP"`
	SAPType            uint8  `json:"SAP_type" yaml:"SAP_type"`
	SAPDeltaTime       uint32 `json:"SAP_delta_time" yaml:"SAP_delta_time"`
}

var sidx = &Descriptor{
	Name:        "Segment Index Box",
	Description: "Index of the media stream",
	decode:      decodeSidx,
	content: []contentInfo{
		{key: "reference_ID", description: "Stream ID for the reference stream."},
		{key: "timescale", description: "Timescale, in ticks per second, for the time and duration fields within this box."},
		{key: "earliest_presentation_time", description: "Earliest presentation time of any access unit in the reference stream in the first subsegment."},
		{key: "first_offset", description: "Distance in bytes from the anchor point to the first byte of the indexed material."},
		{key: "references", description: "reference_type 1 points to a sidx, 0 to media content."},
	},
}

func decodeSidx(r *fieldReader) error {
	version, _, err := r.fullBox(1)
	if err != nil {
		return err
	}
	r.num("reference_ID", 4)
	r.num("timescale", 4)
	w := timeWidth(version)
	r.num("earliest_presentation_time", w)
	r.num("first_offset", w)
	r.num("reserved", 2)
	n := r.num("reference_count", 2)
	if r.short() {
		return nil
	}
	refs := make([]SidxReference, 0, r.count(n, 12))
	for i := uint64(0); i < n; i++ {
		var ref SidxReference
		bs := r.bits(4)
		ref.ReferenceType = bs.GetBit()
		ref.ReferencedSize = bs.Uint32(31)
		ref.SubsegmentDuration = r.u(4)
		bs = r.bits(4)
		ref.StartsWithSAP = bs.GetBit()
		ref.SAPType = bs.Uint8(3)
		ref.SAPDeltaTime = bs.Uint32(28)
		if r.short() {
			break
		}
		refs = append(refs, ref)
	}
	r.keep("references", refs, len(refs))
	return nil
}
