package box

// Sample table boxes. Each is a counted table of fixed-size rows.

type TimeToSampleEntry struct {
	SampleCount uint64 `json:"sample_count" yaml:"sample_count"`
	SampleDelta uint64 `json:"sample_delta" yaml:"sample_delta"`
}

type CompositionOffsetEntry struct {
	SampleCount  uint64 `json:"sample_count" yaml:"sample_count"`
	SampleOffset int64  `json:"sample_offset" yaml:"sample_offset"`
}

type SampleToChunkEntry struct {
	FirstChunk             uint64 `json:"first_chunk" yaml:"first_chunk"`
	SamplesPerChunk        uint64 `json:"samples_per_chunk" yaml:"samples_per_chunk"`
	SampleDescriptionIndex uint64 `json:"sample_description_index" yaml:"sample_description_index"`
}

// aligned(8) class TimeToSampleBox extends FullBox(’stts’, version = 0, 0) {
// unsigned int(32) entry_count;
// int i;
// for (i=0; i < entry_count; i++) {
//	unsigned int(32) sample_count;
//	unsigned int(32) sample_delta;
// }
// }
var stts = &Descriptor{
	Name:        "Decoding Time to Sample Box",
	Description: "Compact table mapping decoding time to sample number.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		n := r.num("entry_count", 4)
		entries := make([]TimeToSampleEntry, 0, r.count(n, 8))
		for i := uint64(0); i < n; i++ {
			e := TimeToSampleEntry{SampleCount: r.u(4), SampleDelta: r.u(4)}
			if r.short() {
				break
			}
			entries = append(entries, e)
		}
		r.keep("entries", entries, len(entries))
		return nil
	},
}

// aligned(8) class CompositionOffsetBox extends FullBox(‘ctts’, version, 0) {
// unsigned int(32) entry_count;
// int i;
// if (version==0) {
//	for (i=0; i < entry_count; i++) {
//		unsigned int(32) sample_count;
//		unsigned int(32) sample_offset;
//	}
// }
// else if (version == 1) {
//	for (i=0; i < entry_count; i++) {
//		unsigned int(32) sample_count;
//		signed int(32) sample_offset;
//	}
// }
// }
var ctts = &Descriptor{
	Name:        "Composition Time to Sample Box",
	Description: "Offset between decoding time and composition time.",
	decode: func(r *fieldReader) error {
		version, _, err := r.fullBox(1)
		if err != nil {
			return err
		}
		n := r.num("entry_count", 4)
		entries := make([]CompositionOffsetEntry, 0, r.count(n, 8))
		for i := uint64(0); i < n; i++ {
			e := CompositionOffsetEntry{SampleCount: r.u(4)}
			if version == 1 {
				e.SampleOffset = r.i(4)
			} else {
				e.SampleOffset = int64(r.u(4))
			}
			if r.short() {
				break
			}
			entries = append(entries, e)
		}
		r.keep("entries", entries, len(entries))
		return nil
	},
}

// aligned(8) class SampleToChunkBox extends FullBox(‘stsc’, version = 0, 0) {
// unsigned int(32) entry_count;
// for (i=1; i <= entry_count; i++) {
//	unsigned int(32) first_chunk;
//	unsigned int(32) samples_per_chunk;
//	unsigned int(32) sample_description_index;
// }
// }
var stsc = &Descriptor{
	Name:        "Sample To Chunk Box",
	Description: "Chunk in which each sample is found, with the associated sample description.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		n := r.num("entry_count", 4)
		entries := make([]SampleToChunkEntry, 0, r.count(n, 12))
		for i := uint64(0); i < n; i++ {
			e := SampleToChunkEntry{FirstChunk: r.u(4), SamplesPerChunk: r.u(4), SampleDescriptionIndex: r.u(4)}
			if r.short() {
				break
			}
			entries = append(entries, e)
		}
		r.keep("entries", entries, len(entries))
		return nil
	},
}

// aligned(8) class SampleSizeBox extends FullBox(‘stsz’, version = 0, 0) {
// unsigned int(32) sample_size;
// unsigned int(32) sample_count;
// if (sample_size==0) {
//	for (i=1; i <= sample_count; i++) {
//		unsigned int(32) entry_size;
//	}
// }
// }
var stsz = &Descriptor{
	Name:        "Sample Size Box",
	Description: "Sample count and a table giving the size in bytes of each sample.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		size := r.num("sample_size", 4)
		n := r.num("sample_count", 4)
		if size == 0 {
			r.uints("entry_size", 4, n)
		}
		return nil
	},
	content: []contentInfo{
		{key: "sample_size", description: "Default sample size. If 0 the samples have different sizes, stored in entry_size."},
	},
}

// aligned(8) class ChunkOffsetBox extends FullBox(‘stco’, version = 0, 0) {
// unsigned int(32) entry_count;
// for (i=1; i <= entry_count; i++) {
//	unsigned int(32) chunk_offset;
// }
// }
var stco = &Descriptor{
	Name:        "Chunk Offset Box",
	Description: "Index of each chunk into the containing file.",
	decode:      chunkOffsets(4),
}

// aligned(8) class ChunkLargeOffsetBox extends FullBox(‘co64’, version = 0, 0) {
// unsigned int(32) entry_count;
// for (i=1; i <= entry_count; i++) {
//	unsigned int(64) chunk_offset;
// }
// }
var co64 = &Descriptor{
	Name:        "Chunk Large Offset Box",
	Description: "Index of each chunk into the containing file, with 64-bit offsets.",
	decode:      chunkOffsets(8),
}

func chunkOffsets(width int) decodeFunc {
	return func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		n := r.num("entry_count", 4)
		r.uints("chunk_offset", width, n)
		return nil
	}
}

// aligned(8) class SyncSampleBox extends FullBox(‘stss’, version = 0, 0) {
// unsigned int(32) entry_count;
// int i;
// for (i=0; i < entry_count; i++) {
//	unsigned int(32) sample_number;
// }
// }
var stss = &Descriptor{
	Name:        "Sync Sample Box",
	Description: "Compact marking of the sync samples within the stream.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		n := r.num("entry_count", 4)
		r.uints("sample_number", 4, n)
		return nil
	},
}
