package box

var mvex = &Descriptor{
	Name:        "Movie Extends Box",
	Description: "Warns readers that there might be Movie Fragment Boxes in this file.",
	Container:   true,
}

var moof = &Descriptor{
	Name:        "Movie Fragment Box",
	Description: "Extends the presentation in time.",
	Container:   true,
}

var traf = &Descriptor{
	Name:        "Track Fragment Box",
	Description: "A run of samples of one track within a movie fragment.",
	Container:   true,
}

var mfra = &Descriptor{
	Name:        "Movie Fragment Random Access Box",
	Description: "Table of random access points for files containing fragments.",
	Container:   true,
}

// aligned(8) class MovieExtendsHeaderBox extends FullBox(‘mehd’, version, 0) {
// if (version==1) {
//	unsigned int(64)  fragment_duration;
// } else { // version==0
//	unsigned int(32)  fragment_duration;
// }
// }
var mehd = &Descriptor{
	Name:        "Movie Extends Header Box",
	Description: "Overall duration, including fragments, of a fragmented movie.",
	decode: func(r *fieldReader) error {
		version, _, err := r.fullBox(1)
		if err != nil {
			return err
		}
		r.num("fragment_duration", timeWidth(version))
		return nil
	},
	content: []contentInfo{
		{key: "fragment_duration", description: "Length of the presentation of the whole movie including fragments, in the timescale of the Movie Header Box."},
	},
}

// aligned(8) class TrackExtendsBox extends FullBox(‘trex’, 0, 0){
// unsigned int(32)  track_ID;
// unsigned int(32)  default_sample_description_index;
// unsigned int(32)  default_sample_duration;
// unsigned int(32)  default_sample_size;
// unsigned int(32)  default_sample_flags;
// }
var trex = &Descriptor{
	Name:        "Track Extends Box",
	Description: "Default values used by the movie fragments.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		r.num("track_ID", 4)
		r.num("default_sample_description_index", 4)
		r.num("default_sample_duration", 4)
		r.num("default_sample_size", 4)
		r.num("default_sample_flags", 4)
		return nil
	},
}

// aligned(8) class MovieFragmentHeaderBox extends FullBox(‘mfhd’, 0, 0){
// unsigned int(32)  sequence_number;
// }
var mfhd = &Descriptor{
	Name:        "Movie Fragment Header Box",
	Description: "Sequence number of the fragment, as a safety check.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		r.num("sequence_number", 4)
		return nil
	},
}

// aligned(8) class TrackFragmentHeaderBox extends FullBox(‘tfhd’, 0, tf_flags){
// unsigned int(32) track_ID;
// // all the following are optional fields
// unsigned int(64) base_data_offset;
// unsigned int(32) sample_description_index;
// unsigned int(32) default_sample_duration;
// unsigned int(32) default_sample_size;
// unsigned int(32) default_sample_flags
// }
const (
	TfhdBaseDataOffsetPresent         = 0x000001
	TfhdSampleDescriptionIndexPresent = 0x000002
	TfhdDefaultSampleDurationPresent  = 0x000008
	TfhdDefaultSampleSizePresent      = 0x000010
	TfhdDefaultSampleFlagsPresent     = 0x000020
	TfhdDurationIsEmpty               = 0x010000
	TfhdDefaultBaseIsMoof             = 0x020000
)

var tfhd = &Descriptor{
	Name:        "Track Fragment Header Box",
	Description: "Track ID and defaults for the samples of a track fragment.",
	decode:      decodeTfhd,
}

func decodeTfhd(r *fieldReader) error {
	_, flags, err := r.fullBox(0,
		flagName{TfhdBaseDataOffsetPresent, "base-data-offset-present"},
		flagName{TfhdSampleDescriptionIndexPresent, "sample-description-index-present"},
		flagName{TfhdDefaultSampleDurationPresent, "default-sample-duration-present"},
		flagName{TfhdDefaultSampleSizePresent, "default-sample-size-present"},
		flagName{TfhdDefaultSampleFlagsPresent, "default-sample-flags-present"},
		flagName{TfhdDurationIsEmpty, "duration-is-empty"},
		flagName{TfhdDefaultBaseIsMoof, "default-base-is-moof"},
	)
	if err != nil {
		return err
	}
	r.num("track_ID", 4)
	if flags&TfhdBaseDataOffsetPresent != 0 {
		r.num("base_data_offset", 8)
	}
	if flags&TfhdSampleDescriptionIndexPresent != 0 {
		r.num("sample_description_index", 4)
	}
	if flags&TfhdDefaultSampleDurationPresent != 0 {
		r.num("default_sample_duration", 4)
	}
	if flags&TfhdDefaultSampleSizePresent != 0 {
		r.num("default_sample_size", 4)
	}
	if flags&TfhdDefaultSampleFlagsPresent != 0 {
		r.num("default_sample_flags", 4)
	}
	return nil
}

// aligned(8) class TrackFragmentBaseMediaDecodeTimeBox extends FullBox(‘tfdt’, version, 0) {
// if (version==1) {
//	unsigned int(64) baseMediaDecodeTime;
// } else { // version==0
//	unsigned int(32) baseMediaDecodeTime;
// }
// }
var tfdt = &Descriptor{
	Name:        "Track Fragment Decode Time",
	Description: "The absolute decode time, measured on the media timeline, of the first sample in decode order in the track fragment.",
	decode: func(r *fieldReader) error {
		version, _, err := r.fullBox(1)
		if err != nil {
			return err
		}
		r.num("baseMediaDecodeTime", timeWidth(version))
		return nil
	},
}

// aligned(8) class TrackRunBox extends FullBox(‘trun’, version, tr_flags) {
// unsigned int(32)  sample_count;
// // the following are optional fields
// signed int(32) data_offset;
// unsigned int(32)  first_sample_flags;
// // all fields in the following array are optional
// {
//	unsigned int(32)  sample_duration;
//	unsigned int(32)  sample_size;
//	unsigned int(32)  sample_flags
//	if (version == 0)
//		{ unsigned int(32) sample_composition_time_offset; }
//	else
//		{ signed int(32) sample_composition_time_offset; }
// }[ sample_count ]
// }
const (
	TrunDataOffsetPresent                  = 0x000001
	TrunFirstSampleFlagsPresent            = 0x000004
	TrunSampleDurationPresent              = 0x000100
	TrunSampleSizePresent                  = 0x000200
	TrunSampleFlagsPresent                 = 0x000400
	TrunSampleCompositionTimeOffsetPresent = 0x000800
)

// TrunSample is one row of a trun sample table. Fields whose presence flag
// is clear are nil.
type TrunSample struct {
	Duration              *uint64 `json:"sample_duration,omitempty" yaml:"sample_duration,omitempty"`
	Size                  *uint64 `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`
	Flags                 *uint64 `json:"sample_flags,omitempty" yaml:"sample_flags,omitempty"`
	CompositionTimeOffset *int64  `json:"sample_composition_time_offset,omitempty" yaml:"sample_composition_time_offset,omitempty"`
}

var trun = &Descriptor{
	Name:        "Track Fragment Run Box",
	Description: "A contiguous run of samples of a track fragment.",
	decode:      decodeTrun,
	content: []contentInfo{
		{key: "data_offset", description: "Added to the implicit or explicit data_offset established in the track fragment header."},
		{key: "first_sample_flags", description: "Overrides the default flags for the first sample only."},
	},
}

func decodeTrun(r *fieldReader) error {
	version, flags, err := r.fullBox(1,
		flagName{TrunDataOffsetPresent, "data-offset-present"},
		flagName{TrunFirstSampleFlagsPresent, "first-sample-flags-present"},
		flagName{TrunSampleDurationPresent, "sample-duration-present"},
		flagName{TrunSampleSizePresent, "sample-size-present"},
		flagName{TrunSampleFlagsPresent, "sample-flags-present"},
		flagName{TrunSampleCompositionTimeOffsetPresent, "sample-composition-time-offset-present"},
	)
	if err != nil {
		return err
	}
	n := r.num("sample_count", 4)
	if flags&TrunDataOffsetPresent != 0 {
		r.snum("data_offset", 4)
	}
	if flags&TrunFirstSampleFlagsPresent != 0 {
		r.num("first_sample_flags", 4)
	}
	opt := func(mask uint32) *uint64 {
		if flags&mask == 0 {
			return nil
		}
		v := r.u(4)
		return &v
	}
	row := 0
	for _, mask := range []uint32{TrunSampleDurationPresent, TrunSampleSizePresent, TrunSampleFlagsPresent, TrunSampleCompositionTimeOffsetPresent} {
		if flags&mask != 0 {
			row += 4
		}
	}
	if row == 0 {
		// no per-sample fields, the table is empty whatever sample_count says
		return nil
	}
	samples := make([]TrunSample, 0, r.count(n, row))
	for i := uint64(0); i < n && !r.short(); i++ {
		s := TrunSample{
			Duration: opt(TrunSampleDurationPresent),
			Size:     opt(TrunSampleSizePresent),
			Flags:    opt(TrunSampleFlagsPresent),
		}
		if flags&TrunSampleCompositionTimeOffsetPresent != 0 {
			var cto int64
			if version == 0 {
				cto = int64(r.u(4))
			} else {
				cto = r.i(4)
			}
			s.CompositionTimeOffset = &cto
		}
		if r.short() {
			break
		}
		samples = append(samples, s)
	}
	r.keep("samples", samples, len(samples))
	return nil
}

// aligned(8) class SampleDependencyTypeBox extends FullBox(‘sdtp’, version = 0, 0) {
// for (i=0; i < sample_count; i++){
//	unsigned int(2) is_leading;
//	unsigned int(2) sample_depends_on;
//	unsigned int(2) sample_is_depended_on;
//	unsigned int(2) sample_has_redundancy;
// }
// }
type SampleDependency struct {
	IsLeading     uint8 `json:"is_leading" yaml:"is_leading"`
	DependsOn     uint8 `json:"sample_depends_on" yaml:"sample_depends_on"`
	IsDependedOn  uint8 `json:"sample_is_depended_on" yaml:"sample_is_depended_on"`
	HasRedundancy uint8 `json:"sample_has_redundancy" yaml:"sample_has_redundancy"`
}

var sdtp = &Descriptor{
	Name:        "Independent and Disposable Samples Box",
	Description: "Dependency information for each sample; the sample count comes from the sample size table.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		if r.short() {
			return nil
		}
		n := r.Remaining()
		bs := r.bits(n)
		samples := make([]SampleDependency, n)
		for i := range samples {
			samples[i] = SampleDependency{
				IsLeading:     bs.Uint8(2),
				DependsOn:     bs.Uint8(2),
				IsDependedOn:  bs.Uint8(2),
				HasRedundancy: bs.Uint8(2),
			}
		}
		r.set("samples", samples)
		return nil
	},
}

// aligned(8) class TrackFragmentRandomAccessBox extends FullBox(‘tfra’, version, 0) {
// unsigned int(32) track_ID;
// const unsigned int(26) reserved = 0;
// unsigned int(2) length_size_of_traf_num;
// unsigned int(2) length_size_of_trun_num;
// unsigned int(2) length_size_of_sample_num;
// unsigned int(32) number_of_entry;
// for(i=1; i <= number_of_entry; i++){
//	if(version==1){
//		unsigned int(64) time;
//		unsigned int(64) moof_offset;
//	}else{
//		unsigned int(32) time;
//		unsigned int(32) moof_offset;
//	}
//	unsigned int((length_size_of_traf_num+1) * 8) traf_number;
//	unsigned int((length_size_of_trun_num+1) * 8) trun_number;
//	unsigned int((length_size_of_sample_num+1) * 8) sample_number;
// }
// }
type RandomAccessEntry struct {
	Time         uint64 `json:"time" yaml:"time"`
	MoofOffset   uint64 `json:"moof_offset" yaml:"moof_offset"`
	TrafNumber   uint64 `json:"traf_number" yaml:"traf_number"`
	TrunNumber   uint64 `json:"trun_number" yaml:"trun_number"`
	SampleNumber uint64 `json:"sample_number" yaml:"sample_number"`
}

var tfra = &Descriptor{
	Name:        "Track Fragment Random Access Box",
	Description: "Sync sample locations and presentation times of one track.",
	decode: func(r *fieldReader) error {
		version, _, err := r.fullBox(1)
		if err != nil {
			return err
		}
		r.num("track_ID", 4)
		bs := r.bits(4)
		bs.SkipBits(26)
		trafLen := int(bs.Uint8(2)) + 1
		trunLen := int(bs.Uint8(2)) + 1
		sampleLen := int(bs.Uint8(2)) + 1
		r.set("length_size_of_traf_num", uint64(trafLen-1))
		r.set("length_size_of_trun_num", uint64(trunLen-1))
		r.set("length_size_of_sample_num", uint64(sampleLen-1))
		n := r.num("number_of_entry", 4)
		if r.short() {
			return nil
		}
		w := timeWidth(version)
		entries := make([]RandomAccessEntry, 0, r.count(n, 2*w+trafLen+trunLen+sampleLen))
		for i := uint64(0); i < n; i++ {
			e := RandomAccessEntry{
				Time:         r.u(w),
				MoofOffset:   r.u(w),
				TrafNumber:   r.u(trafLen),
				TrunNumber:   r.u(trunLen),
				SampleNumber: r.u(sampleLen),
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

// aligned(8) class MovieFragmentRandomAccessOffsetBox extends FullBox(‘mfro’, version, 0) {
// unsigned int(32) size;
// }
var mfro = &Descriptor{
	Name:        "Movie Fragment Random Access Offset Box",
	Description: "Size of the enclosing mfra box, to locate it from the end of the file.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		r.num("size", 4)
		return nil
	},
}
