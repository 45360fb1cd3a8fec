package box

import (
	"fmt"

	"github.com/yapingcat/gomedia/go-codec"
	"m7s.live/isobmff/pkg/util"
)

var moov = &Descriptor{
	Name:        "Movie Box",
	Description: "The movie metadata",
	Container:   true,
}

var trak = &Descriptor{
	Name:        "Track Box",
	Description: "Container box for a single track of a presentation. Each track is independent of the other tracks in the presentation and carries its own temporal and spatial information.",
	Container:   true,
}

var edts = &Descriptor{
	Name:        "Edit Box",
	Description: "Maps the presentation time-line to the media time-line as it is stored in the file.",
	Container:   true,
}

var mdia = &Descriptor{
	Name:        "Track Media Structure",
	Description: "Declares information about the media data within a track.",
	Container:   true,
}

var minf = &Descriptor{
	Name:        "Media Information Box",
	Description: "Contains all the objects that declare characteristic information of the media in the track.",
	Container:   true,
}

var dinf = &Descriptor{
	Name:        "Data Information Box",
	Description: "Objects that declare the location of the media information in a track.",
	Container:   true,
}

var stbl = &Descriptor{
	Name:        "Sample Table Box",
	Description: "Time and data indexing of the media samples in a track.",
	Container:   true,
}

var udta = &Descriptor{
	Name:        "User Data Box",
	Description: "Informative user data about the presentation or track.",
	Container:   true,
}

// aligned(8) class MovieHeaderBox extends FullBox(‘mvhd’, version, 0) {
// if (version==1) {
// 	unsigned int(64)  creation_time;
// 	unsigned int(64)  modification_time;
// 	unsigned int(32)  timescale;
// 	unsigned int(64)  duration;
//  } else { // version==0
// 	unsigned int(32)  creation_time;
// 	unsigned int(32)  modification_time;
// 	unsigned int(32)  timescale;
// 	unsigned int(32)  duration;
// }
// template int(32) rate = 0x00010000; // typically 1.0
// template int(16) volume = 0x0100; // typically, full volume
// const bit(16) reserved = 0;
// const unsigned int(32)[2] reserved = 0;
// template int(32)[9] matrix = { 0x00010000,0,0,0,0x00010000,0,0,0,0x40000000 };
// bit(32)[6]  pre_defined = 0;
// unsigned int(32)  next_track_ID;
// }
var mvhd = &Descriptor{
	Name:        "Movie Header Box",
	Description: "Overall information which is media-independent, and relevant to the entire presentation considered as a whole.",
	decode:      decodeMvhd,
	content: []contentInfo{
		{key: "version", description: "mvhd version"},
		{key: "flags", description: "mvhd flags"},
		{key: "creation_time", description: "Creation time of the presentation, in seconds since midnight, Jan. 1, 1904, in UTC time."},
		{key: "modification_time", description: "Most recent time the presentation was modified, in seconds since midnight, Jan. 1, 1904, in UTC time."},
		{key: "timescale", description: "Number of time units that pass in one second for the entire presentation."},
		{key: "duration", description: "Length of the presentation in the indicated timescale, the duration of the longest track."},
		{key: "rate", description: "Fixed point 16.16 number, the preferred rate to play the presentation. 1.0 is normal forward playback."},
		{key: "volume", description: "Fixed point 8.8 number, the preferred playback volume. 1.0 is full volume."},
		{key: "reserved1", name: "reserved 1", description: "Reserved 16 bits"},
		{key: "reserved2", name: "reserved 2", description: "Reserved 2*32 bits"},
		{key: "matrix", description: "Transformation matrix for the video."},
		{key: "pre_defined", name: "pre-defined", description: "Pre-defined 32*6 bits."},
		{key: "next_track_ID", description: "Value to use for the track ID of the next track to be added to this presentation."},
	},
}

func decodeMvhd(r *fieldReader) error {
	version, _, err := r.fullBox(1)
	if err != nil {
		return err
	}
	w := timeWidth(version)
	r.num("creation_time", w)
	r.num("modification_time", w)
	r.num("timescale", 4)
	r.num("duration", w)
	r.sfixed("rate", 4, 16)
	r.sfixed("volume", 2, 8)
	r.num("reserved1", 2)
	r.uints("reserved2", 4, 2)
	r.uints("matrix", 4, 9)
	r.uints("pre_defined", 4, 6)
	r.num("next_track_ID", 4)
	return nil
}

// timeWidth is the byte width of time and duration fields: 8 in version 1
// boxes, 4 otherwise.
func timeWidth(version uint8) int {
	return util.Conditional(version == 1, 8, 4)
}

// aligned(8) class TrackHeaderBox extends FullBox(‘tkhd’, version, flags){
// if (version==1) {
//	unsigned int(64)  creation_time;
//	unsigned int(64)  modification_time;
//	unsigned int(32)  track_ID;
//	const unsigned int(32)  reserved = 0;
//	unsigned int(64)  duration;
// } else { // version==0
//	unsigned int(32)  creation_time;
//	unsigned int(32)  modification_time;
//	unsigned int(32)  track_ID;
//	const unsigned int(32)  reserved = 0;
//	unsigned int(32)  duration;
// }
// const unsigned int(32)[2] reserved = 0;
// template int(16) layer = 0;
// template int(16) alternate_group = 0;
// template int(16) volume = {if track_is_audio 0x0100 else 0};
// const unsigned int(16) reserved = 0;
// template int(32)[9] matrix= { 0x00010000,0,0,0,0x00010000,0,0,0,0x40000000 };
// unsigned int(32) width;
// unsigned int(32) height;
// }
var tkhd = &Descriptor{
	Name:        "Track Header Box",
	Description: "Characteristics of a single track.",
	decode:      decodeTkhd,
	content: []contentInfo{
		{key: "flags", description: "track_enabled 0x1, track_in_movie 0x2, track_in_preview 0x4, track_size_is_aspect_ratio 0x8"},
		{key: "track_ID", description: "Uniquely identifies this track over the entire life-time of this presentation."},
		{key: "duration", description: "Duration of this track in the timescale of the Movie Header Box."},
		{key: "layer", description: "Front-to-back ordering of video tracks; tracks with lower numbers are closer to the viewer."},
		{key: "alternate_group", description: "Group or collection of tracks that are alternatives to each other."},
		{key: "width", description: "Visual presentation width, fixed point 16.16."},
		{key: "height", description: "Visual presentation height, fixed point 16.16."},
	},
}

func decodeTkhd(r *fieldReader) error {
	version, _, err := r.fullBox(1,
		flagName{0x1, "track_enabled"},
		flagName{0x2, "track_in_movie"},
		flagName{0x4, "track_in_preview"},
		flagName{0x8, "track_size_is_aspect_ratio"},
	)
	if err != nil {
		return err
	}
	w := timeWidth(version)
	r.num("creation_time", w)
	r.num("modification_time", w)
	r.num("track_ID", 4)
	r.num("reserved1", 4)
	r.num("duration", w)
	r.uints("reserved2", 4, 2)
	r.snum("layer", 2)
	r.snum("alternate_group", 2)
	r.sfixed("volume", 2, 8)
	r.num("reserved3", 2)
	r.uints("matrix", 4, 9)
	r.fixed("width", 4, 16)
	r.fixed("height", 4, 16)
	return nil
}

// aligned(8) class MediaHeaderBox extends FullBox(‘mdhd’, version, 0) {
// if (version==1) {
//	unsigned int(64)  creation_time;
//	unsigned int(64)  modification_time;
//	unsigned int(32)  timescale;
//	unsigned int(64)  duration;
// } else { // version==0
//	unsigned int(32)  creation_time;
//	unsigned int(32)  modification_time;
//	unsigned int(32)  timescale;
//	unsigned int(32)  duration;
// }
// bit(1) pad = 0;
// unsigned int(5)[3] language; // ISO-639-2/T language code
// unsigned int(16) pre_defined = 0;
// }
var mdhd = &Descriptor{
	Name:        "Media Header Box",
	Description: "Overall information that is media-independent, and relevant to characteristics of the media in a track.",
	decode:      decodeMdhd,
	content: []contentInfo{
		{key: "timescale", description: "Number of time units that pass in one second for this media."},
		{key: "duration", description: "Duration of this media in its timescale."},
		{key: "language", description: "ISO-639-2/T language code."},
	},
}

func decodeMdhd(r *fieldReader) error {
	version, _, err := r.fullBox(1)
	if err != nil {
		return err
	}
	w := timeWidth(version)
	r.num("creation_time", w)
	r.num("modification_time", w)
	r.num("timescale", 4)
	r.num("duration", w)
	bs := r.bits(2)
	r.set("pad", uint64(bs.GetBit()))
	r.set("language", language(bs))
	r.num("pre_defined", 2)
	return nil
}

// language reads three packed 5-bit characters, each an offset from 0x60.
func language(bs *codec.BitStream) string {
	var lang [3]byte
	for i := range lang {
		lang[i] = bs.Uint8(5) + 0x60
	}
	return string(lang[:])
}

// aligned(8) class HandlerBox extends FullBox(‘hdlr’, version = 0, 0) {
// unsigned int(32) pre_defined = 0;
// unsigned int(32) handler_type;
// const unsigned int(32)[3] reserved = 0;
// string name;
// }
var hdlr = &Descriptor{
	Name:        "Handler Reference Box",
	Description: "Declares the media type of the track, and thus the process by which the media-data in the track is presented.",
	decode:      decodeHdlr,
	content: []contentInfo{
		{key: "handler_type", description: "'vide' video track, 'soun' audio track, 'hint' hint track, 'meta' timed metadata track, 'auxv' auxiliary video track."},
		{key: "name", description: "Human-readable name for the track type."},
	},
}

func decodeHdlr(r *fieldReader) error {
	if _, _, err := r.fullBox(0); err != nil {
		return err
	}
	r.num("pre_defined", 4)
	r.str("handler_type", 4)
	r.uints("reserved", 4, 3)
	r.set("name", r.cstring())
	return nil
}

// aligned(8) class VideoMediaHeaderBox extends FullBox(‘vmhd’, version = 0, 1) {
// template unsigned int(16) graphicsmode = 0; // copy, see below
// template unsigned int(16)[3] opcolor = {0, 0, 0};
// }
var vmhd = &Descriptor{
	Name:        "Video Media Header",
	Description: "General presentation information, independent of the coding, for video media.",
	decode:      decodeVmhd,
	content: []contentInfo{
		{key: "graphicsmode", description: "Composition mode for this video track."},
		{key: "opcolor", description: "Red, green, blue values available for use by graphics modes."},
	},
}

func decodeVmhd(r *fieldReader) error {
	_, flags, err := r.fullBox(0)
	if err != nil {
		return err
	}
	if !r.short() && flags != 1 {
		return fmt.Errorf("%w %#x", ErrInvalidFlags, flags)
	}
	r.num("graphicsmode", 2)
	r.uints("opcolor", 2, 3)
	return nil
}

// aligned(8) class SoundMediaHeaderBox extends FullBox(‘smhd’, version = 0, 0) {
// template int(16) balance = 0;
// const unsigned int(16) reserved = 0;
// }
var smhd = &Descriptor{
	Name:        "Sound Media Header",
	Description: "General presentation information, independent of the coding, for audio media.",
	decode:      decodeSmhd,
	content: []contentInfo{
		{key: "balance", description: "Fixed point 8.8 number placing mono audio tracks in stereo space; 0 is centre, -1.0 full left, 1.0 full right."},
	},
}

func decodeSmhd(r *fieldReader) error {
	if _, _, err := r.fullBox(0); err != nil {
		return err
	}
	r.sfixed("balance", 2, 8)
	r.num("reserved", 2)
	return nil
}

// aligned(8) class HintMediaHeaderBox extends FullBox(‘hmhd’, version = 0, 0) {
// unsigned int(16) maxPDUsize;
// unsigned int(16) avgPDUsize;
// unsigned int(32) maxbitrate;
// unsigned int(32) avgbitrate;
// unsigned int(32) reserved = 0;
// }
var hmhd = &Descriptor{
	Name:        "Hint Media Header",
	Description: "General information, independent of the protocol, for hint tracks.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		r.num("maxPDUsize", 2)
		r.num("avgPDUsize", 2)
		r.num("maxbitrate", 4)
		r.num("avgbitrate", 4)
		r.num("reserved", 4)
		return nil
	},
}

var nmhd = &Descriptor{
	Name:        "Null Media Header",
	Description: "Media header for streams other than visual and audio.",
	decode: func(r *fieldReader) error {
		_, _, err := r.fullBox(0)
		return err
	},
}

// aligned(8) class EditListBox extends FullBox(‘elst’, version, 0) {
// unsigned int(32) entry_count;
// for (i=1; i <= entry_count; i++) {
//	if (version==1) {
//		unsigned int(64) segment_duration;
//		int(64) media_time;
//	} else { // version==0
//		unsigned int(32) segment_duration;
//		int(32)  media_time;
//	}
//	int(16) media_rate_integer;
//	int(16) media_rate_fraction = 0;
// }
// }
var elst = &Descriptor{
	Name:        "Edit List Box",
	Description: "Explicit timeline map, each entry defining part of the track time-line.",
	decode:      decodeElst,
	content: []contentInfo{
		{key: "entries", description: "segment_duration, media_time (-1 for an empty edit) and media_rate of each edit."},
	},
}

type EditListEntry struct {
	SegmentDuration   uint64 `json:"segment_duration" yaml:"segment_duration"`
	MediaTime         int64  `json:"media_time" yaml:"media_time"`
	MediaRateInteger  int16  `json:"media_rate_integer" yaml:"media_rate_integer"`
	MediaRateFraction int16  `json:"media_rate_fraction" yaml:"media_rate_fraction"`
}

func decodeElst(r *fieldReader) error {
	version, _, err := r.fullBox(1)
	if err != nil {
		return err
	}
	n := r.num("entry_count", 4)
	w := timeWidth(version)
	entries := make([]EditListEntry, 0, r.count(n, 2*w+4))
	for i := uint64(0); i < n && !r.short(); i++ {
		e := EditListEntry{
			SegmentDuration:   r.u(w),
			MediaTime:         r.i(w),
			MediaRateInteger:  int16(r.i(2)),
			MediaRateFraction: int16(r.i(2)),
		}
		if r.short() {
			break
		}
		entries = append(entries, e)
	}
	r.keep("entries", entries, len(entries))
	return nil
}
