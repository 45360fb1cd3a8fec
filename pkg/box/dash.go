package box

import "time"

// aligned(8) class DASHEventMessageBox extends FullBox(‘emsg’, version, flags = 0) {
// if (version==0) {
//	string scheme_id_uri;
//	string value;
//	unsigned int(32) timescale;
//	unsigned int(32) presentation_time_delta;
//	unsigned int(32) event_duration;
//	unsigned int(32) id;
// } else if (version==1) {
//	unsigned int(32) timescale;
//	unsigned int(64) presentation_time;
//	unsigned int(32) event_duration;
//	unsigned int(32) id;
//	string scheme_id_uri;
//	string value;
// }
// unsigned int(8) message_data[];
// }
var emsg = &Descriptor{
	Name:        "Event Message Box",
	Description: "Timed event signalled in-band with the media segments.",
	decode:      decodeEmsg,
	content: []contentInfo{
		{key: "scheme_id_uri", description: "Identifies the message scheme."},
		{key: "presentation_time_delta", description: "Presentation time of the event relative to the earliest presentation time of the segment."},
		{key: "presentation_time", description: "Presentation time of the event on the media timeline."},
		{key: "event_duration", description: "Duration of the event; 0xFFFFFFFF means unknown."},
		{key: "message_data", description: "Body of the message, as hex."},
	},
}

func decodeEmsg(r *fieldReader) error {
	version, _, err := r.fullBox(1)
	if err != nil {
		return err
	}
	if version == 0 {
		r.set("scheme_id_uri", r.cstring())
		r.set("value", r.cstring())
		r.num("timescale", 4)
		r.num("presentation_time_delta", 4)
		r.num("event_duration", 4)
		r.num("id", 4)
	} else {
		r.num("timescale", 4)
		r.num("presentation_time", 8)
		r.num("event_duration", 4)
		r.num("id", 4)
		r.set("scheme_id_uri", r.cstring())
		r.set("value", r.cstring())
	}
	r.set("message_data", r.hex(r.Remaining()))
	return nil
}

// aligned(8) class ProducerReferenceTimeBox extends FullBox(‘prft’, version, flags) {
// unsigned int(32) reference_track_ID;
// unsigned int(64) ntp_timestamp;
// if (version==0) {
//	unsigned int(32) media_time;
// } else {
//	unsigned int(64) media_time;
// }
// }
var prft = &Descriptor{
	Name:        "Producer Reference Time Box",
	Description: "Wall-clock time at which a media sample was produced.",
	decode: func(r *fieldReader) error {
		version, _, err := r.fullBox(1)
		if err != nil {
			return err
		}
		r.num("reference_track_ID", 4)
		ntp := r.num("ntp_timestamp", 8)
		r.set("utc_time", ntpTime(ntp).Format(time.RFC3339Nano))
		r.num("media_time", timeWidth(version))
		return nil
	},
	content: []contentInfo{
		{key: "ntp_timestamp", description: "UTC time in NTP format."},
		{key: "utc_time", name: "UTC time", description: "ntp_timestamp as RFC 3339."},
		{key: "media_time", description: "Media time of the same sample in the reference track timescale."},
	},
}

// ntpEpochOffset is the number of seconds from 1900-01-01 to 1970-01-01.
const ntpEpochOffset = 2208988800

func ntpTime(ntp uint64) time.Time {
	sec := int64(ntp>>32) - ntpEpochOffset
	nsec := int64((ntp & 0xFFFFFFFF) * 1e9 >> 32)
	return time.Unix(sec, nsec).UTC()
}

// aligned(8) class LevelAssignmentBox extends FullBox('leva', 0, 0) {
// unsigned int(8) level_count;
// for (j=1; j <= level_count; j++) {
//	unsigned int(32) track_id;
//	unsigned int(1) padding_flag;
//	unsigned int(7) assignment_type;
//	if (assignment_type == 0) {
//		unsigned int(32) grouping_type;
//	} else if (assignment_type == 1) {
//		unsigned int(32) grouping_type;
//		unsigned int(32) grouping_type_parameter;
//	} else if (assignment_type == 4) {
//		unsigned int(32) sub_track_id;
//	}
// }
// }
type Level struct {
	TrackID               uint64 `json:"track_id" yaml:"track_id"`
	PaddingFlag           uint8  `json:"padding_flag" yaml:"padding_flag"`
	AssignmentType        uint8  `json:"assignment_type" yaml:"assignment_type"`
	GroupingType          string `json:"grouping_type,omitempty" yaml:"grouping_type,omitempty"`
	GroupingTypeParameter uint64 `json:"grouping_type_parameter,omitempty" yaml:"grouping_type_parameter,omitempty"`
	SubTrackID            uint64 `json:"sub_track_id,omitempty" yaml:"sub_track_id,omitempty"`
}

var leva = &Descriptor{
	Name:        "Level Assignment Box",
	Description: "Assignment of features of the fragmented movie to levels.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		n := r.num("level_count", 1)
		if r.short() {
			return nil
		}
		levels := make([]Level, 0, r.count(n, 5))
		for i := uint64(0); i < n; i++ {
			l := Level{TrackID: r.u(4)}
			bs := r.bits(1)
			l.PaddingFlag = bs.GetBit()
			l.AssignmentType = bs.Uint8(7)
			switch l.AssignmentType {
			case 0:
				l.GroupingType = r.ascii(4)
			case 1:
				l.GroupingType = r.ascii(4)
				l.GroupingTypeParameter = r.u(4)
			case 4:
				l.SubTrackID = r.u(4)
			}
			if r.short() {
				break
			}
			levels = append(levels, l)
		}
		r.keep("levels", levels, len(levels))
		return nil
	},
}

// aligned(8) class ProgressiveDownloadInfoBox extends FullBox(‘pdin’, version = 0, 0) {
// for (i=0; ; i++) { // to end of box
//	unsigned int(32) rate;
//	unsigned int(32) initial_delay;
// }
// }
type DownloadRate struct {
	Rate         uint64 `json:"rate" yaml:"rate"`
	InitialDelay uint64 `json:"initial_delay" yaml:"initial_delay"`
}

var pdin = &Descriptor{
	Name:        "Progressive Download Information Box",
	Description: "Pairs of download rate and suggested initial playback delay.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0); err != nil {
			return err
		}
		rates := make([]DownloadRate, 0, r.Remaining()/8)
		for r.Remaining() >= 8 {
			rates = append(rates, DownloadRate{Rate: r.u(4), InitialDelay: r.u(4)})
		}
		r.set("rates", rates)
		return nil
	},
	content: []contentInfo{
		{key: "version", description: "pdin version"},
		{key: "flags", description: "pdin flags"},
		{key: "rates", description: "Download rate in bytes/second and the suggested delay in milliseconds, such that if download continues at the given rate all data arrives in time for playback."},
	},
}
