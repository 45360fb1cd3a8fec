package box

import "fmt"

// aligned(8) class DataReferenceBox extends FullBox(‘dref’, version = 0, 0) {
// unsigned int(32) entry_count;
// for (i=1; i <= entry_count; i++) {
//	DataEntryBox(entry_version, entry_flags) data_entry;
// }
// }
var dref = &Descriptor{
	Name:        "Data Reference Box",
	Description: "Table of data references that declare the location(s) of the media data used within the presentation.",
	Container:   true,
	decode:      decodeEntryTable,
	content: []contentInfo{
		{key: "entry_count", description: "Number of entries that follow as child boxes."},
	},
}

// aligned(8) class SampleDescriptionBox (unsigned int(32) handler_type) extends FullBox('stsd', version, 0){
// unsigned int(32) entry_count;
// for (i = 1 ; i <= entry_count ; i++){
//	SampleEntry(); // an instance of a class derived from SampleEntry
// }
// }
var stsd = &Descriptor{
	Name:        "Sample Description Box",
	Description: "Detailed information about the coding type used, and any initialization information needed for that coding.",
	Container:   true,
	decode:      decodeEntryTable,
	content: []contentInfo{
		{key: "entry_count", description: "Number of sample entries that follow as child boxes."},
	},
}

// decodeEntryTable reads the version, flags and entry_count that prefix the
// child boxes of dref and stsd. Both must be zero.
func decodeEntryTable(r *fieldReader) error {
	_, flags, err := r.fullBox(0)
	if err != nil {
		return err
	}
	if flags != 0 {
		return fmt.Errorf("%w %#x", ErrInvalidFlags, flags)
	}
	r.num("entry_count", 4)
	return nil
}

// aligned(8) class DataEntryUrlBox (bit(24) flags) extends FullBox(‘url ’, version = 0, flags) {
// string location;
// }
var url = &Descriptor{
	Name:        "Data Entry Url Box",
	Description: "Declares the location(s) of the media data used within the presentation.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0, selfContained); err != nil {
			return err
		}
		if !r.Finished() {
			r.set("location", r.cstring())
		}
		return nil
	},
	content: []contentInfo{
		{key: "flags", description: "When self-contained is set the media data is in the same file and no location is given."},
	},
}

// aligned(8) class DataEntryUrnBox (bit(24) flags) extends FullBox(‘urn ’, version = 0, flags) {
// string name;
// string location;
// }
var urn = &Descriptor{
	Name:        "Data Entry Urn Box",
	Description: "Declares the location(s) of the media data used within the presentation.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0, selfContained); err != nil {
			return err
		}
		if !r.Finished() {
			r.set("name", r.cstring())
		}
		if !r.Finished() {
			r.set("location", r.cstring())
		}
		return nil
	},
}

var selfContained = flagName{0x1, "self-contained"}

// aligned(8) class MetaBox (handler_type) extends FullBox(‘meta’, version = 0, 0) {
// HandlerBox(handler_type) theHandler;
// PrimaryItemBox primary_resource; // optional
// DataInformationBox file_locations; // optional
// ItemLocationBox item_locations; // optional
// ...
// }
var meta = &Descriptor{
	Name:        "Meta Box",
	Description: "Untimed metadata, the handler declares its structure or format.",
	Container:   true,
	decode: func(r *fieldReader) error {
		_, _, err := r.fullBox(0)
		return err
	},
}
