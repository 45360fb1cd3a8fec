package box

var sinf = &Descriptor{
	Name:        "Protection Scheme Information Box",
	Description: "Information needed to understand the protection applied to the stream.",
	Container:   true,
}

var schi = &Descriptor{
	Name:        "Scheme Information Box",
	Description: "Scheme-specific data, interpreted by the scheme declared in schm.",
	Container:   true,
}

// aligned(8) class OriginalFormatBox(codingname) extends Box ('frma') {
// unsigned int(32) data_format = codingname;
// }
var frma = &Descriptor{
	Name:        "Original Format Box",
	Description: "Coding name of the original, unprotected sample entry.",
	decode: func(r *fieldReader) error {
		r.str("data_format", 4)
		return nil
	},
}

// aligned(8) class SchemeTypeBox extends FullBox('schm', 0, flags) {
// unsigned int(32) scheme_type; // 4CC identifying the scheme
// unsigned int(32) scheme_version; // scheme version
// if (flags & 0x000001) {
//	unsigned int(8) scheme_uri[]; // browser uri
// }
// }
var schm = &Descriptor{
	Name:        "Scheme Type Box",
	Description: "Protection or restriction scheme applied to the stream.",
	decode: func(r *fieldReader) error {
		_, flags, err := r.fullBox(0)
		if err != nil {
			return err
		}
		r.str("scheme_type", 4)
		r.num("scheme_version", 4)
		if flags&0x1 != 0 {
			r.set("scheme_uri", r.cstring())
		}
		return nil
	},
	content: []contentInfo{
		{key: "scheme_type", description: "'cenc', 'cbc1', 'cens' or 'cbcs' for common encryption."},
	},
}

// aligned(8) class TrackEncryptionBox extends FullBox(‘tenc’, version, flags=0) {
// unsigned int(8) reserved = 0;
// if (version==0) {
//	unsigned int(8) reserved = 0;
// } else {
//	unsigned int(4) default_crypt_byte_block;
//	unsigned int(4) default_skip_byte_block;
// }
// unsigned int(8) default_isProtected;
// unsigned int(8) default_Per_Sample_IV_Size;
// unsigned int(8)[16] default_KID;
// if (default_isProtected ==1 && default_Per_Sample_IV_Size == 0) {
//	unsigned int(8) default_constant_IV_size;
//	unsigned int(8)[default_constant_IV_size] default_constant_IV;
// }
// }
var tenc = &Descriptor{
	Name:        "Track Encryption Box",
	Description: "Default encryption parameters of a track.",
	decode:      decodeTenc,
}

func decodeTenc(r *fieldReader) error {
	version, _, err := r.fullBox(1)
	if err != nil {
		return err
	}
	r.skip(1)
	bs := r.bits(1)
	if version > 0 {
		r.set("default_crypt_byte_block", uint64(bs.Uint8(4)))
		r.set("default_skip_byte_block", uint64(bs.Uint8(4)))
	}
	protected := r.num("default_isProtected", 1)
	ivSize := r.num("default_Per_Sample_IV_Size", 1)
	r.set("default_KID", r.hex(16))
	if protected == 1 && ivSize == 0 {
		n := r.num("default_constant_IV_size", 1)
		r.set("default_constant_IV", r.hex(int(n)))
	}
	return nil
}

// aligned(8) class SampleAuxiliaryInformationSizesBox extends FullBox(‘saiz’, version = 0, flags) {
// if (flags & 1) {
//	unsigned int(32) aux_info_type;
//	unsigned int(32) aux_info_type_parameter;
// }
// unsigned int(8) default_sample_info_size;
// unsigned int(32) sample_count;
// if (default_sample_info_size == 0) {
//	unsigned int(8) sample_info_size[ sample_count ];
// }
// }
var saiz = &Descriptor{
	Name:        "Sample Auxiliary Information Sizes Box",
	Description: "Size of the auxiliary information of each sample.",
	decode: func(r *fieldReader) error {
		_, flags, err := r.fullBox(0)
		if err != nil {
			return err
		}
		if flags&0x1 != 0 {
			r.str("aux_info_type", 4)
			r.num("aux_info_type_parameter", 4)
		}
		size := r.num("default_sample_info_size", 1)
		n := r.num("sample_count", 4)
		if size == 0 {
			r.uints("sample_info_size", 1, n)
		}
		return nil
	},
}

// aligned(8) class SampleAuxiliaryInformationOffsetsBox extends FullBox(‘saio’, version, flags) {
// if (flags & 1) {
//	unsigned int(32) aux_info_type;
//	unsigned int(32) aux_info_type_parameter;
// }
// unsigned int(32) entry_count;
// if ( version == 0 ) {
//	unsigned int(32) offset[ entry_count ];
// } else {
//	unsigned int(64) offset[ entry_count ];
// }
// }
var saio = &Descriptor{
	Name:        "Sample Auxiliary Information Offsets Box",
	Description: "Position of the auxiliary information of the samples.",
	decode: func(r *fieldReader) error {
		version, flags, err := r.fullBox(1)
		if err != nil {
			return err
		}
		if flags&0x1 != 0 {
			r.str("aux_info_type", 4)
			r.num("aux_info_type_parameter", 4)
		}
		n := r.num("entry_count", 4)
		r.uints("offset", timeWidth(version), n)
		return nil
	},
}

// aligned(8) class SampleEncryptionBox extends FullBox(‘senc’, version=0, flags) {
// unsigned int(32) sample_count;
// {
//	unsigned int(Per_Sample_IV_Size*8) InitializationVector;
//	if (flags & 0x000002) {
//		unsigned int(16) subsample_count;
//		{
//			unsigned int(16) BytesOfClearData;
//			unsigned int(32) BytesOfProtectedData;
//		} [ subsample_count ]
//	}
// }[ sample_count ]
// }
//
// The IV size lives in tenc, so only the sample count and flags are decoded.
var senc = &Descriptor{
	Name:        "Sample Encryption Box",
	Description: "Initialization vectors and subsample encryption maps of the samples.",
	decode: func(r *fieldReader) error {
		if _, _, err := r.fullBox(0, flagName{0x2, "use-subsample-encryption"}); err != nil {
			return err
		}
		r.num("sample_count", 4)
		r.skip(r.Remaining())
		return nil
	},
}
