package box

// SystemIDs maps DRM system IDs, as uppercase hex, to the system name.
var SystemIDs = map[string]string{
	"1077EFECC0B24D02ACE33C1E52E2FB4B": "cenc",
	"1F83E1E86EE94F0DBA2F5EC4E3ED1A66": "SecureMedia",
	"35BF197B530E42D78B651B4BF415070F": "DivX DRM",
	"45D481CB8FE049C0ADA9AB2D2455B2F2": "CoreCrypt",
	"5E629AF538DA4063897797FFBD9902D4": "Marlin",
	"616C7469636173742D50726F74656374": "AltiProtect",
	"644FE7B5260F4FAD949A0762FFB054B4": "CMLA",
	"69F908AF481646EA910CCD5DCCCB0A3A": "Marlin",
	"6A99532D869F59229A91113AB7B1E2F3": "MobiDRM",
	"80A6BE7E14484C379E70D5AEBE04C8D2": "Irdeto",
	"94CE86FB07FF4F43ADB893D2FA968CA2": "FairPlay",
	"992C46E6C4374899B6A050FA91AD0E39": "SteelKnot",
	"9A04F07998404286AB92E65BE0885F95": "PlayReady",
	"9A27DD82FDE247258CBC4234AA06EC09": "Verimatrix VCAS",
	"A68129D3575B4F1A9CBA3223846CF7C3": "VideoGuard Everywhere",
	"ADB41C242DBF4A6D958B4457C0D27B95": "Nagra",
	"B4413586C58CFFB094A5D4896C1AF6C3": "Viaccess-Orca",
	"DCF4E3E362F158187BA60A6FE33FF3DD": "DigiCAP",
	"E2719D58A985B3C9781AB030AF78D30E": "ClearKey",
	"EDEF8BA979D64ACEA3C827DCD51D21ED": "Widevine",
	"F239E769EFA348509C16A903C6932EFB": "PrimeTime",
}

// aligned(8) class ProtectionSystemSpecificHeaderBox extends FullBox(‘pssh’, version, flags=0) {
// unsigned int(8)[16] SystemID;
// if (version > 0) {
//	unsigned int(32) KID_count;
//	{
//		unsigned int(8)[16] KID;
//	} [KID_count];
// }
// unsigned int(32) DataSize;
// unsigned int(8)[DataSize] Data;
// }
var pssh = &Descriptor{
	Name:        "Protection System Specific Header",
	Description: "Information needed by a content protection system to play back the content.",
	decode:      decodePssh,
	content: []contentInfo{
		{key: "systemID", description: "UUID of the content protection system, followed by its name when known."},
		{key: "KIDs", description: "Key identifiers, as hex, for which the data is applicable."},
		{key: "data", description: "System-specific data, as hex."},
	},
}

func decodePssh(r *fieldReader) error {
	version, _, err := r.fullBox(1)
	if err != nil {
		return err
	}
	r.set("systemID", systemID(r.hex(16)))
	if version == 1 {
		n := r.num("KID_count", 4)
		if !r.short() {
			kids := make([]string, 0, r.count(n, 16))
			for i := uint64(0); i < n; i++ {
				kid := r.hex(16)
				if r.short() {
					break
				}
				kids = append(kids, kid)
			}
			r.keep("KIDs", kids, len(kids))
		}
	}
	size := r.num("data_length", 4)
	if size > uint64(r.Remaining()) {
		// hex reads fail anyway, keep the width in int range
		size = uint64(r.Remaining()) + 1
	}
	r.set("data", r.hex(int(size)))
	return nil
}

func systemID(id string) string {
	if name, ok := SystemIDs[id]; ok {
		return id + " (" + name + ")"
	}
	return id
}
