package box

import "strings"

// aligned(8) class FileTypeBox extends Box(‘ftyp’) {
//     unsigned int(32) major_brand;
//     unsigned int(32) minor_version;
//     unsigned int(32) compatible_brands[]; // to end of the box
// }

var brandContent = []contentInfo{
	{key: "major_brand", description: "Brand identifier."},
	{key: "minor_version", description: "Informative integer for the minor version of the major brand."},
	{key: "compatible_brands", description: "List of brands, to the end of the box."},
}

var ftyp = &Descriptor{
	Name:        "File Type Box",
	Description: "File type and compatibility",
	decode:      decodeBrands,
	content:     brandContent,
}

var styp = &Descriptor{
	Name:        "Segment Type Box",
	Description: "Segment type and compatibility",
	decode:      decodeBrands,
	content:     brandContent,
}

func decodeBrands(r *fieldReader) error {
	r.str("major_brand", 4)
	r.num("minor_version", 4)
	brands := make([]string, 0, r.Remaining()/4)
	for r.Remaining() >= 4 {
		brands = append(brands, r.ascii(4))
	}
	r.set("compatible_brands", strings.Join(brands, ", "))
	return nil
}
