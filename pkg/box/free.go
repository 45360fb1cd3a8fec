package box

// Boxes below carry no decoded fields. Their content is only surfaced through
// the optional hex preview.

var free = &Descriptor{
	Name:        "Free Space Box",
	Description: "This box can be completely ignored.",
}

var skip = &Descriptor{
	Name:        "Free Space Box",
	Description: "This box can be completely ignored.",
}

var mdat = &Descriptor{
	Name:        "Media Data Box",
	Description: "The content's data",
}

var uuid = &Descriptor{
	Name:        "User-defined Box",
	Description: "Custom box identified by its extended type.",
}

var iods = &Descriptor{
	Name:        "Initial Object Descriptor Box",
	Description: "MPEG-4 initial object descriptor.",
}
