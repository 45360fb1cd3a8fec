package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const EnvPrefix = "ISOBMFF"

// Inspect configures the isobmff-inspect tool.
type Inspect struct {
	Strict      bool   `desc:"abort on the first malformed box"`
	Format      string `default:"tree" desc:"output format: tree, json or yaml"`
	LogLevel    string `default:"info" desc:"log level: trace, debug, info, warn or error"`
	LogDir      string `desc:"directory of rotated log files, empty logs to the console only"`
	LogMaxSize  uint64 `default:"10485760" desc:"rotate a log file once it reaches this size in bytes"`
	LogMaxFiles uint64 `default:"7" desc:"number of rotated log files kept"`
	Hexdump     int    `default:"16" desc:"leading payload bytes shown for boxes without fields, 0 disables"`
}

// Load fills an Inspect from its default tags, the YAML file at path (skipped
// when path is empty) and ISOBMFF_* environment variables.
func Load(path string) (*Inspect, *Config, error) {
	inspect, conf := new(Inspect), new(Config)
	conf.Parse(inspect, EnvPrefix)
	if path == "" {
		return inspect, conf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var m map[string]any
	if err = yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("config: %s: %w", path, err)
	}
	conf.ParseUserFile(m)
	return inspect, conf, nil
}

func (i *Inspect) Validate() error {
	switch i.Format {
	case "tree", "json", "yaml":
		return nil
	}
	return fmt.Errorf("config: unknown format %q", i.Format)
}

// Usage writes every option with its default and description.
func Usage(w io.Writer) {
	var conf Config
	conf.Parse(new(Inspect), EnvPrefix)
	for _, prop := range conf.Props() {
		fmt.Fprintf(w, "  %-12s %s_%s %s\n      %s\n", prop.Name(), EnvPrefix, strings.ToUpper(prop.Name()), defaultTag(prop), prop.Desc())
	}
}

func defaultTag(prop *Config) string {
	if d := prop.tag.Get("default"); d != "" {
		return "(default " + d + ")"
	}
	return ""
}
