package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config mirrors a configuration struct as a tree of properties.
// Priority of a value: environment > config file > default tag > zero value.
type Config struct {
	Ptr      reflect.Value
	Env      any
	File     any
	Default  any
	name     string
	propsMap map[string]*Config
	props    []*Config
	tag      reflect.StructTag
}

func (config *Config) Get(key string) (v *Config) {
	if config.propsMap == nil {
		config.propsMap = make(map[string]*Config)
	}
	if v, ok := config.propsMap[key]; ok {
		return v
	}
	v = &Config{
		name: key,
	}
	config.propsMap[key] = v
	config.props = append(config.props, v)
	return v
}

func (config *Config) Has(key string) (ok bool) {
	if config.propsMap == nil {
		return false
	}
	_, ok = config.propsMap[strings.ToLower(key)]
	return ok
}

func (config *Config) GetValue() any {
	return config.Ptr.Interface()
}

// Props returns the child properties in declaration order.
func (config *Config) Props() []*Config {
	return config.props
}

func (config *Config) Name() string {
	return config.name
}

func (config *Config) Desc() string {
	return config.tag.Get("desc")
}

// Parse reads default tags and then environment variables into s. The
// environment name of a field is the upper-cased path joined by '_',
// starting with prefix.
func (config *Config) Parse(s any, prefix ...string) {
	var t reflect.Type
	var v reflect.Value
	if vv, ok := s.(reflect.Value); ok {
		t, v = vv.Type(), vv
	} else {
		t, v = reflect.TypeOf(s), reflect.ValueOf(s)
	}
	if t.Kind() == reflect.Pointer {
		t, v = t.Elem(), v.Elem()
	}

	config.Ptr = v
	config.Default = v.Interface()

	if t.Kind() != reflect.Struct {
		if l := len(prefix); l > 0 {
			name := strings.ToLower(prefix[l-1])
			if tag := config.tag.Get("default"); tag != "" {
				v.Set(config.assign(name, tag))
				config.Default = v.Interface()
			}
			if envValue := os.Getenv(strings.Join(prefix, "_")); envValue != "" {
				v.Set(config.assign(name, envValue))
				config.Env = v.Interface()
			}
		}
		return
	}
	for i, j := 0, t.NumField(); i < j; i++ {
		ft, fv := t.Field(i), v.Field(i)
		if !ft.IsExported() {
			continue
		}
		name := strings.ToLower(ft.Name)
		if tag := ft.Tag.Get("yaml"); tag != "" {
			if tag == "-" {
				continue
			}
			name, _, _ = strings.Cut(tag, ",")
		}
		prop := config.Get(name)
		prop.tag = ft.Tag
		prop.Parse(fv, append(prefix, strings.ToUpper(ft.Name))...)
	}
}

// ParseUserFile applies values read from a config file. Values already set
// from the environment are kept.
func (config *Config) ParseUserFile(conf map[string]any) {
	if conf == nil {
		return
	}
	config.File = conf
	for k, v := range conf {
		k = strings.ToLower(k)
		if !config.Has(k) {
			continue
		}
		if prop := config.Get(k); prop.props != nil {
			if m, ok := v.(map[string]any); ok {
				prop.ParseUserFile(m)
			}
		} else {
			fv := prop.assign(k, v)
			prop.File = fv.Interface()
			if prop.Env == nil {
				prop.Ptr.Set(fv)
			}
		}
	}
}

func (config *Config) GetMap() map[string]any {
	m := make(map[string]any)
	for k, v := range config.propsMap {
		if v.props != nil {
			if vv := v.GetMap(); vv != nil {
				m[k] = vv
			}
		} else if v.GetValue() != nil {
			m[k] = v.GetValue()
		}
	}
	if len(m) > 0 {
		return m
	}
	return nil
}

// assign converts v to the field type by round-tripping it through yaml, so
// that "10", 10 and "true" all land in the matching Go kind.
func (config *Config) assign(k string, v any) reflect.Value {
	tmpStruct := reflect.StructOf([]reflect.StructField{
		{
			Name: strings.ToUpper(k),
			Type: config.Ptr.Type(),
		},
	})
	tmpValue := reflect.New(tmpStruct)
	if v != nil {
		var out []byte
		if vv, ok := v.(string); ok {
			out = []byte(fmt.Sprintf("%s: %s", k, vv))
		} else {
			out, _ = yaml.Marshal(map[string]any{k: v})
		}
		_ = yaml.Unmarshal(out, tmpValue.Interface())
	}
	return tmpValue.Elem().Field(0)
}
