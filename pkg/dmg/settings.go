package dmg

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Settings is the dmgbuild settings file content. Optional fields are
// omitted when zero.
type Settings struct {
	Filename      string
	VolumeName    string
	Size          string
	Files         []string
	Symlinks      map[string]string
	Format        string
	BadgeIcon     string
	Background    string
	IconSize      int
	IconLocations map[string]any
	WindowRect    []any
}

type assignment struct {
	name  string
	value any
}

func (s Settings) assignments() []assignment {
	as := []assignment{
		{"filename", s.Filename},
		{"volume_name", s.VolumeName},
		{"size", s.Size},
		{"files", s.Files},
		{"symlinks", s.Symlinks},
		{"format", s.Format},
	}
	if s.BadgeIcon != "" {
		as = append(as, assignment{"badge_icon", s.BadgeIcon})
	}
	if s.Background != "" {
		as = append(as, assignment{"background", s.Background})
	}
	if s.IconSize > 0 {
		as = append(as, assignment{"icon_size", s.IconSize})
	}
	if len(s.IconLocations) > 0 {
		as = append(as, assignment{"icon_locations", s.IconLocations})
	}
	if len(s.WindowRect) > 0 {
		as = append(as, assignment{"window_rect", s.WindowRect})
	}
	return as
}

// Encode writes the settings as Python assignments, the format dmgbuild
// loads with -s.
func (s Settings) Encode(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# -*- coding: utf-8 -*-\n")
	for _, a := range s.assignments() {
		lit, err := pyLiteral(reflect.ValueOf(a.value))
		if err != nil {
			return fmt.Errorf("%s: %w", a.name, err)
		}
		fmt.Fprintf(&b, "%s = %s\n", a.name, lit)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func pyLiteral(v reflect.Value) (string, error) {
	if !v.IsValid() {
		return "None", nil
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return "None", nil
		}
		return pyLiteral(v.Elem())
	case reflect.String:
		return pyString(v.String()), nil
	case reflect.Bool:
		if v.Bool() {
			return "True", nil
		}
		return "False", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case reflect.Slice, reflect.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			p, err := pyLiteral(v.Index(i))
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		parts := make([]string, len(keys))
		for i, k := range keys {
			kl, err := pyLiteral(k)
			if err != nil {
				return "", err
			}
			vl, err := pyLiteral(v.MapIndex(k))
			if err != nil {
				return "", err
			}
			parts[i] = kl + ": " + vl
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
	return "", fmt.Errorf("cannot express %s as a Python literal", v.Type())
}

func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
