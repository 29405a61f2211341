package shader

import (
	"hash/fnv"
	"slices"
	"strconv"
	"strings"
)

// Defines is a set of preprocessor defines. A flag define has an empty
// value. The zero value is a valid empty set for reads.
type Defines map[string]string

// NewDefines returns an empty define set.
func NewDefines() Defines {
	return make(Defines)
}

// Flag sets a value-less define.
func (d Defines) Flag(name string) { d[name] = "" }

// Set sets a define to a raw value.
func (d Defines) Set(name, value string) { d[name] = value }

// SetInt sets a define to an integer value.
func (d Defines) SetInt(name string, v int) { d[name] = strconv.Itoa(v) }

// SetFloat sets a define to a float value formatted with FormatFloat.
func (d Defines) SetFloat(name string, v float32) { d[name] = FormatFloat(v) }

// Has reports whether name is defined.
func (d Defines) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// Float parses a define as a float.
func (d Defines) Float(name string) (float32, bool) {
	v, ok := d[name]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

// Int parses a define as an integer.
func (d Defines) Int(name string) (int, bool) {
	v, ok := d[name]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Names returns the define names in sorted order.
func (d Defines) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clone returns a copy of d.
func (d Defines) Clone() Defines {
	out := make(Defines, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge copies every define of other into d, overwriting duplicates.
func (d Defines) Merge(other Defines) {
	for k, v := range other {
		d[k] = v
	}
}

// Equal reports whether two sets hold the same defines.
func (d Defines) Equal(other Defines) bool {
	if len(d) != len(other) {
		return false
	}
	for k, v := range d {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the set as sorted #define lines.
func (d Defines) String() string {
	var b strings.Builder
	for _, name := range d.Names() {
		b.WriteString("#define ")
		b.WriteString(name)
		if v := d[name]; v != "" {
			b.WriteByte(' ')
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Key returns the structural hash of the set. Insertion order does not
// matter.
func (d Defines) Key() uint64 {
	h := fnv.New64a()
	writeDefines(h, d)
	return h.Sum64()
}

// VariantKey hashes a program name, its defines and its index parameters.
func VariantKey(name string, defines Defines, index map[string]int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name)) // fnv.Write never returns an error
	_, _ = h.Write([]byte{0})
	writeDefines(h, defines)
	_, _ = h.Write([]byte{0})

	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{'='})
		_, _ = h.Write([]byte(strconv.Itoa(index[k])))
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

type byteWriter interface {
	Write([]byte) (int, error)
}

func writeDefines(w byteWriter, d Defines) {
	for _, name := range d.Names() {
		_, _ = w.Write([]byte(name))
		_, _ = w.Write([]byte{'='})
		_, _ = w.Write([]byte(d[name]))
		_, _ = w.Write([]byte{'\n'})
	}
}

// FormatFloat renders v with at most eight decimals and no trailing zeros,
// keeping one digit after the point.
func FormatFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', 8, 32)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}
