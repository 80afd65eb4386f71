// CLAUDE:SUMMARY Ordered canonical -> variants dictionary with order-preserving JSON load/save and content digest.
package terms

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/zeebo/blake3"
)

// TermEntry is one canonical name and its known incorrect spellings.
type TermEntry struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
}

// Dictionary maps canonical names to their variants.
// Iteration follows insertion order, which is the order of the JSON file.
type Dictionary struct {
	entries *orderedmap.OrderedMap[string, []string]
	digest  [32]byte
}

// NewDictionary returns an empty dictionary.
func NewDictionary(entries ...TermEntry) *Dictionary {
	d := &Dictionary{entries: orderedmap.New[string, []string]()}
	for _, e := range entries {
		d.Set(e.Canonical, e.Variants)
	}
	return d
}

// Len returns the number of canonical names.
func (d *Dictionary) Len() int { return d.entries.Len() }

// VariantCount returns the total number of variants across all entries.
func (d *Dictionary) VariantCount() int {
	n := 0
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		n += len(pair.Value)
	}
	return n
}

// Get returns the variants stored for canonical.
func (d *Dictionary) Get(canonical string) ([]string, bool) {
	return d.entries.Get(canonical)
}

// Set replaces the variants for canonical, appending the entry if new.
func (d *Dictionary) Set(canonical string, variants []string) {
	d.entries.Set(canonical, append([]string(nil), variants...))
}

// Entries returns a snapshot of all entries in dictionary order.
func (d *Dictionary) Entries() []TermEntry {
	out := make([]TermEntry, 0, d.entries.Len())
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, TermEntry{
			Canonical: pair.Key,
			Variants:  append([]string(nil), pair.Value...),
		})
	}
	return out
}

// Digest returns the hex blake3 digest of the bytes the dictionary was
// loaded from. Dictionaries built in memory have an empty digest.
func (d *Dictionary) Digest() string {
	if d.digest == ([32]byte{}) {
		return ""
	}
	return hex.EncodeToString(d.digest[:])
}

// resolveKey returns the existing key matching canonical, first exactly,
// then under case folding. Falls back to canonical itself.
func (d *Dictionary) resolveKey(canonical string) string {
	if _, ok := d.entries.Get(canonical); ok {
		return canonical
	}
	want := foldKey(canonical)
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		if foldKey(pair.Key) == want {
			return pair.Key
		}
	}
	return canonical
}

// MarshalJSON writes the dictionary as an indented JSON object in insertion
// order, without HTML escaping.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString("\n  ")
		if err := writeJSONString(&buf, pair.Key); err != nil {
			return nil, err
		}
		buf.WriteString(": [")
		for i, v := range pair.Value {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString("\n    ")
			if err := writeJSONString(&buf, v); err != nil {
				return nil, err
			}
		}
		if len(pair.Value) > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteByte(']')
	}
	if !first {
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// Load reads the dictionary at path. A missing file yields an empty
// dictionary and no error.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewDictionary(), nil
		}
		return NewDictionary(), &IOError{Op: "read", Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes a JSON object of canonical name -> array of strings.
// name is only used in error messages.
func Parse(name string, data []byte) (*Dictionary, error) {
	doc := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	d := NewDictionary()
	if len(doc) == 0 {
		return d, nil
	}
	if !json.Valid(doc) {
		return nil, &FormatError{Path: name, Reason: "malformed JSON"}
	}
	if doc[0] != '{' {
		return nil, &FormatError{Path: name, Reason: "top-level value must be an object"}
	}

	err := jsonparser.ObjectEach(doc, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		canonical := string(key)
		if dt != jsonparser.Array {
			return &FormatError{Path: name, Reason: fmt.Sprintf("value for %q must be an array of strings, got %s", canonical, dt)}
		}
		variants := []string{}
		var elemErr error
		_, err := jsonparser.ArrayEach(value, func(v []byte, vt jsonparser.ValueType, _ int, _ error) {
			if elemErr != nil {
				return
			}
			if vt != jsonparser.String {
				elemErr = &FormatError{Path: name, Reason: fmt.Sprintf("variant of %q must be a string, got %s", canonical, vt)}
				return
			}
			s, err := jsonparser.ParseString(v)
			if err != nil {
				elemErr = &FormatError{Path: name, Reason: fmt.Sprintf("variant of %q", canonical), Err: err}
				return
			}
			variants = append(variants, s)
		})
		if elemErr != nil {
			return elemErr
		}
		if err != nil {
			return &FormatError{Path: name, Reason: fmt.Sprintf("variants of %q", canonical), Err: err}
		}
		d.entries.Set(canonical, variants)
		return nil
	})
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &FormatError{Path: name, Reason: "decode object", Err: err}
	}
	d.digest = blake3.Sum256(data)
	return d, nil
}

// Save writes d to path atomically, creating parent directories.
func Save(path string, d *Dictionary) error {
	data, err := d.MarshalJSON()
	if err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	data = append(data, '\n')
	if err := writeFileAtomic(path, data); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	d.digest = blake3.Sum256(data)
	return nil
}

// Marker is a comparable snapshot of a dictionary file's on-disk state.
type Marker struct {
	Exists  bool
	ModTime int64 // nanoseconds
	Size    int64
}

// ModificationMarker stats path. Any stat failure reads as "absent".
func ModificationMarker(path string) Marker {
	fi, err := os.Stat(path)
	if err != nil {
		return Marker{}
	}
	return Marker{Exists: true, ModTime: fi.ModTime().UnixNano(), Size: fi.Size()}
}

// normalizeEntry trims the canonical name and drops blank variants.
func normalizeEntry(canonical string, variants []string) (string, []string) {
	canonical = strings.TrimSpace(canonical)
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return canonical, out
}
