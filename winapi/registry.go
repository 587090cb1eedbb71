package winapi

import (
	"encoding/json"
	"os"
	"strings"
)

// RegValue is one named value under a registry key: its Win32 type
// (REG_SZ, REG_DWORD, ...) and a JSON-friendly encoding of its payload.
// Strings are stored as strings; REG_DWORD as a JSON number; REG_BINARY
// as a base64 string (encoding/json's default []byte handling), which
// keeps the whole tree stdlib-marshalable without a custom codec.
type RegValue struct {
	Type uint32 `json:"type"`
	Str  string `json:"str,omitempty"`
	Int  uint32 `json:"int,omitempty"`
	Bin  []byte `json:"bin,omitempty"`
}

// Registry is the flat, JSON-file-backed substitute for the real
// Windows registry spec.md §4.4.5 describes: keys are case-insensitive,
// backslash-normalized path strings, each holding a map of value name
// to RegValue. There is no live hierarchy walk; RegOpenKeyEx only
// checks the key string exists (or creates it, for RegCreateKeyEx).
type Registry struct {
	path string
	keys map[string]map[string]RegValue

	handles    map[uint32]string
	nextHandle uint32
}

func loadRegistry(path string) (*Registry, error) {
	r := &Registry{
		path:       path,
		keys:       make(map[string]map[string]RegValue),
		handles:    make(map[uint32]string),
		nextHandle: 0x80000001, // above the predefined HKEY_* root values
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.keys); err != nil {
		return nil, err
	}
	return r, nil
}

// save persists the registry tree back to disk. Called after every
// mutating call so a crash mid-run doesn't silently drop writes; the
// expected key count is small enough that this is not a bottleneck.
func (r *Registry) save() error {
	if r.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(r.keys, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}

func normalizeKey(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "/", "\\"))
}

// openOrCreateKey returns the key's value map, creating it (and
// persisting the new empty key) when create is true and the key is
// absent. Used by both RegOpenKeyEx (create=false) and RegCreateKeyEx
// (create=true).
func (r *Registry) openOrCreateKey(path string, create bool) (map[string]RegValue, bool) {
	key := normalizeKey(path)
	if vals, ok := r.keys[key]; ok {
		return vals, true
	}
	if !create {
		return nil, false
	}
	vals := make(map[string]RegValue)
	r.keys[key] = vals
	return vals, true
}

// handle mints a new handle for an already-resolved key path.
func (r *Registry) handle(path string) uint32 {
	h := r.nextHandle
	r.nextHandle++
	r.handles[h] = normalizeKey(path)
	return h
}

func (r *Registry) keyForHandle(h uint32) (map[string]RegValue, bool) {
	path, ok := r.handles[h]
	if !ok {
		return nil, false
	}
	vals, ok := r.keys[path]
	return vals, ok
}

func (r *Registry) closeHandle(h uint32) {
	delete(r.handles, h)
}
