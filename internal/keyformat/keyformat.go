package keyformat

import (
	"strings"

	"github.com/mr-tron/base58/base58"
)

// KeyType selects the text prefix of an encoded key.
type KeyType uint8

const (
	Master KeyType = iota + 1
	Public
	Secret
)

type prefixEntry struct {
	prefix  string
	keyType KeyType
}

// prefixTable is matched in order; longer prefixes must come first so no
// entry can shadow a more specific one.
var prefixTable = []prefixEntry{
	{prefix: "XYL-MK-", keyType: Master},
	{prefix: "XYL-PK-", keyType: Public},
	{prefix: "XYL-SK-", keyType: Secret},
}

func (t KeyType) Prefix() string {
	for _, e := range prefixTable {
		if e.keyType == t {
			return e.prefix
		}
	}
	return ""
}

func (t KeyType) String() string {
	switch t {
	case Master:
		return "master"
	case Public:
		return "public"
	case Secret:
		return "secret"
	default:
		return "unknown"
	}
}

func (t KeyType) Valid() bool {
	return t.Prefix() != ""
}

type Key struct {
	Type KeyType
	Raw  []byte
}

// EncodeKey renders raw as prefix + base58. It returns "" for an unknown type.
func EncodeKey(t KeyType, raw []byte) string {
	prefix := t.Prefix()
	if prefix == "" {
		return ""
	}
	return prefix + base58.Encode(raw)
}

// DecodeKey parses an encoded key. Unknown prefixes and invalid base58 decode
// to (Key{}, false); a bare prefix decodes to an empty Raw.
func DecodeKey(s string) (Key, bool) {
	s = strings.TrimSpace(s)
	for _, e := range prefixTable {
		if !strings.HasPrefix(s, e.prefix) {
			continue
		}
		payload := s[len(e.prefix):]
		if payload == "" {
			return Key{Type: e.keyType, Raw: []byte{}}, true
		}
		raw, err := base58.Decode(payload)
		if err != nil {
			return Key{}, false
		}
		return Key{Type: e.keyType, Raw: raw}, true
	}
	return Key{}, false
}

func (k Key) String() string {
	if k.Type == Secret || k.Type == Master {
		return k.Type.Prefix() + "(redacted)"
	}
	return EncodeKey(k.Type, k.Raw)
}
