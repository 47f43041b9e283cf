package format

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainRegistry prefixes registry hashes. The version suffix allows a
// future change of the canonical form.
const DomainRegistry = "serdegen/registry/v1"

// CanonicalJSON renders the registry in RFC 8785 style canonical JSON.
// The registry itself becomes an array of [name, container] pairs so that
// insertion order, which is part of the generated output, is hashed;
// every other object has its keys sorted by UTF-16 code units. Strings are
// NFC normalized and HTML characters are not escaped.
func CanonicalJSON(reg *Registry) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	i := 0
	reg.Each(func(name string, c ContainerFormat) {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		buf.WriteByte('[')
		writeCanonicalString(&buf, name)
		buf.WriteByte(',')
		writeCanonical(&buf, encodeContainer(c))
		buf.WriteByte(']')
	})
	buf.WriteByte(']')
	return buf.Bytes()
}

// Hash returns the hex SHA-256 of the registry's canonical form with
// domain separation.
func Hash(reg *Registry) string {
	return HashWithDomain(DomainRegistry, CanonicalJSON(reg))
}

// HashWithDomain computes SHA256(domain + 0x00 + data) as hex. The null
// separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func writeCanonical(buf *bytes.Buffer, n *node) {
	switch n.kind {
	case scalarNode:
		if n.number {
			v, _ := strconv.Atoi(n.value)
			buf.WriteString(strconv.Itoa(v))
			return
		}
		writeCanonicalString(buf, n.value)
	case seqNode:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, item)
		}
		buf.WriteByte(']')
	case mapNode:
		order := make([]int, len(n.keys))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return compareUTF16(n.keys[a], n.keys[b])
		})
		buf.WriteByte('{')
		for i, idx := range order {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, n.keys[idx])
			buf.WriteByte(':')
			writeCanonical(buf, n.values[idx])
		}
		buf.WriteByte('}')
	}
}

// writeCanonicalString escapes only quote, backslash and control
// characters, as RFC 8785 requires.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(norm.NFC.String(s))
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	buf.Write(unescapeLineSeparators(out))
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes produced by
// encoding/json back into literal characters. An escape counts only when
// preceded by an even number of backslashes.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' && data[i+2] == '2' &&
			data[i+3] == '0' && data[i+4] == '2' && (data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
