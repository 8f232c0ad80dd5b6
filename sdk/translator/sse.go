package translator

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// EncodeSSE frames one target event for the wire. Event-stream protocols get an
// "event:" line followed by the data line; chunk protocols get the data line only.
// Every frame ends with a blank line. The stream sentinel is not written here.
func EncodeSSE(to Format, ev Event) ([]byte, error) {
	spec, err := Lookup(to)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(ev.Data) + 32)
	if spec.NamedEvents {
		name := ev.Type
		if name == "" {
			name = gjson.GetBytes(ev.Data, "type").String()
		}
		if name != "" {
			buf.WriteString("event: ")
			buf.WriteString(name)
			buf.WriteByte('\n')
		}
	}
	buf.WriteString("data: ")
	buf.Write(ev.Data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// Sentinel returns the end-of-stream marker of a format, or nil when it has none.
func Sentinel(to Format) []byte {
	spec, err := Lookup(to)
	if err != nil || len(spec.Sentinel) == 0 {
		return nil
	}
	return bytes.Clone(spec.Sentinel)
}
