package driver

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"

	"github.com/hovering-clouds/acsengine/internal/model"
)

const (
	ipByteSize   = 16
	portByteSize = 2
	protoByteSize = 1
)

// fieldByteSize returns the encoded width of one flow-key field.
func fieldByteSize(field string) int {
	switch field {
	case "SrcIP", "DstIP":
		return ipByteSize
	case "SrcPort", "DstPort":
		return portByteSize
	case "Protocol":
		return protoByteSize
	default:
		return 0
	}
}

// flowKeySize returns the total encoded width of a flow key built from
// fields.
func flowKeySize(fields []string) int {
	size := 0
	for _, f := range fields {
		size += fieldByteSize(f)
	}
	return size
}

// encodeFlowKey packs ft's configured fields into a fixed-width byte key, the
// value every sketch hashes and Deltoid bit-decomposes.
func encodeFlowKey(fields []string, ft *model.FiveTuple) []byte {
	buf := make([]byte, flowKeySize(fields))
	offset := 0
	for _, f := range fields {
		switch f {
		case "SrcIP":
			copy(buf[offset:], ft.SrcIP.To16())
			offset += ipByteSize
		case "DstIP":
			copy(buf[offset:], ft.DstIP.To16())
			offset += ipByteSize
		case "SrcPort":
			binary.BigEndian.PutUint16(buf[offset:], ft.SrcPort)
			offset += portByteSize
		case "DstPort":
			binary.BigEndian.PutUint16(buf[offset:], ft.DstPort)
			offset += portByteSize
		case "Protocol":
			buf[offset] = ft.Protocol
			offset += protoByteSize
		}
	}
	return buf
}

// decodeFlowKey renders an encoded flow key back into a readable string, the
// same shape a heavy-hitter report prints.
func decodeFlowKey(fields []string, key []byte) string {
	parts := make([]string, 0, len(fields))
	offset := 0
	for _, f := range fields {
		switch f {
		case "SrcIP", "DstIP":
			parts = append(parts, net.IP(key[offset:offset+ipByteSize]).String())
			offset += ipByteSize
		case "SrcPort", "DstPort":
			parts = append(parts, strconv.Itoa(int(binary.BigEndian.Uint16(key[offset:offset+portByteSize]))))
			offset += portByteSize
		case "Protocol":
			parts = append(parts, strconv.Itoa(int(key[offset])))
			offset += protoByteSize
		}
	}
	return strings.Join(parts, " ")
}
