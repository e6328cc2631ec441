// Package model holds the record shape a stream feeds into the engine: the
// 5-tuple flow identity and per-record metadata every sketch is handed.
package model

import (
	"net"
	"time"
)

// FiveTuple represents the 5-tuple of a network packet.
type FiveTuple struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// PacketInfo holds the metadata extracted from a single packet.
type PacketInfo struct {
	Timestamp time.Time
	FiveTuple FiveTuple
	Length    int
}

// CntMethod selects whether a sketch's update value is the packet count (1
// per record) or the record's byte length.
type CntMethod int

const (
	InPacket CntMethod = iota
	InLength
)

// Delta returns the value a single record contributes under this counting
// method.
func (m CntMethod) Delta(info *PacketInfo) int64 {
	if m == InLength {
		return int64(info.Length)
	}
	return 1
}