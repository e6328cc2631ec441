// Package pcap feeds an offline capture file into the driver's ingestion
// channel.
package pcap

import (
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"github.com/hovering-clouds/acsengine/internal/model"
	"github.com/hovering-clouds/acsengine/internal/protocol"
)

// Reader reads packets from a pcap file.
type Reader struct {
	handle *pcap.Handle
}

// NewReader opens filePath for offline replay.
func NewReader(filePath string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle}, nil
}

// Close closes the pcap handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// ReadPackets decodes every packet in the capture and sends it to out. It
// does not close out; the caller owns the channel's lifetime since out is
// typically a driver's shared ingestion channel.
func (r *Reader) ReadPackets(out chan<- *model.PacketInfo) {
	packetSource := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for packet := range packetSource.Packets() {
		info, err := protocol.ParsePacket(packet.Data())
		if err != nil {
			log.Printf("pcap: error parsing packet: %v", err)
			continue
		}
		out <- info
	}
}
