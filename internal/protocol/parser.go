// Package protocol decodes raw packet bytes into the 5-tuple records the
// driver's workers consume.
package protocol

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/hovering-clouds/acsengine/internal/model"
)

// ParsePacket decodes one raw packet, extracting its 5-tuple and length.
// Only IPv4 packets carrying TCP or UDP are supported; anything else
// returns an error so the caller can skip it.
func ParsePacket(data []byte) (*model.PacketInfo, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)

	info := &model.PacketInfo{
		Timestamp: time.Now(),
		Length:    len(data),
	}
	if meta := packet.Metadata(); meta != nil {
		info.Timestamp = meta.Timestamp
	}

	var ft model.FiveTuple

	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return nil, fmt.Errorf("protocol: not an IPv4 packet")
	}
	ip := ipLayer.(*layers.IPv4)
	ft.SrcIP = ip.SrcIP
	ft.DstIP = ip.DstIP
	ft.Protocol = uint8(ip.Protocol)

	switch {
	case packet.Layer(layers.LayerTypeTCP) != nil:
		tcp := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		ft.SrcPort = uint16(tcp.SrcPort)
		ft.DstPort = uint16(tcp.DstPort)
	case packet.Layer(layers.LayerTypeUDP) != nil:
		udp := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		ft.SrcPort = uint16(udp.SrcPort)
		ft.DstPort = uint16(udp.DstPort)
	default:
		return nil, fmt.Errorf("protocol: not a TCP or UDP packet")
	}

	info.FiveTuple = ft
	return info, nil
}
