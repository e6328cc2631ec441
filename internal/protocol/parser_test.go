package protocol

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildPacket(t *testing.T, withL4 bool) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    net.ParseIP("10.0.0.1").To4(),
		DstIP:    net.ParseIP("10.0.0.2").To4(),
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{SrcPort: 1234, DstPort: 443}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if withL4 {
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp); err != nil {
			t.Fatalf("SerializeLayers: %v", err)
		}
	} else {
		if err := gopacket.SerializeLayers(buf, opts, eth, ip); err != nil {
			t.Fatalf("SerializeLayers: %v", err)
		}
	}
	return buf.Bytes()
}

func TestParsePacketTCP(t *testing.T) {
	data := buildPacket(t, true)

	info, err := ParsePacket(data)
	if err != nil {
		t.Fatalf("ParsePacket() error = %v", err)
	}
	if !info.FiveTuple.SrcIP.Equal(net.ParseIP("10.0.0.1")) {
		t.Errorf("SrcIP = %v, want 10.0.0.1", info.FiveTuple.SrcIP)
	}
	if !info.FiveTuple.DstIP.Equal(net.ParseIP("10.0.0.2")) {
		t.Errorf("DstIP = %v, want 10.0.0.2", info.FiveTuple.DstIP)
	}
	if info.FiveTuple.SrcPort != 1234 || info.FiveTuple.DstPort != 443 {
		t.Errorf("ports = %d/%d, want 1234/443", info.FiveTuple.SrcPort, info.FiveTuple.DstPort)
	}
	if info.FiveTuple.Protocol != uint8(layers.IPProtocolTCP) {
		t.Errorf("protocol = %d, want %d", info.FiveTuple.Protocol, layers.IPProtocolTCP)
	}
	if info.Length != len(data) {
		t.Errorf("Length = %d, want %d", info.Length, len(data))
	}
}

func TestParsePacketRejectsNonIPv4(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte{0, 1, 2, 3, 4, 5},
		SourceProtAddress: []byte{10, 0, 0, 1},
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte{10, 0, 0, 2},
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}

	if _, err := ParsePacket(buf.Bytes()); err == nil {
		t.Fatal("expected an error for a non-IPv4 packet")
	}
}

func TestParsePacketRejectsUnsupportedL4(t *testing.T) {
	data := buildPacket(t, false)
	if _, err := ParsePacket(data); err == nil {
		t.Fatal("expected an error for an IPv4 packet with no TCP/UDP layer")
	}
}
