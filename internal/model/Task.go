package model

// Task wraps one configured sketch bound into the shared counter pool: the
// driver hands every record to every task's ProcessPacket, then triggers a
// Snapshot once the pool has been restored.
type Task interface {
	ProcessPacket(packet *PacketInfo)
	Snapshot() interface{}
	Name() string
}