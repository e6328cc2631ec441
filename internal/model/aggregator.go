package model

// Engine is the interface a process entry point drives: start the ingestion
// workers, accept records on Input, and shut down cleanly once the epoch
// loop has finished its final restore.
type Engine interface {
	// Start launches the engine's ingestion workers and epoch loop.
	Start()

	// Stop gracefully shuts down the engine, ensuring any in-flight epoch
	// finishes its restore before returning.
	Stop()

	// Input returns the channel records should be sent to for processing.
	Input() chan<- *PacketInfo
}
