package interfaces

import "shop-sim-viewer/src/models"

// -----------------------------------------------------------------------------
// ISessionObserver receives every frame a session publishes, in causal order.
// -----------------------------------------------------------------------------

type ISessionObserver interface {
	OnFrame(frame models.MSessionFrame)
}

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for sharing session frames with viewers (Server/Push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	ISessionObserver

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
