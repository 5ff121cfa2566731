package model

// ExportTarget is a destination discovered from a provider into which an item
// can be created. Group is the label of the parent container and is empty for
// providers with a flat hierarchy.
type ExportTarget struct {
	ID    string
	Name  string
	Group string
}

// ExportItem is the payload created remotely. It is built per export action
// and never persisted.
type ExportItem struct {
	Title   string
	Content string
}

// ExportState tracks a single discovery or export operation. Nothing is
// retained between operations; every call starts from ExportStateIdle.
type ExportState string

const (
	ExportStateIdle            ExportState = "idle"
	ExportStateDiscovering     ExportState = "discovering"
	ExportStateTargetsReady    ExportState = "targets_ready"
	ExportStateDiscoveryFailed ExportState = "discovery_failed"
	ExportStateExporting       ExportState = "exporting"
	ExportStateExportSucceeded ExportState = "export_succeeded"
	ExportStateExportFailed    ExportState = "export_failed"
)

// IsTerminal reports whether s ends an operation.
func (s ExportState) IsTerminal() bool {
	switch s {
	case ExportStateTargetsReady, ExportStateDiscoveryFailed,
		ExportStateExportSucceeded, ExportStateExportFailed:
		return true
	default:
		return false
	}
}
