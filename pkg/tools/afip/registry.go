package afip

import (
	"github.com/fiscal-ar/afip-connector/pkg/connector/afip"
	"github.com/fiscal-ar/afip-connector/pkg/tools"
)

// RegisterTools registers every AFIP tool on the registry.
func RegisterTools(registry *tools.Registry, connector *afip.Connector) error {
	all := []tools.Tool{
		NewLoginTool(connector),
		NewLogoutTool(connector),
		NewPendingPaymentsTool(connector),
		NewAccountStatementTool(connector),
		NewSolverStatusTool(connector),
	}
	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
