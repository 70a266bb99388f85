package inventory

import "context"

// LegacyOrderConsumptionReason tags OUT movements posted per order by the old consumption flow.
const LegacyOrderConsumptionReason = "Baixa automática por pedido"

const CompensationReason = "Realinhamento de fluxo de consumo"

type UseCase interface {
	// RebalanceLegacyOrderConsumption posts a compensating IN for every legacy OUT of an
	// in-flight order and returns how many were posted by this call.
	RebalanceLegacyOrderConsumption(ctx context.Context) (int, error)
}
