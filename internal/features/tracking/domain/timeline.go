package domain

import orders "order-tracker/internal/features/orders/domain"

// Stage is one position on the linear progress bar.
type Stage struct {
	Status   orders.Status `json:"status"`
	Label    string        `json:"label"`
	Complete bool          `json:"complete"`
	Current  bool          `json:"current"`
}

// Projection is the renderer-neutral view of an order status.
// Special projections (cancellation requested, cancelled, returned) carry no stages.
type Projection struct {
	Status  orders.Status `json:"status"`
	Label   string        `json:"label"`
	Special bool          `json:"special"`
	Stages  []Stage       `json:"stages"`
}

// Project maps a status onto the linear stage table. It is pure and deterministic.
//
// Stages before the current one are complete. The current stage is marked
// Current and is only Complete when it is the final stage.
func Project(status orders.Status) Projection {
	priority, ok := status.Priority()
	if !ok {
		return Projection{
			Status:  status,
			Label:   status.Label(),
			Special: true,
			Stages:  []Stage{},
		}
	}

	table := orders.LinearStages()
	last := len(table) - 1
	stages := make([]Stage, 0, len(table))
	for i, s := range table {
		p, _ := s.Priority()
		stages = append(stages, Stage{
			Status:   s,
			Label:    s.Label(),
			Complete: p < priority || (p == priority && i == last),
			Current:  p == priority,
		})
	}

	return Projection{
		Status: status,
		Label:  status.Label(),
		Stages: stages,
	}
}

// CurrentStage returns the stage marked current, if any.
func (p Projection) CurrentStage() (Stage, bool) {
	for _, s := range p.Stages {
		if s.Current {
			return s, true
		}
	}
	return Stage{}, false
}
