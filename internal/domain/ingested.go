package domain

import "time"

// Ingested announces one record that was loaded into the backend. Record is
// the loaded HomePriceIndex, TreasuryYield, Region or HomeValueSeries.
type Ingested struct {
	Family     string    `json:"family"`
	Key        string    `json:"key"`
	Record     any       `json:"record"`
	IngestedAt time.Time `json:"ingested_at"`
}
