package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote_EconomyScenario(t *testing.T) {
	// 2 adults + 1 child on Economy at 150000 per seat
	b := Quote(150000, 3, DefaultFees())

	assert.Equal(t, int64(450000), b.TicketPrice)
	assert.Equal(t, int64(15000), b.AdminFee)
	assert.Equal(t, int64(30000), b.ServiceFee)
	assert.Equal(t, int64(495000), b.Total)
}

func TestQuote_Deterministic(t *testing.T) {
	fees := Fees{AdminFee: 2500, ServiceFee: 7500}

	first := Quote(80000, 4, fees)
	second := Quote(80000, 4, fees)

	assert.Equal(t, first, second)
	assert.Equal(t, first.TicketPrice+first.AdminFee+first.ServiceFee, first.Total)
}

func TestQuote_TableDriven(t *testing.T) {
	tests := []struct {
		name       string
		unitPrice  int64
		passengers int
		fees       Fees
		wantTotal  int64
	}{
		{"single passenger default fees", 100000, 1, DefaultFees(), 115000},
		{"zero passengers", 150000, 0, DefaultFees(), 0},
		{"zero fees", 50000, 2, Fees{}, 100000},
		{"large party", 200000, 10, DefaultFees(), 2150000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Quote(tt.unitPrice, tt.passengers, tt.fees)
			assert.Equal(t, tt.wantTotal, b.Total)
			assert.Equal(t, tt.unitPrice*int64(tt.passengers), b.TicketPrice)
		})
	}
}
