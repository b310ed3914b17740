package applicant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivedOnTimeRatio(t *testing.T) {
	tests := []struct {
		name     string
		payment  *PaymentHistory
		expected float64
	}{
		{
			name:     "nil payment falls back to default",
			payment:  nil,
			expected: 0.5,
		},
		{
			name:     "explicit ratio wins over counts",
			payment:  &PaymentHistory{OnTimeRatio: ptr(0.9), OnTimePayments: ptr(1), TotalPayments: ptr(10)},
			expected: 0.9,
		},
		{
			name:     "derives from counts",
			payment:  &PaymentHistory{OnTimePayments: ptr(8), TotalPayments: ptr(10)},
			expected: 0.8,
		},
		{
			name:     "zero total guards division",
			payment:  &PaymentHistory{OnTimePayments: ptr(3), TotalPayments: ptr(0)},
			expected: 1.0,
		},
		{
			name:     "no counts falls back to default",
			payment:  &PaymentHistory{AverageAmount: ptr(2000)},
			expected: 0.5,
		},
		{
			name:     "explicit ratio clamps to one",
			payment:  &PaymentHistory{OnTimeRatio: ptr(1.7)},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.payment.DerivedOnTimeRatio(0.5), 1e-9)
		})
	}
}

func TestBoundHelpers(t *testing.T) {
	assert.Equal(t, 30.0, Value(nil, 30))
	assert.Equal(t, 45.0, Value(ptr(45), 30))

	assert.Equal(t, 0.2, Bound(nil, 0.2, 0, 1))
	assert.Equal(t, 1.0, Bound(ptr(2.5), 0.2, 0, 1))
	assert.Equal(t, 0.0, Bound(ptr(-0.5), 0.2, 0, 1))

	assert.Equal(t, 0.0, BoundMin(ptr(-10), 0, 0))
	assert.Equal(t, 150.0, BoundMin(ptr(150), 0, 0))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{
			name:    "empty record passes",
			record:  Record{},
			wantErr: false,
		},
		{
			name: "valid populated record",
			record: Record{
				Age:           ptr(28),
				MonthlyIncome: ptr(15000),
				Phone:         "+91 98765 43210",
				Email:         "asha@example.com",
			},
			wantErr: false,
		},
		{
			name:    "underage applicant",
			record:  Record{Age: ptr(17)},
			wantErr: true,
		},
		{
			name:    "income above cap",
			record:  Record{MonthlyIncome: ptr(20000000)},
			wantErr: true,
		},
		{
			name:    "phone with bad leading digit",
			record:  Record{Phone: "5876543210"},
			wantErr: true,
		},
		{
			name:    "malformed email",
			record:  Record{Email: "not-an-email"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPhoneNormalization(t *testing.T) {
	assert.True(t, IsValidPhone("9876543210"))
	assert.True(t, IsValidPhone("+919876543210"))
	assert.True(t, IsValidPhone("98765-43210"))
	assert.False(t, IsValidPhone("12345"))
	assert.False(t, IsValidPhone("1876543210"))
}
