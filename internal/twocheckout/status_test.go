package twocheckout_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arfan-dev/storefront-api/internal/twocheckout"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   twocheckout.Outcome
	}{
		{"COMPLETE", twocheckout.OutcomeSuccessful},
		{"complete", twocheckout.OutcomeSuccessful},
		{" AuthReceived ", twocheckout.OutcomeSuccessful},
		{"PAYMENT_AUTHORIZED", twocheckout.OutcomeSuccessful},
		{"PENDING", twocheckout.OutcomePending},
		{"pending_approval", twocheckout.OutcomePending},
		{"PAYMENT_RECEIVED", twocheckout.OutcomePending},
		{"CANCELED", twocheckout.OutcomeFailed},
		{"refund", twocheckout.OutcomeFailed},
		{"REVERSED", twocheckout.OutcomeFailed},
		{"FRAUD", twocheckout.OutcomeFailed},
		{"EXPIRED", twocheckout.OutcomeFailed},
		{"", twocheckout.OutcomeUnknown},
		{"SOMETHING_NEW", twocheckout.OutcomeUnknown},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, twocheckout.Classify(tt.status), "status=%q", tt.status)
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "successful", twocheckout.OutcomeSuccessful.String())
	require.Equal(t, "pending", twocheckout.OutcomePending.String())
	require.Equal(t, "failed", twocheckout.OutcomeFailed.String())
	require.Equal(t, "unknown", twocheckout.OutcomeUnknown.String())
}
