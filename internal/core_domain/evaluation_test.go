package core_domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func receiptPtr(s AppRecStatus) *AppRecStatus {
	return &s
}

func TestEvaluate_AcknowledgedWithReceiptOK(t *testing.T) {
	cls := Evaluate(DeliveryAcknowledged, receiptPtr(AppRecOK))
	assert.Equal(t, ClassificationAcknowledged, cls.Kind)
	assert.Equal(t, DeliveryAcknowledged, cls.DeliveryState)
	assert.Equal(t, AppRecOK, cls.AppRecStatus)
	assert.True(t, cls.Resolved())
}

func TestEvaluate_AcknowledgedWithReceiptOKErrorInMessagePart(t *testing.T) {
	cls := Evaluate(DeliveryAcknowledged, receiptPtr(AppRecOKErrorInMessagePart))
	assert.Equal(t, ClassificationAcknowledged, cls.Kind)
	assert.Equal(t, AppRecOKErrorInMessagePart, cls.AppRecStatus)
	assert.True(t, cls.Resolved())
}

func TestEvaluate_AcknowledgedWithReceiptRejected(t *testing.T) {
	// Receipt-level rejection resolves, but keeps the acknowledged delivery
	// state so it stays distinguishable from a delivery-level rejection.
	cls := Evaluate(DeliveryAcknowledged, receiptPtr(AppRecRejected))
	assert.Equal(t, ClassificationRejected, cls.Kind)
	assert.Equal(t, DeliveryAcknowledged, cls.DeliveryState)
	assert.Equal(t, AppRecRejected, cls.AppRecStatus)
	assert.True(t, cls.Resolved())
}

func TestEvaluate_AcknowledgedWithoutReceiptIsPending(t *testing.T) {
	cls := Evaluate(DeliveryAcknowledged, nil)
	assert.Equal(t, ClassificationPending, cls.Kind)
	assert.False(t, cls.Resolved())
}

func TestEvaluate_DeliveryRejectedIgnoresReceipt(t *testing.T) {
	for _, receipt := range []*AppRecStatus{nil, receiptPtr(AppRecOK), receiptPtr(AppRecRejected)} {
		cls := Evaluate(DeliveryRejected, receipt)
		assert.Equal(t, ClassificationRejected, cls.Kind)
		assert.Equal(t, DeliveryRejected, cls.DeliveryState)
		assert.Equal(t, AppRecRejected, cls.AppRecStatus)
		assert.True(t, cls.Resolved())
	}
}

func TestEvaluate_UnconfirmedWithoutReceiptIsPending(t *testing.T) {
	cls := Evaluate(DeliveryUnconfirmed, nil)
	assert.Equal(t, ClassificationPending, cls.Kind)
}

func TestEvaluate_UnconfirmedWithReceiptIsUnresolvable(t *testing.T) {
	for _, receipt := range []AppRecStatus{AppRecOK, AppRecOKErrorInMessagePart, AppRecRejected} {
		cls := Evaluate(DeliveryUnconfirmed, receiptPtr(receipt))
		assert.Equal(t, ClassificationUnresolvable, cls.Kind, "receipt %s", receipt)
		assert.False(t, cls.Resolved())
	}
}

func TestEvaluate_UnknownDeliveryStateIsUnresolvable(t *testing.T) {
	cls := Evaluate(ExternalDeliveryState("SOMETHING_NEW"), nil)
	assert.Equal(t, ClassificationUnresolvable, cls.Kind)
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	first := Evaluate(DeliveryAcknowledged, receiptPtr(AppRecOK))
	second := Evaluate(DeliveryAcknowledged, receiptPtr(AppRecOK))
	assert.Equal(t, first, second)
}
