package dto

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, registerOn(v))
	return v
}

func TestPurchaseOrderRequestValidation(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "valid",
			body: `{"supplierId":"7d5bbd3e-1c7a-4b59-9a38-3f1d3b7b6f10","items":[{"medicineId":"0b8e3e5e-4a53-4f61-8f0e-6cf3c2d3b1a2","quantity":10,"unitCost":"5.50"}],"taxPercent":10}`,
		},
		{
			name:    "negative unit cost",
			body:    `{"supplierId":"7d5bbd3e-1c7a-4b59-9a38-3f1d3b7b6f10","items":[{"medicineId":"0b8e3e5e-4a53-4f61-8f0e-6cf3c2d3b1a2","quantity":10,"unitCost":"-1"}]}`,
			wantErr: "items[0].unitCost",
		},
		{
			name:    "zero quantity",
			body:    `{"supplierId":"7d5bbd3e-1c7a-4b59-9a38-3f1d3b7b6f10","items":[{"medicineId":"0b8e3e5e-4a53-4f61-8f0e-6cf3c2d3b1a2","quantity":0,"unitCost":"1"}]}`,
			wantErr: "items[0].quantity",
		},
		{
			name:    "supplier not a uuid",
			body:    `{"supplierId":"acme","items":[]}`,
			wantErr: "supplierId",
		},
		{
			name:    "negative discount",
			body:    `{"supplierId":"7d5bbd3e-1c7a-4b59-9a38-3f1d3b7b6f10","discountAmount":"-0.01"}`,
			wantErr: "discountAmount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreatePurchaseOrderRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			err := v.Struct(&req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			appErr := BindingError(err, "invalid request body")
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			fields, ok := appErr.Details["fields"].(map[string]string)
			require.True(t, ok)
			assert.Contains(t, fields, tt.wantErr)
		})
	}
}

func TestApproveRequestOptionalAmount(t *testing.T) {
	v := newValidator(t)

	var req ApprovePurchaseOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.NoError(t, v.Struct(&req))
	assert.Nil(t, req.ToInput().ApprovedAmount)

	require.NoError(t, json.Unmarshal([]byte(`{"approvedAmount":"-5"}`), &req))
	assert.Error(t, v.Struct(&req))
}

func TestDateAcceptsDayAndTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"2026-03-01"`, "2026-03-01"},
		{`"2026-03-01T10:30:00Z"`, "2026-03-01"},
	}
	for _, tt := range tests {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(tt.in), &d))
		assert.Equal(t, tt.want, d.Format(dateLayout))
	}

	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"01/03/2026"`), &d))
}

func TestPurchaseOrderListQueryToFilter(t *testing.T) {
	q := PurchaseOrderListQuery{Status: "approved", FromDate: "2026-01-01"}
	filter, err := q.ToFilter()
	require.NoError(t, err)
	require.NotNil(t, filter.Status)
	assert.Equal(t, "approved", filter.Status.String())
	require.NotNil(t, filter.FromDate)
	assert.Nil(t, filter.ToDate)
	assert.Equal(t, 50, filter.Limit)

	q = PurchaseOrderListQuery{Status: "shipped"}
	_, err = q.ToFilter()
	assert.True(t, apperror.IsValidation(err))

	q = PurchaseOrderListQuery{SupplierID: "nope"}
	_, err = q.ToFilter()
	assert.True(t, apperror.IsValidation(err))
}

func TestGenerateOrdersRequestDefaultsToGrouping(t *testing.T) {
	var req GenerateOrdersRequest
	require.NoError(t, json.Unmarshal([]byte(`{"autoApprove":true}`), &req))

	in := req.ToInput(id.New(), "u-1")
	assert.True(t, in.GroupBySupplier)
	assert.True(t, in.AutoApprove)
	assert.True(t, in.MinOrderValue.IsZero())
}
