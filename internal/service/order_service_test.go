package service

import (
	"errors"
	"testing"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		CustomerName:  "Maria",
		CustomerPhone: "+5511999999999",
		DeliveryType:  models.DeliveryTypePickup,
		Items: []OrderItemRequest{
			{ProductID: uuid.New(), ProductName: "Margherita", Quantity: 1, UnitPrice: 3500},
		},
	}
}

func TestValidateCreateOrder(t *testing.T) {
	assert.NoError(t, validateCreateOrder(validRequest()))
}

func TestValidateCreateOrderMissingPhone(t *testing.T) {
	req := validRequest()
	req.CustomerPhone = ""

	err := validateCreateOrder(req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestValidateCreateOrderDeliveryNeedsAddress(t *testing.T) {
	req := validRequest()
	req.DeliveryType = models.DeliveryTypeDelivery
	req.Address = ""

	err := validateCreateOrder(req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	req.Address = "Rua Augusta 123"
	assert.NoError(t, validateCreateOrder(req))
}

func TestValidateCreateOrderUnknownDeliveryType(t *testing.T) {
	req := validRequest()
	req.DeliveryType = "drone"

	err := validateCreateOrder(req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestValidateCreateOrderNoItems(t *testing.T) {
	req := validRequest()
	req.Items = nil

	err := validateCreateOrder(req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestValidateCreateOrderBadQuantity(t *testing.T) {
	req := validRequest()
	req.Items[0].Quantity = 0

	err := validateCreateOrder(req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestOrderTotal(t *testing.T) {
	items := []OrderItemRequest{
		{Quantity: 2, UnitPrice: 1000},
		{Quantity: 1, UnitPrice: 500},
	}

	assert.Equal(t, int64(2500), orderTotal(items))
}

func TestOrderTotalEmpty(t *testing.T) {
	assert.Equal(t, int64(0), orderTotal(nil))
}
