package payment

import (
	"errors"

	"yumspot-api/models"

	"gorm.io/gorm"
)

const StatusPaid = "PAID"

var ErrAlreadyPaid = errors.New("order already has a payment")

// OrderTotal is Σ(quantity × current food price) over the order's lines.
func OrderTotal(db *gorm.DB, orderID uint) (int64, error) {
	var total int64
	err := db.Model(&models.OrderDetails{}).
		Select("COALESCE(SUM(order_details.quantity * foods.price), 0)").
		Joins("JOIN foods ON foods.id = order_details.food_id").
		Where("order_details.order_id = ?", orderID).
		Scan(&total).Error
	return total, err
}

// RecordPayment stores the payment of an order, priced from its lines.
func RecordPayment(db *gorm.DB, orderID uint, status string) (*models.Payment, error) {
	var p models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyPaid
		}
		total, err := OrderTotal(tx, orderID)
		if err != nil {
			return err
		}
		p = models.Payment{
			Base:    models.Base{Active: true},
			OrderID: orderID,
			Amount:  float64(total),
			Status:  status,
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
