package models

import (
	"log"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Client{}, &Route{},
		&Product{}, &ProductRoutePrice{},
		&Order{}, &OrderItem{},
		&Payment{},
		&OutboxMessageRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
