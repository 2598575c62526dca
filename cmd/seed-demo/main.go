// seed-demo migrates the schema and loads a small demo dataset for one
// tenant: a handful of clients, routes, products with stock, a route price
// override, and one pending order.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... TENANT_ID=demo go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/CarlosEstrada30/smart-orders-api-sub000/config"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/models"
	"github.com/CarlosEstrada30/smart-orders-api-sub000/utils"
	"github.com/shopspring/decimal"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	models.MigrateTable()

	tenantId := os.Getenv("TENANT_ID")
	if tenantId == "" {
		tenantId = "demo"
	}

	ctx := context.Background()
	ctx = utils.WithTenant(ctx, tenantId)
	ctx = utils.WithUser(ctx, 1)

	client, err := models.CreateClient(ctx, &models.NewClient{
		Name:    "Tienda La Esperanza",
		Phone:   "+50255512345",
		Address: "Zona 1, Ciudad de Guatemala",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create client: %v\n", err)
		os.Exit(1)
	}

	route, err := models.CreateRoute(ctx, &models.NewRoute{
		Name:        "Ruta Norte",
		Description: "Northern delivery circuit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create route: %v\n", err)
		os.Exit(1)
	}

	type seedProduct struct {
		name  string
		sku   string
		price string
		stock string
	}
	seeds := []seedProduct{
		{"Queso Fresco 1lb", "QF-001", "25.00", "100"},
		{"Crema 500ml", "CR-500", "18.50", "80"},
		{"Requeson 1lb", "RQ-001", "22.00", "50"},
	}

	var products []*models.Product
	for _, s := range seeds {
		price, _ := decimal.NewFromString(s.price)
		stock, _ := decimal.NewFromString(s.stock)
		p, err := models.CreateProduct(ctx, &models.NewProduct{
			Name:  s.name,
			Sku:   s.sku,
			Price: price,
			Stock: stock,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create product %s: %v\n", s.sku, err)
			os.Exit(1)
		}
		products = append(products, p)
	}

	routePrice, _ := decimal.NewFromString("23.00")
	if _, err := models.UpsertProductRoutePrice(ctx, products[0].ID, route.ID, routePrice); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set route price: %v\n", err)
		os.Exit(1)
	}

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		ClientId: client.ID,
		RouteId:  &route.ID,
		Items: []models.NewOrderItem{
			{ProductId: products[0].ID, Quantity: decimal.NewFromInt(10)},
			{ProductId: products[1].ID, Quantity: decimal.NewFromInt(5)},
		},
		Notes: "seed order",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create order: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded tenant %s: client=%d route=%d products=%d order=%s\n",
		tenantId, client.ID, route.ID, len(products), order.OrderNumber)
}
