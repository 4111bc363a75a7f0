package entities_test

import (
	"fmt"

	"github.com/ordermart/ordermart/pkg/db/entities"
)

// Example_basicUsage demonstrates basic entity usage patterns.
func Example_basicUsage() {
	entity := entities.EnrichedOrders

	fmt.Println("Live table:", entity.TableName())
	fmt.Println("Staging table:", entity.StagingTableName())
	fmt.Println("Layer:", entity.Layer())
	fmt.Println("Key:", entity.Key())

	// Output:
	// Live table: int_enriched_orders
	// Staging table: int_enriched_orders_staging
	// Layer: intermediate
	// Key: [order_id]
}

// Example_aliases demonstrates resolving API path segments.
func Example_aliases() {
	for _, input := range []string{"seller_scorecard", "mart_seller_scorecard", "blocks"} {
		entity, err := entities.FromString(input)
		if err != nil {
			fmt.Println("invalid:", input)
			continue
		}
		fmt.Println(input, "->", entity)
	}

	// Output:
	// seller_scorecard -> mart_seller_scorecard
	// mart_seller_scorecard -> mart_seller_scorecard
	// invalid: blocks
}

// Example_layers demonstrates iterating the layers in publish order.
func Example_layers() {
	for _, layer := range entities.Layers() {
		fmt.Println(layer, len(entities.ByLayer(layer)))
	}

	// Output:
	// staging 9
	// intermediate 5
	// marts 5
}
