// Package inventory reads the VM list from the control plane.
//
// Client posts the Connect JSON call VMService/ListVMs through resty on a
// retryablehttp transport and follows page tokens to the last page, behind
// a token-bucket limiter and a circuit breaker. Store
// caches the last successful list for the picker and polls in the
// background.
//
// Example Usage:
//
//	client := inventory.NewClient(inventory.Options{BaseURL: cfg.Inventory.BaseURL})
//	store := inventory.NewStore(client).WithLogger(logger)
//	go store.Run(ctx, cfg.Inventory.RefreshInterval)
package inventory
