// Package config provides environment-based configuration for the console
// workspace service.
//
// Configuration follows 12-factor principles: every value comes from an
// environment variable with a default in the struct tag. An optional .env
// file is loaded first for local development.
//
// Environment Variables:
//
//	PORT, HOST                      HTTP listener
//	CORS_ORIGINS                    allowed browser origins, comma separated (*)
//	INVENTORY_URL, INVENTORY_TOKEN  control plane VM inventory
//	INVENTORY_TIMEOUT               per-request timeout (10s)
//	INVENTORY_REFRESH               poll interval (15s)
//	INVENTORY_RPS                   outbound request rate (5)
//	INVENTORY_PAGE_SIZE             VMs requested per page (100)
//	CONSOLE_MAX_SESSIONS            concurrent consoles per workspace (12, 0 = unbounded)
//	CONSOLE_THUMBNAIL_INTERVAL      minimum gap between thumbnails per VM (1s)
//	CONSOLE_THUMBNAIL_MAX_BYTES     largest accepted thumbnail payload (512 KiB)
//	CONSOLE_PRIMARY_MODIFIER        ctrl, meta or alt
//	WORKSPACE_STORAGE_PATH          layout files directory
//	WORKSPACE_STORAGE_ENABLED       persist layouts (true)
//	LOG_LEVEL, LOG_DEV              logging
//	RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
