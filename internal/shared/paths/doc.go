// Package paths provides the on-disk layout of workspace storage.
//
// # Directory Structure
//
//	<root>/
//	  └── layouts/
//	      ├── ws_01J....yaml
//	      └── ws_01K....yaml
//
// # Usage
//
//	storage := paths.NewStorage(cfg.Storage.Path)
//	file := storage.LayoutFile("ws_01J...")
//
//	if err := paths.ValidateWorkspaceID(id); err != nil {
//	    // Reject before touching the filesystem
//	}
package paths
