// Package page models the browser side effects analytics providers depend on:
// the window's global namespace, where vendors keep command queues and state,
// and the script loader that fetches vendor libraries.
//
// Two windows are provided. MemoryWindow records pushed commands for
// inspection. RuntimeWindow backs the namespace with a goja JavaScript
// runtime so fetched vendor scripts can consume the queues they expect.
//
//	win := page.NewRuntimeWindow(5 * time.Second)
//	loader := page.NewHTTPLoader(page.HTTPLoaderConfig{Scheme: "https"}, win)
//	defer loader.Close(ctx)
package page
