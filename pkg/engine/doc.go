// Package engine assembles the application from configuration (provider
// adapter, backend registry, capability catalog) and exposes chat sessions
// whose Send method is the single entry point front-ends call.
package engine
