// ABOUTME: Package driver loads audio backends and owns the active one
// ABOUTME: Built-in backends resolve in-process; other names load as shared libraries

// Package driver finds, loads and initializes audio drivers.
//
// A driver is a base interface (Init, Shutdown, Event, Set) plus up to three
// optional sub-interfaces: SFX, Music and CD. The Loader resolves a driver
// name to a Descriptor, either from its table of built-in factories or by
// opening a shared library named after the platform convention. The
// Registry keeps exactly one driver active and builds the SFX engine and
// the music aggregator on top of whatever sub-interfaces it provides.
//
// Example usage:
//
//	reg := driver.NewRegistry(driver.NewLoader(driver.Options{}), driver.Config{})
//	if err := reg.Init("mixer"); err != nil {
//	    log.Printf("mixer unavailable, running headless: %v", err)
//	}
//	defer reg.Shutdown()
//
//	engine := reg.SFX()
//	buf, _ := engine.Create(0, 16, 44100)
package driver
