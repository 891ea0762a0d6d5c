// ABOUTME: Version and product information
// ABOUTME: Reported by the demo tools and the driver monitor
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "Audiodriver"

	// Manufacturer is the organization releasing it
	Manufacturer = "Resonate Protocol"
)
