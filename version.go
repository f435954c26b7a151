package gobxd

// Version is the library release written into every ApplicationRequest.
const Version = "0.4.0"

// LibraryName identifies the software towards the bank.
const LibraryName = "go-bxd"

// SoftwareID returns the value of the ApplicationRequest SoftwareId element.
func SoftwareID() string {
	return LibraryName + " version " + Version
}
