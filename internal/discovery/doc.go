// Package discovery provides USB bus enumeration for supported LCD panels.
//
// Panels are raw HID devices; they carry no network stack and advertise
// nothing. Discovery is therefore a walk over the host's HID device list,
// matched against the table of known vendor/product identities.
//
// # Discovery Process
//
//  1. Enumerate every HID device on the bus
//  2. Match vendor/product IDs against the supported model table
//  3. Collect device identity (path, serial, product strings, release)
//  4. Return the matched panels; opening is a separate, explicit step
//
// # Usage Example
//
//	devices, err := discovery.Scan()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, device := range devices {
//	    fmt.Printf("Found: %s\n", device)
//	}
//
// # Waiting for Re-enumeration
//
// After a reboot or firmware upgrade the panel drops off the bus and comes
// back with the same serial. WaitForDevice polls with backoff until it
// reappears:
//
//	device, err := scanner.WaitForDevice(ctx, serial, 30*time.Second)
//
// # Thread Safety
//
// Scanners hold no state beyond their model table and are safe for
// concurrent use.
package discovery
