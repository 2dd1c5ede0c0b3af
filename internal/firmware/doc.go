// Package firmware maps devices to firmware packages and loads their bytes.
//
// A Mapping assigns a package path to a device position. Resolve looks a
// device up in the mapping and reports whether there is a package for it;
// an unmapped device is a normal condition that the installer reports as
// skipped. Package bytes are read through a Loader so that tests and other
// storage backends can stand in for the local file system.
//
// Package content is never inspected. Digest only fingerprints the bytes
// so a report can show exactly what was sent.
package firmware
